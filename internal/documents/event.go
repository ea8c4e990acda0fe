package documents

import (
	"time"

	"github.com/dmitrijs2005/gophagenda/internal/validate"
	"github.com/google/uuid"
)

// TimeRange is the span of an event. End may equal Begin.
type TimeRange struct {
	Begin time.Time `json:"begin"`
	End   time.Time `json:"end"`
}

// EventProperties are the user-editable fields of an event.
type EventProperties struct {
	Name        string    `json:"name"`
	Time        TimeRange `json:"time"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
}

// Event is a calendar entry, sealed symmetrically with the password of its
// EventAccess capability.
type Event struct {
	ID    string `json:"id"`
	Owner string `json:"owner"`
	EventProperties
	Attendees []string `json:"attendees"`
}

// NewEvent creates an event owned by owner with a fresh UUID v4.
func NewEvent(owner string, props EventProperties) (*Event, error) {
	e := &Event{
		ID:              uuid.NewString(),
		Owner:           owner,
		EventProperties: props,
		Attendees:       []string{},
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// DecodeEvent parses and validates an event document.
func DecodeEvent(data string) (*Event, error) {
	e := &Event{}
	if err := decodeStrict(data, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Event) Encode() (string, error) {
	if e.Attendees == nil {
		e.Attendees = []string{}
	}
	return encode(e)
}

func (e *Event) Validate() error {
	if err := validate.EventID(e.ID); err != nil {
		return err
	}
	if err := validate.Username(e.Owner); err != nil {
		return err
	}
	if e.Name == "" {
		return invalid("event name empty")
	}
	if e.Time.Begin.IsZero() || e.Time.End.IsZero() {
		return invalid("event time missing")
	}
	if e.Time.End.Before(e.Time.Begin) {
		return invalid("event ends before it begins")
	}
	if e.Attendees == nil {
		return invalid("attendees missing")
	}
	for _, a := range e.Attendees {
		if err := validate.Username(a); err != nil {
			return err
		}
	}
	return nil
}

// Update replaces the editable fields, keeping identity and attendees.
func (e *Event) Update(props EventProperties) error {
	prev := e.EventProperties
	e.EventProperties = props
	if err := e.Validate(); err != nil {
		e.EventProperties = prev
		return err
	}
	return nil
}

// AddAttendee records username once.
func (e *Event) AddAttendee(username string) error {
	if err := validate.Username(username); err != nil {
		return err
	}
	for _, a := range e.Attendees {
		if a == username {
			return nil
		}
	}
	e.Attendees = append(e.Attendees, username)
	return nil
}
