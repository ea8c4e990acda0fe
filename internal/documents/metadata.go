package documents

import (
	"strings"

	"github.com/dmitrijs2005/gophagenda/internal/validate"
)

// Metadata is the per-user profile, sealed to the user's own key.
type Metadata struct {
	Username string   `json:"username"`
	Agendas  []Agenda `json:"agendas"`
	Contacts []string `json:"contacts"`
}

// Agenda is a named, ordered list of event capabilities.
type Agenda struct {
	Name   string        `json:"name"`
	Events []EventAccess `json:"events"`
}

// EventAccess is the capability to read and write one event: whoever holds
// Password can open the event envelope.
type EventAccess struct {
	ID       string `json:"id"`
	Owner    string `json:"owner"`
	Password string `json:"password"`
}

// DefaultAgendaName returns "<username>'s agenda", or "<username>' agenda"
// when the name already ends in s.
func DefaultAgendaName(username string) string {
	suffix := "s"
	if strings.HasSuffix(username, "s") {
		suffix = ""
	}
	return username + "'" + suffix + " agenda"
}

// NewMetadata builds the profile created at registration.
func NewMetadata(username string) *Metadata {
	return &Metadata{
		Username: username,
		Agendas:  []Agenda{{Name: DefaultAgendaName(username), Events: []EventAccess{}}},
		Contacts: []string{},
	}
}

// DecodeMetadata parses and validates a metadata document.
func DecodeMetadata(data string) (*Metadata, error) {
	m := &Metadata{}
	if err := decodeStrict(data, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Encode serializes m as JSON.
func (m *Metadata) Encode() (string, error) {
	if m.Agendas == nil {
		m.Agendas = []Agenda{}
	}
	if m.Contacts == nil {
		m.Contacts = []string{}
	}
	for i := range m.Agendas {
		if m.Agendas[i].Events == nil {
			m.Agendas[i].Events = []EventAccess{}
		}
	}
	return encode(m)
}

func (m *Metadata) Validate() error {
	if err := validate.Username(m.Username); err != nil {
		return err
	}
	if m.Agendas == nil {
		return invalid("agendas missing")
	}
	if m.Contacts == nil {
		return invalid("contacts missing")
	}
	for i := range m.Agendas {
		if err := m.Agendas[i].Validate(); err != nil {
			return err
		}
	}
	for _, c := range m.Contacts {
		if err := validate.Username(c); err != nil {
			return err
		}
	}
	return nil
}

func (a *Agenda) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return invalid("agenda name empty")
	}
	if a.Events == nil {
		return invalid("agenda events missing")
	}
	for i := range a.Events {
		if err := a.Events[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (e *EventAccess) Validate() error {
	if err := validate.EventID(e.ID); err != nil {
		return err
	}
	if err := validate.Username(e.Owner); err != nil {
		return err
	}
	if e.Password == "" {
		return invalid("event password empty")
	}
	return nil
}

// AddAgenda appends a new empty agenda and returns its index.
func (m *Metadata) AddAgenda(name string) (int, error) {
	a := Agenda{Name: name, Events: []EventAccess{}}
	if err := a.Validate(); err != nil {
		return 0, err
	}
	m.Agendas = append(m.Agendas, a)
	return len(m.Agendas) - 1, nil
}

// AddContact records username once. It reports whether it was new.
func (m *Metadata) AddContact(username string) (bool, error) {
	if err := validate.Username(username); err != nil {
		return false, err
	}
	if m.HasContact(username) {
		return false, nil
	}
	m.Contacts = append(m.Contacts, username)
	return true, nil
}

func (m *Metadata) HasContact(username string) bool {
	for _, c := range m.Contacts {
		if c == username {
			return true
		}
	}
	return false
}

// AddEventAccess stores a capability in the agenda at index. A capability
// already present anywhere in the profile is not duplicated.
func (m *Metadata) AddEventAccess(agenda int, access EventAccess) error {
	if agenda < 0 || agenda >= len(m.Agendas) {
		return invalid("agenda index %d out of range", agenda)
	}
	if err := access.Validate(); err != nil {
		return err
	}
	if _, _, ok := m.FindEventAccess(access.ID); ok {
		return nil
	}
	m.Agendas[agenda].Events = append(m.Agendas[agenda].Events, access)
	return nil
}

// FindEventAccess looks up the capability for event id.
func (m *Metadata) FindEventAccess(id string) (EventAccess, int, bool) {
	for ai, a := range m.Agendas {
		for _, e := range a.Events {
			if e.ID == id {
				return e, ai, true
			}
		}
	}
	return EventAccess{}, 0, false
}

// RemoveEvent drops the capability for event id from every agenda.
func (m *Metadata) RemoveEvent(id string) bool {
	removed := false
	for ai := range m.Agendas {
		kept := m.Agendas[ai].Events[:0]
		for _, e := range m.Agendas[ai].Events {
			if e.ID == id {
				removed = true
				continue
			}
			kept = append(kept, e)
		}
		m.Agendas[ai].Events = kept
	}
	return removed
}
