package documents

import "github.com/dmitrijs2005/gophagenda/internal/validate"

// InvitationType tags the Invitation union.
type InvitationType string

const (
	InvitationContact InvitationType = "contact"
	InvitationEvent   InvitationType = "event"
)

// Invitation introduces the sender to the receiver and, for event
// invitations, hands over the event capability. PublicKeyArmored is the
// sender's key; the receiver verifies the envelope signature against it.
type Invitation struct {
	Type             InvitationType `json:"type"`
	Username         string         `json:"username"`
	PublicKeyArmored string         `json:"publicKeyArmored"`
	EventAccess      *EventAccess   `json:"eventAccess,omitempty"`
}

// DecodeInvitation parses and validates an invitation document.
func DecodeInvitation(data string) (*Invitation, error) {
	inv := &Invitation{}
	if err := decodeStrict(data, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (i *Invitation) Encode() (string, error) {
	return encode(i)
}

func (i *Invitation) Validate() error {
	if err := validate.Username(i.Username); err != nil {
		return err
	}
	if err := validate.PublicKeyArmored(i.PublicKeyArmored); err != nil {
		return err
	}
	switch i.Type {
	case InvitationContact:
		if i.EventAccess != nil {
			return invalid("contact invitation carries event access")
		}
	case InvitationEvent:
		if i.EventAccess == nil {
			return invalid("event invitation without event access")
		}
		return i.EventAccess.Validate()
	default:
		return invalid("unknown invitation type %q", i.Type)
	}
	return nil
}
