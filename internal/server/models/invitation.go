package models

// Invitation is a pending request from sender to receiver or, once the
// receiver answered, the response travelling back to the sender.
type Invitation struct {
	SenderUsernameHashed      string `json:"senderUsernameHashed"`
	ReceiverUsernameHashed    string `json:"receiverUsernameHashed"`
	InvitationEncryptedSigned string `json:"invitationEncryptedSigned"`
	IsResponse                bool   `json:"isResponse"`
}
