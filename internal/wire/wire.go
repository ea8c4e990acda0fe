// Package wire holds the JSON bodies exchanged between the client and the
// relay.
package wire

import "time"

type RegisterRequest struct {
	UsernameHashed             string `json:"usernameHashed"`
	PasswordHashed             string `json:"passwordHashed"`
	PrivateKeyEncryptedArmored string `json:"privateKeyEncryptedArmored"`
	PublicKeyArmored           string `json:"publicKeyArmored"`
	MetadataEncryptedSigned    string `json:"metadataEncryptedSigned"`
}

type LoginRequest struct {
	UsernameHashed string `json:"usernameHashed"`
	PasswordHashed string `json:"passwordHashed"`
}

type LoginResponse struct {
	PrivateKeyEncryptedArmored string `json:"privateKeyEncryptedArmored"`
}

type CookieRequest struct {
	PayloadSigned string `json:"payloadSigned"`
}

type CookieResponse struct {
	UsernameHashed string    `json:"usernameHashed"`
	ValidUntil     time.Time `json:"validUntil"`
}

type PrivateKeyResponse struct {
	PrivateKeyEncryptedArmored string `json:"privateKeyEncryptedArmored"`
}

type PublicKeyResponse struct {
	PublicKeyArmored string `json:"publicKeyArmored"`
}

type Metadata struct {
	MetadataEncryptedSigned string `json:"metadataEncryptedSigned"`
}

type EventGetRequest struct {
	PasswordHashed string `json:"passwordHashed"`
}

type EventGetResponse struct {
	EventEncryptedSigned string `json:"eventEncryptedSigned"`
}

// EventPutRequest creates or updates an event envelope.
type EventPutRequest struct {
	ID                   string `json:"id"`
	PasswordHashed       string `json:"passwordHashed"`
	EventEncryptedSigned string `json:"eventEncryptedSigned"`
}

type EventDeleteRequest struct {
	ID string `json:"id"`
}

type InvitationSendRequest struct {
	ReceiverUsernameHashed    string `json:"receiverUsernameHashed"`
	InvitationEncryptedSigned string `json:"invitationEncryptedSigned"`
}

type InvitationRespondRequest struct {
	InvitationEncryptedSigned string `json:"invitationEncryptedSigned"`
}

// Invitation is one listed record. For requests the peer is the sender, for
// responses the receiver.
type Invitation struct {
	SenderUsernameHashed      string `json:"senderUsernameHashed"`
	ReceiverUsernameHashed    string `json:"receiverUsernameHashed"`
	InvitationEncryptedSigned string `json:"invitationEncryptedSigned"`
	IsResponse                bool   `json:"isResponse"`
}

type InvitationList struct {
	Invitations []Invitation `json:"invitations"`
}

type ExportResponse struct {
	URL string `json:"url"`
}
