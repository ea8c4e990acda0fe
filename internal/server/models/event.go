package models

// Event is one stored copy of an event envelope, addressed by its id and
// the hashed capability password.
type Event struct {
	ID                   string
	PasswordHashed       string
	OwnerUsernameHashed  string
	EventEncryptedSigned string
}
