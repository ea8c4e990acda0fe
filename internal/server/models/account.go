package models

// Account is everything stored for one user at registration time. Every
// field except UsernameHashed and PasswordHashed is opaque ciphertext or an
// armored public key.
type Account struct {
	UsernameHashed             string
	PasswordHashed             string
	PrivateKeyEncryptedArmored string
	PublicKeyArmored           string
	MetadataEncryptedSigned    string
}
