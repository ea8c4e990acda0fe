package cryptox

import (
	"context"
	"fmt"

	"github.com/ProtonMail/gopenpgp/v2/crypto"
	"github.com/dmitrijs2005/gophagenda/internal/common"
	"github.com/dmitrijs2005/gophagenda/internal/validate"
)

// keyType selects an EdDSA signing key with an ECDH (Curve25519) subkey.
const keyType = "x25519"

// anonymousName fills the key's user ID when the caller supplies none.
// OpenPGP requires at least a name or an email, and the username must
// not leak into a public key that other users can fetch.
const anonymousName = "gophagenda"

// Credentials are the raw secrets typed by the user.
type Credentials struct {
	Username string
	Password string
}

// UserID is the optional human identity embedded in the public key.
type UserID struct {
	Name  string
	Email string
}

// Identity is the result of key generation. PrivateKey is unlocked and must
// stay in client memory; PrivateKeyEncryptedArmored is the only form that is
// ever persisted.
type Identity struct {
	PrivateKey                 *crypto.Key
	PrivateKeyEncryptedArmored string
	PublicKeyArmored           string
}

// GenerateIdentity creates a new keypair protected at rest by the raw
// password. Any failure wraps common.ErrKeyGeneration.
func GenerateIdentity(ctx context.Context, cred Credentials, uid *UserID) (*Identity, error) {
	if cred.Password == "" {
		return nil, fmt.Errorf("%w: empty passphrase", common.ErrKeyGeneration)
	}

	name, email := anonymousName, ""
	if uid != nil && (uid.Name != "" || uid.Email != "") {
		name, email = uid.Name, uid.Email
	}

	type result struct {
		id  *Identity
		err error
	}
	out := make(chan result, 1)
	go func() {
		id, err := generate(name, email, []byte(cred.Password))
		out <- result{id, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-out:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrKeyGeneration, r.err)
		}
		return r.id, nil
	}
}

func generate(name, email string, passphrase []byte) (*Identity, error) {
	key, err := crypto.GenerateKey(name, email, keyType, 0)
	if err != nil {
		return nil, err
	}

	locked, err := key.Lock(passphrase)
	if err != nil {
		return nil, err
	}
	lockedArmored, err := locked.Armor()
	if err != nil {
		return nil, err
	}

	pub, err := key.GetArmoredPublicKey()
	if err != nil {
		return nil, err
	}

	return &Identity{
		PrivateKey:                 key,
		PrivateKeyEncryptedArmored: lockedArmored,
		PublicKeyArmored:           pub,
	}, nil
}

// DecryptIdentity unlocks a stored private key with the raw password. A
// wrong password yields common.ErrInvalidPassword; anything that is not an
// armored private key yields common.ErrMalformedInput.
func DecryptIdentity(privateKeyEncryptedArmored, password string) (*crypto.Key, error) {
	if err := validate.PrivateKeyArmored(privateKeyEncryptedArmored); err != nil {
		return nil, err
	}

	locked, err := crypto.NewKeyFromArmored(privateKeyEncryptedArmored)
	if err != nil || !locked.IsPrivate() {
		return nil, fmt.Errorf("%w: private key", common.ErrMalformedInput)
	}

	key, err := locked.Unlock([]byte(password))
	if err != nil {
		return nil, common.ErrInvalidPassword
	}
	return key, nil
}

// ValidateKeypair checks that publicKeyArmored belongs to private. It
// guards against a relay handing out a key that does not match the one the
// user just unlocked.
func ValidateKeypair(publicKeyArmored string, private *crypto.Key) error {
	if private == nil {
		return common.ErrKeyMismatch
	}
	pub, err := parsePublicKey(publicKeyArmored)
	if err != nil {
		return err
	}
	if pub.GetFingerprint() != private.GetFingerprint() {
		return common.ErrKeyMismatch
	}
	return nil
}

// Fingerprint returns the hex fingerprint of an armored public key.
func Fingerprint(publicKeyArmored string) (string, error) {
	pub, err := parsePublicKey(publicKeyArmored)
	if err != nil {
		return "", err
	}
	return pub.GetFingerprint(), nil
}

func parsePublicKey(armored string) (*crypto.Key, error) {
	if err := validate.PublicKeyArmored(armored); err != nil {
		return nil, err
	}
	key, err := crypto.NewKeyFromArmored(armored)
	if err != nil || key.IsPrivate() {
		return nil, fmt.Errorf("%w: public key", common.ErrMalformedInput)
	}
	return key, nil
}

func publicKeyRing(armored string) (*crypto.KeyRing, error) {
	key, err := parsePublicKey(armored)
	if err != nil {
		return nil, err
	}
	kr, err := crypto.NewKeyRing(key)
	if err != nil {
		return nil, fmt.Errorf("%w: public key", common.ErrMalformedInput)
	}
	return kr, nil
}

func privateKeyRing(key *crypto.Key) (*crypto.KeyRing, error) {
	if key == nil || !key.IsPrivate() {
		return nil, common.ErrorUnauthorized
	}
	unlocked, err := key.IsUnlocked()
	if err != nil || !unlocked {
		return nil, common.ErrInvalidPassword
	}
	kr, err := crypto.NewKeyRing(key)
	if err != nil {
		return nil, fmt.Errorf("keyring: %w", err)
	}
	return kr, nil
}
