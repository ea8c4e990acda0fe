// Package session holds the state of one authenticated client session. The
// decrypted private key lives here and nowhere else; it is lent to callers
// through WithKey and wiped by Close.
package session

import (
	"sync"

	"github.com/ProtonMail/gopenpgp/v2/crypto"
	"github.com/dmitrijs2005/gophagenda/internal/common"
	"github.com/dmitrijs2005/gophagenda/internal/cryptox"
)

type Session struct {
	username         string
	usernameHashed   string
	passwordHashed   string
	publicKeyArmored string

	mu  sync.RWMutex
	key *crypto.Key
}

// New takes ownership of key. The public key fetched from the relay must
// match it, otherwise the key is wiped and common.ErrKeyMismatch returned.
func New(username, passwordHashed, publicKeyArmored string, key *crypto.Key) (*Session, error) {
	if err := cryptox.ValidateKeypair(publicKeyArmored, key); err != nil {
		if key != nil {
			key.ClearPrivateParams()
		}
		return nil, err
	}
	return &Session{
		username:         username,
		usernameHashed:   cryptox.DeriveUsernameID(username),
		passwordHashed:   passwordHashed,
		publicKeyArmored: publicKeyArmored,
		key:              key,
	}, nil
}

func (s *Session) Username() string         { return s.username }
func (s *Session) UsernameHashed() string   { return s.usernameHashed }
func (s *Session) PasswordHashed() string   { return s.passwordHashed }
func (s *Session) PublicKeyArmored() string { return s.publicKeyArmored }

// WithKey runs fn with the private key. Close blocks until fn returns, so
// the key is never wiped under a running operation. After Close, WithKey
// returns common.ErrorUnauthorized without calling fn.
func (s *Session) WithKey(fn func(key *crypto.Key) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.key == nil {
		return common.ErrorUnauthorized
	}
	return fn(s.key)
}

// Active reports whether the session still holds its key.
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key != nil
}

// Close zeroes the private key material. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key == nil {
		return
	}
	s.key.ClearPrivateParams()
	s.key = nil
	s.passwordHashed = ""
}
