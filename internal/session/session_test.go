package session

import (
	"context"
	"sync"
	"testing"

	"github.com/ProtonMail/gopenpgp/v2/crypto"
	"github.com/dmitrijs2005/gophagenda/internal/common"
	"github.com/dmitrijs2005/gophagenda/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdentity(t *testing.T, username string) *cryptox.Identity {
	t.Helper()
	id, err := cryptox.GenerateIdentity(context.Background(),
		cryptox.Credentials{Username: username, Password: "Secr3t!A"}, nil)
	require.NoError(t, err)
	return id
}

func TestNew_ValidatesKeypair(t *testing.T) {
	alice := newIdentity(t, "alice")
	bob := newIdentity(t, "bob")

	_, err := New("alice", "hash", bob.PublicKeyArmored, alice.PrivateKey)
	require.ErrorIs(t, err, common.ErrKeyMismatch)

	_, err = New("alice", "hash", alice.PublicKeyArmored, nil)
	require.ErrorIs(t, err, common.ErrKeyMismatch)
}

func TestSession_Accessors(t *testing.T) {
	alice := newIdentity(t, "alice")

	s, err := New("alice", "pwhash", alice.PublicKeyArmored, alice.PrivateKey)
	require.NoError(t, err)

	assert.Equal(t, "alice", s.Username())
	assert.Equal(t, cryptox.DeriveUsernameID("alice"), s.UsernameHashed())
	assert.Equal(t, "pwhash", s.PasswordHashed())
	assert.Equal(t, alice.PublicKeyArmored, s.PublicKeyArmored())
	assert.True(t, s.Active())
}

func TestSession_CloseWipesKey(t *testing.T) {
	alice := newIdentity(t, "alice")
	s, err := New("alice", "pwhash", alice.PublicKeyArmored, alice.PrivateKey)
	require.NoError(t, err)

	var signed string
	require.NoError(t, s.WithKey(func(k *crypto.Key) error {
		var err error
		signed, err = cryptox.SignCleartext("hello", k)
		return err
	}))
	assert.NotEmpty(t, signed)

	s.Close()
	s.Close()

	assert.False(t, s.Active())
	assert.Empty(t, s.PasswordHashed())

	called := false
	err = s.WithKey(func(*crypto.Key) error { called = true; return nil })
	require.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.False(t, called)

	_, err = cryptox.SignCleartext("hello", alice.PrivateKey)
	assert.Error(t, err, "wiped key must not sign")
}

func TestSession_ConcurrentUseAndClose(t *testing.T) {
	alice := newIdentity(t, "alice")
	s, err := New("alice", "pwhash", alice.PublicKeyArmored, alice.PrivateKey)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.WithKey(func(k *crypto.Key) error {
				_, err := cryptox.SignCleartext("x", k)
				return err
			})
		}()
	}
	s.Close()
	wg.Wait()
	assert.False(t, s.Active())
}
