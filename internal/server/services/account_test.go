package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophagenda/internal/common"
	"github.com/dmitrijs2005/gophagenda/internal/cryptox"
	"github.com/dmitrijs2005/gophagenda/internal/server/models"
	"github.com/dmitrijs2005/gophagenda/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newAccount(u string) *models.Account {
	return &models.Account{
		UsernameHashed:             u,
		PasswordHashed:             passHashed,
		PrivateKeyEncryptedArmored: privateKey,
		PublicKeyArmored:           publicKey,
		MetadataEncryptedSigned:    message,
	}
}

func TestRegister(t *testing.T) {
	db, mock := txDB(t, 1)
	st := newStore()
	svc := NewAccountService(db, &fakeManager{st}, nil)

	require.NoError(t, svc.Register(context.Background(), newAccount(aliceHashed)))
	assert.Contains(t, st.accounts, aliceHashed)

	mock.ExpectBegin()
	mock.ExpectRollback()
	err := svc.Register(context.Background(), newAccount(aliceHashed))
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_RejectsBadShapes(t *testing.T) {
	db, _ := txDB(t, 0)
	svc := NewAccountService(db, &fakeManager{newStore()}, nil)

	tests := []struct {
		name   string
		mutate func(*models.Account)
	}{
		{"username", func(a *models.Account) { a.UsernameHashed = "ALICE" }},
		{"password", func(a *models.Account) { a.PasswordHashed = "short" }},
		{"private key", func(a *models.Account) { a.PrivateKeyEncryptedArmored = publicKey }},
		{"public key", func(a *models.Account) { a.PublicKeyArmored = privateKey }},
		{"metadata", func(a *models.Account) { a.MetadataEncryptedSigned = "{}" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := newAccount(aliceHashed)
			tt.mutate(acc)
			assert.ErrorIs(t, svc.Register(context.Background(), acc), common.ErrMalformedInput)
		})
	}
}

func TestLogin(t *testing.T) {
	st := newStore()
	st.accounts[aliceHashed] = *newAccount(aliceHashed)
	svc := NewAccountService(nil, &fakeManager{st}, nil)

	key, err := svc.Login(context.Background(), aliceHashed, passHashed)
	require.NoError(t, err)
	assert.Equal(t, privateKey, key)

	_, err = svc.Login(context.Background(), aliceHashed, bobHashed)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = svc.Login(context.Background(), bobHashed, passHashed)
	assert.ErrorIs(t, err, common.ErrorUnauthorized, "unknown user looks like a bad password")

	_, err = svc.Login(context.Background(), "nope", passHashed)
	assert.ErrorIs(t, err, common.ErrMalformedInput)

	st.failWith = errors.New("db down")
	_, err = svc.Login(context.Background(), aliceHashed, passHashed)
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestIssueCookie(t *testing.T) {
	id, err := cryptox.GenerateIdentity(context.Background(), cryptox.Credentials{Username: "alice", Password: "Secr3t!A"}, nil)
	require.NoError(t, err)

	st := newStore()
	acc := newAccount(aliceHashed)
	acc.PublicKeyArmored = id.PublicKeyArmored
	st.accounts[aliceHashed] = *acc

	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	svc := NewAccountService(nil, &fakeManager{st}, fixedClock{now})

	signed, want, err := token.Issue(id.PrivateKey, aliceHashed, fixedClock{now}, common.TokenValidity)
	require.NoError(t, err)

	value, got, err := svc.IssueCookie(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, want.UsernameHashed, got.UsernameHashed)
	assert.True(t, want.ValidUntil.Equal(got.ValidUntil))

	p, err := svc.Verifier().Verify(context.Background(), value)
	require.NoError(t, err)
	assert.Equal(t, aliceHashed, p.UsernameHashed)

	t.Run("expired payload refused", func(t *testing.T) {
		late := NewAccountService(nil, &fakeManager{st}, fixedClock{now.Add(16 * time.Minute)})
		_, _, err := late.IssueCookie(context.Background(), signed)
		assert.ErrorIs(t, err, common.ErrExpired)
	})

	t.Run("unknown user refused", func(t *testing.T) {
		other, _, err := token.Issue(id.PrivateKey, bobHashed, fixedClock{now}, common.TokenValidity)
		require.NoError(t, err)
		_, _, err = svc.IssueCookie(context.Background(), other)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestMetadataAndKeys(t *testing.T) {
	st := newStore()
	st.accounts[aliceHashed] = *newAccount(aliceHashed)
	svc := NewAccountService(nil, &fakeManager{st}, nil)
	ctx := context.Background()

	pub, err := svc.PublicKeyArmored(ctx, aliceHashed)
	require.NoError(t, err)
	assert.Equal(t, publicKey, pub)

	priv, err := svc.PrivateKeyEncryptedArmored(ctx, aliceHashed)
	require.NoError(t, err)
	assert.Equal(t, privateKey, priv)

	_, err = svc.PublicKeyArmored(ctx, "../etc")
	assert.ErrorIs(t, err, common.ErrMalformedInput)

	updated := "-----BEGIN PGP MESSAGE-----\n\nwcBMB==\n-----END PGP MESSAGE-----\n"
	require.NoError(t, svc.UpdateMetadata(ctx, aliceHashed, updated))
	got, err := svc.Metadata(ctx, aliceHashed)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	assert.ErrorIs(t, svc.UpdateMetadata(ctx, aliceHashed, "plain"), common.ErrMalformedInput)
}

func TestDelete_RemovesEverything(t *testing.T) {
	db, mock := txDB(t, 1)
	st := newStore()
	st.accounts[aliceHashed] = *newAccount(aliceHashed)
	st.events[[2]string{eventID, passHashed}] = models.Event{ID: eventID, PasswordHashed: passHashed, OwnerUsernameHashed: aliceHashed}
	st.events[[2]string{"other", passHashed}] = models.Event{ID: "other", PasswordHashed: passHashed, OwnerUsernameHashed: bobHashed}
	st.invitations[[2]string{bobHashed, aliceHashed}] = models.Invitation{SenderUsernameHashed: bobHashed, ReceiverUsernameHashed: aliceHashed}

	svc := NewAccountService(db, &fakeManager{st}, nil)
	require.NoError(t, svc.Delete(context.Background(), aliceHashed))

	assert.Empty(t, st.accounts)
	assert.Len(t, st.events, 1)
	assert.Empty(t, st.invitations)
	assert.NoError(t, mock.ExpectationsWereMet())
}
