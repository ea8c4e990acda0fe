package invitation

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophagenda/internal/common"
	"github.com/dmitrijs2005/gophagenda/internal/cryptox"
	"github.com/dmitrijs2005/gophagenda/internal/documents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	name   string
	hashed string
	id     *cryptox.Identity
}

func newUser(t *testing.T, name string) user {
	t.Helper()
	id, err := cryptox.GenerateIdentity(context.Background(),
		cryptox.Credentials{Username: name, Password: "Secr3t!A"}, nil)
	require.NoError(t, err)
	return user{name: name, hashed: cryptox.DeriveUsernameID(name), id: id}
}

func (u user) contact() *documents.Invitation {
	return NewContact(u.name, u.id.PublicKeyArmored)
}

func invite(t *testing.T, from, to user) string {
	t.Helper()
	env, err := Create(from.contact(), from.hashed, to.hashed, to.id.PublicKeyArmored, from.id.PrivateKey)
	require.NoError(t, err)
	return env
}

func TestCreate_SelfInvitation(t *testing.T) {
	alice := newUser(t, "alice")

	env, err := Create(alice.contact(), alice.hashed, alice.hashed, alice.id.PublicKeyArmored, alice.id.PrivateKey)
	require.ErrorIs(t, err, common.ErrSelfInvitation)
	assert.Empty(t, env)

	// same key under a different claimed identifier is still self
	env, err = Create(alice.contact(), alice.hashed, cryptox.DeriveUsernameID("other"), alice.id.PublicKeyArmored, alice.id.PrivateKey)
	require.ErrorIs(t, err, common.ErrSelfInvitation)
	assert.Empty(t, env)
}

func TestCreate_InvalidInvitation(t *testing.T) {
	alice, bob := newUser(t, "alice"), newUser(t, "bob")

	bad := &documents.Invitation{Type: documents.InvitationEvent, Username: alice.name, PublicKeyArmored: alice.id.PublicKeyArmored}
	_, err := Create(bad, alice.hashed, bob.hashed, bob.id.PublicKeyArmored, alice.id.PrivateKey)
	require.ErrorIs(t, err, common.ErrMalformedInput)
}

func TestReceive_BatchScenario(t *testing.T) {
	alice, bob, carol, dave, erin := newUser(t, "alice"), newUser(t, "bob"), newUser(t, "carol"), newUser(t, "dave"), newUser(t, "erin")

	envelopes := []string{
		invite(t, bob, alice),
		invite(t, carol, erin), // not for alice
		invite(t, carol, alice),
		invite(t, bob, erin), // not for alice
		invite(t, dave, alice),
	}

	var dropped []int
	got := Receive(context.Background(), envelopes, alice.id.PrivateKey,
		WithDropObserver(func(n int) { dropped = append(dropped, n) }),
		WithConcurrency(2))

	require.Len(t, got, 3)
	assert.Equal(t, "bob", got[0].Username)
	assert.Equal(t, "carol", got[1].Username)
	assert.Equal(t, "dave", got[2].Username)
	assert.Equal(t, []int{2}, dropped)
}

func TestReceive_DropsForgedSender(t *testing.T) {
	alice, bob, mallory := newUser(t, "alice"), newUser(t, "bob"), newUser(t, "mallory")

	// mallory claims to be bob, embedding bob's public key
	forged, err := Create(bob.contact(), mallory.hashed, alice.hashed, alice.id.PublicKeyArmored, mallory.id.PrivateKey)
	require.NoError(t, err)

	envelopes := []string{forged, invite(t, bob, alice), "garbage"}

	var dropped int
	got := Receive(context.Background(), envelopes, alice.id.PrivateKey, WithDropObserver(func(n int) { dropped = n }))
	require.Len(t, got, 1)
	assert.Equal(t, "bob", got[0].Username)
	assert.Equal(t, 2, dropped)
}

func TestReceive_SenderCheck(t *testing.T) {
	alice, bob, carol := newUser(t, "alice"), newUser(t, "bob"), newUser(t, "carol")

	envelopes := []string{invite(t, bob, alice), invite(t, carol, alice)}
	check := func(_ context.Context, inv *documents.Invitation) error {
		if inv.Username == "carol" {
			return errors.New("key not registered")
		}
		return nil
	}

	got := Receive(context.Background(), envelopes, alice.id.PrivateKey, WithSenderCheck(check))
	require.Len(t, got, 1)
	assert.Equal(t, "bob", got[0].Username)
}

func TestReceive_Empty(t *testing.T) {
	alice := newUser(t, "alice")
	called := false
	got := Receive(context.Background(), nil, alice.id.PrivateKey, WithDropObserver(func(n int) {
		called = true
		assert.Zero(t, n)
	}))
	assert.Empty(t, got)
	assert.True(t, called)
}

func TestEventInviteAndRespond(t *testing.T) {
	alice, bob := newUser(t, "alice"), newUser(t, "bob")
	access := documents.EventAccess{ID: "3f1c6a7e-52d4-4b8a-9c1e-0d2f3a4b5c6d", Owner: "alice", Password: "capability"}

	req, err := Create(NewEventInvite(alice.name, alice.id.PublicKeyArmored, access),
		alice.hashed, bob.hashed, bob.id.PublicKeyArmored, alice.id.PrivateKey)
	require.NoError(t, err)

	received := Receive(context.Background(), []string{req}, bob.id.PrivateKey)
	require.Len(t, received, 1)
	require.NotNil(t, received[0].EventAccess)
	assert.Equal(t, access, *received[0].EventAccess)

	senderHashed, resp, err := Respond(&received[0], bob.contact(), bob.hashed, bob.id.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, alice.hashed, senderHashed)

	back := Receive(context.Background(), []string{resp}, alice.id.PrivateKey)
	require.Len(t, back, 1)
	assert.Equal(t, documents.InvitationContact, back[0].Type)
	assert.Equal(t, "bob", back[0].Username)
}
