package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/gophagenda/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvitationService_RequestResponse(t *testing.T) {
	st := newStore()
	st.accounts[aliceHashed] = *newAccount(aliceHashed)
	st.accounts[bobHashed] = *newAccount(bobHashed)
	svc := NewInvitationService(nil, &fakeManager{st})
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, aliceHashed, bobHashed, message))
	assert.ErrorIs(t, svc.Send(ctx, aliceHashed, bobHashed, message), common.ErrorAlreadyExists)

	reqs, err := svc.Requests(ctx, bobHashed)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, aliceHashed, reqs[0].SenderUsernameHashed)

	none, err := svc.Responses(ctx, aliceHashed)
	require.NoError(t, err)
	assert.Empty(t, none)

	resp := "-----BEGIN PGP MESSAGE-----\n\nwcBMD==\n-----END PGP MESSAGE-----\n"
	require.NoError(t, svc.Respond(ctx, bobHashed, aliceHashed, resp))
	assert.ErrorIs(t, svc.Respond(ctx, bobHashed, aliceHashed, resp), common.ErrorNotFound, "a request is answered once")

	reqs, _ = svc.Requests(ctx, bobHashed)
	assert.Empty(t, reqs)

	resps, err := svc.Responses(ctx, aliceHashed)
	require.NoError(t, err)
	require.Len(t, resps, 1)
	assert.Equal(t, resp, resps[0].InvitationEncryptedSigned)

	require.NoError(t, svc.Delete(ctx, aliceHashed, bobHashed))
	assert.ErrorIs(t, svc.Delete(ctx, bobHashed, aliceHashed), common.ErrorNotFound)
}

func TestInvitationService_SendRules(t *testing.T) {
	st := newStore()
	st.accounts[aliceHashed] = *newAccount(aliceHashed)
	svc := NewInvitationService(nil, &fakeManager{st})
	ctx := context.Background()

	assert.ErrorIs(t, svc.Send(ctx, aliceHashed, aliceHashed, message), common.ErrSelfInvitation)
	assert.ErrorIs(t, svc.Send(ctx, aliceHashed, bobHashed, message), common.ErrorNotFound)
	assert.ErrorIs(t, svc.Send(ctx, aliceHashed, "bob", message), common.ErrMalformedInput)
	assert.ErrorIs(t, svc.Send(ctx, aliceHashed, bobHashed, "hello"), common.ErrMalformedInput)
}
