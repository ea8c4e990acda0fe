package documents

import (
	"testing"

	"github.com/dmitrijs2005/gophagenda/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const publicKey = "-----BEGIN PGP PUBLIC KEY BLOCK-----\n\nxjMEZQ==\n-----END PGP PUBLIC KEY BLOCK-----\n"

func TestInvitation_EncodeDecode(t *testing.T) {
	for _, inv := range []*Invitation{
		{Type: InvitationContact, Username: "alice", PublicKeyArmored: publicKey},
		{Type: InvitationEvent, Username: "alice", PublicKeyArmored: publicKey,
			EventAccess: &EventAccess{ID: eventID, Owner: "alice", Password: "pw"}},
	} {
		s, err := inv.Encode()
		require.NoError(t, err)

		got, err := DecodeInvitation(s)
		require.NoError(t, err)
		if diff := cmp.Diff(inv, got); diff != "" {
			t.Fatalf("invitation mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestContactInvitation_OmitsEventAccess(t *testing.T) {
	inv := &Invitation{Type: InvitationContact, Username: "alice", PublicKeyArmored: publicKey}
	s, err := inv.Encode()
	require.NoError(t, err)
	assert.NotContains(t, s, "eventAccess")
}

func TestDecodeInvitation_Rejects(t *testing.T) {
	access := `{"id":"` + eventID + `","owner":"alice","password":"pw"}`
	key := `"publicKeyArmored":"-----BEGIN PGP PUBLIC KEY BLOCK-----\n\nxjMEZQ==\n-----END PGP PUBLIC KEY BLOCK-----\n"`

	tests := map[string]string{
		"unknown type":          `{"type":"admin","username":"alice",` + key + `}`,
		"event without access":  `{"type":"event","username":"alice",` + key + `}`,
		"contact with access":   `{"type":"contact","username":"alice",` + key + `,"eventAccess":` + access + `}`,
		"bad key":               `{"type":"contact","username":"alice","publicKeyArmored":"nope"}`,
		"unknown field":         `{"type":"contact","username":"alice",` + key + `,"extra":1}`,
		"bad username":          `{"type":"contact","username":"",` + key + `}`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeInvitation(in)
			require.ErrorIs(t, err, common.ErrMalformedInput)
		})
	}

	_, err := DecodeInvitation(`{"type":"event","username":"alice",` + key + `,"eventAccess":` + access + `}`)
	require.NoError(t, err)
}
