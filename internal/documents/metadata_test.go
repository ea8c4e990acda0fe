package documents

import (
	"testing"

	"github.com/dmitrijs2005/gophagenda/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventID = "3f1c6a7e-52d4-4b8a-9c1e-0d2f3a4b5c6d"

func TestDefaultAgendaName(t *testing.T) {
	assert.Equal(t, "alice's agenda", DefaultAgendaName("alice"))
	assert.Equal(t, "james' agenda", DefaultAgendaName("james"))
}

func TestMetadata_EncodeDecode(t *testing.T) {
	m := NewMetadata("alice")
	require.NoError(t, m.AddEventAccess(0, EventAccess{ID: eventID, Owner: "alice", Password: "pw"}))
	_, err := m.AddContact("bob")
	require.NoError(t, err)

	s, err := m.Encode()
	require.NoError(t, err)

	got, err := DecodeMetadata(s)
	require.NoError(t, err)
	if diff := cmp.Diff(m, got); diff != "" {
		t.Fatalf("metadata mismatch (-want +got):\n%s", diff)
	}
}

func TestNewMetadata_EncodesEmptyArrays(t *testing.T) {
	s, err := NewMetadata("alice").Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"alice","agendas":[{"name":"alice's agenda","events":[]}],"contacts":[]}`, s)
}

func TestDecodeMetadata_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", `hello`},
		{"unknown field", `{"username":"alice","agendas":[],"contacts":[],"admin":true}`},
		{"trailing data", `{"username":"alice","agendas":[],"contacts":[]} {}`},
		{"missing agendas", `{"username":"alice","contacts":[]}`},
		{"null contacts", `{"username":"alice","agendas":[],"contacts":null}`},
		{"bad username", `{"username":"a b","agendas":[],"contacts":[]}`},
		{"wrong type", `{"username":"alice","agendas":"x","contacts":[]}`},
		{"empty agenda name", `{"username":"alice","agendas":[{"name":"","events":[]}],"contacts":[]}`},
		{"bad event id", `{"username":"alice","agendas":[{"name":"a","events":[{"id":"1","owner":"alice","password":"p"}]}],"contacts":[]}`},
		{"bad contact", `{"username":"alice","agendas":[],"contacts":["x"]}`},
		{"null", `null`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeMetadata(tc.in)
			require.ErrorIs(t, err, common.ErrMalformedInput)
		})
	}
}

func TestMetadata_AddContact(t *testing.T) {
	m := NewMetadata("alice")

	added, err := m.AddContact("bob")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = m.AddContact("bob")
	require.NoError(t, err)
	assert.False(t, added)

	_, err = m.AddContact("!")
	require.ErrorIs(t, err, common.ErrMalformedInput)
	assert.Equal(t, []string{"bob"}, m.Contacts)
}

func TestMetadata_EventAccessLifecycle(t *testing.T) {
	m := NewMetadata("alice")
	idx, err := m.AddAgenda("work")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	access := EventAccess{ID: eventID, Owner: "bob", Password: "pw"}
	require.NoError(t, m.AddEventAccess(idx, access))
	require.NoError(t, m.AddEventAccess(0, access), "duplicate capability is ignored")

	got, agenda, ok := m.FindEventAccess(eventID)
	require.True(t, ok)
	assert.Equal(t, access, got)
	assert.Equal(t, 1, agenda)
	assert.Empty(t, m.Agendas[0].Events)

	assert.ErrorIs(t, m.AddEventAccess(5, access), common.ErrMalformedInput)

	assert.True(t, m.RemoveEvent(eventID))
	assert.False(t, m.RemoveEvent(eventID))
	_, _, ok = m.FindEventAccess(eventID)
	assert.False(t, ok)
}

func TestMetadata_AddAgendaRejectsBlank(t *testing.T) {
	m := NewMetadata("alice")
	_, err := m.AddAgenda("  ")
	require.ErrorIs(t, err, common.ErrMalformedInput)
	assert.Len(t, m.Agendas, 1)
}
