package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/ProtonMail/gopenpgp/v2/crypto"
	"github.com/dmitrijs2005/gophagenda/internal/common"
	"github.com/dmitrijs2005/gophagenda/internal/documents"
	"github.com/dmitrijs2005/gophagenda/internal/logging"
	"github.com/dmitrijs2005/gophagenda/internal/session"
	"github.com/stretchr/testify/require"
)

// testKey backs every test session; generating it once keeps tests fast.
var testKey *crypto.Key

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	if testKey == nil {
		k, err := crypto.GenerateKey("gophagenda", "", "x25519", 0)
		require.NoError(t, err)
		testKey = k
	}
	key, err := testKey.Copy()
	require.NoError(t, err)
	pub, err := key.GetArmoredPublicKey()
	require.NoError(t, err)
	s, err := session.New("alice", strings.Repeat("c", 64), pub, key)
	require.NoError(t, err)
	return s
}

type fakeAuth struct {
	sess *session.Session

	calls    []string
	username string
	password string
	err      error
	pingErr  error
	exported string
}

func (f *fakeAuth) Register(_ context.Context, u, p string) (*session.Session, error) {
	f.calls = append(f.calls, "register")
	f.username, f.password = u, p
	return f.sess, f.err
}

func (f *fakeAuth) Login(_ context.Context, u, p string) (*session.Session, error) {
	f.calls = append(f.calls, "login")
	f.username, f.password = u, p
	return f.sess, f.err
}

func (f *fakeAuth) Logout(context.Context) error {
	f.calls = append(f.calls, "logout")
	return f.err
}

func (f *fakeAuth) DeleteAccount(context.Context) error {
	f.calls = append(f.calls, "deleteaccount")
	return f.err
}

func (f *fakeAuth) Export(_ context.Context, dir string) (string, error) {
	f.calls = append(f.calls, "export")
	f.exported = dir
	return dir + "/gophagenda-export.json", f.err
}

func (f *fakeAuth) Session() (*session.Session, error) {
	if f.sess == nil {
		return nil, common.ErrorUnauthorized
	}
	return f.sess, nil
}

func (f *fakeAuth) LoggedIn() bool             { return f.sess != nil }
func (f *fakeAuth) Ping(context.Context) error { return f.pingErr }

type fakeAgendas struct {
	agendas  []documents.Agenda
	events   map[string]*documents.Event
	order    []string
	contacts []string

	created    documents.EventProperties
	createdIn  int
	updated    documents.EventProperties
	deleted    []string
	listedFrom int
	err        error
}

func newFakeAgendas() *fakeAgendas {
	return &fakeAgendas{
		agendas: []documents.Agenda{{Name: "alice's agenda"}},
		events:  map[string]*documents.Event{},
	}
}

func (f *fakeAgendas) ListAgendas(context.Context) ([]documents.Agenda, error) {
	return f.agendas, f.err
}

func (f *fakeAgendas) CreateAgenda(_ context.Context, name string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.agendas = append(f.agendas, documents.Agenda{Name: name})
	return len(f.agendas) - 1, nil
}

func (f *fakeAgendas) Contacts(context.Context) ([]string, error) { return f.contacts, f.err }

func (f *fakeAgendas) CreateEvent(_ context.Context, agenda int, props documents.EventProperties) (*documents.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.createdIn, f.created = agenda, props
	ev, err := documents.NewEvent("alice", props)
	if err != nil {
		return nil, err
	}
	f.events[ev.ID] = ev
	f.order = append(f.order, ev.ID)
	return ev, nil
}

func (f *fakeAgendas) GetEvent(_ context.Context, id string) (*documents.Event, error) {
	ev, ok := f.events[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return ev, nil
}

func (f *fakeAgendas) UpdateEvent(_ context.Context, id string, props documents.EventProperties) (*documents.Event, error) {
	ev, ok := f.events[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	f.updated = props
	return ev, ev.Update(props)
}

func (f *fakeAgendas) DeleteEvent(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeAgendas) ListEvents(_ context.Context, agenda int) ([]*documents.Event, error) {
	f.listedFrom = agenda
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*documents.Event, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.events[id])
	}
	return out, nil
}

type fakeInvites struct {
	calls    []string
	pending  []documents.Invitation
	answered []documents.Invitation
	err      error
}

func (f *fakeInvites) InviteContact(_ context.Context, u string) error {
	f.calls = append(f.calls, "contact:"+u)
	return f.err
}

func (f *fakeInvites) InviteToEvent(_ context.Context, u, id string) error {
	f.calls = append(f.calls, "event:"+u+":"+id)
	return f.err
}

func (f *fakeInvites) Pending(context.Context) ([]documents.Invitation, error) {
	return f.pending, f.err
}

func (f *fakeInvites) Accept(_ context.Context, u string) (*documents.Invitation, error) {
	f.calls = append(f.calls, "accept:"+u)
	for i := range f.pending {
		if f.pending[i].Username == u {
			return &f.pending[i], nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeInvites) Decline(_ context.Context, u string) error {
	f.calls = append(f.calls, "decline:"+u)
	return f.err
}

func (f *fakeInvites) CollectResponses(context.Context) ([]documents.Invitation, error) {
	return f.answered, f.err
}

type testApp struct {
	*App
	auth    *fakeAuth
	agendas *fakeAgendas
	invites *fakeInvites
	out     *bytes.Buffer
}

func newTestApp(input string) *testApp {
	auth := &fakeAuth{}
	agendas := newFakeAgendas()
	invites := &fakeInvites{}
	out := &bytes.Buffer{}
	return &testApp{
		App: &App{
			logger:            logging.Discard(),
			authService:       auth,
			agendaService:     agendas,
			invitationService: invites,
			reader:            bufio.NewReader(strings.NewReader(input)),
			out:               out,
		},
		auth:    auth,
		agendas: agendas,
		invites: invites,
		out:     out,
	}
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := getPassword
	getPassword = func(io.Writer) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { getPassword = orig })
}

func stringsReader(s string) *strings.Reader { return strings.NewReader(s) }
