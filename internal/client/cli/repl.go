package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophagenda/internal/client/client"
	"github.com/dmitrijs2005/gophagenda/internal/common"
	"github.com/fatih/color"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL dispatches to. The real
// App satisfies it; tests provide a lightweight stub. Arguments after the
// command word are passed through; handlers prompt for anything missing.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context, args []string) error
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	DeleteAccount(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error

	Agendas(ctx context.Context, args []string) error
	AddAgenda(ctx context.Context, args []string) error
	Events(ctx context.Context, args []string) error
	AddEvent(ctx context.Context, args []string) error
	ShowEvent(ctx context.Context, args []string) error
	EditEvent(ctx context.Context, args []string) error
	DeleteEvent(ctx context.Context, args []string) error

	Contacts(ctx context.Context, args []string) error
	Invite(ctx context.Context, args []string) error
	InviteEvent(ctx context.Context, args []string) error
	Invitations(ctx context.Context, args []string) error
	Accept(ctx context.Context, args []string) error
	Decline(ctx context.Context, args []string) error
	Responses(ctx context.Context, args []string) error
}

type command struct {
	private bool
	usage   string
	run     func(execIface, context.Context, []string) error
}

var commands = map[string]command{
	"register": {false, "register [username]", execIface.Register},
	"login":    {false, "login [username]", execIface.Login},

	"logout":        {true, "logout", execIface.Logout},
	"deleteaccount": {true, "deleteaccount", execIface.DeleteAccount},
	"export":        {true, "export [dir]", execIface.Export},
	"agendas":       {true, "agendas", execIface.Agendas},
	"addagenda":     {true, "addagenda [name]", execIface.AddAgenda},
	"events":        {true, "events [agenda#]", execIface.Events},
	"addevent":      {true, "addevent [agenda#]", execIface.AddEvent},
	"showevent":     {true, "showevent <id>", execIface.ShowEvent},
	"editevent":     {true, "editevent <id>", execIface.EditEvent},
	"deleteevent":   {true, "deleteevent <id>", execIface.DeleteEvent},
	"contacts":      {true, "contacts", execIface.Contacts},
	"invite":        {true, "invite <username>", execIface.Invite},
	"inviteevent":   {true, "inviteevent <username> <id>", execIface.InviteEvent},
	"invitations":   {true, "invitations", execIface.Invitations},
	"accept":        {true, "accept <username>", execIface.Accept},
	"decline":       {true, "decline <username>", execIface.Decline},
	"responses":     {true, "responses", execIface.Responses},
}

var (
	publicHelp  = "Available commands: register, login, help, exit"
	privateHelp = "Available commands: agendas, addagenda, events, addevent, showevent, editevent, deleteevent, " +
		"contacts, invite, inviteevent, invitations, accept, decline, responses, export, deleteaccount, logout, help, exit"
)

// runREPL reads commands line by line from reader and dispatches them to a
// until EOF, "exit" or "quit". Handler errors are reported and never end
// the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("ga %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			if err != nil {
				return
			}
			continue
		}
		name, args := parts[0], parts[1:]

		switch name {
		case "help":
			if a.isLoggedIn() {
				printlnFn(privateHelp)
			} else {
				printlnFn(publicHelp)
			}
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		cmd, ok := commands[name]
		switch {
		case !ok:
			printlnFn("Unknown command:", name)
		case cmd.private && !a.isLoggedIn():
			printlnFn(color.YellowString("Please login first"))
		default:
			if err := cmd.run(a, ctx, args); err != nil {
				printlnFn(color.RedString("Error: ") + describe(err))
			}
		}
		if err != nil {
			return
		}
	}
}

// errUsage is returned by handlers that were called with bad arguments.
var errUsage = errors.New("usage")

// describe turns service errors into short messages for the user.
func describe(err error) string {
	switch {
	case errors.Is(err, errUsage):
		return err.Error()
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable, try again later"
	case errors.Is(err, common.ErrInvalidPassword), errors.Is(err, common.ErrorUnauthorized):
		return "wrong username or password, or the session has ended"
	case errors.Is(err, common.ErrSelfInvitation):
		return "you cannot invite yourself"
	case errors.Is(err, common.ErrSignatureInvalid), errors.Is(err, common.ErrDecryption):
		return "data failed verification and was not shown"
	case errors.Is(err, common.ErrKeyMismatch):
		return "server returned a key that does not match yours"
	case errors.Is(err, common.ErrorAlreadyExists):
		return "already exists"
	case errors.Is(err, common.ErrorNotFound):
		return "not found"
	case errors.Is(err, common.ErrRateLimited):
		return "too many requests, slow down"
	case errors.Is(err, common.ErrMalformedInput):
		return err.Error()
	}
	return err.Error()
}
