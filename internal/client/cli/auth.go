package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophagenda/internal/client/client"
	"github.com/dmitrijs2005/gophagenda/internal/shared"
	"github.com/fatih/color"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// argOrPrompt returns args[i] when present and asks for it otherwise.
func (a *App) argOrPrompt(args []string, i int, prompt string) (string, error) {
	if i < len(args) {
		return args[i], nil
	}
	return getSimpleText(a.reader, prompt, a.out)
}

func (a *App) credentials(args []string) (string, string, error) {
	username, err := a.argOrPrompt(args, 0, "Enter username")
	if err != nil {
		return "", "", err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", "", err
	}
	defer shared.WipeByteArray(password)
	return username, string(password), nil
}

func (a *App) success(format string, args ...any) {
	fmt.Fprintln(a.out, color.GreenString("✓")+" "+fmt.Sprintf(format, args...))
}

// Register creates an account and logs in with it.
func (a *App) Register(ctx context.Context, args []string) error {
	username, password, err := a.credentials(args)
	if err != nil {
		return err
	}
	if _, err := a.authService.Register(ctx, username, password); err != nil {
		return err
	}
	a.setMode(ModeOnline)
	a.success("Registered and logged in as %s", username)
	return nil
}

// Login needs the relay: the encrypted private key lives there. Once
// logged in, reads keep working from the cache if the relay goes away.
func (a *App) Login(ctx context.Context, args []string) error {
	username, password, err := a.credentials(args)
	if err != nil {
		return err
	}
	if _, err := a.authService.Login(ctx, username, password); err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			a.setMode(ModeOffline)
		}
		return err
	}
	a.setMode(ModeOnline)
	a.success("Logged in as %s", username)
	return nil
}

// Logout wipes the private key and the local cache.
func (a *App) Logout(ctx context.Context, _ []string) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.success("Logged out")
	return nil
}

// DeleteAccount asks the user to type their username before removing
// everything the relay stores for them.
func (a *App) DeleteAccount(ctx context.Context, _ []string) error {
	sess, err := a.authService.Session()
	if err != nil {
		return err
	}
	confirm, err := getSimpleText(a.reader, color.YellowString("This deletes your account and all events you own. Type your username to confirm"), a.out)
	if err != nil {
		return err
	}
	if confirm != sess.Username() {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}
	if err := a.authService.DeleteAccount(ctx); err != nil {
		return err
	}
	a.success("Account deleted")
	return nil
}

// Export saves the relay's ciphertext bundle for the account.
func (a *App) Export(ctx context.Context, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	path, err := a.authService.Export(ctx, dir)
	if err != nil {
		return err
	}
	a.success("Export written to %s", path)
	return nil
}
