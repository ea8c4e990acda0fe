package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophagenda/internal/documents"
	"github.com/fatih/color"
)

func (a *App) Invite(ctx context.Context, args []string) error {
	if err := requireArgs(args, 1, "invite <username>"); err != nil {
		return err
	}
	if err := a.invitationService.InviteContact(ctx, args[0]); err != nil {
		return err
	}
	a.success("Invitation sent to %s", args[0])
	return nil
}

func (a *App) InviteEvent(ctx context.Context, args []string) error {
	if err := requireArgs(args, 2, "inviteevent <username> <id>"); err != nil {
		return err
	}
	if err := a.invitationService.InviteToEvent(ctx, args[0], args[1]); err != nil {
		return err
	}
	a.success("%s invited to %s", args[0], args[1])
	return nil
}

func describeInvitation(inv documents.Invitation) string {
	if inv.Type == documents.InvitationEvent && inv.EventAccess != nil {
		return fmt.Sprintf("%s shares event %s", color.GreenString(inv.Username), color.YellowString(inv.EventAccess.ID))
	}
	return fmt.Sprintf("%s wants to add you as a contact", color.GreenString(inv.Username))
}

func (a *App) Invitations(ctx context.Context, _ []string) error {
	pending, err := a.invitationService.Pending(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Fprintln(a.out, "No invitations")
		return nil
	}
	for _, inv := range pending {
		fmt.Fprintln(a.out, "  "+describeInvitation(inv))
	}
	return nil
}

func (a *App) Accept(ctx context.Context, args []string) error {
	if err := requireArgs(args, 1, "accept <username>"); err != nil {
		return err
	}
	inv, err := a.invitationService.Accept(ctx, args[0])
	if err != nil {
		return err
	}
	if inv.Type == documents.InvitationEvent && inv.EventAccess != nil {
		a.success("Event %s added to your first agenda", inv.EventAccess.ID)
		return nil
	}
	a.success("%s added to your contacts", inv.Username)
	return nil
}

func (a *App) Decline(ctx context.Context, args []string) error {
	if err := requireArgs(args, 1, "decline <username>"); err != nil {
		return err
	}
	if err := a.invitationService.Decline(ctx, args[0]); err != nil {
		return err
	}
	a.success("Invitation from %s declined", args[0])
	return nil
}

// Responses collects answers to the user's invitations.
func (a *App) Responses(ctx context.Context, _ []string) error {
	answered, err := a.invitationService.CollectResponses(ctx)
	if err != nil && len(answered) == 0 {
		return err
	}
	if len(answered) == 0 {
		fmt.Fprintln(a.out, "No new responses")
	}
	for _, inv := range answered {
		a.success("%s accepted your invitation", inv.Username)
	}
	return err
}
