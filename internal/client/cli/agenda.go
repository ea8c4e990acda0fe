package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophagenda/internal/documents"
	"github.com/fatih/color"
)

// agendaIndex reads a 1-based agenda number; the first agenda is the default.
func agendaIndex(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: agenda number must be 1 or more", errUsage)
	}
	return n - 1, nil
}

func requireArgs(args []string, n int, usage string) error {
	if len(args) < n {
		return fmt.Errorf("%w: %s", errUsage, usage)
	}
	return nil
}

func (a *App) Agendas(ctx context.Context, _ []string) error {
	agendas, err := a.agendaService.ListAgendas(ctx)
	if err != nil {
		return err
	}
	for i, ag := range agendas {
		fmt.Fprintf(a.out, "%3d  %s %s\n", i+1, ag.Name, color.HiBlackString("(%d events)", len(ag.Events)))
	}
	return nil
}

func (a *App) AddAgenda(ctx context.Context, args []string) error {
	name := strings.Join(args, " ")
	if name == "" {
		var err error
		if name, err = getSimpleText(a.reader, "Agenda name", a.out); err != nil {
			return err
		}
	}
	idx, err := a.agendaService.CreateAgenda(ctx, name)
	if err != nil {
		return err
	}
	a.success("Agenda %d created", idx+1)
	return nil
}

func (a *App) Events(ctx context.Context, args []string) error {
	idx, err := agendaIndex(args)
	if err != nil {
		return err
	}
	events, err := a.agendaService.ListEvents(ctx, idx)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(a.out, "No events")
		return nil
	}
	for _, ev := range events {
		fmt.Fprintf(a.out, "%s  %s  %s", color.YellowString(ev.ID), ev.Time.Begin.Local().Format(timeLayout), ev.Name)
		if ev.Owner != a.username() {
			fmt.Fprint(a.out, color.HiBlackString(" (by %s)", ev.Owner))
		}
		fmt.Fprintln(a.out)
	}
	return nil
}

func (a *App) username() string {
	if sess, err := a.authService.Session(); err == nil {
		return sess.Username()
	}
	return ""
}

// readProperties prompts for every editable field. Empty answers keep the
// values of current when it is not nil.
func (a *App) readProperties(current *documents.EventProperties) (documents.EventProperties, error) {
	var props documents.EventProperties
	if current != nil {
		props = *current
	}

	ask := func(prompt, def string) (string, error) {
		if def != "" {
			prompt += " " + color.HiBlackString("[%s]", def)
		}
		v, err := getSimpleText(a.reader, prompt, a.out)
		if err != nil {
			return "", err
		}
		if v == "" {
			return def, nil
		}
		return v, nil
	}

	var err error
	if props.Name, err = ask("Name", props.Name); err != nil {
		return props, err
	}

	beginDef := ""
	if !props.Time.Begin.IsZero() {
		beginDef = props.Time.Begin.Local().Format(timeLayout)
	}
	begin, err := ask("Begins ("+timeLayout+")", beginDef)
	if err != nil {
		return props, err
	}
	if props.Time.Begin, err = ParseTime(begin); err != nil {
		return props, err
	}

	endDef := ""
	if current != nil {
		endDef = current.Time.End.Local().Format(timeLayout)
	}
	end, err := ask("Ends ("+timeLayout+" or a duration like 45m)", endDef)
	if err != nil {
		return props, err
	}
	if props.Time.End, err = ParseEnd(end, props.Time.Begin); err != nil {
		return props, err
	}

	if props.Location, err = ask("Location", props.Location); err != nil {
		return props, err
	}

	prompt := "Description"
	if props.Description != "" {
		prompt += " (leave empty to keep the current one)"
	}
	desc, err := GetMultiline(a.reader, prompt, a.out)
	if err != nil {
		return props, err
	}
	if desc != "" {
		props.Description = desc
	}
	return props, nil
}

func (a *App) AddEvent(ctx context.Context, args []string) error {
	idx, err := agendaIndex(args)
	if err != nil {
		return err
	}
	props, err := a.readProperties(nil)
	if err != nil {
		return err
	}
	ev, err := a.agendaService.CreateEvent(ctx, idx, props)
	if err != nil {
		return err
	}
	a.success("Event %s created", ev.ID)
	return nil
}

func (a *App) printEvent(ev *documents.Event) {
	row := func(k, v string) { fmt.Fprintf(a.out, "  %-12s %s\n", k+":", v) }
	row("ID", color.YellowString(ev.ID))
	row("Name", color.GreenString(ev.Name))
	row("Begins", ev.Time.Begin.Local().Format(timeLayout))
	row("Ends", ev.Time.End.Local().Format(timeLayout))
	if ev.Location != "" {
		row("Location", ev.Location)
	}
	row("Owner", ev.Owner)
	if len(ev.Attendees) > 0 {
		row("Attendees", strings.Join(ev.Attendees, ", "))
	}
	if ev.Description != "" {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, ev.Description)
	}
}

func (a *App) ShowEvent(ctx context.Context, args []string) error {
	if err := requireArgs(args, 1, "showevent <id>"); err != nil {
		return err
	}
	ev, err := a.agendaService.GetEvent(ctx, args[0])
	if err != nil {
		return err
	}
	a.printEvent(ev)
	return nil
}

func (a *App) EditEvent(ctx context.Context, args []string) error {
	if err := requireArgs(args, 1, "editevent <id>"); err != nil {
		return err
	}
	ev, err := a.agendaService.GetEvent(ctx, args[0])
	if err != nil {
		return err
	}
	props, err := a.readProperties(&ev.EventProperties)
	if err != nil {
		return err
	}
	if _, err := a.agendaService.UpdateEvent(ctx, ev.ID, props); err != nil {
		return err
	}
	a.success("Event %s updated", ev.ID)
	return nil
}

func (a *App) DeleteEvent(ctx context.Context, args []string) error {
	if err := requireArgs(args, 1, "deleteevent <id>"); err != nil {
		return err
	}
	if err := a.agendaService.DeleteEvent(ctx, args[0]); err != nil {
		return err
	}
	a.success("Event %s removed", args[0])
	return nil
}

func (a *App) Contacts(ctx context.Context, _ []string) error {
	contacts, err := a.agendaService.Contacts(ctx)
	if err != nil {
		return err
	}
	if len(contacts) == 0 {
		fmt.Fprintln(a.out, "No contacts yet. Use 'invite <username>'.")
		return nil
	}
	for _, c := range contacts {
		fmt.Fprintln(a.out, "  "+c)
	}
	return nil
}
