package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/kurozora/internal/models"
)

var errUsernameRequired = errors.New("username is required")

func (a *App) ListAccounts(ctx context.Context) error {
	list, err := a.session.AllAccounts(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No accounts. Use 'add' to sign one in.")
		return nil
	}

	active, _ := a.session.Active()

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tUSERNAME\tPROFILE")
	for _, acc := range list {
		marker := ""
		if acc.ID == active.ID {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", marker, acc.ID, acc.Username, acc.ProfileURL)
	}
	return tw.Flush()
}

// AddAccount prompts for a new sign-in and stores it. An empty id gets a
// generated one. The first account added while logged out becomes active.
func (a *App) AddAccount(ctx context.Context) error {
	id, err := GetSimpleText(a.reader, "Account ID (leave empty to generate)", a.out)
	if err != nil {
		return err
	}
	if id == "" {
		id = uuid.NewString()
	}

	username, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	if username == "" {
		return errUsernameRequired
	}

	token, err := GetSecret(a.reader, "Token", a.out)
	if err != nil {
		return err
	}

	profileURL, err := GetSimpleText(a.reader, "Profile URL (optional)", a.out)
	if err != nil {
		return err
	}

	acc := models.Account{ID: id, Token: token, Username: username, ProfileURL: profileURL}
	if err := a.session.AddAccount(ctx, acc); err != nil {
		a.log.Error(ctx, "add account failed", "account_id", id, "error", err)
		return err
	}

	fmt.Fprintf(a.out, "Account %s (%s) saved\n", id, username)
	return nil
}

func (a *App) SwitchAccount(ctx context.Context, id string) error {
	ok, err := a.session.SwitchAccount(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(a.out, "No account with id %s\n", id)
		return nil
	}
	fmt.Fprintf(a.out, "Switched to %s\n", id)
	return nil
}

func (a *App) RemoveAccount(ctx context.Context, id string) error {
	if err := a.session.RemoveAccount(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account %s removed\n", id)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) WhoAmI(_ context.Context) error {
	acc, ok := a.session.Active()
	if !ok {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	fmt.Fprintf(a.out, "id:       %s\nusername: %s\n", acc.ID, acc.Username)
	if acc.ProfileURL != "" {
		fmt.Fprintf(a.out, "profile:  %s\n", acc.ProfileURL)
	}
	return nil
}

// Reset erases every account and setting after the user confirms. It is the
// way out when the stored account list is damaged.
func (a *App) Reset(ctx context.Context) error {
	answer, err := GetSimpleText(a.reader, "This erases every account and setting. Type 'yes' to continue", a.out)
	if err != nil {
		return err
	}
	if answer != "yes" {
		fmt.Fprintln(a.out, "Reset cancelled")
		return nil
	}

	if err := a.session.Reset(ctx); err != nil {
		return err
	}
	a.loadTheme(ctx)
	fmt.Fprintln(a.out, "All accounts and settings erased")
	return nil
}
