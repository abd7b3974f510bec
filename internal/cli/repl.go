package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/kurozora/internal/settings"
)

// executor is the command surface the REPL drives. App implements it; tests
// use a recording stub.
type executor interface {
	isLoggedIn() bool
	ListAccounts(ctx context.Context) error
	AddAccount(ctx context.Context) error
	SwitchAccount(ctx context.Context, id string) error
	RemoveAccount(ctx context.Context, id string) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	GetSetting(ctx context.Context, key string) error
	SetSetting(ctx context.Context, key, value string) error
	ListSettings(ctx context.Context) error
	Theme(ctx context.Context, name string) error
	Stats(ctx context.Context) error
	Reset(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: accounts, add, switch <id>, remove <id>, stats, reset, exit"
	helpLoggedIn  = "Available commands: accounts, add, switch <id>, remove <id>, whoami, get <key>, set <key> <value>, settings, theme [name], logout, stats, reset, exit"
)

// runREPL reads commands from reader until EOF or exit/quit and dispatches
// them to a. Handler errors are printed and the loop carries on.
//
// Settings commands (get, set, settings, theme) need an active account.
func runREPL(ctx context.Context, a executor, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "kurozora %s> ", statusFn())

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(w)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, helpLoggedIn)
			} else {
				fmt.Fprintln(w, helpLoggedOut)
			}

		case "accounts", "ls":
			cmdErr = a.ListAccounts(ctx)

		case "add", "login":
			cmdErr = a.AddAccount(ctx)

		case "switch":
			if len(args) != 1 {
				fmt.Fprintln(w, "Usage: switch <id>")
				continue
			}
			cmdErr = a.SwitchAccount(ctx, args[0])

		case "remove", "rm":
			if len(args) != 1 {
				fmt.Fprintln(w, "Usage: remove <id>")
				continue
			}
			cmdErr = a.RemoveAccount(ctx, args[0])

		case "logout":
			cmdErr = a.Logout(ctx)

		case "whoami":
			cmdErr = a.WhoAmI(ctx)

		case "get", "set", "settings", "theme":
			if !a.isLoggedIn() {
				fmt.Fprintln(w, "Not logged in. Use 'add' or 'switch <id>' first.")
				continue
			}
			cmdErr = runSettingsCommand(ctx, a, cmd, args, w)

		case "stats":
			cmdErr = a.Stats(ctx)

		case "reset":
			cmdErr = a.Reset(ctx)

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			fmt.Fprintln(w, "error:", cmdErr)
			if errors.Is(cmdErr, settings.ErrCorruptRoster) {
				fmt.Fprintln(w, "The stored account list is damaged. Use 'reset' to start over.")
			}
		}
	}
}

func runSettingsCommand(ctx context.Context, a executor, cmd string, args []string, w io.Writer) error {
	switch cmd {
	case "get":
		if len(args) != 1 {
			fmt.Fprintln(w, "Usage: get <key>")
			return nil
		}
		return a.GetSetting(ctx, args[0])

	case "set":
		if len(args) < 2 {
			fmt.Fprintln(w, "Usage: set <key> <value>")
			return nil
		}
		return a.SetSetting(ctx, args[0], strings.Join(args[1:], " "))

	case "settings":
		return a.ListSettings(ctx)

	default: // theme
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		return a.Theme(ctx, name)
	}
}
