// Package cli provides the interactive kurozora command-line client.
//
// It wires configuration, the settings database, the session manager and an
// interactive REPL. The prompt shows who is signed in; commands manage the
// account roster and read or write the active account's settings.
//
// Key features:
//   - Add / Switch / Remove accounts, Logout, WhoAmI
//   - Get / Set settings of the active account, list them, pick a theme
//   - Stats: in-process counters for account and settings activity
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
