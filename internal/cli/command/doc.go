// Package command provides CLI command definitions for minisocial-cli.
//
// It uses urfave/cli/v2 for command parsing and supports both
// single-command mode and the interactive shell, where every line runs as
// a command against one shared Runtime.
//
// Command groups:
//
//   - login, signup, logout, auth: the session lifecycle
//   - post, comment, user: resources, guarded by an authenticated session
//   - profile, config: local settings
//   - system: health, version and metrics
//   - shell: the interactive REPL
package command
