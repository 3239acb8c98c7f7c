// Package repl provides the interactive shell of minisocial-cli.
//
//   - repl.go: the read-eval-print loop, interrupts and notices
//   - history.go: persistent command history
//   - completer.go: command-path completion ("post l?" lists matches)
//
// Lines are split with shell quoting rules and handed to an Exec function,
// so the shell runs exactly the commands the CLI runs.
package repl
