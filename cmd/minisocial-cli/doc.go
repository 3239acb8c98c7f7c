// Package main provides the entry point for minisocial-cli.
//
// The CLI is a client for the MiniSocial API:
//
//   - Account and session lifecycle (signup, login, logout, auth status)
//   - Posts and comments (list, get, create, update, delete)
//   - Users (list, get, update, delete)
//   - Profiles for several servers, each with its own session
//   - Local configuration and diagnostics
//
// Usage:
//
//	minisocial-cli [global flags] command [flags]
//	minisocial-cli login -u alice
//	minisocial-cli -o json post list --limit 10
//	minisocial-cli shell
//
// Exit codes: 0 success, 1 failure, 2 invalid input, 3 not authenticated,
// 4 not found, 5 conflict, 6 network error, 130 interrupted.
package main
