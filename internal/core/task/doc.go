// Package task runs user actions as cancellable, keyed tasks.
//
// Starting a task under a key that already has one running cancels the
// older task; its completion is then discarded rather than delivered.
// Closing the group cancels everything, and no completion is delivered
// after Close returns. This is how the CLI keeps a slow response from
// acting on a view (a REPL line, a command) that is no longer current.
package task
