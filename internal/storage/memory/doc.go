// Package memory provides an in-process KV engine.
//
// Nothing survives the process. It backs tests and the --ephemeral flag,
// where a login should last only for one shell session.
package memory
