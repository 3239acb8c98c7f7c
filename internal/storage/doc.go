// Package storage persists the client session.
//
// A KVEngine is the byte-level store underneath the TokenStore. Three
// engines are available:
//
//   - file: a JSON document on disk, readable by other processes of the CLI
//   - badger: an embedded Badger v3 database
//   - memory: an in-process map, used for tests and --ephemeral runs
//
// TokenStore keeps one access/refresh token pair per namespace (usually
// the connection profile name). Values may be sealed with an adaptive
// cipher before they reach the engine.
package storage
