// Package connection talks HTTP to the minisocial API.
//
//   - http.go: the request executor; one round trip per call, with transport
//     failures reported separately from non-2xx responses
//   - manager.go: named server profiles and the client of the active one
//
// The executor never interprets status codes. Classification lives in the
// domain package.
package connection
