// Package domain defines the core models of the minisocial client.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - APIError: the closed failure taxonomy returned by every remote call
//   - Classify: mapping of HTTP responses to APIError
//   - TokenPair and Credentials: the authentication material
//   - SessionState: the derived authentication state
//   - User, Post, Comment: read-only projections of server resources
//
// Payload types validate themselves against the server's field limits
// so that a request known to be rejected is never sent.
package domain
