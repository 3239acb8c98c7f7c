// Package service implements the client's session lifecycle and the API
// resources built on it.
//
// SessionManager owns login, signup and logout and is the only path by
// which a bearer token reaches a request. The resource services (posts,
// comments, users) hold no state of their own: every call goes through
// SessionManager.AuthorizedRequest, which fails fast with an Unauthorized
// error when no token is stored.
//
// Every failure returned from this package is a *domain.APIError produced
// by the central classifier.
package service
