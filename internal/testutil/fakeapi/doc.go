// Package fakeapi is an in-process stand-in for the social API, used by
// tests. It keeps users, posts and comments in memory, issues signed JWT
// access tokens and counts every request it receives so tests can assert
// that no network call was made.
package fakeapi
