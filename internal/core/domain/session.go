package domain

// SessionState is the authentication state derived from the token store.
// It is computed on demand and never stored.
type SessionState int

const (
	// Anonymous means no access token is stored.
	Anonymous SessionState = iota
	// Authenticated means an access token is stored. Nothing is implied
	// about whether the server still accepts it.
	Authenticated
)

// String returns the state name.
func (s SessionState) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// MarshalText renders the state by name.
func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StateOf maps the token store's "is authenticated" predicate to a state.
func StateOf(authenticated bool) SessionState {
	if authenticated {
		return Authenticated
	}
	return Anonymous
}
