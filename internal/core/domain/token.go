package domain

import (
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credentials are the transient username/password pair of a login attempt.
// They are never persisted.
type Credentials struct {
	Username string
	Password string
}

// Validate checks that both fields are present.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return NewLocalValidationError("username", "Username is required")
	}
	if c.Password == "" {
		return NewLocalValidationError("password", "Password is required")
	}
	return nil
}

// FormValues encodes the credentials for the token endpoint. The endpoint
// requires the scope, client_id and client_secret fields to be present even
// though the client sends them empty.
func (c Credentials) FormValues() url.Values {
	return url.Values{
		"username":      {c.Username},
		"password":      {c.Password},
		"scope":         {""},
		"client_id":     {""},
		"client_secret": {""},
	}
}

// LogValue keeps the password out of structured logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(slog.String("username", c.Username))
}

// TokenPair is the authentication material issued by the token endpoint.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Valid reports whether the pair carries a usable access token.
func (p TokenPair) Valid() bool {
	return p.AccessToken != ""
}

// LogValue keeps token values out of structured logs.
func (p TokenPair) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("access_token", p.AccessToken != ""),
		slog.Bool("refresh_token", p.RefreshToken != ""),
	)
}

// TokenClaims are the access token claims shown to the user.
type TokenClaims struct {
	Subject   string    `json:"subject"`
	IssuedAt  time.Time `json:"issued_at,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the claims carry an expiry in the past.
func (c TokenClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// InspectAccessToken decodes the access token claims without verifying the
// signature. The result is informational only; the server remains the sole
// judge of token validity.
func InspectAccessToken(token string) (TokenClaims, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return TokenClaims{}, err
	}

	out := TokenClaims{Subject: claims.Subject}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
