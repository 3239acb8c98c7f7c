package logger

import (
	"log/slog"
	"strings"

	"github.com/yndnr/minisocial-go/pkg/token"
)

// Attribute keys containing one of these fragments are masked.
var sensitiveKeys = []string{
	"password",
	"passphrase",
	"secret",
	"token",
	"credential",
	"authorization",
	"cookie",
}

const redactedValue = "[REDACTED]"

// redactAttr masks secrets in a. Bearer credentials and JWTs are replaced
// by the fingerprint that "auth status" prints.
func redactAttr(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = redactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	case slog.KindString:
		v := a.Value.String()
		switch {
		case v == "":
		case IsSensitiveValue(v):
			return slog.String(a.Key, RedactString(v))
		case IsSensitiveKey(a.Key):
			return slog.String(a.Key, redactedValue)
		}
	}
	return a
}

// RedactString replaces a bearer credential or a JWT by its fingerprint.
// Other values are returned unchanged.
func RedactString(v string) string {
	if scheme, cred, ok := strings.Cut(v, " "); ok && strings.EqualFold(scheme, "bearer") {
		return scheme + " " + fingerprint(cred)
	}
	if looksLikeJWT(v) {
		return fingerprint(v)
	}
	return v
}

func fingerprint(secret string) string {
	return "fp:" + token.Fingerprint(secret)
}

// IsSensitiveKey reports whether an attribute key names a secret.
func IsSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, frag := range sensitiveKeys {
		if strings.Contains(key, frag) {
			return true
		}
	}
	return false
}

// IsSensitiveValue reports whether v is a bearer credential or a JWT.
func IsSensitiveValue(v string) bool {
	if len(v) > len("bearer ") && strings.EqualFold(v[:len("bearer ")], "bearer ") {
		return true
	}
	return looksLikeJWT(v)
}

// looksLikeJWT matches three non-empty dot-separated segments with a JSON
// header, which base64url-encodes to a leading "eyJ".
func looksLikeJWT(v string) bool {
	if !strings.HasPrefix(v, "eyJ") {
		return false
	}
	parts := strings.Split(v, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}
