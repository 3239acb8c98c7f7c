package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/minisocial-go/internal/core/domain"
)

func TestLogin_PersistsSession(t *testing.T) {
	h := newHarness(t)
	h.login()

	res := h.run("", "-o", "json", "auth", "status")
	require.Equal(t, ExitOK, res.code, res.stderr)

	st := decodeJSON[map[string]any](t, res.stdout)
	assert.Equal(t, "authenticated", st["state"])
	assert.Equal(t, "default", st["profile"])
	assert.Equal(t, testUser, st["subject"])
	assert.NotEmpty(t, st["access_token"])
	assert.NotContains(t, res.stdout, "eyJ", "raw tokens must not be printed")
}

func TestLogin_PromptsForMissingFields(t *testing.T) {
	h := newHarness(t)
	h.api.AddUser(testUser, testPassword)

	res := h.run(testUser+"\n"+testPassword+"\n", "login")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Logged in as alice")
	assert.Contains(t, res.stderr, "Username: ")
	assert.Contains(t, res.stderr, "Password: ")
}

func TestLogin_BadCredentials(t *testing.T) {
	h := newHarness(t)
	h.api.AddUser(testUser, testPassword)

	res := h.run("", "login", "-u", testUser, "--password", "wrong-password")
	assert.Equal(t, ExitUnauthorized, res.code)
	assert.Contains(t, res.stderr, "Error: "+domain.MsgBadCredentials)

	status := h.run("", "auth", "status")
	assert.Contains(t, status.stdout, "anonymous")
}

func TestLogin_EmptyUsernameIsLocal(t *testing.T) {
	h := newHarness(t)

	res := h.run("   \n", "login", "--password", "x")
	assert.Equal(t, ExitValidation, res.code)
	assert.Contains(t, res.stderr, "Username is required")
	assert.Zero(t, h.api.Requests())
}

func TestSignup_PasswordMismatch(t *testing.T) {
	h := newHarness(t)

	res := h.run("", "signup", "-u", "bob", "--password", "password-one", "--confirm", "password-two")
	assert.Equal(t, ExitValidation, res.code)
	assert.Contains(t, res.stderr, domain.MsgPasswordMismatch)
	assert.Zero(t, h.api.Requests())
}

func TestSignup_ThenLogin(t *testing.T) {
	h := newHarness(t)

	res := h.run("", "signup", "-u", "bob", "--password", "builder-123", "--full-name", "Bob", "--login")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "bob")
	assert.Contains(t, res.stdout, "Logged in as bob")

	status := h.run("", "auth", "status")
	assert.Contains(t, status.stdout, "authenticated")
}

func TestSignup_WithoutLoginStaysAnonymous(t *testing.T) {
	h := newHarness(t)

	res := h.run("builder-123\nbuilder-123\n", "-o", "json", "signup", "-u", "bob")
	require.Equal(t, ExitOK, res.code, res.stderr)
	u := decodeJSON[domain.User](t, res.stdout)
	assert.Equal(t, "bob", u.Username)

	status := h.run("", "auth", "status")
	assert.Contains(t, status.stdout, "anonymous")
}

func TestSignup_UsernameTaken(t *testing.T) {
	h := newHarness(t)
	h.api.AddUser("bob", "builder-123")

	res := h.run("", "signup", "-u", "bob", "--password", "builder-123")
	assert.Equal(t, ExitConflict, res.code)
	assert.Contains(t, res.stderr, domain.MsgUsernameTaken)
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	h.login()

	res := h.run("", "logout")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Logged out")

	res = h.run("", "logout")
	assert.Contains(t, res.stdout, "Not logged in")

	res = h.run("", "post", "list")
	assert.Equal(t, ExitUnauthorized, res.code)
}

func TestUnauthorizedKeepsSessionByDefault(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.api.Revoke()

	res := h.run("", "post", "list")
	assert.Equal(t, ExitUnauthorized, res.code)
	assert.Contains(t, res.stderr, domain.MsgNotAuthenticated)

	status := h.run("", "auth", "status")
	assert.Contains(t, status.stdout, "authenticated")
	assert.NotContains(t, status.stdout, "anonymous")
}

func TestUnauthorizedLogsOutWhenConfigured(t *testing.T) {
	h := newHarness(t, "auth:\n  logout_on_unauthorized: true\n")
	h.login()
	h.api.Revoke()

	res := h.run("", "post", "list")
	assert.Equal(t, ExitUnauthorized, res.code)

	status := h.run("", "auth", "status")
	assert.Contains(t, status.stdout, "anonymous")
}

func TestEphemeralSessionIsNotPersisted(t *testing.T) {
	h := newHarness(t)
	h.api.AddUser(testUser, testPassword)

	res := h.run("", "--ephemeral", "login", "-u", testUser, "--password", testPassword)
	require.Equal(t, ExitOK, res.code, res.stderr)

	status := h.run("", "auth", "status")
	assert.Contains(t, status.stdout, "anonymous")
}
