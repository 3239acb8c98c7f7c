package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/minisocial-go/internal/core/domain"
)

func TestResourceCommandsRequireSession(t *testing.T) {
	h := newHarness(t)

	for _, args := range [][]string{
		{"post", "list"},
		{"comment", "list", "00000000-0000-0000-0000-000000000000"},
		{"user", "list"},
	} {
		res := h.run("", args...)
		assert.Equal(t, ExitUnauthorized, res.code, "%v", args)
		assert.Contains(t, res.stderr, "Error: "+domain.MsgNotAuthenticated, "%v", args)
	}
	assert.Zero(t, h.api.Requests(), "the guard must not contact the server")
}

func TestPostLifecycle(t *testing.T) {
	h := newHarness(t)
	h.login()

	p := h.createPost("Hello", "first post")
	assert.Equal(t, "Hello", p.Title)

	res := h.run("", "post", "list")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Hello")

	res = h.run("", "-o", "json", "post", "update", p.ID, "--title", "Hello again")
	require.Equal(t, ExitOK, res.code, res.stderr)
	updated := decodeJSON[domain.Post](t, res.stdout)
	assert.Equal(t, "Hello again", updated.Title)
	assert.Equal(t, "first post", updated.Content)

	res = h.run("", "-o", "yaml", "post", "get", p.ID)
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "title: Hello again")

	res = h.run("", "post", "delete", "--force", p.ID)
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "deleted")
	assert.Zero(t, h.api.PostCount())

	res = h.run("", "post", "get", p.ID)
	assert.Equal(t, ExitNotFound, res.code)
}

func TestPostDelete_Declined(t *testing.T) {
	h := newHarness(t)
	h.login()
	p := h.createPost("Keep me", "still here")

	res := h.run("n\n", "post", "delete", p.ID)
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Cancelled")
	assert.Contains(t, res.stderr, "[y/N]")
	assert.Equal(t, 1, h.api.PostCount())
}

func TestPostCreate_LocalValidation(t *testing.T) {
	h := newHarness(t)
	h.login()
	before := h.api.Requests()

	res := h.run("", "post", "create", "--title", "   ", "--content", "body")
	assert.Equal(t, ExitValidation, res.code)
	assert.Contains(t, res.stderr, "title is required")
	assert.Equal(t, before, h.api.Requests())
}

func TestPostGet_MissingID(t *testing.T) {
	h := newHarness(t)
	h.login()

	res := h.run("", "post", "get")
	assert.Equal(t, ExitValidation, res.code)
	assert.Contains(t, res.stderr, "post id required")
}

func TestPostList_ServerError(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.api.Respond("GET", "/posts", 500, `{"detail":"database is down"}`)

	res := h.run("", "post", "list")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "List Posts failed: database is down")
}

func TestCommentLifecycle(t *testing.T) {
	h := newHarness(t)
	h.login()
	p := h.createPost("Topic", "discuss")

	res := h.run("", "-o", "json", "comment", "create", p.ID, "--content", "nice post")
	require.Equal(t, ExitOK, res.code, res.stderr)
	c := decodeJSON[domain.Comment](t, res.stdout)
	assert.Equal(t, p.ID, c.PostID)

	res = h.run("", "comment", "list", p.ID)
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "nice post")

	res = h.run("", "-o", "json", "comment", "update", c.ID, "--content", "great post")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Equal(t, "great post", decodeJSON[domain.Comment](t, res.stdout).Content)

	res = h.run("", "comment", "rm", "-f", c.ID)
	require.Equal(t, ExitOK, res.code, res.stderr)

	res = h.run("", "comment", "get", c.ID)
	assert.Equal(t, ExitNotFound, res.code)
}

func TestUserCommands(t *testing.T) {
	h := newHarness(t)
	h.login()

	res := h.run("", "-o", "json", "user", "list")
	require.Equal(t, ExitOK, res.code, res.stderr)
	users := decodeJSON[[]domain.User](t, res.stdout)
	require.Len(t, users, 1)
	assert.Equal(t, testUser, users[0].Username)

	res = h.run("", "-o", "json", "user", "update", users[0].ID, "--full-name", "Alice Liddell")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Equal(t, "Alice Liddell", decodeJSON[domain.User](t, res.stdout).FullName)

	res = h.run("", "user", "get", users[0].ID)
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Alice Liddell")
}

func TestResourceCommands_FlagPlacement(t *testing.T) {
	h := newHarness(t)
	h.login()
	p := h.createPost("Hello", "body")

	for _, args := range [][]string{
		{"post", "update", "--title", "flags first", p.ID},
		{"post", "update", p.ID, "--title", "flags after"},
		{"post", "update", p.ID, "-t=short alias"},
		{"post", "update", p.ID, "--title=with equals"},
	} {
		res := h.run("", append([]string{"-o", "json"}, args...)...)
		require.Equal(t, ExitOK, res.code, "%v: %s", args, res.stderr)
		assert.Equal(t, "body", decodeJSON[domain.Post](t, res.stdout).Content, "%v", args)
	}
	got := h.run("", "-o", "json", "post", "get", p.ID)
	assert.Equal(t, "with equals", decodeJSON[domain.Post](t, got.stdout).Title)

	res := h.run("", "post", "delete", p.ID, "--force")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Zero(t, h.api.PostCount())
}

func TestResourceCommands_TrailingFlagErrors(t *testing.T) {
	h := newHarness(t)
	h.login()
	p := h.createPost("Hello", "body")
	before := h.api.Requests()

	res := h.run("", "post", "update", p.ID, "--colour", "red")
	assert.Equal(t, ExitValidation, res.code)
	assert.Contains(t, res.stderr, "unknown flag --colour")

	res = h.run("", "post", "update", p.ID, "--title")
	assert.Equal(t, ExitValidation, res.code)
	assert.Contains(t, res.stderr, "flag --title needs a value")

	res = h.run("", "comment", "list", p.ID, "--limit", "many")
	assert.Equal(t, ExitValidation, res.code)

	res = h.run("", "comment", "create", p.ID)
	assert.Equal(t, ExitValidation, res.code)
	assert.Contains(t, res.stderr, "content is required")

	assert.Equal(t, before, h.api.Requests())
}
