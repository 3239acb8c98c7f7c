package command

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yndnr/minisocial-go/internal/core/domain"
	"github.com/yndnr/minisocial-go/internal/testutil/fakeapi"
)

const (
	testUser     = "alice"
	testPassword = "wonderland"
)

// harness runs the CLI in-process against a fake API, with its config
// file and token store in a temp directory.
type harness struct {
	t      *testing.T
	api    *fakeapi.Server
	dir    string
	config string
}

type result struct {
	code   int
	stdout string
	stderr string
}

func newHarness(t *testing.T, extraConfig ...string) *harness {
	t.Helper()
	api := fakeapi.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "cli.yaml")

	doc := fmt.Sprintf("server: %s\nstore:\n  backend: file\n  dir: %s\nlog:\n  level: error\n", api.URL, dir)
	doc += strings.Join(extraConfig, "")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0600))

	return &harness{t: t, api: api, dir: dir, config: path}
}

// run executes one CLI invocation with stdin as input.
func (h *harness) run(stdin string, args ...string) result {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	app := App()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &stdout
	app.ErrWriter = &stderr

	argv := append([]string{"minisocial-cli", "--config", h.config}, args...)
	code := Run(context.Background(), app, argv)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// login registers the test user and logs in through the CLI.
func (h *harness) login() {
	h.t.Helper()
	h.api.AddUser(testUser, testPassword)
	res := h.run("", "login", "-u", testUser, "--password", testPassword)
	require.Equal(h.t, ExitOK, res.code, res.stderr)
}

// createPost creates a post through the CLI and returns it.
func (h *harness) createPost(title, content string) domain.Post {
	h.t.Helper()
	res := h.run("", "-o", "json", "post", "create", "--title", title, "--content", content)
	require.Equal(h.t, ExitOK, res.code, res.stderr)
	var p domain.Post
	require.NoError(h.t, json.Unmarshal([]byte(res.stdout), &p))
	require.NotEmpty(h.t, p.ID)
	return p
}

func decodeJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), s)
	return v
}
