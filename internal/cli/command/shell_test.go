package command

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShell_SharesSessionAcrossLines(t *testing.T) {
	h := newHarness(t)
	h.api.AddUser(testUser, testPassword)

	script := strings.Join([]string{
		"auth status",
		"login -u alice --password wonderland",
		`post create --title "Shell post" --content "typed in a shell"`,
		"-o json post list",
		"post ?",
		"exit",
	}, "\n") + "\n"

	res := h.run(script, "shell")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "minisocial(default)> ")
	assert.Contains(t, res.stdout, "minisocial(default)*> ")
	assert.Contains(t, res.stdout, "Logged in as alice")
	assert.Contains(t, res.stdout, `"title": "Shell post"`)
	assert.Contains(t, res.stdout, "post create\n")
	assert.Equal(t, 1, h.api.PostCount())

	history, err := os.ReadFile(filepath.Join(h.dir, "history"))
	require.NoError(t, err)
	assert.Contains(t, string(history), "auth status")
	assert.NotContains(t, string(history), "wonderland")
}

func TestShell_ReportsErrorsAndContinues(t *testing.T) {
	h := newHarness(t)

	res := h.run("post list\nnonsense-command\nsystem health\n", "shell")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stderr, "Error: Not authenticated, please log in")
	assert.Contains(t, res.stdout, "Hello World")
}

func TestShell_RejectsNestedShell(t *testing.T) {
	h := newHarness(t)

	res := h.run("shell\nexit\n", "shell")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stderr, "already in a shell")
}

func TestShell_ProfileSwitchReopensSession(t *testing.T) {
	h := newHarness(t)
	h.login()

	res := h.run("profile add --use other "+h.api.URL+"\nauth status\n", "shell")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Using profile other")
	assert.Contains(t, res.stdout, "minisocial(other)> ")
	assert.Contains(t, res.stdout, "anonymous")
}
