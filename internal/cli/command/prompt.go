package command

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

// promptLine asks for one line of input.
func (rt *Runtime) promptLine(c *cli.Context, prompt string) (string, error) {
	fmt.Fprint(c.App.ErrWriter, prompt)
	line, err := rt.input(c).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(c.App.ErrWriter)
			return "", errors.New("no input")
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readPassword asks for a secret without echo when the input is a
// terminal, and reads a plain line otherwise.
func (rt *Runtime) readPassword(c *cli.Context, prompt string) (string, error) {
	f, ok := c.App.Reader.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return rt.promptLine(c, prompt)
	}

	fmt.Fprint(c.App.ErrWriter, prompt)
	secret, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(c.App.ErrWriter)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(secret), nil
}

// confirm asks a yes/no question. Anything but y or yes is a no.
func (rt *Runtime) confirm(c *cli.Context, format string, args ...any) bool {
	answer, err := rt.promptLine(c, fmt.Sprintf(format, args...)+" [y/N] ")
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
