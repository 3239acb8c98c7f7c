package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minisocial-go/internal/cli/config"
	"github.com/yndnr/minisocial-go/internal/cli/repl"
	"github.com/yndnr/minisocial-go/internal/core/domain"
	"github.com/yndnr/minisocial-go/internal/storage"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:   "shell",
		Usage:  "Start an interactive shell sharing one session",
		Action: shellAction,
	}
}

func shellAction(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	if rt.inShell {
		return errors.New("already in a shell")
	}
	rt.inShell = true
	defer func() { rt.inShell = false }()

	history := repl.NewHistory(historyPath(rt.Config))
	if err := history.Load(); err != nil {
		rt.Logger.Warn("load history", "error", err)
	}

	// Interrupt cancels the running line instead of ending the shell.
	signal.Reset(os.Interrupt)
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	app := c.App
	r := repl.New(repl.Options{
		In:     rt.input(c),
		Out:    app.Writer,
		Prompt: rt.prompt,
		Exec: func(ctx context.Context, args []string) error {
			return rt.runLine(ctx, app, args)
		},
		OnError:    func(err error) { rt.Printer.Error(err) },
		History:    history,
		Completer:  repl.NewCompleter(commandPaths(app.Commands, "")...),
		Interrupts: interrupts,
	})

	var watcher *storage.SessionWatcher
	watch := func() {
		if watcher != nil {
			_ = watcher.Stop()
			watcher = nil
		}
		fe, ok := rt.Engine.(*storage.FileEngine)
		if !ok {
			return
		}
		sw, err := storage.WatchSession(rt.Store, fe.Path(), func(s domain.SessionState) {
			r.Notify(fmt.Sprintf("session changed: %s", s))
		}, rt.Logger)
		if err != nil {
			rt.Logger.Warn("watch session file", "error", err)
			return
		}
		watcher = sw
	}
	watch()
	rt.onReload = watch
	defer func() {
		rt.onReload = nil
		if watcher != nil {
			_ = watcher.Stop()
		}
	}()

	fmt.Fprintf(app.Writer, "%s shell. Type 'help' for commands, 'exit' to leave.\n", app.Name)
	err = r.Run(c.Context)
	if serr := history.Save(); serr != nil {
		rt.Logger.Warn("save history", "error", serr)
	}
	return err
}

// runLine runs one shell line as a command of a fresh app sharing rt.
func (rt *Runtime) runLine(ctx context.Context, parent *cli.App, args []string) error {
	app := App()
	app.Reader = parent.Reader
	app.Writer = parent.Writer
	app.ErrWriter = parent.ErrWriter
	app.Metadata[runtimeKey] = rt
	return app.RunContext(ctx, append([]string{parent.Name}, args...))
}

// prompt shows the profile and marks an authenticated session.
func (rt *Runtime) prompt() string {
	mark := ""
	if rt.Session != nil && rt.Session.State() == domain.Authenticated {
		mark = "*"
	}
	return fmt.Sprintf("minisocial(%s)%s> ", rt.Config.Namespace(), mark)
}

func historyPath(cfg *config.Config) string {
	if cfg.Store.Backend == config.BackendMemory || cfg.Store.Dir == "" {
		return ""
	}
	return filepath.Join(cfg.Store.Dir, "history")
}

// commandPaths lists the visible command paths, such as "post list".
func commandPaths(cmds []*cli.Command, prefix string) []string {
	var paths []string
	for _, cmd := range cmds {
		if cmd.Hidden {
			continue
		}
		path := prefix + cmd.Name
		paths = append(paths, path)
		paths = append(paths, commandPaths(cmd.Subcommands, path+" ")...)
	}
	return paths
}
