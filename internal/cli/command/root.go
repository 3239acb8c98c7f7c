package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minisocial-go/internal/core/domain"
	"github.com/yndnr/minisocial-go/internal/core/task"
	"github.com/yndnr/minisocial-go/internal/infra/buildinfo"
	"github.com/yndnr/minisocial-go/internal/infra/shutdown"
)

// Exit codes.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitValidation   = 2
	ExitUnauthorized = 3
	ExitNotFound     = 4
	ExitConflict     = 5
	ExitNetwork      = 6
	ExitInterrupted  = 130
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:                 "minisocial-cli",
		Usage:                "Command-line client for the MiniSocial API",
		Version:              buildinfo.String(),
		Flags:                globalFlags(),
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			LoginCommand(),
			SignupCommand(),
			LogoutCommand(),
			AuthCommand(),
			PostCommand(),
			CommentCommand(),
			UserCommand(),
			ProfileCommand(),
			ConfigCommand(),
			SystemCommand(),
			ShellCommand(),
		},
		Before:         before,
		After:          after,
		ExitErrHandler: func(*cli.Context, error) {},
		Metadata:       map[string]any{},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file (default ~/.minisocial/cli.yaml)",
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "API server URL (e.g., http://localhost:8000)",
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "Saved profile to use",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (untruncated cells, more columns)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging on stderr",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout (e.g., 10s)",
		},
		&cli.StringFlag{
			Name:  "store",
			Usage: "Token store backend: file, badger, memory",
		},
		&cli.BoolFlag{
			Name:  "ephemeral",
			Usage: "Keep the session in memory only",
		},
	}
}

// before creates the runtime, or refreshes the printer of a runtime handed
// down by a shell.
func before(c *cli.Context) error {
	if rt, ok := runtimeFrom(c); ok {
		rt.Printer = rt.printerFor(c)
		return nil
	}

	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	c.App.Metadata[runtimeKey] = rt
	c.App.Metadata[ownerKey] = true
	return nil
}

// after closes the runtime if this app created it.
func after(c *cli.Context) error {
	rt, ok := runtimeFrom(c)
	if !ok {
		return nil
	}
	if owner, _ := c.App.Metadata[ownerKey].(bool); !owner {
		return nil
	}
	return rt.Close()
}

// Execute runs the CLI with args (including the program name) and returns
// the process exit code. SIGINT and SIGTERM cancel the running command;
// a second signal exits at once.
func Execute(ctx context.Context, args []string) int {
	app := App()
	app.Reader = os.Stdin
	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	ctx, stop := shutdown.NewHandler(time.Second).NotifyContext(ctx)
	defer stop()
	return Run(ctx, app, args)
}

// Run runs app, reports a failure on the app's error writer and maps it
// to an exit code.
func Run(ctx context.Context, app *cli.App, args []string) int {
	err := app.RunContext(ctx, args)
	if err == nil {
		return ExitOK
	}

	if rt, ok := app.Metadata[runtimeKey].(*Runtime); ok {
		rt.Printer.Error(err)
	} else {
		fmt.Fprintf(app.ErrWriter, "Error: %v\n", err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled), errors.Is(err, task.ErrDiscarded):
		return ExitInterrupted
	}

	ae, ok := domain.AsAPIError(err)
	if !ok {
		return ExitFailure
	}
	switch ae.Kind {
	case domain.KindValidation:
		return ExitValidation
	case domain.KindUnauthorized:
		return ExitUnauthorized
	case domain.KindNotFound:
		return ExitNotFound
	case domain.KindConflict:
		return ExitConflict
	case domain.KindNetworkError:
		return ExitNetwork
	default:
		return ExitFailure
	}
}

// requireAuthenticated guards commands that read or change resources. It
// fails without contacting the server when no session is stored.
func requireAuthenticated(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	if rt.Session.State() != domain.Authenticated {
		return domain.NewAPIError(domain.KindUnauthorized, domain.MsgNotAuthenticated)
	}
	return nil
}
