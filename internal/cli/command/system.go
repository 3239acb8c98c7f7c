package command

import (
	"context"
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minisocial-go/internal/core/service"
	"github.com/yndnr/minisocial-go/internal/infra/buildinfo"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Server and client diagnostics",
		Subcommands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Check that the API answers",
				Action: systemHealth,
			},
			{
				Name:   "version",
				Usage:  "Show client build information",
				Action: systemVersion,
			},
			{
				Name:  "metrics",
				Usage: "Dump client metrics in Prometheus text format",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Only metrics whose name starts with this prefix",
					},
				},
				Action: systemMetrics,
			},
		},
	}
}

type healthReport struct {
	Server  string `json:"server"`
	Message string `json:"message"`
}

func systemHealth(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}

	var status *service.HealthStatus
	err = rt.run(c, "health", "Checking server", func(ctx context.Context) (err error) {
		status, err = rt.Session.Health(ctx)
		return err
	})
	if err != nil {
		return err
	}
	return rt.Printer.Print(healthReport{
		Server:  rt.Config.ActiveServer(),
		Message: status.Message,
	})
}

func systemVersion(c *cli.Context) error {
	rt, ok := runtimeFrom(c)
	if !ok {
		return errors.New("runtime not initialized")
	}
	return rt.Printer.Print(buildinfo.Get())
}

// systemMetrics dumps the metrics of this process. In a shell they cover
// every command run so far.
func systemMetrics(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	return rt.Metrics.WriteText(c.App.Writer, c.String("prefix"))
}
