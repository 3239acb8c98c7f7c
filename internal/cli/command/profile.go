package command

import (
	"errors"
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minisocial-go/internal/cli/config"
	"github.com/yndnr/minisocial-go/internal/cli/connection"
	"github.com/yndnr/minisocial-go/internal/core/domain"
)

// ProfileCommand returns the profile subcommand group. A profile is a
// named server with its own stored session.
func ProfileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Manage saved servers",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List profiles and their session state",
				Action: profileList,
			},
			{
				Name:      "add",
				Usage:     "Save a server under a name",
				ArgsUsage: "NAME SERVER",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "use",
						Usage: "Make it the active profile",
					},
				},
				Action: profileAdd,
			},
			{
				Name:      "use",
				Usage:     "Switch to a saved profile",
				ArgsUsage: "NAME",
				Action:    profileUse,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Forget a profile and its session",
				ArgsUsage: "NAME",
				Action:    profileRemove,
			},
		},
	}
}

type profileRow struct {
	Name    string              `json:"name"`
	Server  string              `json:"server"`
	Active  bool                `json:"active"`
	Session domain.SessionState `json:"session"`
}

func profileList(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}

	cfg := rt.Config
	rows := make([]profileRow, 0, len(cfg.Profiles)+1)
	if _, ok := cfg.Profiles[cfg.Namespace()]; !ok {
		rows = append(rows, profileRow{
			Name:    cfg.Namespace(),
			Server:  cfg.ActiveServer(),
			Active:  true,
			Session: rt.Store.State(),
		})
	}
	for name, p := range cfg.Profiles {
		rows = append(rows, profileRow{
			Name:    name,
			Server:  p.Server,
			Active:  name == cfg.Namespace(),
			Session: rt.storeFor(name).State(),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rt.Printer.Print(rows)
}

func profileAdd(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	args, err := positional(c)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return domain.NewLocalValidationError("profile", "usage: profile add NAME SERVER")
	}
	p := connection.Profile{
		Name:   args[0],
		Server: connection.NormalizeServer(args[1]),
	}
	if err := p.Validate(); err != nil {
		return domain.NewLocalValidationError("profile", err.Error())
	}

	if _, err := config.Set(rt.ConfigPath, "profiles."+p.Name+".server", p.Server); err != nil {
		return err
	}
	if err := rt.Connections.Add(p); err != nil {
		return err
	}
	if c.Bool("use") {
		return switchProfile(c, rt, p.Name)
	}
	return rt.Printer.Message("Profile %s saved (%s)", p.Name, p.Server)
}

func profileUse(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	name := c.Args().First()
	if _, ok := rt.Config.Profiles[name]; !ok {
		return domain.NewLocalValidationError("profile", fmt.Sprintf("unknown profile %q", name))
	}
	return switchProfile(c, rt, name)
}

// switchProfile persists the selection and, inside a shell, reopens the
// runtime on the new profile.
func switchProfile(c *cli.Context, rt *Runtime, name string) error {
	if _, err := config.Set(rt.ConfigPath, "profile", name); err != nil {
		return err
	}
	delete(rt.flags, "profile")
	delete(rt.flags, "server")

	if rt.inShell {
		if err := rt.reload(); err != nil {
			return err
		}
	}
	return rt.Printer.Message("Using profile %s", name)
}

func profileRemove(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	name := c.Args().First()
	if _, ok := rt.Config.Profiles[name]; !ok {
		return domain.NewLocalValidationError("profile", fmt.Sprintf("unknown profile %q", name))
	}

	if err := rt.storeFor(name).Clear(); err != nil {
		return fmt.Errorf("clear session of %s: %w", name, err)
	}
	if _, err := config.RemoveProfile(rt.ConfigPath, name); err != nil {
		return err
	}
	if err := rt.Connections.Remove(name); err != nil && !errors.Is(err, connection.ErrProfileNotFound) {
		return err
	}

	if rt.inShell && name == rt.Config.Namespace() {
		delete(rt.flags, "profile")
		if err := rt.reload(); err != nil {
			return err
		}
	}
	return rt.Printer.Message("Profile %s removed", name)
}
