package command

import (
	"errors"
	"fmt"
	"sort"

	"github.com/knadh/koanf/maps"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/yndnr/minisocial-go/internal/cli/config"
	"github.com/yndnr/minisocial-go/internal/core/domain"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "CLI configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: configShow,
			},
			{
				Name:      "get",
				Usage:     "Show one setting",
				ArgsUsage: "KEY",
				Action:    configGet,
			},
			{
				Name:      "set",
				Usage:     "Change one setting in the config file",
				ArgsUsage: "KEY VALUE",
				Action:    configSet,
			},
			{
				Name:   "path",
				Usage:  "Show the config file path",
				Action: configPath,
			},
			{
				Name:   "validate",
				Usage:  "Validate the effective configuration",
				Action: configValidate,
			},
		},
	}
}

// settings renders cfg as a nested map, the way it is written to disk.
func settings(cfg *config.Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	doc := map[string]any{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

type settingRow struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// configShow prints the nested settings for json and yaml, and one row per
// key with the layer that set it for tables.
func configShow(c *cli.Context) error {
	rt, ok := runtimeFrom(c)
	if !ok {
		return errors.New("runtime not initialized")
	}
	doc, err := settings(rt.Config)
	if err != nil {
		return err
	}
	if rt.Printer.Format.Structured() {
		return rt.Printer.Print(doc)
	}

	flat, _ := maps.Flatten(doc, nil, ".")
	rows := make([]settingRow, 0, len(flat))
	for key, v := range flat {
		rows = append(rows, settingRow{
			Key:    key,
			Value:  fmt.Sprint(v),
			Source: string(rt.Config.Source(key)),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return rt.Printer.Print(rows)
}

func configGet(c *cli.Context) error {
	rt, ok := runtimeFrom(c)
	if !ok {
		return errors.New("runtime not initialized")
	}
	key := c.Args().First()
	doc, err := settings(rt.Config)
	if err != nil {
		return err
	}
	flat, _ := maps.Flatten(doc, nil, ".")
	v, ok := flat[key]
	if !ok {
		return domain.NewLocalValidationError("key", fmt.Sprintf("unknown key %q", key))
	}
	return rt.Printer.Message("%v", v)
}

func configSet(c *cli.Context) error {
	rt, ok := runtimeFrom(c)
	if !ok {
		return errors.New("runtime not initialized")
	}
	if c.NArg() != 2 {
		return domain.NewLocalValidationError("config", "usage: config set KEY VALUE")
	}
	key, value := c.Args().Get(0), c.Args().Get(1)

	if _, err := config.Set(rt.ConfigPath, key, value); err != nil {
		if errors.Is(err, config.ErrUnknownKey) {
			return domain.NewLocalValidationError("key", err.Error())
		}
		return domain.NewLocalValidationError(key, err.Error())
	}
	return rt.Printer.Message("%s = %s", key, value)
}

func configPath(c *cli.Context) error {
	rt, ok := runtimeFrom(c)
	if !ok {
		return errors.New("runtime not initialized")
	}
	return rt.Printer.Message("%s", rt.ConfigPath)
}

func configValidate(c *cli.Context) error {
	rt, ok := runtimeFrom(c)
	if !ok {
		return errors.New("runtime not initialized")
	}
	if err := rt.Config.Validate(); err != nil {
		return domain.NewLocalValidationError("config", err.Error())
	}
	return rt.Printer.Message("Configuration is valid")
}
