package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minisocial-go/internal/core/domain"
)

// positional returns the positional arguments of c. urfave/cli stops
// parsing flags at the first positional argument, so flags of the current
// command that follow it, as in "post update ID --title X", are applied
// here.
func positional(c *cli.Context) ([]string, error) {
	args := c.Args().Slice()
	var pos []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			pos = append(pos, args[i+1:]...)
			break
		}
		if len(arg) < 2 || arg[0] != '-' {
			pos = append(pos, arg)
			continue
		}

		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		f := commandFlag(c.Command, name)
		if f == nil {
			return nil, domain.NewLocalValidationError("flag", fmt.Sprintf("unknown flag %s", arg))
		}
		if _, ok := f.(*cli.BoolFlag); ok && !hasValue {
			value, hasValue = "true", true
		}
		if !hasValue {
			if i+1 >= len(args) {
				return nil, domain.NewLocalValidationError("flag", fmt.Sprintf("flag %s needs a value", arg))
			}
			i++
			value = args[i]
		}
		// The canonical name is what IsSet and the typed getters look up.
		if err := c.Set(f.Names()[0], value); err != nil {
			return nil, domain.NewLocalValidationError("flag", fmt.Sprintf("invalid value %q for %s", value, arg))
		}
	}
	return pos, nil
}

func commandFlag(cmd *cli.Command, name string) cli.Flag {
	if cmd == nil {
		return nil
	}
	for _, f := range cmd.Flags {
		for _, n := range f.Names() {
			if n == name {
				return f
			}
		}
	}
	return nil
}
