package command

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minisocial-go/internal/core/domain"
)

// UserCommand returns the user subcommand group.
func UserCommand() *cli.Command {
	return &cli.Command{
		Name:    "user",
		Aliases: []string{"users"},
		Usage:   "Manage users",
		Before:  requireAuthenticated,
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List users",
				Flags:  pageFlags(),
				Action: userList,
			},
			{
				Name:      "get",
				Usage:     "Show a user and their posts",
				ArgsUsage: "USER_ID",
				Action:    userGet,
			},
			{
				Name:      "update",
				Usage:     "Change a user",
				ArgsUsage: "USER_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "username",
						Usage: "New username",
					},
					&cli.StringFlag{
						Name:  "full-name",
						Usage: "New display name",
					},
				},
				Action: userUpdate,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a user",
				ArgsUsage: "USER_ID",
				Flags:     []cli.Flag{forceFlag()},
				Action:    userDelete,
			},
		},
	}
}

func userList(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}

	var users []domain.User
	err = rt.run(c, "user:list", "Loading users", func(ctx context.Context) (err error) {
		users, err = rt.Users.List(ctx, c.Int("offset"), c.Int("limit"))
		return err
	})
	if err != nil {
		return err
	}
	return rt.Printer.Print(users)
}

func userGet(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	id, err := argID(c, "user")
	if err != nil {
		return err
	}

	var user *domain.User
	err = rt.run(c, "user:get", "Loading user", func(ctx context.Context) (err error) {
		user, err = rt.Users.Get(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	return rt.Printer.Print(user)
}

func userUpdate(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	id, err := argID(c, "user")
	if err != nil {
		return err
	}
	in := domain.UserUpdate{
		Username: optional(c, "username"),
		FullName: optional(c, "full-name"),
	}

	var user *domain.User
	err = rt.run(c, "user:update:"+id, "Saving user", func(ctx context.Context) (err error) {
		user, err = rt.Users.Update(ctx, id, in)
		return err
	})
	if err != nil {
		return err
	}
	return rt.Printer.Print(user)
}

func userDelete(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	id, err := argID(c, "user")
	if err != nil {
		return err
	}
	if !c.Bool("force") && !rt.confirm(c, "Delete user %s?", id) {
		return rt.Printer.Message("Cancelled")
	}

	err = rt.run(c, "user:delete:"+id, "Deleting user", func(ctx context.Context) error {
		return rt.Users.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	return rt.Printer.Message("User %s deleted", id)
}
