package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minisocial-go/internal/core/domain"
)

// PostCommand returns the post subcommand group.
func PostCommand() *cli.Command {
	return &cli.Command{
		Name:    "post",
		Aliases: []string{"posts"},
		Usage:   "Manage posts",
		Before:  requireAuthenticated,
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List posts",
				Flags:  pageFlags(),
				Action: postList,
			},
			{
				Name:      "get",
				Usage:     "Show a post",
				ArgsUsage: "POST_ID",
				Action:    postGet,
			},
			{
				Name:  "create",
				Usage: "Publish a post",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Post title",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "content",
						Aliases:  []string{"m"},
						Usage:    "Post body",
						Required: true,
					},
				},
				Action: postCreate,
			},
			{
				Name:      "update",
				Usage:     "Edit a post",
				ArgsUsage: "POST_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "title",
						Aliases: []string{"t"},
						Usage:   "New title",
					},
					&cli.StringFlag{
						Name:    "content",
						Aliases: []string{"m"},
						Usage:   "New body",
					},
				},
				Action: postUpdate,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a post",
				ArgsUsage: "POST_ID",
				Flags:     []cli.Flag{forceFlag()},
				Action:    postDelete,
			},
		},
	}
}

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "offset",
			Value: 0,
			Usage: "Items to skip",
		},
		&cli.IntFlag{
			Name:  "limit",
			Value: domain.DefaultPageLimit,
			Usage: fmt.Sprintf("Page size (max %d)", domain.MaxPageLimit),
		},
	}
}

func forceFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "force",
		Aliases: []string{"f"},
		Usage:   "Skip confirmation",
	}
}

// argID returns the first positional argument, which names a resource.
func argID(c *cli.Context, kind string) (string, error) {
	args, err := positional(c)
	if err != nil {
		return "", err
	}
	var id string
	if len(args) > 0 {
		id = args[0]
	}
	if id == "" {
		return "", domain.NewLocalValidationError("id", fmt.Sprintf("%s id required", kind))
	}
	return id, nil
}

// optional returns a pointer to the flag value when the flag was given.
func optional(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	v := c.String(name)
	return &v
}

func postList(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}

	var posts []domain.Post
	err = rt.run(c, "post:list", "Loading posts", func(ctx context.Context) (err error) {
		posts, err = rt.Posts.List(ctx, c.Int("offset"), c.Int("limit"))
		return err
	})
	if err != nil {
		return err
	}
	return rt.Printer.Print(posts)
}

func postGet(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	id, err := argID(c, "post")
	if err != nil {
		return err
	}

	var post *domain.Post
	err = rt.run(c, "post:get", "Loading post", func(ctx context.Context) (err error) {
		post, err = rt.Posts.Get(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	return rt.Printer.Print(post)
}

func postCreate(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}

	var post *domain.Post
	err = rt.run(c, "post:create", "Publishing", func(ctx context.Context) (err error) {
		post, err = rt.Posts.Create(ctx, c.String("title"), c.String("content"))
		return err
	})
	if err != nil {
		return err
	}
	return rt.Printer.Print(post)
}

func postUpdate(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	id, err := argID(c, "post")
	if err != nil {
		return err
	}
	in := domain.PostUpdate{
		Title:   optional(c, "title"),
		Content: optional(c, "content"),
	}

	var post *domain.Post
	err = rt.run(c, "post:update:"+id, "Saving post", func(ctx context.Context) (err error) {
		post, err = rt.Posts.Update(ctx, id, in)
		return err
	})
	if err != nil {
		return err
	}
	return rt.Printer.Print(post)
}

func postDelete(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	id, err := argID(c, "post")
	if err != nil {
		return err
	}
	if !c.Bool("force") && !rt.confirm(c, "Delete post %s?", id) {
		return rt.Printer.Message("Cancelled")
	}

	err = rt.run(c, "post:delete:"+id, "Deleting post", func(ctx context.Context) error {
		return rt.Posts.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	return rt.Printer.Message("Post %s deleted", id)
}
