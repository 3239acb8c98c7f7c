package command

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minisocial-go/internal/core/domain"
)

// CommentCommand returns the comment subcommand group.
func CommentCommand() *cli.Command {
	return &cli.Command{
		Name:    "comment",
		Aliases: []string{"comments"},
		Usage:   "Manage comments",
		Before:  requireAuthenticated,
		Subcommands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List the comments of a post",
				ArgsUsage: "POST_ID",
				Flags:     pageFlags(),
				Action:    commentList,
			},
			{
				Name:      "get",
				Usage:     "Show a comment",
				ArgsUsage: "COMMENT_ID",
				Action:    commentGet,
			},
			{
				Name:      "create",
				Aliases:   []string{"add"},
				Usage:     "Comment on a post",
				ArgsUsage: "POST_ID --content TEXT",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "content",
						Aliases: []string{"m"},
						Usage:   "Comment text",
					},
				},
				Action: commentCreate,
			},
			{
				Name:      "update",
				Usage:     "Edit a comment",
				ArgsUsage: "COMMENT_ID --content TEXT",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "content",
						Aliases: []string{"m"},
						Usage:   "New text",
					},
				},
				Action: commentUpdate,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a comment",
				ArgsUsage: "COMMENT_ID",
				Flags:     []cli.Flag{forceFlag()},
				Action:    commentDelete,
			},
		},
	}
}

func commentList(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	postID, err := argID(c, "post")
	if err != nil {
		return err
	}

	var comments []domain.Comment
	err = rt.run(c, "comment:list:"+postID, "Loading comments", func(ctx context.Context) (err error) {
		comments, err = rt.Comments.List(ctx, postID, c.Int("offset"), c.Int("limit"))
		return err
	})
	if err != nil {
		return err
	}
	return rt.Printer.Print(comments)
}

func commentGet(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	id, err := argID(c, "comment")
	if err != nil {
		return err
	}

	var comment *domain.Comment
	err = rt.run(c, "comment:get", "Loading comment", func(ctx context.Context) (err error) {
		comment, err = rt.Comments.Get(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	return rt.Printer.Print(comment)
}

func commentCreate(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	postID, err := argID(c, "post")
	if err != nil {
		return err
	}

	var comment *domain.Comment
	err = rt.run(c, "comment:create:"+postID, "Posting comment", func(ctx context.Context) (err error) {
		comment, err = rt.Comments.Create(ctx, postID, c.String("content"))
		return err
	})
	if err != nil {
		return err
	}
	return rt.Printer.Print(comment)
}

func commentUpdate(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	id, err := argID(c, "comment")
	if err != nil {
		return err
	}

	var comment *domain.Comment
	err = rt.run(c, "comment:update:"+id, "Saving comment", func(ctx context.Context) (err error) {
		comment, err = rt.Comments.Update(ctx, id, c.String("content"))
		return err
	})
	if err != nil {
		return err
	}
	return rt.Printer.Print(comment)
}

func commentDelete(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	id, err := argID(c, "comment")
	if err != nil {
		return err
	}
	if !c.Bool("force") && !rt.confirm(c, "Delete comment %s?", id) {
		return rt.Printer.Message("Cancelled")
	}

	err = rt.run(c, "comment:delete:"+id, "Deleting comment", func(ctx context.Context) error {
		return rt.Comments.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	return rt.Printer.Message("Comment %s deleted", id)
}
