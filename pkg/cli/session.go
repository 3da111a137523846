package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pika/pkg/model"
	"github.com/urfave/cli/v3"
)

func sessionCommand() *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Manage conversation sessions",
		Commands: []*cli.Command{
			sessionListCommand(),
			sessionShowCommand(),
			sessionDeleteCommand(),
			sessionSweepCommand(),
		},
	}
}

func sessionListCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "list",
		Usage: "List all sessions",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			conversations, err := cfg.newConversations(ctx)
			if err != nil {
				return err
			}

			sessions, err := conversations.List(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to list sessions")
			}

			if len(sessions) == 0 {
				fmt.Fprintf(c.Root().Writer, "No sessions found\n")
				return nil
			}

			for _, s := range sessions {
				fmt.Fprintf(c.Root().Writer, "%s\t%d messages\t%s\t%s\t%s\n",
					s.ID,
					len(s.Messages),
					s.Strategy,
					s.KnowledgeBase,
					s.LastUpdated.Format("2006-01-02 15:04:05"),
				)
			}
			return nil
		},
	}
}

func sessionShowCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "show",
		Usage:     "Show the full message history of a session",
		ArgsUsage: "<session-id>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			id := model.SessionID(c.Args().First())
			if id == "" {
				return goerr.New("session ID is required")
			}

			conversations, err := cfg.newConversations(ctx)
			if err != nil {
				return err
			}

			session, err := conversations.Get(ctx, id)
			if err != nil {
				return goerr.Wrap(err, "failed to get session")
			}

			w := c.Root().Writer
			fmt.Fprintf(w, "session: %s\ncreated: %s\nstrategy: %s\nknowledge base: %s\n",
				session.ID,
				session.CreatedAt.Format("2006-01-02 15:04:05"),
				session.Strategy,
				session.KnowledgeBase,
			)
			if session.ContextSummary != "" {
				fmt.Fprintf(w, "summary: %s\n", session.ContextSummary)
			}
			fmt.Fprintf(w, "\n")

			for _, msg := range session.Messages {
				fmt.Fprintf(w, "[%s] %s\n%s\n\n",
					msg.Timestamp.Format("15:04:05"), msg.Role, msg.Content)
			}
			return nil
		},
	}
}

func sessionDeleteCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a session",
		ArgsUsage: "<session-id>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			id := model.SessionID(c.Args().First())
			if id == "" {
				return goerr.New("session ID is required")
			}

			conversations, err := cfg.newConversations(ctx)
			if err != nil {
				return err
			}

			if err := conversations.Delete(ctx, id); err != nil {
				return goerr.Wrap(err, "failed to delete session")
			}
			fmt.Fprintf(c.Root().Writer, "Session %s deleted\n", id)
			return nil
		},
	}
}

func sessionSweepCommand() *cli.Command {
	var (
		cfg  config
		days int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "days",
			Usage:       "Delete sessions not updated within this many days",
			Value:       30,
			Destination: &days,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "sweep",
		Usage: "Delete sessions older than the retention window",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			conversations, err := cfg.newConversations(ctx)
			if err != nil {
				return err
			}

			removed, err := conversations.SweepOlderThan(ctx, time.Duration(days)*24*time.Hour)
			if err != nil {
				return goerr.Wrap(err, "failed to sweep sessions")
			}
			fmt.Fprintf(c.Root().Writer, "Removed %d sessions\n", removed)
			return nil
		},
	}
}
