package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pika/pkg/model"
	"github.com/m-mizutani/pika/pkg/usecase/assist"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var (
		cfg        config
		sessionID  string
		strategy   string
		collection string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "session",
			Aliases:     []string{"s"},
			Usage:       "Session ID to continue (omit to start a new session)",
			Sources:     cli.EnvVars("PIKA_SESSION_ID"),
			Destination: &sessionID,
		},
		&cli.StringFlag{
			Name:        "strategy",
			Usage:       "Reasoning strategy for new sessions",
			Destination: &strategy,
		},
		&cli.StringFlag{
			Name:        "collection",
			Aliases:     []string{"k"},
			Usage:       "Collection to search, or 'all'",
			Destination: &collection,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, ingestFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive multi-turn conversation",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			uc, err := cfg.newAssist(ctx)
			if err != nil {
				return err
			}

			rl, err := readline.New("> ")
			if err != nil {
				return goerr.Wrap(err, "failed to initialize readline")
			}
			defer rl.Close()

			fmt.Fprintf(c.Root().Writer, "Chat session started. Type 'exit' to quit.\n")

			currentSession := model.SessionID(sessionID)
			for {
				line, err := rl.Readline()
				if err == readline.ErrInterrupt || err == io.EOF {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				question := strings.TrimSpace(line)
				if question == "" {
					continue
				}
				if question == "exit" {
					break
				}

				answer, err := uc.Ask(ctx, &assist.AskInput{
					SessionID:  currentSession,
					Question:   question,
					Strategy:   strategy,
					Collection: collection,
				})
				if err != nil {
					return goerr.Wrap(err, "failed to answer question")
				}

				// Later turns continue the session the first turn
				// created.
				currentSession = answer.SessionID

				fmt.Fprintf(c.Root().Writer, "%s\n\n", answer.Answer)
			}

			if currentSession != "" {
				fmt.Fprintf(c.Root().Writer, "\nChat session saved: %s\n", currentSession)
			}
			return nil
		},
	}
}
