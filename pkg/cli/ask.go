package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pika/pkg/model"
	"github.com/m-mizutani/pika/pkg/usecase/assist"
	"github.com/urfave/cli/v3"
)

func askCommand() *cli.Command {
	var (
		cfg        config
		sessionID  string
		strategy   string
		collection string
		topK       int64
		noRetrieve bool
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
			Usage:       "Reasoning strategy (generation, self_ask, atomic_decomposition)",
			Destination: &strategy,
		},
		&cli.StringFlag{
			Name:        "collection",
			Aliases:     []string{"k"},
			Usage:       "Collection to search, or 'all'",
			Destination: &collection,
		},
		&cli.IntFlag{
			Name:        "top-k",
			Usage:       "Number of passages to retrieve",
			Value:       assist.DefaultTopK,
			Destination: &topK,
		},
		&cli.BoolFlag{
			Name:        "no-retrieve",
			Usage:       "Answer from conversation context only",
			Destination: &noRetrieve,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, ingestFlags(&cfg)...)

	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask a single question",
		ArgsUsage: "<question>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if question == "" {
				return goerr.New("question is required")
			}

			uc, err := cfg.newAssist(ctx)
			if err != nil {
				return err
			}

			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			sp.Suffix = " thinking..."
			sp.Start()
			answer, err := uc.Ask(ctx, &assist.AskInput{
				SessionID:     model.SessionID(sessionID),
				Question:      question,
				Strategy:      strategy,
				Collection:    collection,
				TopK:          int(topK),
				SkipRetrieval: noRetrieve,
			})
			sp.Stop()
			if err != nil {
				return goerr.Wrap(err, "failed to answer question")
			}

			printAnswer(c, answer)
			return nil
		},
	}
}

func printAnswer(c *cli.Command, answer *model.Answer) {
	w := c.Root().Writer
	fmt.Fprintf(w, "%s\n", answer.Answer)
	if len(answer.Sources) > 0 {
		fmt.Fprintf(w, "\nSources:\n")
		for _, src := range answer.Sources {
			name, _ := src.Entry.Metadata[model.MetaFilename].(string)
			fmt.Fprintf(w, "  %.3f\t%s\t%s\n", src.Score, src.Collection, name)
		}
	}
	fmt.Fprintf(w, "\nsession: %s\tstrategy: %s\n", answer.SessionID, answer.Strategy)
}
