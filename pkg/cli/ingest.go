package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pika/pkg/model"
	"github.com/m-mizutani/pika/pkg/service/extract"
	"github.com/m-mizutani/pika/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func ingestCommand() *cli.Command {
	var (
		cfg        config
		collection string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "collection",
			Aliases:     []string{"k"},
			Usage:       "Target collection (knowledge base)",
			Value:       "documents",
			Sources:     cli.EnvVars("PIKA_COLLECTION"),
			Destination: &collection,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, ingestFlags(&cfg)...)

	return &cli.Command{
		Name:      "ingest",
		Usage:     "Ingest documents into a knowledge base collection",
		ArgsUsage: "<file> [<file>...]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}
			cfg.warnEphemeralIndex(ctx)

			paths := c.Args().Slice()
			if len(paths) == 0 {
				return goerr.New("at least one file is required")
			}

			for _, path := range paths {
				if model.FormatFromPath(path) == model.FormatPDF {
					if err := extract.CheckPDFAvailable(); err != nil {
						return err
					}
					break
				}
			}

			retriever, err := cfg.newRetriever(ctx)
			if err != nil {
				return err
			}

			// One bad document does not abort the batch.
			failures := 0
			for _, path := range paths {
				doc := model.NewDocument(path)
				report, err := retriever.Ingest(ctx, doc, collection)
				if err != nil {
					failures++
					logging.From(ctx).Warn("failed to ingest document",
						"path", path, "error", err)
					continue
				}
				fmt.Fprintf(c.Root().Writer, "%s\t%d chunks\t%d degraded\t%s\n",
					doc.Name, report.Indexed, report.Degraded, collection)
			}

			if failures == len(paths) && failures > 0 {
				return goerr.New("all documents failed to ingest")
			}
			return nil
		},
	}
}
