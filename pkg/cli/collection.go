package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func collectionCommand() *cli.Command {
	return &cli.Command{
		Name:  "collection",
		Usage: "Manage vector index collections",
		Commands: []*cli.Command{
			collectionListCommand(),
			collectionDeleteCommand(),
		},
	}
}

func collectionListCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "list",
		Usage: "List collections and entry counts",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			index, err := cfg.newIndex(ctx)
			if err != nil {
				return err
			}

			infos, err := index.ListCollections(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to list collections")
			}

			if len(infos) == 0 {
				fmt.Fprintf(c.Root().Writer, "No collections found\n")
				return nil
			}
			for _, info := range infos {
				fmt.Fprintf(c.Root().Writer, "%s\t%d entries\n", info.Name, info.Count)
			}
			return nil
		},
	}
}

func collectionDeleteCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a collection and all of its entries",
		ArgsUsage: "<collection>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			name := c.Args().First()
			if name == "" {
				return goerr.New("collection name is required")
			}

			index, err := cfg.newIndex(ctx)
			if err != nil {
				return err
			}

			if err := index.DeleteCollection(ctx, name); err != nil {
				return goerr.Wrap(err, "failed to delete collection")
			}
			fmt.Fprintf(c.Root().Writer, "Collection %s deleted\n", name)
			return nil
		},
	}
}
