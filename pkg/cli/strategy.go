package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/pika/pkg/usecase/reason"
	"github.com/urfave/cli/v3"
)

func strategyCommand() *cli.Command {
	return &cli.Command{
		Name:  "strategy",
		Usage: "Manage reasoning strategies",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List available reasoning strategies",
				Action: func(ctx context.Context, c *cli.Command) error {
					for _, info := range reason.NewDispatcher().List() {
						fmt.Fprintf(c.Root().Writer, "%s\t%s\n", info.Name, info.Description)
					}
					return nil
				},
			},
		},
	}
}
