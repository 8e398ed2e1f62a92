package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func listCommand() *cli.Command {
	var (
		cfg    config
		userID string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user",
			Aliases:     []string{"u"},
			Usage:       "Owning user ID",
			Sources:     cli.EnvVars("KIOKU_USER"),
			Destination: &userID,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List a user's memories, newest first",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			eng, err := cfg.newEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.close()

			memories, err := eng.retrieval.ListMemories(ctx, userID)
			if err != nil {
				return goerr.Wrap(err, "failed to list memories")
			}

			if len(memories) == 0 {
				fmt.Fprintf(c.Root().Writer, "No memories found\n")
				return nil
			}

			for i, memory := range memories {
				fmt.Fprintf(c.Root().Writer, "%d. %s\n", i+1, memory.ID)
				if memory.Title != "" {
					fmt.Fprintf(c.Root().Writer, "   Title: %s\n", memory.Title)
				}
				fmt.Fprintf(c.Root().Writer, "   %s\n", memory.Content)
				fmt.Fprintf(c.Root().Writer, "   Created: %s\n\n", memory.CreatedAt.Format("2006-01-02 15:04:05"))
			}

			return nil
		},
	}
}
