package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func searchCommand() *cli.Command {
	var (
		cfg    config
		userID string
		query  string
		limit  int64
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
		&cli.StringFlag{
			Name:        "query",
			Aliases:     []string{"q"},
			Usage:       "Natural language query",
			Destination: &query,
			Required:    true,
		},
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"l"},
			Usage:       "Maximum number of memories to return",
			Value:       5,
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "search",
		Usage: "Retrieve the most relevant memories for a query",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			eng, err := cfg.newEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.close()

			results, err := eng.retrieval.Retrieve(ctx, userID, query, int(limit))
			if err != nil {
				return goerr.Wrap(err, "failed to retrieve memories")
			}

			if len(results) == 0 {
				fmt.Fprintf(c.Root().Writer, "No relevant memories found\n")
				return nil
			}

			fmt.Fprintf(c.Root().Writer, "Found %d memories:\n\n", len(results))
			for i, result := range results {
				fmt.Fprintf(c.Root().Writer, "%d. [%.4f] %s\n", i+1, result.Similarity, result.Memory.ID)
				fmt.Fprintf(c.Root().Writer, "   %s\n\n", result.Memory.Content)
			}

			return nil
		},
	}
}
