package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mizuage/kioku/pkg/model"
	"github.com/urfave/cli/v3"
)

func showCommand() *cli.Command {
	var (
		cfg      config
		userID   string
		memoryID string
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
			Name:        "id",
			Usage:       "Memory ID",
			Destination: &memoryID,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "show",
		Usage: "Show a single memory by ID",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			eng, err := cfg.newEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.close()

			memory, err := eng.retrieval.GetMemory(ctx, userID, model.MemoryID(memoryID))
			if err != nil {
				return goerr.Wrap(err, "failed to get memory")
			}

			fmt.Fprintf(c.Root().Writer, "ID: %s\n", memory.ID)
			if memory.Title != "" {
				fmt.Fprintf(c.Root().Writer, "Title: %s\n", memory.Title)
			}
			if memory.Source != "" {
				fmt.Fprintf(c.Root().Writer, "Source: %s\n", memory.Source)
			}
			if memory.SourceURL != "" {
				fmt.Fprintf(c.Root().Writer, "Source URL: %s\n", memory.SourceURL)
			}
			fmt.Fprintf(c.Root().Writer, "Content: %s\n", memory.Content)
			if len(memory.Metadata) > 0 {
				raw, err := json.MarshalIndent(memory.Metadata, "", "  ")
				if err != nil {
					return goerr.Wrap(err, "failed to marshal metadata")
				}
				fmt.Fprintf(c.Root().Writer, "Metadata: %s\n", raw)
			}
			fmt.Fprintf(c.Root().Writer, "Created: %s\n", memory.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(c.Root().Writer, "Updated: %s\n", memory.UpdatedAt.Format("2006-01-02 15:04:05"))

			return nil
		},
	}
}
