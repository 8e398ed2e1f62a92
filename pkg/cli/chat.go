package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mizuage/kioku/pkg/usecase/chat"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var (
		cfg         config
		userID      string
		modelName   string
		maxTokens   int64
		temperature float64
		noMemory    bool
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
			Name:        "model",
			Aliases:     []string{"m"},
			Usage:       "Model ID or alias (e.g. gemini-pro)",
			Sources:     cli.EnvVars("KIOKU_CHAT_MODEL"),
			Destination: &modelName,
		},
		&cli.IntFlag{
			Name:        "max-tokens",
			Usage:       "Maximum response tokens",
			Destination: &maxTokens,
		},
		&cli.FloatFlag{
			Name:        "temperature",
			Usage:       "Sampling temperature",
			Value:       -1,
			Destination: &temperature,
		},
		&cli.BoolFlag{
			Name:        "no-memory",
			Usage:       "Answer without memory context",
			Destination: &noMemory,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive chat grounded in stored memories",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			eng, err := cfg.newEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.close()

			rl, err := readline.New("> ")
			if err != nil {
				return goerr.Wrap(err, "failed to initialize readline")
			}
			defer rl.Close()

			fmt.Fprintf(c.Root().Writer, "Chat session started. Type 'exit' to quit, 'stats' for cache stats.\n")

			var temp *float32
			if temperature >= 0 {
				t := float32(temperature)
				temp = &t
			}

			for {
				line, err := rl.Readline()
				if err != nil {
					if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
						break
					}
					return goerr.Wrap(err, "failed to read input")
				}

				message := strings.TrimSpace(line)
				switch message {
				case "":
					continue
				case "exit":
					fmt.Fprintf(c.Root().Writer, "\nChat session completed\n")
					return nil
				case "stats":
					printCacheStats(c, eng)
					continue
				}

				sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				sp.Suffix = " thinking..."
				sp.Start()

				result, err := eng.chat.Chat(ctx, &chat.Input{
					UserID:           userID,
					Query:            message,
					Model:            modelName,
					MaxTokens:        int32(maxTokens),
					Temperature:      temp,
					UseMemoryContext: !noMemory,
				})
				sp.Stop()
				if err != nil {
					return goerr.Wrap(err, "chat turn failed")
				}

				fmt.Fprintf(c.Root().Writer, "%s\n", result.Answer)
				fmt.Fprintf(c.Root().Writer, "  (memories: %d, context: %d chars, model: %s, %.2fs)\n",
					result.Metadata.MemoriesUsed,
					result.Metadata.ContextSize,
					result.Metadata.Model,
					result.Metadata.Elapsed.Seconds())
			}

			fmt.Fprintf(c.Root().Writer, "\nChat session completed\n")
			return nil
		},
	}
}

func printCacheStats(c *cli.Command, eng *engine) {
	embedding, query := eng.retrieval.CacheStats()
	fmt.Fprintf(c.Root().Writer, "Embedding cache: %d entries, oldest %s\n",
		embedding.Entries, embedding.OldestAge.Round(time.Second))
	fmt.Fprintf(c.Root().Writer, "Query cache:     %d entries, oldest %s\n",
		query.Entries, query.OldestAge.Round(time.Second))
}
