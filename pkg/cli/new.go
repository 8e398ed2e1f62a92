package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mizuage/kioku/pkg/model"
	"github.com/mizuage/kioku/pkg/usecase/retrieval"
	"github.com/urfave/cli/v3"
)

func newCommand() *cli.Command {
	var (
		cfg        config
		userID     string
		content    string
		inputPath  string
		title      string
		source     string
		sourceURL  string
		importance float64
		metaPairs  []string
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
			Name:        "content",
			Usage:       "Memory text (reads stdin when neither --content nor --input is given)",
			Destination: &content,
		},
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Path to a file containing the memory text",
			Destination: &inputPath,
		},
		&cli.StringFlag{
			Name:        "title",
			Usage:       "Optional title",
			Destination: &title,
		},
		&cli.StringFlag{
			Name:        "source",
			Usage:       "Source system tag (e.g. slack, notion)",
			Destination: &source,
		},
		&cli.StringFlag{
			Name:        "source-url",
			Usage:       "URL of the source document",
			Destination: &sourceURL,
		},
		&cli.FloatFlag{
			Name:        "importance",
			Usage:       "Importance score",
			Destination: &importance,
		},
		&cli.StringSliceFlag{
			Name:        "meta",
			Aliases:     []string{"m"},
			Usage:       "Metadata entry in key=value form (repeatable)",
			Destination: &metaPairs,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "new",
		Usage: "Store a new memory",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			text, err := resolveContent(content, inputPath)
			if err != nil {
				return err
			}

			metadata, err := parseMetadata(metaPairs)
			if err != nil {
				return err
			}

			eng, err := cfg.newEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.close()

			memory, err := eng.retrieval.CreateMemory(ctx, userID, text, &retrieval.CreateInput{
				Metadata:   metadata,
				Importance: importance,
				Source:     source,
				SourceURL:  sourceURL,
				Title:      title,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to create memory")
			}

			fmt.Fprintf(c.Root().Writer, "Created memory %s\n", memory.ID)
			return nil
		},
	}
}

// resolveContent picks the memory text from flag, file, or stdin.
func resolveContent(content, inputPath string) (string, error) {
	if content != "" {
		return content, nil
	}
	if inputPath != "" {
		raw, err := os.ReadFile(inputPath)
		if err != nil {
			return "", goerr.Wrap(err, "failed to read input file", goerr.V("path", inputPath))
		}
		return strings.TrimSpace(string(raw)), nil
	}

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read stdin")
	}
	return strings.TrimSpace(string(raw)), nil
}

// parseMetadata converts repeated key=value flags to a metadata map.
func parseMetadata(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	metadata := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, goerr.New("metadata must be key=value",
				goerr.T(model.TagInvalidInput), goerr.V("pair", pair))
		}
		metadata[key] = value
	}
	return metadata, nil
}
