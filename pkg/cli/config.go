package cli

import (
	"context"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mizuage/kioku/pkg/adapter"
	"github.com/mizuage/kioku/pkg/cache"
	"github.com/mizuage/kioku/pkg/model"
	"github.com/mizuage/kioku/pkg/repository"
	"github.com/mizuage/kioku/pkg/usecase/chat"
	"github.com/mizuage/kioku/pkg/usecase/retrieval"
	"github.com/mizuage/kioku/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// config holds configuration values
type config struct {
	logLevel string

	// Repository
	store    string
	project  string
	database string

	// Gemini
	geminiProject   string
	geminiLocation  string
	geminiAPIKey    string
	generativeModel string
	embeddingDims   int64

	// Cache policy
	policyFile string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("KIOKU_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "store",
			Usage:       "Memory store backend: firestore or local",
			Value:       "firestore",
			Sources:     cli.EnvVars("KIOKU_STORE"),
			Destination: &cfg.store,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to YAML cache policy file",
			Sources:     cli.EnvVars("KIOKU_CONFIG"),
			Destination: &cfg.policyFile,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini (Vertex AI)",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key (used instead of Vertex AI when set)",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "generative-model",
			Usage:       "Generative model ID",
			Value:       "gemini-2.5-flash",
			Sources:     cli.EnvVars("KIOKU_GENERATIVE_MODEL"),
			Destination: &cfg.generativeModel,
		},
		&cli.IntFlag{
			Name:        "embedding-dimensions",
			Usage:       "Embedding vector dimensionality",
			Value:       adapter.DefaultEmbeddingDimensions,
			Sources:     cli.EnvVars("KIOKU_EMBEDDING_DIMENSIONS"),
			Destination: &cfg.embeddingDims,
		},
	}
}

// policyFile is the YAML shape of the cache policy file. Durations use Go
// syntax ("24h", "5m").
type policyFile struct {
	Cache struct {
		EmbeddingTTL  string `yaml:"embedding_ttl"`
		QueryTTL      string `yaml:"query_ttl"`
		MaxEntries    int    `yaml:"max_entries"`
		SweepInterval string `yaml:"sweep_interval"`
	} `yaml:"cache"`
	Chat struct {
		ModelAliases map[string]string `yaml:"model_aliases"`
	} `yaml:"chat"`
}

// cachePolicy is the resolved cache configuration.
type cachePolicy struct {
	embedding     cache.Policy
	query         cache.Policy
	sweepInterval time.Duration
	modelAliases  map[string]string
}

func defaultCachePolicy() cachePolicy {
	return cachePolicy{
		embedding: cache.Policy{
			TTL:        cache.DefaultEmbeddingTTL,
			MaxEntries: cache.DefaultMaxEntries,
		},
		query: cache.Policy{
			TTL:        cache.DefaultQueryTTL,
			MaxEntries: cache.DefaultMaxEntries,
		},
		sweepInterval: cache.DefaultSweepInterval,
	}
}

// loadCachePolicy reads the optional policy file, falling back to defaults.
func (cfg *config) loadCachePolicy() (cachePolicy, error) {
	policy := defaultCachePolicy()
	if cfg.policyFile == "" {
		return policy, nil
	}

	raw, err := os.ReadFile(cfg.policyFile)
	if err != nil {
		return policy, goerr.Wrap(err, "failed to read policy file", goerr.V("path", cfg.policyFile))
	}

	var file policyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return policy, goerr.Wrap(err, "failed to parse policy file", goerr.V("path", cfg.policyFile))
	}

	if file.Cache.EmbeddingTTL != "" {
		if policy.embedding.TTL, err = time.ParseDuration(file.Cache.EmbeddingTTL); err != nil {
			return policy, goerr.Wrap(err, "invalid embedding_ttl", goerr.T(model.TagInvalidInput))
		}
	}
	if file.Cache.QueryTTL != "" {
		if policy.query.TTL, err = time.ParseDuration(file.Cache.QueryTTL); err != nil {
			return policy, goerr.Wrap(err, "invalid query_ttl", goerr.T(model.TagInvalidInput))
		}
	}
	if file.Cache.MaxEntries > 0 {
		policy.embedding.MaxEntries = file.Cache.MaxEntries
		policy.query.MaxEntries = file.Cache.MaxEntries
	}
	if file.Cache.SweepInterval != "" {
		if policy.sweepInterval, err = time.ParseDuration(file.Cache.SweepInterval); err != nil {
			return policy, goerr.Wrap(err, "invalid sweep_interval", goerr.T(model.TagInvalidInput))
		}
	}
	policy.modelAliases = file.Chat.ModelAliases

	return policy, nil
}

// newRepository creates the configured store backend.
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	switch cfg.store {
	case "local":
		return repository.NewLocal(), nil
	case "firestore":
		if cfg.project == "" {
			return nil, goerr.New("project is required for the firestore store", goerr.T(model.TagInvalidInput))
		}
		if cfg.database == "" {
			return nil, goerr.New("database is required for the firestore store", goerr.T(model.TagInvalidInput))
		}
		repo, err := repository.NewFirestore(ctx, cfg.project, cfg.database)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create repository")
		}
		return repo, nil
	default:
		return nil, goerr.New("unknown store backend", goerr.T(model.TagInvalidInput), goerr.V("store", cfg.store))
	}
}

// newGemini creates a Gemini adapter, preferring the API key when provided.
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	opts := []adapter.GeminiOption{
		adapter.WithGenerativeModel(cfg.generativeModel),
		adapter.WithEmbeddingDimensions(int32(cfg.embeddingDims)),
	}

	if cfg.geminiAPIKey != "" {
		return adapter.NewGeminiWithAPIKey(ctx, cfg.geminiAPIKey, opts...)
	}

	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project or gemini-api-key is required", goerr.T(model.TagInvalidInput))
	}
	return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, opts...)
}

// engine bundles the wired retrieval core for a command invocation.
type engine struct {
	retrieval *retrieval.UseCase
	chat      *chat.UseCase
	sweeper   *cache.Sweeper
	repo      repository.Repository
}

// newEngine is the composition root: it owns both caches and passes them into
// the orchestrator by reference.
func (cfg *config) newEngine(ctx context.Context) (*engine, error) {
	logger := logging.New(cfg.logLevel, os.Stderr)
	logging.SetDefault(logger)

	policy, err := cfg.loadCachePolicy()
	if err != nil {
		return nil, err
	}

	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, err
	}

	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	embedCache := cache.NewEmbedding(policy.embedding, logger)
	queryCache := cache.NewQuery(policy.query, logger)

	sweeper, err := cache.NewSweeper(policy.sweepInterval, logger, embedCache, queryCache)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create cache sweeper")
	}
	sweeper.Start()

	retrievalUC := retrieval.New(repo, gemini, embedCache, queryCache)

	chatOpts := []chat.Option{chat.WithDefaultModel(cfg.generativeModel)}
	if len(policy.modelAliases) > 0 {
		chatOpts = append(chatOpts, chat.WithModelAliases(policy.modelAliases))
	}
	chatUC := chat.New(retrievalUC, gemini, chatOpts...)

	return &engine{
		retrieval: retrievalUC,
		chat:      chatUC,
		sweeper:   sweeper,
		repo:      repo,
	}, nil
}

// close shuts down the sweeper and the store backend.
func (e *engine) close() {
	e.sweeper.Stop()
	if err := e.repo.Close(); err != nil {
		logging.Default().Warn("failed to close repository", "error", err)
	}
}
