package cache

import (
	"log/slog"
	"strings"
	"time"
)

// Reference policy: embeddings are stable for a day, results go stale in
// minutes because new memories may appear.
const (
	DefaultEmbeddingTTL = 24 * time.Hour
	DefaultQueryTTL     = 5 * time.Minute
	DefaultMaxEntries   = 1000
)

// EmbeddingCache maps normalized text to a previously computed embedding
// vector. Invalid input is a no-op with a warning, never an error.
type EmbeddingCache struct {
	cache  *Cache[[]float32]
	logger *slog.Logger
}

// NewEmbedding creates an embedding cache with the given policy.
func NewEmbedding(policy Policy, logger *slog.Logger, opts ...Option[[]float32]) *EmbeddingCache {
	return &EmbeddingCache{
		cache:  New(policy, opts...),
		logger: logger,
	}
}

// normalizeText folds a text to its cache key form.
func normalizeText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Get returns the cached embedding for text, or false on a miss.
func (c *EmbeddingCache) Get(text string) ([]float32, bool) {
	key := normalizeText(text)
	if key == "" {
		c.logger.Warn("embedding cache lookup with empty text")
		return nil, false
	}
	return c.cache.Get(key)
}

// Set stores the embedding for text.
func (c *EmbeddingCache) Set(text string, embedding []float32) {
	key := normalizeText(text)
	if key == "" || len(embedding) == 0 {
		c.logger.Warn("embedding cache store with invalid input",
			"text_len", len(text), "embedding_len", len(embedding))
		return
	}
	c.cache.Set(key, embedding)
}

// Sweep removes expired entries.
func (c *EmbeddingCache) Sweep() int { return c.cache.Sweep() }

// Stats reports entry count and oldest-entry age.
func (c *EmbeddingCache) Stats() Stats { return c.cache.Stats() }
