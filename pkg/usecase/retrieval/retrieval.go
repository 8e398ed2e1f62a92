// Package retrieval orchestrates memory retrieval: it turns query text into an
// embedding (cache first), runs a user-scoped similarity search against the
// repository, and keeps both caches populated on the way out.
//
// The orchestrator holds no per-request state. It performs no retries and no
// fallback ranking; provider and store failures propagate to the caller.
package retrieval

import (
	"time"

	"github.com/mizuage/kioku/pkg/adapter"
	"github.com/mizuage/kioku/pkg/cache"
	"github.com/mizuage/kioku/pkg/repository"
)

// DefaultCallTimeout bounds each remote call (embedding, similarity search)
// unless overridden.
const DefaultCallTimeout = 30 * time.Second

// UseCase provides memory creation and similarity-ranked retrieval.
// Both caches are owned by the composition root and injected here so they can
// be reset independently in tests.
type UseCase struct {
	repo       repository.Repository
	gemini     adapter.Gemini
	embedCache *cache.EmbeddingCache
	queryCache *cache.QueryCache

	embedTimeout  time.Duration
	searchTimeout time.Duration
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithEmbedTimeout bounds the embedding provider call.
func WithEmbedTimeout(d time.Duration) Option {
	return func(uc *UseCase) {
		uc.embedTimeout = d
	}
}

// WithSearchTimeout bounds the similarity search call.
func WithSearchTimeout(d time.Duration) Option {
	return func(uc *UseCase) {
		uc.searchTimeout = d
	}
}

// New creates a retrieval UseCase instance.
func New(
	repo repository.Repository,
	gemini adapter.Gemini,
	embedCache *cache.EmbeddingCache,
	queryCache *cache.QueryCache,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		repo:          repo,
		gemini:        gemini,
		embedCache:    embedCache,
		queryCache:    queryCache,
		embedTimeout:  DefaultCallTimeout,
		searchTimeout: DefaultCallTimeout,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// CacheStats reports entry counts and oldest-entry ages for operators.
func (u *UseCase) CacheStats() (embedding cache.Stats, query cache.Stats) {
	return u.embedCache.Stats(), u.queryCache.Stats()
}
