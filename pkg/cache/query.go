package cache

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"

	"github.com/mizuage/kioku/pkg/model"
)

// QueryCache maps (userID, query embedding) to a previously computed ranked
// result set. The key is derived from the full embedding vector rather than
// the query text, so differently phrased queries that embed identically share
// an entry while distinct queries never collide.
type QueryCache struct {
	cache  *Cache[[]*model.ScoredMemory]
	logger *slog.Logger
}

// NewQuery creates a query result cache with the given policy.
func NewQuery(policy Policy, logger *slog.Logger, opts ...Option[[]*model.ScoredMemory]) *QueryCache {
	return &QueryCache{
		cache:  New(policy, opts...),
		logger: logger,
	}
}

// queryKey fingerprints the full embedding with FNV-1a and scopes it by user.
func queryKey(userID string, embedding []float32) string {
	h := fnv.New64a()
	var buf [4]byte
	for _, v := range embedding {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		h.Write(buf[:])
	}
	return fmt.Sprintf("%s:%016x", userID, h.Sum64())
}

// Get returns the cached ranked list for the query embedding, or false on a
// miss. The returned list may be longer than any particular caller's limit.
func (c *QueryCache) Get(userID string, embedding []float32) ([]*model.ScoredMemory, bool) {
	if userID == "" || len(embedding) == 0 {
		c.logger.Warn("query cache lookup with invalid key input",
			"user_id", userID, "embedding_len", len(embedding))
		return nil, false
	}
	return c.cache.Get(queryKey(userID, embedding))
}

// Set stores the ranked list for the query embedding.
func (c *QueryCache) Set(userID string, embedding []float32, results []*model.ScoredMemory) {
	if userID == "" || len(embedding) == 0 {
		c.logger.Warn("query cache store with invalid key input",
			"user_id", userID, "embedding_len", len(embedding))
		return
	}
	c.cache.Set(queryKey(userID, embedding), results)
}

// Sweep removes expired entries.
func (c *QueryCache) Sweep() int { return c.cache.Sweep() }

// Stats reports entry count and oldest-entry age.
func (c *QueryCache) Stats() Stats { return c.cache.Stats() }
