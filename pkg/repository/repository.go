package repository

import (
	"context"
	"sort"
	"time"

	"github.com/mizuage/kioku/pkg/model"
)

// Repository is the durable memory store. It is the sole source of truth; the
// caches in front of it hold no authoritative data.
//
// Similarity search is delegated to the backend's native vector ranking; the
// engine does not implement nearest-neighbor indexing itself.
type Repository interface {
	// PutMemory persists a memory with its embedding. Content and embedding
	// are written together; a memory is never visible without its vector.
	PutMemory(ctx context.Context, memory *model.Memory) error

	// GetMemory retrieves a memory by ID, scoped to its owner.
	// Returns model.ErrMemoryNotFound on a miss.
	GetMemory(ctx context.Context, userID string, id model.MemoryID) (*model.Memory, error)

	// ListMemories returns all memories of a user ordered by CreatedAt
	// descending. An empty result is a valid response, not an error.
	ListMemories(ctx context.Context, userID string) ([]*model.Memory, error)

	// SearchSimilarMemories returns up to limit memories of the given user
	// ranked by descending similarity (1 - cosine distance) to the query
	// embedding. Ties are broken by insertion recency, newest first. Other
	// users' memories are never returned regardless of raw similarity.
	SearchSimilarMemories(ctx context.Context, userID string, embedding []float32, limit int) ([]*model.ScoredMemory, error)

	// AmendMetadata replaces a memory's metadata and moves UpdatedAt. This is
	// the only mutation after creation; content and embedding are immutable.
	AmendMetadata(ctx context.Context, userID string, id model.MemoryID, metadata map[string]any) (*model.Memory, error)

	// Close releases backend resources.
	Close() error
}

// rankScored orders search results by descending similarity, breaking ties by
// insertion recency so result order is deterministic.
func rankScored(results []*model.ScoredMemory) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Memory.CreatedAt.After(results[j].Memory.CreatedAt)
	})
}

// sortByCreatedAtDesc orders memories newest first for list views.
func sortByCreatedAtDesc(memories []*model.Memory) {
	sort.SliceStable(memories, func(i, j int) bool {
		return memories[i].CreatedAt.After(memories[j].CreatedAt)
	})
}

// touch returns now; split out so both backends stamp UpdatedAt consistently.
func touch() time.Time {
	return time.Now()
}
