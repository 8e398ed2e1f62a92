package repository

import (
	"context"
	"fmt"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mizuage/kioku/pkg/model"
)

// Local implements Repository on chromem-go, an embedded pure-Go vector
// database. Each user gets their own collection so similarity search is
// isolated by construction. Full records live in a side index because chromem
// documents only carry string metadata.
//
// Local holds everything in process memory; it is meant for development and
// tests, with Firestore as the durable backend.
type Local struct {
	db          *chromem.DB
	mu          sync.RWMutex
	collections map[string]*chromem.Collection
	memories    map[model.MemoryID]*model.Memory
}

// NewLocal creates an embedded in-process repository.
func NewLocal() *Local {
	return &Local{
		db:          chromem.NewDB(),
		collections: make(map[string]*chromem.Collection),
		memories:    make(map[model.MemoryID]*model.Memory),
	}
}

// collection returns the per-user collection, creating it on first use.
// Callers must hold the write lock.
func (r *Local) collection(userID string) (*chromem.Collection, error) {
	if col, ok := r.collections[userID]; ok {
		return col, nil
	}

	col, err := r.db.CreateCollection(fmt.Sprintf("user_%s", userID), nil, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create collection",
			goerr.T(model.TagStore), goerr.V("user_id", userID))
	}
	r.collections[userID] = col
	return col, nil
}

func (r *Local) PutMemory(ctx context.Context, memory *model.Memory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	col, err := r.collection(memory.UserID)
	if err != nil {
		return err
	}

	err = col.AddDocument(ctx, chromem.Document{
		ID:        string(memory.ID),
		Content:   memory.Content,
		Embedding: memory.Embedding,
		Metadata: map[string]string{
			"user_id": memory.UserID,
		},
	})
	if err != nil {
		return goerr.Wrap(err, "failed to add document",
			goerr.T(model.TagStore), goerr.V("memory_id", memory.ID))
	}

	stored := *memory
	r.memories[memory.ID] = &stored
	return nil
}

func (r *Local) GetMemory(ctx context.Context, userID string, id model.MemoryID) (*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	memory, ok := r.memories[id]
	if !ok || memory.UserID != userID {
		return nil, goerr.Wrap(model.ErrMemoryNotFound, "memory does not exist", goerr.V("memory_id", id))
	}

	found := *memory
	return &found, nil
}

func (r *Local) ListMemories(ctx context.Context, userID string) ([]*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var memories []*model.Memory
	for _, memory := range r.memories {
		if memory.UserID != userID {
			continue
		}
		found := *memory
		memories = append(memories, &found)
	}

	sortByCreatedAtDesc(memories)
	return memories, nil
}

func (r *Local) SearchSimilarMemories(ctx context.Context, userID string, embedding []float32, limit int) ([]*model.ScoredMemory, error) {
	if limit <= 0 {
		return nil, nil
	}

	r.mu.Lock()
	col, err := r.collection(userID)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	// chromem rejects nResults larger than the collection.
	n := limit
	if count := col.Count(); count < n {
		n = count
	}
	if n == 0 {
		return nil, nil
	}

	found, err := col.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query embedding",
			goerr.T(model.TagStore), goerr.V("user_id", userID))
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]*model.ScoredMemory, 0, len(found))
	for _, res := range found {
		memory, ok := r.memories[model.MemoryID(res.ID)]
		if !ok {
			continue
		}
		copied := *memory
		results = append(results, &model.ScoredMemory{
			Memory:     &copied,
			Similarity: float64(res.Similarity),
		})
	}

	rankScored(results)
	return results, nil
}

func (r *Local) AmendMetadata(ctx context.Context, userID string, id model.MemoryID, metadata map[string]any) (*model.Memory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	memory, ok := r.memories[id]
	if !ok || memory.UserID != userID {
		return nil, goerr.Wrap(model.ErrMemoryNotFound, "memory does not exist", goerr.V("memory_id", id))
	}

	memory.Metadata = metadata
	memory.UpdatedAt = touch()

	amended := *memory
	return &amended, nil
}

func (r *Local) Close() error {
	return nil
}
