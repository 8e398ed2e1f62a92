package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/mizuage/kioku/pkg/model"
	"github.com/mizuage/kioku/pkg/repository"
)

func newMemory(userID, content string, embedding []float32, createdAt time.Time) *model.Memory {
	return &model.Memory{
		ID:        model.NewMemoryID(),
		UserID:    userID,
		Content:   content,
		Embedding: embedding,
		Metadata:  map[string]any{},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestLocalPutGetMemory(t *testing.T) {
	repo := repository.NewLocal()
	ctx := context.Background()

	memory := newMemory("alice", "prefers tea over coffee", []float32{1, 0, 0}, time.Now())
	gt.NoError(t, repo.PutMemory(ctx, memory))

	got, err := repo.GetMemory(ctx, "alice", memory.ID)
	gt.NoError(t, err)
	gt.Equal(t, got.ID, memory.ID)
	gt.Equal(t, got.Content, memory.Content)
	gt.Equal(t, got.UserID, "alice")
}

func TestLocalGetMemoryNotFound(t *testing.T) {
	repo := repository.NewLocal()
	ctx := context.Background()

	_, err := repo.GetMemory(ctx, "alice", model.MemoryID("no-such-memory"))
	gt.Error(t, err)
	gt.True(t, model.IsNotFound(err))
}

func TestLocalGetMemoryWrongUser(t *testing.T) {
	repo := repository.NewLocal()
	ctx := context.Background()

	memory := newMemory("alice", "private note", []float32{1, 0, 0}, time.Now())
	gt.NoError(t, repo.PutMemory(ctx, memory))

	// Another user must not see the record even with a valid ID.
	_, err := repo.GetMemory(ctx, "mallory", memory.ID)
	gt.Error(t, err)
	gt.True(t, model.IsNotFound(err))
}

func TestLocalListMemories(t *testing.T) {
	repo := repository.NewLocal()
	ctx := context.Background()

	now := time.Now()
	oldest := newMemory("alice", "first", []float32{1, 0, 0}, now.Add(-2*time.Hour))
	middle := newMemory("alice", "second", []float32{0, 1, 0}, now.Add(-time.Hour))
	newest := newMemory("alice", "third", []float32{0, 0, 1}, now)
	other := newMemory("bob", "unrelated", []float32{1, 0, 0}, now)

	for _, m := range []*model.Memory{oldest, newest, middle, other} {
		gt.NoError(t, repo.PutMemory(ctx, m))
	}

	memories, err := repo.ListMemories(ctx, "alice")
	gt.NoError(t, err)
	gt.Equal(t, len(memories), 3)
	gt.Equal(t, memories[0].ID, newest.ID)
	gt.Equal(t, memories[1].ID, middle.ID)
	gt.Equal(t, memories[2].ID, oldest.ID)
}

func TestLocalListMemoriesEmpty(t *testing.T) {
	repo := repository.NewLocal()
	ctx := context.Background()

	memories, err := repo.ListMemories(ctx, "nobody")
	gt.NoError(t, err)
	gt.Equal(t, len(memories), 0)
}

func TestLocalSearchSimilarMemories(t *testing.T) {
	repo := repository.NewLocal()
	ctx := context.Background()

	now := time.Now()
	exact := newMemory("alice", "exact match", []float32{1, 0, 0}, now.Add(-time.Hour))
	near := newMemory("alice", "close match", []float32{0.8, 0.6, 0}, now.Add(-2*time.Hour))
	far := newMemory("alice", "unrelated", []float32{0, 1, 0}, now.Add(-3*time.Hour))

	for _, m := range []*model.Memory{far, exact, near} {
		gt.NoError(t, repo.PutMemory(ctx, m))
	}

	results, err := repo.SearchSimilarMemories(ctx, "alice", []float32{1, 0, 0}, 10)
	gt.NoError(t, err)
	gt.Equal(t, len(results), 3)
	gt.Equal(t, results[0].Memory.ID, exact.ID)
	gt.Equal(t, results[1].Memory.ID, near.ID)
	gt.Equal(t, results[2].Memory.ID, far.ID)
	gt.True(t, results[0].Similarity > results[1].Similarity)
	gt.True(t, results[1].Similarity > results[2].Similarity)
}

func TestLocalSearchSimilarMemoriesTieBreak(t *testing.T) {
	repo := repository.NewLocal()
	ctx := context.Background()

	now := time.Now()
	older := newMemory("alice", "older duplicate", []float32{1, 0, 0}, now.Add(-time.Hour))
	newer := newMemory("alice", "newer duplicate", []float32{1, 0, 0}, now)

	for _, m := range []*model.Memory{older, newer} {
		gt.NoError(t, repo.PutMemory(ctx, m))
	}

	// Identical embeddings score identically; the tie goes to the newer record.
	results, err := repo.SearchSimilarMemories(ctx, "alice", []float32{1, 0, 0}, 10)
	gt.NoError(t, err)
	gt.Equal(t, len(results), 2)
	gt.Equal(t, results[0].Similarity, results[1].Similarity)
	gt.Equal(t, results[0].Memory.ID, newer.ID)
	gt.Equal(t, results[1].Memory.ID, older.ID)
}

func TestLocalSearchSimilarMemoriesLimit(t *testing.T) {
	repo := repository.NewLocal()
	ctx := context.Background()

	now := time.Now()
	for _, embedding := range [][]float32{{1, 0, 0}, {0.8, 0.6, 0}, {0, 1, 0}} {
		gt.NoError(t, repo.PutMemory(ctx, newMemory("alice", "note", embedding, now)))
	}

	results, err := repo.SearchSimilarMemories(ctx, "alice", []float32{1, 0, 0}, 2)
	gt.NoError(t, err)
	gt.Equal(t, len(results), 2)
}

func TestLocalSearchSimilarMemoriesUserIsolation(t *testing.T) {
	repo := repository.NewLocal()
	ctx := context.Background()

	now := time.Now()
	gt.NoError(t, repo.PutMemory(ctx, newMemory("bob", "bob's note", []float32{1, 0, 0}, now)))

	// An identical vector in another user's store is invisible.
	results, err := repo.SearchSimilarMemories(ctx, "alice", []float32{1, 0, 0}, 10)
	gt.NoError(t, err)
	gt.Equal(t, len(results), 0)
}

func TestLocalAmendMetadata(t *testing.T) {
	repo := repository.NewLocal()
	ctx := context.Background()

	created := time.Now().Add(-time.Hour)
	memory := newMemory("alice", "content stays put", []float32{1, 0, 0}, created)
	memory.Metadata = map[string]any{"source": "import"}
	gt.NoError(t, repo.PutMemory(ctx, memory))

	amended, err := repo.AmendMetadata(ctx, "alice", memory.ID, map[string]any{"source": "sync", "rev": 2})
	gt.NoError(t, err)
	gt.Equal(t, amended.Metadata["source"], "sync")
	gt.Equal(t, amended.Content, "content stays put")
	gt.True(t, amended.UpdatedAt.After(created))

	got, err := repo.GetMemory(ctx, "alice", memory.ID)
	gt.NoError(t, err)
	gt.Equal(t, got.Metadata["rev"], 2)
}

func TestLocalAmendMetadataWrongUser(t *testing.T) {
	repo := repository.NewLocal()
	ctx := context.Background()

	memory := newMemory("alice", "private", []float32{1, 0, 0}, time.Now())
	gt.NoError(t, repo.PutMemory(ctx, memory))

	_, err := repo.AmendMetadata(ctx, "mallory", memory.ID, map[string]any{"x": 1})
	gt.Error(t, err)
	gt.True(t, model.IsNotFound(err))
}
