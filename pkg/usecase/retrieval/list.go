package retrieval

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mizuage/kioku/pkg/model"
)

// ListMemories returns all memories of a user, newest first. An empty list is
// a valid result.
func (u *UseCase) ListMemories(ctx context.Context, userID string) ([]*model.Memory, error) {
	if userID == "" {
		return nil, goerr.New("userID is required", goerr.T(model.TagInvalidInput))
	}
	return u.repo.ListMemories(ctx, userID)
}

// GetMemory returns a single memory by ID, scoped to its owner.
func (u *UseCase) GetMemory(ctx context.Context, userID string, id model.MemoryID) (*model.Memory, error) {
	if userID == "" {
		return nil, goerr.New("userID is required", goerr.T(model.TagInvalidInput))
	}
	if id == "" {
		return nil, goerr.New("memory ID is required", goerr.T(model.TagInvalidInput))
	}
	return u.repo.GetMemory(ctx, userID, id)
}

// AmendMetadata replaces a memory's metadata, e.g. when an external sync
// re-imports the same document. Content and embedding stay untouched.
func (u *UseCase) AmendMetadata(ctx context.Context, userID string, id model.MemoryID, metadata map[string]any) (*model.Memory, error) {
	if userID == "" {
		return nil, goerr.New("userID is required", goerr.T(model.TagInvalidInput))
	}
	if id == "" {
		return nil, goerr.New("memory ID is required", goerr.T(model.TagInvalidInput))
	}
	return u.repo.AmendMetadata(ctx, userID, id, metadata)
}
