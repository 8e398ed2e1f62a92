package retrieval

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mizuage/kioku/pkg/model"
	"github.com/mizuage/kioku/pkg/utils/logging"
)

// CreateInput carries the optional descriptive fields of a new memory.
type CreateInput struct {
	Metadata   map[string]any
	Importance float64
	Source     string
	SourceURL  string
	Title      string
}

// CreateMemory embeds content and persists the memory in one step: either both
// content and embedding are stored, or nothing is. The returned record has the
// embedding stripped; callers never need raw vector data.
func (u *UseCase) CreateMemory(ctx context.Context, userID, content string, input *CreateInput) (*model.Memory, error) {
	if userID == "" {
		return nil, goerr.New("userID is required", goerr.T(model.TagInvalidInput))
	}
	if content == "" {
		return nil, goerr.New("content is required", goerr.T(model.TagInvalidInput))
	}
	if input == nil {
		input = &CreateInput{}
	}

	embedCtx, cancel := context.WithTimeout(ctx, u.embedTimeout)
	defer cancel()

	embedding, err := u.gemini.Embedding(embedCtx, content)
	if err != nil {
		return nil, err
	}

	metadata := input.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	now := time.Now()
	memory := &model.Memory{
		ID:         model.NewMemoryID(),
		UserID:     userID,
		Content:    content,
		Embedding:  embedding,
		Metadata:   metadata,
		Importance: input.Importance,
		Source:     input.Source,
		SourceURL:  input.SourceURL,
		Title:      input.Title,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := u.repo.PutMemory(ctx, memory); err != nil {
		return nil, err
	}

	logging.From(ctx).Info("memory created", "memory_id", memory.ID, "user_id", userID)
	return memory.WithoutEmbedding(), nil
}
