package adapter_test

import (
	"context"
	"os"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/mizuage/kioku/pkg/adapter"
	"github.com/mizuage/kioku/pkg/model"
)

func setupGemini(t *testing.T) *adapter.GeminiClient {
	projectID := os.Getenv("TEST_GEMINI_PROJECT")
	if projectID == "" {
		t.Skip("TEST_GEMINI_PROJECT is not set")
	}

	ctx := context.Background()
	client, err := adapter.NewGemini(ctx, projectID, "us-central1")
	gt.NoError(t, err)
	return client
}

func TestEmbedding(t *testing.T) {
	client := setupGemini(t)
	ctx := context.Background()

	embedding, err := client.Embedding(ctx, "The quick brown fox jumps over the lazy dog")
	gt.NoError(t, err)
	gt.Equal(t, len(embedding), adapter.DefaultEmbeddingDimensions)
}

func TestEmbeddingDimensions(t *testing.T) {
	projectID := os.Getenv("TEST_GEMINI_PROJECT")
	if projectID == "" {
		t.Skip("TEST_GEMINI_PROJECT is not set")
	}

	ctx := context.Background()
	client, err := adapter.NewGemini(ctx, projectID, "us-central1",
		adapter.WithEmbeddingDimensions(256))
	gt.NoError(t, err)

	embedding, err := client.Embedding(ctx, "dimension override")
	gt.NoError(t, err)
	gt.Equal(t, len(embedding), 256)
}

func TestEmbeddingEmptyText(t *testing.T) {
	client := setupGemini(t)
	ctx := context.Background()

	// Validation fails before any network call.
	_, err := client.Embedding(ctx, "")
	gt.Error(t, err)
	gt.True(t, model.IsInvalidInput(err))
}

func TestGenerate(t *testing.T) {
	client := setupGemini(t)
	ctx := context.Background()

	answer, err := client.Generate(ctx, "Reply with exactly the word: pong", nil)
	gt.NoError(t, err)
	gt.S(t, answer).Contains("pong")
}

func TestGenerateEmptyPrompt(t *testing.T) {
	client := setupGemini(t)
	ctx := context.Background()

	_, err := client.Generate(ctx, "", nil)
	gt.Error(t, err)
	gt.True(t, model.IsInvalidInput(err))
}
