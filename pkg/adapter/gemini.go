package adapter

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mizuage/kioku/pkg/model"
	"google.golang.org/genai"
)

// DefaultEmbeddingDimensions matches the embedding model's contract; every
// memory in a store must share this dimensionality.
const DefaultEmbeddingDimensions = 768

const (
	DefaultGenerativeModel = "gemini-2.5-flash"
	DefaultEmbeddingModel  = "gemini-embedding-001"
)

// GenerateConfig carries per-call generation parameters. Model may be empty to
// use the client default.
type GenerateConfig struct {
	Model       string
	MaxTokens   int32
	Temperature *float32
}

// Gemini is the boundary to the embedding and LLM provider. Both calls are
// possibly-slow remote operations; callers bound them with a context timeout.
type Gemini interface {
	// Embedding converts text to a fixed-length vector. It fails without a
	// network call when text is empty.
	Embedding(ctx context.Context, text string) ([]float32, error)

	// Generate sends a prompt to the generative model and returns its text.
	Generate(ctx context.Context, prompt string, config *GenerateConfig) (string, error)
}

type GeminiClient struct {
	client          *genai.Client
	generativeModel string
	embeddingModel  string
	dimensions      int32
}

type GeminiOption func(*GeminiClient)

func WithGenerativeModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.generativeModel = model
	}
}

func WithEmbeddingModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.embeddingModel = model
	}
}

func WithEmbeddingDimensions(dims int32) GeminiOption {
	return func(g *GeminiClient) {
		g.dimensions = dims
	}
}

// NewGemini creates a Gemini client against Vertex AI.
func NewGemini(ctx context.Context, projectID, location string, opts ...GeminiOption) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client", goerr.T(model.TagProvider))
	}
	return newGemini(client, opts...), nil
}

// NewGeminiWithAPIKey creates a Gemini client against the Gemini API.
func NewGeminiWithAPIKey(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client", goerr.T(model.TagProvider))
	}
	return newGemini(client, opts...), nil
}

func newGemini(client *genai.Client, opts ...GeminiOption) *GeminiClient {
	g := &GeminiClient{
		client:          client,
		generativeModel: DefaultGenerativeModel,
		embeddingModel:  DefaultEmbeddingModel,
		dimensions:      DefaultEmbeddingDimensions,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GeminiClient) Embedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, goerr.New("cannot embed empty text", goerr.T(model.TagInvalidInput))
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: genai.Ptr(g.dimensions),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed content", goerr.T(model.TagProvider))
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, goerr.New("embedding response has no values", goerr.T(model.TagProvider))
	}

	return resp.Embeddings[0].Values, nil
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string, config *GenerateConfig) (string, error) {
	if prompt == "" {
		return "", goerr.New("cannot generate from empty prompt", goerr.T(model.TagInvalidInput))
	}

	modelID := g.generativeModel
	genConfig := &genai.GenerateContentConfig{}
	if config != nil {
		if config.Model != "" {
			modelID = config.Model
		}
		genConfig.MaxOutputTokens = config.MaxTokens
		genConfig.Temperature = config.Temperature
	}

	resp, err := g.client.Models.GenerateContent(ctx, modelID, genai.Text(prompt), genConfig)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content",
			goerr.T(model.TagProvider), goerr.V("model", modelID))
	}

	return resp.Text(), nil
}
