// Package chat assembles an LLM prompt from a user query and the most relevant
// memories, delegates it to the generative model, and reports retrieval
// metadata alongside the answer.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mizuage/kioku/pkg/adapter"
	"github.com/mizuage/kioku/pkg/model"
	"github.com/mizuage/kioku/pkg/utils/logging"
)

const (
	// retrieveLimit is how many memories are fetched per turn, independent of
	// any display limit used elsewhere.
	retrieveLimit = 5

	// contextLimit is how many of the retrieved memories make it into the
	// prompt's context block.
	contextLimit = 3
)

// Retriever is the slice of the retrieval orchestrator the assembler needs.
type Retriever interface {
	Retrieve(ctx context.Context, userID, query string, limit int) ([]*model.ScoredMemory, error)
}

// Input is a single chat turn request.
type Input struct {
	UserID string
	Query  string

	// Model may be an alias (e.g. "gemini-pro") resolved via the alias table,
	// or a concrete model ID, or empty for the client default.
	Model       string
	MaxTokens   int32
	Temperature *float32

	// UseMemoryContext toggles retrieval. When disabled, the retriever is
	// never called and the prompt has no context section.
	UseMemoryContext bool
}

// Metadata records how a chat turn was answered.
type Metadata struct {
	MemoriesUsed     int
	ContextSize      int
	Model            string
	Elapsed          time.Duration
	UseMemoryContext bool
}

// Result is the answer plus retrieval metadata for one turn.
type Result struct {
	Answer   string
	Metadata Metadata
}

// UseCase builds prompts from retrieved memories and calls the LLM.
type UseCase struct {
	retriever    Retriever
	gemini       adapter.Gemini
	aliases      map[string]string
	defaultModel string
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithModelAliases replaces the model alias table.
func WithModelAliases(aliases map[string]string) Option {
	return func(uc *UseCase) {
		uc.aliases = aliases
	}
}

// WithDefaultModel sets the model used when a turn names none, so metadata
// always reports the concrete model that answered.
func WithDefaultModel(model string) Option {
	return func(uc *UseCase) {
		uc.defaultModel = model
	}
}

// DefaultModelAliases maps friendly model names to concrete model IDs.
func DefaultModelAliases() map[string]string {
	return map[string]string{
		"gemini-pro":   "gemini-2.5-pro",
		"gemini-flash": "gemini-2.5-flash",
		"gemini-nano":  "gemini-2.5-flash-lite",
	}
}

// New creates a chat UseCase instance.
func New(retriever Retriever, gemini adapter.Gemini, opts ...Option) *UseCase {
	uc := &UseCase{
		retriever:    retriever,
		gemini:       gemini,
		aliases:      DefaultModelAliases(),
		defaultModel: adapter.DefaultGenerativeModel,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Chat answers one turn. With memory context enabled, a retrieval failure
// fails the turn; the assembler never silently answers without context.
func (u *UseCase) Chat(ctx context.Context, input *Input) (*Result, error) {
	if input.UserID == "" {
		return nil, goerr.New("userID is required", goerr.T(model.TagInvalidInput))
	}
	if input.Query == "" {
		return nil, goerr.New("query is required", goerr.T(model.TagInvalidInput))
	}

	start := time.Now()

	var contextBlock string
	var memoriesUsed int
	if input.UseMemoryContext {
		memories, err := u.retriever.Retrieve(ctx, input.UserID, input.Query, retrieveLimit)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to retrieve memory context")
		}
		memoriesUsed = len(memories)

		top := memories
		if len(top) > contextLimit {
			top = top[:contextLimit]
		}
		contents := make([]string, 0, len(top))
		for _, m := range top {
			contents = append(contents, m.Memory.Content)
		}
		contextBlock = strings.Join(contents, "\n")
	}

	prompt := buildPrompt(contextBlock, input.Query)
	resolvedModel := u.resolveModel(input.Model)

	answer, err := u.gemini.Generate(ctx, prompt, &adapter.GenerateConfig{
		Model:       resolvedModel,
		MaxTokens:   input.MaxTokens,
		Temperature: input.Temperature,
	})
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	logging.From(ctx).Info("chat turn completed",
		"user_id", input.UserID,
		"memories_used", memoriesUsed,
		"context_size", len(contextBlock),
		"model", resolvedModel,
		"elapsed", elapsed)

	return &Result{
		Answer: answer,
		Metadata: Metadata{
			MemoriesUsed:     memoriesUsed,
			ContextSize:      len(contextBlock),
			Model:            resolvedModel,
			Elapsed:          elapsed,
			UseMemoryContext: input.UseMemoryContext,
		},
	}, nil
}

// buildPrompt omits the context section entirely when there is nothing to cite.
func buildPrompt(contextBlock, query string) string {
	if contextBlock == "" {
		return "User: " + query + "\n\nAssistant:"
	}
	return "Context:\n" + contextBlock + "\n\nUser: " + query + "\n\nAssistant:"
}

func (u *UseCase) resolveModel(name string) string {
	if name == "" {
		return u.defaultModel
	}
	if resolved, ok := u.aliases[name]; ok {
		return resolved
	}
	return name
}
