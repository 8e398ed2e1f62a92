package retrieval

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mizuage/kioku/pkg/model"
	"github.com/mizuage/kioku/pkg/utils/logging"
)

// Retrieve returns up to limit memories of the user ranked by similarity to
// the query text.
//
// The flow per request:
//  1. Resolve the query embedding, consulting the embedding cache first.
//  2. Look up the query result cache; on a hit, truncate to limit without
//     recomputing scores.
//  3. On a miss, run the similarity search, cache the full result, return it.
func (u *UseCase) Retrieve(ctx context.Context, userID, query string, limit int) ([]*model.ScoredMemory, error) {
	if userID == "" {
		return nil, goerr.New("userID is required", goerr.T(model.TagInvalidInput))
	}
	if query == "" {
		return nil, goerr.New("query is required", goerr.T(model.TagInvalidInput))
	}
	if limit <= 0 {
		return nil, goerr.New("limit must be positive", goerr.T(model.TagInvalidInput), goerr.V("limit", limit))
	}

	embedding, err := u.queryEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	if cached, ok := u.queryCache.Get(userID, embedding); ok {
		logging.From(ctx).Debug("query result cache hit", "user_id", userID, "cached", len(cached))
		if len(cached) > limit {
			cached = cached[:limit]
		}
		return cached, nil
	}

	searchCtx, cancel := context.WithTimeout(ctx, u.searchTimeout)
	defer cancel()

	results, err := u.repo.SearchSimilarMemories(searchCtx, userID, embedding, limit)
	if err != nil {
		return nil, err
	}

	u.queryCache.Set(userID, embedding, results)
	logging.From(ctx).Debug("similarity search completed", "user_id", userID, "results", len(results))

	return results, nil
}

// queryEmbedding resolves the embedding for text via the embedding cache,
// falling back to the provider on a miss. Provider failures are never cached.
func (u *UseCase) queryEmbedding(ctx context.Context, text string) ([]float32, error) {
	if embedding, ok := u.embedCache.Get(text); ok {
		logging.From(ctx).Debug("embedding cache hit")
		return embedding, nil
	}

	embedCtx, cancel := context.WithTimeout(ctx, u.embedTimeout)
	defer cancel()

	embedding, err := u.gemini.Embedding(embedCtx, text)
	if err != nil {
		return nil, err
	}

	u.embedCache.Set(text, embedding)
	return embedding, nil
}
