package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/arcwave/unillm/pkg/provider"
	providererrors "github.com/arcwave/unillm/pkg/provider/errors"
	"github.com/arcwave/unillm/pkg/provider/types"
)

// ResolveRerankingModel picks the reranking model Rerank should call for
// modelID against p. A provider is native for rerank only if
// Provider.RerankingModel returns a non-error model; any other error is
// returned unchanged. Only an UnsupportedFeature/UnsupportedCapability
// error triggers the embedding+cosine-similarity fallback, using
// fallbackEmbedding to score documents instead of calling the provider's
// (nonexistent) rerank endpoint.
func ResolveRerankingModel(p provider.Provider, modelID string, fallbackEmbedding provider.EmbeddingModel) (provider.RerankingModel, error) {
	model, err := p.RerankingModel(modelID)
	if err == nil {
		return model, nil
	}

	var apiErr *providererrors.APIError
	unsupported := errors.Is(err, providererrors.ErrUnsupportedFeature) ||
		(errors.As(err, &apiErr) && apiErr.Kind == providererrors.KindUnsupportedCapability)
	if !unsupported {
		return nil, err
	}

	if fallbackEmbedding == nil {
		return nil, fmt.Errorf("%s does not support reranking and no fallback embedding model was provided: %w", p.Name(), err)
	}

	return &embeddingRerankingModel{providerName: p.Name(), modelID: modelID, embedding: fallbackEmbedding}, nil
}

// embeddingRerankingModel implements provider.RerankingModel on top of an
// embedding model by scoring documents with cosine similarity against the
// query embedding. It is the fallback path for providers (e.g. MiniMax,
// OpenRouter) that expose no native rerank endpoint.
type embeddingRerankingModel struct {
	providerName string
	modelID      string
	embedding    provider.EmbeddingModel
}

func (m *embeddingRerankingModel) SpecificationVersion() string { return "v3" }
func (m *embeddingRerankingModel) Provider() string              { return m.providerName }
func (m *embeddingRerankingModel) ModelID() string               { return m.modelID }

func (m *embeddingRerankingModel) DoRerank(ctx context.Context, opts *provider.RerankOptions) (*types.RerankResult, error) {
	docs, err := documentsToStrings(opts.Documents)
	if err != nil {
		return nil, err
	}

	queryResult, err := m.embedding.DoEmbed(ctx, opts.Query)
	if err != nil {
		return nil, fmt.Errorf("embedding query for fallback rerank: %w", err)
	}

	docsResult, err := m.embedding.DoEmbedMany(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("embedding documents for fallback rerank: %w", err)
	}
	if len(docsResult.Embeddings) != len(docs) {
		return nil, fmt.Errorf("embedding model returned %d embeddings for %d documents", len(docsResult.Embeddings), len(docs))
	}

	ranking := make([]types.RerankItem, len(docs))
	for i, emb := range docsResult.Embeddings {
		ranking[i] = types.RerankItem{
			Index:          i,
			RelevanceScore: cosineSimilarity(queryResult.Embedding, emb),
		}
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].RelevanceScore > ranking[j].RelevanceScore
	})

	if opts.TopN != nil && *opts.TopN > 0 && *opts.TopN < len(ranking) {
		ranking = ranking[:*opts.TopN]
	}

	return &types.RerankResult{
		Ranking: ranking,
		Response: types.RerankResponse{
			ModelID:   m.modelID,
			Timestamp: timeNow(),
		},
		ProviderMetadata: map[string]interface{}{
			"fallback": "embedding_cosine_similarity",
		},
	}, nil
}

func documentsToStrings(documents interface{}) ([]string, error) {
	switch docs := documents.(type) {
	case []string:
		return docs, nil
	case []map[string]interface{}:
		out := make([]string, len(docs))
		for i, d := range docs {
			out[i] = fmt.Sprintf("%v", d)
		}
		return out, nil
	case []interface{}:
		out := make([]string, len(docs))
		for i, d := range docs {
			if s, ok := d.(string); ok {
				out[i] = s
			} else {
				out[i] = fmt.Sprintf("%v", d)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("documents must be []string, []map[string]interface{}, or []interface{}")
	}
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
