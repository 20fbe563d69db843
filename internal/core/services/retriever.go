package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/sitesage/internal/core/domain"
	"github.com/custodia-labs/sitesage/internal/core/ports/driven"
	"github.com/custodia-labs/sitesage/internal/core/ports/driving"
	"github.com/custodia-labs/sitesage/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.Retriever = (*Retriever)(nil)

// Retriever serves nearest-neighbour queries from the current knowledge base.
// The knowledge base is swapped atomically on reload; searches in flight
// keep using the one they started with.
type Retriever struct {
	store    driven.KnowledgeBaseStore
	embedder driven.EmbeddingService

	reloadMu sync.Mutex
	current  atomic.Pointer[driven.KnowledgeBase]
}

// NewRetriever creates a retriever and loads the current knowledge base.
// When none can be loaded it starts with an empty one and answers with no hits.
func NewRetriever(ctx context.Context, store driven.KnowledgeBaseStore, embedder driven.EmbeddingService) *Retriever {
	r := &Retriever{store: store, embedder: embedder}
	r.current.Store(&driven.KnowledgeBase{
		Docstore: domain.Docstore{},
		Index:    emptyIndex{dims: embedder.Dimensions()},
	})
	if err := r.Reload(ctx); err != nil {
		logger.Warn("Knowledge base not loaded, serving empty results: %v", err)
	}
	return r
}

// Reload swaps in the currently published knowledge base.
// A knowledge base built with a different embedding model is refused
// and the previous one stays in service.
func (r *Retriever) Reload(ctx context.Context) error {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	kb, err := r.store.Open(ctx, r.embedder.Dimensions())
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrKBUnavailable, err)
	}

	if kb.Manifest.Model != "" && kb.Manifest.Model != r.embedder.ModelName() {
		return fmt.Errorf("%w: knowledge base built with %q, queries use %q",
			domain.ErrModelMismatch, kb.Manifest.Model, r.embedder.ModelName())
	}
	if kb.Index.Len() > 0 && kb.Index.Dimensions() != r.embedder.Dimensions() {
		return fmt.Errorf("%w: index has %d dimensions, embedder produces %d",
			domain.ErrDimensionMismatch, kb.Index.Dimensions(), r.embedder.Dimensions())
	}
	if !kb.Docstore.Aligned(kb.Index.Len()) {
		logger.Warn("Knowledge base %s: docstore not aligned with %d index rows", kb.Manifest.Version, kb.Index.Len())
	}

	r.current.Store(kb)
	logger.Info("Knowledge base %s loaded: %d chunks", kb.Manifest.Version, kb.Index.Len())
	return nil
}

// Manifest describes the knowledge base currently in service.
func (r *Retriever) Manifest() domain.KBManifest {
	return r.current.Load().Manifest
}

// Search returns up to k hits, most similar first.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]domain.Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}

	kb := r.current.Load()
	if kb.Index.Len() == 0 {
		return []domain.Hit{}, nil
	}

	qv, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrEmbeddingUnavailable, err)
	}
	normalizeL2(qv)

	rows, err := kb.Index.Search(ctx, qv, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	hits := make([]domain.Hit, 0, len(rows))
	for _, row := range rows {
		if row.Row < 0 {
			continue
		}
		chunk, ok := kb.Docstore.Get(row.Row)
		if !ok {
			logger.Debug("Index row %d has no docstore entry, dropping hit", row.Row)
			continue
		}
		hits = append(hits, domain.Hit{Chunk: chunk, Score: row.Score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}

	logger.Debug("Retrieved %d hits for %q", len(hits), query)
	return hits, nil
}

// emptyIndex stands in before any knowledge base has loaded.
type emptyIndex struct{ dims int }

func (e emptyIndex) Add(context.Context, []float32) (int, error) {
	return 0, domain.ErrNotImplemented
}

func (e emptyIndex) Search(context.Context, []float32, int) ([]driven.VectorHit, error) {
	return nil, nil
}

func (e emptyIndex) Len() int        { return 0 }
func (e emptyIndex) Dimensions() int { return e.dims }
