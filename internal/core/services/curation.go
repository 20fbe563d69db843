package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/custodia-labs/sitesage/internal/core/domain"
	"github.com/custodia-labs/sitesage/internal/core/ports/driven"
	"github.com/custodia-labs/sitesage/internal/core/ports/driving"
	"github.com/custodia-labs/sitesage/internal/logger"
)

// Ensure Curator implements the interface.
var _ driving.CurationService = (*Curator)(nil)

// defaultEmbedBatch is the number of chunks embedded per request.
const defaultEmbedBatch = 64

// Curator rebuilds the knowledge base from the page manifest.
// Pages are processed sequentially; a failing page is skipped and the
// run continues. Embedding failures abort the run since a partially
// embedded index would silently lose content.
type Curator struct {
	pages      driven.PageManifestStore
	fetcher    driven.PageFetcher
	normaliser driven.Normaliser
	pipeline   driven.PostProcessorPipeline
	embedder   driven.EmbeddingService
	kb         driven.KnowledgeBaseStore

	batchSize int
	progress  func(domain.CurationOutcome)
	now       func() time.Time
}

// NewCurator creates a new curation service.
func NewCurator(
	pages driven.PageManifestStore,
	fetcher driven.PageFetcher,
	normaliser driven.Normaliser,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	kb driven.KnowledgeBaseStore,
) *Curator {
	return &Curator{
		pages:      pages,
		fetcher:    fetcher,
		normaliser: normaliser,
		pipeline:   pipeline,
		embedder:   embedder,
		kb:         kb,
		batchSize:  defaultEmbedBatch,
		now:        time.Now,
	}
}

// SetProgress registers a callback invoked after every page.
func (c *Curator) SetProgress(fn func(domain.CurationOutcome)) {
	c.progress = fn
}

// Curate rebuilds and publishes the knowledge base.
func (c *Curator) Curate(ctx context.Context) (*domain.CurationReport, error) {
	if c.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	logger.Section("Curation")

	pages, err := c.pages.LoadPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("load page manifest: %w", err)
	}
	logger.Debug("Manifest: %d pages", len(pages))

	report := &domain.CurationReport{
		Pages:   len(pages),
		Skipped: []domain.Skip{},
	}
	today := domain.FormatDate(c.now())

	var chunks []domain.Chunk
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("curation cancelled: %w", err)
		}

		outcome := c.curatePage(ctx, page, today)
		if outcome.Skip != nil {
			report.Skipped = append(report.Skipped, *outcome.Skip)
			logger.L().Debug("curation skip",
				zap.String("url", outcome.Skip.URL),
				zap.String("reason", string(outcome.Skip.Reason)),
				zap.String("detail", outcome.Skip.Detail))
		} else {
			chunks = append(chunks, outcome.Chunks...)
		}
		if c.progress != nil {
			c.progress(outcome)
		}
	}

	if len(chunks) == 0 {
		logger.Error("Curation produced no chunks from %d pages", len(pages))
		return nil, domain.ErrEmptyBuild
	}

	// Row order is production order.
	for i := range chunks {
		chunks[i].ID = i
	}

	vectors, err := c.embed(ctx, chunks)
	if err != nil {
		return nil, err
	}

	build := &domain.KBBuild{
		Model:      c.embedder.ModelName(),
		Dimensions: c.embedder.Dimensions(),
		Chunks:     chunks,
		Vectors:    vectors,
	}
	manifest, err := c.kb.Publish(ctx, build)
	if err != nil {
		return nil, fmt.Errorf("publish knowledge base: %w", err)
	}

	report.Manifest = manifest
	report.Indexed = len(chunks)
	logger.Info("Published knowledge base %s: %d chunks from %d pages (%d skipped)",
		manifest.Version, len(chunks), len(pages)-len(report.Skipped), len(report.Skipped))
	return report, nil
}

// curatePage re-fetches one page and turns it into tagged chunks.
// Chunks carry everything except their row id.
func (c *Curator) curatePage(ctx context.Context, page domain.PageRecord, today string) domain.CurationOutcome {
	outcome := domain.CurationOutcome{URL: page.URL}
	skip := func(reason domain.SkipReason, detail string) domain.CurationOutcome {
		outcome.Skip = &domain.Skip{URL: page.URL, Reason: reason, Detail: detail}
		return outcome
	}

	raw, err := c.fetcher.Fetch(ctx, page.URL)
	if err != nil {
		return skip(domain.SkipFetchError, err.Error())
	}
	if raw.StatusCode != 200 {
		return skip(domain.SkipHTTPStatus, strconv.Itoa(raw.StatusCode))
	}
	if !raw.IsHTML() {
		return skip(domain.SkipNotHTML, raw.ContentType)
	}

	result, err := c.normaliser.Normalise(ctx, raw)
	if err != nil {
		return skip(domain.SkipParseError, err.Error())
	}

	doc := result.Document
	doc.URL = page.URL
	doc.Title = page.Title

	chunks, err := c.pipeline.Process(ctx, &doc)
	if err != nil {
		return skip(domain.SkipParseError, err.Error())
	}
	if len(chunks) == 0 {
		return skip(domain.SkipNoContent, "")
	}

	for i := range chunks {
		chunks[i].URL = page.URL
		chunks[i].Title = page.Title
		chunks[i].LastSeen = today
		chunks[i].Checksum = hashText(chunks[i].Content)
	}
	outcome.Chunks = chunks
	return outcome
}

// embed computes unit-length vectors for chunks, in order.
func (c *Curator) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	dims := c.embedder.Dimensions()
	vectors := make([][]float32, 0, len(chunks))

	for start := 0; start < len(chunks); start += c.batchSize {
		end := min(start+c.batchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, ch := range chunks[start:end] {
			texts = append(texts, ch.Content)
		}

		batch, err := c.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: embed chunks %d-%d: %w", domain.ErrEmbeddingUnavailable, start, end-1, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("%w: embedder returned %d vectors for %d chunks",
				domain.ErrMisaligned, len(batch), len(texts))
		}
		for i, v := range batch {
			if len(v) != dims {
				return nil, fmt.Errorf("%w: chunk %d has %d dimensions, want %d",
					domain.ErrDimensionMismatch, start+i, len(v), dims)
			}
			normalizeL2(v)
			vectors = append(vectors, v)
		}
		logger.Debug("Embedded %d/%d chunks", end, len(chunks))
	}

	return vectors, nil
}
