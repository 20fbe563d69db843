package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/sitesage/internal/core/domain"
	"github.com/custodia-labs/sitesage/internal/core/ports/driven"
)

// --- Mock implementations ---

// fakeFetcher serves canned pages and records every requested URL.
type fakeFetcher struct {
	mu     sync.Mutex
	pages  map[string]*domain.RawPage
	errs   map[string]error
	calls  []string
	counts map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages:  make(map[string]*domain.RawPage),
		errs:   make(map[string]error),
		counts: make(map[string]int),
	}
}

func (f *fakeFetcher) html(url, body string) {
	f.pages[url] = &domain.RawPage{
		URL:         url,
		StatusCode:  200,
		ContentType: "text/html; charset=utf-8",
		Content:     []byte(body),
	}
}

func (f *fakeFetcher) raw(url string, status int, contentType, body string) {
	f.pages[url] = &domain.RawPage{URL: url, StatusCode: status, ContentType: contentType, Content: []byte(body)}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*domain.RawPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	f.counts[url]++
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if p, ok := f.pages[url]; ok {
		cp := *p
		return &cp, nil
	}
	return &domain.RawPage{URL: url, StatusCode: 404, ContentType: "text/html"}, nil
}

func (f *fakeFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[url]
}

// fakeRobots disallows an explicit set of URLs.
type fakeRobots struct {
	disallowed map[string]bool
}

func (r *fakeRobots) Allowed(_ context.Context, url string) bool {
	return !r.disallowed[url]
}

// fakePageStore keeps the page manifest in memory.
type fakePageStore struct {
	pages   []domain.PageRecord
	saved   bool
	saveErr error
	loadErr error
}

func (s *fakePageStore) SavePages(_ context.Context, pages []domain.PageRecord) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.pages = pages
	s.saved = true
	return nil
}

func (s *fakePageStore) LoadPages(_ context.Context) ([]domain.PageRecord, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if !s.saved && s.pages == nil {
		return nil, domain.ErrNoManifest
	}
	return s.pages, nil
}

// paragraphPipeline emits one chunk per blank-line separated paragraph.
type paragraphPipeline struct {
	err error
}

func (p *paragraphPipeline) Process(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if p.err != nil {
		return nil, p.err
	}
	var chunks []domain.Chunk
	for i, para := range strings.Split(doc.Content, "\n\n") {
		if strings.TrimSpace(para) == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{Content: para, Position: i, Tags: []string{"general"}})
	}
	return chunks, nil
}

// mockEmbeddingService maps text to vectors with a caller-supplied function.
type mockEmbeddingService struct {
	dims     int
	model    string
	embedErr error
	vector   func(text string) []float32
	calls    atomic.Int64
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls.Add(1)
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vec(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls.Add(1)
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vec(t)
	}
	return out, nil
}

func (m *mockEmbeddingService) vec(text string) []float32 {
	if m.vector != nil {
		return m.vector(text)
	}
	v := make([]float32, m.Dimensions())
	v[len(text)%len(v)] = 2
	return v
}

func (m *mockEmbeddingService) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return 4
}

func (m *mockEmbeddingService) ModelName() string {
	if m.model != "" {
		return m.model
	}
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// bruteIndex is an exact inner-product index for tests.
type bruteIndex struct {
	dims    int
	vectors [][]float32
	extra   []driven.VectorHit
}

func (b *bruteIndex) Add(_ context.Context, v []float32) (int, error) {
	b.vectors = append(b.vectors, v)
	return len(b.vectors) - 1, nil
}

func (b *bruteIndex) Search(_ context.Context, q []float32, k int) ([]driven.VectorHit, error) {
	hits := make([]driven.VectorHit, 0, len(b.vectors))
	for row, v := range b.vectors {
		var dot float64
		for i := range v {
			dot += float64(v[i]) * float64(q[i])
		}
		hits = append(hits, driven.VectorHit{Row: row, Score: dot})
	}
	hits = append(hits, b.extra...)
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].Score > hits[j-1].Score; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (b *bruteIndex) Len() int        { return len(b.vectors) }
func (b *bruteIndex) Dimensions() int { return b.dims }

// fakeKBStore keeps published builds in memory.
type fakeKBStore struct {
	published  *domain.KBBuild
	kb         *driven.KnowledgeBase
	openErr    error
	publishErr error
}

func (s *fakeKBStore) Publish(_ context.Context, b *domain.KBBuild) (domain.KBManifest, error) {
	if s.publishErr != nil {
		return domain.KBManifest{}, s.publishErr
	}
	if err := b.Validate(); err != nil {
		return domain.KBManifest{}, err
	}
	s.published = b
	return domain.KBManifest{Version: "v1", Model: b.Model, Dimensions: b.Dimensions, Count: len(b.Chunks)}, nil
}

func (s *fakeKBStore) Open(_ context.Context, _ int) (*driven.KnowledgeBase, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return s.kb, nil
}

func (s *fakeKBStore) Current(_ context.Context) (domain.KBManifest, error) {
	if s.kb == nil {
		return domain.KBManifest{}, domain.ErrNotFound
	}
	return s.kb.Manifest, nil
}

func (s *fakeKBStore) PointerPath() string { return "" }

// knowledgeBase builds an aligned in-memory knowledge base.
func knowledgeBase(model string, dims int, chunks []domain.Chunk, vectors [][]float32) *driven.KnowledgeBase {
	idx := &bruteIndex{dims: dims}
	ds := domain.Docstore{}
	for i, c := range chunks {
		c.ID = i
		ds[domain.RowKey(i)] = c
		_, _ = idx.Add(context.Background(), vectors[i])
	}
	return &driven.KnowledgeBase{
		Manifest: domain.KBManifest{Version: "test", Model: model, Dimensions: dims, Count: len(chunks)},
		Index:    idx,
		Docstore: ds,
	}
}

// mockLLMService returns a canned reply and records the request it received.
type mockLLMService struct {
	reply string
	err   error
	req   driven.Completion
	delay time.Duration
	calls int
}

func (m *mockLLMService) Complete(ctx context.Context, req driven.Completion) (string, error) {
	m.calls++
	m.req = req
	if m.err != nil {
		return "", m.err
	}
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(m.delay):
		}
	}
	return m.reply, nil
}

func (m *mockLLMService) ModelName() string            { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

// mockRetriever returns canned hits.
type mockRetriever struct {
	hits  []domain.Hit
	err   error
	lastK int
}

func (m *mockRetriever) Search(_ context.Context, _ string, k int) ([]domain.Hit, error) {
	m.lastK = k
	if m.err != nil {
		return nil, m.err
	}
	if len(m.hits) > k {
		return m.hits[:k], nil
	}
	return m.hits, nil
}

func (m *mockRetriever) Reload(_ context.Context) error { return nil }
func (m *mockRetriever) Manifest() domain.KBManifest    { return domain.KBManifest{} }

// mockPromptStore serves prompts from a map.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// wordCounter counts whitespace-separated words as tokens.
type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }
func (wordCounter) Encoding() string      { return "words" }

// fakeLeadStore keeps leads in memory.
type fakeLeadStore struct {
	leads   []domain.Lead
	saveErr error
}

func (s *fakeLeadStore) SaveLead(_ context.Context, l *domain.Lead) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.leads = append(s.leads, *l)
	return nil
}

func (s *fakeLeadStore) ListLeads(_ context.Context, limit int) ([]domain.Lead, error) {
	out := make([]domain.Lead, 0, len(s.leads))
	for i := len(s.leads) - 1; i >= 0; i-- {
		out = append(out, s.leads[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeForwarder records forwarded leads.
type fakeForwarder struct {
	forwarded []domain.Lead
	err       error
}

func (f *fakeForwarder) Forward(_ context.Context, l *domain.Lead) error {
	f.forwarded = append(f.forwarded, *l)
	return f.err
}

var errBoom = errors.New("boom")
