package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

type stubCrawl struct {
	report  *domain.CrawlReport
	err     error
	calls   int
	started chan struct{}
	block   chan struct{}
}

func (s *stubCrawl) Crawl(_ context.Context) (*domain.CrawlReport, error) {
	s.calls++
	if s.started != nil {
		close(s.started)
	}
	if s.block != nil {
		<-s.block
	}
	return s.report, s.err
}

type stubCurate struct {
	report *domain.CurationReport
	err    error
	calls  int
}

func (s *stubCurate) Curate(_ context.Context) (*domain.CurationReport, error) {
	s.calls++
	return s.report, s.err
}

type reloadCounter struct {
	mockRetriever
	reloads int
	err     error
}

func (r *reloadCounter) Reload(_ context.Context) error {
	r.reloads++
	return r.err
}

func TestRefresher_Refresh_Success(t *testing.T) {
	crawl := &stubCrawl{report: &domain.CrawlReport{Pages: []domain.PageRecord{{URL: "https://example.com/"}}}}
	curate := &stubCurate{report: &domain.CurationReport{Indexed: 4, Manifest: domain.KBManifest{Version: "v1"}}}
	retriever := &reloadCounter{}

	report, err := NewRefresher(crawl, curate, retriever).Refresh(context.Background())

	require.NoError(t, err)
	assert.Len(t, report.Crawl.Pages, 1)
	assert.Equal(t, 4, report.Curation.Indexed)
	assert.Equal(t, 1, retriever.reloads)
}

func TestRefresher_Refresh_CrawlFailureSkipsCuration(t *testing.T) {
	crawl := &stubCrawl{err: errors.New("root unreachable")}
	curate := &stubCurate{}

	report, err := NewRefresher(crawl, curate, nil).Refresh(context.Background())

	require.Error(t, err)
	assert.Nil(t, report)
	assert.Contains(t, err.Error(), "crawl")
	assert.Equal(t, 0, curate.calls)
}

func TestRefresher_Refresh_EmptyBuild(t *testing.T) {
	crawl := &stubCrawl{report: &domain.CrawlReport{}}
	curate := &stubCurate{err: domain.ErrEmptyBuild}
	retriever := &reloadCounter{}

	report, err := NewRefresher(crawl, curate, retriever).Refresh(context.Background())

	require.ErrorIs(t, err, domain.ErrEmptyBuild)
	require.NotNil(t, report)
	assert.NotNil(t, report.Crawl)
	assert.Nil(t, report.Curation)
	assert.Equal(t, 0, retriever.reloads)
}

func TestRefresher_Refresh_ReloadFailureKeepsReport(t *testing.T) {
	crawl := &stubCrawl{report: &domain.CrawlReport{}}
	curate := &stubCurate{report: &domain.CurationReport{Indexed: 1}}
	retriever := &reloadCounter{err: domain.ErrModelMismatch}

	report, err := NewRefresher(crawl, curate, retriever).Refresh(context.Background())

	require.ErrorIs(t, err, domain.ErrModelMismatch)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Curation.Indexed)
}

func TestRefresher_Refresh_RejectsConcurrentRun(t *testing.T) {
	crawl := &stubCrawl{
		report:  &domain.CrawlReport{},
		started: make(chan struct{}),
		block:   make(chan struct{}),
	}
	curate := &stubCurate{report: &domain.CurationReport{}}
	r := NewRefresher(crawl, curate, nil)

	done := make(chan error, 1)
	go func() {
		_, err := r.Refresh(context.Background())
		done <- err
	}()

	select {
	case <-crawl.started:
	case <-time.After(time.Second):
		t.Fatal("refresh did not start")
	}

	_, err := r.Refresh(context.Background())
	assert.ErrorIs(t, err, domain.ErrRefreshInProgress)

	close(crawl.block)
	require.NoError(t, <-done)
}
