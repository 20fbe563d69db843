package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_Fetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Last-Modified", "Wed, 01 Apr 2026 10:00:00 GMT")
		_, _ = w.Write([]byte("<html><title>Hi</title></html>"))
	}))
	defer srv.Close()
	f := NewFetcher(Config{UserAgent: "test-bot/1.0"})

	raw, err := f.Fetch(context.Background(), srv.URL+"/page")

	require.NoError(t, err)
	assert.Equal(t, "test-bot/1.0", gotUA)
	assert.Equal(t, srv.URL+"/page", raw.URL)
	assert.Equal(t, http.StatusOK, raw.StatusCode)
	assert.True(t, raw.IsHTML())
	assert.Equal(t, "Wed, 01 Apr 2026 10:00:00 GMT", raw.LastModified)
	assert.Equal(t, "<html><title>Hi</title></html>", string(raw.Content))
}

func TestFetcher_NonOKIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	raw, err := NewFetcher(Config{}).Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, raw.StatusCode)
}

func TestFetcher_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("/old", http.RedirectHandler("/new", http.StatusMovedPermanently))
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("moved"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	raw, err := NewFetcher(Config{}).Fetch(context.Background(), srv.URL+"/old")

	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/new", raw.URL)
	assert.Equal(t, "moved", string(raw.Content))
}

func TestFetcher_TruncatesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", MaxBodyBytes+100)))
	}))
	defer srv.Close()

	raw, err := NewFetcher(Config{}).Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Len(t, raw.Content, MaxBodyBytes)
}

func TestFetcher_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewFetcher(Config{}).Fetch(context.Background(), url)

	assert.Error(t, err)
}

func TestFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewFetcher(Config{Timeout: 50 * time.Millisecond}).Fetch(context.Background(), srv.URL)

	assert.Error(t, err)
}

func TestFetcher_RateLimitIsShared(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()
	f := NewFetcher(Config{RateLimit: 20})

	start := time.Now()
	for i := 0; i < 4; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
	}

	// Burst of one: the first is immediate, the next three wait 50ms each.
	assert.GreaterOrEqual(t, time.Since(start), 140*time.Millisecond)
	assert.Equal(t, int32(4), hits.Load())
}

func TestFetcher_CancelledWhileWaiting(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	f := NewFetcher(Config{RateLimit: 0.01})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.Fetch(ctx, srv.URL)

	assert.Error(t, err)
}
