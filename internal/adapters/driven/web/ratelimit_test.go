package web

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		value  string
		want   time.Duration
		wantOK bool
	}{
		{"empty", "", 0, false},
		{"seconds", "3", 3 * time.Second, true},
		{"negative", "-1", 0, false},
		{"http date", "Fri, 01 May 2026 12:00:10 GMT", 10 * time.Second, true},
		{"past date", "Fri, 01 May 2026 11:00:00 GMT", 0, true},
		{"garbage", "soon", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseRetryAfter(tt.value, now)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRateLimiter_UpdateFromResponse(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	resp := func(status int, retry string) *http.Response {
		h := http.Header{}
		h.Set(HeaderRetryAfter, retry)
		return &http.Response{StatusCode: status, Header: h}
	}

	t.Run("429 pauses", func(t *testing.T) {
		r := NewRateLimiter(0)
		r.now = func() time.Time { return now }
		r.UpdateFromResponse(resp(http.StatusTooManyRequests, "5"))
		assert.Equal(t, now.Add(5*time.Second), r.pauseUntil)
	})

	t.Run("200 ignored", func(t *testing.T) {
		r := NewRateLimiter(0)
		r.UpdateFromResponse(resp(http.StatusOK, "5"))
		assert.True(t, r.pauseUntil.IsZero())
	})

	t.Run("capped", func(t *testing.T) {
		r := NewRateLimiter(0)
		r.now = func() time.Time { return now }
		r.UpdateFromResponse(resp(http.StatusServiceUnavailable, "86400"))
		assert.Equal(t, now.Add(MaxRetryAfter), r.pauseUntil)
	})

	t.Run("shorter pause does not shrink", func(t *testing.T) {
		r := NewRateLimiter(0)
		r.now = func() time.Time { return now }
		r.UpdateFromResponse(resp(http.StatusTooManyRequests, "10"))
		r.UpdateFromResponse(resp(http.StatusTooManyRequests, "1"))
		assert.Equal(t, now.Add(10*time.Second), r.pauseUntil)
	})

	t.Run("nil response", func(t *testing.T) {
		NewRateLimiter(1).UpdateFromResponse(nil)
	})
}

func TestRateLimiter_WaitHonoursPause(t *testing.T) {
	r := NewRateLimiter(0)
	r.pauseUntil = time.Now().Add(40 * time.Millisecond)

	start := time.Now()
	require.NoError(t, r.Wait(context.Background()))

	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestRateLimiter_WaitCancelledDuringPause(t *testing.T) {
	r := NewRateLimiter(0)
	r.pauseUntil = time.Now().Add(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, r.Wait(ctx), context.Canceled)
}
