package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultDimensions, svc.Dimensions())
	assert.Equal(t, "hashing-384", svc.ModelName())
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}

func TestEmbed_UnitLengthAndDeterministic(t *testing.T) {
	svc := NewEmbeddingService(Config{Dimensions: 64})

	a, err := svc.Embed(context.Background(), "Our pricing plans start at $10 per month.")
	require.NoError(t, err)
	b, err := svc.Embed(context.Background(), "Our pricing plans start at $10 per month.")
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.InDelta(t, 1.0, dot(a, a), 1e-5)
}

func TestEmbed_CaseAndPunctuationInsensitive(t *testing.T) {
	svc := NewEmbeddingService(Config{})

	a, _ := svc.Embed(context.Background(), "Refund Policy!")
	b, _ := svc.Embed(context.Background(), "refund, policy")

	assert.InDelta(t, 1.0, dot(a, b), 1e-5)
}

func TestEmbed_SimilarTextScoresHigher(t *testing.T) {
	svc := NewEmbeddingService(Config{})
	ctx := context.Background()

	q, _ := svc.Embed(ctx, "how do refunds work")
	near, _ := svc.Embed(ctx, "Refunds are issued within 14 days of a return.")
	far, _ := svc.Embed(ctx, "Our office is located downtown near the station.")

	assert.Greater(t, dot(q, near), dot(q, far))
}

func TestEmbed_NoTokensIsZero(t *testing.T) {
	svc := NewEmbeddingService(Config{Dimensions: 8})

	v, err := svc.Embed(context.Background(), " -- !! ")

	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), v)
}

func TestEmbed_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEmbeddingService(Config{}).Embed(ctx, "x")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmbedBatch(t *testing.T) {
	svc := NewEmbeddingService(Config{Dimensions: 16})

	out, err := svc.EmbedBatch(context.Background(), []string{"alpha", "beta"})

	require.NoError(t, err)
	require.Len(t, out, 2)
	single, _ := svc.Embed(context.Background(), "beta")
	assert.Equal(t, single, out[1])
	assert.False(t, math.IsNaN(dot(out[0], out[1])))
}
