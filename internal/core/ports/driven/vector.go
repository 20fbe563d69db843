package driven

import "context"

// VectorIndex provides inner-product nearest-neighbour search.
// Rows are dense and assigned in insertion order; row i of the index
// corresponds to docstore key "i".
type VectorIndex interface {
	// Add appends a vector and returns its row.
	Add(ctx context.Context, vector []float32) (int, error)

	// Search finds the k rows with the highest inner product with query,
	// most similar first. Ties are broken by ascending row.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of rows.
	Len() int

	// Dimensions returns the vector size.
	Dimensions() int
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Row is the matched index row. -1 means no match.
	Row int

	// Score is the inner product (cosine similarity for unit vectors).
	Score float64
}
