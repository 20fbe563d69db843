package domain

// Hit represents a single retrieval result.
// The embedded Chunk is a copy; mutating it never touches the docstore.
type Hit struct {
	Chunk

	// Score is the raw inner-product similarity (higher is more similar).
	Score float64 `json:"score"`
}

// Docstore maps a stringified chunk id to the chunk's fields.
// It is co-versioned with the vector index it was built alongside.
type Docstore map[string]Chunk

// Get returns a copy of the chunk stored under the given index row.
func (d Docstore) Get(row int) (Chunk, bool) {
	c, ok := d[RowKey(row)]
	if !ok {
		return Chunk{}, false
	}
	return c.Clone(), true
}

// Aligned reports whether the key set is exactly {"0", ..., "n-1"}.
func (d Docstore) Aligned(n int) bool {
	if len(d) != n {
		return false
	}
	for i := 0; i < n; i++ {
		if _, ok := d[RowKey(i)]; !ok {
			return false
		}
	}
	return true
}
