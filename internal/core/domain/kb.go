package domain

import "time"

// KBManifest describes one published knowledge base version.
// The vector index and docstore of a version are only valid together.
type KBManifest struct {
	// Version identifies the build. Empty for the placeholder KB.
	Version string `json:"version"`

	// BuiltAt is when the build was published.
	BuiltAt time.Time `json:"built_at"`

	// Model is the embedding model the vectors were produced with.
	Model string `json:"model"`

	// Dimensions is the vector length.
	Dimensions int `json:"dimensions"`

	// Count is the number of chunks (and index rows).
	Count int `json:"count"`
}

// IsEmpty reports whether this is the not-yet-curated placeholder.
func (m KBManifest) IsEmpty() bool {
	return m.Version == "" || m.Count == 0
}

// KBBuild is the input to publishing a knowledge base.
// Vectors[i] belongs to Chunks[i] and Chunks[i].ID must equal i.
type KBBuild struct {
	Model      string
	Dimensions int
	Chunks     []Chunk
	Vectors    [][]float32
}

// Validate checks the alignment invariant of the build.
func (b *KBBuild) Validate() error {
	if b == nil || len(b.Chunks) == 0 {
		return ErrEmptyBuild
	}
	if len(b.Chunks) != len(b.Vectors) {
		return ErrMisaligned
	}
	for i := range b.Chunks {
		if b.Chunks[i].ID != i {
			return ErrMisaligned
		}
		if len(b.Vectors[i]) != b.Dimensions {
			return ErrDimensionMismatch
		}
	}
	return nil
}
