// Package flat provides an exact inner-product vector index.
//
// Vectors are stored row-major in one slice and searched exhaustively, so
// results are exact and deterministic. Knowledge bases built from a single
// website hold thousands of chunks, where a full scan is fast enough.
package flat

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"sync"

	"github.com/custodia-labs/sitesage/internal/core/domain"
	"github.com/custodia-labs/sitesage/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// File format: magic, version, dimensions, row count, then row-major
// little-endian float32 values.
const (
	fileMagic   = "SSVI"
	fileVersion = uint32(1)
)

// ErrCorrupt indicates an index file that cannot be decoded.
var ErrCorrupt = errors.New("flat: corrupt index file")

// Index is an exact inner-product index. It is safe for concurrent use.
type Index struct {
	mu         sync.RWMutex
	dimensions int
	data       []float32
}

// New creates an empty index of the given dimension.
func New(dimensions int) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive", domain.ErrInvalidInput)
	}
	return &Index{dimensions: dimensions}, nil
}

// Add appends a vector and returns its row.
func (idx *Index) Add(_ context.Context, vector []float32) (int, error) {
	if len(vector) != idx.dimensions {
		return 0, fmt.Errorf("%w: got %d, index has %d", domain.ErrDimensionMismatch, len(vector), idx.dimensions)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	row := len(idx.data) / idx.dimensions
	idx.data = append(idx.data, vector...)
	return row, nil
}

// Search returns the k rows with the highest inner product with query.
// Ties are broken by ascending row. k larger than Len returns every row.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != idx.dimensions {
		return nil, fmt.Errorf("%w: query has %d, index has %d", domain.ErrDimensionMismatch, len(query), idx.dimensions)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", domain.ErrInvalidInput)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := len(idx.data) / idx.dimensions
	hits := make([]driven.VectorHit, n)
	for row := 0; row < n; row++ {
		if row%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		vec := idx.data[row*idx.dimensions : (row+1)*idx.dimensions]
		hits[row] = driven.VectorHit{Row: row, Score: dot(query, vec)}
	}

	slices.SortStableFunc(hits, func(a, b driven.VectorHit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return a.Row - b.Row
		}
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of rows.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.data) / idx.dimensions
}

// Dimensions returns the vector size.
func (idx *Index) Dimensions() int {
	return idx.dimensions
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// WriteTo encodes the index.
func (idx *Index) WriteTo(w io.Writer) (int64, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	bw := bufio.NewWriter(w)
	cw := &countingWriter{w: bw}

	header := struct {
		Version    uint32
		Dimensions uint32
		Rows       uint64
	}{fileVersion, uint32(idx.dimensions), uint64(len(idx.data) / idx.dimensions)}

	if _, err := cw.Write([]byte(fileMagic)); err != nil {
		return cw.n, err
	}
	if err := binary.Write(cw, binary.LittleEndian, header); err != nil {
		return cw.n, err
	}
	if err := binary.Write(cw, binary.LittleEndian, idx.data); err != nil {
		return cw.n, err
	}
	return cw.n, bw.Flush()
}

// Read decodes an index written by WriteTo.
func Read(r io.Reader) (*Index, error) {
	br := bufio.NewReader(r)

	magic := make([]byte, len(fileMagic))
	if _, err := io.ReadFull(br, magic); err != nil || string(magic) != fileMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}

	var header struct {
		Version    uint32
		Dimensions uint32
		Rows       uint64
	}
	if err := binary.Read(br, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrCorrupt, err)
	}
	if header.Version != fileVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, header.Version)
	}
	if header.Dimensions == 0 {
		return nil, fmt.Errorf("%w: zero dimension", ErrCorrupt)
	}
	total := header.Rows * uint64(header.Dimensions)
	if total > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d values is too large", ErrCorrupt, total)
	}

	data := make([]float32, total)
	if err := binary.Read(br, binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("%w: vectors: %w", ErrCorrupt, err)
	}
	if _, err := br.ReadByte(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data", ErrCorrupt)
	}

	return &Index{dimensions: int(header.Dimensions), data: data}, nil
}

// Save writes the index to path.
func (idx *Index) Save(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	if _, err := idx.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write index file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync index file: %w", err)
	}
	return f.Close()
}

// Load reads an index from path.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
