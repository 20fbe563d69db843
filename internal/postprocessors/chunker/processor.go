// Package chunker provides a sentence-packing text chunking processor.
package chunker

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"

	"github.com/custodia-labs/sitesage/internal/core/domain"
)

// DefaultChunkSize is the default soft chunk length in characters.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Processor packs sentences into chunks of roughly chunkSize characters
// and prefixes each chunk after the first with the tail of its predecessor
// and a line break. The break is written even when overlap is zero.
// Lengths are counted in characters (runes), not bytes.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
	tokenizer Tokenizer
}

// Tokenizer segments text into sentences.
type Tokenizer interface {
	Tokenize(text string) []*sentences.Sentence
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithTokenizer replaces the English punkt tokenizer.
func WithTokenizer(t Tokenizer) Option {
	return func(p *Processor) {
		if t != nil {
			p.tokenizer = t
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.overlap >= p.chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidInput, p.overlap, p.chunkSize)
	}

	if p.tokenizer == nil {
		t, err := english.NewSentenceTokenizer(nil)
		if err != nil {
			return nil, fmt.Errorf("load sentence tokenizer: %w", err)
		}
		p.tokenizer = t
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
// The same content and parameters always yield the same chunks.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	packed := p.pack(p.split(doc.Content))
	if len(packed) == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, 0, len(packed))
	for i, text := range packed {
		if i > 0 {
			text = tail(packed[i-1], p.overlap) + "\n" + text
		}
		chunks = append(chunks, domain.Chunk{
			Content:  text,
			URL:      doc.URL,
			Title:    doc.Title,
			Position: i,
		})
	}

	return chunks, nil
}

// split returns the trimmed, non-empty sentences of text.
func (p *Processor) split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var out []string
	for _, s := range p.tokenizer.Tokenize(text) {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// pack greedily joins sentences with single spaces. A chunk is closed
// when appending the next sentence would make it reach chunkSize;
// a single long sentence may exceed the threshold on its own.
func (p *Processor) pack(sents []string) []string {
	var (
		chunks []string
		buf    strings.Builder
		bufLen int
	)

	for _, s := range sents {
		sLen := utf8.RuneCountInString(s)
		if bufLen > 0 {
			if bufLen+1+sLen < p.chunkSize {
				buf.WriteByte(' ')
				buf.WriteString(s)
				bufLen += 1 + sLen
				continue
			}
			chunks = append(chunks, buf.String())
			buf.Reset()
		}
		buf.WriteString(s)
		bufLen = sLen
	}

	if bufLen > 0 {
		chunks = append(chunks, buf.String())
	}
	return chunks
}

// tail returns the last n characters of s, or all of s if shorter.
func tail(s string, n int) string {
	count := utf8.RuneCountInString(s)
	if count <= n {
		return s
	}
	skip := count - n
	for i := range s {
		if skip == 0 {
			return s[i:]
		}
		skip--
	}
	return ""
}
