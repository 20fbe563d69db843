// Package tiktoken counts prompt tokens with OpenAI's BPE encodings.
// Encoding files are embedded through the offline loader, so counting
// never touches the network.
package tiktoken

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/custodia-labs/sitesage/internal/core/ports/driven"
)

func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Ensure Counter implements the interface.
var _ driven.TokenCounter = (*Counter)(nil)

// DefaultEncoding is compatible with current OpenAI chat models.
const DefaultEncoding = "cl100k_base"

// Counter counts tokens with one encoding.
type Counter struct {
	name     string
	mu       sync.Mutex
	encoding *tiktoken.Tiktoken
}

var (
	cacheMu sync.Mutex
	cache   = map[string]*Counter{}
)

// New returns a counter for the named encoding. Counters are cached per
// encoding since loading one parses a large rank file.
func New(encoding string) (*Counter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}

	cacheMu.Lock()
	defer cacheMu.Unlock()
	if c, ok := cache[encoding]; ok {
		return c, nil
	}

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", encoding, err)
	}
	c := &Counter{name: encoding, encoding: enc}
	cache[encoding] = c
	return c, nil
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.encoding.Encode(text, nil, nil))
}

// Encoding returns the encoding name.
func (c *Counter) Encoding() string {
	return c.name
}
