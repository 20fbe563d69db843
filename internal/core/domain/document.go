package domain

// Document represents a page after normalisation.
// It is the input to the chunking pipeline.
type Document struct {
	// URL is the page address.
	URL string

	// Title is the page title: <title>, else the first <h1>, else empty.
	Title string

	// Content is the cleaned text with scripts and styles removed.
	Content string

	// Links are absolute outbound links in document order,
	// fragments stripped and duplicates removed. Scope is not applied.
	Links []string
}

// Chunk represents a retrievable unit of page text.
// ID is the dense 0-based row of the chunk's vector in the index;
// index row i and docstore key "i" always refer to the same chunk.
type Chunk struct {
	// ID is the index row. Assigned by curation, zero until then.
	ID int `json:"id"`

	// Content is the chunk text, including any overlap prefix.
	Content string `json:"content"`

	// URL is the page the chunk came from.
	URL string `json:"url"`

	// Title is the page title.
	Title string `json:"title"`

	// LastSeen is the curation date (YYYY-MM-DD).
	LastSeen string `json:"last_seen"`

	// Checksum is the hex SHA-256 of Content.
	Checksum string `json:"checksum"`

	// Tags are coarse topical labels assigned by the tagger.
	Tags []string `json:"tags"`

	// Position is the ordinal position within the page.
	Position int `json:"-"`
}

// Clone returns a copy of the chunk that shares no mutable state.
func (c Chunk) Clone() Chunk {
	if c.Tags != nil {
		tags := make([]string, len(c.Tags))
		copy(tags, c.Tags)
		c.Tags = tags
	}
	return c
}

// HasTag reports whether the chunk carries the given tag.
func (c Chunk) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
