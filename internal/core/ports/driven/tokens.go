package driven

// TokenCounter counts model tokens in text.
type TokenCounter interface {
	// Count returns the number of tokens in text.
	Count(text string) int

	// Encoding returns the tokenizer encoding name.
	Encoding() string
}
