package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an unknown provider or content type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrEmptyCompletion indicates the LLM returned no usable content.
	ErrEmptyCompletion = errors.New("LLM did not return content")

	// Knowledge Base Errors.

	// ErrEmptyBuild indicates curation produced zero chunks.
	// An empty knowledge base is never published.
	ErrEmptyBuild = errors.New("no chunks produced; check crawl output")

	// ErrDimensionMismatch indicates a vector does not match the index dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrModelMismatch indicates a knowledge base was built with a different
	// embedding model than the one configured for queries.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrMisaligned indicates chunk ids do not form the dense sequence 0..N-1.
	ErrMisaligned = errors.New("chunk ids not aligned with index rows")

	// ErrNoManifest indicates the crawl has not produced a page manifest yet.
	ErrNoManifest = errors.New("page manifest not found; run crawl first")

	// ErrKBUnavailable indicates the knowledge base could not be loaded.
	ErrKBUnavailable = errors.New("knowledge base unavailable")

	// ErrRefreshInProgress indicates a crawl and rebuild is already running.
	ErrRefreshInProgress = errors.New("refresh already in progress")
)
