package domain

import "errors"

var (
	// ErrMentorNotFound signals a missing or withdrawn catalog entry.
	ErrMentorNotFound = errors.New("mentor not found")
	// ErrInsufficientProfile signals a profile without usable job/skill/introduction data.
	ErrInsufficientProfile = errors.New("insufficient profile")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrRetrievalFailed signals a vector index or catalog failure on the primary path.
	ErrRetrievalFailed = errors.New("retrieval failed")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)
