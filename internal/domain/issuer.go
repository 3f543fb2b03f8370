package domain

import "context"

// Reissued is the per-key outcome of a batch reissue call.
type Reissued struct {
	Key     Key
	Success bool
	URL     string
	Error   string
}

// ReissueResult is a parsed batch response. Items are matched to
// requests by key, never by position.
type ReissueResult struct {
	// ExpirySeconds is the issuer's authoritative URL lifetime, or 0
	// when the response did not report one.
	ExpirySeconds int
	Items         []Reissued
}

// Issuer reissues signed URLs in batches.
type Issuer interface {
	Reissue(ctx context.Context, keys []Key) (*ReissueResult, error)
}
