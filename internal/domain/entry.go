package domain

import (
	"errors"
	"time"
)

var (
	ErrCacheClosed   = errors.New("url cache closed")
	ErrRefreshFailed = errors.New("url refresh failed")
	ErrUnknownKey    = errors.New("unknown url key")
)

// Entry is one cached signed URL. TTL is fixed when the entry is
// created or refreshed; later changes to the issuer-reported expiry
// never apply retroactively.
type Entry struct {
	URL       string
	CreatedAt time.Time
	TTL       time.Duration
}

// ExpiresAt is when the signed URL stops being usable.
func (e Entry) ExpiresAt() time.Time {
	return e.CreatedAt.Add(e.TTL)
}

// Fresh reports whether the entry is still within its TTL window.
func (e Entry) Fresh(now time.Time) bool {
	return now.Before(e.ExpiresAt())
}
