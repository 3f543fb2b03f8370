package application

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/sp3dr4/finch/internal/cache"
	"github.com/sp3dr4/finch/internal/domain"
)

// URLService is the consumer-facing facade over the refresh-ahead
// cache: it validates requests and translates them into cache calls.
type URLService struct {
	cache    *cache.Cache
	validate *validator.Validate
}

func NewURLService(c *cache.Cache) *URLService {
	return &URLService{
		cache:    c,
		validate: validator.New(),
	}
}

type LookupRequest struct {
	ResourceID string `json:"resourceId" validate:"required"`
	Index      int    `json:"index" validate:"min=0"`
	Fallback   string `json:"fallback,omitempty" validate:"omitempty,url"`
}

type RefreshRequest struct {
	ResourceID string `json:"resourceId" validate:"required"`
	Index      int    `json:"index" validate:"min=0"`
}

type URLResponse struct {
	URL     string `json:"url"`
	Fresh   bool   `json:"fresh"`
	Version uint64 `json:"version"`
}

// Lookup returns a usable URL for the requested slot. It never blocks:
// a stale entry is returned as-is while a refresh happens in the
// background. ErrUnknownKey is returned when there is no entry yet and
// the request carried no fallback to seed one from.
func (s *URLService) Lookup(req LookupRequest) (*URLResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	key := domain.Key{ResourceID: req.ResourceID, Index: req.Index}
	url := s.cache.GetURL(key, req.Fallback)
	if url == "" {
		return nil, domain.ErrUnknownKey
	}

	return &URLResponse{
		URL:     url,
		Fresh:   s.cache.Fresh(key),
		Version: s.cache.Version(),
	}, nil
}

// Refresh forces a reissue for the requested slot and waits for the
// outcome. This is the broken-image path: the consumer saw the current
// URL fail to load and needs a fresh one now.
func (s *URLService) Refresh(ctx context.Context, req RefreshRequest) (*URLResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	key := domain.Key{ResourceID: req.ResourceID, Index: req.Index}
	url, err := s.cache.RefreshURL(ctx, key)
	if err != nil {
		return nil, err
	}

	return &URLResponse{
		URL:     url,
		Fresh:   s.cache.Fresh(key),
		Version: s.cache.Version(),
	}, nil
}

// Version exposes the cache's change counter for consumer polling.
func (s *URLService) Version() uint64 {
	return s.cache.Version()
}

// EntryCount reports how many URL slots the cache currently holds.
func (s *URLService) EntryCount() int {
	return s.cache.Len()
}
