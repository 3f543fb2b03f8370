package integration

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sp3dr4/finch/internal/cache"
	"github.com/sp3dr4/finch/internal/domain"
	"github.com/sp3dr4/finch/internal/infrastructure/issuerhttp"
)

func newCacheAgainst(t *testing.T, s *issuerServer, cfg cache.Config) *cache.Cache {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := issuerhttp.NewClient(s.URL(), "cases", time.Second, logger)
	c := cache.New(client, cfg, logger, nil, nil)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRefreshFlow(t *testing.T) {
	s := newIssuerServer()
	defer s.Close()
	s.setExpirySeconds(240)

	c := newCacheAgainst(t, s, cache.Config{Debounce: 10 * time.Millisecond})

	key := domain.Key{ResourceID: "case1", Index: 1}
	url, err := c.RefreshURL(context.Background(), key)
	require.NoError(t, err)
	assert.Contains(t, url, "signed.example/case1/1")

	require.Equal(t, 1, s.batchCount())
	assert.Equal(t, []slotKey{{ResourceID: "case1", Index: 1}}, s.batch(0))

	// The entry adopted the issuer-reported lifetime.
	ent, ok := c.Entry(key)
	require.True(t, ok)
	assert.Equal(t, 240*time.Second, ent.TTL)
	assert.Equal(t, url, c.GetURL(key, ""))
}

func TestConcurrentRefreshesCoalesce(t *testing.T) {
	s := newIssuerServer()
	defer s.Close()

	c := newCacheAgainst(t, s, cache.Config{Debounce: 50 * time.Millisecond})

	key := domain.Key{ResourceID: "case1", Index: 1}
	const callers = 8

	var wg sync.WaitGroup
	urls := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			urls[i], errs[i] = c.RefreshURL(context.Background(), key)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, urls[0], urls[i])
	}

	// Everyone rode the same wire call.
	assert.Equal(t, 1, s.batchCount())
}

func TestRetryAfterTransportFailure(t *testing.T) {
	s := newIssuerServer()
	defer s.Close()
	s.setFailBatches(1)

	c := newCacheAgainst(t, s, cache.Config{Debounce: 10 * time.Millisecond})

	key := domain.Key{ResourceID: "case1", Index: 1}
	url, err := c.RefreshURL(context.Background(), key)
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	// First attempt hit the 503, second succeeded.
	assert.Equal(t, 2, s.batchCount())
}

func TestPerKeyFailureExhaustsRetries(t *testing.T) {
	s := newIssuerServer()
	defer s.Close()
	s.setFailKey("case1", 1, 10)

	c := newCacheAgainst(t, s, cache.Config{
		Debounce:   10 * time.Millisecond,
		MaxRetries: 2,
	})

	_, err := c.RefreshURL(context.Background(), domain.Key{ResourceID: "case1", Index: 1})
	require.ErrorIs(t, err, domain.ErrRefreshFailed)
	assert.Equal(t, 3, s.batchCount())
}

func TestProactiveRefreshKeepsEntryFresh(t *testing.T) {
	s := newIssuerServer()
	defer s.Close()

	c := newCacheAgainst(t, s, cache.Config{
		Debounce:         10 * time.Millisecond,
		RefreshThreshold: 0.5,
		DefaultExpiry:    400 * time.Millisecond,
	})

	key := domain.Key{ResourceID: "case1", Index: 1}
	seed := "https://cdn.example/seed"
	require.Equal(t, seed, c.GetURL(key, seed))
	versionAfterSeed := c.Version()

	// The timer fires at ~200ms and replaces the seeded URL.
	require.Eventually(t, func() bool {
		return c.Version() > versionAfterSeed
	}, 2*time.Second, 10*time.Millisecond)

	refreshed := c.GetURL(key, "")
	assert.NotEqual(t, seed, refreshed)
	assert.Contains(t, refreshed, "signed.example/case1/1")
	require.GreaterOrEqual(t, s.batchCount(), 1)
}

func TestBatchingAcrossKeys(t *testing.T) {
	s := newIssuerServer()
	defer s.Close()

	c := newCacheAgainst(t, s, cache.Config{Debounce: 100 * time.Millisecond})

	keys := []domain.Key{
		{ResourceID: "case1", Index: 0},
		{ResourceID: "case1", Index: 1},
		{ResourceID: "case2", Index: 0},
	}

	var wg sync.WaitGroup
	for _, k := range keys {
		wg.Add(1)
		go func(k domain.Key) {
			defer wg.Done()
			_, err := c.RefreshURL(context.Background(), k)
			assert.NoError(t, err)
		}(k)
	}
	wg.Wait()

	// All three keys rode one debounced batch.
	require.Equal(t, 1, s.batchCount())
	assert.Len(t, s.batch(0), 3)
}
