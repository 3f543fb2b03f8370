// Package cache keeps consumers supplied with currently valid signed
// URLs. Entries are refreshed ahead of expiry, refresh requests for the
// same key are coalesced, and pending keys are dispatched to the issuer
// in debounced batches with bounded retry.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/sp3dr4/finch/internal/domain"
)

const (
	DefaultDebounce         = 500 * time.Millisecond
	DefaultMaxBatchSize     = 20
	DefaultMaxRetries       = 2
	DefaultRefreshThreshold = 0.8
	DefaultExpiry           = 180 * time.Second
)

// Config tunes the refresh machinery. Zero values fall back to the
// package defaults.
type Config struct {
	// Debounce is how long dispatch waits after the last enqueue so
	// that concurrent refreshes accumulate into one batch.
	Debounce time.Duration

	// MaxBatchSize caps how many keys go into a single issuer call.
	MaxBatchSize int

	// MaxRetries is how many times a failed key is re-queued before
	// its waiters are rejected. A key is attempted MaxRetries+1 times.
	// Negative disables retries.
	MaxRetries int

	// RefreshThreshold is the fraction of an entry's TTL after which
	// a proactive background refresh fires.
	RefreshThreshold float64

	// DefaultExpiry seeds the global expiry setting until the issuer
	// reports its authoritative value.
	DefaultExpiry time.Duration
}

func (c Config) withDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = DefaultMaxBatchSize
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	} else if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RefreshThreshold <= 0 || c.RefreshThreshold >= 1 {
		c.RefreshThreshold = DefaultRefreshThreshold
	}
	if c.DefaultExpiry <= 0 {
		c.DefaultExpiry = DefaultExpiry
	}
	return c
}

type result struct {
	url string
	err error
}

// pendingRequest tracks one outstanding refresh for a key. Every
// concurrent caller is attached as an additional waiter so all of them
// settle together when the batch result arrives.
type pendingRequest struct {
	retries int
	waiters []chan result
}

// Cache is the refresh-ahead store. All maps are owned by the single
// mutex; every mutation that influences batch composition happens
// under it, never after the issuer call has started.
type Cache struct {
	cfg     Config
	issuer  domain.Issuer
	logger  *slog.Logger
	metrics Metrics
	clock   clock.Clock

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	entries     map[domain.Key]domain.Entry
	pending     map[domain.Key]*pendingRequest
	order       []domain.Key
	timers      map[domain.Key]*clock.Timer
	debounce    *clock.Timer
	dispatching bool
	closed      bool
	expiry      time.Duration
	version     uint64
}

// New creates a Cache around the given issuer. Logger, metrics, and
// clock may be nil; they default to slog.Default, NopMetrics, and the
// real clock.
func New(issuer domain.Issuer, cfg Config, logger *slog.Logger, metrics Metrics, clk clock.Clock) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if clk == nil {
		clk = clock.New()
	}
	cfg = cfg.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		cfg:     cfg,
		issuer:  issuer,
		logger:  logger,
		metrics: metrics,
		clock:   clk,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[domain.Key]domain.Entry),
		pending: make(map[domain.Key]*pendingRequest),
		timers:  make(map[domain.Key]*clock.Timer),
		expiry:  cfg.DefaultExpiry,
	}
}

// GetURL returns a usable URL for key without ever blocking.
//
// A fresh entry is returned as-is. When no entry exists yet, fallback
// (for example a server-rendered URL assumed to be issued now) seeds
// one and its proactive refresh is scheduled. A stale entry is still
// returned immediately while a background refresh is enqueued; callers
// that need the outcome use RefreshURL instead.
func (c *Cache) GetURL(key domain.Key, fallback string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fallback
	}

	now := c.clock.Now()
	ent, ok := c.entries[key]
	if ok && ent.Fresh(now) {
		c.metrics.CacheHit()
		return ent.URL
	}

	if !ok {
		if fallback == "" {
			return ""
		}
		c.entries[key] = domain.Entry{URL: fallback, CreatedAt: now, TTL: c.expiry}
		c.version++
		c.metrics.EntrySeeded()
		c.scheduleLocked(key)
		return fallback
	}

	// Stale: the old URL may still load, and whoever consumes it has
	// RefreshURL as the last-resort recovery path.
	c.metrics.StaleRead()
	c.enqueueLocked(key, nil)
	return ent.URL
}

// RefreshURL enqueues a refresh for key and blocks the caller until
// the batch result settles, the context is done, or the cache closes.
// Concurrent calls for the same key share one outstanding request.
func (c *Cache) RefreshURL(ctx context.Context, key domain.Key) (string, error) {
	ch := make(chan result, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", domain.ErrCacheClosed
	}
	c.enqueueLocked(key, ch)
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		return res.url, res.err
	}
}

// Entry returns a snapshot of the stored entry for key.
func (c *Cache) Entry(key domain.Key) (domain.Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ent, ok := c.entries[key]
	return ent, ok
}

// Fresh reports whether key has an entry that is still within its TTL.
func (c *Cache) Fresh(key domain.Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ent, ok := c.entries[key]
	return ok && ent.Fresh(c.clock.Now())
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Version is a counter that increases on every entry create or update.
// Consumers poll it to know when to re-read GetURL.
func (c *Cache) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Close tears the cache down: the debounce timer and every per-key
// timer are stopped, the in-flight issuer call is cancelled, all
// pending waiters are rejected with ErrCacheClosed, and the maps are
// cleared. Safe to call more than once.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.cancel()

	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
	for key, t := range c.timers {
		t.Stop()
		delete(c.timers, key)
	}
	for key, p := range c.pending {
		settle(p, result{err: domain.ErrCacheClosed})
		delete(c.pending, key)
	}
	c.metrics.PendingKeys(0)
	c.order = nil
	c.entries = make(map[domain.Key]domain.Entry)

	c.logger.Info("URL cache closed")
	return nil
}

// enqueueLocked registers a refresh for key and (re)arms the debounce
// timer. A nil waiter enqueues a fire-and-forget background refresh.
func (c *Cache) enqueueLocked(key domain.Key, waiter chan result) {
	p, ok := c.pending[key]
	if !ok {
		p = &pendingRequest{}
		c.pending[key] = p
		c.order = append(c.order, key)
	}
	if waiter != nil {
		p.waiters = append(p.waiters, waiter)
	}
	c.metrics.PendingKeys(len(c.pending))
	c.armDebounceLocked()
}

func (c *Cache) armDebounceLocked() {
	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.debounce = c.clock.AfterFunc(c.cfg.Debounce, c.onDebounce)
}

// onDebounce starts a dispatch cycle unless one is already in flight.
// Batch composition happens here, under the lock, before any network
// activity.
func (c *Cache) onDebounce() {
	c.mu.Lock()
	if c.closed || c.dispatching || len(c.order) == 0 {
		c.mu.Unlock()
		return
	}

	n := len(c.order)
	if n > c.cfg.MaxBatchSize {
		n = c.cfg.MaxBatchSize
	}
	batch := make([]domain.Key, n)
	copy(batch, c.order[:n])
	c.order = c.order[n:]
	c.dispatching = true
	c.mu.Unlock()

	c.dispatch(batch)
}

func (c *Cache) dispatch(batch []domain.Key) {
	res, err := c.issuer.Reissue(c.ctx, batch)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		// Close already rejected every waiter.
		return
	}

	c.metrics.BatchDispatched(len(batch))

	if err != nil {
		c.logger.Error("Batch reissue failed", "keys", len(batch), "error", err)
		for _, key := range batch {
			c.retryOrRejectLocked(key, fmt.Errorf("%w: %v", domain.ErrRefreshFailed, err))
		}
	} else {
		// The issuer's expiry applies to the entries this response is
		// about to rewrite, and to everything created afterwards. It
		// never rewrites TTLs already stamped on other entries.
		if res.ExpirySeconds > 0 {
			c.expiry = time.Duration(res.ExpirySeconds) * time.Second
		}

		byKey := make(map[domain.Key]domain.Reissued, len(res.Items))
		for _, it := range res.Items {
			byKey[it.Key] = it
		}

		now := c.clock.Now()
		for _, key := range batch {
			it, ok := byKey[key]
			switch {
			case ok && it.Success && it.URL != "":
				c.applyLocked(key, it.URL, now)
			case ok && it.Error != "":
				c.retryOrRejectLocked(key, fmt.Errorf("%w: %s", domain.ErrRefreshFailed, it.Error))
			default:
				c.retryOrRejectLocked(key, fmt.Errorf("%w: key missing from response", domain.ErrRefreshFailed))
			}
		}
	}

	c.dispatching = false
	if len(c.order) > 0 {
		// Retries or arrivals that came in while we were in flight.
		c.armDebounceLocked()
	}
}

func (c *Cache) applyLocked(key domain.Key, url string, now time.Time) {
	c.entries[key] = domain.Entry{URL: url, CreatedAt: now, TTL: c.expiry}
	c.version++
	c.metrics.EntryRefreshed()

	if p, ok := c.pending[key]; ok {
		delete(c.pending, key)
		c.metrics.PendingKeys(len(c.pending))
		settle(p, result{url: url})
	}
	c.scheduleLocked(key)
}

func (c *Cache) retryOrRejectLocked(key domain.Key, err error) {
	p, ok := c.pending[key]
	if !ok {
		return
	}
	if p.retries < c.cfg.MaxRetries {
		p.retries++
		c.order = append(c.order, key)
		c.metrics.RefreshRetried()
		return
	}
	delete(c.pending, key)
	c.metrics.PendingKeys(len(c.pending))
	c.metrics.RefreshFailed()
	c.logger.Warn("Refresh retries exhausted", "key", key.String(), "error", err)
	settle(p, result{err: err})
}

// scheduleLocked arms the proactive refresh timer for key at
// RefreshThreshold of its TTL, cancelling any prior timer first. At
// most one live timer exists per key.
func (c *Cache) scheduleLocked(key domain.Key) {
	if t, ok := c.timers[key]; ok {
		t.Stop()
		delete(c.timers, key)
	}
	ent, ok := c.entries[key]
	if !ok {
		return
	}

	fireAt := ent.CreatedAt.Add(time.Duration(float64(ent.TTL) * c.cfg.RefreshThreshold))
	delay := fireAt.Sub(c.clock.Now())
	if delay < 0 {
		delay = 0
	}
	c.timers[key] = c.clock.AfterFunc(delay, func() {
		c.proactiveRefresh(key)
	})
}

// proactiveRefresh runs when a key's timer fires. Nobody awaits the
// outcome: on success the dispatcher re-arms the timer, on failure the
// next GetURL finds a stale entry and retries through the normal path.
func (c *Cache) proactiveRefresh(key domain.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	delete(c.timers, key)
	c.metrics.ProactiveRefresh()
	c.enqueueLocked(key, nil)
}

func settle(p *pendingRequest, res result) {
	for _, w := range p.waiters {
		// Buffered; never blocks even if the waiter already gave up.
		w <- res
	}
}
