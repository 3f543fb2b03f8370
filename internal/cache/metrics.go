package cache

// Metrics is what the cache wants to measure. The prometheus registry
// in internal/pkg/metrics implements it; callers that don't care pass
// nil and get NopMetrics.
type Metrics interface {
	// CacheHit is recorded when GetURL returns a fresh entry.
	CacheHit()

	// StaleRead is recorded when GetURL hands back an expired URL
	// while a background refresh is enqueued.
	StaleRead()

	// EntrySeeded is recorded when a fallback URL creates an entry.
	EntrySeeded()

	// EntryRefreshed is recorded on every successful reissue of a key.
	EntryRefreshed()

	// ProactiveRefresh is recorded when a per-key timer fires.
	ProactiveRefresh()

	// RefreshRetried is recorded when a failed key is re-queued.
	RefreshRetried()

	// RefreshFailed is recorded when a key exhausts its retries.
	RefreshFailed()

	// BatchDispatched is recorded once per issuer call with the
	// number of keys in the batch.
	BatchDispatched(size int)

	// PendingKeys tracks how many keys currently await dispatch.
	PendingKeys(n int)
}

// NopMetrics ignores all events.
type NopMetrics struct{}

func (NopMetrics) CacheHit()           {}
func (NopMetrics) StaleRead()          {}
func (NopMetrics) EntrySeeded()        {}
func (NopMetrics) EntryRefreshed()     {}
func (NopMetrics) ProactiveRefresh()   {}
func (NopMetrics) RefreshRetried()     {}
func (NopMetrics) RefreshFailed()      {}
func (NopMetrics) BatchDispatched(int) {}
func (NopMetrics) PendingKeys(int)     {}
