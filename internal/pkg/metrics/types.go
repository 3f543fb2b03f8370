package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry defines the interface for metrics collection. It covers the
// HTTP surface and, through the cache event methods, doubles as the
// cache package's Metrics hook.
type Registry interface {
	// HTTP Metrics
	RecordHTTPRequest(method, path, statusCode string, duration float64)
	IncHTTPRequestsInFlight()
	DecHTTPRequestsInFlight()

	// Cache events
	CacheHit()
	StaleRead()
	EntrySeeded()
	EntryRefreshed()
	ProactiveRefresh()
	RefreshRetried()
	RefreshFailed()
	BatchDispatched(size int)
	PendingKeys(n int)

	// Prometheus-specific methods
	GetRegistry() *prometheus.Registry
	GetHandler() http.Handler
}

// NoOpRegistry provides a no-op implementation for when metrics are disabled
type NoOpRegistry struct{}

func NewNoOpRegistry() Registry {
	return &NoOpRegistry{}
}

func (n *NoOpRegistry) RecordHTTPRequest(method, path, statusCode string, duration float64) {}
func (n *NoOpRegistry) IncHTTPRequestsInFlight()                                            {}
func (n *NoOpRegistry) DecHTTPRequestsInFlight()                                            {}
func (n *NoOpRegistry) CacheHit()                                                           {}
func (n *NoOpRegistry) StaleRead()                                                          {}
func (n *NoOpRegistry) EntrySeeded()                                                        {}
func (n *NoOpRegistry) EntryRefreshed()                                                     {}
func (n *NoOpRegistry) ProactiveRefresh()                                                   {}
func (n *NoOpRegistry) RefreshRetried()                                                     {}
func (n *NoOpRegistry) RefreshFailed()                                                      {}
func (n *NoOpRegistry) BatchDispatched(size int)                                            {}
func (n *NoOpRegistry) PendingKeys(count int)                                               {}
func (n *NoOpRegistry) GetRegistry() *prometheus.Registry                                   { return nil }
func (n *NoOpRegistry) GetHandler() http.Handler                                            { return nil }

// Common label names as constants
const (
	LabelMethod     = "method"
	LabelPath       = "path"
	LabelStatusCode = "status_code"
)
