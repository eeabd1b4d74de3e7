// Package metrics tracks in-process application counters, exposed as JSON
// on the metrics endpoint.
package metrics

import (
	"sync"
	"time"
)

// Registry holds named counters. The zero value is not usable; construct
// with NewRegistry and inject where needed.
type Registry struct {
	mu       sync.RWMutex
	counters map[string]int64
	started  time.Time
}

// Counter names used across the service.
const (
	HTTPRequestsTotal     = "http_requests_total"
	GenerationsTotal      = "generations_total"
	GenerationErrorsTotal = "generation_errors_total"
	CacheHitsTotal        = "cache_hits_total"
	CacheMissesTotal      = "cache_misses_total"
	FetcherFailuresTotal  = "fetcher_failures_total"
)

// NewRegistry returns an empty registry stamped with the start time.
func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[string]int64),
		started:  time.Now().UTC(),
	}
}

// Inc adds one to a counter.
func (r *Registry) Inc(name string) {
	r.Add(name, 1)
}

// Add increments a counter by delta.
func (r *Registry) Add(name string, delta int64) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.counters[name] += delta
	r.mu.Unlock()
}

// Get returns the current value of one counter.
func (r *Registry) Get(name string) int64 {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counters[name]
}

// Snapshot returns a copy of all counters plus uptime seconds.
func (r *Registry) Snapshot() map[string]int64 {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(map[string]int64, len(r.counters)+1)
	for name, value := range r.counters {
		snapshot[name] = value
	}
	snapshot["uptime_seconds"] = int64(time.Since(r.started).Seconds())
	return snapshot
}
