// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package serializer provides the keyed write lock that makes compound store
// mutations (delete-then-insert, read-then-write) atomic with respect to each
// other.
package serializer

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lock scopes
const (
	ScopeMeeting = "meeting"
	ScopeGlobal  = "global"
)

const globalKey = "*"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Serializer hands out one mutex per key. Entries are reference counted and
// dropped once nobody holds or waits on them.
type Serializer struct {
	scope   string
	mu      sync.Mutex
	entries map[string]*entry
	metrics *serializerMetrics
}

type serializerMetrics struct {
	wait    prometheus.Histogram
	holders prometheus.Gauge
}

// New creates a Serializer. An unknown scope is an error; an empty scope
// means ScopeMeeting.
func New(scope string, promRegistry prometheus.Registerer) (*Serializer, error) {
	switch scope {
	case "":
		scope = ScopeMeeting
	case ScopeMeeting, ScopeGlobal:
	default:
		return nil, fmt.Errorf("unknown lock scope %q (must be %q or %q)", scope, ScopeMeeting, ScopeGlobal)
	}
	s := &Serializer{
		scope:   scope,
		entries: make(map[string]*entry),
	}
	if promRegistry != nil {
		factory := promauto.With(promRegistry)
		s.metrics = &serializerMetrics{
			wait: factory.NewHistogram(prometheus.HistogramOpts{
				Name:    "quorumvote_write_lock_wait_seconds",
				Help:    "time spent waiting for the write lock",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
			}),
			holders: factory.NewGauge(prometheus.GaugeOpts{
				Name: "quorumvote_write_lock_keys",
				Help: "number of keys currently locked or awaited",
			}),
		}
	}
	return s, nil
}

// Scope returns the configured lock scope.
func (s *Serializer) Scope() string {
	return s.scope
}

// Lock blocks until the lock for key is held and returns the release func.
// Under ScopeGlobal every key maps to the same lock.
func (s *Serializer) Lock(key string) func() {
	if s.scope == ScopeGlobal {
		key = globalKey
	}
	start := time.Now()

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
		if s.metrics != nil {
			s.metrics.holders.Inc()
		}
	}
	e.refs++
	s.mu.Unlock()

	e.mu.Lock()
	if s.metrics != nil {
		s.metrics.wait.Observe(time.Since(start).Seconds())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			s.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(s.entries, key)
				if s.metrics != nil {
					s.metrics.holders.Dec()
				}
			}
			s.mu.Unlock()
		})
	}
}

// Do runs fn while holding the lock for key. The lock is released when fn
// returns, errors, or panics.
func (s *Serializer) Do(key string, fn func() error) error {
	unlock := s.Lock(key)
	defer unlock()
	return fn()
}
