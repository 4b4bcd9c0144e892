// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package event

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type busMetrics struct {
	delivered   *prometheus.CounterVec
	dropped     *prometheus.CounterVec
	subscribers prometheus.Gauge
}

func (b *Bus) initMetrics(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	b.metrics = &busMetrics{
		delivered: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quorumvote_events_delivered_total",
				Help: "events accepted by a subscriber, by type",
			},
			[]string{"type"},
		),
		dropped: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quorumvote_events_dropped_total",
				Help: "events not delivered, by type and reason",
			},
			[]string{"type", "reason"},
		),
		subscribers: promautoFactory.NewGauge(
			prometheus.GaugeOpts{
				Name: "quorumvote_event_subscribers",
				Help: "current number of event subscribers",
			},
		),
	}
}
