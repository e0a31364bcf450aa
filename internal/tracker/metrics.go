//nolint:gochecknoglobals
package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "patrolhub",
		Name:      "events_processed",
		Help:      "The total number of connection events processed",
	}, []string{"type"})

	observersMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "patrolhub",
		Name:      "observers",
		Help:      "The number of connected observers",
	})
)
