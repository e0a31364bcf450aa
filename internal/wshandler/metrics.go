//nolint:gochecknoglobals
package wshandler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var dropMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "patrolhub",
	Name:      "events_dropped",
	Help:      "The total number of events dropped on slow observers",
}, []string{"type"})
