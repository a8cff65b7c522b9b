package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

// Queue holds the collectors of a client that watches one offline queue.
type Queue struct {
	registry *prometheus.Registry
	log      zerolog.Logger

	depth       prometheus.Gauge
	syncPending prometheus.Gauge
	online      prometheus.Gauge
	transitions prometheus.Counter
}

// NewQueue creates a registry with the Go collector plus the offline queue
// collectors.
func NewQueue(log zerolog.Logger) *Queue {
	q := &Queue{
		registry: prometheus.NewRegistry(),
		log:      log,
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "offline",
			Name:      "queue_depth",
			Help:      "Mutations waiting in the offline queue.",
		}),
		syncPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "offline",
			Name:      "sync_pending",
			Help:      "1 while queued writes have not reached the server.",
		}),
		online: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "offline",
			Name:      "online",
			Help:      "1 while the server answers health checks.",
		}),
		transitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "offline",
			Name:      "online_transitions_total",
			Help:      "Offline to online transitions, each of which starts a drain.",
		}),
	}
	q.registry.MustRegister(
		collectors.NewGoCollector(),
		q.depth,
		q.syncPending,
		q.online,
		q.transitions,
	)
	return q
}

// Handler serves the registry in the Prometheus exposition format.
func (q *Queue) Handler() http.Handler {
	return handlerFor(q.registry, q.log)
}

// ObserveQueue records the state of the queue.
func (q *Queue) ObserveQueue(depth int, syncPending bool) {
	q.depth.Set(float64(depth))
	q.syncPending.Set(boolGauge(syncPending))
}

// ObserveOnline records a connectivity change.
func (q *Queue) ObserveOnline(online bool) {
	if online {
		q.transitions.Inc()
	}
	q.online.Set(boolGauge(online))
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
