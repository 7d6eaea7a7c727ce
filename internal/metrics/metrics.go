package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mbeoliero/parley/pkg/errcode"
)

const namespace = "parley"

// Registry holds every collector exported on /metrics
var Registry = prometheus.NewRegistry()

var (
	// Operations counts service operations by name and result code ("ok" on success)
	Operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Service operations by name and result.",
	}, []string{"op", "result"})

	// WSConnections is the number of open websocket connections
	WSConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ws_connections",
		Help:      "Open websocket connections.",
	})

	// NotifyPublishErrors counts change events that could not be published
	NotifyPublishErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notify_publish_errors_total",
		Help:      "Change events dropped because publishing failed.",
	})
)

func init() {
	Registry.MustRegister(
		Operations,
		WSConnections,
		NotifyPublishErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Observe records the outcome of one operation
func Observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = strconv.Itoa(errcode.From(err).Code)
	}
	Operations.WithLabelValues(op, result).Inc()
}

// Handler serves the registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
