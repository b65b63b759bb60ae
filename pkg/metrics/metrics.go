package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for echobox
type Metrics struct {
	// stream listener
	ConnectionsAccepted prometheus.Counter
	ConnectionErrors    prometheus.Counter
	LinesReceived       prometheus.Counter
	AcksWritten         prometheus.Counter

	// datagram reverser
	DatagramsReversed prometheus.Counter

	// demo api
	HTTPRequests *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a registry and registers all metrics on it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		ConnectionsAccepted: f.NewCounter(prometheus.CounterOpts{
			Name: "echobox_connections_accepted_total",
			Help: "Total number of stream connections accepted",
		}),
		ConnectionErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "echobox_connection_errors_total",
			Help: "Total number of stream connections abandoned on a read or write error",
		}),
		LinesReceived: f.NewCounter(prometheus.CounterOpts{
			Name: "echobox_lines_received_total",
			Help: "Total number of non-empty lines read from clients",
		}),
		AcksWritten: f.NewCounter(prometheus.CounterOpts{
			Name: "echobox_acks_written_total",
			Help: "Total number of acknowledgments written back",
		}),
		DatagramsReversed: f.NewCounter(prometheus.CounterOpts{
			Name: "echobox_datagrams_reversed_total",
			Help: "Total number of datagrams sent back reversed",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "echobox_http_requests_total",
			Help: "Total number of demo api requests",
		}, []string{"method", "path", "status"}),
		registry: reg,
	}
}

// Gatherer exposes the registry for the /metrics handler.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
