package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus counters for the honeypot.
type Metrics struct {
	ConnectionsTotal  *prometheus.CounterVec
	ObservationsTotal *prometheus.CounterVec
	CredentialsTotal  *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a Metrics instance backed by its own registry so tests and
// multiple instances do not collide on the global default.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		ConnectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lurefield_connections_total",
			Help: "Total number of accepted connections per service",
		}, []string{"service"}),
		ObservationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lurefield_observations_total",
			Help: "Total number of emitted observations by service and severity",
		}, []string{"service", "severity"}),
		CredentialsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lurefield_credentials_total",
			Help: "Total number of captured credential attempts per service",
		}, []string{"service"}),
		registry: reg,
	}

	reg.MustRegister(m.ConnectionsTotal, m.ObservationsTotal, m.CredentialsTotal)
	return m
}

// IncConnections increments the connection counter for a service.
func (m *Metrics) IncConnections(service string) {
	m.ConnectionsTotal.WithLabelValues(service).Inc()
}

// IncObservations increments the observation counter.
func (m *Metrics) IncObservations(service, severity string) {
	m.ObservationsTotal.WithLabelValues(service, severity).Inc()
}

// IncCredentials increments the captured-credential counter for a service.
func (m *Metrics) IncCredentials(service string) {
	m.CredentialsTotal.WithLabelValues(service).Inc()
}

// Serve exposes /metrics on addr. Intended for an operator-side address,
// never for a honeypot-facing port.
func (m *Metrics) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
