package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "maternity"

// Metrics owns a private registry so every test can build its own set.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	authorizationDecisions *prometheus.CounterVec
	storeOperations        *prometheus.CounterVec
	storeDuration          *prometheus.HistogramVec
	flagsCreated           *prometheus.CounterVec
	flagDuplicates         *prometheus.CounterVec
	notifications          *prometheus.CounterVec
	flagsSwept             prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		authorizationDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorization_decisions_total",
			Help:      "Authorization decisions by outcome.",
		}, []string{"role", "resource_type", "action", "decision", "reason"}),
		storeOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Resource store operations by outcome kind.",
		}, []string{"store", "operation", "resource_type", "outcome"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Resource store operation latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"store", "operation"}),
		flagsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerting_flags_created_total",
			Help:      "Risk flags raised by the alerting pipeline.",
		}, []string{"condition"}),
		flagDuplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerting_flag_duplicates_total",
			Help:      "Flag intents skipped because an active flag already existed.",
		}, []string{"condition"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerting_notifications_total",
			Help:      "Notification intents handed to the publisher.",
		}, []string{"urgency", "outcome"}),
		flagsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerting_flags_expired_total",
			Help:      "Active flags inactivated by the expiry sweep.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpInFlight,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.authorizationDecisions,
		m.storeOperations,
		m.storeDuration,
		m.flagsCreated,
		m.flagDuplicates,
		m.notifications,
		m.flagsSwept,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveAuthorization(role, resourceType, action string, allowed bool, reason string) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	m.authorizationDecisions.WithLabelValues(role, resourceType, action, decision, reason).Inc()
}

func (m *Metrics) ObserveStoreOperation(store, operation, resourceType, outcome string, started time.Time) {
	m.storeOperations.WithLabelValues(store, operation, resourceType, outcome).Inc()
	m.storeDuration.WithLabelValues(store, operation).Observe(time.Since(started).Seconds())
}

func (m *Metrics) FlagCreated(condition string) {
	m.flagsCreated.WithLabelValues(condition).Inc()
}

func (m *Metrics) FlagDuplicate(condition string) {
	m.flagDuplicates.WithLabelValues(condition).Inc()
}

func (m *Metrics) NotificationPublished(urgency string, err error) {
	outcome := "published"
	if err != nil {
		outcome = "failed"
	}
	m.notifications.WithLabelValues(urgency, outcome).Inc()
}

func (m *Metrics) FlagsSwept(count int) {
	m.flagsSwept.Add(float64(count))
}

// Instrument records RPS, latency and in-flight requests per chi route.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if routeContext := chi.RouteContext(r.Context()); routeContext != nil {
			if pattern := routeContext.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := strconv.Itoa(sw.code)

		m.httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
