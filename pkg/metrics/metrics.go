// Package metrics exposes Prometheus instrumentation for HTTP traffic,
// repository operations, provider calls, and the database pool.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/tollgate/pkg/repository"
)

const namespace = "tollgate"

// Metrics owns the collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInflight *prometheus.GaugeVec

	dbDuration   *prometheus.HistogramVec
	dbErrors     *prometheus.CounterVec
	dbStatements *prometheus.CounterVec

	providerRequests *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
}

// New registers every collector on reg. When pool is non-nil its
// connection statistics are exported as gauges.
func New(reg *prometheus.Registry, pool func() *pgxpool.Pool) (*Metrics, error) {
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests processed.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_inflight_requests",
			Help:      "HTTP requests being served.",
		}, []string{"method", "path"}),
		dbDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "repository_operation_duration_seconds",
			Help:      "Repository operation latency.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		}, []string{"table", "operation"}),
		dbErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repository_errors_total",
			Help:      "Failed repository operations by error kind.",
		}, []string{"table", "operation", "kind"}),
		dbStatements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repository_statements_total",
			Help:      "SQL statements issued by repository operations.",
		}, []string{"table", "operation"}),
		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Requests sent to the classification provider.",
		}, []string{"endpoint", "status"}),
		providerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Classification provider latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}

	cs := []prometheus.Collector{
		m.httpRequests, m.httpDuration, m.httpInflight,
		m.dbDuration, m.dbErrors, m.dbStatements,
		m.providerRequests, m.providerDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	if pool != nil {
		cs = append(cs, newPoolCollector(pool))
	}

	for _, c := range cs {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware instruments requests with counters, latency, and in-flight gauges.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := normalizePath(r.URL.Path)

			inflight := m.httpInflight.WithLabelValues(r.Method, path)
			inflight.Inc()
			start := time.Now()

			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				inflight.Dec()
				m.httpDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())

				status := rec.status
				if status == 0 {
					status = http.StatusOK
				}
				m.httpRequests.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
			}()

			next.ServeHTTP(rec, r)
		})
	}
}

// Observe records a repository operation. Metrics satisfies repository.Observer.
func (m *Metrics) Observe(_ context.Context, op repository.Operation) {
	m.dbDuration.WithLabelValues(op.Table, op.Name).Observe(op.Duration.Seconds())
	m.dbStatements.WithLabelValues(op.Table, op.Name).Add(float64(op.Statements))

	if op.Err != nil {
		kind := "application"
		var dbErr *repository.DBError
		if errors.As(op.Err, &dbErr) {
			kind = string(dbErr.Kind)
		}
		m.dbErrors.WithLabelValues(op.Table, op.Name, kind).Inc()
	}
}

// ProviderCall records one request to the classification provider.
// A zero status means the request failed before a response arrived.
func (m *Metrics) ProviderCall(endpoint string, status int, d time.Duration) {
	label := strconv.Itoa(status)
	if status == 0 {
		label = "error"
	}
	m.providerRequests.WithLabelValues(endpoint, label).Inc()
	m.providerDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// registerCollector registers c on reg, tolerating duplicates.
func registerCollector(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
