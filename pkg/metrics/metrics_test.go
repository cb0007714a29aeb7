package metrics_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/tollgate/pkg/metrics"
	"github.com/JaimeStill/tollgate/pkg/repository"
)

func newMetrics(t *testing.T) (*metrics.Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg, nil)
	require.NoError(t, err)
	return m, reg
}

func TestMiddlewareNormalizesPaths(t *testing.T) {
	m, _ := newMetrics(t)

	h := m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	for _, id := range []string{"3f2c1a9e-8d7b-4c6a-9e5f-1a2b3c4d5e6f", "9b1d7c20-1111-4c6a-9e5f-1a2b3c4d5e6f"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/classifications/jobs/"+id, nil)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, `tollgate_http_requests_total{method="GET",path="/api/v1/classifications/jobs/:param",status="404"} 2`)
}

func TestObserveRecordsErrorKind(t *testing.T) {
	m, reg := newMetrics(t)

	m.Observe(context.Background(), repository.Operation{
		Table:      "accounts",
		Name:       "create",
		Duration:   20 * time.Millisecond,
		Statements: 1,
		Err:        repository.Classify(&pgconn.PgError{Code: "23505"}),
	})
	m.Observe(context.Background(), repository.Operation{
		Table: "accounts",
		Name:  "update",
		Err:   errors.New("boom"),
	})

	expected := `
# HELP tollgate_repository_errors_total Failed repository operations by error kind.
# TYPE tollgate_repository_errors_total counter
tollgate_repository_errors_total{kind="application",operation="update",table="accounts"} 1
tollgate_repository_errors_total{kind="unique_violation",operation="create",table="accounts"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "tollgate_repository_errors_total"))
}

func TestProviderCall(t *testing.T) {
	m, reg := newMetrics(t)

	m.ProviderCall("classify", http.StatusOK, time.Second)
	m.ProviderCall("classify", 0, time.Second)

	expected := `
# HELP tollgate_provider_requests_total Requests sent to the classification provider.
# TYPE tollgate_provider_requests_total counter
tollgate_provider_requests_total{endpoint="classify",status="200"} 1
tollgate_provider_requests_total{endpoint="classify",status="error"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "tollgate_provider_requests_total"))
}

func TestNewToleratesDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.New(reg, nil)
	require.NoError(t, err)
	_, err = metrics.New(reg, nil)
	assert.NoError(t, err)
}
