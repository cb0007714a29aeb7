package module_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/tollgate/pkg/module"
)

func echoPath(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(r.URL.Path))
}

func TestRouterDispatchesToModule(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/engines", echoPath)

	router := module.NewRouter()
	router.Mount(module.New("/api", mux))
	router.HandleNative("GET /healthz", echoPath)

	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/engines", "/v1/engines"},
		{"/api/v1/engines/", "/v1/engines"},
		{"/healthz", "/healthz"},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.Handler().ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
		assert.Equal(t, tt.want, rec.Body.String(), tt.path)
	}
}

func TestRouterMiddlewareWrapsNative(t *testing.T) {
	router := module.NewRouter()
	router.HandleNative("GET /healthz", echoPath)
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Wrapped", "yes")
			next.ServeHTTP(w, r)
		})
	})

	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, "yes", rec.Header().Get("X-Wrapped"))
}

func TestNewRejectsNestedPrefix(t *testing.T) {
	assert.Panics(t, func() { module.New("/api/v1", http.NewServeMux()) })
	assert.Panics(t, func() { module.New("api", http.NewServeMux()) })
}
