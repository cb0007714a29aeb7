package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/tollgate/pkg/openapi"
	"github.com/JaimeStill/tollgate/pkg/routes"
)

func ok(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func deny(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
}

func groups() routes.Group {
	return routes.Group{
		Prefix: "/auth",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/login", Handler: ok, Public: true},
			{Method: "GET", Pattern: "/me", Handler: ok},
		},
		Children: []routes.Group{{
			Prefix: "/sessions",
			Routes: []routes.Route{{Method: "DELETE", Pattern: "/{id}", Handler: ok}},
		}},
	}
}

func TestRegisterGuarded(t *testing.T) {
	mux := http.NewServeMux()
	routes.RegisterGuarded(mux, deny, groups())

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"POST", "/auth/login", http.StatusOK},
		{"GET", "/auth/me", http.StatusUnauthorized},
		{"DELETE", "/auth/sessions/42", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.want, rec.Code, "%s %s", tt.method, tt.path)
	}
}

func TestRegisterWithoutGuard(t *testing.T) {
	mux := http.NewServeMux()
	routes.Register(mux, groups())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/auth/me", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPatterns(t *testing.T) {
	assert.Equal(t, []string{
		"POST /auth/login",
		"GET /auth/me",
		"DELETE /auth/sessions/{id}",
	}, routes.Patterns(groups()))
}

func TestDocument(t *testing.T) {
	g := routes.Group{
		Prefix: "/v1/auth",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/login", Handler: ok, Public: true, Doc: &openapi.Operation{Summary: "Log in"}},
			{Method: "GET", Pattern: "/me", Handler: ok, Doc: &openapi.Operation{Summary: "Current account"}},
			{Method: "DELETE", Pattern: "/me", Handler: ok},
		},
	}

	spec := openapi.NewSpec(&openapi.Config{Title: "Test"}, "v1")
	routes.Document(spec, "/api", g)

	login := spec.Paths["/api/v1/auth/login"]
	if assert.NotNil(t, login) {
		assert.Equal(t, "Log in", login.Post.Summary)
		assert.Nil(t, login.Post.Security)
	}
	me := spec.Paths["/api/v1/auth/me"]
	if assert.NotNil(t, me) {
		assert.NotNil(t, me.Get.Security)
		assert.Nil(t, me.Delete)
	}
}
