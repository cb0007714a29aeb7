package routes

import (
	"net/http"

	"github.com/JaimeStill/tollgate/pkg/openapi"
)

// Route binds an HTTP method and pattern to a handler.
// Public routes are reachable without authentication.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	Public  bool
	Doc     *openapi.Operation
}
