package routes

import (
	"net/http"
	"strings"

	"github.com/JaimeStill/tollgate/pkg/openapi"
)

// Group organizes routes under a common prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds all routes from the given groups to the mux without a guard.
func Register(mux *http.ServeMux, groups ...Group) {
	RegisterGuarded(mux, nil, groups...)
}

// RegisterGuarded adds all routes from the given groups to the mux, wrapping
// every non-public route with guard. A nil guard leaves routes unwrapped.
func RegisterGuarded(mux *http.ServeMux, guard func(http.Handler) http.Handler, groups ...Group) {
	for _, group := range groups {
		registerGroup(mux, guard, "", group)
	}
}

// Patterns lists the "METHOD /path" pattern of every route, depth first.
func Patterns(groups ...Group) []string {
	var out []string
	for _, g := range groups {
		walk("", g, func(pattern string, _ Route) {
			out = append(out, pattern)
		})
	}
	return out
}

func registerGroup(mux *http.ServeMux, guard func(http.Handler) http.Handler, parentPrefix string, group Group) {
	walk(parentPrefix, group, func(pattern string, route Route) {
		var h http.Handler = route.Handler
		if guard != nil && !route.Public {
			h = guard(h)
		}
		mux.Handle(pattern, h)
	})
}

func walk(parentPrefix string, group Group, visit func(pattern string, route Route)) {
	fullPrefix := parentPrefix + group.Prefix
	for _, route := range group.Routes {
		visit(route.Method+" "+fullPrefix+route.Pattern, route)
	}
	for _, child := range group.Children {
		walk(fullPrefix, child, visit)
	}
}

// Document adds every route carrying a Doc to spec, prefixing paths with basePath.
func Document(spec *openapi.Spec, basePath string, groups ...Group) {
	for _, g := range groups {
		walk(basePath, g, func(pattern string, route Route) {
			_, path, _ := strings.Cut(pattern, " ")
			spec.Add(route.Method, path, route.Doc, !route.Public)
		})
	}
}
