package routing

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// ExamplePattern is the websocket path pattern bound to the example consumer.
const ExamplePattern = `example/ws/$`

// Route binds a path pattern to a handler.
//
// Pattern is a regular expression matched from the start of the request path
// with its leading "/" removed, so `example/ws/$` matches "/example/ws/" and
// nothing else.
type Route struct {
	Name    string
	Pattern string
	Handler http.Handler
}

type compiledRoute struct {
	Route
	re *regexp.Regexp
}

// Table is an immutable, ordered set of routes. The first route whose pattern
// matches wins.
type Table struct {
	routes []compiledRoute
}

// New compiles routes into a Table. It rejects empty or invalid patterns,
// nil handlers, and duplicate patterns.
func New(routes ...Route) (*Table, error) {
	if len(routes) == 0 {
		return nil, errors.New("routing: no routes")
	}
	seen := make(map[string]struct{}, len(routes))
	t := &Table{routes: make([]compiledRoute, 0, len(routes))}
	for _, r := range routes {
		if r.Pattern == "" {
			return nil, fmt.Errorf("routing: route %q: empty pattern", r.Name)
		}
		if r.Handler == nil {
			return nil, fmt.Errorf("routing: route %q: nil handler", r.Name)
		}
		if _, dup := seen[r.Pattern]; dup {
			return nil, fmt.Errorf("routing: duplicate pattern %q", r.Pattern)
		}
		seen[r.Pattern] = struct{}{}

		re, err := regexp.Compile(`^(?:` + r.Pattern + `)`)
		if err != nil {
			return nil, fmt.Errorf("routing: route %q: %w", r.Name, err)
		}
		t.routes = append(t.routes, compiledRoute{Route: r, re: re})
	}
	return t, nil
}

// Websocket returns the table of websocket routes: ExamplePattern bound to
// consumer.
func Websocket(consumer http.Handler) (*Table, error) {
	return New(Route{Name: "example-consumer", Pattern: ExamplePattern, Handler: consumer})
}

// Resolve returns the first route matching path.
func (t *Table) Resolve(path string) (Route, bool) {
	p := strings.TrimPrefix(path, "/")
	for _, r := range t.routes {
		if r.re.MatchString(p) {
			return r.Route, true
		}
	}
	return Route{}, false
}

// Routes returns a copy of the table's routes in match order.
func (t *Table) Routes() []Route {
	out := make([]Route, 0, len(t.routes))
	for _, r := range t.routes {
		out = append(out, r.Route)
	}
	return out
}

// ServeHTTP dispatches to the matching route's handler, or 404.
func (t *Table) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route, ok := t.Resolve(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	route.Handler.ServeHTTP(w, r)
}
