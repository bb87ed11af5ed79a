package gateway

import (
	"context"
	"strings"

	"github.com/tuannvm/jira-gateway/internal/apierror"
	"github.com/tuannvm/jira-gateway/internal/jira"
	"github.com/tuannvm/jira-gateway/internal/models"
)

// Wildcard matches zero or more trailing path segments. It may only be the last segment of a pattern.
const Wildcard = "**"

// Request is what an operation sees: the inbound event, its path relative to the
// mode's base path, and a tracker bound to the resolved credentials.
type Request struct {
	Event   models.InboundEvent
	Rel     []string
	Tracker jira.Tracker
}

// Operation executes one route
type Operation func(ctx context.Context, req Request) (models.GatewayResponse, error)

// Route binds a method and a segment pattern to an operation
type Route struct {
	Method    string
	Pattern   string
	Name      string
	Operation Operation
	segments  []string
}

// Matches reports whether rel, already relative to the base path, matches the route pattern
func (r Route) Matches(rel []string) bool {
	pattern := r.segments
	if pattern == nil {
		pattern = splitPath(r.Pattern)
	}
	for i, seg := range pattern {
		if seg == Wildcard {
			return true
		}
		if i >= len(rel) || rel[i] != seg {
			return false
		}
	}
	return len(rel) == len(pattern)
}

// Table is an ordered route table. The first matching route wins.
type Table struct {
	BasePath string
	Routes   []Route
}

// NewTable compiles the route patterns under basePath
func NewTable(basePath string, routes ...Route) Table {
	compiled := make([]Route, len(routes))
	for i, r := range routes {
		r.segments = splitPath(r.Pattern)
		compiled[i] = r
	}
	return Table{BasePath: "/" + strings.Join(splitPath(basePath), "/"), Routes: compiled}
}

// Lookup finds the route for method and path. Paths outside the base path or with no
// matching pattern are NotFound; a matching pattern under another method is MethodNotSupported.
func (t Table) Lookup(method, path string) (Route, []string, error) {
	rel, ok := relative(splitPath(t.BasePath), splitPath(path))
	if !ok {
		return Route{}, nil, errEndpointNotFound
	}

	pathMatched := false
	for _, r := range t.Routes {
		if !r.Matches(rel) {
			continue
		}
		if strings.EqualFold(r.Method, method) {
			return r, rel, nil
		}
		pathMatched = true
	}

	if pathMatched {
		return Route{}, nil, errMethodNotSupported
	}
	return Route{}, nil, errEndpointNotFound
}

var (
	errEndpointNotFound   = apierror.NotFound("Endpoint not found")
	errMethodNotSupported = apierror.MethodNotSupported("Method not supported")
)

// splitPath returns the non-empty segments of p, so "/a//b/" and "a/b" are equivalent
func splitPath(p string) []string {
	parts := strings.Split(p, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// relative strips base from path on segment boundaries
func relative(base, path []string) ([]string, bool) {
	if len(path) < len(base) {
		return nil, false
	}
	for i := range base {
		if path[i] != base[i] {
			return nil, false
		}
	}
	return path[len(base):], true
}
