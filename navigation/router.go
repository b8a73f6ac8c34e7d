package navigation

import (
	"fmt"
	"strings"
)

// Well-known paths.
const (
	HomePath     = "/"
	StatsPath    = "/stats"
	SettingsPath = "/settings"
	NewTaskPath  = "/tasks/new"
	TaskPath     = "/tasks/:id"
	EditTaskPath = "/tasks/:id/edit"
	LoginPath    = "/login"
	RegisterPath = "/register"
)

// Gate controls who may stay on a route.
type Gate int

const (
	// Public routes are open to everyone.
	Public Gate = iota
	// Gated routes require a signed-in user.
	Gated
	// GuestOnly routes send signed-in users home.
	GuestOnly
)

func (g Gate) String() string {
	switch g {
	case Gated:
		return "gated"
	case GuestOnly:
		return "guest-only"
	default:
		return "public"
	}
}

// Route is a named path pattern.
type Route struct {
	Pattern string
	Name    string
	Gate    Gate
}

// Params holds the values captured by ":name" segments.
type Params map[string]string

// Match is a resolved route.
type Match struct {
	Route  Route
	Params Params
}

// MatchPath matches path against pattern. Paths match when they are equal
// or have the same number of segments with every literal segment equal.
// A ":name" segment captures any non-empty value.
func MatchPath(pattern, path string) (Params, bool) {
	if pattern == path {
		return Params{}, true
	}

	patternParts := strings.Split(pattern, "/")
	pathParts := strings.Split(path, "/")
	if len(patternParts) != len(pathParts) {
		return nil, false
	}

	params := Params{}
	for i, part := range patternParts {
		if name, ok := strings.CutPrefix(part, ":"); ok {
			if pathParts[i] == "" {
				return nil, false
			}
			params[name] = pathParts[i]
			continue
		}
		if part != pathParts[i] {
			return nil, false
		}
	}
	return params, true
}

// Router resolves paths to the first matching route.
type Router struct {
	routes []Route
}

// NewRouter creates a router. Routes are tried in order.
func NewRouter(routes ...Route) *Router {
	return &Router{routes: routes}
}

// DefaultRouter returns the task tracker's routes. Every task view is gated.
func DefaultRouter() *Router {
	return NewRouter(
		Route{Pattern: HomePath, Name: "home", Gate: Gated},
		Route{Pattern: StatsPath, Name: "stats", Gate: Gated},
		Route{Pattern: SettingsPath, Name: "settings", Gate: Gated},
		Route{Pattern: NewTaskPath, Name: "task-new", Gate: Gated},
		Route{Pattern: TaskPath, Name: "task-detail", Gate: Gated},
		Route{Pattern: EditTaskPath, Name: "task-edit", Gate: Gated},
		Route{Pattern: LoginPath, Name: "login", Gate: GuestOnly},
		Route{Pattern: RegisterPath, Name: "register", Gate: GuestOnly},
	)
}

// Resolve returns the first route matching path.
func (r *Router) Resolve(path string) (Match, bool) {
	path = normalize(path)
	for _, route := range r.routes {
		if params, ok := MatchPath(route.Pattern, path); ok {
			return Match{Route: route, Params: params}, true
		}
	}
	return Match{}, false
}

// Build fills the ":name" segments of pattern from params.
func Build(pattern string, params Params) (string, error) {
	parts := strings.Split(pattern, "/")
	for i, part := range parts {
		name, ok := strings.CutPrefix(part, ":")
		if !ok {
			continue
		}
		value := params[name]
		if value == "" {
			return "", fmt.Errorf("missing value for %q in %s", name, pattern)
		}
		if strings.Contains(value, "/") {
			return "", fmt.Errorf("value %q for %q contains a slash", value, name)
		}
		parts[i] = value
	}
	return strings.Join(parts, "/"), nil
}
