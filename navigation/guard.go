package navigation

import (
	"sync"

	"github.com/example/task-tracker/identity"
)

// Identity is the part of identity.Provider the guard watches.
type Identity interface {
	Current() *identity.User
	OnChange(fn func(*identity.User)) (unsubscribe func())
}

// Decision is the outcome of a guard check.
type Decision struct {
	Path       string
	Match      Match
	Found      bool
	Allowed    bool
	RedirectTo string
}

// Guard redirects signed-out users from gated routes to LoginPath and
// signed-in users from guest-only routes to HomePath. It checks on Mount,
// on every location change and on every identity change.
type Guard struct {
	router   *Router
	location Location
	identity Identity

	mu      sync.Mutex
	unsubs  []func()
	mounted bool
}

// NewGuard creates a guard. Call Mount to start watching.
func NewGuard(router *Router, location Location, id Identity) *Guard {
	return &Guard{router: router, location: location, identity: id}
}

// Mount subscribes to location and identity changes and checks the current
// location immediately.
func (g *Guard) Mount() Decision {
	g.mu.Lock()
	if !g.mounted {
		g.mounted = true
		g.unsubs = append(g.unsubs,
			g.location.OnChange(func(string) { g.Check() }),
			g.identity.OnChange(func(*identity.User) { g.Check() }),
		)
	}
	g.mu.Unlock()

	return g.Check()
}

// Unmount stops watching.
func (g *Guard) Unmount() {
	g.mu.Lock()
	unsubs := g.unsubs
	g.unsubs = nil
	g.mounted = false
	g.mu.Unlock()

	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
}

// Check evaluates the current location and navigates away when the
// current user may not stay there. The returned decision describes the
// location as it was before any redirect.
func (g *Guard) Check() Decision {
	d := g.evaluate(g.location.Current())
	if d.RedirectTo != "" {
		g.location.Navigate(d.RedirectTo)
	}
	return d
}

// Visit navigates to path and checks it. Allowed is false when the guard
// sent the user elsewhere.
func (g *Guard) Visit(path string) Decision {
	d := g.evaluate(normalize(path))
	g.location.Navigate(path)
	if d.RedirectTo != "" {
		g.location.Navigate(d.RedirectTo)
	}
	return d
}

func (g *Guard) evaluate(path string) Decision {
	d := Decision{Path: path, Allowed: true}

	match, ok := g.router.Resolve(path)
	if !ok {
		return d
	}
	d.Match = match
	d.Found = true

	signedIn := g.identity.Current() != nil
	switch {
	case match.Route.Gate == Gated && !signedIn:
		d.Allowed = false
		d.RedirectTo = LoginPath
	case match.Route.Gate == GuestOnly && signedIn:
		d.Allowed = false
		d.RedirectTo = HomePath
	}
	return d
}
