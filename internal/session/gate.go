package session

import "sync"

// Route names a navigable screen.
type Route string

const (
	RouteLogin    Route = "login"
	RouteRegister Route = "register"
	RouteNotes    Route = "notes"
)

// Gate decides which routes are reachable from the current session state:
// unauthenticated access to protected views lands on login, authenticated
// access to login/register lands on notes. It subscribes to the store so a
// logout or invalidation redirects immediately.
type Gate struct {
	store *Store

	mu        sync.Mutex
	current   Route
	listeners []func(Route)
}

// NewGate creates a gate bound to the session store. The initial route is
// resolved from the store's current state.
func NewGate(store *Store) *Gate {
	g := &Gate{store: store}
	g.current = g.Resolve(RouteNotes)
	store.Subscribe(func(*Identity) {
		g.redirect()
	})
	return g
}

// Resolve maps a requested route to the one actually reachable.
func (g *Gate) Resolve(requested Route) Route {
	authenticated := g.store.Authenticated()
	switch requested {
	case RouteLogin, RouteRegister:
		if authenticated {
			return RouteNotes
		}
		return requested
	default:
		if !authenticated {
			return RouteLogin
		}
		return RouteNotes
	}
}

// Navigate moves to the requested route, subject to Resolve, and returns
// where navigation actually landed.
func (g *Gate) Navigate(requested Route) Route {
	resolved := g.Resolve(requested)
	g.setCurrent(resolved)
	return resolved
}

// Current returns the route currently shown.
func (g *Gate) Current() Route {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Subscribe registers a listener called whenever the current route changes.
func (g *Gate) Subscribe(fn func(Route)) {
	g.mu.Lock()
	g.listeners = append(g.listeners, fn)
	g.mu.Unlock()
}

// redirect re-resolves the current route after a session change.
func (g *Gate) redirect() {
	g.setCurrent(g.Resolve(g.Current()))
}

func (g *Gate) setCurrent(route Route) {
	g.mu.Lock()
	changed := g.current != route
	g.current = route
	listeners := append([]func(Route){}, g.listeners...)
	g.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range listeners {
		fn(route)
	}
}
