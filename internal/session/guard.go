package session

// Route is a client-side view path.
type Route string

const (
	RouteRoot      Route = "/"
	RouteLogin     Route = "/login"
	RouteDashboard Route = "/dashboard"
	RouteSettings  Route = "/dashboard/settings"
)

// Protected views require a signed-in user.
func (r Route) Protected() bool {
	return r == RouteDashboard || r == RouteSettings
}

// Decision is what the guard lets the UI render.
type Decision struct {
	// Route to render. Differs from the requested one on redirect.
	Route Route
	// Pending: session not restored yet, render a placeholder.
	Pending bool
}

func (d Decision) Redirected(from Route) bool { return d.Route != from }

// State is the part of Session the guard needs.
type State interface {
	Ready() bool
	Authenticated() bool
}

type Guard struct {
	state State
}

func NewGuard(state State) Guard { return Guard{state: state} }

func (g Guard) Resolve(r Route) Decision {
	switch {
	case r == RouteRoot:
		r = RouteDashboard
	case r != RouteLogin && !r.Protected():
		// неизвестный путь
		r = RouteDashboard
	}

	if !r.Protected() {
		return Decision{Route: r}
	}
	if !g.state.Ready() {
		return Decision{Route: r, Pending: true}
	}
	if !g.state.Authenticated() {
		return Decision{Route: RouteLogin}
	}
	return Decision{Route: r}
}
