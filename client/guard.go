package client

// RouteGuard gates access to the protected screen subtree. It re-evaluates
// whenever the session transitions; wiring it as a session subscriber keeps
// re-evaluation synchronous with state changes, no polling.
type RouteGuard struct {
	session    *Session
	signinDest string
	homeDest   string
	protected  map[string]struct{}
}

// NewRouteGuard builds a guard for the given destinations. Every dest in
// protected requires an authenticated session.
func NewRouteGuard(session *Session, signinDest, homeDest string, protected ...string) *RouteGuard {
	set := make(map[string]struct{}, len(protected))
	for _, d := range protected {
		set[d] = struct{}{}
	}
	return &RouteGuard{
		session:    session,
		signinDest: signinDest,
		homeDest:   homeDest,
		protected:  set,
	}
}

// Protected reports whether a destination requires authentication.
func (g *RouteGuard) Protected(dest string) bool {
	_, ok := g.protected[dest]
	return ok
}

// Resolve returns the destination the client should actually navigate to.
// Anonymous sessions are redirected from protected destinations to the
// sign-in destination. An authenticated session navigating to sign-in is
// redirected home: a signed-in user has no business on the sign-in screen.
func (g *RouteGuard) Resolve(dest string) string {
	authed := g.session.State() == StateAuthenticated
	if !authed && g.Protected(dest) {
		return g.signinDest
	}
	if authed && dest == g.signinDest {
		return g.homeDest
	}
	return dest
}

// InitialRoute picks the startup destination: home when a persisted
// session was found, sign-in otherwise. While the session is still
// initializing it holds at sign-in.
func (g *RouteGuard) InitialRoute() string {
	if g.session.State() == StateAuthenticated {
		return g.homeDest
	}
	return g.signinDest
}
