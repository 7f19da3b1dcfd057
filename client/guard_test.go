package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestGuard(t *testing.T) (*RouteGuard, *Session) {
	t.Helper()
	session, _, _ := newTestSession(t)
	session.Init()
	guard := NewRouteGuard(session, "signin", "home", "home", "profile", "banners")
	return guard, session
}

func TestGuardProtectedSet(t *testing.T) {
	guard, _ := newTestGuard(t)
	require.True(t, guard.Protected("home"))
	require.True(t, guard.Protected("profile"))
	require.False(t, guard.Protected("signin"))
	require.False(t, guard.Protected("about"))
}

func TestGuardRedirectsAnonymousFromProtected(t *testing.T) {
	guard, _ := newTestGuard(t)
	require.Equal(t, "signin", guard.Resolve("home"))
	require.Equal(t, "signin", guard.Resolve("profile"))
	// Unprotected destinations pass through.
	require.Equal(t, "about", guard.Resolve("about"))
	require.Equal(t, "signin", guard.Resolve("signin"))
}

func TestGuardRedirectsAuthenticatedFromSignin(t *testing.T) {
	guard, session := newTestGuard(t)
	require.NoError(t, session.SignUp(context.Background(), SignUpInput{Name: "Ada", Email: "ada@example.com", Password: "password1"}))

	require.Equal(t, "home", guard.Resolve("signin"))
	require.Equal(t, "home", guard.Resolve("home"))
	require.Equal(t, "profile", guard.Resolve("profile"))
}

func TestGuardInitialRoute(t *testing.T) {
	guard, session := newTestGuard(t)
	require.Equal(t, "signin", guard.InitialRoute())

	require.NoError(t, session.SignUp(context.Background(), SignUpInput{Name: "Ada", Email: "ada@example.com", Password: "password1"}))
	require.Equal(t, "home", guard.InitialRoute())

	session.SignOut()
	require.Equal(t, "signin", guard.InitialRoute())
	require.Equal(t, "signin", guard.Resolve("home"))
}

func TestGuardReactsToSessionTransitions(t *testing.T) {
	guard, session := newTestGuard(t)

	var current string
	session.Subscribe(func(State) {
		current = guard.Resolve("home")
	})

	require.NoError(t, session.SignUp(context.Background(), SignUpInput{Name: "Ada", Email: "ada@example.com", Password: "password1"}))
	require.Equal(t, "home", current)

	session.SignOut()
	require.Equal(t, "signin", current)
}
