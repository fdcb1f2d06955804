package access

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecideAnonymous(t *testing.T) {
	cases := []struct {
		path, query string
		want        Decision
	}{
		{"/reservas", "", Decision{Outcome: Allow}},
		{"/login", "", Decision{Outcome: Allow}},
		{"/unauthorized", "", Decision{Outcome: Allow}},
		{"/dashboard", "", Decision{Outcome: RedirectLogin, Location: "/login?returnUrl=%2Fdashboard"}},
		{"/admin/analytics", "d=2024-06-01", Decision{Outcome: RedirectLogin, Location: "/login?returnUrl=%2Fadmin%2Fanalytics%3Fd%3D2024-06-01"}},
		{"/", "", Decision{Outcome: RedirectLogin, Location: "/login?returnUrl=%2F"}},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, Decide(Input{Path: tc.path, Query: tc.query}))
		})
	}
}

func TestDecideSignedIn(t *testing.T) {
	assert.Equal(t, Decision{Outcome: RedirectDashboard, Location: "/dashboard"},
		Decide(Input{HasSession: true, Path: "/login"}))
	assert.Equal(t, Decision{Outcome: RedirectDashboard, Location: "/admin"},
		Decide(Input{HasSession: true, Path: "/login", Query: "returnUrl=%2Fadmin"}))
	assert.Equal(t, Decision{Outcome: RedirectDashboard, Location: "/dashboard"},
		Decide(Input{HasSession: true, Path: "/"}))
	assert.Equal(t, Decision{Outcome: Allow}, Decide(Input{HasSession: true, Path: "/dashboard"}))
	assert.Equal(t, Decision{Outcome: Allow}, Decide(Input{HasSession: true, Path: "/reservas"}))
}

func TestDecideAdminRoutes(t *testing.T) {
	unauthorized := Decision{Outcome: RedirectUnauthorized, Location: "/unauthorized"}

	assert.Equal(t, Decision{Outcome: Allow},
		Decide(Input{HasSession: true, Path: "/admin", RoleChecked: true, IsAdmin: true}))
	assert.Equal(t, Decision{Outcome: Allow},
		Decide(Input{HasSession: true, Path: "/admin/schedule/", RoleChecked: true, IsAdmin: true}))
	assert.Equal(t, unauthorized,
		Decide(Input{HasSession: true, Path: "/admin", RoleChecked: true}))
	// no completed role check, no admin area
	assert.Equal(t, unauthorized,
		Decide(Input{HasSession: true, Path: "/admin", IsAdmin: true}))
}

func TestSafeReturnURL(t *testing.T) {
	assert.Equal(t, "/admin?x=1", SafeReturnURL("/admin?x=1"))
	assert.Equal(t, "/dashboard", SafeReturnURL(""))
	assert.Equal(t, "/dashboard", SafeReturnURL("https://evil.example"))
	assert.Equal(t, "/dashboard", SafeReturnURL("//evil.example"))
	assert.Equal(t, "/dashboard", SafeReturnURL(`/\evil.example`))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ClassPublic, Classify("/reservas"))
	assert.Equal(t, ClassAdmin, Classify("/admin/reservations"))
	assert.Equal(t, ClassSession, Classify("/administrator"))
	assert.Equal(t, ClassSession, Classify("/dashboard"))
	assert.False(t, NeedsRoleCheck("/reservas"))
	assert.True(t, NeedsRoleCheck("/admin"))
}

func TestAdminView(t *testing.T) {
	assert.Equal(t, "home", AdminView("/admin"))
	assert.Equal(t, "analytics", AdminView("/admin/analytics"))
	assert.Equal(t, "home", AdminView("/admin/nope"))
}

func TestTransition(t *testing.T) {
	s := Checking
	assert.Equal(t, Unauthenticated, s.Transition(SessionMissing))
	assert.Equal(t, Unauthenticated, s.Transition(SessionError))

	s = s.Transition(SessionFound)
	assert.Equal(t, AuthenticatedNonAdmin, s)
	s = s.Transition(RoleGranted)
	assert.Equal(t, AuthenticatedAdmin, s)
	assert.Equal(t, AuthenticatedAdmin, s.Transition(SignedIn))
	assert.Equal(t, AuthenticatedNonAdmin, s.Transition(RoleDenied))
	assert.Equal(t, Unauthenticated, s.Transition(SignedOut))

	// role results without a session change nothing
	assert.Equal(t, Unauthenticated, Unauthenticated.Transition(RoleGranted))
	assert.Equal(t, AuthenticatedNonAdmin, Unauthenticated.Transition(SignedIn))
}

func TestNavigate(t *testing.T) {
	calls := 0
	yes := func() (bool, error) { calls++; return true, nil }
	no := func() (bool, error) { calls++; return false, nil }
	boom := func() (bool, error) { calls++; return false, errors.New("db down") }

	s, d := AuthenticatedNonAdmin.Navigate("/reservas", "", yes)
	assert.Equal(t, AuthenticatedNonAdmin, s)
	assert.Equal(t, Allow, d.Outcome)
	assert.Zero(t, calls, "public routes never check the role")

	s, d = AuthenticatedNonAdmin.Navigate("/admin", "", yes)
	assert.Equal(t, AuthenticatedAdmin, s)
	assert.Equal(t, Allow, d.Outcome)

	s, d = s.Navigate("/admin/analytics", "", no)
	assert.Equal(t, AuthenticatedNonAdmin, s)
	assert.Equal(t, RedirectUnauthorized, d.Outcome)

	s, d = s.Navigate("/admin", "", boom)
	assert.Equal(t, Unauthenticated, s)
	assert.Equal(t, RedirectLogin, d.Outcome)
	assert.Equal(t, "/login?returnUrl=%2Fadmin", d.Location)
	assert.Equal(t, 3, calls)
}
