// Package access holds the routing policy of the front end: which paths
// are public, which need a session and which need the admin role.  It is
// one pure function so the whole policy can be tested without a browser
// or a database.
package access

import (
	"net/url"
	"path"
	"strings"
)

// Outcome is what the caller should do with a navigation.
type Outcome string

const (
	Allow                Outcome = "allow"
	RedirectLogin        Outcome = "redirect_login"
	RedirectUnauthorized Outcome = "redirect_unauthorized"
	RedirectDashboard    Outcome = "redirect_dashboard"
)

// Well-known paths.
const (
	PathLogin        = "/login"
	PathDashboard    = "/dashboard"
	PathUnauthorized = "/unauthorized"
	PathBooking      = "/reservas"
	PathAdmin        = "/admin"
)

// AdminViews are the sub-views of the admin area.
var AdminViews = []string{"home", "schedule", "reservations", "analytics"}

// Class groups paths by what they require.
type Class int

const (
	ClassPublic Class = iota
	ClassSession
	ClassAdmin
)

var publicPaths = map[string]bool{
	PathBooking:      true,
	PathLogin:        true,
	PathUnauthorized: true,
}

// Classify returns what a path requires.  Unknown paths need a session.
func Classify(p string) Class {
	p = clean(p)
	switch {
	case publicPaths[p] || strings.HasPrefix(p, PathBooking+"/"):
		return ClassPublic
	case p == PathAdmin || strings.HasPrefix(p, PathAdmin+"/"):
		return ClassAdmin
	}
	return ClassSession
}

// NeedsRoleCheck reports whether navigating to p requires asking the store
// whether the user is an admin.  Public routes never do.
func NeedsRoleCheck(p string) bool { return Classify(p) == ClassAdmin }

// Input describes one navigation.  IsAdmin is only meaningful when
// RoleChecked is true; an admin path without a completed role check is
// refused.
type Input struct {
	HasSession  bool
	Path        string
	Query       string // raw query string of the navigation, without '?'
	IsAdmin     bool
	RoleChecked bool
}

// Decision is the result of Decide.  Location is set for redirects.
type Decision struct {
	Outcome  Outcome `json:"outcome"`
	Location string  `json:"location,omitempty"`
}

// Decide applies the routing policy:
//   - anonymous visitors may open public paths and are sent to the login
//     page, carrying a returnUrl, from anything else;
//   - a signed-in user opening the login page or the root goes to the
//     returnUrl, or the dashboard when there is none;
//   - admin paths additionally need a positive role check, otherwise the
//     user lands on the unauthorized page.
func Decide(in Input) Decision {
	p := clean(in.Path)
	class := Classify(p)

	if !in.HasSession {
		if class == ClassPublic {
			return Decision{Outcome: Allow}
		}
		target := p
		if in.Query != "" {
			target += "?" + in.Query
		}
		return Decision{Outcome: RedirectLogin, Location: PathLogin + "?returnUrl=" + url.QueryEscape(target)}
	}

	if p == PathLogin {
		q, _ := url.ParseQuery(in.Query)
		return Decision{Outcome: RedirectDashboard, Location: SafeReturnURL(q.Get("returnUrl"))}
	}
	if p == "/" {
		return Decision{Outcome: RedirectDashboard, Location: PathDashboard}
	}
	if class == ClassAdmin && !(in.RoleChecked && in.IsAdmin) {
		return Decision{Outcome: RedirectUnauthorized, Location: PathUnauthorized}
	}
	return Decision{Outcome: Allow}
}

// SafeReturnURL accepts only local absolute paths so the login redirect
// cannot be pointed at another site.  Anything else yields the dashboard.
func SafeReturnURL(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return PathDashboard
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return PathDashboard
	}
	return raw
}

// AdminView extracts the admin sub-view from a path such as
// /admin/analytics.  The bare admin path is the home view; unknown views
// fall back to home as well.
func AdminView(p string) string {
	p = clean(p)
	if !strings.HasPrefix(p, PathAdmin+"/") {
		return "home"
	}
	v := strings.TrimPrefix(p, PathAdmin+"/")
	for _, known := range AdminViews {
		if v == known {
			return v
		}
	}
	return "home"
}

func clean(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
