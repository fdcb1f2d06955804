package access

// State is where a client stands in the sign-in flow.
type State string

const (
	Checking              State = "checking"
	Unauthenticated       State = "unauthenticated"
	AuthenticatedNonAdmin State = "authenticated_non_admin"
	AuthenticatedAdmin    State = "authenticated_admin"
)

// Event drives State transitions.
type Event string

const (
	SessionFound   Event = "session_found"
	SessionMissing Event = "session_missing"
	SessionError   Event = "session_error" // the session check itself failed
	RoleGranted    Event = "role_granted"
	RoleDenied     Event = "role_denied"
	SignedIn       Event = "signed_in"
	SignedOut      Event = "signed_out"
)

// Transition returns the state after ev.  Signing out or a failing
// session check always ends unauthenticated; role results only matter
// for a signed-in user.  Events that do not apply leave the state as is.
func (s State) Transition(ev Event) State {
	switch ev {
	case SignedOut, SessionError, SessionMissing:
		return Unauthenticated
	case SessionFound, SignedIn:
		if s == AuthenticatedAdmin {
			return s
		}
		return AuthenticatedNonAdmin
	case RoleGranted:
		if s == AuthenticatedNonAdmin || s == AuthenticatedAdmin {
			return AuthenticatedAdmin
		}
	case RoleDenied:
		if s == AuthenticatedNonAdmin || s == AuthenticatedAdmin {
			return AuthenticatedNonAdmin
		}
	}
	return s
}

// HasSession reports whether the state carries a session.
func (s State) HasSession() bool {
	return s == AuthenticatedNonAdmin || s == AuthenticatedAdmin
}

// Navigate decides a navigation from state s.  roleCheck is consulted only
// for admin paths; its failure is treated like a failed session check and
// sends the user to the login page.  It returns the new state together
// with the decision.
func (s State) Navigate(path, query string, roleCheck func() (bool, error)) (State, Decision) {
	in := Input{HasSession: s.HasSession(), Path: path, Query: query}
	if in.HasSession && NeedsRoleCheck(path) {
		ok, err := roleCheck()
		if err != nil {
			s = s.Transition(SessionError)
			return s, Decide(Input{Path: path, Query: query})
		}
		if ok {
			s = s.Transition(RoleGranted)
		} else {
			s = s.Transition(RoleDenied)
		}
		in.RoleChecked, in.IsAdmin = true, ok
	}
	return s, Decide(in)
}
