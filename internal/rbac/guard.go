package rbac

// Subject is the part of a session the guard looks at.
type Subject struct {
	Authenticated bool
	Role          Role
}

type Outcome int

const (
	OutcomeRender Outcome = iota
	OutcomeRedirect
)

// Decision is the result of guarding a route. Location is set only for redirects.
type Decision struct {
	Outcome  Outcome
	Location string
}

func (d Decision) Render() bool { return d.Outcome == OutcomeRender }

func render() Decision { return Decision{Outcome: OutcomeRender} }

func redirect(path string) Decision {
	return Decision{Outcome: OutcomeRedirect, Location: path}
}

// Decide guards a route. An empty allowed list admits any authenticated role.
//
// Rules, in order:
//   - unauthenticated callers go to the login page
//   - authenticated callers whose role is not allowed go to their landing page
//   - everyone else renders
func Decide(s Subject, allowed []Role) Decision {
	if !s.Authenticated {
		return redirect(PathLogin)
	}
	if len(allowed) > 0 && !contains(allowed, s.Role) {
		return redirect(DefaultLanding(s.Role))
	}
	return render()
}

// DecideLogin is the inverse rule for the login page itself.
func DecideLogin(s Subject) Decision {
	if s.Authenticated {
		return redirect(DefaultLanding(s.Role))
	}
	return render()
}

func contains(roles []Role, r Role) bool {
	for _, candidate := range roles {
		if candidate == r {
			return true
		}
	}
	return false
}
