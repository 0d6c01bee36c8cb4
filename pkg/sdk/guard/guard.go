// Package guard decides whether a session may enter a role-gated portal.
// Decisions are pure functions of the session snapshot and are recomputed
// on every session change.
package guard

import (
	"errors"
	"fmt"
	"slices"

	"github.com/clinicdesk/clinic/pkg/sdk"
	"github.com/clinicdesk/clinic/pkg/sdk/session"
)

// Default destinations.
const (
	DefaultLoginPath  = "/login"
	DefaultDeniedPath = "/unauthorized"
	DashboardPath     = "/dashboard"
)

var (
	// ErrPending is returned for a decision taken while the session is still resolving.
	ErrPending = errors.New("session is still loading")
	// ErrLoginRequired is returned when the caller must sign in first.
	ErrLoginRequired = errors.New("login required")
	// ErrAccessDenied is returned when the identity's role is not permitted.
	ErrAccessDenied = errors.New("access denied")
)

// Decision is the outcome of a guard evaluation.
type Decision int

const (
	// Pending means render nothing and do not redirect yet.
	Pending Decision = iota
	// RedirectLogin means no identity is present.
	RedirectLogin
	// Denied means the identity's role is not in the required set.
	Denied
	// Allow means the protected content may be shown.
	Allow
	// RedirectHome means a signed-in identity reached a guest-only page.
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case RedirectLogin:
		return "redirect-login"
	case Denied:
		return "denied"
	case Allow:
		return "allow"
	case RedirectHome:
		return "redirect-home"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Decide maps a required role set and a session to a decision. It is total:
// Loading yields Pending regardless of identity, a missing identity yields
// RedirectLogin, and a role outside the closed enumeration is always Denied.
// An empty required set admits every valid role.
func Decide(required []sdk.Role, snap session.Snapshot) Decision {
	if snap.Loading {
		return Pending
	}
	if snap.Identity == nil {
		return RedirectLogin
	}
	role := snap.Identity.Role
	if !role.Valid() {
		return Denied
	}
	if len(required) > 0 && !slices.Contains(required, role) {
		return Denied
	}
	return Allow
}

// DecideGuest is the decision for pages only signed-out users should see,
// such as the login form.
func DecideGuest(snap session.Snapshot) Decision {
	if snap.Loading {
		return Pending
	}
	if snap.Identity != nil {
		return RedirectHome
	}
	return Allow
}

// Outcome is a decision plus where to go next.
type Outcome struct {
	Decision Decision
	// Location is the redirect target; empty for Pending and Allow.
	Location string
	// ReturnTo is the originating location to resume after login.
	ReturnTo string
}

// Err converts a non-Allow outcome into an error for command boundaries.
func (o Outcome) Err() error {
	switch o.Decision {
	case Allow:
		return nil
	case Pending:
		return ErrPending
	case RedirectLogin:
		if o.ReturnTo != "" {
			return fmt.Errorf("%w to open %s", ErrLoginRequired, o.ReturnTo)
		}
		return ErrLoginRequired
	case Denied:
		return ErrAccessDenied
	default:
		return fmt.Errorf("%w: %s", ErrAccessDenied, o.Decision)
	}
}

// Guard protects one portal subtree.
type Guard struct {
	Roles      []sdk.Role
	LoginPath  string
	DeniedPath string
}

// New returns a Guard for roles with the default destinations.
func New(roles ...sdk.Role) Guard {
	return Guard{Roles: roles, LoginPath: DefaultLoginPath, DeniedPath: DefaultDeniedPath}
}

// Evaluate decides for snap; from is the location being entered.
func (g Guard) Evaluate(snap session.Snapshot, from string) Outcome {
	decision := Decide(g.Roles, snap)
	switch decision {
	case RedirectLogin:
		return Outcome{Decision: decision, Location: orDefault(g.LoginPath, DefaultLoginPath), ReturnTo: from}
	case Denied:
		return Outcome{Decision: decision, Location: orDefault(g.DeniedPath, DefaultDeniedPath)}
	default:
		return Outcome{Decision: decision}
	}
}

// EvaluateGuest decides for a guest-only page.
func EvaluateGuest(snap session.Snapshot) Outcome {
	decision := DecideGuest(snap)
	if decision == RedirectHome {
		return Outcome{Decision: decision, Location: DashboardPath}
	}
	return Outcome{Decision: decision}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Source is a session that can be observed. *session.Manager satisfies it.
type Source interface {
	Snapshot() session.Snapshot
	Subscribe(func(session.Snapshot)) (cancel func())
}

// Watch calls fn with the current outcome and again after every session
// change, until cancel is called.
func Watch(src Source, g Guard, from string, fn func(Outcome)) (cancel func()) {
	cancel = src.Subscribe(func(snap session.Snapshot) {
		fn(g.Evaluate(snap, from))
	})
	fn(g.Evaluate(src.Snapshot(), from))
	return cancel
}
