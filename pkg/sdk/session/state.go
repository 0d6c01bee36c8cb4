package session

import "github.com/clinicdesk/clinic/pkg/sdk"

// State is the phase of the session state machine.
//
//	Bootstrapping ──► Unauthenticated ◄──────────────┐
//	      │                 │ Login                  │ Logout / verify failure
//	      ▼                 ▼                        │
//	Optimistic ───verify──► Authenticated ───────────┘
type State int

const (
	// StateBootstrapping is the initial state, before the stored credential
	// has been inspected.
	StateBootstrapping State = iota
	// StateUnauthenticated has no identity and no stored credential.
	StateUnauthenticated
	// StateOptimistic carries an identity decoded from the credential's
	// claims that the backend has not confirmed yet.
	StateOptimistic
	// StateAuthenticated carries an identity returned by the backend.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateBootstrapping:
		return "bootstrapping"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateOptimistic:
		return "optimistic"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the session.
type Snapshot struct {
	State    State
	Identity *sdk.User
	// Loading is true while bootstrap, verification of a bootstrapped
	// identity, or a login is in flight. Decisions based on Identity are
	// undefined while it is set.
	Loading bool
}

// HasIdentity reports whether an identity is present. It is true in
// StateOptimistic too, before the backend has confirmed the identity; check
// State == StateAuthenticated for a verified one.
func (s Snapshot) HasIdentity() bool {
	return s.Identity != nil
}

// Role returns the identity's role, or "" without an identity.
func (s Snapshot) Role() sdk.Role {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Role
}

func (s Snapshot) clone() Snapshot {
	if s.Identity != nil {
		identity := *s.Identity
		s.Identity = &identity
	}
	return s
}
