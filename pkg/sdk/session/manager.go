// Package session resolves who is signed in. A Manager owns the stored
// credential and the identity derived from it, and moves through a
// two-phase resolution: an identity decoded from the credential is trusted
// immediately and confirmed against the backend afterwards.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic/pkg/sdk"
)

// DefaultRevokeTimeout bounds the best-effort revoke call made by Logout.
const DefaultRevokeTimeout = 5 * time.Second

// ErrSuperseded is returned by Login when a Logout or another Login
// completed while it was in flight; its result was discarded.
var ErrSuperseded = errors.New("session changed while login was in flight")

// Backend is the subset of the REST API the session needs. *sdk.Client
// satisfies it.
type Backend interface {
	Login(ctx context.Context, email, password string) (*sdk.LoginResponse, error)
	GetUser(ctx context.Context, id int64) (*sdk.User, error)
	Logout(ctx context.Context) error
}

var _ Backend = (*sdk.Client)(nil)

// Option configures a Manager.
type Option func(*Manager)

// WithDecoder replaces the default JWT claim decoder.
func WithDecoder(d sdk.ClaimDecoder) Option {
	return func(m *Manager) {
		m.decoder = d
	}
}

// WithLogger sets the logger for silent fallbacks. The default discards.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithRevokeTimeout overrides DefaultRevokeTimeout.
func WithRevokeTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.revokeTimeout = d
	}
}

// Manager is the single owner of session state for a process. It is safe
// for concurrent use; every transition notifies subscribers.
type Manager struct {
	store         sdk.TokenStore
	backend       Backend
	decoder       sdk.ClaimDecoder
	logger        zerolog.Logger
	revokeTimeout time.Duration

	bootOnce sync.Once

	mu sync.Mutex
	// guarded by mu
	snap         Snapshot
	generation   uint64
	observers    map[int]func(Snapshot)
	nextObserver int
}

// New returns a Manager in StateBootstrapping. The store must be the same
// one the backend client reads its bearer credential from.
func New(store sdk.TokenStore, backend Backend, opts ...Option) *Manager {
	m := &Manager{
		store:         store,
		backend:       backend,
		decoder:       sdk.JWTDecoder{},
		logger:        zerolog.Nop(),
		revokeTimeout: DefaultRevokeTimeout,
		snap:          Snapshot{State: StateBootstrapping, Loading: true},
		observers:     map[int]func(Snapshot){},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snapshot returns the current session.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.clone()
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.State
}

// Identity returns a copy of the current identity, or nil.
func (m *Manager) Identity() *sdk.User {
	return m.Snapshot().Identity
}

// Subscribe registers fn to be called with the new snapshot after every
// transition. fn runs on the goroutine that caused the transition and must
// not block.
func (m *Manager) Subscribe(fn func(Snapshot)) (cancel func()) {
	m.mu.Lock()
	id := m.nextObserver
	m.nextObserver++
	m.observers[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.observers, id)
			m.mu.Unlock()
		})
	}
}

// transitionLocked installs next and returns the notification to run once
// mu is released.
func (m *Manager) transitionLocked(next Snapshot) func() {
	prev := m.snap.State
	m.snap = next
	snap := next.clone()
	observers := make([]func(Snapshot), 0, len(m.observers))
	for _, fn := range m.observers {
		observers = append(observers, fn)
	}
	m.logger.Debug().
		Stringer("from", prev).
		Stringer("state", next.State).
		Bool("loading", next.Loading).
		Msg("session transition")

	return func() {
		for _, fn := range observers {
			fn(snap.clone())
		}
	}
}

// clearLocked empties the store and settles the session unauthenticated.
func (m *Manager) clearLocked() (notify func(), err error) {
	if err = m.store.Clear(); err != nil {
		m.logger.Warn().Err(err).Msg("clear stored credential")
	}
	return m.transitionLocked(Snapshot{State: StateUnauthenticated}), err
}

// Bootstrap resolves the stored credential. It runs once per Manager; later
// calls return the current snapshot. Verification failures are not
// surfaced: they clear the store and leave the session unauthenticated.
func (m *Manager) Bootstrap(ctx context.Context) Snapshot {
	m.bootOnce.Do(func() {
		m.bootstrap(ctx)
	})
	return m.Snapshot()
}

func (m *Manager) bootstrap(ctx context.Context) {
	m.mu.Lock()
	gen := m.generation
	m.mu.Unlock()

	token, err := m.store.Get()
	if err != nil {
		if !errors.Is(err, sdk.ErrNoCredential) {
			m.logger.Warn().Err(err).Msg("read stored credential")
		}
		m.settleBootstrap(gen)
		return
	}

	identity, err := m.identityFromClaims(token)
	if err != nil {
		m.logger.Debug().Err(err).Msg("stored credential unusable")
		m.settleBootstrap(gen)
		return
	}

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return
	}
	notify := m.transitionLocked(Snapshot{State: StateOptimistic, Identity: identity, Loading: true})
	m.mu.Unlock()
	notify()

	if err := m.verify(ctx, gen); err != nil {
		m.logger.Debug().Err(err).Msg("bootstrap verification failed")
	}
}

// settleBootstrap ends a bootstrap that found no usable credential.
func (m *Manager) settleBootstrap(gen uint64) {
	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return
	}
	notify, _ := m.clearLocked()
	m.mu.Unlock()
	notify()
}

func (m *Manager) identityFromClaims(token sdk.Credential) (*sdk.User, error) {
	claims, err := m.decoder.Decode(token)
	if err != nil {
		return nil, err
	}
	if claims.IsExpired() {
		return nil, fmt.Errorf("%w: credential expired at %s", sdk.ErrDecode, claims.ExpiresAt.Format(time.RFC3339))
	}
	return claims.Identity()
}

// Verify confirms the current identity with the backend. Success adopts
// the server's identity; any failure clears the store and settles the
// session unauthenticated, returning a *sdk.VerificationError. A result
// that arrives after a newer Login or Logout is discarded and nil is
// returned.
func (m *Manager) Verify(ctx context.Context) error {
	m.mu.Lock()
	gen := m.generation
	m.mu.Unlock()
	return m.verify(ctx, gen)
}

func (m *Manager) verify(ctx context.Context, gen uint64) error {
	token, err := m.store.Get()
	if err != nil {
		return m.failVerification(gen, 0, err)
	}
	claims, err := m.decoder.Decode(token)
	if err != nil {
		return m.failVerification(gen, 0, err)
	}

	user, err := m.backend.GetUser(ctx, claims.Subject)
	if err != nil {
		return m.failVerification(gen, claims.Subject, err)
	}
	role, err := sdk.ParseRole(string(user.Role))
	if err != nil {
		return m.failVerification(gen, claims.Subject, err)
	}
	verified := *user
	verified.Role = role

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		m.logger.Debug().Int64("user_id", verified.ID).Msg("discarding stale verification")
		return nil
	}
	notify := m.transitionLocked(Snapshot{State: StateAuthenticated, Identity: &verified})
	m.mu.Unlock()
	notify()
	return nil
}

func (m *Manager) failVerification(gen uint64, userID int64, cause error) error {
	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		m.logger.Debug().Err(cause).Msg("discarding stale verification failure")
		return nil
	}
	notify, _ := m.clearLocked()
	m.mu.Unlock()
	notify()
	return &sdk.VerificationError{UserID: userID, Err: cause}
}

// Login exchanges credentials for a bearer token. On success the token is
// stored and the session holds either the identity the backend returned
// (StateAuthenticated) or one decoded from the token (StateOptimistic).
// Any failure leaves no stored credential and no identity.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.mu.Lock()
	m.generation++
	gen := m.generation
	pending := m.snap
	pending.Loading = true
	notify := m.transitionLocked(pending)
	m.mu.Unlock()
	notify()

	resp, err := m.backend.Login(ctx, email, password)
	if err != nil {
		return m.failLogin(gen, &sdk.LoginError{Err: err})
	}

	token := sdk.Credential(resp.AccessToken)
	identity, state, err := m.resolveLogin(resp, token)
	if err != nil {
		return m.failLogin(gen, &sdk.IdentityResolutionError{Err: err})
	}

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return ErrSuperseded
	}
	if err := m.store.Set(token); err != nil {
		notify, _ := m.clearLocked()
		m.mu.Unlock()
		notify()
		return &sdk.LoginError{Err: fmt.Errorf("persist credential: %w", err)}
	}
	notify = m.transitionLocked(Snapshot{State: state, Identity: identity})
	m.mu.Unlock()
	notify()

	m.logger.Info().Int64("user_id", identity.ID).Str("role", identity.Role.String()).Stringer("state", state).Msg("signed in")
	return nil
}

func (m *Manager) resolveLogin(resp *sdk.LoginResponse, token sdk.Credential) (*sdk.User, State, error) {
	if resp.User != nil {
		role, err := sdk.ParseRole(string(resp.User.Role))
		if err != nil {
			return nil, 0, err
		}
		identity := *resp.User
		identity.Role = role
		return &identity, StateAuthenticated, nil
	}
	identity, err := m.identityFromClaims(token)
	if err != nil {
		return nil, 0, err
	}
	return identity, StateOptimistic, nil
}

func (m *Manager) failLogin(gen uint64, err error) error {
	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return err
	}
	notify, _ := m.clearLocked()
	m.mu.Unlock()
	notify()
	return err
}

// Logout revokes the credential on a best-effort basis, then always clears
// the store and settles the session unauthenticated. A failed or timed out
// revoke is logged, not returned. Calling Logout repeatedly is harmless.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.generation++
	m.mu.Unlock()

	if _, err := m.store.Get(); err == nil {
		revokeCtx, cancel := context.WithTimeout(ctx, m.revokeTimeout)
		if err := m.backend.Logout(revokeCtx); err != nil {
			m.logger.Warn().Err(err).Msg("revoke credential")
		}
		cancel()
	}

	m.mu.Lock()
	m.generation++
	notify, err := m.clearLocked()
	m.mu.Unlock()
	notify()
	if err != nil {
		return fmt.Errorf("clear stored credential: %w", err)
	}
	return nil
}
