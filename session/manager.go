package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/mindxandria/mindxandria-go/auth"
)

// DefaultAutoRefreshInterval is the period of the background renewal loop.
const DefaultAutoRefreshInterval = time.Minute

var (
	// ErrNoSession means no refresh token is stored; the session cannot be
	// salvaged and the caller must re-authenticate.
	ErrNoSession = errors.New("session: no refresh token")

	// ErrIncompletePair means the refresh endpoint answered 2xx but one of
	// the tokens was missing. The store is cleared when this happens.
	ErrIncompletePair = errors.New("session: refresh returned incomplete token pair")

	// ErrSessionCleared means a logout raced the refresh exchange; the
	// result was discarded rather than resurrecting the cleared session.
	ErrSessionCleared = errors.New("session: cleared during refresh")
)

// TokenPair is the result of a refresh exchange.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RefreshFunc exchanges a refresh token for a new pair against the API.
type RefreshFunc func(ctx context.Context, refreshToken string) (TokenPair, error)

// ProfileFunc fetches the authenticated user's profile to refine the
// claims-derived identity. Failures are logged and ignored.
type ProfileFunc func(ctx context.Context) (Identity, error)

// Identity is the user identity shown by the session view.
type Identity struct {
	Email string
	Name  string
}

// State is the session view's derivation state.
type State int

const (
	// StateUnknown means the view has not been derived yet (or was
	// invalidated by a store change and awaits re-derivation).
	StateUnknown State = iota
	// StateAnonymous means no usable access token is stored.
	StateAnonymous
	// StateAuthenticated means a valid, unexpired access token is stored.
	StateAuthenticated
)

// Config wires a Manager.
type Config struct {
	// Store holds the token pair. Required.
	Store Store
	// Refresh performs the network exchange. Required.
	Refresh RefreshFunc
	// Profile optionally refines the session identity with server data.
	Profile ProfileFunc
	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
	// Interval overrides DefaultAutoRefreshInterval.
	Interval time.Duration
	// OnLogout runs after Logout clears the session; hook for navigating
	// back to the application root.
	OnLogout func()
}

// Manager owns the refresh lifecycle: it deduplicates concurrent exchange
// attempts, keeps the background renewal loop, and derives the session view
// from whatever the Store currently holds.
type Manager struct {
	store    Store
	refresh  RefreshFunc
	profile  ProfileFunc
	log      zerolog.Logger
	interval time.Duration
	onLogout func()

	group      singleflight.Group
	refreshing atomic.Bool

	mu       sync.Mutex
	state    State
	identity Identity
	viewGen  uint64

	unsubscribe func()
}

// NewManager validates cfg and subscribes to the store so the session view
// is re-derived whenever the tokens or the profile change.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Store == nil {
		return nil, errors.New("session: store required")
	}
	if cfg.Refresh == nil {
		return nil, errors.New("session: refresh func required")
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultAutoRefreshInterval
	}
	m := &Manager{
		store:    cfg.Store,
		refresh:  cfg.Refresh,
		profile:  cfg.Profile,
		log:      logger,
		interval: interval,
		onLogout: cfg.OnLogout,
	}
	m.unsubscribe = cfg.Store.Events().Subscribe(func(Event) {
		m.invalidate()
	})
	return m, nil
}

// Close detaches the manager from the store's event bus.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Store returns the underlying token store.
func (m *Manager) Store() Store {
	return m.store
}

// Refreshing reports whether a refresh exchange is currently in flight.
func (m *Manager) Refreshing() bool {
	return m.refreshing.Load()
}

// EnsureFresh obtains a usable access token by exchanging the stored
// refresh token for a new pair. At most one exchange is in flight at a
// time; concurrent callers join it and share its outcome.
//
// Failure is terminal for the attempt: the store is cleared and the caller
// decides whether to re-authenticate. There is no automatic retry.
func (m *Manager) EnsureFresh(ctx context.Context) (string, error) {
	refreshToken := m.store.RefreshToken()
	if refreshToken == "" {
		m.store.Clear()
		return "", ErrNoSession
	}
	v, err, _ := m.group.Do("refresh", func() (any, error) {
		m.refreshing.Store(true)
		defer m.refreshing.Store(false)
		return m.exchange(ctx, refreshToken)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Manager) exchange(ctx context.Context, refreshToken string) (string, error) {
	epoch := m.store.Epoch()
	pair, err := m.refresh(ctx, refreshToken)
	if err != nil {
		m.log.Warn().Err(err).Msg("token refresh failed")
		m.store.Clear()
		return "", fmt.Errorf("session: refresh exchange: %w", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		m.log.Warn().Msg("token refresh returned incomplete pair")
		m.store.Clear()
		return "", ErrIncompletePair
	}
	if m.store.Epoch() != epoch {
		m.log.Debug().Msg("discarding refresh result after logout")
		return "", ErrSessionCleared
	}
	m.store.SetTokens(pair.AccessToken, pair.RefreshToken)
	m.log.Debug().Msg("access token renewed")
	return pair.AccessToken, nil
}

// StartAutoRefresh runs one renewal cycle immediately and then one per
// interval until the returned stop function is called or ctx is cancelled.
// No cycle fires after stop returns control. Cycles lean entirely on
// EnsureFresh's single-flight guarantee, so overlap with request-triggered
// refreshes never causes a second network exchange.
func (m *Manager) StartAutoRefresh(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.refreshCycle(ctx)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.refreshCycle(ctx)
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func (m *Manager) refreshCycle(ctx context.Context) {
	if r, ok := m.store.(interface{ Reload() }); ok {
		r.Reload()
	}
	access := m.store.AccessToken()
	if access == "" || m.store.RefreshToken() == "" {
		return
	}
	if !auth.IsExpiringSoon(access) {
		return
	}
	if _, err := m.EnsureFresh(ctx); err != nil {
		m.log.Warn().Err(err).Msg("background token renewal failed")
	}
}

// Session derives the current view: StateAuthenticated with the user's
// identity when a valid access token is stored, StateAnonymous otherwise.
// The result is cached until the store signals a change.
func (m *Manager) Session(ctx context.Context) (State, Identity) {
	m.mu.Lock()
	if m.state != StateUnknown {
		defer m.mu.Unlock()
		return m.state, m.identity
	}
	gen := m.viewGen
	m.mu.Unlock()

	state, identity := m.derive(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	// Cache only if no store change invalidated the view mid-derivation.
	if m.viewGen == gen {
		m.state = state
		m.identity = identity
	}
	return state, identity
}

func (m *Manager) derive(ctx context.Context) (State, Identity) {
	access := m.store.AccessToken()
	if access == "" || auth.IsExpired(access) {
		return StateAnonymous, Identity{}
	}
	claims, ok := auth.Decode(access)
	if !ok {
		return StateAnonymous, Identity{}
	}
	id := identityFromClaims(claims)
	if m.profile != nil {
		profile, err := m.profile(ctx)
		if err != nil {
			m.log.Warn().Err(err).Msg("profile fetch failed; using token identity")
		} else {
			if profile.Email != "" {
				id.Email = profile.Email
			}
			if profile.Name != "" {
				id.Name = profile.Name
			}
		}
	}
	return StateAuthenticated, id
}

func identityFromClaims(claims *auth.Claims) Identity {
	email := claims.Subject
	if email == "" {
		email = claims.Email
	}
	name := claims.Name
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	return Identity{Email: email, Name: name}
}

func (m *Manager) invalidate() {
	m.mu.Lock()
	m.state = StateUnknown
	m.identity = Identity{}
	m.viewGen++
	m.mu.Unlock()
}

// NotifyProfileUpdated publishes EventProfileUpdated so the session view
// (and any other subscriber) re-derives the identity.
func (m *Manager) NotifyProfileUpdated() {
	m.store.Events().Publish(EventProfileUpdated)
}

// Logout clears the stored tokens, forces the view to anonymous, and runs
// the OnLogout hook. Terminal for the session.
func (m *Manager) Logout() {
	m.store.Clear()
	m.mu.Lock()
	m.state = StateAnonymous
	m.identity = Identity{}
	m.viewGen++
	m.mu.Unlock()
	if m.onLogout != nil {
		m.onLogout()
	}
}
