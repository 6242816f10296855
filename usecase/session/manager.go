// Package session owns the client-side authentication lifecycle: who is
// logged in, how close the session is to forced logout, and the timers
// that enforce it.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ketabplus/frontend/domain"
	"github.com/ketabplus/frontend/identity"
	"github.com/ketabplus/frontend/repository"
)

// Session timing defaults. Warning and hard timers measure from the most
// recent activity; the refresh interval is independent of activity.
const (
	DefaultWarningLead     = 10 * time.Minute
	DefaultHardTimeout     = 30 * time.Minute
	DefaultRefreshInterval = 10 * time.Minute
	DefaultActivityGrace   = 5 * time.Minute

	defaultCallTimeout = 15 * time.Second
	loginErrorFallback = "login failed, please try again"
)

// Config controls session timing. Zero values fall back to the defaults
// above; tests scale them down.
type Config struct {
	WarningLead     time.Duration
	HardTimeout     time.Duration
	RefreshInterval time.Duration
	ActivityGrace   time.Duration
	CallTimeout     time.Duration
}

func (c Config) withDefaults() Config {
	if c.WarningLead <= 0 {
		c.WarningLead = DefaultWarningLead
	}
	if c.HardTimeout <= 0 {
		c.HardTimeout = DefaultHardTimeout
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = DefaultRefreshInterval
	}
	if c.ActivityGrace <= 0 {
		c.ActivityGrace = DefaultActivityGrace
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = defaultCallTimeout
	}
	return c
}

// Snapshot is the read-only view handed to the UI layer and
// subscribers.
type Snapshot struct {
	User            *domain.User
	IsAuthenticated bool
	IsLoading       bool
	Err             error
	ErrMessage      string
	SessionWarning  bool
	LastActivity    time.Time
}

// Manager is the single source of truth for the session. It composes
// the identity service, the session-scoped cart cache it purges on
// logout, and a timer table keyed by timer kind.
type Manager struct {
	identity identity.Service
	carts    repository.CartRepository
	logger   *zap.Logger
	cfg      Config

	mu            sync.Mutex
	epoch         uint64
	user          *domain.User
	lastActivity  time.Time
	warningActive bool
	loading       bool
	lastErr       error
	timers        map[timerKind]*time.Timer
	subs          map[int]chan Snapshot
	nextSub       int
	closed        bool
}

// New constructs a manager. The cart repository may be nil when the
// deployment has no local cart cache.
func New(svc identity.Service, carts repository.CartRepository, logger *zap.Logger, cfg Config) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		identity: svc,
		carts:    carts,
		logger:   logger,
		cfg:      cfg.withDefaults(),
		timers:   make(map[timerKind]*time.Timer),
		subs:     make(map[int]chan Snapshot),
	}
}

// Initialize performs the startup identity check. A 401/403 answer is
// the normal unauthenticated state and records no error; any other
// failure clears the user and records it.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.loading = true
	m.notifyLocked()
	m.mu.Unlock()

	user, err := m.identity.Current(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false

	switch {
	case err == nil:
		m.installSessionLocked(user)
		return nil
	case domain.IsDomainError(err, domain.ErrCodeUnauthenticated):
		m.clearSessionLocked(nil)
		return nil
	default:
		m.logger.Warn("initial identity check failed", zap.Error(err))
		m.clearSessionLocked(err)
		return err
	}
}

// Login authenticates against the identity service. Failures clear the
// user, record the server message, and propagate to the caller; success
// additionally triggers a best-effort background refresh to hydrate
// complete role data.
func (m *Manager) Login(ctx context.Context, identifier, secret string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return domain.NewError(domain.ErrCodeInternal, "session manager closed")
	}
	m.loading = true
	m.notifyLocked()
	m.mu.Unlock()

	user, err := m.identity.Authenticate(ctx, identifier, secret)

	m.mu.Lock()
	m.loading = false
	if err != nil {
		msg := domain.ErrorMessage(err, loginErrorFallback)
		m.clearSessionLocked(domain.WrapError(errCode(err), msg, err))
		m.mu.Unlock()
		return err
	}

	m.installSessionLocked(user)
	epoch := m.epoch
	m.mu.Unlock()

	go m.hydrateIdentity(epoch)
	return nil
}

// Logout invalidates the remote session (failures ignored), clears all
// local session state, cancels every armed timer, and purges the
// session-scoped cart cache. Preferences are untouched. Idempotent.
func (m *Manager) Logout(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := m.identity.Invalidate(ctx); err != nil {
		m.logger.Debug("remote session invalidation failed", zap.Error(err))
	}

	m.mu.Lock()
	m.loading = false
	m.clearSessionLocked(nil)
	m.mu.Unlock()

	if m.carts != nil {
		if err := m.carts.Clear(ctx); err != nil {
			m.logger.Warn("cart cache purge failed", zap.Error(err))
		}
	}
	return nil
}

// Refresh re-queries the current identity. It is a no-op while
// unauthenticated. A failure forces logout only when it is an
// authentication rejection and the user has been idle longer than the
// grace window; transient failures leave the session intact.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	if m.user == nil || m.closed {
		m.mu.Unlock()
		return nil
	}
	epoch := m.epoch
	m.mu.Unlock()

	user, err := m.identity.Current(ctx)

	m.mu.Lock()
	if m.epoch != epoch || m.user == nil {
		// a login or logout settled while the call was in flight
		m.mu.Unlock()
		return nil
	}

	if err != nil {
		idle := time.Since(m.lastActivity)
		rejected := domain.IsDomainError(err, domain.ErrCodeUnauthenticated)
		m.mu.Unlock()
		if rejected && idle > m.cfg.ActivityGrace {
			m.logger.Info("session rejected after idle grace window, logging out",
				zap.Duration("idle", idle))
			return m.Logout(ctx)
		}
		m.logger.Warn("identity refresh failed, keeping session", zap.Error(err))
		return nil
	}

	m.user = user
	m.lastErr = nil
	m.touchLocked()
	m.notifyLocked()
	m.mu.Unlock()
	return nil
}

// RecordActivity marks the user active now: the warning clears and the
// warning and hard-logout timers are cancelled and re-armed atomically.
// No-op while unauthenticated.
func (m *Manager) RecordActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil || m.closed {
		return
	}
	m.touchLocked()
	m.notifyLocked()
}

// DismissWarning acknowledges the idle warning; acknowledging counts as
// activity.
func (m *Manager) DismissWarning() {
	m.RecordActivity()
}

// UpdateUser shallow-merges the patch into the current user with no
// network call. No-op while unauthenticated.
func (m *Manager) UpdateUser(patch domain.UserPatch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil || m.closed {
		return
	}
	patch.Apply(m.user)
	m.notifyLocked()
}

// Snapshot returns the current read-only session view.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe registers a snapshot listener. Slow consumers drop
// intermediate snapshots but always observe the latest delivered state.
func (m *Manager) Subscribe() (int, <-chan Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	ch := make(chan Snapshot, 8)
	m.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a listener and closes its channel.
func (m *Manager) Unsubscribe(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch, ok := m.subs[id]; ok {
		delete(m.subs, id)
		close(ch)
	}
}

// Close cancels all timers and drops subscribers. The manager must not
// be used afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.cancelAllLocked()
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
}

// installSessionLocked starts a new session cycle for the given user.
func (m *Manager) installSessionLocked(user *domain.User) {
	m.epoch++
	m.user = user
	m.lastErr = nil
	m.warningActive = false
	m.lastActivity = time.Now()
	m.armIdleTimersLocked()
	m.armRefreshLocked()
	m.notifyLocked()
}

// clearSessionLocked resets to the empty state. Timer cancellation
// happens here, at the moment of state clearing, so timers armed by
// operations that raced with the caller are observed and cancelled too.
func (m *Manager) clearSessionLocked(err error) {
	m.epoch++
	m.user = nil
	m.lastActivity = time.Time{}
	m.warningActive = false
	m.lastErr = err
	m.cancelAllLocked()
	m.notifyLocked()
}

// touchLocked resets the idle clock and re-arms the idle timers.
func (m *Manager) touchLocked() {
	m.lastActivity = time.Now()
	m.warningActive = false
	m.armIdleTimersLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{
		User:            m.user.Clone(),
		IsAuthenticated: m.user != nil,
		IsLoading:       m.loading,
		Err:             m.lastErr,
		SessionWarning:  m.warningActive,
		LastActivity:    m.lastActivity,
	}
	if m.lastErr != nil {
		snap.ErrMessage = domain.ErrorMessage(m.lastErr, loginErrorFallback)
	}
	return snap
}

func (m *Manager) notifyLocked() {
	snap := m.snapshotLocked()
	for _, ch := range m.subs {
		select {
		case ch <- snap:
		default:
			// evict the oldest pending snapshot and retry once
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// hydrateIdentity runs the best-effort post-login refresh. Its failures
// never affect the already-successful login.
func (m *Manager) hydrateIdentity(epoch uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.CallTimeout)
	defer cancel()

	user, err := m.identity.Current(ctx)
	if err != nil {
		m.logger.Debug("post-login identity hydration failed", zap.Error(err))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch || m.user == nil {
		return
	}
	m.user = user
	m.notifyLocked()
}

func errCode(err error) domain.ErrorCode {
	if domain.IsDomainError(err, domain.ErrCodeInvalidCredentials) {
		return domain.ErrCodeInvalidCredentials
	}
	return domain.ErrCodeService
}
