package auth

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xtvctl/xtv/tui"
)

// Authorizer obtains a brand-new credential, usually with user interaction.
type Authorizer interface {
	Authorize(ctx context.Context) (*Credential, error)
}

// Refresher exchanges a refresh token for a new credential.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*Credential, error)
}

// Manager hands out a usable credential, refreshing or re-authorizing as
// needed. Acquire calls are serialized so one expiry causes one refresh.
type Manager struct {
	mu   sync.Mutex
	cred *Credential

	authorizer Authorizer
	refresher  Refresher

	now     func() time.Time
	display tui.Displayer
	log     *zap.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithDisplayer reports lifecycle events to d.
func WithDisplayer(d tui.Displayer) ManagerOption {
	return func(m *Manager) { m.display = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) { m.log = l }
}

// NewManager starts from initial, which may be nil. An incomplete initial
// credential is ignored.
func NewManager(initial *Credential, a Authorizer, r Refresher, opts ...ManagerOption) *Manager {
	m := &Manager{
		authorizer: a,
		refresher:  r,
		now:        time.Now,
		display:    tui.NoopDisplayer{},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if initial.Complete() {
		c := *initial
		m.cred = &c
	}
	return m
}

// Acquire returns a credential that is unexpired at the time of the check.
//
// With no credential it authorizes. With an expired one it refreshes, and on
// any refresh failure it logs the cause and authorizes instead. The returned
// error is the authorization error in that case.
func (m *Manager) Acquire(ctx context.Context) (Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cred == nil {
		m.display.TokensNotFound()
		return m.authorizeLocked(ctx)
	}
	if !m.cred.IsExpired(m.now()) {
		return *m.cred, nil
	}

	m.display.TokenExpired()
	cred, err := m.refresher.Refresh(ctx, m.cred.Refresh)
	if err == nil {
		m.log.Debug("access token refreshed", zap.Time("expiry", cred.Expiry))
		m.display.RefreshOK()
		m.cred = cred
		return *cred, nil
	}

	m.log.Warn("token refresh failed, falling back to authorization", zap.Error(err))
	m.display.RefreshFailed(err)
	return m.authorizeLocked(ctx)
}

// Reauthenticate discards nothing until a new credential is in hand, then
// replaces the current one.
func (m *Manager) Reauthenticate(ctx context.Context) (Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authorizeLocked(ctx)
}

func (m *Manager) authorizeLocked(ctx context.Context) (Credential, error) {
	cred, err := m.authorizer.Authorize(ctx)
	if err != nil {
		return Credential{}, err
	}
	m.log.Debug("authorization complete", zap.Time("expiry", cred.Expiry))
	m.cred = cred
	return *cred, nil
}

// Current returns a copy of the held credential, or nil.
func (m *Manager) Current() *Credential {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return nil
	}
	c := *m.cred
	return &c
}

// Clear forgets the held credential.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = nil
}
