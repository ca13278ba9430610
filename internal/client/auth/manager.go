// Package auth decides when the access token is stale and renews it,
// coalescing concurrent renewal attempts into a single wire call.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/serviya/serviya-go/internal/client/credentials"
	"github.com/serviya/serviya-go/internal/common"
	"github.com/serviya/serviya-go/internal/logging"
)

// DefaultRefreshMargin renews tokens this long before their recorded expiry,
// so a request never leaves with a token about to die in flight.
const DefaultRefreshMargin = 5 * time.Minute

// Refresher performs the wire call exchanging a refresh token for a new
// access token. Implementations must return an error matching
// common.ErrSessionExpired when the server rejects the refresh token (401),
// and one matching common.ErrUnavailable on transport failure. The two are
// handled very differently here.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// Manager guarantees that at most one refresh call is in flight at any time
// and that every caller of EnsureValid proceeds with a verified-fresh token
// or fails with an authentication error.
type Manager struct {
	store     *credentials.Store
	refresher Refresher
	margin    time.Duration
	lifetime  time.Duration
	log       logging.Logger

	group singleflight.Group
	now   func() time.Time
}

func NewManager(store *credentials.Store, refresher Refresher, margin, lifetime time.Duration, log logging.Logger) *Manager {
	if margin <= 0 {
		margin = DefaultRefreshMargin
	}
	if lifetime <= 0 {
		lifetime = credentials.DefaultTokenLifetime
	}
	return &Manager{
		store:     store,
		refresher: refresher,
		margin:    margin,
		lifetime:  lifetime,
		log:       log,
		now:       time.Now,
	}
}

// EnsureValid returns immediately when the client is unauthenticated (the
// server stays the authority for such requests) or the token is still fresh.
// Otherwise it joins the shared refresh.
func (m *Manager) EnsureValid(ctx context.Context) error {
	if err := m.store.Load(ctx); err != nil {
		return err
	}

	creds := m.store.Snapshot()
	if !creds.Authenticated() {
		return nil
	}
	if m.now().Before(creds.ExpiresAt.Add(-m.margin)) {
		return nil
	}
	return m.Refresh(ctx)
}

// Refresh renews the access token. Concurrent callers attach to the one
// in-flight renewal and observe its single outcome.
func (m *Manager) Refresh(ctx context.Context) error {
	_, err, _ := m.group.Do("refresh", func() (any, error) {
		return nil, m.doRefresh(ctx)
	})
	return err
}

func (m *Manager) doRefresh(ctx context.Context) error {
	creds := m.store.Snapshot()

	if creds.RefreshToken == "" {
		// Refresh is impossible: fail closed so subsequent calls fail fast.
		if err := m.store.Clear(ctx); err != nil {
			m.log.Warn(ctx, "failed to clear credentials", "error", err)
		}
		return fmt.Errorf("no refresh token: %w", common.ErrSessionExpired)
	}

	access, err := m.refresher.Refresh(ctx, creds.RefreshToken)
	switch {
	case err == nil:
		// fall through to save
	case errors.Is(err, common.ErrSessionExpired), errors.Is(err, common.ErrUnauthorized):
		// The refresh token itself is no longer trusted.
		m.log.Info(ctx, "refresh token rejected, clearing credentials")
		if clearErr := m.store.Clear(ctx); clearErr != nil {
			m.log.Warn(ctx, "failed to clear credentials", "error", clearErr)
		}
		return fmt.Errorf("refresh rejected: %w", common.ErrSessionExpired)
	default:
		// Transport failure: credentials stay untouched so a later attempt
		// can retry cleanly. A flaky network must not log the user out.
		return fmt.Errorf("refresh call failed: %w", err)
	}

	// The refresh endpoint reissues only the access token; refresh token,
	// role and user id carry over unchanged.
	if err := m.store.Save(ctx, access, creds.RefreshToken, creds.Role, creds.UserID, m.lifetime); err != nil {
		// Persistence degraded, but the in-memory token is live.
		m.log.Warn(ctx, "refreshed token not persisted", "error", err)
	}
	m.log.Debug(ctx, "access token refreshed")
	return nil
}
