// Package credentials owns the single credential record of the client:
// access/refresh tokens, cached role and user id, and the token expiry.
// The record is mirrored in memory and persisted encrypted in sqlite.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/serviya/serviya-go/internal/logging"
)

// Storage keys. One named entry per credential field.
const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyIssuedAt     = "issued_at"
	keyExpiresAt    = "expires_at"
	keyUserRole     = "user_role"
	keyUserID       = "user_id"

	// keyInstallID identifies the installation, not the session,
	// and deliberately survives Clear.
	keyInstallID = "install_id"
)

// DefaultTokenLifetime is assumed when the server does not say how long an
// access token lives and the token itself carries no exp claim.
const DefaultTokenLifetime = 12 * time.Hour

// Credentials is the in-memory mirror of the persisted record.
// A zero AccessToken means the client is unauthenticated.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	Role         string
	UserID       int64
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// Authenticated reports whether an access token is present.
func (c Credentials) Authenticated() bool {
	return c.AccessToken != ""
}

// Store is the sole writer of credential state. All other components read
// the in-memory mirror through Snapshot or trigger a Load.
type Store struct {
	mu   sync.RWMutex
	repo Repository
	log  logging.Logger

	creds  Credentials
	loaded bool
}

func NewStore(repo Repository, log logging.Logger) *Store {
	return &Store{repo: repo, log: log}
}

// Save writes the full record durably and updates the in-memory mirror.
// ExpiresAt is now+lifetime, unless the access token is a JWT carrying an
// exp claim, which wins. A persistence error is returned to the caller, but
// the mirror is updated regardless so the running process keeps working
// with the tokens it just obtained.
func (s *Store) Save(ctx context.Context, access, refresh, role string, userID int64, lifetime time.Duration) error {
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}

	issued := time.Now()
	creds := Credentials{
		AccessToken:  access,
		RefreshToken: refresh,
		Role:         role,
		UserID:       userID,
		IssuedAt:     issued,
		ExpiresAt:    tokenExpiry(access, issued, lifetime),
	}

	s.mu.Lock()
	s.creds = creds
	s.loaded = true
	s.mu.Unlock()

	err := s.repo.SetMany(ctx, map[string][]byte{
		keyAccessToken:  []byte(access),
		keyRefreshToken: []byte(refresh),
		keyUserRole:     []byte(role),
		keyUserID:       []byte(strconv.FormatInt(userID, 10)),
		keyIssuedAt:     []byte(creds.IssuedAt.Format(time.RFC3339Nano)),
		keyExpiresAt:    []byte(creds.ExpiresAt.Format(time.RFC3339Nano)),
	})
	if err != nil {
		s.log.Error(ctx, "failed to persist credentials", "error", err)
		return fmt.Errorf("persist credentials: %w", err)
	}
	return nil
}

// Load hydrates the mirror from storage. It is a cheap no-op once hydrated,
// so callers invoke it defensively before every request. Any storage or
// decryption failure wipes the record instead of leaving partial state.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return nil
	}

	creds, err := s.readAll(ctx)
	if err != nil {
		s.log.Warn(ctx, "credential storage unreadable, clearing", "error", err)
		s.creds = Credentials{}
		s.loaded = true
		s.deleteAll(ctx)
		return nil
	}

	s.creds = creds
	s.loaded = true
	return nil
}

func (s *Store) readAll(ctx context.Context) (Credentials, error) {
	var creds Credentials

	access, err := s.repo.Get(ctx, keyAccessToken)
	if err != nil {
		return creds, err
	}
	refresh, err := s.repo.Get(ctx, keyRefreshToken)
	if err != nil {
		return creds, err
	}
	role, err := s.repo.Get(ctx, keyUserRole)
	if err != nil {
		return creds, err
	}
	rawID, err := s.repo.Get(ctx, keyUserID)
	if err != nil {
		return creds, err
	}
	rawIssued, err := s.repo.Get(ctx, keyIssuedAt)
	if err != nil {
		return creds, err
	}
	rawExpires, err := s.repo.Get(ctx, keyExpiresAt)
	if err != nil {
		return creds, err
	}

	creds.AccessToken = string(access)
	creds.RefreshToken = string(refresh)
	creds.Role = string(role)

	if len(rawID) > 0 {
		id, err := strconv.ParseInt(string(rawID), 10, 64)
		if err != nil {
			return Credentials{}, fmt.Errorf("corrupt user id: %w", err)
		}
		creds.UserID = id
	}
	if len(rawIssued) > 0 {
		ts, err := time.Parse(time.RFC3339Nano, string(rawIssued))
		if err != nil {
			return Credentials{}, fmt.Errorf("corrupt issued_at: %w", err)
		}
		creds.IssuedAt = ts
	}
	if len(rawExpires) > 0 {
		ts, err := time.Parse(time.RFC3339Nano, string(rawExpires))
		if err != nil {
			return Credentials{}, fmt.Errorf("corrupt expires_at: %w", err)
		}
		creds.ExpiresAt = ts
	}

	return creds, nil
}

// Clear wipes the in-memory record and deletes every credential key.
// Deletes are best-effort per key; already-absent keys are fine. After
// Clear returns no reader can observe a stale token.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = Credentials{}
	s.loaded = true

	return s.deleteAll(ctx)
}

func (s *Store) deleteAll(ctx context.Context) error {
	var errs []error
	for _, key := range []string{
		keyAccessToken, keyRefreshToken, keyUserRole,
		keyUserID, keyIssuedAt, keyExpiresAt,
	} {
		if err := s.repo.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// HasStored reports whether an access token is persisted, reading only that
// one key. Meant for startup routing decisions before the store is hydrated.
func (s *Store) HasStored(ctx context.Context) (bool, error) {
	value, err := s.repo.Get(ctx, keyAccessToken)
	if err != nil {
		return false, err
	}
	return len(value) > 0, nil
}

// Snapshot returns a copy of the current in-memory record.
func (s *Store) Snapshot() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

// InstallID returns the stable installation identifier, minting and
// persisting one on first call.
func (s *Store) InstallID(ctx context.Context) (string, error) {
	value, err := s.repo.Get(ctx, keyInstallID)
	if err != nil {
		return "", fmt.Errorf("read install id: %w", err)
	}
	if len(value) > 0 {
		return string(value), nil
	}

	id := uuid.NewString()
	if err := s.repo.Set(ctx, keyInstallID, []byte(id)); err != nil {
		return "", fmt.Errorf("persist install id: %w", err)
	}
	return id, nil
}

// tokenExpiry prefers the exp claim of a JWT access token over the assumed
// lifetime. The token is parsed unverified: the client holds no signing key,
// and the expiry is advisory (the server remains the authority).
func tokenExpiry(access string, issued time.Time, lifetime time.Duration) time.Time {
	token, _, err := jwt.NewParser().ParseUnverified(access, &jwt.RegisteredClaims{})
	if err == nil {
		if claims, ok := token.Claims.(*jwt.RegisteredClaims); ok && claims.ExpiresAt != nil {
			return claims.ExpiresAt.Time
		}
	}
	return issued.Add(lifetime)
}
