// Package services contains application services for the Serviya client.
// This file defines the authentication service: login, registration, and
// logout with housekeeping of the locally stored session.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/serviya/serviya-go/internal/client/api"
	"github.com/serviya/serviya-go/internal/client/credentials"
	"github.com/serviya/serviya-go/internal/logging"
)

// Server endpoints used by the auth service.
const (
	LoginPath    = "/api/token/"
	RegisterPath = "/api/usuarios/registro/"
	LogoutPath   = "/api/token/blacklist/"
)

// ErrMalformedResponse reports a 2xx auth response the service could not
// extract a token pair from.
var ErrMalformedResponse = errors.New("malformed auth response")

// AuthService defines the login/registration lifecycle for the CLI.
//
// Contract:
//   - Login: authenticate against the server and persist the session.
//   - Register: create a new account, then log in with the same credentials.
//   - Logout: best-effort server-side revocation, then wipe the local session.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Login(ctx context.Context, email string, password []byte) error
	Register(ctx context.Context, email string, password []byte, name string) error
	Logout(ctx context.Context) error
}

// authService is the concrete AuthService backed by the API client
// and the local credential store.
type authService struct {
	api      *api.Client
	store    *credentials.Store
	lifetime time.Duration
	log      logging.Logger
}

// NewAuthService constructs an AuthService bound to the given API client and store.
func NewAuthService(client *api.Client, store *credentials.Store, lifetime time.Duration, log logging.Logger) AuthService {
	if lifetime <= 0 {
		lifetime = credentials.DefaultTokenLifetime
	}
	return &authService{api: client, store: store, lifetime: lifetime, log: log}
}

// Login authenticates against the server and persists the returned session.
// The password is not retained after the call.
func (a *authService) Login(ctx context.Context, email string, password []byte) error {
	body, err := a.api.Post(ctx, LoginPath, map[string]string{
		"email":    email,
		"password": string(password),
	})
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}
	return a.saveSession(ctx, body)
}

// Register creates a new account on the server and immediately logs in,
// so a fresh install ends the command with a usable session.
func (a *authService) Register(ctx context.Context, email string, password []byte, name string) error {
	_, err := a.api.Post(ctx, RegisterPath, map[string]string{
		"email":    email,
		"password": string(password),
		"nombre":   name,
	})
	if err != nil {
		return fmt.Errorf("register error: %w", err)
	}
	return a.Login(ctx, email, password)
}

// Logout revokes the refresh token on the server when one exists, then
// clears the local session. Server-side failures are logged and ignored;
// the local wipe is what logout guarantees.
func (a *authService) Logout(ctx context.Context) error {
	creds := a.store.Snapshot()
	if creds.RefreshToken != "" {
		_, err := a.api.Post(ctx, LogoutPath, map[string]string{"refresh": creds.RefreshToken})
		if err != nil {
			a.log.Warn(ctx, "server-side logout failed", "error", err)
		}
	}
	return a.store.Clear(ctx)
}

// saveSession extracts the token pair and identity from a login response
// and writes them to the store.
func (a *authService) saveSession(ctx context.Context, body api.Body) error {
	tokens, ok := body["tokens"].(map[string]any)
	if !ok {
		// Some deployments return the pair at the top level.
		tokens = body
	}
	access, _ := tokens["access"].(string)
	refresh, _ := tokens["refresh"].(string)
	if access == "" || refresh == "" {
		return ErrMalformedResponse
	}

	role, _ := body["rol"].(string)
	var userID int64
	if v, ok := body["user_id"].(float64); ok {
		userID = int64(v)
	}

	if err := a.store.Save(ctx, access, refresh, role, userID, a.lifetime); err != nil {
		return fmt.Errorf("session save error: %w", err)
	}
	return nil
}
