package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/serviya/serviya-go/internal/client/auth"
	"github.com/serviya/serviya-go/internal/client/config"
	"github.com/serviya/serviya-go/internal/client/credentials"
	"github.com/serviya/serviya-go/internal/common"
	"github.com/serviya/serviya-go/internal/logging"
)

// TokenRefreshPath is the backend endpoint that mints new access tokens.
const TokenRefreshPath = "/api/token/refresh/"

// Client is the authenticated HTTP client for the Serviya backend. One
// instance is constructed in the composition root and shared; it owns the
// token lifecycle manager and reads the credential store's mirror.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	store   *credentials.Store
	tokens  *auth.Manager
	log     logging.Logger

	timeout       time.Duration
	uploadTimeout time.Duration
	maxRetries    uint64
	retryBase     time.Duration
	maxUploadSize int64
}

func New(cfg *config.Config, store *credentials.Store, log logging.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	factor := cfg.UploadTimeoutFactor
	if factor <= 0 {
		factor = 3
	}
	retries := cfg.MaxRetries
	if retries == 0 {
		retries = 3
	}
	retryBase := cfg.RetryBase
	if retryBase <= 0 {
		retryBase = 2 * time.Second
	}
	maxUpload := cfg.MaxUploadSize
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}

	c := &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		http:          &http.Client{},
		store:         store,
		log:           log,
		timeout:       timeout,
		uploadTimeout: time.Duration(factor) * timeout,
		maxRetries:    retries,
		retryBase:     retryBase,
		maxUploadSize: maxUpload,
	}
	c.tokens = auth.NewManager(store, &refreshDoer{c: c}, cfg.RefreshMargin, cfg.TokenLifetime, log)
	return c
}

// Tokens exposes the lifecycle manager, mainly so callers can force an
// eager refresh (e.g. on app foreground).
func (c *Client) Tokens() *auth.Manager {
	return c.tokens
}

// headers builds the common header set: JSON accept, client API key,
// installation id, and the bearer token when authenticated.
func (c *Client) headers(ctx context.Context) http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("X-API-Key", c.apiKey)

	if id, err := c.store.InstallID(ctx); err == nil && id != "" {
		h.Set("X-Install-Id", id)
	} else if err != nil {
		c.log.Warn(ctx, "install id unavailable", "error", err)
	}

	if creds := c.store.Snapshot(); creds.Authenticated() {
		h.Set("Authorization", "Bearer "+creds.AccessToken)
	}
	return h
}

/*************
 * Refresh wire call
 *************/

// refreshDoer performs the actual token-refresh request. It bypasses the
// executor on purpose: refresh must never recurse into the 401 handling it
// backs, and it runs without an Authorization header.
type refreshDoer struct {
	c *Client
}

func (r *refreshDoer) Refresh(ctx context.Context, refreshToken string) (string, error) {
	payload, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		return "", fmt.Errorf("encode refresh request: %w", common.ErrInternal)
	}

	ctx, cancel := context.WithTimeout(ctx, r.c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.c.baseURL+TokenRefreshPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build refresh request: %w", common.ErrInternal)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", r.c.apiKey)

	resp, err := r.c.http.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", fmt.Errorf("refresh token rejected: %w", common.ErrSessionExpired)
	case resp.StatusCode != http.StatusOK:
		// Anything else is the server misbehaving; treated like a transport
		// failure so credentials survive.
		return "", fmt.Errorf("refresh endpoint returned %d: %w", resp.StatusCode, common.ErrUnavailable)
	}

	var body struct {
		Access string `json:"access"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Access == "" {
		return "", fmt.Errorf("malformed refresh response: %w", common.ErrUnavailable)
	}
	return body.Access, nil
}
