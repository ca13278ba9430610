package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/sethvargo/go-retry"

	"github.com/serviya/serviya-go/internal/common"
)

// Get issues a GET request and decodes the JSON response.
func (c *Client) Get(ctx context.Context, path string) (Body, error) {
	return c.execute(ctx, http.MethodGet, path, nil)
}

// Post issues a POST request with a JSON-encoded body.
func (c *Client) Post(ctx context.Context, path string, body any) (Body, error) {
	return c.execute(ctx, http.MethodPost, path, body)
}

// Put issues a PUT request with a JSON-encoded body.
func (c *Client) Put(ctx context.Context, path string, body any) (Body, error) {
	return c.execute(ctx, http.MethodPut, path, body)
}

// Patch issues a PATCH request with a JSON-encoded body.
func (c *Client) Patch(ctx context.Context, path string, body any) (Body, error) {
	return c.execute(ctx, http.MethodPatch, path, body)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (Body, error) {
	return c.execute(ctx, http.MethodDelete, path, nil)
}

// execute runs one logical JSON call: hydrate credentials, ensure the token
// is fresh, send with a bounded timeout, refresh-and-reissue once on 401,
// and retry transient transport failures with exponential backoff.
func (c *Client) execute(ctx context.Context, method, path string, reqBody any) (Body, error) {
	if err := c.store.Load(ctx); err != nil {
		return nil, err
	}
	if err := c.tokens.EnsureValid(ctx); err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	var payload []byte
	if reqBody != nil {
		var err error
		payload, err = json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("encode request body (%v): %w", err, common.ErrInternal)
		}
	}

	var result Body
	attempts := 0
	refreshed := false

	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++

		status, data, err := c.doJSON(ctx, method, path, payload)

		// Reactive re-authentication: at most once per logical call, so a
		// server answering 401 forever cannot trap us in a loop.
		if err == nil && status == http.StatusUnauthorized && !refreshed {
			refreshed = true
			if rerr := c.tokens.Refresh(ctx); rerr != nil {
				return fmt.Errorf("re-authentication failed: %w", rerr)
			}
			c.log.Debug(ctx, "reissuing request after token refresh", "method", method, "path", path)
			status, data, err = c.doJSON(ctx, method, path, payload)
		}

		if err != nil {
			if isTransient(err) {
				c.log.Warn(ctx, "transient request failure",
					"method", method, "path", path, "attempt", attempts, "error", err)
				return retry.RetryableError(&TransientError{Attempts: attempts, Err: err})
			}
			return err
		}

		body, perr := parseBody(status, data)
		if perr != nil {
			return perr
		}
		result = body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// doJSON performs a single send with freshly computed headers and a bounded
// receive timeout, returning the status and the fully read body.
func (c *Client) doJSON(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request (%v): %w", err, common.ErrInternal)
	}
	req.Header = c.headers(ctx)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, classifyTransportError(err)
	}
	return resp.StatusCode, data, nil
}

// classifyTransportError maps wire failures onto the sentinel taxonomy:
// deadline and net timeouts become ErrTimeout, everything else
// ErrUnavailable. Caller-initiated cancellation passes through untouched.
func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		return fmt.Errorf("request timed out: %w", common.ErrTimeout)
	}
	return fmt.Errorf("connection failed (%v): %w", err, common.ErrUnavailable)
}

func isTransient(err error) bool {
	return errors.Is(err, common.ErrTimeout) || errors.Is(err, common.ErrUnavailable)
}
