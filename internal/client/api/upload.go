package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/serviya/serviya-go/internal/filex"
)

// Upload sends a multipart request with the given form fields and files,
// where files maps a form field name to a local file path.
//
// Every file is validated before any network I/O. Unlike JSON calls,
// transient failures are never retried: blindly resending a large binary
// upload risks duplicate server-side effects and wastes bandwidth. The only
// reissue is a single one after a successful 401-triggered token refresh,
// re-streaming the files from their original paths.
func (c *Client) Upload(ctx context.Context, method, path string, fields map[string]string, files map[string]string) (Body, error) {
	// Pre-flight: validate in stable field order so repeated calls report
	// the same offender first. A doomed upload must be rejected before any
	// network activity, including a token refresh.
	names := make([]string, 0, len(files))
	for field := range files {
		names = append(names, field)
	}
	sort.Strings(names)
	for _, field := range names {
		if err := filex.ValidateUpload(files[field], c.maxUploadSize); err != nil {
			return nil, &ValidationError{Field: field, Path: files[field], Reason: err.Error()}
		}
	}

	if err := c.store.Load(ctx); err != nil {
		return nil, err
	}
	if err := c.tokens.EnsureValid(ctx); err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	status, data, err := c.doMultipart(ctx, method, path, fields, files)
	if err == nil && status == http.StatusUnauthorized {
		if rerr := c.tokens.Refresh(ctx); rerr != nil {
			return nil, fmt.Errorf("re-authentication failed: %w", rerr)
		}
		c.log.Debug(ctx, "reissuing upload after token refresh", "method", method, "path", path)
		status, data, err = c.doMultipart(ctx, method, path, fields, files)
	}
	if err != nil {
		if isTransient(err) {
			return nil, &TransientError{Attempts: 1, Err: err}
		}
		return nil, err
	}

	return parseBody(status, data)
}

// doMultipart streams one multipart send. File bytes are piped straight
// into the request body, never buffered whole in memory, and the timeout is
// extended relative to JSON calls.
func (c *Client) doMultipart(ctx context.Context, method, path string, fields, files map[string]string) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeMultipart(mw, fields, files)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, pr)
	if err != nil {
		pr.Close()
		return 0, nil, classifyTransportError(err)
	}
	req.Header = c.headers(ctx)
	// Content-Type carries the part boundary; parts set their own types.
	req.Header.Set("Content-Type", mw.FormDataContentType())

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

func writeMultipart(mw *multipart.Writer, fields, files map[string]string) error {
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return err
		}
	}
	for field, fpath := range files {
		f, err := os.Open(fpath)
		if err != nil {
			return err
		}
		part, err := mw.CreateFormFile(field, filepath.Base(fpath))
		if err != nil {
			f.Close()
			return err
		}
		if _, err := io.Copy(part, f); err != nil {
			f.Close()
			return err
		}
		f.Close()
	}
	return nil
}
