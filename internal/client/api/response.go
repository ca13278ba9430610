package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/serviya/serviya-go/internal/common"
)

// Body is a decoded JSON response object.
type Body map[string]any

// Keys of synthetic bodies produced by parseBody.
const (
	// SuccessKey marks a 2xx response that carried no body.
	SuccessKey = "success"
	// RawKey wraps a 2xx body that was not a JSON object. The HTTP layer
	// already signaled success, so a malformed body never fails the call.
	RawKey = "raw"
)

// parseBody turns a finished HTTP exchange into a Body or a structured
// *Error. Non-2xx statuses map onto the sentinel taxonomy in common.
func parseBody(status int, data []byte) (Body, error) {
	if status >= 200 && status < 300 {
		if len(bytes.TrimSpace(data)) == 0 {
			return Body{SuccessKey: true}, nil
		}
		var body Body
		if err := json.Unmarshal(data, &body); err != nil {
			return Body{RawKey: string(data)}, nil
		}
		return body, nil
	}
	return nil, newError(status, data)
}

func newError(status int, data []byte) *Error {
	var payload Body
	if err := json.Unmarshal(data, &payload); err != nil || payload == nil {
		payload = Body{RawKey: string(data)}
	}

	e := &Error{
		Status:  status,
		Payload: payload,
		Message: canonicalMessage(status),
		kind:    statusKind(status),
	}

	// The backend names its error field inconsistently.
	for _, field := range []string{"message", "detail", "error"} {
		if s, ok := payload[field].(string); ok && s != "" {
			e.Message = s
			break
		}
	}

	if status == http.StatusTooManyRequests {
		e.RateLimit = parseRateLimit(payload)
	}
	return e
}

func canonicalMessage(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "session expired"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not found"
	case http.StatusTooManyRequests:
		return "rate limited"
	default:
		if status >= 500 {
			return "server error"
		}
		return http.StatusText(status)
	}
}

func statusKind(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return common.ErrSessionExpired
	case http.StatusForbidden:
		return common.ErrForbidden
	case http.StatusNotFound:
		return common.ErrNotFound
	case http.StatusTooManyRequests:
		return common.ErrRateLimited
	default:
		return common.ErrServer
	}
}

func parseRateLimit(payload Body) *RateLimit {
	rl := &RateLimit{}
	if v, ok := payload["tiempo_espera"].(float64); ok {
		rl.RetryAfter = secondsToDuration(v)
	}
	if v, ok := payload["tipo"].(string); ok {
		rl.Type = v
	}
	if v, ok := payload["bloqueado_hasta"].(string); ok {
		rl.BlockedUntil = v
	}
	if v, ok := payload["bloqueado"].(bool); ok {
		rl.Blocked = v
	}
	return rl
}

func secondsToDuration(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
