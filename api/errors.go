package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrSessionExpired marks terminal authentication failures: the refresh
// token was missing or rejected, or a replayed request was rejected
// again. Callers should send the user back to sign-in when they see it.
var ErrSessionExpired = errors.New("session expired")

// Error is the one failure shape the client surfaces. Every transport
// error, backend error envelope and auth failure is normalized into it
// before reaching calling code.
type Error struct {
	Message   string              // Human-readable description
	Code      string              // Optional machine code from the backend
	Details   map[string][]string // Field-level validation messages, if any
	Status    int                 // HTTP status, 0 when no response arrived
	IsNetwork bool                // True when no response reached the server

	cause error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// AsError unwraps err into an *Error, or nil when err is not one.
func AsError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

// IsNetworkError reports whether err represents a failure where no
// response reached the server, timeouts included.
func IsNetworkError(err error) bool {
	apiErr := AsError(err)
	return apiErr != nil && apiErr.IsNetwork
}

// IsSessionExpired reports whether err is a terminal auth failure.
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

// networkError wraps a transport-level failure. Timeouts get their own
// message but are otherwise indistinguishable from connectivity loss.
func networkError(err error) *Error {
	message := "Network error. Check your connection."
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		message = "Request timeout. Please try again."
	}
	return &Error{Message: message, IsNetwork: true, cause: err}
}

// normalizeResponse turns a non-2xx response body into an *Error.
// The backend has produced several failure shapes over time:
// {message: string|[]string}, {error: string}, {errors: {field: [..]}},
// and express-validator style {errors: [{param, msg}]}. All are folded
// into one message plus optional per-field details.
func normalizeResponse(status int, body []byte) *Error {
	e := &Error{Status: status}

	var payload map[string]any
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		e.Message, e.Details = extractErrorBody(payload)
		if code, ok := payload["code"].(string); ok {
			e.Code = code
		}
	} else if s := strings.TrimSpace(string(body)); s != "" && !strings.HasPrefix(s, "<") {
		e.Message = s
	}

	if e.Message == "" {
		e.Message = fmt.Sprintf("Request failed with status %d", status)
	}
	return e
}

func extractErrorBody(payload map[string]any) (string, map[string][]string) {
	details := map[string][]string{}

	switch errs := payload["errors"].(type) {
	case map[string]any:
		for field, v := range errs {
			switch val := v.(type) {
			case []any:
				for _, item := range val {
					details[field] = append(details[field], fmt.Sprint(item))
				}
			case nil:
			default:
				details[field] = append(details[field], fmt.Sprint(val))
			}
		}
	case []any:
		for _, item := range errs {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			field := firstString(entry, "param", "field")
			if field == "" {
				field = "error"
			}
			msg := firstString(entry, "msg", "message", "detail")
			if msg == "" {
				msg = fmt.Sprint(item)
			}
			details[field] = appendUnique(details[field], msg)
		}
	}

	var message string
	switch m := payload["message"].(type) {
	case string:
		message = m
	case []any:
		parts := make([]string, 0, len(m))
		for _, part := range m {
			parts = append(parts, fmt.Sprint(part))
		}
		message = strings.Join(parts, "\n")
	}
	if message == "" {
		if s, ok := payload["error"].(string); ok {
			message = s
		}
	}

	if len(details) == 0 {
		details = nil
	}
	return message, details
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
