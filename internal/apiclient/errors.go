package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrTimeout matches requests that hit the client timeout.
	ErrTimeout = errors.New("apiclient: request timed out")
	// ErrSessionExpired matches 401/403 responses that invalidated the session.
	ErrSessionExpired = errors.New("apiclient: session expired")
)

// FallbackMessage is used when neither the server nor the transport says
// anything useful.
const FallbackMessage = "Request failed"

// Error is returned for every failed call. Callers show Message; Body keeps
// the raw server payload for structured validation details.
type Error struct {
	Method  string
	Path    string
	Status  int
	Message string
	Header  http.Header
	Body    []byte
	Err     error

	timeout        bool
	sessionExpired bool
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.timeout
	case ErrSessionExpired:
		return e.sessionExpired
	}
	return false
}

// Timeout reports whether the call was cut off by the client timeout.
func (e *Error) Timeout() bool { return e.timeout }

// SessionExpired reports whether this failure cleared the stored credential.
func (e *Error) SessionExpired() bool { return e.sessionExpired }

// MessageOf returns the user-facing message for err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return FallbackMessage
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// serverMessage pulls "message", then a string "error", then error.message
// out of a JSON error body.
func serverMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var doc struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return ""
	}
	if s := rawString(doc.Message); s != "" {
		return s
	}
	if s := rawString(doc.Error); s != "" {
		return s
	}
	if len(doc.Error) > 0 && doc.Error[0] == '{' {
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(doc.Error, &nested) == nil {
			return strings.TrimSpace(nested.Message)
		}
	}
	return ""
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || raw[0] != '"' {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// ValidationMessages extracts the server's structured validation errors.
// Accepted shapes for the "errors" field: a list of strings, a list of
// objects with msg/message (and optional field/param/path), or an object
// mapping field names to a string or list of strings.
func ValidationMessages(err error) []string {
	var apiErr *Error
	if !errors.As(err, &apiErr) || len(apiErr.Body) == 0 {
		return nil
	}
	var doc struct {
		Errors json.RawMessage `json:"errors"`
	}
	if json.Unmarshal(apiErr.Body, &doc) != nil || len(doc.Errors) == 0 {
		return nil
	}

	var out []string
	switch doc.Errors[0] {
	case '[':
		var items []json.RawMessage
		if json.Unmarshal(doc.Errors, &items) != nil {
			return nil
		}
		for _, it := range items {
			if s := rawString(it); s != "" {
				out = append(out, s)
				continue
			}
			var obj struct {
				Msg     string `json:"msg"`
				Message string `json:"message"`
				Field   string `json:"field"`
				Param   string `json:"param"`
				Path    string `json:"path"`
			}
			if json.Unmarshal(it, &obj) != nil {
				continue
			}
			msg := obj.Msg
			if msg == "" {
				msg = obj.Message
			}
			if msg == "" {
				continue
			}
			field := obj.Field
			if field == "" {
				field = obj.Param
			}
			if field == "" {
				field = obj.Path
			}
			if field != "" {
				msg = field + ": " + msg
			}
			out = append(out, msg)
		}
	case '{':
		var fields map[string]json.RawMessage
		if json.Unmarshal(doc.Errors, &fields) != nil {
			return nil
		}
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			raw := fields[name]
			if s := rawString(raw); s != "" {
				out = append(out, name+": "+s)
				continue
			}
			var list []string
			if json.Unmarshal(raw, &list) == nil {
				for _, s := range list {
					out = append(out, name+": "+s)
				}
			}
		}
	}
	return out
}

// ValidationSummary joins ValidationMessages for inline display, falling
// back to the error message.
func ValidationSummary(err error) string {
	if msgs := ValidationMessages(err); len(msgs) > 0 {
		return strings.Join(msgs, ", ")
	}
	return MessageOf(err)
}
