package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/ayatskii/panel-sub002/internal/transport"
)

const (
	// StatusFetchError marks a request that never produced a response.
	StatusFetchError = -1
	// StatusParsingError marks a response body that could not be decoded.
	StatusParsingError = -2
)

// ErrorData is the structured body of a failed API response.
type ErrorData struct {
	Detail  string
	Message string
	// Fields holds per-field validation messages keyed by field name.
	Fields map[string][]string
	Raw    string
}

// APIError is the single error shape returned by the client.
type APIError struct {
	Status    int
	Data      ErrorData
	RequestID string
	Err       error
}

func (e *APIError) Error() string {
	switch e.Status {
	case StatusFetchError:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "request failed: no response"
	case StatusParsingError:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "invalid response body"
	}

	msg := e.Message()
	switch e.Status {
	case http.StatusBadRequest:
		return fmt.Sprintf("invalid request: %s", msg)
	case http.StatusUnauthorized:
		return fmt.Sprintf("authentication required: %s (run panelctl login)", msg)
	case http.StatusForbidden:
		return fmt.Sprintf("permission denied: %s", msg)
	case http.StatusNotFound:
		return fmt.Sprintf("resource not found: %s (check the id and --context)", msg)
	case http.StatusConflict:
		return fmt.Sprintf("conflict: %s", msg)
	case http.StatusTooManyRequests:
		return fmt.Sprintf("rate limited: %s", msg)
	case http.StatusServiceUnavailable:
		return fmt.Sprintf("server unavailable: %s", msg)
	default:
		if e.Status >= 500 {
			return fmt.Sprintf("server error (%d): %s", e.Status, msg)
		}
		return fmt.Sprintf("request failed (%d): %s", e.Status, msg)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// Message is the most specific human-readable text carried by the error body.
func (e *APIError) Message() string {
	if v := strings.TrimSpace(e.Data.Detail); v != "" {
		return v
	}
	if v := strings.TrimSpace(e.Data.Message); v != "" {
		return v
	}
	if len(e.Data.Fields) > 0 {
		return e.FieldErrors()
	}
	if v := strings.TrimSpace(e.Data.Raw); v != "" {
		return v
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "request failed"
}

// FieldErrors renders field messages sorted by field name.
func (e *APIError) FieldErrors() string {
	keys := make([]string, 0, len(e.Data.Fields))
	for k := range e.Data.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Data.Fields[k], " "))
	}
	return strings.Join(parts, "; ")
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func mapAPIError(resp *http.Response, requestID string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	return &APIError{
		Status:    resp.StatusCode,
		Data:      parseErrorData(body),
		RequestID: requestID,
	}
}

func parseErrorData(body []byte) ErrorData {
	data := ErrorData{Raw: strings.TrimSpace(string(body))}
	if len(body) == 0 {
		return data
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		var list []string
		if json.Unmarshal(body, &list) == nil && len(list) > 0 {
			data.Fields = map[string][]string{"non_field_errors": list}
		}
		return data
	}
	for key, raw := range fields {
		switch key {
		case "detail":
			data.Detail = rawString(raw)
		case "message", "error":
			if data.Message == "" {
				data.Message = rawString(raw)
			}
		default:
			if msgs := rawMessages(raw); len(msgs) > 0 {
				if data.Fields == nil {
					data.Fields = map[string][]string{}
				}
				data.Fields[key] = msgs
			}
		}
	}
	return data
}

func rawString(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func rawMessages(raw json.RawMessage) []string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if s = strings.TrimSpace(s); s != "" {
			return []string{s}
		}
		return nil
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return list
	}
	var nested map[string]json.RawMessage
	if json.Unmarshal(raw, &nested) == nil {
		var out []string
		keys := make([]string, 0, len(nested))
		for k := range nested {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			for _, m := range rawMessages(nested[k]) {
				out = append(out, k+": "+m)
			}
		}
		return out
	}
	return nil
}

func mapTransportError(err error, requestID string) error {
	var wrapped error
	switch {
	case errors.Is(err, transport.ErrSSHAuth):
		wrapped = fmt.Errorf("ssh authentication failed: %w", err)
	case errors.Is(err, transport.ErrSSHHostKey):
		wrapped = fmt.Errorf("ssh host key verification failed: %w", err)
	case errors.Is(err, transport.ErrSSHAgentUnavailable):
		wrapped = fmt.Errorf("ssh agent unavailable: %w", err)
	case errors.Is(err, transport.ErrSSHUnreachable):
		wrapped = fmt.Errorf("ssh host unreachable: %w", err)
	case errors.Is(err, transport.ErrSSHTunnel):
		wrapped = fmt.Errorf("ssh tunnel failed: %w", err)
	case errors.Is(err, transport.ErrUnreachable):
		wrapped = fmt.Errorf("server unreachable: %w", err)
	case errors.Is(err, transport.ErrTimeout):
		wrapped = fmt.Errorf("request timed out: %w", err)
	default:
		wrapped = fmt.Errorf("request failed: %w", err)
	}
	return &APIError{Status: StatusFetchError, RequestID: requestID, Err: wrapped}
}
