package storefront

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrUnauthorized is returned when the API rejects the auth token.
var ErrUnauthorized = errors.New("Session expired. Please log in again.")

// APIError is a non-2xx response other than 401.
type APIError struct {
	Path    string
	Status  int
	Message string
	// Fields holds per-field validation messages when the API returns them.
	Fields map[string][]string
}

func (e *APIError) Error() string {
	return e.Message
}

const maxErrorBody = 64 << 10

func newAPIError(path string, resp *http.Response) *APIError {
	apiErr := &APIError{Path: path, Status: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload map[string]json.RawMessage
	if json.Unmarshal(body, &payload) == nil {
		for _, key := range []string{"message", "detail", "error"} {
			if msg := stringField(payload[key]); msg != "" {
				apiErr.Message = msg
				break
			}
		}
		apiErr.Fields = fieldErrors(payload)
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("Error %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return apiErr
}

func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
		return strings.Join(list, ", ")
	}
	return ""
}

// fieldErrors collects DRF-style {"field": ["msg", ...]} entries, either at
// the top level or under "errors".
func fieldErrors(payload map[string]json.RawMessage) map[string][]string {
	source := payload
	if nested, ok := payload["errors"]; ok {
		var inner map[string]json.RawMessage
		if json.Unmarshal(nested, &inner) == nil {
			source = inner
		}
	}
	out := make(map[string][]string)
	for key, raw := range source {
		switch key {
		case "message", "detail", "error", "success", "errors":
			continue
		}
		var list []string
		if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
			out[key] = list
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
