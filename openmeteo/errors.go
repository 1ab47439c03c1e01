package openmeteo

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is returned when the upstream API answers with a non-2xx status.
// Reason carries the upstream "reason" field when the body had one.
type APIError struct {
	StatusCode int
	Reason     string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("open-meteo request failed with status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Temporary reports whether retrying the request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// upstreamError is the error body of every Open-Meteo API.
type upstreamError struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var ue upstreamError
	if err := json.Unmarshal(body, &ue); err == nil {
		apiErr.Reason = ue.Reason
	}
	return apiErr
}
