package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Machine-readable error codes returned by the PrepXL API.
const (
	// ErrCodeUnauthorized means the caller presented no usable credentials
	// or the session secret no longer maps to a live session.
	ErrCodeUnauthorized = "unauthorized"

	// ErrCodeSessionNotFound means the addressed session was deleted or expired.
	ErrCodeSessionNotFound = "session_not_found"

	// ErrCodeNotFound is the generic missing-resource code.
	ErrCodeNotFound = "not_found"

	// ErrCodeRateLimited means the project exceeded its request quota.
	ErrCodeRateLimited = "rate_limited"
)

// APIError captures structured PrepXL error metadata.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
	Fields    []FieldError
}

// FieldError represents a validation failure for a single field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e APIError) Error() string {
	if e.Code == "" {
		e.Code = "unknown"
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("%s (%d)", e.Code, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnauthorized reports whether err is an APIError that denotes an invalid
// or expired session. Detection is structural only: HTTP 401 or the
// unauthorized/session_not_found codes. Error messages are never inspected.
func IsUnauthorized(err error) bool {
	var apiErr APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Status == http.StatusUnauthorized {
		return true
	}
	return apiErr.Code == ErrCodeUnauthorized || apiErr.Code == ErrCodeSessionNotFound
}

// IsNotFound reports whether err is an APIError for a missing resource.
func IsNotFound(err error) bool {
	var apiErr APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusNotFound || apiErr.Code == ErrCodeNotFound
}

// IsRateLimited reports whether err is an APIError for quota exhaustion.
func IsRateLimited(err error) bool {
	var apiErr APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusTooManyRequests || apiErr.Code == ErrCodeRateLimited
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)
	apiErr := APIError{Status: resp.StatusCode}
	if len(data) == 0 {
		apiErr.Message = resp.Status
		return apiErr
	}
	var payload struct {
		Error struct {
			Code    string       `json:"code"`
			Message string       `json:"message"`
			Status  int          `json:"status"`
			Fields  []FieldError `json:"fields"`
		} `json:"error"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		apiErr.Message = string(data)
		return apiErr
	}
	apiErr.Code = payload.Error.Code
	apiErr.Message = payload.Error.Message
	if payload.Error.Status != 0 {
		apiErr.Status = payload.Error.Status
	}
	apiErr.Fields = payload.Error.Fields
	apiErr.RequestID = payload.RequestID
	if apiErr.Message == "" {
		apiErr.Message = resp.Status
	}
	return apiErr
}
