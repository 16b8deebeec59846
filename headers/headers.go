// Package headers defines HTTP header constants used across the PrepXL platform.
// This is the single source of truth for header names used in API requests/responses.
package headers

const (
	// RequestID is the header for request correlation / idempotency.
	// Clients can supply this header for idempotency on retries.
	RequestID = "X-PrepXL-Request-Id"

	// Project scopes every request to a PrepXL project.
	Project = "X-PrepXL-Project"

	// APIKey is the header for server-side API key authentication.
	APIKey = "X-PrepXL-Api-Key" //nolint:gosec // This is a header name, not a credential

	// Session carries the session secret issued by email login.
	Session = "X-PrepXL-Session" //nolint:gosec // This is a header name, not a credential
)
