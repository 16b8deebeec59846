// Package routes provides shared API route constants used by both
// the PrepXL backend and its clients to prevent path mismatches.
package routes

// API route paths - these constants are shared between server and clients
// to ensure compile-time safety and prevent endpoint mismatches.
const (
	// Account returns the current authenticated account.
	Account = "/account"

	// AccountPrefs reads/updates the current account's preferences.
	AccountPrefs = "/account/prefs"

	// AccountSessions lists or bulk-deletes the current account's sessions.
	AccountSessions = "/account/sessions"

	// AccountSessionsEmail creates a session from email/password credentials.
	AccountSessionsEmail = "/account/sessions/email"

	// AccountSessionCurrent addresses the session backing the request's
	// session secret. GET here is the liveness probe.
	AccountSessionCurrent = "/account/sessions/current"

	// AccountJWT mints a short-lived JWT bound to the current session.
	AccountJWT = "/account/jwt" // #nosec G101 -- route path, not a credential

	// AuthRefresh swaps a refresh token for a new token pair.
	AuthRefresh = "/auth/refresh"

	// StorageFiles uploads or lists resume files.
	StorageFiles = "/storage/files"

	// Questions lists the interview question bank.
	Questions = "/questions"

	// AnalysisResume runs resume-vs-job-description analysis.
	AnalysisResume = "/analysis/resume"

	// AnalysisAnswer scores an interview answer.
	AnalysisAnswer = "/analysis/answer"

	// Realtime is the websocket endpoint for push updates.
	Realtime = "/realtime"
)
