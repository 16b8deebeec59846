package sdk

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// NewZerologTelemetry returns TelemetryHooks backed by a zerolog logger, so
// callers get structured request/failure logging without wiring hooks by hand.
// Metrics hooks are left unset; pair with OnMetric if a metrics sink exists.
func NewZerologTelemetry(logger zerolog.Logger) TelemetryHooks {
	return TelemetryHooks{
		OnHTTPResponse: func(ctx context.Context, req *http.Request, resp *http.Response, err error, latency time.Duration) {
			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}
			if resp != nil {
				evt = evt.Int("status", resp.StatusCode)
			}
			evt.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Dur("latency", latency).
				Msg("http request")
		},
		OnAuthFailure: func(ctx context.Context, failure AuthFailure) {
			logger.Warn().
				Int("status", failure.Status).
				Str("code", failure.Code).
				Str("request_id", failure.RequestID).
				Msg("auth failure")
		},
		OnLogEntry: func(ctx context.Context, entry LogEntry) {
			evt := logger.Info()
			if entry.Level == LogLevelError {
				evt = logger.Error()
			}
			evt.Fields(entry.Fields).Msg(entry.Message)
		},
	}
}
