package sdk

import (
	"context"
	"errors"
	"sync"
	"time"
)

// AuthFailure is the normalized shape for "the session is no longer usable".
// Failures detected anywhere (liveness probe, realtime push, arbitrary API
// calls) are reduced to this value before reaching the recovery flow.
type AuthFailure struct {
	Status    int
	Code      string
	Message   string
	RequestID string
	Time      time.Time
}

// FailureFromError normalizes err into an AuthFailure. The boolean reports
// whether err actually denotes an invalid session (see IsUnauthorized);
// callers should only publish when it is true.
func FailureFromError(err error) (AuthFailure, bool) {
	if err == nil {
		return AuthFailure{}, false
	}
	failure := AuthFailure{Message: err.Error(), Time: time.Now()}
	var apiErr APIError
	if errors.As(err, &apiErr) {
		failure.Status = apiErr.Status
		failure.Code = apiErr.Code
		failure.Message = apiErr.Message
		failure.RequestID = apiErr.RequestID
	}
	return failure, IsUnauthorized(err)
}

// FailureBus decouples auth-failure detection from auth-failure handling.
// Publish is synchronous: every current subscriber runs on the
// publisher's goroutine before Publish returns. Subscribers are isolated
// from each other; a panic in one never prevents delivery to the rest.
type FailureBus struct {
	telemetry TelemetryHooks

	mu     sync.Mutex
	nextID int
	subs   map[int]func(AuthFailure)
}

// NewFailureBus returns an empty bus. Telemetry hooks are optional; when set,
// OnAuthFailure fires once per Publish and subscriber panics are logged.
func NewFailureBus(telemetry TelemetryHooks) *FailureBus {
	return &FailureBus{
		telemetry: telemetry,
		subs:      make(map[int]func(AuthFailure)),
	}
}

// Subscribe registers fn and returns its unsubscribe handle. Multiple
// subscribers are allowed; delivery order is unspecified.
func (b *FailureBus) Subscribe(fn func(AuthFailure)) (cancel func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish broadcasts failure to all current subscribers. Publishing with no
// subscribers is a silent no-op.
func (b *FailureBus) Publish(failure AuthFailure) {
	if failure.Time.IsZero() {
		failure.Time = time.Now()
	}
	b.mu.Lock()
	targets := make([]func(AuthFailure), 0, len(b.subs))
	for _, fn := range b.subs {
		targets = append(targets, fn)
	}
	b.mu.Unlock()

	ctx := context.Background()
	if b.telemetry.OnAuthFailure != nil {
		b.telemetry.OnAuthFailure(ctx, failure)
	}
	for _, fn := range targets {
		b.deliver(ctx, fn, failure)
	}
}

func (b *FailureBus) deliver(ctx context.Context, fn func(AuthFailure), failure AuthFailure) {
	defer func() {
		if r := recover(); r != nil {
			b.telemetry.log(ctx, LogLevelError, "failure_bus_subscriber_panic", map[string]any{
				"panic": r,
				"code":  failure.Code,
			})
		}
	}()
	fn(failure)
}
