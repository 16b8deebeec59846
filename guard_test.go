package sdk

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts: attempts,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  2 * time.Millisecond,
	}
}

func unauthorizedFailure() AuthFailure {
	return AuthFailure{
		Status:  http.StatusUnauthorized,
		Code:    ErrCodeUnauthorized,
		Message: "session expired",
		Time:    time.Now(),
	}
}

func TestGuardConfigValidation(t *testing.T) {
	if _, err := NewSessionGuard(SessionGuardConfig{}); err == nil {
		t.Fatalf("expected error without a validation check")
	}
}

func TestGuardActivatesOncePerBurst(t *testing.T) {
	var activations int32
	awaiting := make(chan AuthFailure, 4)
	guard, err := NewSessionGuard(SessionGuardConfig{
		Validate:         func(context.Context) error { return APIError{Status: 401} },
		DisableAutoRetry: true,
		OnStateChange: func(state GuardState) {
			if state == GuardAwaitingUser {
				atomic.AddInt32(&activations, 1)
			}
		},
		OnAwaitingUser: func(f AuthFailure) { awaiting <- f },
	})
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}

	// Two independent detections in the same synchronous tick.
	guard.Handle(unauthorizedFailure())
	guard.Handle(unauthorizedFailure())

	if got := atomic.LoadInt32(&activations); got != 1 {
		t.Fatalf("expected exactly one activation, got %d", got)
	}
	select {
	case <-awaiting:
	default:
		t.Fatalf("expected OnAwaitingUser")
	}
	select {
	case f := <-awaiting:
		t.Fatalf("expected one awaiting notification, got second: %+v", f)
	default:
	}
	if guard.State() != GuardAwaitingUser {
		t.Fatalf("expected AwaitingUser, got %s", guard.State())
	}
}

func TestGuardAutoRetryRecovers(t *testing.T) {
	recovered := make(chan struct{}, 1)
	var mu sync.Mutex
	var transitions []GuardState
	var attempts atomic.Int32
	guard, err := NewSessionGuard(SessionGuardConfig{
		Validate: func(context.Context) error {
			if attempts.Add(1) < 2 {
				return APIError{Status: 401}
			}
			return nil
		},
		Retry: fastRetry(3),
		OnStateChange: func(state GuardState) {
			mu.Lock()
			transitions = append(transitions, state)
			mu.Unlock()
		},
		OnRecovered: func() { recovered <- struct{}{} },
	})
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}

	guard.Handle(unauthorizedFailure())

	select {
	case <-recovered:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected recovery")
	}
	if guard.State() != GuardHidden {
		t.Fatalf("expected Hidden after recovery, got %s", guard.State())
	}
	if _, active := guard.Failure(); active {
		t.Fatalf("expected stored failure cleared")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != 2 || transitions[0] != GuardAutoRetrying || transitions[1] != GuardHidden {
		t.Fatalf("unexpected transition sequence: %v", transitions)
	}
}

func TestGuardAutoRetryExhaustion(t *testing.T) {
	awaiting := make(chan AuthFailure, 1)
	var attempts atomic.Int32
	guard, err := NewSessionGuard(SessionGuardConfig{
		Validate: func(context.Context) error {
			attempts.Add(1)
			return APIError{Status: 401, Code: ErrCodeUnauthorized}
		},
		Retry:          fastRetry(3),
		OnAwaitingUser: func(f AuthFailure) { awaiting <- f },
	})
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}

	guard.Handle(unauthorizedFailure())

	select {
	case f := <-awaiting:
		if f.Code != ErrCodeUnauthorized {
			t.Fatalf("unexpected failure: %+v", f)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected AwaitingUser after exhaustion")
	}
	if got := attempts.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
	if guard.State() != GuardAwaitingUser {
		t.Fatalf("expected AwaitingUser, got %s", guard.State())
	}
}

func TestGuardManualRetry(t *testing.T) {
	var healthy atomic.Bool
	guard, err := NewSessionGuard(SessionGuardConfig{
		Validate: func(context.Context) error {
			if healthy.Load() {
				return nil
			}
			return APIError{Status: 401}
		},
		DisableAutoRetry: true,
	})
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}

	guard.Handle(unauthorizedFailure())
	if err := guard.Retry(context.Background()); err == nil {
		t.Fatalf("expected retry failure while backend is down")
	}
	if guard.State() != GuardAwaitingUser {
		t.Fatalf("expected AwaitingUser after failed retry")
	}

	healthy.Store(true)
	if err := guard.Retry(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if guard.State() != GuardHidden {
		t.Fatalf("expected Hidden after successful retry")
	}
}

func TestGuardDismissKeepsSession(t *testing.T) {
	var signedOut atomic.Bool
	guard, err := NewSessionGuard(SessionGuardConfig{
		Validate:         func(context.Context) error { return APIError{Status: 401} },
		DisableAutoRetry: true,
		SignOut:          func() { signedOut.Store(true) },
	})
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}

	guard.Handle(unauthorizedFailure())
	guard.Dismiss()
	if guard.State() != GuardHidden {
		t.Fatalf("expected Hidden after Dismiss")
	}
	if signedOut.Load() {
		t.Fatalf("Dismiss must not clear local session state")
	}
}

func TestGuardGoToLoginClearsSessionAndRedirects(t *testing.T) {
	var signedOut, redirected atomic.Bool
	guard, err := NewSessionGuard(SessionGuardConfig{
		Validate:         func(context.Context) error { return APIError{Status: 401} },
		DisableAutoRetry: true,
		SignOut:          func() { signedOut.Store(true) },
		Redirect:         func() { redirected.Store(true) },
	})
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}

	guard.Handle(unauthorizedFailure())
	guard.GoToLogin()
	if guard.State() != GuardHidden {
		t.Fatalf("expected Hidden after GoToLogin")
	}
	if !signedOut.Load() || !redirected.Load() {
		t.Fatalf("expected sign-out and redirect, got signedOut=%v redirected=%v", signedOut.Load(), redirected.Load())
	}
}

func TestGuardDismissAbortsAutoRetry(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var lateAttempts atomic.Int32
	guard, err := NewSessionGuard(SessionGuardConfig{
		Validate: func(context.Context) error {
			select {
			case started <- struct{}{}:
			default:
				lateAttempts.Add(1)
			}
			<-release
			return APIError{Status: 401}
		},
		Retry: fastRetry(5),
	})
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}

	guard.Handle(unauthorizedFailure())
	<-started
	guard.Dismiss()
	close(release)

	time.Sleep(30 * time.Millisecond)
	if guard.State() != GuardHidden {
		t.Fatalf("expected Hidden to stick after Dismiss")
	}
	if got := lateAttempts.Load(); got != 0 {
		t.Fatalf("auto-retry continued after Dismiss: %d extra attempts", got)
	}
}

func TestGuardBusSubscription(t *testing.T) {
	bus := NewFailureBus(TelemetryHooks{})
	awaiting := make(chan AuthFailure, 1)
	guard, err := NewSessionGuard(SessionGuardConfig{
		Validate:         func(context.Context) error { return APIError{Status: 401} },
		Bus:              bus,
		DisableAutoRetry: true,
		OnAwaitingUser:   func(f AuthFailure) { awaiting <- f },
	})
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}

	bus.Publish(unauthorizedFailure())
	select {
	case <-awaiting:
	default:
		t.Fatalf("expected bus publish to reach the guard synchronously")
	}

	guard.Close()
	bus.Publish(unauthorizedFailure())
	select {
	case f := <-awaiting:
		t.Fatalf("closed guard must not react, got %+v", f)
	default:
	}
}

func TestGuardRetryWhileHiddenIsNoOp(t *testing.T) {
	calls := 0
	guard, err := NewSessionGuard(SessionGuardConfig{
		Validate: func(context.Context) error {
			calls++
			return errors.New("should not be called")
		},
		DisableAutoRetry: true,
	})
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	if err := guard.Retry(context.Background()); err != nil {
		t.Fatalf("retry while hidden: %v", err)
	}
	if calls != 0 {
		t.Fatalf("hidden guard must not touch the network, calls=%d", calls)
	}
}
