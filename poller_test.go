package sdk

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

func unauthorizedProbe(context.Context) error {
	return APIError{Status: http.StatusUnauthorized, Code: ErrCodeUnauthorized, Message: "session expired"}
}

func newTestPoller(t *testing.T, check LivenessFunc, bus *FailureBus) *SessionPoller {
	t.Helper()
	poller, err := NewSessionPoller(SessionPollerConfig{Check: check, Bus: bus})
	if err != nil {
		t.Fatalf("new poller: %v", err)
	}
	t.Cleanup(poller.Stop)
	return poller
}

func TestPollerConfigValidation(t *testing.T) {
	if _, err := NewSessionPoller(SessionPollerConfig{Bus: NewFailureBus(TelemetryHooks{})}); err == nil {
		t.Fatalf("expected error without a check")
	}
	if _, err := NewSessionPoller(SessionPollerConfig{Check: unauthorizedProbe}); err == nil {
		t.Fatalf("expected error without a bus")
	}
}

func TestPollerEmitsOnUnauthorized(t *testing.T) {
	bus := NewFailureBus(TelemetryHooks{})
	failures := make(chan AuthFailure, 4)
	bus.Subscribe(func(f AuthFailure) { failures <- f })

	poller := newTestPoller(t, unauthorizedProbe, bus)
	if poller.State() != PollerIdle {
		t.Fatalf("expected Idle before Start")
	}
	poller.Start(2 * time.Millisecond)
	if poller.State() != PollerWatching {
		t.Fatalf("expected Watching after Start")
	}

	select {
	case f := <-failures:
		if f.Code != ErrCodeUnauthorized {
			t.Fatalf("unexpected failure: %+v", f)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a failure event")
	}

	// The poller disarms itself after emitting; exactly one event total.
	time.Sleep(30 * time.Millisecond)
	if poller.State() != PollerIdle {
		t.Fatalf("expected Idle after unauthorized probe")
	}
	select {
	case f := <-failures:
		t.Fatalf("expected exactly one failure event, got second: %+v", f)
	default:
	}
}

func TestPollerSwallowsTransientErrors(t *testing.T) {
	bus := NewFailureBus(TelemetryHooks{})
	failures := make(chan AuthFailure, 4)
	bus.Subscribe(func(f AuthFailure) { failures <- f })

	var probes atomic.Int32
	check := func(context.Context) error {
		probes.Add(1)
		return errors.New("dial tcp: connection refused")
	}
	poller := newTestPoller(t, check, bus)
	poller.Start(2 * time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	if probes.Load() < 2 {
		t.Fatalf("expected repeated probes, got %d", probes.Load())
	}
	if poller.State() != PollerWatching {
		t.Fatalf("transient errors must not disarm the poller")
	}
	select {
	case f := <-failures:
		t.Fatalf("transient error must not emit, got %+v", f)
	default:
	}
}

func TestPollerStartIsIdempotent(t *testing.T) {
	bus := NewFailureBus(TelemetryHooks{})
	var probes atomic.Int32
	check := func(context.Context) error {
		probes.Add(1)
		return nil
	}
	poller := newTestPoller(t, check, bus)

	poller.Start(10 * time.Millisecond)
	poller.Start(10 * time.Millisecond)
	time.Sleep(55 * time.Millisecond)

	// One timer yields ~5 probes in 55ms; a duplicate timer would double that.
	if got := probes.Load(); got > 7 {
		t.Fatalf("probe rate suggests duplicate timers: %d probes", got)
	}

	// A single Stop fully disarms despite the double Start.
	poller.Stop()
	settled := probes.Load()
	time.Sleep(40 * time.Millisecond)
	if got := probes.Load(); got != settled {
		t.Fatalf("probes continued after Stop: %d -> %d", settled, got)
	}
	if poller.State() != PollerIdle {
		t.Fatalf("expected Idle after Stop")
	}
}

func TestPollerStopSilencesInFlightProbe(t *testing.T) {
	bus := NewFailureBus(TelemetryHooks{})
	failures := make(chan AuthFailure, 4)
	bus.Subscribe(func(f AuthFailure) { failures <- f })

	entered := make(chan struct{})
	release := make(chan error)
	check := func(context.Context) error {
		entered <- struct{}{}
		return <-release
	}
	poller := newTestPoller(t, check, bus)
	poller.Start(time.Millisecond)

	<-entered
	poller.Stop()
	release <- APIError{Status: http.StatusUnauthorized, Code: ErrCodeUnauthorized}

	time.Sleep(20 * time.Millisecond)
	select {
	case f := <-failures:
		t.Fatalf("stopped poller must not emit, got %+v", f)
	default:
	}
}

func TestPollerStopWhenStopped(t *testing.T) {
	bus := NewFailureBus(TelemetryHooks{})
	poller := newTestPoller(t, unauthorizedProbe, bus)
	// Safe on a poller that never started.
	poller.Stop()
	poller.Stop()
	if poller.State() != PollerIdle {
		t.Fatalf("expected Idle")
	}
}

func TestPollerRestartAfterStop(t *testing.T) {
	bus := NewFailureBus(TelemetryHooks{})
	var probes atomic.Int32
	check := func(context.Context) error {
		probes.Add(1)
		return nil
	}
	poller := newTestPoller(t, check, bus)

	poller.Start(2 * time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	poller.Stop()

	before := probes.Load()
	poller.Start(2 * time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	if probes.Load() <= before {
		t.Fatalf("expected probing to resume after restart")
	}
}
