package sdk

import (
	"context"
	"errors"
	"sync"
	"time"
)

// LivenessFunc probes the backend for session validity. A nil return means
// the session is still usable; an error for which IsUnauthorized holds means
// it is not. Any other error is transient noise.
type LivenessFunc func(ctx context.Context) error

// PollerState is the session poller's lifecycle state.
type PollerState string

const (
	// PollerIdle means no user is being watched and no timer is armed.
	PollerIdle PollerState = "idle"
	// PollerWatching means the timer is armed and probes are running.
	PollerWatching PollerState = "watching"
)

// SessionPollerConfig wires a poller to its probe and failure sink.
type SessionPollerConfig struct {
	// Check is the liveness probe. Defaults to Client.Sessions.GetCurrent
	// when Client is set.
	Check LivenessFunc
	// Client supplies the default probe.
	Client *Client
	// Bus receives a failure when a probe comes back unauthorized. Required.
	Bus       *FailureBus
	Telemetry TelemetryHooks
}

// SessionPoller periodically verifies session liveness while a user appears
// logged in. It is deliberately one-sided: only a structurally-unauthorized
// probe result ever reaches the bus. Transport errors and server hiccups are
// swallowed so flaky connectivity cannot force a logout.
//
// At most one probe is in flight at a time; a tick that fires while a probe
// is still running is dropped.
type SessionPoller struct {
	check     LivenessFunc
	bus       *FailureBus
	telemetry TelemetryHooks

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	// generation increments on every Start and Stop. A probe started under
	// an old generation finds itself stale on completion and publishes
	// nothing, so stopping the poller silences in-flight probes too.
	generation uint64
}

// NewSessionPoller validates the configuration and returns a poller in the
// Idle state.
func NewSessionPoller(cfg SessionPollerConfig) (*SessionPoller, error) {
	check := cfg.Check
	if check == nil && cfg.Client != nil {
		sessions := cfg.Client.Sessions
		check = func(ctx context.Context) error {
			_, err := sessions.GetCurrent(ctx)
			return err
		}
	}
	if check == nil {
		return nil, errors.New("sdk: poller requires a liveness check or a client")
	}
	if cfg.Bus == nil {
		return nil, errors.New("sdk: poller requires a failure bus")
	}
	return &SessionPoller{
		check:     check,
		bus:       cfg.Bus,
		telemetry: cfg.Telemetry,
	}, nil
}

// State reports whether the poller is idle or watching.
func (p *SessionPoller) State() PollerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return PollerWatching
	}
	return PollerIdle
}

// Start arms the repeating probe timer. Idempotent: calling Start while
// watching leaves the existing timer in place.
func (p *SessionPoller) Start(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.generation++
	gen := p.generation
	stop := make(chan struct{})
	p.stop = stop
	p.mu.Unlock()

	go p.run(interval, gen, stop)
}

// Stop disarms the timer. Safe to call when already stopped. A probe in
// flight at the moment Stop is called completes without publishing.
func (p *SessionPoller) Stop() {
	p.mu.Lock()
	p.stopLocked()
	p.mu.Unlock()
}

func (p *SessionPoller) stopLocked() {
	if !p.running {
		return
	}
	p.running = false
	p.generation++
	close(p.stop)
	p.stop = nil
}

func (p *SessionPoller) run(interval time.Duration, gen uint64, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if done := p.tick(gen); done {
				return
			}
		}
	}
}

// tick runs one probe. It returns true when the poller transitioned to Idle
// and the run loop should exit. Probes run inline on the loop goroutine, so
// ticks arriving mid-probe are dropped by the ticker.
func (p *SessionPoller) tick(gen uint64) bool {
	err := p.check(context.Background())
	if err == nil {
		return false
	}

	failure, unauthorized := FailureFromError(err)
	if !unauthorized {
		p.telemetry.log(context.Background(), LogLevelInfo, "session_probe_transient_error", map[string]any{
			"error": err.Error(),
		})
		return false
	}

	p.mu.Lock()
	if p.generation != gen {
		// Stopped (or restarted) while the probe was in flight.
		p.mu.Unlock()
		return true
	}
	p.stopLocked()
	p.mu.Unlock()

	p.bus.Publish(failure)
	return true
}
