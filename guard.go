package sdk

import (
	"context"
	"errors"
	"sync"
	"time"
)

// GuardState is the recovery coordinator's lifecycle state.
type GuardState string

const (
	// GuardHidden means no failure is being handled.
	GuardHidden GuardState = "hidden"
	// GuardAutoRetrying means a failure arrived and silent recovery is running.
	GuardAutoRetrying GuardState = "auto_retrying"
	// GuardAwaitingUser means automatic recovery was exhausted or disabled
	// and the user must choose between retry, dismiss, and re-login.
	GuardAwaitingUser GuardState = "awaiting_user"
)

// SessionGuardConfig wires the recovery coordinator.
type SessionGuardConfig struct {
	// Validate re-checks session liveness during recovery. Defaults to
	// Client.Sessions.GetCurrent when Client is set.
	Validate LivenessFunc
	// Client supplies the default validation probe and sign-out behavior.
	Client *Client
	// Bus is optional; when set, the guard subscribes itself and Close
	// unsubscribes it.
	Bus *FailureBus
	// Retry is the automatic recovery policy. Zero value uses defaults.
	Retry RetryConfig
	// DisableAutoRetry routes failures straight to AwaitingUser.
	DisableAutoRetry bool
	// SignOut clears local session state on GoToLogin. Defaults to
	// Client.ClearSession when Client is set.
	SignOut func()
	// Redirect navigates to the login surface after GoToLogin. Optional.
	Redirect func()
	// OnStateChange observes every state transition.
	OnStateChange func(GuardState)
	// OnRecovered fires when a retry succeeds and the guard hides itself.
	OnRecovered func()
	// OnAwaitingUser fires when automatic recovery gives up.
	OnAwaitingUser func(AuthFailure)
	Telemetry      TelemetryHooks
}

// SessionGuard reacts to auth failures: it first attempts silent recovery,
// then surfaces the failure for a user decision. The rest of the application
// keeps running throughout; nothing here blocks the caller beyond state
// accessors, and no network call happens outside recovery attempts.
type SessionGuard struct {
	validate  LivenessFunc
	retry     RetryConfig
	autoRetry bool
	signOut   func()
	redirect  func()

	onStateChange  func(GuardState)
	onRecovered    func()
	onAwaitingUser func(AuthFailure)
	telemetry      TelemetryHooks

	unsubscribe func()

	mu      sync.Mutex
	state   GuardState
	failure AuthFailure
	// epoch invalidates a running auto-retry loop when the user resolves
	// the failure first (dismiss, go-to-login, manual retry).
	epoch uint64
}

// NewSessionGuard validates the configuration and returns a guard in the
// Hidden state, already subscribed to cfg.Bus when one is given.
func NewSessionGuard(cfg SessionGuardConfig) (*SessionGuard, error) {
	validate := cfg.Validate
	if validate == nil && cfg.Client != nil {
		sessions := cfg.Client.Sessions
		validate = func(ctx context.Context) error {
			_, err := sessions.GetCurrent(ctx)
			return err
		}
	}
	if validate == nil {
		return nil, errors.New("sdk: guard requires a validation check or a client")
	}
	signOut := cfg.SignOut
	if signOut == nil && cfg.Client != nil {
		client := cfg.Client
		signOut = client.ClearSession
	}
	retry := cfg.Retry
	if retry == (RetryConfig{}) {
		retry = defaultRetryConfig()
	}
	g := &SessionGuard{
		validate:       validate,
		retry:          retry.normalized(),
		autoRetry:      !cfg.DisableAutoRetry,
		signOut:        signOut,
		redirect:       cfg.Redirect,
		onStateChange:  cfg.OnStateChange,
		onRecovered:    cfg.OnRecovered,
		onAwaitingUser: cfg.OnAwaitingUser,
		telemetry:      cfg.Telemetry,
		state:          GuardHidden,
	}
	if cfg.Bus != nil {
		g.unsubscribe = cfg.Bus.Subscribe(g.Handle)
	}
	return g, nil
}

// State returns the guard's current state.
func (g *SessionGuard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Failure returns the failure being handled, if any.
func (g *SessionGuard) Failure() (AuthFailure, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failure, g.state != GuardHidden
}

// Close unsubscribes the guard from its bus and aborts any running
// auto-retry. The guard ends Hidden.
func (g *SessionGuard) Close() {
	if g.unsubscribe != nil {
		g.unsubscribe()
	}
	g.mu.Lock()
	g.epoch++
	g.state = GuardHidden
	g.failure = AuthFailure{}
	g.mu.Unlock()
}

// Handle reacts to one auth failure. The guard leaves Hidden at most once
// per burst: while active, further failures only refresh the stored value,
// so N detections in one tick still yield a single activation.
func (g *SessionGuard) Handle(failure AuthFailure) {
	g.mu.Lock()
	if g.state != GuardHidden {
		g.failure = failure
		g.mu.Unlock()
		return
	}
	g.failure = failure
	g.epoch++
	epoch := g.epoch
	next := GuardAwaitingUser
	if g.autoRetry {
		next = GuardAutoRetrying
	}
	g.state = next
	g.mu.Unlock()

	g.notifyState(next)
	if next == GuardAutoRetrying {
		go g.autoRecover(epoch)
	} else {
		g.notifyAwaiting(failure)
	}
}

// autoRecover runs the silent recovery loop off the caller's goroutine.
func (g *SessionGuard) autoRecover(epoch uint64) {
	ctx := context.Background()
	for attempt := 1; attempt <= g.retry.MaxAttempts; attempt++ {
		if delay := g.retry.backoffDelay(attempt); delay > 0 {
			time.Sleep(delay)
		}
		if g.stale(epoch) {
			return
		}
		err := g.validate(ctx)
		if g.stale(epoch) {
			return
		}
		if err == nil {
			g.resolve(epoch)
			return
		}
		g.telemetry.log(ctx, LogLevelInfo, "session_guard_retry_failed", map[string]any{
			"attempt": attempt,
			"error":   err.Error(),
		})
		if f, unauthorized := FailureFromError(err); unauthorized {
			g.mu.Lock()
			if g.epoch == epoch {
				g.failure = f
			}
			g.mu.Unlock()
		}
	}

	g.mu.Lock()
	if g.epoch != epoch || g.state != GuardAutoRetrying {
		g.mu.Unlock()
		return
	}
	g.state = GuardAwaitingUser
	failure := g.failure
	g.mu.Unlock()

	g.notifyState(GuardAwaitingUser)
	g.notifyAwaiting(failure)
}

// Retry re-attempts session validation once, on the caller's goroutine.
// Success hides the guard; failure moves (or keeps) it at AwaitingUser.
func (g *SessionGuard) Retry(ctx context.Context) error {
	g.mu.Lock()
	if g.state == GuardHidden {
		g.mu.Unlock()
		return nil
	}
	g.epoch++
	epoch := g.epoch
	g.mu.Unlock()

	err := g.validate(ctx)
	if err == nil {
		g.resolve(epoch)
		return nil
	}

	g.mu.Lock()
	changed := false
	if g.epoch == epoch && g.state != GuardHidden {
		if f, unauthorized := FailureFromError(err); unauthorized {
			g.failure = f
		}
		if g.state != GuardAwaitingUser {
			g.state = GuardAwaitingUser
			changed = true
		}
	}
	failure := g.failure
	g.mu.Unlock()
	if changed {
		g.notifyState(GuardAwaitingUser)
		g.notifyAwaiting(failure)
	}
	return err
}

// Dismiss hides the guard without touching local session state.
func (g *SessionGuard) Dismiss() {
	g.mu.Lock()
	if g.state == GuardHidden {
		g.mu.Unlock()
		return
	}
	g.epoch++
	g.state = GuardHidden
	g.failure = AuthFailure{}
	g.mu.Unlock()
	g.notifyState(GuardHidden)
}

// GoToLogin hides the guard, clears local session state, and invokes the
// redirect hook.
func (g *SessionGuard) GoToLogin() {
	g.mu.Lock()
	wasHidden := g.state == GuardHidden
	g.epoch++
	g.state = GuardHidden
	g.failure = AuthFailure{}
	g.mu.Unlock()

	if !wasHidden {
		g.notifyState(GuardHidden)
	}
	if g.signOut != nil {
		g.signOut()
	}
	if g.redirect != nil {
		g.redirect()
	}
}

// resolve hides the guard after a successful validation under epoch.
func (g *SessionGuard) resolve(epoch uint64) {
	g.mu.Lock()
	if g.epoch != epoch || g.state == GuardHidden {
		g.mu.Unlock()
		return
	}
	g.state = GuardHidden
	g.failure = AuthFailure{}
	g.mu.Unlock()

	g.notifyState(GuardHidden)
	if g.onRecovered != nil {
		g.onRecovered()
	}
}

func (g *SessionGuard) stale(epoch uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.epoch != epoch
}

func (g *SessionGuard) notifyState(state GuardState) {
	if g.onStateChange != nil {
		g.onStateChange(state)
	}
}

func (g *SessionGuard) notifyAwaiting(failure AuthFailure) {
	if g.onAwaitingUser != nil {
		g.onAwaitingUser(failure)
	}
}
