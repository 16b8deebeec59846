package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/prepxl/prepxl/sdk/go/headers"
	"github.com/prepxl/prepxl/sdk/go/routes"
)

const (
	realtimeReconnectBase = 1 * time.Second
	realtimeReconnectMax  = 30 * time.Second
	realtimePingInterval  = 30 * time.Second
	realtimeWriteTimeout  = 10 * time.Second
)

// RealtimeEvent is one push message from the backend.
type RealtimeEvent struct {
	Channel string          `json:"channel"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Time    time.Time       `json:"time"`
}

// Session lifecycle event types pushed on the "account" channel.
const (
	RealtimeSessionDelete = "sessions.delete"
)

// RealtimeConfig wires the websocket subscription client.
type RealtimeConfig struct {
	// Client supplies base URL, project scoping, and the session secret.
	// Required.
	Client *Client
	// Channels to subscribe to (e.g. "account", "files"). Required.
	Channels []string
	// Bus receives an AuthFailure when the backend pushes a delete for
	// WatchSession. Optional.
	Bus *FailureBus
	// WatchSession is the session ID whose deletion means "logged out
	// elsewhere". Only meaningful with Bus set.
	WatchSession uuid.UUID
	Telemetry    TelemetryHooks
	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer
}

// RealtimeClient maintains a websocket subscription to push channels,
// reconnecting with capped exponential backoff. It is the push-path
// complement to the session poller: a session-delete event reaches the
// failure bus without waiting for the next liveness probe.
type RealtimeClient struct {
	client    *Client
	channels  []string
	bus       *FailureBus
	watch     uuid.UUID
	telemetry TelemetryHooks
	dialer    *websocket.Dialer

	mu      sync.Mutex
	writeMu sync.Mutex // serialises conn writes (ping, subscribe)
	conn    *websocket.Conn
	running bool
	cancel  context.CancelFunc
	events  chan RealtimeEvent
}

// NewRealtimeClient validates the configuration and returns a disconnected
// client. Call Connect to start receiving events.
func NewRealtimeClient(cfg RealtimeConfig) (*RealtimeClient, error) {
	if cfg.Client == nil {
		return nil, errors.New("sdk: realtime requires a client")
	}
	if len(cfg.Channels) == 0 {
		return nil, errors.New("sdk: realtime requires at least one channel")
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	return &RealtimeClient{
		client:    cfg.Client,
		channels:  cfg.Channels,
		bus:       cfg.Bus,
		watch:     cfg.WatchSession,
		telemetry: cfg.Telemetry,
		dialer:    dialer,
	}, nil
}

// Connect dials the realtime endpoint and returns the event channel. The
// channel closes when ctx is canceled or Close is called. Reconnects are
// automatic; consumers only observe a gap in events.
func (c *RealtimeClient) Connect(ctx context.Context) (<-chan RealtimeEvent, error) {
	c.mu.Lock()
	if c.running {
		events := c.events
		c.mu.Unlock()
		return events, nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.running = true
	c.cancel = cancel
	c.events = make(chan RealtimeEvent, 16)
	events := c.events
	c.mu.Unlock()

	go c.run(runCtx, events)
	return events, nil
}

// Close tears the connection down and closes the event channel.
func (c *RealtimeClient) Close() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	cancel := c.cancel
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	cancel()
	if conn != nil {
		//nolint:errcheck // best-effort close of a dying connection
		_ = conn.Close()
	}
}

func (c *RealtimeClient) run(ctx context.Context, events chan RealtimeEvent) {
	defer close(events)
	delay := realtimeReconnectBase
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, err := c.dial(ctx)
		if err != nil {
			c.telemetry.log(ctx, LogLevelError, "realtime_dial_failed", map[string]any{
				"error": err.Error(),
				"retry": delay.String(),
			})
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay = min(delay*2, realtimeReconnectMax)
			continue
		}
		delay = realtimeReconnectBase

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()

		pingCtx, pingCancel := context.WithCancel(ctx)
		go c.pingLoop(pingCtx, conn)
		c.readLoop(ctx, conn, events)
		pingCancel()
		//nolint:errcheck // connection already failed or is being replaced
		_ = conn.Close()

		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		running := c.running
		c.mu.Unlock()
		if !running {
			return
		}
	}
}

func (c *RealtimeClient) dial(ctx context.Context) (*websocket.Conn, error) {
	wsURL, err := realtimeURL(c.client.baseURL, c.channels)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	header.Set(headers.Project, c.client.projectID)
	c.client.sessionMu.RLock()
	secret := c.client.sessionSecret
	c.client.sessionMu.RUnlock()
	if secret != "" {
		header.Set(headers.Session, secret)
	}
	conn, resp, err := c.dialer.DialContext(ctx, wsURL, header)
	if resp != nil && resp.Body != nil {
		//nolint:errcheck // handshake response body is not needed
		_ = resp.Body.Close()
	}
	return conn, err
}

func (c *RealtimeClient) readLoop(ctx context.Context, conn *websocket.Conn, events chan RealtimeEvent) {
	for {
		var event RealtimeEvent
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() == nil {
				c.telemetry.log(ctx, LogLevelInfo, "realtime_read_closed", map[string]any{
					"error": err.Error(),
				})
			}
			return
		}
		c.dispatch(event)
		select {
		case events <- event:
		case <-ctx.Done():
			return
		default:
			// Consumer is not keeping up; drop rather than block the read loop.
		}
	}
}

// dispatch feeds session-delete pushes for the watched session into the
// failure bus.
func (c *RealtimeClient) dispatch(event RealtimeEvent) {
	if c.bus == nil || event.Type != RealtimeSessionDelete {
		return
	}
	var payload struct {
		SessionID uuid.UUID `json:"session_id"`
	}
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return
	}
	if c.watch != uuid.Nil && payload.SessionID != c.watch {
		return
	}
	c.bus.Publish(AuthFailure{
		Status:  http.StatusUnauthorized,
		Code:    ErrCodeSessionNotFound,
		Message: "session revoked by another client",
		Time:    event.Time,
	})
}

func (c *RealtimeClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(realtimePingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(realtimeWriteTimeout))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func realtimeURL(baseURL string, channels []string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + routes.Realtime
	params := url.Values{}
	for _, ch := range channels {
		params.Add("channel", ch)
	}
	u.RawQuery = params.Encode()
	return u.String(), nil
}
