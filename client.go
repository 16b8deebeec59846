package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prepxl/prepxl/sdk/go/headers"
)

const defaultBaseURL = "https://api.prepxl.app/v1"
const defaultUserAgent = "prepxl-sdk/" + Version

// Config wires project scoping, authentication, base URL, and telemetry for
// the API client.
type Config struct {
	BaseURL string
	// ProjectID scopes every request. Required.
	ProjectID string
	// APIKey authenticates server-side callers.
	APIKey string
	// SessionSecret authenticates a browser-style session. May be empty at
	// construction and installed later via SetSession (after login).
	SessionSecret string
	// AccessToken authenticates with a JWT minted by Sessions.CreateJWT.
	AccessToken string
	HTTPClient  *http.Client
	Telemetry   TelemetryHooks
	UserAgent   string
	Retry       RetryConfig
}

// Client provides high-level helpers for interacting with the PrepXL API.
type Client struct {
	baseURL    string
	projectID  string
	httpClient *http.Client
	auth       authChain
	telemetry  TelemetryHooks
	userAgent  string
	retry      RetryConfig

	sessionMu     sync.RWMutex
	sessionSecret string

	// Grouped service clients.
	Account   *AccountClient
	Sessions  *SessionsClient
	Storage   *StorageClient
	Questions *QuestionsClient
	Analysis  *AnalysisClient
}

// NewClient validates the configuration and returns a ready-to-use Client.
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	normalized, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("sdk: project id required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	retry := cfg.Retry
	if retry == (RetryConfig{}) {
		retry = defaultRetryConfig()
	}
	client := &Client{
		baseURL:       normalized,
		projectID:     strings.TrimSpace(cfg.ProjectID),
		httpClient:    httpClient,
		auth:          buildAuthChain(cfg),
		telemetry:     cfg.Telemetry,
		userAgent:     ua,
		retry:         retry.normalized(),
		sessionSecret: strings.TrimSpace(cfg.SessionSecret),
	}
	client.Account = &AccountClient{client: client}
	client.Sessions = &SessionsClient{client: client}
	client.Storage = &StorageClient{client: client}
	client.Questions = &QuestionsClient{client: client}
	client.Analysis = &AnalysisClient{client: client}
	return client, nil
}

// SetSession installs the session secret returned by email login. Subsequent
// requests authenticate as that session.
func (c *Client) SetSession(secret string) {
	c.sessionMu.Lock()
	c.sessionSecret = strings.TrimSpace(secret)
	c.sessionMu.Unlock()
}

// ClearSession drops the in-memory session secret, returning the client to
// its anonymous (project-scoped) state. It makes no network call.
func (c *Client) ClearSession() {
	c.SetSession("")
}

// HasSession reports whether a session secret is currently installed.
func (c *Client) HasSession() bool {
	c.sessionMu.RLock()
	defer c.sessionMu.RUnlock()
	return c.sessionSecret != ""
}

func normalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("sdk: base URL required")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("sdk: invalid base URL: %w", err)
	}
	if u.Scheme == "" {
		return "", errors.New("sdk: base URL missing scheme (http/https)")
	}
	if u.Host == "" {
		return "", errors.New("sdk: base URL missing host")
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return strings.TrimSuffix(u.String(), "/"), nil
}

func buildAuthChain(cfg Config) authChain {
	var chain authChain
	if cfg.AccessToken != "" {
		token := strings.TrimSpace(cfg.AccessToken)
		if strings.HasPrefix(strings.ToLower(token), "bearer ") {
			token = strings.TrimSpace(token[7:])
		}
		chain = append(chain, bearerAuth{token: token})
	}
	if cfg.APIKey != "" {
		chain = append(chain, apiKeyAuth{key: cfg.APIKey})
	}
	return chain
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	injectTraceparent(ctx, req)
	return req, nil
}

func (c *Client) prepare(req *http.Request) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set(headers.Project, c.projectID)
	c.sessionMu.RLock()
	secret := c.sessionSecret
	c.sessionMu.RUnlock()
	if secret != "" {
		req.Header.Set(headers.Session, secret)
	}
	c.auth.Apply(req)
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	c.prepare(req)
	if c.telemetry.OnHTTPRequest != nil {
		c.telemetry.OnHTTPRequest(req.Context(), req)
	}
	c.telemetry.log(req.Context(), LogLevelInfo, "http_request", map[string]any{
		"method": req.Method,
		"url":    req.URL.String(),
	})
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.telemetry.OnHTTPResponse != nil {
		c.telemetry.OnHTTPResponse(req.Context(), req, resp, err, time.Since(start))
	}
	c.telemetry.metric(req.Context(), "sdk_http_request_latency_ms", float64(time.Since(start).Milliseconds()), map[string]string{
		"path": req.URL.Path,
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}
	return resp, nil
}

// sendAndDecode issues a JSON request and decodes the response into out.
// GETs are retried with jittered backoff on transport errors, 5xx, and 429;
// other methods are sent exactly once.
func (c *Client) sendAndDecode(ctx context.Context, method, path string, payload any, out any) error {
	attempts := 1
	if method == http.MethodGet {
		attempts = c.retry.MaxAttempts
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if delay := c.retry.backoffDelay(attempt); delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		req, err := c.newJSONRequest(ctx, method, path, payload)
		if err != nil {
			return err
		}
		resp, err := c.send(req)
		if err != nil {
			lastErr = err
			if !retryableError(err) {
				return err
			}
			continue
		}
		if out == nil {
			//nolint:errcheck // best-effort cleanup on return
			_ = resp.Body.Close()
			return nil
		}
		decodeErr := json.NewDecoder(resp.Body).Decode(out)
		//nolint:errcheck // best-effort cleanup on return
		_ = resp.Body.Close()
		return decodeErr
	}
	return lastErr
}

func retryableError(err error) bool {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 || apiErr.Status == http.StatusTooManyRequests
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// Transport-level failure.
	return true
}

func (c *Client) buildURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}
