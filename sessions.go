package sdk

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prepxl/prepxl/sdk/go/routes"
)

// Session represents a login session in the PrepXL API.
type Session struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	Provider  string    `json:"provider"`
	// Secret is only populated on the response that created the session.
	Secret    string    `json:"secret,omitempty"`
	Current   bool      `json:"current"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionListResponse is the list of the current account's sessions.
type SessionListResponse struct {
	Sessions []Session `json:"sessions"`
	Total    int       `json:"total"`
}

// EmailSessionRequest contains email/password credentials for login.
type EmailSessionRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that required fields are set.
func (r EmailSessionRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if strings.TrimSpace(r.Password) == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// SessionJWT is a short-lived token bound to the current session, for calls
// to services that accept bearer auth instead of the session header.
type SessionJWT struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionsClient provides methods for managing login sessions.
//
// Sessions are created by email login and addressed either by ID or by the
// literal "current" session. GetCurrent doubles as the liveness probe used
// by the session guard.
//
// Example:
//
//	session, err := client.Sessions.CreateEmailSession(ctx, sdk.EmailSessionRequest{
//	    Email:    "ada@example.com",
//	    Password: "hunter2",
//	})
//	// client now authenticates as that session
//	current, err := client.Sessions.GetCurrent(ctx)
type SessionsClient struct {
	client *Client
}

// ensureInitialized returns an error if the client is not properly initialized.
func (c *SessionsClient) ensureInitialized() error {
	if c == nil || c.client == nil {
		return fmt.Errorf("sdk: sessions client not initialized")
	}
	return nil
}

// CreateEmailSession logs in with email/password and installs the returned
// session secret on the client.
func (c *SessionsClient) CreateEmailSession(ctx context.Context, req EmailSessionRequest) (Session, error) {
	if err := c.ensureInitialized(); err != nil {
		return Session{}, err
	}
	if err := req.Validate(); err != nil {
		return Session{}, fmt.Errorf("sdk: %w", err)
	}

	var resp Session
	if err := c.client.sendAndDecode(ctx, http.MethodPost, routes.AccountSessionsEmail, req, &resp); err != nil {
		return Session{}, err
	}
	if resp.Secret != "" {
		c.client.SetSession(resp.Secret)
	}
	return resp, nil
}

// GetCurrent returns the session backing the request's session secret.
// Fails with an unauthorized APIError when the session is invalid or expired.
func (c *SessionsClient) GetCurrent(ctx context.Context) (Session, error) {
	if err := c.ensureInitialized(); err != nil {
		return Session{}, err
	}

	var resp Session
	if err := c.client.sendAndDecode(ctx, http.MethodGet, routes.AccountSessionCurrent, nil, &resp); err != nil {
		return Session{}, err
	}
	return resp, nil
}

// Get retrieves one of the current account's sessions by ID.
func (c *SessionsClient) Get(ctx context.Context, sessionID uuid.UUID) (Session, error) {
	if err := c.ensureInitialized(); err != nil {
		return Session{}, err
	}
	if sessionID == uuid.Nil {
		return Session{}, fmt.Errorf("sdk: session_id is required")
	}

	path := fmt.Sprintf("%s/%s", routes.AccountSessions, sessionID.String())
	var resp Session
	if err := c.client.sendAndDecode(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return Session{}, err
	}
	return resp, nil
}

// List returns all sessions belonging to the current account.
func (c *SessionsClient) List(ctx context.Context) (SessionListResponse, error) {
	if err := c.ensureInitialized(); err != nil {
		return SessionListResponse{}, err
	}

	var resp SessionListResponse
	if err := c.client.sendAndDecode(ctx, http.MethodGet, routes.AccountSessions, nil, &resp); err != nil {
		return SessionListResponse{}, err
	}
	return resp, nil
}

// DeleteCurrent logs out the current session and clears the client's
// in-memory session secret.
func (c *SessionsClient) DeleteCurrent(ctx context.Context) error {
	if err := c.ensureInitialized(); err != nil {
		return err
	}
	if err := c.client.sendAndDecode(ctx, http.MethodDelete, routes.AccountSessionCurrent, nil, nil); err != nil {
		return err
	}
	c.client.ClearSession()
	return nil
}

// Delete revokes one of the current account's sessions by ID.
func (c *SessionsClient) Delete(ctx context.Context, sessionID uuid.UUID) error {
	if err := c.ensureInitialized(); err != nil {
		return err
	}
	if sessionID == uuid.Nil {
		return fmt.Errorf("sdk: session_id is required")
	}

	path := fmt.Sprintf("%s/%s", routes.AccountSessions, sessionID.String())
	return c.client.sendAndDecode(ctx, http.MethodDelete, path, nil, nil)
}

// DeleteAll revokes every session belonging to the current account, then
// clears the client's in-memory session secret.
func (c *SessionsClient) DeleteAll(ctx context.Context) error {
	if err := c.ensureInitialized(); err != nil {
		return err
	}
	if err := c.client.sendAndDecode(ctx, http.MethodDelete, routes.AccountSessions, nil, nil); err != nil {
		return err
	}
	c.client.ClearSession()
	return nil
}

// CreateJWT mints a short-lived JWT bound to the current session.
func (c *SessionsClient) CreateJWT(ctx context.Context) (SessionJWT, error) {
	if err := c.ensureInitialized(); err != nil {
		return SessionJWT{}, err
	}

	var resp SessionJWT
	if err := c.client.sendAndDecode(ctx, http.MethodPost, routes.AccountJWT, nil, &resp); err != nil {
		return SessionJWT{}, err
	}
	return resp, nil
}
