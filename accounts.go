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

// Account represents a PrepXL user account.
type Account struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	EmailVerified bool           `json:"email_verified"`
	Prefs         map[string]any `json:"prefs,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// AccountCreateRequest contains the fields to register a new account.
type AccountCreateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that required fields are set.
func (r AccountCreateRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if strings.TrimSpace(r.Password) == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// AccountClient provides methods for managing the current account.
//
// Example:
//
//	account, err := client.Account.Get(ctx)
//	fmt.Printf("logged in as %s\n", account.Email)
type AccountClient struct {
	client *Client
}

// ensureInitialized returns an error if the client is not properly initialized.
func (c *AccountClient) ensureInitialized() error {
	if c == nil || c.client == nil {
		return fmt.Errorf("sdk: account client not initialized")
	}
	return nil
}

// Create registers a new account. Does not log the account in; follow with
// Sessions.CreateEmailSession.
func (c *AccountClient) Create(ctx context.Context, req AccountCreateRequest) (Account, error) {
	if err := c.ensureInitialized(); err != nil {
		return Account{}, err
	}
	if err := req.Validate(); err != nil {
		return Account{}, fmt.Errorf("sdk: %w", err)
	}

	var resp Account
	if err := c.client.sendAndDecode(ctx, http.MethodPost, routes.Account, req, &resp); err != nil {
		return Account{}, err
	}
	return resp, nil
}

// Get returns the account backing the current session or API key.
func (c *AccountClient) Get(ctx context.Context) (Account, error) {
	if err := c.ensureInitialized(); err != nil {
		return Account{}, err
	}

	var resp Account
	if err := c.client.sendAndDecode(ctx, http.MethodGet, routes.Account, nil, &resp); err != nil {
		return Account{}, err
	}
	return resp, nil
}

// UpdatePrefs replaces the current account's preference blob.
func (c *AccountClient) UpdatePrefs(ctx context.Context, prefs map[string]any) (Account, error) {
	if err := c.ensureInitialized(); err != nil {
		return Account{}, err
	}

	payload := struct {
		Prefs map[string]any `json:"prefs"`
	}{Prefs: prefs}
	var resp Account
	if err := c.client.sendAndDecode(ctx, http.MethodPatch, routes.AccountPrefs, payload, &resp); err != nil {
		return Account{}, err
	}
	return resp, nil
}

// Delete removes the current account and all of its sessions.
func (c *AccountClient) Delete(ctx context.Context) error {
	if err := c.ensureInitialized(); err != nil {
		return err
	}
	return c.client.sendAndDecode(ctx, http.MethodDelete, routes.Account, nil, nil)
}
