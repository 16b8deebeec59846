package sdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/prepxl/prepxl/sdk/go/routes"
)

func TestAccountGet(t *testing.T) {
	accountID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != routes.Account {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(Account{
			ID:            accountID,
			Name:          "Ada",
			Email:         "ada@example.com",
			EmailVerified: true,
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	account, err := client.Account.Get(context.Background())
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if account.ID != accountID || account.Email != "ada@example.com" {
		t.Fatalf("unexpected account: %+v", account)
	}
}

func TestAccountCreateValidation(t *testing.T) {
	client := newTestClient(t, "https://example.com")
	if _, err := client.Account.Create(context.Background(), AccountCreateRequest{Name: "Ada"}); err == nil {
		t.Fatalf("expected error for missing credentials")
	}
}

func TestAccountUpdatePrefs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != routes.AccountPrefs {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var payload struct {
			Prefs map[string]any `json:"prefs"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if payload.Prefs["theme"] != "dark" {
			t.Errorf("unexpected prefs: %v", payload.Prefs)
		}
		_ = json.NewEncoder(w).Encode(Account{ID: uuid.New(), Prefs: payload.Prefs})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	account, err := client.Account.UpdatePrefs(context.Background(), map[string]any{"theme": "dark"})
	if err != nil {
		t.Fatalf("update prefs: %v", err)
	}
	if account.Prefs["theme"] != "dark" {
		t.Fatalf("unexpected account prefs: %v", account.Prefs)
	}
}
