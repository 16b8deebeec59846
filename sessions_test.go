package sdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/prepxl/prepxl/sdk/go/headers"
	"github.com/prepxl/prepxl/sdk/go/routes"
	"github.com/prepxl/prepxl/sdk/go/testutil"
)

func TestCreateEmailSessionInstallsSecret(t *testing.T) {
	sessionID := uuid.New()
	accountID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != routes.AccountSessionsEmail || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var creds EmailSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if creds.Email != "ada@example.com" {
			t.Errorf("unexpected email %q", creds.Email)
		}
		_ = json.NewEncoder(w).Encode(Session{
			ID:        sessionID,
			AccountID: accountID,
			Provider:  "email",
			Secret:    "session-secret-1",
			Current:   true,
			CreatedAt: time.Now().UTC(),
			ExpiresAt: time.Now().Add(24 * time.Hour).UTC(),
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	session, err := client.Sessions.CreateEmailSession(context.Background(), EmailSessionRequest{
		Email:    "ada@example.com",
		Password: "hunter2",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.ID != sessionID {
		t.Fatalf("unexpected session: %+v", session)
	}
	if !client.HasSession() {
		t.Fatalf("expected session secret installed after login")
	}
}

func TestCreateEmailSessionValidation(t *testing.T) {
	client := newTestClient(t, "https://example.com")
	if _, err := client.Sessions.CreateEmailSession(context.Background(), EmailSessionRequest{Email: "a@b.c"}); err == nil {
		t.Fatalf("expected error for missing password")
	}
	if _, err := client.Sessions.CreateEmailSession(context.Background(), EmailSessionRequest{Password: "x"}); err == nil {
		t.Fatalf("expected error for missing email")
	}
}

func TestGetCurrentUnauthorized(t *testing.T) {
	server := testutil.NewScriptServer([]testutil.ScriptStep{
		{Status: http.StatusUnauthorized, Body: `{"error":{"code":"unauthorized","message":"session expired","status":401}}`},
	})
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.SetSession("stale-secret")
	_, err := client.Sessions.GetCurrent(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestDeleteCurrentClearsSecret(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != routes.AccountSessionCurrent {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get(headers.Session) == "" {
			t.Errorf("expected session header on logout")
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.SetSession("secret-1")
	if err := client.Sessions.DeleteCurrent(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if client.HasSession() {
		t.Fatalf("expected session cleared after logout")
	}
}

func TestSessionIDValidation(t *testing.T) {
	client := newTestClient(t, "https://example.com")
	if _, err := client.Sessions.Get(context.Background(), uuid.Nil); err == nil {
		t.Fatalf("expected error for nil session id")
	}
	if err := client.Sessions.Delete(context.Background(), uuid.Nil); err == nil {
		t.Fatalf("expected error for nil session id")
	}
}

func TestListSessions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(SessionListResponse{
			Sessions: []Session{{ID: uuid.New(), Current: true}, {ID: uuid.New()}},
			Total:    2,
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	resp, err := client.Sessions.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if resp.Total != 2 || len(resp.Sessions) != 2 {
		t.Fatalf("unexpected list: %+v", resp)
	}
}
