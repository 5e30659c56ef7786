package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPTransport_Connect_RefreshesOAuthToken(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer tokenServer.Close()

	transport := NewHTTPTransport(HTTPTransportConfig{
		URL: "http://example.invalid/mcp",
		OAuth: &OAuthConfig{
			TokenURL:     tokenServer.URL,
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			Scopes:       []string{"mcp"},
		},
	})

	if err := transport.Connect(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if transport.oauth.AccessToken != "test-access-token" {
		t.Errorf("expected access token to be set, got %q", transport.oauth.AccessToken)
	}
	if transport.oauth.ExpiresAt.Before(time.Now()) {
		t.Error("expected ExpiresAt to be in the future")
	}
}

func TestHTTPTransport_RefreshOAuthToken_MissingCredentials(t *testing.T) {
	transport := NewHTTPTransport(HTTPTransportConfig{
		URL:   "http://example.invalid/mcp",
		OAuth: &OAuthConfig{TokenURL: "http://example.invalid/token"},
	})

	err := transport.refreshOAuthToken(context.Background())
	if err == nil {
		t.Fatal("expected error for missing OAuth client credentials")
	}
}

func TestHTTPTransport_RefreshOAuthToken_NotConfigured(t *testing.T) {
	transport := NewHTTPTransport(HTTPTransportConfig{URL: "http://example.invalid/mcp"})

	err := transport.refreshOAuthToken(context.Background())
	if err == nil {
		t.Fatal("expected error when OAuth is not configured")
	}
}

func TestHTTPTransport_Send_RefreshesExpiredToken(t *testing.T) {
	var tokenRequests int
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenRequests++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "refreshed-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer tokenServer.Close()

	mcpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer refreshed-token" {
			t.Errorf("expected Authorization header with refreshed token, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		resp, _ := CreateResponse(float64(1), map[string]string{"ok": "true"})
		json.NewEncoder(w).Encode(resp)
	}))
	defer mcpServer.Close()

	transport := NewHTTPTransport(HTTPTransportConfig{
		URL: mcpServer.URL,
		OAuth: &OAuthConfig{
			TokenURL:     tokenServer.URL,
			ClientID:     "client-id",
			ClientSecret: "client-secret",
		},
	})

	if err := transport.Connect(context.Background()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	// Connect fetched a token valid for an hour; expire it so Send has to refresh it.
	transport.oauth.ExpiresAt = time.Time{}

	msg, err := CreateRequest(float64(1), "ping", nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}

	if err := transport.Send(context.Background(), msg); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if tokenRequests < 2 {
		t.Errorf("expected Connect + Send to each refresh the expired token, got %d requests", tokenRequests)
	}
}
