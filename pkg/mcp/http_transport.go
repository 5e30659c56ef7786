package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/arcwave/unillm/pkg/internal/retry"
	providererrors "github.com/arcwave/unillm/pkg/provider/errors"
)

// HTTPTransport implements the Transport interface for HTTP-based communication
// This transport communicates with MCP servers over HTTP
type HTTPTransport struct {
	// URL of the MCP server
	url string

	// HTTP client
	client *http.Client

	// Message queue for receiving
	receiveMu sync.Mutex
	receiveQueue []* MCPMessage

	// State
	connected bool
	mu        sync.Mutex

	// Configuration
	config TransportConfig

	// OAuth
	oauth *OAuthConfig
}

// HTTPTransportConfig contains configuration for HTTP transport
type HTTPTransportConfig struct {
	// URL is the URL of the MCP server
	URL string

	// Timeout is the HTTP request timeout
	TimeoutMS int

	// OAuth configuration (optional)
	OAuth *OAuthConfig

	// Config is the base transport configuration
	Config TransportConfig
}

// OAuthConfig contains OAuth configuration for the client-credentials grant
// used to authenticate against an MCP server that requires it.
type OAuthConfig struct {
	// TokenURL is the OAuth token endpoint
	TokenURL string

	// ClientID is the OAuth client ID
	ClientID string

	// ClientSecret is the OAuth client secret
	ClientSecret string

	// Scopes are the OAuth scopes to request
	Scopes []string

	// AccessToken is the current access token
	AccessToken string

	// RefreshToken is the refresh token
	RefreshToken string

	// ExpiresAt is when the access token expires
	ExpiresAt time.Time
}

// tokenSource builds a fresh oauth2 client-credentials config from this
// config on every call; nothing is cached between token requests.
func (o *OAuthConfig) tokenSource(ctx context.Context) *clientcredentials.Config {
	return &clientcredentials.Config{
		ClientID:     o.ClientID,
		ClientSecret: o.ClientSecret,
		TokenURL:     o.TokenURL,
		Scopes:       o.Scopes,
	}
}

// NewHTTPTransport creates a new HTTP transport
func NewHTTPTransport(config HTTPTransportConfig) *HTTPTransport {
	timeout := time.Duration(config.TimeoutMS) * time.Millisecond
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPTransport{
		url: config.URL,
		client: &http.Client{
			Timeout: timeout,
		},
		receiveQueue: make([]*MCPMessage, 0),
		config:       config.Config,
		oauth:        config.OAuth,
	}
}

// Connect establishes a connection to the HTTP server
func (t *HTTPTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.connected {
		return fmt.Errorf("already connected")
	}

	// If OAuth is configured, get access token
	if t.oauth != nil {
		if err := t.refreshOAuthToken(ctx); err != nil {
			return NewTransportError("failed to get OAuth token", err)
		}
	}

	// Test connection with a ping
	// For now, just mark as connected
	t.connected = true
	return nil
}

// Close closes the connection
func (t *HTTPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.connected = false
	return nil
}

// Send sends a message to the MCP server
func (t *HTTPTransport) Send(ctx context.Context, message *MCPMessage) error {
	t.mu.Lock()
	connected := t.connected
	t.mu.Unlock()

	if !connected {
		return NewTransportError("not connected", nil)
	}

	// Marshal message to JSON
	data, err := json.Marshal(message)
	if err != nil {
		return NewTransportError("failed to marshal message", err)
	}

	if t.config.EnableLogging {
		fmt.Printf("MCP HTTP Send: %s\n", string(data))
	}

	// Set OAuth token if available
	if t.oauth != nil && t.oauth.AccessToken != "" {
		// Check if token is expired
		if time.Now().After(t.oauth.ExpiresAt) {
			if err := t.refreshOAuthToken(ctx); err != nil {
				return NewTransportError("failed to refresh OAuth token", err)
			}
		}
	}

	// Issue the request with retry: a 429 or 5xx from the MCP server is
	// transient, so retry.Do (backing off on the provider-style errors
	// IsRetryable understands) reattempts it instead of failing the whole
	// call on a single blip.
	var body []byte
	err = retry.Do(ctx, retry.Config{MaxRetries: 2, InitialDelay: 250 * time.Millisecond, MaxDelay: 5 * time.Second, Multiplier: 2.0, Jitter: true, ShouldRetry: retry.IsRetryable}, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, "POST", t.url, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		for k, v := range t.config.Headers {
			req.Header.Set(k, v)
		}
		if t.oauth != nil && t.oauth.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+t.oauth.AccessToken)
		}

		resp, err := t.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return providererrors.NewProviderError("mcp", resp.StatusCode, "", string(respBody), nil)
		}

		body = respBody
		return nil
	})
	if err != nil {
		return NewTransportError("request failed", err)
	}

	if t.config.EnableLogging {
		fmt.Printf("MCP HTTP Receive: %s\n", string(body))
	}

	// Parse response
	var responseMsg MCPMessage
	if err := json.Unmarshal(body, &responseMsg); err != nil {
		return NewTransportError("failed to unmarshal response", err)
	}

	// Queue response for receiving
	t.receiveMu.Lock()
	t.receiveQueue = append(t.receiveQueue, &responseMsg)
	t.receiveMu.Unlock()

	return nil
}

// Receive receives a message from the MCP server
// In HTTP transport, messages are queued from Send operations
func (t *HTTPTransport) Receive(ctx context.Context) (*MCPMessage, error) {
	// Poll the receive queue
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		t.receiveMu.Lock()
		if len(t.receiveQueue) > 0 {
			msg := t.receiveQueue[0]
			t.receiveQueue = t.receiveQueue[1:]
			t.receiveMu.Unlock()
			return msg, nil
		}
		t.receiveMu.Unlock()

		// Sleep briefly before checking again
		time.Sleep(10 * time.Millisecond)
	}
}

// IsConnected returns true if the transport is connected
func (t *HTTPTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// refreshOAuthToken fetches a new access token via the OAuth 2.0
// client-credentials grant.
func (t *HTTPTransport) refreshOAuthToken(ctx context.Context) error {
	if t.oauth == nil {
		return fmt.Errorf("OAuth not configured")
	}

	if t.oauth.ClientID == "" || t.oauth.ClientSecret == "" || t.oauth.TokenURL == "" {
		return fmt.Errorf("OAuth client credentials (client ID, secret, token URL) are required")
	}

	token, err := t.oauth.tokenSource(ctx).Token(ctx)
	if err != nil {
		return fmt.Errorf("client credentials token request failed: %w", err)
	}

	t.oauth.AccessToken = token.AccessToken
	t.oauth.RefreshToken = token.RefreshToken
	if !token.Expiry.IsZero() {
		t.oauth.ExpiresAt = token.Expiry
	} else {
		t.oauth.ExpiresAt = time.Now().Add(time.Hour)
	}

	return nil
}

// SetAccessToken sets the OAuth access token manually
func (t *HTTPTransport) SetAccessToken(token string, expiresIn time.Duration) {
	if t.oauth != nil {
		t.oauth.AccessToken = token
		t.oauth.ExpiresAt = time.Now().Add(expiresIn)
	}
}
