package minimax

import (
	"fmt"
	"os"
	"strings"

	"github.com/arcwave/unillm/pkg/internal/http"
	"github.com/arcwave/unillm/pkg/provider"
	providererrors "github.com/arcwave/unillm/pkg/provider/errors"
)

const (
	// DefaultBaseURL is the default MiniMax Anthropic-compatible API base URL
	DefaultBaseURL = "https://api.minimax.io/anthropic"

	// DefaultAPIVersion mirrors the Anthropic wire protocol version MiniMax emulates
	DefaultAPIVersion = "2023-06-01"
)

// Provider implements the provider.Provider interface for MiniMax's
// Anthropic-Messages-compatible API.
type Provider struct {
	config Config
	client *http.Client
}

// Config contains configuration for the MiniMax provider
type Config struct {
	// APIKey is the MiniMax API key
	APIKey string

	// BaseURL is the base URL for the MiniMax API
	// (default: https://api.minimax.io/anthropic)
	BaseURL string

	// APIVersion is the Anthropic-compatible API version header value
	APIVersion string
}

// getAPIKey returns explicit if non-empty, otherwise falls back to the
// MINIMAX_API_KEY environment variable.
func getAPIKey(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return os.Getenv("MINIMAX_API_KEY")
}

// normalizeBaseURL strips a trailing "/v1" from a configured base URL.
// MiniMax's documented Anthropic-compatible endpoint is the bare
// "/anthropic" root; the language model appends "/v1/messages" itself.
func normalizeBaseURL(baseURL string) string {
	return strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/v1")
}

// New creates a new MiniMax provider with the given configuration
func New(cfg Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = normalizeBaseURL(baseURL)

	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	headers := map[string]string{
		"x-api-key":         getAPIKey(cfg.APIKey),
		"anthropic-version": apiVersion,
	}

	client := http.NewClient(http.Config{
		BaseURL:  baseURL,
		Provider: "minimax",
		Headers:  headers,
	})

	return &Provider{
		config: cfg,
		client: client,
	}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "minimax"
}

// Capabilities declares this provider's supported capability set.
func (p *Provider) Capabilities() []provider.Capability {
	return []provider.Capability{
		provider.CapabilityChat,
		provider.CapabilityStreaming,
		provider.CapabilityToolCalling,
	}
}

// LanguageModel returns a language model by ID
func (p *Provider) LanguageModel(modelID string) (provider.LanguageModel, error) {
	if modelID == "" {
		return nil, fmt.Errorf("model ID cannot be empty")
	}

	return NewLanguageModel(p, modelID), nil
}

// EmbeddingModel returns an embedding model by ID
func (p *Provider) EmbeddingModel(modelID string) (provider.EmbeddingModel, error) {
	return nil, fmt.Errorf("MiniMax does not support embedding models")
}

// ImageModel returns an image generation model by ID
func (p *Provider) ImageModel(modelID string) (provider.ImageModel, error) {
	return nil, fmt.Errorf("MiniMax does not support image generation")
}

// SpeechModel returns a speech synthesis model by ID
func (p *Provider) SpeechModel(modelID string) (provider.SpeechModel, error) {
	return nil, fmt.Errorf("MiniMax does not support speech synthesis")
}

// TranscriptionModel returns a speech-to-text model by ID
func (p *Provider) TranscriptionModel(modelID string) (provider.TranscriptionModel, error) {
	return nil, fmt.Errorf("MiniMax does not support transcription")
}

// RerankingModel returns a reranking model by ID
func (p *Provider) RerankingModel(modelID string) (provider.RerankingModel, error) {
	return nil, providererrors.NewUnsupportedCapabilityError("minimax", modelID, "reranking")
}

// Client returns the HTTP client for making API requests
func (p *Provider) Client() *http.Client {
	return p.client
}
