package openrouter

import (
	"context"
	"fmt"
	"os"

	"github.com/arcwave/unillm/pkg/internal/http"
	"github.com/arcwave/unillm/pkg/provider"
	providererrors "github.com/arcwave/unillm/pkg/provider/errors"
)

const (
	// DefaultBaseURL is the default OpenRouter API base URL
	DefaultBaseURL = "https://openrouter.ai/api/v1"
)

// Provider implements the provider.Provider interface for OpenRouter's
// OpenAI-Chat-Completions-compatible multi-model gateway.
type Provider struct {
	config Config
	client *http.Client
}

// Config contains configuration for the OpenRouter provider
type Config struct {
	// APIKey is the OpenRouter API key
	APIKey string

	// BaseURL is the base URL for the OpenRouter API (default: https://openrouter.ai/api/v1)
	BaseURL string

	// SiteURL is sent as the HTTP-Referer header for OpenRouter's
	// leaderboard attribution. Optional.
	SiteURL string

	// SiteName is sent as the X-Title header for OpenRouter's leaderboard
	// attribution. Optional.
	SiteName string
}

// getAPIKey returns explicit if non-empty, otherwise falls back to the
// OPENROUTER_API_KEY environment variable.
func getAPIKey(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return os.Getenv("OPENROUTER_API_KEY")
}

// New creates a new OpenRouter provider with the given configuration
func New(cfg Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	apiKey := getAPIKey(cfg.APIKey)
	headers := map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", apiKey),
	}
	if cfg.SiteURL != "" {
		headers["HTTP-Referer"] = cfg.SiteURL
	}
	if cfg.SiteName != "" {
		headers["X-Title"] = cfg.SiteName
	}

	client := http.NewClient(http.Config{
		BaseURL:  baseURL,
		Provider: "openrouter",
		Headers:  headers,
	})

	return &Provider{
		config: cfg,
		client: client,
	}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "openrouter"
}

// Capabilities declares this provider's supported capability set.
func (p *Provider) Capabilities() []provider.Capability {
	return []provider.Capability{
		provider.CapabilityChat,
		provider.CapabilityStreaming,
		provider.CapabilityToolCalling,
		provider.CapabilityModelListing,
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
	return nil, fmt.Errorf("OpenRouter does not support embedding models")
}

// ImageModel returns an image generation model by ID
func (p *Provider) ImageModel(modelID string) (provider.ImageModel, error) {
	return nil, fmt.Errorf("OpenRouter does not support image generation")
}

// SpeechModel returns a speech synthesis model by ID
func (p *Provider) SpeechModel(modelID string) (provider.SpeechModel, error) {
	return nil, fmt.Errorf("OpenRouter does not support speech synthesis")
}

// TranscriptionModel returns a speech-to-text model by ID
func (p *Provider) TranscriptionModel(modelID string) (provider.TranscriptionModel, error) {
	return nil, fmt.Errorf("OpenRouter does not support transcription")
}

// RerankingModel returns a reranking model by ID
func (p *Provider) RerankingModel(modelID string) (provider.RerankingModel, error) {
	return nil, providererrors.NewUnsupportedCapabilityError("openrouter", modelID, "reranking")
}

// Client returns the HTTP client for making API requests
func (p *Provider) Client() *http.Client {
	return p.client
}

// ListModels fetches the catalog of models currently routable through
// OpenRouter. Grounds provider.CapabilityModelListing.
func (p *Provider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var resp struct {
		Data []ModelInfo `json:"data"`
	}
	if err := p.client.GetJSON(ctx, "/models", &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ModelInfo describes a single model entry from OpenRouter's /models listing.
type ModelInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Context int    `json:"context_length"`
}
