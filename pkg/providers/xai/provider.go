package xai

import (
	"fmt"
	"os"

	"github.com/arcwave/unillm/pkg/internal/http"
	"github.com/arcwave/unillm/pkg/provider"
	providererrors "github.com/arcwave/unillm/pkg/provider/errors"
)

const (
	// DefaultBaseURL is the default xAI API base URL
	DefaultBaseURL = "https://api.x.ai/v1"
)

// Provider implements the provider.Provider interface for xAI (Grok).
type Provider struct {
	config Config
	client *http.Client
}

// Config contains configuration for the xAI provider
type Config struct {
	// APIKey is the xAI API key
	APIKey string

	// BaseURL is the base URL for the xAI API (default: https://api.x.ai/v1)
	BaseURL string
}

// getAPIKey returns explicit if non-empty, otherwise falls back to the
// XAI_API_KEY environment variable.
func getAPIKey(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return os.Getenv("XAI_API_KEY")
}

// New creates a new xAI provider with the given configuration
func New(cfg Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	apiKey := getAPIKey(cfg.APIKey)
	headers := map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", apiKey),
	}

	client := http.NewClient(http.Config{
		BaseURL:  baseURL,
		Provider: "xai",
		Headers:  headers,
	})

	return &Provider{
		config: cfg,
		client: client,
	}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "xai"
}

// Capabilities declares this provider's supported capability set.
func (p *Provider) Capabilities() []provider.Capability {
	return []provider.Capability{
		provider.CapabilityChat,
		provider.CapabilityStreaming,
		provider.CapabilityToolCalling,
		provider.CapabilityReasoning,
		provider.CapabilityVision,
		provider.CapabilityImageGeneration,
		provider.CapabilityLiveSearch,
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
	return nil, fmt.Errorf("xAI does not support embedding models")
}

// ImageModel returns an image generation model by ID
func (p *Provider) ImageModel(modelID string) (provider.ImageModel, error) {
	return nil, fmt.Errorf("xAI image generation is not yet implemented")
}

// SpeechModel returns a speech synthesis model by ID
func (p *Provider) SpeechModel(modelID string) (provider.SpeechModel, error) {
	return nil, fmt.Errorf("xAI does not support speech synthesis")
}

// TranscriptionModel returns a speech-to-text model by ID
func (p *Provider) TranscriptionModel(modelID string) (provider.TranscriptionModel, error) {
	return nil, fmt.Errorf("xAI does not support transcription")
}

// RerankingModel returns a reranking model by ID
func (p *Provider) RerankingModel(modelID string) (provider.RerankingModel, error) {
	return nil, providererrors.NewUnsupportedCapabilityError("xai", modelID, "reranking")
}

// Client returns the HTTP client for making API requests
func (p *Provider) Client() *http.Client {
	return p.client
}
