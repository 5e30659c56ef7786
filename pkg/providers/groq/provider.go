package groq

import (
	"fmt"
	"os"

	"github.com/arcwave/unillm/pkg/internal/http"
	"github.com/arcwave/unillm/pkg/provider"
	providererrors "github.com/arcwave/unillm/pkg/provider/errors"
)

const (
	// DefaultBaseURL is the default Groq API base URL
	DefaultBaseURL = "https://api.groq.com/openai/v1"
)

// Provider implements the provider.Provider interface for Groq's
// OpenAI-Chat-Completions-compatible API.
type Provider struct {
	config Config
	client *http.Client
}

// Config contains configuration for the Groq provider
type Config struct {
	// APIKey is the Groq API key
	APIKey string

	// BaseURL is the base URL for the Groq API (default: https://api.groq.com/openai/v1)
	BaseURL string
}

// getAPIKey returns explicit if non-empty, otherwise falls back to the
// GROQ_API_KEY environment variable.
func getAPIKey(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return os.Getenv("GROQ_API_KEY")
}

// New creates a new Groq provider with the given configuration
func New(cfg Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	apiKey := getAPIKey(cfg.APIKey)
	client := http.NewClient(http.Config{
		BaseURL:  baseURL,
		Provider: "groq",
		Headers: map[string]string{
			"Authorization": fmt.Sprintf("Bearer %s", apiKey),
		},
	})

	return &Provider{
		config: cfg,
		client: client,
	}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "groq"
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
	return nil, fmt.Errorf("Groq does not support embedding models")
}

// ImageModel returns an image generation model by ID
func (p *Provider) ImageModel(modelID string) (provider.ImageModel, error) {
	return nil, fmt.Errorf("Groq does not support image generation")
}

// SpeechModel returns a speech synthesis model by ID
func (p *Provider) SpeechModel(modelID string) (provider.SpeechModel, error) {
	return nil, fmt.Errorf("Groq does not support speech synthesis")
}

// TranscriptionModel returns a speech-to-text model by ID
func (p *Provider) TranscriptionModel(modelID string) (provider.TranscriptionModel, error) {
	return nil, fmt.Errorf("Groq does not support transcription")
}

// RerankingModel returns a reranking model by ID
func (p *Provider) RerankingModel(modelID string) (provider.RerankingModel, error) {
	return nil, providererrors.NewUnsupportedCapabilityError("groq", modelID, "reranking")
}

// Client returns the HTTP client for making API requests
func (p *Provider) Client() *http.Client {
	return p.client
}
