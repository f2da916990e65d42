package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/sleepstars/periop-assistant/internal/models"
)

// UpstreamClient defines the interface for chat completion API clients
type UpstreamClient interface {
	// Complete sends a completion request to the model. Failures are
	// reported as *UpstreamError.
	Complete(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error)
}

// ClientConfig contains configuration for upstream clients
type ClientConfig struct {
	BaseURL string
	APIKey  string
	// Timeout bounds the whole HTTP exchange; zero leaves it to the caller's context
	Timeout time.Duration
}

// New creates the upstream client of the given kind ("http" or "openai")
func New(kind string, config ClientConfig) (UpstreamClient, error) {
	switch kind {
	case "", "http":
		return NewHTTPClient(config), nil
	case "openai":
		return NewOpenAIClient(config), nil
	default:
		return nil, fmt.Errorf("unknown upstream client %q", kind)
	}
}
