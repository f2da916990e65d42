package modelbridge

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sleepstars/periop-assistant/internal/clients"
	"github.com/sleepstars/periop-assistant/internal/config"
	"github.com/sleepstars/periop-assistant/internal/logger"
	"github.com/sleepstars/periop-assistant/internal/models"
)

// Settings are the per-call parameters of the upstream request
type Settings struct {
	Model        string
	SystemPrompt string
	Temperature  float32
	Timeout      time.Duration
}

// SettingsFromConfig picks the hot-reloadable call parameters out of cfg
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Model:        cfg.Upstream.Model,
		SystemPrompt: cfg.Prompts.System,
		Temperature:  cfg.Upstream.Temperature,
		Timeout:      cfg.Upstream.Timeout,
	}
}

// ModelBridge turns a patient question into one upstream completion call
type ModelBridge struct {
	client   clients.UpstreamClient
	settings Settings
	logger   *logger.Logger
	mu       sync.RWMutex
}

// NewModelBridge creates a new model bridge instance
func NewModelBridge(client clients.UpstreamClient, settings Settings) *ModelBridge {
	log := logger.GetLogger().WithComponent("model_bridge")
	log.Info("Creating model bridge for model %s", settings.Model)

	return &ModelBridge{
		client:   client,
		settings: settings,
		logger:   log,
	}
}

// NewFromConfig creates the upstream client named by cfg and a bridge over it.
// The client gets no timeout of its own; each Ask is bounded by the current
// Settings.Timeout so a reloaded value takes effect.
func NewFromConfig(cfg *config.Config) (*ModelBridge, error) {
	client, err := clients.New(cfg.Upstream.Client, clients.ClientConfig{
		BaseURL: cfg.Upstream.BaseURL,
		APIKey:  cfg.Upstream.APIKey,
	})
	if err != nil {
		return nil, err
	}
	return NewModelBridge(client, SettingsFromConfig(cfg)), nil
}

// Settings returns a snapshot of the current settings
func (b *ModelBridge) Settings() Settings {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.settings
}

// UpdateSettings replaces the settings used by subsequent calls
func (b *ModelBridge) UpdateSettings(settings Settings) {
	b.mu.Lock()
	b.settings = settings
	b.mu.Unlock()
	b.logger.Info("Settings updated: model=%s temperature=%.2f timeout=%s",
		settings.Model, settings.Temperature, settings.Timeout)
}

// BuildRequest creates the upstream request for message
func (b *ModelBridge) BuildRequest(message string) *models.ChatCompletionRequest {
	return buildRequest(b.Settings(), message)
}

func buildRequest(s Settings, message string) *models.ChatCompletionRequest {
	return &models.ChatCompletionRequest{
		Model: s.Model,
		Messages: []models.ChatCompletionMessage{
			{Role: models.RoleSystem, Content: s.SystemPrompt},
			{Role: models.RoleUser, Content: message},
		},
		Temperature: s.Temperature,
	}
}

// Ask sends message upstream and returns the first completion's text.
// Every failure is an *clients.UpstreamError.
func (b *ModelBridge) Ask(ctx context.Context, message string) (string, error) {
	s := b.Settings()
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	req := buildRequest(s, message)
	log := b.logger.WithContext(ctx)
	log.Debug("Calling model %s with %d messages", req.Model, len(req.Messages))

	started := time.Now()
	resp, err := b.client.Complete(ctx, req)
	if err != nil {
		return "", clients.AsUpstreamError(err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return "", &clients.UpstreamError{Kind: clients.KindShape, Err: clients.ErrNoCompletion}
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", &clients.UpstreamError{Kind: clients.KindShape, Err: clients.ErrNoCompletion}
	}

	log.Debug("Model call completed in %s", time.Since(started))
	return content, nil
}
