package relay

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sleepstars/periop-assistant/internal/clients"
	"github.com/sleepstars/periop-assistant/internal/logger"
	"github.com/sleepstars/periop-assistant/internal/models"
)

// Asker answers one question with one upstream call
type Asker interface {
	Ask(ctx context.Context, message string) (string, error)
}

// Relay maps a chat request onto the model bridge and every failure onto the
// fallback reply
type Relay struct {
	bridge   Asker
	fallback string
	logger   *logger.Logger
	mu       sync.RWMutex
}

// NewRelay creates a relay answering with fallback when the model cannot
func NewRelay(bridge Asker, fallback string) *Relay {
	return &Relay{
		bridge:   bridge,
		fallback: fallback,
		logger:   logger.GetLogger().WithComponent("relay"),
	}
}

// Fallback returns the reply sent when no answer could be obtained
func (r *Relay) Fallback() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// SetFallback replaces the fallback reply
func (r *Relay) SetFallback(fallback string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = fallback
}

// HandleChat answers req. It always returns a reply: the model's answer with
// 200, or the fallback with 500 after logging the upstream detail once.
func (r *Relay) HandleChat(ctx context.Context, req models.ChatRequest) (reply models.ChatReply, status int) {
	log := r.logger.WithContext(ctx)

	defer func() {
		if p := recover(); p != nil {
			log.With("panic", fmt.Sprint(p)).Error("Recovered from panic while handling chat request")
			reply, status = r.fallbackReply()
		}
	}()

	started := time.Now()
	log.Debug("Handling chat request with %d characters", utf8.RuneCountInString(req.Message))

	text, err := r.bridge.Ask(ctx, req.Message)
	if err != nil {
		upErr := clients.AsUpstreamError(err)
		failLog := log.With("kind", upErr.Kind.String()).With("elapsed", time.Since(started).String())
		if upErr.StatusCode != 0 {
			failLog = failLog.With("upstream_status", upErr.StatusCode)
		}
		failLog.Error("Upstream call failed: %s", upErr.Detail())
		return r.fallbackReply()
	}

	log.Info("Chat request answered in %s", time.Since(started))
	return models.ChatReply{Reply: text}, http.StatusOK
}

func (r *Relay) fallbackReply() (models.ChatReply, int) {
	return models.ChatReply{Reply: r.Fallback()}, http.StatusInternalServerError
}
