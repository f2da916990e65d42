package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sleepstars/periop-assistant/internal/logger"
	"github.com/sleepstars/periop-assistant/internal/models"
)

// Client talks to the relay's chat endpoint
type Client struct {
	endpoint      string
	localFallback string
	httpClient    *http.Client
	logger        *logger.Logger
}

// NewClient creates a client for the relay at relayURL. localFallback is shown
// when the relay cannot be reached at all.
func NewClient(relayURL, localFallback string, timeout time.Duration) *Client {
	return &Client{
		endpoint:      strings.TrimRight(relayURL, "/") + "/chat",
		localFallback: localFallback,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logger.GetLogger().WithComponent("chat_client"),
	}
}

// Send posts message and returns the text to show. Any HTTP response carrying
// a reply is used as-is, whatever its status; anything else yields the local
// fallback.
func (c *Client) Send(ctx context.Context, message string) string {
	reply, err := c.send(ctx, message)
	if err != nil {
		c.logger.WithError(err).Warn("Relay unreachable, showing local fallback")
		return c.localFallback
	}
	return reply
}

func (c *Client) send(ctx context.Context, message string) (string, error) {
	body, err := json.Marshal(models.ChatRequest{Message: message})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	var reply models.ChatReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("decode reply (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("Relay answered with status %d", resp.StatusCode)
	}
	return reply.Reply, nil
}

// Session drives one patient conversation: it records turns in a transcript
// and exposes whether an answer is pending
type Session struct {
	client     *Client
	transcript *Transcript
	pending    atomic.Int32
}

// NewSession starts an empty conversation
func NewSession(client *Client) *Session {
	return &Session{client: client, transcript: &Transcript{}}
}

// Ask records the user's turn, waits for the relay and records the AI turn.
// Blank input is ignored and reports false.
func (s *Session) Ask(ctx context.Context, message string) (Entry, bool) {
	if strings.TrimSpace(message) == "" {
		return Entry{}, false
	}

	s.transcript.Append(Entry{Sender: SenderUser, Text: message})
	s.pending.Add(1)
	defer s.pending.Add(-1)

	answer := Entry{Sender: SenderAI, Text: s.client.Send(ctx, message)}
	s.transcript.Append(answer)
	return answer, true
}

// Loading reports whether any answer is still outstanding
func (s *Session) Loading() bool {
	return s.pending.Load() > 0
}

// Transcript returns the conversation so far
func (s *Session) Transcript() []Entry {
	return s.transcript.Entries()
}
