// Package mockupstream is a local OpenAI-compatible chat completion endpoint
// used to exercise the relay against healthy and faulty providers.
package mockupstream

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sleepstars/periop-assistant/internal/models"
)

// Mode selects how the endpoint answers
type Mode string

const (
	// ModeOK answers with a completion echoing the question
	ModeOK Mode = "ok"
	// ModeStatus answers with a non-2xx status and an error body
	ModeStatus Mode = "status"
	// ModeMalformed answers 200 with a body that is not JSON
	ModeMalformed Mode = "malformed"
	// ModeHang never answers until the client gives up
	ModeHang Mode = "hang"
)

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(s)); m {
	case ModeOK, ModeStatus, ModeMalformed, ModeHang:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// Options configures the mock endpoint
type Options struct {
	Mode Mode
	// Status is the code returned in ModeStatus
	Status int
	// Reply overrides the completion text in ModeOK
	Reply string
}

// NewRouter serves POST /v1/chat/completions
func NewRouter(opts Options) *gin.Engine {
	if opts.Status == 0 {
		opts.Status = http.StatusInternalServerError
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/v1/chat/completions", func(c *gin.Context) {
		if !strings.HasPrefix(c.GetHeader("Authorization"), "Bearer ") {
			c.JSON(http.StatusUnauthorized, errorBody("missing bearer token", "invalid_request_error"))
			return
		}

		var req models.ChatCompletionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorBody(err.Error(), "invalid_request_error"))
			return
		}

		switch opts.Mode {
		case ModeStatus:
			c.JSON(opts.Status, errorBody("mock upstream failure", "server_error"))
		case ModeMalformed:
			c.Data(http.StatusOK, "application/json", []byte("<html>not json</html>"))
		case ModeHang:
			<-c.Request.Context().Done()
		default:
			c.JSON(http.StatusOK, completion(req, opts.Reply))
		}
	})
	return r
}

func completion(req models.ChatCompletionRequest, reply string) *models.ChatCompletionResponse {
	if reply == "" {
		reply = "模拟回答：" + lastUserMessage(req)
	}
	return &models.ChatCompletionResponse{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []models.ChatCompletionChoice{
			{
				Message: models.ChatCompletionMessage{
					Role:    models.RoleAssistant,
					Content: reply,
				},
				FinishReason: "stop",
			},
		},
	}
}

func lastUserMessage(req models.ChatCompletionRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == models.RoleUser {
			return req.Messages[i].Content
		}
	}
	return ""
}

func errorBody(message, kind string) gin.H {
	return gin.H{"error": gin.H{"message": message, "type": kind}}
}
