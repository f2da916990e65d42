package mocks

import (
	"context"

	"github.com/sleepstars/periop-assistant/internal/models"
)

// MockUpstreamClient implements clients.UpstreamClient for testing
type MockUpstreamClient struct {
	CompleteFunc func(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error)
}

func (m *MockUpstreamClient) Complete(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return &models.ChatCompletionResponse{}, nil
}

// Reply returns a CompleteFunc answering every request with content
func Reply(content string) func(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
	return func(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
		return &models.ChatCompletionResponse{
			Choices: []models.ChatCompletionChoice{
				{Message: models.ChatCompletionMessage{Role: models.RoleAssistant, Content: content}, FinishReason: "stop"},
			},
		}, nil
	}
}

// Hang returns a CompleteFunc that blocks until ctx is done
func Hang() func(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
	return func(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
}
