package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sleepstars/periop-assistant/internal/models"
)

// OpenAIClient implements UpstreamClient on top of the go-openai SDK
type OpenAIClient struct {
	config ClientConfig
	client *openai.Client
}

// NewOpenAIClient creates a new SDK-backed upstream client
func NewOpenAIClient(config ClientConfig) *OpenAIClient {
	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if !strings.HasPrefix(clientConfig.BaseURL, "http://") && !strings.HasPrefix(clientConfig.BaseURL, "https://") {
		clientConfig.BaseURL = "https://" + clientConfig.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}

	return &OpenAIClient{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
	openaiReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    make([]openai.ChatCompletionMessage, len(req.Messages)),
		Temperature: sdkTemperature(req.Temperature),
	}
	for i, msg := range req.Messages {
		openaiReq.Messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openaiReq)
	if err != nil {
		return nil, classifySDKError(err)
	}

	result := &models.ChatCompletionResponse{
		ID:      resp.ID,
		Object:  resp.Object,
		Created: resp.Created,
		Model:   resp.Model,
		Choices: make([]models.ChatCompletionChoice, len(resp.Choices)),
	}
	for i, choice := range resp.Choices {
		result.Choices[i] = models.ChatCompletionChoice{
			Index: choice.Index,
			Message: models.ChatCompletionMessage{
				Role:    choice.Message.Role,
				Content: choice.Message.Content,
			},
			FinishReason: string(choice.FinishReason),
		}
	}
	return result, nil
}

// sdkTemperature keeps a zero temperature on the wire; the SDK tags the field
// omitempty, so 0 is sent as the smallest positive float32
func sdkTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

// apiErrorDetail renders the provider's message together with its type and code
func apiErrorDetail(apiErr *openai.APIError) string {
	var attrs []string
	if apiErr.Type != "" {
		attrs = append(attrs, "type="+apiErr.Type)
	}
	if apiErr.Code != nil {
		attrs = append(attrs, fmt.Sprintf("code=%v", apiErr.Code))
	}
	if len(attrs) == 0 {
		return apiErr.Message
	}
	return fmt.Sprintf("%s (%s)", apiErr.Message, strings.Join(attrs, " "))
}

// classifySDKError maps go-openai errors onto the upstream error taxonomy
func classifySDKError(err error) *UpstreamError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{
			Kind:       KindStatus,
			StatusCode: apiErr.HTTPStatusCode,
			Body:       apiErrorDetail(apiErr),
			Err:        err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &UpstreamError{
			Kind:       KindStatus,
			StatusCode: reqErr.HTTPStatusCode,
			Body:       reqErr.Error(),
			Err:        err,
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &UpstreamError{Kind: KindShape, Err: err}
	}

	return &UpstreamError{Kind: KindTransport, Err: err}
}
