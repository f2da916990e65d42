package modelbridge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sleepstars/periop-assistant/internal/clients"
	"github.com/sleepstars/periop-assistant/internal/config"
	"github.com/sleepstars/periop-assistant/internal/logger"
	"github.com/sleepstars/periop-assistant/internal/mocks"
	"github.com/sleepstars/periop-assistant/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitLogger(logger.ERROR, "test")
}

func testSettings() Settings {
	return Settings{
		Model:        "ft:test-model",
		SystemPrompt: "你是一个专业的围术期管理AI助手",
		Temperature:  0.5,
		Timeout:      time.Second,
	}
}

func TestModelBridge_BuildRequest(t *testing.T) {
	bridge := NewModelBridge(&mocks.MockUpstreamClient{}, testSettings())

	req := bridge.BuildRequest("麻醉前要做哪些准备？")
	assert.Equal(t, "ft:test-model", req.Model)
	assert.Equal(t, float32(0.5), req.Temperature)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, models.ChatCompletionMessage{Role: models.RoleSystem, Content: "你是一个专业的围术期管理AI助手"}, req.Messages[0])
	assert.Equal(t, models.ChatCompletionMessage{Role: models.RoleUser, Content: "麻醉前要做哪些准备？"}, req.Messages[1])
}

func TestModelBridge_Ask(t *testing.T) {
	mockClient := &mocks.MockUpstreamClient{
		CompleteFunc: func(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
			assert.Equal(t, "ft:test-model", req.Model)
			assert.Equal(t, "复查需要注意什么？", req.Messages[1].Content)
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline, "upstream call must be bounded")
			return mocks.Reply("按时复查。")(ctx, req)
		},
	}

	reply, err := NewModelBridge(mockClient, testSettings()).Ask(context.Background(), "复查需要注意什么？")
	require.NoError(t, err)
	assert.Equal(t, "按时复查。", reply)
}

func TestModelBridge_AskForwardsEmptyMessage(t *testing.T) {
	var forwarded *models.ChatCompletionRequest
	mockClient := &mocks.MockUpstreamClient{
		CompleteFunc: func(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
			forwarded = req
			return mocks.Reply("请描述您的问题。")(ctx, req)
		},
	}

	_, err := NewModelBridge(mockClient, testSettings()).Ask(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, forwarded)
	assert.Equal(t, "", forwarded.Messages[1].Content)
}

func TestModelBridge_ErrorHandling(t *testing.T) {
	testCases := []struct {
		name     string
		complete func(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error)
		wantKind clients.ErrorKind
	}{
		{
			name: "Status error passes through",
			complete: func(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
				return nil, &clients.UpstreamError{Kind: clients.KindStatus, StatusCode: 401, Body: "bad key"}
			},
			wantKind: clients.KindStatus,
		},
		{
			name: "Unclassified error becomes transport",
			complete: func(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
				return nil, errors.New("dial tcp: connection refused")
			},
			wantKind: clients.KindTransport,
		},
		{
			name: "Missing choices",
			complete: func(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
				return &models.ChatCompletionResponse{ID: "cmpl-1"}, nil
			},
			wantKind: clients.KindShape,
		},
		{
			name: "Nil response",
			complete: func(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
				return nil, nil
			},
			wantKind: clients.KindShape,
		},
		{
			name:     "Blank completion",
			complete: mocks.Reply("  \n"),
			wantKind: clients.KindShape,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bridge := NewModelBridge(&mocks.MockUpstreamClient{CompleteFunc: tc.complete}, testSettings())

			reply, err := bridge.Ask(context.Background(), "test")
			assert.Empty(t, reply)
			upErr := clients.AsUpstreamError(err)
			require.NotNil(t, upErr)
			assert.Equal(t, tc.wantKind, upErr.Kind)
		})
	}
}

func TestModelBridge_TimeoutOnHang(t *testing.T) {
	settings := testSettings()
	settings.Timeout = 50 * time.Millisecond
	bridge := NewModelBridge(&mocks.MockUpstreamClient{CompleteFunc: mocks.Hang()}, settings)

	started := time.Now()
	_, err := bridge.Ask(context.Background(), "test")
	elapsed := time.Since(started)

	upErr := clients.AsUpstreamError(err)
	require.NotNil(t, upErr)
	assert.Equal(t, clients.KindTransport, upErr.Kind)
	assert.True(t, upErr.Timeout())
	assert.Less(t, elapsed, 2*time.Second)
}

func TestModelBridge_CallerCancellation(t *testing.T) {
	bridge := NewModelBridge(&mocks.MockUpstreamClient{CompleteFunc: mocks.Hang()}, testSettings())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bridge.Ask(ctx, "test")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestModelBridge_UpdateSettings(t *testing.T) {
	var seen []string
	var mu sync.Mutex
	mockClient := &mocks.MockUpstreamClient{
		CompleteFunc: func(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
			mu.Lock()
			seen = append(seen, req.Model)
			mu.Unlock()
			return mocks.Reply("ok")(ctx, req)
		},
	}
	bridge := NewModelBridge(mockClient, testSettings())

	_, err := bridge.Ask(context.Background(), "one")
	require.NoError(t, err)

	updated := testSettings()
	updated.Model = "ft:reloaded"
	bridge.UpdateSettings(updated)
	_, err = bridge.Ask(context.Background(), "two")
	require.NoError(t, err)

	assert.Equal(t, []string{"ft:test-model", "ft:reloaded"}, seen)
	assert.Equal(t, updated, bridge.Settings())
}

func TestModelBridge_ConcurrentCalls(t *testing.T) {
	numCalls := 20
	mockClient := &mocks.MockUpstreamClient{
		CompleteFunc: func(ctx context.Context, req *models.ChatCompletionRequest) (*models.ChatCompletionResponse, error) {
			time.Sleep(5 * time.Millisecond)
			return mocks.Reply("answer to " + req.Messages[1].Content)(ctx, req)
		},
	}
	bridge := NewModelBridge(mockClient, testSettings())

	var wg sync.WaitGroup
	for i := 0; i < numCalls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				bridge.UpdateSettings(testSettings())
			}
			question := string(rune('A' + i))
			reply, err := bridge.Ask(context.Background(), question)
			assert.NoError(t, err)
			assert.Equal(t, "answer to "+question, reply)
		}(i)
	}
	wg.Wait()
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	s := SettingsFromConfig(cfg)

	assert.Equal(t, config.DefaultModel, s.Model)
	assert.Equal(t, config.DefaultSystemPrompt, s.SystemPrompt)
	assert.Equal(t, float32(0.5), s.Temperature)
	assert.Equal(t, 30*time.Second, s.Timeout)
}

// slowUpstream answers after delay unless the caller gives up first
func slowUpstream(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"index": 0, "message": {"role": "assistant", "content": "术后第一天即可下床。"}}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewFromConfig_ReloadedTimeoutIsApplied(t *testing.T) {
	for _, kind := range []string{config.ClientHTTP, config.ClientOpenAI} {
		t.Run(kind, func(t *testing.T) {
			srv := slowUpstream(t, 300*time.Millisecond)

			cfg := config.DefaultConfig()
			cfg.Upstream.Client = kind
			cfg.Upstream.BaseURL = srv.URL + "/v1"
			cfg.Upstream.APIKey = "sk-test"
			cfg.Upstream.Timeout = 100 * time.Millisecond

			bridge, err := NewFromConfig(cfg)
			require.NoError(t, err)

			_, err = bridge.Ask(context.Background(), "术后多久可以下床？")
			upErr := clients.AsUpstreamError(err)
			require.NotNil(t, upErr)
			assert.Equal(t, clients.KindTransport, upErr.Kind)

			cfg.Upstream.Timeout = 2 * time.Second
			bridge.UpdateSettings(SettingsFromConfig(cfg))

			answer, err := bridge.Ask(context.Background(), "术后多久可以下床？")
			require.NoError(t, err)
			assert.Equal(t, "术后第一天即可下床。", answer)
		})
	}
}

func TestNewFromConfig_UnknownClient(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Upstream.Client = "grpc"

	_, err := NewFromConfig(cfg)
	assert.Error(t, err)
}
