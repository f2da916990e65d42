package chatclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sleepstars/periop-assistant/internal/logger"
	"github.com/sleepstars/periop-assistant/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const localFallback = "网络异常，请稍后重试或联系医生。"

func init() {
	logger.InitLogger(logger.FATAL, "test")
}

func TestClient_Send(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req models.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "术后多久可以下床活动？", req.Message)

		json.NewEncoder(w).Encode(models.ChatReply{Reply: "一般术后第一天即可下床。"})
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", localFallback, time.Second)
	assert.Equal(t, "一般术后第一天即可下床。", client.Send(context.Background(), "术后多久可以下床活动？"))
}

func TestClient_SendUsesReplyOfErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(models.ChatReply{Reply: "AI 暂时无法回答，请联系医生。"})
	}))
	defer server.Close()

	client := NewClient(server.URL, localFallback, time.Second)
	assert.Equal(t, "AI 暂时无法回答，请联系医生。", client.Send(context.Background(), "test"))
}

func TestClient_SendFallsBackLocally(t *testing.T) {
	t.Run("Relay unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		client := NewClient(url, localFallback, time.Second)
		assert.Equal(t, localFallback, client.Send(context.Background(), "test"))
	})

	t.Run("Non-JSON response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("<html>bad gateway</html>"))
		}))
		defer server.Close()

		client := NewClient(server.URL, localFallback, time.Second)
		assert.Equal(t, localFallback, client.Send(context.Background(), "test"))
	})

	t.Run("Relay too slow", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		client := NewClient(server.URL, localFallback, 50*time.Millisecond)
		assert.Equal(t, localFallback, client.Send(context.Background(), "test"))
	})
}

func TestSession_Ask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(models.ChatReply{Reply: "答：" + req.Message})
	}))
	defer server.Close()

	session := NewSession(NewClient(server.URL, localFallback, time.Second))

	answer, ok := session.Ask(context.Background(), "麻醉前要做哪些准备？")
	require.True(t, ok)
	assert.Equal(t, Entry{Sender: SenderAI, Text: "答：麻醉前要做哪些准备？"}, answer)

	_, ok = session.Ask(context.Background(), "   ")
	assert.False(t, ok, "blank input is ignored")

	_, ok = session.Ask(context.Background(), "复查需要注意什么？")
	require.True(t, ok)

	assert.Equal(t, []Entry{
		{Sender: SenderUser, Text: "麻醉前要做哪些准备？"},
		{Sender: SenderAI, Text: "答：麻醉前要做哪些准备？"},
		{Sender: SenderUser, Text: "复查需要注意什么？"},
		{Sender: SenderAI, Text: "答：复查需要注意什么？"},
	}, session.Transcript())
	assert.False(t, session.Loading())
}

func TestSession_UserTurnIsRecordedBeforeReply(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		<-release
		json.NewEncoder(w).Encode(models.ChatReply{Reply: "ok"})
	}))
	defer server.Close()

	session := NewSession(NewClient(server.URL, localFallback, 5*time.Second))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		session.Ask(context.Background(), "术后多久可以正常进食？")
	}()

	<-arrived
	assert.True(t, session.Loading())
	assert.Equal(t, []Entry{{Sender: SenderUser, Text: "术后多久可以正常进食？"}}, session.Transcript())

	close(release)
	wg.Wait()
	assert.False(t, session.Loading())
	assert.Len(t, session.Transcript(), 2)
}

func TestTranscript_EntriesIsACopy(t *testing.T) {
	var tr Transcript
	tr.Append(Entry{Sender: SenderUser, Text: "hi"})

	entries := tr.Entries()
	entries[0].Text = "mutated"

	assert.Equal(t, "hi", tr.Entries()[0].Text)
	assert.Equal(t, 1, tr.Len())
}

func TestResolveInput(t *testing.T) {
	questions := []string{"术前需要禁食多久？", "术后多久可以下床？"}

	assert.Equal(t, "术前需要禁食多久？", ResolveInput("1", questions))
	assert.Equal(t, "术后多久可以下床？", ResolveInput(" 2 ", questions))
	assert.Equal(t, "3", ResolveInput("3", questions))
	assert.Equal(t, "0", ResolveInput("0", questions))
	assert.Equal(t, "我可以喝水吗", ResolveInput("我可以喝水吗", questions))
	assert.Equal(t, "1", ResolveInput("1", nil))
}
