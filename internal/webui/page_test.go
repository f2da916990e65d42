package webui

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testPage() Page {
	return Page{
		Title:         "围术期管理 AI",
		RelayURL:      "https://relay.example.org",
		LocalFallback: "网络异常，请稍后重试或联系医生。",
		Questions:     []string{"术前饮食注意事项有哪些？", `"quoted" <question>`},
	}
}

func TestPageRender(t *testing.T) {
	html, err := testPage().Render()
	require.NoError(t, err)
	out := string(html)

	assert.Contains(t, out, "<title>围术期管理 AI</title>")
	assert.Contains(t, out, `data-question="术前饮食注意事项有哪些？"`)
	assert.Contains(t, out, `const relayURL = "https:`)
	assert.Contains(t, out, "relay.example.org")
	assert.NotContains(t, out, "<question>", "question text must be escaped")
	assert.Contains(t, out, "catch (e)")
}

func TestRouterServesPage(t *testing.T) {
	router, err := NewRouter(testPage())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "relay.example.org")
}
