package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sleepstars/periop-assistant/internal/logger"
	"github.com/sleepstars/periop-assistant/internal/models"
	"github.com/sleepstars/periop-assistant/internal/relay"
)

// RequestIDHeader carries the per-request correlation id
const RequestIDHeader = "X-Request-ID"

// maxRequestBytes caps the accepted chat request body
const maxRequestBytes = 64 << 10

// Options configures the relay router
type Options struct {
	AllowedOrigins []string
}

// NewRouter builds the relay's HTTP surface: POST /chat plus its CORS preflight
func NewRouter(r *relay.Relay, opts Options) *gin.Engine {
	log := logger.GetLogger().WithComponent("http")

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestID())
	engine.Use(requestLogger(log))
	engine.Use(cors(opts.AllowedOrigins))

	engine.POST("/chat", chatHandler(r, log))
	engine.OPTIONS("/chat", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	return engine
}

func chatHandler(r *relay.Relay, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := decodeChatRequest(c, log)
		reply, status := r.HandleChat(c.Request.Context(), req)
		c.JSON(status, reply)
	}
}

// decodeChatRequest never fails: a missing or malformed body forwards ""
func decodeChatRequest(c *gin.Context, log *logger.Logger) models.ChatRequest {
	var req models.ChatRequest

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBytes))
	if err != nil {
		log.WithContext(c.Request.Context()).WithError(err).Warn("Failed to read chat request body")
		return req
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return req
	}
	if err := json.Unmarshal(body, &req); err != nil {
		log.WithContext(c.Request.Context()).WithError(err).Warn("Malformed chat request body, forwarding empty message")
		return models.ChatRequest{}
	}
	return req
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// requestLogger logs every request that failed or took longer than a second;
// fast successful requests are logged at debug level
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	const slowThreshold = time.Second

	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		latency := time.Since(started)
		status := c.Writer.Status()
		reqLog := log.WithContext(c.Request.Context()).
			With("status", status).
			With("latency", latency.String())

		switch {
		case status >= http.StatusInternalServerError:
			reqLog.Warn("%s %s", c.Request.Method, c.Request.URL.Path)
		case status >= http.StatusBadRequest || latency > slowThreshold:
			reqLog.Info("%s %s", c.Request.Method, c.Request.URL.Path)
		default:
			reqLog.Debug("%s %s", c.Request.Method, c.Request.URL.Path)
		}
	}
}

// cors allows any origin when allowed is empty or contains "*", otherwise
// only the listed origins
func cors(allowed []string) gin.HandlerFunc {
	allowAll := len(allowed) == 0
	origins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			allowAll = true
		}
		origins[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && origins[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		c.Header("Access-Control-Expose-Headers", RequestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
