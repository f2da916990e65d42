package webui

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed index.html.tmpl
var pageSource string

var pageTemplate = template.Must(template.New("index").Parse(pageSource))

// Page holds everything the browser needs to talk to the relay
type Page struct {
	Title         string
	RelayURL      string
	LocalFallback string
	Questions     []string
}

// Render writes the HTML page
func (p Page) Render() ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NewRouter serves the page at GET /
func NewRouter(p Page) (*gin.Engine, error) {
	html, err := p.Render()
	if err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/", func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache")
		c.Data(http.StatusOK, "text/html; charset=utf-8", html)
	})
	return engine, nil
}
