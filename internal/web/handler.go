// Package web serves the keyword form and the generated post view.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FranksOps/seoscribe/internal/pipeline"
	"github.com/FranksOps/seoscribe/internal/render"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Generator runs one generation.
type Generator interface {
	Run(ctx context.Context, keyword, trigger string) pipeline.Result
}

// Config configures the handler.
type Config struct {
	// RenderMarkdown converts drafts from Markdown before display.
	RenderMarkdown bool
}

// Handler serves the generator UI.
type Handler struct {
	gen    Generator
	cfg    Config
	logger *slog.Logger
}

// NewHandler creates a handler.
func NewHandler(gen Generator, cfg Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{gen: gen, cfg: cfg, logger: logger}
}

type indexView struct {
	Keyword string
	Notice  string
}

type postView struct {
	Keyword string
	Post    template.HTML
}

// Index renders the empty form.
func (h *Handler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", indexView{})
}

// Generate runs the pipeline for the submitted keyword and renders the
// draft. An empty keyword re-renders the form; any other value, whitespace
// included, is passed on verbatim.
func (h *Handler) Generate(c *gin.Context) {
	keyword := c.PostForm("keyword")
	if keyword == "" {
		c.HTML(http.StatusOK, "index.html", indexView{})
		return
	}

	res := h.gen.Run(c.Request.Context(), keyword, pipeline.TriggerWeb)
	if !res.OK() {
		c.HTML(http.StatusBadGateway, "index.html", indexView{
			Keyword: keyword,
			Notice:  notice(res.Failure.Kind),
		})
		return
	}

	post := res.Draft
	if h.cfg.RenderMarkdown {
		html, err := render.MarkdownToHTML(post)
		if err != nil {
			h.logger.Warn("markdown rendering failed, showing raw draft", "keyword", keyword, "err", err)
		} else {
			post = html
		}
	}

	// Drafts are model output shown to the operator who requested them.
	c.HTML(http.StatusOK, "post.html", postView{
		Keyword: keyword,
		Post:    template.HTML(post),
	})
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func notice(kind pipeline.FailureKind) string {
	switch kind {
	case pipeline.FailureSearch:
		return "Search research failed. Please try again later."
	case pipeline.FailureGeneration:
		return "The content generator failed. Please try again later."
	case pipeline.FailureCanceled:
		return "The request was canceled before the post was ready."
	default:
		return fmt.Sprintf("Generation failed (%s).", kind)
	}
}

// NewRouter builds the gin engine serving h.
func NewRouter(h *Handler, logger *slog.Logger) (*gin.Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.SetHTMLTemplate(tmpl)

	router.GET("/", h.Index)
	router.POST("/", h.Generate)
	router.GET("/healthz", h.Healthz)

	return router, nil
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP())
	}
}
