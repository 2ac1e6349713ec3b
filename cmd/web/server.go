package main

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kusy2009/Codelist-Genius/internal/cli"
	"github.com/kusy2009/Codelist-Genius/internal/store"
)

//go:embed templates/*.html
var templates embed.FS

const emptyQueryMessage = "Please provide a query about CDISC codelists."

// HistoryLister lists recently processed queries.
type HistoryLister interface {
	ListRecentQueries(ctx context.Context, limit int) ([]store.QueryRecord, error)
}

type server struct {
	assistant cli.QueryProcessor
	history   HistoryLister
	logger    *zap.Logger
}

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	Response string `json:"response"`
	QueryID  string `json:"query_id,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
}

func newRouter(asst cli.QueryProcessor, history HistoryLister, log *zap.Logger) (*gin.Engine, error) {
	tmpl, err := template.ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &server{assistant: asst, history: history, logger: log}

	r := gin.New()
	r.Use(requestLogger(log))
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())
	r.SetHTMLTemplate(tmpl)

	r.GET("/", s.handleIndex)
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/query", s.handleQuery)
	r.GET("/history", s.handleHistory)

	return r, nil
}

// serve runs the HTTP server until ctx is cancelled, then shuts it down.
func serve(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// corsMiddleware adds CORS headers for cross-origin requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

func (s *server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{"Title": "CDISC AI Assistant"})
}

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		c.JSON(http.StatusOK, queryResponse{Response: emptyQueryMessage})
		return
	}

	res := s.assistant.Process(c.Request.Context(), query)
	c.JSON(http.StatusOK, queryResponse{
		Response: res.Text,
		QueryID:  res.ID,
		Outcome:  string(res.Outcome),
	})
}

func (s *server) handleHistory(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	records, err := s.history.ListRecentQueries(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list history"})
		return
	}
	if records == nil {
		records = []store.QueryRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"queries": records})
}
