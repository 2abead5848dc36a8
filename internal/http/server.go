// Package http provides the HTTP API for answerd.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/luminara-ai/answerd/internal/answer"
	"github.com/luminara-ai/answerd/internal/ingest"
)

// Answerer answers questions against the knowledge base.
type Answerer interface {
	Ask(ctx context.Context, question string) (*answer.Response, error)
}

// Ingester runs ingestion passes over the document directory.
type Ingester interface {
	IngestAll(ctx context.Context) (*ingest.Summary, error)
	ReingestAll(ctx context.Context) (*ingest.Summary, error)
}

// Server provides HTTP endpoints for answerd.
type Server struct {
	echo     *echo.Echo
	answerer Answerer
	ingester Ingester
	logger   *zap.Logger
	addr     string
}

// NewServer creates the HTTP server.
func NewServer(addr string, answerer Answerer, ingester Ingester, logger *zap.Logger) (*Server, error) {
	if answerer == nil {
		return nil, errors.New("answerer cannot be nil")
	}
	if ingester == nil {
		return nil, errors.New("ingester cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if addr == "" {
		addr = ":8080"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(NewHTTPMetrics(logger).Middleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:     e,
		answerer: answerer,
		ingester: ingester,
		logger:   logger,
		addr:     addr,
	}

	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/ask", s.handleAsk)
	v1.POST("/ingest", s.handleIngest)
	v1.POST("/reingest", s.handleReingest)
}

// AskRequest is the request body for POST /api/v1/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleAsk answers a question. Guardrail rejections are successful
// responses with the blocked payload; pipeline failures are opaque 500s.
func (s *Server) handleAsk(c echo.Context) error {
	var req AskRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid ask request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Question == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question field is required")
	}

	resp, err := s.answerer.Ask(c.Request().Context(), req.Question)
	if err != nil {
		s.logger.Error("answer pipeline failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to answer question")
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleIngest(c echo.Context) error {
	return s.runIngestion(c, s.ingester.IngestAll)
}

func (s *Server) handleReingest(c echo.Context) error {
	return s.runIngestion(c, s.ingester.ReingestAll)
}

func (s *Server) runIngestion(c echo.Context, run func(context.Context) (*ingest.Summary, error)) error {
	summary, err := run(c.Request().Context())
	if err != nil {
		s.logger.Error("ingestion run failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "ingestion failed")
	}

	return c.JSON(http.StatusOK, summary)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting http server", zap.String("addr", s.addr))
	return s.echo.Start(s.addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
