// Package web serves the browser front: the upload form, the rendered report
// pages and the download endpoints.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pharma-guard/pharmaguard/internal/archive"
	"github.com/pharma-guard/pharmaguard/internal/domain"
	"github.com/pharma-guard/pharmaguard/internal/middleware"
	"github.com/pharma-guard/pharmaguard/internal/render"
	"github.com/pharma-guard/pharmaguard/internal/validator"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Version is reported by the local health endpoint.
var Version = "1.0.0"

// Dependencies are the collaborators the server dispatches to.
type Dependencies struct {
	Analyzer  domain.Analyzer
	Catalog   domain.CatalogSource
	Store     archive.Store
	Validator *validator.Validator
	Logger    *logrus.Logger
}

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	router        *gin.Engine
	server        *http.Server

	analyzer  domain.Analyzer
	catalog   domain.CatalogSource
	store     archive.Store
	validator *validator.Validator
	logger    *logrus.Logger
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, deps Dependencies) (*Server, error) {
	cfg := configManager.GetConfig()

	if deps.Store == nil {
		return nil, fmt.Errorf("report store is required")
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = logrus.New()
	}

	// Set Gin mode based on environment
	switch {
	case gin.Mode() == gin.TestMode:
	case configManager.IsProduction():
		gin.SetMode(gin.ReleaseMode)
	case configManager.IsDevelopment() && cfg.Logging.Level == "debug":
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	tmpl, err := template.New("").Funcs(render.FuncMap()).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("loading static assets: %w", err)
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.Server.MaxUploadBytes
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.AuditLogger(deps.Logger))

	router.StaticFS("/static", http.FS(static))

	server := &Server{
		configManager: configManager,
		router:        router,
		analyzer:      deps.Analyzer,
		catalog:       deps.Catalog,
		store:         deps.Store,
		validator:     deps.Validator,
		logger:        deps.Logger,
	}

	// Setup routes
	server.setupRoutes()

	return server, nil
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithFields(logrus.Fields{
			"addr":    addr,
			"backend": s.configManager.GetAPIConfig().BaseURL,
		}).Info("PharmaGuard web front listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start server: %w", err)
		}
		close(errCh)
	}()

	// Wait for context cancellation
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the routes
func (s *Server) setupRoutes() {
	cfg := s.configManager.GetConfig()

	s.router.GET("/", s.handleIndex)

	analyze := []gin.HandlerFunc{}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewClientLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, 0)
		analyze = append(analyze, middleware.RateLimit(limiter, s.handleRateLimited))
	}
	analyze = append(analyze, s.handleAnalyze)
	s.router.POST("/analyze", analyze...)

	reports := s.router.Group("/reports")
	{
		reports.GET("", s.handleListReports)
		reports.GET("/:id", s.handleGetReport)
		reports.GET("/:id/download", s.handleDownloadJSON)
		reports.GET("/:id/xlsx", s.handleDownloadXLSX)
	}

	api := s.router.Group("/api")
	{
		api.GET("/drugs", s.handleDrugs)
		api.GET("/genes", s.handleGenes)
	}

	s.router.GET("/health", s.handleHealth)
}
