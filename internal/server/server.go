package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"phishguard/internal/classifier"
	"phishguard/internal/config"
	"phishguard/internal/handler"
	"phishguard/internal/repository"
	"phishguard/internal/service"
)

type Server struct {
	router   *gin.Engine
	http     *http.Server
	store    *repository.Store
	cfg      *config.Config
	clf      classifier.Classifier
	notifier service.Notifier
	uploader service.Uploader
	log      *zap.Logger
}

// NewServer wires repositories, services and handlers onto a gin
// router. notifier and uploader may be nil when those integrations are
// disabled.
func NewServer(store *repository.Store, cfg *config.Config, clf classifier.Classifier, notifier service.Notifier, uploader service.Uploader, log *zap.Logger) *Server {
	router := gin.Default()

	s := &Server{
		router:   router,
		store:    store,
		cfg:      cfg,
		clf:      clf,
		notifier: notifier,
		uploader: uploader,
		log:      log,
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	scanRepo := repository.NewScanRepository(s.store, s.log)
	statsRepo := repository.NewStatsRepository(s.store, s.log)
	metricsRepo := repository.NewMetricsRepository(s.store, s.log)
	analyticsRepo := repository.NewAnalyticsRepository(s.store, s.log)
	lifecycleRepo := repository.NewLifecycleRepository(s.store, s.log)

	scanService := service.NewScanService(scanRepo, s.clf, s.notifier, s.log)
	feedbackService := service.NewFeedbackService(scanRepo, s.log)
	analyticsService := service.NewAnalyticsService(analyticsRepo, statsRepo, metricsRepo, s.cfg.Model.Version, s.log)
	lifecycleService := service.NewLifecycleService(lifecycleRepo, s.uploader, s.log)

	scanHandler := handler.NewScanHandler(scanService, s.log)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService, s.log)
	statisticsHandler := handler.NewStatisticsHandler(statsRepo, s.log)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService, s.log)
	adminHandler := handler.NewAdminHandler(lifecycleService, s.cfg.Retention, "exports", s.log)

	s.router.GET("/health", s.health)

	api := s.router.Group("/api")
	{
		api.POST("/scan", scanHandler.Scan)
		api.GET("/history", scanHandler.History)
		api.GET("/duplicates", scanHandler.Duplicates)
		api.POST("/feedback", feedbackHandler.Submit)
		api.GET("/statistics/:user_id", statisticsHandler.GetByUser)
	}

	analytics := s.router.Group("/api/analytics")
	{
		analytics.GET("/dashboard", analyticsHandler.Dashboard)
		analytics.GET("/trends", analyticsHandler.Trends)
		analytics.GET("/volume", analyticsHandler.Volume)
		analytics.GET("/histogram", analyticsHandler.Histogram)
		analytics.GET("/top-users", analyticsHandler.TopUsers)
		analytics.GET("/accuracy", analyticsHandler.Accuracy)
		analytics.GET("/metrics", analyticsHandler.DailyMetrics)
	}

	admin := s.router.Group("/api/admin")
	{
		admin.POST("/retention/cleanup", adminHandler.Cleanup)
		admin.POST("/retention/anonymize", adminHandler.Anonymize)
		admin.POST("/export", adminHandler.Export)
	}
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.DB().PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "down",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"database":      "up",
		"model_version": s.cfg.Model.Version,
		"timestamp":     time.Now().UTC(),
	})
}

// Run blocks serving HTTP until the listener fails or Shutdown is
// called.
func (s *Server) Run(addr string) error {
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	s.log.Info("Server starting", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
