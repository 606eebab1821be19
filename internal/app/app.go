package app

import (
	"context"
	"currency-widget/internal/chart"
	"currency-widget/internal/config"
	"currency-widget/internal/country"
	"currency-widget/internal/handler"
	"currency-widget/internal/metrics"
	"currency-widget/internal/middleware"
	"currency-widget/internal/service"
	"currency-widget/internal/session"
	"currency-widget/internal/widget"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Application struct {
	config   *config.Config
	router   *gin.Engine
	logger   *zap.Logger
	registry *prometheus.Registry
	server   *http.Server
}

func New(cfg *config.Config) *Application {
	logger := initLogger(&cfg.Logging)
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	return newApplication(cfg, logger)
}

func newApplication(cfg *config.Config, logger *zap.Logger) *Application {
	if cfg.API.ExchangeAPIKey == "" {
		// Not fatal: conversions will fail at request time with the provider's error.
		logger.Warn("EXCHANGE_API_KEY is not set")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	countries := country.Default
	currencyService := service.NewCurrencyService(cfg.API, m, logger)
	sessions := session.NewRegistry(cfg.Session.TTL, cfg.Session.MaxSessions, func() *widget.Widget {
		return widget.New(countries, currencyService, m, logger)
	}, m, logger)
	renderer := chart.NewHistoryRenderer(cfg.Chart.HistoryURL, cfg.Chart.Days)

	app := &Application{
		config:   cfg,
		router:   gin.New(),
		logger:   logger,
		registry: registry,
	}
	app.setupMiddleware()
	app.setupRouter(
		handler.NewCurrencyHandler(currencyService, countries, m, logger),
		handler.NewWidgetHandler(sessions, countries, renderer, logger),
	)
	logger.Info("Application initialized",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.Int("countries", len(countries)),
	)
	return app
}

func initLogger(cfg *config.LoggingConfig) *zap.Logger {
	var logger *zap.Logger
	var err error
	if cfg.Format == "json" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	switch cfg.Level {
	case "debug":
		logger = logger.WithOptions(zap.IncreaseLevel(zap.DebugLevel))
	case "info":
		logger = logger.WithOptions(zap.IncreaseLevel(zap.InfoLevel))
	case "warn":
		logger = logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel))
	case "error":
		logger = logger.WithOptions(zap.IncreaseLevel(zap.ErrorLevel))
	}
	return logger
}

func (a *Application) setupMiddleware() {
	a.router.Use(middleware.RecoveryMiddleware(a.logger))
	a.router.Use(middleware.LoggingMiddleware(a.logger))
	a.router.Use(middleware.CORSMiddleware(a.config.CORS.AllowOrigins))
}

func (a *Application) setupRouter(currencyHandler *handler.CurrencyHandler, widgetHandler *handler.WidgetHandler) {
	a.router.GET("/health", handler.HealthCheck)
	a.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	apiV1 := a.router.Group("/api/v1")
	apiV1.GET("/countries", currencyHandler.Countries)
	apiV1.GET("/convert", currencyHandler.Convert)

	widgets := apiV1.Group("/widgets")
	widgets.POST("", widgetHandler.Create)
	widgets.GET("/:id", widgetHandler.Get)
	widgets.DELETE("/:id", widgetHandler.Delete)
	widgets.PUT("/:id/amount", widgetHandler.SetAmount)
	widgets.PUT("/:id/from", widgetHandler.SetFrom)
	widgets.PUT("/:id/to", widgetHandler.SetTo)
	widgets.POST("/:id/convert", widgetHandler.Convert)
	widgets.POST("/:id/swap", widgetHandler.Swap)
	widgets.POST("/:id/chart", widgetHandler.ToggleChart)

	if dir := a.config.Frontend.Dir; dir != "" {
		a.router.Static("/ui", dir)
		a.router.StaticFile("/", filepath.Join(dir, "index.html"))
	}
}

// Handler exposes the router, mainly for tests.
func (a *Application) Handler() http.Handler {
	return a.router
}

func (a *Application) Run() error {
	a.server = &http.Server{
		Addr:         a.config.Server.Addr(),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}
	defer a.logger.Sync() //nolint:errcheck

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("Server starting",
			zap.String("address", a.server.Addr),
			zap.String("mode", a.config.Server.Mode),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)

	case sig := <-quit:
		a.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		a.logger.Info("Server stopped gracefully")
		return nil
	}
}
