// Package api exposes the decision pipeline to the presentation layer over
// HTTP.
package api

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/gmsas95/quitcoach/internal/coach"
	"github.com/gmsas95/quitcoach/internal/config"
	"github.com/gmsas95/quitcoach/internal/metrics"
	"github.com/gmsas95/quitcoach/internal/scheduler"
	"github.com/gmsas95/quitcoach/internal/store"
)

// Server handles the HTTP API
type Server struct {
	app     *fiber.App
	config  *config.Config
	store   *store.Store
	coach   *coach.Coach
	sched   *scheduler.Scheduler
	logger  *zap.Logger
	metrics *metrics.Metrics

	decideLimiter *rate.Limiter
}

// New creates the API server
func New(cfg *config.Config, st *store.Store, c *coach.Coach, sched *scheduler.Scheduler, m *metrics.Metrics, log *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	})

	rpm := cfg.Server.DecideRPM
	if rpm <= 0 {
		rpm = 30
	}

	s := &Server{
		app:           app,
		config:        cfg,
		store:         st,
		coach:         c,
		sched:         sched,
		logger:        log,
		metrics:       m,
		decideLimiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	s.app.Get("/healthz", s.handleHealth)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(
		s.metrics.Registry(), promhttp.HandlerOpts{},
	)))

	v1 := s.app.Group("/api/v1")

	v1.Post("/decide", s.rateLimitDecide, s.handleDecide)
	v1.Get("/features", s.handleFeatures)
	v1.Get("/insights", s.handleInsights)
	v1.Post("/analyze", s.handleAnalyze)

	v1.Get("/events", s.handleListEvents)
	v1.Post("/events", s.handleCreateEvent)
	v1.Delete("/events/:id", s.handleDeleteEvent)

	v1.Get("/tags", s.handleListTags)
	v1.Delete("/tags/:id", s.handleDeleteTag)

	v1.Get("/profile", s.handleGetProfile)
	v1.Put("/profile", s.handleUpdateProfile)

	v1.Get("/scheduler/config", s.handleGetSchedulerConfig)
	v1.Put("/scheduler/config", s.handleUpdateSchedulerConfig)
}

// rateLimitDecide guards the pipeline against tight polling loops.
func (s *Server) rateLimitDecide(c *fiber.Ctx) error {
	if !s.decideLimiter.Allow() {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "decide rate limit exceeded",
		})
	}
	return c.Next()
}

// Start begins listening
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Address, s.config.Server.Port)
	s.logger.Info("API server starting", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
