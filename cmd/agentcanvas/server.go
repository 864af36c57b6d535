// Copyright (c) AgentCanvas Authors.
// Licensed under the MIT License.

package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/agentcanvas/api"
	"github.com/BaSui01/agentcanvas/api/handlers"
	"github.com/BaSui01/agentcanvas/config"
	"github.com/BaSui01/agentcanvas/execsync"
	"github.com/BaSui01/agentcanvas/internal/database"
	"github.com/BaSui01/agentcanvas/internal/metrics"
	"github.com/BaSui01/agentcanvas/internal/server"
	"github.com/BaSui01/agentcanvas/persist"
)

// Server wires the document store, the execution-sync engine, and the
// HTTP surface together and owns their lifecycles.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	httpManager    *server.Manager
	metricsManager *server.Manager

	registry  *prometheus.Registry
	collector *metrics.Collector

	pool           *database.PoolManager
	store          *persist.GormStore
	redisClient    *redis.Client
	recentlyClosed execsync.TTLSet
	runtimeClient  *execsync.HTTPClient
	engine         *execsync.Engine
	eventHub       *handlers.EventHub

	pollCancel        context.CancelFunc
	rateLimiterCancel context.CancelFunc
}

// NewServer creates a server from loaded configuration.
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, logger: logger}
}

// Start brings up every component, then both listeners. It returns once
// the listeners are bound; serving continues in the background.
func (s *Server) Start() error {
	s.registry = prometheus.NewRegistry()
	s.collector = metrics.NewCollector("agentcanvas", s.registry, s.logger)

	if err := s.initStore(); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	s.initEngine()

	var g errgroup.Group
	g.Go(s.startHTTPServer)
	g.Go(s.startMetricsServer)
	if err := g.Wait(); err != nil {
		return err
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	s.pollCancel = cancel
	s.engine.StartPolling(pollCtx, s.cfg.Runtime.ProjectID)

	s.logger.Info("all servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.String("project_id", s.cfg.Runtime.ProjectID),
	)
	return nil
}

func (s *Server) initStore() error {
	db, err := database.Open(s.cfg.Database, s.logger)
	if err != nil {
		return err
	}

	s.pool, err = database.NewPoolManager(db, database.PoolConfig{
		MaxIdleConns:    s.cfg.Database.MaxIdleConns,
		MaxOpenConns:    s.cfg.Database.MaxOpenConns,
		ConnMaxLifetime: s.cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: database.DefaultPoolConfig().ConnMaxIdleTime,
	}, s.logger)
	if err != nil {
		return err
	}

	s.store, err = persist.NewGormStore(db, s.logger)
	return err
}

func (s *Server) initEngine() {
	s.runtimeClient = execsync.NewHTTPClient(execsync.HTTPClientConfig{
		BaseURL:       s.cfg.Runtime.BaseURL,
		APIKey:        s.cfg.Runtime.APIKey,
		Timeout:       s.cfg.Runtime.Timeout,
		PollRateLimit: s.cfg.Runtime.PollRateLimit,
	}, s.logger)

	if s.cfg.Redis.Enabled {
		s.redisClient = redis.NewClient(&redis.Options{
			Addr:     s.cfg.Redis.Addr,
			Password: s.cfg.Redis.Password,
			DB:       s.cfg.Redis.DB,
		})
		s.recentlyClosed = execsync.NewRedisTTLSet(s.redisClient, "agentcanvas", s.cfg.Sync.RecentlyClosedTTL)
		s.logger.Info("recently-closed set backed by redis", zap.String("addr", s.cfg.Redis.Addr))
	} else {
		s.recentlyClosed = execsync.NewMemoryTTLSet(s.cfg.Sync.RecentlyClosedTTL)
	}

	s.engine = execsync.NewEngine(s.runtimeClient, s.recentlyClosed, execsync.Config{
		PollInterval:      s.cfg.Sync.PollInterval,
		RecentlyClosedTTL: s.cfg.Sync.RecentlyClosedTTL,
		Monitor: execsync.MonitorConfig{
			Interval:    s.cfg.Sync.MonitorInterval,
			MaxAttempts: s.cfg.Sync.MonitorMaxAttempts,
		},
	}, s.logger, s.collector)

	s.eventHub = handlers.NewEventHub(s.logger)
	s.eventHub.BindEngine(s.engine)
}

func (s *Server) startHTTPServer() error {
	healthHandler := handlers.NewHealthHandler(s.logger)
	healthHandler.RegisterCheck(handlers.HealthCheckFunc{
		CheckName: "database",
		Fn:        s.pool.Ping,
	})

	mux := api.NewRouter(api.Handlers{
		Workflow:  handlers.NewWorkflowHandler(s.store, s.logger),
		Execution: handlers.NewExecutionHandler(s.engine, s.runtimeClient, s.logger),
		Events:    s.eventHub,
		Health:    healthHandler,
	})
	mux.HandleFunc("GET /version", healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	skipAuthPaths := []string{"/health", "/healthz", "/ready", "/version"}
	rateLimiterCtx, cancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = cancel

	middlewares := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		OTelTracing(),
		Metrics(s.collector),
		CORS(s.cfg.Server.CORSAllowedOrigins),
		RateLimiter(rateLimiterCtx, float64(s.cfg.Server.RateLimitRPS), s.cfg.Server.RateLimitBurst, s.logger),
	}
	if s.cfg.Auth.Enabled {
		middlewares = append(middlewares, JWTAuth(s.cfg.Auth.JWTSecret, skipAuthPaths, s.logger))
	}
	handler := Chain(mux, middlewares...)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}
	s.httpManager = server.NewManager(handler, serverConfig, s.logger)
	return s.httpManager.Start()
}

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}
	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)
	return s.metricsManager.Start()
}

// WaitForShutdown blocks until a termination signal or a server error,
// then shuts everything down.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown stops polling, closes both listeners, and releases the store.
func (s *Server) Shutdown() {
	s.logger.Info("starting graceful shutdown")
	ctx := context.Background()

	if s.pollCancel != nil {
		s.pollCancel()
	}
	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}
	if s.engine != nil {
		s.engine.Close()
	}
	if s.recentlyClosed != nil {
		if err := s.recentlyClosed.Close(); err != nil {
			s.logger.Error("recently-closed set close error", zap.Error(err))
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("redis close error", zap.Error(err))
		}
	}
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("http server shutdown error", zap.Error(err))
		}
	}
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("metrics server shutdown error", zap.Error(err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("store close error", zap.Error(err))
		}
	}

	s.logger.Info("shutdown complete")
}
