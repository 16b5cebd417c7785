package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ssupport/internal/analytics"
	"ssupport/internal/bot"
	"ssupport/internal/config"
	"ssupport/internal/dashboard"
	"ssupport/internal/moderation"
	"ssupport/internal/modules/audit"
	"ssupport/internal/storage"
	"ssupport/internal/sweeps"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	store, err := storage.New(cfg.DataDir, logger)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}

	auditLogger := audit.NewLogger(logger)
	state := moderation.NewState(moderation.StateConfig{
		SpamWindow:   cfg.Moderation.SpamWindow(),
		SpamCooldown: cfg.Moderation.SpamWarnCooldown(),
	})
	analyticsService := analytics.New(store)

	botSvc, err := bot.New(cfg, logger, store, state, auditLogger, analyticsService)
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}
	if err := botSvc.Start(); err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	logger.Info("bot started")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	sweeps.New(cfg.Sweeps, store, state, botSvc.Platform(), auditLogger, logger).Start(ctx)

	var servers []*http.Server
	if cfg.Dashboard.Enabled {
		dash, err := dashboard.New(cfg.Dashboard, store, analyticsService, botSvc.Platform(), auditLogger, logger)
		if err != nil {
			logger.Fatal("dashboard init failed", zap.Error(err))
		}
		servers = append(servers, dash.Start())
	}

	if cfg.Health.Enabled {
		router := mux.NewRouter()
		router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		router.Handle("/metrics", promhttp.Handler())
		server := &http.Server{Addr: cfg.Health.Addr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
		servers = append(servers, server)
		go func() {
			logger.Info("health endpoint enabled", zap.String("addr", cfg.Health.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("health server error", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, server := range servers {
		_ = server.Shutdown(shutdownCtx)
	}
	botSvc.Close(shutdownCtx)
}
