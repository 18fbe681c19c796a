// Package main запускает HTTP-сервер админ-панели Monster Fusion.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/monsterfusion-admin/internal/app"
	"github.com/mmeshcher/monsterfusion-admin/internal/config"
	"github.com/mmeshcher/monsterfusion-admin/internal/handler"
	"github.com/mmeshcher/monsterfusion-admin/internal/middleware"
)

func init() {
	// для локальной разработки
	//nolint:errcheck
	godotenv.Load()
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		sugar.Fatalw("initialization error", "error", err.Error())
	}
	defer a.Close()

	authMiddleware := middleware.NewAuthMiddleware(cfg.SessionSecret, cfg.AdminPassword)
	if !authMiddleware.Enabled() {
		sugar.Warn("ADMIN_PASSWORD is empty, admin API is not protected")
	}
	h := handler.NewHandler(a.Service, logger, authMiddleware)

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: h.SetupRouter(),
	}

	g, ctx := errgroup.WithContext(ctx)

	// Плановая сверка хранилищ
	if cfg.ReconcileSchedule != "" {
		c := cron.New()
		_, err := c.AddFunc(cfg.ReconcileSchedule, func() {
			if _, err := a.Service.Reconcile(ctx); err != nil {
				sugar.Errorw("scheduled reconcile failed", "error", err)
			}
		})
		if err != nil {
			sugar.Fatalw("invalid reconcile schedule", "schedule", cfg.ReconcileSchedule, "error", err)
		}

		g.Go(func() error {
			sugar.Infow("starting reconcile scheduler", "schedule", cfg.ReconcileSchedule)
			c.Start()
			<-ctx.Done()
			<-c.Stop().Done()
			return nil
		})
	}

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting admin server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
