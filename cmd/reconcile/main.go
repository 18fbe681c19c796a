// Package main выполняет однократную сверку коллекций кодов двух хранилищ
// и завершается с кодом 1, если найдены расхождения.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mmeshcher/monsterfusion-admin/internal/app"
	"github.com/mmeshcher/monsterfusion-admin/internal/config"
)

func init() {
	//nolint:errcheck
	godotenv.Load()
}

func main() {
	logger, _ := zap.NewProduction()

	consistent, err := run(logger)
	if err != nil {
		logger.Error("reconcile failed", zap.Error(err))
	}
	_ = logger.Sync()

	if err != nil || !consistent {
		os.Exit(1)
	}
}

func run(logger *zap.Logger) (bool, error) {
	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		return false, fmt.Errorf("configuration error: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return false, fmt.Errorf("initialization error: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			sugar.Warnw("close error", "error", err)
		}
	}()

	report, err := a.Service.Reconcile(ctx)
	if err != nil {
		return false, err
	}

	sugar.Infow("reconcile finished",
		"checked", report.Checked,
		"primaryOnly", report.PrimaryOnly,
		"secondaryOnly", report.SecondaryOnly,
		"mismatched", report.Mismatched,
	)
	return report.Consistent(), nil
}
