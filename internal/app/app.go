// Package app собирает сервис админ-панели из конфигурации.
package app

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mmeshcher/monsterfusion-admin/internal/config"
	"github.com/mmeshcher/monsterfusion-admin/internal/filestore"
	"github.com/mmeshcher/monsterfusion-admin/internal/journal"
	"github.com/mmeshcher/monsterfusion-admin/internal/repository"
	"github.com/mmeshcher/monsterfusion-admin/internal/service"
	"github.com/mmeshcher/monsterfusion-admin/internal/store"
)

// App хранит собранный сервис и ресурсы, которые нужно закрыть при остановке.
type App struct {
	Service *service.Service
	Backend *store.Backend
}

// New открывает хранилища, журнал расхождений и файловое хранилище и собирает сервис.
// Журнал подключается только при заданном DATABASE_URI, файлы при заданном бакете
// или драйвере memory.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	backend, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open stores: %w", err)
	}

	var opts []service.Option

	if cfg.DatabaseURI != "" {
		j, err := journal.NewPostgres(cfg.DatabaseURI)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("open journal: %w", err), backend.Close())
		}
		opts = append(opts, service.WithJournal(j))
	} else {
		logger.Info("divergence journal disabled: DATABASE_URI is empty")
	}

	switch {
	case cfg.StoreDriver == config.DriverMemory:
		opts = append(opts, service.WithFiles(filestore.NewMemory()))
	case backend.App != nil && cfg.StorageBucket != "":
		bucket, err := filestore.NewBucket(ctx, backend.App)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("open storage bucket: %w", err), backend.Close())
		}
		opts = append(opts, service.WithFiles(bucket))
	default:
		logger.Info("file storage disabled: STORAGE_BUCKET is empty")
	}

	codes := repository.NewGiftCodes(backend.Pair, repository.WithLogger(logger))
	users := repository.NewUsers(backend.Pair, repository.BanScope(cfg.BanScope))

	logger.Info("stores opened",
		zap.String("driver", cfg.StoreDriver),
		zap.String("banScope", string(users.Scope())),
	)

	return &App{
		Service: service.NewService(codes, users, logger, opts...),
		Backend: backend,
	}, nil
}

// Close закрывает сервис и хранилища.
func (a *App) Close() error {
	return multierr.Combine(a.Service.Close(), a.Backend.Close())
}
