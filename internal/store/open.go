package store

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"go.uber.org/multierr"

	"github.com/mmeshcher/monsterfusion-admin/internal/config"
	"github.com/mmeshcher/monsterfusion-admin/internal/model"
)

// Backend содержит открытую пару хранилищ и связанные ресурсы.
type Backend struct {
	Pair Pair
	// App содержит приложение Firebase основного проекта, nil для драйверов redis и memory.
	App *firebase.App

	closers []func() error
}

// Open создаёт пару хранилищ по выбранному в конфигурации драйверу.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverFirebase:
		return openFirebase(ctx, cfg)
	case config.DriverRedis:
		return openRedis(ctx, cfg)
	case config.DriverMemory:
		return &Backend{Pair: Pair{
			Primary:   NewMemoryStore(string(model.StorePrimary)),
			Secondary: NewMemoryStore(string(model.StoreSecondary)),
		}}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func openFirebase(ctx context.Context, cfg *config.Config) (*Backend, error) {
	primaryApp, err := NewFirebaseApp(ctx, cfg.PrimaryCredentialsFile, cfg.StorageBucket)
	if err != nil {
		return nil, fmt.Errorf("primary: %w", err)
	}
	secondaryApp, err := NewFirebaseApp(ctx, cfg.SecondaryCredentialsFile, "")
	if err != nil {
		return nil, fmt.Errorf("secondary: %w", err)
	}

	primary, err := NewFirebaseStore(ctx, string(model.StorePrimary), primaryApp, cfg.PrimaryDatabaseURL)
	if err != nil {
		return nil, err
	}
	secondary, err := NewFirebaseStore(ctx, string(model.StoreSecondary), secondaryApp, cfg.SecondaryDatabaseURL)
	if err != nil {
		return nil, err
	}

	return &Backend{
		Pair: Pair{Primary: primary, Secondary: secondary},
		App:  primaryApp,
	}, nil
}

func openRedis(ctx context.Context, cfg *config.Config) (*Backend, error) {
	primary, err := NewRedisStore(ctx, string(model.StorePrimary), cfg.RedisPrimaryURL)
	if err != nil {
		return nil, err
	}
	secondary, err := NewRedisStore(ctx, string(model.StoreSecondary), cfg.RedisSecondaryURL)
	if err != nil {
		_ = primary.Close()
		return nil, err
	}

	return &Backend{
		Pair:    Pair{Primary: primary, Secondary: secondary},
		closers: []func() error{primary.Close, secondary.Close},
	}, nil
}

// Close освобождает клиентов хранилищ.
func (b *Backend) Close() error {
	var err error
	for _, c := range b.closers {
		err = multierr.Append(err, c())
	}
	return err
}
