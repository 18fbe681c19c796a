// Package config содержит логику чтения конфигурации админ-панели.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

const (
	// DriverFirebase работает с двумя базами Firebase Realtime Database.
	DriverFirebase = "firebase"
	// DriverRedis работает с двумя экземплярами Redis (стенды).
	DriverRedis = "redis"
	// DriverMemory держит хранилища в памяти процесса.
	DriverMemory = "memory"

	// BanScopeSelected: блокировка пишется только в выбранное хранилище.
	BanScopeSelected = "selected"
	// BanScopeBoth: блокировка пишется в оба хранилища одновременно.
	BanScopeBoth = "both"
)

const (
	defaultRunAddress   = "localhost:8080"
	defaultPrimaryURL   = "https://monsterfusion-c0e4e-default-rtdb.firebaseio.com"
	defaultSecondaryURL = "https://monster-fusion-ios-default-rtdb.firebaseio.com"
)

// Config содержит параметры конфигурации админ-панели.
type Config struct {
	RunAddress               string `env:"RUN_ADDRESS"`
	StoreDriver              string `env:"STORE_DRIVER"`
	PrimaryDatabaseURL       string `env:"PRIMARY_DATABASE_URL"`
	SecondaryDatabaseURL     string `env:"SECONDARY_DATABASE_URL"`
	PrimaryCredentialsFile   string `env:"PRIMARY_CREDENTIALS_FILE"`
	SecondaryCredentialsFile string `env:"SECONDARY_CREDENTIALS_FILE"`
	StorageBucket            string `env:"STORAGE_BUCKET"`
	RedisPrimaryURL          string `env:"REDIS_PRIMARY_URL"`
	RedisSecondaryURL        string `env:"REDIS_SECONDARY_URL"`
	DatabaseURI              string `env:"DATABASE_URI"`
	BanScope                 string `env:"BAN_SCOPE"`
	ReconcileSchedule        string `env:"RECONCILE_SCHEDULE"`
	AdminPassword            string `env:"ADMIN_PASSWORD"`
	SessionSecret            string `env:"SESSION_SECRET"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fromEnv := *cfg

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.StoreDriver, "store", DriverFirebase, "store driver: firebase, redis or memory")
	flag.StringVar(&cfg.PrimaryDatabaseURL, "p", defaultPrimaryURL, "primary (Android) realtime database URL")
	flag.StringVar(&cfg.SecondaryDatabaseURL, "s", defaultSecondaryURL, "secondary (iOS) realtime database URL")
	flag.StringVar(&cfg.PrimaryCredentialsFile, "c", "", "service account file for the primary project")
	flag.StringVar(&cfg.SecondaryCredentialsFile, "c2", "", "service account file for the secondary project")
	flag.StringVar(&cfg.StorageBucket, "b", "", "storage bucket for the file manager")
	flag.StringVar(&cfg.RedisPrimaryURL, "redis-primary", "", "redis URL for the primary store")
	flag.StringVar(&cfg.RedisSecondaryURL, "redis-secondary", "", "redis URL for the secondary store")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "divergence journal database URI")
	flag.StringVar(&cfg.BanScope, "ban", BanScopeSelected, "ban scope: selected or both")
	flag.StringVar(&cfg.ReconcileSchedule, "r", "", "cron schedule for store reconciliation")

	flag.Parse()

	override(&cfg.RunAddress, fromEnv.RunAddress)
	override(&cfg.StoreDriver, fromEnv.StoreDriver)
	override(&cfg.PrimaryDatabaseURL, fromEnv.PrimaryDatabaseURL)
	override(&cfg.SecondaryDatabaseURL, fromEnv.SecondaryDatabaseURL)
	override(&cfg.PrimaryCredentialsFile, fromEnv.PrimaryCredentialsFile)
	override(&cfg.SecondaryCredentialsFile, fromEnv.SecondaryCredentialsFile)
	override(&cfg.StorageBucket, fromEnv.StorageBucket)
	override(&cfg.RedisPrimaryURL, fromEnv.RedisPrimaryURL)
	override(&cfg.RedisSecondaryURL, fromEnv.RedisSecondaryURL)
	override(&cfg.DatabaseURI, fromEnv.DatabaseURI)
	override(&cfg.BanScope, fromEnv.BanScope)
	override(&cfg.ReconcileSchedule, fromEnv.ReconcileSchedule)

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.SecondaryCredentialsFile == "" {
		cfg.SecondaryCredentialsFile = cfg.PrimaryCredentialsFile
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func override(dst *string, envValue string) {
	if envValue != "" {
		*dst = envValue
	}
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverFirebase:
		if c.PrimaryDatabaseURL == "" || c.SecondaryDatabaseURL == "" {
			return fmt.Errorf("firebase driver requires both database URLs")
		}
	case DriverRedis:
		if c.RedisPrimaryURL == "" || c.RedisSecondaryURL == "" {
			return fmt.Errorf("redis driver requires both redis URLs")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}

	switch c.BanScope {
	case BanScopeSelected, BanScopeBoth:
	default:
		return fmt.Errorf("unknown ban scope %q", c.BanScope)
	}

	return nil
}
