// Package journal содержит журнал расхождений между хранилищами в PostgreSQL.
package journal

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/monsterfusion-admin/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrDivergenceNotFound возвращается, если открытое расхождение с таким id не найдено.
var ErrDivergenceNotFound = errors.New("divergence not found")

// Postgres хранит журнал расхождений в PostgreSQL.
type Postgres struct {
	pool   *pgxpool.Pool
	delays []time.Duration
}

// NewPostgres подключается к БД и применяет миграции.
func NewPostgres(dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	j := &Postgres{
		pool:   pool,
		delays: []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second},
	}

	if err := j.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return j, nil
}

func (j *Postgres) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(j.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (j *Postgres) withRetry(ctx context.Context, fn func() error) error {
	var err error

	for i := 0; i <= len(j.delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if !isRetryable(err) || i == len(j.delays) {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(j.delays[i]):
		}
	}
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (j *Postgres) Close() error {
	j.pool.Close()
	return nil
}

// Record сохраняет расхождение. Повторная запись уже открытого расхождения обновляет его описание и время.
func (j *Postgres) Record(ctx context.Context, d model.Divergence) (int64, error) {
	if d.DetectedAt.IsZero() {
		d.DetectedAt = time.Now().UTC()
	}

	var id int64
	err := j.withRetry(ctx, func() error {
		return j.pool.QueryRow(ctx,
			`INSERT INTO divergences (collection, key, kind, detail, detected_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (collection, key, kind) WHERE resolved_at IS NULL
			 DO UPDATE SET detail = EXCLUDED.detail, detected_at = EXCLUDED.detected_at
			 RETURNING id`,
			d.Collection, d.Key, string(d.Kind), d.Detail, d.DetectedAt,
		).Scan(&id)
	})
	if err != nil {
		return 0, fmt.Errorf("record divergence: %w", err)
	}
	return id, nil
}

// ListOpen возвращает нерешённые расхождения, новые первыми.
func (j *Postgres) ListOpen(ctx context.Context, limit int) ([]model.Divergence, error) {
	rows, err := j.pool.Query(ctx,
		`SELECT id, collection, key, kind, detail, detected_at
		 FROM divergences
		 WHERE resolved_at IS NULL
		 ORDER BY detected_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select divergences: %w", err)
	}
	defer rows.Close()

	res := make([]model.Divergence, 0)
	for rows.Next() {
		var (
			d    model.Divergence
			kind string
		)
		if err := rows.Scan(&d.ID, &d.Collection, &d.Key, &kind, &d.Detail, &d.DetectedAt); err != nil {
			return nil, fmt.Errorf("scan divergence: %w", err)
		}
		d.Kind = model.DivergenceKind(kind)
		res = append(res, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// Resolve закрывает расхождение вручную.
func (j *Postgres) Resolve(ctx context.Context, id int64) error {
	tag, err := j.pool.Exec(ctx,
		`UPDATE divergences SET resolved_at = now() WHERE id = $1 AND resolved_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("resolve divergence: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrDivergenceNotFound, id)
	}
	return nil
}

// ResolveExcept закрывает открытые расхождения коллекции, ключей которых нет в still.
// Вызывается после сверки: всё, что сверка больше не видит, считается устранённым.
func (j *Postgres) ResolveExcept(ctx context.Context, collection string, still []string) (int64, error) {
	if still == nil {
		still = []string{}
	}

	var affected int64
	err := j.withRetry(ctx, func() error {
		tag, err := j.pool.Exec(ctx,
			`UPDATE divergences SET resolved_at = now()
			 WHERE collection = $1 AND resolved_at IS NULL AND NOT (key = ANY($2))`,
			collection, still,
		)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("resolve divergences: %w", err)
	}
	return affected, nil
}
