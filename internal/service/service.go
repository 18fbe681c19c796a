// Package service реализует бизнес-логику админ-панели Monster Fusion.
package service

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mmeshcher/monsterfusion-admin/internal/filestore"
	"github.com/mmeshcher/monsterfusion-admin/internal/model"
)

var (
	// ErrFilesDisabled возвращается, если файловое хранилище не настроено.
	ErrFilesDisabled = errors.New("file storage is not configured")
	// ErrJournalDisabled возвращается, если журнал расхождений не настроен.
	ErrJournalDisabled = errors.New("divergence journal is not configured")
)

// CodeRepository описывает операции над подарочными кодами в паре хранилищ.
type CodeRepository interface {
	Create(ctx context.Context, code string, fields model.CodeFields) (*model.GiftCode, error)
	List(ctx context.Context, key model.StoreKey) ([]model.GiftCode, error)
	Get(ctx context.Context, code string, key model.StoreKey) (*model.GiftCode, error)
	Update(ctx context.Context, code string, fields model.CodeFields, key model.StoreKey) (*model.GiftCode, error)
	Delete(ctx context.Context, code string, key model.StoreKey) error
	DeleteMany(ctx context.Context, codes []string, key model.StoreKey) (int, error)
	Reconcile(ctx context.Context) (*model.ReconcileReport, error)
}

// UserRepository описывает чтение профилей и управление блокировками.
type UserRepository interface {
	List(ctx context.Context, key model.StoreKey) ([]model.User, error)
	Banned(ctx context.Context, key model.StoreKey) (model.BannedAccounts, error)
	Ban(ctx context.Context, uid string, key model.StoreKey) error
	Unban(ctx context.Context, uid string, key model.StoreKey) error
}

// Journal описывает журнал расхождений между хранилищами.
type Journal interface {
	Close() error
	Record(ctx context.Context, d model.Divergence) (int64, error)
	ListOpen(ctx context.Context, limit int) ([]model.Divergence, error)
	Resolve(ctx context.Context, id int64) error
	ResolveExcept(ctx context.Context, collection string, still []string) (int64, error)
}

// ObjectStorage описывает объектное хранилище файлового менеджера.
type ObjectStorage interface {
	List(ctx context.Context, prefix string, recursive bool) (*filestore.Listing, error)
	Put(ctx context.Context, name, contentType string, r io.Reader) (*filestore.Object, error)
	Delete(ctx context.Context, name string) error
}

// Service содержит бизнес-логику админ-панели.
type Service struct {
	codes   CodeRepository
	users   UserRepository
	journal Journal
	files   ObjectStorage
	logger  *zap.Logger
	now     func() time.Time
	newCode func(prefix string) (string, error)
}

// Option настраивает сервис.
type Option func(*Service)

// WithJournal подключает журнал расхождений.
func WithJournal(j Journal) Option {
	return func(s *Service) { s.journal = j }
}

// WithFiles подключает файловое хранилище.
func WithFiles(f ObjectStorage) Option {
	return func(s *Service) { s.files = f }
}

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService создаёт сервис поверх репозиториев кодов и пользователей.
func NewService(codes CodeRepository, users UserRepository, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		codes:   codes,
		users:   users,
		logger:  logger,
		now:     time.Now,
		newCode: RandomCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	var err error
	if s.journal != nil {
		err = multierr.Append(err, s.journal.Close())
	}
	return err
}
