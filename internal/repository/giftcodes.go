// Package repository содержит доступ к данным админ-панели поверх двух независимых хранилищ.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/monsterfusion-admin/internal/model"
	"github.com/mmeshcher/monsterfusion-admin/internal/reward"
	"github.com/mmeshcher/monsterfusion-admin/internal/store"
)

const (
	// CodesCollection хранит подарочные коды.
	CodesCollection = "RedeemCodes"
	// UsersCollection хранит игровые профили.
	UsersCollection = "Users"
	// BannedCollection хранит разреженную карту заблокированных uid.
	BannedCollection = "BannedAccounts"
)

const defaultDeleteConcurrency = 16

// codeRecord задаёт канонический вид кода в хранилище. Поля перечислены явно, ввод клиента не пишется как есть.
type codeRecord struct {
	Code           string         `json:"code"`
	CurrClaimCount int            `json:"currClaimCount"`
	Day            int            `json:"day"`
	Expire         string         `json:"expire"`
	ListRewards    []model.Reward `json:"listRewards"`
	MaxClaimCount  int            `json:"maxClaimCount"`
}

func (r codeRecord) model() *model.GiftCode {
	return &model.GiftCode{
		ID:             r.Code,
		Code:           r.Code,
		CurrClaimCount: r.CurrClaimCount,
		Day:            r.Day,
		Expire:         r.Expire,
		ListRewards:    r.ListRewards,
		MaxClaimCount:  r.MaxClaimCount,
	}
}

// GiftCodes реализует репозиторий подарочных кодов поверх пары хранилищ.
// Основное хранилище служит источником истины для проверки существования при создании.
type GiftCodes struct {
	stores            store.Pair
	now               func() time.Time
	deleteConcurrency int
	logger            *zap.Logger
}

// Option настраивает репозиторий.
type Option func(*GiftCodes)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(r *GiftCodes) { r.now = now }
}

// WithLogger задаёт логгер для записей, которые не удалось разобрать при чтении списка.
func WithLogger(logger *zap.Logger) Option {
	return func(r *GiftCodes) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDeleteConcurrency ограничивает число параллельных удалений в DeleteMany.
func WithDeleteConcurrency(n int) Option {
	return func(r *GiftCodes) {
		if n > 0 {
			r.deleteConcurrency = n
		}
	}
}

// NewGiftCodes создаёт репозиторий кодов.
func NewGiftCodes(stores store.Pair, opts ...Option) *GiftCodes {
	r := &GiftCodes{
		stores:            stores,
		now:               time.Now,
		deleteConcurrency: defaultDeleteConcurrency,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func codePath(code string) string {
	return CodesCollection + "/" + code
}

func (r *GiftCodes) expireAfter(days int) string {
	return r.now().UTC().AddDate(0, 0, days).Format(model.ExpireLayout)
}

// Create проверяет отсутствие кода в основном хранилище и параллельно пишет запись в оба хранилища.
// При частичном сбое возвращается запись и *PartialWriteError; успешная запись не откатывается.
func (r *GiftCodes) Create(ctx context.Context, code string, fields model.CodeFields) (*model.GiftCode, error) {
	if err := checkKey(code); err != nil {
		return nil, err
	}
	path := codePath(code)

	_, exists, err := r.stores.Primary.Get(ctx, path)
	if err != nil {
		return nil, transportError(r.stores.Primary, "get", path, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, code)
	}

	rec := codeRecord{
		Code:           code,
		CurrClaimCount: fields.CurrClaimCount,
		Day:            1,
		Expire:         r.expireAfter(fields.ExpireDays),
		ListRewards:    reward.NormalizeAll(fields.ListRewards),
		MaxClaimCount:  fields.MaxClaimCount,
	}

	if err := writeBoth(ctx, r.stores, CodesCollection, code, rec); err != nil {
		return rec.model(), err
	}

	return rec.model(), nil
}

// writeBoth пишет значение в оба хранилища одновременно и дожидается обеих записей.
func writeBoth(ctx context.Context, stores store.Pair, collection, key string, value any) error {
	return bothStores(ctx, stores, collection, key, func(ctx context.Context, s store.Store, path string) error {
		if err := s.Set(ctx, path, value); err != nil {
			return transportError(s, "set", path, err)
		}
		return nil
	})
}

func bothStores(ctx context.Context, stores store.Pair, collection, key string,
	fn func(ctx context.Context, s store.Store, path string) error,
) error {
	path := collection + "/" + key

	var (
		mu     sync.Mutex
		failed = make(map[model.StoreKey]error)
	)

	// Ошибка одной записи не должна отменять другую, поэтому контекст группы не используется.
	var g errgroup.Group
	for _, k := range stores.Keys() {
		s, err := stores.Select(k)
		if err != nil {
			return err
		}
		g.Go(func() error {
			if err := fn(ctx, s, path); err != nil {
				mu.Lock()
				failed[k] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		return &PartialWriteError{Collection: collection, Key: key, Failed: failed}
	}
	return nil
}

// List читает все коды выбранного хранилища, отсортированные по коду.
// Отсутствие коллекции означает пустой список. Записи, которые не разбираются, пропускаются с предупреждением в лог.
func (r *GiftCodes) List(ctx context.Context, key model.StoreKey) ([]model.GiftCode, error) {
	s, err := r.stores.Select(key)
	if err != nil {
		return nil, err
	}

	items, err := readCollection(ctx, s, CodesCollection)
	if err != nil {
		return nil, err
	}

	codes := make([]model.GiftCode, 0, len(items))
	for id, raw := range items {
		var c model.GiftCode
		if err := json.Unmarshal(raw, &c); err != nil {
			r.logger.Warn("skipping undecodable gift code",
				zap.String("store", s.Name()),
				zap.String("code", id),
				zap.Error(err),
			)
			continue
		}
		c.ID = id
		codes = append(codes, c)
	}

	sort.Slice(codes, func(i, j int) bool { return codes[i].ID < codes[j].ID })
	return codes, nil
}

func readCollection(ctx context.Context, s store.Store, collection string) (map[string]json.RawMessage, error) {
	raw, ok, err := s.Get(ctx, collection)
	if err != nil {
		return nil, transportError(s, "get", collection, err)
	}

	items := make(map[string]json.RawMessage)
	if !ok {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s on %s: %w", collection, s.Name(), err)
	}
	return items, nil
}

// Get читает один код из выбранного хранилища.
func (r *GiftCodes) Get(ctx context.Context, code string, key model.StoreKey) (*model.GiftCode, error) {
	s, err := r.stores.Select(key)
	if err != nil {
		return nil, err
	}

	raw, err := r.getRaw(ctx, s, code)
	if err != nil {
		return nil, err
	}

	var c model.GiftCode
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode %s on %s: %w", code, s.Name(), err)
	}
	c.ID = code
	return &c, nil
}

func (r *GiftCodes) getRaw(ctx context.Context, s store.Store, code string) (json.RawMessage, error) {
	if err := checkKey(code); err != nil {
		return nil, err
	}
	path := codePath(code)

	raw, ok, err := s.Get(ctx, path)
	if err != nil {
		return nil, transportError(s, "get", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrCodeNotFound, code, s.Name())
	}
	return raw, nil
}

// Update пересчитывает срок и награды, сливает их с существующей записью и пишет её обратно
// только в выбранное хранилище. Поля записи, не известные админ-панели, сохраняются.
func (r *GiftCodes) Update(ctx context.Context, code string, fields model.CodeFields, key model.StoreKey) (*model.GiftCode, error) {
	s, err := r.stores.Select(key)
	if err != nil {
		return nil, err
	}

	raw, err := r.getRaw(ctx, s, code)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, fmt.Errorf("decode %s on %s: %w", code, s.Name(), err)
	}

	edits := map[string]any{
		"code":           code,
		"listRewards":    reward.NormalizeAll(fields.ListRewards),
		"maxClaimCount":  fields.MaxClaimCount,
		"currClaimCount": fields.CurrClaimCount,
		"expire":         r.expireAfter(fields.ExpireDays),
	}
	for k, v := range edits {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		merged[k] = b
	}

	path := codePath(code)
	if err := s.Set(ctx, path, merged); err != nil {
		return nil, transportError(s, "set", path, err)
	}

	b, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", code, err)
	}
	var c model.GiftCode
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("decode %s: %w", code, err)
	}
	c.ID = code
	return &c, nil
}

// Delete удаляет код из выбранного хранилища. Для отсутствующего кода возвращает ErrCodeNotFound.
func (r *GiftCodes) Delete(ctx context.Context, code string, key model.StoreKey) error {
	s, err := r.stores.Select(key)
	if err != nil {
		return err
	}

	if _, err := r.getRaw(ctx, s, code); err != nil {
		return err
	}

	path := codePath(code)
	if err := s.Remove(ctx, path); err != nil {
		return transportError(s, "remove", path, err)
	}
	return nil
}

// DeleteMany параллельно удаляет коды из выбранного хранилища и возвращает число удалённых.
// Удаление уже отсутствующего кода не ошибка. Неудачные коды перечисляются в *BulkDeleteError.
func (r *GiftCodes) DeleteMany(ctx context.Context, codes []string, key model.StoreKey) (int, error) {
	s, err := r.stores.Select(key)
	if err != nil {
		return 0, err
	}

	var (
		mu      sync.Mutex
		deleted int
		failed  = make(map[string]error)
	)

	var g errgroup.Group
	g.SetLimit(r.deleteConcurrency)
	for _, code := range codes {
		g.Go(func() error {
			if err := checkKey(code); err != nil {
				mu.Lock()
				failed[code] = err
				mu.Unlock()
				return nil
			}

			path := codePath(code)
			err := s.Remove(ctx, path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[code] = transportError(s, "remove", path, err)
				return nil
			}
			deleted++
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		return deleted, &BulkDeleteError{Store: key, Deleted: deleted, Failed: failed}
	}
	return deleted, nil
}
