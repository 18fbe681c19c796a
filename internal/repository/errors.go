package repository

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/mmeshcher/monsterfusion-admin/internal/model"
	"github.com/mmeshcher/monsterfusion-admin/internal/store"
)

var (
	// ErrDuplicateCode возвращается при создании кода, который уже есть в основном хранилище.
	ErrDuplicateCode = errors.New("gift code already exists")
	// ErrCodeNotFound возвращается, если кода нет в выбранном хранилище.
	ErrCodeNotFound = errors.New("gift code not found")
	// ErrPartialWrite возвращается, если хотя бы одна из двух параллельных записей не удалась.
	ErrPartialWrite = errors.New("dual-store write failed")
	// ErrTransport оборачивает ошибки обращения к хранилищу (сеть, права, квоты).
	ErrTransport = errors.New("store transport error")
	// ErrBulkDelete возвращается, если часть кодов при массовом удалении удалить не удалось.
	ErrBulkDelete = errors.New("bulk delete failed")
	// ErrInvalidKey возвращается для пустого ключа или ключа с символами, запрещёнными в путях хранилища.
	ErrInvalidKey = errors.New("invalid record key")
	// ErrUnknownStore возвращается для неизвестного селектора хранилища.
	ErrUnknownStore = store.ErrUnknownStore
)

// forbiddenKeyChars нельзя использовать в ключах Realtime Database.
const forbiddenKeyChars = "/.#$[]"

// checkKey не пропускает ключ, который хранилище истолкует как путь к коллекции или отвергнет.
func checkKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if strings.ContainsAny(key, forbiddenKeyChars) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, r := range key {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

func transportError(s store.Store, op, path string, err error) error {
	return fmt.Errorf("%w: %s %s %s: %w", ErrTransport, s.Name(), op, path, err)
}

// PartialWriteError описывает результат двойной записи, в которой отказало одно или оба хранилища.
// Отката успешной записи не выполняется: хранилища остаются расходящимися до сверки.
type PartialWriteError struct {
	Collection string
	Key        string
	Failed     map[model.StoreKey]error
}

// AllFailed сообщает, что запись не прошла ни в одно хранилище.
func (e *PartialWriteError) AllFailed() bool {
	return len(e.Failed) >= 2
}

// Written возвращает хранилища, в которые запись прошла.
func (e *PartialWriteError) Written() []model.StoreKey {
	var res []model.StoreKey
	for _, k := range []model.StoreKey{model.StorePrimary, model.StoreSecondary} {
		if _, failed := e.Failed[k]; !failed {
			res = append(res, k)
		}
	}
	return res
}

func (e *PartialWriteError) Error() string {
	keys := e.failedKeys()

	errs := make([]error, 0, len(keys))
	for _, k := range keys {
		errs = append(errs, e.Failed[k])
	}

	if e.AllFailed() {
		return fmt.Sprintf("write %s/%s failed on both stores: %v", e.Collection, e.Key, multierr.Combine(errs...))
	}
	return fmt.Sprintf("write %s/%s failed on %s, stores diverged: %v",
		e.Collection, e.Key, joinKeys(keys), multierr.Combine(errs...))
}

// Is сопоставляет ошибку с ErrPartialWrite.
func (e *PartialWriteError) Is(target error) bool {
	return target == ErrPartialWrite
}

// Unwrap раскрывает ошибки отдельных хранилищ.
func (e *PartialWriteError) Unwrap() []error {
	keys := e.failedKeys()
	errs := make([]error, 0, len(keys))
	for _, k := range keys {
		errs = append(errs, e.Failed[k])
	}
	return errs
}

func (e *PartialWriteError) failedKeys() []model.StoreKey {
	keys := make([]model.StoreKey, 0, len(e.Failed))
	for k := range e.Failed {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func joinKeys(keys []model.StoreKey) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, string(k))
	}
	return strings.Join(parts, ",")
}

// BulkDeleteError перечисляет коды, которые не удалось удалить.
type BulkDeleteError struct {
	Store   model.StoreKey
	Deleted int
	Failed  map[string]error
}

// Codes возвращает отсортированный список неудалённых кодов.
func (e *BulkDeleteError) Codes() []string {
	codes := make([]string, 0, len(e.Failed))
	for c := range e.Failed {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

func (e *BulkDeleteError) Error() string {
	return fmt.Sprintf("delete on %s: %d removed, %d failed: %s",
		e.Store, e.Deleted, len(e.Failed), strings.Join(e.Codes(), ", "))
}

// Is сопоставляет ошибку с ErrBulkDelete.
func (e *BulkDeleteError) Is(target error) bool {
	return target == ErrBulkDelete
}

// Unwrap раскрывает ошибки отдельных удалений.
func (e *BulkDeleteError) Unwrap() []error {
	codes := e.Codes()
	errs := make([]error, 0, len(codes))
	for _, c := range codes {
		errs = append(errs, e.Failed[c])
	}
	return errs
}
