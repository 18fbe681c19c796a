// Package store описывает контракт удалённого key-value хранилища и его реализации.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mmeshcher/monsterfusion-admin/internal/model"
)

var (
	// ErrUnknownStore возвращается при выборе хранилища по неизвестному ключу.
	ErrUnknownStore = errors.New("unknown store")
	// ErrInvalidPath возвращается для пустого или слишком глубокого пути.
	ErrInvalidPath = errors.New("invalid path")
)

// Store определяет минимальный контракт удалённого хранилища JSON-значений по пути.
type Store interface {
	// Name возвращает имя хранилища для логов и ошибок.
	Name() string
	// Get читает значение. Отсутствие ключа не ошибка: возвращается (nil, false, nil).
	Get(ctx context.Context, path string) (json.RawMessage, bool, error)
	// Set полностью перезаписывает значение по пути.
	Set(ctx context.Context, path string, value any) error
	// Remove удаляет значение; удаление отсутствующего ключа не ошибка.
	Remove(ctx context.Context, path string) error
}

// Pair связывает основное и вторичное хранилища.
type Pair struct {
	Primary   Store
	Secondary Store
}

// Select возвращает хранилище по селектору db1/db2.
func (p Pair) Select(key model.StoreKey) (Store, error) {
	switch key {
	case model.StorePrimary:
		return p.Primary, nil
	case model.StoreSecondary:
		return p.Secondary, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, key)
	}
}

// Keys возвращает селекторы в порядке primary, secondary.
func (p Pair) Keys() []model.StoreKey {
	return []model.StoreKey{model.StorePrimary, model.StoreSecondary}
}

// splitPath разбирает путь вида "Collection" или "Collection/key" для плоских реализаций.
func splitPath(path string) (collection, key string, err error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return "", "", fmt.Errorf("%w: empty", ErrInvalidPath)
	}

	parts := strings.Split(path, "/")
	switch len(parts) {
	case 1:
		return parts[0], "", nil
	case 2:
		if parts[1] == "" {
			return "", "", fmt.Errorf("%w: %s", ErrInvalidPath, path)
		}
		return parts[0], parts[1], nil
	default:
		return "", "", fmt.Errorf("%w: %s is deeper than collection/key", ErrInvalidPath, path)
	}
}

// isNull сообщает, что сырое значение означает отсутствие данных.
func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}
