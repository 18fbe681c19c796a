package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mmeshcher/monsterfusion-admin/internal/model"
	"github.com/mmeshcher/monsterfusion-admin/internal/store"
)

// BanScope определяет, куда пишется блокировка пользователя.
type BanScope string

const (
	// BanScopeSelected пишет только в хранилище, выбранное администратором.
	BanScopeSelected BanScope = "selected"
	// BanScopeBoth пишет в оба хранилища одновременно, селектор игнорируется.
	BanScopeBoth BanScope = "both"
)

// Users реализует репозиторий игровых профилей и блокировок.
type Users struct {
	stores store.Pair
	scope  BanScope
}

// NewUsers создаёт репозиторий пользователей. Неизвестная область блокировки трактуется как BanScopeSelected.
func NewUsers(stores store.Pair, scope BanScope) *Users {
	if scope != BanScopeBoth {
		scope = BanScopeSelected
	}
	return &Users{stores: stores, scope: scope}
}

// Scope возвращает действующую область блокировки.
func (u *Users) Scope() BanScope {
	return u.scope
}

// List читает профили выбранного хранилища, отсортированные по ключу записи.
func (u *Users) List(ctx context.Context, key model.StoreKey) ([]model.User, error) {
	s, err := u.stores.Select(key)
	if err != nil {
		return nil, err
	}

	items, err := readCollection(ctx, s, UsersCollection)
	if err != nil {
		return nil, err
	}

	users := make([]model.User, 0, len(items))
	for id, raw := range items {
		var usr model.User
		if err := json.Unmarshal(raw, &usr); err != nil {
			return nil, fmt.Errorf("decode %s/%s on %s: %w", UsersCollection, id, s.Name(), err)
		}
		usr.ID = id
		users = append(users, usr)
	}

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// Banned читает множество заблокированных uid выбранного хранилища.
func (u *Users) Banned(ctx context.Context, key model.StoreKey) (model.BannedAccounts, error) {
	s, err := u.stores.Select(key)
	if err != nil {
		return nil, err
	}

	items, err := readCollection(ctx, s, BannedCollection)
	if err != nil {
		return nil, err
	}

	banned := make(model.BannedAccounts, len(items))
	for uid, raw := range items {
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			v = string(raw)
		}
		banned[uid] = v
	}
	return banned, nil
}

// Ban помечает uid заблокированным.
func (u *Users) Ban(ctx context.Context, uid string, key model.StoreKey) error {
	return u.apply(ctx, uid, key, func(ctx context.Context, s store.Store, path string) error {
		if err := s.Set(ctx, path, model.BannedValue); err != nil {
			return transportError(s, "set", path, err)
		}
		return nil
	})
}

// Unban снимает блокировку. Снятие отсутствующей блокировки не ошибка.
func (u *Users) Unban(ctx context.Context, uid string, key model.StoreKey) error {
	return u.apply(ctx, uid, key, func(ctx context.Context, s store.Store, path string) error {
		if err := s.Remove(ctx, path); err != nil {
			return transportError(s, "remove", path, err)
		}
		return nil
	})
}

func (u *Users) apply(ctx context.Context, uid string, key model.StoreKey,
	fn func(ctx context.Context, s store.Store, path string) error,
) error {
	if err := checkKey(uid); err != nil {
		return err
	}
	if u.scope == BanScopeBoth {
		return bothStores(ctx, u.stores, BannedCollection, uid, fn)
	}

	s, err := u.stores.Select(key)
	if err != nil {
		return err
	}
	return fn(ctx, s, BannedCollection+"/"+uid)
}
