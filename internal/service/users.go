package service

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/monsterfusion-admin/internal/model"
	"github.com/mmeshcher/monsterfusion-admin/internal/validation"
)

// ListUsers возвращает профили выбранного хранилища с признаком блокировки,
// отфильтрованные по имени или UID и отсортированные по убыванию выбранного показателя.
func (s *Service) ListUsers(ctx context.Context, key model.StoreKey, query string, by model.UserSort) ([]model.User, error) {
	var (
		users  []model.User
		banned model.BannedAccounts
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.users.List(gctx, key)
		return err
	})
	g.Go(func() error {
		var err error
		banned, err = s.users.Banned(gctx, key)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	res := make([]model.User, 0, len(users))
	for _, u := range users {
		u.IsBanned = banned.Has(u.ID)
		if q != "" &&
			!strings.Contains(strings.ToLower(u.UserName), q) &&
			!strings.Contains(strings.ToLower(u.UID), q) {
			continue
		}
		res = append(res, u)
	}

	SortUsers(res, by)
	return res, nil
}

// SortUsers сортирует профили по убыванию показателя; порядок по умолчанию сохраняется.
func SortUsers(users []model.User, by model.UserSort) {
	var metric func(u model.User) int64
	switch by {
	case model.UserSortMonsterLevel:
		metric = func(u model.User) int64 { return u.MonsterLevel }
	case model.UserSortNumDiamond:
		metric = func(u model.User) int64 { return u.NumDiamond }
	case model.UserSortNumGold:
		metric = func(u model.User) int64 { return u.NumGold }
	default:
		return
	}

	sort.SliceStable(users, func(i, j int) bool { return metric(users[i]) > metric(users[j]) })
}

// BanUser блокирует игрока. Область записи определяется настройкой репозитория.
func (s *Service) BanUser(ctx context.Context, uid string, key model.StoreKey) error {
	if err := validation.UID(uid); err != nil {
		return err
	}
	if err := s.users.Ban(ctx, uid, key); err != nil {
		s.notePartialWrite(ctx, err)
		return err
	}

	s.logger.Info("user banned", zap.String("uid", uid), zap.String("store", string(key)))
	return nil
}

// UnbanUser снимает блокировку игрока.
func (s *Service) UnbanUser(ctx context.Context, uid string, key model.StoreKey) error {
	if err := validation.UID(uid); err != nil {
		return err
	}
	if err := s.users.Unban(ctx, uid, key); err != nil {
		s.notePartialWrite(ctx, err)
		return err
	}

	s.logger.Info("user unbanned", zap.String("uid", uid), zap.String("store", string(key)))
	return nil
}
