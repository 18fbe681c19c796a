package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/monsterfusion-admin/internal/model"
	"github.com/mmeshcher/monsterfusion-admin/internal/repository"
	"github.com/mmeshcher/monsterfusion-admin/internal/validation"
)

const (
	codeAlphabet     = "0123456789abcdefghijklmnopqrstuvwxyz"
	randomPartLen    = 8
	duplicateRetries = 3
)

// RandomCode генерирует код вида prefix_xxxxxxxx из восьми случайных символов base36.
func RandomCode(prefix string) (string, error) {
	var b strings.Builder
	b.Grow(len(prefix) + 1 + randomPartLen)
	b.WriteString(prefix)
	b.WriteByte('_')

	alphabetLen := big.NewInt(int64(len(codeAlphabet)))
	for range randomPartLen {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// CreateCode создаёт код с заданным именем в обоих хранилищах.
func (s *Service) CreateCode(ctx context.Context, code string, fields model.CodeFields) (*model.GiftCode, error) {
	if err := validation.Code(code); err != nil {
		return nil, err
	}
	if err := validation.CodeFields(fields); err != nil {
		return nil, err
	}

	created, err := s.codes.Create(ctx, code, fields)
	if err != nil {
		s.notePartialWrite(ctx, err)
		return created, err
	}

	codesCreatedTotal.WithLabelValues("manual").Inc()
	s.logger.Info("gift code created", zap.String("code", code))
	return created, nil
}

// CreateBatch последовательно создаёт quantity кодов с общим префиксом и набором наград.
// Коды, которые создать не удалось, перечисляются в результате и не прерывают пакет.
func (s *Service) CreateBatch(ctx context.Context, prefix string, quantity int, fields model.CodeFields) (*model.BatchResult, error) {
	if err := validation.Prefix(prefix); err != nil {
		return nil, err
	}
	if err := validation.Quantity(quantity); err != nil {
		return nil, err
	}
	fields.CurrClaimCount = 0
	if err := validation.CodeFields(fields); err != nil {
		return nil, err
	}

	res := &model.BatchResult{
		BatchID: uuid.NewString(),
		Created: make([]model.GiftCode, 0, quantity),
		Failed:  make([]model.BatchFailure, 0),
	}
	log := s.logger.With(zap.String("batch", res.BatchID), zap.String("prefix", prefix))
	started := time.Now()

	for range quantity {
		if err := ctx.Err(); err != nil {
			log.Warn("batch interrupted", zap.Int("created", len(res.Created)), zap.Error(err))
			return res, err
		}

		code, created, err := s.createUnique(ctx, prefix, fields)
		if err != nil {
			s.notePartialWrite(ctx, err)
			res.Failed = append(res.Failed, model.BatchFailure{Code: code, Error: err.Error()})
			continue
		}
		res.Created = append(res.Created, *created)
	}

	codesCreatedTotal.WithLabelValues("batch").Add(float64(len(res.Created)))
	log.Info("batch finished",
		zap.Int("created", len(res.Created)),
		zap.Int("failed", len(res.Failed)),
		zap.Duration("took", time.Since(started)),
	)
	return res, nil
}

// createUnique повторяет генерацию при совпадении с существующим кодом.
func (s *Service) createUnique(ctx context.Context, prefix string, fields model.CodeFields) (string, *model.GiftCode, error) {
	var (
		code string
		err  error
	)
	for range duplicateRetries {
		code, err = s.newCode(prefix)
		if err != nil {
			return "", nil, err
		}

		var created *model.GiftCode
		created, err = s.codes.Create(ctx, code, fields)
		if err == nil {
			return code, created, nil
		}
		if !errors.Is(err, repository.ErrDuplicateCode) {
			return code, nil, err
		}
	}
	return code, nil, err
}

// FilterCodes отбирает коды по подстроке без учёта регистра и по производным состояниям.
func FilterCodes(codes []model.GiftCode, f model.CodeFilter, now time.Time) []model.GiftCode {
	text := strings.ToLower(strings.TrimSpace(f.Text))

	res := make([]model.GiftCode, 0, len(codes))
	for _, c := range codes {
		if text != "" && !strings.Contains(strings.ToLower(c.Code), text) {
			continue
		}
		if f.ExpiredOnly && !c.IsExpired(now) {
			continue
		}
		if f.MaxedOnly && !c.IsMaxed() {
			continue
		}
		res = append(res, c)
	}
	return res
}

// ListCodes возвращает отфильтрованные коды выбранного хранилища.
func (s *Service) ListCodes(ctx context.Context, key model.StoreKey, f model.CodeFilter) ([]model.GiftCode, error) {
	codes, err := s.codes.List(ctx, key)
	if err != nil {
		return nil, err
	}
	return FilterCodes(codes, f, s.now()), nil
}

// GetCode читает один код из выбранного хранилища.
func (s *Service) GetCode(ctx context.Context, code string, key model.StoreKey) (*model.GiftCode, error) {
	if err := validation.Code(code); err != nil {
		return nil, err
	}
	return s.codes.Get(ctx, code, key)
}

// UpdateCode редактирует код в выбранном хранилище. Второе хранилище не изменяется.
func (s *Service) UpdateCode(ctx context.Context, code string, fields model.CodeFields, key model.StoreKey) (*model.GiftCode, error) {
	if err := validation.Code(code); err != nil {
		return nil, err
	}
	if err := validation.CodeFields(fields); err != nil {
		return nil, err
	}

	updated, err := s.codes.Update(ctx, code, fields, key)
	if err != nil {
		return nil, err
	}

	s.logger.Info("gift code updated", zap.String("code", code), zap.String("store", string(key)))
	return updated, nil
}

// DeleteCode удаляет код из выбранного хранилища.
func (s *Service) DeleteCode(ctx context.Context, code string, key model.StoreKey) error {
	if err := validation.Code(code); err != nil {
		return err
	}
	if err := s.codes.Delete(ctx, code, key); err != nil {
		return err
	}

	s.logger.Info("gift code deleted", zap.String("code", code), zap.String("store", string(key)))
	return nil
}

// DeleteFiltered удаляет из выбранного хранилища все коды, подходящие под фильтр.
func (s *Service) DeleteFiltered(ctx context.Context, key model.StoreKey, f model.CodeFilter) (int, error) {
	codes, err := s.ListCodes(ctx, key, f)
	if err != nil {
		return 0, err
	}
	if len(codes) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(codes))
	for _, c := range codes {
		ids = append(ids, c.ID)
	}

	deleted, err := s.codes.DeleteMany(ctx, ids, key)
	s.logger.Info("filtered codes deleted",
		zap.String("store", string(key)),
		zap.Int("matched", len(ids)),
		zap.Int("deleted", deleted),
		zap.Error(err),
	)
	return deleted, err
}

// notePartialWrite учитывает частичную двойную запись: метрика, лог и запись в журнал.
func (s *Service) notePartialWrite(ctx context.Context, err error) {
	var pwe *repository.PartialWriteError
	if !errors.As(err, &pwe) {
		return
	}

	partialWritesTotal.WithLabelValues(pwe.Collection, strconv.FormatBool(pwe.AllFailed())).Inc()
	s.logger.Warn("dual-store write failed",
		zap.String("collection", pwe.Collection),
		zap.String("key", pwe.Key),
		zap.Bool("allFailed", pwe.AllFailed()),
		zap.Error(err),
	)

	// если не записалось никуда, хранилища не разошлись
	if pwe.AllFailed() {
		return
	}

	s.recordDivergence(ctx, model.Divergence{
		Collection: pwe.Collection,
		Key:        pwe.Key,
		Kind:       model.DivergencePartialWrite,
		Detail:     err.Error(),
		DetectedAt: s.now().UTC(),
	})
}
