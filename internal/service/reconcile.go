package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/monsterfusion-admin/internal/model"
	"github.com/mmeshcher/monsterfusion-admin/internal/repository"
)

const defaultDivergenceLimit = 100

// Reconcile сверяет коды двух хранилищ, журналирует расхождения и закрывает исчезнувшие.
// Сбой журнала не прерывает сверку: он только логируется.
func (s *Service) Reconcile(ctx context.Context) (*model.ReconcileReport, error) {
	started := time.Now()

	report, err := s.codes.Reconcile(ctx)
	if err != nil {
		reconcileRunsTotal.WithLabelValues("error").Inc()
		s.logger.Error("reconcile failed", zap.Error(err))
		return nil, err
	}

	result := "consistent"
	if !report.Consistent() {
		result = "diverged"
	}
	reconcileRunsTotal.WithLabelValues(result).Inc()

	s.logger.Info("reconcile finished",
		zap.Int("checked", report.Checked),
		zap.Strings("primaryOnly", report.PrimaryOnly),
		zap.Strings("secondaryOnly", report.SecondaryOnly),
		zap.Strings("mismatched", report.Mismatched),
		zap.Duration("took", time.Since(started)),
	)

	groups := []struct {
		kind model.DivergenceKind
		keys []string
	}{
		{model.DivergencePrimaryOnly, report.PrimaryOnly},
		{model.DivergenceSecondaryOnly, report.SecondaryOnly},
		{model.DivergenceMismatch, report.Mismatched},
	}

	still := make([]string, 0, len(report.PrimaryOnly)+len(report.SecondaryOnly)+len(report.Mismatched))
	for _, g := range groups {
		divergencesTotal.WithLabelValues(string(g.kind)).Add(float64(len(g.keys)))
		for _, key := range g.keys {
			still = append(still, key)
			s.recordDivergence(ctx, model.Divergence{
				Collection: repository.CodesCollection,
				Key:        key,
				Kind:       g.kind,
				DetectedAt: report.CheckedAt,
			})
		}
	}

	if s.journal != nil {
		resolved, err := s.journal.ResolveExcept(ctx, repository.CodesCollection, still)
		if err != nil {
			s.logger.Warn("failed to resolve stale divergences", zap.Error(err))
		} else if resolved > 0 {
			s.logger.Info("stale divergences resolved", zap.Int64("count", resolved))
		}
	}

	return report, nil
}

func (s *Service) recordDivergence(ctx context.Context, d model.Divergence) {
	if s.journal == nil {
		return
	}
	if _, err := s.journal.Record(ctx, d); err != nil {
		s.logger.Warn("failed to record divergence",
			zap.String("collection", d.Collection),
			zap.String("key", d.Key),
			zap.String("kind", string(d.Kind)),
			zap.Error(err),
		)
	}
}

// Divergences возвращает открытые расхождения из журнала.
func (s *Service) Divergences(ctx context.Context, limit int) ([]model.Divergence, error) {
	if s.journal == nil {
		return nil, ErrJournalDisabled
	}
	if limit <= 0 {
		limit = defaultDivergenceLimit
	}
	return s.journal.ListOpen(ctx, limit)
}

// ResolveDivergence закрывает расхождение вручную.
func (s *Service) ResolveDivergence(ctx context.Context, id int64) error {
	if s.journal == nil {
		return ErrJournalDisabled
	}
	return s.journal.Resolve(ctx, id)
}
