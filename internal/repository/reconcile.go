package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"reflect"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/monsterfusion-admin/internal/model"
)

// Reconcile сравнивает коллекцию кодов в двух хранилищах и возвращает отчёт о расхождениях.
// Хранилища не изменяются.
func (r *GiftCodes) Reconcile(ctx context.Context) (*model.ReconcileReport, error) {
	var primary, secondary map[string]json.RawMessage

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		primary, err = readCollection(gctx, r.stores.Primary, CodesCollection)
		return err
	})
	g.Go(func() error {
		var err error
		secondary, err = readCollection(gctx, r.stores.Secondary, CodesCollection)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &model.ReconcileReport{
		PrimaryOnly:   []string{},
		SecondaryOnly: []string{},
		Mismatched:    []string{},
		CheckedAt:     r.now().UTC(),
	}

	for code, p := range primary {
		s, ok := secondary[code]
		if !ok {
			report.PrimaryOnly = append(report.PrimaryOnly, code)
			continue
		}
		if !sameJSON(p, s) {
			report.Mismatched = append(report.Mismatched, code)
		}
	}
	for code := range secondary {
		if _, ok := primary[code]; !ok {
			report.SecondaryOnly = append(report.SecondaryOnly, code)
		}
	}

	report.Checked = len(primary) + len(report.SecondaryOnly)
	sort.Strings(report.PrimaryOnly)
	sort.Strings(report.SecondaryOnly)
	sort.Strings(report.Mismatched)

	return report, nil
}

// sameJSON сравнивает значения, а не байты: порядок ключей и пробелы не важны.
func sameJSON(a, b json.RawMessage) bool {
	if bytes.Equal(a, b) {
		return true
	}

	var va, vb any
	if err := json.Unmarshal(a, &va); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &vb); err != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}
