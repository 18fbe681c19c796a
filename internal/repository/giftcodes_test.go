package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mmeshcher/monsterfusion-admin/internal/model"
	"github.com/mmeshcher/monsterfusion-admin/internal/store"
)

var errBoom = errors.New("boom")

// flakyStore оборачивает хранилище и отказывает в операциях над путями с заданным префиксом.
type flakyStore struct {
	store.Store

	mu        sync.Mutex
	failGet   string
	failSet   string
	failRm    string
	setCalled int
}

func (f *flakyStore) Get(ctx context.Context, path string) (json.RawMessage, bool, error) {
	if f.failGet != "" && strings.HasPrefix(path, f.failGet) {
		return nil, false, errBoom
	}
	return f.Store.Get(ctx, path)
}

func (f *flakyStore) Set(ctx context.Context, path string, value any) error {
	f.mu.Lock()
	f.setCalled++
	f.mu.Unlock()

	if f.failSet != "" && strings.HasPrefix(path, f.failSet) {
		return errBoom
	}
	return f.Store.Set(ctx, path, value)
}

func (f *flakyStore) Remove(ctx context.Context, path string) error {
	if f.failRm != "" && strings.HasPrefix(path, f.failRm) {
		return errBoom
	}
	return f.Store.Remove(ctx, path)
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newPair() (*flakyStore, *flakyStore, store.Pair) {
	p := &flakyStore{Store: store.NewMemoryStore("db1")}
	s := &flakyStore{Store: store.NewMemoryStore("db2")}
	return p, s, store.Pair{Primary: p, Secondary: s}
}

func newRepo(pair store.Pair) *GiftCodes {
	return NewGiftCodes(pair, WithClock(func() time.Time { return fixedNow }))
}

func diamondFields(amount int) model.CodeFields {
	return model.CodeFields{
		ListRewards:   []model.Reward{{RewardType: model.RewardDiamond, RewardAmount: amount}},
		MaxClaimCount: 1,
		ExpireDays:    30,
	}
}

func rawRecord(t *testing.T, s store.Store, code string) string {
	t.Helper()
	raw, ok, err := s.Get(context.Background(), codePath(code))
	require.NoError(t, err)
	require.True(t, ok, "record %s must exist on %s", code, s.Name())
	return string(raw)
}

func TestGiftCodes_CreateSummerScenario(t *testing.T) {
	ctx := context.Background()
	primary, secondary, pair := newPair()
	repo := newRepo(pair)

	created, err := repo.Create(ctx, "SUMMER24", diamondFields(500))
	require.NoError(t, err)
	assert.Equal(t, "SUMMER24", created.ID)
	assert.Equal(t, "2024-07-01T12:00:00.000Z", created.Expire)

	want := `{
		"code": "SUMMER24",
		"currClaimCount": 0,
		"day": 1,
		"expire": "2024-07-01T12:00:00.000Z",
		"listRewards": [{
			"rewardType": "DIAMOND",
			"rewardAmount": 500,
			"monsterId": 0,
			"artifactInfo": {"Artifact_PieceType": "None", "Artifact_Rarity": "None", "ClassChar": "A"}
		}],
		"maxClaimCount": 1
	}`
	assert.JSONEq(t, want, rawRecord(t, primary, "SUMMER24"))
	assert.JSONEq(t, want, rawRecord(t, secondary, "SUMMER24"))
}

func TestGiftCodes_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	primary, secondary, pair := newPair()
	repo := newRepo(pair)

	_, err := repo.Create(ctx, "DUP", diamondFields(10))
	require.NoError(t, err)
	before := rawRecord(t, primary, "DUP")
	setsBefore := secondary.setCalled

	_, err = repo.Create(ctx, "DUP", diamondFields(99))
	require.ErrorIs(t, err, ErrDuplicateCode)

	assert.JSONEq(t, before, rawRecord(t, primary, "DUP"))
	assert.Equal(t, setsBefore, secondary.setCalled, "secondary must not be touched")
}

func TestGiftCodes_CreatePurchasePackWithoutKey(t *testing.T) {
	ctx := context.Background()
	primary, _, pair := newPair()
	repo := newRepo(pair)

	_, err := repo.Create(ctx, "PACK", model.CodeFields{
		ListRewards:   []model.Reward{{RewardType: model.RewardPurchasePack, RewardAmount: 1}},
		MaxClaimCount: 5,
		ExpireDays:    1,
	})
	require.NoError(t, err)

	var rec struct {
		ListRewards []map[string]json.RawMessage `json:"listRewards"`
	}
	require.NoError(t, json.Unmarshal([]byte(rawRecord(t, primary, "PACK")), &rec))
	require.Len(t, rec.ListRewards, 1)
	assert.NotContains(t, rec.ListRewards[0], "iapKey")
}

func TestGiftCodes_CreateTransportOnExistenceCheck(t *testing.T) {
	primary, secondary, pair := newPair()
	primary.failGet = CodesCollection
	repo := newRepo(pair)

	_, err := repo.Create(context.Background(), "X", diamondFields(1))
	require.ErrorIs(t, err, ErrTransport)
	assert.Zero(t, secondary.setCalled)
}

func TestGiftCodes_CreatePartialWrite(t *testing.T) {
	tests := []struct {
		name          string
		failPrimary   bool
		failSecondary bool
		wantAll       bool
		wantWritten   []model.StoreKey
	}{
		{
			name:          "secondary fails",
			failSecondary: true,
			wantWritten:   []model.StoreKey{model.StorePrimary},
		},
		{
			name:        "primary fails",
			failPrimary: true,
			wantWritten: []model.StoreKey{model.StoreSecondary},
		},
		{
			name:          "both fail",
			failPrimary:   true,
			failSecondary: true,
			wantAll:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			primary, secondary, pair := newPair()
			if tt.failPrimary {
				primary.failSet = CodesCollection
			}
			if tt.failSecondary {
				secondary.failSet = CodesCollection
			}
			repo := newRepo(pair)

			rec, err := repo.Create(ctx, "HALF", diamondFields(5))
			require.ErrorIs(t, err, ErrPartialWrite)
			assert.ErrorIs(t, err, ErrTransport)
			require.NotNil(t, rec)
			assert.Equal(t, "HALF", rec.Code)

			var pwe *PartialWriteError
			require.ErrorAs(t, err, &pwe)
			assert.Equal(t, tt.wantAll, pwe.AllFailed())
			assert.Equal(t, tt.wantWritten, pwe.Written())

			// отката нет: успешная запись остаётся
			_, okP, _ := primary.Store.Get(ctx, codePath("HALF"))
			_, okS, _ := secondary.Store.Get(ctx, codePath("HALF"))
			assert.Equal(t, !tt.failPrimary, okP)
			assert.Equal(t, !tt.failSecondary, okS)
		})
	}
}

func TestGiftCodes_UpdateToMonster(t *testing.T) {
	ctx := context.Background()
	primary, secondary, pair := newPair()
	repo := newRepo(pair)

	_, err := repo.Create(ctx, "SUMMER24", diamondFields(500))
	require.NoError(t, err)

	updated, err := repo.Update(ctx, "SUMMER24", model.CodeFields{
		ListRewards: []model.Reward{{
			RewardType:   model.RewardMonster,
			RewardAmount: 3,
			MonsterID:    42,
			ArtifactInfo: model.ArtifactInfo{PieceType: "Dragon", Rarity: "Legend", ClassChar: "G"},
		}},
		MaxClaimCount:  10,
		CurrClaimCount: 2,
		ExpireDays:     7,
	}, model.StorePrimary)
	require.NoError(t, err)

	require.Len(t, updated.ListRewards, 1)
	r := updated.ListRewards[0]
	assert.Equal(t, 42, r.MonsterID)
	assert.Equal(t, 3, r.RewardAmount)
	assert.Equal(t, model.NeutralArtifact(), r.ArtifactInfo)
	assert.Equal(t, "2024-06-08T12:00:00.000Z", updated.Expire)
	assert.Equal(t, 10, updated.MaxClaimCount)
	assert.Equal(t, 1, updated.Day)

	// только выбранное хранилище
	assert.Contains(t, rawRecord(t, secondary, "SUMMER24"), `"DIAMOND"`)
	assert.Contains(t, rawRecord(t, primary, "SUMMER24"), `"MONSTER"`)
}

func TestGiftCodes_UpdateKeepsUnknownFields(t *testing.T) {
	ctx := context.Background()
	_, secondary, pair := newPair()
	repo := newRepo(pair)

	require.NoError(t, secondary.Set(ctx, codePath("LEGACY"), map[string]any{
		"code":         "LEGACY",
		"day":          1,
		"claimedUsers": map[string]bool{"u1": true},
	}))

	_, err := repo.Update(ctx, "LEGACY", diamondFields(1), model.StoreSecondary)
	require.NoError(t, err)

	raw := rawRecord(t, secondary, "LEGACY")
	assert.Contains(t, raw, `"claimedUsers"`)
	assert.Contains(t, raw, `"DIAMOND"`)
}

func TestGiftCodes_UpdateNotFound(t *testing.T) {
	_, _, pair := newPair()
	repo := newRepo(pair)

	_, err := repo.Update(context.Background(), "MISSING", diamondFields(1), model.StoreSecondary)
	assert.ErrorIs(t, err, ErrCodeNotFound)

	_, err = repo.Update(context.Background(), "MISSING", diamondFields(1), "db9")
	assert.ErrorIs(t, err, ErrUnknownStore)
}

func TestGiftCodes_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	_, _, pair := newPair()
	repo := newRepo(pair)

	codes, err := repo.List(ctx, model.StorePrimary)
	require.NoError(t, err)
	assert.Empty(t, codes)

	for _, c := range []string{"B", "A", "C"} {
		_, err := repo.Create(ctx, c, diamondFields(1))
		require.NoError(t, err)
	}

	codes, err = repo.List(ctx, model.StoreSecondary)
	require.NoError(t, err)
	require.Len(t, codes, 3)
	assert.Equal(t, "A", codes[0].ID)
	assert.Equal(t, "C", codes[2].ID)

	require.NoError(t, repo.Delete(ctx, "B", model.StoreSecondary))
	assert.ErrorIs(t, repo.Delete(ctx, "B", model.StoreSecondary), ErrCodeNotFound)

	// удаление затрагивает только выбранное хранилище
	got, err := repo.Get(ctx, "B", model.StorePrimary)
	require.NoError(t, err)
	assert.Equal(t, "B", got.Code)
}

func TestGiftCodes_DeleteMany(t *testing.T) {
	ctx := context.Background()
	_, _, pair := newPair()
	repo := NewGiftCodes(pair, WithClock(func() time.Time { return fixedNow }), WithDeleteConcurrency(3))

	for i := range 20 {
		_, err := repo.Create(ctx, fmt.Sprintf("CODE%02d", i), diamondFields(1))
		require.NoError(t, err)
	}

	var victims []string
	for i := 0; i < 20; i += 2 {
		victims = append(victims, fmt.Sprintf("CODE%02d", i))
	}

	n, err := repo.DeleteMany(ctx, victims, model.StorePrimary)
	require.NoError(t, err)
	assert.Equal(t, len(victims), n)

	left, err := repo.List(ctx, model.StorePrimary)
	require.NoError(t, err)
	require.Len(t, left, 10)
	for _, c := range left {
		assert.NotContains(t, victims, c.ID)
	}

	untouched, err := repo.List(ctx, model.StoreSecondary)
	require.NoError(t, err)
	assert.Len(t, untouched, 20)
}

func TestGiftCodes_DeleteManyReportsFailedCodes(t *testing.T) {
	ctx := context.Background()
	primary, _, pair := newPair()
	repo := newRepo(pair)

	for _, c := range []string{"KEEP1", "KEEP2", "GONE"} {
		_, err := repo.Create(ctx, c, diamondFields(1))
		require.NoError(t, err)
	}
	primary.failRm = codePath("KEEP")

	n, err := repo.DeleteMany(ctx, []string{"KEEP1", "KEEP2", "GONE"}, model.StorePrimary)
	require.ErrorIs(t, err, ErrBulkDelete)
	assert.Equal(t, 1, n)

	var bde *BulkDeleteError
	require.ErrorAs(t, err, &bde)
	assert.Equal(t, []string{"KEEP1", "KEEP2"}, bde.Codes())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestGiftCodes_Reconcile(t *testing.T) {
	ctx := context.Background()
	primary, secondary, pair := newPair()
	repo := newRepo(pair)

	for _, c := range []string{"SAME", "EDITED"} {
		_, err := repo.Create(ctx, c, diamondFields(1))
		require.NoError(t, err)
	}
	require.NoError(t, primary.Set(ctx, codePath("ANDROID"), map[string]any{"code": "ANDROID"}))
	require.NoError(t, secondary.Set(ctx, codePath("IOS"), map[string]any{"code": "IOS"}))
	_, err := repo.Update(ctx, "EDITED", diamondFields(2), model.StoreSecondary)
	require.NoError(t, err)

	report, err := repo.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ANDROID"}, report.PrimaryOnly)
	assert.Equal(t, []string{"IOS"}, report.SecondaryOnly)
	assert.Equal(t, []string{"EDITED"}, report.Mismatched)
	assert.Equal(t, 4, report.Checked)
	assert.False(t, report.Consistent())
}

func TestGiftCodes_ReconcileTransport(t *testing.T) {
	_, secondary, pair := newPair()
	secondary.failGet = CodesCollection
	repo := newRepo(pair)

	_, err := repo.Reconcile(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestSameJSON(t *testing.T) {
	assert.True(t, sameJSON(json.RawMessage(`{"a":1,"b":[1,2]}`), json.RawMessage(`{"b":[1,2], "a":1}`)))
	assert.False(t, sameJSON(json.RawMessage(`{"a":1}`), json.RawMessage(`{"a":2}`)))
	assert.False(t, sameJSON(json.RawMessage(`{"a":1}`), json.RawMessage(`not json`)))
}

func TestGiftCodes_RejectsKeysOutsideRecordLevel(t *testing.T) {
	ctx := context.Background()
	_, _, pair := newPair()
	repo := newRepo(pair)

	for _, code := range []string{"AAA", "BBB"} {
		_, err := repo.Create(ctx, code, diamondFields(1))
		require.NoError(t, err)
	}

	for _, code := range []string{"", "a.b", "X/Y", "a#b", "a$b", "a[0]", "tab\tcode"} {
		t.Run(fmt.Sprintf("%q", code), func(t *testing.T) {
			_, err := repo.Create(ctx, code, diamondFields(1))
			assert.ErrorIs(t, err, ErrInvalidKey)

			_, err = repo.Get(ctx, code, model.StorePrimary)
			assert.ErrorIs(t, err, ErrInvalidKey)

			_, err = repo.Update(ctx, code, diamondFields(9), model.StorePrimary)
			assert.ErrorIs(t, err, ErrInvalidKey)

			assert.ErrorIs(t, repo.Delete(ctx, code, model.StoreSecondary), ErrInvalidKey)
		})
	}

	for _, key := range []model.StoreKey{model.StorePrimary, model.StoreSecondary} {
		codes, err := repo.List(ctx, key)
		require.NoError(t, err)
		require.Len(t, codes, 2, key)
		assert.Equal(t, 1, codes[0].ListRewards[0].RewardAmount)
	}
}

func TestGiftCodes_DeleteManySkipsInvalidKeys(t *testing.T) {
	ctx := context.Background()
	_, _, pair := newPair()
	repo := newRepo(pair)

	for _, code := range []string{"AAA", "BBB"} {
		_, err := repo.Create(ctx, code, diamondFields(1))
		require.NoError(t, err)
	}

	n, err := repo.DeleteMany(ctx, []string{"", "AAA"}, model.StorePrimary)
	assert.Equal(t, 1, n)

	var bde *BulkDeleteError
	require.ErrorAs(t, err, &bde)
	assert.Equal(t, []string{""}, bde.Codes())
	assert.ErrorIs(t, bde.Failed[""], ErrInvalidKey)

	left, err := repo.List(ctx, model.StorePrimary)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "BBB", left[0].ID)
}

func TestGiftCodes_ListSkipsUndecodableRecords(t *testing.T) {
	ctx := context.Background()
	primary, _, pair := newPair()
	core, logs := observer.New(zap.WarnLevel)
	repo := NewGiftCodes(pair, WithClock(func() time.Time { return fixedNow }), WithLogger(zap.New(core)))

	_, err := repo.Create(ctx, "GOOD", diamondFields(1))
	require.NoError(t, err)
	require.NoError(t, primary.Set(ctx, codePath("LEGACY"), map[string]any{
		"code":          "LEGACY",
		"maxClaimCount": "5",
	}))

	codes, err := repo.List(ctx, model.StorePrimary)
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, "GOOD", codes[0].ID)

	entries := logs.FilterField(zap.String("code", "LEGACY")).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "db1", entries[0].ContextMap()["store"])
}

// barrierStore пропускает запись только после того, как запись начата в обоих хранилищах.
type barrierStore struct {
	store.Store
	started *sync.WaitGroup
}

func (b *barrierStore) Set(ctx context.Context, path string, value any) error {
	b.started.Done()

	both := make(chan struct{})
	go func() {
		b.started.Wait()
		close(both)
	}()

	select {
	case <-both:
		return b.Store.Set(ctx, path, value)
	case <-time.After(2 * time.Second):
		return errors.New("the other store write was not started")
	}
}

func TestGiftCodes_CreateStartsBothWritesBeforeWaiting(t *testing.T) {
	var started sync.WaitGroup
	started.Add(2)

	pair := store.Pair{
		Primary:   &barrierStore{Store: store.NewMemoryStore("db1"), started: &started},
		Secondary: &barrierStore{Store: store.NewMemoryStore("db2"), started: &started},
	}
	repo := newRepo(pair)

	_, err := repo.Create(context.Background(), "PARALLEL", diamondFields(1))
	require.NoError(t, err)
	rawRecord(t, pair.Primary, "PARALLEL")
	rawRecord(t, pair.Secondary, "PARALLEL")
}
