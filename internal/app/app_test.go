package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/monsterfusion-admin/internal/config"
	"github.com/mmeshcher/monsterfusion-admin/internal/model"
	"github.com/mmeshcher/monsterfusion-admin/internal/validation"
)

func TestNew_MemoryDriver(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		StoreDriver: config.DriverMemory,
		BanScope:    config.BanScopeBoth,
	}

	a, err := New(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer func() { assert.NoError(t, a.Close()) }()

	fields := model.CodeFields{
		ListRewards:   []model.Reward{{RewardType: model.RewardDiamond, RewardAmount: 50}},
		MaxClaimCount: 10,
		ExpireDays:    7,
	}
	_, err = a.Service.CreateCode(ctx, "WELCOME", fields)
	require.NoError(t, err)

	for _, key := range []model.StoreKey{model.StorePrimary, model.StoreSecondary} {
		codes, err := a.Service.ListCodes(ctx, key, model.CodeFilter{})
		require.NoError(t, err)
		require.Len(t, codes, 1, key)
		assert.Equal(t, "WELCOME", codes[0].ID)
	}

	report, err := a.Service.Reconcile(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent())

	// файловое хранилище memory подключено
	_, err = a.Service.UploadFile(ctx, "", "notes.txt", "text/plain", strings.NewReader("hi"))
	require.NoError(t, err)
}

func TestNew_EmptyCodeKeepsCollection(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, &config.Config{StoreDriver: config.DriverMemory}, zap.NewNop())
	require.NoError(t, err)
	defer func() { assert.NoError(t, a.Close()) }()

	fields := model.CodeFields{
		ListRewards:   []model.Reward{{RewardType: model.RewardGold, RewardAmount: 100}},
		MaxClaimCount: 1,
		ExpireDays:    1,
	}
	for _, code := range []string{"AAA", "BBB"} {
		_, err := a.Service.CreateCode(ctx, code, fields)
		require.NoError(t, err)
	}

	assert.ErrorIs(t, a.Service.DeleteCode(ctx, "", model.StoreSecondary), validation.ErrInvalid)
	_, err = a.Service.UpdateCode(ctx, "", fields, model.StoreSecondary)
	assert.ErrorIs(t, err, validation.ErrInvalid)

	codes, err := a.Service.ListCodes(ctx, model.StoreSecondary, model.CodeFilter{})
	require.NoError(t, err)
	assert.Len(t, codes, 2)
}
