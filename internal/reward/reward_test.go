package reward

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/monsterfusion-admin/internal/model"
)

func garbage(t model.RewardType) model.Reward {
	return model.Reward{
		RewardType:   t,
		RewardAmount: 7,
		MonsterID:    99,
		IAPKey:       "com.monsterfusion.pack_stale",
		ArtifactInfo: model.ArtifactInfo{PieceType: "DragonClaw", Rarity: "EPIC", ClassChar: "Z"},
	}
}

func TestNormalize_ResetsInactiveFields(t *testing.T) {
	tests := []struct {
		name string
		in   model.Reward
		want model.Reward
	}{
		{
			name: "amount reward drops every variant field",
			in:   garbage(model.RewardDiamond),
			want: model.Reward{
				RewardType:   model.RewardDiamond,
				RewardAmount: 7,
				ArtifactInfo: model.NeutralArtifact(),
			},
		},
		{
			name: "monster keeps only monsterId",
			in:   garbage(model.RewardMonster),
			want: model.Reward{
				RewardType:   model.RewardMonster,
				RewardAmount: 7,
				MonsterID:    99,
				ArtifactInfo: model.NeutralArtifact(),
			},
		},
		{
			name: "purchase pack keeps only iapKey",
			in:   garbage(model.RewardPurchasePack),
			want: model.Reward{
				RewardType:   model.RewardPurchasePack,
				RewardAmount: 7,
				IAPKey:       "com.monsterfusion.pack_stale",
				ArtifactInfo: model.NeutralArtifact(),
			},
		},
		{
			name: "artifact recomputes class char",
			in:   garbage(model.RewardArtifact),
			want: model.Reward{
				RewardType:   model.RewardArtifact,
				RewardAmount: 7,
				ArtifactInfo: model.ArtifactInfo{PieceType: "DragonClaw", Rarity: "EPIC", ClassChar: "G"},
			},
		},
		{
			name: "unknown type falls through to neutral reset",
			in:   garbage(model.RewardType("SPACE_PONY")),
			want: model.Reward{
				RewardType:   model.RewardType("SPACE_PONY"),
				RewardAmount: 7,
				ArtifactInfo: model.NeutralArtifact(),
			},
		},
		{
			name: "artifact without info gets neutral pieces",
			in:   model.Reward{RewardType: model.RewardArtifact, RewardAmount: 1},
			want: model.Reward{
				RewardType:   model.RewardArtifact,
				RewardAmount: 1,
				ArtifactInfo: model.NeutralArtifact(),
			},
		},
		{
			name: "negative amount clamps to zero",
			in:   model.Reward{RewardType: model.RewardGold, RewardAmount: -5},
			want: model.Reward{
				RewardType:   model.RewardGold,
				ArtifactInfo: model.NeutralArtifact(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, rt := range append(model.RewardTypes, "NOT_A_TYPE") {
		once := Normalize(garbage(rt))
		twice := Normalize(once)
		assert.Equal(t, once, twice, "rewardType=%s", rt)
	}
}

func TestClassChar(t *testing.T) {
	for _, p := range PieceTypes {
		c := ClassChar(p)
		assert.Contains(t, []string{"A", "B", "C", "D", "E", "F", "G"}, c, "pieceType=%s", p)
	}

	assert.Equal(t, "A", ClassChar(model.PieceNone))
	assert.Equal(t, "A", ClassChar(""))
	assert.Equal(t, "A", ClassChar("KrakenTentacle"))
	assert.Equal(t, "B", ClassChar("Lion_FullSet"))
	assert.Equal(t, "F", ClassChar("UnicornHorn"))
}

func TestNormalize_StoredShape(t *testing.T) {
	diamond, err := json.Marshal(Normalize(model.Reward{RewardType: model.RewardDiamond, RewardAmount: 500}))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"rewardType": "DIAMOND",
		"rewardAmount": 500,
		"monsterId": 0,
		"artifactInfo": {"Artifact_PieceType": "None", "Artifact_Rarity": "None", "ClassChar": "A"}
	}`, string(diamond))

	emptyPack, err := json.Marshal(Normalize(model.Reward{RewardType: model.RewardPurchasePack, RewardAmount: 1}))
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(emptyPack, &fields))
	assert.NotContains(t, fields, "iapKey")
}

func TestNormalizeAll_PreservesOrder(t *testing.T) {
	in := []model.Reward{
		{RewardType: model.RewardGold, RewardAmount: 1},
		{RewardType: model.RewardMonster, MonsterID: 42},
		{RewardType: model.RewardStar, RewardAmount: 3},
	}

	out := NormalizeAll(in)
	require.Len(t, out, 3)
	assert.Equal(t, model.RewardGold, out[0].RewardType)
	assert.Equal(t, 42, out[1].MonsterID)
	assert.Equal(t, model.RewardStar, out[2].RewardType)
}
