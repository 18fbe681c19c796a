// Package reward приводит награды подарочных кодов к канонической плоской записи.
package reward

import (
	"github.com/mmeshcher/monsterfusion-admin/internal/model"
)

// pieceClass сопоставляет тип фрагмента артефакта классу: по семейству существ, четыре варианта на класс.
var pieceClass = map[string]string{
	model.PieceNone: "A",
	"WolfClaw": "A", "WolfFang": "A", "WolfEye": "A", "Wolf_FullSet": "A",
	"LionClaw": "B", "LionHeart": "B", "LionTail": "B", "Lion_FullSet": "B",
	"WildBoarTusk": "C", "WildBoarFeet": "C", "WildBoarTail": "C", "WildBoar_FullSet": "C",
	"BeeWing": "D", "BeeTail": "D", "BeeEye": "D", "Bee_FullSet": "D",
	"SharkFin": "E", "SharkJaw": "E", "SharkTail": "E", "Shark_FullSet": "E",
	"UnicornHorn": "F", "UnicornClaw": "F", "UnicornTail": "F", "Unicorn_FullSet": "F",
	"DragonScale": "G", "DragonHorn": "G", "DragonClaw": "G", "Dragon_FullSet": "G",
}

// PieceTypes перечисляет известные типы фрагментов артефакта.
var PieceTypes = []string{
	model.PieceNone,
	"WolfClaw", "WolfFang", "WolfEye", "Wolf_FullSet",
	"LionClaw", "LionHeart", "LionTail", "Lion_FullSet",
	"WildBoarTusk", "WildBoarFeet", "WildBoarTail", "WildBoar_FullSet",
	"BeeWing", "BeeTail", "BeeEye", "Bee_FullSet",
	"SharkFin", "SharkJaw", "SharkTail", "Shark_FullSet",
	"UnicornHorn", "UnicornClaw", "UnicornTail", "Unicorn_FullSet",
	"DragonScale", "DragonHorn", "DragonClaw", "Dragon_FullSet",
}

// ClassChar возвращает класс артефакта для типа фрагмента; неизвестные типы получают "A".
func ClassChar(pieceType string) string {
	if c, ok := pieceClass[pieceType]; ok {
		return c
	}
	return model.DefaultClassChar
}

// variant задаёт закрытое множество вариантов награды. Реализуется только типами этого пакета.
type variant interface {
	apply(dst *model.Reward)
}

type amountReward struct{}

type monsterReward struct {
	monsterID int
}

type purchasePackReward struct {
	iapKey string
}

type artifactReward struct {
	pieceType string
	rarity    string
}

func (amountReward) apply(*model.Reward) {}

func (v monsterReward) apply(dst *model.Reward) {
	dst.MonsterID = v.monsterID
}

func (v purchasePackReward) apply(dst *model.Reward) {
	dst.IAPKey = v.iapKey
}

func (v artifactReward) apply(dst *model.Reward) {
	dst.ArtifactInfo = model.ArtifactInfo{
		PieceType: v.pieceType,
		Rarity:    v.rarity,
		ClassChar: ClassChar(v.pieceType),
	}
}

// classify определяет активный вариант только по rewardType. Неизвестные теги считаются наградой-количеством.
func classify(r model.Reward) variant {
	switch r.RewardType {
	case model.RewardArtifact:
		return artifactReward{
			pieceType: orNone(r.ArtifactInfo.PieceType),
			rarity:    orNone(r.ArtifactInfo.Rarity),
		}
	case model.RewardMonster:
		return monsterReward{monsterID: r.MonsterID}
	case model.RewardPurchasePack:
		return purchasePackReward{iapKey: r.IAPKey}
	default:
		return amountReward{}
	}
}

func orNone(s string) string {
	if s == "" {
		return model.PieceNone
	}
	return s
}

// Normalize возвращает каноническую запись: поля неактивных вариантов сброшены в нейтральные значения,
// ClassChar всегда пересчитывается по таблице. Функция чистая и тотальная.
func Normalize(r model.Reward) model.Reward {
	out := model.Reward{
		RewardType:   r.RewardType,
		RewardAmount: r.RewardAmount,
		ArtifactInfo: model.NeutralArtifact(),
	}
	if out.RewardAmount < 0 {
		out.RewardAmount = 0
	}

	classify(r).apply(&out)

	return out
}

// NormalizeAll нормализует список наград, сохраняя порядок.
func NormalizeAll(rs []model.Reward) []model.Reward {
	out := make([]model.Reward, 0, len(rs))
	for _, r := range rs {
		out = append(out, Normalize(r))
	}
	return out
}
