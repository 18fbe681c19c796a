package model

// RewardType задаёт тег варианта награды. Набор значений закрыт и совпадает с перечислением игрового клиента.
type RewardType string

const (
	RewardDiamond             RewardType = "DIAMOND"
	RewardGold                RewardType = "GOLD"
	RewardStar                RewardType = "STAR"
	RewardMonster             RewardType = "MONSTER"
	RewardResetStone          RewardType = "RESET_STONE"
	RewardArtifact            RewardType = "ARTIFACT"
	RewardGoldLevel           RewardType = "GOLD_LEVEL"
	RewardNormalFusionBottle  RewardType = "NORMAL_FUSION_BOTTLE"
	RewardRareFusionBottle    RewardType = "RARE_FUSION_BOTTLE"
	RewardNormalEgg           RewardType = "NORMAL_EGG"
	RewardRareEgg             RewardType = "RARE_EGG"
	RewardElementalEgg        RewardType = "ELEMENTAL_EGG"
	RewardLegendEgg           RewardType = "LEGEND_EGG"
	RewardStarFusionEvent     RewardType = "STAR_FUSION_EVENT"
	RewardDice                RewardType = "DICE"
	RewardRemoveAds           RewardType = "REMOVE_ADS"
	RewardGalaxyEgg           RewardType = "GALAXY_EGG"
	RewardStarGalaxyEvent     RewardType = "STAR_GALAXY_EVENT"
	RewardChristmasTicket     RewardType = "CHRISTMAS_TICKET"
	RewardChristmasBell       RewardType = "CHRISTMAS_BELL"
	RewardMutantBottle        RewardType = "MUTANT_BOTTLE"
	RewardHammer              RewardType = "HAMMER"
	RewardChristmas7DaysX2    RewardType = "CHRISTMAS_7Days_X2"
	RewardChristmas7DaysX4    RewardType = "CHRISTMAS_7Days_X4"
	RewardVIPPack             RewardType = "VIP_PACK"
	RewardChallengeTicket     RewardType = "CHALLENGE_TICKET"
	RewardFishBait            RewardType = "FISH_BAIT"
	RewardAviatorStone        RewardType = "AVIATOR_STONE"
	RewardChallengeStone      RewardType = "CHALLENGE_STONE"
	RewardPurchasePack        RewardType = "PURCHASE_PACK"
	RewardPVPTicket           RewardType = "PVP_TICKET"
	RewardPVPRankPoint        RewardType = "PVP_RANK_POINT"
	RewardRaceTicketRandom    RewardType = "RACE_TICKET_RANDOM"
	RewardRaceTicket1Star     RewardType = "RACE_TICKET_1_STAR"
	RewardRaceTicket2Star     RewardType = "RACE_TICKET_2_STAR"
	RewardRaceTicket3Star     RewardType = "RACE_TICKET_3_STAR"
	RewardRaceTicket4Star     RewardType = "RACE_TICKET_4_STAR"
	RewardRaceTicket5Star     RewardType = "RACE_TICKET_5_STAR"
	RewardRaceTicket6Star     RewardType = "RACE_TICKET_6_STAR"
	RewardDiamondPackEveryday RewardType = "DIAMOND_PACK_EVERYDAY"
	RewardUnlockAllFarms      RewardType = "UNLOCK_ALL_FARMS"
	RewardSpeedUpCombat       RewardType = "SPEED_UP_COMBAT"
	RewardTimeSkipFree        RewardType = "TIME_SKIP_FREE"
	RewardUnlimitedAutoFusion RewardType = "UNLIMITED_AUTO_FUSION"
	RewardExploreSkipFree     RewardType = "EXPLORE_SKIP_FREE"
	RewardAvatarInfoPlayer    RewardType = "AVATAR_INFO_PLAYER"
	RewardFrameAvatarInfo     RewardType = "FRAME_AVATAR_INFO_PLAYER"
	RewardLunarisBloom        RewardType = "LUNARIS_BLOOM"
	RewardDivineSpirit        RewardType = "DIVINE_SPIRIT"
	RewardJigsawSupremeFrag   RewardType = "JIGSAW_SUPREME_FRAG"
	RewardJigsawDivineFrag    RewardType = "JIGSAW_DIVINE_FRAG"
	RewardJigsawLegendFrag    RewardType = "JIGSAW_LEGENG_FRAG"
	RewardThunderEgg          RewardType = "THUNDER_EGG"
	RewardSoloBattleTicket    RewardType = "SOLO_BATTLE_TICKET"
)

// RewardTypes перечисляет все известные теги в порядке игрового клиента.
var RewardTypes = []RewardType{
	RewardDiamond, RewardGold, RewardStar, RewardMonster, RewardResetStone, RewardArtifact,
	RewardGoldLevel, RewardNormalFusionBottle, RewardRareFusionBottle, RewardNormalEgg, RewardRareEgg,
	RewardElementalEgg, RewardLegendEgg, RewardStarFusionEvent, RewardDice, RewardRemoveAds,
	RewardGalaxyEgg, RewardStarGalaxyEvent, RewardChristmasTicket, RewardChristmasBell, RewardMutantBottle,
	RewardHammer, RewardChristmas7DaysX2, RewardChristmas7DaysX4, RewardVIPPack, RewardChallengeTicket,
	RewardFishBait, RewardAviatorStone, RewardChallengeStone, RewardPurchasePack, RewardPVPTicket,
	RewardPVPRankPoint, RewardRaceTicketRandom, RewardRaceTicket1Star, RewardRaceTicket2Star,
	RewardRaceTicket3Star, RewardRaceTicket4Star, RewardRaceTicket5Star, RewardRaceTicket6Star,
	RewardDiamondPackEveryday, RewardUnlockAllFarms, RewardSpeedUpCombat, RewardTimeSkipFree,
	RewardUnlimitedAutoFusion, RewardExploreSkipFree, RewardAvatarInfoPlayer, RewardFrameAvatarInfo,
	RewardLunarisBloom, RewardDivineSpirit, RewardJigsawSupremeFrag, RewardJigsawDivineFrag,
	RewardJigsawLegendFrag, RewardThunderEgg, RewardSoloBattleTicket,
}

var knownRewardTypes = func() map[RewardType]struct{} {
	m := make(map[RewardType]struct{}, len(RewardTypes))
	for _, t := range RewardTypes {
		m[t] = struct{}{}
	}
	return m
}()

// Known сообщает, входит ли тег в закрытый набор.
func (t RewardType) Known() bool {
	_, ok := knownRewardTypes[t]
	return ok
}

// PieceNone используется как нейтральное значение типа фрагмента и редкости артефакта.
const PieceNone = "None"

// DefaultClassChar задаёт класс артефакта по умолчанию.
const DefaultClassChar = "A"

// ArtifactRarities перечисляет допустимые редкости артефакта.
var ArtifactRarities = []string{
	PieceNone, "NORMAL", "UNCOMMON", "RARE", "EPIC", "LEGEND", "DIVINE", "SUPREME",
}

// ArtifactInfo описывает вложенную запись артефакта. Имена полей заданы игровым клиентом.
type ArtifactInfo struct {
	PieceType string `json:"Artifact_PieceType"`
	Rarity    string `json:"Artifact_Rarity"`
	ClassChar string `json:"ClassChar"`
}

// NeutralArtifact возвращает нейтральное значение ArtifactInfo.
func NeutralArtifact() ArtifactInfo {
	return ArtifactInfo{PieceType: PieceNone, Rarity: PieceNone, ClassChar: DefaultClassChar}
}

// Reward описывает плоскую запись награды в том виде, в каком её читает игровой сервер.
// Пустой iapKey не сериализуется: хранилище различает «нет поля» и «пустую строку».
type Reward struct {
	RewardType   RewardType   `json:"rewardType"`
	RewardAmount int          `json:"rewardAmount"`
	MonsterID    int          `json:"monsterId"`
	IAPKey       string       `json:"iapKey,omitempty"`
	ArtifactInfo ArtifactInfo `json:"artifactInfo"`
}
