// Package model содержит доменные сущности админ-панели Monster Fusion.
package model

import (
	"time"
)

// StoreKey выбирает одну из двух независимых баз Realtime Database.
type StoreKey string

const (
	// StorePrimary выбирает базу Android-бэкенда. Она же источник истины для проверки существования кода.
	StorePrimary StoreKey = "db1"
	// StoreSecondary выбирает базу iOS-бэкенда.
	StoreSecondary StoreKey = "db2"
)

// Valid сообщает, является ли ключ известным селектором хранилища.
func (k StoreKey) Valid() bool {
	return k == StorePrimary || k == StoreSecondary
}

// ExpireLayout задаёт формат поля expire, совместимый с Date.toISOString() игрового клиента.
const ExpireLayout = "2006-01-02T15:04:05.000Z"

// GiftCode описывает подарочный код так, как он хранится в коллекции RedeemCodes.
type GiftCode struct {
	ID             string   `json:"id"`
	Code           string   `json:"code"`
	CurrClaimCount int      `json:"currClaimCount"`
	Day            int      `json:"day"`
	Expire         string   `json:"expire"`
	ListRewards    []Reward `json:"listRewards"`
	MaxClaimCount  int      `json:"maxClaimCount"`
}

// ExpiresAt разбирает поле expire.
func (g GiftCode) ExpiresAt() (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, g.Expire)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// IsExpired вычисляет производное состояние «истёк». Нечитаемая дата считается истёкшей.
func (g GiftCode) IsExpired(now time.Time) bool {
	t, err := g.ExpiresAt()
	if err != nil {
		return true
	}
	return t.Before(now)
}

// IsMaxed сообщает, исчерпан ли лимит активаций.
func (g GiftCode) IsMaxed() bool {
	return g.CurrClaimCount >= g.MaxClaimCount
}

// CodeFields содержит редактируемые администратором поля кода. Срок действия задаётся в днях от текущего момента.
type CodeFields struct {
	ListRewards    []Reward `json:"listRewards"`
	MaxClaimCount  int      `json:"maxClaimCount"`
	CurrClaimCount int      `json:"currClaimCount"`
	ExpireDays     int      `json:"expireDays"`
}

// CodeFilter задаёт фильтрацию списка кодов.
type CodeFilter struct {
	Text        string
	ExpiredOnly bool
	MaxedOnly   bool
}

// User описывает игровой профиль из коллекции Users. Только для чтения.
type User struct {
	ID           string `json:"id"`
	UID          string `json:"UID"`
	UserName     string `json:"UserName"`
	AvatarURL    string `json:"AvatarUrl,omitempty"`
	MonsterLevel int64  `json:"MonsterLevel"`
	NumDiamond   int64  `json:"NumDiamond"`
	NumGold      int64  `json:"NumGold"`
	IsBanned     bool   `json:"isBanned"`
}

// BannedValue игровой сервер ожидает в BannedAccounts/{uid}.
const BannedValue = "Banned"

// BannedAccounts хранит разреженное множество заблокированных uid: наличие ключа означает блокировку.
type BannedAccounts map[string]string

// Has сообщает, заблокирован ли uid.
func (b BannedAccounts) Has(uid string) bool {
	_, ok := b[uid]
	return ok
}

// UserSort задаёт поле сортировки списка пользователей.
type UserSort string

const (
	UserSortDefault      UserSort = "default"
	UserSortMonsterLevel UserSort = "MonsterLevel"
	UserSortNumDiamond   UserSort = "NumDiamond"
	UserSortNumGold      UserSort = "NumGold"
)

// StoredFile описывает файл или папку в файловом хранилище.
type StoredFile struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	IsFolder bool      `json:"isFolder"`
	Size     int64     `json:"size"`
	URL      string    `json:"url"`
	Type     string    `json:"type"`
	Created  time.Time `json:"created"`
}

// DivergenceKind описывает вид расхождения между хранилищами.
type DivergenceKind string

const (
	DivergencePartialWrite  DivergenceKind = "PARTIAL_WRITE"
	DivergencePrimaryOnly   DivergenceKind = "PRIMARY_ONLY"
	DivergenceSecondaryOnly DivergenceKind = "SECONDARY_ONLY"
	DivergenceMismatch      DivergenceKind = "MISMATCH"
)

// Divergence описывает запись журнала расхождений.
type Divergence struct {
	ID         int64          `json:"id"`
	Collection string         `json:"collection"`
	Key        string         `json:"key"`
	Kind       DivergenceKind `json:"kind"`
	Detail     string         `json:"detail,omitempty"`
	DetectedAt time.Time      `json:"detectedAt"`
	ResolvedAt *time.Time     `json:"resolvedAt,omitempty"`
}

// ReconcileReport содержит результат сверки коллекции RedeemCodes между хранилищами.
type ReconcileReport struct {
	PrimaryOnly   []string  `json:"primaryOnly"`
	SecondaryOnly []string  `json:"secondaryOnly"`
	Mismatched    []string  `json:"mismatched"`
	Checked       int       `json:"checked"`
	CheckedAt     time.Time `json:"checkedAt"`
}

// Consistent сообщает, совпадают ли хранилища.
func (r *ReconcileReport) Consistent() bool {
	return len(r.PrimaryOnly) == 0 && len(r.SecondaryOnly) == 0 && len(r.Mismatched) == 0
}

// BatchFailure описывает код пакета, который не удалось создать.
type BatchFailure struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// BatchResult содержит итог пакетной генерации кодов.
type BatchResult struct {
	BatchID string         `json:"batchId"`
	Created []GiftCode     `json:"created"`
	Failed  []BatchFailure `json:"failed"`
}
