// Package validation содержит функции валидации входных данных.
package validation

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mmeshcher/monsterfusion-admin/internal/model"
	"github.com/mmeshcher/monsterfusion-admin/internal/reward"
)

// ErrInvalid является общей причиной всех ошибок валидации.
var ErrInvalid = errors.New("invalid input")

const (
	maxCodeLen      = 64
	maxPrefixLen    = 32
	MaxBatchSize    = 1000
	maxExpireDays   = 3650
	maxFolderLength = 100
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func isKeyRune(r rune, allowUnderscore bool) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
		return true
	case r == '_':
		return allowUnderscore
	}
	return false
}

// Code проверяет код: латиница, цифры, "-" и "_". Ключи Realtime Database не допускают ". $ # [ ] /".
func Code(code string) error {
	if code == "" {
		return invalid("code is empty")
	}
	if len(code) > maxCodeLen {
		return invalid("code is longer than %d characters", maxCodeLen)
	}
	for _, r := range code {
		if !isKeyRune(r, true) {
			return invalid("code %q contains %q", code, r)
		}
	}
	return nil
}

// Prefix проверяет префикс пакетной генерации. Подчёркивание зарезервировано под разделитель.
func Prefix(prefix string) error {
	if prefix == "" {
		return invalid("prefix is empty")
	}
	if len(prefix) > maxPrefixLen {
		return invalid("prefix is longer than %d characters", maxPrefixLen)
	}
	for _, r := range prefix {
		if !isKeyRune(r, false) {
			return invalid("prefix %q contains %q", prefix, r)
		}
	}
	return nil
}

// Quantity проверяет размер пакета.
func Quantity(n int) error {
	if n < 1 || n > MaxBatchSize {
		return invalid("quantity must be between 1 and %d", MaxBatchSize)
	}
	return nil
}

// UID проверяет идентификатор игрока как ключ хранилища.
func UID(uid string) error {
	if uid == "" {
		return invalid("uid is empty")
	}
	if strings.ContainsAny(uid, ".$#[]/") {
		return invalid("uid %q contains a forbidden character", uid)
	}
	return nil
}

// CodeFields проверяет редактируемые поля кода и награды.
func CodeFields(f model.CodeFields) error {
	if len(f.ListRewards) == 0 {
		return invalid("at least one reward is required")
	}
	if f.MaxClaimCount < 1 {
		return invalid("maxClaimCount must be positive")
	}
	if f.CurrClaimCount < 0 {
		return invalid("currClaimCount must not be negative")
	}
	if f.ExpireDays < 1 || f.ExpireDays > maxExpireDays {
		return invalid("expireDays must be between 1 and %d", maxExpireDays)
	}

	for i, r := range f.ListRewards {
		if err := Reward(r); err != nil {
			return fmt.Errorf("reward %d: %w", i, err)
		}
	}
	return nil
}

// Reward проверяет одну награду до нормализации.
func Reward(r model.Reward) error {
	if !r.RewardType.Known() {
		return invalid("unknown reward type %q", r.RewardType)
	}
	if r.RewardAmount < 0 {
		return invalid("rewardAmount must not be negative")
	}

	switch r.RewardType {
	case model.RewardMonster:
		if r.MonsterID <= 0 {
			return invalid("monsterId is required for %s", r.RewardType)
		}
	case model.RewardPurchasePack:
		if strings.TrimSpace(r.IAPKey) == "" {
			return invalid("iapKey is required for %s", r.RewardType)
		}
	case model.RewardArtifact:
		if !slices.Contains(reward.PieceTypes, r.ArtifactInfo.PieceType) || r.ArtifactInfo.PieceType == model.PieceNone {
			return invalid("unknown artifact piece type %q", r.ArtifactInfo.PieceType)
		}
		if !slices.Contains(model.ArtifactRarities, r.ArtifactInfo.Rarity) || r.ArtifactInfo.Rarity == model.PieceNone {
			return invalid("unknown artifact rarity %q", r.ArtifactInfo.Rarity)
		}
	}
	return nil
}

// FolderName проверяет имя создаваемой папки.
func FolderName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return invalid("folder name is empty")
	case len(name) > maxFolderLength:
		return invalid("folder name is longer than %d characters", maxFolderLength)
	case name == "." || name == ".." || name == ".placeholder":
		return invalid("folder name %q is reserved", name)
	case strings.ContainsAny(name, "/\\"):
		return invalid("folder name %q contains a path separator", name)
	}
	return nil
}

// FilePath проверяет относительный путь внутри файлового хранилища. Пустой путь означает корень.
func FilePath(path string) error {
	if path == "" {
		return nil
	}
	if strings.HasPrefix(path, "/") {
		return invalid("path %q must be relative", path)
	}
	for _, seg := range strings.Split(strings.TrimSuffix(path, "/"), "/") {
		if seg == "" || seg == "." || seg == ".." {
			return invalid("path %q contains an empty or relative segment", path)
		}
	}
	return nil
}

// FileName проверяет имя загружаемого файла.
func FileName(name string) error {
	if err := FolderName(name); err != nil {
		return fmt.Errorf("file: %w", err)
	}
	return nil
}
