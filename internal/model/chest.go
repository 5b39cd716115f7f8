package model

import (
	"time"

	"github.com/google/uuid"
)

// DailyChest is created lazily, one per user per day.
type DailyChest struct {
	ID      uuid.UUID
	Owner   int64
	Date    string
	Opened  bool
	LootIDs []uuid.UUID
}

type Loot struct {
	ID         uuid.UUID
	Owner      int64
	Name       string
	FlavorText string
	Icon       string
	Rarity     Rarity
	ObtainedAt time.Time
}

// LootTheme is the narrative text a generated loot item is built from.
type LootTheme struct {
	Name       string `json:"name"`
	FlavorText string `json:"flavorText"`
	Icon       string `json:"icon"`
}

// ChestOpenResult reports what a single chest open produced.
type ChestOpenResult struct {
	Loot           *Loot
	FreezeTokenWon bool
	Pity           bool
	NewStreak      int
	Milestone      *MilestoneReward
}
