package model

import (
	"time"

	"github.com/google/uuid"
)

type Difficulty string

const (
	DifficultyC Difficulty = "C"
	DifficultyB Difficulty = "B"
	DifficultyA Difficulty = "A"
	DifficultyS Difficulty = "S"
)

type Rarity string

const (
	RarityCommon    Rarity = "Common"
	RarityRare      Rarity = "Rare"
	RarityEpic      Rarity = "Epic"
	RarityLegendary Rarity = "Legendary"
)

type QuestStatus string

const (
	QuestTodo QuestStatus = "todo"
	QuestDone QuestStatus = "done"
)

type QuestSource string

const (
	SourceText     QuestSource = "text"
	SourceAI       QuestSource = "ai"
	SourceRoutine  QuestSource = "routine"
	SourceLongTerm QuestSource = "longterm"
)

// Quest is a single dated task. Date is the quest's logical day; carryover
// reassigns it in place without changing the id.
type Quest struct {
	ID                 uuid.UUID
	Owner              int64
	Title              string
	ActionHint         string
	OriginalActionHint *string
	Difficulty         Difficulty
	Rarity             Rarity
	Date               string
	Status             QuestStatus
	Source             QuestSource
	IsRoutine          bool
	IsLongTermProject  bool
	LongTermProjectID  *uuid.UUID
	Tags               []string
	CreatedAt          time.Time
}

// RoutineKey is the identity key routine templates are grouped by.
func (q *Quest) RoutineKey() string {
	if q.OriginalActionHint != nil && *q.OriginalActionHint != "" {
		return *q.OriginalActionHint
	}
	return q.ActionHint
}
