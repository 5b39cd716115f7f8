package model

import "github.com/google/uuid"

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
)

// LongTermProject groups quests spanning many days. It is completed when all
// of its quests are done.
type LongTermProject struct {
	ID             uuid.UUID
	Owner          int64
	ProjectName    string
	Description    string
	Status         ProjectStatus
	CompletionDate *string
}
