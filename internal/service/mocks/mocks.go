// Package mocks provides testify mocks for the service layer's dependencies.
package mocks

import (
	"context"

	"starfall_questboard/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Repository mocks the full storage surface of the engine.
type Repository struct {
	mock.Mock
}

func (m *Repository) CreateProfile(ctx context.Context, telegramID int64) error {
	return m.Called(ctx, telegramID).Error(0)
}

func (m *Repository) GetProfile(ctx context.Context, telegramID int64) (*model.ProgressProfile, error) {
	args := m.Called(ctx, telegramID)
	var profile *model.ProgressProfile
	if args.Get(0) != nil {
		profile = args.Get(0).(*model.ProgressProfile)
	}
	return profile, args.Error(1)
}

func (m *Repository) UpdateStreak(ctx context.Context, telegramID int64, streak, longest int, lastClear string) error {
	return m.Called(ctx, telegramID, streak, longest, lastClear).Error(0)
}

func (m *Repository) SpendFreezeToken(ctx context.Context, telegramID int64, lastClear string) error {
	return m.Called(ctx, telegramID, lastClear).Error(0)
}

func (m *Repository) BreakStreak(ctx context.Context, telegramID int64, lastClear string) error {
	return m.Called(ctx, telegramID, lastClear).Error(0)
}

func (m *Repository) UpdatePlanQueue(ctx context.Context, telegramID int64, planned []model.PlannedQuest, lastPlanned string) error {
	return m.Called(ctx, telegramID, planned, lastPlanned).Error(0)
}

func (m *Repository) UpdateRestDays(ctx context.Context, telegramID int64, days []string) error {
	return m.Called(ctx, telegramID, days).Error(0)
}

func (m *Repository) RestoreStreak(ctx context.Context, telegramID int64, streak, longest, tokens int, lastClear string) error {
	return m.Called(ctx, telegramID, streak, longest, tokens, lastClear).Error(0)
}

func (m *Repository) CreateQuest(ctx context.Context, quest *model.Quest) error {
	return m.Called(ctx, quest).Error(0)
}

func (m *Repository) QuestByID(ctx context.Context, owner int64, id uuid.UUID) (*model.Quest, error) {
	args := m.Called(ctx, owner, id)
	var quest *model.Quest
	if args.Get(0) != nil {
		quest = args.Get(0).(*model.Quest)
	}
	return quest, args.Error(1)
}

func (m *Repository) QuestsByDate(ctx context.Context, owner int64, day string) ([]*model.Quest, error) {
	args := m.Called(ctx, owner, day)
	var quests []*model.Quest
	if args.Get(0) != nil {
		quests = args.Get(0).([]*model.Quest)
	}
	return quests, args.Error(1)
}

func (m *Repository) TodoQuestsByDate(ctx context.Context, owner int64, day string) ([]*model.Quest, error) {
	args := m.Called(ctx, owner, day)
	var quests []*model.Quest
	if args.Get(0) != nil {
		quests = args.Get(0).([]*model.Quest)
	}
	return quests, args.Error(1)
}

func (m *Repository) RoutineQuests(ctx context.Context, owner int64) ([]*model.Quest, error) {
	args := m.Called(ctx, owner)
	var quests []*model.Quest
	if args.Get(0) != nil {
		quests = args.Get(0).([]*model.Quest)
	}
	return quests, args.Error(1)
}

func (m *Repository) DoneQuests(ctx context.Context, owner int64) ([]*model.Quest, error) {
	args := m.Called(ctx, owner)
	var quests []*model.Quest
	if args.Get(0) != nil {
		quests = args.Get(0).([]*model.Quest)
	}
	return quests, args.Error(1)
}

func (m *Repository) QuestsByProject(ctx context.Context, owner int64, projectID uuid.UUID) ([]*model.Quest, error) {
	args := m.Called(ctx, owner, projectID)
	var quests []*model.Quest
	if args.Get(0) != nil {
		quests = args.Get(0).([]*model.Quest)
	}
	return quests, args.Error(1)
}

func (m *Repository) UpdateQuestDate(ctx context.Context, owner int64, id uuid.UUID, day string) error {
	return m.Called(ctx, owner, id, day).Error(0)
}

func (m *Repository) UpdateQuestStatus(ctx context.Context, owner int64, id uuid.UUID, status model.QuestStatus) error {
	return m.Called(ctx, owner, id, status).Error(0)
}

func (m *Repository) DeleteQuest(ctx context.Context, owner int64, id uuid.UUID) error {
	return m.Called(ctx, owner, id).Error(0)
}

func (m *Repository) ChestByDate(ctx context.Context, owner int64, day string) (*model.DailyChest, error) {
	args := m.Called(ctx, owner, day)
	var chest *model.DailyChest
	if args.Get(0) != nil {
		chest = args.Get(0).(*model.DailyChest)
	}
	return chest, args.Error(1)
}

func (m *Repository) CreateChest(ctx context.Context, chest *model.DailyChest) error {
	return m.Called(ctx, chest).Error(0)
}

func (m *Repository) OpenedChestsBefore(ctx context.Context, owner int64, cutoff string) ([]*model.DailyChest, error) {
	args := m.Called(ctx, owner, cutoff)
	var chests []*model.DailyChest
	if args.Get(0) != nil {
		chests = args.Get(0).([]*model.DailyChest)
	}
	return chests, args.Error(1)
}

func (m *Repository) DeleteChest(ctx context.Context, owner int64, id uuid.UUID) error {
	return m.Called(ctx, owner, id).Error(0)
}

func (m *Repository) RecordChestOpen(ctx context.Context, chest *model.DailyChest, loot *model.Loot, counter, freezeTokens int) error {
	return m.Called(ctx, chest, loot, counter, freezeTokens).Error(0)
}

func (m *Repository) CreateLoot(ctx context.Context, loot *model.Loot) error {
	return m.Called(ctx, loot).Error(0)
}

func (m *Repository) ListLoot(ctx context.Context, owner int64) ([]*model.Loot, error) {
	args := m.Called(ctx, owner)
	var loot []*model.Loot
	if args.Get(0) != nil {
		loot = args.Get(0).([]*model.Loot)
	}
	return loot, args.Error(1)
}

func (m *Repository) LootByIDs(ctx context.Context, owner int64, ids []uuid.UUID) ([]*model.Loot, error) {
	args := m.Called(ctx, owner, ids)
	var loot []*model.Loot
	if args.Get(0) != nil {
		loot = args.Get(0).([]*model.Loot)
	}
	return loot, args.Error(1)
}

func (m *Repository) CraftExchange(ctx context.Context, crafted *model.Loot, consumed []uuid.UUID) error {
	return m.Called(ctx, crafted, consumed).Error(0)
}

func (m *Repository) AwardMilestone(ctx context.Context, owner int64, loot *model.Loot, tokens int, title string, milestone int) error {
	return m.Called(ctx, owner, loot, tokens, title, milestone).Error(0)
}

func (m *Repository) CreateProject(ctx context.Context, project *model.LongTermProject) error {
	return m.Called(ctx, project).Error(0)
}

func (m *Repository) ProjectsByOwner(ctx context.Context, owner int64) ([]*model.LongTermProject, error) {
	args := m.Called(ctx, owner)
	var projects []*model.LongTermProject
	if args.Get(0) != nil {
		projects = args.Get(0).([]*model.LongTermProject)
	}
	return projects, args.Error(1)
}

func (m *Repository) ProjectByID(ctx context.Context, owner int64, id uuid.UUID) (*model.LongTermProject, error) {
	args := m.Called(ctx, owner, id)
	var project *model.LongTermProject
	if args.Get(0) != nil {
		project = args.Get(0).(*model.LongTermProject)
	}
	return project, args.Error(1)
}

func (m *Repository) CompletedProjectsBefore(ctx context.Context, owner int64, cutoff string) ([]*model.LongTermProject, error) {
	args := m.Called(ctx, owner, cutoff)
	var projects []*model.LongTermProject
	if args.Get(0) != nil {
		projects = args.Get(0).([]*model.LongTermProject)
	}
	return projects, args.Error(1)
}

func (m *Repository) CompleteProject(ctx context.Context, owner int64, id uuid.UUID, completionDate string) error {
	return m.Called(ctx, owner, id, completionDate).Error(0)
}

func (m *Repository) DeleteProjectCascade(ctx context.Context, owner int64, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, owner, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *Repository) HasRolloverRun(ctx context.Context, owner int64, day string) (bool, error) {
	args := m.Called(ctx, owner, day)
	return args.Bool(0), args.Error(1)
}

func (m *Repository) MarkRolloverRun(ctx context.Context, owner int64, day string) error {
	return m.Called(ctx, owner, day).Error(0)
}

// Narrative mocks the themed-text generator.
type Narrative struct {
	mock.Mock
}

func (m *Narrative) QuestTitle(ctx context.Context, actionHint string) (string, error) {
	args := m.Called(ctx, actionHint)
	return args.String(0), args.Error(1)
}

func (m *Narrative) TreasureLoot(ctx context.Context, rarity model.Rarity, crafted bool) (*model.LootTheme, error) {
	args := m.Called(ctx, rarity, crafted)
	var theme *model.LootTheme
	if args.Get(0) != nil {
		theme = args.Get(0).(*model.LootTheme)
	}
	return theme, args.Error(1)
}

func (m *Narrative) MilestoneLoot(ctx context.Context, days int, title, icon string) (*model.LootTheme, error) {
	args := m.Called(ctx, days, title, icon)
	var theme *model.LootTheme
	if args.Get(0) != nil {
		theme = args.Get(0).(*model.LootTheme)
	}
	return theme, args.Error(1)
}
