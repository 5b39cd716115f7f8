package service

import (
	"context"
	"errors"
	"fmt"

	"starfall_questboard/internal/model"
	"starfall_questboard/internal/repository"
	"starfall_questboard/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateQuestInput is a plaintext quest draft. The service obscures the text
// fields before they reach storage.
type CreateQuestInput struct {
	Title             string
	ActionHint        string
	Difficulty        model.Difficulty
	Rarity            model.Rarity
	Date              string
	Source            model.QuestSource
	IsRoutine         bool
	LongTermProjectID *uuid.UUID
	Tags              []string
}

// QuestService covers the day-to-day quest operations outside the rollover.
type QuestService struct {
	profiles ProfileRepository
	quests   QuestRepository
	projects ProjectRepository
	cipher   TextCipher
	clock    Clock
}

func NewQuestService(profiles ProfileRepository, quests QuestRepository, projects ProjectRepository, cipher TextCipher, clock Clock) *QuestService {
	return &QuestService{
		profiles: profiles,
		quests:   quests,
		projects: projects,
		cipher:   cipher,
		clock:    clock,
	}
}

// Create stores a new quest. Scheduling work onto a declared rest day cancels
// that rest day: the user has overruled it.
func (s *QuestService) Create(ctx context.Context, userID int64, input CreateQuestInput) (*model.Quest, error) {
	if input.Date == "" {
		input.Date = model.FormatDay(s.clock.Now())
	}
	if input.Source == "" {
		input.Source = model.SourceText
	}

	if input.LongTermProjectID != nil {
		project, err := s.projects.ProjectByID(ctx, userID, *input.LongTermProjectID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrProjectNotActive
			}
			return nil, err
		}
		if project.Status != model.ProjectActive {
			return nil, ErrProjectNotActive
		}
	}

	title, err := s.cipher.Obscure(userID, input.Title)
	if err != nil {
		return nil, err
	}
	hint, err := s.cipher.Obscure(userID, input.ActionHint)
	if err != nil {
		return nil, err
	}

	quest := &model.Quest{
		ID:                uuid.New(),
		Owner:             userID,
		Title:             title,
		ActionHint:        hint,
		Difficulty:        input.Difficulty,
		Rarity:            input.Rarity,
		Date:              input.Date,
		Status:            model.QuestTodo,
		Source:            input.Source,
		IsRoutine:         input.IsRoutine,
		IsLongTermProject: input.LongTermProjectID != nil,
		LongTermProjectID: input.LongTermProjectID,
		Tags:              input.Tags,
		CreatedAt:         s.clock.Now(),
	}
	if input.IsRoutine {
		originalHint := input.ActionHint
		quest.OriginalActionHint = &originalHint
	}

	if err := s.quests.CreateQuest(ctx, quest); err != nil {
		return nil, fmt.Errorf("failed to create quest: %w", err)
	}

	if err := s.cancelRestDay(ctx, userID, quest.Date); err != nil {
		logger.Logger().Warn("failed to cancel rest day",
			zap.Int64("user_id", userID),
			zap.String("day", quest.Date),
			zap.Error(err))
	}

	return s.revealQuest(userID, quest)
}

func (s *QuestService) cancelRestDay(ctx context.Context, userID int64, day string) error {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if !profile.IsRestDay(day) {
		return nil
	}

	days := make([]string, 0, len(profile.RestDays))
	for _, d := range profile.RestDays {
		if d != day {
			days = append(days, d)
		}
	}
	return s.profiles.UpdateRestDays(ctx, userID, days)
}

// Complete marks a quest done. When the quest belongs to a long-term project
// and it was the last open one, the project completes with today's date.
func (s *QuestService) Complete(ctx context.Context, userID int64, questID uuid.UUID) error {
	quest, err := s.quests.QuestByID(ctx, userID, questID)
	if err != nil {
		return err
	}

	if err := s.quests.UpdateQuestStatus(ctx, userID, questID, model.QuestDone); err != nil {
		return fmt.Errorf("failed to complete quest: %w", err)
	}

	if quest.LongTermProjectID == nil {
		return nil
	}
	return s.maybeCompleteProject(ctx, userID, *quest.LongTermProjectID)
}

func (s *QuestService) maybeCompleteProject(ctx context.Context, userID int64, projectID uuid.UUID) error {
	linked, err := s.quests.QuestsByProject(ctx, userID, projectID)
	if err != nil {
		return fmt.Errorf("failed to check project quests: %w", err)
	}
	for _, q := range linked {
		if q.Status != model.QuestDone {
			return nil
		}
	}

	today := model.FormatDay(s.clock.Now())
	if err := s.projects.CompleteProject(ctx, userID, projectID, today); err != nil {
		// Already completed is not an error here.
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to complete project: %w", err)
	}

	logger.Logger().Info("project completed",
		zap.Int64("user_id", userID),
		zap.String("project_id", projectID.String()))
	return nil
}

func (s *QuestService) Reopen(ctx context.Context, userID int64, questID uuid.UUID) error {
	return s.quests.UpdateQuestStatus(ctx, userID, questID, model.QuestTodo)
}

func (s *QuestService) Delete(ctx context.Context, userID int64, questID uuid.UUID) error {
	return s.quests.DeleteQuest(ctx, userID, questID)
}

// ListByDate returns the day's quests with their text fields revealed.
func (s *QuestService) ListByDate(ctx context.Context, userID int64, day string) ([]*model.Quest, error) {
	quests, err := s.quests.QuestsByDate(ctx, userID, day)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Quest, 0, len(quests))
	for _, q := range quests {
		revealed, err := s.revealQuest(userID, q)
		if err != nil {
			return nil, err
		}
		out = append(out, revealed)
	}
	return out, nil
}

// CreateProject opens a new long-term project. Quests are linked to it at
// creation time and it completes when the last one is done.
func (s *QuestService) CreateProject(ctx context.Context, userID int64, name, description string) (*model.LongTermProject, error) {
	project := &model.LongTermProject{
		ID:          uuid.New(),
		Owner:       userID,
		ProjectName: name,
		Description: description,
		Status:      model.ProjectActive,
	}

	if err := s.projects.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

func (s *QuestService) ListProjects(ctx context.Context, userID int64) ([]*model.LongTermProject, error) {
	return s.projects.ProjectsByOwner(ctx, userID)
}

func (s *QuestService) revealQuest(userID int64, q *model.Quest) (*model.Quest, error) {
	title, err := s.cipher.Reveal(userID, q.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to reveal quest %s: %w", q.ID, err)
	}
	hint, err := s.cipher.Reveal(userID, q.ActionHint)
	if err != nil {
		return nil, fmt.Errorf("failed to reveal quest %s: %w", q.ID, err)
	}

	revealed := *q
	revealed.Title = title
	revealed.ActionHint = hint
	return &revealed, nil
}
