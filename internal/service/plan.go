package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"starfall_questboard/internal/model"
	"starfall_questboard/internal/repository"

	"github.com/google/uuid"
)

// PlanService manages the next-day quest queue and turns it into real quests
// during rollover.
type PlanService struct {
	profiles ProfileRepository
	quests   QuestRepository
	cipher   TextCipher
	clock    Clock
}

func NewPlanService(profiles ProfileRepository, quests QuestRepository, cipher TextCipher, clock Clock) *PlanService {
	return &PlanService{
		profiles: profiles,
		quests:   quests,
		cipher:   cipher,
		clock:    clock,
	}
}

// SavePlan replaces the queued drafts for the next day. The plan date is
// stamped now; a queue saved today only materializes on a later day.
func (s *PlanService) SavePlan(ctx context.Context, userID int64, drafts []model.PlannedQuest) error {
	today := model.FormatDay(s.now())

	if err := s.profiles.UpdatePlanQueue(ctx, userID, drafts, today); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

// Materialize is rollover step 1. It turns the queued drafts into today's
// quests, in queue order, then clears the queue. A queue planned today (or
// with no plan date) is not touched. Any creation failure aborts the step
// and leaves the queue intact so the next run can retry.
func (s *PlanService) Materialize(ctx context.Context, userID int64, today string) model.StepOutcome {
	outcome := model.StepOutcome{Step: model.StepPlanMaterialize}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	if len(profile.NextDayPlannedQuests) == 0 {
		return outcome
	}
	if profile.LastPlannedDate == nil || *profile.LastPlannedDate >= today {
		return outcome
	}

	for _, draft := range profile.NextDayPlannedQuests {
		quest, err := s.questFromDraft(userID, today, draft)
		if err != nil {
			outcome.Err = err
			return outcome
		}
		if err := s.quests.CreateQuest(ctx, quest); err != nil {
			outcome.Err = err
			return outcome
		}
		outcome.Created++
	}

	if err := s.profiles.UpdatePlanQueue(ctx, userID, []model.PlannedQuest{}, today); err != nil {
		outcome.Err = err
		return outcome
	}

	return outcome
}

func (s *PlanService) questFromDraft(userID int64, today string, draft model.PlannedQuest) (*model.Quest, error) {
	title, err := s.cipher.Obscure(userID, draft.Title)
	if err != nil {
		return nil, err
	}
	hint, err := s.cipher.Obscure(userID, draft.ActionHint)
	if err != nil {
		return nil, err
	}

	return &model.Quest{
		ID:         uuid.New(),
		Owner:      userID,
		Title:      title,
		ActionHint: hint,
		Difficulty: draft.Difficulty,
		Rarity:     draft.Rarity,
		Date:       today,
		Status:     model.QuestTodo,
		Source:     model.SourceAI,
		Tags:       draft.Tags,
		CreatedAt:  s.now(),
	}, nil
}

func (s *PlanService) now() time.Time {
	if s.clock != nil {
		return s.clock.Now()
	}
	return time.Now()
}
