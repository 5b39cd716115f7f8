package service

import (
	"context"

	"starfall_questboard/internal/model"
	"starfall_questboard/pkg/logger"

	"go.uber.org/zap"
)

// CarryoverService rolls yesterday's unfinished quests forward to today.
type CarryoverService struct {
	quests QuestRepository
}

func NewCarryoverService(quests QuestRepository) *CarryoverService {
	return &CarryoverService{quests: quests}
}

// Carry moves every incomplete non-routine quest from yesterday to today by
// reassigning its date in place. The quest keeps its id, so client-side
// references survive the move. Routine instances are left behind: the
// materializer mints a fresh one for today instead.
func (s *CarryoverService) Carry(ctx context.Context, userID int64, today, yesterday string) model.StepOutcome {
	outcome := model.StepOutcome{Step: model.StepCarryover}
	log := logger.Logger()

	leftovers, err := s.quests.TodoQuestsByDate(ctx, userID, yesterday)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	for _, q := range leftovers {
		if q.IsRoutine {
			outcome.Skipped++
			continue
		}

		if err := s.quests.UpdateQuestDate(ctx, userID, q.ID, today); err != nil {
			log.Warn("failed to carry quest over",
				zap.Int64("user_id", userID),
				zap.String("quest_id", q.ID.String()),
				zap.Error(err))
			outcome.Skipped++
			continue
		}
		outcome.Updated++
	}

	return outcome
}
