package service

import (
	"context"

	"starfall_questboard/internal/model"
	"starfall_questboard/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	questRetentionDays   = 7
	chestRetentionDays   = 7
	projectRetentionDays = 730
)

// RetentionService prunes completed records past their keep window.
type RetentionService struct {
	quests   QuestRepository
	chests   ChestRepository
	projects ProjectRepository
}

func NewRetentionService(quests QuestRepository, chests ChestRepository, projects ProjectRepository) *RetentionService {
	return &RetentionService{
		quests:   quests,
		chests:   chests,
		projects: projects,
	}
}

// PruneQuests deletes done quests older than the keep window. The newest done
// instance of each routine template is protected regardless of age: it is the
// canonical template the materializer copies from. Project quests are not
// touched here at all; they live and die with their project's cascade.
func (s *RetentionService) PruneQuests(ctx context.Context, userID int64, today string) model.StepOutcome {
	outcome := model.StepOutcome{Step: model.StepPruneQuests}
	log := logger.Logger()

	cutoff, err := model.ShiftDay(today, -questRetentionDays)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	done, err := s.quests.DoneQuests(ctx, userID)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	// Newest-first input: the first done routine quest per key is the
	// protected template copy.
	protected := make(map[string]uuid.UUID)
	for _, q := range done {
		if !q.IsRoutine {
			continue
		}
		key := q.RoutineKey()
		if _, ok := protected[key]; !ok {
			protected[key] = q.ID
		}
	}

	for _, q := range done {
		if q.Date >= cutoff {
			continue
		}
		if q.IsLongTermProject {
			continue
		}
		if q.IsRoutine && protected[q.RoutineKey()] == q.ID {
			outcome.Skipped++
			continue
		}

		if err := s.quests.DeleteQuest(ctx, userID, q.ID); err != nil {
			log.Warn("failed to prune quest",
				zap.Int64("user_id", userID),
				zap.String("quest_id", q.ID.String()),
				zap.Error(err))
			outcome.Skipped++
			continue
		}
		outcome.Deleted++
	}

	return outcome
}

// PruneChests deletes opened chests older than the keep window. The loot they
// produced is never touched.
func (s *RetentionService) PruneChests(ctx context.Context, userID int64, today string) model.StepOutcome {
	outcome := model.StepOutcome{Step: model.StepPruneChests}
	log := logger.Logger()

	cutoff, err := model.ShiftDay(today, -chestRetentionDays)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	stale, err := s.chests.OpenedChestsBefore(ctx, userID, cutoff)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	for _, chest := range stale {
		if err := s.chests.DeleteChest(ctx, userID, chest.ID); err != nil {
			log.Warn("failed to prune chest",
				zap.Int64("user_id", userID),
				zap.String("chest_id", chest.ID.String()),
				zap.Error(err))
			outcome.Skipped++
			continue
		}
		outcome.Deleted++
	}

	return outcome
}

// PruneProjects cascade-deletes projects completed longer ago than the keep
// window, together with their linked quests.
func (s *RetentionService) PruneProjects(ctx context.Context, userID int64, today string) model.StepOutcome {
	outcome := model.StepOutcome{Step: model.StepPruneProjects}
	log := logger.Logger()

	cutoff, err := model.ShiftDay(today, -projectRetentionDays)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	stale, err := s.projects.CompletedProjectsBefore(ctx, userID, cutoff)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	for _, project := range stale {
		questsDeleted, err := s.projects.DeleteProjectCascade(ctx, userID, project.ID)
		if err != nil {
			log.Warn("failed to prune project",
				zap.Int64("user_id", userID),
				zap.String("project_id", project.ID.String()),
				zap.Error(err))
			outcome.Skipped++
			continue
		}
		outcome.Deleted += 1 + int(questsDeleted)
	}

	return outcome
}
