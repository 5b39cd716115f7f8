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

const (
	// An open that would push the counter to this value instead grants a
	// guaranteed freeze token and resets it.
	pityThreshold = 60
	// Chance, in percent, of a bonus freeze token on any ordinary open.
	luckyTokenChance = 1.0
)

// ChestService gates and opens the daily treasure chest.
type ChestService struct {
	profiles  ProfileRepository
	quests    QuestRepository
	chests    ChestRepository
	streaks   *StreakService
	milestone *MilestoneService
	narrative NarrativeGenerator
	roll      RollSource
	clock     Clock
}

func NewChestService(
	profiles ProfileRepository,
	quests QuestRepository,
	chests ChestRepository,
	streaks *StreakService,
	milestone *MilestoneService,
	narrative NarrativeGenerator,
	roll RollSource,
	clock Clock,
) *ChestService {
	return &ChestService{
		profiles:  profiles,
		quests:    quests,
		chests:    chests,
		streaks:   streaks,
		milestone: milestone,
		narrative: narrative,
		roll:      roll,
		clock:     clock,
	}
}

// Open opens today's chest. The chest unlocks only once every quest of the
// day is done; opening it records the day as cleared, extends the streak and
// may cross a milestone. Each open always yields one themed loot item and,
// on a lucky or pity roll, a bonus freeze token.
func (s *ChestService) Open(ctx context.Context, userID int64) (*model.ChestOpenResult, error) {
	log := logger.Logger()
	today := model.FormatDay(s.clock.Now())

	todayQuests, err := s.quests.QuestsByDate(ctx, userID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch today's quests: %w", err)
	}
	if len(todayQuests) == 0 {
		return nil, ErrChestNotAvailable
	}
	for _, q := range todayQuests {
		if q.Status != model.QuestDone {
			return nil, ErrChestNotAvailable
		}
	}

	chest, err := s.ensureChest(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	if chest.Opened {
		return nil, ErrChestAlreadyOpened
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	result := &model.ChestOpenResult{}

	counter := profile.ChestOpenCounter + 1
	tokens := profile.FreezeTokenCount
	switch {
	case counter >= pityThreshold:
		result.FreezeTokenWon = true
		result.Pity = true
		tokens++
		counter = 0
	case s.roll.Roll() < luckyTokenChance:
		result.FreezeTokenWon = true
		tokens++
		counter = 0
	}

	rarity := s.rollRarity()
	theme, err := s.narrative.TreasureLoot(ctx, rarity, false)
	if err != nil {
		return nil, fmt.Errorf("failed to theme chest loot: %w", err)
	}

	loot := &model.Loot{
		ID:         uuid.New(),
		Owner:      userID,
		Name:       theme.Name,
		FlavorText: theme.FlavorText,
		Icon:       theme.Icon,
		Rarity:     rarity,
		ObtainedAt: s.clock.Now(),
	}

	if err := s.chests.RecordChestOpen(ctx, chest, loot, counter, tokens); err != nil {
		return nil, fmt.Errorf("failed to record chest open: %w", err)
	}
	result.Loot = loot

	newStreak, changed, err := s.streaks.RecordClear(ctx, userID, today)
	if err != nil {
		// The chest is already committed; failing here would leave the open
		// unretryable. Keep the loot and report the unchanged streak.
		log.Error("failed to record day clear after chest open",
			zap.Int64("user_id", userID),
			zap.String("day", today),
			zap.Error(err))
		newStreak = profile.StreakCount
		changed = false
	}
	result.NewStreak = newStreak

	if changed {
		milestone, err := s.milestone.Award(ctx, userID, newStreak)
		if err != nil {
			// The chest itself is already committed; surface the miss in
			// the logs rather than failing the open.
			log.Error("failed to award milestone after chest open",
				zap.Int64("user_id", userID),
				zap.Int("streak", newStreak),
				zap.Error(err))
		} else {
			result.Milestone = milestone
		}
	}

	log.Info("chest opened",
		zap.Int64("user_id", userID),
		zap.String("day", today),
		zap.String("rarity", string(rarity)),
		zap.Bool("freeze_token_won", result.FreezeTokenWon),
		zap.Bool("pity", result.Pity),
		zap.Int("streak", newStreak))

	return result, nil
}

// ensureChest lazily creates today's chest row. A concurrent creator winning
// the race is fine: the row is re-read.
func (s *ChestService) ensureChest(ctx context.Context, userID int64, today string) (*model.DailyChest, error) {
	chest, err := s.chests.ChestByDate(ctx, userID, today)
	if err == nil {
		return chest, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	chest = &model.DailyChest{
		ID:    uuid.New(),
		Owner: userID,
		Date:  today,
	}
	if err := s.chests.CreateChest(ctx, chest); err != nil {
		if errors.Is(err, repository.ErrChestExists) {
			return s.chests.ChestByDate(ctx, userID, today)
		}
		return nil, err
	}
	return chest, nil
}

// rollRarity maps one uniform roll in [0, 100) onto the drop table:
// Common 70%, Rare 20%, Epic 8%, Legendary 2%.
func (s *ChestService) rollRarity() model.Rarity {
	r := s.roll.Roll()
	switch {
	case r < 70:
		return model.RarityCommon
	case r < 90:
		return model.RarityRare
	case r < 98:
		return model.RarityEpic
	default:
		return model.RarityLegendary
	}
}
