package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"starfall_questboard/internal/model"
	"starfall_questboard/internal/repository"
	"starfall_questboard/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type milestoneDef struct {
	days   int
	title  string
	tokens int
	icon   string
}

// Streak thresholds. Each awards a title, bonus freeze tokens and a
// commemorative Legendary keepsake. Exact-match only: a restored streak that
// jumps past a threshold does not retro-award it.
var milestoneTable = []milestoneDef{
	{days: 7, title: "Rising Adventurer", tokens: 1, icon: "🌟"},
	{days: 21, title: "Elite Challenger", tokens: 2, icon: "⚔️"},
	{days: 50, title: "Streak Master", tokens: 3, icon: "🏆"},
	{days: 100, title: "Undying Legend", tokens: 5, icon: "👑"},
}

// MilestoneService awards streak thresholds at most once per user.
type MilestoneService struct {
	profiles  ProfileRepository
	loot      LootRepository
	narrative NarrativeGenerator
	clock     Clock
}

func NewMilestoneService(profiles ProfileRepository, loot LootRepository, narrative NarrativeGenerator, clock Clock) *MilestoneService {
	return &MilestoneService{
		profiles:  profiles,
		loot:      loot,
		narrative: narrative,
		clock:     clock,
	}
}

// Award checks whether newStreak lands exactly on an unclaimed threshold and,
// if so, mints the keepsake and applies the reward atomically. Returns nil
// when no milestone was crossed.
func (s *MilestoneService) Award(ctx context.Context, userID int64, newStreak int) (*model.MilestoneReward, error) {
	var def *milestoneDef
	for i := range milestoneTable {
		if milestoneTable[i].days == newStreak {
			def = &milestoneTable[i]
			break
		}
	}
	if def == nil {
		return nil, nil
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if profile.HasMilestone(def.days) {
		return nil, nil
	}

	log := logger.Logger()

	theme, err := s.narrative.MilestoneLoot(ctx, def.days, def.title, def.icon)
	if err != nil {
		// The tokens and title must not be lost to a flaky text service.
		log.Warn("milestone narrative unavailable, using fallback theme",
			zap.Int64("user_id", userID),
			zap.Int("days", def.days),
			zap.Error(err))
		theme = &model.LootTheme{
			Name:       fmt.Sprintf("%s Keepsake of the %d-Day Streak", def.title, def.days),
			FlavorText: fmt.Sprintf("Struck to honor an unbroken run of %d days.", def.days),
			Icon:       def.icon,
		}
	}

	keepsake := &model.Loot{
		ID:         uuid.New(),
		Owner:      userID,
		Name:       theme.Name,
		FlavorText: theme.FlavorText,
		Icon:       theme.Icon,
		Rarity:     model.RarityLegendary,
		ObtainedAt: s.now(),
	}

	if err := s.loot.AwardMilestone(ctx, userID, keepsake, def.tokens, def.title, def.days); err != nil {
		return nil, fmt.Errorf("failed to award milestone: %w", err)
	}

	log.Info("milestone awarded",
		zap.Int64("user_id", userID),
		zap.Int("days", def.days),
		zap.String("title", def.title))

	return &model.MilestoneReward{
		Days:   def.days,
		Title:  def.title,
		Tokens: def.tokens,
		Icon:   def.icon,
		Loot:   keepsake,
	}, nil
}

func (s *MilestoneService) now() time.Time {
	if s.clock != nil {
		return s.clock.Now()
	}
	return time.Now()
}
