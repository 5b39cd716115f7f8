package service

import (
	"context"
	"errors"
	"fmt"

	"starfall_questboard/internal/model"
	"starfall_questboard/internal/repository"
	"starfall_questboard/pkg/logger"

	"go.uber.org/zap"
)

// ProfileService manages the progress profile itself: first-launch creation,
// rest days and the admin streak restore.
type ProfileService struct {
	profiles ProfileRepository
	quests   QuestRepository
	clock    Clock
}

func NewProfileService(profiles ProfileRepository, quests QuestRepository, clock Clock) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		quests:   quests,
		clock:    clock,
	}
}

// Get returns the user's profile, creating a zeroed one on first contact.
func (s *ProfileService) Get(ctx context.Context, userID int64) (*model.ProgressProfile, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if err := s.profiles.CreateProfile(ctx, userID); err != nil &&
		!errors.Is(err, repository.ErrProfileExists) {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return s.profiles.GetProfile(ctx, userID)
}

// ToggleRestDay flips a calendar day's rest status. Declaring a rest day is
// refused while that day already has quests scheduled; clearing one is always
// allowed.
func (s *ProfileService) ToggleRestDay(ctx context.Context, userID int64, day string) ([]string, error) {
	if _, err := model.ParseDay(day); err != nil {
		return nil, fmt.Errorf("invalid day %q: %w", day, err)
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var days []string
	if profile.IsRestDay(day) {
		days = make([]string, 0, len(profile.RestDays))
		for _, d := range profile.RestDays {
			if d != day {
				days = append(days, d)
			}
		}
	} else {
		quests, err := s.quests.QuestsByDate(ctx, userID, day)
		if err != nil {
			return nil, err
		}
		if len(quests) > 0 {
			return nil, ErrRestDayHasQuests
		}
		days = append(profile.RestDays, day)
	}

	if err := s.profiles.UpdateRestDays(ctx, userID, days); err != nil {
		return nil, fmt.Errorf("failed to update rest days: %w", err)
	}
	return days, nil
}

// RestoreStreak is the admin escape hatch for streaks lost to bugs or
// mistaken break decisions. It sets the streak and token count directly and
// stamps yesterday as the last clear so today's clear continues the run.
// Restored streaks do not retro-award milestones.
func (s *ProfileService) RestoreStreak(ctx context.Context, userID int64, streak, tokens int) error {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	longest := profile.LongestStreak
	if streak > longest {
		longest = streak
	}

	yesterday, err := model.ShiftDay(model.FormatDay(s.clock.Now()), -1)
	if err != nil {
		return err
	}

	if err := s.profiles.RestoreStreak(ctx, userID, streak, longest, tokens, yesterday); err != nil {
		return fmt.Errorf("failed to restore streak: %w", err)
	}

	logger.Logger().Info("streak restored by admin",
		zap.Int64("user_id", userID),
		zap.Int("streak", streak),
		zap.Int("tokens", tokens))
	return nil
}
