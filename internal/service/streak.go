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

// maxStreakLookback bounds the backward walk over rest days.
const maxStreakLookback = 365

// StreakService decides whether the prior day broke the streak and computes
// streak increments when a day is fully cleared.
type StreakService struct {
	profiles ProfileRepository
	quests   QuestRepository
}

func NewStreakService(profiles ProfileRepository, quests QuestRepository) *StreakService {
	return &StreakService{
		profiles: profiles,
		quests:   quests,
	}
}

// CheckBreak is rollover step 0. It returns a non-nil PendingDecision when
// yesterday left a protected streak at risk, which suspends the orchestrator.
func (s *StreakService) CheckBreak(ctx context.Context, userID int64, today, yesterday string) (*model.PendingDecision, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if profile.IsRestDay(yesterday) {
		return nil, nil
	}
	if profile.LastClearDate != nil &&
		(*profile.LastClearDate == yesterday || *profile.LastClearDate == today) {
		return nil, nil
	}

	yesterdayQuests, err := s.quests.QuestsByDate(ctx, userID, yesterday)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch yesterday's quests: %w", err)
	}
	if len(yesterdayQuests) == 0 {
		return nil, nil
	}

	allDone := true
	for _, q := range yesterdayQuests {
		if q.Status != model.QuestDone {
			allDone = false
			break
		}
	}
	if allDone {
		return nil, nil
	}

	// Nothing to protect: an unfinished day with no streak passes silently.
	if profile.StreakCount == 0 {
		return nil, nil
	}

	return &model.PendingDecision{
		IncompleteDays:   1,
		CurrentStreak:    profile.StreakCount,
		FreezeTokenCount: profile.FreezeTokenCount,
	}, nil
}

// Resolve applies the user's answer to a pending streak break and lets the
// rollover resume.
func (s *StreakService) Resolve(ctx context.Context, userID int64, yesterday string, decision model.StreakDecision) error {
	switch decision {
	case model.DecisionUseToken:
		profile, err := s.profiles.GetProfile(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if profile.FreezeTokenCount <= 0 {
			return ErrNoFreezeTokens
		}

		if err := s.profiles.SpendFreezeToken(ctx, userID, yesterday); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNoFreezeTokens
			}
			return fmt.Errorf("failed to spend freeze token: %w", err)
		}
		return nil

	case model.DecisionBreakStreak:
		if err := s.profiles.BreakStreak(ctx, userID, yesterday); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to break streak: %w", err)
		}
		return nil

	default:
		return ErrInvalidDecision
	}
}

// RecordClear runs on the "all quests done and chest opened" event. It walks
// backward from yesterday over rest days to find the previous working day and
// extends or restarts the streak accordingly. Returns the new streak and
// whether anything changed (false when today was already cleared).
func (s *StreakService) RecordClear(ctx context.Context, userID int64, today string) (int, bool, error) {
	log := logger.Logger()

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, false, ErrUserNotFound
		}
		return 0, false, err
	}

	if profile.LastClearDate != nil && *profile.LastClearDate == today {
		return profile.StreakCount, false, nil
	}

	newStreak := 1
	if profile.LastClearDate != nil {
		prevWorkDay, err := s.previousWorkDay(today, profile.RestDays)
		if err != nil {
			return 0, false, err
		}

		if prevWorkDay != "" && prevWorkDay == *profile.LastClearDate {
			newStreak = profile.StreakCount + 1
		}
	}

	newLongest := profile.LongestStreak
	if newStreak > newLongest {
		newLongest = newStreak
	}

	if err := s.profiles.UpdateStreak(ctx, userID, newStreak, newLongest, today); err != nil {
		return 0, false, fmt.Errorf("failed to update streak: %w", err)
	}

	log.Info("streak updated",
		zap.Int64("user_id", userID),
		zap.Int("streak", newStreak),
		zap.Int("longest", newLongest))

	return newStreak, true, nil
}

// previousWorkDay walks backward from the day before `today`, skipping rest
// days, and returns the first working day found (empty when the walk runs out
// of its bound).
func (s *StreakService) previousWorkDay(today string, restDays []string) (string, error) {
	day := today
	for i := 0; i < maxStreakLookback; i++ {
		prev, err := model.ShiftDay(day, -1)
		if err != nil {
			return "", err
		}
		day = prev

		isRest := false
		for _, d := range restDays {
			if d == day {
				isRest = true
				break
			}
		}
		if !isRest {
			return day, nil
		}
	}
	return "", nil
}
