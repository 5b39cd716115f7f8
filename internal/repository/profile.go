package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"starfall_questboard/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

type profileRow struct {
	TelegramID           int64          `db:"telegram_id"`
	StreakCount          int            `db:"streak_count"`
	LongestStreak        int            `db:"longest_streak"`
	FreezeTokenCount     int            `db:"freeze_token_count"`
	RestDays             pq.StringArray `db:"rest_days"`
	LastClearDate        *time.Time     `db:"last_clear_date"`
	NextDayPlannedQuests []byte         `db:"next_day_planned_quests"`
	LastPlannedDate      *time.Time     `db:"last_planned_date"`
	UnlockedMilestones   pq.Int64Array  `db:"unlocked_milestones"`
	Title                *string        `db:"title"`
	ChestOpenCounter     int            `db:"chest_open_counter"`
	StreakManuallyReset  bool           `db:"streak_manually_reset"`
}

func (p *profileRow) toModel() (*model.ProgressProfile, error) {
	var planned []model.PlannedQuest
	if len(p.NextDayPlannedQuests) > 0 {
		if err := json.Unmarshal(p.NextDayPlannedQuests, &planned); err != nil {
			return nil, fmt.Errorf("failed to decode planned quests: %w", err)
		}
	}

	milestones := make([]int, len(p.UnlockedMilestones))
	for i, m := range p.UnlockedMilestones {
		milestones[i] = int(m)
	}

	profile := &model.ProgressProfile{
		TelegramID:           p.TelegramID,
		StreakCount:          p.StreakCount,
		LongestStreak:        p.LongestStreak,
		FreezeTokenCount:     p.FreezeTokenCount,
		RestDays:             p.RestDays,
		NextDayPlannedQuests: planned,
		UnlockedMilestones:   milestones,
		Title:                p.Title,
		ChestOpenCounter:     p.ChestOpenCounter,
		StreakManuallyReset:  p.StreakManuallyReset,
	}

	if p.LastClearDate != nil {
		d := model.FormatDay(*p.LastClearDate)
		profile.LastClearDate = &d
	}
	if p.LastPlannedDate != nil {
		d := model.FormatDay(*p.LastPlannedDate)
		profile.LastPlannedDate = &d
	}

	return profile, nil
}

func (r *Repository) CreateProfile(ctx context.Context, telegramID int64) error {
	query, args, err := squirrel.
		Insert("progress_profiles").
		SetMap(map[string]interface{}{
			"telegram_id":             telegramID,
			"streak_count":            0,
			"longest_streak":          0,
			"freeze_token_count":      0,
			"rest_days":               pq.StringArray{},
			"next_day_planned_quests": []byte("[]"),
			"unlocked_milestones":     pq.Int64Array{},
			"chest_open_counter":      0,
			"streak_manually_reset":   false,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build profile insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrProfileExists
		}
		return fmt.Errorf("failed to insert profile: %w", err)
	}

	return nil
}

func (r *Repository) GetProfile(ctx context.Context, telegramID int64) (*model.ProgressProfile, error) {
	var row profileRow

	query, args, err := squirrel.
		Select("*").
		From("progress_profiles").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel()
}

func (r *Repository) updateProfile(ctx context.Context, telegramID int64, fields map[string]interface{}) error {
	query, args, err := squirrel.
		Update("progress_profiles").
		SetMap(fields).
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	return r.execExpectingRow(ctx, query, args)
}

// UpdateStreak records a streak increment after a fully cleared day.
func (r *Repository) UpdateStreak(ctx context.Context, telegramID int64, streak, longest int, lastClear string) error {
	clearDate, err := model.ParseDay(lastClear)
	if err != nil {
		return fmt.Errorf("invalid day %q: %w", lastClear, err)
	}

	return r.updateProfile(ctx, telegramID, map[string]interface{}{
		"streak_count":    streak,
		"longest_streak":  longest,
		"last_clear_date": clearDate,
	})
}

// SpendFreezeToken consumes one token and marks yesterday as handled. The
// streak itself is untouched.
func (r *Repository) SpendFreezeToken(ctx context.Context, telegramID int64, lastClear string) error {
	clearDate, err := model.ParseDay(lastClear)
	if err != nil {
		return fmt.Errorf("invalid day %q: %w", lastClear, err)
	}

	query, args, err := squirrel.
		Update("progress_profiles").
		Set("freeze_token_count", squirrel.Expr("freeze_token_count - 1")).
		Set("last_clear_date", clearDate).
		Where(squirrel.Eq{"telegram_id": telegramID}).
		Where(squirrel.Gt{"freeze_token_count": 0}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	return r.execExpectingRow(ctx, query, args)
}

// BreakStreak zeroes the streak by user choice and marks yesterday handled.
func (r *Repository) BreakStreak(ctx context.Context, telegramID int64, lastClear string) error {
	clearDate, err := model.ParseDay(lastClear)
	if err != nil {
		return fmt.Errorf("invalid day %q: %w", lastClear, err)
	}

	return r.updateProfile(ctx, telegramID, map[string]interface{}{
		"streak_count":          0,
		"streak_manually_reset": true,
		"last_clear_date":       clearDate,
	})
}

func (r *Repository) UpdatePlanQueue(ctx context.Context, telegramID int64, planned []model.PlannedQuest, lastPlanned string) error {
	plannedDate, err := model.ParseDay(lastPlanned)
	if err != nil {
		return fmt.Errorf("invalid day %q: %w", lastPlanned, err)
	}

	if planned == nil {
		planned = []model.PlannedQuest{}
	}
	encoded, err := json.Marshal(planned)
	if err != nil {
		return fmt.Errorf("failed to encode planned quests: %w", err)
	}

	return r.updateProfile(ctx, telegramID, map[string]interface{}{
		"next_day_planned_quests": encoded,
		"last_planned_date":       plannedDate,
	})
}

func (r *Repository) UpdateRestDays(ctx context.Context, telegramID int64, days []string) error {
	return r.updateProfile(ctx, telegramID, map[string]interface{}{
		"rest_days": pq.StringArray(days),
	})
}

// RestoreStreak is the support path that repairs a lost streak.
func (r *Repository) RestoreStreak(ctx context.Context, telegramID int64, streak, longest, tokens int, lastClear string) error {
	clearDate, err := model.ParseDay(lastClear)
	if err != nil {
		return fmt.Errorf("invalid day %q: %w", lastClear, err)
	}

	return r.updateProfile(ctx, telegramID, map[string]interface{}{
		"streak_count":          streak,
		"longest_streak":        longest,
		"freeze_token_count":    tokens,
		"last_clear_date":       clearDate,
		"streak_manually_reset": false,
	})
}
