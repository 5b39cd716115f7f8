package repository

import (
	"context"
	"fmt"

	"starfall_questboard/internal/model"

	"github.com/Masterminds/squirrel"
)

// The rollover ledger is the durable idempotency marker: one row per
// (owner, day), inserted only after a rollover ran to completion without
// suspending. The unique constraint is what makes concurrent rollover
// attempts from multiple devices safe.

func (r *Repository) HasRolloverRun(ctx context.Context, owner int64, day string) (bool, error) {
	rolloverDate, err := model.ParseDay(day)
	if err != nil {
		return false, fmt.Errorf("invalid day %q: %w", day, err)
	}

	query, args, err := squirrel.
		Select("COUNT(1)").
		From("rollover_ledger").
		Where(squirrel.Eq{"owner_id": owner, "rollover_date": rolloverDate}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, err
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *Repository) MarkRolloverRun(ctx context.Context, owner int64, day string) error {
	rolloverDate, err := model.ParseDay(day)
	if err != nil {
		return fmt.Errorf("invalid day %q: %w", day, err)
	}

	query, args, err := squirrel.
		Insert("rollover_ledger").
		Columns("owner_id", "rollover_date").
		Values(owner, rolloverDate).
		Suffix("ON CONFLICT (owner_id, rollover_date) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to mark rollover: %w", err)
	}

	return nil
}
