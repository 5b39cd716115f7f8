package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"starfall_questboard/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type chestRow struct {
	ID        uuid.UUID      `db:"id"`
	Owner     int64          `db:"owner_id"`
	ChestDate time.Time      `db:"chest_date"`
	Opened    bool           `db:"opened"`
	LootIDs   pq.StringArray `db:"loot_ids"`
}

func (c *chestRow) toModel() (*model.DailyChest, error) {
	lootIDs := make([]uuid.UUID, len(c.LootIDs))
	for i, raw := range c.LootIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("malformed loot id %q: %w", raw, err)
		}
		lootIDs[i] = id
	}

	return &model.DailyChest{
		ID:      c.ID,
		Owner:   c.Owner,
		Date:    model.FormatDay(c.ChestDate),
		Opened:  c.Opened,
		LootIDs: lootIDs,
	}, nil
}

func (r *Repository) ChestByDate(ctx context.Context, owner int64, day string) (*model.DailyChest, error) {
	chestDate, err := model.ParseDay(day)
	if err != nil {
		return nil, fmt.Errorf("invalid day %q: %w", day, err)
	}

	query, args, err := squirrel.
		Select("id", "owner_id", "chest_date", "opened", "loot_ids").
		From("daily_chests").
		Where(squirrel.Eq{"owner_id": owner, "chest_date": chestDate}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row chestRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel()
}

func (r *Repository) CreateChest(ctx context.Context, chest *model.DailyChest) error {
	chestDate, err := model.ParseDay(chest.Date)
	if err != nil {
		return fmt.Errorf("invalid day %q: %w", chest.Date, err)
	}

	query, args, err := squirrel.
		Insert("daily_chests").
		SetMap(map[string]interface{}{
			"id":         chest.ID,
			"owner_id":   chest.Owner,
			"chest_date": chestDate,
			"opened":     chest.Opened,
			"loot_ids":   lootIDStrings(chest.LootIDs),
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build chest insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrChestExists
		}
		return fmt.Errorf("failed to insert chest: %w", err)
	}

	return nil
}

func (r *Repository) OpenedChestsBefore(ctx context.Context, owner int64, cutoff string) ([]*model.DailyChest, error) {
	cutoffDate, err := model.ParseDay(cutoff)
	if err != nil {
		return nil, fmt.Errorf("invalid day %q: %w", cutoff, err)
	}

	query, args, err := squirrel.
		Select("id", "owner_id", "chest_date", "opened", "loot_ids").
		From("daily_chests").
		Where(squirrel.Eq{"owner_id": owner, "opened": true}).
		Where(squirrel.Lt{"chest_date": cutoffDate}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*chestRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []*model.DailyChest{}, nil
		}
		return nil, err
	}

	chests := make([]*model.DailyChest, 0, len(rows))
	for _, row := range rows {
		chest, err := row.toModel()
		if err != nil {
			return nil, err
		}
		chests = append(chests, chest)
	}
	return chests, nil
}

func (r *Repository) DeleteChest(ctx context.Context, owner int64, id uuid.UUID) error {
	query, args, err := squirrel.
		Delete("daily_chests").
		Where(squirrel.Eq{"id": id, "owner_id": owner}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	return r.execExpectingRow(ctx, query, args)
}

// RecordChestOpen atomically persists everything a chest open produced: the
// generated loot row, the opened chest with its loot list, and the pity
// counter / freeze token state on the profile.
func (r *Repository) RecordChestOpen(ctx context.Context, chest *model.DailyChest, loot *model.Loot, counter, freezeTokens int) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := createLootTx(ctx, tx, loot); err != nil {
			return err
		}

		lootIDs := append(chest.LootIDs, loot.ID)

		query, args, err := squirrel.
			Update("daily_chests").
			SetMap(map[string]interface{}{
				"opened":   true,
				"loot_ids": lootIDStrings(lootIDs),
			}).
			Where(squirrel.Eq{"id": chest.ID, "owner_id": chest.Owner}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to mark chest opened: %w", err)
		}

		query, args, err = squirrel.
			Update("progress_profiles").
			SetMap(map[string]interface{}{
				"chest_open_counter": counter,
				"freeze_token_count": freezeTokens,
			}).
			Where(squirrel.Eq{"telegram_id": chest.Owner}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to update chest counter: %w", err)
		}

		return nil
	})
}

func lootIDStrings(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
