package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"starfall_questboard/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type lootRow struct {
	ID         uuid.UUID    `db:"id"`
	Owner      int64        `db:"owner_id"`
	Name       string       `db:"name"`
	FlavorText string       `db:"flavor_text"`
	Icon       string       `db:"icon"`
	Rarity     string       `db:"rarity"`
	ObtainedAt sql.NullTime `db:"obtained_at"`
}

func (l *lootRow) toModel() *model.Loot {
	loot := &model.Loot{
		ID:         l.ID,
		Owner:      l.Owner,
		Name:       l.Name,
		FlavorText: l.FlavorText,
		Icon:       l.Icon,
		Rarity:     model.Rarity(l.Rarity),
	}
	if l.ObtainedAt.Valid {
		loot.ObtainedAt = l.ObtainedAt.Time
	}
	return loot
}

func createLootTx(ctx context.Context, tx *sqlx.Tx, loot *model.Loot) error {
	query, args, err := squirrel.
		Insert("loot_items").
		SetMap(map[string]interface{}{
			"id":          loot.ID,
			"owner_id":    loot.Owner,
			"name":        loot.Name,
			"flavor_text": loot.FlavorText,
			"icon":        loot.Icon,
			"rarity":      string(loot.Rarity),
			"obtained_at": loot.ObtainedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build loot insert query: %w", err)
	}

	_, err = tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert loot: %w", err)
	}

	return nil
}

func (r *Repository) CreateLoot(ctx context.Context, loot *model.Loot) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		return createLootTx(ctx, tx, loot)
	})
}

func (r *Repository) ListLoot(ctx context.Context, owner int64) ([]*model.Loot, error) {
	query, args, err := squirrel.
		Select("id", "owner_id", "name", "flavor_text", "icon", "rarity", "obtained_at").
		From("loot_items").
		Where(squirrel.Eq{"owner_id": owner}).
		OrderBy("obtained_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*lootRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []*model.Loot{}, nil
		}
		return nil, err
	}

	items := make([]*model.Loot, len(rows))
	for i, row := range rows {
		items[i] = row.toModel()
	}
	return items, nil
}

func (r *Repository) LootByIDs(ctx context.Context, owner int64, ids []uuid.UUID) ([]*model.Loot, error) {
	if len(ids) == 0 {
		return []*model.Loot{}, nil
	}

	query, args, err := squirrel.
		Select("id", "owner_id", "name", "flavor_text", "icon", "rarity", "obtained_at").
		From("loot_items").
		Where(squirrel.Eq{"owner_id": owner, "id": ids}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*lootRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []*model.Loot{}, nil
		}
		return nil, err
	}

	items := make([]*model.Loot, len(rows))
	for i, row := range rows {
		items[i] = row.toModel()
	}
	return items, nil
}

// CraftExchange consumes the ingredient loot and creates the crafted item in
// a single transaction so a failure cannot eat materials without producing
// the result.
func (r *Repository) CraftExchange(ctx context.Context, crafted *model.Loot, consumed []uuid.UUID) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := createLootTx(ctx, tx, crafted); err != nil {
			return err
		}

		query, args, err := squirrel.
			Delete("loot_items").
			Where(squirrel.Eq{"owner_id": crafted.Owner, "id": consumed}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to delete consumed loot: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows != int64(len(consumed)) {
			return ErrNotFound
		}

		return nil
	})
}

// AwardMilestone persists a milestone grant: the commemorative loot, the
// token bonus, the new title and the unlocked threshold, atomically.
func (r *Repository) AwardMilestone(ctx context.Context, owner int64, loot *model.Loot, tokens int, title string, milestone int) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := createLootTx(ctx, tx, loot); err != nil {
			return err
		}

		query, args, err := squirrel.
			Update("progress_profiles").
			Set("freeze_token_count", squirrel.Expr("freeze_token_count + ?", tokens)).
			Set("title", title).
			Set("unlocked_milestones", squirrel.Expr("array_append(unlocked_milestones, ?)", milestone)).
			Where(squirrel.Eq{"telegram_id": owner}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to grant milestone: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNotFound
		}

		return nil
	})
}
