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

type questRow struct {
	ID                 uuid.UUID      `db:"id"`
	Owner              int64          `db:"owner_id"`
	Title              string         `db:"title"`
	ActionHint         string         `db:"action_hint"`
	OriginalActionHint *string        `db:"original_action_hint"`
	Difficulty         string         `db:"difficulty"`
	Rarity             string         `db:"rarity"`
	QuestDate          time.Time      `db:"quest_date"`
	Status             string         `db:"status"`
	Source             string         `db:"source"`
	IsRoutine          bool           `db:"is_routine"`
	IsLongTermProject  bool           `db:"is_long_term_project"`
	LongTermProjectID  *uuid.UUID     `db:"long_term_project_id"`
	Tags               pq.StringArray `db:"tags"`
	CreatedAt          time.Time      `db:"created_at"`
}

var questColumns = []string{
	"id", "owner_id", "title", "action_hint", "original_action_hint",
	"difficulty", "rarity", "quest_date", "status", "source",
	"is_routine", "is_long_term_project", "long_term_project_id",
	"tags", "created_at",
}

func (q *questRow) toModel() *model.Quest {
	return &model.Quest{
		ID:                 q.ID,
		Owner:              q.Owner,
		Title:              q.Title,
		ActionHint:         q.ActionHint,
		OriginalActionHint: q.OriginalActionHint,
		Difficulty:         model.Difficulty(q.Difficulty),
		Rarity:             model.Rarity(q.Rarity),
		Date:               model.FormatDay(q.QuestDate),
		Status:             model.QuestStatus(q.Status),
		Source:             model.QuestSource(q.Source),
		IsRoutine:          q.IsRoutine,
		IsLongTermProject:  q.IsLongTermProject,
		LongTermProjectID:  q.LongTermProjectID,
		Tags:               q.Tags,
		CreatedAt:          q.CreatedAt,
	}
}

func (r *Repository) CreateQuest(ctx context.Context, quest *model.Quest) error {
	questDate, err := model.ParseDay(quest.Date)
	if err != nil {
		return fmt.Errorf("invalid quest date %q: %w", quest.Date, err)
	}

	query, args, err := squirrel.
		Insert("quests").
		SetMap(map[string]interface{}{
			"id":                   quest.ID,
			"owner_id":             quest.Owner,
			"title":                quest.Title,
			"action_hint":          quest.ActionHint,
			"original_action_hint": quest.OriginalActionHint,
			"difficulty":           string(quest.Difficulty),
			"rarity":               string(quest.Rarity),
			"quest_date":           questDate,
			"status":               string(quest.Status),
			"source":               string(quest.Source),
			"is_routine":           quest.IsRoutine,
			"is_long_term_project": quest.IsLongTermProject,
			"long_term_project_id": quest.LongTermProjectID,
			"tags":                 pq.StringArray(quest.Tags),
			"created_at":           quest.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build quest insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateRoutine
		}
		return fmt.Errorf("failed to insert quest: %w", err)
	}

	return nil
}

func (r *Repository) QuestByID(ctx context.Context, owner int64, id uuid.UUID) (*model.Quest, error) {
	query, args, err := squirrel.
		Select(questColumns...).
		From("quests").
		Where(squirrel.Eq{"id": id, "owner_id": owner}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row questRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel(), nil
}

func (r *Repository) questsWhere(ctx context.Context, pred squirrel.Sqlizer) ([]*model.Quest, error) {
	query, args, err := squirrel.
		Select(questColumns...).
		From("quests").
		Where(pred).
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*questRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []*model.Quest{}, nil
		}
		return nil, err
	}

	quests := make([]*model.Quest, len(rows))
	for i, row := range rows {
		quests[i] = row.toModel()
	}
	return quests, nil
}

func (r *Repository) QuestsByDate(ctx context.Context, owner int64, day string) ([]*model.Quest, error) {
	questDate, err := model.ParseDay(day)
	if err != nil {
		return nil, fmt.Errorf("invalid day %q: %w", day, err)
	}
	return r.questsWhere(ctx, squirrel.Eq{"owner_id": owner, "quest_date": questDate})
}

func (r *Repository) TodoQuestsByDate(ctx context.Context, owner int64, day string) ([]*model.Quest, error) {
	questDate, err := model.ParseDay(day)
	if err != nil {
		return nil, fmt.Errorf("invalid day %q: %w", day, err)
	}
	return r.questsWhere(ctx, squirrel.Eq{
		"owner_id":   owner,
		"quest_date": questDate,
		"status":     string(model.QuestTodo),
	})
}

// RoutineQuests returns every routine quest of the owner, newest first, so the
// materializer can pick the most recent row per template as canonical.
func (r *Repository) RoutineQuests(ctx context.Context, owner int64) ([]*model.Quest, error) {
	return r.questsWhere(ctx, squirrel.Eq{"owner_id": owner, "is_routine": true})
}

func (r *Repository) DoneQuests(ctx context.Context, owner int64) ([]*model.Quest, error) {
	return r.questsWhere(ctx, squirrel.Eq{"owner_id": owner, "status": string(model.QuestDone)})
}

func (r *Repository) QuestsByProject(ctx context.Context, owner int64, projectID uuid.UUID) ([]*model.Quest, error) {
	return r.questsWhere(ctx, squirrel.Eq{"owner_id": owner, "long_term_project_id": projectID})
}

// UpdateQuestDate moves a quest to another day in place, preserving its id.
func (r *Repository) UpdateQuestDate(ctx context.Context, owner int64, id uuid.UUID, day string) error {
	questDate, err := model.ParseDay(day)
	if err != nil {
		return fmt.Errorf("invalid day %q: %w", day, err)
	}

	query, args, err := squirrel.
		Update("quests").
		Set("quest_date", questDate).
		Where(squirrel.Eq{"id": id, "owner_id": owner}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	return r.execExpectingRow(ctx, query, args)
}

func (r *Repository) UpdateQuestStatus(ctx context.Context, owner int64, id uuid.UUID, status model.QuestStatus) error {
	query, args, err := squirrel.
		Update("quests").
		Set("status", string(status)).
		Where(squirrel.Eq{"id": id, "owner_id": owner}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	return r.execExpectingRow(ctx, query, args)
}

func (r *Repository) DeleteQuest(ctx context.Context, owner int64, id uuid.UUID) error {
	query, args, err := squirrel.
		Delete("quests").
		Where(squirrel.Eq{"id": id, "owner_id": owner}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	return r.execExpectingRow(ctx, query, args)
}

func (r *Repository) execExpectingRow(ctx context.Context, query string, args []interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func deleteQuestsByProjectTx(ctx context.Context, tx *sqlx.Tx, owner int64, projectID uuid.UUID) (int64, error) {
	query, args, err := squirrel.
		Delete("quests").
		Where(squirrel.Eq{"owner_id": owner, "long_term_project_id": projectID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
