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
)

type projectRow struct {
	ID             uuid.UUID  `db:"id"`
	Owner          int64      `db:"owner_id"`
	ProjectName    string     `db:"project_name"`
	Description    string     `db:"description"`
	Status         string     `db:"status"`
	CompletionDate *time.Time `db:"completion_date"`
}

func (p *projectRow) toModel() *model.LongTermProject {
	project := &model.LongTermProject{
		ID:          p.ID,
		Owner:       p.Owner,
		ProjectName: p.ProjectName,
		Description: p.Description,
		Status:      model.ProjectStatus(p.Status),
	}
	if p.CompletionDate != nil {
		d := model.FormatDay(*p.CompletionDate)
		project.CompletionDate = &d
	}
	return project
}

func (r *Repository) CreateProject(ctx context.Context, project *model.LongTermProject) error {
	query, args, err := squirrel.
		Insert("long_term_projects").
		SetMap(map[string]interface{}{
			"id":           project.ID,
			"owner_id":     project.Owner,
			"project_name": project.ProjectName,
			"description":  project.Description,
			"status":       string(project.Status),
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build project insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}

	return nil
}

func (r *Repository) ProjectsByOwner(ctx context.Context, owner int64) ([]*model.LongTermProject, error) {
	query, args, err := squirrel.
		Select("id", "owner_id", "project_name", "description", "status", "completion_date").
		From("long_term_projects").
		Where(squirrel.Eq{"owner_id": owner}).
		OrderBy("project_name").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*projectRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []*model.LongTermProject{}, nil
		}
		return nil, err
	}

	projects := make([]*model.LongTermProject, len(rows))
	for i, row := range rows {
		projects[i] = row.toModel()
	}
	return projects, nil
}

func (r *Repository) ProjectByID(ctx context.Context, owner int64, id uuid.UUID) (*model.LongTermProject, error) {
	query, args, err := squirrel.
		Select("id", "owner_id", "project_name", "description", "status", "completion_date").
		From("long_term_projects").
		Where(squirrel.Eq{"id": id, "owner_id": owner}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row projectRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel(), nil
}

func (r *Repository) CompletedProjectsBefore(ctx context.Context, owner int64, cutoff string) ([]*model.LongTermProject, error) {
	cutoffDate, err := model.ParseDay(cutoff)
	if err != nil {
		return nil, fmt.Errorf("invalid day %q: %w", cutoff, err)
	}

	query, args, err := squirrel.
		Select("id", "owner_id", "project_name", "description", "status", "completion_date").
		From("long_term_projects").
		Where(squirrel.Eq{"owner_id": owner, "status": string(model.ProjectCompleted)}).
		Where(squirrel.Lt{"completion_date": cutoffDate}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []*projectRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []*model.LongTermProject{}, nil
		}
		return nil, err
	}

	projects := make([]*model.LongTermProject, len(rows))
	for i, row := range rows {
		projects[i] = row.toModel()
	}
	return projects, nil
}

func (r *Repository) CompleteProject(ctx context.Context, owner int64, id uuid.UUID, completionDate string) error {
	date, err := model.ParseDay(completionDate)
	if err != nil {
		return fmt.Errorf("invalid day %q: %w", completionDate, err)
	}

	query, args, err := squirrel.
		Update("long_term_projects").
		SetMap(map[string]interface{}{
			"status":          string(model.ProjectCompleted),
			"completion_date": date,
		}).
		Where(squirrel.Eq{"id": id, "owner_id": owner}).
		Where(squirrel.Eq{"status": string(model.ProjectActive)}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	return r.execExpectingRow(ctx, query, args)
}

// DeleteProjectCascade removes a project together with every quest that
// references it, returning how many quests went with it.
func (r *Repository) DeleteProjectCascade(ctx context.Context, owner int64, id uuid.UUID) (int64, error) {
	var questsDeleted int64

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		deleted, err := deleteQuestsByProjectTx(ctx, tx, owner, id)
		if err != nil {
			return fmt.Errorf("failed to delete project quests: %w", err)
		}
		questsDeleted = deleted

		query, args, err := squirrel.
			Delete("long_term_projects").
			Where(squirrel.Eq{"id": id, "owner_id": owner}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
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
	if err != nil {
		return 0, err
	}

	return questsDeleted, nil
}
