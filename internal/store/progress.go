package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// progressRepo implements ProgressRepo.
type progressRepo struct {
	db *sql.DB
}

var progressColumns = []string{
	"learner_id", "module_id", "current_page_index", "completed_sections", "answers",
	"completion_percentage", "is_completed", "completed_at", "updated_at",
}

func (r *progressRepo) Save(ctx context.Context, p ProgressData) error {
	completed := p.CompletedSections
	if completed == nil {
		completed = []string{}
	}
	completedJSON, err := json.Marshal(completed)
	if err != nil {
		return fmt.Errorf("marshal completed sections: %w", err)
	}
	answers := p.Answers
	if answers == nil {
		answers = map[string]string{}
	}
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	var completedAt any
	if p.CompletedAt != nil {
		completedAt = *p.CompletedAt
	}

	q, args := builder().Insert(tableProgress).
		Columns(progressColumns...).
		Values(p.LearnerID, p.ModuleID, p.CurrentPageIndex, string(completedJSON), string(answersJSON),
			p.CompletionPercentage, p.IsCompleted, completedAt, p.UpdatedAt).
		OnConflict(
			entsql.ConflictColumns("learner_id", "module_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (r *progressRepo) Load(ctx context.Context, learnerID, moduleID string) (*ProgressData, error) {
	b := builder()
	q, args := b.Select(progressColumns...).
		From(b.Table(tableProgress)).
		Where(entsql.And(entsql.EQ("learner_id", learnerID), entsql.EQ("module_id", moduleID))).
		Limit(1).
		Query()

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query progress: %w", err)
		}
		return nil, fmt.Errorf("progress for %s/%s: %w", learnerID, moduleID, ErrNotFound)
	}
	p, err := scanProgress(rows)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *progressRepo) ListByLearner(ctx context.Context, learnerID string) ([]ProgressData, error) {
	b := builder()
	q, args := b.Select(progressColumns...).
		From(b.Table(tableProgress)).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy(entsql.Asc("module_id")).
		Query()

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var out []ProgressData
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProgress(rows *sql.Rows) (ProgressData, error) {
	var (
		p             ProgressData
		completedJSON []byte
		answersJSON   []byte
		completedAt   sql.NullTime
	)
	if err := rows.Scan(&p.LearnerID, &p.ModuleID, &p.CurrentPageIndex, &completedJSON, &answersJSON,
		&p.CompletionPercentage, &p.IsCompleted, &completedAt, &p.UpdatedAt); err != nil {
		return ProgressData{}, fmt.Errorf("scan progress: %w", err)
	}
	if err := json.Unmarshal(completedJSON, &p.CompletedSections); err != nil {
		return ProgressData{}, fmt.Errorf("decode completed sections: %w", err)
	}
	if err := json.Unmarshal(answersJSON, &p.Answers); err != nil {
		return ProgressData{}, fmt.Errorf("decode answers: %w", err)
	}
	if completedAt.Valid {
		t := completedAt.Time
		p.CompletedAt = &t
	}
	return p, nil
}
