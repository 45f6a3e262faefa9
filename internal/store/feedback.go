package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// feedbackRepo implements FeedbackRepo.
type feedbackRepo struct {
	db *sql.DB
}

func (r *feedbackRepo) SaveSection(ctx context.Context, f SectionFeedbackData) error {
	var helpful any
	if f.Helpful != nil {
		helpful = *f.Helpful
	}
	q, args := builder().Insert(tableSectionFeedback).
		Columns("learner_id", "module_id", "section_id", "helpful", "clarity", "difficulty", "comments", "created_at").
		Values(f.LearnerID, f.ModuleID, f.SectionID, helpful, f.Clarity, f.Difficulty, f.Comments, f.CreatedAt).
		OnConflict(
			entsql.ConflictColumns("learner_id", "module_id", "section_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("save section feedback: %w", err)
	}
	return nil
}

func (r *feedbackRepo) SectionsWithFeedback(ctx context.Context, learnerID, moduleID string) ([]string, error) {
	b := builder()
	q, args := b.Select("section_id").
		From(b.Table(tableSectionFeedback)).
		Where(entsql.And(entsql.EQ("learner_id", learnerID), entsql.EQ("module_id", moduleID))).
		OrderBy(entsql.Asc("section_id")).
		Query()

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query section feedback: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan section feedback: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *feedbackRepo) SaveModule(ctx context.Context, f ModuleFeedbackData) error {
	q, args := builder().Insert(tableModuleFeedback).
		Columns("learner_id", "module_id", "rating", "difficulty", "feedback_text", "suggestions", "created_at").
		Values(f.LearnerID, f.ModuleID, f.Rating, f.Difficulty, f.FeedbackText, f.Suggestions, f.CreatedAt).
		OnConflict(
			entsql.ConflictColumns("learner_id", "module_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("save module feedback: %w", err)
	}
	return nil
}

func (r *feedbackRepo) LoadModule(ctx context.Context, learnerID, moduleID string) (*ModuleFeedbackData, error) {
	b := builder()
	q, args := b.Select("learner_id", "module_id", "rating", "difficulty", "feedback_text", "suggestions", "created_at").
		From(b.Table(tableModuleFeedback)).
		Where(entsql.And(entsql.EQ("learner_id", learnerID), entsql.EQ("module_id", moduleID))).
		Query()

	var f ModuleFeedbackData
	err := r.db.QueryRowContext(ctx, q, args...).
		Scan(&f.LearnerID, &f.ModuleID, &f.Rating, &f.Difficulty, &f.FeedbackText, &f.Suggestions, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("module feedback %s/%s: %w", learnerID, moduleID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query module feedback: %w", err)
	}
	return &f, nil
}
