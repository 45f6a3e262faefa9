package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// quizSessionRepo implements QuizSessionRepo.
type quizSessionRepo struct {
	db *sql.DB
}

func (r *quizSessionRepo) Save(ctx context.Context, s QuizSessionData) error {
	q, args := builder().Insert(tableQuizSessions).
		Columns("section_id", "learner_id", "module_id", "data", "updated_at").
		Values(s.SectionID, s.LearnerID, s.ModuleID, string(s.Data), s.UpdatedAt).
		OnConflict(
			entsql.ConflictColumns("section_id", "learner_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("save quiz session: %w", err)
	}
	return nil
}

func (r *quizSessionRepo) Load(ctx context.Context, sectionID, learnerID string) (*QuizSessionData, error) {
	b := builder()
	q, args := b.Select("section_id", "learner_id", "module_id", "data", "updated_at").
		From(b.Table(tableQuizSessions)).
		Where(entsql.And(entsql.EQ("section_id", sectionID), entsql.EQ("learner_id", learnerID))).
		Query()

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query quiz session: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query quiz session: %w", err)
		}
		return nil, fmt.Errorf("quiz session %s/%s: %w", sectionID, learnerID, ErrNotFound)
	}
	var s QuizSessionData
	if err := rows.Scan(&s.SectionID, &s.LearnerID, &s.ModuleID, &s.Data, &s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scan quiz session: %w", err)
	}
	return &s, nil
}

func (r *quizSessionRepo) Delete(ctx context.Context, sectionID, learnerID string) error {
	q, args := builder().Delete(tableQuizSessions).
		Where(entsql.And(entsql.EQ("section_id", sectionID), entsql.EQ("learner_id", learnerID))).
		Query()
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("delete quiz session: %w", err)
	}
	return nil
}

// attemptRepo implements AttemptRepo.
type attemptRepo struct {
	db *sql.DB
}

var attemptColumns = []string{
	"attempt_id", "learner_id", "module_id", "section_id", "attempt_number",
	"score", "max_score", "percentage", "passed", "answers",
	"time_taken_seconds", "started_at", "completed_at",
}

func (r *attemptRepo) Append(ctx context.Context, a QuizAttemptData) error {
	answers := a.Answers
	if len(answers) == 0 {
		answers = []byte("{}")
	}
	q, args := builder().Insert(tableQuizAttempts).
		Columns(attemptColumns...).
		Values(a.AttemptID, a.LearnerID, a.ModuleID, a.SectionID, a.AttemptNumber,
			a.Score, a.MaxScore, a.Percentage, a.Passed, string(answers),
			a.TimeTakenSeconds, a.StartedAt, a.CompletedAt).
		Query()
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("append quiz attempt: %w", err)
	}
	return nil
}

func (r *attemptRepo) LatestNumber(ctx context.Context, learnerID, moduleID, sectionID string) (int, error) {
	b := builder()
	q, args := b.Select(entsql.Max("attempt_number")).
		From(b.Table(tableQuizAttempts)).
		Where(entsql.And(
			entsql.EQ("learner_id", learnerID),
			entsql.EQ("module_id", moduleID),
			entsql.EQ("section_id", sectionID),
		)).
		Query()

	var n sql.NullInt64
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("latest attempt number: %w", err)
	}
	return int(n.Int64), nil
}

func (r *attemptRepo) List(ctx context.Context, learnerID, moduleID string, limit int) ([]QuizAttemptData, error) {
	preds := []*entsql.Predicate{entsql.EQ("learner_id", learnerID)}
	if moduleID != "" {
		preds = append(preds, entsql.EQ("module_id", moduleID))
	}
	b := builder()
	sel := b.Select(attemptColumns...).
		From(b.Table(tableQuizAttempts)).
		Where(entsql.And(preds...)).
		OrderBy(entsql.Desc("completed_at"), entsql.Desc("id"))
	if limit > 0 {
		sel.Limit(limit)
	}
	q, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list quiz attempts: %w", err)
	}
	defer rows.Close()

	var out []QuizAttemptData
	for rows.Next() {
		var a QuizAttemptData
		if err := rows.Scan(&a.AttemptID, &a.LearnerID, &a.ModuleID, &a.SectionID, &a.AttemptNumber,
			&a.Score, &a.MaxScore, &a.Percentage, &a.Passed, &a.Answers,
			&a.TimeTakenSeconds, &a.StartedAt, &a.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan quiz attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
