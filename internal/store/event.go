package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	entsql "entgo.io/ent/dialect/sql"
)

// sequenceCounter manages the global monotonic sequence number of the event
// log. Sequence numbers order events across learners and modules even when
// timestamps collide.
//
// Uses raw SQL because the counter must be atomic at the database level.
// The mutex serializes within the process; the RETURNING clause makes the
// increment atomic at the database level.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

// newSequenceCounter creates a counter and ensures the tracking table exists.
func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

// eventRepo implements EventRepo.
type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *eventRepo) Append(ctx context.Context, e EventData) (int64, error) {
	seq, err := r.seq.Next(ctx)
	if err != nil {
		return 0, err
	}
	q, args := builder().Insert(tableEvents).
		Columns("sequence", "timestamp", "kind", "learner_id", "module_id", "section_id", "detail", "error_message").
		Values(seq, e.Timestamp, e.Kind, e.LearnerID, e.ModuleID, e.SectionID, e.Detail, e.Error).
		Query()
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return 0, fmt.Errorf("append %s event: %w", e.Kind, err)
	}
	return seq, nil
}

func (r *eventRepo) Query(ctx context.Context, opts QueryOpts) ([]EventData, error) {
	preds := []*entsql.Predicate{entsql.GT("sequence", opts.After)}
	if opts.LearnerID != "" {
		preds = append(preds, entsql.EQ("learner_id", opts.LearnerID))
	}
	if opts.ModuleID != "" {
		preds = append(preds, entsql.EQ("module_id", opts.ModuleID))
	}
	b := builder()
	sel := b.Select("sequence", "timestamp", "kind", "learner_id", "module_id", "section_id", "detail", "error_message").
		From(b.Table(tableEvents)).
		Where(entsql.And(preds...)).
		OrderBy(entsql.Asc("sequence"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	q, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []EventData
	for rows.Next() {
		var e EventData
		if err := rows.Scan(&e.Sequence, &e.Timestamp, &e.Kind, &e.LearnerID, &e.ModuleID, &e.SectionID, &e.Detail, &e.Error); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
