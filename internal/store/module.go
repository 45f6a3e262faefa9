package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// moduleRepo implements ModuleRepo.
type moduleRepo struct {
	db *sql.DB
}

var moduleColumns = []string{"id", "title", "description", "document", "source", "updated_at"}

func (r *moduleRepo) Put(ctx context.Context, m ModuleData) error {
	q, args := builder().Insert(tableModules).
		Columns(moduleColumns...).
		Values(m.ID, m.Title, m.Description, string(m.Document), m.Source, m.UpdatedAt).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("put module %q: %w", m.ID, err)
	}
	return nil
}

func (r *moduleRepo) Get(ctx context.Context, id string) (*ModuleData, error) {
	b := builder()
	q, args := b.Select(moduleColumns...).
		From(b.Table(tableModules)).
		Where(entsql.EQ("id", id)).
		Query()

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query module: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query module: %w", err)
		}
		return nil, fmt.Errorf("module %q: %w", id, ErrNotFound)
	}
	m, err := scanModule(rows)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *moduleRepo) List(ctx context.Context) ([]ModuleData, error) {
	b := builder()
	q, args := b.Select(moduleColumns...).
		From(b.Table(tableModules)).
		OrderBy(entsql.Asc("id")).
		Query()

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	defer rows.Close()

	var out []ModuleData
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *moduleRepo) Delete(ctx context.Context, id string) error {
	q, args := builder().Delete(tableModules).Where(entsql.EQ("id", id)).Query()
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("delete module %q: %w", id, err)
	}
	return nil
}

func scanModule(rows *sql.Rows) (ModuleData, error) {
	var m ModuleData
	if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Document, &m.Source, &m.UpdatedAt); err != nil {
		return ModuleData{}, fmt.Errorf("scan module: %w", err)
	}
	return m, nil
}
