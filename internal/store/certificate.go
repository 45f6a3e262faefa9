package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// certificateRepo implements CertificateRepo.
type certificateRepo struct {
	db *sql.DB
}

func (r *certificateRepo) Unlock(ctx context.Context, learnerID, moduleID string, at time.Time) error {
	q, args := builder().Insert(tableCertificates).
		Columns("learner_id", "module_id", "unlocked_at").
		Values(learnerID, moduleID, at).
		OnConflict(
			entsql.ConflictColumns("learner_id", "module_id"),
			entsql.DoNothing(),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("unlock certificate: %w", err)
	}
	return nil
}

func (r *certificateRepo) Load(ctx context.Context, learnerID, moduleID string) (*CertificateData, error) {
	b := builder()
	q, args := b.Select("learner_id", "module_id", "unlocked_at", "certificate_id", "issued_at").
		From(b.Table(tableCertificates)).
		Where(entsql.And(entsql.EQ("learner_id", learnerID), entsql.EQ("module_id", moduleID))).
		Query()

	var (
		c        CertificateData
		certID   sql.NullString
		issuedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&c.LearnerID, &c.ModuleID, &c.UnlockedAt, &certID, &issuedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("certificate %s/%s: %w", learnerID, moduleID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query certificate: %w", err)
	}
	c.CertificateID = certID.String
	if issuedAt.Valid {
		t := issuedAt.Time
		c.IssuedAt = &t
	}
	return &c, nil
}

func (r *certificateRepo) MarkIssued(ctx context.Context, learnerID, moduleID, certificateID string, at time.Time) error {
	q, args := builder().Update(tableCertificates).
		Set("certificate_id", certificateID).
		Set("issued_at", at).
		Where(entsql.And(entsql.EQ("learner_id", learnerID), entsql.EQ("module_id", moduleID))).
		Query()
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("mark certificate issued: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark certificate issued: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("certificate %s/%s: %w", learnerID, moduleID, ErrNotFound)
	}
	return nil
}
