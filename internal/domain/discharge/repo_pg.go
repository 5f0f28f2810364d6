package discharge

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const documentCols = `id, visit_id, visit_code, bill_id, mrn, patient_name, content, generated_at`

func (r *repoPG) scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.VisitID, &d.VisitCode, &d.BillID, &d.MRN, &d.PatientName,
		&d.Text, &d.GeneratedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &d, err
}

func (r *repoPG) Save(ctx context.Context, d *Document) error {
	d.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO discharge_summaries (id, visit_id, visit_code, bill_id, mrn, patient_name, content, generated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		d.ID, d.VisitID, d.VisitCode, d.BillID, d.MRN, d.PatientName, d.Text, d.GeneratedAt)
	return err
}

func (r *repoPG) LatestByVisit(ctx context.Context, visitID uuid.UUID) (*Document, error) {
	return r.scanDocument(r.pool.QueryRow(ctx, `
		SELECT `+documentCols+` FROM discharge_summaries
		WHERE visit_id = $1 ORDER BY generated_at DESC LIMIT 1`, visitID))
}
