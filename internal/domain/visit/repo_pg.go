package visit

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const visitCols = `id, visit_code, patient_id, status, visit_type, ward_code, bed_number,
	admitted_at, discharged_at, created_at, updated_at`

func (r *repoPG) scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	err := row.Scan(&v.ID, &v.VisitCode, &v.PatientID, &v.Status, &v.VisitType, &v.WardCode, &v.BedNumber,
		&v.AdmittedAt, &v.DischargedAt, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &v, err
}

func (r *repoPG) Create(ctx context.Context, v *Visit) error {
	v.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO visits (id, visit_code, patient_id, status, visit_type, ward_code, bed_number, admitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		v.ID, v.VisitCode, v.PatientID, v.Status, v.VisitType, v.WardCode, v.BedNumber, v.AdmittedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return r.scanVisit(r.pool.QueryRow(ctx, `SELECT `+visitCols+` FROM visits WHERE id = $1`, id))
}

func (r *repoPG) GetByCode(ctx context.Context, code string) (*Visit, error) {
	return r.scanVisit(r.pool.QueryRow(ctx, `SELECT `+visitCols+` FROM visits WHERE visit_code = $1`, code))
}

func (r *repoPG) ResolveCode(ctx context.Context, code string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT id FROM visits WHERE visit_code = $1`, code).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrNotFound
	}
	return id, err
}

func (r *repoPG) Update(ctx context.Context, v *Visit) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE visits SET status=$2, visit_type=$3, ward_code=$4, bed_number=$5,
			discharged_at=$6, updated_at=NOW()
		WHERE id = $1`,
		v.ID, v.Status, v.VisitType, v.WardCode, v.BedNumber, v.DischargedAt)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM visits WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+visitCols+` FROM visits WHERE patient_id = $1 ORDER BY admitted_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Visit
	for rows.Next() {
		v, err := r.scanVisit(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, v)
	}
	return items, total, nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Visit, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM visits`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+visitCols+` FROM visits ORDER BY admitted_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Visit
	for rows.Next() {
		v, err := r.scanVisit(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, v)
	}
	return items, total, nil
}

func (r *repoPG) CountInMonth(ctx context.Context, year, month int) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM visits
		WHERE EXTRACT(YEAR FROM admitted_at) = $1 AND EXTRACT(MONTH FROM admitted_at) = $2`,
		year, month).Scan(&count)
	return count, err
}
