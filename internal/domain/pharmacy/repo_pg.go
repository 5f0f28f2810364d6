package pharmacy

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const dispenseCols = `id, visit_id, medication_name, batch_number, quantity, rate, cost,
	status, dispensed_at, created_at, updated_at`

func (r *repoPG) scanDispense(row pgx.Row) (*Dispense, error) {
	var d Dispense
	err := row.Scan(&d.ID, &d.VisitID, &d.MedicationName, &d.BatchNumber, &d.Quantity, &d.Rate, &d.Cost,
		&d.Status, &d.DispensedAt, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &d, err
}

func (r *repoPG) Create(ctx context.Context, d *Dispense) error {
	d.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO medication_dispenses (id, visit_id, medication_name, batch_number,
			quantity, rate, cost, status, dispensed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		d.ID, d.VisitID, d.MedicationName, d.BatchNumber, d.Quantity, d.Rate, d.Cost, d.Status, d.DispensedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Dispense, error) {
	return r.scanDispense(r.pool.QueryRow(ctx, `SELECT `+dispenseCols+` FROM medication_dispenses WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, d *Dispense) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE medication_dispenses SET medication_name=$2, batch_number=$3, quantity=$4,
			rate=$5, cost=$6, status=$7, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.MedicationName, d.BatchNumber, d.Quantity, d.Rate, d.Cost, d.Status)
	return err
}

func (r *repoPG) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Dispense, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+dispenseCols+` FROM medication_dispenses
		WHERE visit_id = $1 AND status = 'dispensed'
		ORDER BY dispensed_at`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Dispense
	for rows.Next() {
		d, err := r.scanDispense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Dispense, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM medication_dispenses`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+dispenseCols+` FROM medication_dispenses ORDER BY dispensed_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Dispense
	for rows.Next() {
		d, err := r.scanDispense(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}
