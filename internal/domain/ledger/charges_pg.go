package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type chargeRepoPG struct{ pool *pgxpool.Pool }

func NewChargeRepoPG(pool *pgxpool.Pool) ChargeRepository { return &chargeRepoPG{pool: pool} }

func (r *chargeRepoPG) LabCharges(ctx context.Context, visitID uuid.UUID) ([]LabCharge, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT vl.cost, vl.quantity, l.rate
		FROM visit_labs vl
		LEFT JOIN lab l ON l.id = vl.lab_id
		WHERE vl.visit_id = $1`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LabCharge
	for rows.Next() {
		var c LabCharge
		if err := rows.Scan(&c.Cost, &c.Quantity, &c.CatalogRate); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *chargeRepoPG) RadiologyCharges(ctx context.Context, visitID uuid.UUID) ([]RadiologyCharge, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT vr.total_cost, vr.unit_rate, vr.quantity, rad.cost
		FROM visit_radiology vr
		LEFT JOIN radiology rad ON rad.id = vr.radiology_id
		WHERE vr.visit_id = $1`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RadiologyCharge
	for rows.Next() {
		var c RadiologyCharge
		if err := rows.Scan(&c.TotalCost, &c.UnitRate, &c.Quantity, &c.CatalogCost); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// serviceTables maps the flat-cost categories to their join tables. Table
// names are fixed at compile time, never interpolated from input.
var serviceTables = map[Category]string{
	CatClinicalServices:     "visit_clinical_services",
	CatMandatoryServices:    "visit_mandatory_services",
	CatAccommodationCharges: "visit_accommodations",
}

func (r *chargeRepoPG) ServiceTotal(ctx context.Context, visitID uuid.UUID, cat Category) (decimal.Decimal, error) {
	table, ok := serviceTables[cat]
	if !ok {
		return decimal.Zero, fmt.Errorf("no charge table for category %s", cat)
	}
	var total decimal.NullDecimal
	err := r.pool.QueryRow(ctx,
		`SELECT SUM(COALESCE(cost, 0)) FROM `+table+` WHERE visit_id = $1`, visitID).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *chargeRepoPG) AdvanceTotals(ctx context.Context, visitID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	var paid, refunded decimal.NullDecimal
	err := r.pool.QueryRow(ctx, `
		SELECT
			SUM(amount) FILTER (WHERE NOT is_refund),
			SUM(amount) FILTER (WHERE is_refund)
		FROM advance_payment
		WHERE visit_id = $1 AND status = 'ACTIVE'`, visitID).Scan(&paid, &refunded)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	out := func(d decimal.NullDecimal) decimal.Decimal {
		if !d.Valid {
			return decimal.Zero
		}
		return d.Decimal
	}
	return out(paid), out(refunded), nil
}
