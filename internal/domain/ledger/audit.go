package ledger

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Drift is one bill whose summary discount column disagrees with the
// authoritative visit_discounts row.
type Drift struct {
	BillID        string
	SummaryTotal  decimal.Decimal
	AuthoritTotal decimal.Decimal
}

// DriftSource lists bills whose two discount copies disagree.
type DriftSource interface {
	Drifts(ctx context.Context) ([]Drift, error)
}

type driftSourcePG struct{ pool *pgxpool.Pool }

func NewDriftSourcePG(pool *pgxpool.Pool) DriftSource { return &driftSourcePG{pool: pool} }

func (d *driftSourcePG) Drifts(ctx context.Context) ([]Drift, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT fs.bill_id,
			COALESCE(fs.discount_total, 0),
			COALESCE(vd.discount_total, 0)
		FROM financial_summary fs
		JOIN visit_discounts vd ON vd.visit_id = fs.visit_id
		WHERE fs.visit_id IS NOT NULL
		  AND COALESCE(fs.discount_total, 0) <> COALESCE(vd.discount_total, 0)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Drift
	for rows.Next() {
		var dr Drift
		if err := rows.Scan(&dr.BillID, &dr.SummaryTotal, &dr.AuthoritTotal); err != nil {
			return nil, err
		}
		out = append(out, dr)
	}
	return out, rows.Err()
}

// DriftAuditor runs on a schedule and reports every bill whose summary
// discount column has drifted from visit_discounts. The column is
// advisory, so drift is logged rather than repaired.
type DriftAuditor struct {
	source DriftSource
	log    zerolog.Logger
}

func NewDriftAuditor(source DriftSource, log zerolog.Logger) *DriftAuditor {
	return &DriftAuditor{source: source, log: log}
}

func (a *DriftAuditor) Run(ctx context.Context) {
	drifts, err := a.source.Drifts(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("discount drift audit failed")
		return
	}
	if len(drifts) == 0 {
		a.log.Info().Msg("discount drift audit clean")
		return
	}
	for _, d := range drifts {
		a.log.Warn().Str("bill_id", d.BillID).
			Str("summary_total", d.SummaryTotal.String()).
			Str("visit_discounts_total", d.AuthoritTotal.String()).
			Msg("discount drift detected")
	}
}
