package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type summaryRepoPG struct{ pool *pgxpool.Pool }

func NewSummaryRepoPG(pool *pgxpool.Pool) SummaryRepository { return &summaryRepoPG{pool: pool} }

var categorySQL = map[Category]string{
	CatAdvancePayment:        "advance_payment",
	CatClinicalServices:      "clinical_services",
	CatLaboratoryServices:    "laboratory_services",
	CatRadiology:             "radiology",
	CatPharmacy:              "pharmacy",
	CatImplant:               "implant",
	CatBlood:                 "blood",
	CatSurgery:               "surgery",
	CatMandatoryServices:     "mandatory_services",
	CatPhysiotherapy:         "physiotherapy",
	CatConsultation:          "consultation",
	CatSurgeryInternalReport: "surgery_internal_report",
	CatImplantCost:           "implant_cost",
	CatPrivate:               "private",
	CatAccommodationCharges:  "accommodation_charges",
	CatTotal:                 "total",
}

var rowSQL = map[RowName]string{
	RowTotalAmount:    "total_amount",
	RowDiscount:       "discount",
	RowAmountPaid:     "amount_paid",
	RowRefundedAmount: "refunded_amount",
	RowBalance:        "balance",
}

// amountColumns enumerates the wide schema in a fixed order: every ledger
// row crossed with every column, e.g. discount_laboratory_services.
func amountColumns() []string {
	cols := make([]string, 0, len(RowNames)*len(AllColumns))
	for _, row := range RowNames {
		for _, cat := range AllColumns {
			cols = append(cols, rowSQL[row]+"_"+categorySQL[cat])
		}
	}
	return cols
}

const fixedCols = `bill_id, visit_id, package_start_date, package_end_date,
	total_package_days, total_admission_days, updated_at`

func (r *summaryRepoPG) Get(ctx context.Context, billID string) (*Summary, error) {
	amounts := amountColumns()
	query := `SELECT ` + fixedCols + `, ` + strings.Join(amounts, ", ") +
		` FROM financial_summary WHERE bill_id = $1`

	s := NewSummary(billID)
	var visitID *uuid.UUID
	cells := make([]decimal.NullDecimal, len(amounts))

	dest := []any{&s.BillID, &visitID, &s.Package.StartDate, &s.Package.EndDate,
		&s.Package.TotalPackageDays, &s.Package.TotalAdmissionDays, &s.UpdatedAt}
	for i := range cells {
		dest = append(dest, &cells[i])
	}

	err := r.pool.QueryRow(ctx, query, billID).Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load financial summary %s: %w", billID, err)
	}

	i := 0
	for _, rowName := range RowNames {
		row := s.RowByName(rowName)
		for _, cat := range AllColumns {
			if cells[i].Valid {
				row[cat] = NewCell(cells[i].Decimal)
			} else {
				row[cat] = Cell{}
			}
			i++
		}
	}
	return s, nil
}

// upsertValue maps a cell to its stored form. Discount cells store NULL
// for absent or zero so a spurious zero never overwrites a real discount;
// every other row stores a plain number, zero included.
func upsertValue(rowName RowName, cell Cell) decimal.NullDecimal {
	if rowName == RowDiscount {
		if !cell.IsSet() || cell.Value().Sign() == 0 {
			return decimal.NullDecimal{}
		}
		return decimal.NullDecimal{Decimal: cell.Value(), Valid: true}
	}
	return decimal.NullDecimal{Decimal: cell.Value(), Valid: true}
}

func (r *summaryRepoPG) Upsert(ctx context.Context, s *Summary, visitID *uuid.UUID) error {
	if s.BillID == "" {
		return ErrMissingBillID
	}
	amounts := amountColumns()

	var b strings.Builder
	b.WriteString(`INSERT INTO financial_summary (bill_id, visit_id, package_start_date, package_end_date, total_package_days, total_admission_days`)
	for _, col := range amounts {
		b.WriteString(", ")
		b.WriteString(col)
	}
	b.WriteString(") VALUES (")
	for i := 0; i < 6+len(amounts); i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "$%d", i+1)
	}
	b.WriteString(`) ON CONFLICT (bill_id) DO UPDATE SET visit_id=EXCLUDED.visit_id,
		package_start_date=EXCLUDED.package_start_date, package_end_date=EXCLUDED.package_end_date,
		total_package_days=EXCLUDED.total_package_days, total_admission_days=EXCLUDED.total_admission_days,
		updated_at=NOW()`)
	for _, col := range amounts {
		fmt.Fprintf(&b, ", %s=EXCLUDED.%s", col, col)
	}

	args := []any{s.BillID, visitID, s.Package.StartDate, s.Package.EndDate,
		s.Package.TotalPackageDays, s.Package.TotalAdmissionDays}
	for _, rowName := range RowNames {
		row := s.RowByName(rowName)
		for _, cat := range AllColumns {
			args = append(args, upsertValue(rowName, row[cat]))
		}
	}

	if _, err := r.pool.Exec(ctx, b.String(), args...); err != nil {
		return fmt.Errorf("upsert financial summary %s: %w", s.BillID, err)
	}
	return nil
}

type discountRepoPG struct{ pool *pgxpool.Pool }

func NewDiscountRepoPG(pool *pgxpool.Pool) DiscountRepository { return &discountRepoPG{pool: pool} }

func (r *discountRepoPG) GetTotal(ctx context.Context, visitID uuid.UUID) (decimal.Decimal, bool, error) {
	var total decimal.NullDecimal
	err := r.pool.QueryRow(ctx,
		`SELECT discount_total FROM visit_discounts WHERE visit_id = $1`, visitID).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	if !total.Valid {
		return decimal.Zero, false, nil
	}
	return total.Decimal, true, nil
}

func (r *discountRepoPG) SaveTotal(ctx context.Context, visitID uuid.UUID, total *decimal.Decimal) error {
	var val decimal.NullDecimal
	if total != nil {
		val = decimal.NullDecimal{Decimal: *total, Valid: true}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO visit_discounts (visit_id, discount_total, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (visit_id) DO UPDATE SET discount_total = EXCLUDED.discount_total, updated_at = NOW()`,
		visitID, val)
	return err
}
