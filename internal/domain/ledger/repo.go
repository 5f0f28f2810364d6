package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SummaryRepository persists the denormalized financial_summary row, one
// per bill.
type SummaryRepository interface {
	Get(ctx context.Context, billID string) (*Summary, error)
	// Upsert writes the whole ledger in one insert-or-update keyed on the
	// bill id. visitID may be nil when code resolution failed.
	Upsert(ctx context.Context, s *Summary, visitID *uuid.UUID) error
}

// DiscountRepository reads and writes the visit_discounts row, keyed by
// the internal visit id. It is the sole source of truth for the discount
// total; the financial_summary copy is advisory.
type DiscountRepository interface {
	GetTotal(ctx context.Context, visitID uuid.UUID) (decimal.Decimal, bool, error)
	// SaveTotal upserts the row. A nil total stores SQL NULL, meaning "no
	// discount entered".
	SaveTotal(ctx context.Context, visitID uuid.UUID, total *decimal.Decimal) error
}
