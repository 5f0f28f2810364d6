package ledger

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errors.New("financial summary not found")
	ErrMissingBillID = errors.New("bill id is required")
)

// Category is one of the fixed cost buckets tracked as a column across
// every ledger row.
type Category string

const (
	CatAdvancePayment        Category = "advancePayment"
	CatClinicalServices      Category = "clinicalServices"
	CatLaboratoryServices    Category = "laboratoryServices"
	CatRadiology             Category = "radiology"
	CatPharmacy              Category = "pharmacy"
	CatImplant               Category = "implant"
	CatBlood                 Category = "blood"
	CatSurgery               Category = "surgery"
	CatMandatoryServices     Category = "mandatoryServices"
	CatPhysiotherapy         Category = "physiotherapy"
	CatConsultation          Category = "consultation"
	CatSurgeryInternalReport Category = "surgeryInternalReport"
	CatImplantCost           Category = "implantCost"
	CatPrivate               Category = "private"
	CatAccommodationCharges  Category = "accommodationCharges"
	CatTotal                 Category = "total"
)

// Categories lists every cost bucket except the derived total column, in
// the order the billing screens display them.
var Categories = []Category{
	CatAdvancePayment, CatClinicalServices, CatLaboratoryServices, CatRadiology,
	CatPharmacy, CatImplant, CatBlood, CatSurgery, CatMandatoryServices,
	CatPhysiotherapy, CatConsultation, CatSurgeryInternalReport, CatImplantCost,
	CatPrivate, CatAccommodationCharges,
}

// AllColumns is Categories plus the total column.
var AllColumns = append(append([]Category{}, Categories...), CatTotal)

// RowName identifies one of the five ledger rows.
type RowName string

const (
	RowTotalAmount    RowName = "totalAmount"
	RowDiscount       RowName = "discount"
	RowAmountPaid     RowName = "amountPaid"
	RowRefundedAmount RowName = "refundedAmount"
	RowBalance        RowName = "balance"
)

var RowNames = []RowName{RowTotalAmount, RowDiscount, RowAmountPaid, RowRefundedAmount, RowBalance}

// Cell is an optional decimal amount. An absent cell means "nothing
// entered", which is distinct from an explicit zero. It renders as the
// empty string so callers never have to compare against "0".
type Cell struct {
	val decimal.Decimal
	set bool
}

func NewCell(d decimal.Decimal) Cell { return Cell{val: d, set: true} }

func CellFromString(s string) (Cell, error) {
	if s == "" {
		return Cell{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Cell{}, err
	}
	return NewCell(d), nil
}

func (c Cell) IsSet() bool { return c.set }

// Value returns the amount, or zero when the cell is absent.
func (c Cell) Value() decimal.Decimal {
	if !c.set {
		return decimal.Zero
	}
	return c.val
}

func (c Cell) String() string {
	if !c.set {
		return ""
	}
	return c.val.String()
}

func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := CellFromString(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Row maps every column to a cell. All five ledger rows carry the same
// column keyset.
type Row map[Category]Cell

func NewRow() Row {
	r := make(Row, len(AllColumns))
	for _, cat := range AllColumns {
		r[cat] = Cell{}
	}
	return r
}

func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// SumCategories adds every column except total.
func (r Row) SumCategories() decimal.Decimal {
	sum := decimal.Zero
	for _, cat := range Categories {
		sum = sum.Add(r[cat].Value())
	}
	return sum
}

// PackageDates travels with the ledger but is independent of its rows.
type PackageDates struct {
	StartDate          *time.Time `json:"start_date,omitempty"`
	EndDate            *time.Time `json:"end_date,omitempty"`
	TotalPackageDays   int        `json:"total_package_days"`
	TotalAdmissionDays int        `json:"total_admission_days"`
}

const DefaultPackageDays = 7

// Summary is the in-memory ledger for one bill: five rows sharing the
// same category columns, plus package dates.
type Summary struct {
	BillID         string       `json:"bill_id"`
	VisitCode      string       `json:"visit_code,omitempty"`
	TotalAmount    Row          `json:"totalAmount"`
	Discount       Row          `json:"discount"`
	AmountPaid     Row          `json:"amountPaid"`
	RefundedAmount Row          `json:"refundedAmount"`
	Balance        Row          `json:"balance"`
	Package        PackageDates `json:"package"`
	UpdatedAt      time.Time    `json:"updated_at,omitempty"`
}

func NewSummary(billID string) *Summary {
	return &Summary{
		BillID:         billID,
		TotalAmount:    NewRow(),
		Discount:       NewRow(),
		AmountPaid:     NewRow(),
		RefundedAmount: NewRow(),
		Balance:        NewRow(),
		Package:        PackageDates{TotalPackageDays: DefaultPackageDays},
	}
}

// RowByName returns the named row, or nil for an unknown name.
func (s *Summary) RowByName(name RowName) Row {
	switch name {
	case RowTotalAmount:
		return s.TotalAmount
	case RowDiscount:
		return s.Discount
	case RowAmountPaid:
		return s.AmountPaid
	case RowRefundedAmount:
		return s.RefundedAmount
	case RowBalance:
		return s.Balance
	}
	return nil
}

func (s *Summary) Clone() *Summary {
	out := *s
	out.TotalAmount = s.TotalAmount.Clone()
	out.Discount = s.Discount.Clone()
	out.AmountPaid = s.AmountPaid.Clone()
	out.RefundedAmount = s.RefundedAmount.Clone()
	out.Balance = s.Balance.Clone()
	return &out
}

// BalanceTotal computes total − discount − paid + refunded over the
// total column.
func (s *Summary) BalanceTotal() decimal.Decimal {
	return s.TotalAmount[CatTotal].Value().
		Sub(s.Discount[CatTotal].Value()).
		Sub(s.AmountPaid[CatTotal].Value()).
		Add(s.RefundedAmount[CatTotal].Value())
}
