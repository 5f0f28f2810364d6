package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// defaultLabRate is charged per unit when a lab catalog entry carries no rate.
var defaultLabRate = decimal.NewFromInt(100)

// VisitResolver maps the human-facing visit code to the internal visit id.
// Category tables join on the internal id only.
type VisitResolver interface {
	ResolveCode(ctx context.Context, code string) (uuid.UUID, error)
}

// LabCharge is one visit_labs line joined with its catalog rate.
type LabCharge struct {
	Cost        *decimal.Decimal
	Quantity    *decimal.Decimal
	CatalogRate *decimal.Decimal
}

// RadiologyCharge is one visit_radiology line joined with its catalog cost.
type RadiologyCharge struct {
	TotalCost   *decimal.Decimal
	UnitRate    *decimal.Decimal
	Quantity    *decimal.Decimal
	CatalogCost *decimal.Decimal
}

// MedicationLine is a pharmacy dispense amount supplied by the caller. The
// ledger never queries medications itself.
type MedicationLine struct {
	Cost decimal.Decimal
}

// ChargeRepository reads the per-category billing tables for one visit.
type ChargeRepository interface {
	LabCharges(ctx context.Context, visitID uuid.UUID) ([]LabCharge, error)
	RadiologyCharges(ctx context.Context, visitID uuid.UUID) ([]RadiologyCharge, error)
	// ServiceTotal sums the flat-cost category tables (clinical services,
	// mandatory services, accommodation).
	ServiceTotal(ctx context.Context, visitID uuid.UUID, cat Category) (decimal.Decimal, error)
	// AdvanceTotals splits the advance_payment table into payments and
	// refunds. Only ACTIVE rows count.
	AdvanceTotals(ctx context.Context, visitID uuid.UUID) (paid, refunded decimal.Decimal, err error)
}

// labLineAmount applies the lab fallback chain: stored cost, then
// quantity x catalog rate, with the rate defaulting to 100 when the
// catalog entry has none.
func labLineAmount(c LabCharge) decimal.Decimal {
	if c.Cost != nil && c.Cost.Sign() != 0 {
		return *c.Cost
	}
	qty := decimal.NewFromInt(1)
	if c.Quantity != nil && c.Quantity.Sign() != 0 {
		qty = *c.Quantity
	}
	rate := defaultLabRate
	if c.CatalogRate != nil && c.CatalogRate.Sign() != 0 {
		rate = *c.CatalogRate
	}
	return qty.Mul(rate)
}

// radiologyLineAmount applies the radiology fallback chain: stored total,
// then unit rate x quantity, then legacy catalog cost x quantity.
func radiologyLineAmount(c RadiologyCharge) decimal.Decimal {
	if c.TotalCost != nil && c.TotalCost.Sign() != 0 {
		return *c.TotalCost
	}
	qty := decimal.NewFromInt(1)
	if c.Quantity != nil && c.Quantity.Sign() != 0 {
		qty = *c.Quantity
	}
	if c.UnitRate != nil && c.UnitRate.Sign() != 0 {
		return c.UnitRate.Mul(qty)
	}
	if c.CatalogCost != nil && c.CatalogCost.Sign() != 0 {
		return c.CatalogCost.Mul(qty)
	}
	return decimal.Zero
}

// Aggregator computes per-category totals for a visit. Every fetch is
// best-effort: a failure logs a diagnostic and contributes zero rather
// than propagating, so the ledger never fails on a single category.
type Aggregator struct {
	visits  VisitResolver
	charges ChargeRepository
	log     zerolog.Logger
}

func NewAggregator(visits VisitResolver, charges ChargeRepository, log zerolog.Logger) *Aggregator {
	return &Aggregator{visits: visits, charges: charges, log: log}
}

func (a *Aggregator) resolve(ctx context.Context, visitCode string) (uuid.UUID, bool) {
	id, err := a.visits.ResolveCode(ctx, visitCode)
	if err != nil {
		a.log.Warn().Err(err).Str("visit_code", visitCode).Msg("visit code did not resolve, using zero totals")
		return uuid.Nil, false
	}
	return id, true
}

func (a *Aggregator) FetchLabTotal(ctx context.Context, visitCode string) decimal.Decimal {
	visitID, ok := a.resolve(ctx, visitCode)
	if !ok {
		return decimal.Zero
	}
	lines, err := a.charges.LabCharges(ctx, visitID)
	if err != nil {
		a.log.Warn().Err(err).Str("visit_code", visitCode).Msg("lab charges query failed")
		return decimal.Zero
	}
	total := decimal.Zero
	for _, ln := range lines {
		total = total.Add(labLineAmount(ln))
	}
	return total
}

func (a *Aggregator) FetchRadiologyTotal(ctx context.Context, visitCode string) decimal.Decimal {
	visitID, ok := a.resolve(ctx, visitCode)
	if !ok {
		return decimal.Zero
	}
	lines, err := a.charges.RadiologyCharges(ctx, visitID)
	if err != nil {
		a.log.Warn().Err(err).Str("visit_code", visitCode).Msg("radiology charges query failed")
		return decimal.Zero
	}
	total := decimal.Zero
	for _, ln := range lines {
		total = total.Add(radiologyLineAmount(ln))
	}
	return total
}

func (a *Aggregator) FetchServiceTotal(ctx context.Context, visitCode string, cat Category) decimal.Decimal {
	visitID, ok := a.resolve(ctx, visitCode)
	if !ok {
		return decimal.Zero
	}
	total, err := a.charges.ServiceTotal(ctx, visitID, cat)
	if err != nil {
		a.log.Warn().Err(err).Str("visit_code", visitCode).Str("category", string(cat)).Msg("service total query failed")
		return decimal.Zero
	}
	return total
}

// FetchAdvanceTotals returns the paid and refunded sums for the visit.
func (a *Aggregator) FetchAdvanceTotals(ctx context.Context, visitCode string) (decimal.Decimal, decimal.Decimal) {
	visitID, ok := a.resolve(ctx, visitCode)
	if !ok {
		return decimal.Zero, decimal.Zero
	}
	paid, refunded, err := a.charges.AdvanceTotals(ctx, visitID)
	if err != nil {
		a.log.Warn().Err(err).Str("visit_code", visitCode).Msg("advance totals query failed")
		return decimal.Zero, decimal.Zero
	}
	return paid, refunded
}

// PharmacyTotal sums the caller-supplied medication lines.
func (a *Aggregator) PharmacyTotal(meds []MedicationLine) decimal.Decimal {
	total := decimal.Zero
	for _, m := range meds {
		total = total.Add(m.Cost)
	}
	return total
}

// Totals is the fan-in result of one aggregation pass.
type Totals struct {
	Categories map[Category]decimal.Decimal
	Paid       decimal.Decimal
	Refunded   decimal.Decimal
}

// GrandTotal sums every category.
func (t *Totals) GrandTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, cat := range Categories {
		sum = sum.Add(t.Categories[cat])
	}
	return sum
}

// serviceCategories are the flat-cost tables ServiceTotal knows how to sum.
var serviceCategories = []Category{CatClinicalServices, CatMandatoryServices, CatAccommodationCharges}

// CollectTotals runs every aggregator concurrently and joins the results.
// Categories with no source table stay zero.
func (a *Aggregator) CollectTotals(ctx context.Context, visitCode string, meds []MedicationLine) *Totals {
	t := &Totals{Categories: make(map[Category]decimal.Decimal, len(Categories))}
	for _, cat := range Categories {
		t.Categories[cat] = decimal.Zero
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	set := func(cat Category, v decimal.Decimal) {
		mu.Lock()
		t.Categories[cat] = v
		mu.Unlock()
	}

	wg.Add(3 + len(serviceCategories))
	go func() {
		defer wg.Done()
		set(CatLaboratoryServices, a.FetchLabTotal(ctx, visitCode))
	}()
	go func() {
		defer wg.Done()
		set(CatRadiology, a.FetchRadiologyTotal(ctx, visitCode))
	}()
	go func() {
		defer wg.Done()
		paid, refunded := a.FetchAdvanceTotals(ctx, visitCode)
		mu.Lock()
		t.Paid = paid
		t.Refunded = refunded
		mu.Unlock()
	}()
	for _, cat := range serviceCategories {
		cat := cat
		go func() {
			defer wg.Done()
			set(cat, a.FetchServiceTotal(ctx, visitCode, cat))
		}()
	}
	wg.Wait()

	t.Categories[CatPharmacy] = a.PharmacyTotal(meds)
	return t
}
