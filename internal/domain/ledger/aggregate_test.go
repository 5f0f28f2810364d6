package ledger

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type mockVisits struct {
	codes map[string]uuid.UUID
}

func (m *mockVisits) ResolveCode(_ context.Context, code string) (uuid.UUID, error) {
	id, ok := m.codes[code]
	if !ok {
		return uuid.Nil, fmt.Errorf("visit not found")
	}
	return id, nil
}

type mockCharges struct {
	labs     map[uuid.UUID][]LabCharge
	rads     map[uuid.UUID][]RadiologyCharge
	services map[uuid.UUID]map[Category]decimal.Decimal
	paid     map[uuid.UUID]decimal.Decimal
	refunded map[uuid.UUID]decimal.Decimal
	failAll  bool
}

func newMockCharges() *mockCharges {
	return &mockCharges{
		labs:     make(map[uuid.UUID][]LabCharge),
		rads:     make(map[uuid.UUID][]RadiologyCharge),
		services: make(map[uuid.UUID]map[Category]decimal.Decimal),
		paid:     make(map[uuid.UUID]decimal.Decimal),
		refunded: make(map[uuid.UUID]decimal.Decimal),
	}
}

func (m *mockCharges) LabCharges(_ context.Context, visitID uuid.UUID) ([]LabCharge, error) {
	if m.failAll {
		return nil, fmt.Errorf("db down")
	}
	return m.labs[visitID], nil
}

func (m *mockCharges) RadiologyCharges(_ context.Context, visitID uuid.UUID) ([]RadiologyCharge, error) {
	if m.failAll {
		return nil, fmt.Errorf("db down")
	}
	return m.rads[visitID], nil
}

func (m *mockCharges) ServiceTotal(_ context.Context, visitID uuid.UUID, cat Category) (decimal.Decimal, error) {
	if m.failAll {
		return decimal.Zero, fmt.Errorf("db down")
	}
	return m.services[visitID][cat], nil
}

func (m *mockCharges) AdvanceTotals(_ context.Context, visitID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	if m.failAll {
		return decimal.Zero, decimal.Zero, fmt.Errorf("db down")
	}
	return m.paid[visitID], m.refunded[visitID], nil
}

func d(s string) *decimal.Decimal {
	v := dec(s)
	return &v
}

func TestLabLineAmount_FallbackChain(t *testing.T) {
	cases := []struct {
		name string
		in   LabCharge
		want string
	}{
		{"stored cost wins", LabCharge{Cost: d("250"), Quantity: d("3"), CatalogRate: d("10")}, "250"},
		{"quantity times rate", LabCharge{Quantity: d("3"), CatalogRate: d("40")}, "120"},
		{"zero cost falls through", LabCharge{Cost: d("0"), Quantity: d("2"), CatalogRate: d("40")}, "80"},
		{"rate defaults to 100", LabCharge{Quantity: d("2")}, "200"},
		{"bare line defaults to 100", LabCharge{}, "100"},
	}
	for _, tc := range cases {
		if got := labLineAmount(tc.in); !got.Equal(dec(tc.want)) {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestRadiologyLineAmount_FallbackChain(t *testing.T) {
	cases := []struct {
		name string
		in   RadiologyCharge
		want string
	}{
		{"stored total wins", RadiologyCharge{TotalCost: d("500"), UnitRate: d("10"), Quantity: d("2")}, "500"},
		{"unit rate times quantity", RadiologyCharge{UnitRate: d("150"), Quantity: d("2")}, "300"},
		{"legacy catalog cost", RadiologyCharge{CatalogCost: d("75"), Quantity: d("2")}, "150"},
		{"nothing known", RadiologyCharge{}, "0"},
	}
	for _, tc := range cases {
		if got := radiologyLineAmount(tc.in); !got.Equal(dec(tc.want)) {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestAggregator_UnresolvedVisitReturnsZero(t *testing.T) {
	agg := NewAggregator(&mockVisits{codes: map[string]uuid.UUID{}}, newMockCharges(), zerolog.Nop())
	if got := agg.FetchLabTotal(context.Background(), "IH25I99999"); !got.Equal(decimal.Zero) {
		t.Errorf("expected zero for unresolved visit, got %s", got)
	}
	paid, refunded := agg.FetchAdvanceTotals(context.Background(), "IH25I99999")
	if !paid.Equal(decimal.Zero) || !refunded.Equal(decimal.Zero) {
		t.Errorf("expected zero advances for unresolved visit, got %s/%s", paid, refunded)
	}
}

func TestAggregator_QueryFailureReturnsZero(t *testing.T) {
	visitID := uuid.New()
	charges := newMockCharges()
	charges.failAll = true
	agg := NewAggregator(&mockVisits{codes: map[string]uuid.UUID{"IH25A00001": visitID}}, charges, zerolog.Nop())

	if got := agg.FetchRadiologyTotal(context.Background(), "IH25A00001"); !got.Equal(decimal.Zero) {
		t.Errorf("expected zero on query failure, got %s", got)
	}
}

func TestAggregator_CollectTotals(t *testing.T) {
	visitID := uuid.New()
	charges := newMockCharges()
	charges.labs[visitID] = []LabCharge{{Cost: d("300")}, {Quantity: d("2"), CatalogRate: d("50")}}
	charges.rads[visitID] = []RadiologyCharge{{TotalCost: d("450")}}
	charges.services[visitID] = map[Category]decimal.Decimal{
		CatClinicalServices:     dec("120"),
		CatMandatoryServices:    dec("80"),
		CatAccommodationCharges: dec("700"),
	}
	charges.paid[visitID] = dec("1000")
	charges.refunded[visitID] = dec("50")

	agg := NewAggregator(&mockVisits{codes: map[string]uuid.UUID{"IH25A00001": visitID}}, charges, zerolog.Nop())
	meds := []MedicationLine{{Cost: dec("25")}, {Cost: dec("75")}}
	totals := agg.CollectTotals(context.Background(), "IH25A00001", meds)

	checks := map[Category]string{
		CatLaboratoryServices:   "400",
		CatRadiology:            "450",
		CatClinicalServices:     "120",
		CatMandatoryServices:    "80",
		CatAccommodationCharges: "700",
		CatPharmacy:             "100",
		CatImplant:              "0",
	}
	for cat, want := range checks {
		if got := totals.Categories[cat]; !got.Equal(dec(want)) {
			t.Errorf("%s: expected %s, got %s", cat, want, got)
		}
	}
	if !totals.Paid.Equal(dec("1000")) {
		t.Errorf("expected paid 1000, got %s", totals.Paid)
	}
	if !totals.Refunded.Equal(dec("50")) {
		t.Errorf("expected refunded 50, got %s", totals.Refunded)
	}
	if !totals.GrandTotal().Equal(dec("1850")) {
		t.Errorf("expected grand total 1850, got %s", totals.GrandTotal())
	}
}

func TestPharmacyTotal_EmptyList(t *testing.T) {
	agg := NewAggregator(&mockVisits{codes: map[string]uuid.UUID{}}, newMockCharges(), zerolog.Nop())
	if got := agg.PharmacyTotal(nil); !got.Equal(decimal.Zero) {
		t.Errorf("expected zero for no medications, got %s", got)
	}
}
