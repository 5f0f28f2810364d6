package pharmacy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Service struct {
	dispenses Repository
	now       func() time.Time
}

func NewService(dispenses Repository) *Service {
	return &Service{dispenses: dispenses, now: time.Now}
}

func (s *Service) Record(ctx context.Context, d *Dispense) error {
	if d.VisitID == uuid.Nil {
		return fmt.Errorf("visit_id is required")
	}
	if d.MedicationName == "" {
		return fmt.Errorf("medication_name is required")
	}
	if d.Quantity.Sign() <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	if d.Rate.Sign() < 0 {
		return fmt.Errorf("rate must not be negative")
	}
	// Cost is always derived at dispense time.
	d.Cost = d.Quantity.Mul(d.Rate)
	d.Status = "dispensed"
	if d.DispensedAt.IsZero() {
		d.DispensedAt = s.now()
	}
	return s.dispenses.Create(ctx, d)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Dispense, error) {
	return s.dispenses.GetByID(ctx, id)
}

// Cancel voids a dispense so it no longer counts toward the visit total.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Dispense, error) {
	d, err := s.dispenses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status == "cancelled" {
		return nil, fmt.Errorf("dispense already cancelled")
	}
	d.Status = "cancelled"
	if err := s.dispenses.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Dispense, error) {
	return s.dispenses.ListByVisit(ctx, visitID)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Dispense, int, error) {
	return s.dispenses.List(ctx, limit, offset)
}

// VisitTotal sums the cost of all active dispenses for the visit.
func (s *Service) VisitTotal(ctx context.Context, visitID uuid.UUID) (decimal.Decimal, error) {
	items, err := s.dispenses.ListByVisit(ctx, visitID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, d := range items {
		total = total.Add(d.Cost)
	}
	return total, nil
}
