package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	patients Repository
	now      func() time.Time
}

func NewService(patients Repository) *Service {
	return &Service{patients: patients, now: time.Now}
}

// NextMRN derives the next medical record number: "MRN" + four-digit year +
// six-digit registration sequence.
func (s *Service) NextMRN(ctx context.Context) (string, error) {
	count, err := s.patients.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("count patients: %w", err)
	}
	return fmt.Sprintf("MRN%d%06d", s.now().Year(), count+1), nil
}

func (s *Service) Register(ctx context.Context, p *Patient) error {
	if p.NameFamily == "" && p.NameGiven == "" {
		return fmt.Errorf("patient name is required")
	}
	if p.MRN == "" {
		mrn, err := s.NextMRN(ctx)
		if err != nil {
			return err
		}
		p.MRN = mrn
	}
	p.Active = true
	return s.patients.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetByMRN(ctx context.Context, mrn string) (*Patient, error) {
	return s.patients.GetByMRN(ctx, mrn)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if p.NameFamily == "" && p.NameGiven == "" {
		return fmt.Errorf("patient name is required")
	}
	return s.patients.Update(ctx, p)
}

// Deactivate marks a patient inactive instead of deleting the record.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return err
	}
	p.Active = false
	return s.patients.Update(ctx, p)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

func (s *Service) Search(ctx context.Context, name string, limit, offset int) ([]*Patient, int, error) {
	return s.patients.Search(ctx, name, limit, offset)
}
