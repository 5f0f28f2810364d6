package visit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	visits Repository
	now    func() time.Time
}

func NewService(visits Repository) *Service {
	return &Service{visits: visits, now: time.Now}
}

var validStatuses = map[string]bool{
	"admitted": true, "discharged": true, "cancelled": true,
}

// monthLetters maps month number to the letter used in visit codes
// (January = A ... December = L).
const monthLetters = "ABCDEFGHIJKL"

// NextVisitCode derives the code for a visit admitted at t:
// "IH" + two-digit year + month letter + five-digit sequence within the month.
func (s *Service) NextVisitCode(ctx context.Context, t time.Time) (string, error) {
	count, err := s.visits.CountInMonth(ctx, t.Year(), int(t.Month()))
	if err != nil {
		return "", fmt.Errorf("count visits for %s: %w", t.Format("2006-01"), err)
	}
	return fmt.Sprintf("IH%02d%c%05d", t.Year()%100, monthLetters[t.Month()-1], count+1), nil
}

func (s *Service) Create(ctx context.Context, v *Visit) error {
	if v.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if v.Status == "" {
		v.Status = "admitted"
	}
	if !validStatuses[v.Status] {
		return fmt.Errorf("invalid visit status: %s", v.Status)
	}
	if v.AdmittedAt.IsZero() {
		v.AdmittedAt = s.now()
	}
	if v.VisitCode == "" {
		code, err := s.NextVisitCode(ctx, v.AdmittedAt)
		if err != nil {
			return err
		}
		v.VisitCode = code
	}
	return s.visits.Create(ctx, v)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return s.visits.GetByID(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*Visit, error) {
	return s.visits.GetByCode(ctx, code)
}

// ResolveCode maps a visit code to the internal visit id.
func (s *Service) ResolveCode(ctx context.Context, code string) (uuid.UUID, error) {
	return s.visits.ResolveCode(ctx, code)
}

func (s *Service) Update(ctx context.Context, v *Visit) error {
	if v.Status != "" && !validStatuses[v.Status] {
		return fmt.Errorf("invalid visit status: %s", v.Status)
	}
	return s.visits.Update(ctx, v)
}

// Discharge closes an admitted visit at the given time.
func (s *Service) Discharge(ctx context.Context, id uuid.UUID, at time.Time) (*Visit, error) {
	v, err := s.visits.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Status == "discharged" {
		return nil, fmt.Errorf("visit %s is already discharged", v.VisitCode)
	}
	if at.IsZero() {
		at = s.now()
	}
	v.Status = "discharged"
	v.DischargedAt = &at
	if err := s.visits.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error) {
	return s.visits.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Visit, int, error) {
	return s.visits.List(ctx, limit, offset)
}
