package discharge

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/domain/notes"
	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/domain/pharmacy"
	"github.com/hms/hms/internal/domain/visit"
)

// VisitSource, PatientSource, NotesSource and MedsSource are the
// collaborators the summary is assembled from.
type VisitSource interface {
	Get(ctx context.Context, id uuid.UUID) (*visit.Visit, error)
}

type PatientSource interface {
	Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

type NotesSource interface {
	ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*notes.Note, error)
}

type MedsSource interface {
	ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*pharmacy.Dispense, error)
}

// BalanceSource reports the outstanding balance for a bill. Optional; a
// summary without a bill id skips the financial section.
type BalanceSource interface {
	BalanceTotal(ctx context.Context, billID string) (decimal.Decimal, error)
}

// Document is the rendered discharge summary plus the data it was built
// from, so callers can re-render or archive it.
type Document struct {
	ID          uuid.UUID `json:"id"`
	VisitID     uuid.UUID `json:"visit_id"`
	VisitCode   string    `json:"visit_code"`
	BillID      string    `json:"bill_id,omitempty"`
	PatientName string    `json:"patient_name"`
	MRN         string    `json:"mrn"`
	GeneratedAt time.Time `json:"generated_at"`
	Text        string    `json:"text"`
}

type Service struct {
	repo     Repository
	visits   VisitSource
	patients PatientSource
	notes    NotesSource
	meds     MedsSource
	balances BalanceSource
	tmpl     *template.Template
	now      func() time.Time
}

// NewService builds the summary assembler. repo may be nil, in which case
// generated documents are returned but not archived.
func NewService(repo Repository, visits VisitSource, patients PatientSource, n NotesSource, meds MedsSource, balances BalanceSource) *Service {
	return &Service{
		repo:     repo,
		visits:   visits,
		patients: patients,
		notes:    n,
		meds:     meds,
		balances: balances,
		tmpl:     template.Must(template.New("discharge").Parse(summaryTemplate)),
		now:      time.Now,
	}
}

type templateData struct {
	Patient       *patient.Patient
	Visit         *visit.Visit
	Notes         []*notes.Note
	Dispenses     []*pharmacy.Dispense
	AdmissionDays int
	PharmacyTotal string
	Balance       string
	HasBalance    bool
	GeneratedAt   string
}

// Generate assembles and renders the discharge summary for a visit.
// billID is optional; when present the outstanding balance is included.
func (s *Service) Generate(ctx context.Context, visitID uuid.UUID, billID string) (*Document, error) {
	v, err := s.visits.Get(ctx, visitID)
	if err != nil {
		return nil, fmt.Errorf("load visit: %w", err)
	}
	p, err := s.patients.Get(ctx, v.PatientID)
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}
	visitNotes, err := s.notes.ListByVisit(ctx, visitID)
	if err != nil {
		return nil, fmt.Errorf("load notes: %w", err)
	}
	dispenses, err := s.meds.ListByVisit(ctx, visitID)
	if err != nil {
		return nil, fmt.Errorf("load dispenses: %w", err)
	}

	pharmacyTotal := decimal.Zero
	for _, d := range dispenses {
		pharmacyTotal = pharmacyTotal.Add(d.Cost)
	}

	now := s.now()
	data := templateData{
		Patient:       p,
		Visit:         v,
		Notes:         visitNotes,
		Dispenses:     dispenses,
		AdmissionDays: v.AdmissionDays(now),
		PharmacyTotal: pharmacyTotal.StringFixed(2),
		GeneratedAt:   now.Format("02 Jan 2006 15:04"),
	}
	if billID != "" && s.balances != nil {
		if bal, err := s.balances.BalanceTotal(ctx, billID); err == nil {
			data.Balance = bal.StringFixed(2)
			data.HasBalance = true
		}
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render discharge summary: %w", err)
	}

	doc := &Document{
		VisitID:     visitID,
		VisitCode:   v.VisitCode,
		BillID:      billID,
		PatientName: p.FullName(),
		MRN:         p.MRN,
		GeneratedAt: now,
		Text:        strings.TrimSpace(buf.String()) + "\n",
	}
	if s.repo != nil {
		if err := s.repo.Save(ctx, doc); err != nil {
			return nil, fmt.Errorf("archive discharge summary: %w", err)
		}
	}
	return doc, nil
}

// Latest returns the most recently archived summary for a visit.
func (s *Service) Latest(ctx context.Context, visitID uuid.UUID) (*Document, error) {
	if s.repo == nil {
		return nil, ErrNotFound
	}
	return s.repo.LatestByVisit(ctx, visitID)
}
