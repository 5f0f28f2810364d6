package visit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockRepo struct {
	items map[uuid.UUID]*Visit
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Visit)}
}

func (m *mockRepo) Create(_ context.Context, v *Visit) error {
	v.ID = uuid.New()
	v.CreatedAt = time.Now()
	v.UpdatedAt = time.Now()
	m.items[v.ID] = v
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Visit, error) {
	v, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (m *mockRepo) GetByCode(_ context.Context, code string) (*Visit, error) {
	for _, v := range m.items {
		if v.VisitCode == code {
			return v, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) ResolveCode(_ context.Context, code string) (uuid.UUID, error) {
	for _, v := range m.items {
		if v.VisitCode == code {
			return v.ID, nil
		}
	}
	return uuid.Nil, ErrNotFound
}

func (m *mockRepo) Update(_ context.Context, v *Visit) error {
	if _, ok := m.items[v.ID]; !ok {
		return ErrNotFound
	}
	v.UpdatedAt = time.Now()
	m.items[v.ID] = v
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error) {
	var out []*Visit
	for _, v := range m.items {
		if v.PatientID == patientID {
			out = append(out, v)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Visit, int, error) {
	var out []*Visit
	for _, v := range m.items {
		out = append(out, v)
	}
	return out, len(out), nil
}

func (m *mockRepo) CountInMonth(_ context.Context, year, month int) (int, error) {
	count := 0
	for _, v := range m.items {
		if v.AdmittedAt.Year() == year && int(v.AdmittedAt.Month()) == month {
			count++
		}
	}
	return count, nil
}

// -- Tests --

func TestCreateVisit(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	v := &Visit{PatientID: uuid.New()}
	if err := svc.Create(context.Background(), v); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if v.ID == uuid.Nil {
		t.Error("expected visit id to be set")
	}
	if v.Status != "admitted" {
		t.Errorf("expected default status admitted, got %s", v.Status)
	}
	if v.VisitCode == "" {
		t.Error("expected visit code to be generated")
	}
}

func TestCreateVisit_RequiresPatient(t *testing.T) {
	svc := NewService(newMockRepo())
	err := svc.Create(context.Background(), &Visit{})
	if err == nil {
		t.Fatal("expected error for missing patient_id")
	}
}

func TestCreateVisit_RejectsBadStatus(t *testing.T) {
	svc := NewService(newMockRepo())
	err := svc.Create(context.Background(), &Visit{PatientID: uuid.New(), Status: "floating"})
	if err == nil {
		t.Fatal("expected error for invalid status")
	}
}

func TestNextVisitCode_Format(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	at := time.Date(2025, time.September, 22, 10, 0, 0, 0, time.UTC)
	code, err := svc.NextVisitCode(context.Background(), at)
	if err != nil {
		t.Fatalf("NextVisitCode failed: %v", err)
	}
	if code != "IH25I00001" {
		t.Errorf("expected IH25I00001, got %s", code)
	}
}

func TestNextVisitCode_SequenceAdvances(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	at := time.Date(2025, time.January, 5, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		v := &Visit{PatientID: uuid.New(), AdmittedAt: at}
		if err := svc.Create(context.Background(), v); err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
		want := fmt.Sprintf("IH25A%05d", i+1)
		if v.VisitCode != want {
			t.Errorf("visit %d: expected code %s, got %s", i, want, v.VisitCode)
		}
	}
}

func TestNextVisitCode_MonthLetters(t *testing.T) {
	svc := NewService(newMockRepo())
	cases := []struct {
		month time.Month
		want  byte
	}{
		{time.January, 'A'},
		{time.June, 'F'},
		{time.December, 'L'},
	}
	for _, tc := range cases {
		at := time.Date(2025, tc.month, 1, 0, 0, 0, 0, time.UTC)
		code, err := svc.NextVisitCode(context.Background(), at)
		if err != nil {
			t.Fatalf("NextVisitCode(%s) failed: %v", tc.month, err)
		}
		if code[4] != tc.want {
			t.Errorf("%s: expected month letter %c, got %c", tc.month, tc.want, code[4])
		}
	}
}

func TestDischarge(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	v := &Visit{PatientID: uuid.New()}
	if err := svc.Create(context.Background(), v); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	at := time.Now()
	out, err := svc.Discharge(context.Background(), v.ID, at)
	if err != nil {
		t.Fatalf("Discharge failed: %v", err)
	}
	if out.Status != "discharged" {
		t.Errorf("expected status discharged, got %s", out.Status)
	}
	if out.DischargedAt == nil || !out.DischargedAt.Equal(at) {
		t.Error("expected discharged_at to be set")
	}

	if _, err := svc.Discharge(context.Background(), v.ID, at); err == nil {
		t.Error("expected error discharging twice")
	}
}

func TestDischarge_NotFound(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.Discharge(context.Background(), uuid.New(), time.Now()); err == nil {
		t.Fatal("expected error for unknown visit")
	}
}

func TestAdmissionDays(t *testing.T) {
	admitted := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	discharged := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)

	v := &Visit{AdmittedAt: admitted, DischargedAt: &discharged}
	if got := v.AdmissionDays(time.Now()); got != 3 {
		t.Errorf("expected 3 days, got %d", got)
	}

	sameDay := &Visit{AdmittedAt: admitted, DischargedAt: &admitted}
	if got := sameDay.AdmissionDays(time.Now()); got != 1 {
		t.Errorf("expected same-day visit to count 1 day, got %d", got)
	}
}
