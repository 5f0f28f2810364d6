package patient

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	items map[uuid.UUID]*Patient
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	m.items[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) GetByMRN(_ context.Context, mrn string) (*Patient, error) {
	for _, p := range m.items {
		if p.MRN == mrn {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.items[p.ID]; !ok {
		return ErrNotFound
	}
	m.items[p.ID] = p
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	var out []*Patient
	for _, p := range m.items {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockRepo) Search(_ context.Context, name string, limit, offset int) ([]*Patient, int, error) {
	var out []*Patient
	for _, p := range m.items {
		if strings.Contains(strings.ToLower(p.NameFamily), strings.ToLower(name)) ||
			strings.Contains(strings.ToLower(p.NameGiven), strings.ToLower(name)) {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) Count(_ context.Context) (int, error) {
	return len(m.items), nil
}

func TestRegister(t *testing.T) {
	svc := NewService(newMockRepo())
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	p := &Patient{NameGiven: "Asha", NameFamily: "Rao"}
	if err := svc.Register(context.Background(), p); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if p.MRN != "MRN2025000001" {
		t.Errorf("expected MRN2025000001, got %s", p.MRN)
	}
	if !p.Active {
		t.Error("expected registered patient to be active")
	}
}

func TestRegister_RequiresName(t *testing.T) {
	svc := NewService(newMockRepo())
	if err := svc.Register(context.Background(), &Patient{}); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestRegister_KeepsProvidedMRN(t *testing.T) {
	svc := NewService(newMockRepo())
	p := &Patient{NameGiven: "Asha", NameFamily: "Rao", MRN: "MRN2024000042"}
	if err := svc.Register(context.Background(), p); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if p.MRN != "MRN2024000042" {
		t.Errorf("expected provided MRN kept, got %s", p.MRN)
	}
}

func TestDeactivate(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	p := &Patient{NameGiven: "Asha", NameFamily: "Rao"}
	if err := svc.Register(context.Background(), p); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := svc.Deactivate(context.Background(), p.ID); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	got, _ := repo.GetByID(context.Background(), p.ID)
	if got.Active {
		t.Error("expected patient to be inactive")
	}
}

func TestFullName(t *testing.T) {
	p := &Patient{NameGiven: "Asha", NameFamily: "Rao"}
	if got := p.FullName(); got != "Asha Rao" {
		t.Errorf("expected Asha Rao, got %s", got)
	}
	only := &Patient{NameFamily: "Rao"}
	if got := only.FullName(); got != "Rao" {
		t.Errorf("expected Rao, got %s", got)
	}
}
