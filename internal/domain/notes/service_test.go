package notes

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	items map[uuid.UUID]*Note
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Note)}
}

func (m *mockRepo) Create(_ context.Context, n *Note) error {
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	n.UpdatedAt = time.Now()
	m.items[n.ID] = n
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Note, error) {
	n, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return n, nil
}

func (m *mockRepo) Update(_ context.Context, n *Note) error {
	if _, ok := m.items[n.ID]; !ok {
		return ErrNotFound
	}
	m.items[n.ID] = n
	return nil
}

func (m *mockRepo) ListByVisit(_ context.Context, visitID uuid.UUID) ([]*Note, error) {
	var out []*Note
	for _, n := range m.items {
		if n.VisitID == visitID {
			out = append(out, n)
		}
	}
	return out, nil
}

func TestCreateNote(t *testing.T) {
	svc := NewService(newMockRepo())
	n := &Note{VisitID: uuid.New(), AuthorID: "dr-1", AuthorName: "Dr. Mehta", Content: "Stable overnight."}
	if err := svc.Create(context.Background(), n); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if n.NoteType != "progress" {
		t.Errorf("expected default note type progress, got %s", n.NoteType)
	}
}

func TestCreateNote_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	cases := []struct {
		name string
		n    Note
	}{
		{"missing visit", Note{AuthorID: "dr-1", Content: "x"}},
		{"missing content", Note{VisitID: uuid.New(), AuthorID: "dr-1"}},
		{"missing author", Note{VisitID: uuid.New(), Content: "x"}},
		{"bad type", Note{VisitID: uuid.New(), AuthorID: "dr-1", Content: "x", NoteType: "haiku"}},
	}
	for _, tc := range cases {
		n := tc.n
		if err := svc.Create(context.Background(), &n); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestAmend_OnlyAuthor(t *testing.T) {
	svc := NewService(newMockRepo())
	n := &Note{VisitID: uuid.New(), AuthorID: "dr-1", Content: "Initial."}
	if err := svc.Create(context.Background(), n); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Amend(context.Background(), n.ID, "dr-2", "Edited."); err == nil {
		t.Error("expected error amending someone else's note")
	}

	out, err := svc.Amend(context.Background(), n.ID, "dr-1", "Revised plan.")
	if err != nil {
		t.Fatalf("Amend failed: %v", err)
	}
	if out.Content != "Revised plan." {
		t.Errorf("expected amended content, got %q", out.Content)
	}
}

func TestListByVisit_MultipleConsultants(t *testing.T) {
	svc := NewService(newMockRepo())
	visitID := uuid.New()
	for _, author := range []string{"dr-1", "dr-2", "dr-3"} {
		n := &Note{VisitID: visitID, AuthorID: author, Content: "note"}
		if err := svc.Create(context.Background(), n); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	items, err := svc.ListByVisit(context.Background(), visitID)
	if err != nil {
		t.Fatalf("ListByVisit failed: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("expected 3 notes, got %d", len(items))
	}
}
