package notes

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

var validNoteTypes = map[string]bool{
	"progress": true, "consultation": true, "procedure": true, "discharge": true,
}

type Service struct {
	notes Repository
}

func NewService(notes Repository) *Service {
	return &Service{notes: notes}
}

func (s *Service) Create(ctx context.Context, n *Note) error {
	if n.VisitID == uuid.Nil {
		return fmt.Errorf("visit_id is required")
	}
	if n.Content == "" {
		return fmt.Errorf("content is required")
	}
	if n.AuthorID == "" {
		return fmt.Errorf("author_id is required")
	}
	if n.NoteType == "" {
		n.NoteType = "progress"
	}
	if !validNoteTypes[n.NoteType] {
		return fmt.Errorf("invalid note type: %s", n.NoteType)
	}
	return s.notes.Create(ctx, n)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Note, error) {
	return s.notes.GetByID(ctx, id)
}

// Amend replaces the note body. Only the original author may amend.
func (s *Service) Amend(ctx context.Context, id uuid.UUID, authorID, content string) (*Note, error) {
	n, err := s.notes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.AuthorID != authorID {
		return nil, fmt.Errorf("only the author may amend a note")
	}
	if content == "" {
		return nil, fmt.Errorf("content is required")
	}
	n.Content = content
	if err := s.notes.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Note, error) {
	return s.notes.ListByVisit(ctx, visitID)
}
