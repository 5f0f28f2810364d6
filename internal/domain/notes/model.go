package notes

import (
	"time"

	"github.com/google/uuid"
)

// Note maps to the clinical_notes table. A visit accumulates notes from
// every consultant who sees the patient.
type Note struct {
	ID         uuid.UUID `db:"id" json:"id"`
	VisitID    uuid.UUID `db:"visit_id" json:"visit_id"`
	AuthorID   string    `db:"author_id" json:"author_id"`
	AuthorName string    `db:"author_name" json:"author_name"`
	Specialty  *string   `db:"specialty" json:"specialty,omitempty"`
	NoteType   string    `db:"note_type" json:"note_type"`
	Content    string    `db:"content" json:"content"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
