package visit

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a visit cannot be located by id or code.
var ErrNotFound = errors.New("visit not found")

type Repository interface {
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)
	GetByCode(ctx context.Context, code string) (*Visit, error)
	// ResolveCode maps the human-facing visit code to the internal uuid.
	ResolveCode(ctx context.Context, code string) (uuid.UUID, error)
	Update(ctx context.Context, v *Visit) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error)
	List(ctx context.Context, limit, offset int) ([]*Visit, int, error)
	// CountInMonth returns how many visits were opened in the month containing t,
	// used to derive the next visit code sequence number.
	CountInMonth(ctx context.Context, year int, month int) (int, error)
}
