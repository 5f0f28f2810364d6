package notes

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("note not found")

type Repository interface {
	Create(ctx context.Context, n *Note) error
	GetByID(ctx context.Context, id uuid.UUID) (*Note, error)
	Update(ctx context.Context, n *Note) error
	ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Note, error)
}
