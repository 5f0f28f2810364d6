package pharmacy

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("dispense not found")

type Repository interface {
	Create(ctx context.Context, d *Dispense) error
	GetByID(ctx context.Context, id uuid.UUID) (*Dispense, error)
	Update(ctx context.Context, d *Dispense) error
	ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Dispense, error)
	List(ctx context.Context, limit, offset int) ([]*Dispense, int, error)
}
