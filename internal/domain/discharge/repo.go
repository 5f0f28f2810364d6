package discharge

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("discharge summary not found")

// Repository archives rendered discharge summaries.
type Repository interface {
	Save(ctx context.Context, d *Document) error
	LatestByVisit(ctx context.Context, visitID uuid.UUID) (*Document, error)
}
