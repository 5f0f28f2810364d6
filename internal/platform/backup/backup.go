// Package backup provides the layered discount backup stores used by the
// billing ledger: a scratch tier that survives a page reload (Redis) and an
// emergency tier that survives a process restart (local files). Every tier
// persists the same versioned envelope keyed by bill identifier.
package backup

import (
	"context"
	"time"
)

// EnvelopeVersion is written into every envelope so future readers can
// detect stale formats.
const EnvelopeVersion = 1

// Envelope wraps a backed-up discount row with enough metadata to judge
// its freshness on recovery.
type Envelope struct {
	Discount  map[string]string `json:"discount"`
	BillID    string            `json:"bill_id"`
	Timestamp time.Time         `json:"timestamp"`
	Version   int               `json:"version"`
}

// Store is a single backup tier. Load reports found=false when the tier has
// no envelope for the bill; that is not an error.
type Store interface {
	Save(ctx context.Context, billID string, discount map[string]string) error
	Load(ctx context.Context, billID string) (*Envelope, bool, error)
	Delete(ctx context.Context, billID string) error
}

func newEnvelope(billID string, discount map[string]string) *Envelope {
	cp := make(map[string]string, len(discount))
	for k, v := range discount {
		cp[k] = v
	}
	return &Envelope{
		Discount:  cp,
		BillID:    billID,
		Timestamp: time.Now().UTC(),
		Version:   EnvelopeVersion,
	}
}
