package ledger

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/backup"
)

// RecoveryProvider is one tier of the discount recovery chain. TryLoad
// reports found=false when the tier holds nothing for the bill.
type RecoveryProvider interface {
	Name() string
	TryLoad(ctx context.Context, billID string) (Row, bool, error)
}

// storeProvider adapts a backup.Store tier to the recovery contract.
type storeProvider struct {
	name  string
	store backup.Store
}

func NewStoreProvider(name string, store backup.Store) RecoveryProvider {
	return &storeProvider{name: name, store: store}
}

func (p *storeProvider) Name() string { return p.name }

func (p *storeProvider) TryLoad(ctx context.Context, billID string) (Row, bool, error) {
	env, found, err := p.store.Load(ctx, billID)
	if err != nil || !found {
		return nil, false, err
	}
	row := NewRow()
	any := false
	for col, raw := range env.Discount {
		cell, err := CellFromString(raw)
		if err != nil {
			continue
		}
		if cell.IsSet() {
			any = true
		}
		row[Category(col)] = cell
	}
	if !any {
		return nil, false, nil
	}
	return row, true, nil
}

// RecoveryChain consults its providers strictly in order. A tier that
// errors is logged and skipped; a tier that has data wins.
type RecoveryChain struct {
	providers []RecoveryProvider
	log       zerolog.Logger
}

func NewRecoveryChain(log zerolog.Logger, providers ...RecoveryProvider) *RecoveryChain {
	return &RecoveryChain{providers: providers, log: log}
}

// Recover returns the first tier's discount row along with the tier name.
func (c *RecoveryChain) Recover(ctx context.Context, billID string) (Row, string, bool) {
	for _, p := range c.providers {
		row, found, err := p.TryLoad(ctx, billID)
		if err != nil {
			c.log.Warn().Err(err).Str("bill_id", billID).Str("provider", p.Name()).Msg("recovery tier failed, trying next")
			continue
		}
		if found {
			return row, p.Name(), true
		}
	}
	return nil, "", false
}

// discountStrings flattens a discount row into the envelope payload,
// dropping absent cells.
func discountStrings(row Row) map[string]string {
	out := make(map[string]string)
	for cat, cell := range row {
		if cell.IsSet() {
			out[string(cat)] = cell.String()
		}
	}
	return out
}
