package ledger

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/backup"
)

type failingProvider struct{}

func (failingProvider) Name() string { return "failing" }
func (failingProvider) TryLoad(context.Context, string) (Row, bool, error) {
	return nil, false, fmt.Errorf("tier unavailable")
}

func TestRecoveryChain_Order(t *testing.T) {
	first := backup.NewMemoryStore()
	second := backup.NewMemoryStore()
	if err := first.Save(context.Background(), "B1", map[string]string{"total": "10"}); err != nil {
		t.Fatal(err)
	}
	if err := second.Save(context.Background(), "B1", map[string]string{"total": "20"}); err != nil {
		t.Fatal(err)
	}

	chain := NewRecoveryChain(zerolog.Nop(),
		NewStoreProvider("first", first),
		NewStoreProvider("second", second))

	row, tier, found := chain.Recover(context.Background(), "B1")
	if !found {
		t.Fatal("expected recovery to succeed")
	}
	if tier != "first" {
		t.Errorf("expected first tier to win, got %s", tier)
	}
	if row[CatTotal].String() != "10" {
		t.Errorf("expected total 10, got %q", row[CatTotal])
	}
}

func TestRecoveryChain_SkipsFailingTier(t *testing.T) {
	second := backup.NewMemoryStore()
	if err := second.Save(context.Background(), "B1", map[string]string{"total": "20"}); err != nil {
		t.Fatal(err)
	}
	chain := NewRecoveryChain(zerolog.Nop(), failingProvider{}, NewStoreProvider("second", second))

	row, tier, found := chain.Recover(context.Background(), "B1")
	if !found || tier != "second" {
		t.Fatalf("expected second tier after failure, found=%v tier=%s", found, tier)
	}
	if row[CatTotal].String() != "20" {
		t.Errorf("expected total 20, got %q", row[CatTotal])
	}
}

func TestRecoveryChain_NothingFound(t *testing.T) {
	chain := NewRecoveryChain(zerolog.Nop(), NewStoreProvider("empty", backup.NewMemoryStore()))
	if _, _, found := chain.Recover(context.Background(), "B1"); found {
		t.Error("expected no recovery from an empty tier")
	}
}

func TestStoreProvider_IgnoresEmptyEnvelope(t *testing.T) {
	store := backup.NewMemoryStore()
	if err := store.Save(context.Background(), "B1", map[string]string{"total": ""}); err != nil {
		t.Fatal(err)
	}
	p := NewStoreProvider("scratch", store)
	if _, found, _ := p.TryLoad(context.Background(), "B1"); found {
		t.Error("an envelope with no set cells should not count as found")
	}
}

func TestDiscountStrings_DropsAbsent(t *testing.T) {
	row := NewRow()
	row[CatTotal] = NewCell(dec("5"))
	out := discountStrings(row)
	if len(out) != 1 || out["total"] != "5" {
		t.Errorf("expected only the set cell, got %v", out)
	}
}
