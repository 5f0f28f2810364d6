package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/platform/backup"
)

// Service coordinates the per-bill ledger: loading, auto-population,
// edits, explicit save, and the manual balance recompute. All in-memory
// mutation is serialized through the bill's session; remote calls run
// outside the lock and their results are discarded when a newer request
// generation has superseded them.
type Service struct {
	repo      SummaryRepository
	discounts DiscountRepository
	agg       *Aggregator
	visits    VisitResolver
	scratch   backup.Store
	emergency backup.Store
	recovery  *RecoveryChain
	sessions  *sessions
	log       zerolog.Logger
}

func NewService(repo SummaryRepository, discounts DiscountRepository, agg *Aggregator,
	visits VisitResolver, scratch, emergency backup.Store, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		discounts: discounts,
		agg:       agg,
		visits:    visits,
		scratch:   scratch,
		emergency: emergency,
		recovery: NewRecoveryChain(log,
			NewStoreProvider("scratch", scratch),
			NewStoreProvider("emergency", emergency)),
		sessions: newSessions(),
		log:      log,
	}
}

func (s *Service) transition(sess *session, billID string, to State) {
	from := sess.state
	sess.state = to
	s.log.Debug().Str("bill_id", billID).Stringer("from", from).Stringer("to", to).Msg("ledger state transition")
}

// Snapshot returns a copy of the in-memory ledger and its current state.
func (s *Service) Snapshot(billID string) (*Summary, State) {
	sess := s.sessions.get(billID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.summary.Clone(), sess.state
}

// Load fetches the persisted summary for the bill. The discount total is
// read independently from visit_discounts, which always wins over the
// summary row's own discount column. When neither remote source has data
// the layered backup chain is consulted, in-memory state first.
func (s *Service) Load(ctx context.Context, billID, visitCode string) (*Summary, error) {
	if billID == "" {
		return nil, ErrMissingBillID
	}
	sess := s.sessions.get(billID)
	gen := sess.beginLoad(visitCode)
	s.log.Debug().Str("bill_id", billID).Uint64("generation", gen).Msg("ledger load started")

	summary, repoErr := s.repo.Get(ctx, billID)
	if repoErr != nil && !errors.Is(repoErr, ErrNotFound) {
		sess.mu.Lock()
		if sess.current(gen) {
			s.transition(sess, billID, StateLoadFailed)
		}
		sess.mu.Unlock()
		return nil, repoErr
	}

	// visit_discounts is the source of truth for the discount total.
	discountTotal, discountFound := s.loadDiscountTotal(ctx, visitCode)

	var recovered Row
	var tier string
	if summary == nil && !discountFound {
		recovered, tier = s.recoverDiscount(ctx, sess, billID)
	}

	sess.mu.Lock()
	if !sess.current(gen) {
		snapshot := sess.summary.Clone()
		sess.mu.Unlock()
		s.log.Debug().Str("bill_id", billID).Uint64("generation", gen).Msg("discarding stale load result")
		return snapshot, nil
	}
	switch {
	case summary != nil:
		summary.VisitCode = sess.visitCode
		if discountFound {
			summary.Discount[CatTotal] = NewCell(discountTotal)
		}
		sess.summary = summary
	case discountFound:
		fresh := NewSummary(billID)
		fresh.VisitCode = sess.visitCode
		fresh.Discount[CatTotal] = NewCell(discountTotal)
		sess.summary = fresh
	case recovered != nil:
		fresh := NewSummary(billID)
		fresh.VisitCode = sess.visitCode
		fresh.Discount = recovered
		sess.summary = fresh
		s.log.Info().Str("bill_id", billID).Str("tier", tier).Msg("discount recovered from backup")
	}
	s.transition(sess, billID, StateLoaded)
	pending := sess.pendingPopulate
	pendingMeds := sess.pendingMeds
	sess.pendingPopulate = false
	sess.pendingMeds = nil
	snapshot := sess.summary.Clone()
	sess.mu.Unlock()

	// A populate queued while the load was in flight runs exactly once,
	// now that the loaded discount can no longer be clobbered.
	if pending {
		return s.runPopulate(ctx, sess, billID, pendingMeds)
	}
	return snapshot, nil
}

func (s *Service) loadDiscountTotal(ctx context.Context, visitCode string) (decimal.Decimal, bool) {
	if visitCode == "" {
		return decimal.Zero, false
	}
	visitID, err := s.visits.ResolveCode(ctx, visitCode)
	if err != nil {
		s.log.Warn().Err(err).Str("visit_code", visitCode).Msg("visit code did not resolve during load")
		return decimal.Zero, false
	}
	total, found, err := s.discounts.GetTotal(ctx, visitID)
	if err != nil {
		s.log.Warn().Err(err).Str("visit_code", visitCode).Msg("visit_discounts lookup failed")
		return decimal.Zero, false
	}
	return total, found
}

// recoverDiscount tries the in-memory row first, then the backup tiers.
func (s *Service) recoverDiscount(ctx context.Context, sess *session, billID string) (Row, string) {
	sess.mu.Lock()
	var inMemory Row
	for _, cell := range sess.summary.Discount {
		if cell.IsSet() {
			inMemory = sess.summary.Discount.Clone()
			break
		}
	}
	sess.mu.Unlock()
	if inMemory != nil {
		return inMemory, "memory"
	}
	row, tier, found := s.recovery.Recover(ctx, billID)
	if !found {
		return nil, ""
	}
	return row, tier
}

// AutoPopulate refreshes totals, paid and refunded from the aggregators.
// The discount row is never touched. While a load is in flight (or has
// not happened yet) the request is queued and runs once, after the load.
func (s *Service) AutoPopulate(ctx context.Context, billID, visitCode string, meds []MedicationLine) (*Summary, bool, error) {
	if billID == "" {
		return nil, false, ErrMissingBillID
	}
	sess := s.sessions.get(billID)
	sess.mu.Lock()
	if visitCode != "" {
		sess.visitCode = visitCode
	}
	switch sess.state {
	case StateUninitialized, StateLoading, StatePopulating:
		sess.pendingPopulate = true
		sess.pendingMeds = meds
		snapshot := sess.summary.Clone()
		sess.mu.Unlock()
		s.log.Debug().Str("bill_id", billID).Msg("populate queued until load completes")
		return snapshot, true, nil
	}
	sess.mu.Unlock()

	out, err := s.runPopulate(ctx, sess, billID, meds)
	return out, false, err
}

func (s *Service) runPopulate(ctx context.Context, sess *session, billID string, meds []MedicationLine) (*Summary, error) {
	sess.mu.Lock()
	s.transition(sess, billID, StatePopulating)
	gen := sess.generation
	visitCode := sess.visitCode
	sess.mu.Unlock()

	totals := s.agg.CollectTotals(ctx, visitCode, meds)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.current(gen) {
		s.log.Debug().Str("bill_id", billID).Msg("discarding stale populate result")
		return sess.summary.Clone(), nil
	}
	sum := sess.summary
	for _, cat := range Categories {
		sum.TotalAmount[cat] = NewCell(totals.Categories[cat])
	}
	sum.TotalAmount[CatTotal] = NewCell(totals.GrandTotal())

	sum.AmountPaid[CatAdvancePayment] = NewCell(totals.Paid)
	sum.AmountPaid[CatTotal] = NewCell(totals.Paid)
	sum.RefundedAmount[CatAdvancePayment] = NewCell(totals.Refunded)
	sum.RefundedAmount[CatTotal] = NewCell(totals.Refunded)

	// Simple per-category balance: total minus paid plus refunded.
	// Discount is deliberately excluded here; only the explicit
	// recalculate folds it in.
	for _, cat := range Categories {
		bal := totals.Categories[cat].
			Sub(sum.AmountPaid[cat].Value()).
			Add(sum.RefundedAmount[cat].Value())
		sum.Balance[cat] = NewCell(bal)
	}
	sum.Balance[CatTotal] = NewCell(totals.GrandTotal().Sub(totals.Paid).Add(totals.Refunded))

	s.transition(sess, billID, StateReady)
	return sum.Clone(), nil
}

// SetCell writes one cell. Discount edits are tracked and backed up to the
// scratch tier immediately, before any save is attempted.
func (s *Service) SetCell(ctx context.Context, billID string, rowName RowName, cat Category, value string) error {
	cell, err := CellFromString(value)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", value, err)
	}
	sess := s.sessions.get(billID)
	sess.mu.Lock()
	row := sess.summary.RowByName(rowName)
	if row == nil {
		sess.mu.Unlock()
		return fmt.Errorf("unknown ledger row %q", rowName)
	}
	if _, ok := row[cat]; !ok {
		sess.mu.Unlock()
		return fmt.Errorf("unknown ledger column %q", cat)
	}
	row[cat] = cell
	var discount map[string]string
	if rowName == RowDiscount {
		sess.discountDirty = true
		discount = discountStrings(sess.summary.Discount)
	}
	sess.mu.Unlock()

	if discount != nil {
		if err := s.scratch.Save(ctx, billID, discount); err != nil {
			s.log.Warn().Err(err).Str("bill_id", billID).Msg("scratch discount backup failed")
		}
	}
	return nil
}

// Save upserts the whole ledger. A missing bill id is a precondition
// failure, not a transient error. The discount row is backed up to both
// tiers before the remote write so a failed save is still recoverable.
func (s *Service) Save(ctx context.Context, billID string) error {
	if billID == "" {
		return ErrMissingBillID
	}
	sess := s.sessions.get(billID)
	sess.mu.Lock()
	snapshot := sess.summary.Clone()
	visitCode := sess.visitCode
	sess.mu.Unlock()

	discount := discountStrings(snapshot.Discount)
	if err := s.scratch.Save(ctx, billID, discount); err != nil {
		s.log.Warn().Err(err).Str("bill_id", billID).Msg("scratch discount backup failed before save")
	}
	if err := s.emergency.Save(ctx, billID, discount); err != nil {
		s.log.Warn().Err(err).Str("bill_id", billID).Msg("emergency discount backup failed before save")
	}

	// Visit resolution is best-effort: an unresolved code stores a null
	// visit reference rather than blocking the save.
	var visitID *uuid.UUID
	if visitCode != "" {
		if id, err := s.visits.ResolveCode(ctx, visitCode); err == nil {
			visitID = &id
		} else {
			s.log.Warn().Err(err).Str("visit_code", visitCode).Msg("visit code did not resolve during save")
		}
	}

	if err := s.repo.Upsert(ctx, snapshot, visitID); err != nil {
		return fmt.Errorf("save financial summary: %w", err)
	}
	if visitID != nil {
		if err := s.discounts.SaveTotal(ctx, *visitID, discountTotalPtr(snapshot)); err != nil {
			s.log.Warn().Err(err).Str("bill_id", billID).Msg("visit_discounts write failed")
		}
	}

	s.verifySave(ctx, billID, snapshot)

	sess.mu.Lock()
	sess.discountDirty = false
	sess.mu.Unlock()
	return nil
}

// verifySave re-reads the row and compares discount columns. A mismatch
// is advisory only.
func (s *Service) verifySave(ctx context.Context, billID string, written *Summary) {
	stored, err := s.repo.Get(ctx, billID)
	if err != nil {
		s.log.Warn().Err(err).Str("bill_id", billID).Msg("post-save verification read failed")
		return
	}
	for _, cat := range AllColumns {
		want := upsertValue(RowDiscount, written.Discount[cat])
		got := stored.Discount[cat]
		if want.Valid != got.IsSet() || (want.Valid && !want.Decimal.Equal(got.Value())) {
			s.log.Warn().Str("bill_id", billID).Str("column", string(cat)).
				Str("written", written.Discount[cat].String()).Str("stored", got.String()).
				Msg("post-save discount mismatch")
		}
	}
}

func discountTotalPtr(s *Summary) *decimal.Decimal {
	cell := s.Discount[CatTotal]
	if !cell.IsSet() || cell.Value().Sign() == 0 {
		return nil
	}
	v := cell.Value()
	return &v
}

// RecalculateBalance is the only path that folds discount into balance.
// It re-reads the discount total from visit_discounts first, falling back
// to the in-memory row, then computes
// total - discount - paid + refunded.
func (s *Service) RecalculateBalance(ctx context.Context, billID string) (*Summary, error) {
	if billID == "" {
		return nil, ErrMissingBillID
	}
	sess := s.sessions.get(billID)
	sess.mu.Lock()
	visitCode := sess.visitCode
	sess.mu.Unlock()

	total, found := s.loadDiscountTotal(ctx, visitCode)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if found {
		sess.summary.Discount[CatTotal] = NewCell(total)
	}
	sess.summary.Balance[CatTotal] = NewCell(sess.summary.BalanceTotal())
	return sess.summary.Clone(), nil
}

// DiscountRow returns the ground-truth discount row: the persisted total
// when it exists, otherwise the in-memory row.
func (s *Service) DiscountRow(ctx context.Context, billID string) (Row, error) {
	if billID == "" {
		return nil, ErrMissingBillID
	}
	sess := s.sessions.get(billID)
	sess.mu.Lock()
	visitCode := sess.visitCode
	row := sess.summary.Discount.Clone()
	sess.mu.Unlock()

	if total, found := s.loadDiscountTotal(ctx, visitCode); found {
		row[CatTotal] = NewCell(total)
	}
	return row, nil
}

// SaveDiscount replaces the discount row and persists its total without
// touching the rest of the ledger.
func (s *Service) SaveDiscount(ctx context.Context, billID string, row Row) error {
	if billID == "" {
		return ErrMissingBillID
	}
	sess := s.sessions.get(billID)
	sess.mu.Lock()
	for cat, cell := range row {
		if _, ok := sess.summary.Discount[cat]; ok {
			sess.summary.Discount[cat] = cell
		}
	}
	sess.discountDirty = true
	snapshot := sess.summary.Clone()
	visitCode := sess.visitCode
	sess.mu.Unlock()

	discount := discountStrings(snapshot.Discount)
	if err := s.scratch.Save(ctx, billID, discount); err != nil {
		s.log.Warn().Err(err).Str("bill_id", billID).Msg("scratch discount backup failed")
	}
	if visitCode == "" {
		return nil
	}
	visitID, err := s.visits.ResolveCode(ctx, visitCode)
	if err != nil {
		s.log.Warn().Err(err).Str("visit_code", visitCode).Msg("visit code did not resolve, discount kept locally")
		return nil
	}
	return s.discounts.SaveTotal(ctx, visitID, discountTotalPtr(snapshot))
}

// Clear resets the in-memory ledger for the bill. Remote rows and backups
// are left alone.
func (s *Service) Clear(billID string) {
	s.sessions.drop(billID)
}
