package credits

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/pdfcorretor/pdfcorretor/app/models"
	"gorm.io/gorm"
)

// ErrInsufficientCredits is returned by Consume when both the monthly
// allotment and the extra balance are exhausted. It surfaces the guarded
// UPDATE failing, not a read-then-check, so the race window is closed.
var ErrInsufficientCredits = errors.New("insufficient credits")

// Source identifies which balance a consumed credit came from, so a
// compensating refund can restore the exact counter it was taken from.
type Source string

const (
	SourceMonthly Source = "monthly"
	SourceExtra   Source = "extra"
)

// Ledger exposes the atomic credit operations. Priority order: monthly
// credits are consumed before extra credits.
type Ledger struct {
	store Store
}

// NewLedger creates a ledger from an injected store.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// NewLedgerFromDB creates a ledger from a GORM DB handle.
func NewLedgerFromDB(db *gorm.DB) *Ledger {
	return NewLedger(NewStore(db))
}

// CanConsume reports whether the account currently has any credit left.
// Read-only and non-authoritative: a concurrent consumer may still win
// the last credit between this check and Consume.
func (l *Ledger) CanConsume(ctx context.Context, userID uint) (bool, error) {
	_ = ctx
	balance, err := l.store.GetBalance(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return balance.TotalAvailable() > 0, nil
}

// Consume atomically debits one credit, monthly first, then extra.
func (l *Ledger) Consume(ctx context.Context, userID uint) (Source, error) {
	_ = ctx
	ok, err := l.store.ConsumeMonthly(userID)
	if err != nil {
		return "", fmt.Errorf("consume monthly credit: %w", err)
	}
	if ok {
		return SourceMonthly, nil
	}

	ok, err = l.store.ConsumeExtra(userID)
	if err != nil {
		return "", fmt.Errorf("consume extra credit: %w", err)
	}
	if ok {
		return SourceExtra, nil
	}

	return "", ErrInsufficientCredits
}

// Refund is the compensating operation for a successful Consume. Callers
// must invoke it exactly once per consumed credit on downstream failure.
func (l *Ledger) Refund(ctx context.Context, userID uint, source Source) error {
	_ = ctx
	switch source {
	case SourceMonthly:
		return l.store.RefundMonthly(userID)
	case SourceExtra:
		return l.store.RefundExtra(userID)
	default:
		return fmt.Errorf("unknown credit source %q", source)
	}
}

// Grant applies administrative or billing-driven adjustments. Deltas may
// be negative for corrections; balances are clamped at zero, never
// errored.
func (l *Ledger) Grant(ctx context.Context, userID uint, monthlyDelta, extraDelta int) error {
	_ = ctx
	if _, err := l.store.EnsureBalance(userID); err != nil {
		return fmt.Errorf("ensure credit balance: %w", err)
	}
	if err := l.store.Adjust(userID, monthlyDelta, extraDelta); err != nil {
		return fmt.Errorf("adjust credit balance: %w", err)
	}
	log.Printf("credits: granted user=%d monthly_delta=%d extra_delta=%d", userID, monthlyDelta, extraDelta)
	return nil
}

// Reset writes the plan entitlement on subscription renewal:
// monthly_used back to zero, monthly_limit to the current entitlement.
func (l *Ledger) Reset(ctx context.Context, userID uint, monthlyLimit int) error {
	_ = ctx
	if _, err := l.store.EnsureBalance(userID); err != nil {
		return fmt.Errorf("ensure credit balance: %w", err)
	}
	return l.store.Reset(userID, monthlyLimit)
}

// Balance returns the current balance, creating an empty row for
// accounts that never had one.
func (l *Ledger) Balance(ctx context.Context, userID uint) (*models.CreditBalance, error) {
	_ = ctx
	return l.store.EnsureBalance(userID)
}
