package credits

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/pdfcorretor/pdfcorretor/app/models"
	"gorm.io/gorm"
)

// memStore implements Store with the same guarded-update semantics the
// SQL store gets from conditional UPDATEs.
type memStore struct {
	mu       sync.Mutex
	balances map[uint]*models.CreditBalance
}

func newMemStore() *memStore {
	return &memStore{balances: make(map[uint]*models.CreditBalance)}
}

func (m *memStore) seed(userID uint, limit, used, extra int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[userID] = &models.CreditBalance{UserID: userID, MonthlyLimit: limit, MonthlyUsed: used, ExtraAvailable: extra}
}

func (m *memStore) GetBalance(userID uint) (*models.CreditBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *memStore) EnsureBalance(userID uint) (*models.CreditBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.balances[userID]; !ok {
		m.balances[userID] = &models.CreditBalance{UserID: userID}
	}
	copied := *m.balances[userID]
	return &copied, nil
}

func (m *memStore) ConsumeMonthly(userID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[userID]
	if !ok || b.MonthlyUsed >= b.MonthlyLimit {
		return false, nil
	}
	b.MonthlyUsed++
	return true, nil
}

func (m *memStore) ConsumeExtra(userID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[userID]
	if !ok || b.ExtraAvailable <= 0 {
		return false, nil
	}
	b.ExtraAvailable--
	return true, nil
}

func (m *memStore) RefundMonthly(userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.balances[userID]; ok && b.MonthlyUsed > 0 {
		b.MonthlyUsed--
	}
	return nil
}

func (m *memStore) RefundExtra(userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.balances[userID]; ok {
		b.ExtraAvailable++
	}
	return nil
}

func (m *memStore) Adjust(userID uint, monthlyDelta, extraDelta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	b.MonthlyLimit += monthlyDelta
	if b.MonthlyLimit < 0 {
		b.MonthlyLimit = 0
	}
	b.ExtraAvailable += extraDelta
	if b.ExtraAvailable < 0 {
		b.ExtraAvailable = 0
	}
	return nil
}

func (m *memStore) Reset(userID uint, monthlyLimit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if monthlyLimit < 0 {
		monthlyLimit = 0
	}
	b.MonthlyLimit = monthlyLimit
	b.MonthlyUsed = 0
	return nil
}

func TestConsumePriorityOrder(t *testing.T) {
	store := newMemStore()
	store.seed(1, 20, 19, 3)
	ledger := NewLedger(store)
	ctx := context.Background()

	// Last monthly credit goes first.
	source, err := ledger.Consume(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected consume error: %v", err)
	}
	if source != SourceMonthly {
		t.Fatalf("expected monthly source, got %q", source)
	}

	// Monthly exhausted: fall back to extra.
	source, err = ledger.Consume(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected consume error: %v", err)
	}
	if source != SourceExtra {
		t.Fatalf("expected extra source, got %q", source)
	}

	b, _ := store.GetBalance(1)
	if b.MonthlyUsed != 20 || b.ExtraAvailable != 2 {
		t.Fatalf("unexpected balance after consumes: used=%d extra=%d", b.MonthlyUsed, b.ExtraAvailable)
	}
}

func TestConsumeTotalExhaustion(t *testing.T) {
	store := newMemStore()
	store.seed(1, 20, 20, 0)
	ledger := NewLedger(store)

	_, err := ledger.Consume(context.Background(), 1)
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}

	b, _ := store.GetBalance(1)
	if b.MonthlyUsed != 20 || b.ExtraAvailable != 0 {
		t.Fatalf("balance must be unchanged on failed consume: used=%d extra=%d", b.MonthlyUsed, b.ExtraAvailable)
	}
}

func TestNoOverConsumptionUnderConcurrency(t *testing.T) {
	// N credits, N+1 concurrent consumers: exactly N may succeed.
	const monthlyRemaining = 3
	const extra = 2
	const total = monthlyRemaining + extra

	store := newMemStore()
	store.seed(1, 10, 10-monthlyRemaining, extra)
	ledger := NewLedger(store)

	var wg sync.WaitGroup
	results := make(chan error, total+1)
	for i := 0; i < total+1; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Consume(context.Background(), 1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes, failures := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrInsufficientCredits):
			failures++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != total || failures != 1 {
		t.Fatalf("expected %d successes and 1 failure, got %d/%d", total, successes, failures)
	}
}

func TestRefundExactness(t *testing.T) {
	store := newMemStore()
	store.seed(1, 20, 5, 2)
	ledger := NewLedger(store)
	ctx := context.Background()

	before, _ := store.GetBalance(1)

	source, err := ledger.Consume(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected consume error: %v", err)
	}
	if err := ledger.Refund(ctx, 1, source); err != nil {
		t.Fatalf("unexpected refund error: %v", err)
	}

	after, _ := store.GetBalance(1)
	if after.MonthlyUsed != before.MonthlyUsed || after.ExtraAvailable != before.ExtraAvailable {
		t.Fatalf("refund must restore exact balance: before used=%d extra=%d, after used=%d extra=%d",
			before.MonthlyUsed, before.ExtraAvailable, after.MonthlyUsed, after.ExtraAvailable)
	}
}

func TestRefundExtraSource(t *testing.T) {
	store := newMemStore()
	store.seed(1, 20, 20, 1)
	ledger := NewLedger(store)
	ctx := context.Background()

	source, err := ledger.Consume(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected consume error: %v", err)
	}
	if source != SourceExtra {
		t.Fatalf("expected extra source, got %q", source)
	}
	if err := ledger.Refund(ctx, 1, source); err != nil {
		t.Fatalf("unexpected refund error: %v", err)
	}

	b, _ := store.GetBalance(1)
	if b.ExtraAvailable != 1 || b.MonthlyUsed != 20 {
		t.Fatalf("extra refund must not touch monthly: used=%d extra=%d", b.MonthlyUsed, b.ExtraAvailable)
	}
}

func TestRefundUnknownSource(t *testing.T) {
	ledger := NewLedger(newMemStore())
	if err := ledger.Refund(context.Background(), 1, Source("bogus")); err == nil {
		t.Fatalf("expected error for unknown source")
	}
}

func TestGrantClampsAtZero(t *testing.T) {
	store := newMemStore()
	store.seed(1, 20, 0, 3)
	ledger := NewLedger(store)

	if err := ledger.Grant(context.Background(), 1, 0, -10); err != nil {
		t.Fatalf("unexpected grant error: %v", err)
	}

	b, _ := store.GetBalance(1)
	if b.ExtraAvailable != 0 {
		t.Fatalf("expected extra clamped to 0, got %d", b.ExtraAvailable)
	}
}

func TestGrantCreatesMissingBalance(t *testing.T) {
	store := newMemStore()
	ledger := NewLedger(store)

	if err := ledger.Grant(context.Background(), 7, 0, 20); err != nil {
		t.Fatalf("unexpected grant error: %v", err)
	}

	b, err := store.GetBalance(7)
	if err != nil {
		t.Fatalf("expected balance row to exist: %v", err)
	}
	if b.ExtraAvailable != 20 {
		t.Fatalf("expected 20 extra credits, got %d", b.ExtraAvailable)
	}
}

func TestResetWritesEntitlement(t *testing.T) {
	store := newMemStore()
	store.seed(1, 20, 17, 4)
	ledger := NewLedger(store)

	if err := ledger.Reset(context.Background(), 1, 60); err != nil {
		t.Fatalf("unexpected reset error: %v", err)
	}

	b, _ := store.GetBalance(1)
	if b.MonthlyLimit != 60 || b.MonthlyUsed != 0 {
		t.Fatalf("expected limit=60 used=0, got limit=%d used=%d", b.MonthlyLimit, b.MonthlyUsed)
	}
	if b.ExtraAvailable != 4 {
		t.Fatalf("reset must not touch extra credits, got %d", b.ExtraAvailable)
	}
}

func TestCanConsume(t *testing.T) {
	store := newMemStore()
	store.seed(1, 20, 20, 0)
	store.seed(2, 20, 20, 1)
	store.seed(3, 20, 19, 0)
	ledger := NewLedger(store)
	ctx := context.Background()

	tests := []struct {
		userID uint
		want   bool
	}{
		{userID: 1, want: false},
		{userID: 2, want: true},
		{userID: 3, want: true},
		{userID: 99, want: false},
	}

	for _, tt := range tests {
		got, err := ledger.CanConsume(ctx, tt.userID)
		if err != nil {
			t.Fatalf("CanConsume(%d) error: %v", tt.userID, err)
		}
		if got != tt.want {
			t.Fatalf("CanConsume(%d) = %v, want %v", tt.userID, got, tt.want)
		}
	}
}
