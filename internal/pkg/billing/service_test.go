package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/pdfcorretor/pdfcorretor/app/models"
)

type fakeRepo struct {
	subscriptions map[string]*models.Subscription
	payments      map[string]*models.Payment
	events        map[string]*models.BillingWebhookEvent
	processed     map[uint]string
	nextID        uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		subscriptions: make(map[string]*models.Subscription),
		payments:      make(map[string]*models.Payment),
		events:        make(map[string]*models.BillingWebhookEvent),
		processed:     make(map[uint]string),
	}
}

func (r *fakeRepo) UpsertSubscription(sub *models.Subscription) error {
	if existing, ok := r.subscriptions[sub.GatewaySubscriptionID]; ok {
		sub.ID = existing.ID
	} else {
		r.nextID++
		sub.ID = r.nextID
	}
	clone := *sub
	r.subscriptions[sub.GatewaySubscriptionID] = &clone
	return nil
}

func (r *fakeRepo) GetSubscriptionByGatewayID(gatewayID string) (*models.Subscription, error) {
	sub, ok := r.subscriptions[gatewayID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *sub
	return &clone, nil
}

func (r *fakeRepo) UpdateSubscriptionStatus(gatewayID, status string) (bool, error) {
	sub, ok := r.subscriptions[gatewayID]
	if !ok {
		return false, nil
	}
	sub.Status = status
	return true, nil
}

func (r *fakeRepo) CreatePaymentIfNotExists(payment *models.Payment) (bool, error) {
	if _, ok := r.payments[payment.GatewayPaymentID]; ok {
		return false, nil
	}
	r.nextID++
	payment.ID = r.nextID
	clone := *payment
	r.payments[payment.GatewayPaymentID] = &clone
	return true, nil
}

func (r *fakeRepo) DeletePaymentByGatewayID(gatewayID string) error {
	delete(r.payments, gatewayID)
	return nil
}

func (r *fakeRepo) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	if stored, ok := r.events[event.ProviderEventID]; ok {
		return false, stored, nil
	}
	r.nextID++
	event.ID = r.nextID
	clone := *event
	r.events[event.ProviderEventID] = &clone
	return true, &clone, nil
}

func (r *fakeRepo) MarkWebhookProcessed(id uint, processingError string) error {
	r.processed[id] = processingError
	for _, event := range r.events {
		if event.ID == id {
			now := time.Now()
			event.ProcessedAt = &now
			event.ProcessingError = processingError
		}
	}
	return nil
}

type grantCall struct {
	userID  uint
	monthly int
	extra   int
}

type resetCall struct {
	userID uint
	limit  int
}

type fakeLedger struct {
	grants   []grantCall
	resets   []resetCall
	grantErr error
}

func (l *fakeLedger) Grant(ctx context.Context, userID uint, monthlyDelta, extraDelta int) error {
	if l.grantErr != nil {
		return l.grantErr
	}
	l.grants = append(l.grants, grantCall{userID, monthlyDelta, extraDelta})
	return nil
}

func (l *fakeLedger) Reset(ctx context.Context, userID uint, monthlyLimit int) error {
	l.resets = append(l.resets, resetCall{userID, monthlyLimit})
	return nil
}

const testSecret = "whsec_unit"

func newTestService(repo Repository, ledger CreditLedger) *Service {
	svc := NewService(repo, ledger, testSecret)
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	return svc
}

func ingest(t *testing.T, svc *Service, payload string) (*IngestResult, error) {
	t.Helper()
	body := []byte(payload)
	header := signPayload(body, testSecret, time.Unix(1700000000, 0))
	return svc.Ingest(context.Background(), body, header)
}

func TestIngestRejectsBadSignature(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeLedger{})

	body := []byte(`{"id":"evt_1","type":"invoice.paid"}`)
	header := signPayload(body, "wrong-secret", time.Unix(1700000000, 0))

	_, err := svc.Ingest(context.Background(), body, header)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if len(repo.events) != 0 {
		t.Fatal("unverified payloads must not be recorded")
	}
}

func TestIngestRejectsMalformedPayload(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeLedger{})

	if _, err := ingest(t, svc, `{"id":"evt_1"}`); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload for missing type, got %v", err)
	}
	if _, err := ingest(t, svc, `not json`); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload for invalid JSON, got %v", err)
	}
}

func TestIngestExtraPackGrantsOnce(t *testing.T) {
	repo := newFakeRepo()
	ledger := &fakeLedger{}
	svc := newTestService(repo, ledger)

	payload := `{"id":"evt_1","type":"checkout.completed","data":{"mode":"payment","user_id":9,"payment_id":"pay_123","amount_cents":2990}}`
	result, err := ingest(t, svc, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Duplicate || !result.Handled {
		t.Fatalf("expected handled non-duplicate, got %+v", result)
	}
	if len(ledger.grants) != 1 {
		t.Fatalf("expected one grant, got %d", len(ledger.grants))
	}
	if g := ledger.grants[0]; g.userID != 9 || g.monthly != 0 || g.extra != 20 {
		t.Fatalf("expected grant of 20 extra credits to user 9, got %+v", g)
	}
	payment := repo.payments["pay_123"]
	if payment == nil || payment.Type != models.PaymentTypeExtra || payment.AmountCents != 2990 {
		t.Fatalf("unexpected payment record: %+v", payment)
	}

	// Same event id redelivered: acknowledged, nothing re-granted.
	result, err = ingest(t, svc, payload)
	if err != nil {
		t.Fatalf("duplicate delivery errored: %v", err)
	}
	if !result.Duplicate {
		t.Fatal("expected duplicate result")
	}
	if len(ledger.grants) != 1 {
		t.Fatalf("duplicate delivery must not grant again, got %d grants", len(ledger.grants))
	}
}

func TestIngestExtraPackDistinctEventSamePayment(t *testing.T) {
	repo := newFakeRepo()
	ledger := &fakeLedger{}
	svc := newTestService(repo, ledger)

	first := `{"id":"evt_1","type":"checkout.completed","data":{"mode":"payment","user_id":9,"payment_id":"pay_123","amount_cents":2990}}`
	second := `{"id":"evt_2","type":"checkout.completed","data":{"mode":"payment","user_id":9,"payment_id":"pay_123","amount_cents":2990}}`

	if _, err := ingest(t, svc, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ingest(t, svc, second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The payment id is the grant gate, not the event id.
	if len(ledger.grants) != 1 {
		t.Fatalf("expected exactly one grant across both events, got %d", len(ledger.grants))
	}
}

func TestIngestSubscriptionCheckout(t *testing.T) {
	repo := newFakeRepo()
	ledger := &fakeLedger{}
	svc := newTestService(repo, ledger)

	payload := `{"id":"evt_1","type":"checkout.completed","data":{"mode":"subscription","user_id":4,"plan":"PRO","subscription_id":"sub_42","payment_id":"pay_900","amount_cents":9900,"period_start":1700000000,"period_end":1702592000}}`
	if _, err := ingest(t, svc, payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub := repo.subscriptions["sub_42"]
	if sub == nil {
		t.Fatal("subscription not stored")
	}
	if sub.UserID != 4 || sub.Plan != "PRO" || sub.Status != models.SubscriptionStatusActive {
		t.Fatalf("unexpected subscription: %+v", sub)
	}
	if sub.CurrentPeriodEnd == nil || sub.CurrentPeriodEnd.Unix() != 1702592000 {
		t.Fatalf("period end not stored: %+v", sub.CurrentPeriodEnd)
	}
	if len(ledger.resets) != 1 || ledger.resets[0] != (resetCall{userID: 4, limit: 60}) {
		t.Fatalf("expected reset to PRO entitlement 60, got %+v", ledger.resets)
	}
	if repo.payments["pay_900"] == nil || repo.payments["pay_900"].Type != models.PaymentTypeSubscription {
		t.Fatalf("subscription payment not recorded: %+v", repo.payments["pay_900"])
	}
}

func TestIngestSubscriptionCheckoutUnknownPlan(t *testing.T) {
	repo := newFakeRepo()
	ledger := &fakeLedger{}
	svc := newTestService(repo, ledger)

	payload := `{"id":"evt_1","type":"checkout.completed","data":{"mode":"subscription","user_id":4,"plan":"ENTERPRISE","subscription_id":"sub_42"}}`
	if _, err := ingest(t, svc, payload); err == nil {
		t.Fatal("expected error for unknown plan")
	}
	if len(ledger.resets) != 0 {
		t.Fatal("unknown plan must not reset credits")
	}
	// The failure is recorded on the stored event.
	event := repo.events["evt_1"]
	if event == nil {
		t.Fatal("event not recorded")
	}
	if msg := repo.processed[event.ID]; msg == "" {
		t.Fatal("processing error not stored on event")
	}
}

func TestIngestInvoicePaidRenewal(t *testing.T) {
	repo := newFakeRepo()
	ledger := &fakeLedger{}
	svc := newTestService(repo, ledger)

	repo.subscriptions["sub_42"] = &models.Subscription{
		ID:                    1,
		UserID:                4,
		Plan:                  "PRO",
		Status:                models.SubscriptionStatusPastDue,
		GatewaySubscriptionID: "sub_42",
	}

	payload := `{"id":"evt_2","type":"invoice.paid","data":{"subscription_id":"sub_42","payment_id":"pay_901","amount_cents":9900,"period_start":1702592000,"period_end":1705270400}}`
	if _, err := ingest(t, svc, payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub := repo.subscriptions["sub_42"]
	if sub.Status != models.SubscriptionStatusActive {
		t.Fatalf("renewal must reactivate, got status %q", sub.Status)
	}
	if sub.CurrentPeriodStart == nil || sub.CurrentPeriodStart.Unix() != 1702592000 {
		t.Fatalf("period start not refreshed: %+v", sub.CurrentPeriodStart)
	}
	if len(ledger.resets) != 1 || ledger.resets[0] != (resetCall{userID: 4, limit: 60}) {
		t.Fatalf("expected monthly reset to 60, got %+v", ledger.resets)
	}
	if repo.payments["pay_901"] == nil {
		t.Fatal("renewal payment not recorded")
	}
}

func TestIngestInvoicePaidUnknownSubscriptionSkips(t *testing.T) {
	repo := newFakeRepo()
	ledger := &fakeLedger{}
	svc := newTestService(repo, ledger)

	payload := `{"id":"evt_2","type":"invoice.paid","data":{"subscription_id":"sub_missing","payment_id":"pay_901"}}`
	result, err := ingest(t, svc, payload)
	if err != nil {
		t.Fatalf("unmatched invoice must be acknowledged, got %v", err)
	}
	if !result.Handled {
		t.Fatal("expected handled result")
	}
	if len(ledger.resets) != 0 || len(repo.payments) != 0 {
		t.Fatal("unmatched invoice must not touch balances or payments")
	}
}

func TestIngestRetriesFailedGrantOnRedelivery(t *testing.T) {
	repo := newFakeRepo()
	ledger := &fakeLedger{grantErr: errors.New("deadlock")}
	svc := newTestService(repo, ledger)

	payload := `{"id":"evt_1","type":"checkout.completed","data":{"mode":"payment","user_id":9,"payment_id":"pay_123","amount_cents":2990}}`
	if _, err := ingest(t, svc, payload); err == nil {
		t.Fatal("expected first delivery to fail")
	}
	// The payment insert is rolled back so the retry can re-run it.
	if repo.payments["pay_123"] != nil {
		t.Fatal("failed grant must roll the payment back")
	}
	if msg := repo.processed[repo.events["evt_1"].ID]; msg == "" {
		t.Fatal("failure not stored on the event row")
	}

	// The DB recovered; the gateway redelivers the same event id.
	ledger.grantErr = nil
	result, err := ingest(t, svc, payload)
	if err != nil {
		t.Fatalf("retry errored: %v", err)
	}
	if result.Duplicate {
		t.Fatal("failed event must be retried, not deduped")
	}
	if len(ledger.grants) != 1 {
		t.Fatalf("expected the retry to grant once, got %d", len(ledger.grants))
	}
	if repo.payments["pay_123"] == nil {
		t.Fatal("retry must re-record the payment")
	}
	if msg := repo.processed[repo.events["evt_1"].ID]; msg != "" {
		t.Fatalf("successful retry must clear the stored error, got %q", msg)
	}

	// A third delivery after success is a plain duplicate.
	result, err = ingest(t, svc, payload)
	if err != nil || !result.Duplicate {
		t.Fatalf("expected duplicate after successful retry, got %+v err=%v", result, err)
	}
	if len(ledger.grants) != 1 {
		t.Fatalf("duplicate must not grant again, got %d grants", len(ledger.grants))
	}
}

func TestIngestInvoicePaidUnknownStoredPlan(t *testing.T) {
	repo := newFakeRepo()
	ledger := &fakeLedger{}
	svc := newTestService(repo, ledger)

	repo.subscriptions["sub_42"] = &models.Subscription{
		ID:                    1,
		UserID:                4,
		Plan:                  "LEGACY",
		Status:                models.SubscriptionStatusPastDue,
		GatewaySubscriptionID: "sub_42",
	}

	payload := `{"id":"evt_2","type":"invoice.paid","data":{"subscription_id":"sub_42","payment_id":"pay_901"}}`
	if _, err := ingest(t, svc, payload); err == nil {
		t.Fatal("expected error for unknown stored plan")
	}
	// Fails before touching anything: no reactivation, no reset to zero.
	if len(ledger.resets) != 0 {
		t.Fatal("unknown plan must not reset credits")
	}
	if got := repo.subscriptions["sub_42"].Status; got != models.SubscriptionStatusPastDue {
		t.Fatalf("subscription must stay untouched, got status %q", got)
	}
}

func TestIngestSubscriptionStatusTransitions(t *testing.T) {
	tests := []struct {
		eventType  string
		wantStatus string
	}{
		{"subscription.deleted", models.SubscriptionStatusCanceled},
		{"invoice.payment_failed", models.SubscriptionStatusPastDue},
	}
	for _, tt := range tests {
		repo := newFakeRepo()
		svc := newTestService(repo, &fakeLedger{})
		repo.subscriptions["sub_42"] = &models.Subscription{
			ID:                    1,
			UserID:                4,
			Plan:                  "BASE",
			Status:                models.SubscriptionStatusActive,
			GatewaySubscriptionID: "sub_42",
		}

		payload := fmt.Sprintf(`{"id":"evt_3","type":"%s","data":{"subscription_id":"sub_42"}}`, tt.eventType)
		if _, err := ingest(t, svc, payload); err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.eventType, err)
		}
		if got := repo.subscriptions["sub_42"].Status; got != tt.wantStatus {
			t.Fatalf("%s: expected status %q, got %q", tt.eventType, tt.wantStatus, got)
		}
	}
}

func TestIngestUnsupportedEventType(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeLedger{})

	result, err := ingest(t, svc, `{"id":"evt_9","type":"customer.updated","data":{}}`)
	if err != nil {
		t.Fatalf("unsupported types must be acknowledged, got %v", err)
	}
	if result.Handled {
		t.Fatal("unsupported type must not be marked handled")
	}
	if repo.events["evt_9"] == nil {
		t.Fatal("unsupported event should still be recorded")
	}
}

func TestIngestEventWithoutIDUsesPayloadHash(t *testing.T) {
	repo := newFakeRepo()
	ledger := &fakeLedger{}
	svc := newTestService(repo, ledger)

	payload := `{"type":"checkout.completed","data":{"mode":"payment","user_id":9,"payment_id":"pay_1","amount_cents":2990}}`
	result, err := ingest(t, svc, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.EventID == "" || result.EventID[:5] != "hash:" {
		t.Fatalf("expected hash-derived event id, got %q", result.EventID)
	}

	// Byte-identical redelivery hashes to the same id and dedupes.
	result, err = ingest(t, svc, payload)
	if err != nil || !result.Duplicate {
		t.Fatalf("expected duplicate on identical payload, got %+v err=%v", result, err)
	}
	if len(ledger.grants) != 1 {
		t.Fatalf("expected one grant, got %d", len(ledger.grants))
	}
}
