package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pdfcorretor/pdfcorretor/app/models"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/entitlements"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/env"
)

// Provider identifies the payment gateway in stored webhook events.
const Provider = "stripe"

var (
	// ErrInvalidSignature is returned when the delivery fails HMAC
	// verification. Callers must answer 400 and never process.
	ErrInvalidSignature = errors.New("billing: invalid webhook signature")

	// ErrMalformedPayload is returned when the envelope cannot be parsed.
	ErrMalformedPayload = errors.New("billing: malformed webhook payload")
)

// CreditLedger is the slice of the credit ledger the ingestor needs.
type CreditLedger interface {
	Grant(ctx context.Context, userID uint, monthlyDelta, extraDelta int) error
	Reset(ctx context.Context, userID uint, monthlyLimit int) error
}

// Service ingests payment-gateway webhook events and keeps
// subscriptions, payments and credit balances in sync.
type Service struct {
	repo          Repository
	ledger        CreditLedger
	webhookSecret string
	now           func() time.Time
}

// NewService creates a billing service from injected dependencies.
func NewService(repo Repository, ledger CreditLedger, webhookSecret string) *Service {
	return &Service{
		repo:          repo,
		ledger:        ledger,
		webhookSecret: webhookSecret,
		now:           time.Now,
	}
}

// NewServiceFromDB creates a billing service wired to GORM and the
// PAYMENT_WEBHOOK_SECRET environment variable.
func NewServiceFromDB(db *gorm.DB, ledger CreditLedger) *Service {
	return NewService(NewRepository(db), ledger, env.GetEnv("PAYMENT_WEBHOOK_SECRET", ""))
}

// ParseEvent decodes a webhook envelope.
func ParseEvent(payload []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if strings.TrimSpace(event.Type) == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrMalformedPayload)
	}
	return &event, nil
}

// Ingest verifies, records and processes one webhook delivery.
// Signature failures and malformed payloads return errors without
// recording anything. Handler failures are stored on the event row and
// returned so the caller answers non-2xx; the gateway's redelivery then
// finds the failed row and retries processing. Only deliveries whose
// processing completed dedupe as duplicates.
func (s *Service) Ingest(ctx context.Context, payload []byte, signatureHeader string) (*IngestResult, error) {
	if !VerifyWebhookSignature(payload, signatureHeader, s.webhookSecret, s.now(), DefaultSignatureTolerance) {
		return nil, ErrInvalidSignature
	}

	event, err := ParseEvent(payload)
	if err != nil {
		return nil, err
	}

	eventID := strings.TrimSpace(event.ID)
	if eventID == "" {
		sum := sha256.Sum256(payload)
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	created, stored, err := s.repo.CreateWebhookEventIfNotExists(&models.BillingWebhookEvent{
		Provider:        Provider,
		ProviderEventID: eventID,
		EventType:       event.Type,
		PayloadJSON:     string(payload),
		SignatureValid:  true,
	})
	if err != nil {
		return nil, err
	}

	result := &IngestResult{EventID: eventID, EventType: event.Type}
	if !created {
		// A row whose processing completed is a true duplicate. One
		// that failed, or never got marked, is retried on redelivery.
		if stored.ProcessedAt != nil && stored.ProcessingError == "" {
			result.Duplicate = true
			return result, nil
		}
	}

	handled, handleErr := s.handleEvent(ctx, event)
	result.Handled = handled

	errMsg := ""
	if handleErr != nil {
		errMsg = handleErr.Error()
		log.Printf("[ERROR] billing: processing %s event %s failed: %v", event.Type, eventID, handleErr)
	}
	if err := s.repo.MarkWebhookProcessed(stored.ID, errMsg); err != nil {
		log.Printf("[WARN] billing: marking event %s processed failed: %v", eventID, err)
	}
	return result, handleErr
}

func (s *Service) handleEvent(ctx context.Context, event *Event) (bool, error) {
	switch event.Type {
	case EventCheckoutCompleted:
		return true, s.handleCheckoutCompleted(ctx, event)
	case EventInvoicePaid:
		return true, s.handleInvoicePaid(ctx, event)
	case EventSubscriptionDeleted:
		return true, s.handleSubscriptionStatus(event, models.SubscriptionStatusCanceled)
	case EventInvoicePaymentFailed:
		return true, s.handleSubscriptionStatus(event, models.SubscriptionStatusPastDue)
	default:
		log.Printf("[INFO] billing: ignoring unsupported event type %s", event.Type)
		return false, nil
	}
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, event *Event) error {
	data := event.Data
	switch data.Mode {
	case CheckoutModePayment:
		return s.grantExtraPack(ctx, data)
	case CheckoutModeSubscription:
		return s.activateSubscription(ctx, data)
	default:
		return fmt.Errorf("checkout.completed with unknown mode %q", data.Mode)
	}
}

// grantExtraPack credits a one-off extra pack purchase. The payment
// insert is the idempotency gate: only the first delivery grants.
func (s *Service) grantExtraPack(ctx context.Context, data EventData) error {
	if data.UserID == 0 || data.GatewayPaymentID == "" {
		return errors.New("extra pack checkout missing user_id or payment_id")
	}

	created, err := s.repo.CreatePaymentIfNotExists(&models.Payment{
		UserID:           data.UserID,
		Type:             models.PaymentTypeExtra,
		AmountCents:      data.AmountCents,
		Status:           models.PaymentStatusCompleted,
		GatewayPaymentID: data.GatewayPaymentID,
	})
	if err != nil {
		return fmt.Errorf("recording extra pack payment: %w", err)
	}
	if !created {
		return nil
	}

	credits := entitlements.ExtraPackCredits()
	if err := s.ledger.Grant(ctx, data.UserID, 0, credits); err != nil {
		// Roll the payment back so the redelivery re-inserts it and
		// retries the grant.
		if delErr := s.repo.DeletePaymentByGatewayID(data.GatewayPaymentID); delErr != nil {
			log.Printf("[ERROR] RECONCILE billing: payment %s recorded, granting %d extra credits to user %d failed (%v) and rollback failed too: %v",
				data.GatewayPaymentID, credits, data.UserID, err, delErr)
		}
		return fmt.Errorf("granting extra credits: %w", err)
	}
	return nil
}

func (s *Service) activateSubscription(ctx context.Context, data EventData) error {
	if data.UserID == 0 || data.GatewaySubscriptionID == "" {
		return errors.New("subscription checkout missing user_id or subscription_id")
	}
	plan := entitlements.NormalizePlan(data.Plan)
	if plan == "" {
		return fmt.Errorf("subscription checkout with unknown plan %q", data.Plan)
	}

	sub := &models.Subscription{
		UserID:                data.UserID,
		Plan:                  string(plan),
		Status:                models.SubscriptionStatusActive,
		GatewaySubscriptionID: data.GatewaySubscriptionID,
		CurrentPeriodStart:    unixTime(data.PeriodStart),
		CurrentPeriodEnd:      unixTime(data.PeriodEnd),
	}
	if err := s.repo.UpsertSubscription(sub); err != nil {
		return fmt.Errorf("upserting subscription: %w", err)
	}

	if data.GatewayPaymentID != "" {
		if _, err := s.repo.CreatePaymentIfNotExists(&models.Payment{
			UserID:           data.UserID,
			Type:             models.PaymentTypeSubscription,
			AmountCents:      data.AmountCents,
			Status:           models.PaymentStatusCompleted,
			GatewayPaymentID: data.GatewayPaymentID,
		}); err != nil {
			return fmt.Errorf("recording subscription payment: %w", err)
		}
	}

	if err := s.ledger.Reset(ctx, data.UserID, entitlements.MonthlyCredits(plan)); err != nil {
		return fmt.Errorf("resetting credit balance: %w", err)
	}
	return nil
}

// handleInvoicePaid processes a renewal: refresh status and period,
// reset the monthly balance to the current entitlement and record the
// payment. An invoice for a subscription we never saw is logged and
// skipped so the gateway stops retrying.
func (s *Service) handleInvoicePaid(ctx context.Context, event *Event) error {
	data := event.Data
	if data.GatewaySubscriptionID == "" {
		return errors.New("invoice.paid missing subscription_id")
	}

	sub, err := s.repo.GetSubscriptionByGatewayID(data.GatewaySubscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[WARN] billing: invoice.paid for unknown subscription %s, skipping", data.GatewaySubscriptionID)
			return nil
		}
		return fmt.Errorf("loading subscription: %w", err)
	}
	// A stored plan that no longer maps to an entitlement would reset
	// the balance to zero; fail before touching anything instead.
	if !entitlements.IsValidPlan(sub.Plan) {
		return fmt.Errorf("subscription %s has unknown plan %q", sub.GatewaySubscriptionID, sub.Plan)
	}

	sub.Status = models.SubscriptionStatusActive
	if start := unixTime(data.PeriodStart); start != nil {
		sub.CurrentPeriodStart = start
	}
	if end := unixTime(data.PeriodEnd); end != nil {
		sub.CurrentPeriodEnd = end
	}
	if err := s.repo.UpsertSubscription(sub); err != nil {
		return fmt.Errorf("refreshing subscription: %w", err)
	}

	if data.GatewayPaymentID != "" {
		if _, err := s.repo.CreatePaymentIfNotExists(&models.Payment{
			UserID:           sub.UserID,
			Type:             models.PaymentTypeSubscription,
			AmountCents:      data.AmountCents,
			Status:           models.PaymentStatusCompleted,
			GatewayPaymentID: data.GatewayPaymentID,
		}); err != nil {
			return fmt.Errorf("recording renewal payment: %w", err)
		}
	}

	// Entitlements may have changed since the last cycle, re-read
	// instead of reusing the stored limit. Unused extras carry over.
	limit := entitlements.MonthlyCredits(entitlements.NormalizePlan(sub.Plan))
	if err := s.ledger.Reset(ctx, sub.UserID, limit); err != nil {
		return fmt.Errorf("resetting credit balance: %w", err)
	}
	return nil
}

func (s *Service) handleSubscriptionStatus(event *Event, status string) error {
	gatewayID := event.Data.GatewaySubscriptionID
	if gatewayID == "" {
		return fmt.Errorf("%s missing subscription_id", event.Type)
	}
	matched, err := s.repo.UpdateSubscriptionStatus(gatewayID, status)
	if err != nil {
		return fmt.Errorf("updating subscription status: %w", err)
	}
	if !matched {
		log.Printf("[WARN] billing: %s for unknown subscription %s, skipping", event.Type, gatewayID)
	}
	return nil
}

func unixTime(seconds int64) *time.Time {
	if seconds <= 0 {
		return nil
	}
	t := time.Unix(seconds, 0)
	return &t
}
