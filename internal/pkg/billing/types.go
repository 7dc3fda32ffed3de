package billing

// Event types the ingestor understands. Unrecognized types are still
// recorded and acknowledged so the gateway stops retrying them.
const (
	EventCheckoutCompleted    = "checkout.completed"
	EventInvoicePaid          = "invoice.paid"
	EventSubscriptionDeleted  = "subscription.deleted"
	EventInvoicePaymentFailed = "invoice.payment_failed"
)

// Checkout modes for checkout.completed.
const (
	CheckoutModePayment      = "payment"
	CheckoutModeSubscription = "subscription"
)

// Event is the parsed webhook envelope.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

// EventData carries the union of fields the supported event types use.
// Timestamps are unix seconds; zero means "not provided".
type EventData struct {
	Mode                  string `json:"mode,omitempty"`
	UserID                uint   `json:"user_id,omitempty"`
	Plan                  string `json:"plan,omitempty"`
	GatewayPaymentID      string `json:"payment_id,omitempty"`
	GatewaySubscriptionID string `json:"subscription_id,omitempty"`
	AmountCents           int64  `json:"amount_cents,omitempty"`
	PeriodStart           int64  `json:"period_start,omitempty"`
	PeriodEnd             int64  `json:"period_end,omitempty"`
}

// IngestResult reports how a webhook delivery was handled.
type IngestResult struct {
	EventID   string
	EventType string
	// Duplicate is true when this provider event id was already
	// processed to completion; the delivery is acknowledged without
	// reprocessing. Failed earlier attempts are retried instead.
	Duplicate bool
	// Handled is false for recorded-but-unsupported event types.
	Handled bool
}
