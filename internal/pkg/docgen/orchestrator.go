package docgen

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/pdfcorretor/pdfcorretor/app/models"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/credits"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/env"
	"gorm.io/gorm"
)

const defaultLayoutSlug = "layout-base-1"

// Default button labels used when the admin settings are unset.
const (
	defaultMsgAccept = "Aceitar"
	defaultMsgAdjust = "Ajustar"
)

// DocumentClient renders a document from a payload and returns its URL.
type DocumentClient interface {
	Generate(ctx context.Context, payload Payload) (string, error)
}

// CreditLedger is the slice of the credit ledger the orchestrator uses.
type CreditLedger interface {
	Consume(ctx context.Context, userID uint) (credits.Source, error)
	Refund(ctx context.Context, userID uint, source credits.Source) error
}

// Result is the outcome of a successful generation.
type Result struct {
	DocumentURL string
	LayoutID    uint
}

// Orchestrator runs the credit-gated generation transaction. Each
// invocation moves start → credit consumed → data assembled → remote
// call → persisted, with a compensating refund on any failure after the
// credit was consumed.
type Orchestrator struct {
	repo   Repository
	ledger CreditLedger
	client DocumentClient

	appBaseURL        string
	defaultLayoutSlug string
}

// NewOrchestrator creates an orchestrator from injected collaborators.
func NewOrchestrator(repo Repository, ledger CreditLedger, client DocumentClient, appBaseURL, fallbackLayoutSlug string) *Orchestrator {
	if strings.TrimSpace(fallbackLayoutSlug) == "" {
		fallbackLayoutSlug = defaultLayoutSlug
	}
	return &Orchestrator{
		repo:              repo,
		ledger:            ledger,
		client:            client,
		appBaseURL:        strings.TrimRight(appBaseURL, "/"),
		defaultLayoutSlug: fallbackLayoutSlug,
	}
}

// NewOrchestratorFromDB wires the orchestrator with GORM-backed
// collaborators and env configuration.
func NewOrchestratorFromDB(db *gorm.DB) *Orchestrator {
	return NewOrchestrator(
		NewRepository(db),
		credits.NewLedgerFromDB(db),
		NewClientFromEnv(),
		env.GetEnv("PUBLIC_DOMAIN", ""),
		env.GetEnv("DEFAULT_LAYOUT_SLUG", defaultLayoutSlug),
	)
}

// Generate runs the full transaction for one proposal on behalf of the
// requesting account and returns the persisted document URL.
func (o *Orchestrator) Generate(ctx context.Context, proposalID, requestingUserID uint) (*Result, error) {
	proposal, err := o.repo.GetProposalForUser(proposalID, requestingUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load proposal: %w", err)
	}
	if proposal.Property == nil {
		return nil, ErrNotFound
	}

	broker, err := o.repo.GetUser(requestingUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load broker profile: %w", err)
	}

	// The account's active layout always wins over whatever was stored at
	// creation time; the resolved id is written back so the stored
	// layout_id stays the current rendering truth.
	layout, err := o.resolveLayout(broker, proposal)
	if err != nil {
		return nil, err
	}

	msgAccept, msgAdjust := o.messageLabels()

	// Everything before this point is free to fail; from here a consumed
	// credit must end in persisted-success or refunded-failure.
	source, err := o.ledger.Consume(ctx, requestingUserID)
	if err != nil {
		if errors.Is(err, credits.ErrInsufficientCredits) {
			return nil, ErrInsufficientCredits
		}
		return nil, fmt.Errorf("consume credit: %w", err)
	}

	payload := BuildPayload(BuildInput{
		Broker:      broker,
		Proposal:    proposal,
		Property:    proposal.Property,
		TemplateRef: layout.TemplateRef,
		AppBaseURL:  o.appBaseURL,
		MsgAccept:   msgAccept,
		MsgAdjust:   msgAdjust,
	})

	documentURL, err := o.client.Generate(ctx, payload)
	if err != nil {
		o.refund(ctx, requestingUserID, source, proposal.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if err := o.repo.MarkGenerated(proposal.ID, documentURL, layout.ID); err != nil {
		// The remote side produced a document; refunding now could hand
		// out a free render. Log everything needed for reconciliation.
		log.Printf("docgen: RECONCILE persistence failed user=%d proposal=%d layout=%d document_url=%s err=%v",
			requestingUserID, proposal.ID, layout.ID, documentURL, err)
		return nil, ErrPersistenceFailed
	}

	return &Result{DocumentURL: documentURL, LayoutID: layout.ID}, nil
}

func (o *Orchestrator) resolveLayout(broker *models.User, proposal *models.Proposal) (*models.Layout, error) {
	// A vanished or deactivated layout falls through to the next
	// candidate; transient lookup failures abort the generation.
	tryID := func(id *uint) (*models.Layout, error) {
		if id == nil {
			return nil, nil
		}
		layout, err := o.repo.GetLayout(*id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("load layout %d: %w", *id, err)
		}
		return layout, nil
	}

	layout, err := tryID(broker.ActiveLayoutID)
	if err != nil {
		return nil, err
	}
	if layout != nil {
		return layout, nil
	}
	layout, err = tryID(proposal.LayoutID)
	if err != nil {
		return nil, err
	}
	if layout != nil {
		return layout, nil
	}

	layout, err = o.repo.GetLayoutBySlug(o.defaultLayoutSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no usable layout", ErrNotFound)
		}
		return nil, fmt.Errorf("load fallback layout: %w", err)
	}
	return layout, nil
}

func (o *Orchestrator) messageLabels() (string, string) {
	msgAccept, err := o.repo.GetSettingValue(models.SettingMsgAccept)
	if err != nil || strings.TrimSpace(msgAccept) == "" {
		msgAccept = defaultMsgAccept
	}
	msgAdjust, err := o.repo.GetSettingValue(models.SettingMsgAdjust)
	if err != nil || strings.TrimSpace(msgAdjust) == "" {
		msgAdjust = defaultMsgAdjust
	}
	return msgAccept, msgAdjust
}

func (o *Orchestrator) refund(ctx context.Context, userID uint, source credits.Source, proposalID uint, cause error) {
	if err := o.ledger.Refund(ctx, userID, source); err != nil {
		// A failed refund strands a credit; loud log, same reconciliation
		// channel as persistence failures.
		log.Printf("docgen: RECONCILE refund failed user=%d proposal=%d source=%s cause=%v refund_err=%v",
			userID, proposalID, source, cause, err)
	}
}
