package proposalflow

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/pdfcorretor/pdfcorretor/app/models"
)

var (
	// ErrNotFound is returned when no proposal matches the public
	// reference. Invalid and unknown refs are indistinguishable to the
	// caller, so public responses leak nothing about which refs exist.
	ErrNotFound = errors.New("proposalflow: proposal not found")

	// ErrInvalidAction is returned for an unrecognized action token.
	ErrInvalidAction = errors.New("proposalflow: invalid action")
)

// Default WhatsApp message templates, used when no admin override is
// stored in settings. Placeholders: {corretor}, {imovel}, {ref}.
const (
	defaultAcceptMessage = "Olá {corretor}, gostaria de aceitar a proposta {ref} do imóvel {imovel}. Podemos prosseguir?"
	defaultAdjustMessage = "Olá {corretor}, gostaria de solicitar ajustes na proposta {ref} do imóvel {imovel}."
)

// ClickCounter records public action clicks. Recording is best-effort
// and must not influence the outcome of the action itself.
type ClickCounter interface {
	RecordClick(proposalID uint, action string)
}

// Notifier informs the broker about a client action, best-effort.
type Notifier interface {
	NotifyAction(user *models.User, proposal *models.Proposal, action string)
}

// ActionResult is the outcome of a processed client action.
type ActionResult struct {
	// Status is the proposal status after the action was applied.
	Status string
	// RedirectURL points to the broker's WhatsApp conversation, or is
	// nil when the broker has no usable phone number on file.
	RedirectURL *string
}

// Service applies client actions taken from public proposal links.
type Service struct {
	repo     Repository
	counter  ClickCounter
	notifier Notifier
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a Service with a GORM-backed repository.
func NewServiceFromDB(db *gorm.DB) *Service {
	return &Service{repo: NewRepository(db)}
}

// WithCounter attaches a click counter. Returns the service for chaining.
func (s *Service) WithCounter(c ClickCounter) *Service {
	s.counter = c
	return s
}

// WithNotifier attaches a broker notifier. Returns the service for chaining.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// normalizeAction maps the public action tokens (including the pt-BR
// aliases used in generated documents) onto canonical event actions.
func normalizeAction(action string) (string, bool) {
	switch action {
	case "accept", "aceitar":
		return models.ProposalEventAccept, true
	case "request-changes", "ajustes":
		return models.ProposalEventRequestChanges, true
	}
	return "", false
}

// statusForAction returns the target proposal status for an event action.
func statusForAction(action string) string {
	if action == models.ProposalEventAccept {
		return models.ProposalStatusAccepted
	}
	return models.ProposalStatusChangesRequested
}

// ApplyClientAction resolves the public reference, overwrites the
// proposal status for the given action and builds the WhatsApp redirect
// for the broker conversation. The operation is idempotent: repeated
// clicks on the same link (or the other link) simply overwrite the
// status again, there is no terminal state.
func (s *Service) ApplyClientAction(ctx context.Context, ref, action string) (*ActionResult, error) {
	_ = ctx

	canonical, ok := normalizeAction(action)
	if !ok {
		return nil, ErrInvalidAction
	}

	proposal, err := s.repo.GetProposalByPublicRef(ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading proposal: %w", err)
	}

	status := statusForAction(canonical)
	if err := s.repo.UpdateStatus(proposal.ID, status); err != nil {
		return nil, fmt.Errorf("updating proposal status: %w", err)
	}
	proposal.Status = status

	// Audit trail, click counters and broker notification are all
	// best-effort: the client already got their status change.
	if err := s.repo.CreateEvent(&models.ProposalEvent{
		ProposalID: proposal.ID,
		Action:     canonical,
	}); err != nil {
		log.Printf("[WARN] proposalflow: recording event for proposal %d failed: %v", proposal.ID, err)
	}
	if s.counter != nil {
		s.counter.RecordClick(proposal.ID, canonical)
	}
	if s.notifier != nil && proposal.User != nil {
		s.notifier.NotifyAction(proposal.User, proposal, canonical)
	}

	return &ActionResult{
		Status:      status,
		RedirectURL: s.buildRedirect(proposal, canonical),
	}, nil
}

// buildRedirect assembles the WhatsApp deep link for the broker, or nil
// when the broker's phone is missing or too short to be dialable.
func (s *Service) buildRedirect(proposal *models.Proposal, action string) *string {
	if proposal.User == nil {
		return nil
	}
	template := s.messageTemplate(action)

	propertyName := ""
	if proposal.Property != nil {
		propertyName = proposal.Property.Name
	}
	message := renderTemplate(template, proposal.User.Name, propertyName, proposal.PublicRef)

	url := BuildWhatsAppURL(proposal.User.Phone, message)
	if url == "" {
		return nil
	}
	return &url
}

func (s *Service) messageTemplate(action string) string {
	key := models.SettingAcceptMessage
	fallback := defaultAcceptMessage
	if action == models.ProposalEventRequestChanges {
		key = models.SettingAdjustMessage
		fallback = defaultAdjustMessage
	}
	value, err := s.repo.GetSettingValue(key)
	if err != nil || value == "" {
		return fallback
	}
	return value
}
