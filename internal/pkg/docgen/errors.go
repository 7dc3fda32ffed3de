package docgen

import (
	"errors"

	"github.com/pdfcorretor/pdfcorretor/internal/pkg/credits"
)

// Failure taxonomy for a generation attempt.
var (
	// ErrInsufficientCredits aborts before any remote call; nothing to
	// roll back. User-facing.
	ErrInsufficientCredits = credits.ErrInsufficientCredits

	// ErrNotFound covers a proposal that does not exist or does not
	// belong to the requesting account, and missing referenced records.
	ErrNotFound = errors.New("proposal not found")

	// ErrGenerationFailed is an upstream provider failure. The consumed
	// credit has been refunded, so the user may retry immediately.
	ErrGenerationFailed = errors.New("document generation failed")

	// ErrPersistenceFailed means the document exists but the proposal
	// record was not updated. The credit stays consumed: refunding after
	// a successful remote render would hand out a free document. Logged
	// with full context for manual reconciliation.
	ErrPersistenceFailed = errors.New("document generated but not persisted")
)
