package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pdfcorretor/pdfcorretor/app/models"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/database"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/mail"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/metrics/counter"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/proposalflow"
)

type publicActionRequest struct {
	Ref    string `json:"ref"`
	Action string `json:"action"`
}

// clickCounterAdapter feeds public clicks into the redis counters.
type clickCounterAdapter struct{}

func (clickCounterAdapter) RecordClick(proposalID uint, action string) {
	var err error
	if action == models.ProposalEventAccept {
		err = counter.AddProposalAccept(proposalID)
	} else {
		err = counter.AddProposalAdjust(proposalID)
	}
	if err != nil {
		log.Printf("[WARN] public action: recording click for proposal %d failed: %v", proposalID, err)
	}
}

// mailNotifierAdapter emails the broker about a client action.
type mailNotifierAdapter struct{}

func (mailNotifierAdapter) NotifyAction(user *models.User, proposal *models.Proposal, action string) {
	if user.Email == "" {
		return
	}
	subject := fmt.Sprintf("Proposta %s: cliente aceitou", proposal.PublicRef)
	body := fmt.Sprintf("O cliente %s aceitou a proposta %s.", proposal.ClientName, proposal.PublicRef)
	if action == models.ProposalEventRequestChanges {
		subject = fmt.Sprintf("Proposta %s: cliente pediu ajustes", proposal.PublicRef)
		body = fmt.Sprintf("O cliente %s solicitou ajustes na proposta %s.", proposal.ClientName, proposal.PublicRef)
	}
	go func() {
		if err := mail.SendMail(user.Email, subject, body); err != nil {
			log.Printf("[WARN] public action: notifying %s failed: %v", user.Email, err)
		}
	}()
}

const publicActionTimeout = 15 * time.Second

func publicActionService() *proposalflow.Service {
	return proposalflow.NewServiceFromDB(database.GetDB()).
		WithCounter(clickCounterAdapter{}).
		WithNotifier(mailNotifierAdapter{})
}

func publicActionContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), publicActionTimeout)
}

// HandlePublicActionRedirect serves the GET links embedded in generated
// documents and redirects the client into the broker's WhatsApp chat.
func HandlePublicActionRedirect(c *fiber.Ctx) error {
	svc := publicActionService()
	ctx, cancel := publicActionContext()
	defer cancel()
	result, err := svc.ApplyClientAction(ctx, c.Params("ref"), c.Params("action"))
	if err != nil {
		return publicActionError(c, err)
	}

	if result.RedirectURL != nil {
		return c.Redirect(*result.RedirectURL, fiber.StatusSeeOther)
	}
	return c.JSON(fiber.Map{
		"status":       result.Status,
		"redirect_url": nil,
	})
}

// HandlePublicActionJSON is the SPA-facing variant of the same action.
func HandlePublicActionJSON(c *fiber.Ctx) error {
	var req publicActionRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Invalid request body")
	}

	svc := publicActionService()
	ctx, cancel := publicActionContext()
	defer cancel()
	result, err := svc.ApplyClientAction(ctx, req.Ref, req.Action)
	if err != nil {
		return publicActionError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":       result.Status,
		"redirect_url": result.RedirectURL,
	})
}

// publicActionError maps service failures onto enumeration-safe JSON.
// Unknown refs and invalid actions are indistinguishable from outside.
func publicActionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, proposalflow.ErrNotFound), errors.Is(err, proposalflow.ErrInvalidAction):
		return jsonError(c, fiber.StatusNotFound, "not_found", "Proposal not found")
	default:
		log.Printf("[ERROR] public action failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Something went wrong")
	}
}
