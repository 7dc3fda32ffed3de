package docgen

import (
	"context"
	"errors"
	"testing"

	"github.com/pdfcorretor/pdfcorretor/app/models"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/credits"
	"gorm.io/gorm"
)

type fakeRepo struct {
	proposals map[uint]*models.Proposal
	users     map[uint]*models.User
	layouts   map[uint]*models.Layout
	bySlug    map[string]*models.Layout
	settings  map[string]string

	layoutErr  error
	markErr    error
	markedURL  string
	markedID   uint
	markLayout uint
	markCalls  int
}

func (f *fakeRepo) GetProposalForUser(proposalID, userID uint) (*models.Proposal, error) {
	p, ok := f.proposals[proposalID]
	if !ok || p.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeRepo) GetUser(id uint) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeRepo) GetLayout(id uint) (*models.Layout, error) {
	if f.layoutErr != nil {
		return nil, f.layoutErr
	}
	l, ok := f.layouts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return l, nil
}

func (f *fakeRepo) GetLayoutBySlug(slug string) (*models.Layout, error) {
	l, ok := f.bySlug[slug]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return l, nil
}

func (f *fakeRepo) GetSettingValue(key string) (string, error) {
	return f.settings[key], nil
}

func (f *fakeRepo) MarkGenerated(proposalID uint, documentURL string, layoutID uint) error {
	f.markCalls++
	if f.markErr != nil {
		return f.markErr
	}
	f.markedID = proposalID
	f.markedURL = documentURL
	f.markLayout = layoutID
	return nil
}

type fakeLedger struct {
	source       credits.Source
	insufficient bool
	consumes     int
	refunds      []credits.Source
}

func (f *fakeLedger) Consume(ctx context.Context, userID uint) (credits.Source, error) {
	if f.insufficient {
		return "", credits.ErrInsufficientCredits
	}
	f.consumes++
	return f.source, nil
}

func (f *fakeLedger) Refund(ctx context.Context, userID uint, source credits.Source) error {
	f.refunds = append(f.refunds, source)
	return nil
}

type fakeClient struct {
	url   string
	err   error
	calls int
	last  Payload
}

func (f *fakeClient) Generate(ctx context.Context, payload Payload) (string, error) {
	f.calls++
	f.last = payload
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func fixtureRepo() *fakeRepo {
	activeLayout := uint(7)
	storedLayout := uint(4)
	return &fakeRepo{
		proposals: map[uint]*models.Proposal{
			1: {
				ID:              1,
				PublicRef:       "ref111111111",
				UserID:          10,
				PropertyID:      5,
				ClientName:      "Cliente",
				FinalPriceCents: 100000,
				PaymentTerms:    models.StringList{"À vista"},
				LayoutID:        &storedLayout,
				Property: &models.Property{
					ID:     5,
					UserID: 10,
					Name:   "Casa",
				},
			},
		},
		users: map[uint]*models.User{
			10: {ID: 10, Name: "Corretora", ActiveLayoutID: &activeLayout},
		},
		layouts: map[uint]*models.Layout{
			4: {ID: 4, Slug: "old", TemplateRef: "tpl-old"},
			7: {ID: 7, Slug: "new", TemplateRef: "tpl-new"},
			8: {ID: 8, Slug: "newer", TemplateRef: "tpl-newer"},
		},
		bySlug: map[string]*models.Layout{
			"layout-base-1": {ID: 1, Slug: "layout-base-1", TemplateRef: "tpl-default"},
		},
		settings: map[string]string{},
	}
}

func TestGenerateHappyPath(t *testing.T) {
	repo := fixtureRepo()
	ledger := &fakeLedger{source: credits.SourceMonthly}
	client := &fakeClient{url: "https://docs.example.com/out.pdf"}
	orch := NewOrchestrator(repo, ledger, client, "https://app.example.com", "")

	res, err := orch.Generate(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.DocumentURL != "https://docs.example.com/out.pdf" {
		t.Fatalf("unexpected url %q", res.DocumentURL)
	}
	if ledger.consumes != 1 || len(ledger.refunds) != 0 {
		t.Fatalf("expected one consume and no refunds, got %d/%d", ledger.consumes, len(ledger.refunds))
	}
	if repo.markedID != 1 || repo.markedURL != res.DocumentURL {
		t.Fatalf("result not persisted: id=%d url=%q", repo.markedID, repo.markedURL)
	}
}

func TestGenerateInsufficientCredits(t *testing.T) {
	repo := fixtureRepo()
	ledger := &fakeLedger{insufficient: true}
	client := &fakeClient{url: "https://docs.example.com/out.pdf"}
	orch := NewOrchestrator(repo, ledger, client, "https://app.example.com", "")

	_, err := orch.Generate(context.Background(), 1, 10)
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if client.calls != 0 {
		t.Fatalf("no remote call may happen without a credit")
	}
	if repo.markCalls != 0 {
		t.Fatalf("nothing may be persisted without a credit")
	}
}

func TestGenerateFailureRefundsSameSource(t *testing.T) {
	repo := fixtureRepo()
	ledger := &fakeLedger{source: credits.SourceExtra}
	client := &fakeClient{err: errors.New("upstream 500")}
	orch := NewOrchestrator(repo, ledger, client, "https://app.example.com", "")

	_, err := orch.Generate(context.Background(), 1, 10)
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if len(ledger.refunds) != 1 || ledger.refunds[0] != credits.SourceExtra {
		t.Fatalf("expected exactly one source-matched refund, got %v", ledger.refunds)
	}
}

func TestGenerateOwnershipCheck(t *testing.T) {
	repo := fixtureRepo()
	repo.users[11] = &models.User{ID: 11, Name: "Outro"}
	ledger := &fakeLedger{source: credits.SourceMonthly}
	orch := NewOrchestrator(repo, ledger, &fakeClient{url: "x"}, "https://app.example.com", "")

	_, err := orch.Generate(context.Background(), 1, 11)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign proposal, got %v", err)
	}
	if ledger.consumes != 0 {
		t.Fatalf("ownership failures must not consume credits")
	}
}

func TestGeneratePersistenceFailure(t *testing.T) {
	repo := fixtureRepo()
	repo.markErr = errors.New("db down")
	ledger := &fakeLedger{source: credits.SourceMonthly}
	orch := NewOrchestrator(repo, ledger, &fakeClient{url: "https://docs.example.com/out.pdf"}, "https://app.example.com", "")

	_, err := orch.Generate(context.Background(), 1, 10)
	if !errors.Is(err, ErrPersistenceFailed) {
		t.Fatalf("expected ErrPersistenceFailed, got %v", err)
	}
	// The document exists; refunding would double-compensate.
	if len(ledger.refunds) != 0 {
		t.Fatalf("persistence failures must not refund, got %v", ledger.refunds)
	}
}

func TestGenerateLayoutConvergence(t *testing.T) {
	repo := fixtureRepo()
	ledger := &fakeLedger{source: credits.SourceMonthly}
	client := &fakeClient{url: "https://docs.example.com/out.pdf"}
	orch := NewOrchestrator(repo, ledger, client, "https://app.example.com", "")

	// First run: account's active layout (7) wins over the stored one (4).
	if _, err := orch.Generate(context.Background(), 1, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.markLayout != 7 {
		t.Fatalf("expected layout 7 persisted, got %d", repo.markLayout)
	}
	if client.last.TemplateID != "tpl-new" {
		t.Fatalf("expected render with tpl-new, got %q", client.last.TemplateID)
	}

	// Agent switches branding; the next generation follows immediately.
	newActive := uint(8)
	repo.users[10].ActiveLayoutID = &newActive
	if _, err := orch.Generate(context.Background(), 1, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.markLayout != 8 {
		t.Fatalf("expected layout 8 persisted after switch, got %d", repo.markLayout)
	}
}

func TestGenerateLayoutLookupFailure(t *testing.T) {
	repo := fixtureRepo()
	repo.layoutErr = errors.New("connection reset")
	ledger := &fakeLedger{source: credits.SourceMonthly}
	client := &fakeClient{url: "https://docs.example.com/out.pdf"}
	orch := NewOrchestrator(repo, ledger, client, "https://app.example.com", "")

	_, err := orch.Generate(context.Background(), 1, 10)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected lookup failure to surface, got %v", err)
	}
	// Failing before the credit is touched means nothing to compensate.
	if ledger.consumes != 0 || client.calls != 0 {
		t.Fatalf("failed layout lookup must not consume or render, got consumes=%d calls=%d", ledger.consumes, client.calls)
	}
}

func TestGenerateLayoutFallback(t *testing.T) {
	repo := fixtureRepo()
	repo.users[10].ActiveLayoutID = nil
	repo.proposals[1].LayoutID = nil
	ledger := &fakeLedger{source: credits.SourceMonthly}
	client := &fakeClient{url: "https://docs.example.com/out.pdf"}
	orch := NewOrchestrator(repo, ledger, client, "https://app.example.com", "")

	if _, err := orch.Generate(context.Background(), 1, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.last.TemplateID != "tpl-default" {
		t.Fatalf("expected system default template, got %q", client.last.TemplateID)
	}
}
