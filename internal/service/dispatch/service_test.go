package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/inkwell/newsletter-platform/internal/domain"
	"github.com/inkwell/newsletter-platform/internal/render"
	"github.com/inkwell/newsletter-platform/internal/service/dispatch"
	"github.com/inkwell/newsletter-platform/internal/transport"
)

const testOwner = "owner-1"

// memNewsletters is an in-memory newsletter lookup for unit testing.
type memNewsletters struct {
	items map[string]*domain.Newsletter
}

func (m *memNewsletters) Get(_ context.Context, ownerID, id string) (*domain.Newsletter, error) {
	n, ok := m.items[id]
	if !ok || n.OwnerID != ownerID {
		return nil, dispatch.ErrNewsletterNotFound
	}
	cp := *n
	return &cp, nil
}

// memSubscribers is an in-memory subscriber store for unit testing.
type memSubscribers struct {
	items []domain.Subscriber
}

func (m *memSubscribers) ListActive(_ context.Context, ownerID string) ([]domain.Subscriber, error) {
	var out []domain.Subscriber
	for _, s := range m.items {
		if s.OwnerID == ownerID && s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSubscribers) ListActiveByIDs(_ context.Context, ownerID string, ids []string) ([]domain.Subscriber, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []domain.Subscriber
	for _, s := range m.items {
		if want[s.ID] && s.OwnerID == ownerID && s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSubscribers) Get(_ context.Context, ownerID, id string) (*domain.Subscriber, error) {
	for _, s := range m.items {
		if s.ID == id && s.OwnerID == ownerID {
			cp := s
			return &cp, nil
		}
	}
	return nil, dispatch.ErrSubscriberNotFound
}

// memLedger records attempts in memory. failNext makes the next Record call
// fail, for exercising the best-effort ledger write path.
type memLedger struct {
	mu       sync.Mutex
	attempts []domain.DeliveryAttempt
	failNext bool
}

func (m *memLedger) Record(_ context.Context, a *domain.DeliveryAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return errors.New("ledger unavailable")
	}
	m.attempts = append(m.attempts, *a)
	return nil
}

func (m *memLedger) ListByNewsletter(_ context.Context, newsletterID string) ([]domain.DeliveryAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.DeliveryAttempt
	for _, a := range m.attempts {
		if a.NewsletterID == newsletterID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memLedger) countByStatus(status domain.DeliveryStatus) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.attempts {
		if a.Status == status {
			n++
		}
	}
	return n
}

// fakeSender scripts transport outcomes per recipient address.
type fakeSender struct {
	mu      sync.Mutex
	failFor map[string]bool
	sent    []string
}

func (f *fakeSender) Send(_ context.Context, msg *transport.Message) (*transport.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[msg.To] {
		return nil, errors.New("mailbox unavailable")
	}
	f.sent = append(f.sent, msg.To)
	return &transport.Result{
		MessageID: fmt.Sprintf("msg-%d", len(f.sent)),
		SentAt:    time.Now().UTC(),
	}, nil
}

func (f *fakeSender) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fixture struct {
	svc    *dispatch.Service
	ledger *memLedger
	sender *fakeSender
}

func setup(t *testing.T, subs []domain.Subscriber, failFor map[string]bool) *fixture {
	t.Helper()

	newsletters := &memNewsletters{items: map[string]*domain.Newsletter{
		"nl-1": {ID: "nl-1", OwnerID: testOwner, Title: "Digest", Content: "<p>hi</p>", Status: domain.NewsletterDraft},
	}}
	ledger := &memLedger{}
	sender := &fakeSender{failFor: failFor}

	r, err := render.New("https://news.example.com", "Inkwell")
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}

	svc := dispatch.NewService(newsletters, &memSubscribers{items: subs}, ledger, r, sender, dispatch.Config{
		FromName:  "Inkwell",
		FromEmail: "news@example.com",
	})
	return &fixture{svc: svc, ledger: ledger, sender: sender}
}

func activeSubs(n int) []domain.Subscriber {
	subs := make([]domain.Subscriber, n)
	for i := range subs {
		subs[i] = domain.Subscriber{
			ID:       fmt.Sprintf("sub-%d", i+1),
			OwnerID:  testOwner,
			Email:    fmt.Sprintf("reader%d@example.com", i+1),
			IsActive: true,
		}
	}
	return subs
}

func TestSendBatchAllSuccess(t *testing.T) {
	fx := setup(t, activeSubs(3), nil)

	res, err := fx.svc.SendBatch(context.Background(), testOwner, "nl-1", dispatch.Target{Mode: dispatch.TargetAll})
	if err != nil {
		t.Fatalf("SendBatch: %v", err)
	}

	if res.Total != 3 || res.Successful != 3 || res.Failed != 0 {
		t.Fatalf("got total=%d successful=%d failed=%d", res.Total, res.Successful, res.Failed)
	}
	if len(res.Results) != res.Total {
		t.Fatalf("results len %d != total %d", len(res.Results), res.Total)
	}
	if got := fx.ledger.countByStatus(domain.DeliverySent); got != 3 {
		t.Fatalf("expected 3 sent ledger rows, got %d", got)
	}
}

func TestSendBatchPartialFailure(t *testing.T) {
	subs := append(activeSubs(3), domain.Subscriber{
		ID: "sub-4", OwnerID: testOwner, Email: "gone@example.com", IsActive: false,
	})
	fx := setup(t, subs, map[string]bool{"reader2@example.com": true})

	res, err := fx.svc.SendBatch(context.Background(), testOwner, "nl-1", dispatch.Target{Mode: dispatch.TargetAll})
	if err != nil {
		t.Fatalf("SendBatch: %v", err)
	}

	if res.Total != 3 {
		t.Fatalf("inactive subscriber should be excluded; total = %d", res.Total)
	}
	if res.Successful != 2 || res.Failed != 1 {
		t.Fatalf("got successful=%d failed=%d", res.Successful, res.Failed)
	}
	if res.Successful+res.Failed != res.Total {
		t.Fatalf("successful+failed != total")
	}
	if got := fx.ledger.countByStatus(domain.DeliverySent); got != 2 {
		t.Fatalf("expected 2 sent ledger rows, got %d", got)
	}
	if got := fx.ledger.countByStatus(domain.DeliveryFailed); got != 1 {
		t.Fatalf("expected 1 failed ledger row, got %d", got)
	}

	for _, r := range res.Results {
		if r.Email == "reader2@example.com" {
			if r.Success || r.Error == "" {
				t.Fatalf("failed recipient should carry error: %+v", r)
			}
		} else if !r.Success || r.MessageID == "" {
			t.Fatalf("successful recipient should carry message id: %+v", r)
		}
	}
}

func TestSendBatchAllFailuresStillSummarizes(t *testing.T) {
	fx := setup(t, activeSubs(2), map[string]bool{
		"reader1@example.com": true,
		"reader2@example.com": true,
	})

	res, err := fx.svc.SendBatch(context.Background(), testOwner, "nl-1", dispatch.Target{Mode: dispatch.TargetAll})
	if err != nil {
		t.Fatalf("batch with only transport failures must not fail the request: %v", err)
	}
	if res.Failed != 2 || res.Successful != 0 {
		t.Fatalf("got successful=%d failed=%d", res.Successful, res.Failed)
	}
}

func TestSendBatchSelectedDropsForeignAndInactive(t *testing.T) {
	subs := append(activeSubs(2),
		domain.Subscriber{ID: "sub-other", OwnerID: "owner-2", Email: "other@example.com", IsActive: true},
		domain.Subscriber{ID: "sub-off", OwnerID: testOwner, Email: "off@example.com", IsActive: false},
	)
	fx := setup(t, subs, nil)

	res, err := fx.svc.SendBatch(context.Background(), testOwner, "nl-1", dispatch.Target{
		Mode:          dispatch.TargetSelected,
		SubscriberIDs: []string{"sub-1", "sub-other", "sub-off", "sub-missing"},
	})
	if err != nil {
		t.Fatalf("SendBatch: %v", err)
	}
	if res.Total != 1 {
		t.Fatalf("foreign/inactive/unknown ids must be silently dropped; total = %d", res.Total)
	}
	if res.Results[0].SubscriberID != "sub-1" {
		t.Fatalf("unexpected recipient %q", res.Results[0].SubscriberID)
	}
}

func TestSendBatchSelectedEmptyList(t *testing.T) {
	fx := setup(t, activeSubs(2), nil)

	_, err := fx.svc.SendBatch(context.Background(), testOwner, "nl-1", dispatch.Target{Mode: dispatch.TargetSelected})
	if !errors.Is(err, dispatch.ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}
	if fx.sender.sentCount() != 0 {
		t.Fatal("no transport call expected")
	}
}

func TestSendBatchNoEligibleRecipients(t *testing.T) {
	subs := []domain.Subscriber{
		{ID: "sub-1", OwnerID: testOwner, Email: "off@example.com", IsActive: false},
	}
	fx := setup(t, subs, nil)

	_, err := fx.svc.SendBatch(context.Background(), testOwner, "nl-1", dispatch.Target{Mode: dispatch.TargetAll})
	if !errors.Is(err, dispatch.ErrNoRecipients) {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}
	if fx.sender.sentCount() != 0 {
		t.Fatal("zero-recipient batch must short-circuit before the transport")
	}
}

func TestSendBatchDeduplicatesSelection(t *testing.T) {
	fx := setup(t, activeSubs(2), nil)

	res, err := fx.svc.SendBatch(context.Background(), testOwner, "nl-1", dispatch.Target{
		Mode:          dispatch.TargetSelected,
		SubscriberIDs: []string{"sub-1", "sub-1", "sub-2"},
	})
	if err != nil {
		t.Fatalf("SendBatch: %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("duplicate ids must collapse; total = %d", res.Total)
	}
}

func TestSendBatchNewsletterNotOwned(t *testing.T) {
	fx := setup(t, activeSubs(1), nil)

	_, err := fx.svc.SendBatch(context.Background(), "owner-2", "nl-1", dispatch.Target{Mode: dispatch.TargetAll})
	if !errors.Is(err, dispatch.ErrNewsletterNotFound) {
		t.Fatalf("ownership mismatch must look like not-found, got %v", err)
	}
}

func TestSendBatchLedgerFailureKeepsSuccessCount(t *testing.T) {
	fx := setup(t, activeSubs(1), nil)
	fx.ledger.failNext = true

	res, err := fx.svc.SendBatch(context.Background(), testOwner, "nl-1", dispatch.Target{Mode: dispatch.TargetAll})
	if err != nil {
		t.Fatalf("SendBatch: %v", err)
	}
	if res.Successful != 1 {
		t.Fatalf("ledger write failure must not flip a successful send; successful = %d", res.Successful)
	}
	if got := fx.ledger.countByStatus(domain.DeliverySent); got != 0 {
		t.Fatalf("expected the sent row to be missing, got %d", got)
	}
}

func TestSendSingleToSubscriber(t *testing.T) {
	fx := setup(t, activeSubs(1), nil)

	msgID, err := fx.svc.SendSingle(context.Background(), testOwner, "nl-1", "sub-1", "")
	if err != nil {
		t.Fatalf("SendSingle: %v", err)
	}
	if msgID == "" {
		t.Fatal("expected provider message id")
	}
	if got := fx.ledger.countByStatus(domain.DeliverySent); got != 1 {
		t.Fatalf("expected 1 sent ledger row, got %d", got)
	}
}

func TestSendSingleTransportFailureWritesNoLedgerRow(t *testing.T) {
	fx := setup(t, activeSubs(1), map[string]bool{"reader1@example.com": true})

	_, err := fx.svc.SendSingle(context.Background(), testOwner, "nl-1", "sub-1", "")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if len(fx.ledger.attempts) != 0 {
		t.Fatalf("single-send rejection must not be ledgered; got %d rows", len(fx.ledger.attempts))
	}
}

func TestSendSingleTestEmailNeverLedgered(t *testing.T) {
	for name, failFor := range map[string]map[string]bool{
		"success": nil,
		"failure": {"qa@example.com": true},
	} {
		t.Run(name, func(t *testing.T) {
			fx := setup(t, activeSubs(1), failFor)

			_, err := fx.svc.SendSingle(context.Background(), testOwner, "nl-1", "", "qa@example.com")
			if failFor == nil && err != nil {
				t.Fatalf("SendSingle: %v", err)
			}
			if failFor != nil && err == nil {
				t.Fatal("expected transport error")
			}
			if len(fx.ledger.attempts) != 0 {
				t.Fatalf("test sends must never write ledger rows; got %d", len(fx.ledger.attempts))
			}
		})
	}
}

func TestSendSingleInvalidTestEmail(t *testing.T) {
	fx := setup(t, activeSubs(1), nil)

	_, err := fx.svc.SendSingle(context.Background(), testOwner, "nl-1", "", "not-an-address")
	if !errors.Is(err, dispatch.ErrInvalidTestEmail) {
		t.Fatalf("expected ErrInvalidTestEmail, got %v", err)
	}
}

func TestAttemptsRequiresOwnership(t *testing.T) {
	fx := setup(t, activeSubs(1), nil)

	if _, err := fx.svc.SendBatch(context.Background(), testOwner, "nl-1", dispatch.Target{Mode: dispatch.TargetAll}); err != nil {
		t.Fatalf("SendBatch: %v", err)
	}

	attempts, err := fx.svc.Attempts(context.Background(), testOwner, "nl-1")
	if err != nil {
		t.Fatalf("Attempts: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(attempts))
	}

	if _, err := fx.svc.Attempts(context.Background(), "owner-2", "nl-1"); !errors.Is(err, dispatch.ErrNewsletterNotFound) {
		t.Fatalf("expected ErrNewsletterNotFound for non-owner, got %v", err)
	}
}
