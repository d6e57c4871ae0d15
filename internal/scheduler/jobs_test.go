package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/yourorg/contractwatch/internal/domain"
	"github.com/yourorg/contractwatch/internal/notify"
)

type memContractRepo struct {
	contracts []*domain.Contract
}

func (m *memContractRepo) Create(ctx context.Context, c *domain.Contract) error { return nil }
func (m *memContractRepo) GetByID(ctx context.Context, id int64) (*domain.Contract, error) {
	return nil, domain.ErrContractNotFound
}
func (m *memContractRepo) Update(ctx context.Context, c *domain.Contract) error { return nil }
func (m *memContractRepo) Delete(ctx context.Context, id int64) error           { return nil }
func (m *memContractRepo) List(ctx context.Context, filter domain.ContractFilter) ([]*domain.Contract, error) {
	return m.contracts, nil
}
func (m *memContractRepo) ListByRenewalDate(ctx context.Context, date time.Time) ([]*domain.Contract, error) {
	return nil, nil
}
func (m *memContractRepo) ListRenewingBetween(ctx context.Context, from, to time.Time) ([]*domain.Contract, error) {
	var out []*domain.Contract
	for _, c := range m.contracts {
		d := domain.DateOnly(c.RenewalDate)
		if c.NotificationEnabled && !d.Before(domain.DateOnly(from)) && !d.After(domain.DateOnly(to)) {
			out = append(out, c)
		}
	}
	return out, nil
}
func (m *memContractRepo) ListUpcoming(ctx context.Context, userID string, from, to time.Time) ([]*domain.Contract, error) {
	return nil, nil
}
func (m *memContractRepo) ListOverdue(ctx context.Context, userID string, before time.Time) ([]*domain.Contract, error) {
	return nil, nil
}
func (m *memContractRepo) Count(ctx context.Context, userID string) (int, error) {
	return len(m.contracts), nil
}

type memNotificationRepo struct {
	created []*domain.Notification
}

func (m *memNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	m.created = append(m.created, n)
	return nil
}
func (m *memNotificationRepo) List(ctx context.Context, contractID int64) ([]*domain.Notification, error) {
	return m.created, nil
}

type digestMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	sent []digestMail
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	f.sent = append(f.sent, digestMail{to: to, subject: subject, body: body})
	return nil
}

type noopPusher struct{}

func (noopPusher) Push(ctx context.Context, token, title, body string) error { return nil }

func TestGroupByEmail(t *testing.T) {
	contracts := []*domain.Contract{
		{ID: 1, NotificationEmail: "a@x.com"},
		{ID: 2, NotificationEmail: "b@x.com"},
		{ID: 3, NotificationEmail: "a@x.com"},
		{ID: 4}, // no email, dropped
	}

	groups := GroupByEmail(contracts)
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	if len(groups["a@x.com"]) != 2 || groups["a@x.com"][0].ID != 1 || groups["a@x.com"][1].ID != 3 {
		t.Fatalf("a@x.com group = %+v", groups["a@x.com"])
	}
	if len(groups["b@x.com"]) != 1 {
		t.Fatalf("b@x.com group = %+v", groups["b@x.com"])
	}
}

func TestWeeklySummaryGroupsAndWindows(t *testing.T) {
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := &memContractRepo{contracts: []*domain.Contract{
		{ID: 1, ContractName: "C1", CompanyName: "Acme", NotificationEnabled: true,
			NotificationEmail: "a@x.com", RenewalDate: today.AddDate(0, 0, 3)},
		{ID: 2, ContractName: "C2", CompanyName: "Acme", NotificationEnabled: true,
			NotificationEmail: "a@x.com", RenewalDate: today.AddDate(0, 0, 6)},
		// Outside the 7-day window.
		{ID: 3, ContractName: "C3", CompanyName: "Acme", NotificationEnabled: true,
			NotificationEmail: "b@x.com", RenewalDate: today.AddDate(0, 0, 10)},
	}}

	notifications := &memNotificationRepo{}
	mailer := &fakeMailer{}
	gateway := notify.NewGateway(mailer, noopPusher{}, notifications, nil, nil, 0)

	job := NewWeeklySummary(repo, gateway, nil)
	job.now = func() time.Time { return today }
	job.Run(context.Background())

	if len(mailer.sent) != 1 {
		t.Fatalf("digests sent = %d, want 1", len(mailer.sent))
	}
	d := mailer.sent[0]
	if d.to != "a@x.com" {
		t.Fatalf("digest to = %q", d.to)
	}
	if d.subject != "Weekly Contract Renewal Summary - 2 contracts due" {
		t.Fatalf("subject = %q", d.subject)
	}

	// Digests carry no contract id, so no notification records are written.
	if len(notifications.created) != 0 {
		t.Fatalf("records = %d, want 0", len(notifications.created))
	}
}

func TestWeeklySummaryNoUpcoming(t *testing.T) {
	repo := &memContractRepo{}
	mailer := &fakeMailer{}
	gateway := notify.NewGateway(mailer, noopPusher{}, &memNotificationRepo{}, nil, nil, 0)

	job := NewWeeklySummary(repo, gateway, nil)
	job.Run(context.Background())

	if len(mailer.sent) != 0 {
		t.Fatalf("no digests expected, got %d", len(mailer.sent))
	}
}
