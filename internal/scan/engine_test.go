package scan

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yourorg/contractwatch/internal/domain"
	"github.com/yourorg/contractwatch/internal/notify"
)

type memContractRepo struct {
	contracts []*domain.Contract
}

func (m *memContractRepo) Create(ctx context.Context, c *domain.Contract) error {
	c.ID = int64(len(m.contracts) + 1)
	m.contracts = append(m.contracts, c)
	return nil
}

func (m *memContractRepo) GetByID(ctx context.Context, id int64) (*domain.Contract, error) {
	for _, c := range m.contracts {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, domain.ErrContractNotFound
}

func (m *memContractRepo) Update(ctx context.Context, c *domain.Contract) error { return nil }
func (m *memContractRepo) Delete(ctx context.Context, id int64) error           { return nil }

func (m *memContractRepo) List(ctx context.Context, filter domain.ContractFilter) ([]*domain.Contract, error) {
	return m.contracts, nil
}

func (m *memContractRepo) ListByRenewalDate(ctx context.Context, date time.Time) ([]*domain.Contract, error) {
	var out []*domain.Contract
	for _, c := range m.contracts {
		if c.NotificationEnabled && domain.DateOnly(c.RenewalDate).Equal(domain.DateOnly(date)) {
			out = append(out, c)
		}
	}
	return out, nil
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
	return m.ListRenewingBetween(ctx, from, to)
}

func (m *memContractRepo) ListOverdue(ctx context.Context, userID string, before time.Time) ([]*domain.Contract, error) {
	var out []*domain.Contract
	for _, c := range m.contracts {
		if domain.DateOnly(c.RenewalDate).Before(domain.DateOnly(before)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memContractRepo) Count(ctx context.Context, userID string) (int, error) {
	return len(m.contracts), nil
}

type memNotificationRepo struct {
	created []*domain.Notification
}

func (m *memNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	n.ID = int64(len(m.created) + 1)
	m.created = append(m.created, n)
	return nil
}

func (m *memNotificationRepo) List(ctx context.Context, contractID int64) ([]*domain.Notification, error) {
	return m.created, nil
}

type memDeviceRepo struct {
	tokens map[string]string
}

func (m *memDeviceRepo) SaveToken(ctx context.Context, userID, token string) error {
	m.tokens[userID] = token
	return nil
}

func (m *memDeviceRepo) GetToken(ctx context.Context, userID string) (string, error) {
	if t, ok := m.tokens[userID]; ok {
		return t, nil
	}
	return "", domain.ErrDeviceTokenNotFound
}

func (m *memDeviceRepo) DeleteToken(ctx context.Context, userID string) error {
	delete(m.tokens, userID)
	return nil
}

type fakeMailer struct {
	failFor map[string]error
	sent    []string
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	if err, ok := f.failFor[to]; ok {
		return err
	}
	f.sent = append(f.sent, to)
	return nil
}

type fakePusher struct {
	sent []string
}

func (f *fakePusher) Push(ctx context.Context, token, title, body string) error {
	f.sent = append(f.sent, token)
	return nil
}

func contractDue(id int64, email string, renewal time.Time) *domain.Contract {
	return &domain.Contract{
		ID:                  id,
		UserID:              "user-1",
		CompanyName:         "Acme",
		ContractName:        "Contract " + string(rune('A'+id-1)),
		RenewalDate:         renewal,
		NotificationEnabled: true,
		NotificationEmail:   email,
	}
}

func newTestEngine(contracts *memContractRepo, devices domain.DeviceTokenRepository, mailer notify.Mailer, pusher notify.Pusher, pushDelivery bool) (*Engine, *memNotificationRepo) {
	notifications := &memNotificationRepo{}
	gateway := notify.NewGateway(mailer, pusher, notifications, nil, nil, 0)
	return NewEngine(contracts, devices, gateway, nil, pushDelivery), notifications
}

func TestScanMatchesAllOffsets(t *testing.T) {
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := &memContractRepo{}
	for i, offset := range Offsets {
		repo.contracts = append(repo.contracts,
			contractDue(int64(i+1), "a@x.com", today.AddDate(0, 0, offset)))
	}
	// Renews at an offset no reminder fires for.
	repo.contracts = append(repo.contracts, contractDue(99, "a@x.com", today.AddDate(0, 0, 15)))

	mailer := &fakeMailer{}
	engine, notifications := newTestEngine(repo, nil, mailer, &fakePusher{}, false)

	result := engine.Scan(context.Background(), today)

	if result.EmailsSent != len(Offsets) {
		t.Fatalf("emails sent = %d, want %d", result.EmailsSent, len(Offsets))
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(notifications.created) != len(Offsets) {
		t.Fatalf("notification records = %d, want %d", len(notifications.created), len(Offsets))
	}
}

func TestScanSkipsDisabledContracts(t *testing.T) {
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	c := contractDue(1, "a@x.com", today.AddDate(0, 0, 7))
	c.NotificationEnabled = false
	repo := &memContractRepo{contracts: []*domain.Contract{c}}

	mailer := &fakeMailer{}
	engine, _ := newTestEngine(repo, nil, mailer, &fakePusher{}, false)

	result := engine.Scan(context.Background(), today)
	if result.EmailsSent != 0 || len(mailer.sent) != 0 {
		t.Fatalf("disabled contract must not be dispatched: %+v", result)
	}
}

func TestScanFailureIsolation(t *testing.T) {
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := &memContractRepo{contracts: []*domain.Contract{
		contractDue(1, "bad@x.com", today.AddDate(0, 0, 7)),
		contractDue(2, "good@x.com", today.AddDate(0, 0, 7)),
	}}

	mailer := &fakeMailer{failFor: map[string]error{"bad@x.com": errors.New("mailbox full")}}
	engine, notifications := newTestEngine(repo, nil, mailer, &fakePusher{}, false)

	result := engine.Scan(context.Background(), today)

	if result.EmailsSent != 1 {
		t.Fatalf("emails sent = %d, want 1", result.EmailsSent)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "Email failed for contract 1") {
		t.Fatalf("errors = %v", result.Errors)
	}
	// Both attempts leave records: one failed, one sent.
	if len(notifications.created) != 2 {
		t.Fatalf("notification records = %d, want 2", len(notifications.created))
	}
}

func TestScanRecordsPushWithoutDevice(t *testing.T) {
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	c := contractDue(1, "", today)
	c.NotificationMobile = true
	repo := &memContractRepo{contracts: []*domain.Contract{c}}

	pusher := &fakePusher{}
	engine, notifications := newTestEngine(repo, nil, nil, pusher, false)

	result := engine.Scan(context.Background(), today)

	if result.PushSent != 1 {
		t.Fatalf("push sent = %d, want 1", result.PushSent)
	}
	if len(pusher.sent) != 0 {
		t.Fatalf("no real push expected, got %v", pusher.sent)
	}
	if len(notifications.created) != 1 {
		t.Fatalf("expected one record")
	}
	if !strings.HasPrefix(notifications.created[0].Message, "Push notification scheduled:") {
		t.Fatalf("message = %q", notifications.created[0].Message)
	}
}

func TestScanDeliversPushWithDeviceToken(t *testing.T) {
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	c := contractDue(1, "", today.AddDate(0, 0, 3))
	c.NotificationMobile = true
	repo := &memContractRepo{contracts: []*domain.Contract{c}}
	devices := &memDeviceRepo{tokens: map[string]string{"user-1": "tok-9"}}

	pusher := &fakePusher{}
	engine, _ := newTestEngine(repo, devices, nil, pusher, true)

	result := engine.Scan(context.Background(), today)

	if result.PushSent != 1 {
		t.Fatalf("push sent = %d, want 1", result.PushSent)
	}
	if len(pusher.sent) != 1 || pusher.sent[0] != "tok-9" {
		t.Fatalf("pusher sent = %v", pusher.sent)
	}
}

func TestScanHasNoDedup(t *testing.T) {
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := &memContractRepo{contracts: []*domain.Contract{
		contractDue(1, "a@x.com", today.AddDate(0, 0, 7)),
	}}

	mailer := &fakeMailer{}
	engine, notifications := newTestEngine(repo, nil, mailer, &fakePusher{}, false)

	engine.Scan(context.Background(), today)
	engine.Scan(context.Background(), today)

	// Two passes, two sends, two records: re-running the scan double-sends.
	if len(mailer.sent) != 2 {
		t.Fatalf("sends = %d, want 2", len(mailer.sent))
	}
	if len(notifications.created) != 2 {
		t.Fatalf("records = %d, want 2", len(notifications.created))
	}
}
