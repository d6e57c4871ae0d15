package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yourorg/contractwatch/internal/domain"
)

type memNotificationRepo struct {
	created []*domain.Notification
}

func (m *memNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	n.ID = int64(len(m.created) + 1)
	m.created = append(m.created, n)
	return nil
}

func (m *memNotificationRepo) List(ctx context.Context, contractID int64) ([]*domain.Notification, error) {
	if contractID == 0 {
		return m.created, nil
	}
	var out []*domain.Notification
	for _, n := range m.created {
		if n.ContractID == contractID {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakeMailer struct {
	err  error
	sent []string
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

type fakePusher struct {
	err  error
	sent []string
}

func (f *fakePusher) Push(ctx context.Context, token, title, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, token)
	return nil
}

func TestSendEmailSuccess(t *testing.T) {
	repo := &memNotificationRepo{}
	mailer := &fakeMailer{}
	g := NewGateway(mailer, &fakePusher{}, repo, nil, nil, 0)

	ok, detail := g.SendEmail(context.Background(), "a@x.com", "subj", "body", 42)
	if !ok {
		t.Fatalf("expected success, got detail %q", detail)
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "a@x.com" {
		t.Fatalf("mailer sent = %v", mailer.sent)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one notification record, got %d", len(repo.created))
	}
	n := repo.created[0]
	if n.ContractID != 42 || n.NotificationType != domain.NotificationTypeEmail || n.Status != domain.NotificationStatusSent {
		t.Fatalf("unexpected record: %+v", n)
	}
}

func TestSendEmailFailureIsDataNotError(t *testing.T) {
	repo := &memNotificationRepo{}
	mailer := &fakeMailer{err: errors.New("connection refused")}
	g := NewGateway(mailer, &fakePusher{}, repo, nil, nil, 0)

	ok, detail := g.SendEmail(context.Background(), "a@x.com", "subj", "body", 7)
	if ok {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(detail, "connection refused") {
		t.Fatalf("detail = %q", detail)
	}
	if len(repo.created) != 1 || repo.created[0].Status != domain.NotificationStatusFailed {
		t.Fatalf("expected one failed record, got %+v", repo.created)
	}
}

func TestSendEmailNoRecordWithoutContract(t *testing.T) {
	repo := &memNotificationRepo{}
	g := NewGateway(&fakeMailer{}, &fakePusher{}, repo, nil, nil, 0)

	// Digest sends carry no contract id and leave no record.
	ok, _ := g.SendEmail(context.Background(), "a@x.com", "subj", "body", 0)
	if !ok {
		t.Fatalf("expected success")
	}
	if len(repo.created) != 0 {
		t.Fatalf("expected no records, got %d", len(repo.created))
	}
}

func TestSendPush(t *testing.T) {
	repo := &memNotificationRepo{}
	pusher := &fakePusher{}
	g := NewGateway(&fakeMailer{}, pusher, repo, nil, nil, 0)

	ok, _ := g.SendPush(context.Background(), "tok-1", "title", "body", 9)
	if !ok {
		t.Fatalf("expected success")
	}
	if len(pusher.sent) != 1 || pusher.sent[0] != "tok-1" {
		t.Fatalf("pusher sent = %v", pusher.sent)
	}
	if len(repo.created) != 1 || repo.created[0].NotificationType != domain.NotificationTypeMobile {
		t.Fatalf("unexpected records: %+v", repo.created)
	}
}

func TestRecordPush(t *testing.T) {
	repo := &memNotificationRepo{}
	g := NewGateway(&fakeMailer{}, &fakePusher{}, repo, nil, nil, 0)

	if !g.RecordPush(context.Background(), 3, "Push notification scheduled: x") {
		t.Fatalf("expected record to succeed")
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one record")
	}
	n := repo.created[0]
	if n.Status != domain.NotificationStatusSent || n.Message != "Push notification scheduled: x" {
		t.Fatalf("unexpected record: %+v", n)
	}
}

func TestGatewayPublishesEvents(t *testing.T) {
	repo := &memNotificationRepo{}
	b := NewBroadcaster()
	events, cancel := b.Subscribe()
	defer cancel()

	g := NewGateway(&fakeMailer{}, &fakePusher{}, repo, b, nil, 0)
	g.SendEmail(context.Background(), "a@x.com", "s", "b", 1)

	select {
	case e := <-events:
		if e.ContractID != 1 || e.Type != domain.NotificationTypeEmail || e.Status != domain.NotificationStatusSent {
			t.Fatalf("unexpected event: %+v", e)
		}
	default:
		t.Fatalf("expected a published event")
	}
}
