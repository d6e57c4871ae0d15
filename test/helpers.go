package test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yourorg/contractwatch/internal/domain"
	"github.com/yourorg/contractwatch/internal/handler"
	"github.com/yourorg/contractwatch/internal/infrastructure/logger"
	"github.com/yourorg/contractwatch/internal/notify"
	"github.com/yourorg/contractwatch/internal/scan"
	"github.com/yourorg/contractwatch/internal/service"
	"github.com/yourorg/contractwatch/pkg/cache"
)

// memContractRepo is an in-memory domain.ContractRepository for API tests.
type memContractRepo struct {
	contracts map[int64]*domain.Contract
	nextID    int64
}

func newMemContractRepo() *memContractRepo {
	return &memContractRepo{contracts: map[int64]*domain.Contract{}}
}

func (m *memContractRepo) Create(ctx context.Context, c *domain.Contract) error {
	m.nextID++
	c.ID = m.nextID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	m.contracts[c.ID] = c
	return nil
}

func (m *memContractRepo) GetByID(ctx context.Context, id int64) (*domain.Contract, error) {
	if c, ok := m.contracts[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, domain.ErrContractNotFound
}

func (m *memContractRepo) Update(ctx context.Context, c *domain.Contract) error {
	if _, ok := m.contracts[c.ID]; !ok {
		return domain.ErrContractNotFound
	}
	c.UpdatedAt = time.Now()
	m.contracts[c.ID] = c
	return nil
}

func (m *memContractRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.contracts[id]; !ok {
		return domain.ErrContractNotFound
	}
	delete(m.contracts, id)
	return nil
}

func (m *memContractRepo) List(ctx context.Context, filter domain.ContractFilter) ([]*domain.Contract, error) {
	out := []*domain.Contract{}
	for _, c := range m.contracts {
		if filter.UserID != "" && c.UserID != filter.UserID {
			continue
		}
		if filter.UpcomingOnly && c.RenewalDate.After(domain.DateOnly(filter.Today).AddDate(0, 0, 30)) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memContractRepo) ListByRenewalDate(ctx context.Context, date time.Time) ([]*domain.Contract, error) {
	out := []*domain.Contract{}
	for _, c := range m.contracts {
		if c.NotificationEnabled && domain.DateOnly(c.RenewalDate).Equal(domain.DateOnly(date)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memContractRepo) ListRenewingBetween(ctx context.Context, from, to time.Time) ([]*domain.Contract, error) {
	out := []*domain.Contract{}
	for _, c := range m.contracts {
		d := domain.DateOnly(c.RenewalDate)
		if c.NotificationEnabled && !d.Before(domain.DateOnly(from)) && !d.After(domain.DateOnly(to)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memContractRepo) ListUpcoming(ctx context.Context, userID string, from, to time.Time) ([]*domain.Contract, error) {
	out := []*domain.Contract{}
	for _, c := range m.contracts {
		if userID != "" && c.UserID != userID {
			continue
		}
		d := domain.DateOnly(c.RenewalDate)
		if !d.Before(domain.DateOnly(from)) && !d.After(domain.DateOnly(to)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memContractRepo) ListOverdue(ctx context.Context, userID string, before time.Time) ([]*domain.Contract, error) {
	out := []*domain.Contract{}
	for _, c := range m.contracts {
		if userID != "" && c.UserID != userID {
			continue
		}
		if domain.DateOnly(c.RenewalDate).Before(domain.DateOnly(before)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memContractRepo) Count(ctx context.Context, userID string) (int, error) {
	n := 0
	for _, c := range m.contracts {
		if userID == "" || c.UserID == userID {
			n++
		}
	}
	return n, nil
}

type memNotificationRepo struct {
	created []*domain.Notification
}

func (m *memNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	n.ID = int64(len(m.created) + 1)
	if n.SendDate.IsZero() {
		n.SendDate = time.Now()
	}
	m.created = append(m.created, n)
	return nil
}

func (m *memNotificationRepo) List(ctx context.Context, contractID int64) ([]*domain.Notification, error) {
	out := []*domain.Notification{}
	for _, n := range m.created {
		if contractID == 0 || n.ContractID == contractID {
			out = append(out, n)
		}
	}
	return out, nil
}

type recordingMailer struct {
	sent []string
}

func (r *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	r.sent = append(r.sent, to)
	return nil
}

type recordingPusher struct {
	sent []string
}

func (r *recordingPusher) Push(ctx context.Context, token, title, body string) error {
	r.sent = append(r.sent, token)
	return nil
}

// TestServerHelper wires the HTTP API against in-memory storage and
// recording transports, no Postgres, Redis or SMTP required.
type TestServerHelper struct {
	Server        *httptest.Server
	Logger        *slog.Logger
	Mux           *http.ServeMux
	Contracts     *memContractRepo
	Notifications *memNotificationRepo
	Mailer        *recordingMailer
	Pusher        *recordingPusher
}

func NewTestServer(t *testing.T) *TestServerHelper {
	log := logger.NewLogger("debug")
	mux := http.NewServeMux()

	contracts := newMemContractRepo()
	notifications := &memNotificationRepo{}
	mailer := &recordingMailer{}
	pusher := &recordingPusher{}

	gateway := notify.NewGateway(mailer, pusher, notifications, nil, log, 0)
	engine := scan.NewEngine(contracts, nil, gateway, log, false)
	contractService := service.NewContractService(contracts, cache.New(), log)

	contractsHandler := handler.NewContractsHandler(contractService, log)
	notificationsHandler := handler.NewNotificationsHandler(notifications, contractService, nil, gateway, false, log)
	checkRenewalsHandler := handler.NewCheckRenewalsHandler(engine, log)

	mux.HandleFunc("GET /api/contracts", contractsHandler.List)
	mux.HandleFunc("POST /api/contracts", contractsHandler.Create)
	mux.HandleFunc("GET /api/contracts/dashboard", contractsHandler.Dashboard)
	mux.HandleFunc("GET /api/contracts/{id}", contractsHandler.Get)
	mux.HandleFunc("PUT /api/contracts/{id}", contractsHandler.Update)
	mux.HandleFunc("DELETE /api/contracts/{id}", contractsHandler.Delete)

	mux.HandleFunc("GET /api/notifications", notificationsHandler.List)
	mux.HandleFunc("GET /api/notifications/history/{contract_id}", notificationsHandler.History)
	mux.HandleFunc("PUT /api/notifications/settings/{contract_id}", notificationsHandler.UpdateSettings)
	mux.HandleFunc("POST /api/notifications/send-test", notificationsHandler.SendTest)
	mux.Handle("POST /api/notifications/check-renewals", checkRenewalsHandler)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	server := httptest.NewServer(mux)

	return &TestServerHelper{
		Server:        server,
		Logger:        log,
		Mux:           mux,
		Contracts:     contracts,
		Notifications: notifications,
		Mailer:        mailer,
		Pusher:        pusher,
	}
}

func (h *TestServerHelper) Close() {
	h.Server.Close()
}

func (h *TestServerHelper) URL() string {
	return h.Server.URL
}

// AssertStatusCode helper function
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	if resp.StatusCode != expected {
		t.Errorf("Expected status %d, got %d", expected, resp.StatusCode)
	}
}
