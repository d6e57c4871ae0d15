package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yourorg/contractwatch/internal/domain"
	"github.com/yourorg/contractwatch/pkg/cache"
)

type memContractRepo struct {
	contracts map[int64]*domain.Contract
	nextID    int64
	listCalls int
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
	m.listCalls++
	var out []*domain.Contract
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
	return nil, nil
}

func (m *memContractRepo) ListRenewingBetween(ctx context.Context, from, to time.Time) ([]*domain.Contract, error) {
	return nil, nil
}

func (m *memContractRepo) ListUpcoming(ctx context.Context, userID string, from, to time.Time) ([]*domain.Contract, error) {
	var out []*domain.Contract
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
	var out []*domain.Contract
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

func validInput() ContractInput {
	return ContractInput{
		UserID:       "user-1",
		CompanyName:  "Acme",
		ContractName: "SaaS License",
		StartDate:    "2024-01-01",
		EndDate:      "2024-12-31",
		RenewalDate:  "2024-12-01",
	}
}

func TestCreateContract(t *testing.T) {
	repo := newMemContractRepo()
	s := NewContractService(repo, nil, nil)

	c, err := s.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if c.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if !c.NotificationEnabled {
		t.Fatalf("notifications should default to enabled")
	}
	if !c.RenewalDate.Equal(time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("renewal date = %v", c.RenewalDate)
	}
}

func TestCreateContractValidation(t *testing.T) {
	repo := newMemContractRepo()
	s := NewContractService(repo, nil, nil)

	cases := []struct {
		name   string
		mutate func(*ContractInput)
	}{
		{"missing user", func(in *ContractInput) { in.UserID = "" }},
		{"missing company", func(in *ContractInput) { in.CompanyName = "" }},
		{"missing name", func(in *ContractInput) { in.ContractName = "" }},
		{"missing renewal", func(in *ContractInput) { in.RenewalDate = "" }},
		{"bad date", func(in *ContractInput) { in.StartDate = "01/01/2024" }},
	}

	for _, tc := range cases {
		in := validInput()
		tc.mutate(&in)
		_, err := s.Create(context.Background(), in)
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("%s: err = %v, want ValidationError", tc.name, err)
		}
	}
}

func TestCreateAllowsRenewalOutsidePeriod(t *testing.T) {
	repo := newMemContractRepo()
	s := NewContractService(repo, nil, nil)

	in := validInput()
	in.RenewalDate = "2030-01-01"
	if _, err := s.Create(context.Background(), in); err != nil {
		t.Fatalf("renewal date outside contract period must be accepted: %v", err)
	}
}

func TestUpdatePartial(t *testing.T) {
	repo := newMemContractRepo()
	s := NewContractService(repo, nil, nil)
	c, _ := s.Create(context.Background(), validInput())

	name := "Renamed"
	renewal := "2025-06-01"
	updated, err := s.Update(context.Background(), "user-1", c.ID, ContractUpdate{
		ContractName: &name,
		RenewalDate:  &renewal,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.ContractName != "Renamed" {
		t.Fatalf("name = %q", updated.ContractName)
	}
	if updated.CompanyName != "Acme" {
		t.Fatalf("untouched field changed: %q", updated.CompanyName)
	}
	if !updated.RenewalDate.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("renewal = %v", updated.RenewalDate)
	}
}

func TestUpdateOwnership(t *testing.T) {
	repo := newMemContractRepo()
	s := NewContractService(repo, nil, nil)
	c, _ := s.Create(context.Background(), validInput())

	name := "Hijack"
	if _, err := s.Update(context.Background(), "someone-else", c.ID, ContractUpdate{ContractName: &name}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}

	// Empty caller skips enforcement (internal callers).
	if _, err := s.Update(context.Background(), "", c.ID, ContractUpdate{ContractName: &name}); err != nil {
		t.Fatalf("internal update failed: %v", err)
	}
}

func TestDeleteOwnership(t *testing.T) {
	repo := newMemContractRepo()
	s := NewContractService(repo, nil, nil)
	c, _ := s.Create(context.Background(), validInput())

	if err := s.Delete(context.Background(), "someone-else", c.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if err := s.Delete(context.Background(), "user-1", c.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := s.Delete(context.Background(), "user-1", c.ID); !errors.Is(err, domain.ErrContractNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestDashboardCounts(t *testing.T) {
	repo := newMemContractRepo()
	s := NewContractService(repo, nil, nil)
	today := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return today }

	overdue := validInput()
	overdue.RenewalDate = "2023-12-31"
	upcoming := validInput()
	upcoming.RenewalDate = "2024-01-15"
	far := validInput()
	far.RenewalDate = "2024-06-01"

	for _, in := range []ContractInput{overdue, upcoming, far} {
		if _, err := s.Create(context.Background(), in); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	dash, err := s.GetDashboard(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if dash.OverdueCount != 1 {
		t.Fatalf("overdue = %d, want 1", dash.OverdueCount)
	}
	if dash.UpcomingCount != 1 {
		t.Fatalf("upcoming = %d, want 1", dash.UpcomingCount)
	}
	if dash.TotalContracts != 3 {
		t.Fatalf("total = %d, want 3", dash.TotalContracts)
	}
}

func TestListCachesUntilMutation(t *testing.T) {
	repo := newMemContractRepo()
	s := NewContractService(repo, cache.New(), nil)

	if _, err := s.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	s.List(context.Background(), "user-1", false)
	s.List(context.Background(), "user-1", false)
	if repo.listCalls != 1 {
		t.Fatalf("repo list calls = %d, want 1 (second served from cache)", repo.listCalls)
	}

	// A mutation invalidates the cached listing.
	if _, err := s.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	s.List(context.Background(), "user-1", false)
	if repo.listCalls != 2 {
		t.Fatalf("repo list calls = %d, want 2 after invalidation", repo.listCalls)
	}
}
