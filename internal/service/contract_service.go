package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/contractwatch/internal/domain"
	"github.com/yourorg/contractwatch/internal/observability/metrics"
	"github.com/yourorg/contractwatch/pkg/cache"
)

const dateLayout = "2006-01-02"

// ErrForbidden is returned when a caller touches a contract they do not own.
var ErrForbidden = errors.New("contract belongs to another user")

// ContractInput carries the fields accepted on contract creation.
// Dates are calendar dates in YYYY-MM-DD form.
type ContractInput struct {
	UserID              string `json:"user_id"`
	CompanyName         string `json:"company_name"`
	ContractName        string `json:"contract_name"`
	StartDate           string `json:"start_date"`
	EndDate             string `json:"end_date"`
	RenewalDate         string `json:"renewal_date"`
	NotificationEnabled *bool  `json:"notification_enabled"`
	NotificationEmail   string `json:"notification_email"`
	NotificationMobile  bool   `json:"notification_mobile"`
	Notes               string `json:"notes"`
}

// ContractUpdate carries a partial update. Nil fields are left unchanged.
type ContractUpdate struct {
	CompanyName         *string `json:"company_name"`
	ContractName        *string `json:"contract_name"`
	StartDate           *string `json:"start_date"`
	EndDate             *string `json:"end_date"`
	RenewalDate         *string `json:"renewal_date"`
	NotificationEnabled *bool   `json:"notification_enabled"`
	NotificationEmail   *string `json:"notification_email"`
	NotificationMobile  *bool   `json:"notification_mobile"`
	Notes               *string `json:"notes"`
}

// NotificationSettings carries a partial update of notification fields only.
type NotificationSettings struct {
	NotificationEnabled *bool   `json:"notification_enabled"`
	NotificationEmail   *string `json:"notification_email"`
	NotificationMobile  *bool   `json:"notification_mobile"`
}

// Dashboard summarises a user's renewal situation.
type Dashboard struct {
	Upcoming       []*domain.Contract `json:"upcoming"`
	Overdue        []*domain.Contract `json:"overdue"`
	UpcomingCount  int                `json:"upcoming_count"`
	OverdueCount   int                `json:"overdue_count"`
	TotalContracts int                `json:"total_contracts"`
}

// ContractService implements contract CRUD, ownership checks and the
// dashboard aggregation. List and dashboard responses are cached until
// the next mutation.
type ContractService struct {
	contracts domain.ContractRepository
	cache     *cache.Cache
	logger    *slog.Logger
	now       func() time.Time
}

// NewContractService creates a new contract service.
func NewContractService(contracts domain.ContractRepository, c *cache.Cache, logger *slog.Logger) *ContractService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContractService{
		contracts: contracts,
		cache:     c,
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates the input and stores a new contract.
func (s *ContractService) Create(ctx context.Context, input ContractInput) (*domain.Contract, error) {
	if input.UserID == "" {
		return nil, &domain.ValidationError{Field: "user_id", Reason: "is required"}
	}
	if input.CompanyName == "" {
		return nil, &domain.ValidationError{Field: "company_name", Reason: "is required"}
	}
	if input.ContractName == "" {
		return nil, &domain.ValidationError{Field: "contract_name", Reason: "is required"}
	}

	start, err := parseDate("start_date", input.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", input.EndDate)
	if err != nil {
		return nil, err
	}
	renewal, err := parseDate("renewal_date", input.RenewalDate)
	if err != nil {
		return nil, err
	}

	enabled := true
	if input.NotificationEnabled != nil {
		enabled = *input.NotificationEnabled
	}

	c := &domain.Contract{
		UserID:              input.UserID,
		CompanyName:         input.CompanyName,
		ContractName:        input.ContractName,
		StartDate:           start,
		EndDate:             end,
		RenewalDate:         renewal,
		NotificationEnabled: enabled,
		NotificationEmail:   input.NotificationEmail,
		NotificationMobile:  input.NotificationMobile,
		Notes:               input.Notes,
	}

	if err := s.contracts.Create(ctx, c); err != nil {
		return nil, err
	}
	s.invalidate()

	s.logger.Info("contract created",
		slog.Int64("contract_id", c.ID),
		slog.String("user_id", c.UserID),
		slog.String("contract_name", c.ContractName),
	)
	return c, nil
}

// Get retrieves a contract by id.
func (s *ContractService) Get(ctx context.Context, id int64) (*domain.Contract, error) {
	return s.contracts.GetByID(ctx, id)
}

// Update applies a partial update. callerID, when non-empty, must match the
// contract owner.
func (s *ContractService) Update(ctx context.Context, callerID string, id int64, update ContractUpdate) (*domain.Contract, error) {
	c, err := s.owned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	if update.CompanyName != nil {
		if *update.CompanyName == "" {
			return nil, &domain.ValidationError{Field: "company_name", Reason: "cannot be empty"}
		}
		c.CompanyName = *update.CompanyName
	}
	if update.ContractName != nil {
		if *update.ContractName == "" {
			return nil, &domain.ValidationError{Field: "contract_name", Reason: "cannot be empty"}
		}
		c.ContractName = *update.ContractName
	}
	if update.StartDate != nil {
		if c.StartDate, err = parseDate("start_date", *update.StartDate); err != nil {
			return nil, err
		}
	}
	if update.EndDate != nil {
		if c.EndDate, err = parseDate("end_date", *update.EndDate); err != nil {
			return nil, err
		}
	}
	if update.RenewalDate != nil {
		if c.RenewalDate, err = parseDate("renewal_date", *update.RenewalDate); err != nil {
			return nil, err
		}
	}
	if update.NotificationEnabled != nil {
		c.NotificationEnabled = *update.NotificationEnabled
	}
	if update.NotificationEmail != nil {
		c.NotificationEmail = *update.NotificationEmail
	}
	if update.NotificationMobile != nil {
		c.NotificationMobile = *update.NotificationMobile
	}
	if update.Notes != nil {
		c.Notes = *update.Notes
	}

	if err := s.contracts.Update(ctx, c); err != nil {
		return nil, err
	}
	s.invalidate()
	return c, nil
}

// UpdateSettings applies a partial update of the notification fields only.
func (s *ContractService) UpdateSettings(ctx context.Context, callerID string, id int64, settings NotificationSettings) (*domain.Contract, error) {
	return s.Update(ctx, callerID, id, ContractUpdate{
		NotificationEnabled: settings.NotificationEnabled,
		NotificationEmail:   settings.NotificationEmail,
		NotificationMobile:  settings.NotificationMobile,
	})
}

// Delete removes a contract after an ownership check.
func (s *ContractService) Delete(ctx context.Context, callerID string, id int64) error {
	if _, err := s.owned(ctx, callerID, id); err != nil {
		return err
	}
	if err := s.contracts.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate()

	s.logger.Info("contract deleted", slog.Int64("contract_id", id))
	return nil
}

// List returns contracts for a user, optionally limited to those renewing
// within the next 30 days.
func (s *ContractService) List(ctx context.Context, userID string, upcomingOnly bool) ([]*domain.Contract, error) {
	key := fmt.Sprintf("contracts:list:%s:%t", userID, upcomingOnly)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached.([]*domain.Contract), nil
		}
	}

	out, err := s.contracts.List(ctx, domain.ContractFilter{
		UserID:       userID,
		UpcomingOnly: upcomingOnly,
		Today:        s.now(),
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, out, 30*time.Second)
	}
	return out, nil
}

// GetDashboard aggregates upcoming and overdue renewals for a user.
// Upcoming covers today through today+30 days inclusive.
func (s *ContractService) GetDashboard(ctx context.Context, userID string) (*Dashboard, error) {
	key := "contracts:dashboard:" + userID
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached.(*Dashboard), nil
		}
	}

	today := domain.DateOnly(s.now())

	upcoming, err := s.contracts.ListUpcoming(ctx, userID, today, today.AddDate(0, 0, 30))
	if err != nil {
		return nil, err
	}
	overdue, err := s.contracts.ListOverdue(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	total, err := s.contracts.Count(ctx, userID)
	if err != nil {
		return nil, err
	}

	dash := &Dashboard{
		Upcoming:       upcoming,
		Overdue:        overdue,
		UpcomingCount:  len(upcoming),
		OverdueCount:   len(overdue),
		TotalContracts: total,
	}
	metrics.SetUpcomingRenewals(len(upcoming))

	if s.cache != nil {
		s.cache.Set(key, dash, 30*time.Second)
	}
	return dash, nil
}

// owned loads the contract and verifies the caller owns it. An empty
// callerID skips the ownership check (internal callers).
func (s *ContractService) owned(ctx context.Context, callerID string, id int64) (*domain.Contract, error) {
	c, err := s.contracts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerID != "" && c.UserID != callerID {
		return nil, ErrForbidden
	}
	return c, nil
}

func (s *ContractService) invalidate() {
	if s.cache != nil {
		s.cache.Invalidate("contracts:")
	}
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, &domain.ValidationError{Field: field, Reason: "is required"}
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: field, Reason: "must be a date in YYYY-MM-DD form"}
	}
	return t, nil
}
