package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Notification types and statuses as stored in the notifications table.
const (
	NotificationTypeEmail  = "email"
	NotificationTypeMobile = "mobile"

	NotificationStatusPending = "pending"
	NotificationStatusSent    = "sent"
	NotificationStatusFailed  = "failed"
)

var (
	// ErrContractNotFound is returned when a contract id does not exist.
	ErrContractNotFound = errors.New("contract not found")
	// ErrNotificationNotFound is returned when a notification id does not exist.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrDeviceTokenNotFound is returned when no device token is registered for a user.
	ErrDeviceTokenNotFound = errors.New("device token not found")
)

// ValidationError reports a malformed or missing field on create/update.
// Handlers surface it as a 400 with the message.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Contract represents a tracked contract and its renewal notification settings.
// Renewal, start and end dates are calendar dates (midnight, no time component).
// RenewalDate is deliberately not validated against the contract period.
type Contract struct {
	ID                  int64
	UserID              string // UUID of the owning user
	CompanyName         string
	ContractName        string
	StartDate           time.Time
	EndDate             time.Time
	RenewalDate         time.Time
	NotificationEnabled bool
	NotificationEmail   string // empty when not set
	NotificationMobile  bool
	Notes               string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Notification records a single delivery attempt for a contract.
// One row per attempt, never mutated after creation.
type Notification struct {
	ID               int64
	ContractID       int64
	NotificationType string // email | mobile
	SendDate         time.Time
	Status           string // pending | sent | failed
	Message          string // outcome description, not the rendered body
}

// ContractFilter narrows contract listings. Zero values mean "no filter".
type ContractFilter struct {
	UserID       string
	UpcomingOnly bool      // renewal_date <= Today+30d
	Today        time.Time // reference date for UpcomingOnly
}

// ContractRepository defines data access for contracts.
type ContractRepository interface {
	Create(ctx context.Context, c *Contract) error
	GetByID(ctx context.Context, id int64) (*Contract, error)
	Update(ctx context.Context, c *Contract) error
	Delete(ctx context.Context, id int64) error

	// List returns contracts matching the filter, sorted by renewal_date ascending.
	List(ctx context.Context, filter ContractFilter) ([]*Contract, error)

	// ListByRenewalDate returns notification-enabled contracts whose renewal
	// date equals the given calendar date, ordered by id ascending.
	ListByRenewalDate(ctx context.Context, date time.Time) ([]*Contract, error)

	// ListRenewingBetween returns notification-enabled contracts with
	// from <= renewal_date <= to, ordered by renewal_date ascending.
	ListRenewingBetween(ctx context.Context, from, to time.Time) ([]*Contract, error)

	// ListUpcoming returns contracts with from <= renewal_date <= to for a
	// user (all users when userID is empty), ordered by renewal_date ascending.
	ListUpcoming(ctx context.Context, userID string, from, to time.Time) ([]*Contract, error)

	// ListOverdue returns contracts with renewal_date < before.
	ListOverdue(ctx context.Context, userID string, before time.Time) ([]*Contract, error)

	// Count returns the number of contracts for a user (all when empty).
	Count(ctx context.Context, userID string) (int, error)
}

// NotificationRepository defines data access for notification records.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	// List returns notifications sorted by send_date descending.
	// contractID == 0 lists all.
	List(ctx context.Context, contractID int64) ([]*Notification, error)
}

// DeviceTokenRepository stores FCM device tokens per user.
type DeviceTokenRepository interface {
	SaveToken(ctx context.Context, userID, token string) error
	GetToken(ctx context.Context, userID string) (string, error)
	DeleteToken(ctx context.Context, userID string) error
}

// DateOnly truncates a timestamp to its calendar date, keeping the location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysUntil returns the whole number of calendar days from `from` to `to`.
// Negative when `to` is in the past. Both endpoints are rebuilt as UTC
// midnights first so a DST transition inside the span cannot shift the count.
func DaysUntil(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	u := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(u.Sub(f).Hours() / 24)
}
