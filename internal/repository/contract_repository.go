package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/contractwatch/internal/domain"
)

// PostgresContractRepository implements domain.ContractRepository using PostgreSQL.
type PostgresContractRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresContractRepository creates a new contract repository.
func NewPostgresContractRepository(db *sql.DB, logger *slog.Logger) *PostgresContractRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresContractRepository{db: db, logger: logger}
}

const contractColumns = `id, user_id, company_name, contract_name, start_date, end_date, renewal_date,
	notification_enabled, notification_email, notification_mobile, notes, created_at, updated_at`

// Create inserts a new contract and populates id and timestamps.
func (r *PostgresContractRepository) Create(ctx context.Context, c *domain.Contract) error {
	query := `
		INSERT INTO contracts (user_id, company_name, contract_name, start_date, end_date, renewal_date,
			notification_enabled, notification_email, notification_mobile, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		c.UserID,
		c.CompanyName,
		c.ContractName,
		c.StartDate,
		c.EndDate,
		c.RenewalDate,
		c.NotificationEnabled,
		nullable(c.NotificationEmail),
		c.NotificationMobile,
		nullable(c.Notes),
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to create contract",
			slog.String("contract_name", c.ContractName),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create contract: %w", err)
	}
	return nil
}

// GetByID retrieves a contract by id.
func (r *PostgresContractRepository) GetByID(ctx context.Context, id int64) (*domain.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = $1`

	c, err := scanContract(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrContractNotFound
		}
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return c, nil
}

// Update persists all mutable fields and refreshes updated_at.
func (r *PostgresContractRepository) Update(ctx context.Context, c *domain.Contract) error {
	query := `
		UPDATE contracts
		SET company_name = $1, contract_name = $2, start_date = $3, end_date = $4, renewal_date = $5,
			notification_enabled = $6, notification_email = $7, notification_mobile = $8, notes = $9,
			updated_at = now()
		WHERE id = $10
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		c.CompanyName,
		c.ContractName,
		c.StartDate,
		c.EndDate,
		c.RenewalDate,
		c.NotificationEnabled,
		nullable(c.NotificationEmail),
		c.NotificationMobile,
		nullable(c.Notes),
		c.ID,
	).Scan(&c.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrContractNotFound
		}
		return fmt.Errorf("failed to update contract: %w", err)
	}
	return nil
}

// Delete removes a contract. Notifications referencing it are left in place.
func (r *PostgresContractRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contracts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
	}
	if affected == 0 {
		return domain.ErrContractNotFound
	}
	return nil
}

// List returns contracts matching the filter, sorted by renewal_date ascending.
func (r *PostgresContractRepository) List(ctx context.Context, filter domain.ContractFilter) ([]*domain.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE 1=1`
	args := []interface{}{}

	if filter.UserID != "" {
		args = append(args, filter.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.UpcomingOnly {
		args = append(args, domain.DateOnly(filter.Today).AddDate(0, 0, 30))
		query += fmt.Sprintf(" AND renewal_date <= $%d", len(args))
	}
	query += " ORDER BY renewal_date ASC, id ASC"

	return r.queryContracts(ctx, query, args...)
}

// ListByRenewalDate returns notification-enabled contracts renewing exactly
// on the given calendar date, ordered by id for reproducible scans.
func (r *PostgresContractRepository) ListByRenewalDate(ctx context.Context, date time.Time) ([]*domain.Contract, error) {
	query := `SELECT ` + contractColumns + `
		FROM contracts
		WHERE renewal_date = $1 AND notification_enabled = TRUE
		ORDER BY id ASC`
	return r.queryContracts(ctx, query, domain.DateOnly(date))
}

// ListRenewingBetween returns notification-enabled contracts with
// from <= renewal_date <= to, ordered by renewal_date.
func (r *PostgresContractRepository) ListRenewingBetween(ctx context.Context, from, to time.Time) ([]*domain.Contract, error) {
	query := `SELECT ` + contractColumns + `
		FROM contracts
		WHERE renewal_date >= $1 AND renewal_date <= $2 AND notification_enabled = TRUE
		ORDER BY renewal_date ASC, id ASC`
	return r.queryContracts(ctx, query, domain.DateOnly(from), domain.DateOnly(to))
}

// ListUpcoming returns contracts renewing in [from, to] for a user
// (all users when userID is empty).
func (r *PostgresContractRepository) ListUpcoming(ctx context.Context, userID string, from, to time.Time) ([]*domain.Contract, error) {
	query := `SELECT ` + contractColumns + `
		FROM contracts
		WHERE renewal_date >= $1 AND renewal_date <= $2`
	args := []interface{}{domain.DateOnly(from), domain.DateOnly(to)}
	if userID != "" {
		args = append(args, userID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	query += " ORDER BY renewal_date ASC, id ASC"
	return r.queryContracts(ctx, query, args...)
}

// ListOverdue returns contracts whose renewal date has passed.
func (r *PostgresContractRepository) ListOverdue(ctx context.Context, userID string, before time.Time) ([]*domain.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE renewal_date < $1`
	args := []interface{}{domain.DateOnly(before)}
	if userID != "" {
		args = append(args, userID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	query += " ORDER BY renewal_date ASC, id ASC"
	return r.queryContracts(ctx, query, args...)
}

// Count returns the number of contracts for a user (all when empty).
func (r *PostgresContractRepository) Count(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM contracts`
	args := []interface{}{}
	if userID != "" {
		query += ` WHERE user_id = $1`
		args = append(args, userID)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count contracts: %w", err)
	}
	return count, nil
}

func (r *PostgresContractRepository) queryContracts(ctx context.Context, query string, args ...interface{}) ([]*domain.Contract, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	var out []*domain.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read contracts: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContract(row rowScanner) (*domain.Contract, error) {
	c := &domain.Contract{}
	var email, notes sql.NullString

	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.CompanyName,
		&c.ContractName,
		&c.StartDate,
		&c.EndDate,
		&c.RenewalDate,
		&c.NotificationEnabled,
		&email,
		&c.NotificationMobile,
		&notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.NotificationEmail = email.String
	c.Notes = notes.String
	return c, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
