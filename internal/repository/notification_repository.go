package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/yourorg/contractwatch/internal/domain"
)

// PostgresNotificationRepository implements domain.NotificationRepository
// using PostgreSQL. Notification rows are append-only.
type PostgresNotificationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresNotificationRepository creates a new notification repository.
func NewPostgresNotificationRepository(db *sql.DB, logger *slog.Logger) *PostgresNotificationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresNotificationRepository{db: db, logger: logger}
}

// Create appends a notification record and populates id and send_date.
func (r *PostgresNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n.Status == "" {
		n.Status = domain.NotificationStatusPending
	}

	query := `
		INSERT INTO notifications (contract_id, notification_type, status, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, send_date
	`

	err := r.db.QueryRowContext(ctx, query,
		n.ContractID,
		n.NotificationType,
		n.Status,
		nullable(n.Message),
	).Scan(&n.ID, &n.SendDate)

	if err != nil {
		r.logger.Error("failed to create notification",
			slog.Int64("contract_id", n.ContractID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// List returns notifications sorted by send_date descending.
// contractID == 0 lists all.
func (r *PostgresNotificationRepository) List(ctx context.Context, contractID int64) ([]*domain.Notification, error) {
	query := `SELECT id, contract_id, notification_type, send_date, status, message FROM notifications`
	args := []interface{}{}
	if contractID != 0 {
		query += ` WHERE contract_id = $1`
		args = append(args, contractID)
	}
	query += ` ORDER BY send_date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		n := &domain.Notification{}
		var message sql.NullString
		if err := rows.Scan(&n.ID, &n.ContractID, &n.NotificationType, &n.SendDate, &n.Status, &message); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Message = message.String
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}
	return out, nil
}
