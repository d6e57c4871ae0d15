package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/contractwatch/internal/domain"
	"github.com/yourorg/contractwatch/internal/observability/metrics"
	"github.com/yourorg/contractwatch/internal/reliability/circuitbreaker"
)

// Mailer sends a single email through an external transport.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Pusher sends a single push message to a device token.
type Pusher interface {
	Push(ctx context.Context, token, title, body string) error
}

// Gateway is the delivery boundary: it sends emails and push messages and
// appends exactly one Notification record per attempt when a contract id is
// supplied. Transport failures become (false, detail) results and a failed
// record; they never propagate. Calls are independently retryable, the
// gateway itself never retries.
type Gateway struct {
	mailer        Mailer
	pusher        Pusher
	notifications domain.NotificationRepository
	events        *Broadcaster
	logger        *slog.Logger
	timeout       time.Duration
	mailBreaker   *circuitbreaker.CircuitBreaker
	pushBreaker   *circuitbreaker.CircuitBreaker
}

// NewGateway creates a delivery gateway. events may be nil when no live feed
// is wired. timeout bounds each transport call; 10s when zero.
func NewGateway(
	mailer Mailer,
	pusher Pusher,
	notifications domain.NotificationRepository,
	events *Broadcaster,
	logger *slog.Logger,
	timeout time.Duration,
) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Gateway{
		mailer:        mailer,
		pusher:        pusher,
		notifications: notifications,
		events:        events,
		logger:        logger,
		timeout:       timeout,
		mailBreaker:   circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second),
		pushBreaker:   circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second),
	}
}

// SendEmail attempts one email delivery. contractID == 0 means no contract
// context (weekly digests) and no Notification record is written.
func (g *Gateway) SendEmail(ctx context.Context, to, subject, body string, contractID int64) (bool, string) {
	if !g.mailBreaker.AllowRequest() {
		detail := "Failed to send email: mail transport unavailable (circuit open)"
		g.record(ctx, contractID, domain.NotificationTypeEmail, domain.NotificationStatusFailed, detail)
		return false, detail
	}

	sendCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.mailer.Send(sendCtx, to, subject, body); err != nil {
		g.mailBreaker.RecordFailure()
		detail := fmt.Sprintf("Failed to send email: %s", err.Error())
		g.logger.Warn("email delivery failed",
			slog.Int64("contract_id", contractID),
			slog.String("error", err.Error()),
		)
		g.record(ctx, contractID, domain.NotificationTypeEmail, domain.NotificationStatusFailed, detail)
		return false, detail
	}

	g.mailBreaker.RecordSuccess()
	g.record(ctx, contractID, domain.NotificationTypeEmail, domain.NotificationStatusSent, fmt.Sprintf("Email sent to %s", to))
	return true, "Email sent successfully"
}

// SendPush attempts one push delivery to a device token. contractID == 0
// skips the Notification record.
func (g *Gateway) SendPush(ctx context.Context, token, title, body string, contractID int64) (bool, string) {
	if !g.pushBreaker.AllowRequest() {
		detail := "Failed to send push notification: push transport unavailable (circuit open)"
		g.record(ctx, contractID, domain.NotificationTypeMobile, domain.NotificationStatusFailed, detail)
		return false, detail
	}

	sendCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.pusher.Push(sendCtx, token, title, body); err != nil {
		g.pushBreaker.RecordFailure()
		detail := fmt.Sprintf("Failed to send push notification: %s", err.Error())
		g.logger.Warn("push delivery failed",
			slog.Int64("contract_id", contractID),
			slog.String("error", err.Error()),
		)
		g.record(ctx, contractID, domain.NotificationTypeMobile, domain.NotificationStatusFailed, detail)
		return false, detail
	}

	g.pushBreaker.RecordSuccess()
	g.record(ctx, contractID, domain.NotificationTypeMobile, domain.NotificationStatusSent, "Push notification sent to device")
	return true, "Push notification sent successfully"
}

// RecordPush appends a sent mobile Notification without a transport round
// trip. Used when no device token is registered: the reminder is recorded as
// scheduled, matching the store-and-display behavior of the mobile client.
func (g *Gateway) RecordPush(ctx context.Context, contractID int64, message string) bool {
	return g.record(ctx, contractID, domain.NotificationTypeMobile, domain.NotificationStatusSent, message)
}

func (g *Gateway) record(ctx context.Context, contractID int64, notifType, status, message string) bool {
	metrics.ObserveNotification(notifType, status)

	if g.events != nil {
		g.events.Publish(Event{
			ContractID: contractID,
			Type:       notifType,
			Status:     status,
			Detail:     message,
			Timestamp:  time.Now(),
		})
	}

	if contractID == 0 {
		return true
	}

	n := &domain.Notification{
		ContractID:       contractID,
		NotificationType: notifType,
		SendDate:         time.Now(),
		Status:           status,
		Message:          message,
	}
	if err := g.notifications.Create(ctx, n); err != nil {
		g.logger.Error("failed to record notification",
			slog.Int64("contract_id", contractID),
			slog.String("type", notifType),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}
