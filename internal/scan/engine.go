// Package scan implements the renewal scan: for a given day it finds every
// contract hitting one of the fixed reminder offsets and dispatches the
// configured notifications through the delivery gateway.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/contractwatch/internal/domain"
	"github.com/yourorg/contractwatch/internal/notify"
	"github.com/yourorg/contractwatch/internal/observability/metrics"
)

// Offsets are the fixed day counts before renewal at which reminders fire,
// checked in this order on every scan.
var Offsets = [6]int{30, 14, 7, 3, 1, 0}

// Result aggregates one scan pass. Errors holds one entry per failed
// contract dispatch; a non-empty list does not mean the scan failed.
type Result struct {
	EmailsSent int      `json:"emails_sent"`
	PushSent   int      `json:"push_notifications_sent"`
	Errors     []string `json:"errors"`
}

// Engine runs renewal scans. It holds no persistent state: "today" is
// injected per scan, so behavior is deterministic and testable.
//
// There is no dedup keyed on (contract, offset, date): running Scan twice
// for the same today sends every match again. The scheduled daily job and a
// manual trigger on the same day can therefore double-send.
type Engine struct {
	contracts    domain.ContractRepository
	devices      domain.DeviceTokenRepository // nil disables token lookups
	gateway      *notify.Gateway
	logger       *slog.Logger
	pushDelivery bool
}

// NewEngine creates a scan engine. devices may be nil; pushDelivery gates
// real FCM sends for contracts whose owner registered a device token.
func NewEngine(
	contracts domain.ContractRepository,
	devices domain.DeviceTokenRepository,
	gateway *notify.Gateway,
	logger *slog.Logger,
	pushDelivery bool,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		contracts:    contracts,
		devices:      devices,
		gateway:      gateway,
		logger:       logger,
		pushDelivery: pushDelivery,
	}
}

// Scan checks all reminder offsets against today and dispatches reminders.
// Individual delivery failures are collected into the result and never abort
// the pass; Scan itself returns no error.
func (e *Engine) Scan(ctx context.Context, today time.Time) *Result {
	start := time.Now()
	runID := uuid.NewString()
	today = domain.DateOnly(today)

	result := &Result{Errors: []string{}}

	e.logger.Info("renewal scan started",
		slog.String("run_id", runID),
		slog.Time("today", today),
	)

	for _, offset := range Offsets {
		target := today.AddDate(0, 0, offset)

		contracts, err := e.contracts.ListByRenewalDate(ctx, target)
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("query failed for renewal date %s: %s", target.Format("2006-01-02"), err.Error()))
			continue
		}

		for _, c := range contracts {
			e.dispatch(ctx, c, offset, result)
		}
	}

	metrics.ObserveScan(time.Since(start), len(result.Errors))

	e.logger.Info("renewal scan completed",
		slog.String("run_id", runID),
		slog.Int("emails_sent", result.EmailsSent),
		slog.Int("push_sent", result.PushSent),
		slog.Int("errors", len(result.Errors)),
	)
	return result
}

// dispatch sends the reminders configured on one contract. Failures are
// appended to the result; one contract never affects another.
func (e *Engine) dispatch(ctx context.Context, c *domain.Contract, daysUntil int, result *Result) {
	if c.NotificationEmail != "" {
		subject, body := notify.RenderReminder(c, daysUntil)
		ok, detail := e.gateway.SendEmail(ctx, c.NotificationEmail, subject, body, c.ID)
		if ok {
			result.EmailsSent++
		} else {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Email failed for contract %d: %s", c.ID, detail))
		}
	}

	if c.NotificationMobile {
		title, text := notify.RenderPushReminder(c, daysUntil)

		if token := e.deviceToken(ctx, c.UserID); token != "" {
			ok, detail := e.gateway.SendPush(ctx, token, title, text, c.ID)
			if ok {
				result.PushSent++
			} else {
				result.Errors = append(result.Errors,
					fmt.Sprintf("Push failed for contract %d: %s", c.ID, detail))
			}
			return
		}

		// No registered device: record the reminder as sent without a
		// transport round trip.
		if e.gateway.RecordPush(ctx, c.ID, "Push notification scheduled: "+text) {
			result.PushSent++
		} else {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Error processing contract %d: failed to record push notification", c.ID))
		}
	}
}

func (e *Engine) deviceToken(ctx context.Context, userID string) string {
	if !e.pushDelivery || e.devices == nil {
		return ""
	}
	token, err := e.devices.GetToken(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrDeviceTokenNotFound) {
			e.logger.Warn("device token lookup failed",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
		return ""
	}
	return token
}
