package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/yourorg/contractwatch/internal/domain"
	"github.com/yourorg/contractwatch/internal/notify"
	"github.com/yourorg/contractwatch/internal/scan"
)

// Job ids pre-registered at startup.
const (
	JobDailyNotificationCheck = "daily_notification_check"
	JobWeeklySummary          = "weekly_summary"
)

// DailyCheck is the job body behind daily_notification_check: it scans all
// reminder offsets for the current date and logs the aggregate outcome.
type DailyCheck struct {
	engine *scan.Engine
	logger *slog.Logger
	now    func() time.Time
}

// NewDailyCheck creates the daily notification check job.
func NewDailyCheck(engine *scan.Engine, logger *slog.Logger) *DailyCheck {
	if logger == nil {
		logger = slog.Default()
	}
	return &DailyCheck{engine: engine, logger: logger, now: time.Now}
}

// Run executes one daily check. Scan never returns an error; delivery
// failures arrive as data and are logged here.
func (j *DailyCheck) Run(ctx context.Context) {
	j.logger.Info("starting daily notification check")
	result := j.engine.Scan(ctx, domain.DateOnly(j.now()))

	j.logger.Info("notification check completed",
		slog.Int("emails_sent", result.EmailsSent),
		slog.Int("push_sent", result.PushSent),
	)
	for _, e := range result.Errors {
		j.logger.Error("notification check error", slog.String("error", e))
	}
}

// WeeklySummary is the job body behind weekly_summary: it groups contracts
// renewing within the next 7 days by notification email and sends one digest
// per recipient. Digest emails carry no contract id, so no Notification
// records are written for them.
type WeeklySummary struct {
	contracts domain.ContractRepository
	gateway   *notify.Gateway
	logger    *slog.Logger
	now       func() time.Time
}

// NewWeeklySummary creates the weekly summary job.
func NewWeeklySummary(contracts domain.ContractRepository, gateway *notify.Gateway, logger *slog.Logger) *WeeklySummary {
	if logger == nil {
		logger = slog.Default()
	}
	return &WeeklySummary{contracts: contracts, gateway: gateway, logger: logger, now: time.Now}
}

// Run executes one weekly summary pass.
func (j *WeeklySummary) Run(ctx context.Context) {
	j.logger.Info("starting weekly summary")

	today := domain.DateOnly(j.now())
	upcoming, err := j.contracts.ListRenewingBetween(ctx, today, today.AddDate(0, 0, 7))
	if err != nil {
		j.logger.Error("failed to query upcoming contracts", slog.String("error", err.Error()))
		return
	}
	if len(upcoming) == 0 {
		j.logger.Info("weekly summary completed", slog.Int("digests_sent", 0))
		return
	}

	groups := GroupByEmail(upcoming)
	sent := 0
	for _, email := range sortedKeys(groups) {
		contracts := groups[email]
		subject, body := notify.RenderWeeklyDigest(contracts, today)

		ok, detail := j.gateway.SendEmail(ctx, email, subject, body, 0)
		if ok {
			sent++
			j.logger.Info("weekly summary sent",
				slog.String("to", email),
				slog.Int("contracts", len(contracts)),
			)
		} else {
			j.logger.Error("failed to send weekly summary",
				slog.String("to", email),
				slog.String("error", detail),
			)
		}
	}

	j.logger.Info("weekly summary completed", slog.Int("digests_sent", sent))
}

// GroupByEmail buckets contracts by notification email, dropping contracts
// without one. Order within each bucket is preserved.
func GroupByEmail(contracts []*domain.Contract) map[string][]*domain.Contract {
	groups := make(map[string][]*domain.Contract)
	for _, c := range contracts {
		if c.NotificationEmail == "" {
			continue
		}
		groups[c.NotificationEmail] = append(groups[c.NotificationEmail], c)
	}
	return groups
}

func sortedKeys(m map[string][]*domain.Contract) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RegisterDefaultJobs wires the two fixed recurring jobs into the scheduler.
func RegisterDefaultJobs(s *Scheduler, daily *DailyCheck, weekly *WeeklySummary, dailyAt DailyTrigger, weeklyAt WeeklyTrigger) {
	s.AddJob(Job{
		ID:      JobDailyNotificationCheck,
		Name:    "Daily Contract Renewal Notification Check",
		Trigger: dailyAt,
		Run:     daily.Run,
	})
	s.AddJob(Job{
		ID:      JobWeeklySummary,
		Name:    "Weekly Contract Summary",
		Trigger: weeklyAt,
		Run:     weekly.Run,
	})
}
