package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/yourorg/contractwatch/internal/domain"
)

const displayDateFormat = "January 2, 2006"

// RenderReminder builds the subject and HTML body for a renewal reminder.
// Pure: no I/O, deterministic for a given contract and day count.
func RenderReminder(c *domain.Contract, daysUntil int) (subject, body string) {
	cls := Classify(c.CompanyName, daysUntil)

	var b strings.Builder
	b.WriteString("<html><body style=\"font-family: Arial, sans-serif; color: #333;\">\n")
	b.WriteString("<h1>ContractWatch</h1>\n")
	fmt.Fprintf(&b, "<div style=\"background: %s; color: white; padding: 15px;\"><h2>%s RENEWAL NOTICE</h2></div>\n", cls.Color, cls.Tier)
	fmt.Fprintf(&b, "<p>%s</p>\n", cls.Message)
	b.WriteString("<h3>Contract Details</h3>\n<table>\n")
	fmt.Fprintf(&b, "<tr><td><strong>Contract Name:</strong></td><td>%s</td></tr>\n", c.ContractName)
	fmt.Fprintf(&b, "<tr><td><strong>Company:</strong></td><td>%s</td></tr>\n", c.CompanyName)
	fmt.Fprintf(&b, "<tr><td><strong>Renewal Date:</strong></td><td>%s</td></tr>\n", c.RenewalDate.Format(displayDateFormat))
	fmt.Fprintf(&b, "<tr><td><strong>Contract Period:</strong></td><td>%s - %s</td></tr>\n",
		c.StartDate.Format(displayDateFormat), c.EndDate.Format(displayDateFormat))
	b.WriteString("</table>\n")
	if c.Notes != "" {
		fmt.Fprintf(&b, "<p><strong>Notes:</strong> %s</p>\n", c.Notes)
	}
	b.WriteString("<p>Take action now to ensure continuity of your services.</p>\n")
	b.WriteString("<p style=\"color: #6b7280; font-size: 14px;\">This is an automated reminder from ContractWatch. " +
		"To stop receiving these notifications, update your notification settings.</p>\n")
	b.WriteString("</body></html>")

	return "Contract Renewal Reminder - " + c.ContractName, b.String()
}

// RenderPushReminder builds the title and short text for a push reminder.
func RenderPushReminder(c *domain.Contract, daysUntil int) (title, body string) {
	title = "Contract Renewal Reminder"
	if daysUntil > 0 {
		body = fmt.Sprintf("%s renewal due in %d days", c.ContractName, daysUntil)
	} else {
		body = fmt.Sprintf("%s renewal is due today", c.ContractName)
	}
	return title, body
}

// RenderWeeklyDigest builds a single summary email for contracts renewing
// soon. Days-left is computed relative to `today`, injected so rendering
// stays deterministic. Callers must pass a non-empty slice.
func RenderWeeklyDigest(contracts []*domain.Contract, today time.Time) (subject, body string) {
	var b strings.Builder
	b.WriteString("<html><body style=\"font-family: Arial, sans-serif; color: #333;\">\n")
	b.WriteString("<h1>ContractWatch</h1>\n<h2>Contracts Due This Week</h2>\n")
	fmt.Fprintf(&b, "<p>You have %d contracts due for renewal in the next 7 days:</p>\n", len(contracts))
	b.WriteString("<table>\n<tr><th>Contract</th><th>Company</th><th>Renewal Date</th><th>Days Left</th></tr>\n")
	for _, c := range contracts {
		daysLeft := domain.DaysUntil(today, c.RenewalDate)
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td><td style=\"color: %s;\">%d days</td></tr>\n",
			c.ContractName, c.CompanyName, c.RenewalDate.Format(displayDateFormat), DigestColor(daysLeft), daysLeft)
	}
	b.WriteString("</table>\n")
	b.WriteString("<p><strong>Reminder:</strong> Review these contracts and take necessary action to ensure continuity of your services.</p>\n")
	b.WriteString("<p style=\"color: #6b7280; font-size: 14px;\">This is an automated weekly summary from ContractWatch.</p>\n")
	b.WriteString("</body></html>")

	return fmt.Sprintf("Weekly Contract Renewal Summary - %d contracts due", len(contracts)), b.String()
}
