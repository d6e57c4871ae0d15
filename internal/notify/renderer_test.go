package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/yourorg/contractwatch/internal/domain"
)

func testContract() *domain.Contract {
	return &domain.Contract{
		ID:           1,
		CompanyName:  "Acme Corp",
		ContractName: "SaaS License",
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		RenewalDate:  time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRenderReminder(t *testing.T) {
	c := testContract()
	subject, body := RenderReminder(c, 7)

	if subject != "Contract Renewal Reminder - SaaS License" {
		t.Fatalf("subject = %q", subject)
	}
	for _, want := range []string{
		"URGENT RENEWAL NOTICE",
		"Acme Corp",
		"SaaS License",
		"December 1, 2024",
		"#dc2626",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestRenderReminderIncludesNotes(t *testing.T) {
	c := testContract()
	c.Notes = "negotiate discount"
	_, body := RenderReminder(c, 10)
	if !strings.Contains(body, "negotiate discount") {
		t.Fatalf("body should include notes")
	}

	c.Notes = ""
	_, body = RenderReminder(c, 10)
	if strings.Contains(body, "Notes:") {
		t.Fatalf("body should omit notes section when empty")
	}
}

func TestRenderPushReminder(t *testing.T) {
	c := testContract()

	_, body := RenderPushReminder(c, 3)
	if body != "SaaS License renewal due in 3 days" {
		t.Fatalf("body = %q", body)
	}

	_, body = RenderPushReminder(c, 0)
	if body != "SaaS License renewal is due today" {
		t.Fatalf("due-today body = %q", body)
	}
}

func TestRenderWeeklyDigest(t *testing.T) {
	today := time.Date(2024, 11, 25, 0, 0, 0, 0, time.UTC)
	a := testContract()
	b := testContract()
	b.ContractName = "Hosting"
	b.RenewalDate = time.Date(2024, 11, 27, 0, 0, 0, 0, time.UTC)

	subject, body := RenderWeeklyDigest([]*domain.Contract{a, b}, today)

	if subject != "Weekly Contract Renewal Summary - 2 contracts due" {
		t.Fatalf("subject = %q", subject)
	}
	if !strings.Contains(body, "SaaS License") || !strings.Contains(body, "Hosting") {
		t.Fatalf("body should list both contracts")
	}
	// Hosting renews in 2 days: red row in the digest scale.
	if !strings.Contains(body, "#dc2626") {
		t.Fatalf("body should color near renewals red")
	}
}
