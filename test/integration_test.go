package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"
)

// TestHealthEndpoint verifies health check endpoint
func TestHealthEndpoint(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL() + "/healthz")
	if err != nil {
		t.Fatalf("Health check failed: %v", err)
	}
	defer resp.Body.Close()

	AssertStatusCode(t, resp, http.StatusOK)

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" {
		t.Errorf("Expected 'ok', got '%s'", string(body))
	}
}

func postJSON(t *testing.T, url string, payload interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	return resp
}

func createContract(t *testing.T, server *TestServerHelper, renewal string, email string) int64 {
	t.Helper()
	resp := postJSON(t, server.URL()+"/api/contracts", map[string]interface{}{
		"user_id":            "user-1",
		"company_name":       "Acme",
		"contract_name":      "SaaS License",
		"start_date":         "2024-01-01",
		"end_date":           "2026-12-31",
		"renewal_date":       renewal,
		"notification_email": email,
	})
	defer resp.Body.Close()
	AssertStatusCode(t, resp, http.StatusCreated)

	var created struct {
		ID int64 `json:"id"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	if created.ID == 0 {
		t.Fatalf("expected contract id in response")
	}
	return created.ID
}

// TestContractCRUD walks a contract through create, read, update and delete.
func TestContractCRUD(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	id := createContract(t, server, "2026-06-01", "owner@example.com")

	// Read back
	resp, err := http.Get(fmt.Sprintf("%s/api/contracts/%d", server.URL(), id))
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	AssertStatusCode(t, resp, http.StatusOK)
	var got map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&got)
	resp.Body.Close()
	if got["contract_name"] != "SaaS License" || got["renewal_date"] != "2026-06-01" {
		t.Fatalf("unexpected contract: %v", got)
	}

	// Partial update
	data, _ := json.Marshal(map[string]interface{}{"contract_name": "Renamed"})
	req, _ := http.NewRequest("PUT", fmt.Sprintf("%s/api/contracts/%d", server.URL(), id), bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT failed: %v", err)
	}
	AssertStatusCode(t, resp, http.StatusOK)
	json.NewDecoder(resp.Body).Decode(&got)
	resp.Body.Close()
	if got["contract_name"] != "Renamed" || got["company_name"] != "Acme" {
		t.Fatalf("partial update broke fields: %v", got)
	}

	// Delete
	req, _ = http.NewRequest("DELETE", fmt.Sprintf("%s/api/contracts/%d", server.URL(), id), nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE failed: %v", err)
	}
	AssertStatusCode(t, resp, http.StatusOK)
	resp.Body.Close()

	// Gone
	resp, _ = http.Get(fmt.Sprintf("%s/api/contracts/%d", server.URL(), id))
	AssertStatusCode(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

// TestContractValidation verifies malformed input is rejected with 400.
func TestContractValidation(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	resp := postJSON(t, server.URL()+"/api/contracts", map[string]interface{}{
		"user_id":       "user-1",
		"company_name":  "Acme",
		"contract_name": "Broken",
		"start_date":    "not-a-date",
		"end_date":      "2026-12-31",
		"renewal_date":  "2026-06-01",
	})
	defer resp.Body.Close()
	AssertStatusCode(t, resp, http.StatusBadRequest)
}

// TestCheckRenewalsFlow triggers a manual scan and verifies the delivery
// results and the recorded history.
func TestCheckRenewalsFlow(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	// Renews in exactly 7 days: one of the reminder offsets.
	renewal := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	id := createContract(t, server, renewal, "owner@example.com")

	resp := postJSON(t, server.URL()+"/api/notifications/check-renewals", nil)
	defer resp.Body.Close()
	AssertStatusCode(t, resp, http.StatusOK)

	var result struct {
		Success bool `json:"success"`
		Results struct {
			EmailsSent int      `json:"emails_sent"`
			PushSent   int      `json:"push_notifications_sent"`
			Errors     []string `json:"errors"`
		} `json:"results"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	if !result.Success {
		t.Fatalf("expected success")
	}
	if result.Results.EmailsSent != 1 {
		t.Fatalf("emails sent = %d, want 1", result.Results.EmailsSent)
	}
	if len(server.Mailer.sent) != 1 || server.Mailer.sent[0] != "owner@example.com" {
		t.Fatalf("mailer sent = %v", server.Mailer.sent)
	}

	// History shows the delivery record.
	histResp, err := http.Get(fmt.Sprintf("%s/api/notifications/history/%d", server.URL(), id))
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	defer histResp.Body.Close()
	var hist struct {
		Notifications []struct {
			NotificationType string `json:"notification_type"`
			Status           string `json:"status"`
		} `json:"notifications"`
	}
	json.NewDecoder(histResp.Body).Decode(&hist)
	if len(hist.Notifications) != 1 {
		t.Fatalf("history = %d entries, want 1", len(hist.Notifications))
	}
	if hist.Notifications[0].NotificationType != "email" || hist.Notifications[0].Status != "sent" {
		t.Fatalf("unexpected history entry: %+v", hist.Notifications[0])
	}
}

// TestSendTestNotification exercises the manual send path end to end.
func TestSendTestNotification(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	id := createContract(t, server, "2026-06-01", "owner@example.com")

	resp := postJSON(t, server.URL()+"/api/notifications/send-test", map[string]interface{}{
		"contract_id":       id,
		"notification_type": "email",
	})
	defer resp.Body.Close()
	AssertStatusCode(t, resp, http.StatusOK)

	if len(server.Mailer.sent) != 1 {
		t.Fatalf("mailer sent = %v", server.Mailer.sent)
	}

	// Unknown type is a client error.
	badResp := postJSON(t, server.URL()+"/api/notifications/send-test", map[string]interface{}{
		"contract_id":       id,
		"notification_type": "carrier-pigeon",
	})
	defer badResp.Body.Close()
	AssertStatusCode(t, badResp, http.StatusBadRequest)
}

// TestNotificationSettings verifies the partial settings update endpoint.
func TestNotificationSettings(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	id := createContract(t, server, "2026-06-01", "owner@example.com")

	data, _ := json.Marshal(map[string]interface{}{"notification_enabled": false})
	req, _ := http.NewRequest("PUT", fmt.Sprintf("%s/api/notifications/settings/%d", server.URL(), id), bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT failed: %v", err)
	}
	defer resp.Body.Close()
	AssertStatusCode(t, resp, http.StatusOK)

	var got map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&got)
	if got["notification_enabled"] != false {
		t.Fatalf("settings update failed: %v", got)
	}
	if got["notification_email"] != "owner@example.com" {
		t.Fatalf("untouched setting changed: %v", got)
	}
}

// TestDashboard verifies the aggregate counts.
func TestDashboard(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	createContract(t, server, time.Now().AddDate(0, 0, -5).Format("2006-01-02"), "")
	createContract(t, server, time.Now().AddDate(0, 0, 10).Format("2006-01-02"), "")

	resp, err := http.Get(server.URL() + "/api/contracts/dashboard?user_id=user-1")
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	defer resp.Body.Close()
	AssertStatusCode(t, resp, http.StatusOK)

	var dash struct {
		UpcomingCount  int `json:"upcoming_count"`
		OverdueCount   int `json:"overdue_count"`
		TotalContracts int `json:"total_contracts"`
	}
	json.NewDecoder(resp.Body).Decode(&dash)

	if dash.OverdueCount != 1 || dash.UpcomingCount != 1 || dash.TotalContracts != 2 {
		t.Fatalf("dashboard = %+v", dash)
	}
}
