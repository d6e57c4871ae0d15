package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/yourorg/contractwatch/internal/domain"
	"github.com/yourorg/contractwatch/internal/notify"
	"github.com/yourorg/contractwatch/internal/service"
)

// NotificationResponse is the wire form of a notification record.
type NotificationResponse struct {
	ID               int64  `json:"id"`
	ContractID       int64  `json:"contract_id"`
	NotificationType string `json:"notification_type"`
	SendDate         string `json:"send_date"`
	Status           string `json:"status"`
	Message          string `json:"message,omitempty"`
}

func toNotificationResponses(notifications []*domain.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, NotificationResponse{
			ID:               n.ID,
			ContractID:       n.ContractID,
			NotificationType: n.NotificationType,
			SendDate:         n.SendDate.Format(time.RFC3339),
			Status:           n.Status,
			Message:          n.Message,
		})
	}
	return out
}

// NotificationsHandler handles notification history, settings and test sends.
type NotificationsHandler struct {
	notifications domain.NotificationRepository
	contracts     *service.ContractService
	devices       domain.DeviceTokenRepository
	gateway       *notify.Gateway
	pushDelivery  bool
	logger        *slog.Logger
}

// NewNotificationsHandler creates a new notifications handler. devices may be
// nil when no device token store is wired; test pushes are then recorded only.
func NewNotificationsHandler(
	notifications domain.NotificationRepository,
	contracts *service.ContractService,
	devices domain.DeviceTokenRepository,
	gateway *notify.Gateway,
	pushDelivery bool,
	logger *slog.Logger,
) *NotificationsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationsHandler{
		notifications: notifications,
		contracts:     contracts,
		devices:       devices,
		gateway:       gateway,
		pushDelivery:  pushDelivery,
		logger:        logger,
	}
}

// List handles GET /api/notifications requests. An optional contract_id
// query parameter narrows the listing.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	var contractID int64
	if raw := r.URL.Query().Get("contract_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid contract_id")
			return
		}
		contractID = id
	}

	notifications, err := h.notifications.List(r.Context(), contractID)
	if err != nil {
		h.logger.Error("failed to list notifications", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": toNotificationResponses(notifications),
	})
}

// Create handles POST /api/notifications requests. It appends a manual
// notification record without sending anything.
func (h *NotificationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContractID       int64  `json:"contract_id"`
		NotificationType string `json:"notification_type"`
		Status           string `json:"status"`
		Message          string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ContractID == 0 {
		writeError(w, http.StatusBadRequest, "contract_id is required")
		return
	}
	if req.NotificationType != domain.NotificationTypeEmail && req.NotificationType != domain.NotificationTypeMobile {
		writeError(w, http.StatusBadRequest, "notification_type must be email or mobile")
		return
	}

	n := &domain.Notification{
		ContractID:       req.ContractID,
		NotificationType: req.NotificationType,
		Status:           req.Status,
		Message:          req.Message,
	}
	if err := h.notifications.Create(r.Context(), n); err != nil {
		h.logger.Error("failed to create notification", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to create notification")
		return
	}

	writeJSON(w, http.StatusCreated, toNotificationResponses([]*domain.Notification{n})[0])
}

// History handles GET /api/notifications/history/{contract_id} requests
func (h *NotificationsHandler) History(w http.ResponseWriter, r *http.Request) {
	contractID, err := strconv.ParseInt(r.PathValue("contract_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid contract id")
		return
	}

	notifications, err := h.notifications.List(r.Context(), contractID)
	if err != nil {
		h.logger.Error("failed to list notification history",
			slog.Int64("contract_id", contractID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list notification history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"contract_id":   contractID,
		"notifications": toNotificationResponses(notifications),
	})
}

// UpdateSettings handles PUT /api/notifications/settings/{contract_id}
// requests, a partial update of the contract's notification fields.
func (h *NotificationsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	contractID, err := strconv.ParseInt(r.PathValue("contract_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid contract id")
		return
	}

	var settings service.NotificationSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.contracts.UpdateSettings(r.Context(), callerID(r), contractID, settings)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toContractResponse(c))
}

// SendTest handles POST /api/notifications/send-test requests. It exercises
// the full delivery path for one contract without waiting for a scan.
func (h *NotificationsHandler) SendTest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContractID       int64  `json:"contract_id"`
		NotificationType string `json:"notification_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.contracts.Get(r.Context(), req.ContractID)
	if err != nil {
		if errors.Is(err, domain.ErrContractNotFound) {
			writeError(w, http.StatusNotFound, "contract not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	switch req.NotificationType {
	case domain.NotificationTypeEmail:
		if c.NotificationEmail == "" {
			writeError(w, http.StatusBadRequest, "contract has no notification email")
			return
		}
		subject, body := notify.RenderReminder(c, 7)
		subject = "Test Notification - " + c.ContractName
		ok, detail := h.gateway.SendEmail(r.Context(), c.NotificationEmail, subject, body, c.ID)
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": ok, "detail": detail})

	case domain.NotificationTypeMobile:
		title, text := notify.RenderPushReminder(c, 7)
		if h.pushDelivery && h.devices != nil {
			token, err := h.devices.GetToken(r.Context(), c.UserID)
			if err == nil {
				ok, detail := h.gateway.SendPush(r.Context(), token, title, text, c.ID)
				writeJSON(w, http.StatusOK, map[string]interface{}{"success": ok, "detail": detail})
				return
			}
			if !errors.Is(err, domain.ErrDeviceTokenNotFound) {
				writeError(w, http.StatusInternalServerError, "failed to look up device token")
				return
			}
		}
		ok := h.gateway.RecordPush(r.Context(), c.ID, "Test push notification: "+text)
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": ok, "detail": "Push notification recorded"})

	default:
		writeError(w, http.StatusBadRequest, "notification_type must be email or mobile")
	}
}
