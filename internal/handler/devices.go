package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/contractwatch/internal/domain"
)

// DevicesHandler manages the caller's FCM device token registration.
type DevicesHandler struct {
	devices domain.DeviceTokenRepository
	logger  *slog.Logger
}

// NewDevicesHandler creates a new devices handler
func NewDevicesHandler(devices domain.DeviceTokenRepository, logger *slog.Logger) *DevicesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DevicesHandler{
		devices: devices,
		logger:  logger,
	}
}

// Register handles PUT /api/devices requests. One token per user; a new
// registration replaces the previous one.
func (h *DevicesHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	if err := h.devices.SaveToken(r.Context(), userID, req.Token); err != nil {
		h.logger.Error("failed to save device token",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to save device token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Unregister handles DELETE /api/devices requests
func (h *DevicesHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.devices.DeleteToken(r.Context(), userID); err != nil {
		h.logger.Error("failed to delete device token",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to delete device token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
