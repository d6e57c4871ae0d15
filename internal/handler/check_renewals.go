package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/contractwatch/internal/scan"
)

// CheckRenewalsHandler triggers an immediate renewal scan.
type CheckRenewalsHandler struct {
	engine *scan.Engine
	logger *slog.Logger
	now    func() time.Time
}

// NewCheckRenewalsHandler creates a new check-renewals handler
func NewCheckRenewalsHandler(engine *scan.Engine, logger *slog.Logger) *CheckRenewalsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckRenewalsHandler{
		engine: engine,
		logger: logger,
		now:    time.Now,
	}
}

// ServeHTTP handles POST /api/notifications/check-renewals requests.
// The scan runs synchronously; delivery failures are reported inside the
// result, not as an HTTP error.
func (h *CheckRenewalsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("manual renewal check requested")

	result := h.engine.Scan(r.Context(), h.now())

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"results": result,
	})
}
