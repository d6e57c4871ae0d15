package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/yourorg/contractwatch/internal/domain"
	"github.com/yourorg/contractwatch/internal/security/middleware"
	"github.com/yourorg/contractwatch/internal/service"
)

// ContractResponse is the wire form of a contract. Dates are calendar
// dates, timestamps are RFC 3339.
type ContractResponse struct {
	ID                  int64  `json:"id"`
	UserID              string `json:"user_id"`
	CompanyName         string `json:"company_name"`
	ContractName        string `json:"contract_name"`
	StartDate           string `json:"start_date"`
	EndDate             string `json:"end_date"`
	RenewalDate         string `json:"renewal_date"`
	DaysUntilRenewal    int    `json:"days_until_renewal"`
	NotificationEnabled bool   `json:"notification_enabled"`
	NotificationEmail   string `json:"notification_email,omitempty"`
	NotificationMobile  bool   `json:"notification_mobile"`
	Notes               string `json:"notes,omitempty"`
	CreatedAt           string `json:"created_at"`
	UpdatedAt           string `json:"updated_at"`
}

func toContractResponse(c *domain.Contract) ContractResponse {
	return ContractResponse{
		ID:                  c.ID,
		UserID:              c.UserID,
		CompanyName:         c.CompanyName,
		ContractName:        c.ContractName,
		StartDate:           c.StartDate.Format("2006-01-02"),
		EndDate:             c.EndDate.Format("2006-01-02"),
		RenewalDate:         c.RenewalDate.Format("2006-01-02"),
		DaysUntilRenewal:    domain.DaysUntil(time.Now(), c.RenewalDate),
		NotificationEnabled: c.NotificationEnabled,
		NotificationEmail:   c.NotificationEmail,
		NotificationMobile:  c.NotificationMobile,
		Notes:               c.Notes,
		CreatedAt:           c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           c.UpdatedAt.Format(time.RFC3339),
	}
}

func toContractResponses(contracts []*domain.Contract) []ContractResponse {
	out := make([]ContractResponse, 0, len(contracts))
	for _, c := range contracts {
		out = append(out, toContractResponse(c))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps service errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, domain.ErrContractNotFound):
		writeError(w, http.StatusNotFound, "contract not found")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// callerID returns the authenticated user id, empty when unauthenticated.
func callerID(r *http.Request) string {
	if claims := middleware.GetClaimsFromContext(r.Context()); claims != nil {
		return claims.UserID
	}
	return ""
}

// ContractsHandler handles contract CRUD and the dashboard.
type ContractsHandler struct {
	contracts *service.ContractService
	logger    *slog.Logger
}

// NewContractsHandler creates a new contracts handler
func NewContractsHandler(contracts *service.ContractService, logger *slog.Logger) *ContractsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContractsHandler{
		contracts: contracts,
		logger:    logger,
	}
}

// List handles GET /api/contracts requests
func (h *ContractsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = callerID(r)
	}
	upcomingOnly := r.URL.Query().Get("upcoming_only") == "true"

	contracts, err := h.contracts.List(r.Context(), userID, upcomingOnly)
	if err != nil {
		h.logger.Error("failed to list contracts", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list contracts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"contracts": toContractResponses(contracts),
	})
}

// Create handles POST /api/contracts requests
func (h *ContractsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.ContractInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if caller := callerID(r); caller != "" {
		input.UserID = caller
	}

	c, err := h.contracts.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toContractResponse(c))
}

// Get handles GET /api/contracts/{id} requests
func (h *ContractsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := contractID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid contract id")
		return
	}

	c, err := h.contracts.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toContractResponse(c))
}

// Update handles PUT /api/contracts/{id} requests
func (h *ContractsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := contractID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid contract id")
		return
	}

	var update service.ContractUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.contracts.Update(r.Context(), callerID(r), id, update)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toContractResponse(c))
}

// Delete handles DELETE /api/contracts/{id} requests
func (h *ContractsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := contractID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid contract id")
		return
	}

	if err := h.contracts.Delete(r.Context(), callerID(r), id); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Dashboard handles GET /api/contracts/dashboard requests
func (h *ContractsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = callerID(r)
	}

	dash, err := h.contracts.GetDashboard(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to build dashboard", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to build dashboard")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"upcoming":        toContractResponses(dash.Upcoming),
		"overdue":         toContractResponses(dash.Overdue),
		"upcoming_count":  dash.UpcomingCount,
		"overdue_count":   dash.OverdueCount,
		"total_contracts": dash.TotalContracts,
	})
}

func contractID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
