package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/thorplatform/payout-service/internal/errs"
	"github.com/thorplatform/payout-service/internal/middleware"
)

type loginRequest struct {
	TenantID int64  `json:"tenant_id"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errs.Validationf("invalid request body"))
		return
	}

	token, err := h.svc.Login(r.Context(), req.TenantID, req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type transactionRequest struct {
	UserID   int64   `json:"user_id"`
	JobID    int64   `json:"job_id"`
	Quantity float64 `json:"quantity"`
}

// CreateTransaction records a payment owed for completed work
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.TenantID(r.Context())
	if !ok {
		h.writeError(w, errs.Authorizationf("not authenticated"))
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errs.Validationf("invalid request body"))
		return
	}

	txn, err := h.svc.CreateTransaction(r.Context(), tenantID, req.UserID, req.JobID, req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, txn)
}

// PrepareTransfer allocates the transfer for a transaction
func (h *Handler) PrepareTransfer(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.TenantID(r.Context())
	adminID, ok2 := middleware.UserID(r.Context())
	if !ok || !ok2 {
		h.writeError(w, errs.Authorizationf("not authenticated"))
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	transfer, err := h.svc.PrepareTransfer(r.Context(), tenantID, id, adminID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, transfer)
}

// SubmitTransfer sends a prepared transfer to the payment processor
func (h *Handler) SubmitTransfer(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.TenantID(r.Context())
	if !ok {
		h.writeError(w, errs.Authorizationf("not authenticated"))
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.svc.SubmitTransfer(r.Context(), tenantID, id); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "submitted"})
}

// GetUserTransactions returns one page of a user's transaction history
func (h *Handler) GetUserTransactions(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.TenantID(r.Context())
	if !ok {
		h.writeError(w, errs.Authorizationf("not authenticated"))
		return
	}
	userID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	status := r.URL.Query().Get("status")

	result, err := h.svc.GetTransactionsForUser(r.Context(), tenantID, userID, page, limit, startDate, endDate, status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// GetPeriodStats returns payout aggregates for a time window
func (h *Handler) GetPeriodStats(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.TenantID(r.Context())
	if !ok {
		h.writeError(w, errs.Authorizationf("not authenticated"))
		return
	}
	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if startDate == nil || endDate == nil {
		h.writeError(w, errs.Validationf("start_date and end_date are required"))
		return
	}

	stats, err := h.svc.GetPeriodStats(r.Context(), tenantID, *startDate, *endDate, r.URL.Query().Get("status"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// GetStatistics returns the coarse transaction rollup for a time window
func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.TenantID(r.Context())
	if !ok {
		h.writeError(w, errs.Authorizationf("not authenticated"))
		return
	}
	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if startDate == nil || endDate == nil {
		h.writeError(w, errs.Validationf("start_date and end_date are required"))
		return
	}

	stats, err := h.svc.GetStatistics(r.Context(), tenantID, *startDate, *endDate)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

type processorEvent struct {
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
}

// ProcessorEvent ingests an out-of-band transfer status notification from the
// payment processor. Delivery is at-least-once; reconciliation is idempotent.
func (h *Handler) ProcessorEvent(w http.ResponseWriter, r *http.Request) {
	var event processorEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.writeError(w, errs.Validationf("invalid event body"))
		return
	}
	if event.ExternalID == "" || event.Status == "" {
		h.writeError(w, errs.Validationf("external_id and status are required"))
		return
	}

	if err := h.svc.ReconcileStatus(r.Context(), event.ExternalID, event.Status); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
