package handler

import (
	"encoding/json"
	"net/http"

	"github.com/thorplatform/payout-service/internal/errs"
	"github.com/thorplatform/payout-service/internal/middleware"
)

type fundingSourceRequest struct {
	RoutingNumber string `json:"routing_number"`
	AccountNumber string `json:"account_number"`
	AccountType   string `json:"account_type"`
	DisplayName   string `json:"display_name"`
}

// CreateFundingSource links a bank account to the authenticated profile
func (h *Handler) CreateFundingSource(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.TenantID(r.Context())
	profileID, ok2 := middleware.ProfileID(r.Context())
	if !ok || !ok2 {
		h.writeError(w, errs.Authorizationf("not authenticated"))
		return
	}

	var req fundingSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errs.Validationf("invalid request body"))
		return
	}

	fs, err := h.svc.CreateFundingSource(r.Context(), tenantID, profileID,
		req.RoutingNumber, req.AccountNumber, req.AccountType, req.DisplayName)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, fs)
}

// ListFundingSources lists the authenticated profile's funding sources
func (h *Handler) ListFundingSources(w http.ResponseWriter, r *http.Request) {
	profileID, ok := middleware.ProfileID(r.Context())
	if !ok {
		h.writeError(w, errs.Authorizationf("not authenticated"))
		return
	}

	sources, err := h.svc.ListFundingSources(r.Context(), profileID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sources)
}

// GetFundingSource retrieves a single funding source
func (h *Handler) GetFundingSource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	fs, err := h.svc.GetFundingSource(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, fs)
}

// SetDefaultFundingSource marks a funding source as the profile's default
func (h *Handler) SetDefaultFundingSource(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		h.writeError(w, errs.Authorizationf("not authenticated"))
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.svc.SetDefaultFundingSource(r.Context(), id, userID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
