package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/thorplatform/payout-service/internal/errs"
	"github.com/thorplatform/payout-service/internal/service"
)

type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			h.log.Errorf("Failed to encode response: %v", err)
		}
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	kind := errs.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case errs.KindValidation:
		status = http.StatusBadRequest
	case errs.KindAuthorization:
		status = http.StatusForbidden
	case errs.KindNotFound:
		status = http.StatusNotFound
	case errs.KindConflict:
		status = http.StatusConflict
	case errs.KindGateway:
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		h.log.Errorf("Internal error: %v", err)
		h.writeJSON(w, status, errorResponse{Error: "internal error", Kind: kind.String()})
		return
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind.String()})
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errs.Validationf("invalid %s: %q", name, raw)
	}
	return id, nil
}

// parseDateRange reads start_date/end_date query params (YYYY-MM-DD). Both
// must be present for the range to apply.
func parseDateRange(r *http.Request) (*time.Time, *time.Time, error) {
	start := r.URL.Query().Get("start_date")
	end := r.URL.Query().Get("end_date")
	if start == "" || end == "" {
		return nil, nil, nil
	}
	startDate, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, nil, errs.Validationf("invalid start_date: %q", start)
	}
	endDate, err := time.Parse("2006-01-02", end)
	if err != nil {
		return nil, nil, errs.Validationf("invalid end_date: %q", end)
	}
	return &startDate, &endDate, nil
}
