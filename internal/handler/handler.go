package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/lendcore/lending-os/internal/apperr"
	"github.com/lendcore/lending-os/internal/middleware"
	"github.com/lendcore/lending-os/internal/service"
	"github.com/sirupsen/logrus"
)

// Handler translates HTTP requests into service calls and wraps results
// in the response envelope.
type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

// NewHandler initializes a new handler
func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type successResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (h *Handler) writeData(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(successResponse{Success: true, Data: data}); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		h.log.Errorf("Internal error: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(errorResponse{Success: false, Error: err.Error()}); encErr != nil {
		h.log.Errorf("Failed to encode error response: %v", encErr)
	}
}

// orgID pulls the caller's organization from the request context.
func (h *Handler) orgID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	orgID, ok := middleware.OrganizationID(r.Context())
	if !ok {
		h.writeError(w, apperr.E(apperr.ErrUnauthorized, "missing organization context"))
		return 0, false
	}
	return orgID, true
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		h.writeError(w, apperr.E(apperr.ErrUnauthorized, "missing user context"))
		return 0, false
	}
	return userID, true
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.E(apperr.ErrInvalidInput, "invalid %s %q", name, raw)
	}
	return id, nil
}

// parseDate accepts ISO-8601 dates, with or without a time component.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, apperr.E(apperr.ErrInvalidInput, "date is required")
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperr.E(apperr.ErrInvalidInput, "invalid date %q", raw)
	}
	return t, nil
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.E(apperr.ErrInvalidInput, "invalid request body")
	}
	return nil
}
