package handler

import (
	"net/http"

	"github.com/shopspring/decimal"
)

type createFundRequest struct {
	Name string `json:"name"`
}

// CreateFund creates a new fund
func (h *Handler) CreateFund(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	var req createFundRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	fund, err := h.svc.CreateFund(r.Context(), orgID, req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusCreated, fund)
}

// CloseFund transitions a fund to closed
func (h *Handler) CloseFund(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	fundID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	fund, err := h.svc.CloseFund(r.Context(), orgID, fundID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, fund)
}

// GetFundSummary returns aggregate capital figures for a fund
func (h *Handler) GetFundSummary(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	fundID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	summary, err := h.svc.GetFundSummary(r.Context(), orgID, fundID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, summary)
}

type commitmentRequest struct {
	LenderID int64           `json:"lender_id"`
	Amount   decimal.Decimal `json:"amount"`
	Date     string          `json:"date"`
}

// RecordCommitment records a lender commitment into a fund
func (h *Handler) RecordCommitment(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	fundID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req commitmentRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		h.writeError(w, err)
		return
	}
	commitment, err := h.svc.RecordCommitment(r.Context(), orgID, fundID, req.LenderID, req.Amount, date)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusCreated, commitment)
}

type cancelCommitmentRequest struct {
	Reason string `json:"reason"`
}

// CancelCommitment cancels a commitment, idempotently
func (h *Handler) CancelCommitment(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	commitmentID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req cancelCommitmentRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	commitment, err := h.svc.CancelCommitment(r.Context(), orgID, commitmentID, userID, req.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, commitment)
}

type capitalCallRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	DueDate string          `json:"due_date"`
}

// CreateCapitalCall issues a capital call against a fund's commitments
func (h *Handler) CreateCapitalCall(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	fundID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req capitalCallRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		h.writeError(w, err)
		return
	}
	call, err := h.svc.CreateCapitalCall(r.Context(), orgID, fundID, req.Amount, dueDate)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusCreated, call)
}

type allocationRequest struct {
	LoanID int64           `json:"loan_id"`
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
}

// AllocateToLoan deploys fund capital into a loan
func (h *Handler) AllocateToLoan(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	fundID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req allocationRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		h.writeError(w, err)
		return
	}
	allocation, err := h.svc.AllocateToLoan(r.Context(), orgID, fundID, req.LoanID, req.Amount, date)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusCreated, allocation)
}

type returnRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
}

// ReturnFromLoan returns capital from a loan back to its funds
func (h *Handler) ReturnFromLoan(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	loanID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req returnRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		h.writeError(w, err)
		return
	}
	allocations, err := h.svc.ReturnFromLoan(r.Context(), orgID, loanID, req.Amount, date)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, allocations)
}
