package handler

import (
	"net/http"

	"github.com/lendcore/lending-os/internal/models"
	"github.com/lendcore/lending-os/internal/service"
	"github.com/shopspring/decimal"
)

type createLoanRequest struct {
	BorrowerName  string          `json:"borrower_name"`
	BorrowerEmail string          `json:"borrower_email"`
	Principal     decimal.Decimal `json:"principal"`
	AnnualRatePct decimal.Decimal `json:"annual_rate_percent"`
	TermMonths    int             `json:"term_months"`
	StartDate     string          `json:"start_date"`
	Type          models.LoanType `json:"type"`
}

// CreateLoan handles loan creation with initial schedule generation
func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	var req createLoanRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		h.writeError(w, err)
		return
	}
	loan, err := h.svc.CreateLoan(r.Context(), orgID, service.LoanInput{
		BorrowerName:  req.BorrowerName,
		BorrowerEmail: req.BorrowerEmail,
		Principal:     req.Principal,
		AnnualRatePct: req.AnnualRatePct,
		TermMonths:    req.TermMonths,
		StartDate:     startDate,
		Type:          req.Type,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusCreated, loan)
}

// ListLoans lists the organization's loans
func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	loans, err := h.svc.ListLoans(r.Context(), orgID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, loans)
}

// GetLoan retrieves a single loan
func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	loanID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	loan, err := h.svc.GetLoan(r.Context(), orgID, loanID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, loan)
}

// ActivateLoan transitions a draft loan to active
func (h *Handler) ActivateLoan(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	loanID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	loan, err := h.svc.TransitionLoan(r.Context(), orgID, loanID, models.LoanActive)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, loan)
}

// RegenerateSchedule rebuilds and replaces the loan's installment set
func (h *Handler) RegenerateSchedule(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	loanID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	entries, err := h.svc.RegenerateSchedule(r.Context(), orgID, loanID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, entries)
}

// GetSchedule returns the loan's stored installment set
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	loanID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	entries, err := h.svc.GetSchedule(r.Context(), orgID, loanID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, entries)
}

type createLenderRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateLender records a lender
func (h *Handler) CreateLender(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	var req createLenderRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	lender, err := h.svc.CreateLender(r.Context(), orgID, req.Name, req.Email)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusCreated, lender)
}

// ListLenders lists the organization's lenders
func (h *Handler) ListLenders(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	lenders, err := h.svc.ListLenders(r.Context(), orgID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, lenders)
}
