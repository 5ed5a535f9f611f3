/**
 * @description
 * This file contains the HTTP handlers for the ledger service's API
 * endpoints. Handlers parse incoming requests, call the application
 * service, and write JSON responses. All business rules live in the
 * app layer; the only mapping owned here is from error kinds to HTTP
 * status codes.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - internal/app, internal/domain: Service logic and models.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coopstack/ledger-service/internal/app"
	"github.com/coopstack/ledger-service/internal/domain"
)

// LedgerHandlers holds the application service that handlers will use.
type LedgerHandlers struct {
	service *app.Service
}

// NewLedgerHandlers creates a new instance of LedgerHandlers.
func NewLedgerHandlers(service *app.Service) *LedgerHandlers {
	return &LedgerHandlers{service: service}
}

type enrollMemberRequest struct {
	MemberNumber string `json:"member_number"`
	FullName     string `json:"full_name"`
}

// EnrollMemberHandler registers a member and opens their share account.
func (h *LedgerHandlers) EnrollMemberHandler(w http.ResponseWriter, r *http.Request) {
	var req enrollMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.MemberNumber) == "" || strings.TrimSpace(req.FullName) == "" {
		h.writeError(w, http.StatusBadRequest, "member_number and full_name are required")
		return
	}
	member, err := h.service.EnrollMember(r.Context(), req.MemberNumber, req.FullName, time.Now().UTC())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, member)
}

type openLoanRequest struct {
	MemberID   string `json:"member_id"`
	LoanNumber string `json:"loan_number"`
	Type       string `json:"type"`
	Principal  string `json:"principal"`
	AnnualRate string `json:"annual_rate"`
	TermMonths int    `json:"term_months"`
	StartDate  string `json:"start_date"` // YYYY-MM-DD
}

// OpenLoanHandler registers a PENDING loan for a member.
func (h *LedgerHandlers) OpenLoanHandler(w http.ResponseWriter, r *http.Request) {
	var req openLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	memberID, err := uuid.Parse(req.MemberID)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid member ID format")
		return
	}
	principal, err := domain.ParseAmount(req.Principal)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid principal amount")
		return
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(req.AnnualRate))
	if err != nil || rate.IsNegative() {
		h.writeError(w, http.StatusBadRequest, "Invalid annual rate")
		return
	}
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid start date, expected YYYY-MM-DD")
		return
	}
	loan, err := h.service.OpenLoan(r.Context(), memberID, req.LoanNumber, domain.LoanType(req.Type), principal, rate, req.TermMonths, startDate)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, loan)
}

type disburseRequest struct {
	ReceiptNumber string `json:"receipt_number"`
	Date          string `json:"date"`
}

// DisburseLoanHandler activates a PENDING loan and records the outflow.
func (h *LedgerHandlers) DisburseLoanHandler(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.loanIDParam(w, r)
	if !ok {
		return
	}
	var req disburseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	date, ok := h.dateField(w, req.Date)
	if !ok {
		return
	}
	loan, err := h.service.DisburseLoan(r.Context(), loanID, req.ReceiptNumber, date)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, loan)
}

type loanStatusRequest struct {
	Status string `json:"status"`
}

// SetLoanStatusHandler applies an administrative status change.
func (h *LedgerHandlers) SetLoanStatusHandler(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.loanIDParam(w, r)
	if !ok {
		return
	}
	var req loanStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	loan, err := h.service.SetLoanStatus(r.Context(), loanID, domain.LoanStatus(req.Status))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, loan)
}

type paymentRequest struct {
	Amount        string `json:"amount"`
	ReceiptNumber string `json:"receipt_number"`
	Date          string `json:"date"`
	Description   string `json:"description"`
}

// RecordLoanPaymentHandler posts a payment against a loan.
func (h *LedgerHandlers) RecordLoanPaymentHandler(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.loanIDParam(w, r)
	if !ok {
		return
	}
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid payment amount")
		return
	}
	date, ok := h.dateField(w, req.Date)
	if !ok {
		return
	}
	view, err := h.service.RecordLoanPayment(r.Context(), loanID, amount, req.ReceiptNumber, date, req.Description)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// RecordShareContributionHandler posts a share contribution for a member.
func (h *LedgerHandlers) RecordShareContributionHandler(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.memberIDParam(w, r)
	if !ok {
		return
	}
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid contribution amount")
		return
	}
	date, ok := h.dateField(w, req.Date)
	if !ok {
		return
	}
	tx, err := h.service.RecordShareContribution(r.Context(), memberID, amount, req.ReceiptNumber, date, req.Description)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, tx)
}

// MemberFinancialsHandler returns the per-member financial snapshot.
func (h *LedgerHandlers) MemberFinancialsHandler(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.memberIDParam(w, r)
	if !ok {
		return
	}
	fin, err := h.service.GetMemberFinancials(r.Context(), memberID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, fin)
}

// PARAnalysisHandler returns the portfolio-at-risk aging report. The
// as_of query parameter defaults to today.
func (h *LedgerHandlers) PARAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now().UTC()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid as_of date, expected YYYY-MM-DD")
			return
		}
		asOf = parsed
	}
	summary, err := h.service.GetPARAnalysis(r.Context(), asOf)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// TrialBalanceHandler returns the reconciliation for one fiscal period.
func (h *LedgerHandlers) TrialBalanceHandler(w http.ResponseWriter, r *http.Request) {
	period := chi.URLParam(r, "period")
	summary, err := h.service.GetTrialBalance(r.Context(), period)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// DividendEstimateHandler projects the dividend payout at the given
// rate, optionally scoped to one member.
func (h *LedgerHandlers) DividendEstimateHandler(w http.ResponseWriter, r *http.Request) {
	rateRaw := r.URL.Query().Get("rate")
	rate, err := decimal.NewFromString(strings.TrimSpace(rateRaw))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid rate")
		return
	}
	var memberID *uuid.UUID
	if raw := r.URL.Query().Get("member_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid member ID format")
			return
		}
		memberID = &parsed
	}
	est, err := h.service.EstimateDividend(r.Context(), rate, memberID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, est)
}

// ClosePeriodHandler freezes a fiscal period.
func (h *LedgerHandlers) ClosePeriodHandler(w http.ResponseWriter, r *http.Request) {
	period := chi.URLParam(r, "period")
	fp, err := h.service.ClosePeriod(r.Context(), period)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, fp)
}

// RunOverdueDetectionHandler triggers the daily batch. Invoked by the
// external scheduler; safe to re-invoke for the same date.
func (h *LedgerHandlers) RunOverdueDetectionHandler(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now().UTC()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid as_of date, expected YYYY-MM-DD")
			return
		}
		asOf = parsed
	}
	result, err := h.service.RunOverdueDetection(r.Context(), asOf)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *LedgerHandlers) loanIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "loanID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid loan ID format")
		return uuid.Nil, false
	}
	return id, true
}

func (h *LedgerHandlers) memberIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "memberID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid member ID format")
		return uuid.Nil, false
	}
	return id, true
}

func (h *LedgerHandlers) dateField(w http.ResponseWriter, raw string) (time.Time, bool) {
	if strings.TrimSpace(raw) == "" {
		return time.Now().UTC(), true
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

// writeServiceError maps a ledger error kind to its HTTP status.
func (h *LedgerHandlers) writeServiceError(w http.ResponseWriter, err error) {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		h.writeError(w, http.StatusBadRequest, err.Error())
	case domain.KindStateConflict:
		h.writeError(w, http.StatusConflict, err.Error())
	case domain.KindNotFound:
		h.writeError(w, http.StatusNotFound, err.Error())
	case domain.KindDataIntegrity:
		log.Printf("level=error component=api msg=\"data integrity violation\" err=%v", err)
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.Printf("level=error component=api msg=\"request failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// writeJSON encodes the response body with the given status.
func (h *LedgerHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *LedgerHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
