/**
 * @description
 * This file sets up the HTTP router for the ledger service. It defines
 * the API endpoints, associates them with their handlers, and applies
 * middleware. Read-path reports are open within the deployment network;
 * everything that mutates ledger state sits behind the internal API
 * key.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// LedgerRoutes creates and returns a new router for the ledger service.
func LedgerRoutes(h *LedgerHandlers, internalAPIKey string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Read-path reports.
	r.Get("/members/{memberID}/financials", h.MemberFinancialsHandler)
	r.Get("/reports/par", h.PARAnalysisHandler)
	r.Get("/reports/trial-balance/{period}", h.TrialBalanceHandler)
	r.Get("/reports/dividend-estimate", h.DividendEstimateHandler)

	// Mutating routes require the internal API key.
	r.Group(func(r chi.Router) {
		r.Use(InternalAuthMiddleware(internalAPIKey))

		r.Post("/members", h.EnrollMemberHandler)
		r.Post("/members/{memberID}/contributions", h.RecordShareContributionHandler)
		r.Post("/loans", h.OpenLoanHandler)
		r.Post("/loans/{loanID}/disburse", h.DisburseLoanHandler)
		r.Post("/loans/{loanID}/payments", h.RecordLoanPaymentHandler)
		r.Put("/loans/{loanID}/status", h.SetLoanStatusHandler)
		r.Post("/periods/{period}/close", h.ClosePeriodHandler)
		r.Post("/jobs/overdue-detection", h.RunOverdueDetectionHandler)
	})

	return r
}
