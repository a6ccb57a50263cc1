package handlers

import (
	"fmt"
	"net/http"

	"github.com/dffdp/wallet-backend/internal/audit"
	"github.com/dffdp/wallet-backend/internal/money"
	"github.com/dffdp/wallet-backend/internal/services"
	"github.com/go-chi/chi/v5"
)

// SummaryView is the admin dashboard summary with amounts rendered as
// decimal strings.
type SummaryView struct {
	TotalBalance string                 `json:"total_balance"`
	TopAccounts  []services.AccountView `json:"top_accounts"`
}

// AdminHandler serves the administrator endpoints. Routes are mounted behind
// the admin-role middleware.
type AdminHandler struct {
	ledger *services.LedgerService
	audit  *audit.Logger
}

func NewAdminHandler(ledger *services.LedgerService, auditLog *audit.Logger) *AdminHandler {
	return &AdminHandler{ledger: ledger, audit: auditLog}
}

// Summary returns system-wide holdings
// @Summary Total balance held and top accounts by balance
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SummaryView
// @Router /admin/summary [get]
func (h *AdminHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.ledger.SystemSummary(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	view := SummaryView{TotalBalance: money.Format(summary.TotalBalance)}
	for i := range summary.TopAccounts {
		view.TopAccounts = append(view.TopAccounts, services.NewAccountView(&summary.TopAccounts[i]))
	}
	writeJSON(w, http.StatusOK, view)
}

// FlaggedTransactions lists every fraud-classified transfer
// @Summary List flagged transactions
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} RecordView
// @Router /admin/flagged-transactions [get]
func (h *AdminHandler) FlaggedTransactions(w http.ResponseWriter, r *http.Request) {
	records, err := h.ledger.FlaggedTransactions(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	views := make([]RecordView, 0, len(records))
	for _, record := range records {
		views = append(views, NewRecordView(record))
	}
	writeJSON(w, http.StatusOK, views)
}

// SuspiciousAccounts lists flagged accounts and senders of fraud-classified transfers
// @Summary List suspicious accounts
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} services.AccountView
// @Router /admin/suspicious-accounts [get]
func (h *AdminHandler) SuspiciousAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.ledger.SuspiciousAccounts(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	views := make([]services.AccountView, 0, len(accounts))
	for i := range accounts {
		views = append(views, services.NewAccountView(&accounts[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

// ReportFraud flags an account
// @Summary Mark an account as fraudulent
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account id"
// @Success 200 {object} map[string]string
// @Failure 404 {object} services.ErrorResponse "Account not found"
// @Router /admin/accounts/{accountId}/flag [put]
func (h *AdminHandler) ReportFraud(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, true)
}

// ClearFlag clears an account's fraud flag
// @Summary Clear an account's fraud flag
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account id"
// @Success 200 {object} map[string]string
// @Failure 404 {object} services.ErrorResponse "Account not found"
// @Router /admin/accounts/{accountId}/flag [delete]
func (h *AdminHandler) ClearFlag(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, false)
}

func (h *AdminHandler) setFlag(w http.ResponseWriter, r *http.Request, flagged bool) {
	targetID := chi.URLParam(r, "accountId")
	if err := h.ledger.SetFlag(r.Context(), targetID, flagged); err != nil {
		writeLedgerError(w, err)
		return
	}

	adminID := requestAccountID(r)
	action, message := audit.ActionReportFraud, fmt.Sprintf("Flagged %s", targetID)
	if !flagged {
		action, message = audit.ActionClearFlag, fmt.Sprintf("Cleared flag for %s", targetID)
	}
	h.audit.Record(r.Context(), adminID, action, message)

	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}
