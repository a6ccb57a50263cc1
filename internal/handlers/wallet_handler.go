package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/dffdp/wallet-backend/internal/audit"
	"github.com/dffdp/wallet-backend/internal/models"
	"github.com/dffdp/wallet-backend/internal/money"
	"github.com/dffdp/wallet-backend/internal/services"
	"github.com/go-playground/validator/v10"
)

// TopUpRequest represents the top-up request payload
// @Description Top-up request structure
type TopUpRequest struct {
	Amount string `json:"amount" validate:"required" example:"250.00"` // Amount to add, decimal string
}

// TransferRequest represents the transfer request payload
// @Description Transfer request structure
type TransferRequest struct {
	Receiver string `json:"receiver" validate:"required,email" example:"bob@example.com"` // Receiving account id
	Amount   string `json:"amount" validate:"required" example:"99.50"`                   // Amount to send, decimal string
}

// RecordView is the caller-facing shape of a transaction record.
type RecordView struct {
	TransactionID string    `json:"transaction_id"`
	Sender        string    `json:"sender"`
	Receiver      string    `json:"receiver"`
	Amount        string    `json:"amount"`
	Status        string    `json:"status"`
	Time          time.Time `json:"time"`
}

// TransferResponse reports a committed transfer. Status carries the fraud
// classification when one matched; the transfer completed either way.
type TransferResponse struct {
	Status      string     `json:"status"`
	Detail      string     `json:"detail,omitempty"`
	Message     string     `json:"message"`
	Transaction RecordView `json:"transaction"`
}

func NewRecordView(record models.TransactionRecord) RecordView {
	return RecordView{
		TransactionID: record.TransactionID,
		Sender:        record.Sender,
		Receiver:      record.Receiver,
		Amount:        money.Format(record.Amount),
		Status:        record.Status,
		Time:          record.CreatedAt,
	}
}

// WalletHandler serves the account-holder endpoints.
type WalletHandler struct {
	ledger    *services.LedgerService
	qr        *services.QRService
	audit     *audit.Logger
	validator *validator.Validate
}

func NewWalletHandler(ledger *services.LedgerService, qr *services.QRService, auditLog *audit.Logger) *WalletHandler {
	return &WalletHandler{
		ledger:    ledger,
		qr:        qr,
		audit:     auditLog,
		validator: validator.New(),
	}
}

// GetAccount returns the authenticated account
// @Summary Get wallet balance and flags
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.AccountView
// @Failure 404 {object} services.ErrorResponse "Account not found"
// @Router /wallet [get]
func (h *WalletHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID := requestAccountID(r)
	account, err := h.ledger.GetAccount(r.Context(), accountID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, services.NewAccountView(account))
}

// History returns the account's transactions, newest first
// @Summary List wallet transaction history
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Success 200 {array} RecordView
// @Router /wallet/transactions [get]
func (h *WalletHandler) History(w http.ResponseWriter, r *http.Request) {
	accountID := requestAccountID(r)
	records, err := h.ledger.History(r.Context(), accountID)
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

// TopUp credits the authenticated account
// @Summary Add money to the wallet
// @Tags wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TopUpRequest true "Top-up request"
// @Success 200 {object} RecordView
// @Failure 400 {object} services.ErrorResponse "Invalid amount"
// @Router /wallet/topup [post]
func (h *WalletHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	accountID := requestAccountID(r)

	var req TopUpRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		services.SendErrorResponse(w, "Enter a valid amount", http.StatusBadRequest, nil)
		return
	}

	record, err := h.ledger.TopUp(r.Context(), accountID, amount)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	h.audit.Record(r.Context(), accountID, audit.ActionAddMoney,
		fmt.Sprintf("%s added", money.Format(amount)))

	log.Printf("[WALLET] Top-up of %s for %s", money.Format(amount), accountID)
	writeJSON(w, http.StatusOK, NewRecordView(*record))
}

// Transfer sends money to another account
// @Summary Transfer money to another wallet
// @Description A fraud classification does not reject the transfer; the response status reports it and the sender is flagged
// @Tags wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransferRequest true "Transfer request"
// @Success 200 {object} TransferResponse
// @Failure 400 {object} services.ErrorResponse "Invalid amount or self transfer"
// @Failure 404 {object} services.ErrorResponse "Recipient does not exist"
// @Failure 409 {object} services.ErrorResponse "Insufficient balance"
// @Router /wallet/transfer [post]
func (h *WalletHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	accountID := requestAccountID(r)

	var req TransferRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		services.SendErrorResponse(w, "Enter a valid amount", http.StatusBadRequest, nil)
		return
	}

	result, err := h.ledger.Transfer(r.Context(), accountID, req.Receiver, amount)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	h.audit.Record(r.Context(), accountID, audit.ActionSendMoney,
		fmt.Sprintf("Sent %s to %s, Status: %s",
			money.Format(amount), result.Record.Receiver, result.Record.Status))

	message := "Transaction successful."
	if result.Classification.IsFraud() {
		message = "Transaction flagged for review due to suspicious activity."
	}

	writeJSON(w, http.StatusOK, TransferResponse{
		Status:      result.Record.Status,
		Detail:      result.Classification.Detail,
		Message:     message,
		Transaction: NewRecordView(result.Record),
	})
}

// ReceiveQR renders a QR code requesting payment to the authenticated account
// @Summary Generate a receive-money QR code
// @Tags wallet
// @Produce png
// @Security BearerAuth
// @Param amount query string false "Requested amount, decimal string"
// @Success 200 {file} binary "PNG image"
// @Router /wallet/receive-qr [get]
func (h *WalletHandler) ReceiveQR(w http.ResponseWriter, r *http.Request) {
	accountID := requestAccountID(r)

	var amount int64
	if raw := r.URL.Query().Get("amount"); raw != "" {
		parsed, err := money.Parse(raw)
		if err != nil || parsed <= 0 {
			services.SendErrorResponse(w, "Enter a valid amount", http.StatusBadRequest, nil)
			return
		}
		amount = parsed
	}

	png, err := h.qr.GenerateReceiveQR(accountID, amount)
	if err != nil {
		log.Printf("[WALLET] QR generation failed for %s: %v", accountID, err)
		services.SendErrorResponse(w, "Failed to generate QR code", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *WalletHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(req); err != nil {
		services.SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}
	if err := h.validator.Struct(req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return false
	}
	return true
}

func requestAccountID(r *http.Request) string {
	accountID, _ := r.Context().Value("accountID").(string)
	return accountID
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeLedgerError maps ledger and store errors onto HTTP statuses. Every
// rejection keeps its own message so the caller can show an accurate one.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidAmount):
		services.SendErrorResponse(w, models.ErrInvalidAmount.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, models.ErrSelfTransfer):
		services.SendErrorResponse(w, models.ErrSelfTransfer.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, models.ErrRecipientNotFound):
		services.SendErrorResponse(w, models.ErrRecipientNotFound.Error(), http.StatusNotFound, nil)
	case errors.Is(err, models.ErrInsufficientFunds):
		services.SendErrorResponse(w, models.ErrInsufficientFunds.Error(), http.StatusConflict, nil)
	case errors.Is(err, models.ErrNotFound):
		services.SendErrorResponse(w, models.ErrNotFound.Error(), http.StatusNotFound, nil)
	case errors.Is(err, models.ErrAlreadyExists):
		services.SendErrorResponse(w, models.ErrAlreadyExists.Error(), http.StatusConflict, nil)
	default:
		log.Printf("[WALLET] Internal error: %v", err)
		services.SendErrorResponse(w, "Internal server error", http.StatusInternalServerError, nil)
	}
}
