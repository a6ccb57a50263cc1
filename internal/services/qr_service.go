package services

import (
	"encoding/json"
	"fmt"

	"github.com/dffdp/wallet-backend/internal/models"
	"github.com/dffdp/wallet-backend/internal/money"
	qrcode "github.com/skip2/go-qrcode"
)

// PaymentRequest is the payload encoded into a receive-money QR code.
// Another wallet user scans it to pre-fill a transfer form; the amount is
// optional.
type PaymentRequest struct {
	Receiver string `json:"receiver"`
	Amount   string `json:"amount,omitempty"`
}

// QRService renders receive-money QR codes.
type QRService struct {
	size int
}

func NewQRService() *QRService {
	return &QRService{size: 256}
}

// GenerateReceiveQR returns a PNG QR code requesting a payment to accountID.
// amountCents of zero means the payer chooses the amount.
func (s *QRService) GenerateReceiveQR(accountID string, amountCents int64) ([]byte, error) {
	request := PaymentRequest{Receiver: models.NormalizeID(accountID)}
	if amountCents > 0 {
		request.Amount = money.Format(amountCents)
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("error encoding payment request: %w", err)
	}

	png, err := qrcode.Encode(string(payload), qrcode.Medium, s.size)
	if err != nil {
		return nil, fmt.Errorf("error generating QR code: %w", err)
	}
	return png, nil
}
