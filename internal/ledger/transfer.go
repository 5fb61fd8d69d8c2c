package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
)

// DefaultTransferDescription is used when a transfer request has none.
const DefaultTransferDescription = "Transfer between accounts"

// TransferRequest moves Amount from one account of Owner to another.
// A zero Date means today; a nil Category selects the transfer category.
type TransferRequest struct {
	Owner       string
	From        uuid.UUID
	To          uuid.UUID
	Amount      money.Amount
	Date        time.Time
	Description string
	Category    *uuid.UUID
	Tags        []string
}

// CreateTransfer records a single transfer row referencing both accounts and
// reconciles both, locking them in ascending id order so that two opposite
// transfers between the same pair cannot deadlock.
func (s *Service) CreateTransfer(ctx context.Context, req TransferRequest) (*model.Transaction, error) {
	if req.From == req.To {
		return nil, &model.SameAccountError{AccountID: req.From}
	}
	date := req.Date
	if date.IsZero() {
		date = model.Day(s.now().UTC())
	}
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		desc = DefaultTransferDescription
	}
	return s.Create(ctx, req.Owner, model.TransactionInput{
		Movement:    model.Transfer{From: req.From, To: req.To},
		Amount:      req.Amount,
		Description: desc,
		CategoryID:  req.Category,
		Date:        date,
		Tags:        req.Tags,
	})
}
