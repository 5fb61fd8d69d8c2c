package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/logger"
	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/store"
)

// BillPaymentDescription formats the expense posted for a paid bill.
const BillPaymentDescription = "Card bill payment %s - %s"

// OpenBill creates the bill of card for month with its total computed from
// the ledger. A card has at most one bill per month.
func (s *Service) OpenBill(ctx context.Context, cardID uuid.UUID, month time.Time) (*model.CreditCardBill, error) {
	now := s.now().UTC()
	q := s.db.Queries()
	card, err := q.Card(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if !card.Active {
		return nil, model.Invalid("credit_card", "card %s (%s) is inactive", card.Name, card.ID)
	}

	start, closing, due := model.BillCycle(card, month)
	b := &model.CreditCardBill{
		ID:             uuid.New(),
		CardID:         card.ID,
		ReferenceMonth: model.MonthStart(month),
		PeriodStart:    start,
		ClosingDate:    closing,
		DueDate:        due,
		Status:         model.BillOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err = s.db.WithTx(ctx, func(q *store.Queries) error {
		total, err := q.ComputeBillTotal(ctx, card.ID, start, closing)
		if err != nil {
			return err
		}
		b.Total = total
		return q.InsertBill(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info().Str("bill", b.ID.String()).Str("card", card.ID.String()).
		Str("month", b.ReferenceMonth.Format(model.MonthLayout)).
		Str("total", logger.MaskAmount(b.Total)).Msg("bill opened")
	return b, nil
}

// Bill loads one bill.
func (s *Service) Bill(ctx context.Context, id uuid.UUID) (*model.CreditCardBill, error) {
	return s.db.Queries().Bill(ctx, id)
}

// CardBills lists a card's bills, newest month first.
func (s *Service) CardBills(ctx context.Context, cardID uuid.UUID) ([]model.CreditCardBill, error) {
	if _, err := s.db.Queries().Card(ctx, cardID); err != nil {
		return nil, err
	}
	return s.db.Queries().BillsByCard(ctx, cardID)
}

// UpcomingBills lists owner's unpaid bills due within days of today,
// including the overdue ones.
func (s *Service) UpcomingBills(ctx context.Context, owner string, days int) ([]model.CreditCardBill, error) {
	if days < 0 {
		return nil, model.Invalid("days", "must not be negative")
	}
	today := model.Day(s.now().UTC())
	return s.db.Queries().UnpaidBillsDueBy(ctx, owner, today.AddDate(0, 0, days))
}

// OverdueBills lists owner's unpaid bills whose due date has passed.
func (s *Service) OverdueBills(ctx context.Context, owner string) ([]model.CreditCardBill, error) {
	today := model.Day(s.now().UTC())
	return s.db.Queries().UnpaidBillsDueBy(ctx, owner, today.AddDate(0, 0, -1))
}

// RefreshBill recomputes an unpaid bill's total from the ledger.
func (s *Service) RefreshBill(ctx context.Context, id uuid.UUID) (*model.CreditCardBill, error) {
	var out *model.CreditCardBill
	err := s.db.WithTx(ctx, func(q *store.Queries) error {
		b, err := q.LockBill(ctx, id)
		if err != nil {
			return err
		}
		if b.Status != model.BillPaid {
			if err := s.retotal(ctx, q, b); err != nil {
				return err
			}
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CloseBill freezes an open bill once its closing date has been reached.
func (s *Service) CloseBill(ctx context.Context, id uuid.UUID) (*model.CreditCardBill, error) {
	today := model.Day(s.now().UTC())
	var out *model.CreditCardBill
	err := s.db.WithTx(ctx, func(q *store.Queries) error {
		b, err := q.LockBill(ctx, id)
		if err != nil {
			return err
		}
		switch {
		case b.Status != model.BillOpen:
			return model.Invalid("bill", "is already %s", b.Status)
		case today.Before(b.ClosingDate):
			return model.Invalid("bill", "cannot close before %s", b.ClosingDate.Format(model.DateLayout))
		}
		b.Status = model.BillClosed
		if err := s.retotal(ctx, q, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info().Str("bill", id.String()).
		Str("total", logger.MaskAmount(out.Total)).Msg("bill closed")
	return out, nil
}

// PayBill records a payment against bill id. With p.From set the payment is
// also posted as an expense on that account, in the same database
// transaction. The bill row is locked before the account.
func (s *Service) PayBill(ctx context.Context, id uuid.UUID, p model.BillPayment) (*model.CreditCardBill, *model.Transaction, error) {
	log := logger.FromContext(ctx)
	now := s.now().UTC()

	q := s.db.Queries()
	cached, err := q.Bill(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if cached.Status != model.BillPaid {
		if cached.Total, err = q.ComputeBillTotal(ctx, cached.CardID, cached.PeriodStart, cached.ClosingDate); err != nil {
			return nil, nil, err
		}
	}
	if err := p.Validate(cached, now); err != nil {
		return nil, nil, err
	}

	var posted *model.Transaction
	if p.From != nil {
		card, err := q.Card(ctx, cached.CardID)
		if err != nil {
			return nil, nil, err
		}
		posted, err = s.prepare(ctx, card.Owner, paymentInput(card, cached, p, now))
		if err != nil {
			return nil, nil, err
		}
	}

	var out *model.CreditCardBill
	err = s.db.WithTx(ctx, func(q *store.Queries) error {
		b, err := q.LockBill(ctx, id)
		if err != nil {
			return err
		}
		if b.Status != model.BillPaid {
			if b.Total, err = q.ComputeBillTotal(ctx, b.CardID, b.PeriodStart, b.ClosingDate); err != nil {
				return err
			}
		}
		if err := p.Validate(b, now); err != nil {
			return err
		}
		if posted != nil {
			if err := record(ctx, q, posted); err != nil {
				return err
			}
		}
		b.Paid += p.Amount
		if b.Paid >= b.Total {
			b.Status = model.BillPaid
		}
		b.UpdatedAt = now
		if err := q.UpdateBill(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("bill", id.String()).Msg("bill payment failed")
		return nil, nil, err
	}

	ev := log.Info().Str("bill", id.String()).Str("amount", logger.MaskAmount(p.Amount)).
		Str("status", string(out.Status))
	if posted != nil {
		ev = ev.Str("tx", posted.ID.String())
	}
	ev.Msg("bill paid")
	return out, posted, nil
}

func paymentInput(card *model.CreditCard, b *model.CreditCardBill, p model.BillPayment, now time.Time) model.TransactionInput {
	date := p.Date
	if date.IsZero() {
		date = model.Day(now)
	}
	desc := p.Description
	if desc == "" {
		desc = fmt.Sprintf(BillPaymentDescription, card.Name, b.ReferenceMonth.Format("01/2006"))
	}
	return model.TransactionInput{
		Movement:    model.Expense{Via: model.AccountRef{AccountID: *p.From}},
		Amount:      p.Amount,
		Description: desc,
		Date:        date,
	}
}

// retotal stores b with its total recomputed over the cycle.
func (s *Service) retotal(ctx context.Context, q *store.Queries, b *model.CreditCardBill) error {
	total, err := q.ComputeBillTotal(ctx, b.CardID, b.PeriodStart, b.ClosingDate)
	if err != nil {
		return err
	}
	b.Total = total
	b.UpdatedAt = s.now().UTC()
	return q.UpdateBill(ctx, b)
}
