package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/money"
)

// BillStatus is the lifecycle state of a card bill. Overdue is never stored;
// StatusAt derives it from the due date.
type BillStatus string

const (
	BillOpen    BillStatus = "open"
	BillClosed  BillStatus = "closed"
	BillPaid    BillStatus = "paid"
	BillOverdue BillStatus = "overdue"
)

// UpcomingBillDays is the default look-ahead for upcoming bills.
const UpcomingBillDays = 7

// CreditCardBill is the statement of one billing cycle of a card. Total is a
// cache of the card's expenses dated in PeriodStart..ClosingDate.
type CreditCardBill struct {
	ID             uuid.UUID
	CardID         uuid.UUID
	ReferenceMonth time.Time
	PeriodStart    time.Time
	ClosingDate    time.Time
	DueDate        time.Time
	Total          money.Amount
	Paid           money.Amount
	Status         BillStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Remaining is what is still owed on the bill.
func (b *CreditCardBill) Remaining() money.Amount {
	return money.Max(b.Total-b.Paid, 0)
}

// IsOverdue reports an unpaid bill whose due date is before today.
func (b *CreditCardBill) IsOverdue(today time.Time) bool {
	return b.Status != BillPaid && Day(today).After(Day(b.DueDate))
}

// DaysUntilDue counts days from today to the due date, negative once past.
func (b *CreditCardBill) DaysUntilDue(today time.Time) int {
	return DaysBetween(today, b.DueDate)
}

// StatusAt is the stored status, or overdue when IsOverdue holds.
func (b *CreditCardBill) StatusAt(today time.Time) BillStatus {
	if b.IsOverdue(today) {
		return BillOverdue
	}
	return b.Status
}

// BillCycle places a card's billing cycle for month. The closing date is the
// closing day clamped to the month length; the cycle starts the day after the
// previous month's closing date. The due date falls in the same month when
// the due day is after the closing day, else in the next month.
func BillCycle(c *CreditCard, month time.Time) (start, closing, due time.Time) {
	month = MonthStart(month)
	closing = clampedDay(month, c.ClosingDay)
	prev := month.AddDate(0, -1, 0)
	start = clampedDay(prev, c.ClosingDay).AddDate(0, 0, 1)
	dueMonth := month
	if c.DueDay <= c.ClosingDay {
		dueMonth = NextMonth(month)
	}
	due = clampedDay(dueMonth, c.DueDay)
	return start, closing, due
}

func clampedDay(month time.Time, day int) time.Time {
	return Date(month.Year(), month.Month(), min(day, DaysIn(month)))
}

// BillPayment is the input of a bill payment. A non-nil From posts the
// payment as an expense on that account.
type BillPayment struct {
	Amount      money.Amount
	From        *uuid.UUID
	Date        time.Time
	Description string
}

// Validate checks the self-contained fields against the bill.
func (p *BillPayment) Validate(b *CreditCardBill, today time.Time) error {
	if !p.Amount.IsPositive() {
		return Invalid("amount", "must be greater than zero")
	}
	if b.Status == BillPaid {
		return Invalid("bill", "is already paid")
	}
	if p.Amount > b.Remaining() {
		return Invalid("amount", "exceeds the remaining %s", b.Remaining())
	}
	if !p.Date.IsZero() && Day(p.Date).After(Day(today)) {
		return Invalid("date", "cannot be in the future")
	}
	return nil
}
