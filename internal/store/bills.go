package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
)

const billColumns = `id, card_id, reference_month, period_start, closing_date, due_date,
	total_amount, paid_amount, status, created_at, updated_at`

// billColumnsOf qualifies billColumns for joins.
const billColumnsOf = `b.id, b.card_id, b.reference_month, b.period_start, b.closing_date, b.due_date,
	b.total_amount, b.paid_amount, b.status, b.created_at, b.updated_at`

func scanBill(r rowScanner) (*model.CreditCardBill, error) {
	var b model.CreditCardBill
	var month, start, closing, due, status, created, updated string
	if err := r.Scan(&b.ID, &b.CardID, &month, &start, &closing, &due,
		&b.Total, &b.Paid, &status, &created, &updated); err != nil {
		return nil, err
	}
	b.Status = model.BillStatus(status)
	var err error
	for _, f := range []struct {
		dst *time.Time
		src string
	}{
		{&b.ReferenceMonth, month},
		{&b.PeriodStart, start},
		{&b.ClosingDate, closing},
		{&b.DueDate, due},
	} {
		if *f.dst, err = parseDate(f.src); err != nil {
			return nil, err
		}
	}
	if b.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &b, nil
}

// InsertBill stores a bill. There is at most one bill per card and month.
func (q *Queries) InsertBill(ctx context.Context, b *model.CreditCardBill) error {
	_, err := q.exec(ctx, `INSERT INTO credit_card_bills (`+billColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.CardID, formatDate(b.ReferenceMonth), formatDate(b.PeriodStart),
		formatDate(b.ClosingDate), formatDate(b.DueDate), b.Total, b.Paid, string(b.Status),
		formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting bill: %w", mapErr(err, "credit_card_bills(card_id, reference_month)"))
	}
	return nil
}

// Bill loads one bill.
func (q *Queries) Bill(ctx context.Context, id uuid.UUID) (*model.CreditCardBill, error) {
	b, err := scanBill(q.row(ctx, `SELECT `+billColumns+` FROM credit_card_bills WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("bill", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading bill %s: %w", id, err)
	}
	return b, nil
}

// LockBill loads a bill under a row lock.
func (q *Queries) LockBill(ctx context.Context, id uuid.UUID) (*model.CreditCardBill, error) {
	b, err := scanBill(q.row(ctx, `SELECT `+billColumns+` FROM credit_card_bills WHERE id = ?`+q.lockClause(), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("bill", id)
	}
	if err != nil {
		return nil, fmt.Errorf("locking bill %s: %w", id, err)
	}
	return b, nil
}

// BillsByCard lists a card's bills, newest month first.
func (q *Queries) BillsByCard(ctx context.Context, cardID uuid.UUID) ([]model.CreditCardBill, error) {
	rows, err := q.query(ctx, `SELECT `+billColumns+` FROM credit_card_bills
		WHERE card_id = ? ORDER BY reference_month DESC`, cardID)
	if err != nil {
		return nil, fmt.Errorf("listing bills of card %s: %w", cardID, err)
	}
	return collectBills(rows)
}

// UnpaidBillsDueBy lists an owner's open and closed bills due on or before
// date, earliest due first.
func (q *Queries) UnpaidBillsDueBy(ctx context.Context, owner string, date time.Time) ([]model.CreditCardBill, error) {
	rows, err := q.query(ctx, `SELECT `+billColumnsOf+` FROM credit_card_bills b
		JOIN credit_cards c ON c.id = b.card_id
		WHERE c.owner = ? AND b.status IN ('open', 'closed') AND b.due_date <= ?
		ORDER BY b.due_date, b.id`, owner, formatDate(date))
	if err != nil {
		return nil, fmt.Errorf("listing unpaid bills: %w", err)
	}
	return collectBills(rows)
}

func collectBills(rows *sql.Rows) ([]model.CreditCardBill, error) {
	defer func() { _ = rows.Close() }()
	var out []model.CreditCardBill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// UpdateBill stores the total, paid amount and status of a bill.
func (q *Queries) UpdateBill(ctx context.Context, b *model.CreditCardBill) error {
	res, err := q.exec(ctx, `UPDATE credit_card_bills
		SET total_amount = ?, paid_amount = ?, status = ?, updated_at = ? WHERE id = ?`,
		b.Total, b.Paid, string(b.Status), formatTime(b.UpdatedAt), b.ID)
	if err != nil {
		return fmt.Errorf("updating bill %s: %w", b.ID, err)
	}
	return expectOne(res, "bill", b.ID)
}

// ComputeBillTotal sums the expenses charged to a card dated from..to inclusive.
func (q *Queries) ComputeBillTotal(ctx context.Context, cardID uuid.UUID, from, to time.Time) (money.Amount, error) {
	var total int64
	err := q.row(ctx, `SELECT COALESCE(CAST(SUM(amount) AS BIGINT), 0) FROM transactions
		WHERE card_id = ? AND kind = 'expense' AND date >= ? AND date <= ?`,
		cardID, formatDate(from), formatDate(to)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing bill of card %s: %w", cardID, err)
	}
	return money.Amount(total), nil
}
