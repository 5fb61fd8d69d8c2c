package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
)

const cardColumns = `id, owner, name, bank, credit_limit, available_limit, closing_day, due_day, active, created_at`

func scanCard(r rowScanner) (*model.CreditCard, error) {
	var c model.CreditCard
	var created string
	var active int
	if err := r.Scan(&c.ID, &c.Owner, &c.Name, &c.Bank, &c.CreditLimit, &c.AvailableLimit,
		&c.ClosingDay, &c.DueDay, &active, &created); err != nil {
		return nil, err
	}
	c.Active = active != 0
	t, err := parseTime(created)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = t
	return &c, nil
}

// InsertCard stores a new credit card.
func (q *Queries) InsertCard(ctx context.Context, c *model.CreditCard) error {
	_, err := q.exec(ctx, `INSERT INTO credit_cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Owner, c.Name, c.Bank, c.CreditLimit, c.AvailableLimit,
		c.ClosingDay, c.DueDay, boolInt(c.Active), formatTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting credit card: %w", mapErr(err, "credit_cards"))
	}
	return nil
}

// Card loads one credit card.
func (q *Queries) Card(ctx context.Context, id uuid.UUID) (*model.CreditCard, error) {
	c, err := scanCard(q.row(ctx, `SELECT `+cardColumns+` FROM credit_cards WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("credit card", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading credit card %s: %w", id, err)
	}
	return c, nil
}

// Cards lists an owner's credit cards by name.
func (q *Queries) Cards(ctx context.Context, owner string) ([]model.CreditCard, error) {
	rows, err := q.query(ctx, `SELECT `+cardColumns+` FROM credit_cards WHERE owner = ? ORDER BY name, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("listing credit cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.CreditCard
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// SetCardActive flips the active flag.
func (q *Queries) SetCardActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := q.exec(ctx, `UPDATE credit_cards SET active = ? WHERE id = ?`, boolInt(active), id)
	if err != nil {
		return fmt.Errorf("updating credit card %s: %w", id, err)
	}
	return expectOne(res, "credit card", id)
}

// ComputeCardAvailable aggregates the ledger into the card's available limit:
// credit limit minus every expense charged to it.
func (q *Queries) ComputeCardAvailable(ctx context.Context, id uuid.UUID) (money.Amount, error) {
	var available int64
	err := q.row(ctx, `SELECT c.credit_limit - COALESCE((
			SELECT CAST(SUM(t.amount) AS BIGINT) FROM transactions t
			WHERE t.card_id = c.id AND t.kind = 'expense'
		), 0)
		FROM credit_cards c WHERE c.id = ?`, id).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.NotFound("credit card", id)
	}
	if err != nil {
		return 0, fmt.Errorf("aggregating credit card %s: %w", id, err)
	}
	return money.Amount(available), nil
}

// SetCardAvailable stores the derived available limit.
func (q *Queries) SetCardAvailable(ctx context.Context, id uuid.UUID, available money.Amount) error {
	res, err := q.exec(ctx, `UPDATE credit_cards SET available_limit = ? WHERE id = ?`, available, id)
	if err != nil {
		return fmt.Errorf("storing available limit of card %s: %w", id, err)
	}
	return expectOne(res, "credit card", id)
}
