package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/model"
)

const txColumns = `id, owner, kind, amount, description, category_id, date,
	account_id, card_id, transfer_from, transfer_to, created_at, updated_at`

func scanTransaction(r rowScanner) (*model.Transaction, error) {
	var t model.Transaction
	var cols model.MovementColumns
	var kind, date, created, updated string
	if err := r.Scan(&t.ID, &t.Owner, &kind, &t.Amount, &t.Description, &t.CategoryID, &date,
		&cols.Account, &cols.Card, &cols.TransferFrom, &cols.TransferTo, &created, &updated); err != nil {
		return nil, err
	}
	cols.Kind = model.Kind(kind)
	m, err := cols.Movement()
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	t.Movement = m
	if t.Date, err = parseDate(date); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &t, nil
}

// InsertTransaction writes a ledger row and its tags.
func (q *Queries) InsertTransaction(ctx context.Context, t *model.Transaction) error {
	c := model.Columns(t.Movement)
	_, err := q.exec(ctx, `INSERT INTO transactions (`+txColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Owner, string(c.Kind), t.Amount, t.Description, t.CategoryID, formatDate(t.Date),
		c.Account, c.Card, c.TransferFrom, c.TransferTo, formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", mapErr(err, "transactions"))
	}
	return q.replaceTags(ctx, t.ID, t.Tags)
}

// UpdateTransaction rewrites every editable column of a ledger row and its tags.
func (q *Queries) UpdateTransaction(ctx context.Context, t *model.Transaction) error {
	c := model.Columns(t.Movement)
	res, err := q.exec(ctx, `UPDATE transactions SET
		kind = ?, amount = ?, description = ?, category_id = ?, date = ?,
		account_id = ?, card_id = ?, transfer_from = ?, transfer_to = ?, updated_at = ?
		WHERE id = ?`,
		string(c.Kind), t.Amount, t.Description, t.CategoryID, formatDate(t.Date),
		c.Account, c.Card, c.TransferFrom, c.TransferTo, formatTime(t.UpdatedAt), t.ID)
	if err != nil {
		return fmt.Errorf("updating transaction %s: %w", t.ID, mapErr(err, "transactions"))
	}
	if err := expectOne(res, "transaction", t.ID); err != nil {
		return err
	}
	return q.replaceTags(ctx, t.ID, t.Tags)
}

// DeleteTransaction removes a ledger row and its tags.
func (q *Queries) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	if _, err := q.exec(ctx, `DELETE FROM transaction_tags WHERE transaction_id = ?`, id); err != nil {
		return fmt.Errorf("deleting tags of %s: %w", id, err)
	}
	res, err := q.exec(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting transaction %s: %w", id, err)
	}
	return expectOne(res, "transaction", id)
}

func (q *Queries) replaceTags(ctx context.Context, id uuid.UUID, tags []string) error {
	if _, err := q.exec(ctx, `DELETE FROM transaction_tags WHERE transaction_id = ?`, id); err != nil {
		return fmt.Errorf("clearing tags of %s: %w", id, err)
	}
	for _, tag := range tags {
		if _, err := q.exec(ctx, `INSERT INTO transaction_tags (transaction_id, tag) VALUES (?, ?)`, id, tag); err != nil {
			return fmt.Errorf("tagging %s: %w", id, mapErr(err, "transaction_tags"))
		}
	}
	return nil
}

// Transaction loads one ledger row with its tags.
func (q *Queries) Transaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	t, err := scanTransaction(q.row(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("transaction", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading transaction %s: %w", id, err)
	}
	tags, err := q.tagsFor(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	t.Tags = tags[id]
	return t, nil
}

// Transactions lists ledger rows matching f, newest first.
func (q *Queries) Transactions(ctx context.Context, f model.TransactionFilter) ([]model.Transaction, error) {
	var where []string
	var args []any
	add := func(cond string, vals ...any) {
		where = append(where, cond)
		args = append(args, vals...)
	}
	if f.Owner != "" {
		add("owner = ?", f.Owner)
	}
	if f.Kind != "" {
		add("kind = ?", string(f.Kind))
	}
	if !f.From.IsZero() {
		add("date >= ?", formatDate(f.From))
	}
	if !f.To.IsZero() {
		add("date <= ?", formatDate(f.To))
	}
	if f.AccountID != uuid.Nil {
		add("(account_id = ? OR transfer_from = ? OR transfer_to = ?)", f.AccountID, f.AccountID, f.AccountID)
	}
	if f.CardID != uuid.Nil {
		add("card_id = ?", f.CardID)
	}

	query := `SELECT ` + txColumns + ` FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, created_at DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Transaction
	var ids []uuid.UUID
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	_ = rows.Close()

	tags, err := q.tagsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Tags = tags[out[i].ID]
	}
	return out, nil
}

func (q *Queries) tagsFor(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]string, error) {
	result := make(map[uuid.UUID][]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := q.query(ctx, `SELECT transaction_id, tag FROM transaction_tags
		WHERE transaction_id IN (`+placeholders+`) ORDER BY tag`, args...)
	if err != nil {
		return nil, fmt.Errorf("loading tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id uuid.UUID
		var tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return nil, err
		}
		result[id] = append(result[id], tag)
	}
	return result, rows.Err()
}

// TagUsage counts how often each tag appears on an owner's transactions,
// most used first.
func (q *Queries) TagUsage(ctx context.Context, owner string, limit int) ([]model.TagCount, error) {
	query := `SELECT tt.tag, COUNT(*) AS uses FROM transaction_tags tt
		JOIN transactions t ON t.id = tt.transaction_id
		WHERE t.owner = ?
		GROUP BY tt.tag
		ORDER BY uses DESC, tt.tag`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := q.query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("counting tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.TagCount
	for rows.Next() {
		var tc model.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// LockTransaction loads a ledger row under a row lock. Ledger writes lock the
// transaction row before any instrument row.
func (q *Queries) LockTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	t, err := scanTransaction(q.row(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = ?`+q.lockClause(), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("transaction", id)
	}
	if err != nil {
		return nil, fmt.Errorf("locking transaction %s: %w", id, err)
	}
	tags, err := q.tagsFor(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	t.Tags = tags[id]
	return t, nil
}
