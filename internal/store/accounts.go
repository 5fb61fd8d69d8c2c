package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
)

const accountColumns = `id, owner, name, account_type, bank, initial_balance, current_balance, active, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(r rowScanner) (*model.Account, error) {
	var a model.Account
	var typ, created string
	var active int
	if err := r.Scan(&a.ID, &a.Owner, &a.Name, &typ, &a.Bank,
		&a.InitialBalance, &a.CurrentBalance, &active, &created); err != nil {
		return nil, err
	}
	a.Type = model.AccountType(typ)
	a.Active = active != 0
	t, err := parseTime(created)
	if err != nil {
		return nil, err
	}
	a.CreatedAt = t
	return &a, nil
}

// InsertAccount stores a new account as given.
func (q *Queries) InsertAccount(ctx context.Context, a *model.Account) error {
	_, err := q.exec(ctx, `INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Owner, a.Name, string(a.Type), a.Bank,
		a.InitialBalance, a.CurrentBalance, boolInt(a.Active), formatTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting account: %w", mapErr(err, "accounts"))
	}
	return nil
}

// Account loads one account.
func (q *Queries) Account(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	a, err := scanAccount(q.row(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("account", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading account %s: %w", id, err)
	}
	return a, nil
}

// Accounts lists an owner's accounts by name.
func (q *Queries) Accounts(ctx context.Context, owner string) ([]model.Account, error) {
	rows, err := q.query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE owner = ? ORDER BY name, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// SetAccountActive flips the active flag.
func (q *Queries) SetAccountActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := q.exec(ctx, `UPDATE accounts SET active = ? WHERE id = ?`, boolInt(active), id)
	if err != nil {
		return fmt.Errorf("updating account %s: %w", id, err)
	}
	return expectOne(res, "account", id)
}

// LockAccounts takes row locks on the given accounts in ascending id order.
// Duplicates are locked once.
func (q *Queries) LockAccounts(ctx context.Context, ids []uuid.UUID) error {
	return q.lockRows(ctx, "accounts", "account", ids)
}

// LockCards takes row locks on the given cards in ascending id order.
func (q *Queries) LockCards(ctx context.Context, ids []uuid.UUID) error {
	return q.lockRows(ctx, "credit_cards", "credit card", ids)
}

func (q *Queries) lockRows(ctx context.Context, table, entity string, ids []uuid.UUID) error {
	for _, id := range SortedUnique(ids) {
		var got string
		err := q.row(ctx, `SELECT id FROM `+table+` WHERE id = ?`+q.lockClause(), id).Scan(&got)
		if errors.Is(err, sql.ErrNoRows) {
			return model.NotFound(entity, id)
		}
		if err != nil {
			return fmt.Errorf("locking %s %s: %w", entity, id, err)
		}
	}
	return nil
}

// SortedUnique returns ids de-duplicated in ascending order, the global lock order.
func SortedUnique(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == uuid.Nil {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// ComputeAccountBalance aggregates the ledger into the account's balance:
// initial + incomes - expenses + transfers in - transfers out.
func (q *Queries) ComputeAccountBalance(ctx context.Context, id uuid.UUID) (money.Amount, error) {
	var balance int64
	err := q.row(ctx, `SELECT a.initial_balance + COALESCE((
			SELECT CAST(SUM(CASE
				WHEN t.kind = 'income'  AND t.account_id = a.id THEN t.amount
				WHEN t.kind = 'expense' AND t.account_id = a.id THEN -t.amount
				WHEN t.transfer_to = a.id THEN t.amount
				WHEN t.transfer_from = a.id THEN -t.amount
				ELSE 0 END) AS BIGINT)
			FROM transactions t
			WHERE t.account_id = a.id OR t.transfer_from = a.id OR t.transfer_to = a.id
		), 0)
		FROM accounts a WHERE a.id = ?`, id).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.NotFound("account", id)
	}
	if err != nil {
		return 0, fmt.Errorf("aggregating account %s: %w", id, err)
	}
	return money.Amount(balance), nil
}

// SetAccountBalance stores the derived balance.
func (q *Queries) SetAccountBalance(ctx context.Context, id uuid.UUID, balance money.Amount) error {
	res, err := q.exec(ctx, `UPDATE accounts SET current_balance = ? WHERE id = ?`, balance, id)
	if err != nil {
		return fmt.Errorf("storing balance of account %s: %w", id, err)
	}
	return expectOne(res, "account", id)
}

func expectOne(res sql.Result, entity string, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.NotFound(entity, id)
	}
	return nil
}
