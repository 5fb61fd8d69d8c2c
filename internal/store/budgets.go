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

const budgetColumns = `id, owner, category_id, amount, month, created_at`

func scanBudget(r rowScanner) (*model.Budget, error) {
	var b model.Budget
	var month, created string
	if err := r.Scan(&b.ID, &b.Owner, &b.CategoryID, &b.Amount, &month, &created); err != nil {
		return nil, err
	}
	var err error
	if b.Month, err = parseDate(month); err != nil {
		return nil, err
	}
	if b.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &b, nil
}

// InsertBudget stores a budget. A second budget for the same owner, category
// and month is an IntegrityError.
func (q *Queries) InsertBudget(ctx context.Context, b *model.Budget) error {
	_, err := q.exec(ctx, `INSERT INTO budgets (`+budgetColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.Owner, b.CategoryID, b.Amount, formatDate(model.MonthStart(b.Month)), formatTime(b.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting budget: %w", mapErr(err, "budgets(owner, category_id, month)"))
	}
	return nil
}

// UpdateBudgetAmount changes a budget's cap.
func (q *Queries) UpdateBudgetAmount(ctx context.Context, id uuid.UUID, amount money.Amount) error {
	res, err := q.exec(ctx, `UPDATE budgets SET amount = ? WHERE id = ?`, amount, id)
	if err != nil {
		return fmt.Errorf("updating budget %s: %w", id, err)
	}
	return expectOne(res, "budget", id)
}

// Budget loads a budget by id.
func (q *Queries) Budget(ctx context.Context, id uuid.UUID) (*model.Budget, error) {
	b, err := scanBudget(q.row(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("budget", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading budget %s: %w", id, err)
	}
	return b, nil
}

// BudgetFor loads the budget of (owner, category, month).
func (q *Queries) BudgetFor(ctx context.Context, owner string, category uuid.UUID, month time.Time) (*model.Budget, error) {
	key := formatDate(model.MonthStart(month))
	b, err := scanBudget(q.row(ctx, `SELECT `+budgetColumns+` FROM budgets
		WHERE owner = ? AND category_id = ? AND month = ?`, owner, category, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.NotFoundError{Entity: "budget", ID: fmt.Sprintf("%s/%s/%s", owner, category, key[:7])}
	}
	if err != nil {
		return nil, fmt.Errorf("loading budget: %w", err)
	}
	return b, nil
}

// Budgets lists an owner's budgets for a month.
func (q *Queries) Budgets(ctx context.Context, owner string, month time.Time) ([]model.Budget, error) {
	rows, err := q.query(ctx, `SELECT `+budgetColumns+` FROM budgets
		WHERE owner = ? AND month = ? ORDER BY category_id`, owner, formatDate(model.MonthStart(month)))
	if err != nil {
		return nil, fmt.Errorf("listing budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// LockBudget takes the row lock that serializes alert generation for a budget.
func (q *Queries) LockBudget(ctx context.Context, id uuid.UUID) error {
	return q.lockRows(ctx, "budgets", "budget", []uuid.UUID{id})
}

// DayTotal is the expense total of one calendar day.
type DayTotal struct {
	Date   time.Time
	Amount money.Amount
}

// ExpenseByDay sums an owner's expenses in a category per day over [from, to).
// Days without expenses are omitted.
func (q *Queries) ExpenseByDay(ctx context.Context, owner string, category uuid.UUID, from, to time.Time) ([]DayTotal, error) {
	rows, err := q.query(ctx, `SELECT date, CAST(SUM(amount) AS BIGINT) FROM transactions
		WHERE owner = ? AND category_id = ? AND kind = 'expense' AND date >= ? AND date < ?
		GROUP BY date ORDER BY date`,
		owner, category, formatDate(from), formatDate(to))
	if err != nil {
		return nil, fmt.Errorf("aggregating expenses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []DayTotal
	for rows.Next() {
		var date string
		var total int64
		if err := rows.Scan(&date, &total); err != nil {
			return nil, err
		}
		d, err := parseDate(date)
		if err != nil {
			return nil, err
		}
		out = append(out, DayTotal{Date: d, Amount: money.Amount(total)})
	}
	return out, rows.Err()
}

const alertColumns = `id, budget_id, alert_type, level, message, active, created_at, resolved_at`

func scanAlert(r rowScanner) (*model.BudgetAlert, error) {
	var a model.BudgetAlert
	var typ, level, created string
	var active int
	var resolved sql.NullString
	if err := r.Scan(&a.ID, &a.BudgetID, &typ, &level, &a.Message, &active, &created, &resolved); err != nil {
		return nil, err
	}
	a.Type = model.AlertType(typ)
	a.Level = model.AlertLevel(level)
	a.Active = active != 0
	var err error
	if a.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if a.ResolvedAt, err = parseNullTime(resolved); err != nil {
		return nil, err
	}
	return &a, nil
}

func (q *Queries) alerts(ctx context.Context, query string, args ...any) ([]model.BudgetAlert, error) {
	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.BudgetAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// ActiveAlertsForBudget returns the budget's active alerts keyed by type.
func (q *Queries) ActiveAlertsForBudget(ctx context.Context, budgetID uuid.UUID) (map[model.AlertType]model.BudgetAlert, error) {
	list, err := q.alerts(ctx, `SELECT `+alertColumns+` FROM budget_alerts
		WHERE budget_id = ? AND active = 1`, budgetID)
	if err != nil {
		return nil, err
	}
	out := make(map[model.AlertType]model.BudgetAlert, len(list))
	for _, a := range list {
		out[a.Type] = a
	}
	return out, nil
}

// ActiveAlerts lists every active alert of an owner, newest first.
func (q *Queries) ActiveAlerts(ctx context.Context, owner string) ([]model.BudgetAlert, error) {
	return q.alerts(ctx, `SELECT a.id, a.budget_id, a.alert_type, a.level, a.message, a.active, a.created_at, a.resolved_at
		FROM budget_alerts a JOIN budgets b ON b.id = a.budget_id
		WHERE b.owner = ? AND a.active = 1
		ORDER BY a.created_at DESC, a.alert_type`, owner)
}

// Alert loads one alert.
func (q *Queries) Alert(ctx context.Context, id uuid.UUID) (*model.BudgetAlert, error) {
	a, err := scanAlert(q.row(ctx, `SELECT `+alertColumns+` FROM budget_alerts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("budget alert", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading alert %s: %w", id, err)
	}
	return a, nil
}

// InsertAlert stores a new active alert. A second active alert of the same
// type for a budget violates the partial unique index.
func (q *Queries) InsertAlert(ctx context.Context, a *model.BudgetAlert) error {
	_, err := q.exec(ctx, `INSERT INTO budget_alerts (`+alertColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.BudgetID, string(a.Type), string(a.Level), a.Message, boolInt(a.Active),
		formatTime(a.CreatedAt), nullTime(a.ResolvedAt))
	if err != nil {
		return fmt.Errorf("inserting alert: %w", mapErr(err, "budget_alerts(budget_id, alert_type) active"))
	}
	return nil
}

// RefreshAlert updates the level and message of an active alert.
func (q *Queries) RefreshAlert(ctx context.Context, id uuid.UUID, level model.AlertLevel, message string) error {
	res, err := q.exec(ctx, `UPDATE budget_alerts SET level = ?, message = ? WHERE id = ?`, string(level), message, id)
	if err != nil {
		return fmt.Errorf("updating alert %s: %w", id, err)
	}
	return expectOne(res, "budget alert", id)
}

// ResolveAlert deactivates an alert and stamps resolved_at. Resolving an
// already resolved alert leaves it unchanged.
func (q *Queries) ResolveAlert(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := q.exec(ctx, `UPDATE budget_alerts SET active = 0, resolved_at = ? WHERE id = ? AND active = 1`,
		formatTime(at), id)
	if err != nil {
		return fmt.Errorf("resolving alert %s: %w", id, err)
	}
	return nil
}
