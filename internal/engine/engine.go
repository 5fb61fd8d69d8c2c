// Package engine is the single entry point callers use: it opens the store
// and exposes ledger, budget and goal operations plus instrument management.
package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/budget"
	"github.com/theirongolddev/grana/internal/config"
	"github.com/theirongolddev/grana/internal/goals"
	"github.com/theirongolddev/grana/internal/ledger"
	"github.com/theirongolddev/grana/internal/logger"
	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
	"github.com/theirongolddev/grana/internal/store"
)

// Engine wires the services over one database.
type Engine struct {
	db      *store.DB
	now     func() time.Time
	ledger  *ledger.Service
	budgets *budget.Service
	goals   *goals.Service
}

// New builds an engine over an open store. now defaults to time.Now.
func New(db *store.DB, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		db:      db,
		now:     now,
		ledger:  ledger.New(db, now),
		budgets: budget.New(db, now),
		goals:   goals.New(db, now),
	}
}

// Open opens the configured store and returns an engine over it.
func Open(ctx context.Context, cfg config.Config) (*Engine, error) {
	db, err := store.Open(ctx, store.Options{
		Driver:      cfg.Database.Driver,
		DSN:         cfg.DSN(),
		BusyTimeout: time.Duration(cfg.Database.BusyTimeoutMS) * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Debug().Str("driver", db.Driver()).Msg("store opened")
	return New(db, nil), nil
}

// Close closes the underlying store.
func (e *Engine) Close() error { return e.db.Close() }

// Today is the engine's current calendar date.
func (e *Engine) Today() time.Time { return model.Day(e.now().UTC()) }

// Ledger.

// CreateTransaction records a new income or expense for owner.
func (e *Engine) CreateTransaction(ctx context.Context, owner string, in model.TransactionInput) (*model.Transaction, error) {
	return e.ledger.Create(ctx, owner, in)
}

// UpdateTransaction replaces the editable fields of transaction id.
func (e *Engine) UpdateTransaction(ctx context.Context, id uuid.UUID, in model.TransactionInput) (*model.Transaction, error) {
	return e.ledger.Update(ctx, id, in)
}

// DeleteTransaction removes transaction id and reconciles its referents.
func (e *Engine) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	return e.ledger.Delete(ctx, id)
}

// CreateTransfer moves money between two accounts of the same owner.
func (e *Engine) CreateTransfer(ctx context.Context, req ledger.TransferRequest) (*model.Transaction, error) {
	return e.ledger.CreateTransfer(ctx, req)
}

// Transaction loads one ledger row.
func (e *Engine) Transaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	return e.ledger.Get(ctx, id)
}

// Transactions lists the ledger rows matching f, newest first.
func (e *Engine) Transactions(ctx context.Context, f model.TransactionFilter) ([]model.Transaction, error) {
	return e.ledger.List(ctx, f)
}

// TagUsage returns owner's tags by usage count, at most limit of them.
func (e *Engine) TagUsage(ctx context.Context, owner string, limit int) ([]model.TagCount, error) {
	return e.ledger.TagUsage(ctx, owner, limit)
}

// Reconcile recomputes every cached balance and limit of owner and reports
// the ones that had drifted.
func (e *Engine) Reconcile(ctx context.Context, owner string) ([]ledger.Drift, error) {
	return e.ledger.ReconcileOwner(ctx, owner)
}

// Budgets.

// CreateBudget sets a monthly budget for a category.
func (e *Engine) CreateBudget(ctx context.Context, owner string, categoryID uuid.UUID, month time.Time, amount money.Amount) (*model.Budget, error) {
	return e.budgets.Create(ctx, owner, categoryID, month, amount)
}

// SetBudgetAmount changes the amount of budget id.
func (e *Engine) SetBudgetAmount(ctx context.Context, id uuid.UUID, amount money.Amount) (*model.Budget, error) {
	return e.budgets.SetAmount(ctx, id, amount)
}

// Budgets lists owner's budgets for month.
func (e *Engine) Budgets(ctx context.Context, owner string, month time.Time) ([]model.Budget, error) {
	return e.budgets.List(ctx, owner, month)
}

// BudgetMetrics analyzes the budget of a category and month.
func (e *Engine) BudgetMetrics(ctx context.Context, owner string, categoryID uuid.UUID, month time.Time) (budget.Metrics, error) {
	return e.budgets.Metrics(ctx, owner, categoryID, month)
}

// MonthOverview aggregates every budget of owner for month.
func (e *Engine) MonthOverview(ctx context.Context, owner string, month time.Time) (budget.Overview, error) {
	return e.budgets.MonthOverview(ctx, owner, month)
}

// GenerateBudgetAlerts refreshes the alerts of one budget.
func (e *Engine) GenerateBudgetAlerts(ctx context.Context, budgetID uuid.UUID) ([]model.BudgetAlert, error) {
	return e.budgets.GenerateAlerts(ctx, budgetID)
}

// GenerateAllAlerts refreshes the alerts of every budget of owner for month.
func (e *Engine) GenerateAllAlerts(ctx context.Context, owner string, month time.Time) (map[uuid.UUID][]model.BudgetAlert, error) {
	return e.budgets.GenerateAllAlerts(ctx, owner, month)
}

// ResolveAlert marks an alert resolved.
func (e *Engine) ResolveAlert(ctx context.Context, alertID uuid.UUID) (*model.BudgetAlert, error) {
	return e.budgets.ResolveAlert(ctx, alertID)
}

// ActiveAlerts lists owner's unresolved alerts.
func (e *Engine) ActiveAlerts(ctx context.Context, owner string) ([]model.BudgetAlert, error) {
	return e.budgets.ActiveAlerts(ctx, owner)
}

// Goals.

// CreateGoal adds a savings goal.
func (e *Engine) CreateGoal(ctx context.Context, in goals.GoalInput) (*model.Goal, error) {
	return e.goals.Create(ctx, in)
}

// ContributeToGoal adds money to a goal.
func (e *Engine) ContributeToGoal(ctx context.Context, goalID uuid.UUID, in goals.ContributionInput) (goals.ContributionResult, error) {
	return e.goals.Contribute(ctx, goalID, in)
}

// ResetGoal zeroes a goal, optionally dropping its contributions.
func (e *Engine) ResetGoal(ctx context.Context, goalID uuid.UUID, removeContributions bool) (*model.Goal, error) {
	return e.goals.Reset(ctx, goalID, removeContributions)
}

// Goals lists owner's goals.
func (e *Engine) Goals(ctx context.Context, owner string) ([]model.Goal, error) {
	return e.goals.List(ctx, owner)
}

// GoalReport computes a goal's progress and pace.
func (e *Engine) GoalReport(ctx context.Context, goalID uuid.UUID) (goals.Report, error) {
	return e.goals.Report(ctx, goalID)
}

// Bills.

// OpenBill creates the bill of a card for month.
func (e *Engine) OpenBill(ctx context.Context, cardID uuid.UUID, month time.Time) (*model.CreditCardBill, error) {
	return e.ledger.OpenBill(ctx, cardID, month)
}

// Bill loads one bill.
func (e *Engine) Bill(ctx context.Context, id uuid.UUID) (*model.CreditCardBill, error) {
	return e.ledger.Bill(ctx, id)
}

// CardBills lists a card's bills, newest month first.
func (e *Engine) CardBills(ctx context.Context, cardID uuid.UUID) ([]model.CreditCardBill, error) {
	return e.ledger.CardBills(ctx, cardID)
}

// RefreshBill recomputes an unpaid bill's total.
func (e *Engine) RefreshBill(ctx context.Context, id uuid.UUID) (*model.CreditCardBill, error) {
	return e.ledger.RefreshBill(ctx, id)
}

// CloseBill closes an open bill on or after its closing date.
func (e *Engine) CloseBill(ctx context.Context, id uuid.UUID) (*model.CreditCardBill, error) {
	return e.ledger.CloseBill(ctx, id)
}

// PayBill records a payment, optionally posted as an expense on an account.
func (e *Engine) PayBill(ctx context.Context, id uuid.UUID, p model.BillPayment) (*model.CreditCardBill, *model.Transaction, error) {
	return e.ledger.PayBill(ctx, id, p)
}

// UpcomingBills lists owner's unpaid bills due within days.
func (e *Engine) UpcomingBills(ctx context.Context, owner string, days int) ([]model.CreditCardBill, error) {
	return e.ledger.UpcomingBills(ctx, owner, days)
}

// OverdueBills lists owner's unpaid bills past their due date.
func (e *Engine) OverdueBills(ctx context.Context, owner string) ([]model.CreditCardBill, error) {
	return e.ledger.OverdueBills(ctx, owner)
}

// Categories.

// Categories lists every category.
func (e *Engine) Categories(ctx context.Context) ([]model.Category, error) {
	return e.db.Queries().Categories(ctx)
}

// CategoryByName loads a category by its lower-cased name.
func (e *Engine) CategoryByName(ctx context.Context, name string) (*model.Category, error) {
	return e.db.Queries().CategoryByName(ctx, name)
}

// CreateCategory adds a user category. Names are stored lower-cased and unique.
func (e *Engine) CreateCategory(ctx context.Context, name, color, icon string) (*model.Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, model.Invalid("name", "is required")
	}
	if color == "" {
		color = "#878580"
	}
	c := &model.Category{ID: uuid.New(), Name: name, Color: color, Icon: icon}
	if err := e.db.Queries().InsertCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
