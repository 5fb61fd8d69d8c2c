package budget

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/logger"
	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
	"github.com/theirongolddev/grana/internal/store"
)

// Service loads budgets, analyzes them and reconciles their alerts.
type Service struct {
	db  *store.DB
	now func() time.Time
}

// New returns a budget service. now defaults to time.Now.
func New(db *store.DB, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{db: db, now: now}
}

func (s *Service) today() time.Time { return model.Day(s.now().UTC()) }

// Create sets a budget for (owner, category, month). A second budget for the
// same key is an IntegrityError.
func (s *Service) Create(ctx context.Context, owner string, categoryID uuid.UUID, month time.Time, amount money.Amount) (*model.Budget, error) {
	if !amount.IsPositive() {
		return nil, model.Invalid("amount", "must be greater than zero")
	}
	if month.IsZero() {
		return nil, model.Invalid("month", "is required")
	}
	q := s.db.Queries()
	if _, err := q.Category(ctx, categoryID); err != nil {
		return nil, err
	}
	b := &model.Budget{
		ID:         uuid.New(),
		Owner:      owner,
		CategoryID: categoryID,
		Amount:     amount,
		Month:      model.MonthStart(month),
		CreatedAt:  s.now().UTC(),
	}
	if err := q.InsertBudget(ctx, b); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info().Str("budget", b.ID.String()).
		Str("month", b.Month.Format(model.MonthLayout)).Str("amount", logger.MaskAmount(amount)).Msg("budget created")
	return b, nil
}

// SetAmount changes a budget's cap.
func (s *Service) SetAmount(ctx context.Context, id uuid.UUID, amount money.Amount) (*model.Budget, error) {
	if !amount.IsPositive() {
		return nil, model.Invalid("amount", "must be greater than zero")
	}
	var b *model.Budget
	err := s.db.WithTx(ctx, func(q *store.Queries) error {
		if err := q.LockBudget(ctx, id); err != nil {
			return err
		}
		if err := q.UpdateBudgetAmount(ctx, id, amount); err != nil {
			return err
		}
		var err error
		b, err = q.Budget(ctx, id)
		return err
	})
	return b, err
}

// List returns an owner's budgets for a month.
func (s *Service) List(ctx context.Context, owner string, month time.Time) ([]model.Budget, error) {
	return s.db.Queries().Budgets(ctx, owner, month)
}

// Metrics analyzes the budget of (owner, category, month).
func (s *Service) Metrics(ctx context.Context, owner string, categoryID uuid.UUID, month time.Time) (Metrics, error) {
	q := s.db.Queries()
	b, err := q.BudgetFor(ctx, owner, categoryID, month)
	if err != nil {
		return Metrics{}, err
	}
	return s.analyze(ctx, q, *b)
}

// MetricsByID analyzes one budget.
func (s *Service) MetricsByID(ctx context.Context, id uuid.UUID) (Metrics, error) {
	q := s.db.Queries()
	b, err := q.Budget(ctx, id)
	if err != nil {
		return Metrics{}, err
	}
	return s.analyze(ctx, q, *b)
}

func (s *Service) analyze(ctx context.Context, q *store.Queries, b model.Budget) (Metrics, error) {
	month := model.MonthStart(b.Month)
	days, err := q.ExpenseByDay(ctx, b.Owner, b.CategoryID, month, model.NextMonth(month))
	if err != nil {
		return Metrics{}, err
	}
	daily := make(DailySpend, len(days))
	for _, d := range days {
		daily[d.Date.Day()] += d.Amount
	}
	return Analyze(b, daily, s.today()), nil
}

// Overview aggregates every budget of one month.
type Overview struct {
	Month       time.Time
	Budgets     []Metrics
	TotalBudget money.Amount
	TotalSpent  money.Amount
	OverBudget  int
	NearLimit   int
}

// Percentage is total spent over total budgeted, in percent.
func (o Overview) Percentage() float64 {
	if o.TotalBudget <= 0 {
		return 0
	}
	return float64(o.TotalSpent) / float64(o.TotalBudget) * 100
}

// MonthOverview analyzes every budget an owner set for month, highest usage first.
func (s *Service) MonthOverview(ctx context.Context, owner string, month time.Time) (Overview, error) {
	q := s.db.Queries()
	budgets, err := q.Budgets(ctx, owner, month)
	if err != nil {
		return Overview{}, err
	}
	ov := Overview{Month: model.MonthStart(month)}
	for _, b := range budgets {
		m, err := s.analyze(ctx, q, b)
		if err != nil {
			return Overview{}, err
		}
		ov.Budgets = append(ov.Budgets, m)
		ov.TotalBudget += b.Amount
		ov.TotalSpent += m.Spent
		switch {
		case m.OverBudget:
			ov.OverBudget++
		case m.percentAtLeast(80):
			ov.NearLimit++
		}
	}
	sort.SliceStable(ov.Budgets, func(i, j int) bool {
		return ov.Budgets[i].Percentage > ov.Budgets[j].Percentage
	})
	return ov, nil
}

// GenerateAlerts reconciles the persisted alerts of one budget with its
// current metrics, under the budget row lock. For each alert type it creates
// or refreshes the active alert when the trigger holds and resolves it
// otherwise. It returns the active alerts afterwards, ordered by type, and is
// idempotent.
func (s *Service) GenerateAlerts(ctx context.Context, budgetID uuid.UUID) ([]model.BudgetAlert, error) {
	log := logger.FromContext(ctx)
	var result []model.BudgetAlert
	err := s.db.WithTx(ctx, func(q *store.Queries) error {
		if err := q.LockBudget(ctx, budgetID); err != nil {
			return err
		}
		b, err := q.Budget(ctx, budgetID)
		if err != nil {
			return err
		}
		m, err := s.analyze(ctx, q, *b)
		if err != nil {
			return err
		}
		active, err := q.ActiveAlertsForBudget(ctx, budgetID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		want := Triggers(m)
		result = result[:0]
		for _, typ := range model.AlertTypes {
			existing, has := active[typ]
			trig, fire := want[typ]
			switch {
			case fire && !has:
				a := model.BudgetAlert{
					ID: uuid.New(), BudgetID: budgetID, Type: typ, Level: trig.Level,
					Message: trig.Message, Active: true, CreatedAt: now,
				}
				if err := q.InsertAlert(ctx, &a); err != nil {
					return err
				}
				log.Info().Str("budget", budgetID.String()).Str("alert", string(typ)).Msg("alert raised")
				result = append(result, a)
			case fire && has:
				if existing.Level != trig.Level || existing.Message != trig.Message {
					if err := q.RefreshAlert(ctx, existing.ID, trig.Level, trig.Message); err != nil {
						return err
					}
					existing.Level, existing.Message = trig.Level, trig.Message
				}
				result = append(result, existing)
			case !fire && has:
				if err := q.ResolveAlert(ctx, existing.ID, now); err != nil {
					return err
				}
				log.Info().Str("budget", budgetID.String()).Str("alert", string(typ)).Msg("alert resolved")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GenerateAllAlerts runs GenerateAlerts for every budget of owner in month.
func (s *Service) GenerateAllAlerts(ctx context.Context, owner string, month time.Time) (map[uuid.UUID][]model.BudgetAlert, error) {
	budgets, err := s.db.Queries().Budgets(ctx, owner, month)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID][]model.BudgetAlert, len(budgets))
	for _, b := range budgets {
		alerts, err := s.GenerateAlerts(ctx, b.ID)
		if err != nil {
			return out, err
		}
		out[b.ID] = alerts
	}
	return out, nil
}

// ResolveAlert deactivates one alert by hand. The next GenerateAlerts raises
// it again if its condition still holds.
func (s *Service) ResolveAlert(ctx context.Context, alertID uuid.UUID) (*model.BudgetAlert, error) {
	var out *model.BudgetAlert
	err := s.db.WithTx(ctx, func(q *store.Queries) error {
		a, err := q.Alert(ctx, alertID)
		if err != nil {
			return err
		}
		if err := q.LockBudget(ctx, a.BudgetID); err != nil {
			return err
		}
		if err := q.ResolveAlert(ctx, alertID, s.now().UTC()); err != nil {
			return err
		}
		out, err = q.Alert(ctx, alertID)
		return err
	})
	return out, err
}

// ActiveAlerts lists an owner's active alerts.
func (s *Service) ActiveAlerts(ctx context.Context, owner string) ([]model.BudgetAlert, error) {
	return s.db.Queries().ActiveAlerts(ctx, owner)
}
