package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/budget"
	"github.com/theirongolddev/grana/internal/engine"
	"github.com/theirongolddev/grana/internal/goals"
	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
)

// recentLimit caps the transactions loaded for the transactions tab.
const recentLimit = 200

// snapshot is everything the dashboard renders, loaded in one pass.
type snapshot struct {
	accounts []model.Account
	cards    []model.CreditCard
	txs      []model.Transaction
	overview budget.Overview
	alerts   []model.BudgetAlert
	goals    []goalRow
	bills    []model.CreditCardBill // unpaid, due within a week
	today    time.Time

	// Month totals over txs dated in the selected month.
	monthIncome  money.Amount
	monthExpense money.Amount
	dailyExpense []float64 // index 0 is day 1

	names map[uuid.UUID]string // categories, accounts and cards
}

type goalRow struct {
	goal     model.Goal
	progress goals.Progress
	pace     goals.Pace
}

// netWorth is active account balances minus card debt.
func (s snapshot) netWorth() money.Amount {
	var total money.Amount
	for _, a := range s.accounts {
		if a.Active {
			total += a.CurrentBalance
		}
	}
	for _, c := range s.cards {
		total -= c.UsedLimit()
	}
	return total
}

func (s snapshot) name(id uuid.UUID) string {
	if n, ok := s.names[id]; ok {
		return n
	}
	return id.String()[:8]
}

// DataLoadedMsg carries a freshly loaded snapshot.
type DataLoadedMsg struct {
	data     snapshot
	err      error
	loadTime time.Duration
}

// loadDataCmd loads a snapshot in the background, first re-evaluating the
// month's budget alerts when checkAlerts is set.
func loadDataCmd(e *engine.Engine, owner string, month time.Time, checkAlerts bool) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if checkAlerts {
			if _, err := e.GenerateAllAlerts(ctx, owner, month); err != nil {
				return DataLoadedMsg{err: err, loadTime: time.Since(start)}
			}
		}
		data, err := loadSnapshot(ctx, e, owner, month)
		return DataLoadedMsg{data: data, err: err, loadTime: time.Since(start)}
	}
}

func loadSnapshot(ctx context.Context, e *engine.Engine, owner string, month time.Time) (snapshot, error) {
	s := snapshot{names: make(map[uuid.UUID]string)}
	var err error

	if s.accounts, err = e.Accounts(ctx, owner); err != nil {
		return s, err
	}
	if s.cards, err = e.Cards(ctx, owner); err != nil {
		return s, err
	}
	cats, err := e.Categories(ctx)
	if err != nil {
		return s, err
	}
	for _, c := range cats {
		s.names[c.ID] = c.Name
	}
	for _, a := range s.accounts {
		s.names[a.ID] = a.Name
	}
	for _, c := range s.cards {
		s.names[c.ID] = c.Name
	}

	if s.txs, err = e.Transactions(ctx, model.TransactionFilter{Owner: owner, Limit: recentLimit}); err != nil {
		return s, err
	}
	monthTxs, err := e.Transactions(ctx, model.TransactionFilter{
		Owner: owner,
		From:  model.MonthStart(month),
		To:    model.NextMonth(month).AddDate(0, 0, -1),
	})
	if err != nil {
		return s, err
	}
	s.dailyExpense = make([]float64, model.DaysIn(month))
	for _, t := range monthTxs {
		switch t.Kind() {
		case model.KindIncome:
			s.monthIncome += t.Amount
		case model.KindExpense:
			s.monthExpense += t.Amount
			s.dailyExpense[t.Date.Day()-1] += t.Amount.Decimal().InexactFloat64()
		}
	}

	if s.overview, err = e.MonthOverview(ctx, owner, month); err != nil {
		return s, err
	}
	if s.alerts, err = e.ActiveAlerts(ctx, owner); err != nil {
		return s, err
	}
	if s.bills, err = e.UpcomingBills(ctx, owner, model.UpcomingBillDays); err != nil {
		return s, err
	}
	s.today = e.Today()

	list, err := e.Goals(ctx, owner)
	if err != nil {
		return s, err
	}
	today := e.Today()
	for _, g := range list {
		s.goals = append(s.goals, goalRow{
			goal:     g,
			progress: goals.ProgressOf(g, today),
			pace:     goals.PaceOf(g, today),
		})
	}
	return s, nil
}
