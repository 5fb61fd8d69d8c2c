package tui

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/grana/internal/engine"
	"github.com/theirongolddev/grana/internal/goals"
	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
	"github.com/theirongolddev/grana/internal/store"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	db, err := store.Open(context.Background(), store.Options{
		Driver: store.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "tui.db"),
	})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	e := engine.New(db, func() time.Time { return testNow })
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func addTx(t *testing.T, e *engine.Engine, m model.Movement, amount string, day time.Time) {
	t.Helper()
	_, err := e.CreateTransaction(context.Background(), "ana", model.TransactionInput{
		Movement:    m,
		Amount:      money.MustParse(amount),
		Description: "test entry",
		Date:        day,
	})
	if err != nil {
		t.Fatalf("CreateTransaction(%s): %v", amount, err)
	}
}

func TestLoadSnapshot(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	acc, err := e.OpenAccount(ctx, engine.AccountInput{Owner: "ana", Name: "Main", InitialBalance: money.MustParse("1000")})
	if err != nil {
		t.Fatal(err)
	}
	card, err := e.OpenCard(ctx, engine.CardInput{Owner: "ana", Name: "Gold", Limit: money.MustParse("2000"), ClosingDay: 25, DueDay: 5})
	if err != nil {
		t.Fatal(err)
	}
	viaAcc := model.AccountRef{AccountID: acc.ID}
	addTx(t, e, model.Income{Via: viaAcc}, "500", model.Date(2026, time.March, 1))
	addTx(t, e, model.Expense{Via: viaAcc}, "100", model.Date(2026, time.March, 10))
	addTx(t, e, model.Expense{Via: model.CardRef{CardID: card.ID}}, "300", model.Date(2026, time.February, 20))

	if _, err := e.CreateGoal(ctx, goals.GoalInput{
		Owner: "ana", Name: "Trip", Target: money.MustParse("1200"), TargetDate: model.Date(2026, time.December, 1),
	}); err != nil {
		t.Fatal(err)
	}

	bill, err := e.OpenBill(ctx, card.ID, model.Date(2026, time.February, 1))
	if err != nil {
		t.Fatal(err)
	}

	s, err := loadSnapshot(ctx, e, "ana", model.Date(2026, time.March, 1))
	if err != nil {
		t.Fatalf("loadSnapshot: %v", err)
	}
	if len(s.bills) != 1 || s.bills[0].ID != bill.ID || !s.bills[0].IsOverdue(s.today) {
		t.Errorf("bills = %+v, want the overdue February bill", s.bills)
	}

	if got, want := s.netWorth(), money.MustParse("1100"); got != want {
		t.Errorf("netWorth = %s, want %s", got, want)
	}
	if s.monthIncome != money.MustParse("500") || s.monthExpense != money.MustParse("100") {
		t.Errorf("month income/expense = %s/%s, want 500.00/100.00", s.monthIncome, s.monthExpense)
	}
	if len(s.dailyExpense) != 31 || s.dailyExpense[9] != 100 {
		t.Errorf("dailyExpense = %v, want 31 days with 100 on day 10", s.dailyExpense)
	}
	if len(s.txs) != 3 {
		t.Errorf("txs = %d, want 3", len(s.txs))
	}
	if len(s.goals) != 1 || s.goals[0].progress.Remaining != money.MustParse("1200") {
		t.Errorf("goals = %+v", s.goals)
	}
	if s.name(acc.ID) != "Main" || s.name(card.ID) != "Gold" {
		t.Errorf("names = %v", s.names)
	}
	if got := s.via(model.Expense{Via: model.CardRef{CardID: card.ID}}); got != "Gold (card)" {
		t.Errorf("via = %q", got)
	}
}

func TestNetWorth_SkipsClosedAccounts(t *testing.T) {
	s := snapshot{
		accounts: []model.Account{
			{Name: "open", CurrentBalance: 5000, Active: true},
			{Name: "closed", CurrentBalance: 9900, Active: false},
		},
		cards: []model.CreditCard{{CreditLimit: 3000, AvailableLimit: 2000}},
	}
	if got := s.netWorth(); got != 4000 {
		t.Errorf("netWorth = %s, want 40.00", got)
	}
}

func TestTxRows_SignsAmounts(t *testing.T) {
	s := snapshot{
		txs: []model.Transaction{
			{Movement: model.Income{Via: model.AccountRef{}}, Amount: 1000, Date: testNow},
			{Movement: model.Expense{Via: model.AccountRef{}}, Amount: 250, Date: testNow},
			{Movement: model.Transfer{}, Amount: 700, Date: testNow, Tags: []string{"a", "b"}},
		},
	}
	rows := txRows(s)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	for i, want := range []string{"+", "-", ""} {
		got := rows[i][2]
		if want != "" && got[:1] != want {
			t.Errorf("row %d amount = %q, want prefix %q", i, got, want)
		}
	}
	if rows[2][6] != "a,b" {
		t.Errorf("tags = %q, want a,b", rows[2][6])
	}
}
