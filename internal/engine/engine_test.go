package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/grana/internal/config"
	"github.com/theirongolddev/grana/internal/goals"
	"github.com/theirongolddev/grana/internal/ledger"
	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
	"github.com/theirongolddev/grana/internal/store"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	db, err := store.Open(context.Background(), store.Options{
		Driver: store.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "engine.db"),
	})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	e := New(db, func() time.Time { return testNow })
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestOpen_FromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Database.DSN = filepath.Join(t.TempDir(), "nested", "grana.db")
	e, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close()

	cats, err := e.Categories(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != len(model.DefaultCategories) {
		t.Errorf("categories = %d, want %d", len(cats), len(model.DefaultCategories))
	}
}

func TestOpenAccountAndCard(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	a, err := e.OpenAccount(ctx, AccountInput{Owner: "ana", Name: " Main ", InitialBalance: money.MustParse("1000")})
	if err != nil {
		t.Fatalf("OpenAccount: %v", err)
	}
	if a.Name != "Main" || a.Type != model.AccountChecking || a.CurrentBalance != a.InitialBalance || !a.Active {
		t.Errorf("account = %+v", a)
	}
	if _, err := e.OpenAccount(ctx, AccountInput{Owner: "ana", Name: "x", Type: "crypto"}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("bad type: err = %v, want ErrValidation", err)
	}

	c, err := e.OpenCard(ctx, CardInput{Owner: "ana", Name: "Gold", Limit: money.MustParse("2000"), ClosingDay: 25, DueDay: 5})
	if err != nil {
		t.Fatalf("OpenCard: %v", err)
	}
	if c.AvailableLimit != c.CreditLimit {
		t.Errorf("available = %s, want %s", c.AvailableLimit, c.CreditLimit)
	}

	bad := []CardInput{
		{Owner: "ana", Name: "no limit", ClosingDay: 1, DueDay: 10},
		{Owner: "ana", Name: "short gap", Limit: 100, ClosingDay: 10, DueDay: 12},
		{Owner: "ana", Name: "bad day", Limit: 100, ClosingDay: 0, DueDay: 12},
		{Owner: "ana", Name: "  ", Limit: 100, ClosingDay: 1, DueDay: 10},
	}
	for _, in := range bad {
		if _, err := e.OpenCard(ctx, in); !errors.Is(err, model.ErrValidation) {
			t.Errorf("OpenCard(%q): err = %v, want ErrValidation", in.Name, err)
		}
	}
}

func TestBootstrap_Idempotent(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	first, err := e.Bootstrap(ctx, "ana")
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if first.Type != model.AccountCash || first.CurrentBalance != 0 {
		t.Errorf("cash account = %+v", first)
	}
	second, err := e.Bootstrap(ctx, "ana")
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Error("Bootstrap created a second cash account")
	}
	accts, err := e.Accounts(ctx, "ana")
	if err != nil {
		t.Fatal(err)
	}
	if len(accts) != 1 {
		t.Errorf("accounts = %d, want 1", len(accts))
	}
}

func TestInactiveAccountRejectsTransactions(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	a, err := e.OpenAccount(ctx, AccountInput{Owner: "ana", Name: "old", InitialBalance: 100})
	if err != nil {
		t.Fatal(err)
	}
	if got, err := e.SetAccountActive(ctx, a.ID, false); err != nil || got.Active {
		t.Fatalf("SetAccountActive = %+v, %v", got, err)
	}

	_, err = e.CreateTransaction(ctx, "ana", model.TransactionInput{
		Movement:    model.Income{Via: model.AccountRef{AccountID: a.ID}},
		Amount:      50,
		Description: "refund",
		Date:        e.Today(),
	})
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("income on inactive account: err = %v, want ErrValidation", err)
	}
}

func TestEndToEnd(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	checking, err := e.OpenAccount(ctx, AccountInput{Owner: "ana", Name: "checking", InitialBalance: money.MustParse("3000")})
	if err != nil {
		t.Fatal(err)
	}
	savings, err := e.OpenAccount(ctx, AccountInput{Owner: "ana", Name: "savings", Type: model.AccountSavings})
	if err != nil {
		t.Fatal(err)
	}
	food, err := e.CategoryByName(ctx, "food")
	if err != nil {
		t.Fatal(err)
	}

	b, err := e.CreateBudget(ctx, "ana", food.ID, e.Today(), money.MustParse("1000"))
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
	if _, err := e.CreateTransaction(ctx, "ana", model.TransactionInput{
		Movement:    model.Expense{Via: model.AccountRef{AccountID: checking.ID}},
		Amount:      money.MustParse("950"),
		Description: "groceries",
		CategoryID:  &food.ID,
		Date:        model.Date(2026, time.March, 1),
		Tags:        []string{"Market", "market"},
	}); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if _, err := e.CreateTransfer(ctx, ledger.TransferRequest{
		Owner: "ana", From: checking.ID, To: savings.ID, Amount: money.MustParse("500"),
	}); err != nil {
		t.Fatalf("CreateTransfer: %v", err)
	}

	m, err := e.BudgetMetrics(ctx, "ana", food.ID, e.Today())
	if err != nil {
		t.Fatal(err)
	}
	if m.Spent != money.MustParse("950") || m.AlertLevel != model.LevelHigh {
		t.Errorf("metrics spent=%s level=%s", m.Spent, m.AlertLevel)
	}
	alerts, err := e.GenerateBudgetAlerts(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) == 0 || alerts[0].Type != model.AlertNearLimit {
		t.Errorf("alerts = %+v", alerts)
	}

	g, err := e.CreateGoal(ctx, goals.GoalInput{Owner: "ana", Name: "trip", Target: money.MustParse("2000"),
		TargetDate: model.Date(2026, time.September, 1)})
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.ContributeToGoal(ctx, g.ID, goals.ContributionInput{Amount: money.MustParse("500"), SourceAccount: &savings.ID})
	if err != nil {
		t.Fatal(err)
	}
	if res.Achieved || res.Goal.CurrentAmount != money.MustParse("500") {
		t.Errorf("contribution result = %+v", res)
	}

	acct, err := e.Account(ctx, checking.ID)
	if err != nil {
		t.Fatal(err)
	}
	if acct.CurrentBalance != money.MustParse("1550") {
		t.Errorf("checking balance = %s, want 1550.00", acct.CurrentBalance)
	}
	drifts, err := e.Reconcile(ctx, "ana")
	if err != nil {
		t.Fatal(err)
	}
	if len(drifts) != 0 {
		t.Errorf("drifts = %v, want none", drifts)
	}
	tags, err := e.TagUsage(ctx, "ana", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 1 || tags[0].Tag != "market" || tags[0].Count != 1 {
		t.Errorf("tags = %+v", tags)
	}
}

func TestCreateCategory(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	c, err := e.CreateCategory(ctx, " Pets ", "", "pets")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if c.Name != "pets" || c.IsDefault {
		t.Errorf("category = %+v", c)
	}
	if _, err := e.CreateCategory(ctx, "PETS", "", ""); !errors.Is(err, model.ErrIntegrity) {
		t.Errorf("duplicate: err = %v, want ErrIntegrity", err)
	}
	if _, err := e.CreateCategory(ctx, "", "", ""); !errors.Is(err, model.ErrValidation) {
		t.Errorf("empty: err = %v, want ErrValidation", err)
	}
}

func TestBillPaidFromAccount(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	acct, err := e.OpenAccount(ctx, AccountInput{Owner: "ana", Name: "Main", InitialBalance: money.MustParse("2000")})
	if err != nil {
		t.Fatal(err)
	}
	card, err := e.OpenCard(ctx, CardInput{Owner: "ana", Name: "Visa", Limit: money.MustParse("3000"), ClosingDay: 5, DueDay: 12})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.CreateTransaction(ctx, "ana", model.TransactionInput{
		Movement:    model.Expense{Via: model.CardRef{CardID: card.ID}},
		Amount:      money.MustParse("450"),
		Description: "groceries",
		Date:        model.Date(2026, time.March, 2),
	}); err != nil {
		t.Fatal(err)
	}

	bill, err := e.OpenBill(ctx, card.ID, model.Date(2026, time.March, 1))
	if err != nil {
		t.Fatalf("OpenBill: %v", err)
	}
	if bill.Total != money.MustParse("450") || !bill.DueDate.Equal(model.Date(2026, time.March, 12)) {
		t.Fatalf("bill total=%s due=%s", bill.Total, bill.DueDate.Format(model.DateLayout))
	}
	if _, err := e.CloseBill(ctx, bill.ID); err != nil {
		t.Fatalf("CloseBill: %v", err)
	}
	overdue, err := e.OverdueBills(ctx, "ana")
	if err != nil || len(overdue) != 1 {
		t.Fatalf("OverdueBills = %v, %v", overdue, err)
	}

	paid, tx, err := e.PayBill(ctx, bill.ID, model.BillPayment{Amount: bill.Total, From: &acct.ID})
	if err != nil {
		t.Fatalf("PayBill: %v", err)
	}
	if paid.Status != model.BillPaid || tx == nil {
		t.Fatalf("status=%s tx=%v", paid.Status, tx)
	}
	a, err := e.Account(ctx, acct.ID)
	if err != nil {
		t.Fatal(err)
	}
	if a.CurrentBalance != money.MustParse("1550") {
		t.Errorf("balance = %s, want 1550.00", a.CurrentBalance)
	}
	upcoming, err := e.UpcomingBills(ctx, "ana", model.UpcomingBillDays)
	if err != nil || len(upcoming) != 0 {
		t.Errorf("UpcomingBills after payment = %v, %v", upcoming, err)
	}
}
