package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
	"github.com/theirongolddev/grana/internal/store"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	t   *testing.T
	db  *store.DB
	svc *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := store.Open(context.Background(), store.Options{
		Driver: store.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "ledger.db"),
	})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &fixture{t: t, db: db, svc: New(db, func() time.Time { return testNow })}
}

func (f *fixture) account(owner, initial string) uuid.UUID {
	f.t.Helper()
	amt := money.MustParse(initial)
	a := &model.Account{ID: uuid.New(), Owner: owner, Name: "acct", Type: model.AccountChecking,
		InitialBalance: amt, CurrentBalance: amt, Active: true, CreatedAt: testNow}
	if err := f.db.Queries().InsertAccount(context.Background(), a); err != nil {
		f.t.Fatalf("InsertAccount: %v", err)
	}
	return a.ID
}

func (f *fixture) card(owner, limit string) uuid.UUID {
	f.t.Helper()
	amt := money.MustParse(limit)
	c := &model.CreditCard{ID: uuid.New(), Owner: owner, Name: "card", CreditLimit: amt, AvailableLimit: amt,
		ClosingDay: 1, DueDay: 10, Active: true, CreatedAt: testNow}
	if err := f.db.Queries().InsertCard(context.Background(), c); err != nil {
		f.t.Fatalf("InsertCard: %v", err)
	}
	return c.ID
}

func (f *fixture) balance(id uuid.UUID) string {
	f.t.Helper()
	a, err := f.db.Queries().Account(context.Background(), id)
	if err != nil {
		f.t.Fatalf("Account: %v", err)
	}
	return a.CurrentBalance.String()
}

func (f *fixture) available(id uuid.UUID) string {
	f.t.Helper()
	c, err := f.db.Queries().Card(context.Background(), id)
	if err != nil {
		f.t.Fatalf("Card: %v", err)
	}
	return c.AvailableLimit.String()
}

func (f *fixture) create(owner string, m model.Movement, amount string) *model.Transaction {
	f.t.Helper()
	tx, err := f.svc.Create(context.Background(), owner, input(m, amount))
	if err != nil {
		f.t.Fatalf("Create(%T %s): %v", m, amount, err)
	}
	return tx
}

func input(m model.Movement, amount string) model.TransactionInput {
	return model.TransactionInput{
		Movement:    m,
		Amount:      money.MustParse(amount),
		Description: "test transaction",
		Date:        model.Day(testNow),
	}
}

func viaAccount(id uuid.UUID) model.Instrument { return model.AccountRef{AccountID: id} }
func viaCard(id uuid.UUID) model.Instrument    { return model.CardRef{CardID: id} }

func TestScenarioA_AccountLifecycle(t *testing.T) {
	f := newFixture(t)
	acct := f.account("ana", "1000.00")

	income := f.create("ana", model.Income{Via: viaAccount(acct)}, "500.00")
	if got := f.balance(acct); got != "1500.00" {
		t.Fatalf("after income balance = %s, want 1500.00", got)
	}
	f.create("ana", model.Expense{Via: viaAccount(acct)}, "200.00")
	if got := f.balance(acct); got != "1300.00" {
		t.Fatalf("after expense balance = %s, want 1300.00", got)
	}
	if err := f.svc.Delete(context.Background(), income.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := f.balance(acct); got != "800.00" {
		t.Fatalf("after delete balance = %s, want 800.00", got)
	}
}

func TestScenarioB_CardLifecycle(t *testing.T) {
	f := newFixture(t)
	card := f.card("ana", "2000.00")

	first := f.create("ana", model.Expense{Via: viaCard(card)}, "300.00")
	if got := f.available(card); got != "1700.00" {
		t.Fatalf("available = %s, want 1700.00", got)
	}
	f.create("ana", model.Expense{Via: viaCard(card)}, "150.00")
	if got := f.available(card); got != "1550.00" {
		t.Fatalf("available = %s, want 1550.00", got)
	}
	if err := f.svc.Delete(context.Background(), first.ID); err != nil {
		t.Fatal(err)
	}
	if got := f.available(card); got != "1850.00" {
		t.Fatalf("available = %s, want 1850.00", got)
	}
}

func TestScenarioC_Transfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account("ana", "2000.00")
	b := f.account("ana", "500.00")

	tx, err := f.svc.CreateTransfer(ctx, TransferRequest{Owner: "ana", From: a, To: b, Amount: money.MustParse("300")})
	if err != nil {
		t.Fatalf("CreateTransfer: %v", err)
	}
	if tx.Kind() != model.KindTransfer || tx.Description != DefaultTransferDescription {
		t.Errorf("transfer tx = %+v", tx)
	}
	if got := f.balance(a); got != "1700.00" {
		t.Errorf("A = %s, want 1700.00", got)
	}
	if got := f.balance(b); got != "800.00" {
		t.Errorf("B = %s, want 800.00", got)
	}

	_, err = f.svc.CreateTransfer(ctx, TransferRequest{Owner: "ana", From: a, To: b, Amount: money.MustParse("5000")})
	var insufficient *model.InsufficientFundsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("oversized transfer err = %v, want InsufficientFundsError", err)
	}
	if insufficient.Balance != money.MustParse("1700") {
		t.Errorf("error balance = %s, want 1700.00", insufficient.Balance)
	}
	if f.balance(a) != "1700.00" || f.balance(b) != "800.00" {
		t.Errorf("balances changed after rejected transfer: %s, %s", f.balance(a), f.balance(b))
	}

	cat, err := f.db.Queries().Category(ctx, tx.CategoryID)
	if err != nil {
		t.Fatal(err)
	}
	if cat.Name != model.TransferCategory {
		t.Errorf("transfer category = %s", cat.Name)
	}
}

func TestTransferRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account("ana", "100")
	b := f.account("ana", "100")
	foreign := f.account("bob", "100")

	_, err := f.svc.CreateTransfer(ctx, TransferRequest{Owner: "ana", From: a, To: a, Amount: 100})
	var same *model.SameAccountError
	if !errors.As(err, &same) {
		t.Errorf("same account err = %v", err)
	}

	_, err = f.svc.CreateTransfer(ctx, TransferRequest{Owner: "ana", From: a, To: foreign, Amount: 100})
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("cross-owner err = %v, want ErrValidation", err)
	}

	_, err = f.svc.CreateTransfer(ctx, TransferRequest{Owner: "ana", From: a, To: uuid.New(), Amount: 100})
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("missing account err = %v, want ErrNotFound", err)
	}

	if err := f.db.Queries().SetAccountActive(ctx, b, false); err != nil {
		t.Fatal(err)
	}
	_, err = f.svc.CreateTransfer(ctx, TransferRequest{Owner: "ana", From: a, To: b, Amount: 100})
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("inactive account err = %v, want ErrValidation", err)
	}
}

func TestCardOverLimit(t *testing.T) {
	f := newFixture(t)
	card := f.card("ana", "100.00")

	_, err := f.svc.Create(context.Background(), "ana", input(model.Expense{Via: viaCard(card)}, "100.01"))
	var credit *model.InsufficientCreditError
	if !errors.As(err, &credit) || credit.Available != money.MustParse("100") {
		t.Fatalf("err = %v, want InsufficientCreditError with available 100.00", err)
	}
	// income on a card leaves the available limit alone
	f.create("ana", model.Income{Via: viaCard(card)}, "50")
	if got := f.available(card); got != "100.00" {
		t.Errorf("available = %s, want 100.00", got)
	}
}

func TestUpdateMovesBetweenInstruments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account("ana", "1000")
	b := f.account("ana", "1000")
	card := f.card("ana", "500")

	tx := f.create("ana", model.Expense{Via: viaAccount(a)}, "100")
	if _, err := f.svc.Update(ctx, tx.ID, input(model.Expense{Via: viaAccount(b)}, "250")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if f.balance(a) != "1000.00" || f.balance(b) != "750.00" {
		t.Fatalf("after move: a=%s b=%s", f.balance(a), f.balance(b))
	}

	updated, err := f.svc.Update(ctx, tx.ID, input(model.Expense{Via: viaCard(card)}, "40"))
	if err != nil {
		t.Fatalf("Update to card: %v", err)
	}
	if f.balance(b) != "1000.00" || f.available(card) != "460.00" {
		t.Fatalf("after card move: b=%s card=%s", f.balance(b), f.available(card))
	}

	in := input(model.Transfer{From: a, To: b}, "10")
	in.Tags = []string{"Moved", "moved"}
	updated, err = f.svc.Update(ctx, tx.ID, in)
	if err != nil {
		t.Fatalf("Update to transfer: %v", err)
	}
	if updated.Kind() != model.KindTransfer || len(updated.Tags) != 1 {
		t.Errorf("updated = %+v", updated)
	}
	if f.balance(a) != "990.00" || f.balance(b) != "1010.00" || f.available(card) != "500.00" {
		t.Fatalf("after transfer: a=%s b=%s card=%s", f.balance(a), f.balance(b), f.available(card))
	}
}

func TestUpdateFundsCheckReversesOldVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account("ana", "100")
	tx := f.create("ana", model.Expense{Via: viaAccount(a)}, "80")

	// the 80 already spent is available again to the edited version
	if _, err := f.svc.Update(ctx, tx.ID, input(model.Expense{Via: viaAccount(a)}, "100")); err != nil {
		t.Fatalf("Update to 100: %v", err)
	}
	_, err := f.svc.Update(ctx, tx.ID, input(model.Expense{Via: viaAccount(a)}, "100.01"))
	var insufficient *model.InsufficientFundsError
	if !errors.As(err, &insufficient) || insufficient.Balance != money.MustParse("100") {
		t.Fatalf("err = %v, want InsufficientFundsError with balance 100.00", err)
	}
	if got := f.balance(a); got != "0.00" {
		t.Errorf("balance = %s, want 0.00", got)
	}
}

func TestUpdateMissingTransaction(t *testing.T) {
	f := newFixture(t)
	a := f.account("ana", "100")
	_, err := f.svc.Update(context.Background(), uuid.New(), input(model.Income{Via: viaAccount(a)}, "1"))
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := f.svc.Delete(context.Background(), uuid.New()); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("delete err = %v, want ErrNotFound", err)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account("ana", "100")

	future := input(model.Income{Via: viaAccount(a)}, "1")
	future.Date = testNow.AddDate(0, 0, 1)
	if _, err := f.svc.Create(ctx, "ana", future); !errors.Is(err, model.ErrValidation) {
		t.Errorf("future date err = %v", err)
	}

	if _, err := f.svc.Create(ctx, "bob", input(model.Income{Via: viaAccount(a)}, "1")); !errors.Is(err, model.ErrValidation) {
		t.Errorf("cross-owner err = %v", err)
	}

	missingCat := uuid.New()
	in := input(model.Income{Via: viaAccount(a)}, "1")
	in.CategoryID = &missingCat
	if _, err := f.svc.Create(ctx, "ana", in); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("missing category err = %v", err)
	}

	txs, err := f.svc.List(ctx, model.TransactionFilter{Owner: "ana"})
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 0 || f.balance(a) != "100.00" {
		t.Errorf("rejected writes left state behind: %d txs, balance %s", len(txs), f.balance(a))
	}
}

func TestDeleteRestoresDerivedState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account("ana", "700")
	b := f.account("ana", "50")
	card := f.card("ana", "900")

	movements := []model.Movement{
		model.Income{Via: viaAccount(a)},
		model.Expense{Via: viaAccount(a)},
		model.Expense{Via: viaCard(card)},
		model.Transfer{From: a, To: b},
		model.Transfer{From: b, To: a},
	}
	for _, m := range movements {
		beforeA, beforeB, beforeCard := f.balance(a), f.balance(b), f.available(card)
		tx := f.create("ana", m, "42.17")
		if err := f.svc.Delete(ctx, tx.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if f.balance(a) != beforeA || f.balance(b) != beforeB || f.available(card) != beforeCard {
			t.Errorf("%T not restored: a=%s/%s b=%s/%s card=%s/%s", m,
				f.balance(a), beforeA, f.balance(b), beforeB, f.available(card), beforeCard)
		}
	}
}

func TestConcurrentExpensesNeverOverdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account("ana", "500")

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(ctx, "ana", input(model.Expense{Via: viaAccount(a)}, "100"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, model.ErrInsufficientFunds):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 5 {
		t.Errorf("%d expenses succeeded, want 5", ok)
	}
	if got := f.balance(a); got != "0.00" {
		t.Errorf("balance = %s, want 0.00", got)
	}
}

func TestConcurrentOppositeTransfers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account("ana", "1000")
	b := f.account("ana", "1000")

	const rounds = 20
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		from, to := a, b
		if i%2 == 1 {
			from, to = b, a
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateTransfer(ctx, TransferRequest{Owner: "ana", From: from, To: to, Amount: money.MustParse("10")})
			if err != nil {
				t.Errorf("transfer: %v", err)
			}
		}()
	}
	wg.Wait()

	if f.balance(a) != "1000.00" || f.balance(b) != "1000.00" {
		t.Errorf("balances = %s, %s; want 1000.00 each", f.balance(a), f.balance(b))
	}
	drifts, err := f.svc.ReconcileOwner(ctx, "ana")
	if err != nil {
		t.Fatal(err)
	}
	if len(drifts) != 0 {
		t.Errorf("drift after concurrent transfers: %v", drifts)
	}
}

func TestReconcileOwnerRepairsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account("ana", "100")
	f.create("ana", model.Income{Via: viaAccount(a)}, "20")

	if err := f.db.Queries().SetAccountBalance(ctx, a, money.MustParse("1")); err != nil {
		t.Fatal(err)
	}
	drifts, err := f.svc.ReconcileOwner(ctx, "ana")
	if err != nil {
		t.Fatal(err)
	}
	if len(drifts) != 1 || drifts[0].Cached != money.MustParse("1") || drifts[0].Ledger != money.MustParse("120") {
		t.Fatalf("drifts = %+v", drifts)
	}
	if got := f.balance(a); got != "120.00" {
		t.Errorf("balance = %s, want 120.00", got)
	}
}
