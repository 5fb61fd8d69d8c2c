package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
)

// billingCard closes on the 10th and is due on the 20th.
func (f *fixture) billingCard(owner string) uuid.UUID {
	f.t.Helper()
	amt := money.MustParse("5000.00")
	c := &model.CreditCard{ID: uuid.New(), Owner: owner, Name: "visa", CreditLimit: amt, AvailableLimit: amt,
		ClosingDay: 10, DueDay: 20, Active: true, CreatedAt: testNow}
	if err := f.db.Queries().InsertCard(context.Background(), c); err != nil {
		f.t.Fatalf("InsertCard: %v", err)
	}
	return c.ID
}

func (f *fixture) charge(owner string, card uuid.UUID, amount, date string) {
	f.t.Helper()
	in := input(model.Expense{Via: viaCard(card)}, amount)
	d, err := model.ParseDate(date)
	if err != nil {
		f.t.Fatal(err)
	}
	in.Date = d
	if _, err := f.svc.Create(context.Background(), owner, in); err != nil {
		f.t.Fatalf("Create(charge %s on %s): %v", amount, date, err)
	}
}

func (f *fixture) openBill(card uuid.UUID, month string) *model.CreditCardBill {
	f.t.Helper()
	m, err := model.ParseMonth(month)
	if err != nil {
		f.t.Fatal(err)
	}
	b, err := f.svc.OpenBill(context.Background(), card, m)
	if err != nil {
		f.t.Fatalf("OpenBill(%s): %v", month, err)
	}
	return b
}

func TestOpenBill_TotalsTheCycle(t *testing.T) {
	f := newFixture(t)
	card := f.billingCard("ana")
	f.charge("ana", card, "10.00", "2026-01-10") // previous cycle
	f.charge("ana", card, "100.00", "2026-01-11")
	f.charge("ana", card, "200.00", "2026-02-10")
	f.charge("ana", card, "40.00", "2026-02-11") // next cycle
	in := input(model.Income{Via: viaCard(card)}, "75.00")
	in.Date = model.Date(2026, 2, 1)
	if _, err := f.svc.Create(context.Background(), "ana", in); err != nil {
		t.Fatalf("card income: %v", err)
	}

	b := f.openBill(card, "2026-02")
	got := []string{
		b.PeriodStart.Format(model.DateLayout),
		b.ClosingDate.Format(model.DateLayout),
		b.DueDate.Format(model.DateLayout),
		b.Total.String(),
		string(b.Status),
	}
	want := []string{"2026-01-11", "2026-02-10", "2026-02-20", "300.00", "open"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bill mismatch (-want +got):\n%s", diff)
	}

	// bills do not touch the available limit
	if got := f.available(card); got != "4650.00" {
		t.Errorf("available = %s, want 4650.00", got)
	}

	if _, err := f.svc.OpenBill(context.Background(), card, model.Date(2026, 2, 17)); !errors.Is(err, model.ErrIntegrity) {
		t.Errorf("second bill for the month: err = %v, want ErrIntegrity", err)
	}
	if _, err := f.svc.OpenBill(context.Background(), uuid.New(), model.Date(2026, 2, 1)); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("unknown card: err = %v, want ErrNotFound", err)
	}
}

func TestRefreshBill_PicksUpLateCharges(t *testing.T) {
	f := newFixture(t)
	card := f.billingCard("ana")
	b := f.openBill(card, "2026-03")
	if b.Total != 0 {
		t.Fatalf("empty cycle total = %s", b.Total)
	}

	f.charge("ana", card, "55.50", "2026-03-01")
	got, err := f.svc.RefreshBill(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("RefreshBill: %v", err)
	}
	if got.Total != money.MustParse("55.50") {
		t.Errorf("Total = %s, want 55.50", got.Total)
	}
	stored, err := f.svc.Bill(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("Bill: %v", err)
	}
	if stored.Total != got.Total {
		t.Errorf("stored total = %s, want %s", stored.Total, got.Total)
	}
}

func TestCloseBill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	card := f.billingCard("ana")

	// March closes on the 10th, before testNow; April has not closed yet
	mar := f.openBill(card, "2026-03")
	apr := f.openBill(card, "2026-04")
	f.charge("ana", card, "80.00", "2026-03-02")

	closed, err := f.svc.CloseBill(ctx, mar.ID)
	if err != nil {
		t.Fatalf("CloseBill: %v", err)
	}
	if closed.Status != model.BillClosed || closed.Total != money.MustParse("80.00") {
		t.Errorf("closed bill: status=%s total=%s", closed.Status, closed.Total)
	}
	if _, err := f.svc.CloseBill(ctx, mar.ID); !errors.Is(err, model.ErrValidation) {
		t.Errorf("closing twice: err = %v, want ErrValidation", err)
	}
	if _, err := f.svc.CloseBill(ctx, apr.ID); !errors.Is(err, model.ErrValidation) {
		t.Errorf("closing early: err = %v, want ErrValidation", err)
	}
	if _, err := f.svc.CloseBill(ctx, uuid.New()); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("unknown bill: err = %v, want ErrNotFound", err)
	}
}

func TestPayBill_FromAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	card := f.billingCard("ana")
	acct := f.account("ana", "1000.00")
	f.charge("ana", card, "300.00", "2026-02-01")
	b := f.openBill(card, "2026-02")

	paid, tx, err := f.svc.PayBill(ctx, b.ID, model.BillPayment{Amount: money.MustParse("100.00"), From: &acct})
	if err != nil {
		t.Fatalf("PayBill: %v", err)
	}
	if paid.Paid != money.MustParse("100.00") || paid.Status != model.BillOpen || paid.Remaining() != money.MustParse("200.00") {
		t.Errorf("after partial payment: paid=%s status=%s remaining=%s", paid.Paid, paid.Status, paid.Remaining())
	}
	if tx == nil {
		t.Fatal("payment from an account posted no transaction")
	}
	if tx.Kind() != model.KindExpense || tx.Description != "Card bill payment visa - 02/2026" || !tx.Date.Equal(model.Day(testNow)) {
		t.Errorf("posted %s %q on %s", tx.Kind(), tx.Description, tx.Date.Format(model.DateLayout))
	}
	if got := f.balance(acct); got != "900.00" {
		t.Errorf("balance = %s, want 900.00", got)
	}

	if _, _, err := f.svc.PayBill(ctx, b.ID, model.BillPayment{Amount: money.MustParse("200.01")}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("overpayment: err = %v, want ErrValidation", err)
	}

	paid, tx, err = f.svc.PayBill(ctx, b.ID, model.BillPayment{Amount: money.MustParse("200.00")})
	if err != nil {
		t.Fatalf("PayBill rest: %v", err)
	}
	if tx != nil {
		t.Errorf("payment without an account posted %v", tx.ID)
	}
	if paid.Status != model.BillPaid || paid.Remaining() != 0 {
		t.Errorf("after full payment: status=%s remaining=%s", paid.Status, paid.Remaining())
	}
	if got := f.balance(acct); got != "900.00" {
		t.Errorf("balance after off-ledger payment = %s, want 900.00", got)
	}
	if _, _, err := f.svc.PayBill(ctx, b.ID, model.BillPayment{Amount: money.MustParse("1.00")}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("paying a paid bill: err = %v, want ErrValidation", err)
	}
}

func TestPayBill_RejectionsLeaveBillUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	card := f.billingCard("ana")
	poor := f.account("ana", "50.00")
	foreign := f.account("bia", "1000.00")
	f.charge("ana", card, "100.00", "2026-02-01")
	b := f.openBill(card, "2026-02")
	hundred := money.MustParse("100.00")

	tests := []struct {
		name string
		p    model.BillPayment
		want error
	}{
		{"insufficient funds", model.BillPayment{Amount: hundred, From: &poor}, model.ErrInsufficientFunds},
		{"another owner's account", model.BillPayment{Amount: hundred, From: &foreign}, model.ErrValidation},
		{"zero amount", model.BillPayment{Amount: 0}, model.ErrValidation},
		{"future date", model.BillPayment{Amount: hundred, Date: model.Day(testNow).AddDate(0, 0, 1)}, model.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := f.svc.PayBill(ctx, b.ID, tt.p); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	got, err := f.svc.Bill(ctx, b.ID)
	if err != nil {
		t.Fatalf("Bill: %v", err)
	}
	if got.Paid != 0 || got.Status != model.BillOpen {
		t.Errorf("bill changed: paid=%s status=%s", got.Paid, got.Status)
	}
	if f.balance(poor) != "50.00" || f.balance(foreign) != "1000.00" {
		t.Errorf("balances changed: %s %s", f.balance(poor), f.balance(foreign))
	}
}

func TestUpcomingAndOverdueBills(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	card := f.billingCard("ana")
	feb := f.openBill(card, "2026-02") // due Feb 20, overdue at testNow
	mar := f.openBill(card, "2026-03") // due Mar 20, in 5 days
	f.openBill(card, "2026-04")        // due Apr 20
	f.openBill(f.billingCard("bia"), "2026-02")

	ids := func(bills []model.CreditCardBill) []uuid.UUID {
		out := make([]uuid.UUID, len(bills))
		for i, b := range bills {
			out[i] = b.ID
		}
		return out
	}

	upcoming, err := f.svc.UpcomingBills(ctx, "ana", model.UpcomingBillDays)
	if err != nil {
		t.Fatalf("UpcomingBills: %v", err)
	}
	if diff := cmp.Diff([]uuid.UUID{feb.ID, mar.ID}, ids(upcoming)); diff != "" {
		t.Errorf("upcoming (-want +got):\n%s", diff)
	}
	overdue, err := f.svc.OverdueBills(ctx, "ana")
	if err != nil {
		t.Fatalf("OverdueBills: %v", err)
	}
	if diff := cmp.Diff([]uuid.UUID{feb.ID}, ids(overdue)); diff != "" {
		t.Errorf("overdue (-want +got):\n%s", diff)
	}
	if got := overdue[0].StatusAt(testNow); got != model.BillOverdue {
		t.Errorf("StatusAt = %s, want overdue", got)
	}
	if got := mar.DaysUntilDue(testNow); got != 5 {
		t.Errorf("DaysUntilDue = %d, want 5", got)
	}

	// a paid bill is neither upcoming nor overdue
	if _, _, err := f.svc.PayBill(ctx, feb.ID, model.BillPayment{Amount: 1}); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("paying an empty bill: err = %v, want ErrValidation", err)
	}
	f.charge("ana", card, "20.00", "2026-02-05")
	if _, _, err := f.svc.PayBill(ctx, feb.ID, model.BillPayment{Amount: money.MustParse("20.00")}); err != nil {
		t.Fatalf("PayBill: %v", err)
	}
	overdue, err = f.svc.OverdueBills(ctx, "ana")
	if err != nil {
		t.Fatalf("OverdueBills: %v", err)
	}
	if len(overdue) != 0 {
		t.Errorf("overdue after payment = %v", ids(overdue))
	}

	if _, err := f.svc.UpcomingBills(ctx, "ana", -1); !errors.Is(err, model.ErrValidation) {
		t.Errorf("negative days: err = %v, want ErrValidation", err)
	}
}

func TestCardBills_NewestFirst(t *testing.T) {
	f := newFixture(t)
	card := f.billingCard("ana")
	jan := f.openBill(card, "2026-01")
	mar := f.openBill(card, "2026-03")
	feb := f.openBill(card, "2026-02")

	bills, err := f.svc.CardBills(context.Background(), card)
	if err != nil {
		t.Fatalf("CardBills: %v", err)
	}
	var got []uuid.UUID
	for _, b := range bills {
		got = append(got, b.ID)
	}
	if diff := cmp.Diff([]uuid.UUID{mar.ID, feb.ID, jan.ID}, got); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	if _, err := f.svc.CardBills(context.Background(), uuid.New()); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("unknown card: err = %v, want ErrNotFound", err)
	}
}
