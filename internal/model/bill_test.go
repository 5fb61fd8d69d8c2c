package model

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/theirongolddev/grana/internal/money"
)

func TestBillCycle(t *testing.T) {
	tests := []struct {
		name         string
		closing, due int
		month        string
		want         [3]string // start, closing, due
	}{
		{"due after closing", 10, 20, "2026-02", [3]string{"2026-01-11", "2026-02-10", "2026-02-20"}},
		{"due wraps to next month", 25, 5, "2026-03", [3]string{"2026-02-26", "2026-03-25", "2026-04-05"}},
		{"closing clamped in February", 31, 10, "2026-02", [3]string{"2026-02-01", "2026-02-28", "2026-03-10"}},
		{"previous closing clamped", 31, 10, "2026-03", [3]string{"2026-03-01", "2026-03-31", "2026-04-10"}},
		{"due clamped in February", 20, 30, "2026-02", [3]string{"2026-01-21", "2026-02-20", "2026-02-28"}},
		{"year boundary", 5, 15, "2026-01", [3]string{"2025-12-06", "2026-01-05", "2026-01-15"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			month, err := ParseMonth(tt.month)
			if err != nil {
				t.Fatal(err)
			}
			start, closing, due := BillCycle(&CreditCard{ClosingDay: tt.closing, DueDay: tt.due}, month)
			got := [3]string{start.Format(DateLayout), closing.Format(DateLayout), due.Format(DateLayout)}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("cycle (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBillStatusAt(t *testing.T) {
	b := &CreditCardBill{
		DueDate: Date(2026, 3, 20),
		Total:   money.MustParse("100.00"),
		Paid:    money.MustParse("40.00"),
		Status:  BillClosed,
	}
	if got := b.Remaining(); got != money.MustParse("60.00") {
		t.Errorf("Remaining = %s, want 60.00", got)
	}

	tests := []struct {
		today string
		want  BillStatus
		days  int
	}{
		{"2026-03-19", BillClosed, 1},
		{"2026-03-20", BillClosed, 0},
		{"2026-03-21", BillOverdue, -1},
	}
	for _, tt := range tests {
		today, err := ParseDate(tt.today)
		if err != nil {
			t.Fatal(err)
		}
		if got := b.StatusAt(today); got != tt.want {
			t.Errorf("%s: StatusAt = %s, want %s", tt.today, got, tt.want)
		}
		if got := b.DaysUntilDue(today); got != tt.days {
			t.Errorf("%s: DaysUntilDue = %d, want %d", tt.today, got, tt.days)
		}
	}

	b.Status = BillPaid
	if b.IsOverdue(Date(2026, 4, 30)) {
		t.Error("a paid bill is never overdue")
	}
}

func TestBillPaymentValidate(t *testing.T) {
	today := Date(2026, 3, 15)
	b := &CreditCardBill{Total: money.MustParse("100.00"), Paid: money.MustParse("30.00"), Status: BillOpen}

	tests := []struct {
		name string
		p    BillPayment
		ok   bool
	}{
		{"exact remaining", BillPayment{Amount: money.MustParse("70.00")}, true},
		{"over remaining", BillPayment{Amount: money.MustParse("70.01")}, false},
		{"zero", BillPayment{}, false},
		{"negative", BillPayment{Amount: -1}, false},
		{"future date", BillPayment{Amount: 1, Date: Date(2026, 3, 16)}, false},
	}
	for _, tt := range tests {
		err := tt.p.Validate(b, today)
		if tt.ok != (err == nil) {
			t.Errorf("%s: err = %v", tt.name, err)
		}
		if err != nil && !errors.Is(err, ErrValidation) {
			t.Errorf("%s: err = %v, want ErrValidation", tt.name, err)
		}
	}
}
