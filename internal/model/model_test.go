package model

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/money"
)

func TestMovementColumns(t *testing.T) {
	acct := uuid.New()
	card := uuid.New()
	other := uuid.New()

	movements := []Movement{
		Income{Via: AccountRef{AccountID: acct}},
		Expense{Via: AccountRef{AccountID: acct}},
		Expense{Via: CardRef{CardID: card}},
		Transfer{From: acct, To: other},
	}
	for _, m := range movements {
		got, err := Columns(m).Movement()
		if err != nil {
			t.Fatalf("Movement() for %#v: %v", m, err)
		}
		if got != m {
			t.Errorf("round trip = %#v, want %#v", got, m)
		}
	}
}

func TestMovementColumns_RejectsIllegalRows(t *testing.T) {
	id := uuid.NullUUID{UUID: uuid.New(), Valid: true}
	bad := []MovementColumns{
		{Kind: KindExpense},
		{Kind: KindExpense, Account: id, Card: id},
		{Kind: KindIncome, Account: id, TransferFrom: id},
		{Kind: KindTransfer, TransferFrom: id},
		{Kind: KindTransfer, Account: id, TransferFrom: id, TransferTo: id},
		{Kind: "refund", Account: id},
	}
	for _, c := range bad {
		if _, err := c.Movement(); err == nil {
			t.Errorf("Movement() for %+v: expected error", c)
		}
	}
}

func TestDebited(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	accts, cards := Debited(Transfer{From: a, To: b})
	if len(accts) != 1 || accts[0] != a || cards != nil {
		t.Fatalf("Debited(transfer) = %v, %v", accts, cards)
	}
	accts, cards = Debited(Income{Via: AccountRef{AccountID: a}})
	if accts != nil || cards != nil {
		t.Fatalf("Debited(income) = %v, %v; want none", accts, cards)
	}
}

func TestTransactionInputValidate(t *testing.T) {
	today := Date(2026, time.March, 15)
	acct := uuid.New()
	valid := func() TransactionInput {
		return TransactionInput{
			Movement:    Expense{Via: AccountRef{AccountID: acct}},
			Amount:      money.Amount(1000),
			Description: "groceries",
			Date:        today,
		}
	}

	tests := []struct {
		name   string
		mutate func(*TransactionInput)
		field  string
	}{
		{"zero amount", func(in *TransactionInput) { in.Amount = 0 }, "amount"},
		{"short description", func(in *TransactionInput) { in.Description = "  ab " }, "description"},
		{"future date", func(in *TransactionInput) { in.Date = today.AddDate(0, 0, 1) }, "date"},
		{"no movement", func(in *TransactionInput) { in.Movement = nil }, "movement"},
		{"no instrument", func(in *TransactionInput) { in.Movement = Income{} }, "movement"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			err := in.Validate(today)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}

	in := valid()
	if err := in.Validate(today); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	in.Movement = Transfer{From: acct, To: acct}
	err := in.Validate(today)
	var same *SameAccountError
	if !errors.As(err, &same) || !errors.Is(err, ErrValidation) {
		t.Fatalf("same-account transfer err = %v", err)
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" Food", "food", "", "Trip ", "bills"})
	want := []string{"bills", "food", "trip"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NormalizeTags mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateCardDays(t *testing.T) {
	tests := []struct {
		closing, due int
		ok          bool
	}{
		{1, 10, true},
		{10, 15, true},
		{10, 14, false},
		{25, 5, true}, // due in the following month
		{28, 1, false},
		{0, 10, false},
		{5, 32, false},
	}
	for _, tt := range tests {
		err := ValidateCardDays(tt.closing, tt.due)
		if (err == nil) != tt.ok {
			t.Errorf("ValidateCardDays(%d, %d) = %v, want ok=%v", tt.closing, tt.due, err, tt.ok)
		}
	}
}

func TestIntegrityErrorIs(t *testing.T) {
	cause := errors.New("UNIQUE constraint failed")
	err := error(&IntegrityError{Constraint: "budgets", Err: cause})
	if !errors.Is(err, ErrIntegrity) || !errors.Is(err, cause) {
		t.Fatalf("IntegrityError does not match both sentinel and cause")
	}
}

func TestMonthHelpers(t *testing.T) {
	feb := Date(2028, time.February, 17)
	if DaysIn(feb) != 29 {
		t.Errorf("DaysIn(Feb 2028) = %d, want 29", DaysIn(feb))
	}
	if got := NextMonth(Date(2026, time.December, 31)); !got.Equal(Date(2027, time.January, 1)) {
		t.Errorf("NextMonth = %v", got)
	}
	m, err := ParseMonth("2026-03")
	if err != nil || !m.Equal(Date(2026, time.March, 1)) {
		t.Errorf("ParseMonth = %v, %v", m, err)
	}
}
