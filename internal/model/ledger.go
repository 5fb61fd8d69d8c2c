// Package model defines the ledger entities and the error taxonomy shared by services.
package model

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/money"
)

// Kind classifies a transaction. It is derived from the Movement.
type Kind string

const (
	KindIncome   Kind = "income"
	KindExpense  Kind = "expense"
	KindTransfer Kind = "transfer"
)

// ParseKind validates a kind string.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindIncome, KindExpense, KindTransfer:
		return k, nil
	}
	return "", Invalid("kind", "must be income, expense or transfer (got %q)", s)
}

// Instrument is the account or card an income or expense moves through.
type Instrument interface {
	isInstrument()
}

// AccountRef points an income or expense at a bank account.
type AccountRef struct{ AccountID uuid.UUID }

// CardRef points an expense (or refund income) at a credit card.
type CardRef struct{ CardID uuid.UUID }

func (AccountRef) isInstrument() {}
func (CardRef) isInstrument()    {}

// Movement is the payment shape of a transaction. Exactly one of Income,
// Expense or Transfer; the interface is sealed.
type Movement interface {
	Kind() Kind
	isMovement()
}

type Income struct{ Via Instrument }
type Expense struct{ Via Instrument }

// Transfer moves money between two accounts of one owner in a single row.
type Transfer struct{ From, To uuid.UUID }

func (Income) Kind() Kind   { return KindIncome }
func (Expense) Kind() Kind  { return KindExpense }
func (Transfer) Kind() Kind { return KindTransfer }

func (Income) isMovement()   {}
func (Expense) isMovement()  {}
func (Transfer) isMovement() {}

// Refs lists the accounts and cards a movement touches.
func Refs(m Movement) (accounts, cards []uuid.UUID) {
	switch m := m.(type) {
	case Income:
		return viaRefs(m.Via)
	case Expense:
		return viaRefs(m.Via)
	case Transfer:
		return []uuid.UUID{m.From, m.To}, nil
	}
	return nil, nil
}

// Debited lists the instruments whose balance or limit the movement lowers.
func Debited(m Movement) (accounts, cards []uuid.UUID) {
	switch m := m.(type) {
	case Expense:
		return viaRefs(m.Via)
	case Transfer:
		return []uuid.UUID{m.From}, nil
	}
	return nil, nil
}

func viaRefs(v Instrument) (accounts, cards []uuid.UUID) {
	switch v := v.(type) {
	case AccountRef:
		return []uuid.UUID{v.AccountID}, nil
	case CardRef:
		return nil, []uuid.UUID{v.CardID}
	}
	return nil, nil
}

// MovementColumns is the nullable-column storage form of a Movement.
type MovementColumns struct {
	Kind         Kind
	Account      uuid.NullUUID
	Card         uuid.NullUUID
	TransferFrom uuid.NullUUID
	TransferTo   uuid.NullUUID
}

// Columns flattens a movement for storage.
func Columns(m Movement) MovementColumns {
	c := MovementColumns{Kind: m.Kind()}
	setVia := func(v Instrument) {
		switch v := v.(type) {
		case AccountRef:
			c.Account = uuid.NullUUID{UUID: v.AccountID, Valid: true}
		case CardRef:
			c.Card = uuid.NullUUID{UUID: v.CardID, Valid: true}
		}
	}
	switch m := m.(type) {
	case Income:
		setVia(m.Via)
	case Expense:
		setVia(m.Via)
	case Transfer:
		c.TransferFrom = uuid.NullUUID{UUID: m.From, Valid: true}
		c.TransferTo = uuid.NullUUID{UUID: m.To, Valid: true}
	}
	return c
}

// Movement rebuilds the sum type, rejecting any column combination that has
// no Movement equivalent.
func (c MovementColumns) Movement() (Movement, error) {
	via := func() (Instrument, error) {
		switch {
		case c.Account.Valid && c.Card.Valid:
			return nil, fmt.Errorf("%s row references both an account and a card", c.Kind)
		case c.TransferFrom.Valid || c.TransferTo.Valid:
			return nil, fmt.Errorf("%s row carries transfer references", c.Kind)
		case c.Account.Valid:
			return AccountRef{AccountID: c.Account.UUID}, nil
		case c.Card.Valid:
			return CardRef{CardID: c.Card.UUID}, nil
		}
		return nil, fmt.Errorf("%s row has no account or card", c.Kind)
	}
	switch c.Kind {
	case KindIncome:
		v, err := via()
		if err != nil {
			return nil, err
		}
		return Income{Via: v}, nil
	case KindExpense:
		v, err := via()
		if err != nil {
			return nil, err
		}
		return Expense{Via: v}, nil
	case KindTransfer:
		if c.Account.Valid || c.Card.Valid || !c.TransferFrom.Valid || !c.TransferTo.Valid {
			return nil, fmt.Errorf("transfer row must reference exactly a source and a destination account")
		}
		return Transfer{From: c.TransferFrom.UUID, To: c.TransferTo.UUID}, nil
	}
	return nil, fmt.Errorf("unknown transaction kind %q", c.Kind)
}

// Transaction is one ledger row.
type Transaction struct {
	ID          uuid.UUID
	Owner       string
	Movement    Movement
	Amount      money.Amount
	Description string
	CategoryID  uuid.UUID
	Date        time.Time
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Kind is shorthand for t.Movement.Kind().
func (t *Transaction) Kind() Kind { return t.Movement.Kind() }

// TransactionInput carries the caller-editable fields of a transaction.
// A nil CategoryID selects the kind's default category.
type TransactionInput struct {
	Movement    Movement
	Amount      money.Amount
	Description string
	CategoryID  *uuid.UUID
	Date        time.Time
	Tags        []string
}

// MinDescriptionLen is the shortest accepted description after trimming.
const MinDescriptionLen = 3

// Validate runs the self-contained field checks. Reference checks (existence,
// ownership, active state) need the store and live in the ledger service.
func (in *TransactionInput) Validate(today time.Time) error {
	if in.Movement == nil {
		return Invalid("movement", "payment method is required")
	}
	if !in.Amount.IsPositive() {
		return Invalid("amount", "must be greater than zero")
	}
	if len([]rune(strings.TrimSpace(in.Description))) < MinDescriptionLen {
		return Invalid("description", "must have at least %d characters", MinDescriptionLen)
	}
	if in.Date.IsZero() {
		return Invalid("date", "is required")
	}
	if Day(in.Date).After(Day(today)) {
		return Invalid("date", "cannot be in the future")
	}
	switch m := in.Movement.(type) {
	case Income:
		if m.Via == nil {
			return Invalid("movement", "income needs an account or a card")
		}
	case Expense:
		if m.Via == nil {
			return Invalid("movement", "expense needs an account or a card")
		}
	case Transfer:
		if m.From == uuid.Nil || m.To == uuid.Nil {
			return Invalid("movement", "transfer needs a source and a destination account")
		}
		if m.From == m.To {
			return &SameAccountError{AccountID: m.From}
		}
	}
	return nil
}

// NormalizeTags trims, lower-cases and de-duplicates tags, sorted.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// TransactionFilter narrows ledger listings. Zero fields match everything.
type TransactionFilter struct {
	Owner     string
	Kind      Kind
	From, To  time.Time
	AccountID uuid.UUID
	CardID    uuid.UUID
	Limit     int
}

// TagCount is a tag with its usage across an owner's transactions.
type TagCount struct {
	Tag   string
	Count int
}
