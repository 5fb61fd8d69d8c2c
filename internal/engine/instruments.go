package engine

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/logger"
	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
	"github.com/theirongolddev/grana/internal/store"
)

// DefaultCashAccount names the account Bootstrap creates.
const DefaultCashAccount = "Cash"

// AccountInput describes a new bank account.
type AccountInput struct {
	Owner          string
	Name           string
	Type           model.AccountType
	Bank           string
	InitialBalance money.Amount
}

// OpenAccount creates an account whose current balance starts at its initial
// balance. An empty Type means checking.
func (e *Engine) OpenAccount(ctx context.Context, in AccountInput) (*model.Account, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, model.Invalid("name", "is required")
	}
	typ := in.Type
	if typ == "" {
		typ = model.AccountChecking
	}
	typ, err := model.ParseAccountType(string(typ))
	if err != nil {
		return nil, err
	}
	a := &model.Account{
		ID:             uuid.New(),
		Owner:          in.Owner,
		Name:           name,
		Type:           typ,
		Bank:           strings.TrimSpace(in.Bank),
		InitialBalance: in.InitialBalance,
		CurrentBalance: in.InitialBalance,
		Active:         true,
		CreatedAt:      e.now().UTC(),
	}
	if err := e.db.Queries().InsertAccount(ctx, a); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info().Str("account", a.ID.String()).Str("type", string(typ)).
		Str("initial", logger.MaskAmount(a.InitialBalance)).Msg("account opened")
	return a, nil
}

// CardInput describes a new credit card.
type CardInput struct {
	Owner      string
	Name       string
	Bank       string
	Limit      money.Amount
	ClosingDay int
	DueDay     int
}

// OpenCard creates a card whose available limit starts at its credit limit.
func (e *Engine) OpenCard(ctx context.Context, in CardInput) (*model.CreditCard, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, model.Invalid("name", "is required")
	}
	if !in.Limit.IsPositive() {
		return nil, model.Invalid("credit_limit", "must be greater than zero")
	}
	if err := model.ValidateCardDays(in.ClosingDay, in.DueDay); err != nil {
		return nil, err
	}
	c := &model.CreditCard{
		ID:             uuid.New(),
		Owner:          in.Owner,
		Name:           name,
		Bank:           strings.TrimSpace(in.Bank),
		CreditLimit:    in.Limit,
		AvailableLimit: in.Limit,
		ClosingDay:     in.ClosingDay,
		DueDay:         in.DueDay,
		Active:         true,
		CreatedAt:      e.now().UTC(),
	}
	if err := e.db.Queries().InsertCard(ctx, c); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info().Str("card", c.ID.String()).
		Str("limit", logger.MaskAmount(c.CreditLimit)).Msg("card opened")
	return c, nil
}

// Bootstrap gives a new owner a cash account with a zero balance. It returns
// the existing one when the owner already has it.
func (e *Engine) Bootstrap(ctx context.Context, owner string) (*model.Account, error) {
	accts, err := e.db.Queries().Accounts(ctx, owner)
	if err != nil {
		return nil, err
	}
	for i := range accts {
		if accts[i].Type == model.AccountCash && accts[i].Name == DefaultCashAccount {
			return &accts[i], nil
		}
	}
	return e.OpenAccount(ctx, AccountInput{Owner: owner, Name: DefaultCashAccount, Type: model.AccountCash})
}

// SetAccountActive enables or retires an account. Inactive accounts keep
// their history but accept no new transactions.
func (e *Engine) SetAccountActive(ctx context.Context, id uuid.UUID, active bool) (*model.Account, error) {
	var out *model.Account
	err := e.db.WithTx(ctx, func(q *store.Queries) error {
		if err := q.LockAccounts(ctx, []uuid.UUID{id}); err != nil {
			return err
		}
		if err := q.SetAccountActive(ctx, id, active); err != nil {
			return err
		}
		var err error
		out, err = q.Account(ctx, id)
		return err
	})
	return out, err
}

// SetCardActive enables or retires a card.
func (e *Engine) SetCardActive(ctx context.Context, id uuid.UUID, active bool) (*model.CreditCard, error) {
	var out *model.CreditCard
	err := e.db.WithTx(ctx, func(q *store.Queries) error {
		if err := q.LockCards(ctx, []uuid.UUID{id}); err != nil {
			return err
		}
		if err := q.SetCardActive(ctx, id, active); err != nil {
			return err
		}
		var err error
		out, err = q.Card(ctx, id)
		return err
	})
	return out, err
}

// Account loads one account.
func (e *Engine) Account(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	return e.db.Queries().Account(ctx, id)
}

// Accounts lists owner's accounts.
func (e *Engine) Accounts(ctx context.Context, owner string) ([]model.Account, error) {
	return e.db.Queries().Accounts(ctx, owner)
}

// Card loads one credit card.
func (e *Engine) Card(ctx context.Context, id uuid.UUID) (*model.CreditCard, error) {
	return e.db.Queries().Card(ctx, id)
}

// Cards lists owner's credit cards.
func (e *Engine) Cards(ctx context.Context, owner string) ([]model.CreditCard, error) {
	return e.db.Queries().Cards(ctx, owner)
}
