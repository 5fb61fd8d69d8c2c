package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/cli"
	"github.com/theirongolddev/grana/internal/engine"
	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
)

func parseAmount(field, s string) (money.Amount, error) {
	a, err := money.Parse(s)
	if err != nil {
		return 0, model.Invalid(field, "%q is not an amount", s)
	}
	return a, nil
}

// parseDate reads YYYY-MM-DD, defaulting to today when s is empty.
func parseDate(e *engine.Engine, s string) (time.Time, error) {
	if s == "" {
		return e.Today(), nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return time.Time{}, model.Invalid("date", "%q is not a YYYY-MM-DD date", s)
	}
	return d, nil
}

// parseMonth reads YYYY-MM, defaulting to the current month when s is empty.
func parseMonth(e *engine.Engine, s string) (time.Time, error) {
	if s == "" {
		return model.MonthStart(e.Today()), nil
	}
	m, err := model.ParseMonth(s)
	if err != nil {
		return time.Time{}, model.Invalid("month", "%q is not a YYYY-MM month", s)
	}
	return m, nil
}

// match picks the one entry whose name equals ref (case-insensitive) or
// whose id starts with ref.
func match[T any](ref, entity string, items []T, id func(T) uuid.UUID, name func(T) string) (T, error) {
	var zero T
	var named []T
	for _, it := range items {
		if strings.EqualFold(name(it), ref) {
			named = append(named, it)
		}
	}
	if len(named) == 1 {
		return named[0], nil
	}
	if len(named) > 1 {
		return zero, fmt.Errorf("%d %ss are named %q, use an id", len(named), entity, ref)
	}

	ids := make([]uuid.UUID, len(items))
	for i, it := range items {
		ids[i] = id(it)
	}
	want, err := cli.ResolveID(ref, ids)
	if err != nil {
		return zero, fmt.Errorf("%s %q: %w", entity, ref, err)
	}
	for _, it := range items {
		if id(it) == want {
			return it, nil
		}
	}
	return zero, &model.NotFoundError{Entity: entity, ID: ref}
}

func resolveAccount(ctx context.Context, e *engine.Engine, ref string) (model.Account, error) {
	accounts, err := e.Accounts(ctx, owner())
	if err != nil {
		return model.Account{}, err
	}
	return match(ref, "account", accounts,
		func(a model.Account) uuid.UUID { return a.ID },
		func(a model.Account) string { return a.Name })
}

func resolveCard(ctx context.Context, e *engine.Engine, ref string) (model.CreditCard, error) {
	cards, err := e.Cards(ctx, owner())
	if err != nil {
		return model.CreditCard{}, err
	}
	return match(ref, "credit card", cards,
		func(c model.CreditCard) uuid.UUID { return c.ID },
		func(c model.CreditCard) string { return c.Name })
}

func resolveGoal(ctx context.Context, e *engine.Engine, ref string) (model.Goal, error) {
	goals, err := e.Goals(ctx, owner())
	if err != nil {
		return model.Goal{}, err
	}
	return match(ref, "goal", goals,
		func(g model.Goal) uuid.UUID { return g.ID },
		func(g model.Goal) string { return g.Name })
}

// resolveCategory returns nil for an empty name so the engine picks the default.
func resolveCategory(ctx context.Context, e *engine.Engine, name string) (*uuid.UUID, error) {
	if name == "" {
		return nil, nil
	}
	c, err := e.CategoryByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return &c.ID, nil
}

// resolveTransaction accepts a full id or a prefix of one of the owner's
// recent transactions.
func resolveTransaction(ctx context.Context, e *engine.Engine, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	txs, err := e.Transactions(ctx, model.TransactionFilter{Owner: owner()})
	if err != nil {
		return uuid.Nil, err
	}
	ids := make([]uuid.UUID, len(txs))
	for i, t := range txs {
		ids[i] = t.ID
	}
	return cli.ResolveID(ref, ids)
}

func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	return model.NormalizeTags(strings.Split(s, ","))
}
