package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/logger"
	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
	"github.com/theirongolddev/grana/internal/store"
)

// instrument identifies an account (card false) or a credit card.
type instrument struct {
	card bool
	id   uuid.UUID
}

// effects is the signed change a movement applies to each instrument's
// derived value. Income on a card does not change its available limit.
func effects(m model.Movement, amount money.Amount) map[instrument]money.Amount {
	out := make(map[instrument]money.Amount, 2)
	switch m := m.(type) {
	case model.Income:
		if a, ok := m.Via.(model.AccountRef); ok {
			out[instrument{id: a.AccountID}] += amount
		}
	case model.Expense:
		switch v := m.Via.(type) {
		case model.AccountRef:
			out[instrument{id: v.AccountID}] -= amount
		case model.CardRef:
			out[instrument{card: true, id: v.CardID}] -= amount
		}
	case model.Transfer:
		out[instrument{id: m.From}] -= amount
		out[instrument{id: m.To}] += amount
	}
	return out
}

// refSet is the set of instruments a write must lock and reconcile.
type refSet struct {
	accounts []uuid.UUID
	cards    []uuid.UUID
}

func refsOf(m model.Movement) refSet {
	accounts, cards := model.Refs(m)
	return refSet{accounts: store.SortedUnique(accounts), cards: store.SortedUnique(cards)}
}

func (r refSet) union(o refSet) refSet {
	return refSet{
		accounts: store.SortedUnique(append(append([]uuid.UUID{}, r.accounts...), o.accounts...)),
		cards:    store.SortedUnique(append(append([]uuid.UUID{}, r.cards...), o.cards...)),
	}
}

// lockAndSnapshot locks accounts before cards and records each derived value
// as seen under the lock.
func lockAndSnapshot(ctx context.Context, q *store.Queries, set refSet) (map[instrument]money.Amount, error) {
	if err := q.LockAccounts(ctx, set.accounts); err != nil {
		return nil, err
	}
	if err := q.LockCards(ctx, set.cards); err != nil {
		return nil, err
	}
	before := make(map[instrument]money.Amount, len(set.accounts)+len(set.cards))
	for _, id := range set.accounts {
		a, err := q.Account(ctx, id)
		if err != nil {
			return nil, err
		}
		before[instrument{id: id}] = a.CurrentBalance
	}
	for _, id := range set.cards {
		c, err := q.Card(ctx, id)
		if err != nil {
			return nil, err
		}
		before[instrument{card: true, id: id}] = c.AvailableLimit
	}
	return before, nil
}

// reconcile recomputes every instrument in set from the ledger and stores it.
// Instruments debited by written (nil on delete) that end negative and lower
// than before abort the transaction. prev is the replaced version on update.
func reconcile(ctx context.Context, q *store.Queries, set refSet, before map[instrument]money.Amount, prev, written *model.Transaction) error {
	// drawable is what the written version could draw on: the value under
	// the lock with the replaced version's effect reversed.
	var reversed map[instrument]money.Amount
	if prev != nil {
		reversed = effects(prev.Movement, prev.Amount)
	}
	drawable := func(key instrument) money.Amount { return before[key] - reversed[key] }

	debited := map[instrument]bool{}
	if written != nil {
		accounts, cards := model.Debited(written.Movement)
		for _, id := range accounts {
			debited[instrument{id: id}] = true
		}
		for _, id := range cards {
			debited[instrument{card: true, id: id}] = true
		}
	}

	for _, id := range set.accounts {
		balance, err := q.ComputeAccountBalance(ctx, id)
		if err != nil {
			return err
		}
		key := instrument{id: id}
		if debited[key] && balance.IsNegative() && balance < before[key] {
			return &model.InsufficientFundsError{
				AccountID: id,
				Balance:   drawable(key),
				Amount:    written.Amount,
			}
		}
		if err := q.SetAccountBalance(ctx, id, balance); err != nil {
			return err
		}
	}
	for _, id := range set.cards {
		limit, err := q.ComputeCardAvailable(ctx, id)
		if err != nil {
			return err
		}
		key := instrument{card: true, id: id}
		if debited[key] && limit.IsNegative() && limit < before[key] {
			return &model.InsufficientCreditError{
				CardID:    id,
				Available: drawable(key),
				Amount:    written.Amount,
			}
		}
		if err := q.SetCardAvailable(ctx, id, limit); err != nil {
			return err
		}
	}
	return nil
}

// ReconcileAccount recomputes one account's balance from the ledger and
// returns the account as stored afterwards.
func (s *Service) ReconcileAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var out *model.Account
	err := s.db.WithTx(ctx, func(q *store.Queries) error {
		if err := q.LockAccounts(ctx, []uuid.UUID{id}); err != nil {
			return err
		}
		balance, err := q.ComputeAccountBalance(ctx, id)
		if err != nil {
			return err
		}
		if err := q.SetAccountBalance(ctx, id, balance); err != nil {
			return err
		}
		out, err = q.Account(ctx, id)
		return err
	})
	return out, err
}

// ReconcileCard recomputes one card's available limit from the ledger.
func (s *Service) ReconcileCard(ctx context.Context, id uuid.UUID) (*model.CreditCard, error) {
	var out *model.CreditCard
	err := s.db.WithTx(ctx, func(q *store.Queries) error {
		if err := q.LockCards(ctx, []uuid.UUID{id}); err != nil {
			return err
		}
		available, err := q.ComputeCardAvailable(ctx, id)
		if err != nil {
			return err
		}
		if err := q.SetCardAvailable(ctx, id, available); err != nil {
			return err
		}
		out, err = q.Card(ctx, id)
		return err
	})
	return out, err
}

// Drift is one instrument whose cached value disagreed with the ledger.
type Drift struct {
	Entity string // "account" or "credit card"
	ID     uuid.UUID
	Name   string
	Cached money.Amount
	Ledger money.Amount
}

func (d Drift) String() string {
	return fmt.Sprintf("%s %s (%s): cached %s, ledger %s", d.Entity, d.Name, d.ID, d.Cached, d.Ledger)
}

// ReconcileOwner recomputes every instrument of owner and reports the ones
// whose cached value had drifted.
func (s *Service) ReconcileOwner(ctx context.Context, owner string) ([]Drift, error) {
	q := s.db.Queries()
	accounts, err := q.Accounts(ctx, owner)
	if err != nil {
		return nil, err
	}
	cards, err := q.Cards(ctx, owner)
	if err != nil {
		return nil, err
	}

	var drifts []Drift
	for _, a := range accounts {
		after, err := s.ReconcileAccount(ctx, a.ID)
		if err != nil {
			return drifts, err
		}
		if after.CurrentBalance != a.CurrentBalance {
			drifts = append(drifts, Drift{Entity: "account", ID: a.ID, Name: a.Name,
				Cached: a.CurrentBalance, Ledger: after.CurrentBalance})
		}
	}
	for _, c := range cards {
		after, err := s.ReconcileCard(ctx, c.ID)
		if err != nil {
			return drifts, err
		}
		if after.AvailableLimit != c.AvailableLimit {
			drifts = append(drifts, Drift{Entity: "credit card", ID: c.ID, Name: c.Name,
				Cached: c.AvailableLimit, Ledger: after.AvailableLimit})
		}
	}
	logger.FromContext(ctx).Info().Str("owner", owner).Int("drifted", len(drifts)).Msg("reconciled instruments")
	return drifts, nil
}
