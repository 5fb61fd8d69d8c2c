// Package ledger records transactions and keeps every instrument's derived
// balance or available limit equal to a full aggregate over the ledger.
//
// Every mutation is one database transaction that locks, in order, the
// transaction row (on update and delete), the affected accounts in ascending
// id order, then the affected cards in ascending id order. Locks are taken
// before the ledger row is written; each affected instrument is then fully
// recomputed from the ledger, never adjusted incrementally. A bill payment
// locks the bill row ahead of the account it is paid from.
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/logger"
	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
	"github.com/theirongolddev/grana/internal/store"
)

// Service is the ledger store and balance reconciler.
type Service struct {
	db  *store.DB
	now func() time.Time
}

// New returns a ledger service. now defaults to time.Now.
func New(db *store.DB, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{db: db, now: now}
}

// Create validates and records a new transaction for owner.
func (s *Service) Create(ctx context.Context, owner string, in model.TransactionInput) (*model.Transaction, error) {
	log := logger.FromContext(ctx)
	tx, err := s.prepare(ctx, owner, in)
	if err != nil {
		return nil, err
	}
	err = s.db.WithTx(ctx, func(q *store.Queries) error {
		return record(ctx, q, tx)
	})
	if err != nil {
		log.Warn().Err(err).Str("owner", owner).Msg("transaction create failed")
		return nil, err
	}

	log.Info().Str("tx", tx.ID.String()).Str("kind", string(tx.Kind())).
		Str("amount", logger.MaskAmount(tx.Amount)).Msg("transaction created")
	return tx, nil
}

// prepare runs the checks that need no lock and builds the row to insert.
func (s *Service) prepare(ctx context.Context, owner string, in model.TransactionInput) (*model.Transaction, error) {
	now := s.now().UTC()
	if err := in.Validate(now); err != nil {
		return nil, err
	}

	q := s.db.Queries()
	categoryID, err := s.resolveCategory(ctx, q, in)
	if err != nil {
		return nil, err
	}
	cached, err := checkInstruments(ctx, q, owner, in.Movement)
	if err != nil {
		return nil, err
	}
	if err := precheck(cached, nil, in.Movement, in.Amount); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("owner", owner).Msg("transaction rejected")
		return nil, err
	}

	return &model.Transaction{
		ID:          uuid.New(),
		Owner:       owner,
		Movement:    in.Movement,
		Amount:      in.Amount,
		Description: strings.TrimSpace(in.Description),
		CategoryID:  categoryID,
		Date:        model.Day(in.Date),
		Tags:        model.NormalizeTags(in.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// record inserts a prepared row inside an open database transaction and
// reconciles its referents.
func record(ctx context.Context, q *store.Queries, tx *model.Transaction) error {
	set := refsOf(tx.Movement)
	before, err := lockAndSnapshot(ctx, q, set)
	if err != nil {
		return err
	}
	if err := q.InsertTransaction(ctx, tx); err != nil {
		return err
	}
	return reconcile(ctx, q, set, before, nil, tx)
}

// Update replaces the editable fields of transaction id. Both the old and the
// new referents are reconciled.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in model.TransactionInput) (*model.Transaction, error) {
	log := logger.FromContext(ctx)
	now := s.now().UTC()

	q := s.db.Queries()
	old, err := q.Transaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(now); err != nil {
		return nil, err
	}
	categoryID, err := s.resolveCategory(ctx, q, in)
	if err != nil {
		return nil, err
	}
	cached, err := checkInstruments(ctx, q, old.Owner, in.Movement)
	if err != nil {
		return nil, err
	}
	if err := precheck(cached, old, in.Movement, in.Amount); err != nil {
		log.Warn().Err(err).Str("tx", id.String()).Msg("transaction update rejected")
		return nil, err
	}

	var updated *model.Transaction
	err = s.db.WithTx(ctx, func(q *store.Queries) error {
		current, err := q.LockTransaction(ctx, id)
		if err != nil {
			return err
		}
		next := *current
		next.Movement = in.Movement
		next.Amount = in.Amount
		next.Description = strings.TrimSpace(in.Description)
		next.CategoryID = categoryID
		next.Date = model.Day(in.Date)
		next.Tags = model.NormalizeTags(in.Tags)
		next.UpdatedAt = now

		set := refsOf(current.Movement).union(refsOf(next.Movement))
		before, err := lockAndSnapshot(ctx, q, set)
		if err != nil {
			return err
		}
		if err := q.UpdateTransaction(ctx, &next); err != nil {
			return err
		}
		if err := reconcile(ctx, q, set, before, current, &next); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("tx", id.String()).Msg("transaction update failed")
		return nil, err
	}

	log.Info().Str("tx", id.String()).Str("kind", string(updated.Kind())).
		Str("amount", logger.MaskAmount(updated.Amount)).Msg("transaction updated")
	return updated, nil
}

// Delete removes transaction id and reconciles everything it referenced.
// Deleting never fails a funds check, even when it lowers a balance.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithTx(ctx, func(q *store.Queries) error {
		current, err := q.LockTransaction(ctx, id)
		if err != nil {
			return err
		}
		set := refsOf(current.Movement)
		before, err := lockAndSnapshot(ctx, q, set)
		if err != nil {
			return err
		}
		if err := q.DeleteTransaction(ctx, id); err != nil {
			return err
		}
		return reconcile(ctx, q, set, before, current, nil)
	})
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Info().Str("tx", id.String()).Msg("transaction deleted")
	return nil
}

// Get loads one transaction.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	return s.db.Queries().Transaction(ctx, id)
}

// List returns the transactions matching f, newest first.
func (s *Service) List(ctx context.Context, f model.TransactionFilter) ([]model.Transaction, error) {
	return s.db.Queries().Transactions(ctx, f)
}

// TagUsage returns an owner's tags by usage count.
func (s *Service) TagUsage(ctx context.Context, owner string, limit int) ([]model.TagCount, error) {
	return s.db.Queries().TagUsage(ctx, owner, limit)
}

func (s *Service) resolveCategory(ctx context.Context, q *store.Queries, in model.TransactionInput) (uuid.UUID, error) {
	if in.CategoryID != nil {
		c, err := q.Category(ctx, *in.CategoryID)
		if err != nil {
			return uuid.Nil, err
		}
		return c.ID, nil
	}
	name := model.OtherCategory
	if in.Movement.Kind() == model.KindTransfer {
		name = model.TransferCategory
	}
	c, err := q.CategoryByName(ctx, name)
	if err != nil {
		return uuid.Nil, err
	}
	return c.ID, nil
}

// instruments is the cached state of the instruments a movement references,
// read before any lock for validation and the optimistic funds check.
type instruments struct {
	accounts map[uuid.UUID]*model.Account
	cards    map[uuid.UUID]*model.CreditCard
}

// checkInstruments loads every referenced instrument and rejects missing,
// foreign or inactive ones.
func checkInstruments(ctx context.Context, q *store.Queries, owner string, m model.Movement) (instruments, error) {
	got := instruments{
		accounts: make(map[uuid.UUID]*model.Account),
		cards:    make(map[uuid.UUID]*model.CreditCard),
	}
	accounts, cards := model.Refs(m)
	for _, id := range accounts {
		a, err := q.Account(ctx, id)
		if err != nil {
			return got, err
		}
		if a.Owner != owner {
			return got, model.Invalid("account", "account %s belongs to another owner", id)
		}
		if !a.Active {
			return got, model.Invalid("account", "account %s (%s) is inactive", a.Name, id)
		}
		got.accounts[id] = a
	}
	for _, id := range cards {
		c, err := q.Card(ctx, id)
		if err != nil {
			return got, err
		}
		if c.Owner != owner {
			return got, model.Invalid("credit_card", "card %s belongs to another owner", id)
		}
		if !c.Active {
			return got, model.Invalid("credit_card", "card %s (%s) is inactive", c.Name, id)
		}
		got.cards[id] = c
	}
	return got, nil
}

// precheck is the optimistic funds check against cached values. A new row only
// needs the debited instrument to cover it; for updates the old version's
// effect is reversed first.
func precheck(cached instruments, old *model.Transaction, m model.Movement, amount money.Amount) error {
	next := effects(m, amount)
	var prev map[instrument]money.Amount
	if old != nil {
		prev = effects(old.Movement, old.Amount)
	}
	accounts, cards := model.Debited(m)
	for _, id := range accounts {
		a := cached.accounts[id]
		if old == nil {
			if !a.CanDebit(amount) {
				return &model.InsufficientFundsError{AccountID: id, Balance: a.CurrentBalance, Amount: amount}
			}
			continue
		}
		key := instrument{id: id}
		projected := a.CurrentBalance - prev[key] + next[key]
		if projected.IsNegative() && projected < a.CurrentBalance {
			return &model.InsufficientFundsError{AccountID: id, Balance: a.CurrentBalance - prev[key], Amount: amount}
		}
	}
	for _, id := range cards {
		c := cached.cards[id]
		if old == nil {
			if !c.CanCharge(amount) {
				return &model.InsufficientCreditError{CardID: id, Available: c.AvailableLimit, Amount: amount}
			}
			continue
		}
		key := instrument{card: true, id: id}
		projected := c.AvailableLimit - prev[key] + next[key]
		if projected.IsNegative() && projected < c.AvailableLimit {
			return &model.InsufficientCreditError{CardID: id, Available: c.AvailableLimit - prev[key], Amount: amount}
		}
	}
	return nil
}
