// Package goals keeps savings-goal bookkeeping: contributions move a goal's
// current amount toward its target, and progress and pacing are derived on read.
package goals

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

// DefaultContributionDescription labels contributions given without one.
const DefaultContributionDescription = "Goal contribution"

// Service records contributions and derives goal analytics.
type Service struct {
	db  *store.DB
	now func() time.Time
}

// New returns a goal service. now defaults to time.Now.
func New(db *store.DB, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{db: db, now: now}
}

func (s *Service) today() time.Time { return model.Day(s.now().UTC()) }

// GoalInput describes a new goal.
type GoalInput struct {
	Owner       string
	Name        string
	Description string
	Target      money.Amount
	TargetDate  time.Time
}

// Create stores a new goal with nothing saved. Names are unique per owner.
func (s *Service) Create(ctx context.Context, in GoalInput) (*model.Goal, error) {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return nil, model.Invalid("name", "is required")
	case !in.Target.IsPositive():
		return nil, model.Invalid("target_amount", "must be greater than zero")
	case in.TargetDate.IsZero():
		return nil, model.Invalid("target_date", "is required")
	case model.Day(in.TargetDate).Before(s.today()):
		return nil, model.Invalid("target_date", "must not be in the past")
	}
	g := &model.Goal{
		ID:           uuid.New(),
		Owner:        in.Owner,
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		TargetAmount: in.Target,
		TargetDate:   model.Day(in.TargetDate),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.db.Queries().InsertGoal(ctx, g); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info().Str("goal", g.ID.String()).Str("name", name).
		Str("target", logger.MaskAmount(g.TargetAmount)).Msg("goal created")
	return g, nil
}

// Get loads one goal.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Goal, error) {
	return s.db.Queries().Goal(ctx, id)
}

// List returns an owner's goals by target date.
func (s *Service) List(ctx context.Context, owner string) ([]model.Goal, error) {
	return s.db.Queries().Goals(ctx, owner)
}

// ContributionInput is money set aside for a goal. A zero Date means today.
// SourceAccount is recorded but not debited.
type ContributionInput struct {
	Amount        money.Amount
	Description   string
	Date          time.Time
	SourceAccount *uuid.UUID
}

// ContributionResult reports a stored contribution and the goal after it.
// Achieved is true only for the contribution that reached the target.
type ContributionResult struct {
	Contribution model.GoalContribution
	Goal         model.Goal
	Achieved     bool
}

// Contribute records a contribution under the goal row lock. The current
// amount is clamped to the target, and achievement is stamped exactly once.
func (s *Service) Contribute(ctx context.Context, goalID uuid.UUID, in ContributionInput) (ContributionResult, error) {
	if !in.Amount.IsPositive() {
		return ContributionResult{}, model.Invalid("amount", "must be greater than zero")
	}
	today := s.today()
	date := today
	if !in.Date.IsZero() {
		date = model.Day(in.Date)
	}
	if date.After(today) {
		return ContributionResult{}, model.Invalid("date", "must not be in the future")
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		desc = DefaultContributionDescription
	}

	var res ContributionResult
	err := s.db.WithTx(ctx, func(q *store.Queries) error {
		g, err := q.LockGoal(ctx, goalID)
		if err != nil {
			return err
		}
		if g.Achieved {
			return model.Invalid("goal", "is already achieved")
		}
		var source uuid.NullUUID
		if in.SourceAccount != nil {
			acct, err := q.Account(ctx, *in.SourceAccount)
			if err != nil {
				return err
			}
			if acct.Owner != g.Owner {
				return model.Invalid("source_account", "belongs to another owner")
			}
			source = uuid.NullUUID{UUID: acct.ID, Valid: true}
		}

		now := s.now().UTC()
		c := model.GoalContribution{
			ID: uuid.New(), GoalID: g.ID, Amount: in.Amount, Date: date,
			Description: desc, SourceAccount: source, CreatedAt: now,
		}
		if err := q.InsertContribution(ctx, &c); err != nil {
			return err
		}

		g.CurrentAmount = money.Min(g.CurrentAmount+in.Amount, g.TargetAmount)
		if g.CurrentAmount == g.TargetAmount {
			g.Achieved = true
			g.AchievedAt = &now
			res.Achieved = true
		}
		if err := q.SaveGoalProgress(ctx, g); err != nil {
			return err
		}
		res.Contribution, res.Goal = c, *g
		return nil
	})
	if err != nil {
		return ContributionResult{}, err
	}

	ev := logger.FromContext(ctx).Info().Str("goal", goalID.String()).Str("amount", logger.MaskAmount(in.Amount))
	if res.Achieved {
		ev = ev.Bool("achieved", true)
	}
	ev.Msg("goal contribution")
	return res, nil
}

// Reset zeroes a goal's progress and clears its achievement. With
// removeContributions the contribution history is deleted as well.
func (s *Service) Reset(ctx context.Context, goalID uuid.UUID, removeContributions bool) (*model.Goal, error) {
	var out *model.Goal
	err := s.db.WithTx(ctx, func(q *store.Queries) error {
		g, err := q.LockGoal(ctx, goalID)
		if err != nil {
			return err
		}
		if removeContributions {
			if err := q.DeleteContributions(ctx, goalID); err != nil {
				return err
			}
		}
		g.CurrentAmount, g.Achieved, g.AchievedAt = 0, false, nil
		if err := q.SaveGoalProgress(ctx, g); err != nil {
			return err
		}
		out = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info().Str("goal", goalID.String()).
		Bool("contributions_removed", removeContributions).Msg("goal reset")
	return out, nil
}

// Report is everything known about one goal as of today.
type Report struct {
	Goal            model.Goal
	Progress        Progress
	Pace            Pace
	Trend           ContributionTrend
	Contributed     money.Amount
	Contributions   []model.GoalContribution
	Recommendations []string
}

// Report loads a goal with its contributions and derives its analytics.
func (s *Service) Report(ctx context.Context, goalID uuid.UUID) (Report, error) {
	q := s.db.Queries()
	g, err := q.Goal(ctx, goalID)
	if err != nil {
		return Report{}, err
	}
	contribs, err := q.Contributions(ctx, goalID)
	if err != nil {
		return Report{}, err
	}
	total, err := q.ContributionTotal(ctx, goalID)
	if err != nil {
		return Report{}, err
	}
	today := s.today()
	return Report{
		Goal:            *g,
		Progress:        ProgressOf(*g, today),
		Pace:            PaceOf(*g, today),
		Trend:           TrendOver(contribs, 30, today),
		Contributed:     total,
		Contributions:   contribs,
		Recommendations: Recommendations(*g, contribs, today),
	}, nil
}
