package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
)

const goalColumns = `id, owner, name, description, target_amount, current_amount, target_date, achieved, achieved_at, created_at`

func scanGoal(r rowScanner) (*model.Goal, error) {
	var g model.Goal
	var target, created string
	var achieved int
	var achievedAt sql.NullString
	if err := r.Scan(&g.ID, &g.Owner, &g.Name, &g.Description, &g.TargetAmount, &g.CurrentAmount,
		&target, &achieved, &achievedAt, &created); err != nil {
		return nil, err
	}
	g.Achieved = achieved != 0
	var err error
	if g.TargetDate, err = parseDate(target); err != nil {
		return nil, err
	}
	if g.AchievedAt, err = parseNullTime(achievedAt); err != nil {
		return nil, err
	}
	if g.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &g, nil
}

// InsertGoal stores a goal. Names are unique per owner.
func (q *Queries) InsertGoal(ctx context.Context, g *model.Goal) error {
	_, err := q.exec(ctx, `INSERT INTO goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Owner, g.Name, g.Description, g.TargetAmount, g.CurrentAmount,
		formatDate(g.TargetDate), boolInt(g.Achieved), nullTime(g.AchievedAt), formatTime(g.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting goal: %w", mapErr(err, "goals(owner, name)"))
	}
	return nil
}

// Goal loads one goal.
func (q *Queries) Goal(ctx context.Context, id uuid.UUID) (*model.Goal, error) {
	g, err := scanGoal(q.row(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("goal", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading goal %s: %w", id, err)
	}
	return g, nil
}

// LockGoal loads a goal under a row lock.
func (q *Queries) LockGoal(ctx context.Context, id uuid.UUID) (*model.Goal, error) {
	g, err := scanGoal(q.row(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`+q.lockClause(), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("goal", id)
	}
	if err != nil {
		return nil, fmt.Errorf("locking goal %s: %w", id, err)
	}
	return g, nil
}

// Goals lists an owner's goals by target date.
func (q *Queries) Goals(ctx context.Context, owner string) ([]model.Goal, error) {
	rows, err := q.query(ctx, `SELECT `+goalColumns+` FROM goals WHERE owner = ? ORDER BY target_date, name`, owner)
	if err != nil {
		return nil, fmt.Errorf("listing goals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

// SaveGoalProgress stores current amount and achievement state.
func (q *Queries) SaveGoalProgress(ctx context.Context, g *model.Goal) error {
	res, err := q.exec(ctx, `UPDATE goals SET current_amount = ?, achieved = ?, achieved_at = ? WHERE id = ?`,
		g.CurrentAmount, boolInt(g.Achieved), nullTime(g.AchievedAt), g.ID)
	if err != nil {
		return fmt.Errorf("saving goal %s: %w", g.ID, err)
	}
	return expectOne(res, "goal", g.ID)
}

const contributionColumns = `id, goal_id, amount, date, description, source_account, created_at`

// InsertContribution stores a goal contribution.
func (q *Queries) InsertContribution(ctx context.Context, c *model.GoalContribution) error {
	_, err := q.exec(ctx, `INSERT INTO goal_contributions (`+contributionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.GoalID, c.Amount, formatDate(c.Date), c.Description, c.SourceAccount, formatTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting contribution: %w", mapErr(err, "goal_contributions"))
	}
	return nil
}

// Contributions lists a goal's contributions oldest first.
func (q *Queries) Contributions(ctx context.Context, goalID uuid.UUID) ([]model.GoalContribution, error) {
	rows, err := q.query(ctx, `SELECT `+contributionColumns+` FROM goal_contributions
		WHERE goal_id = ? ORDER BY date, created_at`, goalID)
	if err != nil {
		return nil, fmt.Errorf("listing contributions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.GoalContribution
	for rows.Next() {
		var c model.GoalContribution
		var date, created string
		if err := rows.Scan(&c.ID, &c.GoalID, &c.Amount, &date, &c.Description, &c.SourceAccount, &created); err != nil {
			return nil, err
		}
		if c.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ContributionTotal sums a goal's contributions.
func (q *Queries) ContributionTotal(ctx context.Context, goalID uuid.UUID) (money.Amount, error) {
	var total int64
	err := q.row(ctx, `SELECT COALESCE(CAST(SUM(amount) AS BIGINT), 0) FROM goal_contributions WHERE goal_id = ?`, goalID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing contributions of %s: %w", goalID, err)
	}
	return money.Amount(total), nil
}

// DeleteContributions removes every contribution of a goal.
func (q *Queries) DeleteContributions(ctx context.Context, goalID uuid.UUID) error {
	if _, err := q.exec(ctx, `DELETE FROM goal_contributions WHERE goal_id = ?`, goalID); err != nil {
		return fmt.Errorf("deleting contributions of %s: %w", goalID, err)
	}
	return nil
}
