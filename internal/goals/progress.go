package goals

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
)

// Progress is the read-time state of a goal.
type Progress struct {
	Remaining     money.Amount
	Percentage    float64
	DaysRemaining int
	Overdue       bool
}

// ProgressOf derives remaining amount, completion percentage and the time
// left for g. Percentage is capped at 100; a zero target yields 0.
func ProgressOf(g model.Goal, today time.Time) Progress {
	today = model.Day(today)
	target := model.Day(g.TargetDate)
	p := Progress{Remaining: money.Max(0, g.TargetAmount-g.CurrentAmount)}
	if g.TargetAmount > 0 {
		pct := g.CurrentAmount.Decimal().Div(g.TargetAmount.Decimal()).Mul(decimal.NewFromInt(100))
		p.Percentage = min(pct.Round(2).InexactFloat64(), 100)
	}
	if !g.Achieved && target.After(today) {
		p.DaysRemaining = model.DaysBetween(today, target)
	}
	p.Overdue = !g.Achieved && target.Before(today)
	return p
}

// PaceStatus classifies how a goal keeps up with its schedule.
type PaceStatus string

const (
	PaceAchieved  PaceStatus = "achieved"
	PaceOnTrack   PaceStatus = "on_track"
	PaceBehind    PaceStatus = "behind"
	PaceFarBehind PaceStatus = "far_behind"
)

const (
	onTrackRatio = 0.8
	behindRatio  = 0.5
)

// Pace compares saved progress with elapsed time and says what is still needed.
type Pace struct {
	DailyNeeded   money.Amount
	WeeklyNeeded  money.Amount
	MonthlyNeeded money.Amount
	// Ratio is the fraction saved over the fraction of the schedule elapsed
	// since the goal was created. 1 means exactly on schedule.
	Ratio  float64
	Status PaceStatus
	// EstimatedCompletion extrapolates the average saving rate since creation.
	// Nil when nothing has been saved yet.
	EstimatedCompletion *time.Time
}

// PaceOf analyzes g as of today.
func PaceOf(g model.Goal, today time.Time) Pace {
	today = model.Day(today)
	prog := ProgressOf(g, today)
	var p Pace

	remaining := prog.Remaining.Decimal()
	if prog.Remaining > 0 {
		daily := remaining
		if prog.DaysRemaining > 0 {
			daily = remaining.Div(decimal.NewFromInt(int64(prog.DaysRemaining)))
		}
		p.DailyNeeded = money.RoundDecimal(daily)
		p.WeeklyNeeded = money.RoundDecimal(daily.Mul(decimal.NewFromInt(7)))
		p.MonthlyNeeded = money.RoundDecimal(daily.Mul(decimal.NewFromInt(30)))
	}

	created := model.Day(g.CreatedAt)
	elapsed := max(model.DaysBetween(created, today), 0)
	p.Ratio = paceRatio(g, created, elapsed)

	switch {
	case g.Achieved:
		p.Status = PaceAchieved
	case p.Ratio >= onTrackRatio:
		p.Status = PaceOnTrack
	case p.Ratio >= behindRatio:
		p.Status = PaceBehind
	default:
		p.Status = PaceFarBehind
	}

	switch {
	case g.Achieved && g.AchievedAt != nil:
		d := model.Day(*g.AchievedAt)
		p.EstimatedCompletion = &d
	case g.CurrentAmount > 0:
		rate := g.CurrentAmount.Decimal().Div(decimal.NewFromInt(int64(max(elapsed, 1))))
		days := remaining.Div(rate).Ceil().IntPart()
		d := today.AddDate(0, 0, int(days))
		p.EstimatedCompletion = &d
	}
	return p
}

func paceRatio(g model.Goal, created time.Time, elapsed int) float64 {
	if g.Achieved {
		return 1
	}
	if g.TargetAmount <= 0 {
		return 0
	}
	actual := g.CurrentAmount.Decimal().Div(g.TargetAmount.Decimal())
	total := model.DaysBetween(created, model.Day(g.TargetDate))
	var expected decimal.Decimal
	switch {
	case total <= 0:
		expected = decimal.NewFromInt(1)
	default:
		expected = decimal.NewFromInt(int64(min(elapsed, total))).Div(decimal.NewFromInt(int64(total)))
	}
	if expected.IsZero() {
		// nothing is expected on the day a goal is created
		return 1
	}
	return actual.Div(expected).Round(4).InexactFloat64()
}

// ContributionTrend describes how the saving rate changed recently.
type ContributionTrend string

const (
	ContributionsIncreasing ContributionTrend = "increasing"
	ContributionsDecreasing ContributionTrend = "decreasing"
	ContributionsStable     ContributionTrend = "stable"
	ContributionsNone       ContributionTrend = "no_data"
)

// TrendOver compares the newer half of the last window days with the older
// half, using the same 20% band as budget trends.
func TrendOver(contribs []model.GoalContribution, window int, today time.Time) ContributionTrend {
	today = model.Day(today)
	start := today.AddDate(0, 0, -window)
	mid := today.AddDate(0, 0, -window/2)

	var older, newer money.Amount
	for _, c := range contribs {
		d := model.Day(c.Date)
		switch {
		case d.After(start) && !d.After(mid):
			older += c.Amount
		case d.After(mid) && !d.After(today):
			newer += c.Amount
		}
	}
	switch {
	case older == 0 && newer == 0:
		return ContributionsNone
	case newer.Decimal().GreaterThan(older.Decimal().Mul(decimal.RequireFromString("1.2"))):
		return ContributionsIncreasing
	case newer.Decimal().LessThan(older.Decimal().Mul(decimal.RequireFromString("0.8"))):
		return ContributionsDecreasing
	}
	return ContributionsStable
}

// Recommendations suggests next steps for a goal.
func Recommendations(g model.Goal, contribs []model.GoalContribution, today time.Time) []string {
	prog := ProgressOf(g, today)
	pace := PaceOf(g, today)
	var recs []string

	switch pace.Status {
	case PaceFarBehind:
		recs = append(recs, fmt.Sprintf("You need to save %s per day to reach the goal on time.", pace.DailyNeeded))
	case PaceBehind:
		recs = append(recs, fmt.Sprintf("Raise your contributions to %s per week.", pace.WeeklyNeeded))
	case PaceOnTrack:
		recs = append(recs, "You are on track. Keep the current pace of contributions.")
	}

	if !g.Achieved {
		switch {
		case prog.Overdue:
			recs = append(recs, "The target date has passed. Consider moving it or lowering the target.")
		case prog.DaysRemaining <= 30:
			recs = append(recs, fmt.Sprintf("Only %d days left until the target date.", prog.DaysRemaining))
		case prog.DaysRemaining <= 90:
			recs = append(recs, fmt.Sprintf("The goal is due in %d days.", prog.DaysRemaining))
		}
	}

	switch TrendOver(contribs, 30, today) {
	case ContributionsDecreasing:
		recs = append(recs, "Your contributions dropped over the last month.")
	case ContributionsIncreasing:
		recs = append(recs, "Your contributions keep growing. Great progress!")
	}

	switch {
	case g.Achieved:
	case prog.Percentage >= 80:
		recs = append(recs, fmt.Sprintf("Almost there: %.1f%% done, only %s to go.", prog.Percentage, prog.Remaining))
	case prog.Percentage >= 50:
		recs = append(recs, "You are past the halfway point.")
	}

	if n := len(contribs); n >= 3 {
		avg := money.RoundDecimal(g.CurrentAmount.Decimal().Div(decimal.NewFromInt(int64(n))))
		recs = append(recs, fmt.Sprintf("Your average contribution is %s. A recurring monthly transfer would make it automatic.", avg))
	}
	return recs
}
