// Package budget derives spending analytics for monthly category budgets and
// keeps the persisted alert set in step with them.
package budget

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
)

// Period places a budget month relative to today.
type Period int

const (
	PeriodPast Period = iota
	PeriodCurrent
	PeriodFuture
)

// Trend thresholds: the second half of the elapsed month is compared with the first.
var (
	accelerationFactor = decimal.RequireFromString("1.2")
	decelerationFactor = decimal.RequireFromString("0.8")
	hundred            = decimal.NewFromInt(100)
)

// MinTrendDays is the fewest elapsed days needed to classify a trend.
const MinTrendDays = 7

// Metrics is the read-time analysis of one budget.
type Metrics struct {
	Budget             model.Budget
	Period             Period
	Spent              money.Amount
	Remaining          money.Amount
	Percentage         float64
	DailyAverage       money.Amount
	ProjectedMonthly   money.Amount
	ProjectedOverspend money.Amount
	DaysInMonth        int
	DaysElapsed        int
	DaysUntilLimit     int
	Trend              model.Trend
	AlertLevel         model.AlertLevel
	OverBudget         bool

	pct decimal.Decimal
}

// DailySpend maps day-of-month to the expense total of that day.
type DailySpend map[int]money.Amount

// Analyze computes the metrics of b from its month's daily expense series.
// It never fails: zero amounts and zero elapsed days yield neutral values.
func Analyze(b model.Budget, daily DailySpend, today time.Time) Metrics {
	month := model.MonthStart(b.Month)
	today = model.Day(today)
	m := Metrics{Budget: b, DaysInMonth: model.DaysIn(month)}

	switch cur := model.MonthStart(today); {
	case month.Equal(cur):
		m.Period = PeriodCurrent
		m.DaysElapsed = today.Day()
	case month.Before(cur):
		m.Period = PeriodPast
		m.DaysElapsed = m.DaysInMonth
	default:
		m.Period = PeriodFuture
	}

	for _, amt := range daily {
		m.Spent += amt
	}
	m.Remaining = b.Amount - m.Spent
	m.OverBudget = m.Spent > b.Amount

	spent := m.Spent.Decimal()
	if b.Amount > 0 {
		m.pct = spent.Div(b.Amount.Decimal()).Mul(hundred)
		m.Percentage = m.pct.Round(2).InexactFloat64()
	}

	var avg decimal.Decimal
	if m.DaysElapsed > 0 {
		avg = spent.Div(decimal.NewFromInt(int64(m.DaysElapsed)))
		m.DailyAverage = money.RoundDecimal(avg)
	}

	if m.Period == PeriodCurrent {
		m.ProjectedMonthly = money.RoundDecimal(avg.Mul(decimal.NewFromInt(int64(m.DaysInMonth))))
	} else {
		m.ProjectedMonthly = m.Spent
	}
	m.ProjectedOverspend = money.Max(0, m.ProjectedMonthly-b.Amount)

	m.DaysUntilLimit = daysUntilLimit(m, avg, today)
	m.Trend = trend(m, daily)
	m.AlertLevel = alertLevel(m)
	return m
}

func daysUntilLimit(m Metrics, avg decimal.Decimal, today time.Time) int {
	if m.Period != PeriodCurrent || m.OverBudget {
		return 0
	}
	left := m.DaysInMonth - today.Day()
	if avg.IsZero() {
		return left
	}
	days := int(m.Remaining.Decimal().Div(avg).Floor().IntPart())
	return min(days, left)
}

// trend splits the elapsed days at mid = elapsed/2: days 1..mid-1 against
// mid..elapsed, averaged over mid and elapsed-mid days. Today counts.
func trend(m Metrics, daily DailySpend) model.Trend {
	if m.Period == PeriodPast {
		return model.TrendCompleted
	}
	if m.DaysElapsed < MinTrendDays {
		return model.TrendInsufficientData
	}
	mid := m.DaysElapsed / 2
	firstDays, secondDays := mid, m.DaysElapsed-mid
	if firstDays == 0 || secondDays == 0 {
		return model.TrendInsufficientData
	}

	var first, second money.Amount
	for day, amt := range daily {
		switch {
		case day >= 1 && day < mid:
			first += amt
		case day >= mid && day <= m.DaysElapsed:
			second += amt
		}
	}
	firstAvg := first.Decimal().Div(decimal.NewFromInt(int64(firstDays)))
	secondAvg := second.Decimal().Div(decimal.NewFromInt(int64(secondDays)))

	switch {
	case secondAvg.GreaterThan(firstAvg.Mul(accelerationFactor)):
		return model.TrendAccelerating
	case secondAvg.LessThan(firstAvg.Mul(decelerationFactor)):
		return model.TrendDecelerating
	}
	return model.TrendStable
}

// alertLevel: first matching rule wins.
func alertLevel(m Metrics) model.AlertLevel {
	switch {
	case m.OverBudget:
		return model.LevelCritical
	case m.percentAtLeast(90):
		return model.LevelHigh
	case m.percentAtLeast(80):
		return model.LevelMedium
	case m.ProjectedOverspend > 0:
		return model.LevelMedium
	case m.Trend == model.TrendAccelerating && m.percentAtLeast(60):
		return model.LevelMedium
	}
	return model.LevelLow
}

func (m Metrics) percentAtLeast(p int64) bool {
	return m.pct.GreaterThanOrEqual(decimal.NewFromInt(p))
}

// Overspend is how far spending exceeds the budget, or zero.
func (m Metrics) Overspend() money.Amount {
	return money.Max(0, m.Spent-m.Budget.Amount)
}

// Message summarizes the alert level in one sentence.
func (m Metrics) Message() string {
	switch m.AlertLevel {
	case model.LevelCritical:
		return fmt.Sprintf("Budget exceeded by %s!", m.Overspend())
	case model.LevelHigh:
		return fmt.Sprintf("Watch out! You have already spent %.1f%% of the budget.", m.Percentage)
	case model.LevelMedium:
		if m.ProjectedOverspend > 0 {
			return fmt.Sprintf("Careful! The projection indicates a possible overspend of %s.", m.ProjectedOverspend)
		}
		return fmt.Sprintf("Watch out! You have already spent %.1f%% of the budget.", m.Percentage)
	}
	return "Budget under control."
}

// Recommendations suggests next steps for the current alert level.
func (m Metrics) Recommendations() []string {
	var recs []string
	switch {
	case m.OverBudget:
		recs = append(recs,
			"Cut spending in this category immediately.",
			"Consider moving funds over from other categories.")
	case m.AlertLevel == model.LevelHigh:
		if m.DaysUntilLimit <= 5 {
			recs = append(recs, fmt.Sprintf("Only %d days until the limit. Keep spending in check!", m.DaysUntilLimit))
		}
		recs = append(recs, "Track every expense in this category.")
	case m.AlertLevel == model.LevelMedium:
		if m.ProjectedOverspend > 0 {
			recs = append(recs, "Lower your daily average to avoid exceeding the budget.")
		}
		if m.Trend == model.TrendAccelerating {
			recs = append(recs, "Your spending is accelerating. Review your habits.")
		}
	default:
		recs = append(recs, "Keep your spending under control.")
		if !m.percentAtLeast(50) {
			recs = append(recs, "You are on track! Budget well controlled.")
		}
	}
	return recs
}

// Trigger is a desired active alert.
type Trigger struct {
	Level   model.AlertLevel
	Message string
}

// Triggers evaluates the four alert conditions independently. A type absent
// from the result must not have an active alert.
func Triggers(m Metrics) map[model.AlertType]Trigger {
	out := make(map[model.AlertType]Trigger, 4)
	if m.OverBudget {
		out[model.AlertOverBudget] = Trigger{model.LevelCritical,
			fmt.Sprintf("Budget exceeded by %s", m.Overspend())}
	}
	if m.percentAtLeast(80) && !m.OverBudget {
		out[model.AlertNearLimit] = Trigger{model.LevelHigh,
			fmt.Sprintf("You have already spent %.1f%% of the budget", m.Percentage)}
	}
	if m.ProjectedOverspend > 0 && !m.OverBudget {
		out[model.AlertProjectionWarning] = Trigger{model.LevelMedium,
			fmt.Sprintf("Projection indicates a possible overspend of %s", m.ProjectedOverspend)}
	}
	if m.Trend == model.TrendAccelerating && m.percentAtLeast(60) {
		out[model.AlertTrendWarning] = Trigger{model.LevelMedium,
			"Your spending is accelerating. Review your habits."}
	}
	return out
}
