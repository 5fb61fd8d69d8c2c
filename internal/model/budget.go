package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/money"
)

// Budget caps one category's spending for one month. Analytics are computed
// on read by the budget package and never stored.
type Budget struct {
	ID         uuid.UUID
	Owner      string
	CategoryID uuid.UUID
	Amount     money.Amount
	Month      time.Time // first day of the month
	CreatedAt  time.Time
}

// AlertType identifies one of the four budget alert conditions.
type AlertType string

const (
	AlertNearLimit         AlertType = "near_limit"
	AlertOverBudget        AlertType = "over_budget"
	AlertProjectionWarning AlertType = "projection_warning"
	AlertTrendWarning      AlertType = "trend_warning"
)

// AlertTypes lists every alert type in reconciliation order.
var AlertTypes = []AlertType{AlertNearLimit, AlertOverBudget, AlertProjectionWarning, AlertTrendWarning}

// AlertLevel ranks alert severity.
type AlertLevel string

const (
	LevelLow      AlertLevel = "low"
	LevelMedium   AlertLevel = "medium"
	LevelHigh     AlertLevel = "high"
	LevelCritical AlertLevel = "critical"
)

// BudgetAlert is a persisted alert. At most one active alert exists per
// (budget, type).
type BudgetAlert struct {
	ID         uuid.UUID
	BudgetID   uuid.UUID
	Type       AlertType
	Level      AlertLevel
	Message    string
	Active     bool
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// Trend classifies in-month spending speed.
type Trend string

const (
	TrendCompleted        Trend = "completed"
	TrendInsufficientData Trend = "insufficient_data"
	TrendAccelerating     Trend = "accelerating"
	TrendDecelerating     Trend = "decelerating"
	TrendStable           Trend = "stable"
)
