package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/money"
)

// Goal is a savings target. CurrentAmount moves only through contributions
// and resets.
type Goal struct {
	ID            uuid.UUID
	Owner         string
	Name          string
	Description   string
	TargetAmount  money.Amount
	CurrentAmount money.Amount
	TargetDate    time.Time
	Achieved      bool
	AchievedAt    *time.Time
	CreatedAt     time.Time
}

// GoalContribution records money set aside for a goal. The source account is
// informational only and is not debited.
type GoalContribution struct {
	ID            uuid.UUID
	GoalID        uuid.UUID
	Amount        money.Amount
	Date          time.Time
	Description   string
	SourceAccount uuid.NullUUID
	CreatedAt     time.Time
}
