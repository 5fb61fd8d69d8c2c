package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/money"
)

// AccountType is the kind of bank account.
type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountInvestment AccountType = "investment"
	AccountCash       AccountType = "cash"
)

// ParseAccountType validates an account type string.
func ParseAccountType(s string) (AccountType, error) {
	switch t := AccountType(strings.ToLower(strings.TrimSpace(s))); t {
	case AccountChecking, AccountSavings, AccountInvestment, AccountCash:
		return t, nil
	}
	return "", Invalid("type", "must be checking, savings, investment or cash (got %q)", s)
}

// Account is a bank account. CurrentBalance is a cache recomputed from the ledger.
type Account struct {
	ID             uuid.UUID
	Owner          string
	Name           string
	Type           AccountType
	Bank           string
	InitialBalance money.Amount
	CurrentBalance money.Amount
	Active         bool
	CreatedAt      time.Time
}

// CanDebit reports whether the cached balance covers amount.
func (a *Account) CanDebit(amount money.Amount) bool {
	return a.CurrentBalance >= amount
}

// CreditCard is a card whose AvailableLimit is recomputed from the ledger.
type CreditCard struct {
	ID             uuid.UUID
	Owner          string
	Name           string
	Bank           string
	CreditLimit    money.Amount
	AvailableLimit money.Amount
	ClosingDay     int
	DueDay         int
	Active         bool
	CreatedAt      time.Time
}

// CanCharge reports whether the cached available limit covers amount.
func (c *CreditCard) CanCharge(amount money.Amount) bool {
	return c.AvailableLimit >= amount
}

// UsedLimit is the part of the limit consumed by expenses.
func (c *CreditCard) UsedLimit() money.Amount {
	return c.CreditLimit - c.AvailableLimit
}

// UsagePercentage is UsedLimit as a percentage of CreditLimit.
func (c *CreditCard) UsagePercentage() float64 {
	if c.CreditLimit <= 0 {
		return 0
	}
	return float64(c.UsedLimit()) / float64(c.CreditLimit) * 100
}

// MinDueGap is the shortest gap in days between closing and due day.
const MinDueGap = 5

// ValidateCardDays checks the billing cycle days. The due day may fall in the
// month after closing, so the gap is taken modulo 31.
func ValidateCardDays(closingDay, dueDay int) error {
	if closingDay < 1 || closingDay > 31 {
		return Invalid("closing_day", "must be between 1 and 31")
	}
	if dueDay < 1 || dueDay > 31 {
		return Invalid("due_day", "must be between 1 and 31")
	}
	if gap := ((dueDay-closingDay)%31 + 31) % 31; gap < MinDueGap {
		return Invalid("due_day", "must be at least %d days after the closing day", MinDueGap)
	}
	return nil
}

// Category groups transactions and keys budgets.
type Category struct {
	ID        uuid.UUID
	Name      string
	Color     string
	Icon      string
	IsDefault bool
}

// OtherCategory is used by incomes and expenses recorded without a category.
const OtherCategory = "other"

// TransferCategory is the seeded category used by transfers without one.
const TransferCategory = "transfer"

// DefaultCategories is the seed set created with the schema.
var DefaultCategories = []Category{
	{Name: "food", Color: "#FF6B6B", Icon: "restaurant"},
	{Name: "transport", Color: "#4ECDC4", Icon: "directions_car"},
	{Name: "leisure", Color: "#45B7D1", Icon: "sports_esports"},
	{Name: "health", Color: "#96CEB4", Icon: "local_hospital"},
	{Name: "education", Color: "#FFEAA7", Icon: "school"},
	{Name: "home", Color: "#DDA0DD", Icon: "home"},
	{Name: "work", Color: "#98D8C8", Icon: "work"},
	{Name: "investments", Color: "#F7DC6F", Icon: "trending_up"},
	{Name: "shopping", Color: "#BB8FCE", Icon: "shopping_cart"},
	{Name: "services", Color: "#85C1E9", Icon: "build"},
	{Name: "taxes", Color: "#F1948A", Icon: "account_balance"},
	{Name: "other", Color: "#BDC3C7", Icon: "category"},
	{Name: TransferCategory, Color: "#6C757D", Icon: "transfer"},
}
