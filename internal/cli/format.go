// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
)

// Currency is the display currency; set once from config on startup.
var Currency = "BRL"

// FormatMoney formats an amount in the display currency.
func FormatMoney(a money.Amount) string {
	return money.Format(a, Currency)
}

// FormatSigned formats an amount with an explicit sign, for ledger deltas.
func FormatSigned(a money.Amount) string {
	if a < 0 {
		return "-" + FormatMoney(-a)
	}
	return "+" + FormatMoney(a)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-100 percentage.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// FormatDate formats a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(model.DateLayout)
}

// FormatMonth formats a budget month, e.g. "Mar 2026".
func FormatMonth(t time.Time) string {
	return t.Format("Jan 2006")
}

// FormatDays formats a day count, e.g. 1 -> "1 day", 12 -> "12 days".
func FormatDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// ShortID is the first block of a uuid, enough to tell rows apart in a table.
func ShortID(id uuid.UUID) string {
	return id.String()[:8]
}

// Truncate cuts s to n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n < 1 {
		return s
	}
	return string(r[:n-1]) + "…"
}

// ErrAmbiguousID is returned when an id prefix matches more than one row.
var ErrAmbiguousID = errors.New("id prefix matches more than one entry")

// ResolveID turns a full uuid or a unique prefix of one of candidates into a uuid.
func ResolveID(s string, candidates []uuid.UUID) (uuid.UUID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if id, err := uuid.Parse(s); err == nil {
		return id, nil
	}
	if s == "" {
		return uuid.Nil, errors.New("empty id")
	}
	var found uuid.UUID
	n := 0
	for _, c := range candidates {
		if strings.HasPrefix(c.String(), s) {
			found = c
			n++
		}
	}
	switch n {
	case 0:
		return uuid.Nil, fmt.Errorf("no entry with id %q", s)
	case 1:
		return found, nil
	}
	return uuid.Nil, fmt.Errorf("%q: %w", s, ErrAmbiguousID)
}
