package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/money"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-1234, "-1,234"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatSigned(t *testing.T) {
	old := Currency
	Currency = ""
	defer func() { Currency = old }()

	if got := FormatSigned(money.MustParse("-12.5")); got != "-12.50" {
		t.Errorf("FormatSigned(-12.5) = %q", got)
	}
	if got := FormatSigned(money.MustParse("3")); got != "+3.00" {
		t.Errorf("FormatSigned(3) = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("groceries", 5); got != "groc…" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("rent", 10); got != "rent" {
		t.Errorf("Truncate = %q", got)
	}
}

func TestResolveID(t *testing.T) {
	a := uuid.MustParse("3f2a0000-0000-4000-8000-000000000001")
	b := uuid.MustParse("3f2b0000-0000-4000-8000-000000000002")
	ids := []uuid.UUID{a, b}

	if got, err := ResolveID(a.String(), nil); err != nil || got != a {
		t.Errorf("full id: %s, %v", got, err)
	}
	if got, err := ResolveID("3F2B", ids); err != nil || got != b {
		t.Errorf("prefix: %s, %v", got, err)
	}
	if _, err := ResolveID("3f2", ids); !errors.Is(err, ErrAmbiguousID) {
		t.Errorf("ambiguous: err = %v", err)
	}
	if _, err := ResolveID("ffff", ids); err == nil {
		t.Error("unknown prefix resolved")
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Name", "Amount"},
		Rows:    [][]string{{"rent", "1,200.00"}, {"---"}, {"total", "1,200.00"}},
	})
	if lines := strings.Count(out, "\n"); lines != 7 {
		t.Errorf("RenderTable produced %d lines, want 7:\n%s", lines, out)
	}
	if !strings.Contains(out, "rent") || !strings.Contains(out, "total") {
		t.Errorf("RenderTable missing cells:\n%s", out)
	}
	if RenderTable(Table{}) != "" {
		t.Error("empty table should render nothing")
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline([]float64{0, 1, 2}); got != "▁▄█" {
		t.Errorf("RenderSparkline = %q", got)
	}
}

func TestUsageLevel(t *testing.T) {
	tests := []struct {
		pct  float64
		want model.AlertLevel
	}{
		{0, model.LevelLow},
		{79.9, model.LevelLow},
		{80, model.LevelMedium},
		{90, model.LevelHigh},
		{100, model.LevelHigh},
		{100.1, model.LevelCritical},
	}
	for _, tt := range tests {
		if got := UsageLevel(tt.pct); got != tt.want {
			t.Errorf("UsageLevel(%v) = %s, want %s", tt.pct, got, tt.want)
		}
	}
}
