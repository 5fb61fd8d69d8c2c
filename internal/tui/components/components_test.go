package components

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/go-cmp/cmp"
)

func TestLayoutRow(t *testing.T) {
	tests := []struct {
		total, n int
		want     []int
	}{
		{100, 4, []int{25, 25, 25, 25}},
		{10, 3, []int{4, 3, 3}},
		{7, 1, []int{7}},
		{5, 0, nil},
	}
	for _, tt := range tests {
		got := LayoutRow(tt.total, tt.n)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("LayoutRow(%d, %d) mismatch (-want +got):\n%s", tt.total, tt.n, diff)
		}
	}
}

func TestTabAtX(t *testing.T) {
	for active := range Tabs {
		pos := 0
		for i, tab := range Tabs {
			w := lipgloss.Width(renderTab(tab, i == active))
			if got := TabAtX(active, pos+w/2); got != i {
				t.Errorf("active %d: TabAtX(%d) = %d, want %d", active, pos+w/2, got, i)
			}
			pos += w + lipgloss.Width(tabSeparator)
		}
		if got := TabAtX(active, pos+50); got != -1 {
			t.Errorf("active %d: past the last tab = %d, want -1", active, got)
		}
	}
}

func TestTabIdxByKey(t *testing.T) {
	for i, tab := range Tabs {
		if got := TabIdxByKey(tab.Key); got != i {
			t.Errorf("TabIdxByKey(%q) = %d, want %d", tab.Key, got, i)
		}
	}
	if got := TabIdxByKey('z'); got != -1 {
		t.Errorf("TabIdxByKey('z') = %d, want -1", got)
	}
}

func TestMetricRowWidth(t *testing.T) {
	row := MetricRow([]Metric{{Label: "a", Value: "1"}, {Label: "b", Value: "2"}, {Label: "c", Value: "3"}}, 90)
	if got := lipgloss.Width(row); got != 90 {
		t.Errorf("MetricRow width = %d, want 90", got)
	}
}
