package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/grana/internal/cli"
	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/tui/components"
	"github.com/theirongolddev/grana/internal/tui/theme"
)

// Fixed column widths; Description takes the rest.
const (
	colDate     = 10
	colKind     = 8
	colAmount   = 14
	colCategory = 14
	colVia      = 22
	colTags     = 16
	minDescCol  = 12
)

func txColumns(width int) []table.Column {
	fixed := colDate + colKind + colAmount + colCategory + colVia + colTags
	// bubbles/table pads each cell by one column on both sides
	desc := max(width-fixed-7*2, minDescCol)
	return []table.Column{
		{Title: "Date", Width: colDate},
		{Title: "Kind", Width: colKind},
		{Title: "Amount", Width: colAmount},
		{Title: "Description", Width: desc},
		{Title: "Category", Width: colCategory},
		{Title: "Via", Width: colVia},
		{Title: "Tags", Width: colTags},
	}
}

func newTxTable() table.Model {
	t := theme.Active
	tbl := table.New(
		table.WithColumns(txColumns(maxContentWidth)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	st := table.DefaultStyles()
	st.Header = st.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Border).
		BorderBottom(true).
		Foreground(t.TextMuted).
		Bold(true)
	st.Selected = st.Selected.
		Foreground(t.TextPrimary).
		Background(t.SurfaceHover).
		Bold(false)
	st.Cell = st.Cell.Foreground(t.TextPrimary)
	tbl.SetStyles(st)
	return tbl
}

// resizeTxTable fits the table to the content area below the tab bar,
// leaving room for the summary line and the card border.
func (a *App) resizeTxTable() {
	cw := a.contentWidth()
	a.txTable.SetColumns(txColumns(components.CardInnerWidth(cw)))
	a.txTable.SetWidth(components.CardInnerWidth(cw))
	a.txTable.SetHeight(max(a.height-8, 3))
}

func txRows(d snapshot) []table.Row {
	rows := make([]table.Row, len(d.txs))
	for i, tx := range d.txs {
		amount := cli.FormatMoney(tx.Amount)
		switch tx.Kind() {
		case model.KindIncome:
			amount = "+" + amount
		case model.KindExpense:
			amount = "-" + amount
		}
		rows[i] = table.Row{
			cli.FormatDate(tx.Date),
			string(tx.Kind()),
			amount,
			tx.Description,
			d.name(tx.CategoryID),
			d.via(tx.Movement),
			strings.Join(tx.Tags, ","),
		}
	}
	return rows
}

// via names the instrument a movement goes through.
func (s snapshot) via(m model.Movement) string {
	var ref model.Instrument
	switch m := m.(type) {
	case model.Transfer:
		return s.name(m.From) + " → " + s.name(m.To)
	case model.Income:
		ref = m.Via
	case model.Expense:
		ref = m.Via
	}
	switch r := ref.(type) {
	case model.AccountRef:
		return s.name(r.AccountID)
	case model.CardRef:
		return s.name(r.CardID) + " (card)"
	}
	return "-"
}

func (a App) renderTransactionsTab(cw int) string {
	t := theme.Active
	d := a.data

	if len(d.txs) == 0 {
		return components.ContentCard("Transactions",
			lipgloss.NewStyle().Foreground(t.TextMuted).Render("No transactions yet: grana tx add <amount> <description>"),
			cw, false)
	}

	summary := lipgloss.NewStyle().Foreground(t.TextDim).Render(
		fmt.Sprintf("%d most recent · %d/%d · j/k to move", len(d.txs), a.txTable.Cursor()+1, len(d.txs)))
	return components.ContentCard("Transactions", a.txTable.View()+"\n"+summary, cw, true)
}
