// Package tui provides the interactive Bubble Tea dashboard for grana.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/grana/internal/cli"
	"github.com/theirongolddev/grana/internal/config"
	"github.com/theirongolddev/grana/internal/engine"
	"github.com/theirongolddev/grana/internal/model"
	"github.com/theirongolddev/grana/internal/tui/components"
	"github.com/theirongolddev/grana/internal/tui/theme"
)

// App is the root Bubble Tea model.
type App struct {
	eng   *engine.Engine
	owner string
	month time.Time

	// Data
	data        snapshot
	loaded      bool
	loadErr     error
	loadTime    time.Duration
	refreshing  bool
	lastRefresh time.Time

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	spinner   spinner.Model
	txTable   table.Model

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals SetupValues
	needSetup bool
	setupErr  error
}

const (
	minTerminalWidth = 80
	maxContentWidth  = 160
	minContentHeight = 5
)

// NewApp creates the dashboard for owner over an open engine. needSetup shows
// the first-run form once the first snapshot is loaded.
func NewApp(e *engine.Engine, cfg config.Config, needSetup bool) App {
	t := theme.Active
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	return App{
		eng:       e,
		owner:     cfg.General.Owner,
		month:     model.MonthStart(e.Today()),
		spinner:   sp,
		txTable:   newTxTable(),
		setupVals: SetupValuesFrom(cfg),
		needSetup: needSetup,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.eng, a.owner, a.month, true),
		a.spinner.Tick,
	)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		a.resizeTxTable()
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if a.activeTab == tabTransactions {
				a.txTable.MoveUp(1)
			}
		case tea.MouseButtonWheelDown:
			if a.activeTab == tabTransactions {
				a.txTable.MoveDown(1)
			}
		case tea.MouseButtonLeft:
			if msg.Action == tea.MouseActionRelease && msg.Y == 0 {
				if tab := components.TabAtX(a.activeTab, msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()

		if key == "ctrl+c" {
			return a, tea.Quit
		}
		if a.setupForm != nil {
			return a.updateSetupForm(msg)
		}
		if !a.loaded {
			return a, nil
		}

		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		switch key {
		case "q":
			return a, tea.Quit
		case "r":
			return a.reload(false)
		case "a":
			return a.reload(true)
		case "<", ",":
			a.month = model.MonthStart(a.month.AddDate(0, 0, -1))
			return a.reload(true)
		case ">", ".":
			a.month = model.NextMonth(a.month)
			return a.reload(true)
		case "left":
			a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
			return a, nil
		case "right", "tab":
			a.activeTab = (a.activeTab + 1) % len(components.Tabs)
			return a, nil
		}
		if len(key) == 1 {
			if tab := components.TabIdxByKey(rune(key[0])); tab >= 0 {
				a.activeTab = tab
				return a, nil
			}
		}

		if a.activeTab == tabTransactions {
			var cmd tea.Cmd
			a.txTable, cmd = a.txTable.Update(msg)
			return a, cmd
		}
		return a, nil

	case DataLoadedMsg:
		first := !a.loaded
		a.loaded = true
		a.refreshing = false
		a.loadTime = msg.loadTime
		a.lastRefresh = time.Now()
		a.loadErr = msg.err
		if msg.err == nil {
			a.data = msg.data
			a.txTable.SetRows(txRows(a.data))
		}

		if first && a.needSetup {
			a.setupForm = NewSetupForm(&a.setupVals, false)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded || a.refreshing {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	return a, nil
}

func (a App) reload(checkAlerts bool) (tea.Model, tea.Cmd) {
	if a.refreshing {
		return a, nil
	}
	a.refreshing = true
	return a, tea.Batch(loadDataCmd(a.eng, a.owner, a.month, checkAlerts), a.spinner.Tick)
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.setupErr = a.saveSetupConfig()
		a.needSetup = false
		a.setupForm = nil
		return a.reload(true)
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

// saveSetupConfig persists the form answers and applies them to this session.
func (a *App) saveSetupConfig() error {
	cfg, err := config.Read()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	a.setupVals.Apply(&cfg)
	theme.SetActive(cfg.Appearance.Theme)
	cli.Currency = cfg.General.Currency
	a.owner = cfg.General.Owner
	return config.Save(cfg)
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  grana needs at least %d columns.\n",
		a.width, minTerminalWidth)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ grana"))
	b.WriteString(subtitleStyle.Render(" · Personal Ledger"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" Reconciling budgets and goals..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	bindings := []struct{ key, desc string }{
		{"o t b g", "Jump to tab"},
		{"← → tab", "Previous / Next tab"},
		{"j k", "Move through transactions"},
		{"< >", "Previous / Next month"},
		{"r", "Reload data"},
		{"a", "Re-check budget alerts"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")
	for _, bind := range bindings {
		fmt.Fprintf(&b, "  %s  %s\n", keyStyle.Render(fmt.Sprintf("%-8s", bind.key)), descStyle.Render(bind.desc))
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(t.TextDim).Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	header := components.RenderTabBar(a.activeTab, w)

	info := fmt.Sprintf("%s · %s · loaded in %.2fs", a.owner, cli.FormatMonth(a.month), a.loadTime.Seconds())
	if a.refreshing {
		info = a.spinner.View() + " " + info
	}
	statusBar := components.RenderStatusBar(w, info)

	contentH := max(a.height-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch {
	case a.loadErr != nil:
		content = lipgloss.NewStyle().Foreground(t.Critical).Render("\n  Could not load data: " + a.loadErr.Error())
	default:
		switch a.activeTab {
		case tabOverview:
			content = a.renderOverviewTab(cw)
		case tabTransactions:
			content = a.renderTransactionsTab(cw)
		case tabBudgets:
			content = a.renderBudgetsTab(cw)
		case tabGoals:
			content = a.renderGoalsTab(cw)
		}
	}
	if a.setupErr != nil {
		content = lipgloss.NewStyle().Foreground(t.High).Render("  Could not save config: "+a.setupErr.Error()) + "\n" + content
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// Tab indexes, matching components.Tabs.
const (
	tabOverview = iota
	tabTransactions
	tabBudgets
	tabGoals
)

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}
