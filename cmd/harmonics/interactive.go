package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/harmonics/internal/report"
)

// keyMap defines keybindings for the interactive TUI.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Quit     key.Binding
	Help     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Quit, k.Help},
	}
}

var defaultKeyMap = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("^/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("v/j", "down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

// Styles for the TUI.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	tuiHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))

	tuiBorderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63"))

	overLimitStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	nearLimitStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

// statsModel is the Bubble Tea model for browsing per-bus distortion.
type statsModel struct {
	summary  *report.Summary
	viewport viewport.Model
	help     help.Model
	keys     keyMap
	ready    bool
	content  string
}

func newStatsModel(s *report.Summary, limit float64) statsModel {
	return statsModel{
		summary: s,
		help:    help.New(),
		keys:    defaultKeyMap,
		content: renderStatsContent(s, limit),
	}
}

// renderStatsContent lays out one table per bus with a row per
// harmonic order and a column per phase.
func renderStatsContent(s *report.Summary, limit float64) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(
		fmt.Sprintf("Harmonic Distortion: %d bus(es), %d node(s)",
			len(s.Groups), len(s.Nodes))))
	sb.WriteString("\n\n")

	nodes := make(map[string]report.NodeSummary, len(s.Nodes))
	for _, n := range s.Nodes {
		nodes[string(n.Node)] = n
	}

	for _, g := range s.Groups {
		sb.WriteString(tuiHeaderStyle.Render(fmt.Sprintf("=== %s ===", g.Bus)))
		sb.WriteString("\n")

		headers := []string{"ORDER"}
		var members []report.NodeSummary
		orders := make(map[int]bool)
		for _, m := range g.Members {
			ns := nodes[string(m)]
			members = append(members, ns)
			headers = append(headers, fmt.Sprintf("PHASE %s", strings.ToUpper(ns.Phase)))
			for _, h := range ns.IHD {
				orders[h.Order] = true
			}
		}

		thdRow := []string{"THD"}
		for _, ns := range members {
			thdRow = append(thdRow, fmt.Sprintf("%.2f%%", ns.THDPercent))
		}
		rows := [][]string{thdRow}
		for _, order := range sortedOrders(orders) {
			row := []string{fmt.Sprintf("%d", order)}
			for _, ns := range members {
				row = append(row, fmt.Sprintf("%.3f%%", ihdPercent(ns, order)))
			}
			rows = append(rows, row)
		}

		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(tuiBorderStyle).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return tuiHeaderStyle
				}
				// Only the THD row is judged against the limit.
				if row == 0 && col > 0 && col-1 < len(members) {
					switch pct := members[col-1].THDPercent; {
					case pct >= limit:
						return overLimitStyle
					case pct >= limit*0.8:
						return nearLimitStyle
					}
				}
				return lipgloss.NewStyle()
			}).
			Headers(headers...).
			Rows(rows...)

		sb.WriteString(t.String())
		sb.WriteString("\n\n")
	}

	return sb.String()
}

func ihdPercent(ns report.NodeSummary, order int) float64 {
	for _, h := range ns.IHD {
		if h.Order == order {
			return h.Percent
		}
	}
	return 0
}

func sortedOrders(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for o := range set {
		out = append(out, o)
	}
	sort.Ints(out)
	return out
}

func (m statsModel) Init() tea.Cmd {
	return nil
}

func (m statsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		footerHeight := 2

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-footerHeight)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - footerHeight
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m statsModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	footer := statusStyle.Render(
		fmt.Sprintf(" %3.f%% ", m.viewport.ScrollPercent()*100)) +
		" " + m.help.View(m.keys)

	return m.viewport.View() + "\n" + footer
}

// runInteractiveStats launches the Bubble Tea TUI for browsing the
// distortion summary.
func runInteractiveStats(s *report.Summary, limit float64) error {
	model := newStatsModel(s, limit)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
