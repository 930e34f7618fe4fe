package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tally/internal/notify"
	"github.com/sadopc/tally/internal/store"
)

const recentLimit = 8

type counterModel struct {
	store  *store.Store
	hub    *notify.Hub
	width  int
	height int

	display store.Display
	balance store.Balance
	recent  []store.Entry
}

func newCounterModel(s *store.Store, hub *notify.Hub) counterModel {
	return counterModel{
		store: s,
		hub:   hub,
	}
}

func (c counterModel) Init() tea.Cmd {
	return c.loadData()
}

func (c *counterModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

type counterDataMsg struct {
	display store.Display
	balance store.Balance
	recent  []store.Entry
}

// loadData reads the counters. Reading applies the lazy daily reset, so the
// minute tick is enough to roll "today" over at the cycle boundary.
func (c counterModel) loadData() tea.Cmd {
	return func() tea.Msg {
		d, err := c.store.Display()
		if err != nil {
			return errStatus("Read balance", err)
		}
		bal, err := c.store.Balance()
		if err != nil {
			return errStatus("Read balance", err)
		}
		recent, _ := c.store.ListEntries(recentLimit)
		return counterDataMsg{display: d, balance: bal, recent: recent}
	}
}

func (c counterModel) update(msg tea.Msg) (counterModel, tea.Cmd) {
	switch msg := msg.(type) {
	case counterDataMsg:
		c.display = msg.display
		c.balance = msg.balance
		c.recent = msg.recent
		return c, nil

	case recordedMsg, tickMsg:
		return c, c.loadData()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Increment):
			return c, c.record(1)
		case key.Matches(msg, keys.Decrement):
			return c, c.record(-1)
		case key.Matches(msg, keys.ToggleMode):
			return c, c.toggleMode()
		}
	}
	return c, nil
}

// record writes delta and pushes the new display to every notifier. On
// failure the counters on screen stay at their last known values.
func (c counterModel) record(delta int64) tea.Cmd {
	return func() tea.Msg {
		if _, _, err := c.store.Record(delta); err != nil {
			return errStatus("Record failed", err)
		}
		return c.publish()
	}
}

func (c counterModel) toggleMode() tea.Cmd {
	return func() tea.Msg {
		if _, err := c.store.ToggleDisplayMode(); err != nil {
			return errStatus("Toggle mode", err)
		}
		return c.publish()
	}
}

func (c counterModel) publish() tea.Msg {
	d, err := c.store.Display()
	if err != nil {
		return errStatus("Read balance", err)
	}
	if c.hub != nil {
		c.hub.Notify(context.Background(), d)
	}
	return recordedMsg{display: d}
}

func (c counterModel) view() string {
	if c.width < 20 {
		return "Terminal too small"
	}

	contentWidth := c.width - 4
	return lipgloss.JoinVertical(lipgloss.Left,
		c.renderAmountPanel(contentWidth),
		c.renderBalancePanel(contentWidth),
		c.renderRecentPanel(contentWidth),
	)
}

func (c counterModel) renderAmountPanel(w int) string {
	style := amountStyle
	if c.display.Amount < 0 {
		style = amountNegativeStyle
	}
	content := lipgloss.JoinVertical(lipgloss.Center,
		modeLabelStyle.Width(w-6).Render(c.display.Label()),
		style.Width(w-6).Render(fmt.Sprintf("%d", c.display.Amount)),
		mutedStyle.Width(w-6).Align(lipgloss.Center).Render("+/-: adjust  m: total/today"),
	)
	return activePanelStyle.Width(w).Render(content)
}

func (c counterModel) renderBalancePanel(w int) string {
	total := fmt.Sprintf("%s %s", titleStyle.Render("Total"), deltaStyle(c.balance.Total).Render(fmt.Sprintf("%d", c.balance.Total)))
	today := fmt.Sprintf("%s %s", titleStyle.Render("Today"), deltaStyle(c.balance.Daily).Render(fmt.Sprintf("%d", c.balance.Daily)))
	since := mutedStyle.Render("since " + c.store.CycleStart().Format("Mon 15:04"))
	return panelStyle.Width(w).Render(fmt.Sprintf("%s    %s  %s", total, today, since))
}

func (c counterModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Entries")
	if len(c.recent) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No entries yet"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	for _, e := range c.recent {
		row := fmt.Sprintf("  %s  %s  %s",
			e.Time().Local().Format("Jan 02 15:04:05"),
			deltaStyle(e.Delta).Render(fmt.Sprintf("%6s", formatDelta(e.Delta))),
			mutedStyle.Render(fmt.Sprintf("= %d", e.TotalSnapshot)),
		)
		rows = append(rows, row)
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
