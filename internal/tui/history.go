package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tally/internal/store"
)

type historyMode int

const (
	historyEntries historyMode = iota
	historyDays
)

const chartDays = 7

type historyModel struct {
	store  *store.Store
	width  int
	height int

	mode      historyMode
	entries   []store.Entry
	summaries []store.DailySummary
	offset    int // first visible row

	chart       barchart.Model
	chartHeight int
	now         func() time.Time
}

func newHistoryModel(s *store.Store) historyModel {
	return historyModel{
		store: s,
		chart: barchart.New(60, 10),
		now:   time.Now,
	}
}

func (h *historyModel) setSize(w, hgt int) {
	h.width = w
	h.height = hgt
	h.buildChart()
}

type historyDataMsg struct {
	entries   []store.Entry
	summaries []store.DailySummary
}

func (h historyModel) refresh() tea.Cmd {
	return func() tea.Msg {
		entries, err := h.store.ListEntries(0)
		if err != nil {
			return errStatus("Load history", err)
		}
		summaries, err := h.store.DailySummaries()
		if err != nil {
			return errStatus("Load history", err)
		}
		return historyDataMsg{entries: entries, summaries: summaries}
	}
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case historyDataMsg:
		h.entries = msg.entries
		h.summaries = msg.summaries
		h.offset = clamp(h.offset, 0, max(0, h.rowCount()-1))
		h.buildChart()
		return h, nil

	case recordedMsg, importDoneMsg:
		return h, h.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if h.offset > 0 {
				h.offset--
			}
		case key.Matches(msg, keys.Down):
			if h.offset < h.rowCount()-1 {
				h.offset++
			}
		case key.Matches(msg, keys.SwitchView):
			if h.mode == historyEntries {
				h.mode = historyDays
			} else {
				h.mode = historyEntries
			}
			h.offset = 0
			return h, nil
		}
	}
	return h, nil
}

func (h historyModel) rowCount() int {
	if h.mode == historyDays {
		return len(h.summaries)
	}
	return len(h.entries)
}

// chartRange returns the last chartDays calendar dates, oldest first.
func (h historyModel) chartRange() []time.Time {
	now := h.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	days := make([]time.Time, 0, chartDays)
	for i := chartDays - 1; i >= 0; i-- {
		days = append(days, today.AddDate(0, 0, -i))
	}
	return days
}

func (h *historyModel) buildChart() {
	chartWidth := h.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	h.chartHeight = 8
	if h.height > 30 {
		h.chartHeight = 12
	}

	h.chart = barchart.New(chartWidth, h.chartHeight)

	byDate := make(map[string]int64, len(h.summaries))
	for _, s := range h.summaries {
		byDate[s.Date] = s.Delta
	}

	// Bars show magnitude; color carries the sign.
	var bars []barchart.BarData
	for _, d := range h.chartRange() {
		delta := byDate[d.Format("2006-01-02")]
		value := float64(delta)
		if value < 0 {
			value = -value
		}
		bars = append(bars, barchart.BarData{
			Label: d.Format("Mon 02"),
			Values: []barchart.BarValue{{
				Name:  formatDelta(delta),
				Value: value,
				Style: deltaStyle(delta),
			}},
		})
	}

	h.chart.PushAll(bars)
	h.chart.Draw()
}

func (h historyModel) view() string {
	w := h.width - 4

	entriesTab := inactiveTabStyle.Render("Entries")
	daysTab := inactiveTabStyle.Render("Days")
	if h.mode == historyEntries {
		entriesTab = activeTabStyle.Render("Entries")
	} else {
		daysTab = activeTabStyle.Render("Days")
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("History"), "  ", entriesTab, daysTab,
	)

	var table string
	if h.mode == historyDays {
		table = h.renderDays(w)
	} else {
		table = h.renderEntries(w)
	}

	nav := mutedStyle.Render("  ↑/↓: scroll  v: entries/days  e: export  i: import")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", h.chart.View(), "", table, "", nav,
		),
	)
}

func (h historyModel) visibleRows() int {
	// Header, chart and footer take roughly this many lines.
	rows := h.height - h.chartHeight - 14
	if rows < 3 {
		rows = 3
	}
	return rows
}

func (h historyModel) renderEntries(w int) string {
	if len(h.entries) == 0 {
		return mutedStyle.Render("  No entries yet")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-20s %8s %10s", "Time", "Delta", "Total")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", max(0, min(w-6, 40)))))

	end := min(len(h.entries), h.offset+h.visibleRows())
	for _, e := range h.entries[h.offset:end] {
		rows = append(rows, fmt.Sprintf("  %-20s %s %10d",
			e.Time().Local().Format("2006-01-02 15:04:05"),
			deltaStyle(e.Delta).Render(fmt.Sprintf("%8s", formatDelta(e.Delta))),
			e.TotalSnapshot,
		))
	}
	return strings.Join(rows, "\n")
}

func (h historyModel) renderDays(w int) string {
	if len(h.summaries) == 0 {
		return mutedStyle.Render("  No entries yet")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %8s %8s", "Date", "Net", "Entries")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", max(0, min(w-6, 30)))))

	end := min(len(h.summaries), h.offset+h.visibleRows())
	for _, s := range h.summaries[h.offset:end] {
		rows = append(rows, fmt.Sprintf("  %-12s %s %8d",
			s.Date,
			deltaStyle(s.Delta).Render(fmt.Sprintf("%8s", formatDelta(s.Delta))),
			s.Count,
		))
	}
	return strings.Join(rows, "\n")
}
