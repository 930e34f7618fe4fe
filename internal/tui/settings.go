package tui

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tally/internal/config"
	"github.com/sadopc/tally/internal/notify"
	"github.com/sadopc/tally/internal/store"
)

type settingsModel struct {
	store  *store.Store
	hub    *notify.Hub
	cfg    config.Config
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form value as a pointer (survives value copies)
	displayMode *string
}

func newSettingsModel(s *store.Store, hub *notify.Hub, cfg config.Config) settingsModel {
	dm := ""
	return settingsModel{
		store:       s,
		hub:         hub,
		cfg:         cfg,
		displayMode: &dm,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, err := s.store.GetAllSettings()
		if err != nil {
			return errStatus("Read settings", err)
		}
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case recordedMsg:
		return s, s.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		case key.Matches(msg, keys.Recalc):
			return s, s.recalculate()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	mode, err := s.store.DisplayMode()
	if err != nil {
		mode = store.DisplayTotal
	}
	*s.displayMode = mode.String()

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Counter shows").
				Options(
					huh.NewOption("Running total", store.DisplayTotal.String()),
					huh.NewOption("Today since cycle start", store.DisplayDaily.String()),
				).Value(s.displayMode),
		).Title("Display"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s, s.saveSettings()
	}

	return s, cmd
}

func (s settingsModel) saveSettings() tea.Cmd {
	mode := store.ParseDisplayMode(*s.displayMode)
	return func() tea.Msg {
		if err := s.store.SetDisplayMode(mode); err != nil {
			return errStatus("Save settings", err)
		}
		return s.publish()
	}
}

// recalculate rebuilds the cached counters from the ledger.
func (s settingsModel) recalculate() tea.Cmd {
	return tea.Sequence(
		func() tea.Msg {
			bal, err := s.store.RecalculateTotals()
			if err != nil {
				return errStatus("Recalculate", err)
			}
			return statusMsg{text: fmt.Sprintf("Recalculated: total %d, today %d", bal.Total, bal.Daily)}
		},
		func() tea.Msg { return s.publish() },
	)
}

func (s settingsModel) publish() tea.Msg {
	d, err := s.store.Display()
	if err != nil {
		return errStatus("Read balance", err)
	}
	if s.hub != nil {
		s.hub.Notify(context.Background(), d)
	}
	return recordedMsg{display: d}
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		formView := s.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	var rows []string
	rows = append(rows, titleStyle.Render("Settings"))
	rows = append(rows, "")

	for _, setting := range s.settings {
		rows = append(rows, settingRow(setting.Key, formatSettingValue(setting.Key, setting.Value)))
	}

	rows = append(rows, "")
	rows = append(rows, titleStyle.Render("Environment"))
	rows = append(rows, "")
	rows = append(rows,
		settingRow("database", s.cfg.DBPath),
		settingRow("windows", s.cfg.WindowsDir),
		settingRow("status file", orNone(s.cfg.StatusFile)),
		settingRow("log file", s.cfg.LogFile),
		settingRow("log level", s.cfg.LogLevel),
		settingRow("cycle start", fmt.Sprintf("%02d:00", s.cfg.CycleStartHour)),
		settingRow("merge window", s.cfg.MergeWindow.String()),
		settingRow("opener", s.cfg.Opener),
	)

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("enter: change display  r: recalculate totals"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func settingRow(label, value string) string {
	l := lipgloss.NewStyle().Width(24).Render(label)
	return fmt.Sprintf("  %s %s", l, highlightStyle.Render(value))
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func formatSettingValue(k, v string) string {
	switch k {
	case "last_reset_time":
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			if ms == 0 {
				return "never"
			}
			return time.UnixMilli(ms).Local().Format("2006-01-02 15:04:05")
		}
	case "display_mode":
		return store.ParseDisplayMode(v).Label()
	}
	return v
}
