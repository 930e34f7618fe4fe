package tui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tally/internal/config"
	"github.com/sadopc/tally/internal/export"
	"github.com/sadopc/tally/internal/notify"
	"github.com/sadopc/tally/internal/store"
	"github.com/sadopc/tally/internal/windows"
)

// Deps are the collaborators the UI drives.
type Deps struct {
	Store    *store.Store
	Windows  *windows.Store
	Launcher *windows.Launcher
	Hub      *notify.Hub
	Config   config.Config
	Log      *slog.Logger
}

// App is the root Bubble Tea model.
type App struct {
	store  *store.Store
	hub    *notify.Hub
	log    *slog.Logger
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	importActive bool
	importForm   *huh.Form
	importPath   *string

	counter  counterModel
	history  historyModel
	canvas   canvasModel
	windows  windowsModel
	settings settingsModel

	help   help.Model
	status string
	isErr  bool
}

func NewApp(d Deps) App {
	h := help.New()
	h.ShowAll = false

	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	path := ""

	return App{
		store:      d.Store,
		hub:        d.Hub,
		log:        log,
		activeView: viewCounter,
		importPath: &path,
		counter:    newCounterModel(d.Store, d.Hub),
		history:    newHistoryModel(d.Store),
		canvas:     newCanvasModel(d.Windows, d.Launcher, log),
		windows:    newWindowsModel(d.Windows),
		settings:   newSettingsModel(d.Store, d.Hub, d.Config),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.counter.Init(),
		a.canvas.refresh(),
		tickCmd(),
	)
}

// The minute tick rolls the daily counter over at the cycle boundary.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Minute, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		headerHeight := lipgloss.Height(a.renderHeader())
		contentHeight := max(1, a.height-headerHeight-1)
		a.counter.setSize(a.width, contentHeight)
		a.history.setSize(a.width, contentHeight)
		a.canvas.setOrigin(0, headerHeight)
		a.canvas.setSize(a.width, contentHeight)
		a.windows.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}
		if a.importActive {
			return a.updateImportForm(msg)
		}

		// Quick toggles reach the overlay from any view that is not typing.
		if key.Matches(msg, keys.Tray) && !a.windows.formActive && !a.settings.formActive {
			if a.canvas.toggleTray(trayIndex(msg)) {
				a.activeView = viewOverlay
			}
			return a, nil
		}

		// If a child view is capturing input (e.g. form, popup), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Import):
			return a.showImportForm()
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewCounter
			return a, a.counter.loadData()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewHistory
			return a, a.history.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewOverlay
			return a, a.canvas.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewWindows
			return a, a.windows.refresh()
		case key.Matches(msg, keys.Tab5):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

	case tea.MouseMsg:
		if a.activeView != viewOverlay || a.exportPicking || a.importActive {
			return a, nil
		}
		var cmd tea.Cmd
		a.canvas, cmd = a.canvas.update(msg)
		return a, cmd

	case tickMsg:
		cmds = append(cmds, tickCmd())
		var cmd tea.Cmd
		a.counter, cmd = a.counter.update(msg)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)

	case frameMsg:
		var cmd tea.Cmd
		a.canvas, cmd = a.canvas.update(msg)
		return a, cmd

	case recordedMsg:
		// Every view showing counters follows a ledger change.
		var cmd tea.Cmd
		a.counter, cmd = a.counter.update(msg)
		cmds = append(cmds, cmd)
		a.history, cmd = a.history.update(msg)
		cmds = append(cmds, cmd)
		a.settings, cmd = a.settings.update(msg)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)

	case windowsDataMsg:
		var cmd tea.Cmd
		a.windows, cmd = a.windows.update(msg)
		cmds = append(cmds, cmd)
		a.canvas, cmd = a.canvas.update(msg)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)

	case windowSavedMsg:
		a.setStatus(msg.text, false)
		return a, a.windows.refresh()

	case statusMsg:
		a.setStatus(msg.text, msg.isError)
		return a, nil

	case exportDoneMsg:
		a.setStatus("Exported to "+msg.path, false)
		a.exportPicking = false
		return a, nil

	case importDoneMsg:
		if msg.err != nil {
			a.setStatus(fmt.Sprintf("Import error: %v", msg.err), true)
			return a, nil
		}
		a.setStatus(fmt.Sprintf("Imported %d entries (%d skipped)", msg.imported, msg.skipped), false)
		var cmd tea.Cmd
		a.history, cmd = a.history.update(msg)
		return a, tea.Batch(cmd, a.counter.publish)
	}

	return a.updateActiveView(msg)
}

func (a *App) setStatus(text string, isErr bool) {
	a.status = text
	a.isErr = isErr
	if isErr {
		a.log.Warn("ui error", "status", text)
	}
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewCounter:
		a.counter, cmd = a.counter.update(msg)
	case viewHistory:
		a.history, cmd = a.history.update(msg)
	case viewOverlay:
		a.canvas, cmd = a.canvas.update(msg)
	case viewWindows:
		a.windows, cmd = a.windows.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewOverlay:
		return a.canvas.popup.openID != ""
	case viewWindows:
		return a.windows.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewCounter:
		return a.counter.loadData()
	case viewHistory:
		return a.history.refresh()
	case viewOverlay:
		return a.canvas.refresh()
	case viewWindows:
		return a.windows.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewCounter:
		content = a.counter.view()
	case viewHistory:
		content = a.history.view()
	case viewOverlay:
		content = a.canvas.view()
	case viewWindows:
		content = a.windows.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	switch {
	case a.exportPicking:
		content = a.renderExportPicker()
	case a.importActive && a.importForm != nil:
		content = activePanelStyle.Width(a.width - 4).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Import JSON"), "", a.importForm.View()),
		)
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		MaxHeight(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("tally")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.isErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Live amount in the footer
	amount := modeLabelStyle.Render(" " + formatAmount(a.counter.display))

	left := footerStyle.Render(helpView)
	right := amount + a.renderTray() + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

// renderTray lists the quick toggle windows with their function keys; the
// open one is highlighted.
func (a App) renderTray() string {
	ids := a.canvas.trayIDs()
	var parts []string
	for i, id := range ids {
		if i >= 9 {
			break
		}
		style := mutedStyle
		if id == a.canvas.popup.openID {
			style = highlightStyle
		}
		parts = append(parts, style.Render(fmt.Sprintf("F%d %s", i+1, truncate(a.canvas.configs[id].Name, 10))))
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}

// --- Export ---

var exportFormats = []string{"JSON", "CSV"}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	return func() tea.Msg {
		entries, err := a.store.ListEntries(0)
		if err != nil {
			return errStatus("Export error", err)
		}

		home, err := os.UserHomeDir()
		if err != nil {
			return errStatus("Export error", err)
		}
		now := time.Now()

		var path string
		if format == 0 {
			path = filepath.Join(home, export.FileName(now, "json"))
			if err := export.ToJSON(entries, path); err != nil {
				return errStatus("JSON error", err)
			}
		} else {
			path = filepath.Join(home, export.FileName(now, "csv"))
			if err := export.ToCSV(entries, path); err != nil {
				return errStatus("CSV error", err)
			}
		}

		return exportDoneMsg{path: path}
	}
}

// --- Import ---

func (a App) showImportForm() (tea.Model, tea.Cmd) {
	*a.importPath = ""
	a.importForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("File").
				Placeholder("~/tally-export.json").
				Value(a.importPath).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("path is required")
					}
					return nil
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)
	a.importActive = true
	return a, a.importForm.Init()
}

func (a App) updateImportForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		a.importActive = false
		a.importForm = nil
		return a, nil
	}

	form, cmd := a.importForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.importForm = f
	}

	if a.importForm.State == huh.StateCompleted {
		a.importActive = false
		a.importForm = nil
		return a, a.doImport(expandHome(strings.TrimSpace(*a.importPath)))
	}
	return a, cmd
}

func (a App) doImport(path string) tea.Cmd {
	return func() tea.Msg {
		imported, skipped, err := export.ImportFile(a.store, path)
		return importDoneMsg{imported: imported, skipped: skipped, err: err}
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// Publish pushes the current display to every notifier, for callers outside
// the UI loop.
func (a App) Publish(ctx context.Context) error {
	d, err := a.store.Display()
	if err != nil {
		return err
	}
	if a.hub != nil {
		a.hub.Notify(ctx, d)
	}
	return nil
}
