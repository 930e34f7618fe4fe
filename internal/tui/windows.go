package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tally/internal/overlay"
	"github.com/sadopc/tally/internal/windows"
)

type windowsFormKind int

const (
	windowsFormNone windowsFormKind = iota
	windowsFormWindow
	windowsFormItem
)

// windowFields backs the window form. Held by pointer so huh can write into
// it across value copies of the model.
type windowFields struct {
	name           string
	columns        string
	triggerWidth   string
	triggerHeight  string
	color          string
	style          string
	cornerSnap     bool
	showLabels     bool
	triggerEnabled bool
	notification   bool
}

type itemFields struct {
	kind       string
	label      string
	target     string
	display    string
	blockColor string
}

type windowsModel struct {
	ws     *windows.Store
	width  int
	height int

	configs    []*windows.Config
	cursor     int
	itemCursor int
	itemsFocus bool

	formActive bool
	formKind   windowsFormKind
	form       *huh.Form
	editingID  string // window being edited, "" for a new one
	editItemID string // item being edited, "" for a new one

	window *windowFields
	item   *itemFields
}

func newWindowsModel(ws *windows.Store) windowsModel {
	return windowsModel{
		ws:     ws,
		window: &windowFields{},
		item:   &itemFields{},
	}
}

func (w *windowsModel) setSize(width, height int) {
	w.width = width
	w.height = height
}

func (w windowsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return windowsDataMsg{configs: w.ws.List(context.Background())}
	}
}

func (w windowsModel) selected() *windows.Config {
	if w.cursor < 0 || w.cursor >= len(w.configs) {
		return nil
	}
	return w.configs[w.cursor]
}

func (w windowsModel) update(msg tea.Msg) (windowsModel, tea.Cmd) {
	if w.formActive && w.form != nil {
		return w.updateForm(msg)
	}

	switch msg := msg.(type) {
	case windowsDataMsg:
		w.configs = msg.configs
		w.cursor = clamp(w.cursor, 0, max(0, len(w.configs)-1))
		if c := w.selected(); c != nil {
			w.itemCursor = clamp(w.itemCursor, 0, max(0, len(c.Items)-1))
		} else {
			w.itemsFocus = false
		}
		return w, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if w.itemsFocus {
				if w.itemCursor > 0 {
					w.itemCursor--
				}
			} else if w.cursor > 0 {
				w.cursor--
				w.itemCursor = 0
			}
		case key.Matches(msg, keys.Down):
			if w.itemsFocus {
				if c := w.selected(); c != nil && w.itemCursor < len(c.Items)-1 {
					w.itemCursor++
				}
			} else if w.cursor < len(w.configs)-1 {
				w.cursor++
				w.itemCursor = 0
			}
		case key.Matches(msg, keys.Right), key.Matches(msg, keys.Enter):
			if w.selected() != nil {
				w.itemsFocus = true
			}
		case key.Matches(msg, keys.Left), key.Matches(msg, keys.Back):
			w.itemsFocus = false
		case key.Matches(msg, keys.New):
			if w.itemsFocus {
				return w.showItemForm(nil)
			}
			return w.showWindowForm(nil)
		case key.Matches(msg, keys.Edit):
			c := w.selected()
			if c == nil {
				return w, nil
			}
			if w.itemsFocus {
				if w.itemCursor < len(c.Items) {
					it := c.Items[w.itemCursor]
					return w.showItemForm(&it)
				}
				return w, nil
			}
			return w.showWindowForm(c)
		case key.Matches(msg, keys.Delete):
			return w, w.deleteSelected()
		}
	}
	return w, nil
}

// --- Forms ---

func validateInt(lo, hi int) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return errors.New("must be a number")
		}
		if n < lo || n > hi {
			return fmt.Errorf("must be between %d and %d", lo, hi)
		}
		return nil
	}
}

func validateColor(s string) error {
	_, err := windows.ParseColor(s)
	return err
}

func (w windowsModel) showWindowForm(c *windows.Config) (windowsModel, tea.Cmd) {
	if c == nil {
		c = windows.NewConfig("")
		w.editingID = ""
	} else {
		w.editingID = c.ID
	}
	size := c.Size()
	*w.window = windowFields{
		name:           c.Name,
		columns:        strconv.Itoa(c.Columns),
		triggerWidth:   strconv.Itoa(size.W),
		triggerHeight:  strconv.Itoa(size.H),
		color:          windows.FormatColor(c.TriggerColor),
		style:          c.TriggerStyle.String(),
		cornerSnap:     c.CornerSnap,
		showLabels:     c.ShowLabels,
		triggerEnabled: c.TriggerEnabled,
		notification:   c.ShowInNotification,
	}

	f := w.window
	w.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&f.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name is required")
					}
					return nil
				}),
			huh.NewInput().Title("Columns").Value(&f.columns).Validate(validateInt(1, 12)),
			huh.NewConfirm().Title("Show labels").Value(&f.showLabels),
			huh.NewConfirm().Title("Show in notification").Value(&f.notification),
		).Title("Window"),
		huh.NewGroup(
			huh.NewConfirm().Title("Trigger enabled").Value(&f.triggerEnabled),
			huh.NewInput().Title("Width").Value(&f.triggerWidth).Validate(validateInt(10, 400)),
			huh.NewInput().Title("Height").Value(&f.triggerHeight).Validate(validateInt(10, 400)),
			huh.NewInput().Title("Color (#RRGGBB or #AARRGGBB)").Value(&f.color).Validate(validateColor),
			huh.NewSelect[string]().Title("Style").
				Options(
					huh.NewOption("Solid", windows.Solid.String()),
					huh.NewOption("Outline", windows.Outline.String()),
					huh.NewOption("Glass", windows.Glass.String()),
					huh.NewOption("Inverted", windows.Inverted.String()),
				).Value(&f.style),
			huh.NewConfirm().Title("Snap to corners").Value(&f.cornerSnap),
		).Title("Trigger"),
	).WithShowHelp(true).WithShowErrors(true)

	w.formActive = true
	w.formKind = windowsFormWindow
	return w, w.form.Init()
}

func (w windowsModel) showItemForm(it *windows.Item) (windowsModel, tea.Cmd) {
	if w.selected() == nil {
		return w, nil
	}
	if it == nil {
		w.editItemID = ""
		*w.item = itemFields{kind: windows.App.String(), display: windows.Icon.String()}
	} else {
		w.editItemID = it.ID
		*w.item = itemFields{
			kind:       it.Kind.String(),
			label:      it.Label,
			target:     it.Target,
			display:    it.DisplayMode.String(),
			blockColor: it.BlockColor,
		}
	}

	f := w.item
	w.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Type").
				Options(
					huh.NewOption("App (command line)", windows.App.String()),
					huh.NewOption("Shortcut (URI)", windows.Shortcut.String()),
					huh.NewOption("Tasker task", windows.Tasker.String()),
				).Value(&f.kind),
			huh.NewInput().Title("Label").Value(&f.label),
			huh.NewInput().Title("Target").Value(&f.target).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("target is required")
					}
					return nil
				}),
			huh.NewSelect[string]().Title("Display").
				Options(
					huh.NewOption("Icon", windows.Icon.String()),
					huh.NewOption("Color block", windows.Block.String()),
				).Value(&f.display),
			huh.NewInput().Title("Block color (optional)").Value(&f.blockColor).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					return validateColor(s)
				}),
		).Title("Item"),
	).WithShowHelp(true).WithShowErrors(true)

	w.formActive = true
	w.formKind = windowsFormItem
	return w, w.form.Init()
}

func (w windowsModel) updateForm(msg tea.Msg) (windowsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			w.formActive = false
			w.form = nil
			return w, nil
		}
	}

	form, cmd := w.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		w.form = f
	}

	if w.form.State == huh.StateCompleted {
		w.formActive = false
		kind := w.formKind
		w.formKind = windowsFormNone
		if kind == windowsFormItem {
			return w, w.saveItem()
		}
		return w, w.saveWindow()
	}

	return w, cmd
}

// load re-reads the window so fields the editor does not own, like the
// trigger position, are not overwritten with stale values.
func (w windowsModel) load(id string) (*windows.Config, error) {
	if id == "" {
		return windows.NewConfig(""), nil
	}
	return w.ws.Get(id)
}

func (w windowsModel) saveWindow() tea.Cmd {
	f := *w.window
	id := w.editingID
	return func() tea.Msg {
		c, err := w.load(id)
		if err != nil {
			return errStatus("Save window", err)
		}
		if err := applyWindowFields(c, f); err != nil {
			return errStatus("Save window", err)
		}
		if err := w.ws.Save(c); err != nil {
			return errStatus("Save window", err)
		}
		return windowSavedMsg{text: "Saved window " + c.Name}
	}
}

func applyWindowFields(c *windows.Config, f windowFields) error {
	c.Name = strings.TrimSpace(f.name)
	c.Columns, _ = strconv.Atoi(strings.TrimSpace(f.columns))
	c.TriggerWidth, _ = strconv.Atoi(strings.TrimSpace(f.triggerWidth))
	c.TriggerHeight, _ = strconv.Atoi(strings.TrimSpace(f.triggerHeight))
	c.LegacySize = 0

	color, err := windows.ParseColor(f.color)
	if err != nil {
		return err
	}
	c.TriggerColor = color
	for _, s := range []windows.TriggerStyle{windows.Solid, windows.Outline, windows.Glass, windows.Inverted} {
		if s.String() == f.style {
			c.TriggerStyle = s
		}
	}
	if c.CornerSnap != f.cornerSnap {
		c.CornerAnchor = overlay.Unset
	}
	c.CornerSnap = f.cornerSnap
	c.ShowLabels = f.showLabels
	c.TriggerEnabled = f.triggerEnabled
	c.ShowInNotification = f.notification
	return nil
}

func (w windowsModel) saveItem() tea.Cmd {
	f := *w.item
	itemID := w.editItemID
	sel := w.selected()
	if sel == nil {
		return nil
	}
	id := sel.ID
	return func() tea.Msg {
		c, err := w.ws.Get(id)
		if err != nil {
			return errStatus("Save item", err)
		}
		kind, err := windows.ParseKind(f.kind)
		if err != nil {
			return errStatus("Save item", err)
		}
		label := strings.TrimSpace(f.label)
		if label == "" {
			label = strings.TrimSpace(f.target)
		}

		it := windows.NewItem(kind, label, strings.TrimSpace(f.target))
		if f.display == windows.Block.String() {
			it.DisplayMode = windows.Block
		}
		it.BlockColor = strings.TrimSpace(f.blockColor)

		replaced := false
		if itemID != "" {
			for i := range c.Items {
				if c.Items[i].ID == itemID {
					it.ID = itemID
					c.Items[i] = it
					replaced = true
				}
			}
		}
		if !replaced {
			c.Items = append(c.Items, it)
		}
		if err := w.ws.Save(c); err != nil {
			return errStatus("Save item", err)
		}
		return windowSavedMsg{text: "Saved item " + it.Label}
	}
}

func (w windowsModel) deleteSelected() tea.Cmd {
	c := w.selected()
	if c == nil {
		return nil
	}
	id := c.ID

	if !w.itemsFocus {
		name := c.Name
		return func() tea.Msg {
			if err := w.ws.Delete(id); err != nil {
				return errStatus("Delete window", err)
			}
			return windowSavedMsg{text: "Deleted window " + name}
		}
	}

	if w.itemCursor >= len(c.Items) {
		return nil
	}
	it := c.Items[w.itemCursor]
	return func() tea.Msg {
		fresh, err := w.ws.Get(id)
		if err != nil {
			return errStatus("Delete item", err)
		}
		if !fresh.RemoveItem(it.ID) {
			return statusMsg{text: "Item already removed"}
		}
		if err := w.ws.Save(fresh); err != nil {
			return errStatus("Delete item", err)
		}
		return windowSavedMsg{text: "Deleted item " + it.Label}
	}
}

// --- View ---

func (w windowsModel) view() string {
	width := w.width - 4

	if w.formActive && w.form != nil {
		title := "New Window"
		switch {
		case w.formKind == windowsFormItem && w.editItemID != "":
			title = "Edit Item"
		case w.formKind == windowsFormItem:
			title = "New Item"
		case w.editingID != "":
			title = "Edit Window"
		}
		return panelStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", w.form.View()),
		)
	}

	if len(w.configs) == 0 {
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Windows"),
			"",
			mutedStyle.Render("No windows yet. Press n to create one."),
		))
	}

	leftW := max(24, width/3)
	rightW := max(20, width-leftW-2)
	left := w.renderList(leftW)
	right := w.renderItems(rightW)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (w windowsModel) renderList(width int) string {
	rows := []string{titleStyle.Render("Windows"), ""}
	for i, c := range w.configs {
		cursor := "  "
		style := normalItemStyle
		if i == w.cursor {
			cursor = "> "
			if !w.itemsFocus {
				style = selectedItemStyle
			}
		}
		trigger := mutedStyle.Render("off")
		if c.TriggerEnabled {
			trigger = lipgloss.NewStyle().Foreground(lipgloss.Color(windows.RGB(c.TriggerColor))).Render("●")
		}
		rows = append(rows, fmt.Sprintf("%s%s %s %s",
			cursor, trigger, style.Render(c.Name), mutedStyle.Render(fmt.Sprintf("(%d)", len(c.Items)))))
	}
	rows = append(rows, "", mutedStyle.Render("n: new  E: edit  d: delete  →: items"))

	st := panelStyle
	if !w.itemsFocus {
		st = activePanelStyle
	}
	return st.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (w windowsModel) renderItems(width int) string {
	c := w.selected()
	if c == nil {
		return ""
	}

	mode := "edge snap"
	if c.CornerSnap {
		mode = "corner snap"
		if c.CornerAnchor != overlay.Unset {
			mode += " · " + c.CornerAnchor.String()
		}
	}
	size := c.Size()
	info := mutedStyle.Render(fmt.Sprintf("%d cols · trigger %dx%d · %s · %s",
		c.Columns, size.W, size.H, c.TriggerStyle, mode))

	rows := []string{titleStyle.Render(c.Name), info, ""}
	if len(c.Items) == 0 {
		rows = append(rows, mutedStyle.Render("No items. Press → then n to add one."))
	}
	for i, it := range c.Items {
		cursor := "  "
		style := normalItemStyle
		if w.itemsFocus && i == w.itemCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		kind := lipgloss.NewStyle().Width(9).Render(it.Kind.String())
		rows = append(rows, fmt.Sprintf("%s%s %s %s",
			cursor, mutedStyle.Render(kind), style.Render(it.Label), mutedStyle.Render(it.Target)))
	}

	st := panelStyle
	if w.itemsFocus {
		st = activePanelStyle
	}
	return st.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
