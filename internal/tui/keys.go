package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Increment  key.Binding
	Decrement  key.Binding
	ToggleMode key.Binding
	SwitchView key.Binding
	Recalc     key.Binding
	New        key.Binding
	Edit       key.Binding
	Delete     key.Binding
	Export     key.Binding
	Import     key.Binding
	Tab1       key.Binding
	Tab2       key.Binding
	Tab3       key.Binding
	Tab4       key.Binding
	Tab5       key.Binding
	Tab        key.Binding
	Tray       key.Binding
	Help       key.Binding
	Enter      key.Binding
	Back       key.Binding
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	Quit       key.Binding
}

var keys = keyMap{
	Increment: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "add 1"),
	),
	Decrement: key.NewBinding(
		key.WithKeys("-", "_"),
		key.WithHelp("-", "subtract 1"),
	),
	ToggleMode: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "total/today"),
	),
	SwitchView: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "entries/days"),
	),
	Recalc: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "recalculate"),
	),
	New: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new"),
	),
	Edit: key.NewBinding(
		key.WithKeys("E"),
		key.WithHelp("E", "edit"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete"),
	),
	Export: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "export"),
	),
	Import: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "import"),
	),
	Tab1: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "counter"),
	),
	Tab2: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "history"),
	),
	Tab3: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "overlay"),
	),
	Tab4: key.NewBinding(
		key.WithKeys("4"),
		key.WithHelp("4", "windows"),
	),
	Tab5: key.NewBinding(
		key.WithKeys("5"),
		key.WithHelp("5", "settings"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "left"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "right"),
	),
	Tray: key.NewBinding(
		key.WithKeys("f1", "f2", "f3", "f4", "f5", "f6", "f7", "f8", "f9"),
		key.WithHelp("f1-f9", "quick window"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Increment, k.Decrement, k.ToggleMode, k.Tab, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Increment, k.Decrement, k.ToggleMode, k.Recalc},
		{k.New, k.Edit, k.Delete, k.SwitchView},
		{k.Export, k.Import},
		{k.Tab1, k.Tab2, k.Tab3, k.Tab4, k.Tab5, k.Tray},
		{k.Up, k.Down, k.Enter, k.Back, k.Quit},
	}
}
