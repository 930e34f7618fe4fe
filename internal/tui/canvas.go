package tui

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tally/internal/overlay"
	"github.com/sadopc/tally/internal/windows"
)

// The engine works in virtual pixels; one terminal cell covers cellW x cellH
// of them, so trigger sizes and the drag threshold keep their usual scale.
const (
	cellW = 10
	cellH = 20
)

const popupItemWidth = 14

var errDetached = errors.New("handle has no window")

// cellLayout is what the canvas draws: the last position applied to each
// handle whose window is still loaded.
type cellLayout struct {
	configs map[string]*windows.Config
	applied map[string]overlay.Point
}

func (l *cellLayout) Apply(id string, pos overlay.Point) error {
	if _, ok := l.configs[id]; !ok {
		return errDetached
	}
	l.applied[id] = pos
	return nil
}

// popupState lives behind a pointer so the engine's activate callback and
// value copies of canvasModel agree on which popup is open.
type popupState struct {
	openID string
	cursor int
}

func (p *popupState) toggle(id string) {
	if p.openID == id {
		p.openID = ""
		return
	}
	p.openID = id
	p.cursor = 0
}

type canvasModel struct {
	windows  *windows.Store
	launcher *windows.Launcher
	log      *slog.Logger

	engine  *overlay.Engine
	layout  *cellLayout
	configs map[string]*windows.Config
	order   []string
	anim    animator
	popup   *popupState

	width   int
	height  int
	originX int
	originY int

	dragID string
	focus  int
}

func newCanvasModel(ws *windows.Store, l *windows.Launcher, log *slog.Logger) canvasModel {
	configs := make(map[string]*windows.Config)
	return canvasModel{
		windows:  ws,
		launcher: l,
		log:      log,
		layout:   &cellLayout{configs: configs, applied: make(map[string]overlay.Point)},
		configs:  configs,
		anim:     newAnimator(),
		popup:    &popupState{},
	}
}

// setSize sizes the canvas in cells. The first call creates the engine;
// later calls are screen rotations as far as the engine is concerned.
func (c *canvasModel) setSize(w, h int) {
	c.width = w
	c.height = h
	screen := c.screen()

	if c.engine == nil {
		if w <= 0 || h <= 0 {
			return
		}
		c.engine = overlay.NewEngine(screen,
			overlay.WithActivate(c.popup.toggle),
			overlay.WithLayout(c.layout),
			overlay.WithSink(c.windows),
			overlay.WithLogger(c.log),
		)
		c.syncHandles()
		return
	}
	if screen != c.engine.Screen() {
		c.engine.Resize(screen)
	}
}

// screen is the engine's surface in virtual pixels. It never shrinks below
// the largest enabled trigger, so a handle always fits on it even when the
// terminal is only a few rows tall.
func (c *canvasModel) screen() overlay.Size {
	s := overlay.Size{W: c.width * cellW, H: c.height * cellH}
	for _, cfg := range c.configs {
		if !cfg.TriggerEnabled {
			continue
		}
		size := cfg.Size()
		s.W = max(s.W, size.W)
		s.H = max(s.H, size.H)
	}
	return s
}

func (c *canvasModel) setOrigin(x, y int) {
	c.originX = x
	c.originY = y
}

func (c canvasModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return windowsDataMsg{configs: c.windows.List(context.Background())}
	}
}

// syncHandles brings the engine's handles in line with the loaded configs.
// Existing handles keep their live position; size and snap mode follow the
// config, and a snap mode change also resets the anchor.
func (c *canvasModel) syncHandles() {
	if c.engine == nil {
		return
	}
	for _, h := range c.engine.Handles() {
		if cfg, ok := c.configs[h.ID]; !ok || !cfg.TriggerEnabled {
			c.engine.Remove(h.ID)
			delete(c.layout.applied, h.ID)
		}
	}
	for _, id := range c.order {
		cfg := c.configs[id]
		if !cfg.TriggerEnabled {
			continue
		}
		if h, ok := c.engine.Handle(id); ok {
			h.Size = cfg.Size()
			if mode := cfg.SnapMode(); h.Mode != mode {
				// The anchor belongs to the old mode; take whatever the
				// editor saved alongside the new one.
				h.Mode = mode
				h.Anchor = cfg.CornerAnchor
			}
			continue
		}
		c.engine.Add(cfg.Handle())
	}
	if screen := c.screen(); screen != c.engine.Screen() {
		c.engine.Resize(screen)
	}
	if c.popup.openID != "" {
		if _, ok := c.configs[c.popup.openID]; !ok {
			c.popup.openID = ""
		}
	}
	c.focus = clamp(c.focus, 0, max(0, len(c.engine.Handles())-1))
}

func (c canvasModel) update(msg tea.Msg) (canvasModel, tea.Cmd) {
	switch msg := msg.(type) {
	case windowsDataMsg:
		c.configs = make(map[string]*windows.Config, len(msg.configs))
		c.order = make([]string, 0, len(msg.configs))
		for _, cfg := range msg.configs {
			c.configs[cfg.ID] = cfg
			c.order = append(c.order, cfg.ID)
		}
		c.layout.configs = c.configs
		c.syncHandles()
		return c, nil

	case frameMsg:
		if c.engine != nil && c.anim.step(c.engine, frameInterval) {
			return c, frameCmd()
		}
		return c, nil

	case tea.MouseMsg:
		return c.updateMouse(msg)

	case tea.KeyMsg:
		if key.Matches(msg, keys.Tray) {
			c.toggleTray(trayIndex(msg))
			return c, nil
		}
		if c.popup.openID != "" {
			return c.updatePopup(msg)
		}
		handles := c.handles()
		switch {
		case key.Matches(msg, keys.Up), key.Matches(msg, keys.Left):
			if c.focus > 0 {
				c.focus--
			}
		case key.Matches(msg, keys.Down), key.Matches(msg, keys.Right):
			if c.focus < len(handles)-1 {
				c.focus++
			}
		case key.Matches(msg, keys.Enter):
			if c.focus < len(handles) {
				c.popup.toggle(handles[c.focus].ID)
			}
		}
	}
	return c, nil
}

// trayIDs lists the windows offered as quick toggles, in config order.
// They work whether or not the window has a trigger on the canvas.
func (c canvasModel) trayIDs() []string {
	var ids []string
	for _, id := range c.order {
		if cfg := c.configs[id]; cfg.ShowInNotification {
			ids = append(ids, id)
		}
	}
	return ids
}

// toggleTray opens or closes the popup of the n-th tray window.
func (c canvasModel) toggleTray(n int) bool {
	ids := c.trayIDs()
	if n < 0 || n >= len(ids) {
		return false
	}
	c.popup.toggle(ids[n])
	return true
}

// trayIndex maps f1..f9 to 0..8.
func trayIndex(msg tea.KeyMsg) int {
	n, err := strconv.Atoi(strings.TrimPrefix(msg.String(), "f"))
	if err != nil {
		return -1
	}
	return n - 1
}

func (c canvasModel) handles() []*overlay.Handle {
	if c.engine == nil {
		return nil
	}
	return c.engine.Handles()
}

// toPoint maps a terminal cell to the virtual pixel at its center.
func (c canvasModel) toPoint(x, y int) overlay.Point {
	return overlay.Point{
		X: (x-c.originX)*cellW + cellW/2,
		Y: (y-c.originY)*cellH + cellH/2,
	}
}

func (c canvasModel) updateMouse(msg tea.MouseMsg) (canvasModel, tea.Cmd) {
	if c.engine == nil || c.popup.openID != "" {
		return c, nil
	}
	p := c.toPoint(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return c, nil
		}
		h, ok := c.engine.HitTest(p)
		if !ok {
			return c, nil
		}
		if err := c.engine.BeginDrag(h.ID, p); err != nil {
			return c, nil
		}
		c.dragID = h.ID
		for i, hh := range c.engine.Handles() {
			if hh.ID == h.ID {
				c.focus = i
			}
		}

	case tea.MouseActionMotion:
		if c.dragID != "" {
			c.engine.UpdateDrag(c.dragID, p)
		}

	case tea.MouseActionRelease:
		if c.dragID == "" {
			return c, nil
		}
		id := c.dragID
		c.dragID = ""
		anim, err := c.engine.EndDrag(id)
		if err != nil || anim == nil {
			return c, nil
		}
		if c.anim.start(anim) {
			return c, frameCmd()
		}
	}
	return c, nil
}

func (c canvasModel) updatePopup(msg tea.KeyMsg) (canvasModel, tea.Cmd) {
	cfg, ok := c.configs[c.popup.openID]
	if !ok {
		c.popup.openID = ""
		return c, nil
	}
	n := len(cfg.Items)
	cols := max(1, cfg.Columns)

	switch {
	case key.Matches(msg, keys.Back):
		c.popup.openID = ""
	case key.Matches(msg, keys.Left):
		if c.popup.cursor > 0 {
			c.popup.cursor--
		}
	case key.Matches(msg, keys.Right):
		if c.popup.cursor < n-1 {
			c.popup.cursor++
		}
	case key.Matches(msg, keys.Up):
		if c.popup.cursor-cols >= 0 {
			c.popup.cursor -= cols
		}
	case key.Matches(msg, keys.Down):
		if c.popup.cursor+cols < n {
			c.popup.cursor += cols
		}
	case key.Matches(msg, keys.Enter):
		if c.popup.cursor < n {
			item := cfg.Items[c.popup.cursor]
			c.popup.openID = ""
			return c, c.launch(item)
		}
	}
	return c, nil
}

func (c canvasModel) launch(item windows.Item) tea.Cmd {
	return func() tea.Msg {
		if err := c.launcher.Launch(context.Background(), item); err != nil {
			return errStatus("Launch", err)
		}
		return statusMsg{text: "Launched " + item.Label}
	}
}

// --- Rendering ---

type cell struct {
	ch    string
	style lipgloss.Style
	set   bool
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	return -floorDiv(-a, b)
}

func (c canvasModel) view() string {
	if c.width <= 0 || c.height <= 0 {
		return ""
	}
	if len(c.configs) == 0 {
		return lipgloss.Place(c.width, c.height, lipgloss.Center, lipgloss.Center,
			mutedStyle.Render("No windows yet. Press 4 to create one."))
	}
	if cfg, ok := c.configs[c.popup.openID]; ok {
		return lipgloss.Place(c.width, c.height, lipgloss.Center, lipgloss.Center, c.renderPopup(cfg))
	}

	grid := make([][]cell, c.height)
	for y := range grid {
		grid[y] = make([]cell, c.width)
	}
	for i, h := range c.handles() {
		cfg, ok := c.configs[h.ID]
		if !ok {
			continue
		}
		pos, ok := c.layout.applied[h.ID]
		if !ok {
			pos = h.Pos
		}
		c.drawHandle(grid, cfg, pos, h.Size, h.Pressed(), i == c.focus)
	}

	rows := make([]string, c.height)
	for y, row := range grid {
		var b strings.Builder
		for _, cl := range row {
			if !cl.set {
				b.WriteString(" ")
				continue
			}
			b.WriteString(cl.style.Render(cl.ch))
		}
		rows[y] = b.String()
	}
	return canvasStyle.Render(strings.Join(rows, "\n"))
}

func (c canvasModel) drawHandle(grid [][]cell, cfg *windows.Config, pos overlay.Point, size overlay.Size, pressed, focused bool) {
	x0, y0 := floorDiv(pos.X, cellW), floorDiv(pos.Y, cellH)
	w, h := max(1, ceilDiv(size.W, cellW)), max(1, ceilDiv(size.H, cellH))
	style, fill := triggerStyle(cfg, pressed)
	if focused {
		style = style.Bold(true).Underline(true)
	}

	label := " "
	if r := []rune(strings.TrimSpace(cfg.Name)); len(r) > 0 {
		label = string(unicode.ToUpper(r[0]))
	}

	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			x, y := x0+dx, y0+dy
			if y < 0 || y >= len(grid) || x < 0 || x >= len(grid[y]) {
				continue
			}
			ch := fill
			if cfg.TriggerStyle == windows.Outline {
				ch = outlineRune(dx, dy, w, h, cfg.Radii())
			}
			if dx == w/2 && dy == h/2 {
				ch = label
			}
			grid[y][x] = cell{ch: ch, style: style, set: true}
		}
	}
}

// outlineRune picks the border rune for a cell of an outlined trigger.
// Radii are in TL, TR, BR, BL order; a zero radius gives a square corner.
func outlineRune(dx, dy, w, h int, radii [4]int) string {
	top, bottom := dy == 0, dy == h-1
	left, right := dx == 0, dx == w-1
	corner := func(i int, round, square string) string {
		if radii[i] > 0 {
			return round
		}
		return square
	}
	switch {
	case top && left:
		return corner(0, "╭", "┌")
	case top && right:
		return corner(1, "╮", "┐")
	case bottom && right:
		return corner(2, "╯", "┘")
	case bottom && left:
		return corner(3, "╰", "└")
	case top || bottom:
		return "─"
	case left || right:
		return "│"
	default:
		return " "
	}
}

func (c canvasModel) renderPopup(cfg *windows.Config) string {
	title := titleStyle.Render(cfg.Name)
	if len(cfg.Items) == 0 {
		return activePanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("No items. Add some in the Windows tab."),
		))
	}

	cols := max(1, cfg.Columns)
	var rows []string
	for start := 0; start < len(cfg.Items); start += cols {
		end := min(start+cols, len(cfg.Items))
		var cells []string
		for i := start; i < end; i++ {
			cells = append(cells, renderItem(cfg, cfg.Items[i], i == c.popup.cursor))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	hint := mutedStyle.Render("arrows: move  enter: launch  esc: close")
	return activePanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		title, "", lipgloss.JoinVertical(lipgloss.Left, rows...), "", hint,
	))
}

func renderItem(cfg *windows.Config, it windows.Item, selected bool) string {
	label := it.Label
	if !cfg.ShowLabels {
		label = ""
	}

	var s string
	switch it.DisplayMode {
	case windows.Block:
		s = blockStyle(it.BlockColor).Width(popupItemWidth - 2).Render(truncate(label, popupItemWidth-2))
	default:
		icon := "?"
		if r := []rune(it.Label); len(r) > 0 {
			icon = string(unicode.ToUpper(r[0]))
		}
		text := "[" + icon + "]"
		if label != "" {
			text += " " + truncate(label, popupItemWidth-6)
		}
		s = normalItemStyle.Width(popupItemWidth - 2).Render(text)
	}
	if selected {
		s = selectedItemStyle.Reverse(true).Render(s)
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
