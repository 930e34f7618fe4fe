package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tally/internal/config"
	"github.com/sadopc/tally/internal/export"
	"github.com/sadopc/tally/internal/notify"
	"github.com/sadopc/tally/internal/overlay"
	"github.com/sadopc/tally/internal/store"
	"github.com/sadopc/tally/internal/windows"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// recorder is a notifier that keeps every display it is sent.
type recorder struct {
	got []store.Display
}

func (r *recorder) Notify(_ context.Context, d store.Display) error {
	r.got = append(r.got, d)
	return nil
}

func newTestDeps(t *testing.T) (Deps, *recorder) {
	t.Helper()
	rec := &recorder{}
	dir := t.TempDir()
	return Deps{
		Store:    newTestStore(t),
		Windows:  windows.Open(filepath.Join(dir, "windows"), nil),
		Launcher: windows.NewLauncher("true", nil),
		Hub:      notify.NewHub(nil, rec),
		Config: config.Config{
			DBPath:         filepath.Join(dir, "tally.db"),
			WindowsDir:     filepath.Join(dir, "windows"),
			LogFile:        filepath.Join(dir, "tally.log"),
			LogLevel:       "info",
			CycleStartHour: 6,
			MergeWindow:    30 * time.Second,
			Opener:         "xdg-open",
		},
	}, rec
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	escKey   = tea.KeyMsg{Type: tea.KeyEsc}
)

// ============================================================
// Helper functions
// ============================================================

func TestFormatDelta(t *testing.T) {
	tests := []struct {
		d    int64
		want string
	}{
		{0, "0"},
		{1, "+1"},
		{42, "+42"},
		{-3, "-3"},
	}
	for _, tt := range tests {
		if got := formatDelta(tt.d); got != tt.want {
			t.Errorf("formatDelta(%d) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	got := formatAmount(store.Display{Mode: store.DisplayDaily, Amount: -4})
	if got != "TODAY $ -4" {
		t.Fatalf("got %q", got)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want int
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
		{3, 0, 0, 0},
	}
	for _, tt := range tests {
		if got := clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("clamp(%d, %d, %d) = %d, want %d", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestFloorCeilDiv(t *testing.T) {
	tests := []struct {
		a, b, floor, ceil int
	}{
		{0, 10, 0, 0},
		{25, 10, 2, 3},
		{30, 10, 3, 3},
		{-5, 10, -1, 0},
		{-20, 10, -2, -2},
	}
	for _, tt := range tests {
		if got := floorDiv(tt.a, tt.b); got != tt.floor {
			t.Errorf("floorDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.floor)
		}
		if got := ceilDiv(tt.a, tt.b); got != tt.ceil {
			t.Errorf("ceilDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.ceil)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := truncate("a long label", 6); got != "a lon…" {
		t.Fatalf("got %q", got)
	}
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	if got := expandHome("~/x.json"); got != "/home/tester/x.json" {
		t.Fatalf("got %q", got)
	}
	if got := expandHome("/abs/x.json"); got != "/abs/x.json" {
		t.Fatalf("got %q", got)
	}
}

func TestViewNames(t *testing.T) {
	if len(viewNames) != 5 {
		t.Fatalf("expected 5 view names, got %d", len(viewNames))
	}
	if viewNames[viewOverlay] != "Overlay" {
		t.Fatalf("viewNames[viewOverlay] = %q", viewNames[viewOverlay])
	}
}

// ============================================================
// Counter
// ============================================================

func TestCounterLoadData(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.Store.Record(5)

	c := newCounterModel(deps.Store, deps.Hub)
	msg := c.loadData()()
	data, ok := msg.(counterDataMsg)
	if !ok {
		t.Fatalf("expected counterDataMsg, got %T", msg)
	}
	c, _ = c.update(data)
	if c.display.Amount != 5 || c.balance.Daily != 5 || len(c.recent) != 1 {
		t.Fatalf("unexpected state: %+v %+v %d", c.display, c.balance, len(c.recent))
	}
}

func TestCounterRecordNotifies(t *testing.T) {
	deps, rec := newTestDeps(t)
	c := newCounterModel(deps.Store, deps.Hub)

	_, cmd := c.update(runeKey("+"))
	if cmd == nil {
		t.Fatal("+ should record")
	}
	msg, ok := cmd().(recordedMsg)
	if !ok {
		t.Fatal("expected recordedMsg")
	}
	if msg.display.Amount != 1 {
		t.Fatalf("amount = %d, want 1", msg.display.Amount)
	}

	_, cmd = c.update(runeKey("-"))
	cmd()
	_, cmd = c.update(runeKey("-"))
	msg = cmd().(recordedMsg)
	if msg.display.Amount != -1 {
		t.Fatalf("amount = %d, want -1", msg.display.Amount)
	}

	if len(rec.got) != 3 {
		t.Fatalf("notified %d times, want 3", len(rec.got))
	}
}

func TestCounterToggleMode(t *testing.T) {
	deps, rec := newTestDeps(t)
	c := newCounterModel(deps.Store, deps.Hub)

	_, cmd := c.update(runeKey("m"))
	msg := cmd().(recordedMsg)
	if msg.display.Mode != store.DisplayDaily {
		t.Fatalf("mode = %v, want daily", msg.display.Mode)
	}
	if len(rec.got) != 1 || rec.got[0].Mode != store.DisplayDaily {
		t.Fatal("toggle should notify with the new mode")
	}
}

func TestCounterRecordFailure(t *testing.T) {
	deps, rec := newTestDeps(t)
	c := newCounterModel(deps.Store, deps.Hub)
	deps.Store.Close()

	msg := c.record(1)()
	status, ok := msg.(statusMsg)
	if !ok || !status.isError {
		t.Fatalf("expected error status, got %#v", msg)
	}
	if len(rec.got) != 0 {
		t.Fatal("failed record must not notify")
	}
}

func TestCounterView(t *testing.T) {
	deps, _ := newTestDeps(t)
	c := newCounterModel(deps.Store, deps.Hub)
	c.setSize(100, 30)
	c.display = store.Display{Mode: store.DisplayTotal, Amount: 12}

	out := c.view()
	if !strings.Contains(out, "TOTAL $") || !strings.Contains(out, "12") {
		t.Fatal("view should show label and amount")
	}

	c.setSize(10, 30)
	if c.view() != "Terminal too small" {
		t.Fatal("narrow terminal should show notice")
	}
}

// ============================================================
// History
// ============================================================

func TestHistoryRefreshAndModes(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.Store.Record(3)

	h := newHistoryModel(deps.Store)
	h.setSize(100, 40)
	h, _ = h.update(h.refresh()())
	if len(h.entries) != 1 || len(h.summaries) != 1 {
		t.Fatalf("entries=%d summaries=%d", len(h.entries), len(h.summaries))
	}

	if h.mode != historyEntries {
		t.Fatal("default mode should be entries")
	}
	h, _ = h.update(runeKey("v"))
	if h.mode != historyDays {
		t.Fatal("v should switch to days")
	}
	if !strings.Contains(h.view(), h.summaries[0].Date) {
		t.Fatal("days view should list the date")
	}
	h, _ = h.update(runeKey("v"))
	if h.mode != historyEntries {
		t.Fatal("v should switch back to entries")
	}
}

func TestHistoryScrollBounds(t *testing.T) {
	deps, _ := newTestDeps(t)
	h := newHistoryModel(deps.Store)
	h.entries = make([]store.Entry, 3)

	h, _ = h.update(tea.KeyMsg{Type: tea.KeyUp})
	if h.offset != 0 {
		t.Fatal("offset should not go negative")
	}
	for range 5 {
		h, _ = h.update(tea.KeyMsg{Type: tea.KeyDown})
	}
	if h.offset != 2 {
		t.Fatalf("offset = %d, want 2", h.offset)
	}
}

func TestHistoryChartRange(t *testing.T) {
	deps, _ := newTestDeps(t)
	h := newHistoryModel(deps.Store)
	h.now = func() time.Time { return time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC) }

	days := h.chartRange()
	if len(days) != chartDays {
		t.Fatalf("got %d days", len(days))
	}
	if days[0].Format("2006-01-02") != "2026-03-04" || days[6].Format("2006-01-02") != "2026-03-10" {
		t.Fatalf("range %v .. %v", days[0], days[6])
	}
}

func TestHistoryRefreshesOnRecord(t *testing.T) {
	deps, _ := newTestDeps(t)
	h := newHistoryModel(deps.Store)
	if _, cmd := h.update(recordedMsg{}); cmd == nil {
		t.Fatal("recordedMsg should trigger a refresh")
	}
	if _, cmd := h.update(importDoneMsg{}); cmd == nil {
		t.Fatal("importDoneMsg should trigger a refresh")
	}
}

// ============================================================
// Overlay canvas
// ============================================================

// newTestCanvas returns an 80x24 canvas with one window whose 60x60 trigger
// sits at the top-left, i.e. cells (0..5, 0..2).
func newTestCanvas(t *testing.T, deps Deps, items ...windows.Item) (canvasModel, *windows.Config) {
	t.Helper()
	cfg := windows.NewConfig("Apps")
	cfg.TriggerX, cfg.TriggerY = 0, 0
	cfg.ShowLabels = true
	cfg.Items = append(cfg.Items, items...)
	if err := deps.Windows.Save(cfg); err != nil {
		t.Fatal(err)
	}

	c := newCanvasModel(deps.Windows, deps.Launcher, nil)
	c, _ = c.update(c.refresh()())
	c.setSize(80, 24)
	if c.engine == nil {
		t.Fatal("engine should exist after sizing")
	}
	return c, cfg
}

func mouse(action tea.MouseAction, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft}
}

func settle(t *testing.T, c canvasModel) canvasModel {
	t.Helper()
	for i := 0; c.anim.active(); i++ {
		if i > 100 {
			t.Fatal("animation did not finish")
		}
		c, _ = c.update(frameMsg(time.Now()))
	}
	return c
}

func TestCanvasEngineCreatedLazily(t *testing.T) {
	deps, _ := newTestDeps(t)
	c := newCanvasModel(deps.Windows, deps.Launcher, nil)
	c.setSize(0, 0)
	if c.engine != nil {
		t.Fatal("engine should wait for a real size")
	}
	c.setSize(80, 24)
	if c.engine == nil {
		t.Fatal("engine should be created on first real size")
	}
	if got := c.engine.Screen(); got != (overlay.Size{W: 800, H: 480}) {
		t.Fatalf("screen = %+v", got)
	}
}

func TestCanvasTapOpensPopup(t *testing.T) {
	deps, _ := newTestDeps(t)
	c, cfg := newTestCanvas(t, deps)

	c, _ = c.update(mouse(tea.MouseActionPress, 2, 1))
	if c.dragID != cfg.ID {
		t.Fatal("press should start a drag on the handle")
	}
	c, cmd := c.update(mouse(tea.MouseActionRelease, 2, 1))
	if cmd != nil {
		t.Fatal("tap should not animate")
	}
	if c.popup.openID != cfg.ID {
		t.Fatal("tap should open the popup")
	}
	h, _ := c.engine.Handle(cfg.ID)
	if h.Pos != (overlay.Point{}) {
		t.Fatalf("tap moved handle to %+v", h.Pos)
	}
}

func TestCanvasPressOutsideIgnored(t *testing.T) {
	deps, _ := newTestDeps(t)
	c, _ := newTestCanvas(t, deps)

	c, _ = c.update(mouse(tea.MouseActionPress, 50, 20))
	if c.dragID != "" {
		t.Fatal("press on empty canvas should not grab a handle")
	}
}

func TestCanvasDragSettlesAndPersists(t *testing.T) {
	deps, _ := newTestDeps(t)
	c, cfg := newTestCanvas(t, deps)

	c, _ = c.update(mouse(tea.MouseActionPress, 2, 1))
	c, _ = c.update(mouse(tea.MouseActionMotion, 40, 10))
	h, _ := c.engine.Handle(cfg.ID)
	if !h.Dragging() {
		t.Fatal("move past threshold should be a drag")
	}
	if h.Pos != (overlay.Point{X: 380, Y: 180}) {
		t.Fatalf("drag position %+v", h.Pos)
	}

	c, cmd := c.update(mouse(tea.MouseActionRelease, 40, 10))
	if cmd == nil {
		t.Fatal("release after drag should start the frame loop")
	}
	if c.popup.openID != "" {
		t.Fatal("drag must not open the popup")
	}

	c = settle(t, c)
	if h.Pos != (overlay.Point{X: 740, Y: 180}) {
		t.Fatalf("settled at %+v, want right edge", h.Pos)
	}
	if c.layout.applied[cfg.ID] != h.Pos {
		t.Fatal("layout should hold the final position")
	}

	saved, err := deps.Windows.Get(cfg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if saved.TriggerX != 740 || saved.TriggerY != 180 {
		t.Fatalf("persisted (%d,%d)", saved.TriggerX, saved.TriggerY)
	}
}

func TestCanvasResizeKeepsEdge(t *testing.T) {
	deps, _ := newTestDeps(t)
	c, cfg := newTestCanvas(t, deps)

	c, _ = c.update(mouse(tea.MouseActionPress, 2, 1))
	c, _ = c.update(mouse(tea.MouseActionMotion, 40, 10))
	c, _ = c.update(mouse(tea.MouseActionRelease, 40, 10))
	c = settle(t, c)

	c.setSize(40, 24)
	h, _ := c.engine.Handle(cfg.ID)
	if h.Pos != (overlay.Point{X: 340, Y: 180}) {
		t.Fatalf("after resize %+v", h.Pos)
	}
	saved, _ := deps.Windows.Get(cfg.ID)
	if saved.TriggerX != 340 {
		t.Fatalf("resize not persisted: %d", saved.TriggerX)
	}
}

func TestCanvasSnapModeChangeResetsAnchor(t *testing.T) {
	deps, _ := newTestDeps(t)
	c, cfg := newTestCanvas(t, deps)

	cfg.CornerSnap = true
	if err := deps.Windows.Save(cfg); err != nil {
		t.Fatal(err)
	}
	c, _ = c.update(c.refresh()())

	// Corner drag towards the bottom right.
	c, _ = c.update(mouse(tea.MouseActionPress, 2, 1))
	c, _ = c.update(mouse(tea.MouseActionMotion, 70, 20))
	c, _ = c.update(mouse(tea.MouseActionRelease, 70, 20))
	c = settle(t, c)
	h, _ := c.engine.Handle(cfg.ID)
	if h.Pos != (overlay.Point{X: 740, Y: 420}) || h.Anchor != overlay.BottomRight {
		t.Fatalf("corner settle: %+v anchor %v", h.Pos, h.Anchor)
	}

	// The editor switches the window to edge mode and clears the anchor.
	saved, err := deps.Windows.Get(cfg.ID)
	if err != nil {
		t.Fatal(err)
	}
	saved.CornerSnap = false
	saved.CornerAnchor = overlay.Unset
	if err := deps.Windows.Save(saved); err != nil {
		t.Fatal(err)
	}
	c, _ = c.update(c.refresh()())
	if h.Mode != overlay.VerticalEdge || h.Anchor != overlay.Unset {
		t.Fatalf("engine handle not reset: mode %v anchor %v", h.Mode, h.Anchor)
	}

	// Edge drag to the left must not bring the old anchor back.
	c, _ = c.update(mouse(tea.MouseActionPress, 75, 22))
	c, _ = c.update(mouse(tea.MouseActionMotion, 10, 22))
	c, _ = c.update(mouse(tea.MouseActionRelease, 10, 22))
	c = settle(t, c)
	if h.Pos != (overlay.Point{X: 0, Y: 420}) {
		t.Fatalf("edge settle at %+v", h.Pos)
	}
	saved, _ = deps.Windows.Get(cfg.ID)
	if saved.CornerAnchor != overlay.Unset || h.Anchor != overlay.Unset {
		t.Fatalf("stale anchor: stored %v, engine %v", saved.CornerAnchor, h.Anchor)
	}

	// Back to corner mode; a resize classifies the handle where it is now.
	saved.CornerSnap = true
	if err := deps.Windows.Save(saved); err != nil {
		t.Fatal(err)
	}
	c, _ = c.update(c.refresh()())
	c.setSize(40, 24)
	if h.Anchor != overlay.BottomLeft || h.Pos != (overlay.Point{X: 0, Y: 420}) {
		t.Fatalf("after resize: %+v anchor %v, want bottom-left", h.Pos, h.Anchor)
	}
}

func TestCanvasShortTerminalKeepsHandlesOnScreen(t *testing.T) {
	deps, _ := newTestDeps(t)
	c, cfg := newTestCanvas(t, deps)

	cfg.CornerSnap = true
	cfg.CornerAnchor = overlay.BottomRight
	if err := deps.Windows.Save(cfg); err != nil {
		t.Fatal(err)
	}
	c, _ = c.update(c.refresh()())

	c.setSize(80, 1)
	if got := c.engine.Screen(); got != (overlay.Size{W: 800, H: 60}) {
		t.Fatalf("screen = %+v, want height of the trigger", got)
	}
	h, _ := c.engine.Handle(cfg.ID)
	if h.Pos != (overlay.Point{X: 740, Y: 0}) {
		t.Fatalf("handle at %+v", h.Pos)
	}

	// A canvas that starts out short gets the same floor once configs load.
	fresh := newCanvasModel(deps.Windows, deps.Launcher, nil)
	fresh.setSize(80, 1)
	fresh, _ = fresh.update(fresh.refresh()())
	if got := fresh.engine.Screen(); got.H != 60 {
		t.Fatalf("fresh screen = %+v", got)
	}
	fh, _ := fresh.engine.Handle(cfg.ID)
	if fh.Pos.Y < 0 {
		t.Fatalf("fresh handle at %+v", fh.Pos)
	}
}

func TestCanvasTrayToggles(t *testing.T) {
	deps, _ := newTestDeps(t)
	c, apps := newTestCanvas(t, deps)

	tools := windows.NewConfig("Tools")
	tools.TriggerEnabled = false
	zed := windows.NewConfig("Zed")
	zed.ShowInNotification = false
	deps.Windows.Save(tools)
	deps.Windows.Save(zed)
	c, _ = c.update(c.refresh()())

	ids := c.trayIDs()
	if len(ids) != 2 || ids[0] != apps.ID || ids[1] != tools.ID {
		t.Fatalf("tray = %v", ids)
	}

	f2 := tea.KeyMsg{Type: tea.KeyF2}
	c, _ = c.update(f2)
	if c.popup.openID != tools.ID {
		t.Fatal("f2 should open the second tray window even without a trigger")
	}
	if !strings.Contains(c.view(), "Tools") {
		t.Fatal("popup should render")
	}
	c, _ = c.update(f2)
	if c.popup.openID != "" {
		t.Fatal("f2 again should close it")
	}

	c, _ = c.update(tea.KeyMsg{Type: tea.KeyF9})
	if c.popup.openID != "" {
		t.Fatal("unused slot should do nothing")
	}
}

func TestCanvasSyncDropsDisabledTriggers(t *testing.T) {
	deps, _ := newTestDeps(t)
	c, cfg := newTestCanvas(t, deps)

	cfg.TriggerEnabled = false
	if err := deps.Windows.Save(cfg); err != nil {
		t.Fatal(err)
	}
	c, _ = c.update(c.refresh()())
	if _, ok := c.engine.Handle(cfg.ID); ok {
		t.Fatal("disabled trigger should lose its handle")
	}

	deps.Windows.Delete(cfg.ID)
	c, _ = c.update(c.refresh()())
	if len(c.engine.Handles()) != 0 {
		t.Fatal("no handles should remain")
	}
}

func TestCanvasPopupKeys(t *testing.T) {
	deps, _ := newTestDeps(t)
	c, cfg := newTestCanvas(t, deps,
		windows.NewItem(windows.Tasker, "Backup", "nightly"),
		windows.NewItem(windows.Tasker, "Sync", "sync"),
	)

	c, _ = c.update(enterKey)
	if c.popup.openID != cfg.ID {
		t.Fatal("enter on focused handle should open its popup")
	}

	c, _ = c.update(tea.KeyMsg{Type: tea.KeyRight})
	if c.popup.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", c.popup.cursor)
	}
	c, _ = c.update(tea.KeyMsg{Type: tea.KeyRight})
	if c.popup.cursor != 1 {
		t.Fatal("cursor should stop at the last item")
	}

	if !strings.Contains(c.view(), "Sync") {
		t.Fatal("popup should list items")
	}

	c, cmd := c.update(enterKey)
	if c.popup.openID != "" {
		t.Fatal("launch should close the popup")
	}
	msg, ok := cmd().(statusMsg)
	if !ok || !msg.isError {
		t.Fatal("tasker item cannot launch here and should report an error")
	}
	if !strings.Contains(msg.text, "Sync") {
		t.Fatalf("status %q should name the item", msg.text)
	}
}

func TestCanvasPopupEscCloses(t *testing.T) {
	deps, _ := newTestDeps(t)
	c, _ := newTestCanvas(t, deps)

	c, _ = c.update(enterKey)
	c, _ = c.update(escKey)
	if c.popup.openID != "" {
		t.Fatal("esc should close the popup")
	}
}

func TestCanvasView(t *testing.T) {
	deps, _ := newTestDeps(t)
	empty := newCanvasModel(deps.Windows, deps.Launcher, nil)
	empty.setSize(80, 24)
	if !strings.Contains(empty.view(), "No windows yet") {
		t.Fatal("empty canvas should explain itself")
	}

	c, _ := newTestCanvas(t, deps)
	out := c.view()
	if !strings.Contains(out, "A") {
		t.Fatal("handle should carry the window initial")
	}
	if got := len(strings.Split(out, "\n")); got != 24 {
		t.Fatalf("canvas has %d rows, want 24", got)
	}
}

func TestOutlineRune(t *testing.T) {
	round := [4]int{30, 30, 30, 30}
	if outlineRune(0, 0, 6, 3, round) != "╭" || outlineRune(5, 2, 6, 3, round) != "╯" {
		t.Fatal("corners")
	}
	if outlineRune(2, 0, 6, 3, round) != "─" || outlineRune(0, 1, 6, 3, round) != "│" {
		t.Fatal("edges")
	}
	if outlineRune(2, 1, 6, 3, round) != " " {
		t.Fatal("interior")
	}

	// TL, TR, BR, BL; zero radius is a square corner.
	mixed := [4]int{8, 0, 8, 0}
	got := []string{
		outlineRune(0, 0, 6, 3, mixed),
		outlineRune(5, 0, 6, 3, mixed),
		outlineRune(5, 2, 6, 3, mixed),
		outlineRune(0, 2, 6, 3, mixed),
	}
	want := []string{"╭", "┐", "╯", "└"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("corner %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCanvasOutlineFollowsRadii(t *testing.T) {
	deps, _ := newTestDeps(t)
	c, cfg := newTestCanvas(t, deps)

	cfg.TriggerStyle = windows.Outline
	cfg.TriggerRadius = 0
	if err := deps.Windows.Save(cfg); err != nil {
		t.Fatal(err)
	}
	c, _ = c.update(c.refresh()())
	out := c.view()
	if !strings.Contains(out, "┌") || strings.Contains(out, "╭") {
		t.Fatalf("square trigger should use square corners:\n%s", out)
	}
}

func TestCellLayoutRejectsDetached(t *testing.T) {
	l := &cellLayout{configs: map[string]*windows.Config{}, applied: map[string]overlay.Point{}}
	if err := l.Apply("gone", overlay.Point{}); !errors.Is(err, errDetached) {
		t.Fatalf("got %v", err)
	}
}

// ============================================================
// Windows editor
// ============================================================

func TestApplyWindowFields(t *testing.T) {
	c := windows.NewConfig("old")
	c.CornerAnchor = overlay.BottomRight
	f := windowFields{
		name:           " Tools ",
		columns:        "3",
		triggerWidth:   "80",
		triggerHeight:  "40",
		color:          "#FF0000",
		style:          "glass",
		cornerSnap:     true,
		showLabels:     true,
		triggerEnabled: true,
	}
	if err := applyWindowFields(c, f); err != nil {
		t.Fatal(err)
	}
	if c.Name != "Tools" || c.Columns != 3 || c.TriggerWidth != 80 || c.TriggerHeight != 40 {
		t.Fatalf("fields not applied: %+v", c)
	}
	if c.TriggerColor != 0xFFFF0000 || c.TriggerStyle != windows.Glass {
		t.Fatalf("color/style: %x %v", c.TriggerColor, c.TriggerStyle)
	}
	if c.CornerAnchor != overlay.Unset {
		t.Fatal("switching snap mode should clear the anchor")
	}

	f.color = "red"
	if err := applyWindowFields(c, f); err == nil {
		t.Fatal("bad color should fail")
	}
}

func TestValidators(t *testing.T) {
	v := validateInt(1, 12)
	if v("4") != nil || v("0") == nil || v("x") == nil {
		t.Fatal("validateInt")
	}
	if validateColor("#80112233") != nil || validateColor("nope") == nil {
		t.Fatal("validateColor")
	}
}

func TestWindowsSaveWindowKeepsPosition(t *testing.T) {
	deps, _ := newTestDeps(t)
	cfg := windows.NewConfig("Apps")
	deps.Windows.Save(cfg)

	w := newWindowsModel(deps.Windows)
	w, _ = w.update(w.refresh()())

	// The trigger moves after the editor loaded its copy.
	deps.Windows.SavePlacements([]overlay.Placement{{ID: cfg.ID, Pos: overlay.Point{X: 7, Y: 9}}})

	w, _ = w.showWindowForm(w.selected())
	w.window.name = "Launchers"
	msg := w.saveWindow()()
	if _, ok := msg.(windowSavedMsg); !ok {
		t.Fatalf("got %#v", msg)
	}

	saved, _ := deps.Windows.Get(cfg.ID)
	if saved.Name != "Launchers" {
		t.Fatalf("name = %q", saved.Name)
	}
	if saved.TriggerX != 7 || saved.TriggerY != 9 {
		t.Fatal("saving the window must not reset the trigger position")
	}
}

func TestWindowsNewWindow(t *testing.T) {
	deps, _ := newTestDeps(t)
	w := newWindowsModel(deps.Windows)

	w, _ = w.update(runeKey("n"))
	if !w.formActive || w.formKind != windowsFormWindow {
		t.Fatal("n should open the window form")
	}
	w.window.name = "Fresh"
	w.saveWindow()()

	list := deps.Windows.List(context.Background())
	if len(list) != 1 || list[0].Name != "Fresh" {
		t.Fatalf("got %d windows", len(list))
	}
}

func TestWindowsItemLifecycle(t *testing.T) {
	deps, _ := newTestDeps(t)
	cfg := windows.NewConfig("Apps")
	deps.Windows.Save(cfg)

	w := newWindowsModel(deps.Windows)
	w, _ = w.update(w.refresh()())
	w, _ = w.update(tea.KeyMsg{Type: tea.KeyRight})
	if !w.itemsFocus {
		t.Fatal("right should focus items")
	}

	w, _ = w.update(runeKey("n"))
	if w.formKind != windowsFormItem {
		t.Fatal("n in items pane should open the item form")
	}
	w.item.kind = "shortcut"
	w.item.target = "https://example.com"
	w.item.display = "block"
	w.item.blockColor = "#336699"
	w.saveItem()()

	w.formActive = false
	w, _ = w.update(w.refresh()())
	items := w.selected().Items
	if len(items) != 1 {
		t.Fatalf("got %d items", len(items))
	}
	it := items[0]
	if it.Kind != windows.Shortcut || it.Label != "https://example.com" || it.DisplayMode != windows.Block {
		t.Fatalf("item: %+v", it)
	}

	msg := w.deleteSelected()()
	if _, ok := msg.(windowSavedMsg); !ok {
		t.Fatalf("got %#v", msg)
	}
	saved, _ := deps.Windows.Get(cfg.ID)
	if len(saved.Items) != 0 {
		t.Fatal("item should be deleted")
	}
}

func TestWindowsDeleteWindow(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.Windows.Save(windows.NewConfig("Apps"))

	w := newWindowsModel(deps.Windows)
	w, _ = w.update(w.refresh()())
	w.deleteSelected()()
	if len(deps.Windows.List(context.Background())) != 0 {
		t.Fatal("window should be deleted")
	}
}

func TestWindowsFormEscCancels(t *testing.T) {
	deps, _ := newTestDeps(t)
	w := newWindowsModel(deps.Windows)
	w, _ = w.update(runeKey("n"))
	w, _ = w.update(escKey)
	if w.formActive {
		t.Fatal("esc should cancel the form")
	}
}

// ============================================================
// Settings
// ============================================================

func TestFormatSettingValue(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"last_reset_time", "0", "never"},
		{"display_mode", "daily", "TODAY $"},
		{"display_mode", "total", "TOTAL $"},
		{"total_amount", "42", "42"},
	}
	for _, tt := range tests {
		if got := formatSettingValue(tt.key, tt.value); got != tt.want {
			t.Errorf("formatSettingValue(%q, %q) = %q, want %q", tt.key, tt.value, got, tt.want)
		}
	}
}

func TestSettingsSaveDisplayMode(t *testing.T) {
	deps, rec := newTestDeps(t)
	s := newSettingsModel(deps.Store, deps.Hub, deps.Config)

	s, _ = s.update(enterKey)
	if !s.formActive {
		t.Fatal("enter should open the form")
	}
	if *s.displayMode != "total" {
		t.Fatalf("form preloaded %q", *s.displayMode)
	}

	*s.displayMode = "daily"
	msg := s.saveSettings()().(recordedMsg)
	if msg.display.Mode != store.DisplayDaily {
		t.Fatal("display mode not saved")
	}
	if len(rec.got) != 1 {
		t.Fatal("saving the mode should notify")
	}
}

func TestSettingsView(t *testing.T) {
	deps, _ := newTestDeps(t)
	s := newSettingsModel(deps.Store, deps.Hub, deps.Config)
	s.setSize(120, 40)
	s, _ = s.update(s.refresh()())

	out := s.view()
	for _, want := range []string{"display_mode", "merge window", "30s", "06:00"} {
		if !strings.Contains(out, want) {
			t.Errorf("settings view missing %q", want)
		}
	}
}

// ============================================================
// App model
// ============================================================

func TestNewApp(t *testing.T) {
	deps, _ := newTestDeps(t)
	app := NewApp(deps)

	if app.activeView != viewCounter {
		t.Fatal("default view should be counter")
	}
	if app.showHelp {
		t.Fatal("help should be hidden by default")
	}
	if app.exportPicking {
		t.Fatal("export picker should be hidden by default")
	}
}

func TestAppIsFormActiveDefault(t *testing.T) {
	deps, _ := newTestDeps(t)
	app := NewApp(deps)

	if app.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
}

func sizedApp(t *testing.T) (App, Deps) {
	t.Helper()
	deps, _ := newTestDeps(t)
	m, _ := NewApp(deps).Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m.(App), deps
}

func TestAppViewStates(t *testing.T) {
	app, _ := sizedApp(t)

	// Test all views render without panic
	views := []viewState{viewCounter, viewHistory, viewOverlay, viewWindows, viewSettings}
	for _, v := range views {
		app.activeView = v
		output := app.View()
		if output == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppTabSwitching(t *testing.T) {
	app, _ := sizedApp(t)

	m, cmd := app.Update(runeKey("3"))
	app = m.(App)
	if app.activeView != viewOverlay || cmd == nil {
		t.Fatal("3 should switch to overlay and refresh")
	}
	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.(App).activeView != viewWindows {
		t.Fatal("tab should advance")
	}
	app.activeView = viewSettings
	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.(App).activeView != viewCounter {
		t.Fatal("tab should wrap")
	}
}

func TestAppSizesCanvas(t *testing.T) {
	app, _ := sizedApp(t)
	if app.canvas.engine == nil {
		t.Fatal("window size should create the overlay engine")
	}
	if app.canvas.originY != lipgloss.Height(app.renderHeader()) {
		t.Fatal("canvas origin should sit below the header")
	}
}

func TestAppMouseOnlyOnOverlay(t *testing.T) {
	app, deps := sizedApp(t)
	cfg := windows.NewConfig("Apps")
	cfg.TriggerX, cfg.TriggerY = 0, 0
	deps.Windows.Save(cfg)
	m, _ := app.Update(windowsDataMsg{configs: deps.Windows.List(context.Background())})
	app = m.(App)

	y := app.canvas.originY + 1
	m, _ = app.Update(mouse(tea.MouseActionPress, 2, y))
	if m.(App).canvas.dragID != "" {
		t.Fatal("mouse should be ignored outside the overlay view")
	}

	app.activeView = viewOverlay
	m, _ = app.Update(mouse(tea.MouseActionPress, 2, y))
	m, _ = m.(App).Update(mouse(tea.MouseActionRelease, 2, y))
	app = m.(App)
	if app.canvas.popup.openID != cfg.ID {
		t.Fatal("tap on the overlay should open the popup")
	}
	if !app.isFormActive() {
		t.Fatal("open popup should capture keys")
	}
}

func TestAppExportPicker(t *testing.T) {
	app, _ := sizedApp(t)

	m, _ := app.Update(runeKey("e"))
	app = m.(App)
	if !app.exportPicking {
		t.Fatal("e should open the export picker")
	}
	if !strings.Contains(app.View(), "Export Format") {
		t.Fatal("picker should render")
	}
	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyDown})
	app = m.(App)
	if app.exportCursor != 1 {
		t.Fatal("down should move the cursor")
	}
	m, _ = app.Update(escKey)
	if m.(App).exportPicking {
		t.Fatal("esc should close the picker")
	}
}

func TestAppDoExport(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	app, deps := sizedApp(t)
	deps.Store.Record(2)

	msg := app.doExport(0)()
	done, ok := msg.(exportDoneMsg)
	if !ok {
		t.Fatalf("got %#v", msg)
	}
	if filepath.Dir(done.path) != home || filepath.Ext(done.path) != ".json" {
		t.Fatalf("path %q", done.path)
	}

	n, skipped, err := export.ImportFile(deps.Store, done.path)
	if err != nil || n != 0 || skipped != 0 {
		t.Fatalf("re-import: n=%d skipped=%d err=%v", n, skipped, err)
	}
}

func TestAppImportForm(t *testing.T) {
	app, _ := sizedApp(t)

	m, _ := app.Update(runeKey("i"))
	app = m.(App)
	if !app.importActive {
		t.Fatal("i should open the import form")
	}
	m, _ = app.Update(escKey)
	if m.(App).importActive {
		t.Fatal("esc should close the import form")
	}
}

func TestAppImportDone(t *testing.T) {
	app, _ := sizedApp(t)

	m, _ := app.Update(importDoneMsg{err: errors.New("boom")})
	app = m.(App)
	if !app.isErr || !strings.Contains(app.status, "boom") {
		t.Fatalf("status %q", app.status)
	}

	m, cmd := app.Update(importDoneMsg{imported: 3, skipped: 1})
	app = m.(App)
	if app.isErr || !strings.Contains(app.status, "Imported 3") {
		t.Fatalf("status %q", app.status)
	}
	if cmd == nil {
		t.Fatal("import should refresh views")
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	app, _ := sizedApp(t)

	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppRenderFooter(t *testing.T) {
	app, _ := sizedApp(t)

	footer := app.renderFooter()
	if !strings.Contains(footer, "TOTAL $") {
		t.Fatal("footer should show the live amount")
	}
}

func TestAppTrayKeys(t *testing.T) {
	app, deps := sizedApp(t)
	cfg := windows.NewConfig("Apps")
	deps.Windows.Save(cfg)
	m, _ := app.Update(windowsDataMsg{configs: deps.Windows.List(context.Background())})
	app = m.(App)

	if !strings.Contains(app.renderFooter(), "F1 Apps") {
		t.Fatal("footer should list quick toggle windows")
	}

	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyF1})
	app = m.(App)
	if app.activeView != viewOverlay || app.canvas.popup.openID != cfg.ID {
		t.Fatal("f1 should switch to the overlay and open the window")
	}

	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyF1})
	app = m.(App)
	if app.canvas.popup.openID != "" {
		t.Fatal("f1 again should close it")
	}

	app.activeView = viewCounter
	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyF5})
	app = m.(App)
	if app.activeView != viewCounter || app.canvas.popup.openID != "" {
		t.Fatal("unused slot should do nothing")
	}
}

func TestAppLoadingState(t *testing.T) {
	deps, _ := newTestDeps(t)
	app := NewApp(deps)
	// Width 0 means not yet sized
	output := app.View()
	if output != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", output)
	}
}

func TestAppStatusMessage(t *testing.T) {
	app, _ := sizedApp(t)

	m, _ := app.Update(statusMsg{text: "test status"})
	footer := m.(App).renderFooter()
	if !strings.Contains(footer, "test status") {
		t.Fatal("footer should contain status message")
	}
}

func TestAppPublish(t *testing.T) {
	deps, rec := newTestDeps(t)
	app := NewApp(deps)
	if err := app.Publish(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(rec.got) != 1 || notify.Format(rec.got[0]) != "TOTAL $ 0" {
		t.Fatalf("got %v", rec.got)
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	bindings := keys.ShortHelp()
	if len(bindings) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles (smoke test, just verify they render)
// ============================================================

func TestStylesRender(t *testing.T) {
	styles := []struct {
		name string
		fn   func() string
	}{
		{"activeTab", func() string { return activeTabStyle.Render("test") }},
		{"inactiveTab", func() string { return inactiveTabStyle.Render("test") }},
		{"panel", func() string { return panelStyle.Render("test") }},
		{"activePanel", func() string { return activePanelStyle.Render("test") }},
		{"amount", func() string { return amountStyle.Render("test") }},
		{"amountNegative", func() string { return amountNegativeStyle.Render("test") }},
		{"modeLabel", func() string { return modeLabelStyle.Render("test") }},
		{"title", func() string { return titleStyle.Render("test") }},
		{"success", func() string { return successStyle.Render("test") }},
		{"warning", func() string { return warningStyle.Render("test") }},
		{"error", func() string { return errorStyle.Render("test") }},
		{"muted", func() string { return mutedStyle.Render("test") }},
		{"highlight", func() string { return highlightStyle.Render("test") }},
		{"header", func() string { return headerStyle.Render("test") }},
		{"footer", func() string { return footerStyle.Render("test") }},
		{"selectedItem", func() string { return selectedItemStyle.Render("test") }},
		{"normalItem", func() string { return normalItemStyle.Render("test") }},
		{"canvas", func() string { return canvasStyle.Render("test") }},
		{"block", func() string { return blockStyle("#336699").Render("test") }},
		{"blockBadColor", func() string { return blockStyle("oops").Render("test") }},
	}

	for _, s := range styles {
		result := s.fn()
		if result == "" {
			t.Fatalf("style %q rendered empty", s.name)
		}
	}
}

func TestTriggerStyleFill(t *testing.T) {
	c := windows.NewConfig("x")
	tests := []struct {
		style   windows.TriggerStyle
		pressed bool
		want    string
	}{
		{windows.Solid, false, " "},
		{windows.Solid, true, "▒"},
		{windows.Outline, false, "·"},
		{windows.Glass, false, "▒"},
		{windows.Glass, true, "▒"},
		{windows.Inverted, false, " "},
	}
	for _, tt := range tests {
		c.TriggerStyle = tt.style
		if _, fill := triggerStyle(c, tt.pressed); fill != tt.want {
			t.Errorf("triggerStyle(%v, %v) fill = %q, want %q", tt.style, tt.pressed, fill, tt.want)
		}
	}
}

func TestGlassFillFollowsAlpha(t *testing.T) {
	c := windows.NewConfig("x")
	c.TriggerStyle = windows.Glass
	tests := []struct {
		color uint32
		want  string
	}{
		{0xFF336699, "▓"},
		{0xC0336699, "▓"},
		{0x99000000, "▒"},
		{0x40FFFFFF, "░"},
		{0x10FFFFFF, "·"},
	}
	for _, tt := range tests {
		c.TriggerColor = tt.color
		if _, fill := triggerStyle(c, false); fill != tt.want {
			t.Errorf("color %08X fill = %q, want %q", tt.color, fill, tt.want)
		}
	}
}
