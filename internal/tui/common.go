package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/tally/internal/store"
	"github.com/sadopc/tally/internal/windows"
)

// viewState represents the currently active view.
type viewState int

const (
	viewCounter viewState = iota
	viewHistory
	viewOverlay
	viewWindows
	viewSettings
)

var viewNames = []string{"Counter", "History", "Overlay", "Windows", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

// recordedMsg follows any change to the ledger counters.
type recordedMsg struct {
	display store.Display
}

type exportDoneMsg struct {
	path string
}

type importDoneMsg struct {
	imported int
	skipped  int
	err      error
}

// windowSavedMsg follows any write to the window store.
type windowSavedMsg struct {
	text string
}

type windowsDataMsg struct {
	configs []*windows.Config
}

// --- Helpers ---

func formatDelta(d int64) string {
	if d > 0 {
		return fmt.Sprintf("+%d", d)
	}
	return fmt.Sprintf("%d", d)
}

func formatAmount(d store.Display) string {
	return fmt.Sprintf("%s %d", d.Label(), d.Amount)
}

func errStatus(prefix string, err error) tea.Msg {
	return statusMsg{text: fmt.Sprintf("%s: %v", prefix, err), isError: true}
}

func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
