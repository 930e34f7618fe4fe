package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tally/internal/overlay"
)

// ~60 fps for settle animations.
const frameInterval = 16 * time.Millisecond

type frameMsg time.Time

func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// animator holds the settle animations in flight. The map is shared by
// value copies of the owning model.
type animator struct {
	running map[string]*overlay.Animation
}

func newAnimator() animator {
	return animator{running: make(map[string]*overlay.Animation)}
}

// start registers anim, replacing any animation for the same handle. It
// reports whether the frame loop needs to be started.
func (a animator) start(anim *overlay.Animation) bool {
	idle := len(a.running) == 0
	a.running[anim.ID] = anim
	return idle
}

// step advances every animation by one frame and drops the finished ones.
// It reports whether any are still running.
func (a animator) step(e *overlay.Engine, dt time.Duration) bool {
	for id, anim := range a.running {
		if e.Advance(anim, dt) {
			delete(a.running, id)
		}
	}
	return len(a.running) > 0
}

func (a animator) active() bool {
	return len(a.running) > 0
}
