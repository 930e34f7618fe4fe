package overlay

import (
	"errors"
	"log/slog"
	"time"
)

const (
	DefaultDragThreshold  = 20
	DefaultSettleDuration = 300 * time.Millisecond
)

var (
	ErrUnknownHandle = errors.New("unknown handle")
	ErrNotPressed    = errors.New("handle is not pressed")
)

// Handle is a draggable trigger on the overlay surface.
type Handle struct {
	ID     string
	Pos    Point
	Size   Size
	Mode   SnapMode
	Anchor Corner

	pressed      bool
	dragging     bool
	startPos     Point
	startPointer Point
	gen          uint64
}

// Pressed reports whether a pointer is currently down on the handle.
func (h *Handle) Pressed() bool { return h.pressed }

// Dragging reports whether the current press has moved past the threshold.
func (h *Handle) Dragging() bool { return h.dragging }

// Contains reports whether p falls inside the handle's bounds.
func (h *Handle) Contains(p Point) bool {
	return p.X >= h.Pos.X && p.X < h.Pos.X+h.Size.W &&
		p.Y >= h.Pos.Y && p.Y < h.Pos.Y+h.Size.H
}

// Placement is the persisted part of a handle.
type Placement struct {
	ID     string
	Pos    Point
	Anchor Corner
}

// Layout applies a position to whatever renders the handle.
type Layout interface {
	Apply(id string, pos Point) error
}

// Sink persists placements.
type Sink interface {
	SavePlacements(placements []Placement) error
}

type Option func(*Engine)

// WithActivate sets the callback invoked when a handle is tapped.
func WithActivate(fn func(id string)) Option {
	return func(e *Engine) { e.activate = fn }
}

func WithLayout(l Layout) Option {
	return func(e *Engine) { e.layout = l }
}

func WithSink(s Sink) Option {
	return func(e *Engine) { e.sink = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithDragThreshold(n int) Option {
	return func(e *Engine) { e.threshold = n }
}

func WithSettleDuration(d time.Duration) Option {
	return func(e *Engine) { e.duration = d }
}

// Engine owns every live handle and the screen they live on. It is driven
// from a single event loop and is not safe for concurrent use.
type Engine struct {
	handles map[string]*Handle
	order   []string
	screen  Size

	threshold int
	duration  time.Duration

	activate func(id string)
	layout   Layout
	sink     Sink
	log      *slog.Logger
}

func NewEngine(screen Size, opts ...Option) *Engine {
	e := &Engine{
		handles:   make(map[string]*Handle),
		screen:    screen,
		threshold: DefaultDragThreshold,
		duration:  DefaultSettleDuration,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	return e
}

func (e *Engine) Screen() Size { return e.screen }

// Add registers h, replacing any handle with the same id.
func (e *Engine) Add(h Handle) *Handle {
	if _, ok := e.handles[h.ID]; !ok {
		e.order = append(e.order, h.ID)
	}
	h.pressed, h.dragging = false, false
	e.handles[h.ID] = &h
	e.apply(&h)
	return &h
}

func (e *Engine) Remove(id string) {
	if _, ok := e.handles[id]; !ok {
		return
	}
	delete(e.handles, id)
	for i, v := range e.order {
		if v == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

func (e *Engine) Handle(id string) (*Handle, bool) {
	h, ok := e.handles[id]
	return h, ok
}

// Handles returns the handles in the order they were added.
func (e *Engine) Handles() []*Handle {
	out := make([]*Handle, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.handles[id])
	}
	return out
}

// HitTest returns the topmost handle under p.
func (e *Engine) HitTest(p Point) (*Handle, bool) {
	for i := len(e.order) - 1; i >= 0; i-- {
		h := e.handles[e.order[i]]
		if h.Contains(p) {
			return h, true
		}
	}
	return nil, false
}

// BeginDrag records the start of a press. Any settle still in flight for
// the handle is superseded.
func (e *Engine) BeginDrag(id string, pointer Point) error {
	h, ok := e.handles[id]
	if !ok {
		return ErrUnknownHandle
	}
	h.gen++
	h.pressed = true
	h.dragging = false
	h.startPos = h.Pos
	h.startPointer = pointer
	return nil
}

// UpdateDrag follows the pointer without clamping. The press becomes a drag
// once the displacement exceeds the threshold on either axis.
func (e *Engine) UpdateDrag(id string, pointer Point) error {
	h, ok := e.handles[id]
	if !ok {
		return ErrUnknownHandle
	}
	if !h.pressed {
		return ErrNotPressed
	}
	d := pointer.Sub(h.startPointer)
	if abs(d.X) > e.threshold || abs(d.Y) > e.threshold {
		h.dragging = true
	}
	h.Pos = h.startPos.Add(d)
	e.apply(h)
	return nil
}

// EndDrag finishes a press. A press that never became a drag is a tap: the
// activate callback runs, the position is untouched and no animation is
// returned. Otherwise the handle settles.
func (e *Engine) EndDrag(id string) (*Animation, error) {
	h, ok := e.handles[id]
	if !ok {
		return nil, ErrUnknownHandle
	}
	if !h.pressed {
		return nil, ErrNotPressed
	}
	dragging := h.dragging
	h.pressed, h.dragging = false, false

	if !dragging {
		if e.activate != nil {
			e.activate(id)
		}
		return nil, nil
	}
	return e.Settle(id)
}

// Target computes where h would come to rest from its current position.
// For corner snapping the winning corner is returned as well; edge handles
// carry no anchor.
func (e *Engine) Target(h *Handle) (Point, Corner) {
	switch h.Mode {
	case CornerSnap:
		c := NearestCorner(h.Pos, e.screen, h.Size)
		return CornerPosition(c, e.screen, h.Size), c
	default:
		return EdgeTarget(h.Pos, e.screen, h.Size), Unset
	}
}

// Settle starts the animation that carries the handle to its resting place.
// The anchor is recorded immediately; the position is persisted when the
// animation completes.
func (e *Engine) Settle(id string) (*Animation, error) {
	h, ok := e.handles[id]
	if !ok {
		return nil, ErrUnknownHandle
	}
	target, anchor := e.Target(h)
	h.Anchor = anchor
	h.gen++
	return &Animation{
		ID:       id,
		From:     h.Pos,
		To:       target,
		Duration: e.duration,
		gen:      h.gen,
	}, nil
}

// Advance steps a settle animation by dt and applies the frame. It reports
// true when the animation is finished, either because it reached its target
// or because a newer drag or settle superseded it.
func (e *Engine) Advance(a *Animation, dt time.Duration) bool {
	h, ok := e.handles[a.ID]
	if !ok || h.gen != a.gen {
		return true
	}
	pos := a.Step(dt)
	if a.Done() {
		e.Complete(a)
		return true
	}
	h.Pos = pos
	e.apply(h)
	return false
}

// Complete moves the handle to the animation's target and persists it. A
// stale animation is ignored and Complete returns false.
func (e *Engine) Complete(a *Animation) bool {
	h, ok := e.handles[a.ID]
	if !ok || h.gen != a.gen {
		return false
	}
	h.Pos = a.To
	e.apply(h)
	e.persist([]Placement{h.placement()})
	return true
}

// Resize moves every handle onto a screen of the new size. Corner anchors
// are authoritative; a corner handle without an anchor is classified once
// against the old screen. Edge handles keep their side as judged against the
// old width. All placements are persisted in a single batch.
func (e *Engine) Resize(screen Size) {
	old := e.screen
	e.screen = screen
	if len(e.handles) == 0 {
		return
	}

	batch := make([]Placement, 0, len(e.order))
	for _, id := range e.order {
		h := e.handles[id]
		switch h.Mode {
		case CornerSnap:
			if h.Anchor == Unset {
				h.Anchor = NearestCorner(h.Pos, old, h.Size)
			}
			h.Pos = CornerPosition(h.Anchor, screen, h.Size)
		case VerticalEdge:
			x := 0
			if h.Pos.X > old.W/2 {
				x = screen.W - h.Size.W
			}
			h.Pos = Point{x, clamp(h.Pos.Y, 0, screen.H-h.Size.H)}
			h.Anchor = Unset
		}
		h.gen++
		e.apply(h)
		batch = append(batch, h.placement())
	}
	e.persist(batch)
}

func (h *Handle) placement() Placement {
	return Placement{ID: h.ID, Pos: h.Pos, Anchor: h.Anchor}
}

// apply pushes the handle position to the layout. Failures are logged and
// otherwise ignored; the engine's own state stays authoritative.
func (e *Engine) apply(h *Handle) {
	if e.layout == nil {
		return
	}
	if err := e.layout.Apply(h.ID, h.Pos); err != nil {
		e.log.Warn("layout apply failed", "handle", h.ID, "error", err)
	}
}

func (e *Engine) persist(batch []Placement) {
	if e.sink == nil || len(batch) == 0 {
		return
	}
	if err := e.sink.SavePlacements(batch); err != nil {
		e.log.Error("failed to save placements", "count", len(batch), "error", err)
	}
}
