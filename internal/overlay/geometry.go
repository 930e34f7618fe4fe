package overlay

import (
	"encoding/json"
	"fmt"
)

type Point struct {
	X, Y int
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

type Size struct {
	W, H int
}

// SnapMode decides where a released handle comes to rest.
type SnapMode int

const (
	VerticalEdge SnapMode = iota
	CornerSnap
)

func (m SnapMode) String() string {
	switch m {
	case VerticalEdge:
		return "edge"
	case CornerSnap:
		return "corner"
	default:
		return fmt.Sprintf("SnapMode(%d)", int(m))
	}
}

// Corner is a remembered corner anchor. The zero value means the handle has
// never been corner-snapped.
type Corner int

const (
	Unset Corner = iota
	TopLeft
	TopRight
	BottomLeft
	BottomRight
)

// corners is the enumeration order used to break distance ties.
var corners = [...]Corner{TopLeft, TopRight, BottomLeft, BottomRight}

func (c Corner) String() string {
	switch c {
	case Unset:
		return "unset"
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomLeft:
		return "bottom-left"
	case BottomRight:
		return "bottom-right"
	default:
		return fmt.Sprintf("Corner(%d)", int(c))
	}
}

// Index is the persisted form: -1 for unset, 0..3 for TL, TR, BL, BR.
func (c Corner) Index() int {
	if c < TopLeft || c > BottomRight {
		return -1
	}
	return int(c) - 1
}

// CornerFromIndex maps a persisted index back to a Corner. Out of range
// values are treated as unset.
func CornerFromIndex(i int) Corner {
	if i < 0 || i > 3 {
		return Unset
	}
	return Corner(i + 1)
}

func (c Corner) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Index())
}

func (c *Corner) UnmarshalJSON(data []byte) error {
	var i int
	if err := json.Unmarshal(data, &i); err != nil {
		return fmt.Errorf("corner anchor: %w", err)
	}
	*c = CornerFromIndex(i)
	return nil
}

// CornerPosition is the top-left coordinate a handle of the given size takes
// when resting in corner c.
func CornerPosition(c Corner, screen, size Size) Point {
	right := screen.W - size.W
	bottom := screen.H - size.H
	switch c {
	case TopRight:
		return Point{right, 0}
	case BottomLeft:
		return Point{0, bottom}
	case BottomRight:
		return Point{right, bottom}
	default:
		return Point{0, 0}
	}
}

// NearestCorner picks the corner whose resting position is closest to pos.
// Ties go to the first corner in TL, TR, BL, BR order.
func NearestCorner(pos Point, screen, size Size) Corner {
	best := TopLeft
	bestDist := -1
	for _, c := range corners {
		d := distSq(pos, CornerPosition(c, screen, size))
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// EdgeTarget snaps to the left or right edge depending on which half of the
// screen the handle's center is in, and clamps Y into the screen.
func EdgeTarget(pos Point, screen, size Size) Point {
	x := 0
	if 2*pos.X+size.W >= screen.W {
		x = screen.W - size.W
	}
	return Point{x, clamp(pos.Y, 0, screen.H-size.H)}
}

func distSq(a, b Point) int {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
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

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
