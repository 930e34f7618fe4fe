package overlay

import "time"

// Tension of the overshoot curve; higher values swing further past the target.
const defaultTension = 2.0

// overshoot eases past 1 before settling back to it.
func overshoot(t, tension float64) float64 {
	t--
	return t*t*((tension+1)*t+tension) + 1
}

// Animation moves one handle from From to To. It is stepped by the caller's
// frame ticks and carries the generation it was started under so that a
// superseded animation can be recognised and dropped.
type Animation struct {
	ID       string
	From, To Point
	Duration time.Duration

	elapsed time.Duration
	gen     uint64
}

// Step advances the animation by dt and returns the position for this frame.
func (a *Animation) Step(dt time.Duration) Point {
	a.elapsed += dt
	if a.Done() {
		return a.To
	}
	f := overshoot(float64(a.elapsed)/float64(a.Duration), defaultTension)
	return Point{
		X: a.From.X + int(float64(a.To.X-a.From.X)*f),
		Y: a.From.Y + int(float64(a.To.Y-a.From.Y)*f),
	}
}

func (a *Animation) Done() bool {
	return a.Duration <= 0 || a.elapsed >= a.Duration
}
