package windows

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sadopc/tally/internal/overlay"
)

// Kind is what a shortcut item launches.
type Kind int

const (
	App Kind = iota
	Tasker
	Shortcut
)

var kindNames = map[Kind]string{
	App:      "app",
	Tasker:   "tasker",
	Shortcut: "shortcut",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind accepts the names printed by String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(s, name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown item kind %q", s)
}

// DisplayMode is how an item is drawn in the popup grid.
type DisplayMode int

const (
	Icon DisplayMode = iota
	Block
)

func (m DisplayMode) String() string {
	switch m {
	case Icon:
		return "icon"
	case Block:
		return "block"
	default:
		return fmt.Sprintf("DisplayMode(%d)", int(m))
	}
}

// TriggerStyle is the visual treatment of a trigger handle.
type TriggerStyle int

const (
	Solid TriggerStyle = iota
	Outline
	Glass
	Inverted
)

func (s TriggerStyle) String() string {
	switch s {
	case Solid:
		return "solid"
	case Outline:
		return "outline"
	case Glass:
		return "glass"
	case Inverted:
		return "inverted"
	default:
		return fmt.Sprintf("TriggerStyle(%d)", int(s))
	}
}

// Item is one shortcut in a window. Target is a command line for App, a
// task name for Tasker and a URI for Shortcut.
type Item struct {
	ID          string      `json:"id"`
	Kind        Kind        `json:"type"`
	Label       string      `json:"label"`
	Target      string      `json:"target"`
	DisplayMode DisplayMode `json:"displayMode"`
	BlockColor  string      `json:"blockColor,omitempty"`
}

func NewItem(kind Kind, label, target string) Item {
	return Item{
		ID:     uuid.NewString(),
		Kind:   kind,
		Label:  label,
		Target: target,
	}
}

const (
	defaultColumns       = 4
	defaultItemSize      = 50
	defaultTriggerSize   = 60
	defaultTriggerRadius = 30
	defaultTriggerColor  = 0x99000000
	defaultTriggerY      = 300
)

// Config is a persisted shortcut window together with its trigger handle.
type Config struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Columns            int    `json:"columns"`
	ItemSize           int    `json:"itemSizeDp"`
	Items              []Item `json:"items"`
	ShowInNotification bool   `json:"enabledInNotification"`
	ShowLabels         bool   `json:"showLabels"`

	TriggerEnabled bool `json:"triggerEnabled"`
	TriggerWidth   int  `json:"triggerWidth"`
	TriggerHeight  int  `json:"triggerHeight"`
	// Older records only carry a square size.
	LegacySize int `json:"triggerSize,omitempty"`

	TriggerRadius     int          `json:"triggerRadius"`
	RadiusTopLeft     int          `json:"radiusTopLeft"`
	RadiusTopRight    int          `json:"radiusTopRight"`
	RadiusBottomRight int          `json:"radiusBottomRight"`
	RadiusBottomLeft  int          `json:"radiusBottomLeft"`
	TriggerColor      uint32       `json:"triggerColor"`
	TriggerStyle      TriggerStyle `json:"triggerStyle"`

	TriggerX     int            `json:"triggerX"`
	TriggerY     int            `json:"triggerY"`
	CornerSnap   bool           `json:"cornerSnap"`
	CornerAnchor overlay.Corner `json:"cornerAnchor"`
}

func NewConfig(name string) *Config {
	return &Config{
		ID:                 uuid.NewString(),
		Name:               name,
		Columns:            defaultColumns,
		ItemSize:           defaultItemSize,
		Items:              []Item{},
		ShowInNotification: true,
		TriggerEnabled:     true,
		TriggerWidth:       defaultTriggerSize,
		TriggerHeight:      defaultTriggerSize,
		TriggerRadius:      defaultTriggerRadius,
		TriggerColor:       defaultTriggerColor,
		TriggerY:           defaultTriggerY,
	}
}

// Size returns the trigger size, falling back to the legacy square size and
// then to the default.
func (c *Config) Size() overlay.Size {
	return overlay.Size{W: sizeOr(c.TriggerWidth, c.LegacySize), H: sizeOr(c.TriggerHeight, c.LegacySize)}
}

func sizeOr(v, legacy int) int {
	switch {
	case v > 0:
		return v
	case legacy > 0:
		return legacy
	default:
		return defaultTriggerSize
	}
}

// Radii returns the corner radii in TL, TR, BR, BL order. Records without
// per-corner values use the uniform radius everywhere.
func (c *Config) Radii() [4]int {
	r := [4]int{c.RadiusTopLeft, c.RadiusTopRight, c.RadiusBottomRight, c.RadiusBottomLeft}
	if r == [4]int{} {
		return [4]int{c.TriggerRadius, c.TriggerRadius, c.TriggerRadius, c.TriggerRadius}
	}
	return r
}

func (c *Config) SnapMode() overlay.SnapMode {
	if c.CornerSnap {
		return overlay.CornerSnap
	}
	return overlay.VerticalEdge
}

// Handle builds the overlay handle for this window's trigger.
func (c *Config) Handle() overlay.Handle {
	return overlay.Handle{
		ID:     c.ID,
		Pos:    overlay.Point{X: c.TriggerX, Y: c.TriggerY},
		Size:   c.Size(),
		Mode:   c.SnapMode(),
		Anchor: c.CornerAnchor,
	}
}

// Item returns the item with the given id.
func (c *Config) Item(id string) (Item, bool) {
	for _, it := range c.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// RemoveItem drops the item with the given id and reports whether it existed.
func (c *Config) RemoveItem(id string) bool {
	for i, it := range c.Items {
		if it.ID == id {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if c.Columns < 1 || c.Columns > 12 {
		errs = append(errs, fmt.Errorf("columns must be 1-12, got %d", c.Columns))
	}
	if c.TriggerStyle < Solid || c.TriggerStyle > Inverted {
		errs = append(errs, fmt.Errorf("unknown trigger style %d", c.TriggerStyle))
	}
	for _, it := range c.Items {
		if !it.Kind.Valid() {
			errs = append(errs, fmt.Errorf("item %q: unknown kind %d", it.Label, it.Kind))
		}
		if it.DisplayMode == Block && it.BlockColor != "" {
			if _, err := ParseColor(it.BlockColor); err != nil {
				errs = append(errs, fmt.Errorf("item %q: %w", it.Label, err))
			}
		}
	}
	return errors.Join(errs...)
}
