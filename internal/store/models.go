package store

import "time"

// Entry is one row of the transaction ledger.
type Entry struct {
	ID            int64
	Timestamp     int64 // ms since epoch
	Delta         int64
	TotalSnapshot int64 // running total right after this entry
}

// Time returns the entry timestamp as a time.Time.
func (e Entry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// ImportRecord is the subset of an exported entry consumed on import.
type ImportRecord struct {
	Timestamp int64
	Delta     int64
}

// Balance is the pair of cached counters.
type Balance struct {
	Total int64
	Daily int64
}

// DailySummary is the net change over one calendar day.
type DailySummary struct {
	Date  string // 2006-01-02, local
	Delta int64
	Count int
}

// DisplayMode selects which counter the widget-style displays show.
type DisplayMode int

const (
	DisplayTotal DisplayMode = iota
	DisplayDaily
)

func (m DisplayMode) String() string {
	switch m {
	case DisplayDaily:
		return "daily"
	default:
		return "total"
	}
}

// Label is the caption shown next to the amount.
func (m DisplayMode) Label() string {
	switch m {
	case DisplayDaily:
		return "TODAY $"
	default:
		return "TOTAL $"
	}
}

// ParseDisplayMode is the inverse of String; unknown values mean total.
func ParseDisplayMode(s string) DisplayMode {
	if s == "daily" {
		return DisplayDaily
	}
	return DisplayTotal
}

// Display is what the counter surfaces render.
type Display struct {
	Mode   DisplayMode
	Amount int64
}

func (d Display) Label() string { return d.Mode.Label() }

type Setting struct {
	Key   string
	Value string
}
