package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"
)

// CycleStart returns the most recent daily boundary at or before now: today
// at hour:00 in loc, or yesterday's when now is earlier than that.
func CycleStart(now time.Time, hour int, loc *time.Location) time.Time {
	t := now.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, loc)
	if t.Before(start) {
		start = time.Date(t.Year(), t.Month(), t.Day()-1, hour, 0, 0, 0, loc)
	}
	return start
}

// CycleStart is the current daily boundary for this store.
func (s *Store) CycleStart() time.Time {
	return CycleStart(s.now(), s.cycleStartHour, s.loc)
}

// Record applies delta to the ledger. A record landing within the merge
// window of the newest entry folds into it and re-arms the window;
// otherwise a new entry is inserted. The cached total and daily counters
// move in the same transaction, so a failed write leaves both untouched.
func (s *Store) Record(delta int64) (Entry, Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, bal, err := s.record(delta)
	if err != nil {
		s.log.Error("failed to record delta", "delta", delta, "error", err)
		return Entry{}, Balance{}, err
	}
	return entry, bal, nil
}

func (s *Store) record(delta int64) (Entry, Balance, error) {
	now := s.now()
	nowMs := now.UnixMilli()

	tx, err := s.db.Begin()
	if err != nil {
		return Entry{}, Balance{}, fmt.Errorf("begin record: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.checkDailyResetTx(tx, now); err != nil {
		return Entry{}, Balance{}, err
	}

	bal, err := balanceTx(tx)
	if err != nil {
		return Entry{}, Balance{}, err
	}
	bal.Total += delta
	bal.Daily += delta

	var last Entry
	err = tx.QueryRow(
		`SELECT _id, timestamp, delta FROM transactions ORDER BY timestamp DESC, _id DESC LIMIT 1`,
	).Scan(&last.ID, &last.Timestamp, &last.Delta)

	var entry Entry
	switch {
	case err == nil && nowMs-last.Timestamp < s.mergeWindow.Milliseconds():
		entry = Entry{ID: last.ID, Timestamp: nowMs, Delta: last.Delta + delta, TotalSnapshot: bal.Total}
		_, err = tx.Exec(
			`UPDATE transactions SET delta = ?, total_snapshot = ?, timestamp = ? WHERE _id = ?`,
			entry.Delta, entry.TotalSnapshot, entry.Timestamp, entry.ID,
		)
		if err != nil {
			return Entry{}, Balance{}, fmt.Errorf("merge entry %d: %w", last.ID, err)
		}
	case err == nil || errors.Is(err, sql.ErrNoRows):
		entry = Entry{Timestamp: nowMs, Delta: delta, TotalSnapshot: bal.Total}
		res, err := tx.Exec(
			`INSERT INTO transactions (timestamp, delta, total_snapshot) VALUES (?, ?, ?)`,
			entry.Timestamp, entry.Delta, entry.TotalSnapshot,
		)
		if err != nil {
			return Entry{}, Balance{}, fmt.Errorf("insert entry: %w", err)
		}
		entry.ID, _ = res.LastInsertId()
	default:
		return Entry{}, Balance{}, fmt.Errorf("read last entry: %w", err)
	}

	if err := setIntTx(tx, keyTotalAmount, bal.Total); err != nil {
		return Entry{}, Balance{}, err
	}
	if err := setIntTx(tx, keyDailyAmount, bal.Daily); err != nil {
		return Entry{}, Balance{}, err
	}
	if err := tx.Commit(); err != nil {
		return Entry{}, Balance{}, fmt.Errorf("commit record: %w", err)
	}
	return entry, bal, nil
}

// CheckDailyReset zeroes the cached daily counter when the last reset
// predates the current cycle boundary. It reports whether it fired.
func (s *Store) CheckDailyReset() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	reset, err := s.checkDailyResetTx(tx, s.now())
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit reset: %w", err)
	}
	return reset, nil
}

func (s *Store) checkDailyResetTx(tx *sql.Tx, now time.Time) (bool, error) {
	lastReset, err := getIntTx(tx, keyLastResetTime)
	if err != nil {
		return false, err
	}
	boundary := CycleStart(now, s.cycleStartHour, s.loc)
	if lastReset >= boundary.UnixMilli() {
		return false, nil
	}
	if err := setIntTx(tx, keyDailyAmount, 0); err != nil {
		return false, err
	}
	if err := setIntTx(tx, keyLastResetTime, now.UnixMilli()); err != nil {
		return false, err
	}
	s.log.Debug("daily counter reset", "boundary", boundary)
	return true, nil
}

// Balance returns the cached counters, applying the lazy daily reset first.
func (s *Store) Balance() (Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return Balance{}, fmt.Errorf("begin balance: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.checkDailyResetTx(tx, s.now()); err != nil {
		return Balance{}, err
	}
	bal, err := balanceTx(tx)
	if err != nil {
		return Balance{}, err
	}
	if err := tx.Commit(); err != nil {
		return Balance{}, fmt.Errorf("commit balance: %w", err)
	}
	return bal, nil
}

// Display returns the amount selected by the display mode.
func (s *Store) Display() (Display, error) {
	bal, err := s.Balance()
	if err != nil {
		return Display{}, err
	}
	mode, err := s.DisplayMode()
	if err != nil {
		return Display{}, err
	}
	d := Display{Mode: mode, Amount: bal.Total}
	if mode == DisplayDaily {
		d.Amount = bal.Daily
	}
	return d, nil
}

func balanceTx(tx *sql.Tx) (Balance, error) {
	total, err := getIntTx(tx, keyTotalAmount)
	if err != nil {
		return Balance{}, err
	}
	daily, err := getIntTx(tx, keyDailyAmount)
	if err != nil {
		return Balance{}, err
	}
	return Balance{Total: total, Daily: daily}, nil
}

// RecalculateTotals rebuilds both cached counters from the ledger. Call it
// after a batch import.
func (s *Store) RecalculateTotals() (Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	boundary := CycleStart(now, s.cycleStartHour, s.loc)

	tx, err := s.db.Begin()
	if err != nil {
		return Balance{}, fmt.Errorf("begin recalculate: %w", err)
	}
	defer tx.Rollback()

	var bal Balance
	if err := tx.QueryRow(`SELECT COALESCE(SUM(delta), 0) FROM transactions`).Scan(&bal.Total); err != nil {
		return Balance{}, fmt.Errorf("sum total: %w", err)
	}
	if err := tx.QueryRow(
		`SELECT COALESCE(SUM(delta), 0) FROM transactions WHERE timestamp >= ?`, boundary.UnixMilli(),
	).Scan(&bal.Daily); err != nil {
		return Balance{}, fmt.Errorf("sum daily: %w", err)
	}

	if err := setIntTx(tx, keyTotalAmount, bal.Total); err != nil {
		return Balance{}, err
	}
	if err := setIntTx(tx, keyDailyAmount, bal.Daily); err != nil {
		return Balance{}, err
	}
	if err := setIntTx(tx, keyLastResetTime, now.UnixMilli()); err != nil {
		return Balance{}, err
	}
	if err := tx.Commit(); err != nil {
		return Balance{}, fmt.Errorf("commit recalculate: %w", err)
	}
	return bal, nil
}

// ImportEntry inserts one exported record unless an entry with the same
// timestamp already exists. The snapshot is left at 0 until the caller
// runs RecalculateTotals.
func (s *Store) ImportEntry(timestamp, delta int64) (bool, error) {
	n, err := s.Import([]ImportRecord{{Timestamp: timestamp, Delta: delta}})
	return n == 1, err
}

// Import inserts a batch of records in one transaction and returns how many
// were new.
func (s *Store) Import(records []ImportRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	imported := 0
	for _, r := range records {
		var exists int
		if err := tx.QueryRow(
			`SELECT COUNT(*) FROM transactions WHERE timestamp = ?`, r.Timestamp,
		).Scan(&exists); err != nil {
			s.log.Error("failed to check duplicate", "timestamp", r.Timestamp, "error", err)
			return 0, fmt.Errorf("check duplicate %d: %w", r.Timestamp, err)
		}
		if exists > 0 {
			continue
		}
		if _, err := tx.Exec(
			`INSERT INTO transactions (timestamp, delta, total_snapshot) VALUES (?, ?, 0)`,
			r.Timestamp, r.Delta,
		); err != nil {
			s.log.Error("failed to import entry", "timestamp", r.Timestamp, "error", err)
			return 0, fmt.Errorf("import entry %d: %w", r.Timestamp, err)
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return imported, nil
}

// ListEntries returns entries newest first. limit <= 0 means all.
func (s *Store) ListEntries(limit int) ([]Entry, error) {
	query := `SELECT _id, timestamp, delta, total_snapshot FROM transactions ORDER BY timestamp DESC, _id DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Delta, &e.TotalSnapshot); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DailySummaries sums deltas per local calendar date, newest date first.
// Days here run midnight to midnight, unlike the cached daily counter which
// follows the cycle boundary.
func (s *Store) DailySummaries() ([]DailySummary, error) {
	rows, err := s.db.Query(`SELECT timestamp, delta FROM transactions`)
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", err)
	}
	defer rows.Close()

	byDay := make(map[string]*DailySummary)
	for rows.Next() {
		var ts, delta int64
		if err := rows.Scan(&ts, &delta); err != nil {
			return nil, err
		}
		day := time.UnixMilli(ts).In(s.loc).Format("2006-01-02")
		ds, ok := byDay[day]
		if !ok {
			ds = &DailySummary{Date: day}
			byDay[day] = ds
		}
		ds.Delta += delta
		ds.Count++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	summaries := make([]DailySummary, 0, len(byDay))
	for _, ds := range byDay {
		summaries = append(summaries, *ds)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Date > summaries[j].Date
	})
	return summaries, nil
}
