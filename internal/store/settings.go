package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

const (
	keyTotalAmount   = "total_amount"
	keyDailyAmount   = "daily_amount"
	keyLastResetTime = "last_reset_time"
	keyDisplayMode   = "display_mode"
)

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// DisplayMode returns the persisted display preference.
func (s *Store) DisplayMode() (DisplayMode, error) {
	v, err := s.GetSetting(keyDisplayMode)
	if err != nil {
		return DisplayTotal, err
	}
	return ParseDisplayMode(v), nil
}

func (s *Store) SetDisplayMode(m DisplayMode) error {
	return s.SetSetting(keyDisplayMode, m.String())
}

// ToggleDisplayMode flips between total and daily and returns the new display.
func (s *Store) ToggleDisplayMode() (Display, error) {
	m, err := s.DisplayMode()
	if err != nil {
		return Display{}, err
	}
	next := DisplayDaily
	if m == DisplayDaily {
		next = DisplayTotal
	}
	if err := s.SetDisplayMode(next); err != nil {
		return Display{}, fmt.Errorf("set display mode: %w", err)
	}
	return s.Display()
}

func getIntTx(tx *sql.Tx, key string) (int64, error) {
	var v string
	if err := tx.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get setting %q: %w", key, err)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("setting %q is not an integer: %w", key, err)
	}
	return n, nil
}

func setIntTx(tx *sql.Tx, key string, v int64) error {
	_, err := tx.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, strconv.FormatInt(v, 10),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}
