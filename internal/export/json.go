package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/tally/internal/store"
)

const dateTimeLayout = "2006-01-02 15:04:05"

type jsonEntry struct {
	Timestamp     int64  `json:"timestamp"`
	DateTime      string `json:"dateTime"`
	Delta         int64  `json:"delta"`
	TotalSnapshot int64  `json:"totalSnapshot"`
}

// importEntry uses pointers so absent fields can be told apart from zero.
type importEntry struct {
	Timestamp *int64 `json:"timestamp"`
	Delta     *int64 `json:"delta"`
}

func ToJSON(entries []store.Entry, path string) error {
	out := make([]jsonEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, jsonEntry{
			Timestamp:     e.Timestamp,
			DateTime:      e.Time().Local().Format(dateTimeLayout),
			Delta:         e.Delta,
			TotalSnapshot: e.TotalSnapshot,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

// ReadJSON decodes an exported array. Records without an integer timestamp
// and delta are skipped and counted rather than failing the whole file.
func ReadJSON(r io.Reader) ([]store.ImportRecord, int, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, 0, fmt.Errorf("decode json: %w", err)
	}

	records := make([]store.ImportRecord, 0, len(raw))
	skipped := 0
	for _, msg := range raw {
		var e importEntry
		if err := json.Unmarshal(msg, &e); err != nil || e.Timestamp == nil || e.Delta == nil {
			skipped++
			continue
		}
		records = append(records, store.ImportRecord{Timestamp: *e.Timestamp, Delta: *e.Delta})
	}
	return records, skipped, nil
}

// ImportFile loads an exported JSON file into s and rebuilds the cached
// totals. It returns how many records were new and how many were malformed.
func ImportFile(s *store.Store, path string) (imported, skipped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	records, skipped, err := ReadJSON(f)
	if err != nil {
		return 0, 0, err
	}
	imported, err = s.Import(records)
	if err != nil {
		return 0, skipped, err
	}
	if _, err := s.RecalculateTotals(); err != nil {
		return imported, skipped, fmt.Errorf("recalculate totals: %w", err)
	}
	return imported, skipped, nil
}

// FileName is the default export name for the given extension.
func FileName(now time.Time, ext string) string {
	return fmt.Sprintf("tally-export-%s.%s", now.Format("2006-01-02-150405"), ext)
}
