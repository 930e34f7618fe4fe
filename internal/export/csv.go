package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/sadopc/tally/internal/store"
)

func ToCSV(entries []store.Entry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	// Header
	if err := w.Write([]string{"timestamp", "dateTime", "delta", "totalSnapshot"}); err != nil {
		return err
	}

	for _, e := range entries {
		row := []string{
			strconv.FormatInt(e.Timestamp, 10),
			e.Time().Local().Format(dateTimeLayout),
			strconv.FormatInt(e.Delta, 10),
			strconv.FormatInt(e.TotalSnapshot, 10),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
