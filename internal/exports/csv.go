package exports

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// WriteCSV writes a header line followed by rows. Fields containing the
// delimiter, a quote or a line break are quoted with inner quotes doubled.
func WriteCSV(w io.Writer, columns []ColumnSpec, rows []ExportRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header(columns)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, row := range rows {
		if err := writer.Write(row.Record()); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// Filename returns "<prefix>_<YYYY-MM-DD>.csv" for the export date in loc.
func Filename(prefix string, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "leads_backup"
	}
	return fmt.Sprintf("%s_%s.csv", prefix, now.In(loc).Format(dateLayout))
}
