package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes the header and every record of t.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range t.Records {
		if err := cw.Write(t.Row(r)); err != nil {
			return fmt.Errorf("write csv row for observation %d: %w", r.ObservationID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
