package listing

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/kusy2009/Codelist-Genius/internal/terminology"
)

// CSVHeader is the export column order (sorted field names).
var CSVHeader = []string{
	"CodelistCode", "ExtensibleYN", "ID", "TERM", "TermCode", "TermDecodedValue", "name",
}

// WriteCSV exports every term of cl, one row per term.
func WriteCSV(w io.Writer, cl *terminology.Codelist) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, term := range cl.Terms {
		record := []string{
			cl.Code,
			cl.ExtensibleYN(),
			cl.ID,
			term.SubmissionValue,
			term.Code,
			term.DecodedValue,
			cl.Name,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row for %s: %w", term.SubmissionValue, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
