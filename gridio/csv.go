package gridio

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/samherniman/foster/sample"
)

// WriteSampleCSV exports a sample set as a point table: one row per sample
// with cell ordinal, coordinates, stratum, and any extra columns supplied
// aligned with sample order.
func WriteSampleCSV(w io.Writer, set *sample.Set, extra map[string][]float64) error {
	names := make([]string, 0, len(extra))
	for name, col := range extra {
		if len(col) != set.Len() {
			return fmt.Errorf("gridio: extra column %q has %d rows, want %d", name, len(col), set.Len())
		}
		names = append(names, name)
	}
	sort.Strings(names)

	cw := csv.NewWriter(w)

	record := append([]string{"cell", "x", "y", "stratum"}, names...)
	if err := cw.Write(record); err != nil {
		return err
	}

	for i, s := range set.Samples {
		record = record[:0]
		record = append(record,
			strconv.Itoa(s.Cell),
			strconv.FormatFloat(s.X, 'g', -1, 64),
			strconv.FormatFloat(s.Y, 'g', -1, 64),
			strconv.Itoa(s.Stratum),
		)
		for _, name := range names {
			record = append(record, strconv.FormatFloat(extra[name][i], 'g', -1, 64))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
