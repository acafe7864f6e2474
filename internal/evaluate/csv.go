package evaluate

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
)

// HeaderMetric labels the first header column.
const HeaderMetric = "metric"

// CSV row labels, one row per metric.
const (
	RowPrecision = "Precision"
	RowRecall    = "Recall"
	RowF1        = "F1-Score"
)

// WriteCSV writes one column per band: a header row "metric,<band>...",
// followed by the Precision, Recall and F1-Score rows.
func WriteCSV(w io.Writer, bands []domain.BandMetrics) error {
	header := make([]string, 0, len(bands)+1)
	header = append(header, HeaderMetric)
	precision := []string{RowPrecision}
	recall := []string{RowRecall}
	f1 := []string{RowF1}

	for _, b := range bands {
		header = append(header, b.Band.Label())
		precision = append(precision, formatMetric(b.Precision))
		recall = append(recall, formatMetric(b.Recall))
		f1 = append(f1, formatMetric(b.F1))
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll([][]string{header, precision, recall, f1}); err != nil {
		return fmt.Errorf("write metrics csv: %w", err)
	}
	return nil
}

// ReadCSV parses a file written by WriteCSV back into per-band metrics.
// Band bounds are not stored in the file; only Band.Name is set.
func ReadCSV(r io.Reader) ([]domain.BandMetrics, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read metrics csv: %w", err)
	}
	if len(rows) != 4 {
		return nil, fmt.Errorf("read metrics csv: %w: %d rows, want 4", domain.ErrShapeMismatch, len(rows))
	}
	if rows[0][0] != HeaderMetric {
		return nil, fmt.Errorf("read metrics csv: header starts with %q, want %q", rows[0][0], HeaderMetric)
	}
	labels := []string{RowPrecision, RowRecall, RowF1}
	for i, label := range labels {
		if rows[i+1][0] != label {
			return nil, fmt.Errorf("read metrics csv: row %d is %q, want %q", i+1, rows[i+1][0], label)
		}
	}

	out := make([]domain.BandMetrics, len(rows[0])-1)
	for col := 1; col < len(rows[0]); col++ {
		var vals [3]float64
		for i := range labels {
			v, err := strconv.ParseFloat(rows[i+1][col], 64)
			if err != nil {
				return nil, fmt.Errorf("read metrics csv: %s for %s: %w", labels[i], rows[0][col], err)
			}
			vals[i] = v
		}
		out[col-1] = domain.BandMetrics{
			Band:    domain.Band{Name: rows[0][col]},
			Metrics: domain.Metrics{Precision: vals[0], Recall: vals[1], F1: vals[2]},
		}
	}
	return out, nil
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
