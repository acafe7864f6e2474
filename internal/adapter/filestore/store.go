// Package filestore persists series, correlation matrices, networks and
// evaluation reports under a single data directory.
//
// Layout, relative to the root:
//
//	series/<role>/<date>.csv
//	correlation/<role>/<date>.corr.zst
//	networks/<role>/<date>/<band>.dot
//	networks/<role>/<date>/<band>.edgelist
//	metrics/<date>.csv
//	metrics/<date>.json
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Kavousi-ar/ForecastNetEval/internal/correlation"
	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
	"github.com/Kavousi-ar/ForecastNetEval/internal/evaluate"
	"github.com/Kavousi-ar/ForecastNetEval/internal/matrixio"
	"github.com/Kavousi-ar/ForecastNetEval/internal/network"
)

// Store reads and writes run artifacts on the local filesystem.
type Store struct {
	root  string
	codec *matrixio.Codec
}

// New creates a Store rooted at root.
func New(root string, codec *matrixio.Codec) *Store {
	return &Store{root: root, codec: codec}
}

// Root returns the data directory.
func (s *Store) Root() string { return s.root }

// SeriesPath returns the series CSV path for (date, role).
func (s *Store) SeriesPath(date string, role domain.Role) string {
	return filepath.Join(s.root, "series", string(role), date+".csv")
}

// MatrixPath returns the correlation blob path for (date, role).
func (s *Store) MatrixPath(date string, role domain.Role) string {
	return filepath.Join(s.root, "correlation", string(role), date+".corr.zst")
}

// NetworkPath returns the DOT path for key.
func (s *Store) NetworkPath(key domain.NetworkKey) string {
	return filepath.Join(s.networkDir(key), key.Band.Label()+".dot")
}

// EdgeListPath returns the edge list path for key.
func (s *Store) EdgeListPath(key domain.NetworkKey) string {
	return filepath.Join(s.networkDir(key), key.Band.Label()+".edgelist")
}

// MetricsPath returns the metrics CSV path for date.
func (s *Store) MetricsPath(date string) string {
	return filepath.Join(s.root, "metrics", date+".csv")
}

// ReportPath returns the JSON report path for date.
func (s *Store) ReportPath(date string) string {
	return filepath.Join(s.root, "metrics", date+".json")
}

func (s *Store) networkDir(key domain.NetworkKey) string {
	return filepath.Join(s.root, "networks", string(key.Role), key.Date)
}

// SaveMatrix writes the correlation blob for (date, role).
func (s *Store) SaveMatrix(ctx context.Context, date string, role domain.Role, m *correlation.Matrix) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeFile(s.MatrixPath(date, role), func(w io.Writer) error {
		return s.codec.Write(w, m)
	})
}

// LoadMatrix reads the correlation blob for (date, role).
func (s *Store) LoadMatrix(ctx context.Context, date string, role domain.Role) (*correlation.Matrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := openFile(s.MatrixPath(date, role))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return s.codec.Read(f)
}

// SaveNetwork writes the DOT and edge list forms of g.
func (s *Store) SaveNetwork(ctx context.Context, key domain.NetworkKey, g *network.Network) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeFile(s.NetworkPath(key), func(w io.Writer) error {
		return network.WriteDOT(w, g, graphName(key))
	}); err != nil {
		return err
	}
	return writeFile(s.EdgeListPath(key), func(w io.Writer) error {
		return network.WriteEdgeList(w, g)
	})
}

// LoadNetwork reads the DOT form for key.
func (s *Store) LoadNetwork(ctx context.Context, key domain.NetworkKey) (*network.Network, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := openFile(s.NetworkPath(key))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	g, err := network.ReadDOT(f)
	if err != nil {
		return nil, fmt.Errorf("load network %s: %w", key, err)
	}
	return g, nil
}

// LoadEdgeList reads the edge list form for key.
func (s *Store) LoadEdgeList(ctx context.Context, key domain.NetworkKey) ([]network.WeightedPair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := openFile(s.EdgeListPath(key))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	pairs, err := network.ReadEdgeList(f)
	if err != nil {
		return nil, fmt.Errorf("load edge list %s: %w", key, err)
	}
	return pairs, nil
}

// SaveReport writes the metrics CSV and the full JSON report for a date.
func (s *Store) SaveReport(ctx context.Context, report domain.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeFile(s.MetricsPath(report.Date), func(w io.Writer) error {
		return evaluate.WriteCSV(w, report.Bands)
	}); err != nil {
		return err
	}
	return writeFile(s.ReportPath(report.Date), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		return nil
	})
}

// LoadMetrics reads the metrics CSV for date.
func (s *Store) LoadMetrics(ctx context.Context, date string) ([]domain.BandMetrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := openFile(s.MetricsPath(date))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return evaluate.ReadCSV(f)
}

// graphName builds a DOT graph ID made of letters, digits and underscores.
func graphName(key domain.NetworkKey) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, fmt.Sprintf("%s_%s_%s", key.Role, key.Date, key.Band.Label()))
}

// openFile opens path for reading, translating absence to ErrMissingInput.
func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingInput, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// writeFile writes through a temporary file in the target directory and
// renames it into place.
func writeFile(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
