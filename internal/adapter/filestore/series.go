package filestore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
)

var seriesHeader = []string{"lat", "lon", "time", "value"}

// LoadSeries reads the long-format series CSV for (date, role). Samples for
// a point keep their file order. Every point must carry the same number of
// samples.
func (s *Store) LoadSeries(ctx context.Context, date string, role domain.Role) (domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return domain.Dataset{}, err
	}
	f, err := openFile(s.SeriesPath(date, role))
	if err != nil {
		return domain.Dataset{}, err
	}
	defer f.Close()

	ds, err := ReadSeries(f)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("load series %s/%s: %w", role, date, err)
	}
	return ds, nil
}

// SaveSeries writes ds in the long format read by LoadSeries, points in
// sorted order.
func (s *Store) SaveSeries(ctx context.Context, date string, role domain.Role, ds domain.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeFile(s.SeriesPath(date, role), func(w io.Writer) error {
		return WriteSeries(w, ds)
	})
}

// ReadSeries parses a long-format series CSV with a lat,lon,time,value header.
func ReadSeries(r io.Reader) (domain.Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(seriesHeader)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return domain.Dataset{}, fmt.Errorf("%w: empty series file", domain.ErrEmptyInput)
	}
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("read series header: %w", err)
	}
	for i, want := range seriesHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return domain.Dataset{}, fmt.Errorf("series header column %d is %q, want %q", i+1, header[i], want)
		}
	}

	ds := domain.Dataset{Series: make(map[domain.Point][]float64)}
	var first domain.Point
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Dataset{}, fmt.Errorf("read series: %w", err)
		}

		p, err := parsePoint(rec[0], rec[1])
		if err != nil {
			return domain.Dataset{}, fmt.Errorf("series line %d: %w", line, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[3]), 64)
		if err != nil {
			return domain.Dataset{}, fmt.Errorf("series line %d: value: %w", line, err)
		}

		if len(ds.Series) == 0 {
			first = p
		}
		if p == first {
			ds.Axis = append(ds.Axis, strings.TrimSpace(rec[2]))
		}
		ds.Series[p] = append(ds.Series[p], v)
	}

	if ds.Len() == 0 {
		return domain.Dataset{}, fmt.Errorf("%w: no series rows", domain.ErrEmptyInput)
	}
	for p, x := range ds.Series {
		if len(x) != len(ds.Axis) {
			return domain.Dataset{}, fmt.Errorf("%w: %s has %d samples, want %d",
				domain.ErrLengthMismatch, p, len(x), len(ds.Axis))
		}
	}
	return ds, nil
}

// WriteSeries writes ds as long-format CSV. Samples beyond the axis length
// are labeled by their index.
func WriteSeries(w io.Writer, ds domain.Dataset) error {
	points := make([]domain.Point, 0, ds.Len())
	for p := range ds.Series {
		points = append(points, p)
	}
	slices.SortFunc(points, domain.Point.Compare)

	cw := csv.NewWriter(w)
	if err := cw.Write(seriesHeader); err != nil {
		return fmt.Errorf("write series header: %w", err)
	}
	for _, p := range points {
		lat := strconv.FormatFloat(p.Lat, 'f', -1, 64)
		lon := strconv.FormatFloat(p.Lon, 'f', -1, 64)
		for i, v := range ds.Series[p] {
			ts := strconv.Itoa(i)
			if i < len(ds.Axis) {
				ts = ds.Axis[i]
			}
			if err := cw.Write([]string{lat, lon, ts, strconv.FormatFloat(v, 'f', -1, 64)}); err != nil {
				return fmt.Errorf("write series row: %w", err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write series: %w", err)
	}
	return nil
}

func parsePoint(latStr, lonStr string) (domain.Point, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return domain.Point{}, fmt.Errorf("lat: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return domain.Point{}, fmt.Errorf("lon: %w", err)
	}
	p := domain.Point{Lat: lat, Lon: lon}
	if err := p.Validate(); err != nil {
		return domain.Point{}, err
	}
	return p, nil
}
