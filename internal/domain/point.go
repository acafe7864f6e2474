package domain

import (
	"cmp"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// pointLabelRe matches a rendered coordinate tuple, e.g. "(31.25, -98.5)".
var pointLabelRe = regexp.MustCompile(`^\(\s*([-+]?[0-9]*\.?[0-9]+(?:[eE][-+]?[0-9]+)?)\s*,\s*([-+]?[0-9]*\.?[0-9]+(?:[eE][-+]?[0-9]+)?)\s*\)$`)

// Point is a grid cell location in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// String renders the point as a coordinate tuple that ParsePointLabel accepts.
func (p Point) String() string {
	return "(" + formatCoord(p.Lat) + ", " + formatCoord(p.Lon) + ")"
}

// Validate reports whether the point lies on the globe. Longitudes may use
// either the [-180, 180] or the 0..360 convention.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return fmt.Errorf("%w: non-finite coordinate %s", ErrInvalidPoint, p)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %g outside [-90, 90]", ErrInvalidPoint, p.Lat)
	}
	if p.Lon < -180 || p.Lon > 360 {
		return fmt.Errorf("%w: longitude %g outside [-180, 360]", ErrInvalidPoint, p.Lon)
	}
	return nil
}

// Compare orders points by latitude, then longitude.
func (p Point) Compare(q Point) int {
	if c := cmp.Compare(p.Lat, q.Lat); c != 0 {
		return c
	}
	return cmp.Compare(p.Lon, q.Lon)
}

// ParsePointLabel parses a "(lat, lon)" label. Surrounding quotes and
// whitespace are ignored.
func ParsePointLabel(label string) (Point, error) {
	s := strings.TrimSpace(label)
	s = strings.Trim(s, `"'`)

	m := pointLabelRe.FindStringSubmatch(s)
	if len(m) != 3 {
		return Point{}, &CoordinateParseError{Label: label}
	}
	lat, errLat := strconv.ParseFloat(m[1], 64)
	lon, errLon := strconv.ParseFloat(m[2], 64)
	if errLat != nil || errLon != nil {
		return Point{}, &CoordinateParseError{Label: label}
	}
	p := Point{Lat: lat, Lon: lon}
	if err := p.Validate(); err != nil {
		return Point{}, &CoordinateParseError{Label: label}
	}
	return p, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
