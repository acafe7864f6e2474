// Package geodist computes great-circle distances between grid points and
// masks correlation matrices to a distance band.
package geodist

import (
	"fmt"
	"math"

	"github.com/Kavousi-ar/ForecastNetEval/internal/correlation"
	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
	"gonum.org/v1/gonum/mat"
)

// EarthRadiusKm is the fixed sphere radius used by Haversine.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance between p and q in kilometres.
func Haversine(p, q domain.Point) float64 {
	lat1 := degToRad(p.Lat)
	lat2 := degToRad(q.Lat)
	dLat := lat2 - lat1
	dLon := degToRad(q.Lon - p.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	// Rounding can push a marginally outside [0, 1] for antipodal points.
	a = math.Max(0, math.Min(1, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// Matrix returns the symmetric distance matrix for points, in the given
// order, with an exact zero diagonal.
func Matrix(points []domain.Point) *mat.SymDense {
	n := len(points)
	if n == 0 {
		return nil
	}
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d.SetSym(i, j, Haversine(points[i], points[j]))
		}
	}
	return d
}

// Filter returns a copy of corr with every cell whose distance lies outside
// band set to 0. Distances equal to either bound are kept. dist must share
// corr's index; pass nil to compute it from corr.Points.
func Filter(corr *correlation.Matrix, dist *mat.SymDense, band domain.Band) (*correlation.Matrix, error) {
	if err := band.Validate(); err != nil {
		return nil, err
	}
	if dist == nil {
		dist = Matrix(corr.Points)
	}
	n := corr.Len()
	if dist != nil && dist.SymmetricDim() != n {
		return nil, fmt.Errorf("filter %s: %w: distance matrix is %dx%d, correlation index has %d points",
			band.Label(), domain.ErrShapeMismatch, dist.SymmetricDim(), dist.SymmetricDim(), n)
	}

	out := corr.Clone()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if !band.Contains(dist.At(i, j)) {
				out.Values.SetSym(i, j, 0)
			}
		}
	}
	return out, nil
}

func degToRad(d float64) float64 {
	return d * math.Pi / 180
}
