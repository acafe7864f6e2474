package correlation

import (
	"math"

	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// varianceTolerance is the relative standard deviation below which a series
// is treated as constant.
const varianceTolerance = 1e-12

// Normalize returns (x - mean(x)) / std(x) using the sample standard
// deviation. Series that cannot be standardized return a
// *domain.DegenerateSeriesError.
func Normalize(p domain.Point, x []float64) ([]float64, error) {
	if len(x) < 2 {
		return nil, &domain.DegenerateSeriesError{Point: p, Reason: "fewer than two samples"}
	}
	if !allFinite(x) {
		return nil, &domain.DegenerateSeriesError{Point: p, Reason: "non-finite sample"}
	}

	mean, std := stat.MeanStdDev(x, nil)
	if isConstant(mean, std) {
		return nil, &domain.DegenerateSeriesError{Point: p, Reason: "zero variance"}
	}

	z := make([]float64, len(x))
	copy(z, x)
	floats.AddConst(-mean, z)
	floats.Scale(1/std, z)
	return z, nil
}

func isConstant(mean, std float64) bool {
	if math.IsNaN(std) || math.IsInf(std, 0) {
		return true
	}
	return std <= varianceTolerance*math.Max(1, math.Abs(mean))
}

func allFinite(x []float64) bool {
	if floats.HasNaN(x) {
		return false
	}
	for _, v := range x {
		if math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
