// Package domain models gridded climate series and the correlation networks
// built from them.
//
// # Points
//
// A grid cell is identified by a [Point]: latitude and longitude in decimal
// degrees. Points are values; they are compared and sorted, never mutated.
// Longitudes may use either the [-180, 180] or the [0, 360] convention, but
// one dataset must use one convention throughout.
//
// Externally authored graphs sometimes identify nodes with a rendered
// coordinate tuple instead of numeric attributes:
//
//	"(31.25, -98.5)"  →  Point{Lat: 31.25, Lon: -98.5}
//
// [ParsePointLabel] reads that form back. Internally generated graphs never
// rely on it: coordinates travel as numbers from the series file to the
// persisted graph.
//
// # Distance bands
//
// A [Band] is a closed kilometre interval [LeftKm, RightKm]. A pair of points
// at exactly LeftKm or RightKm belongs to the band. Consecutive bands are
// expected to share their boundary value (0-500, 500-1000, ...).
//
// # Roles
//
// Every analysis date has two datasets: the reference (observed or
// reanalysis) series and the predicted (forecast) series. Networks are built
// for both roles with identical parameters and then compared band by band.
//
// # Metrics
//
// Edge presence is binarized with a correlation threshold t (weight >= t).
// Precision, recall and F1 are 0 whenever their denominator is 0.
package domain
