// Package correlation standardizes per-point series and builds the symmetric
// Pearson correlation matrix over a dataset.
//
// The matrix index is the dataset's points sorted by latitude then
// longitude, so two runs over the same input produce the same matrix.
// Points whose series cannot be standardized are left out of the index and
// reported in Matrix.Excluded; no cell ever holds NaN.
package correlation
