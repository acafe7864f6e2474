// Package network materializes a filtered correlation matrix as a weighted
// undirected graph and persists it.
//
// Node IDs are canonical: node i is the i-th point of the matrix index, so a
// graph built twice from the same matrix is identical. Each node carries its
// latitude and longitude; each edge carries the correlation as its weight.
//
// Two persisted forms are supported:
//
//   - DOT (graph interchange): node attributes lat/lon, edge attribute weight.
//   - Edge list: one "u<TAB>v" line per edge with u < v, no weights.
//
// Graphs read back from DOT receive fresh IDs in file order. Nodes without
// lat/lon attributes fall back to parsing their DOT ID as a "(lat, lon)"
// label; failures are recorded on the graph, not returned.
package network
