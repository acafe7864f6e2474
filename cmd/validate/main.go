// Command validate checks the persisted artifacts of a run against the
// invariants the pipeline guarantees: correlation matrices, band networks,
// edge lists and metrics files.
//
// Usage:
//
//	go run ./cmd/validate -data-dir data/mock -manifest analysis.hcl
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/Kavousi-ar/ForecastNetEval/internal/adapter/filestore"
	"github.com/Kavousi-ar/ForecastNetEval/internal/config"
	"github.com/Kavousi-ar/ForecastNetEval/internal/correlation"
	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
	"github.com/Kavousi-ar/ForecastNetEval/internal/geodist"
	"github.com/Kavousi-ar/ForecastNetEval/internal/matrixio"
	"github.com/Kavousi-ar/ForecastNetEval/internal/network"
)

// distanceSlackKm absorbs rounding when rechecking edge distances.
const distanceSlackKm = 1e-6

// phase tracks pass/fail for a validation phase.
type phase struct {
	name    string
	checked int
	missing int
	errors  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data-dir", "", "data directory written by netbuild and neteval")
	manifestPath := flag.String("manifest", "", "path to the HCL analysis manifest")
	flag.Parse()

	if *dataDir == "" || *manifestPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dataDir, *manifestPath); code != 0 {
		os.Exit(code)
	}
}

func run(dataDir, manifestPath string) int {
	manifest, err := config.LoadManifest(manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load manifest: %v\n", err)
		return 1
	}
	codec, err := matrixio.NewCodec(2)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: create codec: %v\n", err)
		return 1
	}
	defer codec.Close()
	store := filestore.New(dataDir, codec)
	ctx := context.Background()

	fmt.Println("=== Network Artifact Validation ===")
	fmt.Println()

	matrices, matrixPhase := validateMatrices(ctx, store, manifest)
	phases := []*phase{
		matrixPhase,
		validateNetworks(ctx, store, manifest, matrices),
		validateMetrics(ctx, store, manifest),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s  (%d checked, %d missing)\n", p.name, status, p.checked, p.missing)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func unitKey(date string, role domain.Role) string { return string(role) + "/" + date }

// ── Correlation matrices ──

func validateMatrices(ctx context.Context, store *filestore.Store, m *config.Manifest) (map[string]*correlation.Matrix, *phase) {
	p := &phase{name: "Correlation matrices"}
	out := make(map[string]*correlation.Matrix)
	for _, date := range m.Dates {
		for _, role := range m.Roles {
			cm, err := store.LoadMatrix(ctx, date, role)
			if errors.Is(err, domain.ErrMissingInput) {
				p.missing++
				continue
			}
			p.checked++
			if err != nil {
				p.errorf("%s: %v", unitKey(date, role), err)
				continue
			}
			if err := cm.Validate(true); err != nil {
				p.errorf("%s: %v", unitKey(date, role), err)
				continue
			}
			for _, e := range cm.Excluded {
				if _, ok := cm.Index(e.Point); ok {
					p.errorf("%s: excluded point %s is still indexed", unitKey(date, role), e.Point)
				}
			}
			out[unitKey(date, role)] = cm
		}
	}
	return out, p
}

// ── Networks and edge lists ──

func validateNetworks(ctx context.Context, store *filestore.Store, m *config.Manifest, matrices map[string]*correlation.Matrix) *phase {
	p := &phase{name: "Band networks and edge lists"}
	for _, date := range m.Dates {
		for _, role := range m.Roles {
			cm := matrices[unitKey(date, role)]
			for _, band := range m.Bands {
				key := domain.NetworkKey{Date: date, Role: role, Band: band}
				g, err := store.LoadNetwork(ctx, key)
				if errors.Is(err, domain.ErrMissingInput) {
					p.missing++
					continue
				}
				p.checked++
				if err != nil {
					p.errorf("%s: %v", key, err)
					continue
				}
				checkNetwork(p, key, g, cm)

				pairs, err := store.LoadEdgeList(ctx, key)
				if err != nil {
					p.errorf("%s edge list: %v", key, err)
					continue
				}
				checkEdgeList(p, key, g, pairs)
			}
		}
	}
	return p
}

func checkNetwork(p *phase, key domain.NetworkKey, g *network.Network, cm *correlation.Matrix) {
	for _, f := range g.CoordinateFailures() {
		p.errorf("%s: node %q has no coordinates", key, f.Label)
	}
	nodes := g.NodeList()
	if cm != nil && len(nodes) != cm.Len() {
		p.errorf("%s: %d nodes, matrix has %d points", key, len(nodes), cm.Len())
		return
	}
	for i, n := range nodes {
		if cm != nil && n.HasPoint && n.Point != cm.Points[i] {
			p.errorf("%s: node %d is %s, matrix index has %s", key, i, n.Point, cm.Points[i])
		}
	}
	for _, e := range g.EdgeList() {
		if e.U == e.V {
			p.errorf("%s: self-loop on node %d", key, e.U)
		}
		if e.Weight == 0 || math.IsNaN(e.Weight) || e.Weight < -1 || e.Weight > 1 {
			p.errorf("%s: edge %d-%d has weight %g", key, e.U, e.V, e.Weight)
		}
		u, v := g.NodeByID(e.U), g.NodeByID(e.V)
		if u == nil || v == nil || !u.HasPoint || !v.HasPoint {
			continue
		}
		d := geodist.Haversine(u.Point, v.Point)
		if d < key.Band.LeftKm-distanceSlackKm || d > key.Band.RightKm+distanceSlackKm {
			p.errorf("%s: edge %d-%d spans %.3f km, outside the band", key, e.U, e.V, d)
		}
		if cm != nil && int(e.V) < cm.Len() {
			if w := cm.At(int(e.U), int(e.V)); w != e.Weight {
				p.errorf("%s: edge %d-%d has weight %g, matrix has %g", key, e.U, e.V, e.Weight, w)
			}
		}
	}
}

func checkEdgeList(p *phase, key domain.NetworkKey, g *network.Network, pairs []network.WeightedPair) {
	want := g.EdgeList()
	if len(pairs) != len(want) {
		p.errorf("%s: edge list has %d edges, DOT has %d", key, len(pairs), len(want))
		return
	}
	for i := range want {
		if pairs[i].U != want[i].U || pairs[i].V != want[i].V {
			p.errorf("%s: edge list entry %d is %d-%d, DOT has %d-%d",
				key, i, pairs[i].U, pairs[i].V, want[i].U, want[i].V)
			return
		}
	}
}

// ── Metrics ──

func validateMetrics(ctx context.Context, store *filestore.Store, m *config.Manifest) *phase {
	p := &phase{name: "Metrics CSV files"}
	for _, date := range m.Dates {
		rows, err := store.LoadMetrics(ctx, date)
		if errors.Is(err, domain.ErrMissingInput) {
			p.missing++
			continue
		}
		p.checked++
		if err != nil {
			p.errorf("%s: %v", date, err)
			continue
		}
		for _, bm := range rows {
			if _, ok := m.Band(bm.Band.Name); !ok {
				p.errorf("%s: unknown band column %q", date, bm.Band.Name)
			}
			for _, c := range []struct {
				name string
				v    float64
			}{{"precision", bm.Precision}, {"recall", bm.Recall}, {"f1", bm.F1}} {
				if math.IsNaN(c.v) || c.v < 0 || c.v > 1 {
					p.errorf("%s/%s: %s = %g outside [0, 1]", date, bm.Band.Name, c.name, c.v)
				}
			}
			want := 0.0
			if bm.Precision+bm.Recall > 0 {
				want = 2 * bm.Precision * bm.Recall / (bm.Precision + bm.Recall)
			}
			if math.Abs(want-bm.F1) > 1e-9 {
				p.errorf("%s/%s: f1 = %g, precision and recall give %g", date, bm.Band.Name, bm.F1, want)
			}
		}
	}
	return p
}
