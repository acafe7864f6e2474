// Command genmock writes deterministic synthetic series for a lat/lon grid:
// a reference dataset built from a few spatially decaying oscillations, and
// a predicted dataset equal to the reference plus seeded noise.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -data-dir data/mock \
//	  -dates 2021-01-01,2021-01-02 \
//	  -lat 30:50:2.5 -lon -110:-80:2.5 \
//	  -steps 120 -seed 7 -noise 0.3 -constant
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/Kavousi-ar/ForecastNetEval/internal/adapter/filestore"
	"github.com/Kavousi-ar/ForecastNetEval/internal/domain"
	"github.com/Kavousi-ar/ForecastNetEval/internal/geodist"
	"github.com/Kavousi-ar/ForecastNetEval/internal/matrixio"
)

// decayKm is the e-folding distance of each oscillation's amplitude.
const decayKm = 800.0

type source struct {
	center domain.Point
	period float64
	phase  float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dataDir := flag.String("data-dir", "", "output data directory")
	dates := flag.String("dates", "2021-01-01", "comma-separated analysis dates")
	latGrid := flag.String("lat", "30:50:2.5", "latitude grid as min:max:step")
	lonGrid := flag.String("lon", "-110:-80:2.5", "longitude grid as min:max:step")
	steps := flag.Int("steps", 120, "samples per series")
	seed := flag.Uint64("seed", 1, "random seed")
	noise := flag.Float64("noise", 0.3, "standard deviation of the predicted-minus-reference noise")
	sources := flag.Int("sources", 4, "number of oscillation sources")
	constant := flag.Bool("constant", false, "replace the first predicted series with a constant")
	flag.Parse()

	if *dataDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -data-dir")
	}
	if *steps < 2 {
		return fmt.Errorf("-steps must be at least 2")
	}

	lats, err := parseAxis(*latGrid)
	if err != nil {
		return fmt.Errorf("-lat: %w", err)
	}
	lons, err := parseAxis(*lonGrid)
	if err != nil {
		return fmt.Errorf("-lon: %w", err)
	}
	var points []domain.Point
	for _, lat := range lats {
		for _, lon := range lons {
			p := domain.Point{Lat: lat, Lon: lon}
			if err := p.Validate(); err != nil {
				return err
			}
			points = append(points, p)
		}
	}

	codec, err := matrixio.NewCodec(1)
	if err != nil {
		return err
	}
	defer codec.Close()
	store := filestore.New(*dataDir, codec)
	ctx := context.Background()

	for i, date := range strings.Split(*dates, ",") {
		date = strings.TrimSpace(date)
		rng := rand.New(rand.NewPCG(*seed, uint64(i)))
		srcs := makeSources(rng, *sources, lats, lons)

		ref, pred := generate(rng, points, srcs, *steps, *noise)
		if *constant && len(points) > 0 {
			pred.Series[points[0]] = make([]float64, *steps)
		}

		if err := store.SaveSeries(ctx, date, domain.RoleReference, ref); err != nil {
			return fmt.Errorf("writing reference %s: %w", date, err)
		}
		if err := store.SaveSeries(ctx, date, domain.RolePredicted, pred); err != nil {
			return fmt.Errorf("writing predicted %s: %w", date, err)
		}
		log.Printf("%s: %d points x %d steps -> %s", date, len(points), *steps, store.SeriesPath(date, domain.RoleReference))
	}
	return nil
}

func makeSources(rng *rand.Rand, n int, lats, lons []float64) []source {
	srcs := make([]source, n)
	for i := range srcs {
		srcs[i] = source{
			center: domain.Point{
				Lat: lats[0] + rng.Float64()*(lats[len(lats)-1]-lats[0]),
				Lon: lons[0] + rng.Float64()*(lons[len(lons)-1]-lons[0]),
			},
			period: 6 + rng.Float64()*42,
			phase:  rng.Float64() * 2 * math.Pi,
		}
	}
	return srcs
}

func generate(rng *rand.Rand, points []domain.Point, srcs []source, steps int, noise float64) (ref, pred domain.Dataset) {
	axis := make([]string, steps)
	start := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)
	for t := range axis {
		axis[t] = start.Add(time.Duration(t) * 6 * time.Hour).Format(time.RFC3339)
	}
	ref = domain.Dataset{Axis: axis, Series: make(map[domain.Point][]float64, len(points))}
	pred = domain.Dataset{Axis: axis, Series: make(map[domain.Point][]float64, len(points))}

	for _, p := range points {
		weights := make([]float64, len(srcs))
		for k, s := range srcs {
			weights[k] = math.Exp(-geodist.Haversine(p, s.center) / decayKm)
		}
		r := make([]float64, steps)
		q := make([]float64, steps)
		for t := range r {
			for k, s := range srcs {
				r[t] += weights[k] * math.Sin(2*math.Pi*float64(t)/s.period+s.phase)
			}
			r[t] += 0.05 * rng.NormFloat64()
			q[t] = r[t] + noise*rng.NormFloat64()
		}
		ref.Series[p] = r
		pred.Series[p] = q
	}
	return ref, pred
}

// parseAxis expands "min:max:step" into an inclusive ascending sequence.
func parseAxis(axis string) ([]float64, error) {
	parts := strings.Split(axis, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("want min:max:step, got %q", axis)
	}
	var v [3]float64
	for i, s := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, err
		}
		v[i] = f
	}
	lo, hi, step := v[0], v[1], v[2]
	if step <= 0 || hi < lo {
		return nil, fmt.Errorf("invalid range %q", axis)
	}
	n := int(math.Floor((hi-lo)/step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out, nil
}
