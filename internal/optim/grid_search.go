package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/balancer/internal/config"
	"github.com/san-kum/balancer/internal/experiment"
)

var (
	ErrNoCandidates = errors.New("optim: no grid point produced a score")
	ErrBadRange     = errors.New("optim: bad range")
)

// Objective names the metric to optimize. Lower is better unless Maximize.
type Objective struct {
	Metric   string
	Maximize bool
}

// higherIsBetter lists the metrics where a larger value is the better run.
var higherIsBetter = map[string]bool{
	"stability": true,
}

// NewObjective picks the natural direction for metric: stability is
// maximized, effort, saturation and tracking error are minimized.
func NewObjective(metric string) Objective {
	return Objective{Metric: metric, Maximize: higherIsBetter[metric]}
}

func (o Objective) better(a, b float64) bool {
	if o.Maximize {
		return a > b
	}
	return a < b
}

// Point is one evaluated grid cell.
type Point struct {
	Params map[string]float64
	Score  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("%w: %d params but %d ranges", ErrBadRange, len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("%w: %s has no values", ErrBadRange, params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, workers: runtime.GOMAXPROCS(0)}, nil
}

// WithWorkers caps how many experiments run at once.
func (g *GridSearch) WithWorkers(n int) *GridSearch {
	if n > 0 {
		g.workers = n
	}
	return g
}

// Points enumerates the grid with the last parameter varying fastest.
func (g *GridSearch) Points() []map[string]float64 {
	var out []map[string]float64
	g.pointsRecursive(0, make(map[string]float64), &out)
	return out
}

func (g *GridSearch) pointsRecursive(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.pointsRecursive(depth+1, newParams, out)
	}
}

// Search runs one experiment per grid point and returns the best point
// along with every evaluation in grid order. Points whose experiment fails
// to build or diverges are kept with Err set and never win. Ties go to the
// earlier point.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	obj Objective,
) (Point, []Point, error) {
	points := g.Points()
	evals := make([]Point, len(points))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i, params := range points {
		eg.Go(func() error {
			evals[i] = evaluate(egCtx, params, buildExperiment, obj)
			return egCtx.Err()
		})
	}
	if err := eg.Wait(); err != nil {
		return Point{}, evals, err
	}

	best := Point{Score: math.NaN()}
	for _, p := range evals {
		if p.Err != nil {
			continue
		}
		if best.Params == nil || obj.better(p.Score, best.Score) {
			best = p
		}
	}
	if best.Params == nil {
		return Point{}, evals, ErrNoCandidates
	}
	return best, evals, nil
}

func evaluate(
	ctx context.Context,
	params map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	obj Objective,
) Point {
	p := Point{Params: params}

	exp, err := buildExperiment(params)
	if err != nil {
		p.Err = err
		return p
	}
	result, err := exp.Run(ctx)
	if err != nil {
		p.Err = err
		return p
	}

	val, ok := result.Metrics[obj.Metric]
	if !ok {
		p.Err = fmt.Errorf("optim: run reported no metric %q", obj.Metric)
		return p
	}
	if math.IsNaN(val) {
		p.Err = fmt.Errorf("optim: metric %q is NaN", obj.Metric)
		return p
	}
	p.Score = val
	return p
}

// ConfigBuilder returns a builder that applies grid params to a copy of base
// through config.Set.
func ConfigBuilder(base *config.Config, reg *experiment.Registry, log *zap.Logger) func(map[string]float64) (*experiment.Experiment, error) {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Clone()
		for name, v := range params {
			if err := cfg.Set(name, v); err != nil {
				return nil, err
			}
		}
		exp := experiment.New(cfg, log)
		if err := exp.Setup(reg); err != nil {
			return nil, err
		}
		return exp, nil
	}
}

// ParseRange reads "start:stop:step" (inclusive) or a comma separated list.
func ParseRange(s string) ([]float64, error) {
	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("%w: %q, want start:stop:step", ErrBadRange, s)
		}
		var v [3]float64
		for i, part := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrBadRange, s, err)
			}
			v[i] = f
		}
		start, stop, step := v[0], v[1], v[2]
		if !(step > 0) || stop < start {
			return nil, fmt.Errorf("%w: %q", ErrBadRange, s)
		}
		n := int(math.Floor((stop-start)/step+1e-9)) + 1
		out := make([]float64, n)
		for i := range out {
			out[i] = start + float64(i)*step
		}
		return out, nil
	}

	var out []float64
	for _, part := range strings.Split(s, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrBadRange, s, err)
		}
		out = append(out, f)
	}
	return out, nil
}
