package automation

import (
	"context"
	"errors"
	"math/rand/v2"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/balancer/internal/config"
	"github.com/san-kum/balancer/internal/experiment"
)

// MonteCarloConfig perturbs Base's initial angle and angular velocity,
// uniformly within ±AngleSpread and ±OmegaSpread radians, over Trials runs.
type MonteCarloConfig struct {
	Base        *config.Config
	Trials      int
	AngleSpread float64
	OmegaSpread float64
	// MinStability is the stability metric a trial needs to count as held.
	MinStability float64
	Workers      int
}

type MonteCarloResult struct {
	TrialID   int
	Theta     float64
	Omega     float64
	Stability float64
	Stable    bool
	Err       error
}

// RunMonteCarlo is reproducible for a given Base.Seed. Trial errors are
// recorded on the trial and count as unstable.
func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig, reg *experiment.Registry, log *zap.Logger) ([]MonteCarloResult, error) {
	if mc.Trials <= 0 {
		return nil, errors.New("automation: trials must be positive")
	}
	workers := mc.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	seed := uint64(mc.Base.Seed)
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	angle := distuv.Uniform{Min: -mc.AngleSpread, Max: mc.AngleSpread, Src: src}
	spin := distuv.Uniform{Min: -mc.OmegaSpread, Max: mc.OmegaSpread, Src: src}

	// Draw every perturbation up front so results do not depend on
	// scheduling.
	results := make([]MonteCarloResult, mc.Trials)
	for i := range results {
		results[i] = MonteCarloResult{
			TrialID: i,
			Theta:   mc.Base.InitState.Theta + angle.Rand(),
			Omega:   mc.Base.InitState.Omega + spin.Rand(),
		}
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := range results {
		eg.Go(func() error {
			runTrial(egCtx, mc, reg, log, &results[i])
			return egCtx.Err()
		})
	}
	return results, eg.Wait()
}

func runTrial(ctx context.Context, mc *MonteCarloConfig, reg *experiment.Registry, log *zap.Logger, r *MonteCarloResult) {
	cfg := mc.Base.Clone()
	cfg.InitState.Theta = r.Theta
	cfg.InitState.Omega = r.Omega

	exp := experiment.New(cfg, log)
	exp.SetRecording(false)
	if err := exp.Setup(reg); err != nil {
		r.Err = err
		return
	}
	result, err := exp.Run(ctx)
	if err != nil {
		r.Err = err
		return
	}
	r.Stability = result.Metrics["stability"]
	r.Stable = r.Stability >= mc.MinStability
}

func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
