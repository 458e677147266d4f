package stats

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/penwyp/go-colony-monitor/internal/core/constants"
)

// BootstrapConfig controls the resampling.
type BootstrapConfig struct {
	Repeats        int
	LowPercentile  float64
	HighPercentile float64
	Workers        int
	// Seed makes runs reproducible when non-zero.
	Seed uint64
}

// DefaultBootstrapConfig returns 50000 repeats with a 2.5/97.5 interval.
func DefaultBootstrapConfig() BootstrapConfig {
	return BootstrapConfig{
		Repeats:        constants.BootstrapRepeats,
		LowPercentile:  constants.CILowPercentile,
		HighPercentile: constants.CIHighPercentile,
		Workers:        runtime.NumCPU(),
	}
}

// Bootstrap estimates the sampling distribution of a statistic by
// resampling with replacement.
type Bootstrap struct {
	config BootstrapConfig
}

// NewBootstrap validates config and fills zero fields with defaults.
func NewBootstrap(config BootstrapConfig) (*Bootstrap, error) {
	defaults := DefaultBootstrapConfig()
	if config.Repeats == 0 {
		config.Repeats = defaults.Repeats
	}
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.LowPercentile == 0 && config.HighPercentile == 0 {
		config.LowPercentile = defaults.LowPercentile
		config.HighPercentile = defaults.HighPercentile
	}

	if config.Repeats < 0 {
		return nil, fmt.Errorf("bootstrap repeats must be positive, got %d", config.Repeats)
	}
	if config.LowPercentile < 0 || config.HighPercentile > 100 || config.LowPercentile > config.HighPercentile {
		return nil, fmt.Errorf("invalid bootstrap percentiles %v/%v", config.LowPercentile, config.HighPercentile)
	}
	if config.Workers > config.Repeats {
		config.Workers = config.Repeats
	}
	return &Bootstrap{config: config}, nil
}

// Config returns the effective configuration.
func (b *Bootstrap) Config() BootstrapConfig {
	return b.config
}

// Distribution returns the statistic of every resample, in iteration order.
// Iterations are split across workers; each worker owns its generator and
// writes only its own slots.
func (b *Bootstrap) Distribution(ctx context.Context, sample []float64, statistic Statistic) ([]float64, error) {
	if len(sample) == 0 {
		return nil, ErrEmptySample
	}

	repeats := b.config.Repeats
	workers := b.config.Workers
	results := make([]float64, repeats)
	chunk := (repeats + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		from := w * chunk
		to := min(from+chunk, repeats)
		if from >= to {
			break
		}
		rng := b.generator(w)

		g.Go(func() error {
			resample := make([]float64, len(sample))
			for i := from; i < to; i++ {
				if (i-from)%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				for j := range resample {
					resample[j] = sample[rng.IntN(len(sample))]
				}
				results[i] = statistic(resample)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("bootstrap interrupted: %w", err)
	}
	return results, nil
}

// Estimate returns the population standard deviation of the bootstrap
// distribution and its percentile interval.
func (b *Bootstrap) Estimate(ctx context.Context, sample []float64, statistic Statistic) (Estimate, error) {
	dist, err := b.Distribution(ctx, sample, statistic)
	if err != nil {
		return Estimate{}, err
	}

	sort.Float64s(dist)
	return Estimate{
		StandardError: PopulationStdDev(dist),
		CI: Interval{
			Low:  percentileSorted(dist, b.config.LowPercentile),
			High: percentileSorted(dist, b.config.HighPercentile),
		},
	}, nil
}

func (b *Bootstrap) generator(worker int) *rand.Rand {
	if b.config.Seed != 0 {
		return rand.New(rand.NewPCG(b.config.Seed, uint64(worker)))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
