package montecarlo

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/aristath/tailrisk/pkg/formulas"
)

func validateBootstrap(losses LossSample, alpha float64, resamples int, coverage float64) error {
	if err := validateSample(losses); err != nil {
		return err
	}
	if err := validateAlpha("alpha", alpha); err != nil {
		return err
	}
	if err := validateAlpha("coverage", coverage); err != nil {
		return err
	}
	if resamples < 1 {
		return fmt.Errorf("%w: resample count %d must be at least 1", ErrInvalidParameter, resamples)
	}
	return nil
}

// resampleVaR fills buf with len(buf) draws from losses taken with
// replacement and returns their alpha-quantile. buf is left sorted.
func resampleVaR(rng *rand.Rand, losses LossSample, buf []float64, alpha float64) float64 {
	n := len(losses)
	for i := range buf {
		buf[i] = losses[rng.IntN(n)]
	}
	sort.Float64s(buf)
	return formulas.Quantile(buf, alpha)
}

// confidenceInterval returns the equal-tailed interval with the given
// coverage over the bootstrap distribution.
func confidenceInterval(distribution []float64, coverage float64) (lower, upper float64) {
	sorted := formulas.Sorted(distribution)
	tail := (1 - coverage) / 2
	return formulas.Quantile(sorted, tail), formulas.Quantile(sorted, 1-tail)
}

// BootstrapVaRCI estimates a confidence interval for the alpha-VaR of losses.
// Each of the B resamples draws len(losses) values with replacement from
// src and records their VaR; lower and upper are the (1-ci)/2 and
// 1-(1-ci)/2 quantiles of those estimates.
//
// B below MinReliableResamples is accepted but gives an unreliable interval;
// choosing a sensible B is the caller's responsibility. Output is
// reproducible for a fixed source state.
func BootstrapVaRCI(src rand.Source, losses LossSample, alpha float64, resamples int, coverage float64) (*BootstrapResult, error) {
	if err := validateBootstrap(losses, alpha, resamples, coverage); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("%w: random source is required", ErrInvalidParameter)
	}

	rng := rand.New(src)
	buf := make([]float64, len(losses))
	distribution := make([]float64, resamples)
	for b := range distribution {
		distribution[b] = resampleVaR(rng, losses, buf, alpha)
	}

	lower, upper := confidenceInterval(distribution, coverage)
	return &BootstrapResult{
		Alpha:        alpha,
		Coverage:     coverage,
		Resamples:    resamples,
		Lower:        lower,
		Upper:        upper,
		Distribution: distribution,
	}, nil
}

// ParallelBootstrapVaRCI is BootstrapVaRCI spread over workers goroutines.
// Resample b always draws from NewStream(seed, b), so the result is the same
// for every worker count and completion order.
func ParallelBootstrapVaRCI(ctx context.Context, seed uint64, losses LossSample, alpha float64, resamples int, coverage float64, workers int) (*BootstrapResult, error) {
	if err := validateBootstrap(losses, alpha, resamples, coverage); err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}
	if workers > resamples {
		workers = resamples
	}

	distribution := make([]float64, resamples)
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			buf := make([]float64, len(losses))
			for b := w; b < resamples; b += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				rng := rand.New(NewStream(seed, uint64(b)))
				distribution[b] = resampleVaR(rng, losses, buf, alpha)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("bootstrap interrupted: %w", err)
	}

	lower, upper := confidenceInterval(distribution, coverage)
	return &BootstrapResult{
		Alpha:        alpha,
		Coverage:     coverage,
		Resamples:    resamples,
		Lower:        lower,
		Upper:        upper,
		Distribution: distribution,
	}, nil
}
