package metrics

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// BootstrapResult is a percentile bootstrap estimate of the maximum
// Youden's J achievable over a threshold scan.
type BootstrapResult struct {
	// Point is the max-J estimate on the original samples.
	Point float64
	// Lower and Upper bound the central (1-alpha) interval.
	Lower float64
	Upper float64
	// Samples holds the sorted bootstrap replicates.
	Samples []float64
}

// BootstrapYoudenCI resamples both score worlds with replacement and
// recomputes the optimal Youden's J per replicate, returning percentile
// bounds for the central (1-alpha) interval. The rng is explicit so
// experiments stay reproducible.
func BootstrapYoudenCI(scoresW0, scoresW1 []float64, iters int, alpha float64, rng *rand.Rand, opts CurveOptions) (*BootstrapResult, error) {
	if iters <= 0 {
		return nil, fmt.Errorf("iterations must be positive, got %d", iters)
	}
	if alpha <= 0 || alpha >= 1 {
		return nil, fmt.Errorf("alpha must be in (0, 1), got %g", alpha)
	}
	if rng == nil {
		return nil, fmt.Errorf("rng is required for reproducible bootstraps")
	}

	point, _, _, err := OptimalYoudenThreshold(scoresW0, scoresW1, opts)
	if err != nil {
		return nil, err
	}

	samples := make([]float64, 0, iters)
	rw0 := make([]float64, len(scoresW0))
	rw1 := make([]float64, len(scoresW1))
	for it := 0; it < iters; it++ {
		resample(rng, scoresW0, rw0)
		resample(rng, scoresW1, rw1)

		// Validation already passed on the originals; a resample of
		// finite values stays finite.
		j, _, _, err := OptimalYoudenThreshold(rw0, rw1, opts)
		if err != nil {
			return nil, err
		}
		samples = append(samples, j)
	}

	// stat.Quantile requires sorted input.
	sort.Float64s(samples)

	return &BootstrapResult{
		Point:   point,
		Lower:   stat.Quantile(alpha/2, stat.Empirical, samples, nil),
		Upper:   stat.Quantile(1-alpha/2, stat.Empirical, samples, nil),
		Samples: samples,
	}, nil
}

func resample(rng *rand.Rand, src, dst []float64) {
	for i := range dst {
		dst[i] = src[rng.Intn(len(src))]
	}
}
