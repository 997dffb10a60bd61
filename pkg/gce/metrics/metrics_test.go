package metrics_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/guardrail-ml/gce/pkg/gce/metrics"
)

func TestYoudenJ(t *testing.T) {
	tests := []struct {
		name string
		tpr  float64
		fpr  float64
		want float64
	}{
		{name: "perfect detector", tpr: 1.0, fpr: 0.0, want: 1.0},
		{name: "random detector", tpr: 0.5, fpr: 0.5, want: 0.0},
		{name: "typical", tpr: 0.8, fpr: 0.1, want: 0.7},
		{name: "worse than random", tpr: 0.2, fpr: 0.9, want: -0.7},
		{name: "clips above one", tpr: 1.5, fpr: 0.0, want: 1.0},
		{name: "clips below minus one", tpr: 0.0, fpr: 2.5, want: -1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, metrics.YoudenJ(tt.tpr, tt.fpr), 1e-12)
		})
	}

	t.Run("nan propagates", func(t *testing.T) {
		assert.True(t, math.IsNaN(metrics.YoudenJ(math.NaN(), 0.1)))
	})

	t.Run("inf propagates unclipped", func(t *testing.T) {
		assert.True(t, math.IsInf(metrics.YoudenJ(math.Inf(1), 0.1), 1))
	})
}

func TestYoudenJs(t *testing.T) {
	js, err := metrics.YoudenJs([]float64{1.0, 0.5}, []float64{0.0, 0.5})
	require.NoError(t, err)
	assert.Equal(t, []float64{1.0, 0.0}, js)

	_, err = metrics.YoudenJs([]float64{1.0}, []float64{0.0, 0.5})
	assert.ErrorContains(t, err, "lengths differ")
}

func TestComputeYoudenCurve(t *testing.T) {
	// W0 (no secret) scores low, W1 (secret) scores high.
	w0 := []float64{0.1, 0.2, 0.3}
	w1 := []float64{0.7, 0.8, 0.9}

	curve, err := metrics.ComputeYoudenCurve(w0, w1, metrics.CurveOptions{})
	require.NoError(t, err)

	// Default grid is the sorted unique union of both worlds.
	assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.7, 0.8, 0.9}, curve.Thresholds)
	require.Len(t, curve.J, 6)

	// At threshold 0.7 every W1 score decides leak and no W0 score does.
	assert.Equal(t, 1.0, curve.TPR[3])
	assert.Equal(t, 0.0, curve.FPR[3])
	assert.Equal(t, 1.0, curve.J[3])

	// At the lowest threshold everything decides leak: J = 0.
	assert.Equal(t, 1.0, curve.TPR[0])
	assert.Equal(t, 1.0, curve.FPR[0])
	assert.Equal(t, 0.0, curve.J[0])
}

func TestComputeYoudenCurveValidation(t *testing.T) {
	_, err := metrics.ComputeYoudenCurve(nil, []float64{0.5}, metrics.CurveOptions{})
	assert.Error(t, err)

	_, err = metrics.ComputeYoudenCurve([]float64{0.5}, []float64{math.NaN()}, metrics.CurveOptions{})
	assert.ErrorContains(t, err, "non-finite")
}

func TestComputeYoudenCurveExplicitGrid(t *testing.T) {
	curve, err := metrics.ComputeYoudenCurve(
		[]float64{0.1, 0.2},
		[]float64{0.8, 0.9},
		metrics.CurveOptions{Thresholds: []float64{0.5, 0.5, 0.0}},
	)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.0, 0.5}, curve.Thresholds)
}

func TestComputeYoudenCurveLowerScoresLeakier(t *testing.T) {
	// Flipped convention: W1 scores low.
	w0 := []float64{0.8, 0.9}
	w1 := []float64{0.1, 0.2}

	curve, err := metrics.ComputeYoudenCurve(w0, w1, metrics.CurveOptions{LowerScoresLeakier: true})
	require.NoError(t, err)

	// At threshold 0.2 both W1 scores decide leak, no W0 score does.
	assert.Equal(t, 0.2, curve.Thresholds[1])
	assert.Equal(t, 1.0, curve.TPR[1])
	assert.Equal(t, 0.0, curve.FPR[1])
}

func TestOptimalYoudenThreshold(t *testing.T) {
	w0 := []float64{0.1, 0.2, 0.3}
	w1 := []float64{0.7, 0.8, 0.9}

	bestJ, bestThr, curve, err := metrics.OptimalYoudenThreshold(w0, w1, metrics.CurveOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1.0, bestJ)
	// Thresholds 0.7, 0.8 and 0.9 all achieve J=1; the smallest wins.
	assert.Equal(t, 0.7, bestThr)
	require.NotNil(t, curve)
}

func TestCCMax(t *testing.T) {
	t.Run("normal ratio", func(t *testing.T) {
		got, err := metrics.CCMax(0.9, 0.6, 0.3, 0, metrics.ZeroDenomIndependent)
		require.NoError(t, err)
		assert.InDelta(t, 1.5, got, 1e-12)
	})

	t.Run("zero denominator policies", func(t *testing.T) {
		independent, err := metrics.CCMax(0.5, 0, 0, 0, metrics.ZeroDenomIndependent)
		require.NoError(t, err)
		assert.Equal(t, 1.0, independent)

		defaulted, err := metrics.CCMax(0.5, 0, 0, 0, "")
		require.NoError(t, err)
		assert.Equal(t, 1.0, defaulted)

		nan, err := metrics.CCMax(0.5, 0, 0, 0, metrics.ZeroDenomNaN)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(nan))

		zero, err := metrics.CCMax(0.5, 0, 0, 0, metrics.ZeroDenomZero)
		require.NoError(t, err)
		assert.Equal(t, 0.0, zero)
	})

	t.Run("near-zero denominator uses eps", func(t *testing.T) {
		got, err := metrics.CCMax(0.5, 1e-13, 1e-14, 0, metrics.ZeroDenomIndependent)
		require.NoError(t, err)
		assert.Equal(t, 1.0, got)
	})

	t.Run("unknown policy", func(t *testing.T) {
		_, err := metrics.CCMax(0.5, 0, 0, 0, "explode")
		assert.ErrorContains(t, err, "unsupported zero denominator policy")
	})
}

func TestCurveAUC(t *testing.T) {
	t.Run("separable worlds give AUC one", func(t *testing.T) {
		curve, err := metrics.ComputeYoudenCurve(
			[]float64{0.1, 0.2, 0.3},
			[]float64{0.7, 0.8, 0.9},
			metrics.CurveOptions{},
		)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, curve.AUC(), 1e-12)
	})

	t.Run("identical worlds give AUC one half", func(t *testing.T) {
		curve, err := metrics.ComputeYoudenCurve(
			[]float64{0.2, 0.4, 0.6},
			[]float64{0.2, 0.4, 0.6},
			metrics.CurveOptions{},
		)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, curve.AUC(), 1e-12)
	})

	t.Run("empty curve", func(t *testing.T) {
		assert.Equal(t, 0.0, (&metrics.YoudenCurve{}).AUC())
	})
}

func TestBootstrapYoudenCI(t *testing.T) {
	w0 := []float64{0.1, 0.15, 0.2, 0.25, 0.3}
	w1 := []float64{0.7, 0.75, 0.8, 0.85, 0.9}
	rng := rand.New(rand.NewSource(42))

	result, err := metrics.BootstrapYoudenCI(w0, w1, 200, 0.05, rng, metrics.CurveOptions{})
	require.NoError(t, err)

	// Fully separable worlds: every replicate achieves J=1.
	assert.Equal(t, 1.0, result.Point)
	assert.Equal(t, 1.0, result.Lower)
	assert.Equal(t, 1.0, result.Upper)
	assert.Len(t, result.Samples, 200)
}

func TestBootstrapYoudenCIValidation(t *testing.T) {
	w0 := []float64{0.1}
	w1 := []float64{0.9}
	rng := rand.New(rand.NewSource(1))

	_, err := metrics.BootstrapYoudenCI(w0, w1, 0, 0.05, rng, metrics.CurveOptions{})
	assert.ErrorContains(t, err, "iterations must be positive")

	_, err = metrics.BootstrapYoudenCI(w0, w1, 10, 1.5, rng, metrics.CurveOptions{})
	assert.ErrorContains(t, err, "alpha must be in (0, 1)")

	_, err = metrics.BootstrapYoudenCI(w0, w1, 10, 0.05, nil, metrics.CurveOptions{})
	assert.ErrorContains(t, err, "rng is required")
}
