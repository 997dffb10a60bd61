// Package metrics implements the statistical primitives behind the
// composability explorer: Youden's J, threshold-scan curves from
// two-world score samples, and the CC_max ratio with explicit
// zero-denominator handling.
package metrics

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// YoudenJ computes Youden's J statistic, J = TPR − FPR. Finite results
// are clipped into [−1, 1]; NaN and ±Inf inputs propagate unclipped so
// upstream data problems stay visible.
func YoudenJ(tpr, fpr float64) float64 {
	raw := tpr - fpr
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return raw
	}
	return clamp(raw, -1.0, 1.0)
}

// YoudenJs is the vector form of YoudenJ. The slices must have equal
// length.
func YoudenJs(tpr, fpr []float64) ([]float64, error) {
	if len(tpr) != len(fpr) {
		return nil, fmt.Errorf("tpr and fpr lengths differ: %d vs %d", len(tpr), len(fpr))
	}
	j := make([]float64, len(tpr))
	for i := range tpr {
		j[i] = YoudenJ(tpr[i], fpr[i])
	}
	return j, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// YoudenCurve summarises Youden's J over a threshold scan. All slices
// share the same length and ordering (thresholds ascending).
type YoudenCurve struct {
	Thresholds []float64
	TPR        []float64
	FPR        []float64
	J          []float64
}

// CurveOptions tune the threshold scan.
type CurveOptions struct {
	// Thresholds is an explicit grid to evaluate. Empty means the sorted
	// unique union of all W0 and W1 scores.
	Thresholds []float64
	// LowerScoresLeakier flips the decision rule to score <= threshold
	// for models where lower scores mean more suspicious behaviour. The
	// default rule is score >= threshold.
	LowerScoresLeakier bool
}

var errEmptyScores = errors.New("scores_w0 and scores_w1 must both be non-empty")

func validateScores(name string, scores []float64) error {
	if len(scores) == 0 {
		return errEmptyScores
	}
	for _, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%s contains non-finite values; clean or filter upstream", name)
		}
	}
	return nil
}

func uniqueSorted(values []float64) []float64 {
	out := append([]float64(nil), values...)
	sort.Float64s(out)
	n := 0
	for i, v := range out {
		if i == 0 || v != out[n-1] {
			out[n] = v
			n++
		}
	}
	return out[:n]
}

// ComputeYoudenCurve evaluates TPR, FPR and J across a grid of
// thresholds from W0 (secret absent) and W1 (secret present) scores.
//
// TPR is P(decide leak | W1) and FPR is P(decide leak | W0). The scan
// makes no optimality claim; see OptimalYoudenThreshold for the argmax.
func ComputeYoudenCurve(scoresW0, scoresW1 []float64, opts CurveOptions) (*YoudenCurve, error) {
	if err := validateScores("scores_w0", scoresW0); err != nil {
		return nil, err
	}
	if err := validateScores("scores_w1", scoresW1); err != nil {
		return nil, err
	}

	var thresholds []float64
	if len(opts.Thresholds) > 0 {
		thresholds = uniqueSorted(opts.Thresholds)
	} else {
		union := make([]float64, 0, len(scoresW0)+len(scoresW1))
		union = append(union, scoresW0...)
		union = append(union, scoresW1...)
		thresholds = uniqueSorted(union)
	}
	if len(thresholds) == 0 {
		return nil, errors.New("no thresholds to evaluate")
	}

	curve := &YoudenCurve{
		Thresholds: thresholds,
		TPR:        make([]float64, len(thresholds)),
		FPR:        make([]float64, len(thresholds)),
		J:          make([]float64, len(thresholds)),
	}

	for i, thr := range thresholds {
		curve.FPR[i] = decideRate(scoresW0, thr, opts.LowerScoresLeakier)
		curve.TPR[i] = decideRate(scoresW1, thr, opts.LowerScoresLeakier)
		curve.J[i] = YoudenJ(curve.TPR[i], curve.FPR[i])
	}

	return curve, nil
}

func decideRate(scores []float64, thr float64, lowerLeakier bool) float64 {
	hits := 0
	for _, s := range scores {
		if lowerLeakier {
			if s <= thr {
				hits++
			}
		} else if s >= thr {
			hits++
		}
	}
	return float64(hits) / float64(len(scores))
}

// OptimalYoudenThreshold finds the threshold that maximises Youden's J
// and returns the full curve alongside it. When several thresholds share
// the maximum J, the smallest one wins.
func OptimalYoudenThreshold(scoresW0, scoresW1 []float64, opts CurveOptions) (bestJ, bestThreshold float64, curve *YoudenCurve, err error) {
	curve, err = ComputeYoudenCurve(scoresW0, scoresW1, opts)
	if err != nil {
		return 0, 0, nil, err
	}

	bestIdx := 0
	for i, j := range curve.J {
		if j > curve.J[bestIdx] {
			bestIdx = i
		}
	}
	return curve.J[bestIdx], curve.Thresholds[bestIdx], curve, nil
}

// ZeroDenomPolicy controls CCMax when both singleton Js are ~0.
type ZeroDenomPolicy string

const (
	// ZeroDenomIndependent returns 1.0: no additional composition
	// penalty can be claimed. Conservative and the default.
	ZeroDenomIndependent ZeroDenomPolicy = "independent"
	// ZeroDenomNaN surfaces the ambiguity as NaN for the caller.
	ZeroDenomNaN ZeroDenomPolicy = "nan"
	// ZeroDenomZero returns 0.0.
	ZeroDenomZero ZeroDenomPolicy = "zero"
)

// DefaultEps is the threshold under which CCMax denominators count as
// effectively zero.
const DefaultEps = 1e-12

// CCMax computes CC_max = J_observed / max(J_DFA, J_DP). When the
// denominator is at or below eps (DefaultEps when eps <= 0), the result
// follows the policy; an unknown policy is an error.
func CCMax(jObserved, jDFA, jDP, eps float64, policy ZeroDenomPolicy) (float64, error) {
	if eps <= 0 {
		eps = DefaultEps
	}

	denom := math.Max(jDFA, jDP)
	if denom <= eps {
		switch policy {
		case ZeroDenomIndependent, "":
			return 1.0, nil
		case ZeroDenomNaN:
			return math.NaN(), nil
		case ZeroDenomZero:
			return 0.0, nil
		}
		return 0, fmt.Errorf("unsupported zero denominator policy %q", policy)
	}

	return jObserved / denom, nil
}
