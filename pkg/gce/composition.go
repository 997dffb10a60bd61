package gce

import "math"

// BestSingleton returns the best singleton J value according to the
// objective, ignoring non-finite values. The second return is false when
// no usable singleton exists.
func BestSingleton(baselines map[string]float64, objective Objective) (float64, bool) {
	best := math.NaN()
	found := false
	for _, v := range baselines {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if !found {
			best = v
			found = true
			continue
		}
		if objective == ObjectiveMaximize {
			if v > best {
				best = v
			}
		} else if v < best {
			best = v
		}
	}
	return best, found
}

// ComputeCC computes the composability coefficient.
//
// Convention:
//   - minimize: smaller J is better, CC = J_comp / J_best
//   - maximize: larger J is better, CC = J_best / J_comp
//
// Interpretation: CC < 1 means the composition beats the best singleton,
// CC ≈ 1 is neutral, CC > 1 means it is worse.
//
// Edge cases:
//   - no usable baselines: CC = NaN
//   - minimize with J_best == 0: CC = 1 if J_comp == 0, else +Inf
//   - maximize with J_comp <= 0: CC = 1 if J_best <= 0, else +Inf
func ComputeCC(baselines map[string]float64, jComposed float64, objective Objective) float64 {
	best, ok := BestSingleton(baselines, objective)
	if !ok {
		return math.NaN()
	}

	if objective == ObjectiveMinimize {
		if best == 0 {
			if jComposed == 0 {
				return 1.0
			}
			return math.Inf(1)
		}
		return jComposed / best
	}

	// maximize: guard against non-positive composition scores
	if jComposed <= 0 {
		if best <= 0 {
			return 1.0
		}
		return math.Inf(1)
	}
	return best / jComposed
}

// ClassifyCC maps a CC value onto a label using a symmetric tolerance
// band around 1.0:
//
//	CC < 1 - tol  → Constructive
//	CC > 1 + tol  → Destructive
//	otherwise     → Independent
//
// Non-finite CC values classify as Independent to avoid overclaiming.
func ClassifyCC(cc, tol float64) Label {
	if math.IsNaN(cc) || math.IsInf(cc, 0) {
		return LabelIndependent
	}
	if cc < 1.0-tol {
		return LabelConstructive
	}
	if cc > 1.0+tol {
		return LabelDestructive
	}
	return LabelIndependent
}
