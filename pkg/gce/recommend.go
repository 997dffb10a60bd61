package gce

import (
	"fmt"
	"math"
	"strings"
)

// bestBaseline returns the name and value of the best-performing
// singleton according to the objective. Ties break on the
// lexicographically smaller name so the narrative is deterministic.
// Returns ("<none>", NaN) when the bundle has no baselines.
func bestBaseline(b *RunBundle) (string, float64) {
	if len(b.JBaselines) == 0 {
		return "<none>", math.NaN()
	}

	bestName := ""
	bestVal := math.NaN()
	for name, v := range b.JBaselines {
		if bestName == "" {
			bestName, bestVal = name, v
			continue
		}
		better := v < bestVal
		if b.Objective == ObjectiveMaximize {
			better = v > bestVal
		}
		if better || (v == bestVal && name < bestName) {
			bestName, bestVal = name, v
		}
	}
	return bestName, bestVal
}

// toneForLabel is the short leading phrase that sets the tone of the
// recommendation.
func toneForLabel(label Label) string {
	switch label {
	case LabelConstructive:
		return "Lean into the synergy."
	case LabelDestructive:
		return "Dial back the composition until diagnostics improve."
	default:
		return "Hold the line — the blend is neutral."
	}
}

// MakeRecommendation produces a single-sentence recommendation tying the
// numeric CC to the experiment context (rule, theta, baselines,
// patterns). The text is stable for a given bundle, CC and label.
func MakeRecommendation(b *RunBundle, cc float64, label Label) string {
	tone := toneForLabel(label)
	bestName, bestVal := bestBaseline(b)

	var sb strings.Builder
	if len(b.JBaselines) > 0 {
		fmt.Fprintf(&sb,
			"%s Rule '%s' at θ=%.2f delivers %.3g vs singleton '%s'=%.3g (CC=%.2f, objective=%s).",
			tone, b.Rule, b.Theta, b.JComposed, bestName, bestVal, cc, b.Objective)
	} else {
		fmt.Fprintf(&sb,
			"%s Rule '%s' at θ=%.2f delivers %.3g with no singleton baselines; treat CC=%.2f as relative to a neutral reference (objective=%s).",
			tone, b.Rule, b.Theta, b.JComposed, cc, b.Objective)
	}

	if len(b.Patterns) > 0 {
		fmt.Fprintf(&sb, " Patterns in play: %s.", strings.Join(b.Patterns, ", "))
	}

	return sb.String()
}

// MakeNextTests generates concrete follow-up experiments tailored to the
// verdict. When no baselines exist the tests pivot toward establishing a
// reference instead.
func MakeNextTests(b *RunBundle, cc float64, label Label) []string {
	hasBaselines := len(b.JBaselines) > 0
	bestName, bestVal := bestBaseline(b)
	patStr := strings.Join(b.Patterns, ", ")

	var tests []string
	switch label {
	case LabelConstructive:
		tests = append(tests, fmt.Sprintf(
			"Expand the θ sweep around %.2f for rule '%s' to map the constructive window.",
			b.Theta, b.Rule))

		if len(b.Patterns) > 0 {
			tests = append(tests, fmt.Sprintf(
				"Run leave-one-pattern-out ablations for %s to verify their individual lifts.", patStr))
		} else {
			tests = append(tests,
				"Introduce diagnostic ablations for each component before locking the policy.")
		}

		if hasBaselines {
			tests = append(tests, fmt.Sprintf(
				"Re-evaluate singleton '%s' to confirm the %s reference (%.3g).",
				bestName, b.Objective, bestVal))
		} else {
			tests = append(tests,
				"Establish at least one singleton baseline on the same dataset to quantify the lift.")
		}

	case LabelDestructive:
		if hasBaselines {
			tests = append(tests, fmt.Sprintf(
				"Re-run singleton '%s' (%.3g) as the fallback while disabling rule '%s'.",
				bestName, bestVal, b.Rule))
		} else {
			tests = append(tests,
				"Define and measure a reference singleton baseline to serve as a safe fallback.")
		}

		tests = append(tests, fmt.Sprintf(
			"Probe lower θ values than %.2f to find a safer operating point.", b.Theta))
		tests = append(tests,
			"Audit the composed pipeline for unexpected interactions, data leakage, or misconfigured guards.")

	default: // Independent
		tests = append(tests, fmt.Sprintf(
			"Perform a finer θ sweep around %.2f to confirm neutral behavior.", b.Theta))

		if hasBaselines {
			tests = append(tests, fmt.Sprintf(
				"Validate measurements for singleton '%s' (%.3g) to ensure the comparison is trustworthy.",
				bestName, bestVal))
		} else {
			tests = append(tests,
				"Measure at least one singleton baseline to anchor the neutrality judgment.")
		}

		tests = append(tests,
			"Try orthogonal pattern combinations or alternative rules to search for stronger signals.")
	}

	return tests
}

// MakeChecklist generates a short checklist of sanity and instrumentation
// items that should hold for the verdict to be trustworthy.
func MakeChecklist(b *RunBundle) []string {
	count := len(b.JBaselines)
	checklist := []string{
		fmt.Sprintf("Confirm objective='%s' aligns with how J is interpreted.", b.Objective),
	}

	if count > 0 {
		checklist = append(checklist, fmt.Sprintf(
			"Ensure %d singleton baselines use the same dataset and evaluation seed as the composition.", count))
	} else {
		checklist = append(checklist,
			"Record and compute at least one singleton baseline on the same dataset as the composition.")
	}

	checklist = append(checklist, fmt.Sprintf(
		"Document how θ=%.2f for rule '%s' was chosen.", b.Theta, b.Rule))

	if len(b.Patterns) > 0 {
		checklist = append(checklist, fmt.Sprintf(
			"Ensure instrumentation exists for patterns: %s.", strings.Join(b.Patterns, ", ")))
	} else {
		checklist = append(checklist, "Record why no pattern diagnostics were supplied.")
	}

	return checklist
}
