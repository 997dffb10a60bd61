package gce

import (
	"fmt"
	"sort"
	"strings"
)

// OfflineExplanation is the deterministic narrative used when no chat
// model is configured or reachable. It keeps the explain surface usable
// offline and in tests.
func OfflineExplanation(bundle *RunBundle, verdict *Verdict) string {
	names := make([]string, 0, len(bundle.JBaselines))
	for name := range bundle.JBaselines {
		names = append(names, name)
	}
	sort.Strings(names)
	baselineNames := strings.Join(names, ", ")
	if baselineNames == "" {
		baselineNames = "none"
	}

	return fmt.Sprintf(
		"AI explanation is running in **offline mode** because no API key is configured.\n\n"+
			"- Composition rule: `%s` at θ=%.2f\n"+
			"- Objective: `%s` over %d singleton(s): %s\n"+
			"- Composed J: %.3g\n"+
			"- Composability verdict: **%s** with CC=%.2f\n\n"+
			"Interpretation:\n"+
			"- A **%s** label means the composed guardrails behave roughly as classified by the CC metric.\n"+
			"- To get a richer AI narrative, configure an API key and re-run the tool.",
		bundle.Rule, bundle.Theta,
		bundle.Objective, len(bundle.JBaselines), baselineNames,
		bundle.JComposed,
		verdict.Label, verdict.CC,
		verdict.Label,
	)
}
