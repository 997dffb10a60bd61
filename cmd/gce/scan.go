package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/guardrail-ml/gce/pkg/gce/metrics"
)

// scanInput is the JSON shape accepted by `gce scan`: raw detector
// scores from paired canary worlds.
type scanInput struct {
	ScoresW0           []float64 `json:"scores_w0"`
	ScoresW1           []float64 `json:"scores_w1"`
	Thresholds         []float64 `json:"thresholds,omitempty"`
	LowerScoresLeakier bool      `json:"lower_scores_leakier,omitempty"`
}

func loadScanInput(path string) (scanInput, error) {
	var in scanInput
	raw, err := os.ReadFile(path)
	if err != nil {
		return in, fmt.Errorf("failed to read scores: %w", err)
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return in, fmt.Errorf("failed to parse scores: %w", err)
	}
	return in, nil
}

func cmdScan(args []string) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	scoresPath := fs.String("scores", "", "Path to a two-world scores JSON file.")
	bootstrap := fs.Int("bootstrap", 0, "Bootstrap iterations for a J confidence interval (0 disables).")
	alpha := fs.Float64("alpha", 0.05, "Bootstrap significance level.")
	seed := fs.Int64("seed", 1, "Bootstrap RNG seed.")
	jDFA := fs.Float64("j-dfa", 0, "Singleton J of the DFA guardrail, for CC_max.")
	jDP := fs.Float64("j-dp", 0, "Singleton J of the DP guardrail, for CC_max.")
	fs.Parse(args)

	if *scoresPath == "" {
		die("scan: -scores is required\n")
	}

	in, err := loadScanInput(*scoresPath)
	if err != nil {
		die("%v\n", err)
	}

	opts := metrics.CurveOptions{
		Thresholds:         in.Thresholds,
		LowerScoresLeakier: in.LowerScoresLeakier,
	}
	bestJ, bestThr, curve, err := metrics.OptimalYoudenThreshold(in.ScoresW0, in.ScoresW1, opts)
	if err != nil {
		die("scan failed: %v\n", err)
	}

	fmt.Printf("thresholds scanned: %d\n", len(curve.Thresholds))
	fmt.Printf("best J:             %.4f at threshold %.4f\n", bestJ, bestThr)
	fmt.Printf("ROC AUC:            %.4f\n", curve.AUC())

	if *jDFA != 0 || *jDP != 0 {
		cc, err := metrics.CCMax(bestJ, *jDFA, *jDP, 0, metrics.ZeroDenomIndependent)
		if err != nil {
			die("cc_max failed: %v\n", err)
		}
		fmt.Printf("CC_max:             %.4f\n", cc)
	}

	if *bootstrap > 0 {
		rng := rand.New(rand.NewSource(*seed))
		ci, err := metrics.BootstrapYoudenCI(in.ScoresW0, in.ScoresW1, *bootstrap, *alpha, rng, opts)
		if err != nil {
			die("bootstrap failed: %v\n", err)
		}
		fmt.Printf("J %.0f%% CI:           [%.4f, %.4f] (%d replicates)\n",
			(1-*alpha)*100, ci.Lower, ci.Upper, len(ci.Samples))
	}
}
