package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/guardrail-ml/gce/pkg/gce"
	"github.com/guardrail-ml/gce/pkg/gce/config"
)

const usageText = `Usage: gce <command> [options]

Commands:
  backend-info   Show which verdict backend is active and why
  quickcheck     Score a built-in smoke bundle end to end
  verdict        Score a run bundle from a JSON file
  analyze        Print the raw composability analysis for a bundle
  bounds         Print Frechet-Hoeffding bounds for a leak rate
  scan           Threshold-scan two-world detector scores for Youden's J
  shell          Interactive shell
`

func die(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}

func buildService() gce.Service {
	cfg, err := config.Load(config.WithEnv(""))
	if err != nil {
		die("failed to load configuration: %v\n", err)
	}
	svc, err := cfg.BuildService()
	if err != nil {
		var unavailable *gce.BackendUnavailableError
		if errors.As(err, &unavailable) {
			die("no verdict backend available: %v\n", err)
		}
		die("failed to build service: %v\n", err)
	}
	return svc
}

// smokeBundle is the fixed bundle scored by `gce quickcheck`.
func smokeBundle() gce.RunBundle {
	return gce.RunBundle{
		Theta:    0.5,
		Patterns: []string{"demo"},
		Rule:     "SEQUENTIAL(DFA→RR)",
		JBaselines: map[string]float64{
			"A": 0.30,
			"B": 0.40,
		},
		JComposed: 0.28,
		Objective: gce.ObjectiveMinimize,
	}
}

func loadBundle(path string) (gce.RunBundle, error) {
	var bundle gce.RunBundle
	raw, err := os.ReadFile(path)
	if err != nil {
		return bundle, fmt.Errorf("failed to read bundle: %w", err)
	}
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return bundle, fmt.Errorf("failed to parse bundle: %w", err)
	}
	return bundle, nil
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Print(usageText)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "backend-info":
		cmdBackendInfo()
	case "quickcheck":
		cmdQuickcheck()
	case "verdict":
		cmdVerdict(os.Args[2:])
	case "analyze":
		cmdAnalyze(os.Args[2:])
	case "bounds":
		cmdBounds(os.Args[2:])
	case "scan":
		cmdScan(os.Args[2:])
	case "shell":
		cmdShell()
	case "help", "-h", "--help":
		fmt.Print(usageText)
	default:
		die("unknown command %q\n\n%s", os.Args[1], usageText)
	}
}

func cmdBackendInfo() {
	svc := buildService()
	info := svc.BackendInfo()
	fmt.Printf("backend:  %s\n", info.Backend)
	fmt.Printf("provider: %s\n", info.Provider)
	fmt.Printf("reason:   %s\n", info.Reason)
}

func cmdQuickcheck() {
	svc := buildService()
	run, err := svc.ComputeVerdict(context.Background(), smokeBundle())
	if err != nil {
		die("quickcheck failed: %v\n", err)
	}
	fmt.Printf("backend: %s (%s)\n", run.Backend, run.Reason)
	fmt.Println(svc.FormatVerdict(&run.Verdict))
}

func cmdVerdict(args []string) {
	fs := flag.NewFlagSet("verdict", flag.ExitOnError)
	bundlePath := fs.String("bundle", "", "Path to a run bundle JSON file.")
	asJSON := fs.Bool("json", false, "Print the full verdict as JSON.")
	fs.Parse(args)

	if *bundlePath == "" {
		die("verdict: -bundle is required\n")
	}

	bundle, err := loadBundle(*bundlePath)
	if err != nil {
		die("%v\n", err)
	}

	svc := buildService()
	run, err := svc.ComputeVerdict(context.Background(), bundle)
	if err != nil {
		die("verdict failed: %v\n", err)
	}

	if *asJSON {
		out, err := gce.VerdictToJSON(run.Bundle, run.Verdict, map[string]string{
			"run_id":  run.ID.String(),
			"backend": run.Backend,
		})
		if err != nil {
			die("failed to encode verdict: %v\n", err)
		}
		fmt.Println(out)
		return
	}

	fmt.Println(svc.FormatVerdict(&run.Verdict))
}

func cmdAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	bundlePath := fs.String("bundle", "", "Path to a run bundle JSON file.")
	fs.Parse(args)

	if *bundlePath == "" {
		die("analyze: -bundle is required\n")
	}

	bundle, err := loadBundle(*bundlePath)
	if err != nil {
		die("%v\n", err)
	}

	svc := buildService()
	analysis, err := svc.AnalyzeComposition(bundle)
	if err != nil {
		die("analyze failed: %v\n", err)
	}

	out, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		die("failed to encode analysis: %v\n", err)
	}
	fmt.Println(string(out))
}

func cmdBounds(args []string) {
	fs := flag.NewFlagSet("bounds", flag.ExitOnError)
	theta := fs.Float64("theta", 0, "Observed leak rate.")
	epsilon := fs.Float64("epsilon", 0, "Drift budget.")
	fs.Parse(args)

	lower, upper := gce.FHBounds(*theta, *epsilon)
	fmt.Printf("theta=%.4f epsilon=%.4f -> [%.4f, %.4f]\n", *theta, *epsilon, lower, upper)
}
