package gce

import (
	"fmt"
	"math"
	"strings"
)

// ParseObjective normalises a user-supplied objective string. It accepts
// case-insensitive input and defaults to minimize for the empty string.
func ParseObjective(s string) (Objective, error) {
	switch Objective(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return ObjectiveMinimize, nil
	case ObjectiveMinimize:
		return ObjectiveMinimize, nil
	case ObjectiveMaximize:
		return ObjectiveMaximize, nil
	}
	return "", fmt.Errorf("objective must be %q or %q, got %q", ObjectiveMinimize, ObjectiveMaximize, s)
}

// Validate normalises the bundle in place and reports the first invalid
// field. Normalisation mirrors the JSON surface: patterns are trimmed and
// blanks dropped, the objective is lower-cased and defaulted to minimize.
func (b *RunBundle) Validate() error {
	if math.IsNaN(b.Theta) || math.IsInf(b.Theta, 0) {
		return &BundleError{Field: "theta", Err: fmt.Errorf("must be a finite float, got %v", b.Theta)}
	}

	cleaned := b.Patterns[:0]
	for _, p := range b.Patterns {
		if s := strings.TrimSpace(p); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	b.Patterns = cleaned

	b.Rule = strings.TrimSpace(b.Rule)
	if b.Rule == "" {
		return &BundleError{Field: "rule", Err: fmt.Errorf("must be a non-empty string")}
	}

	for name, v := range b.JBaselines {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &BundleError{Field: "J_baselines", Err: fmt.Errorf("value for %q must be finite, got %v", name, v)}
		}
	}

	if math.IsNaN(b.JComposed) || math.IsInf(b.JComposed, 0) {
		return &BundleError{Field: "J_composed", Err: fmt.Errorf("must be finite, got %v", b.JComposed)}
	}

	obj, err := ParseObjective(string(b.Objective))
	if err != nil {
		return &BundleError{Field: "objective", Err: err}
	}
	b.Objective = obj

	return nil
}

// Validate checks a verdict against the invariants callers rely on: a
// finite non-negative CC, a known label, and clean string lists.
func (v *Verdict) Validate() error {
	if math.IsNaN(v.CC) || math.IsInf(v.CC, 0) || v.CC < 0 {
		return fmt.Errorf("%w: CC must be a finite, non-negative float, got %v", ErrInvalidVerdict, v.CC)
	}

	switch v.Label {
	case LabelConstructive, LabelIndependent, LabelDestructive:
	default:
		return fmt.Errorf("%w: unknown label %q", ErrInvalidVerdict, v.Label)
	}

	v.NextTests = cleanStrings(v.NextTests)
	v.Checklist = cleanStrings(v.Checklist)

	return nil
}

func cleanStrings(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
