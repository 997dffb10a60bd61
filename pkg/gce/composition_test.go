package gce_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/guardrail-ml/gce/pkg/gce"
)

func TestBestSingleton(t *testing.T) {
	tests := []struct {
		name      string
		baselines map[string]float64
		objective gce.Objective
		want      float64
		found     bool
	}{
		{
			name:      "minimize picks smallest",
			baselines: map[string]float64{"A": 0.30, "B": 0.40},
			objective: gce.ObjectiveMinimize,
			want:      0.30,
			found:     true,
		},
		{
			name:      "maximize picks largest",
			baselines: map[string]float64{"A": 0.30, "B": 0.40},
			objective: gce.ObjectiveMaximize,
			want:      0.40,
			found:     true,
		},
		{
			name:      "non-finite values are skipped",
			baselines: map[string]float64{"A": math.NaN(), "B": math.Inf(1), "C": 0.2},
			objective: gce.ObjectiveMinimize,
			want:      0.2,
			found:     true,
		},
		{
			name:      "empty map",
			baselines: map[string]float64{},
			objective: gce.ObjectiveMinimize,
			found:     false,
		},
		{
			name:      "only non-finite values",
			baselines: map[string]float64{"A": math.NaN()},
			objective: gce.ObjectiveMaximize,
			found:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := gce.BestSingleton(tt.baselines, tt.objective)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestComputeCC(t *testing.T) {
	tests := []struct {
		name      string
		baselines map[string]float64
		jComposed float64
		objective gce.Objective
		want      float64
	}{
		{
			name:      "minimize constructive",
			baselines: map[string]float64{"A": 0.30, "B": 0.40},
			jComposed: 0.15,
			objective: gce.ObjectiveMinimize,
			want:      0.5,
		},
		{
			name:      "minimize destructive",
			baselines: map[string]float64{"A": 0.30},
			jComposed: 0.60,
			objective: gce.ObjectiveMinimize,
			want:      2.0,
		},
		{
			name:      "maximize constructive",
			baselines: map[string]float64{"A": 0.40},
			jComposed: 0.80,
			objective: gce.ObjectiveMaximize,
			want:      0.5,
		},
		{
			name:      "minimize zero best and zero composed is neutral",
			baselines: map[string]float64{"A": 0.0},
			jComposed: 0.0,
			objective: gce.ObjectiveMinimize,
			want:      1.0,
		},
		{
			name:      "minimize zero best with leakage blows up",
			baselines: map[string]float64{"A": 0.0},
			jComposed: 0.1,
			objective: gce.ObjectiveMinimize,
			want:      math.Inf(1),
		},
		{
			name:      "maximize non-positive composed and best is neutral",
			baselines: map[string]float64{"A": -0.2},
			jComposed: 0.0,
			objective: gce.ObjectiveMaximize,
			want:      1.0,
		},
		{
			name:      "maximize non-positive composed with positive best blows up",
			baselines: map[string]float64{"A": 0.4},
			jComposed: -0.1,
			objective: gce.ObjectiveMaximize,
			want:      math.Inf(1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gce.ComputeCC(tt.baselines, tt.jComposed, tt.objective)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeCCNoBaselines(t *testing.T) {
	got := gce.ComputeCC(nil, 0.5, gce.ObjectiveMinimize)
	require.True(t, math.IsNaN(got))
}

func TestClassifyCC(t *testing.T) {
	tests := []struct {
		name string
		cc   float64
		want gce.Label
	}{
		{name: "well below band", cc: 0.5, want: gce.LabelConstructive},
		{name: "just below band", cc: 0.94, want: gce.LabelConstructive},
		{name: "lower band edge", cc: 0.95, want: gce.LabelIndependent},
		{name: "neutral", cc: 1.0, want: gce.LabelIndependent},
		{name: "upper band edge", cc: 1.05, want: gce.LabelIndependent},
		{name: "just above band", cc: 1.06, want: gce.LabelDestructive},
		{name: "well above band", cc: 2.0, want: gce.LabelDestructive},
		{name: "nan", cc: math.NaN(), want: gce.LabelIndependent},
		{name: "positive inf", cc: math.Inf(1), want: gce.LabelIndependent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gce.ClassifyCC(tt.cc, gce.IndependentTol))
		})
	}
}
