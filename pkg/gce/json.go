package gce

import (
	"encoding/json"
	"math"
)

// jsonFloat renders non-finite floats as null so analysis payloads stay
// valid JSON. encoding/json rejects NaN and ±Inf outright.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// MarshalJSON keeps Analysis serialisable when CC is NaN (no baselines)
// or +Inf (degenerate denominators).
func (a Analysis) MarshalJSON() ([]byte, error) {
	var best *jsonFloat
	if a.BestSingleton != nil {
		b := jsonFloat(*a.BestSingleton)
		best = &b
	}
	return json.Marshal(struct {
		Theta         float64    `json:"theta"`
		Objective     Objective  `json:"objective"`
		BestSingleton *jsonFloat `json:"best_singleton"`
		CC            jsonFloat  `json:"CC"`
	}{
		Theta:         a.Theta,
		Objective:     a.Objective,
		BestSingleton: best,
		CC:            jsonFloat(a.CC),
	})
}
