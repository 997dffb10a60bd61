package metrics

import (
	"sort"

	"gonum.org/v1/gonum/integrate"
)

// AUC estimates the area under the ROC curve traced by the threshold
// scan, via trapezoidal integration over (FPR, TPR) points. The corner
// points (0,0) and (1,1) are added when the scan does not reach them.
func (c *YoudenCurve) AUC() float64 {
	n := len(c.FPR)
	if n == 0 {
		return 0
	}

	type point struct{ fpr, tpr float64 }
	points := make([]point, 0, n+2)
	for i := 0; i < n; i++ {
		points = append(points, point{c.FPR[i], c.TPR[i]})
	}
	points = append(points, point{0, 0}, point{1, 1})

	sort.Slice(points, func(i, j int) bool {
		if points[i].fpr != points[j].fpr {
			return points[i].fpr < points[j].fpr
		}
		return points[i].tpr < points[j].tpr
	})

	// integrate.Trapezoidal rejects repeated abscissae; collapse ties on
	// FPR to their best TPR.
	xs := make([]float64, 0, len(points))
	ys := make([]float64, 0, len(points))
	for _, p := range points {
		if len(xs) > 0 && xs[len(xs)-1] == p.fpr {
			ys[len(ys)-1] = p.tpr
			continue
		}
		xs = append(xs, p.fpr)
		ys = append(ys, p.tpr)
	}
	if len(xs) < 2 {
		return 0
	}

	return integrate.Trapezoidal(xs, ys)
}
