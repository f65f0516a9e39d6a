package scoring

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/copyshield/copyshield/internal/domain"
)

// Threshold optimizer bounds and the fixed review-band offset.
const (
	optimizeLow  = 0.70
	optimizeHigh = 0.99
	reviewOffset = 0.60
	rejectFloor  = 0.10

	goldenTolerance = 1e-4
)

// OptimizeThresholds searches the auto-approve threshold over
// [optimizeLow, optimizeHigh] to minimize
//
//	FP_count · error_cost(approve) + FN_count · error_cost(reject)
//
// on the labeled validation set, scoring each sample with the engine's
// current mode. The auto-reject threshold follows as a fixed offset below
// the optimized approve threshold. The update replaces both thresholds
// atomically; concurrent scoring keeps seeing a consistent pair.
func (e *Engine) OptimizeThresholds(samples []LabeledSample) (Thresholds, error) {
	if len(samples) == 0 {
		return e.CurrentThresholds(), fmt.Errorf("%w: no labeled samples", domain.ErrInsufficientTrainingData)
	}

	// Score once per sample; the cost function re-evaluates thresholds only.
	scores := make([]float64, len(samples))
	for i, s := range samples {
		scores[i] = e.Score(s.Features).OverallConfidence
	}

	fpCost := e.costs.Error[domain.DecisionAutoApprove]
	fnCost := e.costs.Error[domain.DecisionAutoReject]
	cost := func(threshold float64) float64 {
		var total float64
		for i, s := range samples {
			approved := scores[i] >= threshold
			switch {
			case approved && !s.Infringing:
				total += fpCost
			case !approved && s.Infringing:
				total += fnCost
			}
		}
		return total
	}

	approve := goldenSection(cost, optimizeLow, optimizeHigh, goldenTolerance)
	reject := approve - reviewOffset
	if reject < rejectFloor {
		reject = rejectFloor
	}

	t := Thresholds{AutoApprove: approve, AutoReject: reject}
	if err := e.SetThresholds(t); err != nil {
		return e.CurrentThresholds(), fmt.Errorf("apply optimized thresholds: %w", err)
	}

	e.logger.Info("thresholds optimized",
		zap.Float64("auto_approve", t.AutoApprove),
		zap.Float64("auto_reject", t.AutoReject),
		zap.Int("samples", len(samples)),
		zap.Float64("cost", cost(approve)),
	)
	return t, nil
}

// goldenSection is a bounded 1-D minimizer. The cost function is piecewise
// constant in the threshold, so the search converges to a point inside a
// minimal-cost plateau rather than a unique minimum; any such point is an
// acceptable threshold.
func goldenSection(f func(float64) float64, lo, hi, tol float64) float64 {
	invPhi := (math.Sqrt(5) - 1) / 2

	a, b := lo, hi
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc, fd := f(c), f(d)

	for b-a > tol {
		if fc <= fd {
			b, d, fd = d, c, fc
			c = b - invPhi*(b-a)
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + invPhi*(b-a)
			fd = f(d)
		}
	}
	return (a + b) / 2
}
