// Package calibrate chooses the decision threshold that best separates
// similar from different document pairs.
//
// Calibrate scans the grid t = i/steps for i in [0, steps) and scores each
// candidate with min(TPR, TNR), which does not reward predicting the majority
// class on an imbalanced pair set. The scan runs upward and only a strictly
// greater score replaces the incumbent, so the lowest threshold among ties
// wins.
package calibrate

import (
	"github.com/soundprediction/docsim/pkg/evaluate"
	"github.com/soundprediction/docsim/pkg/types"
)

// DefaultSteps is the grid resolution: thresholds 0.00, 0.01, ..., 0.99.
const DefaultSteps = 100

// Point is one evaluated candidate threshold.
type Point struct {
	Threshold float64                  `json:"threshold" yaml:"threshold"`
	Score     float64                  `json:"score" yaml:"score"`
	Matrix    evaluate.ConfusionMatrix `json:"matrix" yaml:"matrix"`
}

// Result is the outcome of a calibration.
type Result struct {
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Score     float64 `json:"score" yaml:"score"`

	// Curve holds every grid point in scan order.
	Curve []Point `json:"curve,omitempty" yaml:"curve,omitempty"`
}

type options struct {
	steps int
}

// Option configures Calibrate.
type Option func(*options)

// WithSteps sets the grid resolution. Values below 1 are ignored.
func WithSteps(steps int) Option {
	return func(o *options) {
		if steps >= 1 {
			o.steps = steps
		}
	}
}

// Calibrate returns the grid threshold maximizing min(TPR, TNR).
//
// It returns an InputError when predictions and labels are misaligned or
// empty, and a DegenerateMetricError when the labels lack a class, since
// then one of the rates is undefined at every threshold.
func Calibrate(predictions []float64, labels []bool, opts ...Option) (Result, error) {
	o := options{steps: DefaultSteps}
	for _, opt := range opts {
		opt(&o)
	}

	if len(predictions) != len(labels) {
		return Result{}, types.NewInputError("%d predictions for %d labels", len(predictions), len(labels))
	}
	if len(labels) == 0 {
		return Result{}, types.NewInputError("no labeled predictions to calibrate on")
	}

	best := Result{Threshold: -1, Score: -1}
	best.Curve = make([]Point, 0, o.steps)

	for i := 0; i < o.steps; i++ {
		t := float64(i) / float64(o.steps)

		cm, err := evaluate.NewConfusionMatrix(predictions, labels, t)
		if err != nil {
			return Result{}, err
		}
		score, err := cm.BalancedScore()
		if err != nil {
			// Class counts do not depend on t: degenerate here means degenerate everywhere.
			return Result{}, err
		}

		best.Curve = append(best.Curve, Point{Threshold: t, Score: score, Matrix: cm})
		if score > best.Score {
			best.Threshold = t
			best.Score = score
		}
	}

	return best, nil
}
