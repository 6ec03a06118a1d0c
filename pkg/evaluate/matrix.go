package evaluate

import (
	"github.com/soundprediction/docsim/pkg/types"
)

// ConfusionMatrix counts outcomes of a binary classification.
type ConfusionMatrix struct {
	TP int `json:"tp" yaml:"tp"`
	FP int `json:"fp" yaml:"fp"`
	TN int `json:"tn" yaml:"tn"`
	FN int `json:"fn" yaml:"fn"`
}

// NewConfusionMatrix classifies each prediction as positive iff it is
// strictly greater than threshold and tallies it against labels.
func NewConfusionMatrix(predictions []float64, labels []bool, threshold float64) (ConfusionMatrix, error) {
	if err := checkAligned(predictions, labels); err != nil {
		return ConfusionMatrix{}, err
	}

	var cm ConfusionMatrix
	for i, p := range predictions {
		cm.Observe(p > threshold, labels[i])
	}
	return cm, nil
}

// Observe records a single predicted/actual outcome.
func (cm *ConfusionMatrix) Observe(predicted, actual bool) {
	switch {
	case predicted && actual:
		cm.TP++
	case predicted && !actual:
		cm.FP++
	case !predicted && actual:
		cm.FN++
	default:
		cm.TN++
	}
}

// Add returns the element-wise sum of two matrices. Matrices built over
// disjoint slices of the same input can be combined in any order.
func (cm ConfusionMatrix) Add(other ConfusionMatrix) ConfusionMatrix {
	return ConfusionMatrix{
		TP: cm.TP + other.TP,
		FP: cm.FP + other.FP,
		TN: cm.TN + other.TN,
		FN: cm.FN + other.FN,
	}
}

// Total is the number of observations counted.
func (cm ConfusionMatrix) Total() int {
	return cm.TP + cm.FP + cm.TN + cm.FN
}

// Positives is the number of actually-positive observations.
func (cm ConfusionMatrix) Positives() int {
	return cm.TP + cm.FN
}

// Negatives is the number of actually-negative observations.
func (cm ConfusionMatrix) Negatives() int {
	return cm.TN + cm.FP
}

// TruePositiveRate is TP / (TP + FN).
func (cm ConfusionMatrix) TruePositiveRate() Rate {
	return ratio(cm.TP, cm.Positives())
}

// TrueNegativeRate is TN / (TN + FP).
func (cm ConfusionMatrix) TrueNegativeRate() Rate {
	return ratio(cm.TN, cm.Negatives())
}

// FalsePositiveRate is FP / (TN + FP).
func (cm ConfusionMatrix) FalsePositiveRate() Rate {
	return ratio(cm.FP, cm.Negatives())
}

// Accuracy is (TP + TN) / total.
func (cm ConfusionMatrix) Accuracy() Rate {
	return ratio(cm.TP+cm.TN, cm.Total())
}

// MisclassificationRate is (FP + FN) / total.
func (cm ConfusionMatrix) MisclassificationRate() Rate {
	return ratio(cm.FP+cm.FN, cm.Total())
}

// Prevalence is positives / total.
func (cm ConfusionMatrix) Prevalence() Rate {
	return ratio(cm.Positives(), cm.Total())
}

// BalancedScore is min(TPR, TNR). It returns a DegenerateMetricError when
// either rate is undefined.
func (cm ConfusionMatrix) BalancedScore() (float64, error) {
	tpr := cm.TruePositiveRate()
	tnr := cm.TrueNegativeRate()

	var undefined []string
	if !tpr.Defined {
		undefined = append(undefined, MetricTruePositiveRate)
	}
	if !tnr.Defined {
		undefined = append(undefined, MetricTrueNegativeRate)
	}
	if len(undefined) > 0 {
		return 0, types.NewDegenerateMetricError(undefined...)
	}

	if tpr.Value < tnr.Value {
		return tpr.Value, nil
	}
	return tnr.Value, nil
}

func checkAligned(predictions []float64, labels []bool) error {
	if len(predictions) != len(labels) {
		return types.NewInputError("%d predictions for %d labels", len(predictions), len(labels))
	}
	return nil
}
