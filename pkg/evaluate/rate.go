package evaluate

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Metric names used in reports and DegenerateMetricError.
const (
	MetricAccuracy              = "accuracy"
	MetricMisclassificationRate = "misclassification_rate"
	MetricTruePositiveRate      = "true_positive_rate"
	MetricFalsePositiveRate     = "false_positive_rate"
	MetricTrueNegativeRate      = "true_negative_rate"
	MetricPrevalence            = "prevalence"
)

// Rate is a ratio that may be undefined because its denominator is zero.
type Rate struct {
	Value   float64
	Defined bool
}

func ratio(num, den int) Rate {
	if den == 0 {
		return Rate{}
	}
	return Rate{Value: float64(num) / float64(den), Defined: true}
}

// Percent renders the rate as a whole percentage, truncated toward zero, or
// "undefined".
func (r Rate) Percent() string {
	if !r.Defined {
		return "undefined"
	}
	return fmt.Sprintf("%d%%", int(r.Value*100))
}

// MarshalYAML renders undefined rates as the string "undefined".
func (r Rate) MarshalYAML() (interface{}, error) {
	if !r.Defined {
		return "undefined", nil
	}
	return r.Value, nil
}

// UnmarshalYAML accepts either a number or "undefined".
func (r *Rate) UnmarshalYAML(node *yaml.Node) error {
	if node.Value == "undefined" {
		*r = Rate{}
		return nil
	}
	var v float64
	if err := node.Decode(&v); err != nil {
		return fmt.Errorf("decode rate: %w", err)
	}
	*r = Rate{Value: v, Defined: true}
	return nil
}
