package evaluate

import (
	"fmt"
	"io"

	"github.com/soundprediction/docsim/pkg/types"
	"gopkg.in/yaml.v3"
)

// Report is the confusion matrix of a scored label set plus every rate
// derived from it.
type Report struct {
	Threshold             float64         `yaml:"threshold"`
	Matrix                ConfusionMatrix `yaml:"confusion_matrix"`
	Accuracy              Rate            `yaml:"accuracy"`
	MisclassificationRate Rate            `yaml:"misclassification_rate"`
	TruePositiveRate      Rate            `yaml:"true_positive_rate"`
	FalsePositiveRate     Rate            `yaml:"false_positive_rate"`
	TrueNegativeRate      Rate            `yaml:"true_negative_rate"`
	Prevalence            Rate            `yaml:"prevalence"`
}

// Evaluate scores predictions against labels at threshold. The only error
// it returns is an InputError for misaligned input; undefined rates are
// carried in the report and surfaced by Report.Err.
func Evaluate(predictions []float64, labels []bool, threshold float64) (*Report, error) {
	cm, err := NewConfusionMatrix(predictions, labels, threshold)
	if err != nil {
		return nil, err
	}
	return NewReport(cm, threshold), nil
}

// NewReport derives a report from an existing confusion matrix.
func NewReport(cm ConfusionMatrix, threshold float64) *Report {
	return &Report{
		Threshold:             threshold,
		Matrix:                cm,
		Accuracy:              cm.Accuracy(),
		MisclassificationRate: cm.MisclassificationRate(),
		TruePositiveRate:      cm.TruePositiveRate(),
		FalsePositiveRate:     cm.FalsePositiveRate(),
		TrueNegativeRate:      cm.TrueNegativeRate(),
		Prevalence:            cm.Prevalence(),
	}
}

// Err returns a DegenerateMetricError listing every undefined rate, or nil.
func (r *Report) Err() error {
	var undefined []string
	for _, m := range r.metrics() {
		if !m.rate.Defined {
			undefined = append(undefined, m.name)
		}
	}
	if len(undefined) == 0 {
		return nil
	}
	return types.NewDegenerateMetricError(undefined...)
}

// BalancedScore is min(TPR, TNR) of the report's matrix.
func (r *Report) BalancedScore() (float64, error) {
	return r.Matrix.BalancedScore()
}

type namedRate struct {
	name  string
	label string
	rate  Rate
}

func (r *Report) metrics() []namedRate {
	return []namedRate{
		{MetricAccuracy, "accuracy", r.Accuracy},
		{MetricMisclassificationRate, "misclassification rate", r.MisclassificationRate},
		{MetricTruePositiveRate, "true positive rate | sensitivity | recall", r.TruePositiveRate},
		{MetricFalsePositiveRate, "false positive rate", r.FalsePositiveRate},
		{MetricTrueNegativeRate, "true negative rate | specificity", r.TrueNegativeRate},
		{MetricPrevalence, "prevalence", r.Prevalence},
	}
}

// WriteText renders the report as human-readable lines with whole
// percentages.
func (r *Report) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "threshold: %v\n", r.Threshold); err != nil {
		return err
	}
	m := r.Matrix
	if _, err := fmt.Fprintf(w, "TP: %d FN: %d TN: %d FP: %d\n", m.TP, m.FN, m.TN, m.FP); err != nil {
		return err
	}
	for _, nr := range r.metrics() {
		if _, err := fmt.Fprintf(w, "%s: %s\n", nr.label, nr.rate.Percent()); err != nil {
			return err
		}
	}
	return nil
}

// WriteYAML renders the report as a YAML document.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}

// Write renders the report in the named format: "text" or "yaml".
func (r *Report) Write(w io.Writer, format string) error {
	switch format {
	case "", "text":
		return r.WriteText(w)
	case "yaml":
		return r.WriteYAML(w)
	default:
		return types.NewInputError("unknown report format %q", format)
	}
}
