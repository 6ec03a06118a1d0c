package checkpoint

import (
	"bytes"
	"fmt"

	"github.com/soundprediction/docsim/pkg/embedder"
)

// NewModel creates an empty, uncalibrated model for the named provider
func NewModel(provider string) *Model {
	return &Model{
		SchemaVersion: SchemaVersion,
		Provider:      provider,
	}
}

// Calibrated reports whether a threshold has been chosen
func (m *Model) Calibrated() bool {
	return m.Threshold != nil
}

// ThresholdValue returns the calibrated threshold or ErrNotCalibrated
func (m *Model) ThresholdValue() (float64, error) {
	if m.Threshold == nil {
		return 0, ErrNotCalibrated
	}
	return *m.Threshold, nil
}

// SetThreshold records a calibrated threshold
func (m *Model) SetThreshold(t float64) {
	m.Threshold = &t
}

// Capture copies the provider's current state into the model
func (m *Model) Capture(p embedder.Provider) error {
	var buf bytes.Buffer
	if err := p.Save(&buf); err != nil {
		return fmt.Errorf("failed to capture %s state: %w", p.Name(), err)
	}
	m.Provider = p.Name()
	m.State = bytes.TrimSpace(buf.Bytes())
	return nil
}

// Restore loads the model's state into p. The provider kind must match the
// one that wrote the checkpoint.
func (m *Model) Restore(p embedder.Provider) error {
	if m.Provider != p.Name() {
		return fmt.Errorf("checkpoint was written by provider %q, not %q", m.Provider, p.Name())
	}
	if len(m.State) == 0 {
		return fmt.Errorf("checkpoint has no %s state", m.Provider)
	}
	if err := p.Load(bytes.NewReader(m.State)); err != nil {
		return fmt.Errorf("failed to restore %s state: %w", p.Name(), err)
	}
	return nil
}
