package api

import "fmt"

// Spec holds the fixed sequencing parameters of a driver run.
type Spec struct {
	// ResetHoldSteps is the last step at which reset is still held low.
	ResetHoldSteps uint64

	// ReportStep is the only step at which the outputs are reported.
	ReportStep uint64

	// MaxStep is the ceiling. The run stops at the first step that exceeds
	// it.
	MaxStep uint64
}

// DefaultSpec returns the sequencing of the convolution unit testbench.
func DefaultSpec() Spec {
	return Spec{
		ResetHoldSteps: 20,
		ReportStep:     1000,
		MaxStep:        2000,
	}
}

// LastStep returns the highest step the driver can reach.
func (s Spec) LastStep() uint64 {
	return s.MaxStep + 1
}

func (s Spec) validate() error {
	if s.MaxStep == 0 {
		return fmt.Errorf("max step must be > 0")
	}
	if s.ResetHoldSteps > s.MaxStep {
		return fmt.Errorf("reset hold (%d) must not exceed max step (%d)",
			s.ResetHoldSteps, s.MaxStep)
	}
	if s.ReportStep > s.LastStep() {
		return fmt.Errorf("report step (%d) is never reached, last step is %d",
			s.ReportStep, s.LastStep())
	}
	return nil
}

// Validate checks that s describes a run that can terminate.
func (s Spec) Validate() error {
	return s.validate()
}
