package api

import (
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/convsim/model"
)

// HookPosStep is triggered after the model is evaluated in every step.
var HookPosStep = &sim.HookPos{Name: "Driver Step"}

// HookPosReport is triggered when the outputs are sampled.
var HookPosReport = &sim.HookPos{Name: "Driver Report"}

// HookPosFinish is triggered once when the step loop ends.
var HookPosFinish = &sim.HookPos{Name: "Driver Finish"}

// StepEvent is the hook item of HookPosStep. Clock and Reset are the values
// the model was evaluated with.
type StepEvent struct {
	Step  uint64
	Time  sim.VTimeInSec
	Clock model.Bit
	Reset model.Bit
}

// ReportEvent is the hook item of HookPosReport.
type ReportEvent struct {
	Step   uint64
	Time   sim.VTimeInSec
	Output model.OutputGrid
}

// FinishEvent is the hook item of HookPosFinish.
type FinishEvent struct {
	Step   uint64
	Time   sim.VTimeInSec
	Reason StopReason
}
