// Package api defines the driver API that sequences a hardware model.
package api

import (
	"fmt"
	"log/slog"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/convsim/model"
)

// Driver provides the interface to control a hardware model.
type Driver interface {
	sim.Component

	// RegisterModel registers the model that the driver sequences. The
	// driver owns the model until Run returns.
	RegisterModel(m model.Model)

	// FeedIn sets the input samples that are applied to the model before
	// the first step.
	FeedIn(data model.InputGrid)

	// Run steps the model until it finishes or the step ceiling is
	// exceeded, then finalizes it.
	Run() error

	// Stats returns the progress of the current or last run.
	Stats() RunStats
}

// StopReason tells why a run ended.
type StopReason int

const (
	StopNone StopReason = iota
	StopCeiling
	StopModelFinished
)

// String returns the name of the reason.
func (r StopReason) String() string {
	switch r {
	case StopNone:
		return "None"
	case StopCeiling:
		return "Ceiling"
	case StopModelFinished:
		return "ModelFinished"
	default:
		panic("invalid stop reason")
	}
}

// RunStats summarizes a run.
type RunStats struct {
	// Step is the value of the step counter when the run stopped.
	Step uint64

	// Evaluations counts the calls to the model's Evaluate.
	Evaluations uint64

	// Reports counts how many times the outputs were reported.
	Reports int

	Reason StopReason
}

type driverImpl struct {
	*sim.TickingComponent

	engine   sim.Engine
	spec     Spec
	model    model.Model
	reporter OutputReporter

	input model.InputGrid
	clock model.Bit
	reset model.Bit
	step  uint64

	stats RunStats
	err   error
}

// Tick runs the driver for one step.
func (d *driverImpl) Tick() (madeProgress bool) {
	if d.stats.Reason != StopNone {
		return false
	}

	if d.model.Finished() {
		d.stop(StopModelFinished)
		return false
	}

	d.toggleClock()
	d.applyReset()

	d.model.Evaluate()
	d.stats.Evaluations++
	d.InvokeHook(sim.HookCtx{
		Domain: d,
		Pos:    HookPosStep,
		Item: StepEvent{
			Step:  d.step,
			Time:  d.engine.CurrentTime(),
			Clock: d.clock,
			Reset: d.reset,
		},
	})

	if d.step == d.spec.ReportStep {
		d.doReport()
	}

	if d.step > d.spec.MaxStep {
		d.stop(StopCeiling)
		return false
	}

	d.step++

	return true
}

func (d *driverImpl) toggleClock() {
	d.clock = d.clock.Not()
	d.model.SetClock(d.clock)
}

func (d *driverImpl) applyReset() {
	if d.step <= d.spec.ResetHoldSteps {
		return
	}

	if d.reset == model.Low {
		model.Trace("Driver",
			"Behavior", "ReleaseReset",
			"Step", d.step,
			"Time", float64(d.engine.CurrentTime()*1e9),
		)
	}

	d.reset = model.High
	d.model.SetReset(d.reset)
}

func (d *driverImpl) doReport() {
	out := d.model.Output()

	d.stats.Reports++
	d.InvokeHook(sim.HookCtx{
		Domain: d,
		Pos:    HookPosReport,
		Item: ReportEvent{
			Step:   d.step,
			Time:   d.engine.CurrentTime(),
			Output: out,
		},
	})

	model.Trace("Driver",
		"Behavior", "Report",
		"Step", d.step,
		"Time", float64(d.engine.CurrentTime()*1e9),
	)

	if d.err != nil {
		return
	}

	if err := d.reporter.Report(d.step, out); err != nil {
		d.err = fmt.Errorf("report at step %d: %w", d.step, err)
	}
}

func (d *driverImpl) stop(reason StopReason) {
	d.stats.Reason = reason
	d.stats.Step = d.step

	d.InvokeHook(sim.HookCtx{
		Domain: d,
		Pos:    HookPosFinish,
		Item: FinishEvent{
			Step:   d.step,
			Time:   d.engine.CurrentTime(),
			Reason: reason,
		},
	})

	slog.Info("simulation stopped",
		"driver", d.Name(),
		"step", d.step,
		"reason", reason.String(),
		"evaluations", d.stats.Evaluations,
	)
}

// RegisterModel registers the model that the driver sequences.
func (d *driverImpl) RegisterModel(m model.Model) {
	d.model = m
}

// FeedIn sets the input samples of the model.
func (d *driverImpl) FeedIn(data model.InputGrid) {
	d.input = data
}

// Stats returns the progress of the run.
func (d *driverImpl) Stats() RunStats {
	stats := d.stats
	if stats.Reason == StopNone {
		stats.Step = d.step
	}

	return stats
}

func (d *driverImpl) initModel() {
	d.clock = model.Low
	d.reset = model.Low
	d.step = 0
	d.stats = RunStats{}
	d.err = nil

	d.model.SetClock(d.clock)
	d.model.SetReset(d.reset)
	d.model.SetInput(d.input)
}

// Run runs the model to completion.
func (d *driverImpl) Run() error {
	if d.model == nil {
		panic("no model is registered to the driver")
	}

	d.initModel()

	slog.Info("simulation started",
		"driver", d.Name(),
		"reset_hold", d.spec.ResetHoldSteps,
		"report_step", d.spec.ReportStep,
		"max_step", d.spec.MaxStep,
	)

	d.TickNow()
	runErr := d.engine.Run()

	d.model.Finalize()
	d.model = nil

	if runErr != nil {
		return fmt.Errorf("engine stopped at step %d: %w", d.step, runErr)
	}

	return d.err
}
