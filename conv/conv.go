// Package conv provides a behavioral model of a 2D convolution unit. The unit
// registers its sequencer on the rising edge of the clock and is reset
// asynchronously while the active-low reset input is low.
package conv

import (
	"fmt"

	"github.com/sarchlab/convsim/model"
)

// Unit is a 2D convolution unit with a 3x3 kernel over a 3x3x3 input.
type Unit struct {
	name string

	clock model.Bit
	reset model.Bit
	input model.InputGrid

	lastClock model.Bit
	weights   Weights
	seq       sequencer
	state     unitState

	finishOnDone bool
	finalized    bool
	evaluations  uint64
}

// Name returns the name of the unit.
func (u *Unit) Name() string {
	return u.name
}

func (u *Unit) SetClock(v model.Bit)          { u.clock = v }
func (u *Unit) Clock() model.Bit              { return u.clock }
func (u *Unit) SetReset(v model.Bit)          { u.reset = v }
func (u *Unit) Reset() model.Bit              { return u.reset }
func (u *Unit) SetInput(data model.InputGrid) { u.input = data }
func (u *Unit) Input() model.InputGrid        { return u.input }

// Output returns the output registers.
func (u *Unit) Output() model.OutputGrid {
	return u.state.Output
}

// Phase returns the current sequencer phase.
func (u *Unit) Phase() Phase {
	return u.state.Phase
}

// Cycles returns the number of rising edges seen since the last reset.
func (u *Unit) Cycles() uint64 {
	return u.state.Cycles
}

// Evaluate applies the current inputs.
func (u *Unit) Evaluate() {
	if u.finalized {
		panic(fmt.Sprintf("%s: Evaluate called after Finalize", u.name))
	}

	rising := u.clock == model.High && u.lastClock == model.Low
	u.lastClock = u.clock
	u.evaluations++

	if u.reset == model.Low {
		u.seq.reset(&u.state)
		return
	}

	if rising {
		u.seq.step(&u.state, &u.input)
		PrintState(u.name, &u.state)
	}
}

// Finalize ends the simulation of the unit.
func (u *Unit) Finalize() {
	if u.finalized {
		panic(fmt.Sprintf("%s: Finalize called twice", u.name))
	}

	u.finalized = true

	trace("Conv",
		"Behavior", "Final",
		"Unit", u.name,
		"Phase", u.state.Phase.String(),
		"Cycles", u.state.Cycles,
		"Evaluations", u.evaluations,
	)
}

// Finished reports whether the unit requested the end of the simulation.
func (u *Unit) Finished() bool {
	return u.finishOnDone && u.state.Phase == PhaseDone
}

var _ model.Model = (*Unit)(nil)
