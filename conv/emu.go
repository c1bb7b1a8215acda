package conv

import (
	"math"

	"github.com/sarchlab/convsim/model"
)

// Phase is the state of the convolution sequencer.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAccumulate
	PhaseWriteback
	PhaseDone
)

// String returns the name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseAccumulate:
		return "Accumulate"
	case PhaseWriteback:
		return "Writeback"
	case PhaseDone:
		return "Done"
	default:
		panic("invalid phase")
	}
}

// sumBits is the width of the accumulator.
const sumBits = 48

type unitState struct {
	Phase Phase

	Conv   int // output channel
	I, J   int
	KI, KJ int
	Sum    int64

	Output model.OutputGrid
	Cycles uint64
}

// sequencer advances the unit state by one rising clock edge.
type sequencer struct {
	weights *Weights
}

func (s sequencer) reset(state *unitState) {
	*state = unitState{}
}

func (s sequencer) step(state *unitState, in *model.InputGrid) {
	state.Cycles++

	switch state.Phase {
	case PhaseIdle:
		state.Phase = PhaseAccumulate
		state.Sum = 0
	case PhaseAccumulate:
		s.runAccumulate(state, in)
	case PhaseWriteback:
		s.runWriteback(state)
	case PhaseDone:
	}
}

func (s sequencer) runAccumulate(state *unitState, in *model.InputGrid) {
	row := state.I + state.KI - 1
	col := state.J + state.KJ - 1

	if row >= 0 && row < model.Rows && col >= 0 && col < model.Cols {
		for d := 0; d < model.Depth; d++ {
			tap := int64(s.weights.Kernels[state.Conv][d][state.KI][state.KJ])
			state.Sum += tap * int64(in[row][col][d])
		}
		state.Sum = wrap48(state.Sum)
	}

	state.KJ++
	if state.KJ < KernelSize {
		return
	}

	state.KJ = 0
	state.KI++
	if state.KI < KernelSize {
		return
	}

	state.KI = 0
	state.Phase = PhaseWriteback
}

func (s sequencer) runWriteback(state *unitState) {
	value := saturate16(state.Sum + int64(s.weights.Biases[state.Conv]))
	state.Output[state.I][state.J][state.Conv] = value

	trace("Conv",
		"Behavior", "Writeback",
		"Row", state.I,
		"Col", state.J,
		"Channel", state.Conv,
		"Sum", state.Sum,
		"Value", value,
		"Cycle", state.Cycles,
	)

	state.Sum = 0
	state.Phase = PhaseAccumulate

	state.J++
	if state.J < model.Cols {
		return
	}

	state.J = 0
	state.I++
	if state.I < model.Rows {
		return
	}

	state.I = 0
	state.Conv++
	if state.Conv < model.Depth {
		return
	}

	state.Conv = 0
	state.Phase = PhaseDone

	trace("Conv",
		"Behavior", "Done",
		"Cycle", state.Cycles,
	)
}

func wrap48(v int64) int64 {
	shift := 64 - sumBits
	return (v << shift) >> shift
}

func saturate16(v int64) uint16 {
	if v < 0 {
		return 0
	}

	if v > math.MaxUint16 {
		return math.MaxUint16
	}

	return uint16(v)
}
