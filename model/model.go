// Package model defines the commonly used data structure for hardware models
// that a simulation driver can sequence.
package model

import "fmt"

// Extents of the signal grids exposed by a convolution unit.
const (
	Rows  = 3
	Cols  = 3
	Depth = 3

	// GridSize is the number of samples in one grid.
	GridSize = Rows * Cols * Depth
)

// Bit is a single-bit signal value. Only 0 and 1 are meaningful.
type Bit uint8

const (
	Low  Bit = 0
	High Bit = 1
)

// Not returns the inverted bit.
func (b Bit) Not() Bit {
	if b == Low {
		return High
	}

	return Low
}

// String returns the single character representation of the bit.
func (b Bit) String() string {
	switch b {
	case Low:
		return "0"
	case High:
		return "1"
	default:
		panic(fmt.Sprintf("invalid bit value %d", uint8(b)))
	}
}

// InputGrid holds the 8-bit input samples, indexed [row][col][depth].
type InputGrid [Rows][Cols][Depth]uint8

// OutputGrid holds the 16-bit output values, indexed [row][col][depth].
type OutputGrid [Rows][Cols][Depth]uint16

// Flatten returns the samples in row-major order.
func (g InputGrid) Flatten() []uint8 {
	flat := make([]uint8, 0, GridSize)
	for i := 0; i < Rows; i++ {
		for j := 0; j < Cols; j++ {
			flat = append(flat, g[i][j][:]...)
		}
	}

	return flat
}

// Flatten returns the values in row-major order.
func (g OutputGrid) Flatten() []uint16 {
	flat := make([]uint16, 0, GridSize)
	for i := 0; i < Rows; i++ {
		for j := 0; j < Cols; j++ {
			flat = append(flat, g[i][j][:]...)
		}
	}

	return flat
}

// A Model is a stateful hardware model. Inputs written through the setters
// only take effect on outputs after Evaluate is called.
type Model interface {
	SetClock(v Bit)
	Clock() Bit

	// SetReset drives the active-low reset input.
	SetReset(v Bit)
	Reset() Bit

	SetInput(data InputGrid)
	Input() InputGrid
	Output() OutputGrid

	// Evaluate recomputes the outputs from the current inputs and the
	// internal state.
	Evaluate()

	// Finalize runs the end-of-simulation blocks. It is called exactly once.
	Finalize()

	// Finished reports whether the model requested the end of the
	// simulation.
	Finished() bool
}
