// Package dummy provides lightweight stand-in models. They replace the
// convolution unit when only the sequencing of the driver is under test.
package dummy

import (
	"runtime/debug"

	"github.com/sarchlab/convsim/model"
)

// pins holds the port values shared by all the stand-ins.
type pins struct {
	clock  model.Bit
	reset  model.Bit
	input  model.InputGrid
	output model.OutputGrid

	finalized bool
}

func (p *pins) SetClock(v model.Bit)          { p.clock = v }
func (p *pins) Clock() model.Bit              { return p.clock }
func (p *pins) SetReset(v model.Bit)          { p.reset = v }
func (p *pins) Reset() model.Bit              { return p.reset }
func (p *pins) SetInput(data model.InputGrid) { p.input = data }
func (p *pins) Input() model.InputGrid        { return p.input }
func (p *pins) Output() model.OutputGrid      { return p.output }

// Finalized reports whether Finalize has been called.
func (p *pins) Finalized() bool { return p.finalized }

func (p *pins) finalize() {
	if p.finalized {
		debug.PrintStack()
		panic("FATAL: Finalize() is called twice, please check your code.")
	}

	p.finalized = true
}

// Echo copies every input sample to the output with the same index each time
// it is evaluated.
type Echo struct {
	pins

	Evaluations int
}

// NewEcho creates an Echo model.
func NewEcho() *Echo {
	return &Echo{}
}

// Evaluate copies the inputs to the outputs.
func (e *Echo) Evaluate() {
	for i := 0; i < model.Rows; i++ {
		for j := 0; j < model.Cols; j++ {
			for k := 0; k < model.Depth; k++ {
				e.output[i][j][k] = uint16(e.input[i][j][k])
			}
		}
	}

	e.Evaluations++
}

func (e *Echo) Finalize()      { e.finalize() }
func (e *Echo) Finished() bool { return false }

// Finished is a model that requests the end of the simulation from the very
// beginning. Its outputs stay zero.
type Finished struct {
	pins

	Evaluations int
}

// NewFinished creates a Finished model.
func NewFinished() *Finished {
	return &Finished{}
}

func (f *Finished) Evaluate()      { f.Evaluations++ }
func (f *Finished) Finalize()      { f.finalize() }
func (f *Finished) Finished() bool { return true }

var (
	_ model.Model = (*Echo)(nil)
	_ model.Model = (*Finished)(nil)
)
