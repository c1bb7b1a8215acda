package wave

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
	"github.com/sarchlab/convsim/model"
)

const (
	clockID = "!"
	resetID = "\""
)

// VCDWriter writes a value change dump. The clock and reset are dumped at
// every change; the output bus is dumped at every snapshot.
type VCDWriter struct {
	w      *bufio.Writer
	closer io.Closer

	headerDone bool
	lastTime   int64
	clock      model.Bit
	reset      model.Bit
	output     model.OutputGrid
	haveOutput bool
}

// NewVCDWriter creates a VCDWriter on w.
func NewVCDWriter(w io.Writer) *VCDWriter {
	return &VCDWriter{
		w:        bufio.NewWriter(w),
		lastTime: -1,
	}
}

// CreateVCDFile creates the file at path and returns a VCDWriter on it. The
// file is closed by Close.
func CreateVCDFile(path string) (*VCDWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "create vcd file")
	}

	v := NewVCDWriter(f)
	v.closer = f

	return v, nil
}

// outputID returns the identifier of output_data[i][j][k]. Identifiers are
// printable characters starting after the reset identifier.
func outputID(i, j, k int) string {
	n := (i*model.Cols+j)*model.Depth + k
	return string(rune('#' + n))
}

func (v *VCDWriter) writeHeader() error {
	fmt.Fprintln(v.w, "$version convsim $end")
	fmt.Fprintln(v.w, "$timescale 1ps $end")
	fmt.Fprintln(v.w, "$scope module TOP $end")
	fmt.Fprintf(v.w, "$var wire 1 %s clk $end\n", clockID)
	fmt.Fprintf(v.w, "$var wire 1 %s rst_n $end\n", resetID)

	for i := 0; i < model.Rows; i++ {
		for j := 0; j < model.Cols; j++ {
			for k := 0; k < model.Depth; k++ {
				fmt.Fprintf(v.w, "$var wire 16 %s output_data[%d][%d][%d] $end\n",
					outputID(i, j, k), i, j, k)
			}
		}
	}

	fmt.Fprintln(v.w, "$upscope $end")
	_, err := fmt.Fprintln(v.w, "$enddefinitions $end")

	v.headerDone = true

	return err
}

func picoseconds(t float64) int64 {
	return int64(math.Round(t * 1e12))
}

func (v *VCDWriter) advance(t int64) error {
	if !v.headerDone {
		if err := v.writeHeader(); err != nil {
			return err
		}
	}

	if t == v.lastTime {
		return nil
	}

	v.lastTime = t
	_, err := fmt.Fprintf(v.w, "#%d\n", t)

	return err
}

// WriteSample dumps the clock and reset if they changed.
func (v *VCDWriter) WriteSample(s Sample) error {
	first := v.lastTime < 0

	if err := v.advance(picoseconds(float64(s.Time))); err != nil {
		return err
	}

	if first || s.Clock != v.clock {
		fmt.Fprintf(v.w, "%s%s\n", s.Clock, clockID)
	}

	if first || s.Reset != v.reset {
		fmt.Fprintf(v.w, "%s%s\n", s.Reset, resetID)
	}

	v.clock = s.Clock
	v.reset = s.Reset

	return nil
}

// WriteSnapshot dumps the output values that changed since the last
// snapshot.
func (v *VCDWriter) WriteSnapshot(s Snapshot) error {
	if err := v.advance(picoseconds(float64(s.Time))); err != nil {
		return err
	}

	for i := 0; i < model.Rows; i++ {
		for j := 0; j < model.Cols; j++ {
			for k := 0; k < model.Depth; k++ {
				value := s.Output[i][j][k]
				if v.haveOutput && value == v.output[i][j][k] {
					continue
				}

				fmt.Fprintf(v.w, "b%b %s\n", value, outputID(i, j, k))
			}
		}
	}

	v.output = s.Output
	v.haveOutput = true

	return nil
}

// Close flushes the dump and closes the underlying file, if any.
func (v *VCDWriter) Close() error {
	err := v.w.Flush()

	if v.closer != nil {
		if cerr := v.closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}

	return errors.Wrap(err, "close vcd")
}
