package api

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sarchlab/convsim/model"
)

// An OutputReporter emits the outputs sampled at the report step.
type OutputReporter interface {
	Report(step uint64, out model.OutputGrid) error
}

// TextReporter prints a header line followed by one line per output value,
// in row-major order.
type TextReporter struct {
	w io.Writer
}

// NewTextReporter creates a TextReporter that writes to w.
func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{w: w}
}

// Report writes the outputs.
func (r *TextReporter) Report(_ uint64, out model.OutputGrid) error {
	if _, err := fmt.Fprintln(r.w, "Output data:"); err != nil {
		return err
	}

	for i := 0; i < model.Rows; i++ {
		for j := 0; j < model.Cols; j++ {
			for k := 0; k < model.Depth; k++ {
				_, err := fmt.Fprintf(r.w, "output_data[%d][%d][%d] = %d\n",
					i, j, k, out[i][j][k])
				if err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// TableReporter renders the outputs as a table, one row per (row, col) pair
// and one column per depth.
type TableReporter struct {
	w io.Writer
}

// NewTableReporter creates a TableReporter that writes to w.
func NewTableReporter(w io.Writer) *TableReporter {
	return &TableReporter{w: w}
}

// Report writes the outputs.
func (r *TableReporter) Report(step uint64, out model.OutputGrid) error {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("Output data @ step %d", step))

	header := table.Row{"Position"}
	for k := 0; k < model.Depth; k++ {
		header = append(header, fmt.Sprintf("k=%d", k))
	}
	t.AppendHeader(header)

	for i := 0; i < model.Rows; i++ {
		for j := 0; j < model.Cols; j++ {
			row := table.Row{fmt.Sprintf("[%d][%d]", i, j)}
			for k := 0; k < model.Depth; k++ {
				row = append(row, out[i][j][k])
			}
			t.AppendRow(row)
		}
	}

	_, err := fmt.Fprintln(r.w, t.Render())

	return err
}
