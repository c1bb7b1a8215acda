package conv

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sarchlab/convsim/model"
)

// trace logs a unit event at model.LevelTrace.
func trace(msg string, args ...any) {
	model.Trace(msg, args...)
}

// PrintState dumps the sequencer registers and the output grid.
func PrintState(name string, state *unitState) {
	if !model.PrintToggle {
		return
	}

	fmt.Println(renderState(name, state))
	fmt.Println()
}

// renderState renders the sequencer registers and the output grid as tables.
func renderState(name string, state *unitState) string {
	regTable := table.NewWriter()
	regTable.SetTitle(fmt.Sprintf("%s registers", name))
	regTable.AppendHeader(table.Row{"Phase", "Conv", "I", "J", "KI", "KJ", "Sum", "Cycles"})
	regTable.AppendRow(table.Row{
		state.Phase.String(),
		state.Conv, state.I, state.J, state.KI, state.KJ,
		state.Sum, state.Cycles,
	})

	outTable := table.NewWriter()
	outTable.SetTitle(fmt.Sprintf("%s output_data", name))

	header := table.Row{"Row/Col"}
	for k := 0; k < model.Depth; k++ {
		header = append(header, fmt.Sprintf("Ch%d", k))
	}
	outTable.AppendHeader(header)

	for i := 0; i < model.Rows; i++ {
		for j := 0; j < model.Cols; j++ {
			row := table.Row{fmt.Sprintf("(%d,%d)", i, j)}
			for k := 0; k < model.Depth; k++ {
				row = append(row, state.Output[i][j][k])
			}
			outTable.AppendRow(row)
		}
	}

	return regTable.Render() + "\n" + outTable.Render()
}
