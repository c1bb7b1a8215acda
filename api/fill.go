package api

import (
	"github.com/sarchlab/convsim/model"
	valgen "github.com/sarchlab/convsim/util"
)

// FillGrid fills an input grid in row-major order with the values yielded by
// gen. Values are truncated to 8 bits.
func FillGrid(gen func() int) model.InputGrid {
	var grid model.InputGrid

	for i := 0; i < model.Rows; i++ {
		for j := 0; j < model.Cols; j++ {
			for k := 0; k < model.Depth; k++ {
				grid[i][j][k] = uint8(gen())
			}
		}
	}

	return grid
}

// IndexFill returns the default stimulus, input[i][j][k] = i*3 + j*3 + k + 1.
func IndexFill() model.InputGrid {
	return FillGrid(valgen.MakeIndexGen(model.Rows, model.Cols, model.Depth))
}
