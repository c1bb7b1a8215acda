package conv

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sarchlab/convsim/model"
	"gopkg.in/yaml.v3"
)

// KernelSize is the side of the square convolution window.
const KernelSize = 3

// ErrWeightsShape is returned when a weights document does not describe a
// [Depth][Depth][KernelSize][KernelSize] kernel set.
var ErrWeightsShape = errors.New("weights have the wrong shape")

// Weights holds one kernel per (output channel, input channel) pair and one
// bias per output channel.
type Weights struct {
	Kernels [model.Depth][model.Depth][KernelSize][KernelSize]int8
	Biases  [model.Depth]int32
}

// DefaultWeights returns the built-in kernel set. Output channel 0 passes
// input channel 0 through, channel 1 is a box sum over input channel 1 and
// channel 2 is a laplacian over input channel 2.
func DefaultWeights() Weights {
	var w Weights

	w.Kernels[0][0][1][1] = 1

	for ki := 0; ki < KernelSize; ki++ {
		for kj := 0; kj < KernelSize; kj++ {
			w.Kernels[1][1][ki][kj] = 1
			w.Kernels[2][2][ki][kj] = -1
		}
	}
	w.Kernels[2][2][1][1] = 8

	return w
}

type weightsDocument struct {
	Weights [][][][]int `yaml:"weights"`
	Biases  []int32     `yaml:"biases"`
}

// ParseWeights decodes a YAML weights document.
//
//	weights: [out][in][ki][kj] signed 8-bit values
//	biases:  [out] signed 32-bit values, optional
func ParseWeights(data []byte) (Weights, error) {
	var doc weightsDocument
	var w Weights

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return w, errors.Wrap(err, "decode weights")
	}

	if len(doc.Weights) != model.Depth {
		return w, errors.Wrapf(ErrWeightsShape,
			"%d output channels, want %d", len(doc.Weights), model.Depth)
	}

	for c, perOut := range doc.Weights {
		if len(perOut) != model.Depth {
			return w, errors.Wrapf(ErrWeightsShape,
				"output channel %d has %d input channels", c, len(perOut))
		}

		for d, kernel := range perOut {
			if err := fillKernel(&w.Kernels[c][d], kernel); err != nil {
				return w, errors.Wrapf(err, "kernel [%d][%d]", c, d)
			}
		}
	}

	switch len(doc.Biases) {
	case 0:
	case model.Depth:
		copy(w.Biases[:], doc.Biases)
	default:
		return w, errors.Wrapf(ErrWeightsShape,
			"%d biases, want %d", len(doc.Biases), model.Depth)
	}

	return w, nil
}

func fillKernel(dst *[KernelSize][KernelSize]int8, rows [][]int) error {
	if len(rows) != KernelSize {
		return errors.Wrapf(ErrWeightsShape, "%d rows", len(rows))
	}

	for ki, row := range rows {
		if len(row) != KernelSize {
			return errors.Wrapf(ErrWeightsShape, "row %d has %d taps", ki, len(row))
		}

		for kj, v := range row {
			if v < -128 || v > 127 {
				return errors.Errorf("tap [%d][%d] = %d does not fit in 8 bits",
					ki, kj, v)
			}
			dst[ki][kj] = int8(v)
		}
	}

	return nil
}

// LoadWeightsFile reads a YAML weights document from path.
func LoadWeightsFile(path string) (Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, errors.Wrap(err, "read weights file")
	}

	w, err := ParseWeights(data)
	if err != nil {
		return Weights{}, errors.Wrapf(err, "parse %s", path)
	}

	return w, nil
}
