package conv

// Builder can create new convolution units.
type Builder struct {
	weights      Weights
	finishOnDone bool
}

// NewBuilder creates a builder with the default weights.
func NewBuilder() Builder {
	return Builder{
		weights: DefaultWeights(),
	}
}

// WithWeights sets the kernels and biases of the unit.
func (b Builder) WithWeights(w Weights) Builder {
	b.weights = w
	return b
}

// WithFinishOnDone makes the unit request the end of the simulation once
// every output has been written.
func (b Builder) WithFinishOnDone(finish bool) Builder {
	b.finishOnDone = finish
	return b
}

// Build creates a unit.
func (b Builder) Build(name string) *Unit {
	u := &Unit{
		name:         name,
		weights:      b.weights,
		finishOnDone: b.finishOnDone,
	}
	u.seq = sequencer{weights: &u.weights}

	return u
}
