package api

import (
	"os"

	"github.com/sarchlab/akita/v4/sim"
)

// DriverBuilder creates a new instance of Driver.
type DriverBuilder struct {
	engine   sim.Engine
	freq     sim.Freq
	spec     Spec
	reporter OutputReporter
}

// WithEngine sets the engine.
func (b DriverBuilder) WithEngine(engine sim.Engine) DriverBuilder {
	b.engine = engine
	return b
}

// WithFreq sets the step frequency of the driver. Each step is half of a
// clock period of the model.
func (b DriverBuilder) WithFreq(freq sim.Freq) DriverBuilder {
	b.freq = freq
	return b
}

// WithSpec sets the sequencing parameters.
func (b DriverBuilder) WithSpec(spec Spec) DriverBuilder {
	b.spec = spec
	return b
}

// WithReporter sets where the sampled outputs go. Defaults to a
// TextReporter on the standard output.
func (b DriverBuilder) WithReporter(r OutputReporter) DriverBuilder {
	b.reporter = r
	return b
}

// Build create a driver.
func (b DriverBuilder) Build(name string) Driver {
	if b.engine == nil {
		panic("engine is required to build a driver")
	}

	if b.freq == 0 {
		b.freq = 1 * sim.GHz
	}

	if b.spec == (Spec{}) {
		b.spec = DefaultSpec()
	}

	if err := b.spec.validate(); err != nil {
		panic(err)
	}

	if b.reporter == nil {
		b.reporter = NewTextReporter(os.Stdout)
	}

	d := &driverImpl{
		engine:   b.engine,
		spec:     b.spec,
		reporter: b.reporter,
		input:    IndexFill(),
	}

	d.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, d)

	return d
}
