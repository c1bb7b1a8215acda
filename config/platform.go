package config

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sarchlab/akita/v4/monitoring"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/convsim/api"
	"github.com/sarchlab/convsim/conv"
	"github.com/sarchlab/convsim/dummy"
	"github.com/sarchlab/convsim/model"
	"github.com/sarchlab/convsim/wave"
)

// Platform is a driver wired to a model, ready to run.
type Platform struct {
	Engine   sim.Engine
	Driver   api.Driver
	Model    model.Model
	Recorder *wave.Recorder
	Monitor  *monitoring.Monitor
}

// Run runs the driver and closes the waveform writers.
func (p *Platform) Run() error {
	err := p.Driver.Run()

	if cerr := p.Recorder.Close(); cerr != nil && err == nil {
		err = errors.Wrap(cerr, "close waveform")
	}

	return err
}

// PlatformBuilder can build platforms.
type PlatformBuilder struct {
	ctx     context.Context
	cfg     Config
	out     io.Writer
	writers []wave.Writer
}

// MakePlatformBuilder creates a builder with the default configuration
// reporting to the standard output.
func MakePlatformBuilder() PlatformBuilder {
	return PlatformBuilder{
		ctx: context.Background(),
		cfg: Default(),
		out: os.Stdout,
	}
}

// WithContext sets the context used by the waveform database.
func (b PlatformBuilder) WithContext(ctx context.Context) PlatformBuilder {
	b.ctx = ctx
	return b
}

// WithConfig sets the configuration.
func (b PlatformBuilder) WithConfig(cfg Config) PlatformBuilder {
	b.cfg = cfg
	return b
}

// WithOutput sets where the report is written.
func (b PlatformBuilder) WithOutput(w io.Writer) PlatformBuilder {
	b.out = w
	return b
}

// WithWaveWriter adds a waveform writer on top of the configured ones.
func (b PlatformBuilder) WithWaveWriter(w wave.Writer) PlatformBuilder {
	b.writers = append(append([]wave.Writer(nil), b.writers...), w)
	return b
}

// Build creates a platform.
func (b PlatformBuilder) Build(name string) (*Platform, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}

	m, err := b.buildModel(name)
	if err != nil {
		return nil, err
	}

	writers, err := b.buildWaveWriters()
	if err != nil {
		return nil, err
	}

	engine := sim.NewSerialEngine()

	driver := api.DriverBuilder{}.
		WithEngine(engine).
		WithFreq(b.cfg.Freq()).
		WithSpec(b.cfg.DriverSpec()).
		WithReporter(b.buildReporter()).
		Build(name + ".Driver")

	driver.FeedIn(b.cfg.InputFill())
	driver.RegisterModel(m)

	recorder := wave.NewRecorder(writers...)
	driver.AcceptHook(recorder)

	p := &Platform{
		Engine:   engine,
		Driver:   driver,
		Model:    m,
		Recorder: recorder,
	}

	if b.cfg.Monitor.Enable {
		p.Monitor = b.startMonitor(engine, driver)
	}

	return p, nil
}

func (b PlatformBuilder) buildModel(name string) (model.Model, error) {
	switch b.cfg.Model.Kind {
	case "echo":
		return dummy.NewEcho(), nil
	default:
		weights := conv.DefaultWeights()

		if b.cfg.Model.WeightsFile != "" {
			w, err := conv.LoadWeightsFile(b.cfg.Model.WeightsFile)
			if err != nil {
				return nil, err
			}
			weights = w
		}

		return conv.NewBuilder().
			WithWeights(weights).
			WithFinishOnDone(b.cfg.Model.FinishOnDone).
			Build(name + ".Conv2D"), nil
	}
}

func (b PlatformBuilder) buildReporter() api.OutputReporter {
	if b.cfg.Report.Format == "table" {
		return api.NewTableReporter(b.out)
	}

	return api.NewTextReporter(b.out)
}

func (b PlatformBuilder) buildWaveWriters() ([]wave.Writer, error) {
	writers := append([]wave.Writer(nil), b.writers...)

	closeAll := func() {
		for _, w := range writers[len(b.writers):] {
			_ = w.Close()
		}
	}

	if b.cfg.Trace.VCD != "" {
		vcd, err := wave.CreateVCDFile(b.cfg.Trace.VCD)
		if err != nil {
			closeAll()
			return nil, err
		}
		writers = append(writers, vcd)
	}

	if b.cfg.Trace.SQLite != "" {
		db, err := wave.OpenSQLite(b.ctx, b.cfg.Trace.SQLite)
		if err != nil {
			closeAll()
			return nil, err
		}
		writers = append(writers, db)
	}

	return writers, nil
}

func (b PlatformBuilder) startMonitor(
	engine sim.Engine,
	driver api.Driver,
) *monitoring.Monitor {
	m := monitoring.NewMonitor()

	if b.cfg.Monitor.Port != 0 {
		m = m.WithPortNumber(b.cfg.Monitor.Port)
	}

	m.RegisterEngine(engine)
	m.RegisterComponent(driver)
	m.StartServer()

	return m
}
