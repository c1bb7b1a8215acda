// Package wave records the waveform that a driver applies to a model.
package wave

import (
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/convsim/api"
	"github.com/sarchlab/convsim/model"
)

// Sample is the value of the driven inputs at one step.
type Sample struct {
	Step  uint64
	Time  sim.VTimeInSec
	Clock model.Bit
	Reset model.Bit
}

// Snapshot is the value of the outputs at a report step.
type Snapshot struct {
	Step   uint64
	Time   sim.VTimeInSec
	Output model.OutputGrid
}

// A Writer persists samples and snapshots.
type Writer interface {
	WriteSample(s Sample) error
	WriteSnapshot(s Snapshot) error
	Close() error
}

// Recorder is a hook that forwards the driver steps and reports to writers.
// It stops writing after the first error, which is kept for Err.
type Recorder struct {
	writers []Writer
	err     error
}

// NewRecorder creates a recorder that writes to all the given writers.
func NewRecorder(writers ...Writer) *Recorder {
	return &Recorder{writers: writers}
}

// Func handles the driver hooks.
func (r *Recorder) Func(ctx sim.HookCtx) {
	if r.err != nil {
		return
	}

	switch ctx.Pos {
	case api.HookPosStep:
		ev := ctx.Item.(api.StepEvent)
		r.writeSample(Sample{
			Step:  ev.Step,
			Time:  ev.Time,
			Clock: ev.Clock,
			Reset: ev.Reset,
		})
	case api.HookPosReport:
		ev := ctx.Item.(api.ReportEvent)
		r.writeSnapshot(Snapshot{
			Step:   ev.Step,
			Time:   ev.Time,
			Output: ev.Output,
		})
	}
}

func (r *Recorder) writeSample(s Sample) {
	for _, w := range r.writers {
		if err := w.WriteSample(s); err != nil {
			r.err = err
			return
		}
	}
}

func (r *Recorder) writeSnapshot(s Snapshot) {
	for _, w := range r.writers {
		if err := w.WriteSnapshot(s); err != nil {
			r.err = err
			return
		}
	}
}

// Err returns the first write error.
func (r *Recorder) Err() error {
	return r.err
}

// Close closes all the writers. It returns the first write error, or the
// first close error if no write failed.
func (r *Recorder) Close() error {
	err := r.err

	for _, w := range r.writers {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}

	return err
}

// MemoryWriter keeps everything in memory.
type MemoryWriter struct {
	Samples   []Sample
	Snapshots []Snapshot
}

// NewMemoryWriter creates an empty MemoryWriter.
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{}
}

func (m *MemoryWriter) WriteSample(s Sample) error {
	m.Samples = append(m.Samples, s)
	return nil
}

func (m *MemoryWriter) WriteSnapshot(s Snapshot) error {
	m.Snapshots = append(m.Snapshots, s)
	return nil
}

func (m *MemoryWriter) Close() error { return nil }
