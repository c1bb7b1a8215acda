package verify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sarchlab/convsim/api"
	"github.com/sarchlab/convsim/config"
	"github.com/sarchlab/convsim/wave"
)

// VerificationReport represents a complete verification report
type VerificationReport struct {
	Spec       api.Spec
	ModelKind  string
	Stats      api.RunStats
	NumSamples int
	Output     []byte

	WaveformIssues    []Issue
	DeterminismIssues []Issue
	RunErr            error
}

// GenerateReport runs the configured platform twice. The first run is
// checked against the sequencing rules, and both outputs are compared.
// Waveform files and the monitor only belong to the first run.
func GenerateReport(ctx context.Context, cfg config.Config) *VerificationReport {
	report := &VerificationReport{
		Spec:      cfg.DriverSpec(),
		ModelKind: cfg.Model.Kind,
	}

	mem := wave.NewMemoryWriter()
	first, stats, err := runOnce(ctx, cfg, mem)
	if err != nil {
		report.RunErr = err
		return report
	}

	report.Stats = stats
	report.NumSamples = len(mem.Samples)
	report.Output = first
	report.WaveformIssues = CheckWaveform(mem.Samples, mem.Snapshots,
		report.Spec, stats.Reason == api.StopModelFinished)

	second, _, err := runOnce(ctx, rerunConfig(cfg), wave.NewMemoryWriter())
	if err != nil {
		report.RunErr = err
		return report
	}

	report.DeterminismIssues = CheckDeterminism(first, second)

	return report
}

// rerunConfig drops the outputs of cfg that must not be produced twice.
func rerunConfig(cfg config.Config) config.Config {
	cfg.Trace = config.TraceConfig{}
	cfg.Monitor = config.MonitorConfig{}

	return cfg
}

func runOnce(
	ctx context.Context,
	cfg config.Config,
	mem *wave.MemoryWriter,
) ([]byte, api.RunStats, error) {
	out := new(bytes.Buffer)

	p, err := config.MakePlatformBuilder().
		WithContext(ctx).
		WithConfig(cfg).
		WithOutput(out).
		WithWaveWriter(mem).
		Build("Verify")
	if err != nil {
		return nil, api.RunStats{}, err
	}

	if err := p.Run(); err != nil {
		return nil, api.RunStats{}, err
	}

	return out.Bytes(), p.Driver.Stats(), nil
}

// Issues returns all the issues found.
func (r *VerificationReport) Issues() []Issue {
	issues := append([]Issue(nil), r.WaveformIssues...)
	return append(issues, r.DeterminismIssues...)
}

// Passed tells whether both runs completed without any issue.
func (r *VerificationReport) Passed() bool {
	return r.RunErr == nil && len(r.Issues()) == 0
}

// WriteReport writes a formatted report to a writer
func (r *VerificationReport) WriteReport(w io.Writer) {
	separator := strings.Repeat("=", 60)
	dash := strings.Repeat("-", 60)

	fmt.Fprintln(w, separator)
	fmt.Fprintln(w, "TESTBENCH VERIFICATION REPORT")
	fmt.Fprintln(w, separator)

	fmt.Fprintf(w, "\nModel: %s\n", r.ModelKind)
	fmt.Fprintf(w, "Reset hold: %d  Report step: %d  Max step: %d\n",
		r.Spec.ResetHoldSteps, r.Spec.ReportStep, r.Spec.MaxStep)

	if r.RunErr != nil {
		fmt.Fprintf(w, "\n⚠ Simulation error: %v\n\n", r.RunErr)
		return
	}

	fmt.Fprintf(w, "Stopped at step %d (%s) after %d evaluations, %d report(s)\n",
		r.Stats.Step, r.Stats.Reason, r.Stats.Evaluations, r.Stats.Reports)

	fmt.Fprintln(w, "\n"+separator)
	fmt.Fprintln(w, "STAGE 1: WAVEFORM CHECKS")
	fmt.Fprintln(w, separator)

	writeIssues(w, dash, r.NumSamples, r.WaveformIssues)

	fmt.Fprintln(w, "\n"+separator)
	fmt.Fprintln(w, "STAGE 2: DETERMINISM")
	fmt.Fprintln(w, separator)

	if len(r.DeterminismIssues) == 0 {
		fmt.Fprintf(w, "✓ Two runs printed the same %d bytes\n", len(r.Output))
	} else {
		for _, issue := range r.DeterminismIssues {
			fmt.Fprintf(w, "⚠ %s\n", issue.Message)
		}
	}

	fmt.Fprintln(w, "\n"+separator)
	fmt.Fprintln(w, "VERIFICATION SUMMARY")
	fmt.Fprintln(w, separator)

	if r.Passed() {
		fmt.Fprintln(w, "✓ RUN PASSED ALL CHECKS")
	} else {
		fmt.Fprintf(w, "⚠ %d issue(s) found\n", len(r.Issues()))
	}

	fmt.Fprintln(w)
}

func writeIssues(w io.Writer, dash string, numSamples int, issues []Issue) {
	if len(issues) == 0 {
		fmt.Fprintf(w, "✓ %d steps checked, no issues found!\n", numSamples)
		return
	}

	fmt.Fprintf(w, "⚠ Found %d issues:\n", len(issues))
	fmt.Fprintln(w, dash)

	for i, issue := range issues {
		fmt.Fprintf(w, "  Issue %d: [%s step=%d] %s\n",
			i+1, issue.Type, issue.Step, issue.Message)
	}
}

// SaveReportToFile saves the report to a file
func (r *VerificationReport) SaveReportToFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	r.WriteReport(file)

	return nil
}
