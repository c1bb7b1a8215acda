// Package verify checks a recorded run against the sequencing rules of the
// driver.
package verify

import (
	"bytes"
	"fmt"

	"github.com/sarchlab/convsim/api"
	"github.com/sarchlab/convsim/model"
	"github.com/sarchlab/convsim/wave"
)

// IssueType categorizes an issue.
type IssueType string

const (
	IssueStep        IssueType = "STEP"
	IssueClock       IssueType = "CLOCK"
	IssueReset       IssueType = "RESET"
	IssueReport      IssueType = "REPORT"
	IssueDeterminism IssueType = "DETERMINISM"
)

// Issue is one violation found in a run.
type Issue struct {
	Type    IssueType
	Step    uint64
	Message string
	Details map[string]interface{}
}

// CheckWaveform checks the recorded samples and snapshots of one run.
// finished tells whether the model requested the end of the run, in which
// case the run may stop before the ceiling and the report may be missing.
func CheckWaveform(
	samples []wave.Sample,
	snapshots []wave.Snapshot,
	spec api.Spec,
	finished bool,
) []Issue {
	var issues []Issue

	issues = append(issues, checkSteps(samples, spec, finished)...)
	issues = append(issues, checkClock(samples)...)
	issues = append(issues, checkReset(samples, spec)...)
	issues = append(issues, checkReport(samples, snapshots, spec, finished)...)

	return issues
}

func checkSteps(samples []wave.Sample, spec api.Spec, finished bool) []Issue {
	var issues []Issue

	for i, s := range samples {
		if s.Step != uint64(i) {
			issues = append(issues, Issue{
				Type:    IssueStep,
				Step:    s.Step,
				Message: fmt.Sprintf("sample %d holds step %d", i, s.Step),
				Details: map[string]interface{}{"index": i},
			})
			break
		}

		if s.Step > spec.LastStep() {
			issues = append(issues, Issue{
				Type: IssueStep,
				Step: s.Step,
				Message: fmt.Sprintf("step %d is past the last step %d",
					s.Step, spec.LastStep()),
			})
			break
		}
	}

	if !finished && uint64(len(samples)) != spec.LastStep()+1 {
		issues = append(issues, Issue{
			Type: IssueStep,
			Step: uint64(len(samples)),
			Message: fmt.Sprintf("run evaluated %d steps, want %d",
				len(samples), spec.LastStep()+1),
		})
	}

	return issues
}

func checkClock(samples []wave.Sample) []Issue {
	var issues []Issue

	if len(samples) > 0 && samples[0].Clock != model.High {
		issues = append(issues, Issue{
			Type:    IssueClock,
			Step:    samples[0].Step,
			Message: "clock does not toggle on the first step",
		})
	}

	for i := 1; i < len(samples); i++ {
		if samples[i].Clock == samples[i-1].Clock {
			issues = append(issues, Issue{
				Type:    IssueClock,
				Step:    samples[i].Step,
				Message: fmt.Sprintf("clock stays at %s", samples[i].Clock),
			})
		}
	}

	return issues
}

func checkReset(samples []wave.Sample, spec api.Spec) []Issue {
	var issues []Issue

	for _, s := range samples {
		want := model.Low
		if s.Step > spec.ResetHoldSteps {
			want = model.High
		}

		if s.Reset != want {
			issues = append(issues, Issue{
				Type: IssueReset,
				Step: s.Step,
				Message: fmt.Sprintf("reset is %s, want %s (hold %d)",
					s.Reset, want, spec.ResetHoldSteps),
			})
		}
	}

	return issues
}

func checkReport(
	samples []wave.Sample,
	snapshots []wave.Snapshot,
	spec api.Spec,
	finished bool,
) []Issue {
	var issues []Issue

	for _, s := range snapshots {
		if s.Step != spec.ReportStep {
			issues = append(issues, Issue{
				Type: IssueReport,
				Step: s.Step,
				Message: fmt.Sprintf("outputs reported at step %d, want %d",
					s.Step, spec.ReportStep),
			})
		}
	}

	reached := uint64(len(samples)) > spec.ReportStep

	switch {
	case len(snapshots) > 1:
		issues = append(issues, Issue{
			Type:    IssueReport,
			Step:    spec.ReportStep,
			Message: fmt.Sprintf("outputs reported %d times", len(snapshots)),
		})
	case len(snapshots) == 0 && (reached || !finished):
		issues = append(issues, Issue{
			Type:    IssueReport,
			Step:    spec.ReportStep,
			Message: "outputs never reported",
		})
	}

	return issues
}

// CheckDeterminism compares the console output of two runs.
func CheckDeterminism(first, second []byte) []Issue {
	if bytes.Equal(first, second) {
		return nil
	}

	offset := 0
	for offset < len(first) && offset < len(second) &&
		first[offset] == second[offset] {
		offset++
	}

	return []Issue{{
		Type:    IssueDeterminism,
		Message: fmt.Sprintf("outputs differ at byte %d", offset),
		Details: map[string]interface{}{
			"first_len":  len(first),
			"second_len": len(second),
		},
	}}
}
