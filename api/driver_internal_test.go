package api

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	gomock "github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/convsim/dummy"
	"github.com/sarchlab/convsim/model"
)

type eventRecorder struct {
	steps    []StepEvent
	reports  []ReportEvent
	finishes []FinishEvent
}

func (r *eventRecorder) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case HookPosStep:
		r.steps = append(r.steps, ctx.Item.(StepEvent))
	case HookPosReport:
		r.reports = append(r.reports, ctx.Item.(ReportEvent))
	case HookPosFinish:
		r.finishes = append(r.finishes, ctx.Item.(FinishEvent))
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func newTestDriver(out *bytes.Buffer, spec Spec) *driverImpl {
	engine := sim.NewSerialEngine()

	return DriverBuilder{}.
		WithEngine(engine).
		WithFreq(1 * sim.GHz).
		WithSpec(spec).
		WithReporter(NewTextReporter(out)).
		Build("Driver").(*driverImpl)
}

func expectedEchoReport(in model.InputGrid) string {
	var sb strings.Builder

	sb.WriteString("Output data:\n")
	for i := 0; i < model.Rows; i++ {
		for j := 0; j < model.Cols; j++ {
			for k := 0; k < model.Depth; k++ {
				fmt.Fprintf(&sb, "output_data[%d][%d][%d] = %d\n",
					i, j, k, in[i][j][k])
			}
		}
	}

	return sb.String()
}

var _ = Describe("Driver", func() {
	var (
		mockCtrl  *gomock.Controller
		mockModel *MockModel
		out       *bytes.Buffer
		driver    *driverImpl
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		mockModel = NewMockModel(mockCtrl)
		out = new(bytes.Buffer)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should sequence clock and reset in order", func() {
		driver = newTestDriver(out, Spec{
			ResetHoldSteps: 1,
			ReportStep:     2,
			MaxStep:        3,
		})

		var in model.InputGrid
		in[0][0][0] = 5
		driver.FeedIn(in)
		driver.RegisterModel(mockModel)

		var result model.OutputGrid
		result[0][0][0] = 77

		gomock.InOrder(
			mockModel.EXPECT().SetClock(model.Low),
			mockModel.EXPECT().SetReset(model.Low),
			mockModel.EXPECT().SetInput(in),

			mockModel.EXPECT().Finished().Return(false),
			mockModel.EXPECT().SetClock(model.High),
			mockModel.EXPECT().Evaluate(),

			mockModel.EXPECT().Finished().Return(false),
			mockModel.EXPECT().SetClock(model.Low),
			mockModel.EXPECT().Evaluate(),

			mockModel.EXPECT().Finished().Return(false),
			mockModel.EXPECT().SetClock(model.High),
			mockModel.EXPECT().SetReset(model.High),
			mockModel.EXPECT().Evaluate(),
			mockModel.EXPECT().Output().Return(result),

			mockModel.EXPECT().Finished().Return(false),
			mockModel.EXPECT().SetClock(model.Low),
			mockModel.EXPECT().SetReset(model.High),
			mockModel.EXPECT().Evaluate(),

			mockModel.EXPECT().Finished().Return(false),
			mockModel.EXPECT().SetClock(model.High),
			mockModel.EXPECT().SetReset(model.High),
			mockModel.EXPECT().Evaluate(),

			mockModel.EXPECT().Finalize(),
		)

		Expect(driver.Run()).To(Succeed())

		Expect(out.String()).To(HavePrefix("Output data:\noutput_data[0][0][0] = 77\n"))
		Expect(driver.Stats()).To(Equal(RunStats{
			Step:        4,
			Evaluations: 5,
			Reports:     1,
			Reason:      StopCeiling,
		}))
	})

	It("should stop without evaluating when the model is finished", func() {
		driver = newTestDriver(out, DefaultSpec())
		driver.RegisterModel(mockModel)

		mockModel.EXPECT().SetClock(model.Low)
		mockModel.EXPECT().SetReset(model.Low)
		mockModel.EXPECT().SetInput(gomock.Any())
		mockModel.EXPECT().Finished().Return(true)
		mockModel.EXPECT().Finalize()

		Expect(driver.Run()).To(Succeed())

		Expect(out.Len()).To(BeZero())
		Expect(driver.Stats().Step).To(BeZero())
		Expect(driver.Stats().Reason).To(Equal(StopModelFinished))
	})

	It("should stop when the model finishes in the middle of the run", func() {
		driver = newTestDriver(out, DefaultSpec())
		driver.RegisterModel(mockModel)

		finished := false
		evaluations := 0

		mockModel.EXPECT().SetClock(gomock.Any()).AnyTimes()
		mockModel.EXPECT().SetReset(gomock.Any()).AnyTimes()
		mockModel.EXPECT().SetInput(gomock.Any())
		mockModel.EXPECT().Finished().
			DoAndReturn(func() bool { return finished }).
			AnyTimes()
		mockModel.EXPECT().Evaluate().
			Do(func() {
				evaluations++
				if evaluations == 50 {
					finished = true
				}
			}).
			Times(50)
		mockModel.EXPECT().Finalize()

		Expect(driver.Run()).To(Succeed())

		Expect(out.Len()).To(BeZero())
		Expect(driver.Stats().Step).To(Equal(uint64(50)))
		Expect(driver.Stats().Reason).To(Equal(StopModelFinished))
	})

	Context("with the echo model", func() {
		var (
			echo     *dummy.Echo
			recorder *eventRecorder
		)

		BeforeEach(func() {
			driver = newTestDriver(out, DefaultSpec())
			echo = dummy.NewEcho()
			recorder = &eventRecorder{}

			driver.AcceptHook(recorder)
			driver.FeedIn(IndexFill())
			driver.RegisterModel(echo)

			Expect(driver.Run()).To(Succeed())
		})

		It("should report the fill values once at step 1000", func() {
			Expect(out.String()).To(Equal(expectedEchoReport(IndexFill())))
			Expect(recorder.reports).To(HaveLen(1))
			Expect(recorder.reports[0].Step).To(Equal(uint64(1000)))
		})

		It("should advance the step counter by one until the ceiling", func() {
			Expect(recorder.steps).To(HaveLen(2002))
			for i, s := range recorder.steps {
				Expect(s.Step).To(Equal(uint64(i)))
			}

			Expect(recorder.finishes).To(HaveLen(1))
			Expect(recorder.finishes[0].Step).To(Equal(uint64(2001)))
			Expect(recorder.finishes[0].Reason).To(Equal(StopCeiling))
			Expect(echo.Evaluations).To(Equal(2002))
		})

		It("should alternate the clock on every step", func() {
			Expect(recorder.steps[0].Clock).To(Equal(model.High))
			for i := 1; i < len(recorder.steps); i++ {
				Expect(recorder.steps[i].Clock).
					NotTo(Equal(recorder.steps[i-1].Clock))
				Expect(recorder.steps[i].Time).
					To(BeNumerically(">", recorder.steps[i-1].Time))
			}
		})

		It("should hold reset low for 20 steps and never lower it again", func() {
			for _, s := range recorder.steps {
				if s.Step <= 20 {
					Expect(s.Reset).To(Equal(model.Low))
				} else {
					Expect(s.Reset).To(Equal(model.High))
				}
			}
		})

		It("should finalize the model", func() {
			Expect(echo.Finalized()).To(BeTrue())
			Expect(driver.model).To(BeNil())
		})
	})

	It("should stop at step 0 with a model finished from the start", func() {
		driver = newTestDriver(out, DefaultSpec())
		stub := dummy.NewFinished()
		driver.RegisterModel(stub)

		Expect(driver.Run()).To(Succeed())

		Expect(out.Len()).To(BeZero())
		Expect(stub.Evaluations).To(BeZero())
		Expect(stub.Finalized()).To(BeTrue())
		Expect(driver.Stats().Step).To(BeNumerically("<=", 1))
	})

	It("should produce identical output on repeated runs", func() {
		first := new(bytes.Buffer)
		second := new(bytes.Buffer)

		for _, buf := range []*bytes.Buffer{first, second} {
			d := newTestDriver(buf, DefaultSpec())
			d.RegisterModel(dummy.NewEcho())
			Expect(d.Run()).To(Succeed())
		}

		Expect(first.Len()).NotTo(BeZero())
		Expect(first.Bytes()).To(Equal(second.Bytes()))
	})

	It("should return report errors after finalizing", func() {
		engine := sim.NewSerialEngine()
		d := DriverBuilder{}.
			WithEngine(engine).
			WithReporter(NewTextReporter(failingWriter{})).
			Build("Driver")
		echo := dummy.NewEcho()
		d.RegisterModel(echo)

		err := d.Run()

		Expect(err).To(MatchError(ContainSubstring("disk full")))
		Expect(echo.Finalized()).To(BeTrue())
		Expect(d.Stats().Reason).To(Equal(StopCeiling))
	})

	It("should panic when running without a model", func() {
		driver = newTestDriver(out, DefaultSpec())
		Expect(func() { _ = driver.Run() }).To(Panic())
	})
})

var _ = Describe("DriverBuilder", func() {
	It("should panic without an engine", func() {
		Expect(func() { DriverBuilder{}.Build("Driver") }).To(Panic())
	})

	It("should reject a report step that is never reached", func() {
		Expect(func() {
			DriverBuilder{}.
				WithEngine(sim.NewSerialEngine()).
				WithSpec(Spec{ResetHoldSteps: 1, ReportStep: 50, MaxStep: 10}).
				Build("Driver")
		}).To(Panic())
	})

	It("should use the default spec when none is given", func() {
		d := DriverBuilder{}.
			WithEngine(sim.NewSerialEngine()).
			Build("Driver").(*driverImpl)

		Expect(d.spec).To(Equal(DefaultSpec()))
		Expect(d.input).To(Equal(IndexFill()))
	})
})
