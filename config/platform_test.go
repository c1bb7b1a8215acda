package config_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/convsim/api"
	"github.com/sarchlab/convsim/config"
	"github.com/sarchlab/convsim/conv"
	"github.com/sarchlab/convsim/dummy"
	"github.com/sarchlab/convsim/wave"
)

var _ = Describe("Platform", func() {
	var out *bytes.Buffer

	BeforeEach(func() {
		out = new(bytes.Buffer)
	})

	It("should run the convolution unit with the default configuration", func() {
		p, err := config.MakePlatformBuilder().
			WithOutput(out).
			Build("TB")
		Expect(err).NotTo(HaveOccurred())

		unit, ok := p.Model.(*conv.Unit)
		Expect(ok).To(BeTrue())

		Expect(p.Run()).To(Succeed())

		lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
		Expect(lines).To(HaveLen(28))
		Expect(lines[0]).To(Equal("Output data:"))
		Expect(lines[1]).To(Equal("output_data[0][0][0] = 1"))
		Expect(unit.Phase()).To(Equal(conv.PhaseDone))
		Expect(p.Driver.Stats().Reason).To(Equal(api.StopCeiling))
	})

	It("should produce byte-identical output on two runs", func() {
		second := new(bytes.Buffer)

		for _, buf := range []*bytes.Buffer{out, second} {
			p, err := config.MakePlatformBuilder().WithOutput(buf).Build("TB")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Run()).To(Succeed())
		}

		Expect(out.Bytes()).To(Equal(second.Bytes()))
	})

	It("should echo the stimulus with the echo model", func() {
		cfg := config.Default()
		cfg.Model.Kind = "echo"

		p, err := config.MakePlatformBuilder().
			WithConfig(cfg).
			WithOutput(out).
			Build("TB")
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Model).To(BeAssignableToTypeOf(&dummy.Echo{}))

		Expect(p.Run()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("output_data[2][2][2] = 15\n"))
	})

	It("should stop early when the unit finishes", func() {
		cfg := config.Default()
		cfg.Model.FinishOnDone = true

		p, err := config.MakePlatformBuilder().
			WithConfig(cfg).
			WithOutput(out).
			Build("TB")
		Expect(err).NotTo(HaveOccurred())

		Expect(p.Run()).To(Succeed())
		Expect(out.Len()).To(BeZero())
		Expect(p.Driver.Stats().Reason).To(Equal(api.StopModelFinished))
		Expect(p.Driver.Stats().Step).To(BeNumerically("<", 1000))
	})

	It("should write the configured waveforms", func() {
		dir := GinkgoT().TempDir()
		cfg := config.Default()
		cfg.Trace.VCD = filepath.Join(dir, "run.vcd")
		cfg.Trace.SQLite = filepath.Join(dir, "run.db")
		mem := wave.NewMemoryWriter()

		p, err := config.MakePlatformBuilder().
			WithConfig(cfg).
			WithOutput(out).
			WithWaveWriter(mem).
			Build("TB")
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Run()).To(Succeed())

		vcd, err := os.ReadFile(cfg.Trace.VCD)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(vcd)).To(ContainSubstring("$enddefinitions $end"))

		samples, snapshots, err := wave.LoadSQLite(context.Background(), cfg.Trace.SQLite)
		Expect(err).NotTo(HaveOccurred())
		Expect(samples).To(Equal(mem.Samples))
		Expect(snapshots).To(HaveLen(1))
		Expect(snapshots[0].Output).To(Equal(mem.Snapshots[0].Output))
	})

	It("should render a table report", func() {
		cfg := config.Default()
		cfg.Report.Format = "table"

		p, err := config.MakePlatformBuilder().
			WithConfig(cfg).
			WithOutput(out).
			Build("TB")
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Run()).To(Succeed())

		Expect(out.String()).To(ContainSubstring("Output data @ step 1000"))
	})

	It("should fail on a missing weights file", func() {
		cfg := config.Default()
		cfg.Model.WeightsFile = filepath.Join(GinkgoT().TempDir(), "missing.yaml")

		_, err := config.MakePlatformBuilder().WithConfig(cfg).Build("TB")

		Expect(err).To(MatchError(ContainSubstring("read weights file")))
	})

	It("should refuse an invalid configuration", func() {
		cfg := config.Default()
		cfg.Model.Kind = "gpu"

		_, err := config.MakePlatformBuilder().WithConfig(cfg).Build("TB")

		Expect(err).To(HaveOccurred())
	})

	Context("with the logger installed from the configuration", func() {
		runCapturingStderr := func(cfg config.Config) string {
			prevLogger := slog.Default()
			prevStderr := os.Stderr
			DeferCleanup(func() {
				slog.SetDefault(prevLogger)
				os.Stderr = prevStderr
			})

			r, w, err := os.Pipe()
			Expect(err).NotTo(HaveOccurred())
			os.Stderr = w

			closer, err := config.SetupLogging(cfg.Log)
			Expect(err).NotTo(HaveOccurred())

			p, err := config.MakePlatformBuilder().
				WithConfig(cfg).
				WithOutput(out).
				Build("TB")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Run()).To(Succeed())

			Expect(closer.Close()).To(Succeed())
			os.Stderr = prevStderr
			Expect(w.Close()).To(Succeed())

			logs, err := io.ReadAll(r)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Close()).To(Succeed())

			return string(logs)
		}

		It("should keep stderr silent on the default run", func() {
			logs := runCapturingStderr(config.Default())

			Expect(logs).To(BeEmpty())
			Expect(out.String()).To(HavePrefix("Output data:\n"))
		})

		It("should write the unit events at trace level", func() {
			cfg := config.Default()
			cfg.Log.Level = "trace"

			logs := runCapturingStderr(cfg)

			Expect(logs).To(ContainSubstring("Behavior=Writeback"))
			Expect(logs).To(ContainSubstring("Behavior=ReleaseReset"))
		})
	})
})
