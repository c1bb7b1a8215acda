package main

import (
	"context"

	"github.com/sarchlab/convsim/config"
	"github.com/spf13/cobra"
)

var (
	vcdFile   string
	dbFile    string
	showTable bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the testbench once",
	Long: `Run clocks the configured model until the step ceiling is passed or
the model asks to stop, and prints the sampled outputs.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if vcdFile != "" {
			cfg.Trace.VCD = vcdFile
		}
		if dbFile != "" {
			cfg.Trace.SQLite = dbFile
		}
		if showTable {
			cfg.Report.Format = "table"
		}

		p, err := config.MakePlatformBuilder().
			WithContext(context.Background()).
			WithConfig(cfg).
			WithOutput(cmd.OutOrStdout()).
			Build("TB")
		if err != nil {
			return err
		}

		return p.Run()
	},
}

func init() {
	runCmd.Flags().StringVar(&vcdFile, "vcd", "", "write the waveform to a VCD file")
	runCmd.Flags().StringVar(&dbFile, "db", "", "write the waveform to a SQLite database")
	runCmd.Flags().BoolVar(&showTable, "table", false, "print the outputs as a table")

	rootCmd.AddCommand(runCmd)
}
