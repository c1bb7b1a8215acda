package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sarchlab/convsim/verify"
	"github.com/spf13/cobra"
)

var reportFile string

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the sequencing and determinism of a run",
	Long: `Verify runs the configured testbench twice, checks the recorded
clock, reset and report against the driver rules, and compares the
outputs of both runs.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		report := verify.GenerateReport(context.Background(), cfg)
		report.WriteReport(cmd.OutOrStdout())

		if reportFile != "" {
			if err := report.SaveReportToFile(reportFile); err != nil {
				return err
			}
		}

		if report.RunErr != nil {
			return report.RunErr
		}

		if !report.Passed() {
			return errors.New("verification failed")
		}

		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVarP(&reportFile, "output", "o", "",
		"also save the report to this file")

	rootCmd.AddCommand(verifyCmd)
}
