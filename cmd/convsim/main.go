// Command convsim runs the convolution unit testbench.
package main

import (
	"fmt"
	"os"

	"github.com/sarchlab/convsim/config"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "convsim",
	Short: "Testbench driver for the 3x3x3 convolution unit",
	Long: `Convsim clocks a convolution unit model through its reset and run
phases and prints the output grid sampled at the report step.
Without a configuration file the default testbench is run.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"YAML configuration of the run")
}

// loadConfig reads the configuration file, if any, and installs the logger.
func loadConfig() (config.Config, error) {
	cfg := config.Default()

	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return cfg, err
		}
	}

	closer, err := config.SetupLogging(cfg.Log)
	if err != nil {
		return cfg, err
	}

	atexit.Register(func() { closer.Close() })

	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
