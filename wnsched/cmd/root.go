// Package cmd provides the command-line interface of wnsched.
package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/wnsched/config"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "wnsched",
	Short: "Resource scheduler of a wireless cell",
	Long: `wnsched schedules the downlink and uplink of a base station and its ` +
		`users frame by frame, with ARQ on every connection.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"YAML configuration file; defaults are used if empty")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (trace, debug, info, warn, error), overrides the config")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(defaultConfigCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configuration and sets the log level.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}

	if logLevel != "" {
		cfg.Output.LogLevel = logLevel
		if err := cfg.Validate(); err != nil {
			return cfg, err
		}
	}

	logrus.SetLevel(cfg.LogLevel())

	return cfg, nil
}
