package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/wnsched/config"
)

var defaultConfigCmd = &cobra.Command{
	Use:   "default-config",
	Short: "Print the default configuration as YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := config.Default().Marshal()
		if err != nil {
			return err
		}

		_, err = cmd.OutOrStdout().Write(data)

		return err
	},
}
