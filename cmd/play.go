package cmd

import (
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Open the module player",
	Long:  "Open the terminal module player. This is also what running stepwise without a command does.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}
