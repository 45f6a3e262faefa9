package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete a learner's progress, quiz attempts, feedback and certificates",
	Long:  "Delete all state recorded for the learner. Imported modules are kept.",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		learner := e.cfg.Learner
		if !yes {
			return fmt.Errorf("this deletes all data for learner %q; re-run with --yes to confirm", learner)
		}
		if err := e.store.Reset(cmd.Context(), learner); err != nil {
			return err
		}
		e.log.Info("learner reset", "learner_id", learner)
		fmt.Fprintf(cmd.OutOrStdout(), "Reset learner %q.\n", learner)
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm the reset")
}
