package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var attemptsCmd = &cobra.Command{
	Use:   "attempts [module-id]",
	Short: "List the learner's quiz attempts, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		moduleID := ""
		if len(args) == 1 {
			moduleID = args[0]
		}
		rows, err := e.store.AttemptRepo().List(cmd.Context(), e.cfg.Learner, moduleID, limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(rows) == 0 {
			fmt.Fprintln(out, "No quiz attempts found.")
			return nil
		}

		fmt.Fprintf(out, "%-16s  %-20s  %-20s  %3s  %7s  %4s  %-4s  %s\n",
			"Completed", "Module", "Section", "#", "Score", "%", "Pass", "Time")
		fmt.Fprintln(out, strings.Repeat("─", 100))
		for _, a := range rows {
			pass := "✗"
			if a.Passed {
				pass = "✓"
			}
			fmt.Fprintf(out, "%-16s  %-20s  %-20s  %3d  %3d/%-3d  %4d  %-4s  %d:%02d\n",
				a.CompletedAt.Local().Format("2006-01-02 15:04"),
				a.ModuleID, a.SectionID, a.AttemptNumber,
				a.Score, a.MaxScore, a.Percentage, pass,
				a.TimeTakenSeconds/60, a.TimeTakenSeconds%60)
		}
		fmt.Fprintf(out, "\n%d attempts\n", len(rows))
		return nil
	},
}

func init() {
	attemptsCmd.Flags().Int("limit", 20, "Maximum number of attempts to show (0 = all)")
}
