package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		learner := e.cfg.Learner

		rows, err := e.store.ProgressRepo().ListByLearner(ctx, learner)
		if err != nil {
			return err
		}
		attempts, err := e.store.AttemptRepo().List(ctx, learner, "", 0)
		if err != nil {
			return err
		}

		var completed, sections int
		for _, r := range rows {
			if r.IsCompleted {
				completed++
			}
			sections += len(r.CompletedSections)
		}
		var passed, pctSum int
		for _, a := range attempts {
			if a.Passed {
				passed++
			}
			pctSum += a.Percentage
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Learner:             %s\n", learner)
		fmt.Fprintf(out, "Modules started:     %d\n", len(rows))
		fmt.Fprintf(out, "Modules completed:   %d\n", completed)
		fmt.Fprintf(out, "Sections completed:  %d\n", sections)
		fmt.Fprintf(out, "Quiz attempts:       %d\n", len(attempts))
		if len(attempts) > 0 {
			fmt.Fprintf(out, "Quizzes passed:      %d (%d%%)\n", passed, passed*100/len(attempts))
			fmt.Fprintf(out, "Average quiz score:  %d%%\n", pctSum/len(attempts))
		}
		return nil
	},
}
