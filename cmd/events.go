package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/stepwise/internal/store"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect the learner's event log",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded events (completions, feedback prompts, write failures)",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		kind, _ := cmd.Flags().GetString("kind")
		module, _ := cmd.Flags().GetString("module")

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		events, err := e.store.EventRepo().Query(cmd.Context(), store.QueryOpts{
			Limit:     limit,
			LearnerID: e.cfg.Learner,
			ModuleID:  module,
		})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No events found.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-19s  %-18s  %-20s  %-20s  %s\n",
			"Seq", "Timestamp", "Kind", "Module", "Section", "Detail")
		fmt.Fprintln(out, strings.Repeat("─", 100))

		shown := 0
		for _, ev := range events {
			if kind != "" && ev.Kind != kind {
				continue
			}
			detail := ev.Detail
			if ev.Error != "" {
				detail = strings.TrimSpace(detail + " " + ev.Error)
			}
			if len(detail) > 40 {
				detail = detail[:37] + "..."
			}
			fmt.Fprintf(out, "%-5d  %-19s  %-18s  %-20s  %-20s  %s\n",
				ev.Sequence, ev.Timestamp.Local().Format("2006-01-02 15:04:05"),
				ev.Kind, ev.ModuleID, ev.SectionID, detail)
			shown++
		}
		fmt.Fprintf(out, "\n%d events\n", shown)
		return nil
	},
}

func init() {
	eventsListCmd.Flags().Int("limit", 50, "Maximum number of events to fetch (0 = all)")
	eventsListCmd.Flags().String("kind", "", "Filter by kind (section_completed, module_completed, feedback_prompt, write_failed)")
	eventsListCmd.Flags().String("module", "", "Filter by module id")

	eventsCmd.AddCommand(eventsListCmd)
}
