package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/stepwise/internal/content"
	"github.com/abhisek/stepwise/internal/gating"
	"github.com/abhisek/stepwise/internal/player"
	"github.com/abhisek/stepwise/internal/progress"
)

var progressCmd = &cobra.Command{
	Use:   "progress [module-id]",
	Short: "Show the learner's progress on all modules or one module in detail",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		learner := e.cfg.Learner

		if len(args) == 0 {
			rows, err := e.store.ProgressRepo().ListByLearner(ctx, learner)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintf(out, "No progress recorded for %s.\n", learner)
				return nil
			}
			fmt.Fprintf(out, "%-24s  %5s  %4s  %-9s  %s\n", "Module", "Page", "%", "Status", "Updated")
			fmt.Fprintln(out, strings.Repeat("─", 70))
			for _, r := range rows {
				status := "active"
				if r.IsCompleted {
					status = "completed"
				}
				fmt.Fprintf(out, "%-24s  %5d  %4d  %-9s  %s\n",
					r.ModuleID, r.CurrentPageIndex+1, r.CompletionPercentage, status,
					r.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		}

		moduleID := args[0]
		m, err := player.Sources{e.ps, content.NewDirSource(e.cfg.ContentDir)}.LoadModule(ctx, moduleID)
		if err != nil {
			return err
		}
		stored, err := e.ps.LoadProgress(ctx, learner, moduleID)
		if err != nil {
			return err
		}
		rec := progress.New(learner, moduleID)
		if stored != nil {
			rec = *stored
		}
		printModuleProgress(cmd, m, rec)
		return nil
	},
}

func printModuleProgress(cmd *cobra.Command, m *content.Module, rec progress.Record) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s): %d%% complete", m.Title, m.ID, rec.CompletionPercentage)
	if rec.IsCompleted && rec.CompletedAt != nil {
		fmt.Fprintf(out, ", finished %s", rec.CompletedAt.Local().Format("2006-01-02"))
	}
	fmt.Fprintln(out)

	for _, ps := range gating.PageStatuses(m, rec) {
		marker := " "
		switch {
		case !ps.Unlocked:
			marker = "🔒"
		case ps.Done():
			marker = "✓"
		case ps.Index == rec.CurrentPageIndex:
			marker = "▸"
		}
		fmt.Fprintf(out, "\n%s Page %d (%d/%d)\n", marker, ps.Index+1, ps.Completed, ps.Total)
		for si, s := range m.Pages[ps.Index].Sections {
			st, err := gating.SectionStatus(m, rec, ps.Index, si)
			if err != nil {
				continue
			}
			fmt.Fprintf(out, "    %-10s %-14s %s\n", st, s.Type, s.DisplayTitle(si))
		}
	}
}
