package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/stepwise/internal/content"
	"github.com/abhisek/stepwise/internal/player"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "Manage learning modules",
}

var modulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List imported modules and modules in the content directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		mods, err := player.ListModules(ctx, e.ps, content.NewDirSource(e.cfg.ContentDir))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(mods) == 0 {
			fmt.Fprintln(out, "No modules found.")
			return nil
		}

		fmt.Fprintf(out, "%-24s  %-36s  %5s  %8s  %s\n", "ID", "Title", "Pages", "Sections", "Progress")
		fmt.Fprintln(out, strings.Repeat("─", 90))
		for _, m := range mods {
			title := m.Title
			if len(title) > 36 {
				title = title[:33] + "..."
			}
			status := "-"
			rec, err := e.ps.LoadProgress(ctx, e.cfg.Learner, m.ID)
			if err != nil {
				return err
			}
			if rec != nil {
				status = fmt.Sprintf("%d%%", rec.CompletionPercentage)
				if rec.IsCompleted {
					status = "completed"
				}
			}
			fmt.Fprintf(out, "%-24s  %-36s  %5d  %8d  %s\n",
				m.ID, title, len(m.Pages), content.TotalSections(m), status)
		}
		fmt.Fprintf(out, "\n%d modules\n", len(mods))
		return nil
	},
}

var modulesImportCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Validate module files and store them in the database",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		for _, path := range args {
			format, ok := content.FormatOf(path)
			if !ok {
				return fmt.Errorf("import %s: unsupported file extension", path)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}
			m, err := e.ps.ImportModule(cmd.Context(), data, format, path)
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}
			e.log.Info("module imported", "module_id", m.ID, "source", path)
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s (%s): %d pages, %d sections\n",
				m.ID, m.Title, len(m.Pages), content.TotalSections(m))
		}
		return nil
	},
}

var modulesValidateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check module files without importing them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var failed int
		for _, path := range args {
			m, err := content.ReadFile(path)
			if err != nil {
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "✗ %v\n", err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: module %q\n", path, m.ID)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files invalid", failed, len(args))
		}
		return nil
	},
}

var modulesRemoveCmd = &cobra.Command{
	Use:   "remove <module-id>",
	Short: "Delete an imported module. Learner progress is kept.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.store.ModuleRepo().Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
		return nil
	},
}

func init() {
	modulesCmd.AddCommand(modulesListCmd)
	modulesCmd.AddCommand(modulesImportCmd)
	modulesCmd.AddCommand(modulesValidateCmd)
	modulesCmd.AddCommand(modulesRemoveCmd)
}
