package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stepwise",
	Short: "Terminal player for gated learning modules",
	Long:  "Stepwise plays learning modules page by page in the terminal: text, media, flashcards, questionnaires and scored quizzes, with progress saved locally.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides STEPWISE_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("learner", "", "Learner id (overrides STEPWISE_LEARNER and $USER)")
	rootCmd.PersistentFlags().String("content-dir", "", "Directory of module files (overrides STEPWISE_CONTENT_DIR)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(modulesCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(attemptsCmd)
	rootCmd.AddCommand(certificateCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}
