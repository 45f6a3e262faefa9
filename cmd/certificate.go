package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/stepwise/internal/certificate"
	"github.com/abhisek/stepwise/internal/feedback"
)

var certificateCmd = &cobra.Command{
	Use:   "certificate",
	Short: "Module feedback and completion certificates",
}

var certificateStatusCmd = &cobra.Command{
	Use:   "status <module-id>",
	Short: "Show certificate eligibility for a module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		st, err := certificate.New(e.store, e.log).Status(cmd.Context(), e.cfg.Learner, args[0])
		if err != nil {
			return err
		}
		printCertificate(cmd, st)
		return nil
	},
}

var certificateRateCmd = &cobra.Command{
	Use:   "rate <module-id>",
	Short: "Submit end-of-module feedback",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rating, _ := cmd.Flags().GetInt("rating")
		difficulty, _ := cmd.Flags().GetInt("difficulty")
		text, _ := cmd.Flags().GetString("text")
		suggestions, _ := cmd.Flags().GetString("suggestions")

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		err = certificate.New(e.store, e.log).SubmitFeedback(cmd.Context(), feedback.ModuleFeedback{
			LearnerID:   e.cfg.Learner,
			ModuleID:    args[0],
			Rating:      rating,
			Difficulty:  difficulty,
			Text:        text,
			Suggestions: suggestions,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Feedback saved for %s.\n", args[0])
		return nil
	},
}

var certificateIssueCmd = &cobra.Command{
	Use:   "issue <module-id>",
	Short: "Issue the completion certificate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		st, err := certificate.New(e.store, e.log).Issue(cmd.Context(), e.cfg.Learner, args[0])
		switch {
		case errors.Is(err, certificate.ErrNotCompleted):
			return fmt.Errorf("finish module %s before issuing its certificate", args[0])
		case errors.Is(err, certificate.ErrFeedbackRequired):
			return fmt.Errorf("rate module %s first: stepwise certificate rate %s --rating 1..5", args[0], args[0])
		case err != nil:
			return err
		}
		printCertificate(cmd, st)
		return nil
	},
}

func printCertificate(cmd *cobra.Command, st certificate.Status) {
	out := cmd.OutOrStdout()
	yesNo := func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	}
	fmt.Fprintf(out, "Learner:    %s\n", st.LearnerID)
	fmt.Fprintf(out, "Module:     %s\n", st.ModuleID)
	fmt.Fprintf(out, "Completed:  %s\n", yesNo(st.Completed))
	fmt.Fprintf(out, "Feedback:   %s", yesNo(st.FeedbackGiven))
	if st.FeedbackGiven {
		fmt.Fprintf(out, " (rated %d/5)", st.Rating)
	}
	fmt.Fprintln(out)
	if st.Issued {
		fmt.Fprintf(out, "Issued:     %s\n", st.IssuedAt.Local().Format("2006-01-02"))
		fmt.Fprintf(out, "ID:         %s\n", st.CertificateID)
	} else {
		fmt.Fprintf(out, "Issued:     no (eligible: %s)\n", yesNo(st.Eligible()))
	}
}

func init() {
	certificateRateCmd.Flags().Int("rating", 0, "Overall rating 1..5 (required)")
	certificateRateCmd.Flags().Int("difficulty", 0, "Difficulty 1..5")
	certificateRateCmd.Flags().String("text", "", "Free-text feedback")
	certificateRateCmd.Flags().String("suggestions", "", "Suggestions for improvement")
	_ = certificateRateCmd.MarkFlagRequired("rating")

	certificateCmd.AddCommand(certificateStatusCmd)
	certificateCmd.AddCommand(certificateRateCmd)
	certificateCmd.AddCommand(certificateIssueCmd)
}
