package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/lms/internal/cli"
	"github.com/example/lms/internal/version"
	"github.com/example/lms/internal/wire"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "lms",
		Short:   "lms - schema migration and cleanup for the e-learning data tree",
		Version: version.String(),
		Long: `lms rewrites the historical layouts of the e-learning data tree into the
canonical layout under a single root, cleans up legacy shapes, and provides
the record services (users, courses, enrollments, progress, feedback) that
keep the canonical tree consistent.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("as", "", "Act as this user ID (or email)")

	rootCmd.AddCommand(cli.InitCmd())

	// Maintenance
	rootCmd.AddCommand(cli.MigrateCmd())
	rootCmd.AddCommand(cli.CleanupCmd())
	rootCmd.AddCommand(cli.RunsCmd())
	rootCmd.AddCommand(cli.ValidateCmd())
	rootCmd.AddCommand(cli.StandardizeCmd())
	rootCmd.AddCommand(cli.TreeCmd())

	// Entity commands
	rootCmd.AddCommand(cli.UserCmd())
	rootCmd.AddCommand(cli.CourseCmd())
	rootCmd.AddCommand(cli.ModuleCmd())
	rootCmd.AddCommand(cli.EvaluationCmd())
	rootCmd.AddCommand(cli.EnrollmentCmd())
	rootCmd.AddCommand(cli.ProgressCmd())
	rootCmd.AddCommand(cli.FeedbackCmd())

	// Developer tools
	rootCmd.AddCommand(cli.DevCmd())

	err := rootCmd.Execute()
	if cerr := wire.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		if !cli.Reported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
