package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/lms/internal/wire"
)

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	var dryRun, reset bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Rewrite every legacy location into the canonical layout",
		Long: `Read every legacy location of the path table, standardize each record and
write it to its canonical path. Legacy locations are left in place; run
cleanup afterwards to remove them.

Repeated runs converge: a second run over the same data changes nothing.

Examples:
  lms migrate --dry-run
  lms migrate
  lms migrate --reset`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.MaintenanceAdapter().Migrate(commandContext(cmd), dryRun, reset)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run against an in-memory copy and write nothing")
	cmd.Flags().BoolVar(&reset, "reset", false, "Clear the canonical collections before migrating")
	return cmd
}

// CleanupCmd returns the cleanup command
func CleanupCmd() *cobra.Command {
	var dryRun, force bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Lift embedded legacy shapes and delete obsolete locations",
		Long: `Lift enrollments embedded in courses, convert embedded module lists, move
embedded evaluations, fold flattened progress entries, then delete the
obsolete legacy roots.

Obsolete roots are only deleted when the run skipped nothing and substituted
no placeholder modules, unless --force is given. Dry runs never delete.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.MaintenanceAdapter().Cleanup(commandContext(cmd), dryRun, force)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run against an in-memory copy and write nothing")
	cmd.Flags().BoolVar(&force, "force", false, "Delete obsolete locations even after skips or placeholders")
	return cmd
}

// RunsCmd returns the runs command
func RunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List past migration and cleanup runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.MaintenanceAdapter().Runs(commandContext(cmd), limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	return cmd
}
