package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/lms/internal/config"
	"github.com/example/lms/internal/core/tree"
	"github.com/example/lms/internal/db"
	"github.com/example/lms/internal/wire"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var (
		root   string
		driver string
		path   string
		redis  string
		seed   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write .lms/config.json and prepare the store",
		Long: `Write .lms/config.json in the current directory and open the configured store.

With --seed, the legacy development fixtures are written at their historical
locations so that migrate and cleanup can be tried end to end.

Examples:
  lms init
  lms init --driver redis --redis-addr localhost:6379 --seed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to resolve working directory: %w", err)
			}

			cfg := &config.Config{
				Root:  root,
				Store: config.StoreConfig{Driver: driver, Path: path, RedisAddr: redis, RedisPrefix: root},
				Log:   config.LogConfig{Mode: "dev"},
			}
			if cfg.Store.Driver == config.DriverSQLite && cfg.Store.Path == "" {
				if cfg.Store.Path, err = db.DefaultPath(); err != nil {
					return err
				}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.SaveConfig(cwd, cfg); err != nil {
				return err
			}
			fmt.Printf("✓ Wrote %s\n", config.Path(cwd))

			// Opening the store runs the sqlite schema migrations.
			store := wire.Store()
			fmt.Printf("✓ %s store ready\n", wire.Config().Store.Driver)

			if seed {
				ctx := commandContext(cmd)
				fixtures := db.Fixtures()
				for _, key := range tree.SortedKeys(fixtures) {
					if err := store.Write(ctx, key, fixtures[key]); err != nil {
						return fmt.Errorf("failed to seed %s: %w", key, err)
					}
				}
				fmt.Printf("✓ Seeded %d legacy locations\n", len(fixtures))
			}

			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  lms migrate --dry-run")
			fmt.Println("  lms migrate")
			fmt.Println("  lms cleanup")
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "lms", "Canonical root path")
	cmd.Flags().StringVar(&driver, "driver", config.DriverSQLite, "Store driver (sqlite, redis, memory)")
	cmd.Flags().StringVar(&path, "path", "", "SQLite database file (default ~/.lms/lms.db)")
	cmd.Flags().StringVar(&redis, "redis-addr", "localhost:6379", "Redis address")
	cmd.Flags().BoolVar(&seed, "seed", false, "Write the legacy development fixtures")
	return cmd
}
