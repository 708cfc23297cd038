package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/lms/internal/config"
	"github.com/example/lms/internal/core/legacy"
	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/core/tree"
	"github.com/example/lms/internal/db"
	"github.com/example/lms/internal/ports/secondary"
	"github.com/example/lms/internal/wire"
)

// DevCmd returns the dev command group for development utilities.
func DevCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Development utilities",
		Long: `Development utilities for working against a throwaway store.

reset wipes the configured store and seeds the legacy fixtures. It refuses
to run unless LMS_DEV=1 is set, so a production store is never wiped by
accident.`,
	}

	cmd.AddCommand(devResetCmd())
	cmd.AddCommand(devDoctorCmd())
	return cmd
}

func devResetCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe the store and seed the legacy fixtures",
		Long: `Wipe the configured store and seed the legacy development fixtures.

For sqlite the database file is deleted and recreated with the current
schema. Other drivers have every top-level key deleted.

Safety: requires LMS_DEV=1.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if os.Getenv("LMS_DEV") != "1" {
				return fmt.Errorf("LMS_DEV not set - export LMS_DEV=1 to reset the store\n\nThis safety check prevents accidental reset of a production store")
			}
			cfg := wire.Config()

			if !force {
				fmt.Printf("This will wipe the %s store: %s\n", cfg.Store.Driver, storeLocation(cfg))
				fmt.Print("Continue? [y/N] ")
				var response string
				fmt.Scanln(&response)
				if response != "y" && response != "Y" {
					fmt.Println("Aborted.")
					return nil
				}
			}

			if cfg.Store.Driver == config.DriverSQLite {
				if err := resetSQLite(cfg.Store.Path); err != nil {
					return err
				}
			} else if err := resetTree(commandContext(cmd), wire.Store()); err != nil {
				return err
			}

			fmt.Println("\nDev store reset complete!")
			fmt.Println("\nSeeded legacy locations:")
			fixtures := db.Fixtures()
			for _, key := range tree.SortedKeys(fixtures) {
				fmt.Printf("  - %s\n", key)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")
	return cmd
}

func resetSQLite(path string) error {
	if path == "" {
		var err error
		if path, err = db.DefaultPath(); err != nil {
			return err
		}
	}
	db.Close()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete database: %w", err)
	}
	fmt.Printf("✓ Deleted %s\n", path)

	database, err := db.GetDB(path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	fmt.Println("✓ Created fresh database with schema")

	if err := db.SeedFixtures(database); err != nil {
		return fmt.Errorf("failed to seed fixtures: %w", err)
	}
	fmt.Println("✓ Seeded fixture data")
	return nil
}

func resetTree(ctx context.Context, store secondary.TreeStore) error {
	value, ok, err := store.Read(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to read store: %w", err)
	}
	if m, isMap := tree.AsMap(value); ok && isMap {
		for _, key := range tree.SortedKeys(m) {
			if err := store.Delete(ctx, key); err != nil {
				return fmt.Errorf("failed to delete %s: %w", key, err)
			}
		}
	}
	fmt.Println("✓ Cleared store")

	fixtures := db.Fixtures()
	for _, key := range tree.SortedKeys(fixtures) {
		if err := store.Write(ctx, key, fixtures[key]); err != nil {
			return fmt.Errorf("failed to seed %s: %w", key, err)
		}
	}
	fmt.Println("✓ Seeded fixture data")
	return nil
}

func storeLocation(cfg *config.Config) string {
	switch cfg.Store.Driver {
	case config.DriverRedis:
		return cfg.Store.RedisAddr + " (prefix " + cfg.Store.RedisPrefix + ")"
	case config.DriverMemory:
		return "in-memory"
	}
	if cfg.Store.Path == "" {
		path, _ := db.DefaultPath()
		return path
	}
	return cfg.Store.Path
}

func devDoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and store health",
		Long: `Check the health of the lms environment.

Verifies:
- the configuration loads and validates
- the store is reachable
- the legacy path table parses
- which legacy and canonical locations currently hold data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			issues := 0
			say := func(format string, a ...any) {
				if !quiet {
					fmt.Printf(format, a...)
				}
			}

			say("=== lms Environment Health Check ===\n\n")

			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			say("1. Configuration\n")
			cfg, err := config.LoadConfig(cwd)
			if err != nil {
				say("   ✗ %v\n\n   FIX: Run 'lms init' or fix %s\n", err, config.Path(cwd))
				if quiet {
					os.Exit(1)
				}
				return nil
			}
			if _, statErr := os.Stat(config.Path(cwd)); statErr != nil {
				say("   ⚠️  No %s, using defaults\n", config.Path(cwd))
			}
			say("   ✓ driver=%s root=%s\n", cfg.Store.Driver, cfg.Root)

			say("\n2. Store\n")
			if cfg.Store.Driver == config.DriverSQLite {
				path := storeLocation(cfg)
				if info, err := os.Stat(path); err != nil {
					say("   ⚠️  Database not created yet: %s\n", path)
				} else {
					say("   ✓ Database exists (%d KB)\n", info.Size()/1024)
				}
			}
			ctx := commandContext(cmd)
			store := wire.Store()
			whole, _, err := store.Read(ctx, "")
			if err != nil {
				issues++
				say("   ✗ Store unreachable: %v\n", err)
			} else {
				say("   ✓ %s reachable\n", storeLocation(cfg))
			}

			say("\n3. Legacy path table\n")
			table, err := legacy.Load(cfg.LegacyPaths)
			if err != nil {
				issues++
				say("   ✗ %v\n", err)
			} else {
				sources := 0
				for _, kind := range schema.Kinds {
					sources += len(table.For(kind))
				}
				say("   ✓ %d sources, %d obsolete locations\n", sources, len(table.Cleanup.Obsolete))
			}

			say("\n4. Data\n")
			top, _ := tree.AsMap(whole)
			if canonical, ok := tree.AsMap(top[cfg.Root]); ok {
				for _, kind := range schema.Kinds {
					n := 0
					if coll, ok := tree.AsMap(canonical[kind.Collection()]); ok {
						n = len(coll)
					}
					say("   %-12s %d\n", kind.Collection(), n)
				}
			} else {
				say("   ⚠️  Nothing under %q yet (run 'lms migrate')\n", cfg.Root)
			}
			if table != nil {
				var pending []string
				for _, p := range table.Cleanup.Obsolete {
					if _, ok, _ := store.Read(ctx, p); ok {
						pending = append(pending, p)
					}
				}
				if len(pending) > 0 {
					say("   ⚠️  Legacy locations still present: %v (run 'lms cleanup')\n", pending)
				}
			}

			say("\n")
			if issues == 0 {
				say("=== All checks passed! ===\n")
			} else {
				say("=== %d issue(s) found ===\n", issues)
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only output exit code (0=healthy, 1=issues)")
	return cmd
}
