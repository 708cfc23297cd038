// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle output formatting but delegate
// business logic to services.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/example/lms/internal/ports/primary"
)

// ErrRunFailed is returned when an engine run reports failure. The details have
// already been printed.
var ErrRunFailed = errors.New("run failed")

// MaintenanceAdapter drives the migration and cleanup engines and streams their
// log to out.
type MaintenanceAdapter struct {
	service primary.MaintenanceService
	out     io.Writer
}

// NewMaintenanceAdapter creates a new MaintenanceAdapter with the given service.
func NewMaintenanceAdapter(service primary.MaintenanceService, out io.Writer) *MaintenanceAdapter {
	return &MaintenanceAdapter{
		service: service,
		out:     out,
	}
}

// sink prints one engine log line, warnings in yellow.
func (a *MaintenanceAdapter) sink(line string) {
	if strings.HasPrefix(line, "warning: ") {
		fmt.Fprintln(a.out, color.New(color.FgYellow).Sprint(line))
		return
	}
	fmt.Fprintln(a.out, line)
}

// Migrate runs the migration engine.
func (a *MaintenanceAdapter) Migrate(ctx context.Context, dryRun, reset bool) error {
	result := a.service.RunMigration(ctx, primary.MigrationOptions{DryRun: dryRun, Reset: reset, Sink: a.sink})
	return a.banner(result)
}

// Cleanup runs the cleanup engine.
func (a *MaintenanceAdapter) Cleanup(ctx context.Context, dryRun, force bool) error {
	result := a.service.RunCleanup(ctx, primary.CleanupOptions{DryRun: dryRun, Force: force, Sink: a.sink})
	if err := a.banner(result); err != nil {
		return err
	}
	if !result.DryRun && result.Report != nil && !result.Report.ObsoleteDeleted {
		fmt.Fprintln(a.out, color.New(color.FgYellow).Sprint("! Obsolete legacy locations were kept"))
	}
	return nil
}

func (a *MaintenanceAdapter) banner(result *primary.RunResult) error {
	fmt.Fprintln(a.out)
	if result.Report != nil && len(result.Report.Stages) > 0 {
		printStages(a.out, result.Report.Stages)
	}
	prefix := ""
	if result.DryRun {
		prefix = "[dry run] "
	}
	if !result.Success {
		fmt.Fprintln(a.out, color.New(color.FgRed, color.Bold).Sprintf("✗ %s%s", prefix, result.Message))
		return ErrRunFailed
	}
	fmt.Fprintln(a.out, color.New(color.FgGreen, color.Bold).Sprintf("✓ %s%s", prefix, result.Message))
	return nil
}

func printStages(out io.Writer, stages []*primary.StageReport) {
	fmt.Fprintf(out, "%-20s %9s %7s %7s %12s %7s\n", "STAGE", "PROCESSED", "WRITTEN", "SKIPPED", "PLACEHOLDERS", "INVALID")
	fmt.Fprintln(out, "────────────────────────────────────────────────────────────────────")
	for _, st := range stages {
		fmt.Fprintf(out, "%-20s %9d %7d %7d %12d %7d\n", st.Name, st.Processed, st.Written, st.Skipped, st.Placeholders, st.Invalid)
	}
	fmt.Fprintln(out)
}

// Runs lists past engine runs.
func (a *MaintenanceAdapter) Runs(ctx context.Context, limit int) error {
	runs, err := a.service.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(a.out, "No runs recorded")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-36s %-10s %-8s %-24s %s\n", "ID", "ENGINE", "STATUS", "STARTED", "MESSAGE")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────────────────────────────")
	for _, r := range runs {
		status := color.New(color.FgGreen).Sprint("ok")
		if !r.Success {
			status = color.New(color.FgRed).Sprint("failed")
		}
		fmt.Fprintf(a.out, "%-36s %-10s %-8s %-24s %s\n", r.RunID, r.Engine, status, r.StartedAt, r.Message)
	}
	fmt.Fprintln(a.out)
	return nil
}

// Export writes the subtree at path to out as JSON or YAML.
func (a *MaintenanceAdapter) Export(ctx context.Context, path, format string) error {
	value, ok, err := a.service.ExportTree(ctx, path)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("nothing stored at %q", path)
	}

	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(value); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case "", "json":
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	}
	return fmt.Errorf("unsupported format %q (want json or yaml)", format)
}

// Import reads a JSON or YAML document from in and writes it at path.
func (a *MaintenanceAdapter) Import(ctx context.Context, path string, in io.Reader, merge bool) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	// YAML is a superset of JSON.
	var value any
	if err := yaml.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("failed to parse input: %w", err)
	}
	if err := a.service.ImportTree(ctx, path, value, merge); err != nil {
		return err
	}

	verb := "Imported"
	if merge {
		verb = "Merged"
	}
	fmt.Fprintf(a.out, "✓ %s into %s\n", verb, displayPath(path))
	return nil
}

func displayPath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
