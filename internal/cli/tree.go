package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/example/lms/internal/wire"
)

// TreeCmd returns the tree command group for raw subtree access.
func TreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Export or import raw subtrees",
	}
	cmd.AddCommand(treeExportCmd())
	cmd.AddCommand(treeImportCmd())
	return cmd
}

func treeExportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Print the subtree at path (whole tree by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return wire.MaintenanceAdapter().Export(commandContext(cmd), path, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", "json", "Output format (json, yaml)")
	return cmd
}

func treeImportCmd() *cobra.Command {
	var (
		file  string
		merge bool
	)

	cmd := &cobra.Command{
		Use:   "import <path>",
		Short: "Write a JSON or YAML document at path",
		Long: `Write a JSON or YAML document at path, replacing what is stored there.
With --merge, only the top-level keys of the document are replaced.

Examples:
  lms tree import Formations --file formations.json
  cat patch.yaml | lms tree import lms/courses/c1 --merge`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return wire.MaintenanceAdapter().Import(commandContext(cmd), args[0], in, merge)
		},
	}

	cmd.Flags().StringVar(&file, "file", "-", "Document to import (- for stdin)")
	cmd.Flags().BoolVar(&merge, "merge", false, "Merge top-level keys instead of replacing")
	return cmd
}
