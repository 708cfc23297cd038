package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/core/tree"
	"github.com/example/lms/internal/wire"
)

// errInvalid is returned by validate after the violations were printed.
var errInvalid = errors.New("validation failed")

// ValidateCmd returns the validate command
func ValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <kind>",
		Short: "Check records against the canonical rules of a kind",
		Long: `Check one record, or every record of a collection with --each, against the
canonical rules of kind (user, course, module, evaluation, enrollment,
progress, feedback). Every violation is reported.

Examples:
  lms validate course --file course.json
  lms validate user --path lms/users --each`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, records, err := loadRecords(cmd, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			invalid := 0
			for _, id := range tree.SortedKeys(records) {
				rec, _ := tree.AsMap(records[id])
				res := schema.Validate(kind, rec)
				if res.IsValid {
					fmt.Fprintf(out, "%s %s\n", color.GreenString("✓"), id)
					continue
				}
				invalid++
				fmt.Fprintf(out, "%s %s\n", color.RedString("✗"), id)
				for _, e := range res.Errors {
					fmt.Fprintf(out, "    - %s\n", e)
				}
			}
			if invalid > 0 {
				fmt.Fprintf(out, "\n%d of %d %s record(s) invalid\n", invalid, len(records), kind)
				return errInvalid
			}
			return nil
		},
	}
	addSourceFlags(cmd)
	return cmd
}

// StandardizeCmd returns the standardize command
func StandardizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "standardize <kind>",
		Short: "Print the canonical form of legacy records",
		Long: `Map legacy field names and value spellings of one record, or every record of
a collection with --each, to the canonical form of kind and print the result
as JSON. Nothing is written.

Examples:
  lms standardize course --path Formations/c1
  echo '{"prenom":"Ana","courriel":"ana@x.io"}' | lms standardize user --file -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, records, err := loadRecords(cmd, args[0])
			if err != nil {
				return err
			}
			result := map[string]any{}
			for id, v := range records {
				rec, _ := tree.AsMap(v)
				result[id] = map[string]any(schema.Standardize(kind, rec))
			}
			var doc any = result
			if each, _ := cmd.Flags().GetBool("each"); !each {
				doc = result[singleKey]
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		},
	}
	addSourceFlags(cmd)
	return cmd
}

const singleKey = "record"

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("file", "", "Read records from a JSON or YAML file (- for stdin)")
	cmd.Flags().String("path", "", "Read records from the store at path")
	cmd.Flags().Bool("each", false, "Treat the document as a collection keyed by id")
}

// loadRecords resolves the kind argument and reads the records named by --file or --path.
func loadRecords(cmd *cobra.Command, kindArg string) (schema.Kind, map[string]any, error) {
	kind, err := schema.ParseKind(kindArg)
	if err != nil {
		return "", nil, err
	}
	file, _ := cmd.Flags().GetString("file")
	path, _ := cmd.Flags().GetString("path")
	each, _ := cmd.Flags().GetBool("each")

	var doc any
	switch {
	case file != "" && path != "":
		return "", nil, fmt.Errorf("--file and --path are mutually exclusive")
	case file != "":
		if doc, err = readDocument(file, cmd.InOrStdin()); err != nil {
			return "", nil, err
		}
	case path != "":
		value, ok, err := wire.Store().Read(commandContext(cmd), path)
		if err != nil {
			return "", nil, err
		}
		if !ok {
			return "", nil, fmt.Errorf("nothing stored at %q", path)
		}
		doc = value
	default:
		return "", nil, fmt.Errorf("one of --file or --path is required")
	}
	if doc, err = tree.Normalize(doc); err != nil {
		return "", nil, err
	}

	m, ok := tree.AsMap(doc)
	if !ok {
		return "", nil, fmt.Errorf("expected an object, got %T", doc)
	}
	if !each {
		return kind, map[string]any{singleKey: m}, nil
	}
	records := map[string]any{}
	for id, v := range m {
		if _, ok := tree.AsMap(v); !ok {
			return "", nil, fmt.Errorf("%s: expected an object, got %T", id, v)
		}
		records[id] = v
	}
	return kind, records, nil
}
