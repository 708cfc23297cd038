// Package cli holds the cobra commands of the lms binary.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cliadapter "github.com/example/lms/internal/adapters/cli"
	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/ctxutil"
)

// commandContext returns the context of cmd carrying the actor given with --as.
func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if as, _ := cmd.Flags().GetString("as"); as != "" {
		actor := ctxutil.Actor{UserID: as}
		if strings.Contains(as, "@") {
			actor.Email = as
		}
		ctx = ctxutil.WithActor(ctx, actor)
	}
	return ctx
}

// parseFields turns repeated key=value flags into a record. Values are decoded
// as YAML scalars so numbers and booleans keep their type.
func parseFields(pairs []string) (schema.Record, error) {
	rec := schema.Record{}
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q (want key=value)", pair)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
			value = raw
		}
		rec[key] = value
	}
	return rec, nil
}

// addFieldFlags registers the flags shared by the create and update commands.
func addFieldFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("field", "f", nil, "Field as key=value (repeatable, legacy names accepted)")
	cmd.Flags().String("file", "", "Read the record from a JSON or YAML file (- for stdin)")
}

// recordFromFlags merges the --file document with the --field values, fields last.
func recordFromFlags(cmd *cobra.Command, named map[string]string) (schema.Record, error) {
	rec := schema.Record{}
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		doc, err := readDocument(file, cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		m, ok := doc.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: expected an object, got %T", file, doc)
		}
		for k, v := range m {
			rec[k] = v
		}
	}
	for flag, field := range named {
		if cmd.Flags().Changed(flag) {
			v, _ := cmd.Flags().GetString(flag)
			rec[field] = v
		}
	}
	pairs, _ := cmd.Flags().GetStringArray("field")
	fields, err := parseFields(pairs)
	if err != nil {
		return nil, err
	}
	for k, v := range fields {
		rec[k] = v
	}
	return rec, nil
}

// readDocument decodes a JSON or YAML document from path, or from stdin when path is "-".
func readDocument(path string, stdin io.Reader) (any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}

// Reported reports whether err was already printed by the command that returned it.
func Reported(err error) bool {
	return errors.Is(err, errInvalid) || errors.Is(err, cliadapter.ErrRunFailed)
}
