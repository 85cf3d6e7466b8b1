// Command validate statically checks dialogue content: gating soft-locks,
// dangling references, pattern unlock targets and registry alignment.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jwebster45206/dialogue-engine/pkg/content"
	"github.com/jwebster45206/dialogue-engine/pkg/validation"
)

var errInvalid = errors.New("content has validation errors")

type options struct {
	dataDir   string
	character string
	asJSON    bool
	warnings  bool
	watch     bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate dialogue graphs and simulation registries",
		Long: `Loads every dialogue graph and registry under the data directory and reports
unreachable targets, fresh-player soft-locks, pattern unlocks that point at missing
nodes, and drift between the content and engine simulation registries.

Exits non-zero when any error-severity issue is found.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.watch {
				return watch(cmd.Context(), out, opts)
			}
			err := run(out, opts)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.dataDir, "data", "d", envOr("DATA_DIR", "data"), "content directory")
	cmd.Flags().StringVarP(&opts.character, "character", "c", "", "only report on one character")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the full report as JSON")
	cmd.Flags().BoolVarP(&opts.warnings, "warnings", "w", true, "include warnings in text output")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "re-validate whenever content changes")
	return cmd
}

// run loads the content once and prints its report.
func run(out io.Writer, opts *options) error {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	lib, err := content.NewLoader(opts.dataDir, logger).LoadLibrary()
	if err != nil {
		return fmt.Errorf("failed to load content: %w", err)
	}

	report := validation.ValidateAll(lib.Graphs, lib.Affinity, lib.Simulations, lib.Engine)
	if opts.character != "" {
		report = filterReport(report, opts.character)
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
	} else {
		printReport(out, report, opts.warnings)
	}

	if !report.Valid {
		return errInvalid
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
