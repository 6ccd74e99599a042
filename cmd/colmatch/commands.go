package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/maulikam/data-analysis/internal/classify"
	"github.com/maulikam/data-analysis/internal/config"
	"github.com/maulikam/data-analysis/internal/orchestrator"
	"github.com/maulikam/data-analysis/internal/progress"
	"github.com/maulikam/data-analysis/internal/report"
)

func newCompareCmd(f *cliFlags, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "compare",
		Short: "Compare the columns of both samples (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompare(cmd, f, stdout, stderr)
		},
	}
}

func runCompare(cmd *cobra.Command, f *cliFlags, stdout, stderr io.Writer) error {
	cfg, err := resolveConfig(cmd, f)
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(f.output)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	flush := setupMetrics(cfg, runID, f.verbose)
	defer flush()

	out := stdout
	if f.quiet {
		out = io.Discard
	}
	var tr *progress.Tracker
	if f.progress {
		tr = progress.New(stderr)
	}

	r, err := orchestrator.New(cfg, orchestrator.Options{
		Out:      out,
		Progress: tr,
		Verbose:  f.verbose,
		RunID:    runID,
	})
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := r.Run(cmd.Context())
	if err != nil {
		return err
	}
	if f.verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}

	return report.Matches(stdout, format, report.Document{
		RunID:        res.RunID,
		Threshold:    cfg.Compare.Threshold,
		Chunks:       res.Chunks,
		FailedChunks: res.FailedChunks,
		RowsA:        res.RowsA,
		RowsB:        res.RowsB,
		Matches:      res.Matches,
	})
}

// typesDocument is the JSON form of the types command.
type typesDocument struct {
	Sample1 classify.Assignment `json:"sample_1"`
	Sample2 classify.Assignment `json:"sample_2"`
	RowsB   int                 `json:"rows_2"`
}

func newTypesCmd(f *cliFlags, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "Print the inferred column types of both samples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				return err
			}
			format, err := report.ParseFormat(f.output)
			if err != nil {
				return err
			}

			out := stdout
			if format == report.JSON {
				out = io.Discard
			}
			r, err := orchestrator.New(cfg, orchestrator.Options{Out: out, Verbose: f.verbose})
			if err != nil {
				return err
			}
			res, err := r.Types(cmd.Context())
			if err != nil {
				return err
			}
			if format != report.JSON {
				return nil
			}
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(typesDocument{Sample1: res.A, Sample2: res.B, RowsB: res.RowsB})
		},
	}
}

func newValidateCmd(f *cliFlags, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the run config and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				return err
			}
			name := f.configPath
			if name == "" {
				name = "defaults"
			}

			issues := config.ValidateRun(cfg)
			for _, iss := range issues {
				fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
			}
			if config.HasErrors(issues) {
				return fmt.Errorf("configuration is invalid: %s", name)
			}
			fmt.Fprintf(stdout, "Configuration is valid: %s\n", name)
			return nil
		},
	}
}
