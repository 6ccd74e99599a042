package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maulikam/data-analysis/internal/config"
	"github.com/maulikam/data-analysis/internal/datasource/s3src"
)

// cliFlags are the values bound to the persistent flags.
type cliFlags struct {
	configPath     string
	sampleA        string
	sampleB        string
	workers        int
	chunkBytes     int64
	threshold      float64
	features       int
	dispatch       string
	aggregate      string
	output         string
	metricsBackend string
	progress       bool
	quiet          bool
	verbose        bool
}

// Execute runs the CLI against the process arguments and returns the exit
// code. SIGINT and SIGTERM cancel the run.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	log.SetOutput(stderr)

	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	f := &cliFlags{}

	root := &cobra.Command{
		Use:   "colmatch",
		Short: "Find similar columns across two tabular samples",
		Long: "colmatch classifies every column of two samples as numeric, string or unknown,\n" +
			"then scores each column of sample 1 against each column of sample 2 and lists\n" +
			"the pairs scoring above the threshold. Sample 1 is streamed in chunks.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompare(cmd, f, stdout, stderr)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "run config (.json, .yaml or .yml)")
	pf.StringVar(&f.sampleA, "sample-a", "", "sample 1: path, http(s):// URL or s3://bucket/key")
	pf.StringVar(&f.sampleB, "sample-b", "", "sample 2: path, http(s):// URL or s3://bucket/key")
	pf.IntVar(&f.workers, "workers", 0, "worker pool size (default: number of CPUs)")
	pf.Int64Var(&f.chunkBytes, "chunk-bytes", 0, "row data per chunk of sample 1 (default 10 MiB)")
	pf.Float64Var(&f.threshold, "threshold", 0, "report pairs scoring strictly above this (default 0.8)")
	pf.IntVar(&f.features, "features", 0, "hashed features for string columns (default 1000)")
	pf.StringVar(&f.dispatch, "dispatch", "", "chunk dispatch: gather or serial")
	pf.StringVar(&f.aggregate, "aggregate", "", "duplicate pair policy: exact, max or mean")
	pf.StringVarP(&f.output, "output", "o", "text", "output format: text or json")
	pf.StringVar(&f.metricsBackend, "metrics-backend", "", "metrics backend: none, pushgateway or datadog")
	pf.BoolVar(&f.progress, "progress", false, "draw a spinner on stderr while comparing")
	pf.BoolVarP(&f.quiet, "quiet", "q", false, "print only the final list")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "enable verbose logs")

	root.AddCommand(
		newCompareCmd(f, stdout, stderr),
		newTypesCmd(f, stdout),
		newValidateCmd(f, stdout, stderr),
	)
	return root
}

// resolveConfig loads the config file (or the defaults) and applies
// overrides. Precedence: flag > environment > config file > default.
func resolveConfig(cmd *cobra.Command, f *cliFlags) (config.Run, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return config.Run{}, err
		}
	}

	cfg.Runtime.Workers = getenvInt("COLMATCH_WORKERS", cfg.Runtime.Workers)
	cfg.Runtime.ChunkBytes = getenvInt64("COLMATCH_CHUNK_BYTES", cfg.Runtime.ChunkBytes)
	if v := os.Getenv("COLMATCH_DISPATCH"); v != "" {
		cfg.Runtime.Dispatch = v
	}
	if v := os.Getenv("METRICS_BACKEND"); v != "" {
		cfg.Metrics.Backend = v
	}

	changed := cmd.Flags().Changed
	var err error
	if changed("sample-a") {
		if cfg.SampleA, err = sourceFromArg(f.sampleA); err != nil {
			return config.Run{}, fmt.Errorf("--sample-a: %w", err)
		}
	}
	if changed("sample-b") {
		if cfg.SampleB, err = sourceFromArg(f.sampleB); err != nil {
			return config.Run{}, fmt.Errorf("--sample-b: %w", err)
		}
	}
	if changed("workers") {
		cfg.Runtime.Workers = f.workers
	}
	if changed("chunk-bytes") {
		cfg.Runtime.ChunkBytes = f.chunkBytes
	}
	if changed("dispatch") {
		cfg.Runtime.Dispatch = f.dispatch
	}
	if changed("threshold") {
		cfg.Compare.Threshold = f.threshold
	}
	if changed("features") {
		cfg.Compare.Features = f.features
	}
	if changed("aggregate") {
		cfg.Compare.Aggregate = f.aggregate
	}
	if changed("metrics-backend") {
		cfg.Metrics.Backend = f.metricsBackend
	}

	if cfg.Metrics.PushgatewayURL == "" {
		cfg.Metrics.PushgatewayURL = os.Getenv("PUSHGATEWAY_URL")
	}
	if cfg.Metrics.DatadogAddr == "" {
		cfg.Metrics.DatadogAddr = os.Getenv("DD_AGENT_ADDR")
	}
	return cfg, nil
}

// sourceFromArg turns a --sample-* value into a source: s3:// and http(s)://
// prefixes select those kinds, anything else is a local path.
func sourceFromArg(v string) (config.Source, error) {
	switch {
	case strings.HasPrefix(v, "s3://"):
		bucket, key, err := s3src.ParseURI(v)
		if err != nil {
			return config.Source{}, err
		}
		return config.Source{Kind: "s3", S3: config.S3Source{Bucket: bucket, Key: key}}, nil
	case strings.HasPrefix(v, "http://"), strings.HasPrefix(v, "https://"):
		return config.Source{Kind: "http", URL: v}, nil
	}
	return config.Source{Kind: "file", Path: v}, nil
}

// getenvInt reads an int from environment, returning def when unset/invalid.
func getenvInt(k string, def int) int {
	if s := os.Getenv(k); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

func getenvInt64(k string, def int64) int64 {
	if s := os.Getenv(k); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	return def
}
