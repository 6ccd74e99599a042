package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single validation finding. Path is a dotted path into the
// config, e.g. "sample_a.s3.bucket".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidateRun lints r without mutating it. Callers decide whether warnings
// are fatal.
func ValidateRun(r Run) []Issue {
	var issues []Issue

	if strings.TrimSpace(r.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource("sample_a", r.SampleA)...)
	issues = append(issues, validateSource("sample_b", r.SampleB)...)
	issues = append(issues, validateParser(r)...)
	issues = append(issues, validateCompare(r.Compare)...)
	issues = append(issues, validateRuntime(r.Runtime)...)
	issues = append(issues, validateMetrics(r.Metrics)...)

	return issues
}

func validateSource(path string, s Source) []Issue {
	var issues []Issue
	errAt := func(field, msg string) {
		issues = append(issues, Issue{Severity: SeverityError, Path: path + "." + field, Message: msg})
	}

	switch s.Kind {
	case "":
		errAt("kind", "kind must not be empty")
	case "file":
		if strings.TrimSpace(s.Path) == "" {
			errAt("path", "file source requires a non-empty path")
		}
	case "http":
		if !strings.HasPrefix(s.URL, "http://") && !strings.HasPrefix(s.URL, "https://") {
			errAt("url", fmt.Sprintf("http source requires an http(s) url, got %q", s.URL))
		}
		if s.TimeoutSeconds < 0 {
			errAt("timeout_seconds", "timeout_seconds must not be negative")
		}
	case "s3":
		if strings.TrimSpace(s.S3.Bucket) == "" {
			errAt("s3.bucket", "s3 source requires a bucket")
		}
		if strings.TrimSpace(s.S3.Key) == "" {
			errAt("s3.key", "s3 source requires a key")
		}
		if (s.S3.AccessKeyID == "") != (s.S3.SecretAccessKey == "") {
			errAt("s3.access_key_id", "access_key_id and secret_access_key must be set together")
		}
		if s.S3.Region == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".s3.region",
				Message:  "no region set; us-east-1 will be used",
			})
		}
	case "sql":
		switch s.SQL.Driver {
		case "postgres", "sqlserver", "mysql", "sqlite":
		default:
			errAt("sql.driver", fmt.Sprintf("unknown sql driver %q (want postgres, sqlserver, mysql or sqlite)", s.SQL.Driver))
		}
		if strings.TrimSpace(s.SQL.DSN) == "" {
			errAt("sql.dsn", "sql source requires a dsn")
		}
		if strings.TrimSpace(s.SQL.Query) == "" {
			errAt("sql.query", "sql source requires a query")
		}
	default:
		errAt("kind", fmt.Sprintf("unknown source kind %q (want file, http, s3 or sql)", s.Kind))
	}
	return issues
}

func validateParser(r Run) []Issue {
	p := r.Parser
	if r.SampleA.Kind == "sql" && r.SampleB.Kind == "sql" {
		return nil
	}

	var issues []Issue
	switch p.Kind {
	case "csv", "json":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unsupported parser kind %q (want csv or json)", p.Kind),
		})
		return issues
	}
	if s := p.Options.String("comma", ","); p.Kind == "csv" && len([]rune(s)) != 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.options.comma",
			Message:  fmt.Sprintf("comma must be a single character, got %q", s),
		})
	}
	switch br := p.Options.String("bad_rows", BadRowsError); br {
	case BadRowsError, BadRowsSkip:
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.options.bad_rows",
			Message:  fmt.Sprintf("unknown bad_rows %q (want error or skip)", br),
		})
	}
	if raw := p.Options.Any("header_map"); raw != nil {
		if _, ok := raw.(map[string]any); !ok {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "parser.options.header_map",
				Message:  "header_map must be an object of source name to column name",
			})
		}
	}
	return issues
}

func validateCompare(c Compare) []Issue {
	var issues []Issue
	if c.Threshold < 0 || c.Threshold >= 1 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "compare.threshold",
			Message:  fmt.Sprintf("threshold=%g is outside [0, 1); every or no pair may match", c.Threshold),
		})
	}
	if c.Features <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "compare.features",
			Message:  "features must be positive",
		})
	}
	switch c.Aggregate {
	case "", "exact", "max", "mean":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "compare.aggregate",
			Message:  fmt.Sprintf("unknown aggregate policy %q (want exact, max or mean)", c.Aggregate),
		})
	}
	switch c.NumericLength {
	case "", "strict", "truncate":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "compare.numeric_length",
			Message:  fmt.Sprintf("unknown numeric_length %q (want strict or truncate)", c.NumericLength),
		})
	}
	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue
	if r.Workers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.workers",
			Message:  "workers must not be negative",
		})
	}
	if r.ChunkBytes < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.chunk_bytes",
			Message:  "chunk_bytes must not be negative",
		})
	} else if r.ChunkBytes > 0 && r.ChunkBytes < 1<<10 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.chunk_bytes",
			Message:  fmt.Sprintf("chunk_bytes=%d; tiny chunks repeat the full cross product many times", r.ChunkBytes),
		})
	}
	switch r.Dispatch {
	case "", "gather", "serial":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.dispatch",
			Message:  fmt.Sprintf("unknown dispatch %q (want gather or serial)", r.Dispatch),
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	switch m.Backend {
	case "", "none", "pushgateway", "datadog":
		return nil
	}
	return []Issue{{
		Severity: SeverityWarning,
		Path:     "metrics.backend",
		Message:  fmt.Sprintf("unknown metrics backend %q; metrics will be disabled", m.Backend),
	}}
}
