package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func TestValidateRun_MissingJob(t *testing.T) {
	r := Default()
	r.Job = "  "

	issues := ValidateRun(r)
	if !hasIssue(t, issues, SeverityError, "job", "job must not be empty") {
		t.Fatalf("expected SeverityError for job; got issues: %+v", issues)
	}
	if !HasErrors(issues) {
		t.Fatalf("HasErrors = false, want true")
	}
}

func TestValidateRun_Sources(t *testing.T) {
	tests := []struct {
		name string
		src  Source
		sev  IssueSeverity
		path string
		msg  string
	}{
		{"empty kind", Source{}, SeverityError, "sample_a.kind", "must not be empty"},
		{"unknown kind", Source{Kind: "ftp"}, SeverityError, "sample_a.kind", `unknown source kind "ftp"`},
		{"file without path", Source{Kind: "file"}, SeverityError, "sample_a.path", "non-empty path"},
		{"http bad url", Source{Kind: "http", URL: "ftp://x"}, SeverityError, "sample_a.url", "http(s) url"},
		{"http negative timeout", Source{Kind: "http", URL: "https://x", TimeoutSeconds: -1}, SeverityError, "sample_a.timeout_seconds", "negative"},
		{"s3 no bucket", Source{Kind: "s3", S3: S3Source{Key: "k", Region: "r"}}, SeverityError, "sample_a.s3.bucket", "bucket"},
		{"s3 no key", Source{Kind: "s3", S3: S3Source{Bucket: "b", Region: "r"}}, SeverityError, "sample_a.s3.key", "key"},
		{"s3 half credentials", Source{Kind: "s3", S3: S3Source{Bucket: "b", Key: "k", Region: "r", AccessKeyID: "id"}}, SeverityError, "sample_a.s3.access_key_id", "together"},
		{"s3 no region", Source{Kind: "s3", S3: S3Source{Bucket: "b", Key: "k"}}, SeverityWarning, "sample_a.s3.region", "us-east-1"},
		{"sql bad driver", Source{Kind: "sql", SQL: SQLSource{Driver: "oracle", DSN: "d", Query: "q"}}, SeverityError, "sample_a.sql.driver", "unknown sql driver"},
		{"sql no dsn", Source{Kind: "sql", SQL: SQLSource{Driver: "sqlite", Query: "q"}}, SeverityError, "sample_a.sql.dsn", "dsn"},
		{"sql no query", Source{Kind: "sql", SQL: SQLSource{Driver: "postgres", DSN: "d"}}, SeverityError, "sample_a.sql.query", "query"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := Default()
			r.SampleA = tc.src
			issues := ValidateRun(r)
			if !hasIssue(t, issues, tc.sev, tc.path, tc.msg) {
				t.Fatalf("want %s at %s containing %q; got %+v", tc.sev, tc.path, tc.msg, issues)
			}
		})
	}
}

func TestValidateRun_ValidSources(t *testing.T) {
	r := Default()
	r.SampleA = Source{Kind: "http", URL: "https://example.com/a.csv"}
	r.SampleB = Source{Kind: "s3", S3: S3Source{Bucket: "b", Key: "k", Region: "eu-central-1"}}
	if issues := ValidateRun(r); len(issues) != 0 {
		t.Fatalf("unexpected issues: %+v", issues)
	}
}

func TestValidateRun_Parser(t *testing.T) {
	r := Default()
	r.Parser.Options = Options{"comma": ";;", "header_map": "nope"}
	issues := ValidateRun(r)
	if !hasIssue(t, issues, SeverityError, "parser.options.comma", "single character") {
		t.Fatalf("missing comma issue: %+v", issues)
	}
	if !hasIssue(t, issues, SeverityError, "parser.options.header_map", "object") {
		t.Fatalf("missing header_map issue: %+v", issues)
	}

	r = Default()
	r.Parser.Options = Options{"bad_rows": "ignore"}
	if !hasIssue(t, ValidateRun(r), SeverityError, "parser.options.bad_rows", "want error or skip") {
		t.Fatalf("unknown bad_rows should be rejected")
	}
	r.Parser.Options = Options{"bad_rows": BadRowsSkip}
	if issues := ValidateRun(r); len(issues) != 0 {
		t.Fatalf("unexpected issues for bad_rows=skip: %+v", issues)
	}

	r = Default()
	r.Parser.Kind = "json"
	r.Parser.Options = Options{"records_field": "items"}
	if issues := ValidateRun(r); len(issues) != 0 {
		t.Fatalf("unexpected issues for json parser: %+v", issues)
	}

	r.Parser.Kind = "xml"
	if !hasIssue(t, ValidateRun(r), SeverityError, "parser.kind", "want csv or json") {
		t.Fatalf("xml parser should be rejected")
	}

	// Two SQL samples never touch the parser.
	r.SampleA = Source{Kind: "sql", SQL: SQLSource{Driver: "sqlite", DSN: ":memory:", Query: "SELECT 1"}}
	r.SampleB = r.SampleA
	if issues := ValidateRun(r); len(issues) != 0 {
		t.Fatalf("unexpected issues for sql-only run: %+v", issues)
	}
}

func TestValidateRun_CompareRuntimeMetrics(t *testing.T) {
	r := Default()
	r.Compare = Compare{Threshold: 1.5, Features: 0, Aggregate: "median", NumericLength: "pad"}
	r.Runtime = RuntimeConfig{Workers: -1, ChunkBytes: 10, Dispatch: "eager"}
	r.Metrics.Backend = "statsd"

	issues := ValidateRun(r)
	want := []struct {
		sev  IssueSeverity
		path string
	}{
		{SeverityWarning, "compare.threshold"},
		{SeverityError, "compare.features"},
		{SeverityError, "compare.aggregate"},
		{SeverityError, "compare.numeric_length"},
		{SeverityError, "runtime.workers"},
		{SeverityWarning, "runtime.chunk_bytes"},
		{SeverityError, "runtime.dispatch"},
		{SeverityWarning, "metrics.backend"},
	}
	for _, w := range want {
		if !hasIssue(t, issues, w.sev, w.path, "") {
			t.Errorf("missing %s at %s; got %+v", w.sev, w.path, issues)
		}
	}

	r.Runtime.ChunkBytes = -1
	if !hasIssue(t, ValidateRun(r), SeverityError, "runtime.chunk_bytes", "negative") {
		t.Fatalf("negative chunk_bytes should be an error")
	}
}

func TestIssue_Error(t *testing.T) {
	iss := Issue{Severity: SeverityError, Path: "job", Message: "empty"}
	if got := iss.Error(); got != "error at job: empty" {
		t.Fatalf("Error() = %q", got)
	}
}
