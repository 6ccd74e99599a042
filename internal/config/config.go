// Package config defines the configuration model for a column-matching run.
//
// A run names two tabular inputs (sample A and sample B), how to parse them,
// the comparison settings, runtime sizing, and an optional metrics backend.
// Files may be JSON or YAML; Default reproduces the behavior of running with
// no configuration at all.
//
// Example (trimmed):
//
//	{
//	  "job":      "nightly_match",
//	  "sample_a": { "kind": "file", "path": "SampleData1.csv" },
//	  "sample_b": { "kind": "s3", "s3": { "bucket": "b", "key": "k.csv" } },
//	  "parser":   { "kind": "csv", "options": { "comma": ";" } },
//	  "compare":  { "threshold": 0.8, "aggregate": "max" },
//	  "runtime":  { "workers": 8, "chunk_bytes": 10485760 }
//	}
package config

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Run is the top-level object decoded from a run file.
type Run struct {
	// Job labels metrics and log lines for this run.
	Job string `json:"job" yaml:"job"`

	// SampleA is streamed in chunks; SampleB is loaded whole.
	SampleA Source `json:"sample_a" yaml:"sample_a"`
	SampleB Source `json:"sample_b" yaml:"sample_b"`

	// Parser turns byte sources into rows. SQL sources ignore it.
	Parser Parser `json:"parser" yaml:"parser"`

	Compare Compare       `json:"compare" yaml:"compare"`
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`
	Metrics Metrics       `json:"metrics" yaml:"metrics"`
}

// Source identifies where one sample comes from.
type Source struct {
	// Kind selects the source implementation: "file", "http", "s3" or "sql".
	Kind string `json:"kind" yaml:"kind"`

	// Path is the local path for the "file" kind.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// URL is the address for the "http" kind.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// TimeoutSeconds bounds each HTTP attempt. Zero selects the client default.
	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`

	// Headers are sent with every HTTP request, e.g. Authorization.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	S3  S3Source  `json:"s3" yaml:"s3"`
	SQL SQLSource `json:"sql" yaml:"sql"`
}

// S3Source configures the "s3" kind. Endpoint and UsePathStyle allow
// S3-compatible stores such as MinIO.
type S3Source struct {
	Bucket          string `json:"bucket" yaml:"bucket"`
	Key             string `json:"key" yaml:"key"`
	Region          string `json:"region" yaml:"region"`
	Endpoint        string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	AccessKeyID     string `json:"access_key_id,omitempty" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty" yaml:"secret_access_key,omitempty"`
	UsePathStyle    bool   `json:"use_path_style,omitempty" yaml:"use_path_style,omitempty"`
}

// SQLSource configures the "sql" kind. Driver is one of "postgres",
// "sqlserver" or "sqlite"; the query's result columns become the sample's
// columns.
type SQLSource struct {
	Driver string `json:"driver" yaml:"driver"`
	DSN    string `json:"dsn" yaml:"dsn"`
	Query  string `json:"query" yaml:"query"`
}

// Parser selects how to parse raw bytes into rows.
type Parser struct {
	// Kind selects the parser implementation: "csv" or "json".
	Kind string `json:"kind" yaml:"kind"`

	// Options is interpreted by the parser. For CSV:
	//   comma (string), trim_space (bool), lazy_quotes (bool),
	//   header_map (object), fold_headers (bool), bad_rows (string)
	// For JSON:
	//   header_map (object), records_field (string), bad_rows (string)
	Options Options `json:"options" yaml:"options"`
}

// Values of the bad_rows parser option. A malformed row fails the run
// unless bad_rows is "skip".
const (
	BadRowsError = "error"
	BadRowsSkip  = "skip"
)

// Compare holds the scoring settings.
type Compare struct {
	// Threshold is the score a pair must strictly exceed to be reported.
	Threshold float64 `json:"threshold" yaml:"threshold"`
	// Features is the width of the hashed text embedding.
	Features int `json:"features" yaml:"features"`
	// Aggregate is "exact", "max" or "mean".
	Aggregate string `json:"aggregate" yaml:"aggregate"`
	// NumericLength is "strict" or "truncate".
	NumericLength string `json:"numeric_length" yaml:"numeric_length"`
}

// RuntimeConfig controls concurrency and chunk sizing.
type RuntimeConfig struct {
	// Workers sizes the pool. Zero selects the number of CPUs.
	Workers int `json:"workers" yaml:"workers"`
	// ChunkBytes bounds the row data of one chunk of sample A.
	ChunkBytes int64 `json:"chunk_bytes" yaml:"chunk_bytes"`
	// Dispatch is "gather" or "serial".
	Dispatch string `json:"dispatch" yaml:"dispatch"`
}

// Metrics selects an optional metrics backend.
type Metrics struct {
	// Backend is "none", "pushgateway" or "datadog".
	Backend        string `json:"backend" yaml:"backend"`
	PushgatewayURL string `json:"pushgateway_url,omitempty" yaml:"pushgateway_url,omitempty"`
	DatadogAddr    string `json:"datadog_addr,omitempty" yaml:"datadog_addr,omitempty"`
	Namespace      string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// Options fetches typed values from a free-form map. It performs minimal
// coercion and returns the provided default when a key is absent or of an
// unexpected type. JSON numbers arrive as float64 and YAML integers as int;
// both are accepted.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case int64:
			return int(n)
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns the string-valued entries of the object at key. It
// returns an empty map when the key is missing or not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// Any returns the raw value for key.
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON decodes a missing or null object to an empty, non-nil map.
func (o *Options) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	var tmp map[string]any
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

// UnmarshalYAML is the YAML counterpart of UnmarshalJSON.
func (o *Options) UnmarshalYAML(n *yaml.Node) error {
	var tmp map[string]any
	if err := n.Decode(&tmp); err != nil {
		return err
	}
	if tmp == nil {
		tmp = map[string]any{}
	}
	*o = Options(tmp)
	return nil
}
