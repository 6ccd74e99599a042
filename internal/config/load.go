package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default file names of the two samples, relative to the working directory.
const (
	DefaultSampleA = "SampleData1.csv"
	DefaultSampleB = "SampleData2.csv"
)

// Default returns the configuration used when no file is given: two local
// CSV files, threshold 0.8, 1000 hashed features, one worker per CPU and
// 10 MiB chunks.
func Default() Run {
	return Run{
		Job:     "colmatch",
		SampleA: Source{Kind: "file", Path: DefaultSampleA},
		SampleB: Source{Kind: "file", Path: DefaultSampleB},
		Parser:  Parser{Kind: "csv", Options: Options{}},
		Compare: Compare{
			Threshold:     0.8,
			Features:      1000,
			Aggregate:     "exact",
			NumericLength: "strict",
		},
		Runtime: RuntimeConfig{
			Workers:    runtime.NumCPU(),
			ChunkBytes: 10 << 20,
			Dispatch:   "gather",
		},
		Metrics: Metrics{Backend: "none"},
	}
}

// Load reads a run file on top of Default. Files ending in .yaml or .yml
// are decoded as YAML; anything else as JSON. Unknown fields are an error.
func Load(path string) (Run, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Run{}, fmt.Errorf("read config: %w", err)
	}
	r, err := Decode(b, formatOf(path))
	if err != nil {
		return Run{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return r, nil
}

// Format is a config file encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	}
	return JSON
}

// Decode parses b in format f on top of Default.
func Decode(b []byte, f Format) (Run, error) {
	r := Default()
	switch f {
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&r); err != nil && !errors.Is(err, io.EOF) {
			return Run{}, err
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&r); err != nil {
			return Run{}, err
		}
	}
	if r.Parser.Options == nil {
		r.Parser.Options = Options{}
	}
	return r, nil
}
