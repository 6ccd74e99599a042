package similarity

import "fmt"

// FailureKind classifies why a pair could not be scored.
type FailureKind string

const (
	FailureEmpty          FailureKind = "empty"
	FailureZeroVector     FailureKind = "zero_vector"
	FailureLengthMismatch FailureKind = "length_mismatch"
	FailureUndefined      FailureKind = "undefined_correlation"
	FailureParse          FailureKind = "parse"
	FailurePanic          FailureKind = "panic"
)

// PairError reports a computational failure while scoring one column pair.
type PairError struct {
	ColumnA string
	ColumnB string
	Kind    FailureKind
	Err     error
}

func (e *PairError) Error() string {
	return fmt.Sprintf("score %s/%s: %s: %v", e.ColumnA, e.ColumnB, e.Kind, e.Err)
}

func (e *PairError) Unwrap() error { return e.Err }
