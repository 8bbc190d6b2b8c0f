package domain

import (
	"fmt"
	"strings"
)

// InputError reports a transaction record the engine cannot accept. Row is
// 1-based and only set when the record came from a tabular source.
type InputError struct {
	Row           int
	Field         string
	Reason        string
	TransactionID string
}

func (e *InputError) Error() string {
	var b strings.Builder
	b.WriteString("invalid input")
	if e.Row > 0 {
		fmt.Fprintf(&b, " at row %d", e.Row)
	}
	if e.TransactionID != "" {
		fmt.Fprintf(&b, " (transaction %s)", e.TransactionID)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": %s %s", e.Field, e.Reason)
	} else if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	return b.String()
}

// DetectorError records the failure of a single detector.
type DetectorError struct {
	Detector string
	Err      error
}

func (e *DetectorError) Error() string {
	return fmt.Sprintf("detector %s: %v", e.Detector, e.Err)
}

func (e *DetectorError) Unwrap() error {
	return e.Err
}

// DetectionError groups every detector that failed during one run.
type DetectionError struct {
	Failures []*DetectorError
}

func (e *DetectionError) Error() string {
	if len(e.Failures) == 1 {
		return e.Failures[0].Error()
	}
	msg := "multiple detectors failed:"
	for _, f := range e.Failures {
		msg += " " + f.Error() + ";"
	}
	return msg
}

// Detectors lists the names of the failed detectors.
func (e *DetectionError) Detectors() []string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, f.Detector)
	}
	return names
}

func (e *DetectionError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}
