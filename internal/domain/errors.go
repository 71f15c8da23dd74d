package domain

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	ErrDataFormat       = errors.New("data format error")
	ErrParse            = errors.New("parse error")
	ErrInsufficientData = errors.New("insufficient data")
	ErrConvergence      = errors.New("model did not converge")
	ErrFit              = errors.New("model fit failed")
	ErrAlignment        = errors.New("forecast alignment mismatch")
)

// DataFormatError reports an input file whose delimiter or header does not
// match the expected layout.
type DataFormatError struct {
	Line   int
	Reason string
}

func (e *DataFormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("data format: line %d: %s", e.Line, e.Reason)
	}
	return "data format: " + e.Reason
}

func (e *DataFormatError) Unwrap() error { return ErrDataFormat }

// ParseError reports a malformed field on a specific line.
type ParseError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse: line %d: field %s: %q: %v", e.Line, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

// InsufficientDataError reports a series too short to split or fit.
type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: have %d records, need at least %d", e.Have, e.Need)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// ConvergenceError reports a model whose estimation produced no usable
// parameters.
type ConvergenceError struct {
	Model  string
	Reason string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s: did not converge: %s", e.Model, e.Reason)
}

func (e *ConvergenceError) Unwrap() error { return ErrConvergence }

// FitError reports any other model fitting failure.
type FitError struct {
	Model string
	Err   error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("%s: fit: %v", e.Model, e.Err)
}

func (e *FitError) Unwrap() []error { return []error{ErrFit, e.Err} }

// AlignmentError reports a forecast whose length or timestamp grid does not
// match the test partition.
type AlignmentError struct {
	Model  string
	Reason string
}

func (e *AlignmentError) Error() string {
	if e.Model == "" {
		return "alignment: " + e.Reason
	}
	return fmt.Sprintf("%s: alignment: %s", e.Model, e.Reason)
}

func (e *AlignmentError) Unwrap() error { return ErrAlignment }
