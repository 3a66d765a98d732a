package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure by the stage that produced it.
type ErrorKind string

// Error kinds. Environment errors are fatal to the run; every other kind
// is recorded against a single job.
const (
	KindEnvironment         ErrorKind = "environment"
	KindQuery               ErrorKind = "query"
	KindShape               ErrorKind = "shape"
	KindRender              ErrorKind = "render"
	KindMissingPrerequisite ErrorKind = "missing_prerequisite"
)

// ErrEmptyResult marks a job whose input was empty. The job is reported as
// skipped and produces no artifact.
var ErrEmptyResult = errors.New("empty result")

// Error is a classified failure.
type Error struct {
	Kind ErrorKind
	// Job is the job id, empty for run-level failures.
	Job string
	// Op names the failing step (query name, output file, ...).
	Op  string
	Err error
}

func (e *Error) Error() string {
	msg := string(e.Kind) + " error"
	if e.Job != "" {
		msg = e.Job + ": " + msg
	}
	if e.Op != "" {
		msg += " in " + e.Op
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds an Error of the given kind with a formatted cause.
func Errorf(kind ErrorKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies err. A nil err stays nil; an err that already carries a
// kind keeps it.
func Wrap(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind carried by err, or "" when err is unclassified.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
