// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argparse

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a recoverable parse-time error.
type ErrorKind int

const (
	KindUnknownArgument ErrorKind = iota + 1 // --name matches nothing
	KindUnexpectedFlag                       // option letter inside a short bundle
	KindUnknownFlag                          // -x matches nothing
	KindMissingValue                         // option at the end of argv
	KindExtraPositional                      // more bare arguments than slots
	KindInvalidValue                         // converter rejected the value
	KindMissingRequired                      // required option/positional absent
)

// Sentinel errors matching each ErrorKind through errors.Is.
var (
	ErrUnknownArgument = errors.New("unknown argument")
	ErrUnexpectedFlag  = errors.New("unexpected flag")
	ErrUnknownFlag     = errors.New("unknown flag")
	ErrMissingValue    = errors.New("missing value")
	ErrExtraPositional = errors.New("extra positional argument")
	ErrInvalidValue    = errors.New("invalid value")
	ErrMissingRequired = errors.New("missing required argument")

	// ErrShown is returned by Parse when help or errors were written to the
	// output and the exit function returned instead of terminating the process.
	ErrShown = errors.New("help or errors displayed")

	// ErrRegistrySealed is returned when registering a converter after a
	// Parser has been built from the registry.
	ErrRegistrySealed = errors.New("converter registry is sealed")
)

var kindSentinels = map[ErrorKind]error{
	KindUnknownArgument: ErrUnknownArgument,
	KindUnexpectedFlag:  ErrUnexpectedFlag,
	KindUnknownFlag:     ErrUnknownFlag,
	KindMissingValue:    ErrMissingValue,
	KindExtraPositional: ErrExtraPositional,
	KindInvalidValue:    ErrInvalidValue,
	KindMissingRequired: ErrMissingRequired,
}

func (k ErrorKind) String() string {
	if err, ok := kindSentinels[k]; ok {
		return err.Error()
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a single recoverable problem found while tokenizing or binding.
// Errors are collected, never returned one at a time; the configured
// ErrorPolicy decides whether they escalate.
type Error struct {
	Kind ErrorKind
	// Name is the argument as written ("-x", "--output"), the canonical key
	// for MissingRequired ("o | output", "Position 0"), or empty.
	Name string
	// Value is the raw string that triggered the error, if any.
	Value string
	// Err is the converter error behind an InvalidValue.
	Err error

	msg string
}

func newError(kind ErrorKind, name, value, format string, args ...any) *Error {
	return &Error{
		Kind:  kind,
		Name:  name,
		Value: value,
		msg:   fmt.Sprintf(format, args...),
	}
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && target == s
}

// AggregateError is returned by the throwing error policies. It wraps every
// collected *Error so errors.Is and errors.As see through it.
type AggregateError struct {
	Msg    string
	Errors []*Error
}

func (e *AggregateError) Error() string {
	var b strings.Builder
	b.WriteString(e.Msg)
	for i, err := range e.Errors {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(err.Error())
	}
	return b.String()
}

func (e *AggregateError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

// HasKind reports whether any error in errs is of the given kind.
func HasKind(errs []*Error, kind ErrorKind) bool {
	for _, err := range errs {
		if err.Kind == kind {
			return true
		}
	}
	return false
}
