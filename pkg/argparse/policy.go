// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argparse

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ErrorPolicy decides what Parse does with the errors collected while
// tokenizing and binding.
type ErrorPolicy int

const (
	// DisplayHelpAndExit prints every error, a blank line and the help text,
	// then exits with status 2. It is the default.
	DisplayHelpAndExit ErrorPolicy = iota
	// ThrowIfAnyError returns an *AggregateError when any error was collected.
	ThrowIfAnyError
	// ThrowIfMissingRequired returns an *AggregateError only when a required
	// argument is missing. Other errors are reported in the result.
	ThrowIfMissingRequired
	// ThrowNever reports errors in the result and never returns an error.
	ThrowNever
	// ReportOnly behaves like ThrowNever.
	ReportOnly
)

// Aggregate error messages.
const (
	msgAnyError        = "one or more errors occurred"
	msgMissingRequired = "one or more required arguments missing"
)

var policyNames = []string{
	DisplayHelpAndExit:     "display-help-and-exit",
	ThrowIfAnyError:        "throw-if-any-error",
	ThrowIfMissingRequired: "throw-if-missing-required",
	ThrowNever:             "throw-never",
	ReportOnly:             "report-only",
}

func (p ErrorPolicy) String() string {
	if p >= 0 && int(p) < len(policyNames) {
		return policyNames[p]
	}
	return fmt.Sprintf("ErrorPolicy(%d)", int(p))
}

// ParseErrorPolicy parses a policy name such as "throw-if-any-error". Case,
// dashes and underscores are ignored, so "ThrowIfAnyError" also works.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	want := foldFieldName(s)
	for i, name := range policyNames {
		if foldFieldName(name) == want {
			return ErrorPolicy(i), nil
		}
	}
	return 0, fmt.Errorf("unknown error policy %q (want one of %s)", s, strings.Join(policyNames, ", "))
}

func (p ErrorPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *ErrorPolicy) UnmarshalText(b []byte) error {
	v, err := ParseErrorPolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// escalate returns the error a throwing policy raises for errs, or nil.
// DisplayHelpAndExit is handled by the Parser.
func (p ErrorPolicy) escalate(errs []*Error) error {
	if len(errs) == 0 {
		return nil
	}
	switch p {
	case ThrowIfAnyError:
		return &AggregateError{Msg: msgAnyError, Errors: errs}
	case ThrowIfMissingRequired:
		if HasKind(errs, KindMissingRequired) {
			return &AggregateError{Msg: msgMissingRequired, Errors: errs}
		}
	}
	return nil
}

// writeErrors prints each error on its own line followed by a blank line and
// the help text.
func writeErrors(w io.Writer, errs []*Error, help string) {
	red := color.New(color.FgRed).SprintFunc()
	for _, err := range errs {
		fmt.Fprintln(w, red(err.Error()))
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, help)
}
