// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argparse

import (
	"fmt"
	"reflect"
	"strings"

	"tailscale.com/util/set"
)

// DiagnosticKind classifies a problem with a Spec.
type DiagnosticKind int

const (
	DiagDuplicateName     DiagnosticKind = iota + 1 // short or long name used twice across options and flags
	DiagDuplicatePosition                           // two positionals share a position
	DiagInvalidPosition                             // position outside [0, len(positionals))
	DiagUnsupportedType                             // no converter registered for the type
	DiagFlagTypeMismatch                            // flag type is neither bool nor an enum
	DiagFieldMismatch                               // typed parser: no field, or field cannot hold the value
)

// Diagnostic is one problem found by Validate.
type Diagnostic struct {
	Kind DiagnosticKind
	// NameKind is "short", "long" or "short/long" for DiagDuplicateName.
	NameKind string
	Name     string
	Position int
	Type     ValueType
	Field    string
}

func (d Diagnostic) String() string {
	switch d.Kind {
	case DiagDuplicateName:
		return fmt.Sprintf("duplicate %s name %q in options and flags", d.NameKind, d.Name)
	case DiagDuplicatePosition:
		return fmt.Sprintf("duplicate positional position %d", d.Position)
	case DiagInvalidPosition:
		return fmt.Sprintf("invalid positional position %d: positions must be non-negative and less than the number of positionals", d.Position)
	case DiagUnsupportedType:
		return fmt.Sprintf("%s: unsupported type %q", d.Name, d.Type)
	case DiagFlagTypeMismatch:
		return fmt.Sprintf("flag %s: type %q must be bool or an enum", d.Name, d.Type)
	case DiagFieldMismatch:
		return fmt.Sprintf("%s: field %q cannot hold a %s value", d.Name, d.Field, d.Type)
	}
	return fmt.Sprintf("diagnostic(%d) %s", int(d.Kind), d.Name)
}

// SpecError is returned when a Spec fails validation. It lists every
// diagnostic, not only the first.
type SpecError struct {
	Diagnostics []Diagnostic
}

func (e *SpecError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = d.String()
	}
	return "invalid argument spec: " + strings.Join(msgs, "; ")
}

// Has reports whether e holds a diagnostic of the given kind.
func (e *SpecError) Has(kind DiagnosticKind) bool {
	for _, d := range e.Diagnostics {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// Validate checks the cross-entry consistency of spec against the converters
// in reg and returns every problem found. An empty result means a Parser can
// be built.
func Validate(spec *Spec, reg *Registry) []Diagnostic {
	var diags []Diagnostic
	diags = append(diags, checkDuplicateNames(spec)...)
	diags = append(diags, checkPositions(spec)...)
	diags = append(diags, checkTypes(spec, reg)...)
	return diags
}

func checkDuplicateNames(spec *Spec) []Diagnostic {
	var diags []Diagnostic
	var shorts, longs set.Set[string]
	reported := make(set.Set[string])
	seen := func(s *set.Set[string], kind, name string) {
		if name == "" {
			return
		}
		if *s == nil {
			*s = make(set.Set[string])
		}
		if s.Contains(name) {
			if !reported.Contains(kind + name) {
				reported.Add(kind + name)
				diags = append(diags, Diagnostic{Kind: DiagDuplicateName, NameKind: kind, Name: name})
			}
			return
		}
		s.Add(name)
	}
	type names struct{ short, long string }
	var entries []names
	for _, o := range spec.options {
		seen(&shorts, "short", o.Short)
		seen(&longs, "long", o.Long)
		entries = append(entries, names{o.Short, o.Long})
	}
	for _, f := range spec.flags {
		seen(&shorts, "short", f.Short)
		seen(&longs, "long", f.Long)
		entries = append(entries, names{f.Short, f.Long})
	}

	// A short name may not be another entry's long name: "--x" and "-x"
	// would both resolve by the bare name x.
	for i, a := range entries {
		if a.short == "" {
			continue
		}
		for j, b := range entries {
			if i == j || b.long != a.short || reported.Contains("short/long"+a.short) {
				continue
			}
			reported.Add("short/long" + a.short)
			diags = append(diags, Diagnostic{Kind: DiagDuplicateName, NameKind: "short/long", Name: a.short})
		}
	}
	return diags
}

func checkPositions(spec *Spec) []Diagnostic {
	var diags []Diagnostic
	positions := make(set.Set[int])
	dup := make(set.Set[int])
	for _, p := range spec.positionals {
		if positions.Contains(p.Position) {
			if !dup.Contains(p.Position) {
				dup.Add(p.Position)
				diags = append(diags, Diagnostic{Kind: DiagDuplicatePosition, Position: p.Position})
			}
		} else {
			positions.Add(p.Position)
		}
		if p.Position < 0 || p.Position >= len(spec.positionals) {
			diags = append(diags, Diagnostic{Kind: DiagInvalidPosition, Position: p.Position})
		}
	}
	return diags
}

func checkTypes(spec *Spec, reg *Registry) []Diagnostic {
	var diags []Diagnostic
	unsupported := func(name string, t ValueType) bool {
		if _, ok := reg.Lookup(t); ok {
			return false
		}
		diags = append(diags, Diagnostic{Kind: DiagUnsupportedType, Name: name, Type: t})
		return true
	}
	for _, o := range spec.options {
		unsupported("option "+o.Key(), o.Type)
	}
	for _, p := range spec.positionals {
		unsupported("positional "+p.Key(), p.Type)
	}
	for _, f := range spec.flags {
		if unsupported("flag "+f.Key(), f.Type) {
			continue
		}
		if _, isEnum := reg.Enum(f.Type); f.Type != TypeBool && !isEnum {
			diags = append(diags, Diagnostic{Kind: DiagFlagTypeMismatch, Name: f.Key(), Type: f.Type})
		}
	}
	return diags
}

// checkFields verifies that every entry of spec maps onto a settable field of
// the struct type t that can hold its converted value. skip names a flag
// (by canonical name) that is not bound to a field.
func checkFields(spec *Spec, reg *Registry, t reflect.Type, skip string) []Diagnostic {
	var diags []Diagnostic
	check := func(name, field, fallback string, vt ValueType) {
		c, ok := reg.Lookup(vt)
		if !ok {
			return // reported by checkTypes
		}
		sf, ok := structField(t, field, fallback)
		if !ok || !assignable(c.Type(), sf.Type) {
			if field == "" {
				field = fallback
			}
			diags = append(diags, Diagnostic{Kind: DiagFieldMismatch, Name: name, Field: field, Type: vt})
		}
	}
	for _, o := range spec.options {
		check(o.Key(), o.Field, o.ID(), o.Type)
	}
	for _, f := range spec.flags {
		if f.Canonical() == skip {
			continue
		}
		check(f.Key(), f.Field, f.ID(), f.Type)
	}
	for _, p := range spec.positionals {
		check(p.Key(), p.Field, p.Name, p.Type)
	}
	return diags
}
