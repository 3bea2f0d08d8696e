// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argparse

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// OptionSpec describes a named argument that takes a value:
// "-o value" or "--output value".
type OptionSpec struct {
	Short       string // at most one character
	Long        string
	Description string
	Required    bool
	Type        ValueType // defaults to TypeString
	// Field is the struct field filled by a typed parser. Optional.
	Field string
}

// ID returns the name used to key the option in Values: the long name if
// present, otherwise the short name.
func (o OptionSpec) ID() string { return entryID(o.Short, o.Long) }

// Key returns the display key, "s | long" when both names exist.
func (o OptionSpec) Key() string { return displayKey(o.Short, o.Long) }

// FlagSpec describes a valueless, repeatable argument: "-v", "-vv", "--verbose".
// Flags are never required.
type FlagSpec struct {
	Short       string
	Long        string
	Description string
	Type        ValueType // TypeBool (default) or a registered enum
	Field       string
}

// ID returns the name used to key the flag in Values.
func (f FlagSpec) ID() string { return entryID(f.Short, f.Long) }

// Key returns the display key, "s | long" when both names exist.
func (f FlagSpec) Key() string { return displayKey(f.Short, f.Long) }

// Canonical returns the identity used to aggregate repeated occurrences:
// the short name when there is one, otherwise the long name.
func (f FlagSpec) Canonical() string {
	if f.Short != "" {
		return f.Short
	}
	return f.Long
}

// PositionalSpec describes an argument identified by its ordinal position.
type PositionalSpec struct {
	Position    int
	Name        string // used in help and error output only
	Description string
	Required    bool
	Type        ValueType // defaults to TypeString
	Field       string
}

// Key returns "Position N".
func (p PositionalSpec) Key() string { return fmt.Sprintf("Position %d", p.Position) }

func entryID(short, long string) string {
	if long != "" {
		return long
	}
	return short
}

func displayKey(short, long string) string {
	switch {
	case short != "" && long != "":
		return short + " | " + long
	case short != "":
		return short
	default:
		return long
	}
}

// Spec is the immutable declared shape of all recognized arguments. Build
// one with a Builder; it is safe to share between goroutines.
type Spec struct {
	program     string
	options     []OptionSpec
	flags       []FlagSpec
	positionals []PositionalSpec
}

// Program returns the program name used in help output.
func (s *Spec) Program() string { return s.program }

// Options returns a copy of the declared options in declaration order.
func (s *Spec) Options() []OptionSpec { return slices.Clone(s.options) }

// Flags returns a copy of the declared flags in declaration order.
func (s *Spec) Flags() []FlagSpec { return slices.Clone(s.flags) }

// Positionals returns a copy of the declared positionals in declaration order.
func (s *Spec) Positionals() []PositionalSpec { return slices.Clone(s.positionals) }

// option finds an option by short or long name.
func (s *Spec) option(name string) (OptionSpec, bool) {
	for _, o := range s.options {
		if (o.Short != "" && o.Short == name) || (o.Long != "" && o.Long == name) {
			return o, true
		}
	}
	return OptionSpec{}, false
}

// flag finds a flag by its canonical name.
func (s *Spec) flag(canonical string) (FlagSpec, bool) {
	for _, f := range s.flags {
		if f.Canonical() == canonical {
			return f, true
		}
	}
	return FlagSpec{}, false
}

func (s *Spec) positional(pos int) (PositionalSpec, bool) {
	for _, p := range s.positionals {
		if p.Position == pos {
			return p, true
		}
	}
	return PositionalSpec{}, false
}

// sortedPositionals returns the positionals ordered by position.
func (s *Spec) sortedPositionals() []PositionalSpec {
	ps := slices.Clone(s.positionals)
	slices.SortStableFunc(ps, func(a, b PositionalSpec) int {
		return a.Position - b.Position
	})
	return ps
}

// withFlag returns a copy of s with f appended to its flags.
func (s *Spec) withFlag(f FlagSpec) *Spec {
	c := *s
	c.flags = append(slices.Clone(s.flags), f)
	return &c
}

// Builder assembles a Spec. Per-entry naming rules are checked as entries are
// added; cross-entry consistency is checked by Validate when a Parser is built.
//
//	spec, err := argparse.NewBuilder("greet").
//	    Option(argparse.OptionSpec{Short: "o", Long: "output", Required: true}).
//	    Flag(argparse.FlagSpec{Short: "v", Long: "verbose"}).
//	    Positional(argparse.PositionalSpec{Position: 0, Name: "input"}).
//	    Build()
type Builder struct {
	spec Spec
	errs []error
}

// NewBuilder returns a Builder for a program with the given name.
func NewBuilder(program string) *Builder {
	return &Builder{spec: Spec{program: program}}
}

// Option adds an option.
func (b *Builder) Option(o OptionSpec) *Builder {
	if err := checkNames("option", o.Short, o.Long); err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	if o.Type == "" {
		o.Type = TypeString
	}
	b.spec.options = append(b.spec.options, o)
	return b
}

// Flag adds a flag.
func (b *Builder) Flag(f FlagSpec) *Builder {
	if err := checkNames("flag", f.Short, f.Long); err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	if f.Type == "" {
		f.Type = TypeBool
	}
	b.spec.flags = append(b.spec.flags, f)
	return b
}

// Positional adds a positional argument.
func (b *Builder) Positional(p PositionalSpec) *Builder {
	if p.Type == "" {
		p.Type = TypeString
	}
	b.spec.positionals = append(b.spec.positionals, p)
	return b
}

// Build returns the Spec, or the joined naming errors recorded while adding
// entries.
func (b *Builder) Build() (*Spec, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	s := b.spec
	s.options = slices.Clone(s.options)
	s.flags = slices.Clone(s.flags)
	s.positionals = slices.Clone(s.positionals)
	return &s, nil
}

func checkNames(kind, short, long string) error {
	if short == "" && long == "" {
		return fmt.Errorf("%s needs a short or long name", kind)
	}
	if utf8.RuneCountInString(short) > 1 {
		return fmt.Errorf("%s short name %q must be a single character", kind, short)
	}
	if short == "-" || strings.HasPrefix(long, "-") {
		return fmt.Errorf("%s name %q must not start with '-'", kind, displayKey(short, long))
	}
	if strings.ContainsAny(long, " \t") {
		return fmt.Errorf("%s long name %q must not contain whitespace", kind, long)
	}
	return nil
}
