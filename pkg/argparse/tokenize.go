// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argparse

import (
	"slices"
	"strings"

	"tailscale.com/util/mak"
)

// flagCounter counts flag occurrences for a single Tokenize call.
type flagCounter struct {
	order  []string // canonical names in first-seen order
	counts map[string]int
}

func (c *flagCounter) inc(name string) {
	n, seen := c.counts[name]
	if !seen {
		c.order = append(c.order, name)
	}
	mak.Set(&c.counts, name, n+1)
}

func (c *flagCounter) tokens() []Token {
	out := make([]Token, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, &FlagToken{Name: name, Level: c.counts[name]})
	}
	return out
}

// tokenizer holds the state of one Tokenize call.
type tokenizer struct {
	argv        []string
	options     []OptionSpec
	flags       []FlagSpec
	positionals []PositionalSpec // sorted by position

	i       int // index of the element being scanned
	nextPos int // next unfilled positional slot
	counter flagCounter
	tokens  []Token
	errs    []*Error
}

// Tokenize scans argv left to right against the given declarations.
//
// Options consume the following element as their value whatever it looks
// like. Flags are counted under their canonical name (short name if any,
// otherwise long) and emitted after the scan, one FlagToken per flag, so the
// result lists options and positionals in input order followed by all flags.
// A bare "--" is an unknown argument like any other undeclared long name.
//
// Tokenize keeps no state between calls and is safe for concurrent use.
func Tokenize(argv []string, options []OptionSpec, flags []FlagSpec, positionals []PositionalSpec) ([]Token, []*Error) {
	t := &tokenizer{
		argv:        argv,
		options:     options,
		flags:       flags,
		positionals: slices.Clone(positionals),
	}
	slices.SortStableFunc(t.positionals, func(a, b PositionalSpec) int {
		return a.Position - b.Position
	})
	t.run()
	return t.tokens, t.errs
}

func (t *tokenizer) run() {
	for t.i = 0; t.i < len(t.argv); t.i++ {
		arg := t.argv[t.i]
		switch {
		case strings.HasPrefix(arg, "--"):
			t.long(arg[2:])
		case strings.HasPrefix(arg, "-") && arg != "-":
			t.short(arg[1:])
		default:
			t.positional(arg)
		}
	}
	t.tokens = append(t.tokens, t.counter.tokens()...)
}

func (t *tokenizer) long(name string) {
	// Short-only entries have an empty long name that "--" must not match.
	if name != "" {
		if _, ok := t.findOption(func(o OptionSpec) bool { return o.Long == name }); ok {
			t.optionValue(name, "--"+name)
			return
		}
		if f, ok := t.findFlag(func(f FlagSpec) bool { return f.Long == name }); ok {
			t.counter.inc(f.Canonical())
			return
		}
	}
	t.errs = append(t.errs, newError(KindUnknownArgument, "--"+name, "", "Unknown argument '--%s'", name))
}

func (t *tokenizer) short(group string) {
	chars := []rune(group)
	for j, r := range chars {
		name := string(r)
		last := j == len(chars)-1
		if f, ok := t.findFlag(func(f FlagSpec) bool { return f.Short == name }); ok {
			t.counter.inc(f.Short)
			continue
		}
		if !last {
			t.errs = append(t.errs, newError(KindUnexpectedFlag, "-"+name, "", "Unexpected flag '-%s'", name))
			continue
		}
		if _, ok := t.findOption(func(o OptionSpec) bool { return o.Short == name }); ok {
			t.optionValue(name, "-"+name)
			continue
		}
		t.errs = append(t.errs, newError(KindUnknownFlag, "-"+name, "", "Unknown flag '-%s'", name))
	}
}

// optionValue consumes the next element as the value of the named option.
func (t *tokenizer) optionValue(name, written string) {
	if t.i+1 >= len(t.argv) {
		t.errs = append(t.errs, newError(KindMissingValue, written, "", "Option '%s' requires a value", written))
		return
	}
	t.i++
	t.tokens = append(t.tokens, &OptionToken{Name: name, Value: t.argv[t.i]})
}

func (t *tokenizer) positional(arg string) {
	if t.nextPos >= len(t.positionals) {
		t.errs = append(t.errs, newError(KindExtraPositional, "", arg, "Unexpected positional argument '%s'", arg))
		return
	}
	t.tokens = append(t.tokens, &PositionalToken{Position: t.positionals[t.nextPos].Position, Value: arg})
	t.nextPos++
}

func (t *tokenizer) findOption(match func(OptionSpec) bool) (OptionSpec, bool) {
	i := slices.IndexFunc(t.options, match)
	if i < 0 {
		return OptionSpec{}, false
	}
	return t.options[i], true
}

func (t *tokenizer) findFlag(match func(FlagSpec) bool) (FlagSpec, bool) {
	i := slices.IndexFunc(t.flags, match)
	if i < 0 {
		return FlagSpec{}, false
	}
	return t.flags[i], true
}
