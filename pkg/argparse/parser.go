// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argparse

import (
	"fmt"
	"io"
	"os"
	"reflect"

	"tailscale.com/types/lazy"
	"tailscale.com/types/logger"
)

// HelpMode controls the built-in help flag.
type HelpMode int

const (
	// HelpFlagAndHandler adds the help flag; when it is given, Parse prints
	// the help text and exits with status 0. It is the default.
	HelpFlagAndHandler HelpMode = iota
	// HelpFlagOnly adds the help flag and reports it in HelpRequested.
	HelpFlagOnly
	// HelpDisabled adds no help flag.
	HelpDisabled
)

var helpModeNames = []string{
	HelpFlagAndHandler: "flag-and-handler",
	HelpFlagOnly:       "flag-only",
	HelpDisabled:       "disabled",
}

func (m HelpMode) String() string {
	if m >= 0 && int(m) < len(helpModeNames) {
		return helpModeNames[m]
	}
	return fmt.Sprintf("HelpMode(%d)", int(m))
}

// ParseHelpMode parses a help mode name such as "flag-only".
func ParseHelpMode(s string) (HelpMode, error) {
	want := foldFieldName(s)
	for i, name := range helpModeNames {
		if foldFieldName(name) == want {
			return HelpMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown help mode %q", s)
}

func (m *HelpMode) UnmarshalText(b []byte) error {
	v, err := ParseHelpMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (m HelpMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Default help flag names.
const (
	DefaultHelpShort = "h"
	DefaultHelpLong  = "help"
)

type config struct {
	reg     *Registry
	policy  ErrorPolicy
	stdout  io.Writer
	stderr  io.Writer
	exit    func(code int)
	logf    logger.Logf
	program string

	helpMode  HelpMode
	helpShort string
	helpLong  string
	helpText  string // replaces the rendered help
}

// Option configures a Parser.
type Option func(*config)

// WithRegistry sets the converter registry. It is sealed by New.
func WithRegistry(r *Registry) Option {
	return func(c *config) { c.reg = r }
}

// WithPolicy sets the error policy. The default is DisplayHelpAndExit.
func WithPolicy(p ErrorPolicy) Option {
	return func(c *config) { c.policy = p }
}

// WithOutput sends help and error output to w instead of stdout and stderr.
func WithOutput(w io.Writer) Option {
	return func(c *config) { c.stdout, c.stderr = w, w }
}

// WithExit replaces os.Exit for DisplayHelpAndExit and the help handler.
// If fn returns, Parse returns ErrShown.
func WithExit(fn func(code int)) Option {
	return func(c *config) { c.exit = fn }
}

// WithLogf sets a debug logger. The default discards.
func WithLogf(logf logger.Logf) Option {
	return func(c *config) { c.logf = logf }
}

// WithProgram overrides the Spec's program name in help output.
func WithProgram(name string) Option {
	return func(c *config) { c.program = name }
}

// WithHelpText replaces the generated help with text. Empty text keeps the
// generated help.
func WithHelpText(text string) Option {
	return func(c *config) { c.helpText = text }
}

// WithHelp configures the built-in help flag. Empty names keep the defaults.
func WithHelp(mode HelpMode, short, long string) Option {
	return func(c *config) {
		c.helpMode = mode
		if short != "" || long != "" {
			c.helpShort, c.helpLong = short, long
		}
	}
}

// Parser parses argument vectors against a validated Spec. It is safe for
// concurrent use.
type Parser struct {
	spec     *Spec // includes the help flag
	cfg      config
	helpFlag FlagSpec // zero when help is disabled
	help     lazy.SyncValue[string]
}

// Result is the outcome of Parser.Parse.
type Result struct {
	Values Values
	// Errors lists every recoverable error in the order found: tokenizer
	// errors first, then binder errors.
	Errors []*Error
	// HelpRequested reports that the help flag was given.
	HelpRequested bool
}

// New validates spec and returns a Parser for it. It returns a *SpecError
// listing every problem when validation fails.
func New(spec *Spec, opts ...Option) (*Parser, error) {
	return newParser(spec, nil, opts)
}

func newParser(spec *Spec, target reflect.Type, opts []Option) (*Parser, error) {
	cfg := config{
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		exit:      os.Exit,
		logf:      logger.Discard,
		helpShort: DefaultHelpShort,
		helpLong:  DefaultHelpLong,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.reg == nil {
		cfg.reg = NewRegistry()
	}
	if cfg.program == "" {
		cfg.program = spec.Program()
	}

	p := &Parser{spec: spec, cfg: cfg}
	if cfg.helpMode != HelpDisabled {
		p.helpFlag = FlagSpec{
			Short:       cfg.helpShort,
			Long:        cfg.helpLong,
			Description: "Show this help text",
			Type:        TypeBool,
		}
		if err := checkNames("help flag", p.helpFlag.Short, p.helpFlag.Long); err != nil {
			return nil, err
		}
		p.spec = spec.withFlag(p.helpFlag)
	}

	diags := Validate(p.spec, cfg.reg)
	if target != nil {
		diags = append(diags, checkFields(p.spec, cfg.reg, target, p.helpCanonical())...)
	}
	if len(diags) > 0 {
		return nil, &SpecError{Diagnostics: diags}
	}
	cfg.reg.Seal()
	cfg.logf("argparse: parser for %q: %d options, %d flags, %d positionals",
		cfg.program, len(p.spec.options), len(p.spec.flags), len(p.spec.positionals))
	return p, nil
}

func (p *Parser) helpCanonical() string {
	if p.cfg.helpMode == HelpDisabled {
		return ""
	}
	return p.helpFlag.Canonical()
}

// Spec returns the Spec the parser uses, including the help flag.
func (p *Parser) Spec() *Spec { return p.spec }

// Registry returns the sealed converter registry.
func (p *Parser) Registry() *Registry { return p.cfg.reg }

// Policy returns the configured error policy.
func (p *Parser) Policy() ErrorPolicy { return p.cfg.policy }

// Help returns the help text set with WithHelpText, or else the rendered
// help. It is computed once.
func (p *Parser) Help() string {
	return p.help.Get(func() string {
		if p.cfg.helpText != "" {
			return p.cfg.helpText
		}
		return RenderHelp(p.spec, p.cfg.program)
	})
}

// Parse tokenizes and binds argv. The returned Result is never nil.
//
// The error is nil unless the policy escalates: the throwing policies return
// an *AggregateError, and DisplayHelpAndExit or the help handler return
// ErrShown if the exit function returns.
func (p *Parser) Parse(argv []string) (*Result, error) {
	tokens, errs := Tokenize(argv, p.spec.options, p.spec.flags, p.spec.positionals)
	vals, bindErrs := Bind(tokens, p.spec, p.cfg.reg)
	errs = append(errs, bindErrs...)

	res := &Result{Values: vals, Errors: errs}
	if p.helpCanonical() != "" {
		if _, ok := vals.Flags[p.helpFlag.ID()]; ok {
			res.HelpRequested = true
			delete(vals.Flags, p.helpFlag.ID())
		}
	}
	p.cfg.logf("argparse: %s: %d args, %d tokens, %d errors", p.cfg.program, len(argv), len(tokens), len(errs))

	if res.HelpRequested && p.cfg.helpMode == HelpFlagAndHandler {
		fmt.Fprint(p.cfg.stdout, p.Help())
		p.cfg.exit(0)
		return res, ErrShown
	}
	if p.cfg.policy == DisplayHelpAndExit {
		if len(errs) == 0 {
			return res, nil
		}
		writeErrors(p.cfg.stderr, errs, p.Help())
		p.cfg.exit(2)
		return res, ErrShown
	}
	return res, p.cfg.policy.escalate(errs)
}

// Typed is a Parser that fills a struct of type T.
type Typed[T any] struct {
	p *Parser
}

// ParseResult is the outcome of Typed.Parse.
type ParseResult[T any] struct {
	Value         T
	Errors        []*Error
	HelpRequested bool
}

// NewTyped is like New but also checks that T is a struct whose fields can
// hold every entry's value. An entry is bound to the field named by its Field,
// or else to the field whose name matches its ID (or positional Name)
// ignoring case, dashes and underscores.
func NewTyped[T any](spec *Spec, opts ...Option) (*Typed[T], error) {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("argparse: typed parser target %s is not a struct", t)
	}
	p, err := newParser(spec, t, opts)
	if err != nil {
		return nil, err
	}
	return &Typed[T]{p: p}, nil
}

// Parser returns the underlying untyped parser.
func (t *Typed[T]) Parser() *Parser { return t.p }

// Parse parses argv into a new T. Entries without a value leave their field
// at its zero value. Errors follow Parser.Parse.
func (t *Typed[T]) Parse(argv []string) (ParseResult[T], error) {
	res, err := t.p.Parse(argv)
	var out ParseResult[T]
	bindStruct(reflect.ValueOf(&out.Value).Elem(), t.p.spec, res.Values, t.p.helpCanonical())
	out.Errors = res.Errors
	out.HelpRequested = res.HelpRequested
	return out, err
}
