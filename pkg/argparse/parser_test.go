// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argparse

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type exitRecorder struct {
	codes []int
}

func (r *exitRecorder) exit(code int) { r.codes = append(r.codes, code) }

func copySpec(t *testing.T) *Spec {
	t.Helper()
	return mustBuild(t, NewBuilder("copy").
		Option(OptionSpec{Short: "o", Long: "output", Required: true, Description: "Output file"}).
		Flag(FlagSpec{Short: "v", Long: "verbose"}).
		Positional(PositionalSpec{Position: 0, Name: "src"}))
}

func TestParsePolicies(t *testing.T) {
	tests := []struct {
		name        string
		policy      ErrorPolicy
		argv        []string
		wantMsg     string // AggregateError message, "" for nil error
		wantErrKind []ErrorKind
	}{
		{
			name:        "any error throws on unknown flag",
			policy:      ThrowIfAnyError,
			argv:        []string{"-o", "x", "-z"},
			wantMsg:     msgAnyError,
			wantErrKind: []ErrorKind{KindUnknownFlag},
		},
		{
			name:   "any error is quiet without errors",
			policy: ThrowIfAnyError,
			argv:   []string{"-o", "x"},
		},
		{
			name:        "missing required ignores other errors",
			policy:      ThrowIfMissingRequired,
			argv:        []string{"-o", "x", "-z"},
			wantErrKind: []ErrorKind{KindUnknownFlag},
		},
		{
			name:        "missing required throws",
			policy:      ThrowIfMissingRequired,
			argv:        []string{"-z"},
			wantMsg:     msgMissingRequired,
			wantErrKind: []ErrorKind{KindUnknownFlag, KindMissingRequired},
		},
		{
			name:        "never",
			policy:      ThrowNever,
			argv:        []string{"a", "b"},
			wantErrKind: []ErrorKind{KindExtraPositional, KindMissingRequired},
		},
		{
			name:        "report only",
			policy:      ReportOnly,
			argv:        []string{"--output"},
			wantErrKind: []ErrorKind{KindMissingValue, KindMissingRequired},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(copySpec(t), WithPolicy(tt.policy))
			if err != nil {
				t.Fatal(err)
			}
			res, err := p.Parse(tt.argv)
			if res == nil {
				t.Fatal("Parse() returned nil result")
			}
			var gotKinds []ErrorKind
			for _, e := range res.Errors {
				gotKinds = append(gotKinds, e.Kind)
			}
			if diff := cmp.Diff(tt.wantErrKind, gotKinds); diff != "" {
				t.Errorf("error kinds mismatch (-want +got):\n%s", diff)
			}
			if tt.wantMsg == "" {
				if err != nil {
					t.Errorf("Parse() error = %v, want nil", err)
				}
				return
			}
			var agg *AggregateError
			if !errors.As(err, &agg) {
				t.Fatalf("Parse() error = %v, want *AggregateError", err)
			}
			if agg.Msg != tt.wantMsg {
				t.Errorf("Msg = %q, want %q", agg.Msg, tt.wantMsg)
			}
			if len(agg.Errors) != len(res.Errors) {
				t.Errorf("aggregate holds %d errors, result %d", len(agg.Errors), len(res.Errors))
			}
			for _, kind := range tt.wantErrKind {
				if !errors.Is(err, kindSentinels[kind]) {
					t.Errorf("errors.Is(err, %v) = false", kind)
				}
			}
		})
	}
}

func TestDisplayHelpAndExit(t *testing.T) {
	var out bytes.Buffer
	var rec exitRecorder
	p, err := New(copySpec(t), WithOutput(&out), WithExit(rec.exit))
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Parse([]string{"-x"})
	if !errors.Is(err, ErrShown) {
		t.Fatalf("Parse() error = %v, want ErrShown", err)
	}
	if diff := cmp.Diff([]int{2}, rec.codes); diff != "" {
		t.Errorf("exit codes mismatch (-want +got):\n%s", diff)
	}
	got := out.String()
	for _, want := range []string{
		"Unknown flag '-x'\n",
		"Missing required argument 'o | output'\n\n",
		p.Help(),
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if !strings.HasSuffix(got, p.Help()) {
		t.Errorf("help text is not last:\n%s", got)
	}
}

func TestDisplayHelpAndExitNoErrors(t *testing.T) {
	var out bytes.Buffer
	var rec exitRecorder
	p, err := New(copySpec(t), WithOutput(&out), WithExit(rec.exit))
	if err != nil {
		t.Fatal(err)
	}
	res, err := p.Parse([]string{"-o", "out", "-vv", "in"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if out.Len() != 0 || len(rec.codes) != 0 {
		t.Errorf("unexpected output %q or exit %v", out.String(), rec.codes)
	}
	want := Values{
		Options:     map[string]any{"output": "out"},
		Flags:       map[string]any{"verbose": true},
		Positionals: map[int]any{0: "in"},
	}
	if diff := cmp.Diff(want, res.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestHelpModes(t *testing.T) {
	t.Run("handler", func(t *testing.T) {
		var out bytes.Buffer
		var rec exitRecorder
		p, err := New(copySpec(t), WithOutput(&out), WithExit(rec.exit))
		if err != nil {
			t.Fatal(err)
		}
		res, err := p.Parse([]string{"--help"})
		if !errors.Is(err, ErrShown) {
			t.Fatalf("Parse() error = %v, want ErrShown", err)
		}
		if !res.HelpRequested {
			t.Error("HelpRequested = false")
		}
		if diff := cmp.Diff([]int{0}, rec.codes); diff != "" {
			t.Errorf("exit codes mismatch (-want +got):\n%s", diff)
		}
		if out.String() != p.Help() {
			t.Errorf("output = %q, want help only", out.String())
		}
	})
	t.Run("flag only", func(t *testing.T) {
		p, err := New(copySpec(t), WithHelp(HelpFlagOnly, "", ""), WithPolicy(ReportOnly))
		if err != nil {
			t.Fatal(err)
		}
		res, err := p.Parse([]string{"-h"})
		if err != nil {
			t.Fatal(err)
		}
		if !res.HelpRequested {
			t.Error("HelpRequested = false")
		}
		if _, ok := res.Values.Flags["help"]; ok {
			t.Error("help flag leaked into Values")
		}
	})
	t.Run("disabled", func(t *testing.T) {
		p, err := New(copySpec(t), WithHelp(HelpDisabled, "", ""), WithPolicy(ReportOnly))
		if err != nil {
			t.Fatal(err)
		}
		res, err := p.Parse([]string{"-h", "-o", "x"})
		if err != nil {
			t.Fatal(err)
		}
		if res.HelpRequested || !HasKind(res.Errors, KindUnknownFlag) {
			t.Errorf("result = %+v, want UnknownFlag and no help", res)
		}
	})
}

func TestHelpText(t *testing.T) {
	const text = "usage: copy -o OUTPUT source [dest]\n"
	tests := []struct {
		name     string
		argv     []string
		wantOut  string
		wantExit []int
	}{
		{
			name:     "help flag",
			argv:     []string{"-h"},
			wantOut:  text,
			wantExit: []int{0},
		},
		{
			name:     "after errors",
			argv:     []string{"-x"},
			wantOut:  "Unknown flag '-x'\nMissing required argument 'o | output'\n\n" + text,
			wantExit: []int{2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			var rec exitRecorder
			p, err := New(copySpec(t), WithOutput(&out), WithExit(rec.exit), WithHelpText(text))
			if err != nil {
				t.Fatal(err)
			}
			if got := p.Help(); got != text {
				t.Errorf("Help() = %q, want %q", got, text)
			}
			if _, err := p.Parse(tt.argv); !errors.Is(err, ErrShown) {
				t.Fatalf("Parse() error = %v, want ErrShown", err)
			}
			if diff := cmp.Diff(tt.wantOut, out.String()); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantExit, rec.codes); diff != "" {
				t.Errorf("exit codes mismatch (-want +got):\n%s", diff)
			}
		})
	}

	p, err := New(copySpec(t), WithHelpText(""))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := p.Help(), RenderHelp(p.Spec(), "copy"); got != want {
		t.Errorf("Help() with empty text = %q, want rendered help", got)
	}
}

func TestParseErrorPolicy(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want ErrorPolicy
	}{
		{"throw-if-any-error", ThrowIfAnyError},
		{"ThrowIfMissingRequired", ThrowIfMissingRequired},
		{"report_only", ReportOnly},
		{"DISPLAY-HELP-AND-EXIT", DisplayHelpAndExit},
	} {
		got, err := ParseErrorPolicy(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseErrorPolicy(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
		if s := got.String(); s != policyNames[tt.want] {
			t.Errorf("String() = %q", s)
		}
	}
	if _, err := ParseErrorPolicy("explode"); err == nil {
		t.Error("ParseErrorPolicy(explode) succeeded")
	}
}

type copyArgs struct {
	Output    string
	Verbosity int
	Level     string // enum name
	Retries   *int
	Timeout   time.Duration
	ID        uuid.UUID
	Source    string
	Dest      string
}

func typedSpec(t *testing.T) (*Spec, *Registry) {
	t.Helper()
	reg := NewRegistry()
	if err := reg.RegisterEnum("verbosity", "quiet", "normal", "loud"); err != nil {
		t.Fatal(err)
	}
	spec := mustBuild(t, NewBuilder("copy").
		Option(OptionSpec{Short: "o", Long: "output", Required: true}).
		Option(OptionSpec{Long: "level", Type: "verbosity"}).
		Option(OptionSpec{Short: "r", Long: "retries", Type: TypeInt}).
		Option(OptionSpec{Long: "timeout", Type: TypeDuration}).
		Option(OptionSpec{Long: "id", Type: TypeUUID}).
		Flag(FlagSpec{Short: "v", Type: "verbosity", Field: "Verbosity"}).
		Positional(PositionalSpec{Position: 0, Name: "source", Required: true}).
		Positional(PositionalSpec{Position: 1, Name: "dest"}))
	return spec, reg
}

func TestTypedParse(t *testing.T) {
	spec, reg := typedSpec(t)
	p, err := NewTyped[copyArgs](spec, WithRegistry(reg), WithPolicy(ThrowIfAnyError))
	if err != nil {
		t.Fatal(err)
	}
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	res, err := p.Parse([]string{
		"-vv", "--level", "Quiet", "src", "-r", "3",
		"--timeout", "2s", "--id", id.String(), "--output", "out", "dst",
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	three := 3
	want := copyArgs{
		Output:    "out",
		Verbosity: 2,
		Level:     "quiet",
		Retries:   &three,
		Timeout:   2 * time.Second,
		ID:        id,
		Source:    "src",
		Dest:      "dst",
	}
	if diff := cmp.Diff(want, res.Value); diff != "" {
		t.Errorf("Value mismatch (-want +got):\n%s", diff)
	}
	if len(res.Errors) != 0 {
		t.Errorf("Errors = %v", res.Errors)
	}
}

func TestTypedParseLeavesMissingZero(t *testing.T) {
	spec, reg := typedSpec(t)
	p, err := NewTyped[copyArgs](spec, WithRegistry(reg), WithPolicy(ThrowIfMissingRequired))
	if err != nil {
		t.Fatal(err)
	}
	res, err := p.Parse([]string{"-r", "many", "src"})
	if !errors.Is(err, ErrMissingRequired) || !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("Parse() error = %v, want missing -o and invalid -r", err)
	}
	want := copyArgs{Source: "src"}
	if diff := cmp.Diff(want, res.Value); diff != "" {
		t.Errorf("Value mismatch (-want +got):\n%s", diff)
	}
}

func TestTypedRejectsNonStruct(t *testing.T) {
	spec, _ := typedSpec(t)
	if _, err := NewTyped[int](spec); err == nil {
		t.Error("NewTyped[int] succeeded")
	}
}

// TestRoundTrip checks that parsing, unparsing and parsing again yields the
// same typed value.
func TestRoundTrip(t *testing.T) {
	spec, reg := typedSpec(t)
	p, err := NewTyped[copyArgs](spec, WithRegistry(reg), WithPolicy(ThrowIfAnyError))
	if err != nil {
		t.Fatal(err)
	}
	inputs := [][]string{
		{"-o", "out", "src"},
		{"--output", "-weird", "-v", "src", "dst"},
		{"-vv", "--level", "LOUD", "-r", "-4", "--timeout", "1h2m", "-o", "o", "a", "b"},
		{"--id", "6ba7b810-9dad-11d1-80b4-00c04fd430c8", "-o", "x", "-"},
	}
	for _, argv := range inputs {
		t.Run(strings.Join(argv, " "), func(t *testing.T) {
			first, err := p.Parser().Parse(argv)
			if err != nil {
				t.Fatalf("first Parse() error = %v", err)
			}
			again := Unparse(p.Parser().Spec(), first.Values, reg)
			second, err := p.Parser().Parse(again)
			if err != nil {
				t.Fatalf("second Parse(%q) error = %v", again, err)
			}
			if diff := cmp.Diff(first.Values, second.Values); diff != "" {
				t.Errorf("values changed through %q (-first +second):\n%s", again, diff)
			}

			a, _ := p.Parse(argv)
			b, _ := p.Parse(again)
			if diff := cmp.Diff(a.Value, b.Value); diff != "" {
				t.Errorf("typed value changed (-first +second):\n%s", diff)
			}
		})
	}
}

func TestRoundTripValueTypes(t *testing.T) {
	spec := mustBuild(t, NewBuilder("types").
		Option(OptionSpec{Long: "at", Type: TypeTime}).
		Option(OptionSpec{Short: "u", Long: "url", Type: TypeURL}).
		Option(OptionSpec{Long: "ratio", Type: TypeFloat32}).
		Option(OptionSpec{Long: "scale", Type: TypeFloat64}).
		Option(OptionSpec{Short: "s", Long: "sep", Type: TypeRune}).
		Option(OptionSpec{Short: "p", Long: "port", Type: TypePort}).
		Option(OptionSpec{Long: "version", Type: TypeSemver}).
		Option(OptionSpec{Long: "big", Type: TypeUint64}).
		Flag(FlagSpec{Long: "dry-run"}).
		Positional(PositionalSpec{Position: 0, Name: "when", Type: TypeTime}).
		Positional(PositionalSpec{Position: 1, Name: "offset", Type: TypeFloat64}))
	p, err := New(spec, WithPolicy(ThrowIfAnyError))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		argv []string
		want []string // canonical form
	}{
		{
			name: "time layouts",
			argv: []string{"--at", "2024-05-01", "2024-05-01 10:30:00"},
			want: []string{"--at", "2024-05-01T00:00:00Z", "2024-05-01T10:30:00Z"},
		},
		{
			name: "time with offset",
			argv: []string{"--at", "2024-05-01T10:30:00.5+02:00"},
			want: []string{"--at", "2024-05-01T10:30:00.5+02:00"},
		},
		{
			name: "url",
			argv: []string{"--url", "https://example.com/a%20b?q=1&r=2#top"},
			want: []string{"-u", "https://example.com/a%20b?q=1&r=2#top"},
		},
		{
			name: "floats",
			argv: []string{"--ratio", "0.1", "--scale", "-2.5e-8", "2024-01-02", "1e300"},
			want: []string{"--ratio", "0.1", "--scale", "-2.5e-08", "2024-01-02T00:00:00Z", "1e+300"},
		},
		{
			name: "rune",
			argv: []string{"--sep", "é"},
			want: []string{"-s", "é"},
		},
		{
			name: "port bounds",
			argv: []string{"--port", "65535"},
			want: []string{"-p", "65535"},
		},
		{
			name: "semver keeps original text",
			argv: []string{"--version", "v1.2.3-rc.1+build.5"},
			want: []string{"--version", "v1.2.3-rc.1+build.5"},
		},
		{
			name: "everything",
			argv: []string{
				"--dry-run", "-p", "0", "--big", "18446744073709551615", "-s", ":",
				"--version", "2.0", "-u", "file:///tmp/x", "--ratio", "3", "--scale", "0",
				"--at", "1999-12-31T23:59:59", "2000-01-01",
			},
			want: []string{
				"--at", "1999-12-31T23:59:59Z", "-u", "file:///tmp/x", "--ratio", "3",
				"--scale", "0", "-s", ":", "-p", "0", "--version", "2.0",
				"--big", "18446744073709551615", "--dry-run", "2000-01-01T00:00:00Z",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, err := p.Parse(tt.argv)
			if err != nil {
				t.Fatalf("first Parse() error = %v", err)
			}
			again := Unparse(spec, first.Values, p.Registry())
			if diff := cmp.Diff(tt.want, again); diff != "" {
				t.Errorf("Unparse() mismatch (-want +got):\n%s", diff)
			}
			second, err := p.Parse(again)
			if err != nil {
				t.Fatalf("second Parse(%q) error = %v", again, err)
			}
			if diff := cmp.Diff(first.Values, second.Values); diff != "" {
				t.Errorf("values changed through %q (-first +second):\n%s", again, diff)
			}
		})
	}
}

func TestParseConcurrent(t *testing.T) {
	spec, reg := typedSpec(t)
	p, err := NewTyped[copyArgs](spec, WithRegistry(reg), WithPolicy(ReportOnly))
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := fmt.Sprintf("out-%d", i)
			res, err := p.Parse([]string{"-o", out, "-v", "src"})
			if err != nil || res.Value.Output != out || res.Value.Verbosity != 1 {
				t.Errorf("goroutine %d: %+v, %v", i, res.Value, err)
			}
			_ = p.Parser().Help()
		}()
	}
	wg.Wait()
}
