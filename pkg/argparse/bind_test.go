// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argparse

import (
	"errors"
	"net/url"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func bindSpec(t *testing.T) (*Spec, *Registry) {
	t.Helper()
	reg := NewRegistry()
	if err := reg.RegisterEnum("verbosity", "quiet", "normal", "loud"); err != nil {
		t.Fatal(err)
	}
	spec := mustBuild(t, NewBuilder("copy").
		Option(OptionSpec{Short: "o", Long: "output", Required: true}).
		Option(OptionSpec{Short: "n", Type: TypeInt}).
		Option(OptionSpec{Long: "mode", Type: "verbosity"}).
		Flag(FlagSpec{Short: "f", Long: "force"}).
		Flag(FlagSpec{Short: "v", Long: "verbose", Type: "verbosity"}).
		Positional(PositionalSpec{Position: 0, Name: "src", Required: true}).
		Positional(PositionalSpec{Position: 1, Name: "count", Type: TypeUint8}))
	return spec, reg
}

func TestBind(t *testing.T) {
	spec, reg := bindSpec(t)
	tests := []struct {
		name     string
		tokens   []Token
		want     Values
		wantErrs []string
	}{
		{
			name: "all present",
			tokens: []Token{
				&OptionToken{Name: "o", Value: "out"},
				&OptionToken{Name: "n", Value: "3"},
				&OptionToken{Name: "mode", Value: "LOUD"},
				&PositionalToken{Position: 0, Value: "in"},
				&PositionalToken{Position: 1, Value: "9"},
				&FlagToken{Name: "f", Level: 1},
				&FlagToken{Name: "v", Level: 2},
			},
			want: Values{
				Options:     map[string]any{"output": "out", "n": 3, "mode": EnumValue{2, "loud"}},
				Flags:       map[string]any{"force": true, "verbose": EnumValue{2, "loud"}},
				Positionals: map[int]any{0: "in", 1: uint8(9)},
			},
		},
		{
			name: "long name resolves the same option",
			tokens: []Token{
				&OptionToken{Name: "output", Value: "a"},
				&OptionToken{Name: "o", Value: "b"},
				&PositionalToken{Position: 0, Value: "in"},
			},
			want: Values{
				Options:     map[string]any{"output": "b"},
				Positionals: map[int]any{0: "in"},
			},
		},
		{
			name: "missing required",
			tokens: []Token{
				&FlagToken{Name: "f", Level: 3},
			},
			want: Values{Flags: map[string]any{"force": true}},
			wantErrs: []string{
				"Missing required argument 'o | output'",
				"Missing required argument 'Position 0'",
			},
		},
		{
			name: "invalid value is unset but observed",
			tokens: []Token{
				&OptionToken{Name: "output", Value: "out"},
				&PositionalToken{Position: 0, Value: "in"},
				&PositionalToken{Position: 1, Value: "300"},
				&OptionToken{Name: "n", Value: "three"},
			},
			want: Values{
				Options:     map[string]any{"output": "out"},
				Positionals: map[int]any{0: "in"},
			},
			wantErrs: []string{
				"Invalid value '300' for 'Position 1'",
				"Invalid value 'three' for 'n'",
			},
		},
		{
			name: "enum level beyond last member",
			tokens: []Token{
				&OptionToken{Name: "o", Value: "out"},
				&PositionalToken{Position: 0, Value: "in"},
				&FlagToken{Name: "v", Level: 3},
			},
			want: Values{
				Options:     map[string]any{"output": "out"},
				Positionals: map[int]any{0: "in"},
			},
			wantErrs: []string{"Invalid value '3' for 'v | verbose'"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errs := Bind(tt.tokens, spec, reg)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("values mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantErrs, errorStrings(errs)); diff != "" {
				t.Errorf("errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBindInvalidValueWrapsConverterError(t *testing.T) {
	spec, reg := bindSpec(t)
	_, errs := Bind([]Token{&OptionToken{Name: "n", Value: "x"}}, spec, reg)
	var invalid *Error
	for _, err := range errs {
		if err.Kind == KindInvalidValue {
			invalid = err
		}
	}
	if invalid == nil {
		t.Fatalf("no InvalidValue in %v", errs)
	}
	if !errors.Is(invalid, ErrInvalidValue) {
		t.Error("errors.Is(ErrInvalidValue) = false")
	}
	if invalid.Err == nil || invalid.Value != "x" || invalid.Name != "n" {
		t.Errorf("error = %+v", invalid)
	}
}

func TestAssign(t *testing.T) {
	type target struct {
		Name    string
		Level   int
		LevelU  uint8
		Label   string
		Enum    EnumValue
		Count   *int
		Wide    int64
		Ratio   float64
		Link    url.URL
		LinkPtr *url.URL
	}
	u, _ := url.Parse("https://example.com")
	ev := EnumValue{Ordinal: 2, Name: "loud"}
	tests := []struct {
		field string
		value any
		want  func(target) bool
	}{
		{"Name", "x", func(v target) bool { return v.Name == "x" }},
		{"Level", ev, func(v target) bool { return v.Level == 2 }},
		{"LevelU", ev, func(v target) bool { return v.LevelU == 2 }},
		{"Label", ev, func(v target) bool { return v.Label == "loud" }},
		{"Enum", ev, func(v target) bool { return v.Enum == ev }},
		{"Count", 5, func(v target) bool { return v.Count != nil && *v.Count == 5 }},
		{"Wide", int32(7), func(v target) bool { return v.Wide == 7 }},
		{"Ratio", float32(0.5), func(v target) bool { return v.Ratio == 0.5 }},
		{"Link", u, func(v target) bool { return v.Link.Host == "example.com" }},
		{"LinkPtr", u, func(v target) bool { return v.LinkPtr == u }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			var v target
			rv := reflect.ValueOf(&v).Elem()
			sf, ok := structField(rv.Type(), tt.field, "")
			if !ok {
				t.Fatalf("no field %s", tt.field)
			}
			vv := reflect.ValueOf(tt.value)
			if !assignable(vv.Type(), sf.Type) {
				t.Fatalf("assignable(%v, %v) = false", vv.Type(), sf.Type)
			}
			assign(rv.FieldByIndex(sf.Index), vv)
			if !tt.want(v) {
				t.Errorf("after assign: %+v", v)
			}
		})
	}
}

func TestStructFieldFold(t *testing.T) {
	type target struct {
		DryRun   bool
		Output_2 string
		hidden   string
	}
	rt := reflect.TypeFor[target]()
	for _, name := range []string{"dry-run", "DRY_RUN", "dryrun", "output-2"} {
		if _, ok := structField(rt, "", name); !ok {
			t.Errorf("structField(%q) not found", name)
		}
	}
	if _, ok := structField(rt, "", "hidden"); ok {
		t.Error("unexported field matched")
	}
}
