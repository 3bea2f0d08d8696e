// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package specfile loads and saves argument declarations as TOML or YAML
// files, optionally compressed, and turns them into argparse Parsers.
//
// A TOML declaration looks like:
//
//	program = "greet"
//	policy = "throw-if-any-error"
//
//	[help]
//	mode = "flag-only"
//
//	[[enum]]
//	name = "volume"
//	members = ["quiet", "normal", "loud"]
//
//	[[option]]
//	short = "n"
//	long = "name"
//	required = true
//	description = "Who to greet"
//
//	[[flag]]
//	short = "v"
//	type = "volume"
//
//	[[positional]]
//	position = 0
//	name = "greeting"
package specfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/yeetrun/argbind/pkg/argparse"
	"github.com/yeetrun/argbind/pkg/compress"
	"github.com/yeetrun/argbind/pkg/fileutil"
	"gopkg.in/yaml.v3"
)

// Format is a declaration file syntax.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFor returns the format for path from its extension, ignoring a
// trailing compression extension.
func FormatFor(path string) (Format, error) {
	_, rest := compress.SplitPath(path)
	switch strings.ToLower(filepath.Ext(rest)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%s: unknown declaration format (want .toml, .yaml or .yml)", path)
}

// File is a declaration file.
type File struct {
	Program     string               `toml:"program" yaml:"program" json:"program"`
	Policy      argparse.ErrorPolicy `toml:"policy" yaml:"policy" json:"policy"`
	Help        Help                 `toml:"help" yaml:"help" json:"help"`
	Enums       []Enum               `toml:"enum,omitempty" yaml:"enums,omitempty" json:"enums,omitempty"`
	Options     []Option             `toml:"option,omitempty" yaml:"options,omitempty" json:"options,omitempty"`
	Flags       []Flag               `toml:"flag,omitempty" yaml:"flags,omitempty" json:"flags,omitempty"`
	Positionals []Positional         `toml:"positional,omitempty" yaml:"positionals,omitempty" json:"positionals,omitempty"`
}

// Help configures the built-in help flag. Text, when set, replaces the
// generated help.
type Help struct {
	Mode  argparse.HelpMode `toml:"mode" yaml:"mode" json:"mode"`
	Short string            `toml:"short,omitempty" yaml:"short,omitempty" json:"short,omitempty"`
	Long  string            `toml:"long,omitempty" yaml:"long,omitempty" json:"long,omitempty"`
	Text  string            `toml:"text,omitempty" yaml:"text,omitempty" json:"text,omitempty"`
}

// Enum declares an enumeration type usable by options, flags and
// positionals. Members are listed in ordinal order.
type Enum struct {
	Name    string   `toml:"name" yaml:"name" json:"name"`
	Members []string `toml:"members" yaml:"members" json:"members"`
}

type Option struct {
	Short       string `toml:"short,omitempty" yaml:"short,omitempty" json:"short,omitempty"`
	Long        string `toml:"long,omitempty" yaml:"long,omitempty" json:"long,omitempty"`
	Description string `toml:"description,omitempty" yaml:"description,omitempty" json:"description,omitempty"`
	Required    bool   `toml:"required,omitempty" yaml:"required,omitempty" json:"required,omitempty"`
	Type        string `toml:"type,omitempty" yaml:"type,omitempty" json:"type,omitempty"`
}

type Flag struct {
	Short       string `toml:"short,omitempty" yaml:"short,omitempty" json:"short,omitempty"`
	Long        string `toml:"long,omitempty" yaml:"long,omitempty" json:"long,omitempty"`
	Description string `toml:"description,omitempty" yaml:"description,omitempty" json:"description,omitempty"`
	Type        string `toml:"type,omitempty" yaml:"type,omitempty" json:"type,omitempty"`
}

type Positional struct {
	Position    int    `toml:"position" yaml:"position" json:"position"`
	Name        string `toml:"name,omitempty" yaml:"name,omitempty" json:"name,omitempty"`
	Description string `toml:"description,omitempty" yaml:"description,omitempty" json:"description,omitempty"`
	Required    bool   `toml:"required,omitempty" yaml:"required,omitempty" json:"required,omitempty"`
	Type        string `toml:"type,omitempty" yaml:"type,omitempty" json:"type,omitempty"`
}

// Decode reads a declaration in the given format. Unknown keys are errors.
func Decode(r io.Reader, format Format) (*File, error) {
	var f File
	switch format {
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(&f)
		if err != nil {
			return nil, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown declaration format %q", format)
	}
	return &f, nil
}

// Encode writes f in the given format.
func (f *File) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatTOML:
		return toml.NewEncoder(w).Encode(f)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown declaration format %q", format)
}

// Load reads the declaration file at path. The format comes from the
// extension; a trailing .zst, .gz or .zz extension is decompressed.
func Load(path string) (*File, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	enc, _ := compress.SplitPath(path)
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	r, err := compress.NewReader(fh, enc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer r.Close()
	f, err := Decode(r, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return f, nil
}

// Save atomically writes f to path, choosing format and compression from the
// extension like Load.
func Save(path string, f *File) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	enc, _ := compress.SplitPath(path)
	return fileutil.WriteFile(path, 0o644, func(w io.Writer) error {
		cw, err := compress.NewWriter(w, enc)
		if err != nil {
			return err
		}
		if err := f.Encode(cw, format); err != nil {
			cw.Close()
			return err
		}
		return cw.Close()
	})
}

// Registry returns a registry with the built-in converters and f's enums.
func (f *File) Registry() (*argparse.Registry, error) {
	reg := argparse.NewRegistry()
	var errs []error
	for _, e := range f.Enums {
		if err := reg.RegisterEnum(argparse.ValueType(e.Name), e.Members...); err != nil {
			errs = append(errs, fmt.Errorf("enum %q: %w", e.Name, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return reg, nil
}

// Spec builds the argparse Spec declared by f.
func (f *File) Spec() (*argparse.Spec, error) {
	b := argparse.NewBuilder(f.Program)
	for _, o := range f.Options {
		b.Option(argparse.OptionSpec{
			Short:       o.Short,
			Long:        o.Long,
			Description: o.Description,
			Required:    o.Required,
			Type:        argparse.ValueType(o.Type),
		})
	}
	for _, fl := range f.Flags {
		b.Flag(argparse.FlagSpec{
			Short:       fl.Short,
			Long:        fl.Long,
			Description: fl.Description,
			Type:        argparse.ValueType(fl.Type),
		})
	}
	for _, p := range f.Positionals {
		b.Positional(argparse.PositionalSpec{
			Position:    p.Position,
			Name:        p.Name,
			Description: p.Description,
			Required:    p.Required,
			Type:        argparse.ValueType(p.Type),
		})
	}
	return b.Build()
}

// Parser builds a validated Parser for f. The file's policy and help
// settings come first so opts can override them.
func (f *File) Parser(opts ...argparse.Option) (*argparse.Parser, error) {
	reg, err := f.Registry()
	if err != nil {
		return nil, err
	}
	spec, err := f.Spec()
	if err != nil {
		return nil, err
	}
	base := []argparse.Option{
		argparse.WithRegistry(reg),
		argparse.WithPolicy(f.Policy),
		argparse.WithHelp(f.Help.Mode, f.Help.Short, f.Help.Long),
	}
	if f.Help.Text != "" {
		base = append(base, argparse.WithHelpText(f.Help.Text))
	}
	return argparse.New(spec, append(base, opts...)...)
}
