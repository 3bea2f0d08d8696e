// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argparse

import (
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
)

// ValueType names a conversion registered in a Registry.
type ValueType string

// Built-in value types.
const (
	TypeString   ValueType = "string"
	TypeBool     ValueType = "bool"
	TypeInt      ValueType = "int"
	TypeInt8     ValueType = "int8"
	TypeInt16    ValueType = "int16"
	TypeInt32    ValueType = "int32"
	TypeInt64    ValueType = "int64"
	TypeUint     ValueType = "uint"
	TypeUint8    ValueType = "uint8"
	TypeUint16   ValueType = "uint16"
	TypeUint32   ValueType = "uint32"
	TypeUint64   ValueType = "uint64"
	TypeFloat32  ValueType = "float32"
	TypeFloat64  ValueType = "float64"
	TypeRune     ValueType = "rune"
	TypeTime     ValueType = "time"
	TypeDuration ValueType = "duration"
	TypeURL      ValueType = "url"
	TypeUUID     ValueType = "uuid"
	TypePort     ValueType = "port"
	TypeSemver   ValueType = "semver"
)

// Converter turns the raw string of an option or positional into a value.
// Converters must be safe for concurrent use.
type Converter interface {
	Convert(raw string) (any, error)
	// Type is the dynamic type of every value Convert returns.
	Type() reflect.Type
}

// Formatter is implemented by converters that can turn a value back into the
// string Convert accepts. Unparse falls back to fmt.Sprint without it.
type Formatter interface {
	Format(v any) (string, bool)
}

type funcConverter[T any] struct {
	parse  func(string) (T, error)
	format func(T) string
}

func (c funcConverter[T]) Convert(raw string) (any, error) {
	v, err := c.parse(raw)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (c funcConverter[T]) Type() reflect.Type {
	return reflect.TypeFor[T]()
}

func (c funcConverter[T]) Format(v any) (string, bool) {
	tv, ok := v.(T)
	if !ok || c.format == nil {
		return "", false
	}
	return c.format(tv), true
}

// ConverterFunc returns a Converter backed by parse.
func ConverterFunc[T any](parse func(string) (T, error)) Converter {
	return funcConverter[T]{parse: parse}
}

// TryParse adapts a "(string) -> (value, ok)" parse function, the shape
// custom types usually expose, into a Converter.
func TryParse[T any](fn func(string) (T, bool)) Converter {
	return funcConverter[T]{parse: func(raw string) (T, error) {
		v, ok := fn(raw)
		if !ok {
			return v, fmt.Errorf("cannot parse %q as %s", raw, reflect.TypeFor[T]())
		}
		return v, nil
	}}
}

// EnumValue is the value bound for an enum-typed option or flag.
type EnumValue struct {
	Ordinal int
	Name    string
}

func (e EnumValue) String() string { return e.Name }

// Enum converts member names to EnumValues. Ordinals are the member indexes,
// so they always run 0..k; member 0 is the level of an absent flag.
type Enum struct {
	members []string
}

// NewEnum returns an Enum with the given members in ordinal order.
func NewEnum(members ...string) *Enum {
	return &Enum{members: append([]string(nil), members...)}
}

// Members returns the member names in ordinal order.
func (e *Enum) Members() []string {
	return append([]string(nil), e.members...)
}

// Convert matches raw against the member names, ignoring case.
func (e *Enum) Convert(raw string) (any, error) {
	for i, m := range e.members {
		if strings.EqualFold(m, raw) {
			return EnumValue{Ordinal: i, Name: m}, nil
		}
	}
	return nil, fmt.Errorf("%q is not one of %s", raw, strings.Join(e.members, ", "))
}

// Level returns the member whose ordinal is n, used for repeated flags.
func (e *Enum) Level(n int) (EnumValue, error) {
	if n < 0 || n >= len(e.members) {
		return EnumValue{}, fmt.Errorf("level %d out of range 0-%d", n, len(e.members)-1)
	}
	return EnumValue{Ordinal: n, Name: e.members[n]}, nil
}

func (e *Enum) Type() reflect.Type { return reflect.TypeFor[EnumValue]() }

func (e *Enum) Format(v any) (string, bool) {
	ev, ok := v.(EnumValue)
	if !ok {
		return "", false
	}
	return ev.Name, true
}

// Registry maps value types to converters. It is append-only while a program
// sets up, and sealed (read-only) once a Parser is built from it.
type Registry struct {
	converters map[ValueType]Converter
	sealed     atomic.Bool
}

// NewRegistry returns a Registry holding the built-in converters.
func NewRegistry() *Registry {
	r := &Registry{converters: make(map[ValueType]Converter)}
	for t, c := range builtinConverters() {
		r.converters[t] = c
	}
	return r
}

// Register adds a converter under a new name. Existing names cannot be
// replaced.
func (r *Registry) Register(t ValueType, c Converter) error {
	if r.sealed.Load() {
		return ErrRegistrySealed
	}
	if t == "" || c == nil {
		return fmt.Errorf("register %q: empty type name or nil converter", t)
	}
	if _, ok := r.converters[t]; ok {
		return fmt.Errorf("register %q: type already registered", t)
	}
	r.converters[t] = c
	return nil
}

// RegisterEnum registers an Enum with the given members under t.
func (r *Registry) RegisterEnum(t ValueType, members ...string) error {
	if len(members) == 0 {
		return fmt.Errorf("register enum %q: no members", t)
	}
	return r.Register(t, NewEnum(members...))
}

// Lookup returns the converter registered for t.
func (r *Registry) Lookup(t ValueType) (Converter, bool) {
	c, ok := r.converters[t]
	return c, ok
}

// Enum returns the Enum registered for t, if t is an enum.
func (r *Registry) Enum(t ValueType) (*Enum, bool) {
	e, ok := r.converters[t].(*Enum)
	return e, ok
}

// Seal makes the registry read-only. It is called by New.
func (r *Registry) Seal() { r.sealed.Store(true) }

func builtinConverters() map[ValueType]Converter {
	return map[ValueType]Converter{
		TypeString: funcConverter[string]{
			parse:  func(s string) (string, error) { return s, nil },
			format: func(s string) string { return s },
		},
		TypeBool: funcConverter[bool]{
			parse: func(s string) (bool, error) {
				b, err := strconv.ParseBool(s)
				if err != nil {
					return false, fmt.Errorf("invalid bool value %q", s)
				}
				return b, nil
			},
			format: strconv.FormatBool,
		},
		TypeInt:     intConverter[int](strconv.IntSize),
		TypeInt8:    intConverter[int8](8),
		TypeInt16:   intConverter[int16](16),
		TypeInt32:   intConverter[int32](32),
		TypeInt64:   intConverter[int64](64),
		TypeUint:    uintConverter[uint](strconv.IntSize),
		TypeUint8:   uintConverter[uint8](8),
		TypeUint16:  uintConverter[uint16](16),
		TypeUint32:  uintConverter[uint32](32),
		TypeUint64:  uintConverter[uint64](64),
		TypeFloat32: floatConverter[float32](32),
		TypeFloat64: floatConverter[float64](64),
		TypeRune: funcConverter[rune]{
			parse: func(s string) (rune, error) {
				if utf8.RuneCountInString(s) != 1 {
					return 0, fmt.Errorf("invalid character %q: want exactly one", s)
				}
				r, _ := utf8.DecodeRuneInString(s)
				return r, nil
			},
			format: func(r rune) string { return string(r) },
		},
		TypeTime: funcConverter[time.Time]{
			parse:  parseTime,
			format: func(t time.Time) string { return t.Format(time.RFC3339Nano) },
		},
		TypeDuration: funcConverter[time.Duration]{
			parse: func(s string) (time.Duration, error) {
				d, err := time.ParseDuration(s)
				if err != nil {
					return 0, fmt.Errorf("invalid duration %q: %w", s, err)
				}
				return d, nil
			},
			format: time.Duration.String,
		},
		TypeURL: funcConverter[*url.URL]{
			parse: func(s string) (*url.URL, error) {
				u, err := url.Parse(s)
				if err != nil {
					return nil, fmt.Errorf("invalid URL %q: %w", s, err)
				}
				return u, nil
			},
			format: (*url.URL).String,
		},
		TypeUUID: funcConverter[uuid.UUID]{
			parse: func(s string) (uuid.UUID, error) {
				id, err := uuid.Parse(s)
				if err != nil {
					return uuid.Nil, fmt.Errorf("invalid UUID %q: %w", s, err)
				}
				return id, nil
			},
			format: uuid.UUID.String,
		},
		TypePort: funcConverter[Port]{
			parse:  parsePortValue,
			format: func(p Port) string { return strconv.FormatUint(uint64(p), 10) },
		},
		TypeSemver: funcConverter[*semver.Version]{
			parse: func(s string) (*semver.Version, error) {
				v, err := semver.NewVersion(s)
				if err != nil {
					return nil, fmt.Errorf("invalid version %q: %w", s, err)
				}
				return v, nil
			},
			format: (*semver.Version).Original,
		},
	}
}

type signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

type unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func intConverter[T signed](bits int) funcConverter[T] {
	return funcConverter[T]{
		parse: func(s string) (T, error) {
			i, err := strconv.ParseInt(s, 10, bits)
			if err != nil {
				return 0, fmt.Errorf("invalid int value %q: %w", s, err)
			}
			return T(i), nil
		},
		format: func(v T) string { return strconv.FormatInt(int64(v), 10) },
	}
}

func uintConverter[T unsigned](bits int) funcConverter[T] {
	return funcConverter[T]{
		parse: func(s string) (T, error) {
			u, err := strconv.ParseUint(s, 10, bits)
			if err != nil {
				return 0, fmt.Errorf("invalid uint value %q: %w", s, err)
			}
			return T(u), nil
		},
		format: func(v T) string { return strconv.FormatUint(uint64(v), 10) },
	}
}

func floatConverter[T ~float32 | ~float64](bits int) funcConverter[T] {
	return funcConverter[T]{
		parse: func(s string) (T, error) {
			f, err := strconv.ParseFloat(s, bits)
			if err != nil {
				return 0, fmt.Errorf("invalid float value %q: %w", s, err)
			}
			if math.IsNaN(f) {
				return 0, fmt.Errorf("invalid float value %q", s)
			}
			return T(f), nil
		},
		format: func(v T) string { return strconv.FormatFloat(float64(v), 'g', -1, bits) },
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: want RFC 3339 or YYYY-MM-DD", s)
}

// Port is a uint16 IP port.
type Port uint16

// parsePortValue parses a port value from string with user-friendly error messages.
func parsePortValue(value string) (Port, error) {
	portVal, err := strconv.ParseUint(value, 10, 16)
	if err != nil {
		if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
			return 0, fmt.Errorf("port must be between 0 and 65535, got %q", value)
		}
		return 0, fmt.Errorf("invalid port value %q", value)
	}
	return Port(portVal), nil
}
