// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argparse

import (
	"reflect"
	"strconv"
	"strings"

	"tailscale.com/util/mak"
	"tailscale.com/util/set"
)

// Values holds the converted values of one parse. Options and Flags are keyed
// by entry ID (long name, else short name), Positionals by position. Entries
// with no observed token are absent.
type Values struct {
	Options     map[string]any
	Flags       map[string]any
	Positionals map[int]any
}

// binder holds the state of one Bind call.
type binder struct {
	spec *Spec
	reg  *Registry

	vals     Values
	errs     []*Error
	observed set.Set[string] // keys of options and positionals with a token
}

// Bind converts tokens into values using the converters in reg, then reports
// every required option or positional that had no token. A value whose
// conversion fails is left unset and reported as an InvalidValue error.
func Bind(tokens []Token, spec *Spec, reg *Registry) (Values, []*Error) {
	b := &binder{spec: spec, reg: reg, observed: make(set.Set[string])}
	for _, tok := range tokens {
		switch tok := tok.(type) {
		case *OptionToken:
			b.option(tok)
		case *FlagToken:
			b.flag(tok)
		case *PositionalToken:
			b.positional(tok)
		}
	}
	b.required()
	return b.vals, b.errs
}

func (b *binder) option(tok *OptionToken) {
	o, ok := b.spec.option(tok.Name)
	if !ok {
		return
	}
	b.observed.Add(o.Key())
	if v, ok := b.convert(o.Type, tok.Value, o.Key()); ok {
		mak.Set(&b.vals.Options, o.ID(), v)
	}
}

func (b *binder) flag(tok *FlagToken) {
	f, ok := b.spec.flag(tok.Name)
	if !ok {
		return
	}
	if f.Type == TypeBool {
		mak.Set(&b.vals.Flags, f.ID(), any(true))
		return
	}
	e, ok := b.reg.Enum(f.Type)
	if !ok {
		b.invalid(strconv.Itoa(tok.Level), f.Key(), nil)
		return
	}
	ev, err := e.Level(tok.Level)
	if err != nil {
		b.invalid(strconv.Itoa(tok.Level), f.Key(), err)
		return
	}
	mak.Set(&b.vals.Flags, f.ID(), any(ev))
}

func (b *binder) positional(tok *PositionalToken) {
	p, ok := b.spec.positional(tok.Position)
	if !ok {
		return
	}
	b.observed.Add(p.Key())
	if v, ok := b.convert(p.Type, tok.Value, p.Key()); ok {
		mak.Set(&b.vals.Positionals, p.Position, v)
	}
}

func (b *binder) convert(t ValueType, raw, key string) (any, bool) {
	c, ok := b.reg.Lookup(t)
	if !ok {
		b.invalid(raw, key, nil)
		return nil, false
	}
	v, err := c.Convert(raw)
	if err != nil {
		b.invalid(raw, key, err)
		return nil, false
	}
	return v, true
}

func (b *binder) invalid(raw, key string, err error) {
	e := newError(KindInvalidValue, key, raw, "Invalid value '%s' for '%s'", raw, key)
	e.Err = err
	b.errs = append(b.errs, e)
}

func (b *binder) required() {
	reported := make(set.Set[string])
	missing := func(key string) {
		if b.observed.Contains(key) || reported.Contains(key) {
			return
		}
		reported.Add(key)
		b.errs = append(b.errs, newError(KindMissingRequired, key, "", "Missing required argument '%s'", key))
	}
	for _, o := range b.spec.options {
		if o.Required {
			missing(o.Key())
		}
	}
	for _, p := range b.spec.sortedPositionals() {
		if p.Required {
			missing(p.Key())
		}
	}
}

var enumValueType = reflect.TypeFor[EnumValue]()

// structField finds the exported field of struct type t named field, or,
// when field is empty, the one whose name matches fallback ignoring case,
// dashes and underscores.
func structField(t reflect.Type, field, fallback string) (reflect.StructField, bool) {
	var sf reflect.StructField
	var ok bool
	if field != "" {
		sf, ok = t.FieldByName(field)
	} else {
		want := foldFieldName(fallback)
		if want == "" {
			return sf, false
		}
		sf, ok = t.FieldByNameFunc(func(name string) bool {
			return foldFieldName(name) == want
		})
	}
	if !ok || !sf.IsExported() {
		return reflect.StructField{}, false
	}
	return sf, true
}

func foldFieldName(s string) string {
	s = strings.NewReplacer("-", "", "_", "").Replace(s)
	return strings.ToLower(s)
}

// assignable reports whether assign can store a value of type vt in a field
// of type ft.
func assignable(vt, ft reflect.Type) bool {
	switch {
	case vt.AssignableTo(ft):
		return true
	case ft.Kind() == reflect.Pointer:
		return assignable(vt, ft.Elem())
	case vt == enumValueType:
		return isInteger(ft.Kind()) || ft.Kind() == reflect.String
	case vt.Kind() == reflect.Pointer:
		return assignable(vt.Elem(), ft)
	default:
		return sameClass(vt.Kind(), ft.Kind()) && vt.ConvertibleTo(ft)
	}
}

// assign stores v in fv, allocating pointers and converting between
// compatible kinds. The pair must satisfy assignable.
func assign(fv, v reflect.Value) {
	vt, ft := v.Type(), fv.Type()
	switch {
	case vt.AssignableTo(ft):
		fv.Set(v)
	case ft.Kind() == reflect.Pointer:
		p := reflect.New(ft.Elem())
		assign(p.Elem(), v)
		fv.Set(p)
	case vt == enumValueType:
		ev := v.Interface().(EnumValue)
		switch k := ft.Kind(); {
		case k == reflect.String:
			fv.SetString(ev.Name)
		case isUnsigned(k):
			fv.SetUint(uint64(ev.Ordinal))
		default:
			fv.SetInt(int64(ev.Ordinal))
		}
	case vt.Kind() == reflect.Pointer:
		if !v.IsNil() {
			assign(fv, v.Elem())
		}
	default:
		fv.Set(v.Convert(ft))
	}
}

// bindStruct copies vals into the fields of the struct dst. skip names a
// flag (canonical name) that has no field.
func bindStruct(dst reflect.Value, spec *Spec, vals Values, skip string) {
	t := dst.Type()
	store := func(field, fallback string, v any) {
		sf, ok := structField(t, field, fallback)
		if !ok {
			return
		}
		fv, err := dst.FieldByIndexErr(sf.Index)
		if err != nil || !fv.CanSet() {
			return
		}
		assign(fv, reflect.ValueOf(v))
	}
	for _, o := range spec.options {
		if v, ok := vals.Options[o.ID()]; ok {
			store(o.Field, o.ID(), v)
		}
	}
	for _, f := range spec.flags {
		if f.Canonical() == skip {
			continue
		}
		if v, ok := vals.Flags[f.ID()]; ok {
			store(f.Field, f.ID(), v)
		}
	}
	for _, p := range spec.positionals {
		if v, ok := vals.Positionals[p.Position]; ok {
			store(p.Field, p.Name, v)
		}
	}
}

func isInteger(k reflect.Kind) bool {
	return (k >= reflect.Int && k <= reflect.Int64) || isUnsigned(k)
}

func isUnsigned(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func sameClass(a, b reflect.Kind) bool {
	switch {
	case isInteger(a):
		return isInteger(b)
	case a == reflect.Float32 || a == reflect.Float64:
		return b == reflect.Float32 || b == reflect.Float64
	default:
		return a == b && (a == reflect.String || a == reflect.Bool)
	}
}
