// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argparse

import (
	"fmt"
	"strings"
)

// Unparse renders vals back into an argument vector that parses to the same
// values: options first, then flags (repeated to their level), then
// positionals. Positionals after the first unset position are dropped
// since they cannot be expressed. A positional value that starts with "-"
// does not survive the trip since it reads back as an option or flag.
func Unparse(spec *Spec, vals Values, reg *Registry) []string {
	var argv []string
	for _, o := range spec.options {
		v, ok := vals.Options[o.ID()]
		if !ok {
			continue
		}
		argv = append(argv, dashedName(o.Short, o.Long), formatValue(reg, o.Type, v))
	}
	for _, f := range spec.flags {
		v, ok := vals.Flags[f.ID()]
		if !ok {
			continue
		}
		level := 1
		if ev, isEnum := v.(EnumValue); isEnum {
			level = ev.Ordinal
		} else if b, isBool := v.(bool); isBool && !b {
			level = 0
		}
		switch {
		case level == 0:
		case f.Short != "":
			argv = append(argv, "-"+strings.Repeat(f.Short, level))
		default:
			for range level {
				argv = append(argv, "--"+f.Long)
			}
		}
	}

	for _, p := range spec.sortedPositionals() {
		v, ok := vals.Positionals[p.Position]
		if !ok {
			break
		}
		argv = append(argv, formatValue(reg, p.Type, v))
	}
	return argv
}

// dashedName prefers the short form since it is valid both alone and as
// the last character of a group.
func dashedName(short, long string) string {
	if short != "" {
		return "-" + short
	}
	return "--" + long
}

func formatValue(reg *Registry, t ValueType, v any) string {
	if c, ok := reg.Lookup(t); ok {
		if f, ok := c.(Formatter); ok {
			if s, ok := f.Format(v); ok {
				return s
			}
		}
	}
	return fmt.Sprint(v)
}
