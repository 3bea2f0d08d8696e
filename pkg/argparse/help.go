// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argparse

import (
	"fmt"
	"strings"
)

const helpIndent = "    "

// RenderHelp formats the usage text for spec. program replaces the Spec's
// program name when non-empty.
//
// Each section lists positionals by position, then flags, then options.
// Flags are never required so they only appear under "Optional arguments".
func RenderHelp(spec *Spec, program string) string {
	if program == "" {
		program = spec.Program()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", program)
	fmt.Fprintf(&b, "Example usage:\n%s%s [optional args] (required args)\n\n", helpIndent, program)

	b.WriteString("Required arguments:\n")
	writeSection(&b, spec, true)
	b.WriteString("\nOptional arguments:\n")
	writeSection(&b, spec, false)
	return b.String()
}

func writeSection(b *strings.Builder, spec *Spec, required bool) {
	var lines []string
	for _, p := range spec.sortedPositionals() {
		if p.Required == required {
			desc := p.Description
			if desc == "" {
				desc = p.Name
			}
			lines = append(lines, p.Key()+": "+desc)
		}
	}
	if !required {
		for _, f := range spec.flags {
			lines = append(lines, dashedKey(f.Short, f.Long)+": "+f.Description)
		}
	}
	for _, o := range spec.options {
		if o.Required == required {
			lines = append(lines, dashedKey(o.Short, o.Long)+": "+o.Description)
		}
	}
	if len(lines) == 0 {
		lines = append(lines, "None")
	}
	for _, l := range lines {
		b.WriteString(helpIndent)
		b.WriteString(strings.TrimRight(l, " "))
		b.WriteByte('\n')
	}
}

// dashedKey returns "-s | --long", "-s" or "--long".
func dashedKey(short, long string) string {
	switch {
	case short != "" && long != "":
		return "-" + short + " | --" + long
	case short != "":
		return "-" + short
	default:
		return "--" + long
	}
}
