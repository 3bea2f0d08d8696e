// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argparse

// Token is one recognized element of an argument vector. It is a closed set:
// *OptionToken, *FlagToken or *PositionalToken.
type Token interface {
	isToken()
}

// OptionToken is an option with its value. Name is the short or long name
// exactly as written, without dashes.
type OptionToken struct {
	Name  string
	Value string
}

// FlagToken is the aggregate of every occurrence of one flag. Name is the
// flag's canonical name and Level the number of occurrences.
type FlagToken struct {
	Name  string
	Level int
}

// PositionalToken is a bare argument assigned to a positional slot.
type PositionalToken struct {
	Position int
	Value    string
}

func (*OptionToken) isToken()     {}
func (*FlagToken) isToken()       {}
func (*PositionalToken) isToken() {}
