// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package argparse parses command-line argument vectors against an explicitly
// built, immutable Spec of options, flags and positionals.
//
// Parsing runs in fixed stages:
//   - Validate checks the Spec once, when a Parser is built
//   - Tokenize turns argv into option, flag and positional tokens
//   - Bind converts token values through a Registry of converters
//   - the ErrorPolicy decides what happens to the collected errors
//
// # Syntax
//
//	--output VALUE   option by long name; the next element is always its value
//	-o VALUE         option by short name
//	--verbose        flag; repeatable
//	-vvx             bundled short flags; an option letter may only come last
//	-vo VALUE        bundle ending in an option
//	input            positional, filling the next unfilled position
//
// There is no "--" terminator: a bare "--" is an unknown argument, and a
// positional value cannot start with "-".
//
// Repeated flags are counted under their canonical name (short name if
// declared, otherwise long), so "-v --verbose -v" has level 3. A bool flag
// binds true; an enum flag binds the member whose ordinal equals the level.
//
// # Usage
//
//	spec, err := argparse.NewBuilder("greet").
//	    Option(argparse.OptionSpec{Short: "n", Long: "name", Required: true}).
//	    Flag(argparse.FlagSpec{Short: "v", Long: "verbose"}).
//	    Positional(argparse.PositionalSpec{Position: 0, Name: "greeting"}).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	type Args struct {
//	    Name     string
//	    Verbose  bool
//	    Greeting string
//	}
//	p, err := argparse.NewTyped[Args](spec)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := p.Parse(os.Args[1:])
//
// With the default DisplayHelpAndExit policy, Parse prints any errors and the
// help text and exits with status 2. Use WithPolicy to get errors back as an
// *AggregateError instead, or to only report them in the result. WithHelpText
// replaces the generated help.
package argparse
