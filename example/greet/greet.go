// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Greet prints a greeting a number of times.
//
//	greet -vv --target Ada 3
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/yeetrun/argbind/pkg/argparse"
	"tailscale.com/util/must"
)

type greetArgs struct {
	Target  string
	Loud    int
	Times   int
	Verbose bool
}

const typeLoudness argparse.ValueType = "loudness"

func newParser() (*argparse.Typed[greetArgs], error) {
	reg := argparse.NewRegistry()
	if err := reg.RegisterEnum(typeLoudness, "quiet", "normal", "loud", "shouting"); err != nil {
		return nil, err
	}
	spec, err := argparse.NewBuilder("greet").
		Option(argparse.OptionSpec{Short: "t", Long: "target", Description: "Who to greet", Required: true}).
		Flag(argparse.FlagSpec{Long: "verbose", Description: "Enable verbose output"}).
		Flag(argparse.FlagSpec{Short: "l", Long: "loud", Description: "Raise the volume (repeatable)", Type: typeLoudness}).
		Positional(argparse.PositionalSpec{Position: 0, Name: "times", Description: "The amount of times to repeat", Type: argparse.TypeInt, Field: "Times"}).
		Build()
	if err != nil {
		return nil, err
	}
	return argparse.NewTyped[greetArgs](spec,
		argparse.WithRegistry(reg),
		argparse.WithPolicy(argparse.ThrowIfMissingRequired),
	)
}

func main() {
	p := must.Get(newParser())
	res, err := p.Parse(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	for _, e := range res.Errors {
		log.Printf("warning: %v", e)
	}
	args := res.Value
	if args.Verbose {
		log.Printf("greeting %q %d times at loudness %d", args.Target, args.Times, args.Loud)
	}
	fmt.Print(greet(args))
}

func greet(args greetArgs) string {
	msg := "Hello, " + args.Target
	switch {
	case args.Loud >= 2:
		msg = strings.ToUpper(msg) + "!"
	case args.Loud == 0:
		msg = strings.ToLower(msg)
	}
	times := max(args.Times, 1)
	return strings.Repeat(msg+"\n", times)
}
