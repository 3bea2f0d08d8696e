// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cli

import (
	"fmt"
	"sort"

	"github.com/shayne/yargs"
	"github.com/yeetrun/argbind/pkg/argparse"
)

const CommandName = "argcheck"

type CommandInfo struct {
	Name        string
	Description string
	Usage       string
	Examples    []string
	Hidden      bool
	Aliases     []string
	// ArgsSchema optionally defines positional args via `pos` tags.
	ArgsSchema any
}

type SpecFileArgs struct {
	SpecFile string `pos:"0" help:"Declaration file (.toml, .yaml, optionally .zst/.gz/.zz)"`
}

type SpecFilesArgs struct {
	SpecFiles []string `pos:"0+" help:"Declaration files"`
}

type ConvertArgs struct {
	Src string `pos:"0" help:"Source declaration file"`
	Dst string `pos:"1" help:"Destination declaration file"`
}

var commandInfos = map[string]CommandInfo{
	"parse": {
		Name:        "parse",
		Description: "Parse an argument vector against a declaration file",
		Usage:       "SPECFILE [--json] [--policy=NAME] [--canonical] -- ARGV...",
		Examples: []string{
			"argcheck parse ./greet.toml -- -vv --name Ada hello",
			"argcheck parse ./greet.yaml --json --policy=report-only -- --times many",
		},
		ArgsSchema: SpecFileArgs{},
	},
	"check": {
		Name:        "check",
		Description: "Validate declaration files and print their diagnostics",
		Usage:       "SPECFILE [SPECFILE...]",
		Examples:    []string{"argcheck check ./cmd/*.toml"},
		Aliases:     []string{"validate"},
		ArgsSchema:  SpecFilesArgs{},
	},
	"render": {
		Name:        "render",
		Description: "Print the help text a declaration file renders",
		Usage:       "SPECFILE [--program=NAME]",
		ArgsSchema:  SpecFileArgs{},
	},
	"convert": {
		Name:        "convert",
		Description: "Rewrite a declaration file in another format or compression",
		Usage:       "SRC DST [--force]",
		Examples: []string{
			"argcheck convert ./greet.toml ./greet.yaml",
			"argcheck convert ./greet.yaml ./greet.toml.zst",
		},
		ArgsSchema: ConvertArgs{},
	},
	"version": {
		Name:        "version",
		Description: "Print the argcheck version",
		Usage:       "[--json]",
	},
}

type GlobalFlags struct {
	Verbose bool `flag:"verbose" help:"Log parser construction and file handling"`
	NoColor bool `flag:"no-color" help:"Disable colored output"`
}

type ParseFlags struct {
	JSON      bool
	Policy    argparse.ErrorPolicy
	HasPolicy bool
	Canonical bool
	Program   string
}

type CheckFlags struct {
	Quiet bool
}

type RenderFlags struct {
	Program string
}

type ConvertFlags struct {
	Force bool
}

type VersionFlags struct {
	JSON bool
}

type parseFlagsParsed struct {
	JSON      bool   `flag:"json" help:"Print values as JSON"`
	Policy    string `flag:"policy" help:"Override the file's error policy"`
	Canonical bool   `flag:"canonical" help:"Print the canonical argument vector instead of values"`
	Program   string `flag:"program" help:"Override the program name (ARGCHECK_PROGRAM)"`
}

type checkFlagsParsed struct {
	Quiet bool `flag:"quiet" short:"q" help:"Only print failing files"`
}

type renderFlagsParsed struct {
	Program string `flag:"program" help:"Override the program name (ARGCHECK_PROGRAM)"`
}

type convertFlagsParsed struct {
	Force bool `flag:"force" short:"f" help:"Overwrite DST if it exists"`
}

type versionFlagsParsed struct {
	JSON bool `flag:"json" help:"Print version as JSON"`
}

func CommandNames() []string {
	names := make([]string, 0, len(commandInfos))
	for name := range commandInfos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func CommandInfos() map[string]CommandInfo {
	return commandInfos
}

func Registry() yargs.Registry {
	subcommands := make(map[string]yargs.CommandSpec, len(commandInfos))
	for name, info := range commandInfos {
		subcommands[name] = yargs.CommandSpec{
			Info:       toSubCommandInfo(name, info),
			ArgsSchema: info.ArgsSchema,
		}
	}
	return yargs.Registry{
		Command: yargs.CommandInfo{
			Name:        CommandName,
			Description: "Check, render and exercise argument declaration files.",
			Examples: []string{
				"argcheck check ./greet.toml",
				"argcheck render ./greet.toml",
				"argcheck parse ./greet.toml -- --name Ada hello",
			},
		},
		SubCommands: subcommands,
	}
}

func HelpConfig() yargs.HelpConfig {
	return Registry().HelpConfig()
}

func toSubCommandInfo(name string, info CommandInfo) yargs.SubCommandInfo {
	return yargs.SubCommandInfo{
		Name:        name,
		Description: info.Description,
		Usage:       info.Usage,
		Examples:    info.Examples,
		Hidden:      info.Hidden,
		Aliases:     info.Aliases,
	}
}

// ParseParse parses the flags of the parse command. The first returned slice
// holds argcheck's own positional args, the second the argument vector after
// "--" that is handed to the declared parser untouched.
func ParseParse(args []string) (ParseFlags, []string, []string, error) {
	parseArgs, argv := SplitArgsAtDoubleDash(args)
	parsed, err := parseFlags[parseFlagsParsed](parseArgs)
	if err != nil {
		return ParseFlags{}, nil, nil, err
	}
	flags := ParseFlags{
		JSON:      parsed.Flags.JSON,
		Canonical: parsed.Flags.Canonical,
		Program:   parsed.Flags.Program,
	}
	if parsed.Flags.Policy != "" {
		p, err := argparse.ParseErrorPolicy(parsed.Flags.Policy)
		if err != nil {
			return ParseFlags{}, nil, nil, err
		}
		flags.Policy = p
		flags.HasPolicy = true
	}
	if argv == nil {
		argv = []string{}
	}
	return flags, parsed.Args, argv, nil
}

func ParseCheck(args []string) (CheckFlags, []string, error) {
	parseArgs, extraArgs := SplitArgsAtDoubleDash(args)
	parsed, err := parseFlags[checkFlagsParsed](parseArgs)
	if err != nil {
		return CheckFlags{}, nil, err
	}
	argsOut := append(parsed.Args, extraArgs...)
	return CheckFlags{Quiet: parsed.Flags.Quiet}, argsOut, nil
}

func ParseRender(args []string) (RenderFlags, []string, error) {
	parseArgs, extraArgs := SplitArgsAtDoubleDash(args)
	parsed, err := parseFlags[renderFlagsParsed](parseArgs)
	if err != nil {
		return RenderFlags{}, nil, err
	}
	argsOut := append(parsed.Args, extraArgs...)
	return RenderFlags{Program: parsed.Flags.Program}, argsOut, nil
}

func ParseConvert(args []string) (ConvertFlags, []string, error) {
	parseArgs, extraArgs := SplitArgsAtDoubleDash(args)
	parsed, err := parseFlags[convertFlagsParsed](parseArgs)
	if err != nil {
		return ConvertFlags{}, nil, err
	}
	argsOut := append(parsed.Args, extraArgs...)
	return ConvertFlags{Force: parsed.Flags.Force}, argsOut, nil
}

func ParseVersion(args []string) (VersionFlags, []string, error) {
	parseArgs, extraArgs := SplitArgsAtDoubleDash(args)
	parsed, err := parseFlags[versionFlagsParsed](parseArgs)
	if err != nil {
		return VersionFlags{}, nil, err
	}
	argsOut := append(parsed.Args, extraArgs...)
	return VersionFlags{JSON: parsed.Flags.JSON}, argsOut, nil
}

type parsedFlags[T any] struct {
	Flags  T
	Args   []string
	Parser *yargs.Parser
}

func parseFlags[T any](args []string) (parsedFlags[T], error) {
	result, err := yargs.ParseFlags[T](args)
	if err != nil {
		return parsedFlags[T]{}, err
	}
	argsOut := append([]string{}, result.Args...)
	if len(result.RemainingArgs) > 0 {
		argsOut = append(argsOut, result.RemainingArgs...)
	}
	return parsedFlags[T]{Flags: result.Flags, Args: argsOut, Parser: result.Parser}, nil
}

// SplitArgsAtDoubleDash splits args at the first "--", dropping it.
func SplitArgsAtDoubleDash(args []string) ([]string, []string) {
	for i, arg := range args {
		if arg == "--" {
			if i+1 < len(args) {
				return args[:i], args[i+1:]
			}
			return args[:i], nil
		}
	}
	return args, nil
}

// StripCommand drops the leading subcommand name handlers receive from
// yargs, keeping any flags placed before it.
func StripCommand(name string, args []string) []string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		if arg == name || isAlias(name, arg) {
			out := make([]string, 0, len(args)-1)
			out = append(out, args[:i]...)
			return append(out, args[i+1:]...)
		}
	}
	return args
}

func isAlias(name, arg string) bool {
	for _, a := range commandInfos[name].Aliases {
		if a == arg {
			return true
		}
	}
	return false
}

func RequireArgsAtLeast(subcmd string, args []string, count int) error {
	if len(args) < count {
		return fmt.Errorf("'%s' requires at least %d argument(s), got %d", subcmd, count, len(args))
	}
	return nil
}

func RequireArgsExactly(subcmd string, args []string, count int) error {
	if len(args) != count {
		return fmt.Errorf("'%s' requires exactly %d argument(s), got %d", subcmd, count, len(args))
	}
	return nil
}
