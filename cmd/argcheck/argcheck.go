// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command argcheck checks, renders and exercises argument declaration files.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/fatih/color"
	"github.com/shayne/yargs"
	"github.com/yeetrun/argbind/pkg/argparse"
	"github.com/yeetrun/argbind/pkg/cli"
	"github.com/yeetrun/argbind/pkg/fileutil"
	"github.com/yeetrun/argbind/pkg/specfile"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
	"tailscale.com/types/logger"
	"tailscale.com/util/must"
)

var (
	version = "0.1.0"

	// passthroughArgs holds everything after the first "--" so yargs never
	// sees (or answers -h for) the argument vector under test.
	passthroughArgs []string
	verbose         bool

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	exit             = os.Exit

	buildVersion = must.Get(semver.NewVersion(version))
)

const programEnv = "ARGCHECK_PROGRAM"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		printCLIError(stderr, err)
		exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	args, passthroughArgs = cli.SplitArgsAtDoubleDash(args)
	global, err := yargs.ParseKnownFlags[cli.GlobalFlags](args, yargs.KnownFlagsOptions{})
	if err != nil {
		return err
	}
	verbose = global.Flags.Verbose
	if global.Flags.NoColor || !term.IsTerminal(int(os.Stderr.Fd())) {
		color.NoColor = true
	}

	handlers := map[string]yargs.SubcommandHandler{
		"parse":   handleParse,
		"check":   handleCheck,
		"render":  handleRender,
		"convert": handleConvert,
		"version": handleVersion,
	}
	return yargs.RunSubcommands(ctx, global.RemainingArgs, cli.HelpConfig(), cli.GlobalFlags{}, handlers)
}

func logf() logger.Logf {
	if verbose {
		return log.Printf
	}
	return logger.Discard
}

// programName picks the name shown in help: the flag, then the environment,
// then whatever the file declares.
func programName(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(programEnv)
}

func loadParser(path, program string, extra ...argparse.Option) (*argparse.Parser, error) {
	f, err := specfile.Load(path)
	if err != nil {
		return nil, err
	}
	logf()("argcheck: loaded %s (%d options, %d flags, %d positionals)", path, len(f.Options), len(f.Flags), len(f.Positionals))
	opts := []argparse.Option{
		argparse.WithLogf(logf()),
		argparse.WithExit(exit),
	}
	if name := programName(program); name != "" {
		opts = append(opts, argparse.WithProgram(name))
	}
	p, err := f.Parser(append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func handleParse(_ context.Context, args []string) error {
	flags, pos, argv, err := cli.ParseParse(cli.StripCommand("parse", args))
	if err != nil {
		return err
	}
	if err := cli.RequireArgsExactly("parse", pos, 1); err != nil {
		return err
	}
	if passthroughArgs != nil {
		argv = passthroughArgs
	}
	var extra []argparse.Option
	if flags.HasPolicy {
		extra = append(extra, argparse.WithPolicy(flags.Policy))
	}
	p, err := loadParser(pos[0], flags.Program, extra...)
	if err != nil {
		return err
	}

	res, perr := p.Parse(argv)
	if errors.Is(perr, argparse.ErrShown) {
		return nil
	}
	switch {
	case flags.Canonical:
		fmt.Fprintln(stdout, strings.Join(argparse.Unparse(p.Spec(), res.Values, p.Registry()), " "))
	case flags.JSON:
		if err := writeJSON(stdout, parseOutput(res)); err != nil {
			return err
		}
	default:
		writeValues(stdout, res.Values)
		if perr == nil {
			for _, e := range res.Errors {
				fmt.Fprintln(stdout, color.YellowString("warning:"), e)
			}
		}
	}
	return perr
}

type parseJSON struct {
	Options       map[string]any `json:"options"`
	Flags         map[string]any `json:"flags"`
	Positionals   map[int]any    `json:"positionals"`
	Errors        []string       `json:"errors,omitempty"`
	HelpRequested bool           `json:"helpRequested,omitempty"`
}

func parseOutput(res *argparse.Result) parseJSON {
	out := parseJSON{
		Options:       make(map[string]any, len(res.Values.Options)),
		Flags:         make(map[string]any, len(res.Values.Flags)),
		Positionals:   make(map[int]any, len(res.Values.Positionals)),
		HelpRequested: res.HelpRequested,
	}
	maps.Copy(out.Options, res.Values.Options)
	maps.Copy(out.Positionals, res.Values.Positionals)
	for k, v := range res.Values.Flags {
		if ev, ok := v.(argparse.EnumValue); ok {
			v = map[string]any{"level": ev.Ordinal, "name": ev.Name}
		}
		out.Flags[k] = v
	}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, e.Error())
	}
	return out
}

func writeValues(w io.Writer, vals argparse.Values) {
	for _, k := range sortedKeys(vals.Options) {
		fmt.Fprintf(w, "option %s = %v\n", k, vals.Options[k])
	}
	for _, k := range sortedKeys(vals.Flags) {
		fmt.Fprintf(w, "flag %s = %v\n", k, vals.Flags[k])
	}
	positions := make([]int, 0, len(vals.Positionals))
	for pos := range vals.Positionals {
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	for _, pos := range positions {
		fmt.Fprintf(w, "positional %d = %v\n", pos, vals.Positionals[pos])
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type checkResult struct {
	path string
	err  error
}

var errCheckFailed = errors.New("one or more declaration files are invalid")

func handleCheck(_ context.Context, args []string) error {
	flags, paths, err := cli.ParseCheck(cli.StripCommand("check", args))
	if err != nil {
		return err
	}
	paths = append(paths, passthroughArgs...)
	if err := cli.RequireArgsAtLeast("check", paths, 1); err != nil {
		return err
	}

	results := make([]checkResult, len(paths))
	var g errgroup.Group
	g.SetLimit(8)
	for i, path := range paths {
		g.Go(func() error {
			_, err := loadParser(path, "")
			results[i] = checkResult{path: path, err: err}
			return nil
		})
	}
	// Failures are collected per file; the group never returns an error.
	_ = g.Wait()

	failed := false
	for _, r := range results {
		if r.err == nil {
			if !flags.Quiet {
				fmt.Fprintf(stdout, "%s %s\n", color.GreenString("ok"), r.path)
			}
			continue
		}
		failed = true
		var se *argparse.SpecError
		if !errors.As(r.err, &se) {
			fmt.Fprintf(stdout, "%s %v\n", color.RedString("FAIL"), r.err)
			continue
		}
		fmt.Fprintf(stdout, "%s %s\n", color.RedString("FAIL"), r.path)
		for _, d := range se.Diagnostics {
			fmt.Fprintf(stdout, "    %s\n", d)
		}
	}
	if failed {
		return errCheckFailed
	}
	return nil
}

func handleRender(_ context.Context, args []string) error {
	flags, pos, err := cli.ParseRender(cli.StripCommand("render", args))
	if err != nil {
		return err
	}
	if err := cli.RequireArgsExactly("render", pos, 1); err != nil {
		return err
	}
	p, err := loadParser(pos[0], flags.Program)
	if err != nil {
		return err
	}
	fmt.Fprint(stdout, p.Help())
	return nil
}

func handleConvert(_ context.Context, args []string) error {
	flags, pos, err := cli.ParseConvert(cli.StripCommand("convert", args))
	if err != nil {
		return err
	}
	if err := cli.RequireArgsExactly("convert", pos, 2); err != nil {
		return err
	}
	src, dst := pos[0], pos[1]
	f, err := specfile.Load(src)
	if err != nil {
		return err
	}
	if _, err := specfile.FormatFor(dst); err != nil {
		return err
	}
	if !flags.Force {
		exists, err := fileutil.Exists(dst)
		if err != nil {
			return err
		}
		if exists {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return fmt.Errorf("%s already exists (use --force to overwrite)", dst)
			}
			ok, err := confirm(os.Stdin, stdout, fmt.Sprintf("Overwrite %s?", dst))
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
		}
	}
	if err := specfile.Save(dst, f); err != nil {
		return err
	}
	logf()("argcheck: wrote %s", dst)
	return nil
}

func handleVersion(_ context.Context, args []string) error {
	flags, _, err := cli.ParseVersion(cli.StripCommand("version", args))
	if err != nil {
		return err
	}
	if flags.JSON {
		return writeJSON(stdout, map[string]any{
			"version": buildVersion.String(),
			"major":   buildVersion.Major(),
			"minor":   buildVersion.Minor(),
			"patch":   buildVersion.Patch(),
		})
	}
	fmt.Fprintf(stdout, "%s %s\n", cli.CommandName, buildVersion)
	return nil
}

func confirm(r io.Reader, w io.Writer, msg string) (bool, error) {
	fmt.Fprintf(w, "%s [y/N]: ", msg)
	var answer string
	if _, err := fmt.Fscanln(r, &answer); err != nil && err.Error() != "unexpected newline" {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes"), nil
}

func printCLIError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, color.RedString("error:"), err)
}
