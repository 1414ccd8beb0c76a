package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"
)

func showUsage() {
	fmt.Fprintf(os.Stderr, `flowcheck - flow-sensitive type refinement for annotated program trees

Usage:
    flowcheck <command> [arguments]

Commands:
    check <file>        Check one tree file
    batch <path>...     Check every tree file below the given paths
    watch <path>...     Recheck tree files as they change
    test <file.md>...   Run markdown fixture suites
    dump <file>         Print the checked tree with refined types
    help                Show this help message

Examples:
    flowcheck check examples/break.tree
    flowcheck batch -json -j 4 examples/
    flowcheck watch examples/
    flowcheck test test/*_test.md

Settings are read from flowcheck.yaml next to the checked files (or any
parent directory) unless -config names one.

Use "flowcheck <command> -h" for more information about a command.
`)
}

// commonFlags are the flags every command accepts.
type commonFlags struct {
	verbose    *bool
	jsonOutput *bool
	configPath *string
}

func newFlagSet(name, usage, description string) (*flag.FlagSet, commonFlags) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	common := commonFlags{
		verbose:    fs.Bool("v", false, "Show verbose checking details"),
		jsonOutput: fs.Bool("json", false, "Print results as JSON"),
		configPath: fs.String("config", "", "Path to flowcheck.yaml (default: search from the first argument)"),
	}
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: flowcheck %s\n", usage)
		fmt.Fprintf(os.Stderr, "%s\n\n", description)
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	return fs, common
}

// loadConfig picks the config named by -config, else the nearest
// flowcheck.yaml above start, else the defaults.
func (common commonFlags) loadConfig(start string) Config {
	path := *common.configPath
	if path == "" {
		dir := start
		if info, err := os.Stat(start); err == nil && !info.IsDir() {
			dir = filepath.Dir(start)
		}
		if found, ok := FindConfig(dir); ok {
			path = found
		}
	}

	cfg := DefaultConfig()
	if path != "" {
		var err error
		cfg, err = LoadConfig(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if *common.verbose {
			fmt.Fprintf(os.Stderr, "Using config %s\n", path)
		}
	}
	if *common.jsonOutput {
		cfg.Format = "json"
	}
	return cfg
}

func checkCommand(args []string) {
	fs, common := newFlagSet("check", "check [-v] [-json] [-config file] <file>", "Check one tree file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		os.Exit(1)
	}

	filename := fs.Arg(0)
	cfg := common.loadConfig(filename)
	if *common.verbose {
		fmt.Fprintf(os.Stderr, "Checking %s...\n", filename)
	}

	start := time.Now()
	fr := CheckFile(filename, cfg)
	if *common.verbose {
		printLoopStats(fr)
		fmt.Fprintf(os.Stderr, "Checked %s in %v\n", filename, time.Since(start))
	}
	printResults([]FileResult{fr}, cfg)
	if fr.HasErrors() {
		os.Exit(1)
	}
}

func batchCommand(args []string) {
	fs, common := newFlagSet("batch", "batch [-v] [-json] [-j N] [-config file] <path>...", "Check every tree file below the given paths")
	jobs := fs.Int("j", 0, "Number of files checked concurrently (default: jobs from config)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: expected at least one path\n")
		fs.Usage()
		os.Exit(1)
	}

	cfg := common.loadConfig(fs.Arg(0))
	if *jobs > 0 {
		cfg.Jobs = *jobs
	}

	files, err := CollectFiles(fs.Args(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *common.verbose {
		fmt.Fprintf(os.Stderr, "Checking %d files with %d jobs...\n", len(files), cfg.Jobs)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	results, err := CheckFiles(ctx, files, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *common.verbose {
		for _, fr := range results {
			printLoopStats(fr)
		}
		fmt.Fprintf(os.Stderr, "Checked %d files in %v\n", len(files), time.Since(start))
	}

	printResults(results, cfg)
	for _, fr := range results {
		if fr.HasErrors() {
			os.Exit(1)
		}
	}
}

func watchCommand(args []string) {
	fs, common := newFlagSet("watch", "watch [-v] [-json] [-config file] <path>...", "Recheck tree files as they change")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: expected at least one path\n")
		fs.Usage()
		os.Exit(1)
	}

	cfg := common.loadConfig(fs.Arg(0))
	w, err := NewWatcher(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer w.Close()

	for _, path := range fs.Args() {
		if err := w.Add(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if *common.verbose {
			fmt.Fprintf(os.Stderr, "Watching %s\n", path)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = w.Run(ctx, func(fr FileResult) {
		if *common.verbose {
			printLoopStats(fr)
		}
		printResults([]FileResult{fr}, cfg)
	}, func(err error) {
		fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func testCommand(args []string) {
	fs, common := newFlagSet("test", "test [-v] [-config file] <file.md>...", "Run markdown fixture suites")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: expected at least one fixture file\n")
		fs.Usage()
		os.Exit(1)
	}

	cfg := common.loadConfig(fs.Arg(0))
	failed := 0
	for _, path := range fs.Args() {
		n, err := RunFixtureFile(path, cfg, *common.verbose)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		failed += n
	}
	if failed > 0 {
		fmt.Printf("%d test cases failed\n", failed)
		os.Exit(1)
	}
	fmt.Printf("all test cases passed\n")
}

func dumpCommand(args []string) {
	fs, common := newFlagSet("dump", "dump [-v] [-positions=false] [-config file] <file>", "Print the checked tree with the refined type of every reference")
	positions := fs.Bool("positions", true, "Write the line and column of every form")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		os.Exit(1)
	}

	filename := fs.Arg(0)
	cfg := common.loadConfig(filename)
	fr := CheckFile(filename, cfg)
	if fr.Err != nil {
		fmt.Fprintf(os.Stderr, "Input errors in %s:\n%v\n", filename, fr.Err)
		os.Exit(1)
	}
	if *common.verbose {
		printLoopStats(fr)
	}
	if *positions {
		fmt.Println(ToSExprWithPositions(fr.Program))
	} else {
		fmt.Println(ToSExpr(fr.Program))
	}
}

func printLoopStats(fr FileResult) {
	if fr.Result == nil {
		return
	}
	for _, fn := range fr.Result.Functions {
		for _, loop := range fn.Loops {
			status := "stable"
			if !loop.Stable {
				status = "unstable"
			}
			fmt.Fprintf(os.Stderr, "%s: function '%s': loop at %s: %d passes, %s\n", fr.Path, fn.Name, loop.Pos, loop.Passes, status)
		}
	}
}

func printResults(results []FileResult, cfg Config) {
	if cfg.Format == "json" {
		printJSON(results)
		return
	}
	for _, fr := range results {
		printText(fr)
	}
}

func printText(fr FileResult) {
	if fr.Err != nil {
		fmt.Printf("Input errors in %s:\n%v\n", fr.Path, fr.Err)
		return
	}
	clean := true
	for _, fn := range fr.Result.Functions {
		if fn.Err != nil {
			clean = false
			fmt.Printf("%s: function '%s': %v\n", fr.Path, fn.Name, fn.Err)
			continue
		}
		for _, d := range fn.Diagnostics {
			clean = false
			fmt.Printf("%s:%s\n", fr.Path, d.Error())
		}
	}
	if clean {
		fmt.Printf("%s: no errors found\n", fr.Path)
	}
}

type jsonDiagnostic struct {
	Function string `json:"function"`
	Line     int    `json:"line"`
	Col      int    `json:"col,omitempty"`
	Context  string `json:"context"`
	Member   string `json:"member"`
	Actual   string `json:"actual"`
	Expected string `json:"expected"`
	Message  string `json:"message"`
}

type jsonFileReport struct {
	File        string           `json:"file"`
	Error       string           `json:"error,omitempty"`
	Internal    []string         `json:"internal,omitempty"`
	Diagnostics []jsonDiagnostic `json:"diagnostics"`
}

func printJSON(results []FileResult) {
	reports := make([]jsonFileReport, 0, len(results))
	for _, fr := range results {
		report := jsonFileReport{File: fr.Path, Diagnostics: []jsonDiagnostic{}}
		if fr.Err != nil {
			report.Error = fr.Err.Error()
		}
		if fr.Result != nil {
			for _, fn := range fr.Result.Functions {
				if fn.Err != nil {
					report.Internal = append(report.Internal, fmt.Sprintf("function '%s': %v", fn.Name, fn.Err))
				}
				for _, d := range fn.Diagnostics {
					report.Diagnostics = append(report.Diagnostics, jsonDiagnostic{
						Function: d.Function,
						Line:     d.Pos.Line,
						Col:      d.Pos.Col,
						Context:  d.Context,
						Member:   d.Member.String(),
						Actual:   d.Actual.String(),
						Expected: d.Expected.String(),
						Message:  d.Error(),
					})
				}
			}
		}
		reports = append(reports, report)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reports); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "check":
		checkCommand(args)
	case "batch":
		batchCommand(args)
	case "watch":
		watchCommand(args)
	case "test":
		testCommand(args)
	case "dump":
		dumpCommand(args)
	case "version":
		fmt.Printf("flowcheck %s\n", Version)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		showUsage()
		os.Exit(1)
	}
}
