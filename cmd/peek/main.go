// Package main is the entry point for peek.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/peek/internal/app"
	"github.com/dshills/peek/internal/config"
	"github.com/dshills/peek/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

type flags struct {
	configPath string
	data       string
	sample     int
	seed       uint64
	lang       string
	mode       string
	watch      bool
	prompt     string
	noColor    bool
	logLevel   string
	logFile    string
}

func run() int {
	f := parseFlags()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.New(config.WithFile(f.configPath))
	if err := cfg.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		return 1
	}
	if err := applyFlags(cfg, f); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration:\n%v\n", err)
		return 2
	}

	lc := cfg.Log()
	w, closer, err := logging.OpenFile(lc.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closer.Close()

	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(lc.Level),
		Output: w,
		Prefix: "peek",
	})
	logging.SetDefault(logger)

	application, err := app.New(app.Options{
		Config: cfg,
		Logger: logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	if err := application.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// applyFlags copies the flags given on the command line into the
// arguments layer.
func applyFlags(cfg *config.Config, f flags) error {
	values := map[string]any{}
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "data", "d":
			values["data.path"] = f.data
		case "sample":
			values["data.sample"] = f.sample
		case "seed":
			values["data.seed"] = f.seed
		case "watch":
			values["data.watch"] = f.watch
		case "lang", "l":
			values["eval.lang"] = f.lang
		case "mode", "m":
			values["eval.mode"] = f.mode
		case "prompt":
			values["console.prompt"] = f.prompt
		case "log-level":
			values["log.level"] = f.logLevel
		case "log-file":
			values["log.file"] = f.logFile
		}
	})
	if arg := flag.Arg(0); arg != "" {
		values["data.path"] = arg
	}
	if f.noColor || os.Getenv("NO_COLOR") != "" {
		values["format.colors"] = false
	}

	for path, value := range values {
		if err := cfg.Set(path, value); err != nil {
			return fmt.Errorf("setting %s: %w", path, err)
		}
	}
	return nil
}

func parseFlags() flags {
	var f flags
	var showVersion bool
	var showHelp bool

	flag.StringVar(&f.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&f.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&f.data, "data", "", "JSON, YAML or TOML document to query")
	flag.StringVar(&f.data, "d", "", "Document to query (shorthand)")
	flag.IntVar(&f.sample, "sample", 128, "Number of leaves in the generated sample document")
	flag.Uint64Var(&f.seed, "seed", 0, "Seed for the sample document (0 picks one)")
	flag.StringVar(&f.lang, "lang", config.LangQuery, "Expression language (query, lua)")
	flag.StringVar(&f.lang, "l", config.LangQuery, "Expression language (shorthand)")
	flag.StringVar(&f.mode, "mode", config.ModePaths, "Query result mode (paths, value)")
	flag.StringVar(&f.mode, "m", config.ModePaths, "Query result mode (shorthand)")
	flag.BoolVar(&f.watch, "watch", false, "Reload the document when it changes")
	flag.StringVar(&f.prompt, "prompt", "> ", "Prompt shown before the input")
	flag.BoolVar(&f.noColor, "no-color", false, "Disable colored results")
	flag.StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&f.logFile, "log-file", "", "Log file (\"-\" for stderr)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "peek - query a document with a live preview\n\n")
		fmt.Fprintf(os.Stderr, "Usage: peek [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  peek                        Query a generated sample document\n")
		fmt.Fprintf(os.Stderr, "  peek data.json              Query a file\n")
		fmt.Fprintf(os.Stderr, "  peek -m value -watch a.yml  Show values and follow edits\n")
		fmt.Fprintf(os.Stderr, "  peek -l lua data.toml       Evaluate Lua against a file\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("peek %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if !logging.ValidLevel(f.logLevel) {
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", f.logLevel)
		os.Exit(1)
	}

	return f
}
