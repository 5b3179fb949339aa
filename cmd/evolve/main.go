package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/GoSim-25-26J-441/evolution-core/internal/runner"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/config"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/logger"
)

func main() {
	var specPath string
	var outputPath string
	var logLevel string
	var workers int
	var verbosity int
	var listProblems bool

	flag.StringVar(&specPath, "spec", "", "path to the run spec YAML")
	flag.StringVar(&outputPath, "output", "", "write the JSON result to this file instead of stdout")
	flag.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.IntVar(&workers, "workers", 0, "override the number of engine workers")
	flag.IntVar(&verbosity, "verbosity", -1, "override the status verbosity (0-3)")
	flag.BoolVar(&listProblems, "list-problems", false, "list the registered problems and exit")
	flag.Parse()

	log := logger.NewText(logLevel, os.Stderr)
	logger.SetDefault(log)
	registry := runner.DefaultRegistry()

	if listProblems {
		for _, name := range registry.Names() {
			os.Stdout.WriteString(name + "\n")
		}
		return
	}
	if specPath == "" {
		logger.Error("missing -spec")
		flag.Usage()
		os.Exit(2)
	}

	spec, err := config.LoadRunSpec(specPath)
	if err != nil {
		logger.Error("failed to load run spec", "path", specPath, "error", err)
		os.Exit(1)
	}
	if workers > 0 || verbosity >= 0 {
		if workers > 0 {
			spec.Evolution.Workers = workers
		}
		if verbosity >= 0 {
			spec.Evolution.Verbosity = verbosity
		}
		if err := spec.Prepare(); err != nil {
			logger.Error("invalid overrides", "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, runErr := registry.Run(ctx, spec, runner.Options{Logger: log, StatusOutput: os.Stderr})
	if res == nil {
		logger.Error("run failed", "error", runErr)
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			logger.Error("failed to create output file", "path", outputPath, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		logger.Error("failed to write result", "error", err)
		os.Exit(1)
	}

	if runErr != nil {
		logger.Warn("run interrupted, result is partial", "error", runErr)
		stop()
		os.Exit(130)
	}
}
