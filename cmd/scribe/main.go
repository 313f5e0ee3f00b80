// cmd/scribe/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stlog "log" // Use standard log for errors before logger is ready
	"os"
	"os/signal"

	"github.com/bethropolis/scribe/internal/commands"
	"github.com/bethropolis/scribe/internal/config"
	"github.com/bethropolis/scribe/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	registry := commands.NewRegistry()
	if err := commands.RegisterBuiltins(registry); err != nil {
		stlog.Printf("Failed to register commands: %v", err)
		return 1
	}

	// --- Argument & Flag Parsing ---
	flags := &config.Flags{}
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage: %s [flags] <command> [command flags] [file]\n\nCommands:\n", config.AppName)
		registry.PrintUsage(out)
		fmt.Fprintf(out, "\nFlags:\n")
		flag.PrintDefaults()
	}
	args, err := flags.ParseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		return 2
	}
	if len(args) == 0 {
		flag.Usage()
		return 2
	}

	// --- Configuration ---
	cfg, err := config.LoadConfig(*flags.ConfigFilePath, flags)
	if err != nil {
		// cfg still holds defaults plus whatever parsed
		stlog.Printf("Warning: %v", err)
	}

	// --- Logger Initialization ---
	logOut, closeLog, err := logger.OpenOutput(cfg.Logger.LogFilePath)
	if err != nil {
		stlog.Printf("Failed to open log output: %v", err)
		return 1
	}
	defer closeLog()
	logger.Init(cfg.Logger, logOut)
	logger.Debugf("Log level set to: %s", cfg.Logger.LogLevel)
	logger.Debugf("Store: %s", cfg.Store.Path)

	// --- Run Command ---
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	env := commands.NewEnv(cfg, os.Stdin, os.Stdout)
	defer func() {
		if err := env.Close(); err != nil {
			logger.Warnf("Closing store: %v", err)
		}
	}()

	if err := registry.Run(ctx, env, args[0], args[1:]); err != nil {
		logger.Errorf("Command failed: %v", err)
		fmt.Fprintf(os.Stderr, "%s: %v\n", config.AppName, err)
		if errors.Is(err, commands.ErrUnknownCommand) {
			flag.Usage()
			return 2
		}
		return 1
	}
	return 0
}
