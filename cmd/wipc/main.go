// Command wipc is a utility for working with WIPC streams: serving the
// echo service on stdio, talking to child processes, one-shot calls,
// interop checks, and benchmarks.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
)

type app struct {
	ctx context.Context
	cfg config
	log zerolog.Logger
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: wipc [flags] <command> [args]

Commands:
  serve             speak WIPC on stdio, answering with the echo service
  exec <cmd...>     spawn a command and talk to it interactively
  call <url> [args] send one CALL and print the next reply frame
  check [cmd]       run interop checks against a subprocess (default: self)
  bench [cmd]       measure echo throughput against a subprocess

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	var (
		configPath = flag.String("config", "", "path to TOML config file")
		logLevel   = flag.String("log-level", "", "trace, debug, info, warn, or error")
	)
	flag.Usage = usage
	flag.Parse()

	cfg := defaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = loadConfig(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "wipc:", err)
			os.Exit(1)
		}
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger := initLogger("wipc", cfg.LogLevel)

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{ctx: ctx, cfg: cfg, log: logger}

	var err error
	switch args[0] {
	case "serve":
		err = a.serve(args[1:])
	case "exec":
		err = a.exec(args[1:])
	case "call":
		err = a.call(args[1:])
	case "check":
		err = a.check(args[1:])
	case "bench":
		err = a.bench(args[1:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal().Err(err).Str("command", args[0]).Msg("command failed")
	}
}
