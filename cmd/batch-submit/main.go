package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/tokscope/internal/batchcli"
	"github.com/okian/tokscope/pkg/logger"
)

// Default configuration constants.
const (
	defaultPoll        = 2 * time.Second
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 2 * time.Hour
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		input      = flag.String("input", "", "JSON file of video records")
		mode       = flag.String("mode", "", "analyze or transcribe")
		key        = flag.String("key", "", "Idempotency key")
		poll       = flag.Duration("poll", defaultPoll, "Poll interval")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Write the final job JSON to this file")
		verbose    = flag.Bool("verbose", false, "Log every poll")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help || *input == "" {
		batchcli.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultTestTimeout)
	defer cancel()

	config := &batchcli.Config{
		BaseURL:        *baseURL,
		InputFile:      *input,
		Mode:           *mode,
		IdempotencyKey: *key,
		PollInterval:   *poll,
		Timeout:        *timeout,
		OutputFile:     *outputFile,
		Verbose:        *verbose,
	}

	if _, err := batchcli.Run(ctx, config); err != nil {
		logger.Get().Error(ctx, "batch submit failed", logger.Error(err))
		os.Exit(1)
	}
}
