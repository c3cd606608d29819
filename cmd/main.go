package main

import (
	"chat-desk/internal"
	"chat-desk/runtime"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run keeps every defer (index and database close) ahead of os.Exit.
func run() error {
	// 1. Configuration & Logger
	config, err := internal.LoadConfig()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Engine (storage, stores, index, workers)
	engine, err := runtime.NewEngine(config, log)
	if err != nil {
		return fmt.Errorf("engine setup failed: %w", err)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			log.Warn("Engine close failed", "error", err)
		}
	}()

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine.Start(ctx)
	defer engine.Stop()

	// 4. Terminal front-end, until /quit, EOF or a signal
	console := newConsole(engine, os.Stdin, os.Stdout, true)
	if err = console.Run(ctx); err != nil {
		return err
	}
	log.Info("Program stopped cleanly")
	return nil
}
