// Command stagecheck runs one staging/production row-count check and prints
// "True" or "False" on stdout.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stagecheck/internal/platform/logging"
	"stagecheck/internal/platform/otel"
	"stagecheck/internal/stagecheck"

	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log, err := logging.New("stagecheck")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	shutdownOTEL, err := otel.Init(ctx, "stagecheck")
	if err != nil {
		log.Fatal("otel init failed", zap.Error(err))
	}

	result, err := stagecheck.Invoke(logging.With(ctx, log), nil, nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = shutdownOTEL(shutdownCtx)
	cancel()

	if err != nil {
		log.Error("check failed", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
	fmt.Println(result)
}
