package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	var (
		configPath    = flag.String("config", "config/config.yaml", "path to the YAML config file")
		maxConcurrent = flag.Int("max-concurrent", 256, "max in-flight HTTP requests (0 disables the limit)")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx, *configPath, *maxConcurrent); err != nil {
		fmt.Fprintln(os.Stderr, "dispatch service terminated:", err)
		os.Exit(1)
	}
}
