// Package main is the planner CLI. Each invocation opens a planner session on
// one trip, applies a single command and flushes the resulting save before
// exiting.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pkordes/itinerary/internal/cache"
	"github.com/pkordes/itinerary/internal/client"
	"github.com/pkordes/itinerary/internal/config"
	"github.com/pkordes/itinerary/internal/planner"
	"github.com/pkordes/itinerary/internal/telemetry"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "planner: %v\n", err)
		os.Exit(1)
	}
}

// run wires the planner from the environment and executes one command.
// Every resource it opens is released before it returns.
func run(args []string, stdout, stderr io.Writer) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.LoadPlanner()
	if err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	d := deps{
		stdout: stdout,
		stderr: stderr,
		source: client.New(cfg.APIURL),
		opts: []planner.Option{
			planner.WithLogger(logger),
			planner.WithSaveDelay(cfg.SaveDelay),
		},
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		defer rdb.Close()
		d.opts = append(d.opts, planner.WithCache(cache.NewRedisCache(rdb)))
	}

	return dispatch(ctx, args, d)
}
