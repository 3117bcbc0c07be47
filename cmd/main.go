package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "net/http/pprof"

	"github.com/urfave/cli/v3"

	"github.com/parkwatch/parkcast/internal/telemetry"

	_ "github.com/KimMachineGun/automemlimit"
	_ "go.uber.org/automaxprocs"
)

const appName = "parkcast"

func main() {
	app := &cli.App{
		Name:        appName,
		Description: "Street parking ticket forecast service with boundary-constrained map sampling",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "serve the parkcast api",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
					},
					&cli.StringFlag{
						Name:     "boundary.url",
						Usage:    "url of the boundary dataset (GeoJSON)",
						Required: true,
					},
					&cli.StringFlag{
						Name:      "boundary.snapshot",
						Usage:     "path of the boundary snapshot file, .zst for compression",
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:  "boundary.ttl",
						Value: "3h",
					},
					&cli.StringFlag{
						Name:     "forecast.url",
						Usage:    "endpoint of the prediction service",
						Required: true,
					},
					&cli.IntFlag{
						Name:        "seed",
						Usage:       "seed for the sampling random source",
						DefaultText: "current time",
					},
					&cli.StringFlag{
						Name:        "otel.endpoint",
						DefaultText: "",
					},
					&cli.StringFlag{
						Name:        "pprof.listen",
						DefaultText: "",
					},
				},
				Action: serve,
			},
			{
				Name:  "prefetch",
				Usage: "warm boundary snapshots for one or more dataset urls",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "url",
						Aliases:  []string{"u"},
						Required: true,
					},
					&cli.StringFlag{
						Name:  "dir",
						Value: ".",
					},
					&cli.StringFlag{
						Name:  "boundary.ttl",
						Value: "3h",
					},
				},
				Action: prefetch,
			},
			{
				Name:  "sample",
				Usage: "sample points inside a boundary offline",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:      "input",
						Aliases:   []string{"i"},
						Usage:     "boundary snapshot or raw GeoJSON file",
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:  "url",
						Usage: "boundary dataset url, used when no input file is given",
					},
					&cli.IntFlag{
						Name:    "count",
						Aliases: []string{"n"},
						Value:   100,
					},
					&cli.IntFlag{
						Name:        "seed",
						DefaultText: "current time",
					},
					&cli.StringFlag{
						Name:  "spacing",
						Usage: "minimum marker distance in degrees, switches to spaced sampling",
					},
					&cli.StringFlag{
						Name:      "output",
						Aliases:   []string{"o"},
						Usage:     "output file, stdout when empty",
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:      "stats.report",
						Usage:     "write a run profile to this file",
						TakesFile: true,
					},
				},
				Action: samplePoints,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func startPprof(listen string) {
	go func() {
		slog.Info("Starting pprof server", "listen", listen)
		err := http.ListenAndServe(listen, nil)
		if err != nil {
			slog.Error("Error starting pprof server", "error", err)
		}
	}()
}

func flushTelemetry(tel *telemetry.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tel.Flush(ctx); err != nil {
		slog.Error("failed to flush telemetry", "error", err)
	}
	tel.Shutdown(ctx)
}

func parseTTL(s string) (time.Duration, error) {
	ttl, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid boundary.ttl: %w", err)
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("boundary.ttl must be positive, got %s", ttl)
	}
	return ttl, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
