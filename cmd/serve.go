package main

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/parkwatch/parkcast/boundarysource"
	"github.com/parkwatch/parkcast/forecast"
	"github.com/parkwatch/parkcast/internal/telemetry"
	"github.com/parkwatch/parkcast/server"
)

func serve(ctx *cli.Context) error {
	runCtx, cancel := signalContext(ctx.Context)
	defer cancel()

	tel, err := telemetry.Setup(runCtx, appName, ctx.String("otel.endpoint"))
	if err != nil {
		return err
	}
	defer flushTelemetry(tel)

	if listen := ctx.String("pprof.listen"); listen != "" {
		startPprof(listen)
	}

	ttl, err := parseTTL(ctx.String("boundary.ttl"))
	if err != nil {
		return err
	}

	opts := []boundarysource.Option{
		boundarysource.WithTTL(ttl),
	}
	if file := ctx.String("boundary.snapshot"); file != "" {
		opts = append(opts, boundarysource.WithSnapshotFile(file))
	}
	src := boundarysource.New(ctx.String("boundary.url"), opts...)

	// Warm the boundary before accepting traffic. A failure here is not
	// fatal, handlers degrade to empty point sets until a fetch succeeds.
	if _, err := src.Dataset(runCtx); err != nil {
		slog.Warn("initial boundary load failed", "error", err)
	}

	fc := forecast.NewClient(ctx.String("forecast.url"))

	seed := int64(ctx.Int("seed"))
	if !ctx.IsSet("seed") {
		seed = time.Now().UnixNano()
	}
	rnd := rand.New(rand.NewSource(seed))

	return server.Run(runCtx, ctx.String("listen"), src, fc, rnd)
}
