package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/parkwatch/parkcast/boundary"
	"github.com/parkwatch/parkcast/boundarycache"
	"github.com/parkwatch/parkcast/boundarysource"
	"github.com/parkwatch/parkcast/geomodel"
	"github.com/parkwatch/parkcast/internal/stats"
	"github.com/parkwatch/parkcast/sampler"
)

func prefetch(ctx *cli.Context) error {
	runCtx, cancel := signalContext(ctx.Context)
	defer cancel()

	ttl, err := parseTTL(ctx.String("boundary.ttl"))
	if err != nil {
		return err
	}

	dir := ctx.String("dir")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating snapshot dir: %w", err)
	}

	return boundarysource.Prefetch(runCtx, ctx.StringSlice("url"), dir,
		boundarysource.WithTTL(ttl),
	)
}

func samplePoints(ctx *cli.Context) error {
	runCtx, cancel := signalContext(ctx.Context)
	defer cancel()

	if report := ctx.String("stats.report"); report != "" {
		collector, err := stats.NewCollector(time.Second)
		if err != nil {
			return fmt.Errorf("error creating stats collector: %w", err)
		}
		collector.Start()
		defer func() {
			if err := collector.Stop().SaveToFile(report); err != nil {
				slog.Error("failed to save run profile", "error", err)
			}
		}()
	}

	ds, err := loadDataset(runCtx, ctx)
	if err != nil {
		return err
	}

	seed := int64(ctx.Int("seed"))
	if !ctx.IsSet("seed") {
		seed = time.Now().UnixNano()
	}
	rnd := rand.New(rand.NewSource(seed))

	count := ctx.Int("count")
	var points []geomodel.Point
	if spacing := ctx.String("spacing"); spacing != "" {
		minDistance, err := strconv.ParseFloat(spacing, 64)
		if err != nil {
			return fmt.Errorf("invalid spacing: %w", err)
		}
		pool := sampler.EligibleSpaced(ds.Union, minDistance, rnd)
		points = sampler.Sample(pool, count, rnd)
	} else {
		pool := sampler.Eligible(ds.Union, count, sampler.DefaultAttempts(count), rnd)
		points = sampler.Sample(pool, count, rnd)
	}
	if points == nil {
		points = []geomodel.Point{}
	}

	out := os.Stdout
	if file := ctx.String("output"); file != "" {
		out, err = os.Create(file)
		if err != nil {
			return fmt.Errorf("error creating output file: %w", err)
		}
		defer out.Close()
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(points)
}

func loadDataset(runCtx context.Context, ctx *cli.Context) (boundary.Dataset, error) {
	if file := ctx.String("input"); file != "" {
		snap, err := boundarycache.LoadFromFile(file)
		if err == nil {
			return boundary.ParseDataset(file, snap.Boundary)
		}
		// Not a snapshot, try the file as raw GeoJSON.
		data, rerr := os.ReadFile(file)
		if rerr != nil {
			return boundary.Dataset{}, fmt.Errorf("error reading boundary file: %w", rerr)
		}
		return boundary.ParseDataset(file, data)
	}

	url := ctx.String("url")
	if url == "" {
		return boundary.Dataset{}, fmt.Errorf("either input file or url is required")
	}
	src := boundarysource.New(url)
	return src.Dataset(runCtx)
}
