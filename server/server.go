package server

import (
	"context"
	"encoding/json"
	"errors"
	stdlog "log"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/parkwatch/parkcast/boundary"
	"github.com/parkwatch/parkcast/forecast"
	"github.com/parkwatch/parkcast/geomodel"
	"github.com/parkwatch/parkcast/sampler"
)

const MaxBodySize = 32 * 1000 * 1000 // 32MB

// cap on sampled points per request, a map cannot usefully show more
const maxSampleCount = 500

var meter = otel.Meter("github.com/parkwatch/parkcast/server")

// BoundaryProvider yields the current boundary dataset.
type BoundaryProvider interface {
	Dataset(ctx context.Context) (boundary.Dataset, error)
}

// Forecaster answers a single submitted user query.
type Forecaster interface {
	Forecast(ctx context.Context, q geomodel.Query) (geomodel.Result, error)
}

func Run(ctx context.Context, address string, src BoundaryProvider, fc Forecaster, rnd *rand.Rand) error {
	log := slog.Default()

	metricForecastCallCount, err := meter.Int64Counter("http_forecast_call_total")
	if err != nil {
		return err
	}
	metricPointsCallCount, err := meter.Int64Counter("http_points_call_total")
	if err != nil {
		return err
	}
	metricContainsCallCount, err := meter.Int64Counter("http_contains_call_total")
	if err != nil {
		return err
	}
	metricPointsSampled, err := meter.Int64Counter("points_sampled_total")
	if err != nil {
		return err
	}

	s := &server{
		src: src,
		fc:  fc,
		rnd: rnd,

		metricForecastCallCount: metricForecastCallCount,
		metricPointsCallCount:   metricPointsCallCount,
		metricContainsCallCount: metricContainsCallCount,
		metricPointsSampled:     metricPointsSampled,
	}

	r := router.New()
	r.GET("/forecast/{date}/{hour}/{lat}/{lon}", s.ForecastHandler)
	r.GET("/points/{count}", s.PointsHandler)
	r.POST("/contains", s.ContainsHandler)
	r.Handle(http.MethodGet, "/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))

	server := &fasthttp.Server{
		ReadTimeout:        time.Second,
		MaxRequestBodySize: MaxBodySize,
		Handler:            requestID(r.Handler),
	}

	go func() {
		log.Info("Server listening", "address", address)
		if err := server.ListenAndServe(address); err != http.ErrServerClosed {
			stdlog.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	slog.Info("Server started")

	// wait cancel
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return server.ShutdownWithContext(shutdownCtx)
}

type server struct {
	src BoundaryProvider
	fc  Forecaster

	// rnd is the only randomness source for sampling; math/rand.Rand is not
	// safe for concurrent use, so generation runs under mu.
	mu  sync.Mutex
	rnd *rand.Rand

	metricForecastCallCount metric.Int64Counter
	metricPointsCallCount   metric.Int64Counter
	metricContainsCallCount metric.Int64Counter
	metricPointsSampled     metric.Int64Counter
}

// pooled as pointers so capacity grown by the parser survives the Put
var reqPointsPool = sync.Pool{
	New: func() any {
		p := make([][2]float64, 0, 128)
		return &p
	},
}

func (s *server) ForecastHandler(ctx *fasthttp.RequestCtx) {
	s.metricForecastCallCount.Add(ctx, 1)

	hour, err := strconv.Atoi(ctx.UserValue("hour").(string))
	if err != nil {
		writeError(ctx, http.StatusBadRequest, "invalid hour")
		return
	}
	lat, err := strconv.ParseFloat(ctx.UserValue("lat").(string), 64)
	if err != nil {
		writeError(ctx, http.StatusBadRequest, "invalid latitude")
		return
	}
	lon, err := strconv.ParseFloat(ctx.UserValue("lon").(string), 64)
	if err != nil {
		writeError(ctx, http.StatusBadRequest, "invalid longitude")
		return
	}

	q := geomodel.Query{
		Date: ctx.UserValue("date").(string),
		Hour: hour,
		X:    lon,
		Y:    lat,
	}
	if err := forecast.ValidateQuery(q); err != nil {
		writeError(ctx, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.fc.Forecast(ctx, q)
	if err != nil {
		var ferr *forecast.Error
		if errors.As(err, &ferr) {
			writeError(ctx, http.StatusBadGateway, ferr.Message)
			return
		}
		slog.Error("forecast call failed", "error", err)
		writeError(ctx, http.StatusBadGateway, "forecast service unreachable")
		return
	}

	writeJSON(ctx, res)
}

func (s *server) PointsHandler(ctx *fasthttp.RequestCtx) {
	s.metricPointsCallCount.Add(ctx, 1)

	count, err := strconv.Atoi(ctx.UserValue("count").(string))
	if err != nil || count <= 0 {
		writeError(ctx, http.StatusBadRequest, "invalid count")
		return
	}
	if count > maxSampleCount {
		count = maxSampleCount
	}

	var spacing float64
	if arg := ctx.QueryArgs().Peek("spacing"); len(arg) > 0 {
		spacing, err = strconv.ParseFloat(string(arg), 64)
		if err != nil || spacing <= 0 {
			writeError(ctx, http.StatusBadRequest, "invalid spacing")
			return
		}
	}

	d, err := s.src.Dataset(ctx)
	if err != nil {
		// an unavailable boundary means no eligible points, not a failure
		slog.Warn("no boundary for points request", "error", err)
		writeJSON(ctx, []geomodel.Point{})
		return
	}

	s.mu.Lock()
	var eligible []geomodel.Point
	if spacing > 0 {
		eligible = sampler.EligibleSpaced(d.Union, spacing, s.rnd)
	} else {
		eligible = sampler.Eligible(d.Union, count, sampler.DefaultAttempts(count), s.rnd)
	}
	out := sampler.Sample(eligible, count, s.rnd)
	s.mu.Unlock()

	s.metricPointsSampled.Add(ctx, int64(len(out)))

	if out == nil {
		out = []geomodel.Point{}
	}
	writeJSON(ctx, out)
}

type containsResult struct {
	Inside bool   `json:"inside"`
	Zone   string `json:"zone,omitempty"`
}

func (s *server) ContainsHandler(ctx *fasthttp.RequestCtx) {
	s.metricContainsCallCount.Add(ctx, 1)

	reqp := reqPointsPool.Get().(*[][2]float64) // lat, lon pairs
	*reqp = (*reqp)[:0]
	defer reqPointsPool.Put(reqp)

	if err := unmarshalPointsListFast(ctx.Request.Body(), reqp); err != nil {
		writeError(ctx, http.StatusBadRequest, "failed to parse request: "+err.Error())
		return
	}
	req := *reqp

	var tree *boundary.ZoneTree
	if d, err := s.src.Dataset(ctx); err == nil {
		tree = d.Tree()
	}

	res := make([]containsResult, 0, len(req))
	for _, p := range req {
		var r containsResult
		if tree != nil {
			zone, ok := tree.QueryPoint(orb.Point{p[1], p[0]})
			r = containsResult{Inside: ok, Zone: zone.Name}
		}
		res = append(res, r)
	}

	writeJSON(ctx, res)
}

func requestID(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		id := string(ctx.Request.Header.Peek("X-Request-Id"))
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Response.Header.Set("X-Request-Id", id)
		next(ctx)
	}
}

func writeJSON(ctx *fasthttp.RequestCtx, v any) {
	out, err := json.Marshal(v)
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
		ctx.Response.SetBodyString("failed to marshal response")
		return
	}

	ctx.Response.Header.SetContentType("application/json")
	ctx.Response.SetStatusCode(http.StatusOK)
	ctx.Response.SetBody(out)
}

func writeError(ctx *fasthttp.RequestCtx, status int, msg string) {
	out, _ := json.Marshal(map[string]string{"error": msg})
	ctx.Response.Header.SetContentType("application/json")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBody(out)
}
