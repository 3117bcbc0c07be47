package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	sloglogrus "github.com/samber/slog-logrus/v2"
	slogmulti "github.com/samber/slog-multi"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/exporters/autoexport"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	logsdk "go.opentelemetry.io/otel/sdk/log"
	metricsdk "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"golang.org/x/sync/errgroup"

	logglobal "go.opentelemetry.io/otel/log/global"
)

type Client struct {
	log *slog.Logger

	tracerProvider *tracesdk.TracerProvider
	metricProvider *metricsdk.MeterProvider
	loggerProvider *logsdk.LoggerProvider
}

func (client *Client) Flush(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if client.metricProvider != nil {
		g.Go(func() error {
			return client.metricProvider.ForceFlush(ctx)
		})
	}
	if client.loggerProvider != nil {
		g.Go(func() error {
			return client.loggerProvider.ForceFlush(ctx)
		})
	}
	if client.tracerProvider != nil {
		g.Go(func() error {
			return client.tracerProvider.ForceFlush(ctx)
		})
	}

	return g.Wait()
}

func (client *Client) Shutdown(ctx context.Context) {
	if client.metricProvider != nil {
		if err := client.metricProvider.Shutdown(ctx); err != nil {
			client.log.ErrorContext(ctx, "error shutting down metric provider", "error", err.Error())
		}
	}
	if client.tracerProvider != nil {
		if err := client.tracerProvider.Shutdown(ctx); err != nil {
			client.log.ErrorContext(ctx, "error shutting down tracer provider", "error", err.Error())
		}
	}
	if client.loggerProvider != nil {
		if err := client.loggerProvider.Shutdown(ctx); err != nil {
			client.log.ErrorContext(ctx, "error shutting down logger provider", "error", err.Error())
		}
	}
}

func setEnvIfNotSet(key, value string) {
	if _, ok := os.LookupEnv(key); !ok {
		os.Setenv(key, value)
	}
}

// Setup wires the otel providers and the default slog logger. With an empty
// endpoint the exporters come from the OTEL_*_EXPORTER environment
// (defaulted to "none"); otherwise everything ships OTLP over HTTP to the
// given endpoint. A prometheus reader is registered either way so /metrics
// always works.
func Setup(ctx context.Context, appName, endpoint string) (*Client, error) {
	// otlp to localhost as the implicit default makes no sense for us
	setEnvIfNotSet("OTEL_TRACES_EXPORTER", "none")
	setEnvIfNotSet("OTEL_LOGS_EXPORTER", "none")
	setEnvIfNotSet("OTEL_METRICS_EXPORTER", "none")

	client := &Client{
		log: slog.With("component", "telemetry"),
	}
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(cause error) {
		client.log.ErrorContext(ctx, "otel error", "error", cause.Error())
	}))

	hostName, _ := os.Hostname()

	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(appName),
			semconv.HostName(hostName),
			semconv.ServiceInstanceID(uuid.NewString()),
		),
	)
	if err != nil {
		return nil, err
	}

	promExporter, err := prometheus.New(prometheus.WithNamespace(appName))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prometheus exporter: %w", err)
	}

	var metricReader metricsdk.Reader
	var spanExporter tracesdk.SpanExporter
	var logExporter logsdk.Exporter

	if endpoint != "" {
		metricExporter, err := otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithRetry(otlpmetrichttp.RetryConfig{Enabled: false}),
		)
		if err != nil {
			return nil, err
		}
		metricReader = metricsdk.NewPeriodicReader(metricExporter)

		spanExporter, err = otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(endpoint),
			otlptracehttp.WithRetry(otlptracehttp.RetryConfig{Enabled: false}),
		)
		if err != nil {
			return nil, err
		}

		logExporter, err = otlploghttp.New(ctx,
			otlploghttp.WithEndpoint(endpoint),
			otlploghttp.WithRetry(otlploghttp.RetryConfig{Enabled: false}),
		)
		if err != nil {
			return nil, err
		}
	} else {
		metricReader, err = autoexport.NewMetricReader(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize metric exporter: %w", err)
		}
		spanExporter, err = autoexport.NewSpanExporter(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize trace exporter: %w", err)
		}
		logExporter, err = autoexport.NewLogExporter(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize log exporter: %w", err)
		}
	}

	client.metricProvider = metricsdk.NewMeterProvider(
		metricsdk.WithResource(r),
		metricsdk.WithReader(promExporter),
		metricsdk.WithReader(metricReader),
	)
	otel.SetMeterProvider(client.metricProvider)

	client.tracerProvider = tracesdk.NewTracerProvider(
		tracesdk.WithResource(r),
		tracesdk.WithBatcher(spanExporter, tracesdk.WithExportTimeout(time.Second)),
	)
	otel.SetTracerProvider(client.tracerProvider)

	client.loggerProvider = logsdk.NewLoggerProvider(
		logsdk.WithResource(r),
		logsdk.WithProcessor(logsdk.NewBatchProcessor(logExporter, logsdk.WithExportInterval(time.Second))),
	)
	logglobal.SetLoggerProvider(client.loggerProvider)

	slog.SetDefault(slog.New(slogmulti.Fanout(
		otelslog.NewHandler("", otelslog.WithLoggerProvider(client.loggerProvider)),
		sloglogrus.Option{Level: slog.LevelDebug, Logger: logrus.StandardLogger()}.NewLogrusHandler(),
	)))

	// recreate telemetry logger on top of the new default
	client.log = slog.With("component", "telemetry")
	client.log.InfoContext(ctx, "telemetry initialized")

	return client, nil
}
