// Package otel owns the OpenTelemetry log provider and hands out meters.
package otel

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/ringline/racecore/internal/config"
)

// ErrNoExporter is returned when OTel is enabled without a writer or endpoint.
var ErrNoExporter = errors.New("OTel enabled but no log writer or endpoint configured")

// Provider manages OpenTelemetry providers for logs and metrics
type Provider struct {
	logProvider *sdklog.LoggerProvider
	config      config.OTelConfig
}

// New creates a provider. logWriter receives exported log records; it may be
// nil when an OTLP endpoint is configured. A disabled config yields a no-op
// provider.
func New(cfg config.OTelConfig, logWriter io.Writer) (*Provider, error) {
	p := &Provider{config: cfg}
	if !cfg.Enabled {
		return p, nil
	}

	ctx := context.Background()
	exporters, err := logExporters(ctx, cfg, logWriter)
	if err != nil {
		return nil, err
	}
	if len(exporters) == 0 {
		return nil, ErrNoExporter
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []sdklog.LoggerProviderOption{sdklog.WithResource(res)}
	for _, exp := range exporters {
		batch := sdklog.NewBatchProcessor(exp, sdklog.WithExportTimeout(cfg.BatchTimeout))
		opts = append(opts, sdklog.WithProcessor(batch))
	}
	p.logProvider = sdklog.NewLoggerProvider(opts...)
	return p, nil
}

// logExporters builds a file exporter when w is set and an OTLP/HTTP
// exporter when an endpoint is configured.
func logExporters(ctx context.Context, cfg config.OTelConfig, w io.Writer) ([]sdklog.Exporter, error) {
	var out []sdklog.Exporter

	if w != nil {
		exp, err := stdoutlog.New(stdoutlog.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("failed to create file log exporter: %w", err)
		}
		out = append(out, exp)
	}

	if cfg.Endpoint == "" {
		return out, nil
	}
	httpOpts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		httpOpts = append(httpOpts, otlploghttp.WithInsecure())
	}
	exp, err := otlploghttp.New(ctx, httpOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
	}
	return append(out, exp), nil
}

// LoggerProvider returns the log provider for the otelslog bridge, or nil when
// disabled.
func (p *Provider) LoggerProvider() *sdklog.LoggerProvider {
	return p.logProvider
}

// Meter returns the globally registered meter when enabled and a no-op one
// otherwise.
func (p *Provider) Meter(name string) metric.Meter {
	if !p.config.Enabled {
		return noop.Meter{}
	}
	return otel.Meter(name)
}

// Flush forces pending log records out. Called at race end.
func (p *Provider) Flush(ctx context.Context) error {
	return p.withLogs("log flush", func(lp *sdklog.LoggerProvider) error { return lp.ForceFlush(ctx) })
}

// Shutdown stops the providers. Call once at exit.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.withLogs("log shutdown", func(lp *sdklog.LoggerProvider) error { return lp.Shutdown(ctx) })
}

func (p *Provider) withLogs(op string, fn func(*sdklog.LoggerProvider) error) error {
	if p.logProvider == nil {
		return nil
	}
	if err := fn(p.logProvider); err != nil {
		return fmt.Errorf("%s failed: %w", op, err)
	}
	return nil
}

// Enabled reports whether OTel is enabled.
func (p *Provider) Enabled() bool {
	return p.config.Enabled
}
