package instrumentation

import (
	"context"
	"testing"
	"time"
)

func testProviderConfig() Config {
	return Config{
		ServiceName:     "conflictfewer-test",
		ServiceVersion:  "0.0.0",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	}
}

func TestNewProviderDisabled(t *testing.T) {
	config := testProviderConfig()
	config.Enabled = false

	provider, err := NewProvider(context.Background(), config)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	if provider.Enabled() {
		t.Error("disabled config produced an enabled provider")
	}
	if provider.Metrics() == nil {
		t.Error("Metrics() must be non-nil even when disabled")
	}
	if provider.Tracer("test") == nil {
		t.Error("Tracer() must return a no-op tracer when disabled")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewProviderPrometheus(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, testProviderConfig())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	if !provider.Enabled() {
		t.Error("expected provider to be enabled")
	}
	if provider.Metrics() == nil {
		t.Error("expected a metrics recorder")
	}
	if provider.Tracer("test") == nil {
		t.Error("expected a tracer")
	}
}

func TestNewProviderStdoutExporters(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	config := testProviderConfig()
	config.MetricsExporter = ExporterStdout
	config.TracingExporter = ExporterStdout

	provider, err := NewProvider(ctx, config)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewProviderRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown metrics exporter", func(c *Config) { c.MetricsExporter = "statsd" }},
		{"unknown tracing exporter", func(c *Config) { c.TracingExporter = "jaeger" }},
		{"otlp metrics without endpoint", func(c *Config) { c.MetricsExporter = ExporterOTLP }},
		{"otlp tracing without endpoint", func(c *Config) { c.TracingExporter = ExporterOTLP }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			config := testProviderConfig()
			tt.mutate(&config)

			if _, err := NewProvider(ctx, config); err == nil {
				t.Error("NewProvider() succeeded, want error")
			}
		})
	}
}
