package instrumentation

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Config configures NewProvider. DefaultConfig fills it from the
// environment.
type Config struct {
	ServiceName       string
	ServiceVersion    string
	ServiceInstanceID string // hostname when empty

	// Enabled=false turns every recorder into a no-op.
	Enabled bool

	MetricsExporter string // prometheus, otlp or stdout
	TracingExporter string // otlp, stdout or none

	// OTLPEndpoint is host:port without a scheme, e.g. "localhost:4318".
	OTLPEndpoint string
	// OTLPInsecure disables TLS. Spans carry message ids and label names.
	OTLPInsecure bool

	TraceSamplingRate  float64 // 0.0 to 1.0
	PrometheusEndpoint string

	// DetailedLabels adds the completion model and bulk size buckets to metrics.
	DetailedLabels bool

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig controls the audit log of inbox actions.
type AuditLoggingConfig struct {
	Enabled bool

	// IncludeIDs writes message and mutation ids to audit records. When
	// false only counts are logged.
	IncludeIDs bool
}

// DefaultConfig returns a Config with defaults taken from environment variables.
func DefaultConfig() Config {
	return Config{
		ServiceName:        envString("OTEL_SERVICE_NAME", "smartinbox"),
		ServiceVersion:     "unknown",
		ServiceInstanceID:  envString("OTEL_SERVICE_INSTANCE_ID", ""),
		Enabled:            envParsed("INSTRUMENTATION_ENABLED", true, strconv.ParseBool),
		MetricsExporter:    envString("METRICS_EXPORTER", ExporterPrometheus),
		TracingExporter:    envString("TRACING_EXPORTER", ExporterNone),
		OTLPEndpoint:       envString("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:       envParsed("OTEL_EXPORTER_OTLP_INSECURE", false, strconv.ParseBool),
		TraceSamplingRate:  envParsed("OTEL_TRACES_SAMPLER_ARG", 0.1, parseFloat),
		PrometheusEndpoint: envString("PROMETHEUS_ENDPOINT", "/metrics"),
		DetailedLabels:     envParsed("METRICS_DETAILED_LABELS", false, strconv.ParseBool),
		AuditLogging: AuditLoggingConfig{
			Enabled:    envParsed("AUDIT_LOGGING_ENABLED", true, strconv.ParseBool),
			IncludeIDs: envParsed("AUDIT_LOGGING_INCLUDE_IDS", false, strconv.ParseBool),
		},
	}
}

// Validate rejects unknown exporters, out-of-range sampling and OTLP
// exporters without an endpoint.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}
	if c.MetricsExporter != "" && !slices.Contains(metricsExporters, c.MetricsExporter) {
		return fmt.Errorf("invalid metrics exporter %q, must be one of: %s", c.MetricsExporter, strings.Join(metricsExporters, ", "))
	}
	if c.TracingExporter != "" && !slices.Contains(tracingExporters, c.TracingExporter) {
		return fmt.Errorf("invalid tracing exporter %q, must be one of: %s", c.TracingExporter, strings.Join(tracingExporters, ", "))
	}
	if c.OTLPEndpoint == "" {
		for signal, exporter := range map[string]string{"tracing": c.TracingExporter, "metrics": c.MetricsExporter} {
			if exporter == ExporterOTLP {
				return fmt.Errorf("OTLP endpoint is required when using OTLP %s exporter", signal)
			}
		}
	}
	return nil
}

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	tracingExporters = []string{ExporterOTLP, ExporterStdout, ExporterNone}
)

func envString(key, def string) string {
	return envParsed(key, def, func(v string) (string, error) { return v, nil })
}

// envParsed returns the parsed value of key, or def when the variable is
// unset or does not parse.
func envParsed[T any](key string, def T, parse func(string) (T, error)) T {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	parsed, err := parse(value)
	if err != nil {
		return def
	}
	return parsed
}

func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

// Label values and exporter names.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	// Session events
	SessionEventLogin   = "login"
	SessionEventLogout  = "logout"
	SessionEventExpired = "expired"

	ServiceGmail      = "gmail"
	ServiceCompletion = "completion"

	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"

	// DefaultMetricInterval is the push interval of the OTLP and stdout readers.
	DefaultMetricInterval = 10 * time.Second
)
