package observability

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Config holds tracing settings.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TracingEnabled bool
	OTLPEndpoint   string
	OTLPHeaders    map[string]string
	SamplingRate   float64 // 0.0 - 1.0

	TraceBatchTimeout time.Duration
	ResourceAttrs     []attribute.KeyValue
}

// DefaultConfig returns tracing disabled with collector defaults filled in.
func DefaultConfig(serviceName string) Config {
	return Config{
		ServiceName:       serviceName,
		ServiceVersion:    "unknown",
		Environment:       "development",
		OTLPEndpoint:      "localhost:4318",
		SamplingRate:      1.0,
		TraceBatchTimeout: 5 * time.Second,
	}
}
