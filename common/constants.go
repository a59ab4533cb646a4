package common

import "time"

const ServiceName = "vod-gate"

const DefaultRpcWaitTime = 30 * time.Second

const (
	Env_MetricsEndpoint = "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"
)
