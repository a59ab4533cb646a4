package metrics

import (
	"context"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/livepeer/video-nft-sdk/common"
	"github.com/livepeer/video-nft-sdk/models"
)

const exportInterval = 30 * time.Second

// OtelMetricService implements models.MetricService on the OpenTelemetry
// metric SDK. Metrics go to an OTLP endpoint when one is configured through
// the environment, otherwise to stdout.
type OtelMetricService struct {
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	logger        models.Logger

	mu         sync.Mutex
	counters   map[models.MetricName]metric.Int64Counter
	histograms map[models.MetricName]metric.Int64Histogram
}

func NewMetricService(ctx context.Context, logger models.Logger) (models.MetricService, error) {
	var exporter sdkmetric.Exporter
	var err error
	if endpoint := os.Getenv(common.Env_MetricsEndpoint); len(endpoint) > 0 {
		// The OTLP exporter picks the endpoint up from the environment.
		exporter, err = otlpmetrichttp.New(ctx)
	} else {
		exporter, err = stdoutmetric.New()
	}
	if err != nil {
		return nil, err
	}

	res := resource.NewSchemaless(attribute.String("service.name", common.ServiceName))
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval))),
		sdkmetric.WithResource(res),
	)
	return &OtelMetricService{
		meterProvider: meterProvider,
		meter:         meterProvider.Meter(models.MetricsCallerName),
		logger:        logger,
		counters:      make(map[models.MetricName]metric.Int64Counter),
		histograms:    make(map[models.MetricName]metric.Int64Histogram),
	}, nil
}

func (o *OtelMetricService) Count(ctx context.Context, name models.MetricName, val int) error {
	counter, err := o.counter(name)
	if err != nil {
		return err
	}
	counter.Add(ctx, int64(val))
	return nil
}

func (o *OtelMetricService) Distribution(ctx context.Context, name models.MetricName, val int) error {
	histogram, err := o.histogram(name)
	if err != nil {
		return err
	}
	histogram.Record(ctx, int64(val))
	return nil
}

func (o *OtelMetricService) Shutdown(ctx context.Context) {
	if err := o.meterProvider.Shutdown(ctx); err != nil {
		o.logger.Errorf("metrics: error shutting down meter provider: %v", err)
	}
}

func (o *OtelMetricService) counter(name models.MetricName) (metric.Int64Counter, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if counter, found := o.counters[name]; found {
		return counter, nil
	}
	counter, err := o.meter.Int64Counter(string(name))
	if err != nil {
		return nil, err
	}
	o.counters[name] = counter
	return counter, nil
}

func (o *OtelMetricService) histogram(name models.MetricName) (metric.Int64Histogram, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if histogram, found := o.histograms[name]; found {
		return histogram, nil
	}
	histogram, err := o.meter.Int64Histogram(string(name))
	if err != nil {
		return nil, err
	}
	o.histograms[name] = histogram
	return histogram, nil
}
