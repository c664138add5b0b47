// Package staticotel exports staticdata operation events as OpenTelemetry
// metrics: a total counter, an error counter, and a duration histogram,
// attributed by operation, driver and hit/miss. Keys are deliberately not
// recorded to keep attribute cardinality bounded.
package staticotel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/goforj/staticdata"
	"github.com/goforj/staticdata/staticcore"
)

// Observer implements staticdata.Observer on top of an OpenTelemetry meter.
type Observer struct {
	total    metric.Int64Counter
	errors   metric.Int64Counter
	duration metric.Float64Histogram
}

var _ staticdata.Observer = (*Observer)(nil)

// New creates an Observer registering its instruments on meter.
func New(meter metric.Meter) (*Observer, error) {
	total, err := meter.Int64Counter(
		"staticdata.op.total",
		metric.WithDescription("Total number of staticdata operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	errCount, err := meter.Int64Counter(
		"staticdata.op.errors",
		metric.WithDescription("Total number of failed staticdata operations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"staticdata.op.duration_ms",
		metric.WithDescription("staticdata operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Observer{
		total:    total,
		errors:   errCount,
		duration: duration,
	}, nil
}

// OnFetchOp records one operation event.
func (o *Observer) OnFetchOp(ctx context.Context, op string, key string, hit bool, err error, dur time.Duration, driver staticcore.Driver) {
	opt := metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("driver", string(driver)),
		attribute.Bool("hit", hit),
	)

	o.total.Add(ctx, 1, opt)
	if err != nil {
		o.errors.Add(ctx, 1, opt)
	}
	o.duration.Record(ctx, float64(dur.Milliseconds()), opt)
}
