package apexText

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "apexText"

// codecMetrics are the counters a codec reports to. Every measurement carries
// the codec's format name.
type codecMetrics struct {
	builds        metric.Int64Counter
	casConflicts  metric.Int64Counter
	depthExceeded metric.Int64Counter
	attrs         metric.MeasurementOption
}

func newCodecMetrics(mp metric.MeterProvider, format string) *codecMetrics {
	meter := mp.Meter(meterName)
	m := &codecMetrics{
		attrs: metric.WithAttributeSet(attribute.NewSet(attribute.String("format", format))),
	}

	var err error
	if m.builds, err = meter.Int64Counter("apextext.dispatch.builds",
		metric.WithDescription("Type codecs compiled on a dispatch cache miss"),
		metric.WithUnit("{codec}")); err != nil {
		m.builds = noop.Int64Counter{}
	}
	if m.casConflicts, err = meter.Int64Counter("apextext.dispatch.cas_conflicts",
		metric.WithDescription("Dispatch cache publications retried after losing a compare-and-swap"),
		metric.WithUnit("{retry}")); err != nil {
		m.casConflicts = noop.Int64Counter{}
	}
	if m.depthExceeded, err = meter.Int64Counter("apextext.depth.exceeded",
		metric.WithDescription("Subtrees truncated because the nesting depth limit was reached"),
		metric.WithUnit("{subtree}")); err != nil {
		m.depthExceeded = noop.Int64Counter{}
	}
	return m
}

func (m *codecMetrics) build() {
	m.builds.Add(context.Background(), 1, m.attrs)
}

func (m *codecMetrics) casConflict() {
	m.casConflicts.Add(context.Background(), 1, m.attrs)
}

func (m *codecMetrics) depthLimit() {
	m.depthExceeded.Add(context.Background(), 1, m.attrs)
}
