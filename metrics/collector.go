/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package metrics implements the metrics actor: it accumulates named,
// tag-qualified numeric samples in memory and serves point-in-time snapshots.
package metrics

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/tochemey/orderpipe/actor"
	"github.com/tochemey/orderpipe/log"
)

// MaxSamples is the cap on retained samples per series. When a series exceeds
// it the oldest sample is evicted first.
const MaxSamples = 1000

// RecordMetric appends a sample to the tag-qualified series. It is a
// fire-and-forget message; no reply is sent.
type RecordMetric struct {
	Name  string
	Value float64
	Tags  map[string]string
}

// GetMetrics requests a point-in-time snapshot and replies with a Snapshot.
type GetMetrics struct{}

// SeriesStats are the derived statistics of one series.
type SeriesStats struct {
	Count int
	Mean  float64
}

// Snapshot is the reply to a GetMetrics: derived statistics per series keyed
// by the qualified series name, and the time the snapshot was taken.
type Snapshot struct {
	Series    map[string]SeriesStats
	Timestamp time.Time
}

// Collector is the metrics actor. Count and mean are derived at snapshot
// time, not incrementally maintained. When a meter is configured every sample
// is additionally exported through an OpenTelemetry histogram.
type Collector struct {
	series     map[string][]float64
	meter      metric.Meter
	histograms map[string]metric.Float64Histogram

	logger log.Logger
	clock  func() time.Time
}

// enforce compilation error
var _ actor.Actor = (*Collector)(nil)

// CollectorOption defines the various options of a Collector
type CollectorOption func(*Collector)

// WithLogger sets the collector logger
func WithLogger(logger log.Logger) CollectorOption {
	return func(collector *Collector) {
		collector.logger = logger
	}
}

// WithClock sets the collector clock. Tests inject a deterministic clock.
func WithClock(clock func() time.Time) CollectorOption {
	return func(collector *Collector) {
		collector.clock = clock
	}
}

// WithMeter sets the OpenTelemetry meter exporting recorded samples.
func WithMeter(meter metric.Meter) CollectorOption {
	return func(collector *Collector) {
		collector.meter = meter
	}
}

// NewCollector creates a metrics actor.
func NewCollector(opts ...CollectorOption) *Collector {
	collector := &Collector{
		logger: log.DefaultLogger,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(collector)
	}
	return collector
}

// PreStart resets the recorded series.
func (collector *Collector) PreStart(context.Context) error {
	collector.series = map[string][]float64{}
	collector.histograms = map[string]metric.Float64Histogram{}
	return nil
}

// Receive processes any message dropped into the collector mailbox.
func (collector *Collector) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *RecordMetric:
		collector.record(ctx.Context(), msg)
	case *GetMetrics:
		ctx.Response(collector.snapshot())
	default:
		ctx.Unhandled()
	}
}

// PostStop drops the recorded series.
func (collector *Collector) PostStop(context.Context) error {
	collector.series = nil
	return nil
}

func (collector *Collector) record(ctx context.Context, msg *RecordMetric) {
	key := seriesKey(msg.Name, msg.Tags)
	samples := append(collector.series[key], msg.Value)
	if len(samples) > MaxSamples {
		samples = samples[len(samples)-MaxSamples:]
	}
	collector.series[key] = samples
	collector.export(ctx, msg)
}

func (collector *Collector) snapshot() *Snapshot {
	out := make(map[string]SeriesStats, len(collector.series))
	for key, samples := range collector.series {
		var sum float64
		for _, value := range samples {
			sum += value
		}
		stats := SeriesStats{Count: len(samples)}
		if stats.Count > 0 {
			stats.Mean = sum / float64(stats.Count)
		}
		out[key] = stats
	}
	return &Snapshot{
		Series:    out,
		Timestamp: collector.clock(),
	}
}

// export records the sample through the configured meter, if any.
func (collector *Collector) export(ctx context.Context, msg *RecordMetric) {
	if collector.meter == nil {
		return
	}
	histogram, ok := collector.histograms[msg.Name]
	if !ok {
		var err error
		histogram, err = collector.meter.Float64Histogram(msg.Name)
		if err != nil {
			collector.logger.Warnf("failed to create histogram name=(%s): %v", msg.Name, err)
			return
		}
		collector.histograms[msg.Name] = histogram
	}

	attrs := make([]attribute.KeyValue, 0, len(msg.Tags))
	for key, value := range msg.Tags {
		attrs = append(attrs, attribute.String(key, value))
	}
	histogram.Record(ctx, msg.Value, metric.WithAttributes(attrs...))
}

// seriesKey qualifies a metric name with its sorted tags, e.g.
// orders.created{customer=cust-1}. Sorting keeps the key stable across maps.
func seriesKey(name string, tags map[string]string) string {
	if len(tags) == 0 {
		return name
	}
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var builder strings.Builder
	builder.WriteString(name)
	builder.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(key)
		builder.WriteByte('=')
		builder.WriteString(tags[key])
	}
	builder.WriteByte('}')
	return builder.String()
}
