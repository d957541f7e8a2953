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

// Package stream implements the stream processor: it consumes a finite
// sequence of items, applies a fallible per-item transform and aggregates
// success and failure counts before replying.
package stream

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/tochemey/orderpipe/actor"
	"github.com/tochemey/orderpipe/log"
)

// Transform is the per-item operation applied to every stream item. A failed
// item is counted and reported; it never aborts the rest of the stream.
type Transform func(ctx context.Context, item any) error

// ProcessDataStream requests the processing of a finite sequence of items and
// replies with a StreamResult once the whole sequence is exhausted.
type ProcessDataStream struct {
	Items []any
}

// StreamResult is the reply to a ProcessDataStream. Every input item is
// accounted for: ProcessedCount plus the number of errors equals the number
// of items submitted.
type StreamResult struct {
	ProcessedCount int
	Errors         []string
	Timestamp      time.Time
}

// GetProcessingStats requests the cumulative totals across every stream
// processed by this actor instance and replies with a Stats.
type GetProcessingStats struct{}

// Stats is the reply to a GetProcessingStats.
type Stats struct {
	Processed       uint64
	Errors          uint64
	AverageDuration time.Duration
	Timestamp       time.Time
}

// Processor is the stream processing actor. The transform is injected so the
// failure behavior is mockable for deterministic testing.
type Processor struct {
	transform Transform

	processed     uint64
	failed        uint64
	itemsTimed    uint64
	totalDuration time.Duration

	logger log.Logger
	clock  func() time.Time
	since  func(time.Time) time.Duration
}

// enforce compilation error
var _ actor.Actor = (*Processor)(nil)

// ProcessorOption defines the various options of a stream Processor
type ProcessorOption func(*Processor)

// WithLogger sets the processor logger
func WithLogger(logger log.Logger) ProcessorOption {
	return func(processor *Processor) {
		processor.logger = logger
	}
}

// WithClock sets the processor clock. Tests inject a deterministic clock.
func WithClock(clock func() time.Time) ProcessorOption {
	return func(processor *Processor) {
		processor.clock = clock
	}
}

// WithStopwatch sets the duration measurement used for the per-item timing.
// Tests inject a deterministic one.
func WithStopwatch(since func(time.Time) time.Duration) ProcessorOption {
	return func(processor *Processor) {
		processor.since = since
	}
}

// NewProcessor creates a stream processor applying the given transform.
func NewProcessor(transform Transform, opts ...ProcessorOption) *Processor {
	processor := &Processor{
		transform: transform,
		logger:    log.DefaultLogger,
		clock:     time.Now,
		since:     time.Since,
	}
	for _, opt := range opts {
		opt(processor)
	}
	return processor
}

// PreStart resets the cumulative totals.
func (processor *Processor) PreStart(context.Context) error {
	if processor.transform == nil {
		return errors.New("transform is not defined")
	}
	processor.processed = 0
	processor.failed = 0
	processor.itemsTimed = 0
	processor.totalDuration = 0
	return nil
}

// Receive processes any message dropped into the processor mailbox.
func (processor *Processor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *ProcessDataStream:
		processor.processStream(ctx, msg)
	case *GetProcessingStats:
		ctx.Response(processor.stats())
	default:
		ctx.Unhandled()
	}
}

// PostStop is a no-op; the totals are transient.
func (processor *Processor) PostStop(context.Context) error {
	return nil
}

// processStream runs the transform over every item. Failures are collected,
// never propagated: the reply always covers the whole sequence.
func (processor *Processor) processStream(ctx *actor.ReceiveContext, msg *ProcessDataStream) {
	result := &StreamResult{}
	for index, item := range msg.Items {
		startedAt := processor.clock()
		err := processor.transform(ctx.Context(), item)
		processor.totalDuration += processor.since(startedAt)
		processor.itemsTimed++

		if err != nil {
			processor.failed++
			result.Errors = append(result.Errors, fmt.Sprintf("item=(%d): %v", index, err))
			continue
		}
		processor.processed++
		result.ProcessedCount++
	}
	result.Timestamp = processor.clock()
	ctx.Response(result)
}

func (processor *Processor) stats() *Stats {
	stats := &Stats{
		Processed: processor.processed,
		Errors:    processor.failed,
		Timestamp: processor.clock(),
	}
	if processor.itemsTimed > 0 {
		stats.AverageDuration = processor.totalDuration / time.Duration(processor.itemsTimed)
	}
	return stats
}

// RandomTransform returns a Transform failing the given ratio of items at
// random, seeded for reproducibility. It stands in for a real per-item
// operation in local development.
func RandomTransform(failRate float64, seed int64) Transform {
	rng := rand.New(rand.NewSource(seed))
	return func(context.Context, any) error {
		if rng.Float64() < failRate {
			return errors.New("transform failed")
		}
		return nil
	}
}
