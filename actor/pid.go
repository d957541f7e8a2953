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

package actor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/orderpipe/errors"
	"github.com/tochemey/orderpipe/log"
)

const (
	// DefaultAskTimeout is the timeout applied to Ask calls when none is given.
	// A component that never replies must be assumed to have failed after this
	// delay; at-most-once execution is not guaranteed, so retries by the caller
	// need to be idempotent.
	DefaultAskTimeout = 5 * time.Second

	initRetryInitialDelay = 100 * time.Millisecond
	initRetryMaxDelay     = time.Second
)

// NoSender is the sender of a message that was not sent by an actor.
var NoSender *PID

// PID is the identity of a running actor: it owns the actor instance, its
// mailbox and the single goroutine that consumes it. At most one message is
// handled at a time per PID, which removes intra-actor data races by
// construction. All cross-actor communication goes through Tell/Ask.
type PID struct {
	name           string
	actor          Actor
	mailbox        Mailbox
	system         *ActorSystem
	logger         log.Logger
	supervision    *Supervision
	askTimeout     time.Duration
	initMaxRetries int

	started  *atomic.Bool
	stopping *atomic.Bool
	signal   chan struct{}
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce *sync.Once
	haltOnce *sync.Once

	processedCount *atomic.Uint64
	restartCount   *atomic.Uint64
	// restartTimes is only touched by the consumer goroutine
	restartTimes []time.Time
}

// newPID creates a PID for the given actor. The returned PID is not running
// until start is called.
func newPID(name string, actor Actor, system *ActorSystem, opts ...SpawnOption) *PID {
	config := newSpawnConfig(opts...)
	pid := &PID{
		name:           name,
		actor:          actor,
		mailbox:        config.mailbox,
		system:         system,
		logger:         system.logger,
		supervision:    config.supervision,
		askTimeout:     config.askTimeout,
		initMaxRetries: system.initMaxRetries,
		started:        atomic.NewBool(false),
		stopping:       atomic.NewBool(false),
		signal:         make(chan struct{}, 1),
		stopCh:         make(chan struct{}),
		done:           make(chan struct{}),
		stopOnce:       new(sync.Once),
		haltOnce:       new(sync.Once),
		processedCount: atomic.NewUint64(0),
		restartCount:   atomic.NewUint64(0),
	}
	return pid
}

// Name returns the registered name of the actor.
func (pid *PID) Name() string {
	return pid.name
}

// Logger returns the logger of the actor.
func (pid *PID) Logger() log.Logger {
	return pid.logger
}

// ActorSystem returns the actor system the actor belongs to.
func (pid *PID) ActorSystem() *ActorSystem {
	return pid.system
}

// IsRunning returns true when the actor is alive and accepting messages.
func (pid *PID) IsRunning() bool {
	return pid != nil && pid.started.Load() && !pid.stopping.Load()
}

// ProcessedCount returns the number of messages the actor has processed.
func (pid *PID) ProcessedCount() uint64 {
	return pid.processedCount.Load()
}

// RestartCount returns the number of times the actor has been restarted by
// its supervision policy.
func (pid *PID) RestartCount() uint64 {
	return pid.restartCount.Load()
}

// Tell sends a fire-and-forget message to the given actor with the receiver
// as the sender. Delivery is asynchronous and ordered per sender.
func (pid *PID) Tell(ctx context.Context, to *PID, message any) error {
	if to == nil {
		return gerrors.ErrDead
	}
	return to.doReceive(&ReceiveContext{
		ctx:     ctx,
		message: message,
		sender:  pid,
		self:    to,
	})
}

// Ask sends a message to the given actor and waits for a reply, at most for
// the given timeout (DefaultAskTimeout when zero). A reply carrying an error
// value is unwrapped into the returned error, so failures always surface on
// the error path.
func (pid *PID) Ask(ctx context.Context, to *PID, message any, timeout time.Duration) (any, error) {
	return ask(ctx, pid, to, message, timeout)
}

// Shutdown gracefully stops the actor: no new message is accepted, messages
// already enqueued are processed, then PostStop runs and the actor is
// deregistered from its system.
func (pid *PID) Shutdown(ctx context.Context) error {
	if !pid.started.Load() {
		return nil
	}
	pid.stopping.Store(true)
	pid.stopOnce.Do(func() { close(pid.stopCh) })

	select {
	case <-pid.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	var err error
	pid.haltOnce.Do(func() {
		pid.started.Store(false)
		err = pid.actor.PostStop(ctx)
		pid.system.removePID(pid.name)
	})
	return err
}

// Tell sends a fire-and-forget message to the given actor with NoSender as
// the sender.
func Tell(ctx context.Context, to *PID, message any) error {
	if to == nil {
		return gerrors.ErrDead
	}
	return to.doReceive(&ReceiveContext{
		ctx:     ctx,
		message: message,
		sender:  NoSender,
		self:    to,
	})
}

// Ask sends a message to the given actor with NoSender as the sender and waits
// for a reply. See PID.Ask for the reply semantics.
func Ask(ctx context.Context, to *PID, message any, timeout time.Duration) (any, error) {
	return ask(ctx, NoSender, to, message, timeout)
}

func ask(ctx context.Context, sender, to *PID, message any, timeout time.Duration) (any, error) {
	if to == nil {
		return nil, gerrors.ErrDead
	}
	if timeout <= 0 {
		timeout = to.askTimeout
	}

	slot := &responseSlot{ch: make(chan any, 1)}
	rctx := &ReceiveContext{
		ctx:      ctx,
		message:  message,
		sender:   sender,
		self:     to,
		response: slot,
	}
	if err := to.doReceive(rctx); err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-slot.ch:
		if err, ok := resp.(error); ok {
			return nil, err
		}
		return resp, nil
	case <-ctx.Done():
		slot.closed.Store(true)
		return nil, ctx.Err()
	case <-timer.C:
		slot.closed.Store(true)
		return nil, gerrors.ErrRequestTimeout
	}
}

// start runs PreStart with a bounded retry and launches the consumer loop.
func (pid *PID) start(ctx context.Context) error {
	retrier := retry.NewRetrier(pid.initMaxRetries, initRetryInitialDelay, initRetryMaxDelay)
	if err := retrier.RunContext(ctx, pid.actor.PreStart); err != nil {
		return gerrors.NewErrInitFailure(err)
	}
	pid.started.Store(true)
	go pid.run()
	return nil
}

// doReceive enqueues the message and wakes the consumer loop.
func (pid *PID) doReceive(rctx *ReceiveContext) error {
	if !pid.started.Load() || pid.stopping.Load() {
		return gerrors.ErrDead
	}
	if err := pid.mailbox.Enqueue(rctx); err != nil {
		return err
	}
	select {
	case pid.signal <- struct{}{}:
	default:
	}
	return nil
}

// run is the consumer loop: it drains the mailbox one message at a time until
// the actor is stopped. It is the only goroutine touching the actor instance.
func (pid *PID) run() {
	defer close(pid.done)
	for {
		select {
		case <-pid.stopCh:
			pid.drain()
			return
		case <-pid.signal:
			if !pid.drain() {
				return
			}
		}
	}
}

// drain processes every message currently in the mailbox. It returns false
// when the actor must stop.
func (pid *PID) drain() bool {
	for {
		rctx := pid.mailbox.Dequeue()
		if rctx == nil {
			return true
		}
		if !pid.handle(rctx) {
			return false
		}
	}
}

func (pid *PID) handle(rctx *ReceiveContext) bool {
	err := pid.dispatch(rctx)
	pid.processedCount.Inc()
	if err == nil {
		return true
	}
	return pid.supervise(rctx, err)
}

// dispatch runs the actor's Receive, converting panics into PanicError.
func (pid *PID) dispatch(rctx *ReceiveContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			rerr, ok := r.(error)
			if !ok {
				rerr = fmt.Errorf("%v", r)
			}
			err = gerrors.NewPanicError(rerr)
		}
	}()
	rctx.err = nil
	pid.actor.Receive(rctx)
	return rctx.err
}

// supervise applies the configured directive to a processing failure.
// It returns false when the actor must stop.
func (pid *PID) supervise(rctx *ReceiveContext, err error) bool {
	pid.logger.Errorf("%s failed to process message type=(%T): %v", pid.name, rctx.message, err)

	// complete a pending Ask so the caller does not sit out the timeout
	rctx.Response(err)

	directive, ok := pid.supervision.Directive(err)
	if !ok {
		directive = StopDirective
	}

	switch directive {
	case ResumeDirective:
		return true
	case RestartDirective:
		now := time.Now()
		window := pid.supervision.Window()
		recent := pid.restartTimes[:0]
		for _, at := range pid.restartTimes {
			if now.Sub(at) < window {
				recent = append(recent, at)
			}
		}
		pid.restartTimes = recent

		if uint32(len(pid.restartTimes)) >= pid.supervision.MaxRetries() {
			pid.logger.Errorf("%s exhausted its restart budget (%d within %s), stopping",
				pid.name, pid.supervision.MaxRetries(), window)
			pid.halt()
			return false
		}
		pid.restartTimes = append(pid.restartTimes, now)

		if err := pid.restartInPlace(); err != nil {
			pid.logger.Errorf("%s failed to restart: %v", pid.name, err)
			pid.halt()
			return false
		}
		pid.restartCount.Inc()
		pid.logger.Infof("%s restarted", pid.name)
		return true
	default:
		pid.halt()
		return false
	}
}

// restartInPlace cycles the actor through PostStop and PreStart on the
// consumer goroutine, resetting the state initialized there. Event-sourced
// actors recover their projected state by replay.
func (pid *PID) restartInPlace() error {
	ctx := context.Background()
	if err := pid.actor.PostStop(ctx); err != nil {
		pid.logger.Warnf("%s postStop failed during restart: %v", pid.name, err)
	}
	retrier := retry.NewRetrier(pid.initMaxRetries, initRetryInitialDelay, initRetryMaxDelay)
	if err := retrier.RunContext(ctx, pid.actor.PreStart); err != nil {
		return gerrors.NewErrInitFailure(err)
	}
	return nil
}

// halt initiates a stop from within the consumer loop. Shutdown waits on the
// loop exiting, so it must run on its own goroutine.
func (pid *PID) halt() {
	pid.stopping.Store(true)
	go func() {
		_ = pid.Shutdown(context.Background())
	}()
}
