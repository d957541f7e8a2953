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
	"sync/atomic"

	gerrors "github.com/tochemey/orderpipe/errors"
	"github.com/tochemey/orderpipe/log"
)

// responseSlot carries the reply channel of an Ask-initiated message.
// It is shared across forwards so that whichever actor ends up handling
// the message can complete the original request.
type responseSlot struct {
	ch     chan any
	closed atomic.Bool
}

// ReceiveContext carries per-message context and operations available to an actor
// while handling a single message.
//
// A ReceiveContext instance is created by the runtime for each delivered message
// and is only valid within the scope of handling that message. Do not retain it
// beyond the current Receive call. The underlying actor processes messages
// one-at-a-time, preserving mailbox order.
type ReceiveContext struct {
	ctx      context.Context
	message  any
	sender   *PID
	self     *PID
	response *responseSlot
	err      error
}

// Self returns the PID of the currently executing actor.
func (rctx *ReceiveContext) Self() *PID {
	return rctx.self
}

// Sender returns the PID of the message sender. It returns NoSender when the
// sender is unknown or the message was system-generated.
func (rctx *ReceiveContext) Sender() *PID {
	return rctx.sender
}

// Message returns the message being processed. Treat the returned message as
// immutable; copy before mutation.
func (rctx *ReceiveContext) Message() any {
	return rctx.message
}

// Context returns the context associated with the current message.
// Do not store this context beyond the current Receive invocation.
func (rctx *ReceiveContext) Context() context.Context {
	return rctx.ctx
}

// Logger returns the logger of the currently executing actor.
func (rctx *ReceiveContext) Logger() log.Logger {
	return rctx.self.Logger()
}

// Err records a failure observed during message handling.
//
// Use Err to report issues to the runtime without panicking. The supervision
// machinery applies the configured directive (resume, restart or stop) based
// on the recorded error. When the message was Ask-initiated, the error is also
// sent back to the caller as the reply.
func (rctx *ReceiveContext) Err(err error) {
	rctx.err = err
}

// Response publishes a reply to the sender of the current message.
//
// If the message was initiated via Ask, Response completes that request;
// otherwise it is a no-op. Use Response at most once per message: late or
// duplicate responses are dropped, which guards pooled callers against stale
// replies after a timeout.
func (rctx *ReceiveContext) Response(resp any) {
	if rctx.response == nil {
		return
	}
	if !rctx.response.closed.CompareAndSwap(false, true) {
		return
	}
	select {
	case rctx.response.ch <- resp:
	default:
		// caller is gone; drop the response
	}
}

// Tell sends a fire-and-forget message to the given actor with the currently
// executing actor as the sender. Delivery failures are logged, not returned:
// side effects must never block or fail the current message.
func (rctx *ReceiveContext) Tell(to *PID, message any) {
	if to == nil {
		return
	}
	if err := rctx.self.Tell(rctx.ctx, to, message); err != nil {
		rctx.Logger().Warnf("failed to tell %s: %v", to.Name(), err)
	}
}

// Forward routes the message being processed to another actor, preserving the
// original reply channel. The target actor's Response completes the original
// Ask. The forwarded payload may differ from the received one, which lets a
// router unwrap an envelope before handing the command over.
func (rctx *ReceiveContext) Forward(to *PID, message any) {
	if to == nil {
		rctx.Response(gerrors.ErrDead)
		return
	}
	forwarded := &ReceiveContext{
		ctx:      rctx.ctx,
		message:  message,
		sender:   rctx.sender,
		self:     to,
		response: rctx.response,
	}
	if err := to.doReceive(forwarded); err != nil {
		rctx.Response(err)
	}
}

// Unhandled marks the message being processed as unhandled: the caller (when
// asking) receives ErrUnhandled and a warning is logged.
func (rctx *ReceiveContext) Unhandled() {
	rctx.Logger().Warnf("%s received unhandled message type=(%T)", rctx.self.Name(), rctx.message)
	rctx.Response(gerrors.ErrUnhandled)
}
