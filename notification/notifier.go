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

package notification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tochemey/orderpipe/actor"
	gerrors "github.com/tochemey/orderpipe/errors"
	"github.com/tochemey/orderpipe/log"
)

const (
	// DefaultEmailCeiling is the number of emails permitted per window.
	DefaultEmailCeiling = 100
	// DefaultSMSCeiling is the number of SMS permitted per window.
	DefaultSMSCeiling = 50
	// DefaultWindow is the duration of the fixed rate window.
	DefaultWindow = time.Minute

	emailChannel = "email"
	smsChannel   = "sms"
)

// SendEmail requests an email delivery and replies with a Delivery.
type SendEmail struct {
	To      string
	Subject string
	Body    string
}

// SendSMS requests an SMS delivery and replies with a Delivery.
type SendSMS struct {
	To      string
	Message string
}

// Delivery is the success reply of a send request.
type Delivery struct {
	MessageID string
	Channel   string
	Timestamp time.Time
}

// resetWindow rolls the rate window over. It is delivered by the system
// scheduler so the counters are only ever touched by the actor's own loop.
type resetWindow struct{}

// Notifier is the notification actor. It checks the current window count
// against the channel's ceiling before attempting delivery: an over-budget
// request is rejected immediately with ErrRateLimited and never reaches the
// gateway. Counters only move on delivery success.
type Notifier struct {
	gateway Gateway

	emailCeiling int
	smsCeiling   int
	window       time.Duration

	emailsSent int
	smsSent    int
	scheduled  bool

	logger log.Logger
	clock  func() time.Time
	newID  func() string
}

// enforce compilation error
var _ actor.Actor = (*Notifier)(nil)

// NotifierOption defines the various options of a Notifier
type NotifierOption func(*Notifier)

// WithEmailCeiling sets the number of emails permitted per window.
func WithEmailCeiling(ceiling int) NotifierOption {
	return func(notifier *Notifier) {
		notifier.emailCeiling = ceiling
	}
}

// WithSMSCeiling sets the number of SMS permitted per window.
func WithSMSCeiling(ceiling int) NotifierOption {
	return func(notifier *Notifier) {
		notifier.smsCeiling = ceiling
	}
}

// WithWindow sets the duration of the fixed rate window.
func WithWindow(window time.Duration) NotifierOption {
	return func(notifier *Notifier) {
		notifier.window = window
	}
}

// WithLogger sets the notifier logger
func WithLogger(logger log.Logger) NotifierOption {
	return func(notifier *Notifier) {
		notifier.logger = logger
	}
}

// WithClock sets the notifier clock. Tests inject a deterministic clock.
func WithClock(clock func() time.Time) NotifierOption {
	return func(notifier *Notifier) {
		notifier.clock = clock
	}
}

// WithIDGenerator sets the message id generator. Tests inject a deterministic one.
func WithIDGenerator(newID func() string) NotifierOption {
	return func(notifier *Notifier) {
		notifier.newID = newID
	}
}

// NewNotifier creates a notification actor delivering through the given gateway.
func NewNotifier(gateway Gateway, opts ...NotifierOption) *Notifier {
	notifier := &Notifier{
		gateway:      gateway,
		emailCeiling: DefaultEmailCeiling,
		smsCeiling:   DefaultSMSCeiling,
		window:       DefaultWindow,
		logger:       log.DefaultLogger,
		clock:        time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(notifier)
	}
	return notifier
}

// PreStart resets the window counters.
func (notifier *Notifier) PreStart(context.Context) error {
	notifier.emailsSent = 0
	notifier.smsSent = 0
	notifier.scheduled = false
	return nil
}

// Receive processes any message dropped into the notifier mailbox.
func (notifier *Notifier) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *SendEmail:
		notifier.ensureWindowReset(ctx)
		notifier.send(ctx, emailChannel, notifier.emailsSent, notifier.emailCeiling, func() error {
			return notifier.gateway.SendEmail(ctx.Context(), msg.To, msg.Subject, msg.Body)
		})
	case *SendSMS:
		notifier.ensureWindowReset(ctx)
		notifier.send(ctx, smsChannel, notifier.smsSent, notifier.smsCeiling, func() error {
			return notifier.gateway.SendSMS(ctx.Context(), msg.To, msg.Message)
		})
	case *resetWindow:
		notifier.emailsSent = 0
		notifier.smsSent = 0
	default:
		ctx.Unhandled()
	}
}

// PostStop is a no-op; the window state is transient.
func (notifier *Notifier) PostStop(context.Context) error {
	return nil
}

// send applies the rate check, attempts delivery, and replies. The counter is
// only incremented when the gateway accepted the message.
func (notifier *Notifier) send(ctx *actor.ReceiveContext, channel string, sent, ceiling int, deliver func() error) {
	if sent >= ceiling {
		ctx.Response(gerrors.NewErrRateLimited(channel))
		return
	}
	if err := deliver(); err != nil {
		notifier.logger.Warnf("%s delivery failed channel=(%s): %v", ctx.Self().Name(), channel, err)
		ctx.Response(gerrors.NewErrDeliveryFailed(err))
		return
	}

	switch channel {
	case emailChannel:
		notifier.emailsSent++
	case smsChannel:
		notifier.smsSent++
	}

	ctx.Response(&Delivery{
		MessageID: notifier.newID(),
		Channel:   channel,
		Timestamp: notifier.clock(),
	})
}

// ensureWindowReset schedules the periodic window rollover on the first send.
// Scheduling from inside the loop keeps the counters private to the actor:
// the rollover arrives as an ordinary mailbox message.
func (notifier *Notifier) ensureWindowReset(ctx *actor.ReceiveContext) {
	if notifier.scheduled {
		return
	}
	if err := ctx.Self().ActorSystem().Schedule(&resetWindow{}, ctx.Self(), notifier.window); err != nil {
		notifier.logger.Warnf("%s failed to schedule window reset: %v", ctx.Self().Name(), err)
		return
	}
	notifier.scheduled = true
}
