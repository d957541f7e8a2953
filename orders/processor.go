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

package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tochemey/orderpipe/actor"
	gerrors "github.com/tochemey/orderpipe/errors"
	"github.com/tochemey/orderpipe/log"
	"github.com/tochemey/orderpipe/metrics"
	"github.com/tochemey/orderpipe/notification"
)

// Processor is the central workflow actor. It owns every in-flight order in
// an in-memory mapping and drives the forward-only status transitions,
// fanning out notification and metric side effects as fire-and-forget
// messages so that command handling never blocks on collaborators.
type Processor struct {
	gateway  PaymentGateway
	notifier *actor.PID
	recorder *actor.PID

	orders map[string]*Order
	logger log.Logger
	clock  func() time.Time
	newID  func() string
}

// enforce compilation error
var _ actor.Actor = (*Processor)(nil)

// ProcessorOption defines the various options of a Processor
type ProcessorOption func(*Processor)

// WithNotifier sets the notification actor receiving send side effects.
func WithNotifier(notifier *actor.PID) ProcessorOption {
	return func(processor *Processor) {
		processor.notifier = notifier
	}
}

// WithRecorder sets the metrics actor receiving recorded samples.
func WithRecorder(recorder *actor.PID) ProcessorOption {
	return func(processor *Processor) {
		processor.recorder = recorder
	}
}

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

// WithIDGenerator sets the order id generator. Tests inject a deterministic one.
func WithIDGenerator(newID func() string) ProcessorOption {
	return func(processor *Processor) {
		processor.newID = newID
	}
}

// NewProcessor creates an order processor charging payments through the given
// gateway.
func NewProcessor(gateway PaymentGateway, opts ...ProcessorOption) *Processor {
	processor := &Processor{
		gateway: gateway,
		logger:  log.DefaultLogger,
		clock:   time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(processor)
	}
	return processor
}

// PreStart resets the in-flight orders. A supervision restart therefore
// replaces the processor state with a fresh instance.
func (processor *Processor) PreStart(context.Context) error {
	if processor.gateway == nil {
		return fmt.Errorf("payment gateway is not defined")
	}
	processor.orders = map[string]*Order{}
	return nil
}

// Receive processes any message dropped into the processor mailbox.
func (processor *Processor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *CreateOrder:
		processor.createOrder(ctx, msg)
	case *ProcessPayment:
		processor.processPayment(ctx, msg)
	case *ShipOrder:
		processor.shipOrder(ctx, msg)
	case *GetOrderStatus:
		processor.orderStatus(ctx, msg)
	default:
		ctx.Unhandled()
	}
}

// PostStop drops the in-flight orders.
func (processor *Processor) PostStop(context.Context) error {
	processor.orders = nil
	return nil
}

func (processor *Processor) createOrder(ctx *actor.ReceiveContext, msg *CreateOrder) {
	order := &Order{
		ID:          processor.newID(),
		CustomerID:  msg.CustomerID,
		Items:       append([]LineItem(nil), msg.Items...),
		Status:      Pending,
		TotalAmount: totalAmount(msg.Items),
		CreatedAt:   processor.clock(),
	}
	processor.orders[order.ID] = order

	processor.record(ctx, "orders.created", 1, map[string]string{"customer": order.CustomerID})
	processor.record(ctx, "orders.amount", order.TotalAmount, map[string]string{"customer": order.CustomerID})

	ctx.Response(&OrderCreated{
		Order:     order,
		Timestamp: processor.clock(),
	})
}

func (processor *Processor) processPayment(ctx *actor.ReceiveContext, msg *ProcessPayment) {
	order, ok := processor.orders[msg.OrderID]
	if !ok {
		ctx.Response(gerrors.NewErrOrderNotFound(msg.OrderID))
		return
	}
	if order.Status != Pending {
		ctx.Response(gerrors.NewErrInvalidTransition(order.ID, "ProcessPayment", order.Status.String()))
		return
	}
	if msg.Amount < order.TotalAmount {
		processor.record(ctx, "payments.failed", 1, map[string]string{"order": order.ID})
		ctx.Response(fmt.Errorf("order=(%s) amount=(%.2f) total=(%.2f) %w",
			order.ID, msg.Amount, order.TotalAmount, gerrors.ErrInsufficientAmount))
		return
	}

	if err := processor.gateway.Charge(ctx.Context(), order.ID, msg.Amount); err != nil {
		processor.record(ctx, "payments.failed", 1, map[string]string{"order": order.ID})
		ctx.Response(gerrors.NewErrPaymentDeclined(err))
		return
	}

	order.Status = Paid
	processor.record(ctx, "payments.succeeded", msg.Amount, map[string]string{"order": order.ID})
	processor.notify(ctx, order,
		"Payment received",
		fmt.Sprintf("Payment of %.2f received for order %s.", msg.Amount, order.ID))

	ctx.Response(&PaymentProcessed{
		OrderID:   order.ID,
		Amount:    msg.Amount,
		Status:    order.Status,
		Timestamp: processor.clock(),
	})
}

func (processor *Processor) shipOrder(ctx *actor.ReceiveContext, msg *ShipOrder) {
	order, ok := processor.orders[msg.OrderID]
	if !ok {
		ctx.Response(gerrors.NewErrOrderNotFound(msg.OrderID))
		return
	}
	if order.Status != Paid {
		ctx.Response(gerrors.NewErrInvalidTransition(order.ID, "ShipOrder", order.Status.String()))
		return
	}

	order.Status = Shipped
	processor.record(ctx, "orders.shipped", 1, map[string]string{"order": order.ID})
	processor.notify(ctx, order,
		"Order shipped",
		fmt.Sprintf("Order %s is on its way to %s.", order.ID, msg.Address))

	ctx.Response(&OrderShipped{
		OrderID:   order.ID,
		Address:   msg.Address,
		Status:    order.Status,
		Timestamp: processor.clock(),
	})
}

func (processor *Processor) orderStatus(ctx *actor.ReceiveContext, msg *GetOrderStatus) {
	order, ok := processor.orders[msg.OrderID]
	if !ok {
		ctx.Response(gerrors.NewErrOrderNotFound(msg.OrderID))
		return
	}
	ctx.Response(&OrderStatus{
		OrderID:   order.ID,
		Status:    order.Status,
		Timestamp: processor.clock(),
	})
}

// record fires a metric sample at the recorder. It never blocks the command.
func (processor *Processor) record(ctx *actor.ReceiveContext, name string, value float64, tags map[string]string) {
	if processor.recorder == nil {
		return
	}
	ctx.Tell(processor.recorder, &metrics.RecordMetric{
		Name:  name,
		Value: value,
		Tags:  tags,
	})
}

// notify fires an email at the notifier. Delivery is eventual relative to the
// state transition; the processor never waits on it.
func (processor *Processor) notify(ctx *actor.ReceiveContext, order *Order, subject, body string) {
	if processor.notifier == nil {
		return
	}
	ctx.Tell(processor.notifier, &notification.SendEmail{
		To:      order.CustomerID,
		Subject: subject,
		Body:    body,
	})
}
