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

package orders_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/orderpipe/actor"
	gerrors "github.com/tochemey/orderpipe/errors"
	"github.com/tochemey/orderpipe/log"
	"github.com/tochemey/orderpipe/metrics"
	"github.com/tochemey/orderpipe/notification"
	"github.com/tochemey/orderpipe/orders"
)

var testItems = []orders.LineItem{
	{ProductID: "p1", Name: "widget", UnitPrice: 10, Quantity: 2},
	{ProductID: "p2", Name: "gadget", UnitPrice: 5, Quantity: 3},
}

func startTestSystem(t *testing.T) *actor.ActorSystem {
	t.Helper()
	system, err := actor.NewActorSystem("testSys", actor.WithLogger(log.DiscardLogger))
	require.NoError(t, err)
	require.NoError(t, system.Start(context.Background()))
	t.Cleanup(func() {
		_ = system.Stop(context.Background())
	})
	return system
}

func spawnProcessor(t *testing.T, system *actor.ActorSystem, gateway orders.PaymentGateway, opts ...orders.ProcessorOption) *actor.PID {
	t.Helper()
	pid, err := system.Spawn(context.Background(), "orderProcessor", orders.NewProcessor(gateway, opts...))
	require.NoError(t, err)
	return pid
}

func createOrder(t *testing.T, pid *actor.PID) *orders.Order {
	t.Helper()
	resp, err := actor.Ask(context.Background(), pid, &orders.CreateOrder{
		CustomerID: "cust-1",
		Items:      testItems,
	}, time.Second)
	require.NoError(t, err)
	return resp.(*orders.OrderCreated).Order
}

func TestCreateOrder(t *testing.T) {
	t.Run("With derived total", func(t *testing.T) {
		system := startTestSystem(t)
		pid := spawnProcessor(t, system, new(orders.AcceptAllGateway))

		order := createOrder(t, pid)
		assert.NotEmpty(t, order.ID)
		assert.Equal(t, "cust-1", order.CustomerID)
		assert.Equal(t, orders.Pending, order.Status)
		assert.InDelta(t, 35, order.TotalAmount, 1e-9)
	})
	t.Run("With unique order ids", func(t *testing.T) {
		system := startTestSystem(t)
		pid := spawnProcessor(t, system, new(orders.AcceptAllGateway))

		first := createOrder(t, pid)
		second := createOrder(t, pid)
		assert.NotEqual(t, first.ID, second.ID)
	})
}

func TestProcessPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("With successful payment", func(t *testing.T) {
		system := startTestSystem(t)
		pid := spawnProcessor(t, system, new(orders.AcceptAllGateway))
		order := createOrder(t, pid)

		resp, err := actor.Ask(ctx, pid, &orders.ProcessPayment{OrderID: order.ID, Amount: order.TotalAmount}, time.Second)
		require.NoError(t, err)
		paid := resp.(*orders.PaymentProcessed)
		assert.Equal(t, orders.Paid, paid.Status)
	})
	t.Run("With unknown order", func(t *testing.T) {
		system := startTestSystem(t)
		pid := spawnProcessor(t, system, new(orders.AcceptAllGateway))

		_, err := actor.Ask(ctx, pid, &orders.ProcessPayment{OrderID: "ghost", Amount: 10}, time.Second)
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrOrderNotFound)
	})
	t.Run("With declined charge keeping the order pending", func(t *testing.T) {
		system := startTestSystem(t)
		pid := spawnProcessor(t, system, &orders.DeclineAllGateway{Reason: "card expired"})
		order := createOrder(t, pid)

		_, err := actor.Ask(ctx, pid, &orders.ProcessPayment{OrderID: order.ID, Amount: order.TotalAmount}, time.Second)
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrPaymentDeclined)

		resp, err := actor.Ask(ctx, pid, &orders.GetOrderStatus{OrderID: order.ID}, time.Second)
		require.NoError(t, err)
		assert.Equal(t, orders.Pending, resp.(*orders.OrderStatus).Status)
	})
	t.Run("With insufficient amount", func(t *testing.T) {
		system := startTestSystem(t)
		pid := spawnProcessor(t, system, new(orders.AcceptAllGateway))
		order := createOrder(t, pid)

		_, err := actor.Ask(ctx, pid, &orders.ProcessPayment{OrderID: order.ID, Amount: order.TotalAmount - 1}, time.Second)
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrInsufficientAmount)

		resp, err := actor.Ask(ctx, pid, &orders.GetOrderStatus{OrderID: order.ID}, time.Second)
		require.NoError(t, err)
		assert.Equal(t, orders.Pending, resp.(*orders.OrderStatus).Status)
	})
	t.Run("With payment on an already shipped order", func(t *testing.T) {
		system := startTestSystem(t)
		pid := spawnProcessor(t, system, new(orders.AcceptAllGateway))
		order := createOrder(t, pid)

		_, err := actor.Ask(ctx, pid, &orders.ProcessPayment{OrderID: order.ID, Amount: order.TotalAmount}, time.Second)
		require.NoError(t, err)
		_, err = actor.Ask(ctx, pid, &orders.ShipOrder{OrderID: order.ID, Address: "221B Baker Street"}, time.Second)
		require.NoError(t, err)

		// statuses never regress
		_, err = actor.Ask(ctx, pid, &orders.ProcessPayment{OrderID: order.ID, Amount: order.TotalAmount}, time.Second)
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrInvalidTransition)

		resp, err := actor.Ask(ctx, pid, &orders.GetOrderStatus{OrderID: order.ID}, time.Second)
		require.NoError(t, err)
		assert.Equal(t, orders.Shipped, resp.(*orders.OrderStatus).Status)
	})
}

func TestShipOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("With ship before payment", func(t *testing.T) {
		system := startTestSystem(t)
		pid := spawnProcessor(t, system, new(orders.AcceptAllGateway))
		order := createOrder(t, pid)

		_, err := actor.Ask(ctx, pid, &orders.ShipOrder{OrderID: order.ID, Address: "221B Baker Street"}, time.Second)
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrInvalidTransition)

		resp, err := actor.Ask(ctx, pid, &orders.GetOrderStatus{OrderID: order.ID}, time.Second)
		require.NoError(t, err)
		assert.Equal(t, orders.Pending, resp.(*orders.OrderStatus).Status)
	})
	t.Run("With ship of a paid order", func(t *testing.T) {
		system := startTestSystem(t)
		pid := spawnProcessor(t, system, new(orders.AcceptAllGateway))
		order := createOrder(t, pid)

		_, err := actor.Ask(ctx, pid, &orders.ProcessPayment{OrderID: order.ID, Amount: order.TotalAmount}, time.Second)
		require.NoError(t, err)

		resp, err := actor.Ask(ctx, pid, &orders.ShipOrder{OrderID: order.ID, Address: "221B Baker Street"}, time.Second)
		require.NoError(t, err)
		shipped := resp.(*orders.OrderShipped)
		assert.Equal(t, orders.Shipped, shipped.Status)
		assert.Equal(t, "221B Baker Street", shipped.Address)
	})
	t.Run("With ship of an unknown order", func(t *testing.T) {
		system := startTestSystem(t)
		pid := spawnProcessor(t, system, new(orders.AcceptAllGateway))

		_, err := actor.Ask(ctx, pid, &orders.ShipOrder{OrderID: "ghost", Address: "nowhere"}, time.Second)
		assert.ErrorIs(t, err, gerrors.ErrOrderNotFound)
	})
}

func TestGetOrderStatus(t *testing.T) {
	t.Run("With unknown order", func(t *testing.T) {
		system := startTestSystem(t)
		pid := spawnProcessor(t, system, new(orders.AcceptAllGateway))

		_, err := actor.Ask(context.Background(), pid, &orders.GetOrderStatus{OrderID: "ghost"}, time.Second)
		assert.ErrorIs(t, err, gerrors.ErrOrderNotFound)
	})
}

func TestSideEffects(t *testing.T) {
	t.Run("With metrics and notifications fanned out", func(t *testing.T) {
		system := startTestSystem(t)
		ctx := context.Background()

		recorder, err := system.Spawn(ctx, "metrics", metrics.NewCollector())
		require.NoError(t, err)
		notifier, err := system.Spawn(ctx, "notifier", notification.NewNotifier(new(notification.AcceptAllGateway)))
		require.NoError(t, err)

		pid := spawnProcessor(t, system, new(orders.AcceptAllGateway),
			orders.WithRecorder(recorder),
			orders.WithNotifier(notifier),
		)

		order := createOrder(t, pid)
		_, err = actor.Ask(ctx, pid, &orders.ProcessPayment{OrderID: order.ID, Amount: order.TotalAmount}, time.Second)
		require.NoError(t, err)
		_, err = actor.Ask(ctx, pid, &orders.ShipOrder{OrderID: order.ID, Address: "221B Baker Street"}, time.Second)
		require.NoError(t, err)

		// side effects are fire-and-forget: poll until the collector caught up
		assert.Eventually(t, func() bool {
			resp, err := actor.Ask(ctx, recorder, &metrics.GetMetrics{}, time.Second)
			if err != nil {
				return false
			}
			series := resp.(*metrics.Snapshot).Series
			created := series["orders.created{customer=cust-1}"]
			shipped := series["orders.shipped{order="+order.ID+"}"]
			return created.Count == 1 && shipped.Count == 1
		}, time.Second, 10*time.Millisecond)

		assert.Eventually(t, func() bool {
			return notifier.ProcessedCount() >= 2
		}, time.Second, 10*time.Millisecond)
	})
}
