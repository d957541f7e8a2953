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

// Package orders implements the order processor: the central workflow actor
// owning every in-flight order and driving its status transitions.
package orders

import "time"

// Status is the lifecycle status of an order. Transitions are strictly
// forward: Pending, Paid, Shipped, Delivered, with no back-transitions and no
// skipping Paid.
type Status int

const (
	// Pending is the status of a freshly created order awaiting payment.
	Pending Status = iota
	// Paid is the status of an order whose payment has been captured.
	Paid
	// Shipped is the status of an order handed to the carrier.
	Shipped
	// Delivered is the status of an order received by the customer.
	Delivered
)

// String returns the human readable form of the status.
func (s Status) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Paid:
		return "Paid"
	case Shipped:
		return "Shipped"
	case Delivered:
		return "Delivered"
	default:
		return "Unknown"
	}
}

// LineItem is one ordered product line. All fields are immutable once the
// order is created.
type LineItem struct {
	ProductID string
	Name      string
	UnitPrice float64
	Quantity  int
}

// Order is one in-flight order. The total amount is derived at creation and
// immutable thereafter.
type Order struct {
	ID          string
	CustomerID  string
	Items       []LineItem
	Status      Status
	TotalAmount float64
	CreatedAt   time.Time
}

// totalAmount computes the order total as the sum of price times quantity.
func totalAmount(items []LineItem) float64 {
	var total float64
	for _, item := range items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

// CreateOrder creates a new order in the Pending status and replies with
// an OrderCreated.
type CreateOrder struct {
	CustomerID string
	Items      []LineItem
}

// ProcessPayment captures the payment of a Pending order and moves it to
// Paid. The tendered amount must cover the order total.
type ProcessPayment struct {
	OrderID string
	Amount  float64
}

// ShipOrder moves a Paid order to Shipped.
type ShipOrder struct {
	OrderID string
	Address string
}

// GetOrderStatus is a pure read replying with an OrderStatus.
type GetOrderStatus struct {
	OrderID string
}

// OrderCreated is the reply to a successful CreateOrder.
type OrderCreated struct {
	Order     *Order
	Timestamp time.Time
}

// PaymentProcessed is the reply to a successful ProcessPayment.
type PaymentProcessed struct {
	OrderID   string
	Amount    float64
	Status    Status
	Timestamp time.Time
}

// OrderShipped is the reply to a successful ShipOrder.
type OrderShipped struct {
	OrderID   string
	Address   string
	Status    Status
	Timestamp time.Time
}

// OrderStatus is the reply to a GetOrderStatus.
type OrderStatus struct {
	OrderID   string
	Status    Status
	Timestamp time.Time
}
