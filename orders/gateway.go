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
	"errors"
	"math/rand"
	"sync"
)

// PaymentGateway is the external payment collaborator. Charge captures the
// given amount for the order and returns a nil error when the charge is
// accepted. Implementations must be safe for sequential use from a single
// actor goroutine; they need not be concurrency safe.
type PaymentGateway interface {
	Charge(ctx context.Context, orderID string, amount float64) error
}

// AcceptAllGateway is a PaymentGateway accepting every charge. It is the
// deterministic fixture used in tests.
type AcceptAllGateway struct{}

var _ PaymentGateway = (*AcceptAllGateway)(nil)

// Charge accepts the charge unconditionally.
func (*AcceptAllGateway) Charge(context.Context, string, float64) error {
	return nil
}

// DeclineAllGateway is a PaymentGateway declining every charge with the given
// reason. It is the deterministic failure fixture used in tests.
type DeclineAllGateway struct {
	Reason string
}

var _ PaymentGateway = (*DeclineAllGateway)(nil)

// Charge declines the charge unconditionally.
func (g *DeclineAllGateway) Charge(context.Context, string, float64) error {
	return errors.New(g.Reason)
}

// RandomGateway is a PaymentGateway declining a configurable ratio of charges
// at random. It stands in for a real processor in local development; wire a
// genuine gateway client in production.
type RandomGateway struct {
	mu          sync.Mutex
	rng         *rand.Rand
	declineRate float64
}

var _ PaymentGateway = (*RandomGateway)(nil)

// NewRandomGateway creates a RandomGateway declining the given ratio of
// charges, seeded for reproducibility.
func NewRandomGateway(declineRate float64, seed int64) *RandomGateway {
	return &RandomGateway{
		rng:         rand.New(rand.NewSource(seed)),
		declineRate: declineRate,
	}
}

// Charge declines the configured ratio of charges at random.
func (g *RandomGateway) Charge(_ context.Context, orderID string, _ float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rng.Float64() < g.declineRate {
		return errors.New("card declined by issuer")
	}
	return nil
}
