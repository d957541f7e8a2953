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

// Package notification implements the notification actor: it sends emails and
// SMS through an external gateway under a per-minute, per-channel rate budget.
package notification

import (
	"context"
	"errors"
	"math/rand"
	"sync"
)

// Gateway is the external delivery collaborator. Implementations return a nil
// error when the message was accepted for delivery. They are called
// sequentially from a single actor goroutine.
type Gateway interface {
	SendEmail(ctx context.Context, to, subject, body string) error
	SendSMS(ctx context.Context, to, message string) error
}

// AcceptAllGateway is a Gateway accepting every send. It is the deterministic
// fixture used in tests.
type AcceptAllGateway struct{}

var _ Gateway = (*AcceptAllGateway)(nil)

// SendEmail accepts the email unconditionally.
func (*AcceptAllGateway) SendEmail(context.Context, string, string, string) error {
	return nil
}

// SendSMS accepts the SMS unconditionally.
func (*AcceptAllGateway) SendSMS(context.Context, string, string) error {
	return nil
}

// RejectAllGateway is a Gateway rejecting every send with the given reason.
// It is the deterministic failure fixture used in tests.
type RejectAllGateway struct {
	Reason string
}

var _ Gateway = (*RejectAllGateway)(nil)

// SendEmail rejects the email unconditionally.
func (g *RejectAllGateway) SendEmail(context.Context, string, string, string) error {
	return errors.New(g.Reason)
}

// SendSMS rejects the SMS unconditionally.
func (g *RejectAllGateway) SendSMS(context.Context, string, string) error {
	return errors.New(g.Reason)
}

// RandomGateway is a Gateway failing a configurable ratio of sends at random.
// It stands in for a real provider in local development; wire a genuine
// provider client in production.
type RandomGateway struct {
	mu            sync.Mutex
	rng           *rand.Rand
	emailFailRate float64
	smsFailRate   float64
}

var _ Gateway = (*RandomGateway)(nil)

// NewRandomGateway creates a RandomGateway failing the given ratio of email
// and SMS sends, seeded for reproducibility.
func NewRandomGateway(emailFailRate, smsFailRate float64, seed int64) *RandomGateway {
	return &RandomGateway{
		rng:           rand.New(rand.NewSource(seed)),
		emailFailRate: emailFailRate,
		smsFailRate:   smsFailRate,
	}
}

// SendEmail fails the configured ratio of emails at random.
func (g *RandomGateway) SendEmail(context.Context, string, string, string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rng.Float64() < g.emailFailRate {
		return errors.New("smtp relay rejected the message")
	}
	return nil
}

// SendSMS fails the configured ratio of SMS at random.
func (g *RandomGateway) SendSMS(context.Context, string, string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rng.Float64() < g.smsFailRate {
		return errors.New("sms provider rejected the message")
	}
	return nil
}
