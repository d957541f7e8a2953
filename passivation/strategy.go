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

// Package passivation defines the strategies deciding when an idle entity
// actor is stopped to free resources. A passivated entity is respawned on the
// next command referencing its id; event-sourced entities recover by replay.
package passivation

import (
	"fmt"
	"time"
)

// Strategy decides whether an entity should be passivated.
type Strategy interface {
	fmt.Stringer
	// ShouldPassivate reports whether an entity should be stopped given how
	// long it has been idle and how many messages it has processed.
	ShouldPassivate(idleDuration time.Duration, processedCount uint64) bool
}

// TimeBasedStrategy passivates entities idle for longer than a timeout.
type TimeBasedStrategy struct {
	timeout time.Duration
}

var _ Strategy = (*TimeBasedStrategy)(nil)

// NewTimeBasedStrategy creates a TimeBasedStrategy with the given idle timeout.
func NewTimeBasedStrategy(timeout time.Duration) *TimeBasedStrategy {
	return &TimeBasedStrategy{timeout: timeout}
}

// Timeout returns the idle timeout.
func (s *TimeBasedStrategy) Timeout() time.Duration {
	return s.timeout
}

// ShouldPassivate reports true once the idle duration reaches the timeout.
func (s *TimeBasedStrategy) ShouldPassivate(idleDuration time.Duration, _ uint64) bool {
	return idleDuration >= s.timeout
}

// String implements fmt.Stringer.
func (s *TimeBasedStrategy) String() string {
	return fmt.Sprintf("time-based(%s)", s.timeout)
}

// MessagesCountBasedStrategy passivates entities after they have processed a
// given number of messages.
type MessagesCountBasedStrategy struct {
	maxMessages uint64
}

var _ Strategy = (*MessagesCountBasedStrategy)(nil)

// NewMessagesCountBasedStrategy creates a MessagesCountBasedStrategy with the
// given message budget.
func NewMessagesCountBasedStrategy(maxMessages uint64) *MessagesCountBasedStrategy {
	return &MessagesCountBasedStrategy{maxMessages: maxMessages}
}

// MaxMessages returns the message budget.
func (s *MessagesCountBasedStrategy) MaxMessages() uint64 {
	return s.maxMessages
}

// ShouldPassivate reports true once the processed count reaches the budget.
func (s *MessagesCountBasedStrategy) ShouldPassivate(_ time.Duration, processedCount uint64) bool {
	return processedCount >= s.maxMessages
}

// String implements fmt.Stringer.
func (s *MessagesCountBasedStrategy) String() string {
	return fmt.Sprintf("messages-count-based(%d)", s.maxMessages)
}

// LongLivedStrategy never passivates. Use it for entities that must stay
// resident for the lifetime of the actor system.
type LongLivedStrategy struct{}

var _ Strategy = (*LongLivedStrategy)(nil)

// NewLongLivedStrategy creates a LongLivedStrategy.
func NewLongLivedStrategy() *LongLivedStrategy {
	return &LongLivedStrategy{}
}

// ShouldPassivate always reports false.
func (s *LongLivedStrategy) ShouldPassivate(time.Duration, uint64) bool {
	return false
}

// String implements fmt.Stringer.
func (s *LongLivedStrategy) String() string {
	return "long-lived"
}
