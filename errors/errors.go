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

package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrDead indicates that the actor is no longer alive or has been terminated.
	ErrDead = errors.New("actor is not alive")

	// ErrUnhandled is returned when an actor receives a message it cannot handle.
	ErrUnhandled = errors.New("unhandled message")

	// ErrRequestTimeout indicates that an Ask message timed out while waiting for a response.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrActorNotFound indicates that the specified actor could not be found in the system.
	ErrActorNotFound = errors.New("actor not found")

	// ErrActorAlreadyExists is returned when trying to create an actor with a name that already exists.
	ErrActorAlreadyExists = errors.New("actor already exists")

	// ErrInitFailure is returned when the actor's preStart hook fails during initialization.
	ErrInitFailure = errors.New("preStart failed")

	// ErrSystemNotStarted indicates that an actor system has not been started before use.
	ErrSystemNotStarted = errors.New("actor system is not running")

	// ErrSystemAlreadyStarted is returned when attempting to start an actor system that is already running.
	ErrSystemAlreadyStarted = errors.New("actor system has already started")

	// ErrNameRequired is returned when an actor system name is required but not provided.
	ErrNameRequired = errors.New("actor system name is required")

	// ErrSchedulerNotStarted is returned when attempting to use the scheduler before it has started.
	ErrSchedulerNotStarted = errors.New("scheduler has not started")

	// ErrUserNotFound is returned when the referenced user entity holds no state.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists is returned when creating a user entity that already holds state.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrOrderNotFound is returned when the referenced order id is unknown to the order processor.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidTransition is returned when an order command references an order
	// that is not in the expected prior state. Order statuses only move forward.
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrPaymentDeclined is returned when the payment gateway declines a charge.
	// The order remains in its prior state.
	ErrPaymentDeclined = errors.New("payment declined")

	// ErrInsufficientAmount is returned when the tendered amount does not cover the order total.
	ErrInsufficientAmount = errors.New("insufficient payment amount")

	// ErrRateLimited is returned when a notification channel is over its per-window budget.
	// No delivery is attempted.
	ErrRateLimited = errors.New("notification rate limit exceeded")

	// ErrDeliveryFailed is returned when the notification gateway rejected or failed a send.
	ErrDeliveryFailed = errors.New("notification delivery failed")

	// ErrPersistenceFailure is returned when the event store could not durably append
	// an event. The triggering command must not be applied to in-memory state.
	ErrPersistenceFailure = errors.New("event persistence failed")

	// ErrDuplicateSeqNumber is returned when an event with an already persisted
	// sequence number is appended for the same persistence id.
	ErrDuplicateSeqNumber = errors.New("duplicate sequence number")
)

// NewErrActorNotFound formats an ErrActorNotFound with the given actor name.
func NewErrActorNotFound(name string) error {
	return fmt.Errorf("actor=(%s) %w", name, ErrActorNotFound)
}

// NewErrActorAlreadyExists formats an ErrActorAlreadyExists for the given actor name.
func NewErrActorAlreadyExists(name string) error {
	return fmt.Errorf("actor=(%s) %w", name, ErrActorAlreadyExists)
}

// NewErrInitFailure wraps a base error with ErrInitFailure to indicate a startup failure.
func NewErrInitFailure(err error) error {
	return errors.Join(ErrInitFailure, err)
}

// NewErrUserNotFound formats an ErrUserNotFound with the given user id.
func NewErrUserNotFound(userID string) error {
	return fmt.Errorf("user=(%s) %w", userID, ErrUserNotFound)
}

// NewErrUserAlreadyExists formats an ErrUserAlreadyExists with the given user id.
func NewErrUserAlreadyExists(userID string) error {
	return fmt.Errorf("user=(%s) %w", userID, ErrUserAlreadyExists)
}

// NewErrOrderNotFound formats an ErrOrderNotFound with the given order id.
func NewErrOrderNotFound(orderID string) error {
	return fmt.Errorf("order=(%s) %w", orderID, ErrOrderNotFound)
}

// NewErrInvalidTransition formats an ErrInvalidTransition naming the order id,
// the attempted transition and the actual status the order is in.
func NewErrInvalidTransition(orderID, attempted, actual string) error {
	return fmt.Errorf("order=(%s) transition=(%s) status=(%s) %w", orderID, attempted, actual, ErrInvalidTransition)
}

// NewErrPaymentDeclined wraps a base error with ErrPaymentDeclined.
func NewErrPaymentDeclined(err error) error {
	return errors.Join(ErrPaymentDeclined, err)
}

// NewErrRateLimited formats an ErrRateLimited with the given channel name.
func NewErrRateLimited(channel string) error {
	return fmt.Errorf("channel=(%s) %w", channel, ErrRateLimited)
}

// NewErrDeliveryFailed wraps a base error with ErrDeliveryFailed.
func NewErrDeliveryFailed(err error) error {
	return errors.Join(ErrDeliveryFailed, err)
}

// NewErrPersistenceFailure wraps a base error with ErrPersistenceFailure.
func NewErrPersistenceFailure(err error) error {
	return errors.Join(ErrPersistenceFailure, err)
}

// PanicError defines the panic error
// wrapping the underlying error
type PanicError struct {
	err error
}

// enforce compilation error
var _ error = (*PanicError)(nil)

// NewPanicError creates an instance of PanicError
func NewPanicError(err error) *PanicError {
	return &PanicError{err}
}

// Error implements the standard error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.err)
}

func (e *PanicError) Unwrap() error {
	return e.err
}

// AnyError defines the any error type
// this is used to represent any error when handling a supervision directive
type AnyError struct{}

// interface guard
var _ error = (*AnyError)(nil)

// Error implements error.
func (*AnyError) Error() string {
	return "*"
}
