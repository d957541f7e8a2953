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
	"reflect"
	"sync"
	"time"

	gerrors "github.com/tochemey/orderpipe/errors"
)

// Directive defines the supervision directive.
//
// It represents the action the runtime takes when an actor fails or panics
// during message processing:
//
//   - StopDirective: stop the failing actor.
//   - ResumeDirective: keep the failing actor running and move on to the next
//     message (used for recoverable errors).
//   - RestartDirective: restart the failing actor, reinitializing its state.
type Directive int

const (
	// StopDirective indicates that when an actor fails, the runtime should immediately
	// stop the actor. This directive is typically used when a failure is deemed
	// irrecoverable or when the actor's state cannot be safely resumed.
	StopDirective Directive = iota
	// ResumeDirective indicates that when an actor fails, the runtime should resume the
	// actor's operation without restarting it. This directive is used when the failure
	// is transient and the actor can continue processing messages without a state reset.
	ResumeDirective
	// RestartDirective indicates that when an actor fails, the runtime should restart the
	// actor. Restarting involves stopping the current instance and starting it afresh,
	// effectively resetting the actor's internal state. Event-sourced actors recover
	// their state by replay.
	RestartDirective
)

// String returns the string representation of the directive
func (d Directive) String() string {
	switch d {
	case StopDirective:
		return "Stop"
	case ResumeDirective:
		return "Resume"
	case RestartDirective:
		return "Restart"
	default:
		return ""
	}
}

const (
	// DefaultMaxRestarts is the restart budget applied when none is configured.
	DefaultMaxRestarts uint32 = 3
	// DefaultRestartWindow is the sliding window over which restarts are counted.
	DefaultRestartWindow = time.Minute
)

// SupervisionOption defines the various options to apply to a given Supervision
type SupervisionOption func(*Supervision)

// WithDirective sets the mapping between an error and a given directive
func WithDirective(err error, directive Directive) SupervisionOption {
	return func(s *Supervision) {
		s.Lock()
		s.directives[errorType(err)] = directive
		s.Unlock()
	}
}

// WithAnyErrorDirective sets the directive to apply to any error.
//
// Use WithAnyErrorDirective to apply a given directive to any error that occurs
// during message processing, regardless of its type. It overrides any
// error-specific directives.
func WithAnyErrorDirective(directive Directive) SupervisionOption {
	return func(s *Supervision) {
		s.Lock()
		s.directives[errorType(new(gerrors.AnyError))] = directive
		s.Unlock()
	}
}

// WithRetry configures the restart budget used with the RestartDirective.
//
// maxRetries restarts are allowed within the sliding window; once the budget
// is exhausted the faulty actor is stopped for good. The stop is fatal for
// that actor only, never for its siblings or the actor system.
func WithRetry(maxRetries uint32, window time.Duration) SupervisionOption {
	return func(s *Supervision) {
		s.Lock()
		s.maxRetries = maxRetries
		s.window = window
		s.Unlock()
	}
}

// Supervision defines how the runtime reacts when an actor fails.
//
// Directive rules map error types to actions (stop, resume, restart). Rules are
// keyed by the error's concrete type name. If an "any error" directive is set
// via WithAnyErrorDirective, it takes precedence over error-specific rules.
//
// Defaults: PanicError -> Restart, bounded to DefaultMaxRestarts restarts per
// DefaultRestartWindow. Errors with no matching rule stop the actor.
//
// Supervision methods are safe for concurrent use.
type Supervision struct {
	sync.Mutex
	directives map[string]Directive
	// Specifies the maximum number of restarts within the window.
	// When reaching this number the faulty actor is stopped.
	maxRetries uint32
	// Specifies the sliding window over which restarts are counted
	window time.Duration
}

// NewSupervision creates a new instance of Supervision with the default
// restart-on-panic policy. Add directive/error mappings with WithDirective
// and tune the restart budget with WithRetry.
func NewSupervision(opts ...SupervisionOption) *Supervision {
	s := &Supervision{
		Mutex:      sync.Mutex{},
		directives: map[string]Directive{},
		maxRetries: DefaultMaxRestarts,
		window:     DefaultRestartWindow,
	}

	// set the default directive
	s.directives[errorType(&gerrors.PanicError{})] = RestartDirective

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Directive returns the directive configured for the concrete type of err.
// The "any error" rule, when present, wins over type-specific rules.
func (s *Supervision) Directive(err error) (Directive, bool) {
	s.Lock()
	defer s.Unlock()
	if directive, ok := s.directives[errorType(new(gerrors.AnyError))]; ok {
		return directive, true
	}
	directive, ok := s.directives[errorType(err)]
	return directive, ok
}

// MaxRetries returns the restart budget used with RestartDirective.
func (s *Supervision) MaxRetries() uint32 {
	s.Lock()
	defer s.Unlock()
	return s.maxRetries
}

// Window returns the sliding window over which restarts are counted.
func (s *Supervision) Window() time.Duration {
	s.Lock()
	defer s.Unlock()
	return s.window
}

// errorType returns the string representation of an error's type using reflection
func errorType(err error) string {
	if err == nil {
		return "nil"
	}

	rtype := reflect.TypeOf(err)
	if rtype.Kind() == reflect.Pointer {
		rtype = rtype.Elem()
	}

	return rtype.String()
}
