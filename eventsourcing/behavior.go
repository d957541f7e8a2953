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

package eventsourcing

import (
	"context"
)

// Command is a message requesting a state change or a read of an entity.
type Command any

// Event is a fact emitted by a command handler and persisted to the event log.
type Event any

// State is the projected state of an entity, the fold of all its events.
type State any

// Behavior defines an event sourced behavior when modeling an entity.
//
// The command handlers define how to handle each incoming command, which
// validations must be applied, and finally, which event will be persisted if
// any. When there is no event to be persisted a nil can be returned as a
// read-only path. Command handlers are the meat of the event sourced entity:
// they encode the business rules and act as the guardian of the entity's
// consistency. The command handler must first validate that the incoming
// command can be applied to the current model state.
//
// The event handlers mutate the state of the entity by applying events to it.
// Event handlers must be pure functions as they are used when replaying the
// event log: validation belongs in the command handler, never here.
type Behavior interface {
	// PersistenceID returns the identity under which events are journaled.
	PersistenceID() string
	// InitialState returns the entity's state before any event is applied.
	InitialState() State
	// HandleCommand validates the command against the prior state and returns
	// the event to persist, or nil for a read-only command.
	HandleCommand(ctx context.Context, command Command, priorState State) (event Event, err error)
	// HandleEvent folds the event into the prior state and returns the new state.
	HandleEvent(ctx context.Context, event Event, priorState State) (state State, err error)
	// MarshalEvent serializes an event into a type tag and a payload.
	MarshalEvent(event Event) (eventType string, payload []byte, err error)
	// UnmarshalEvent deserializes an event from its type tag and payload.
	UnmarshalEvent(eventType string, payload []byte) (Event, error)
	// MarshalState serializes the projected state.
	MarshalState(state State) ([]byte, error)
	// UnmarshalState deserializes the projected state.
	UnmarshalState(payload []byte) (State, error)
}
