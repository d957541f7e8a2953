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

// Package users implements the user registry entity: an event sourced
// behavior owning one user's state, rebuilt by replaying its event log.
package users

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gerrors "github.com/tochemey/orderpipe/errors"
	"github.com/tochemey/orderpipe/eventsourcing"
)

// User is the projected state of a user entity. A nil *User means the user
// does not exist (never created, or deleted).
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateUser creates the user. It fails with ErrUserAlreadyExists when the
// entity already holds a user.
type CreateUser struct {
	Name  string
	Email string
}

// GetUser returns the current user. It fails with ErrUserNotFound when absent.
type GetUser struct{}

// UpdateUser replaces the user's name and email. It fails with
// ErrUserNotFound when absent.
type UpdateUser struct {
	Name  string
	Email string
}

// DeleteUser clears the user's state. The identity may be recreated
// afterwards. It fails with ErrUserNotFound when absent.
type DeleteUser struct{}

// UserCreated is persisted when a user is created.
type UserCreated struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserUpdated is persisted when a user's fields are replaced.
type UserUpdated struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserDeleted is persisted when a user is removed.
type UserDeleted struct {
	ID        string    `json:"id"`
	DeletedAt time.Time `json:"deletedAt"`
}

const (
	userCreatedType = "user.created"
	userUpdatedType = "user.updated"
	userDeletedType = "user.deleted"
)

// Behavior is the event sourced behavior of a single user entity.
type Behavior struct {
	id    string
	clock func() time.Time
}

// enforce compilation error
var _ eventsourcing.Behavior = (*Behavior)(nil)

// BehaviorOption defines the various options of a user Behavior
type BehaviorOption func(*Behavior)

// WithClock sets the behavior clock. Tests inject a deterministic clock.
func WithClock(clock func() time.Time) BehaviorOption {
	return func(behavior *Behavior) {
		behavior.clock = clock
	}
}

// NewBehavior creates the behavior of the user entity with the given id.
func NewBehavior(id string, opts ...BehaviorOption) *Behavior {
	behavior := &Behavior{
		id:    id,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(behavior)
	}
	return behavior
}

// PersistenceID returns the identity under which events are journaled.
func (b *Behavior) PersistenceID() string {
	return "users/" + b.id
}

// InitialState returns the state before any event: no user.
func (b *Behavior) InitialState() eventsourcing.State {
	return (*User)(nil)
}

// HandleCommand validates the command against the current state and emits the
// event to persist. The command-level guards are authoritative: the event
// handlers never validate.
func (b *Behavior) HandleCommand(_ context.Context, command eventsourcing.Command, priorState eventsourcing.State) (eventsourcing.Event, error) {
	user := priorState.(*User)
	switch cmd := command.(type) {
	case *CreateUser:
		if user != nil {
			return nil, gerrors.NewErrUserAlreadyExists(b.id)
		}
		return &UserCreated{
			ID:        b.id,
			Name:      cmd.Name,
			Email:     cmd.Email,
			CreatedAt: b.clock(),
		}, nil
	case *GetUser:
		if user == nil {
			return nil, gerrors.NewErrUserNotFound(b.id)
		}
		return nil, nil
	case *UpdateUser:
		if user == nil {
			return nil, gerrors.NewErrUserNotFound(b.id)
		}
		return &UserUpdated{
			ID:        b.id,
			Name:      cmd.Name,
			Email:     cmd.Email,
			UpdatedAt: b.clock(),
		}, nil
	case *DeleteUser:
		if user == nil {
			return nil, gerrors.NewErrUserNotFound(b.id)
		}
		return &UserDeleted{
			ID:        b.id,
			DeletedAt: b.clock(),
		}, nil
	default:
		return nil, fmt.Errorf("command type=(%T) %w", command, gerrors.ErrUnhandled)
	}
}

// HandleEvent folds the event into the prior state. Event handlers are pure
// and never reject: an update over an absent user is a no-op since the
// command handler already guards that case.
func (b *Behavior) HandleEvent(_ context.Context, event eventsourcing.Event, priorState eventsourcing.State) (eventsourcing.State, error) {
	user := priorState.(*User)
	switch evt := event.(type) {
	case *UserCreated:
		return &User{
			ID:        evt.ID,
			Name:      evt.Name,
			Email:     evt.Email,
			CreatedAt: evt.CreatedAt,
		}, nil
	case *UserUpdated:
		if user == nil {
			return (*User)(nil), nil
		}
		updated := *user
		updated.Name = evt.Name
		updated.Email = evt.Email
		return &updated, nil
	case *UserDeleted:
		return (*User)(nil), nil
	default:
		return nil, fmt.Errorf("event type=(%T) %w", event, gerrors.ErrUnhandled)
	}
}

// MarshalEvent serializes an event into a type tag and a JSON payload.
func (b *Behavior) MarshalEvent(event eventsourcing.Event) (string, []byte, error) {
	var eventType string
	switch event.(type) {
	case *UserCreated:
		eventType = userCreatedType
	case *UserUpdated:
		eventType = userUpdatedType
	case *UserDeleted:
		eventType = userDeletedType
	default:
		return "", nil, fmt.Errorf("event type=(%T) %w", event, gerrors.ErrUnhandled)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return "", nil, err
	}
	return eventType, payload, nil
}

// UnmarshalEvent deserializes an event from its type tag and JSON payload.
func (b *Behavior) UnmarshalEvent(eventType string, payload []byte) (eventsourcing.Event, error) {
	switch eventType {
	case userCreatedType:
		event := new(UserCreated)
		return event, json.Unmarshal(payload, event)
	case userUpdatedType:
		event := new(UserUpdated)
		return event, json.Unmarshal(payload, event)
	case userDeletedType:
		event := new(UserDeleted)
		return event, json.Unmarshal(payload, event)
	default:
		return nil, fmt.Errorf("event type=(%s) %w", eventType, gerrors.ErrUnhandled)
	}
}

// MarshalState serializes the projected state. A nil user serializes to null.
func (b *Behavior) MarshalState(state eventsourcing.State) ([]byte, error) {
	return json.Marshal(state.(*User))
}

// UnmarshalState deserializes the projected state.
func (b *Behavior) UnmarshalState(payload []byte) (eventsourcing.State, error) {
	user := new(User)
	if err := json.Unmarshal(payload, user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		// a null snapshot unmarshals into the zero value: no user
		return (*User)(nil), nil
	}
	return user, nil
}
