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

// Package persistence defines the event log store contract used by
// event-sourced actors, together with an in-memory implementation for tests
// and a bbolt-backed implementation for durable single-node deployments.
package persistence

import (
	"context"
)

// Event is a single record of the event log. Events are keyed by persistence
// id and strictly ordered by sequence number within that id.
type Event struct {
	// PersistenceID is the identity of the entity the event belongs to.
	PersistenceID string `json:"persistenceId"`
	// SequenceNumber orders the event within its persistence id, starting at 1.
	SequenceNumber uint64 `json:"sequenceNumber"`
	// EventType tags the payload so it can be unmarshalled during replay.
	EventType string `json:"eventType"`
	// Payload is the serialized domain event.
	Payload []byte `json:"payload"`
	// Timestamp is the unix timestamp the event was appended at.
	Timestamp int64 `json:"timestamp"`
}

// Snapshot is a point-in-time capture of an entity's projected state. It
// bounds replay cost on restart: recovery loads the latest snapshot then
// replays only the events recorded after it.
type Snapshot struct {
	// PersistenceID is the identity of the entity the snapshot belongs to.
	PersistenceID string `json:"persistenceId"`
	// SequenceNumber is the sequence number of the last event folded into the state.
	SequenceNumber uint64 `json:"sequenceNumber"`
	// State is the serialized projected state.
	State []byte `json:"state"`
	// Timestamp is the unix timestamp the snapshot was taken at.
	Timestamp int64 `json:"timestamp"`
}

// EventStore represents the event log store.
// This helps implement any persistence storage whether it is an RDBMS, a
// No-SQL database or an embedded key-value store.
type EventStore interface {
	// Connect connects to the event store
	Connect(ctx context.Context) error
	// Disconnect disconnects the event store
	Disconnect(ctx context.Context) error
	// WriteEvents durably appends events for a given persistenceID. Sequence
	// numbers must be strictly increasing per persistence id; appending an
	// already-persisted sequence number fails with ErrDuplicateSeqNumber.
	WriteEvents(ctx context.Context, events []*Event) error
	// ReplayEvents fetches the events of a persistence id from a given
	// sequence number (inclusive) to a given sequence number (inclusive),
	// ordered by sequence number.
	ReplayEvents(ctx context.Context, persistenceID string, fromSequenceNumber, toSequenceNumber uint64) ([]*Event, error)
	// GetLatestEvent fetches the latest event of a persistence id. It returns
	// nil when the persistence id holds no event.
	GetLatestEvent(ctx context.Context, persistenceID string) (*Event, error)
	// WriteSnapshot persists a snapshot for a given persistenceID.
	WriteSnapshot(ctx context.Context, snapshot *Snapshot) error
	// GetLatestSnapshot fetches the latest snapshot of a persistence id. It
	// returns nil when the persistence id holds no snapshot.
	GetLatestSnapshot(ctx context.Context, persistenceID string) (*Snapshot, error)
	// DeleteSnapshots prunes the snapshots of a persistence id, keeping only
	// the given number of most recent ones.
	DeleteSnapshots(ctx context.Context, persistenceID string, keep int) error
}
