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

package persistence

import (
	"context"
	"sort"
	"sync"

	gerrors "github.com/tochemey/orderpipe/errors"
)

// MemoryStore keeps every event and snapshot in memory. It is intended for
// tests and local development; nothing survives a process restart.
type MemoryStore struct {
	mu        sync.Mutex
	events    map[string][]*Event
	snapshots map[string][]*Snapshot
}

var _ EventStore = (*MemoryStore)(nil)

// NewMemoryStore creates a new instance of MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:    map[string][]*Event{},
		snapshots: map[string][]*Snapshot{},
	}
}

// Connect connects to the event store
func (s *MemoryStore) Connect(context.Context) error {
	return nil
}

// Disconnect disconnects the event store
func (s *MemoryStore) Disconnect(context.Context) error {
	return nil
}

// WriteEvents persists events for a given persistenceID
func (s *MemoryStore) WriteEvents(_ context.Context, events []*Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range events {
		items := s.events[event.PersistenceID]
		for _, item := range items {
			if item.SequenceNumber == event.SequenceNumber {
				return gerrors.ErrDuplicateSeqNumber
			}
		}

		items = append(items, event)
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].SequenceNumber < items[j].SequenceNumber
		})
		s.events[event.PersistenceID] = items
	}
	return nil
}

// ReplayEvents fetches events for a given persistence ID within the sequence bounds
func (s *MemoryStore) ReplayEvents(_ context.Context, persistenceID string, fromSequenceNumber, toSequenceNumber uint64) ([]*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Event
	for _, item := range s.events[persistenceID] {
		if item.SequenceNumber >= fromSequenceNumber && item.SequenceNumber <= toSequenceNumber {
			out = append(out, item)
		}
	}
	return out, nil
}

// GetLatestEvent fetches the latest event of the given persistence ID
func (s *MemoryStore) GetLatestEvent(_ context.Context, persistenceID string) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.events[persistenceID]
	if len(items) == 0 {
		return nil, nil
	}
	return items[len(items)-1], nil
}

// WriteSnapshot persists a snapshot for a given persistenceID
func (s *MemoryStore) WriteSnapshot(_ context.Context, snapshot *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := append(s.snapshots[snapshot.PersistenceID], snapshot)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].SequenceNumber < items[j].SequenceNumber
	})
	s.snapshots[snapshot.PersistenceID] = items
	return nil
}

// GetLatestSnapshot fetches the latest snapshot of the given persistence ID
func (s *MemoryStore) GetLatestSnapshot(_ context.Context, persistenceID string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.snapshots[persistenceID]
	if len(items) == 0 {
		return nil, nil
	}
	return items[len(items)-1], nil
}

// DeleteSnapshots prunes the snapshots of the given persistence ID keeping the most recent ones
func (s *MemoryStore) DeleteSnapshots(_ context.Context, persistenceID string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.snapshots[persistenceID]
	if keep < 0 || len(items) <= keep {
		return nil
	}
	s.snapshots[persistenceID] = items[len(items)-keep:]
	return nil
}

// EventsCount returns the number of events persisted for the given persistence ID.
// It is a test helper and not part of the EventStore contract.
func (s *MemoryStore) EventsCount(persistenceID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events[persistenceID])
}

// SnapshotsCount returns the number of snapshots persisted for the given persistence ID.
// It is a test helper and not part of the EventStore contract.
func (s *MemoryStore) SnapshotsCount(persistenceID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots[persistenceID])
}
