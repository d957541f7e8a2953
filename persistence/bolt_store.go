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
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/flowchartsman/retry"
	bolt "go.etcd.io/bbolt"

	gerrors "github.com/tochemey/orderpipe/errors"
)

var (
	eventsBucket    = []byte("events")
	snapshotsBucket = []byte("snapshots")
)

// BoltStore is an EventStore backed by an embedded bbolt database. Events of a
// persistence id live in their own nested bucket keyed by the big-endian
// sequence number, which makes replay a plain ordered cursor scan.
type BoltStore struct {
	path string
	db   *bolt.DB
}

var _ EventStore = (*BoltStore)(nil)

// NewBoltStore creates a BoltStore writing to the given file path. The
// database file is opened on Connect.
func NewBoltStore(path string) *BoltStore {
	return &BoltStore{path: path}
}

// Connect opens the database file. Opening is retried with a backoff since
// bbolt holds an exclusive file lock that a previous incarnation may still be
// releasing.
func (s *BoltStore) Connect(ctx context.Context) error {
	retrier := retry.NewRetrier(5, 100*time.Millisecond, time.Second)
	return retrier.RunContext(ctx, func(context.Context) error {
		db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: time.Second})
		if err != nil {
			return err
		}
		s.db = db
		return db.Update(func(tx *bolt.Tx) error {
			if _, err := tx.CreateBucketIfNotExists(eventsBucket); err != nil {
				return err
			}
			_, err := tx.CreateBucketIfNotExists(snapshotsBucket)
			return err
		})
	})
}

// Disconnect closes the database file.
func (s *BoltStore) Disconnect(context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WriteEvents durably appends events in a single transaction.
func (s *BoltStore) WriteEvents(_ context.Context, events []*Event) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, event := range events {
			bucket, err := tx.Bucket(eventsBucket).CreateBucketIfNotExists([]byte(event.PersistenceID))
			if err != nil {
				return err
			}
			key := sequenceKey(event.SequenceNumber)
			if bucket.Get(key) != nil {
				return gerrors.ErrDuplicateSeqNumber
			}
			payload, err := json.Marshal(event)
			if err != nil {
				return err
			}
			if err := bucket.Put(key, payload); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplayEvents fetches events within the sequence bounds, in order.
func (s *BoltStore) ReplayEvents(_ context.Context, persistenceID string, fromSequenceNumber, toSequenceNumber uint64) ([]*Event, error) {
	var out []*Event
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(eventsBucket).Bucket([]byte(persistenceID))
		if bucket == nil {
			return nil
		}
		cursor := bucket.Cursor()
		for key, value := cursor.Seek(sequenceKey(fromSequenceNumber)); key != nil; key, value = cursor.Next() {
			if binary.BigEndian.Uint64(key) > toSequenceNumber {
				break
			}
			event := new(Event)
			if err := json.Unmarshal(value, event); err != nil {
				return err
			}
			out = append(out, event)
		}
		return nil
	})
	return out, err
}

// GetLatestEvent fetches the latest event of the given persistence ID
func (s *BoltStore) GetLatestEvent(_ context.Context, persistenceID string) (*Event, error) {
	var out *Event
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(eventsBucket).Bucket([]byte(persistenceID))
		if bucket == nil {
			return nil
		}
		key, value := bucket.Cursor().Last()
		if key == nil {
			return nil
		}
		out = new(Event)
		return json.Unmarshal(value, out)
	})
	return out, err
}

// WriteSnapshot persists a snapshot for a given persistenceID
func (s *BoltStore) WriteSnapshot(_ context.Context, snapshot *Snapshot) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.Bucket(snapshotsBucket).CreateBucketIfNotExists([]byte(snapshot.PersistenceID))
		if err != nil {
			return err
		}
		payload, err := json.Marshal(snapshot)
		if err != nil {
			return err
		}
		return bucket.Put(sequenceKey(snapshot.SequenceNumber), payload)
	})
}

// GetLatestSnapshot fetches the latest snapshot of the given persistence ID
func (s *BoltStore) GetLatestSnapshot(_ context.Context, persistenceID string) (*Snapshot, error) {
	var out *Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(snapshotsBucket).Bucket([]byte(persistenceID))
		if bucket == nil {
			return nil
		}
		key, value := bucket.Cursor().Last()
		if key == nil {
			return nil
		}
		out = new(Snapshot)
		return json.Unmarshal(value, out)
	})
	return out, err
}

// DeleteSnapshots prunes the snapshots of the given persistence ID keeping the most recent ones
func (s *BoltStore) DeleteSnapshots(_ context.Context, persistenceID string, keep int) error {
	if keep < 0 {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(snapshotsBucket).Bucket([]byte(persistenceID))
		if bucket == nil {
			return nil
		}

		var keys [][]byte
		cursor := bucket.Cursor()
		for key, _ := cursor.First(); key != nil; key, _ = cursor.Next() {
			keys = append(keys, append([]byte(nil), key...))
		}
		if len(keys) <= keep {
			return nil
		}
		for _, key := range keys[:len(keys)-keep] {
			if err := bucket.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// sequenceKey encodes a sequence number as a big-endian key so that the
// natural bbolt key ordering matches the event ordering.
func sequenceKey(sequenceNumber uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, sequenceNumber)
	return key
}
