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
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/orderpipe/errors"
)

func testStores(t *testing.T) map[string]EventStore {
	t.Helper()
	return map[string]EventStore{
		"memory": NewMemoryStore(),
		"bolt":   NewBoltStore(filepath.Join(t.TempDir(), "journal.db")),
	}
}

func newEvent(persistenceID string, sequenceNumber uint64) *Event {
	return &Event{
		PersistenceID:  persistenceID,
		SequenceNumber: sequenceNumber,
		EventType:      "user.created",
		Payload:        []byte(fmt.Sprintf(`{"seq":%d}`, sequenceNumber)),
		Timestamp:      int64(sequenceNumber),
	}
}

func TestEventStore(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Connect(ctx))
			t.Cleanup(func() {
				require.NoError(t, store.Disconnect(ctx))
			})

			t.Run("With write and ordered replay", func(t *testing.T) {
				const persistenceID = "users/ordered"
				for seq := uint64(1); seq <= 5; seq++ {
					require.NoError(t, store.WriteEvents(ctx, []*Event{newEvent(persistenceID, seq)}))
				}

				events, err := store.ReplayEvents(ctx, persistenceID, 1, 5)
				require.NoError(t, err)
				require.Len(t, events, 5)
				for i, event := range events {
					assert.EqualValues(t, i+1, event.SequenceNumber)
				}
			})

			t.Run("With replay bounds", func(t *testing.T) {
				const persistenceID = "users/bounded"
				for seq := uint64(1); seq <= 10; seq++ {
					require.NoError(t, store.WriteEvents(ctx, []*Event{newEvent(persistenceID, seq)}))
				}

				events, err := store.ReplayEvents(ctx, persistenceID, 4, 7)
				require.NoError(t, err)
				require.Len(t, events, 4)
				assert.EqualValues(t, 4, events[0].SequenceNumber)
				assert.EqualValues(t, 7, events[len(events)-1].SequenceNumber)
			})

			t.Run("With replay of unknown id", func(t *testing.T) {
				events, err := store.ReplayEvents(ctx, "users/ghost", 1, 100)
				require.NoError(t, err)
				assert.Empty(t, events)
			})

			t.Run("With duplicate sequence number", func(t *testing.T) {
				const persistenceID = "users/duplicate"
				require.NoError(t, store.WriteEvents(ctx, []*Event{newEvent(persistenceID, 1)}))
				err := store.WriteEvents(ctx, []*Event{newEvent(persistenceID, 1)})
				require.Error(t, err)
				assert.ErrorIs(t, err, gerrors.ErrDuplicateSeqNumber)
			})

			t.Run("With latest event", func(t *testing.T) {
				const persistenceID = "users/latest"
				latest, err := store.GetLatestEvent(ctx, persistenceID)
				require.NoError(t, err)
				assert.Nil(t, latest)

				for seq := uint64(1); seq <= 3; seq++ {
					require.NoError(t, store.WriteEvents(ctx, []*Event{newEvent(persistenceID, seq)}))
				}
				latest, err = store.GetLatestEvent(ctx, persistenceID)
				require.NoError(t, err)
				require.NotNil(t, latest)
				assert.EqualValues(t, 3, latest.SequenceNumber)
			})

			t.Run("With snapshots pruned to most recent", func(t *testing.T) {
				const persistenceID = "users/snapshots"
				latest, err := store.GetLatestSnapshot(ctx, persistenceID)
				require.NoError(t, err)
				assert.Nil(t, latest)

				for seq := uint64(100); seq <= 500; seq += 100 {
					require.NoError(t, store.WriteSnapshot(ctx, &Snapshot{
						PersistenceID:  persistenceID,
						SequenceNumber: seq,
						State:          []byte(`{}`),
						Timestamp:      int64(seq),
					}))
				}

				require.NoError(t, store.DeleteSnapshots(ctx, persistenceID, 2))

				latest, err = store.GetLatestSnapshot(ctx, persistenceID)
				require.NoError(t, err)
				require.NotNil(t, latest)
				assert.EqualValues(t, 500, latest.SequenceNumber)

				// the snapshot below the retained window is gone
				require.NoError(t, store.DeleteSnapshots(ctx, persistenceID, 1))
				latest, err = store.GetLatestSnapshot(ctx, persistenceID)
				require.NoError(t, err)
				require.NotNil(t, latest)
				assert.EqualValues(t, 500, latest.SequenceNumber)
			})
		})
	}
}
