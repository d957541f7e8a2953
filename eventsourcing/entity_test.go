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

package eventsourcing_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/orderpipe/actor"
	gerrors "github.com/tochemey/orderpipe/errors"
	"github.com/tochemey/orderpipe/eventsourcing"
	"github.com/tochemey/orderpipe/log"
	"github.com/tochemey/orderpipe/persistence"
	"github.com/tochemey/orderpipe/users"
)

// failingStore wraps a MemoryStore and fails appends on demand.
type failingStore struct {
	*persistence.MemoryStore
	failWrites bool
}

func (s *failingStore) WriteEvents(ctx context.Context, events []*persistence.Event) error {
	if s.failWrites {
		return errors.New("disk full")
	}
	return s.MemoryStore.WriteEvents(ctx, events)
}

func startTestSystem(t *testing.T) *actor.ActorSystem {
	t.Helper()
	system, err := actor.NewActorSystem("testSys", actor.WithLogger(log.DiscardLogger))
	require.NoError(t, err)
	require.NoError(t, system.Start(context.Background()))
	t.Cleanup(func() {
		_ = system.Stop(context.Background())
	})
	return system
}

func TestEntity(t *testing.T) {
	t.Run("With create then read", func(t *testing.T) {
		system := startTestSystem(t)
		ctx := context.Background()
		store := persistence.NewMemoryStore()

		entity := eventsourcing.NewEntity(users.NewBehavior("user-1"), store)
		pid, err := system.Spawn(ctx, "user-1", entity)
		require.NoError(t, err)

		resp, err := actor.Ask(ctx, pid, &users.CreateUser{Name: "Jane", Email: "jane@example.com"}, time.Second)
		require.NoError(t, err)
		reply := resp.(*eventsourcing.Reply)
		assert.EqualValues(t, 1, reply.SequenceNumber)
		assert.IsType(t, new(users.UserCreated), reply.Event)

		resp, err = actor.Ask(ctx, pid, &users.GetUser{}, time.Second)
		require.NoError(t, err)
		state := resp.(*eventsourcing.Reply).State.(*users.User)
		assert.Equal(t, "Jane", state.Name)
		assert.Equal(t, "jane@example.com", state.Email)
	})
	t.Run("With duplicate create conflict", func(t *testing.T) {
		system := startTestSystem(t)
		ctx := context.Background()
		store := persistence.NewMemoryStore()

		entity := eventsourcing.NewEntity(users.NewBehavior("user-1"), store)
		pid, err := system.Spawn(ctx, "user-1", entity)
		require.NoError(t, err)

		_, err = actor.Ask(ctx, pid, &users.CreateUser{Name: "Jane", Email: "jane@example.com"}, time.Second)
		require.NoError(t, err)

		_, err = actor.Ask(ctx, pid, &users.CreateUser{Name: "Janet", Email: "janet@example.com"}, time.Second)
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrUserAlreadyExists)

		// the state is unchanged from after the first create
		resp, err := actor.Ask(ctx, pid, &users.GetUser{}, time.Second)
		require.NoError(t, err)
		state := resp.(*eventsourcing.Reply).State.(*users.User)
		assert.Equal(t, "Jane", state.Name)
		assert.Equal(t, 1, store.EventsCount("users/user-1"))
	})
	t.Run("With read of absent user", func(t *testing.T) {
		system := startTestSystem(t)
		ctx := context.Background()

		entity := eventsourcing.NewEntity(users.NewBehavior("user-1"), persistence.NewMemoryStore())
		pid, err := system.Spawn(ctx, "user-1", entity)
		require.NoError(t, err)

		_, err = actor.Ask(ctx, pid, &users.GetUser{}, time.Second)
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrUserNotFound)
	})
	t.Run("With replay equivalence across restart", func(t *testing.T) {
		system := startTestSystem(t)
		ctx := context.Background()
		store := persistence.NewMemoryStore()

		pid, err := system.Spawn(ctx, "user-1", eventsourcing.NewEntity(users.NewBehavior("user-1"), store))
		require.NoError(t, err)

		_, err = actor.Ask(ctx, pid, &users.CreateUser{Name: "Jane", Email: "jane@example.com"}, time.Second)
		require.NoError(t, err)
		_, err = actor.Ask(ctx, pid, &users.UpdateUser{Name: "Janet", Email: "janet@example.com"}, time.Second)
		require.NoError(t, err)
		require.NoError(t, pid.Shutdown(ctx))

		// a fresh incarnation over the same journal projects the same state
		revived, err := system.Spawn(ctx, "user-1", eventsourcing.NewEntity(users.NewBehavior("user-1"), store))
		require.NoError(t, err)

		resp, err := actor.Ask(ctx, revived, &eventsourcing.GetState{}, time.Second)
		require.NoError(t, err)
		reply := resp.(*eventsourcing.Reply)
		assert.EqualValues(t, 2, reply.SequenceNumber)
		state := reply.State.(*users.User)
		assert.Equal(t, "Janet", state.Name)
		assert.Equal(t, "janet@example.com", state.Email)
	})
	t.Run("With delete clearing state and replay", func(t *testing.T) {
		system := startTestSystem(t)
		ctx := context.Background()
		store := persistence.NewMemoryStore()

		pid, err := system.Spawn(ctx, "user-1", eventsourcing.NewEntity(users.NewBehavior("user-1"), store))
		require.NoError(t, err)

		_, err = actor.Ask(ctx, pid, &users.CreateUser{Name: "Jane", Email: "jane@example.com"}, time.Second)
		require.NoError(t, err)
		_, err = actor.Ask(ctx, pid, &users.DeleteUser{}, time.Second)
		require.NoError(t, err)

		_, err = actor.Ask(ctx, pid, &users.GetUser{}, time.Second)
		assert.ErrorIs(t, err, gerrors.ErrUserNotFound)

		// the identity may be recreated after a delete
		_, err = actor.Ask(ctx, pid, &users.CreateUser{Name: "Janet", Email: "janet@example.com"}, time.Second)
		require.NoError(t, err)

		require.NoError(t, pid.Shutdown(ctx))
		revived, err := system.Spawn(ctx, "user-1", eventsourcing.NewEntity(users.NewBehavior("user-1"), store))
		require.NoError(t, err)
		resp, err := actor.Ask(ctx, revived, &users.GetUser{}, time.Second)
		require.NoError(t, err)
		state := resp.(*eventsourcing.Reply).State.(*users.User)
		assert.Equal(t, "Janet", state.Name)
	})
	t.Run("With persistence failure leaving state untouched", func(t *testing.T) {
		system := startTestSystem(t)
		ctx := context.Background()
		store := &failingStore{MemoryStore: persistence.NewMemoryStore()}

		pid, err := system.Spawn(ctx, "user-1", eventsourcing.NewEntity(users.NewBehavior("user-1"), store))
		require.NoError(t, err)

		_, err = actor.Ask(ctx, pid, &users.CreateUser{Name: "Jane", Email: "jane@example.com"}, time.Second)
		require.NoError(t, err)

		store.failWrites = true
		_, err = actor.Ask(ctx, pid, &users.UpdateUser{Name: "Janet", Email: "janet@example.com"}, time.Second)
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrPersistenceFailure)

		// no state change without a durable append
		resp, err := actor.Ask(ctx, pid, &users.GetUser{}, time.Second)
		require.NoError(t, err)
		state := resp.(*eventsourcing.Reply).State.(*users.User)
		assert.Equal(t, "Jane", state.Name)
		assert.Equal(t, 1, store.EventsCount("users/user-1"))
	})
	t.Run("With snapshots taken and pruned", func(t *testing.T) {
		system := startTestSystem(t)
		ctx := context.Background()
		store := persistence.NewMemoryStore()

		pid, err := system.Spawn(ctx, "user-1", eventsourcing.NewEntity(users.NewBehavior("user-1"), store))
		require.NoError(t, err)

		_, err = actor.Ask(ctx, pid, &users.CreateUser{Name: "Jane", Email: "jane@example.com"}, time.Second)
		require.NoError(t, err)
		for i := range 2*eventsourcing.SnapshotEvery - 1 {
			_, err = actor.Ask(ctx, pid, &users.UpdateUser{
				Name:  fmt.Sprintf("Jane-%d", i),
				Email: "jane@example.com",
			}, time.Second)
			require.NoError(t, err)
		}

		assert.Equal(t, 2*eventsourcing.SnapshotEvery, store.EventsCount("users/user-1"))
		assert.Equal(t, eventsourcing.SnapshotsRetained, store.SnapshotsCount("users/user-1"))

		// recovery starts from the latest snapshot, then replays the tail
		require.NoError(t, pid.Shutdown(ctx))
		revived, err := system.Spawn(ctx, "user-1", eventsourcing.NewEntity(users.NewBehavior("user-1"), store))
		require.NoError(t, err)
		resp, err := actor.Ask(ctx, revived, &eventsourcing.GetState{}, time.Second)
		require.NoError(t, err)
		reply := resp.(*eventsourcing.Reply)
		assert.EqualValues(t, 2*eventsourcing.SnapshotEvery, reply.SequenceNumber)
		state := reply.State.(*users.User)
		assert.Equal(t, fmt.Sprintf("Jane-%d", 2*eventsourcing.SnapshotEvery-2), state.Name)
	})
}
