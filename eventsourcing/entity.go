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
	"errors"
	"math"
	"time"

	"go.uber.org/atomic"

	"github.com/tochemey/orderpipe/actor"
	gerrors "github.com/tochemey/orderpipe/errors"
	"github.com/tochemey/orderpipe/log"
	"github.com/tochemey/orderpipe/persistence"
)

const (
	// SnapshotEvery is the number of persisted events between snapshots.
	SnapshotEvery = 100
	// SnapshotsRetained is the number of most recent snapshots kept after pruning.
	SnapshotsRetained = 2
)

// GetState is the built-in read command replying with the current projected state.
type GetState struct{}

// Reply is the success reply of an entity command.
type Reply struct {
	// PersistenceID is the identity of the entity that handled the command.
	PersistenceID string
	// SequenceNumber is the sequence number of the persisted event; zero for reads.
	SequenceNumber uint64
	// Event is the persisted event; nil for reads.
	Event Event
	// State is the projected state after the command.
	State State
	// Timestamp is the time the reply was produced.
	Timestamp time.Time
}

// Entity is an event sourced actor: it owns one entity's mutable state,
// rebuilt by replaying its event log, processes commands sequentially and
// persists every emitted event before applying it and replying
// (persist-then-reply ordering, a correctness requirement).
type Entity struct {
	behavior Behavior
	store    persistence.EventStore

	currentState  State
	eventsCounter *atomic.Uint64
	logger        log.Logger
	clock         func() time.Time
}

// enforce compilation error
var _ actor.Actor = (*Entity)(nil)

// EntityOption defines the various options of an Entity
type EntityOption func(*Entity)

// WithLogger sets the entity logger
func WithLogger(logger log.Logger) EntityOption {
	return func(entity *Entity) {
		entity.logger = logger
	}
}

// WithClock sets the entity clock. Tests inject a deterministic clock.
func WithClock(clock func() time.Time) EntityOption {
	return func(entity *Entity) {
		entity.clock = clock
	}
}

// NewEntity returns an event sourced actor for the given behavior and store.
func NewEntity(behavior Behavior, store persistence.EventStore, opts ...EntityOption) *Entity {
	entity := &Entity{
		behavior:      behavior,
		store:         store,
		eventsCounter: atomic.NewUint64(0),
		logger:        log.DefaultLogger,
		clock:         time.Now,
	}
	for _, opt := range opts {
		opt(entity)
	}
	return entity
}

// PreStart connects to the event store and recovers the projected state from
// the latest snapshot plus the events recorded after it.
func (entity *Entity) PreStart(ctx context.Context) error {
	if entity.store == nil {
		return errors.New("event store is not defined")
	}
	if err := entity.store.Connect(ctx); err != nil {
		return err
	}
	return entity.recover(ctx)
}

// Receive processes any message dropped into the entity mailbox.
func (entity *Entity) Receive(ctx *actor.ReceiveContext) {
	switch ctx.Message().(type) {
	case *GetState:
		ctx.Response(&Reply{
			PersistenceID:  entity.behavior.PersistenceID(),
			SequenceNumber: entity.eventsCounter.Load(),
			State:          entity.currentState,
			Timestamp:      entity.clock(),
		})
	default:
		entity.handleCommand(ctx)
	}
}

// PostStop disconnects from the event store.
func (entity *Entity) PostStop(ctx context.Context) error {
	return entity.store.Disconnect(ctx)
}

// handleCommand runs the command handler and, when an event is emitted,
// persists it before applying it to the in-memory state and replying.
func (entity *Entity) handleCommand(ctx *actor.ReceiveContext) {
	goCtx := ctx.Context()
	command := ctx.Message()

	event, err := entity.behavior.HandleCommand(goCtx, command, entity.currentState)
	if err != nil {
		ctx.Response(err)
		return
	}

	// a nil event is a read-only path: nothing to persist
	if event == nil {
		ctx.Response(&Reply{
			PersistenceID:  entity.behavior.PersistenceID(),
			SequenceNumber: entity.eventsCounter.Load(),
			State:          entity.currentState,
			Timestamp:      entity.clock(),
		})
		return
	}

	eventType, payload, err := entity.behavior.MarshalEvent(event)
	if err != nil {
		ctx.Response(gerrors.NewErrPersistenceFailure(err))
		return
	}

	sequenceNumber := entity.eventsCounter.Load() + 1
	record := &persistence.Event{
		PersistenceID:  entity.behavior.PersistenceID(),
		SequenceNumber: sequenceNumber,
		EventType:      eventType,
		Payload:        payload,
		Timestamp:      entity.clock().Unix(),
	}

	// the append must be durable before any effect of the command is
	// observable: no state change and no reply until the store acknowledges
	if err := entity.store.WriteEvents(goCtx, []*persistence.Event{record}); err != nil {
		ctx.Response(gerrors.NewErrPersistenceFailure(err))
		return
	}

	newState, err := entity.behavior.HandleEvent(goCtx, event, entity.currentState)
	if err != nil {
		// the event is journaled; keep the counter in sync so replay and the
		// live projection diverge no further than this command
		entity.eventsCounter.Store(sequenceNumber)
		entity.logger.Errorf("%s failed to apply event type=(%s): %v", entity.behavior.PersistenceID(), eventType, err)
		ctx.Response(err)
		return
	}

	entity.currentState = newState
	entity.eventsCounter.Store(sequenceNumber)

	if sequenceNumber%SnapshotEvery == 0 {
		entity.takeSnapshot(goCtx, sequenceNumber)
	}

	ctx.Response(&Reply{
		PersistenceID:  entity.behavior.PersistenceID(),
		SequenceNumber: sequenceNumber,
		Event:          event,
		State:          entity.currentState,
		Timestamp:      entity.clock(),
	})
}

// takeSnapshot writes a snapshot of the current state and prunes old ones.
// Snapshot failures are logged, not surfaced: the event is already durable.
func (entity *Entity) takeSnapshot(ctx context.Context, sequenceNumber uint64) {
	state, err := entity.behavior.MarshalState(entity.currentState)
	if err != nil {
		entity.logger.Warnf("%s failed to marshal snapshot state: %v", entity.behavior.PersistenceID(), err)
		return
	}
	snapshot := &persistence.Snapshot{
		PersistenceID:  entity.behavior.PersistenceID(),
		SequenceNumber: sequenceNumber,
		State:          state,
		Timestamp:      entity.clock().Unix(),
	}
	if err := entity.store.WriteSnapshot(ctx, snapshot); err != nil {
		entity.logger.Warnf("%s failed to write snapshot: %v", entity.behavior.PersistenceID(), err)
		return
	}
	if err := entity.store.DeleteSnapshots(ctx, entity.behavior.PersistenceID(), SnapshotsRetained); err != nil {
		entity.logger.Warnf("%s failed to prune snapshots: %v", entity.behavior.PersistenceID(), err)
	}
}

// recover resets the entity to the latest snapshot when there is one and
// replays the events persisted after it. This is vital when the entity is
// restarting.
func (entity *Entity) recover(ctx context.Context) error {
	entity.currentState = entity.behavior.InitialState()
	entity.eventsCounter.Store(0)

	snapshot, err := entity.store.GetLatestSnapshot(ctx, entity.behavior.PersistenceID())
	if err != nil {
		return err
	}
	if snapshot != nil {
		state, err := entity.behavior.UnmarshalState(snapshot.State)
		if err != nil {
			return err
		}
		entity.currentState = state
		entity.eventsCounter.Store(snapshot.SequenceNumber)
	}

	events, err := entity.store.ReplayEvents(ctx, entity.behavior.PersistenceID(), entity.eventsCounter.Load()+1, math.MaxUint64)
	if err != nil {
		return err
	}
	for _, record := range events {
		event, err := entity.behavior.UnmarshalEvent(record.EventType, record.Payload)
		if err != nil {
			return err
		}
		state, err := entity.behavior.HandleEvent(ctx, event, entity.currentState)
		if err != nil {
			return err
		}
		entity.currentState = state
		entity.eventsCounter.Store(record.SequenceNumber)
	}
	return nil
}
