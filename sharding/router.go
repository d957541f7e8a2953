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

// Package sharding implements the sharded entity router: the single entry
// point routing a command for a given entity id to the one live instance of
// that entity's actor, spawning it on first reference and passivating it when
// idle.
package sharding

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tochemey/orderpipe/actor"
	gerrors "github.com/tochemey/orderpipe/errors"
	"github.com/tochemey/orderpipe/hash"
	"github.com/tochemey/orderpipe/log"
	"github.com/tochemey/orderpipe/passivation"
)

const (
	// DefaultShards is the number of shards when none is configured.
	DefaultShards = 16
	// DefaultSweepInterval is how often idle entities are checked for passivation.
	DefaultSweepInterval = 30 * time.Second
)

// EntityFactory builds the actor owning the given entity id. It is called on
// first reference and again whenever a passivated entity is respawned.
type EntityFactory func(entityID string) actor.Actor

// Envelope wraps a command with the id of the entity it targets. The router
// unwraps the envelope and forwards the command, so the entity actor replies
// directly to the original caller.
type Envelope struct {
	EntityID string
	Message  any
}

// Passivate stops the named entity, replying with a Passivated. The next
// envelope referencing the id respawns it. This is the stop contract a
// placement coordinator relies on to rebalance safely.
type Passivate struct {
	EntityID string
}

// Passivated is the reply to a Passivate.
type Passivated struct {
	EntityID  string
	Timestamp time.Time
}

// GetEntities replies with the Entities currently resident.
type GetEntities struct{}

// Entities is the reply to a GetEntities: the sorted ids of the live entities.
type Entities struct {
	IDs       []string
	Timestamp time.Time
}

// sweepIdle triggers a passivation sweep. It is delivered by the system
// scheduler so the residence table is only ever touched by the router's loop.
type sweepIdle struct{}

// entry tracks one resident entity.
type entry struct {
	pid          *actor.PID
	lastActivity time.Time
}

// Router owns the mapping from entity id to the live entity actor. Entity ids
// are hashed onto a fixed set of shards; the shard number qualifies the actor
// name so two routers can host disjoint entity namespaces in one system.
type Router struct {
	factory  EntityFactory
	hasher   hash.Hasher
	shards   uint64
	strategy passivation.Strategy
	interval time.Duration

	entities  map[string]*entry
	scheduled bool

	logger log.Logger
	clock  func() time.Time
}

// enforce compilation error
var _ actor.Actor = (*Router)(nil)

// Option defines the various options of a Router
type Option func(*Router)

// WithHasher sets the hasher assigning entity ids to shards.
func WithHasher(hasher hash.Hasher) Option {
	return func(router *Router) {
		router.hasher = hasher
	}
}

// WithShards sets the number of shards entity ids are hashed onto.
func WithShards(shards uint64) Option {
	return func(router *Router) {
		router.shards = shards
	}
}

// WithPassivation sets the strategy deciding when idle entities are stopped.
func WithPassivation(strategy passivation.Strategy) Option {
	return func(router *Router) {
		router.strategy = strategy
	}
}

// WithSweepInterval sets how often the passivation sweep runs.
func WithSweepInterval(interval time.Duration) Option {
	return func(router *Router) {
		router.interval = interval
	}
}

// WithLogger sets the router logger
func WithLogger(logger log.Logger) Option {
	return func(router *Router) {
		router.logger = logger
	}
}

// WithClock sets the router clock. Tests inject a deterministic clock.
func WithClock(clock func() time.Time) Option {
	return func(router *Router) {
		router.clock = clock
	}
}

// NewRouter creates a sharded entity router spawning entities through the
// given factory. Entities are long-lived unless a passivation strategy is set.
func NewRouter(factory EntityFactory, opts ...Option) *Router {
	router := &Router{
		factory:  factory,
		hasher:   hash.DefaultHasher(),
		shards:   DefaultShards,
		strategy: passivation.NewLongLivedStrategy(),
		interval: DefaultSweepInterval,
		logger:   log.DefaultLogger,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(router)
	}
	return router
}

// PreStart resets the residence table.
func (router *Router) PreStart(context.Context) error {
	if router.factory == nil {
		return errors.New("entity factory is not defined")
	}
	if router.shards == 0 {
		return errors.New("shards must be greater than zero")
	}
	router.entities = map[string]*entry{}
	router.scheduled = false
	return nil
}

// Receive processes any message dropped into the router mailbox.
func (router *Router) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *Envelope:
		router.route(ctx, msg)
	case *Passivate:
		router.passivate(ctx, msg)
	case *GetEntities:
		router.resident(ctx)
	case *sweepIdle:
		router.sweep(ctx)
	default:
		ctx.Unhandled()
	}
}

// PostStop stops every resident entity.
func (router *Router) PostStop(ctx context.Context) error {
	for entityID := range router.entities {
		if err := router.entities[entityID].pid.Shutdown(ctx); err != nil {
			router.logger.Warnf("failed to stop entity=(%s): %v", entityID, err)
		}
	}
	router.entities = nil
	return nil
}

// route forwards the enveloped command to the entity owner, spawning it on
// first reference. The forward preserves the caller's reply channel.
func (router *Router) route(ctx *actor.ReceiveContext, msg *Envelope) {
	router.ensureSweep(ctx)

	item, ok := router.entities[msg.EntityID]
	if !ok {
		pid, err := router.spawn(ctx, msg.EntityID)
		if err != nil {
			ctx.Response(err)
			return
		}
		item = &entry{pid: pid}
		router.entities[msg.EntityID] = item
	}

	item.lastActivity = router.clock()
	ctx.Forward(item.pid, msg.Message)
}

func (router *Router) passivate(ctx *actor.ReceiveContext, msg *Passivate) {
	item, ok := router.entities[msg.EntityID]
	if ok {
		delete(router.entities, msg.EntityID)
		if err := item.pid.Shutdown(ctx.Context()); err != nil {
			ctx.Response(err)
			return
		}
	}
	ctx.Response(&Passivated{
		EntityID:  msg.EntityID,
		Timestamp: router.clock(),
	})
}

func (router *Router) resident(ctx *actor.ReceiveContext) {
	ids := make([]string, 0, len(router.entities))
	for entityID := range router.entities {
		ids = append(ids, entityID)
	}
	sort.Strings(ids)
	ctx.Response(&Entities{
		IDs:       ids,
		Timestamp: router.clock(),
	})
}

// sweep stops every entity the strategy considers idle.
func (router *Router) sweep(ctx *actor.ReceiveContext) {
	now := router.clock()
	for entityID, item := range router.entities {
		idle := now.Sub(item.lastActivity)
		if !router.strategy.ShouldPassivate(idle, item.pid.ProcessedCount()) {
			continue
		}
		delete(router.entities, entityID)
		if err := item.pid.Shutdown(ctx.Context()); err != nil {
			router.logger.Warnf("failed to passivate entity=(%s): %v", entityID, err)
			continue
		}
		router.logger.Infof("entity=(%s) passivated after %s idle", entityID, idle)
	}
}

// spawn starts the entity actor under its sharded name. A name collision from
// a previous incarnation resolves to the already running actor.
func (router *Router) spawn(ctx *actor.ReceiveContext, entityID string) (*actor.PID, error) {
	name := router.entityName(ctx.Self().Name(), entityID)
	pid, err := ctx.Self().ActorSystem().Spawn(ctx.Context(), name, router.factory(entityID))
	if err != nil {
		if errors.Is(err, gerrors.ErrActorAlreadyExists) {
			return ctx.Self().ActorSystem().LocalActor(name)
		}
		return nil, err
	}
	return pid, nil
}

// entityName qualifies the entity id with the owning router and its shard.
func (router *Router) entityName(routerName, entityID string) string {
	shard := router.hasher.HashCode([]byte(entityID)) % router.shards
	return fmt.Sprintf("%s-%d-%s", routerName, shard, entityID)
}

// ensureSweep schedules the periodic passivation sweep on the first routed
// command.
func (router *Router) ensureSweep(ctx *actor.ReceiveContext) {
	if router.scheduled {
		return
	}
	if _, ok := router.strategy.(*passivation.LongLivedStrategy); ok {
		router.scheduled = true
		return
	}
	if err := ctx.Self().ActorSystem().Schedule(&sweepIdle{}, ctx.Self(), router.interval); err != nil {
		router.logger.Warnf("%s failed to schedule passivation sweep: %v", ctx.Self().Name(), err)
		return
	}
	router.scheduled = true
}
