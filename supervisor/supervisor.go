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

// Package supervisor implements the supervisor actor: it starts, stops and
// restarts dynamically named children, each under a restart-on-failure policy
// bounded to a sliding-window retry budget.
package supervisor

import (
	"context"
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/tochemey/orderpipe/actor"
	"github.com/tochemey/orderpipe/log"
)

// ChildSpec describes how to build a child actor. Make is called on every
// (re)start so each incarnation gets a fresh actor instance.
type ChildSpec struct {
	Make    func() actor.Actor
	Options []actor.SpawnOption
}

// StartChild starts a new child under the given name and replies with a
// ChildStarted. Starting a name that is already running is a no-op with a
// warning: the original child keeps running and is not replaced.
type StartChild struct {
	Name string
	Spec *ChildSpec
}

// StopChild terminates and deregisters the named child, replying with a
// ChildStopped. An unknown name is a no-op with a warning.
type StopChild struct {
	Name string
}

// RestartChild stops the named child and immediately starts a fresh instance
// from the same spec, replying with a ChildRestarted.
type RestartChild struct {
	Name string
}

// GetChildren replies with the Children currently registered.
type GetChildren struct{}

// ChildStarted is the reply to a StartChild.
type ChildStarted struct {
	Name      string
	PID       *actor.PID
	Timestamp time.Time
}

// ChildStopped is the reply to a StopChild.
type ChildStopped struct {
	Name      string
	Timestamp time.Time
}

// ChildRestarted is the reply to a RestartChild.
type ChildRestarted struct {
	Name      string
	PID       *actor.PID
	Timestamp time.Time
}

// Children is the reply to a GetChildren: the sorted names of the running
// children.
type Children struct {
	Names     []string
	Timestamp time.Time
}

// Supervisor manages the lifecycle of dynamically started children. Each
// child runs under a restart-on-any-error policy bounded to
// actor.DefaultMaxRestarts restarts per actor.DefaultRestartWindow; past the
// budget the child is left stopped, which is fatal for that child only, never
// for the supervisor.
type Supervisor struct {
	specs   map[string]*ChildSpec
	pids    map[string]*actor.PID
	running mapset.Set[string]

	logger log.Logger
	clock  func() time.Time
}

// enforce compilation error
var _ actor.Actor = (*Supervisor)(nil)

// Option defines the various options of a Supervisor
type Option func(*Supervisor)

// WithLogger sets the supervisor logger
func WithLogger(logger log.Logger) Option {
	return func(supervisor *Supervisor) {
		supervisor.logger = logger
	}
}

// WithClock sets the supervisor clock. Tests inject a deterministic clock.
func WithClock(clock func() time.Time) Option {
	return func(supervisor *Supervisor) {
		supervisor.clock = clock
	}
}

// NewSupervisor creates a supervisor actor.
func NewSupervisor(opts ...Option) *Supervisor {
	supervisor := &Supervisor{
		logger: log.DefaultLogger,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(supervisor)
	}
	return supervisor
}

// PreStart resets the child registry.
func (supervisor *Supervisor) PreStart(context.Context) error {
	supervisor.specs = map[string]*ChildSpec{}
	supervisor.pids = map[string]*actor.PID{}
	supervisor.running = mapset.NewSet[string]()
	return nil
}

// Receive processes any message dropped into the supervisor mailbox.
func (supervisor *Supervisor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *StartChild:
		supervisor.startChild(ctx, msg)
	case *StopChild:
		supervisor.stopChild(ctx, msg)
	case *RestartChild:
		supervisor.restartChild(ctx, msg)
	case *GetChildren:
		supervisor.children(ctx)
	default:
		ctx.Unhandled()
	}
}

// PostStop stops every running child.
func (supervisor *Supervisor) PostStop(ctx context.Context) error {
	for name := range supervisor.pids {
		if err := supervisor.pids[name].Shutdown(ctx); err != nil {
			supervisor.logger.Warnf("failed to stop child=(%s): %v", name, err)
		}
	}
	supervisor.specs = nil
	supervisor.pids = nil
	supervisor.running = nil
	return nil
}

func (supervisor *Supervisor) startChild(ctx *actor.ReceiveContext, msg *StartChild) {
	if pid, ok := supervisor.pids[msg.Name]; ok && pid.IsRunning() {
		supervisor.logger.Warnf("child=(%s) is already running, ignoring start", msg.Name)
		ctx.Response(&ChildStarted{
			Name:      msg.Name,
			PID:       pid,
			Timestamp: supervisor.clock(),
		})
		return
	}
	// a child that burned through its restart budget self-halts without going
	// through StopChild; the stale registration must not block a fresh start
	supervisor.forget(msg.Name)

	pid, err := supervisor.spawn(ctx, msg.Name, msg.Spec)
	if err != nil {
		ctx.Response(err)
		return
	}

	supervisor.specs[msg.Name] = msg.Spec
	supervisor.pids[msg.Name] = pid
	supervisor.running.Add(msg.Name)

	ctx.Response(&ChildStarted{
		Name:      msg.Name,
		PID:       pid,
		Timestamp: supervisor.clock(),
	})
}

func (supervisor *Supervisor) stopChild(ctx *actor.ReceiveContext, msg *StopChild) {
	if !supervisor.running.Contains(msg.Name) {
		supervisor.logger.Warnf("child=(%s) is not running, ignoring stop", msg.Name)
		ctx.Response(&ChildStopped{
			Name:      msg.Name,
			Timestamp: supervisor.clock(),
		})
		return
	}

	if err := supervisor.halt(ctx.Context(), msg.Name); err != nil {
		ctx.Response(err)
		return
	}
	delete(supervisor.specs, msg.Name)

	ctx.Response(&ChildStopped{
		Name:      msg.Name,
		Timestamp: supervisor.clock(),
	})
}

// restartChild stops the child then immediately starts a fresh instance from
// the registered spec, so a restart is a single command for the caller.
func (supervisor *Supervisor) restartChild(ctx *actor.ReceiveContext, msg *RestartChild) {
	spec, ok := supervisor.specs[msg.Name]
	if !ok {
		supervisor.logger.Warnf("child=(%s) is not running, ignoring restart", msg.Name)
		ctx.Response(&ChildRestarted{
			Name:      msg.Name,
			Timestamp: supervisor.clock(),
		})
		return
	}

	if err := supervisor.halt(ctx.Context(), msg.Name); err != nil {
		ctx.Response(err)
		return
	}

	pid, err := supervisor.spawn(ctx, msg.Name, spec)
	if err != nil {
		delete(supervisor.specs, msg.Name)
		ctx.Response(err)
		return
	}
	supervisor.pids[msg.Name] = pid
	supervisor.running.Add(msg.Name)

	ctx.Response(&ChildRestarted{
		Name:      msg.Name,
		PID:       pid,
		Timestamp: supervisor.clock(),
	})
}

func (supervisor *Supervisor) children(ctx *actor.ReceiveContext) {
	for _, name := range supervisor.running.ToSlice() {
		if !supervisor.pids[name].IsRunning() {
			supervisor.forget(name)
		}
	}
	names := supervisor.running.ToSlice()
	sort.Strings(names)
	ctx.Response(&Children{
		Names:     names,
		Timestamp: supervisor.clock(),
	})
}

// spawn starts a child in the hosting actor system under the default
// restart-on-any-error policy; options on the child spec may override it.
func (supervisor *Supervisor) spawn(ctx *actor.ReceiveContext, name string, spec *ChildSpec) (*actor.PID, error) {
	opts := append([]actor.SpawnOption{
		actor.WithSupervision(actor.NewSupervision(
			actor.WithAnyErrorDirective(actor.RestartDirective),
			actor.WithRetry(actor.DefaultMaxRestarts, actor.DefaultRestartWindow),
		)),
	}, spec.Options...)
	return ctx.Self().ActorSystem().Spawn(ctx.Context(), name, spec.Make(), opts...)
}

// forget drops every trace of the named child from the registry.
func (supervisor *Supervisor) forget(name string) {
	supervisor.running.Remove(name)
	delete(supervisor.pids, name)
	delete(supervisor.specs, name)
}

// halt shuts the named child down and drops it from the registry.
func (supervisor *Supervisor) halt(ctx context.Context, name string) error {
	pid := supervisor.pids[name]
	supervisor.running.Remove(name)
	delete(supervisor.pids, name)
	if pid == nil {
		return nil
	}
	return pid.Shutdown(ctx)
}
