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

package actor

import (
	"context"
	"regexp"
	"sort"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	gerrors "github.com/tochemey/orderpipe/errors"
	"github.com/tochemey/orderpipe/log"
)

// defaultInitMaxRetries is the number of times PreStart is attempted before a
// spawn is considered failed.
const defaultInitMaxRetries = 5

var systemNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-_]*$`)

// ActorSystem hosts a set of named actors in a single process. It owns the
// actor registry and the message scheduler; all actors are spawned, looked up
// and stopped through it.
type ActorSystem struct {
	name           string
	logger         log.Logger
	askTimeout     time.Duration
	initMaxRetries int

	locker  sync.RWMutex
	actors  map[string]*PID
	started *atomic.Bool

	scheduler *scheduler
}

// Option defines a configuration option of the actor system
type Option func(*ActorSystem)

// WithLogger sets the logger used by the actor system and every actor it hosts.
func WithLogger(logger log.Logger) Option {
	return func(system *ActorSystem) {
		system.logger = logger
	}
}

// WithDefaultAskTimeout sets the default Ask timeout applied to actors
// spawned by the system.
func WithDefaultAskTimeout(timeout time.Duration) Option {
	return func(system *ActorSystem) {
		system.askTimeout = timeout
	}
}

// WithActorInitMaxRetries sets the number of times an actor's PreStart hook is
// attempted before the spawn fails.
func WithActorInitMaxRetries(retries int) Option {
	return func(system *ActorSystem) {
		system.initMaxRetries = retries
	}
}

// NewActorSystem creates a named actor system. The name must contain only word
// characters (i.e. [a-zA-Z0-9] plus non-leading '-' or '_').
func NewActorSystem(name string, opts ...Option) (*ActorSystem, error) {
	if name == "" {
		return nil, gerrors.ErrNameRequired
	}
	if !systemNamePattern.MatchString(name) {
		return nil, gerrors.ErrNameRequired
	}

	system := &ActorSystem{
		name:           name,
		logger:         log.DefaultLogger,
		askTimeout:     DefaultAskTimeout,
		initMaxRetries: defaultInitMaxRetries,
		actors:         map[string]*PID{},
		started:        atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt(system)
	}

	system.scheduler = newScheduler(system.logger, time.Second)
	return system, nil
}

// Name returns the name of the actor system.
func (system *ActorSystem) Name() string {
	return system.name
}

// Logger returns the logger of the actor system.
func (system *ActorSystem) Logger() log.Logger {
	return system.logger
}

// Start starts the actor system.
func (system *ActorSystem) Start(ctx context.Context) error {
	if !system.started.CompareAndSwap(false, true) {
		return gerrors.ErrSystemAlreadyStarted
	}
	system.scheduler.Start(ctx)
	system.logger.Infof("%s started", system.name)
	return nil
}

// Stop stops the actor system: every hosted actor is shut down and the
// scheduler is drained. Individual shutdown failures are aggregated and
// returned once all actors have been attempted.
func (system *ActorSystem) Stop(ctx context.Context) error {
	if !system.started.CompareAndSwap(true, false) {
		return gerrors.ErrSystemNotStarted
	}

	system.scheduler.Stop(ctx)

	system.locker.Lock()
	pids := make([]*PID, 0, len(system.actors))
	for _, pid := range system.actors {
		pids = append(pids, pid)
	}
	system.locker.Unlock()

	var (
		mu   sync.Mutex
		errs error
	)
	eg, egCtx := errgroup.WithContext(ctx)
	for _, pid := range pids {
		eg.Go(func() error {
			if err := pid.Shutdown(egCtx); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()

	system.logger.Infof("%s stopped", system.name)
	return errs
}

// Spawn creates and starts an actor under the given name. The name must be
// unique among running actors; spawning a duplicate name fails with
// ErrActorAlreadyExists.
func (system *ActorSystem) Spawn(ctx context.Context, name string, actor Actor, opts ...SpawnOption) (*PID, error) {
	if !system.started.Load() {
		return nil, gerrors.ErrSystemNotStarted
	}

	system.locker.Lock()
	if _, exists := system.actors[name]; exists {
		system.locker.Unlock()
		return nil, gerrors.NewErrActorAlreadyExists(name)
	}

	opts = append([]SpawnOption{WithAskTimeout(system.askTimeout)}, opts...)
	pid := newPID(name, actor, system, opts...)
	system.actors[name] = pid
	system.locker.Unlock()

	if err := pid.start(ctx); err != nil {
		system.removePID(name)
		return nil, err
	}

	system.logger.Infof("actor=(%s) started", name)
	return pid, nil
}

// Kill gracefully stops the named actor and removes it from the registry.
func (system *ActorSystem) Kill(ctx context.Context, name string) error {
	pid, err := system.LocalActor(name)
	if err != nil {
		return err
	}
	return pid.Shutdown(ctx)
}

// LocalActor returns the PID registered under the given name.
func (system *ActorSystem) LocalActor(name string) (*PID, error) {
	system.locker.RLock()
	pid, ok := system.actors[name]
	system.locker.RUnlock()
	if !ok {
		return nil, gerrors.NewErrActorNotFound(name)
	}
	return pid, nil
}

// Actors returns the sorted names of the actors currently registered.
func (system *ActorSystem) Actors() []string {
	system.locker.RLock()
	names := make([]string, 0, len(system.actors))
	for name := range system.actors {
		names = append(names, name)
	}
	system.locker.RUnlock()
	sort.Strings(names)
	return names
}

// Schedule delivers the given message to the actor at every interval.
func (system *ActorSystem) Schedule(message any, to *PID, interval time.Duration) error {
	return system.scheduler.Schedule(message, to, interval)
}

// ScheduleOnce delivers the given message to the actor once after the interval.
func (system *ActorSystem) ScheduleOnce(message any, to *PID, interval time.Duration) error {
	return system.scheduler.ScheduleOnce(message, to, interval)
}

// removePID drops the named actor from the registry.
func (system *ActorSystem) removePID(name string) {
	system.locker.Lock()
	delete(system.actors, name)
	system.locker.Unlock()
}
