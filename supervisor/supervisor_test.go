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

package supervisor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/orderpipe/actor"
	gerrors "github.com/tochemey/orderpipe/errors"
	"github.com/tochemey/orderpipe/log"
	"github.com/tochemey/orderpipe/supervisor"
)

type increment struct{}
type count struct{}
type fail struct{}

// counterActor accumulates increments; its count resets on restart.
type counterActor struct {
	count int
}

func (a *counterActor) PreStart(context.Context) error {
	a.count = 0
	return nil
}

func (a *counterActor) Receive(ctx *actor.ReceiveContext) {
	switch ctx.Message().(type) {
	case *increment:
		a.count++
	case *count:
		ctx.Response(a.count)
	case *fail:
		ctx.Err(errors.New("child failure"))
	default:
		ctx.Unhandled()
	}
}

func (a *counterActor) PostStop(context.Context) error {
	return nil
}

func counterSpec() *supervisor.ChildSpec {
	return &supervisor.ChildSpec{
		Make: func() actor.Actor { return new(counterActor) },
	}
}

func startSupervisor(t *testing.T) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	system, err := actor.NewActorSystem("testSys", actor.WithLogger(log.DiscardLogger))
	require.NoError(t, err)
	require.NoError(t, system.Start(context.Background()))
	t.Cleanup(func() {
		_ = system.Stop(context.Background())
	})

	pid, err := system.Spawn(context.Background(), "supervisor", supervisor.NewSupervisor())
	require.NoError(t, err)
	return system, pid
}

func childNames(t *testing.T, pid *actor.PID) []string {
	t.Helper()
	resp, err := actor.Ask(context.Background(), pid, &supervisor.GetChildren{}, time.Second)
	require.NoError(t, err)
	return resp.(*supervisor.Children).Names
}

func TestStartChild(t *testing.T) {
	ctx := context.Background()

	t.Run("With a fresh name", func(t *testing.T) {
		_, pid := startSupervisor(t)

		resp, err := actor.Ask(ctx, pid, &supervisor.StartChild{Name: "counter", Spec: counterSpec()}, time.Second)
		require.NoError(t, err)
		started := resp.(*supervisor.ChildStarted)
		require.NotNil(t, started.PID)
		assert.True(t, started.PID.IsRunning())
		assert.Equal(t, []string{"counter"}, childNames(t, pid))
	})
	t.Run("With a duplicate name as a no-op", func(t *testing.T) {
		_, pid := startSupervisor(t)

		resp, err := actor.Ask(ctx, pid, &supervisor.StartChild{Name: "counter", Spec: counterSpec()}, time.Second)
		require.NoError(t, err)
		original := resp.(*supervisor.ChildStarted).PID

		require.NoError(t, actor.Tell(ctx, original, &increment{}))

		resp, err = actor.Ask(ctx, pid, &supervisor.StartChild{Name: "counter", Spec: counterSpec()}, time.Second)
		require.NoError(t, err)
		again := resp.(*supervisor.ChildStarted).PID

		// the original child keeps running and is not replaced
		assert.Same(t, original, again)
		reply, err := actor.Ask(ctx, again, &count{}, time.Second)
		require.NoError(t, err)
		assert.Equal(t, 1, reply)
		assert.Equal(t, []string{"counter"}, childNames(t, pid))
	})
	t.Run("With children sorted", func(t *testing.T) {
		_, pid := startSupervisor(t)

		for _, name := range []string{"charlie", "alpha", "bravo"} {
			_, err := actor.Ask(ctx, pid, &supervisor.StartChild{Name: name, Spec: counterSpec()}, time.Second)
			require.NoError(t, err)
		}
		assert.Equal(t, []string{"alpha", "bravo", "charlie"}, childNames(t, pid))
	})
}

func TestStopChild(t *testing.T) {
	ctx := context.Background()

	t.Run("With a running child", func(t *testing.T) {
		system, pid := startSupervisor(t)

		resp, err := actor.Ask(ctx, pid, &supervisor.StartChild{Name: "counter", Spec: counterSpec()}, time.Second)
		require.NoError(t, err)
		child := resp.(*supervisor.ChildStarted).PID

		_, err = actor.Ask(ctx, pid, &supervisor.StopChild{Name: "counter"}, time.Second)
		require.NoError(t, err)

		assert.False(t, child.IsRunning())
		assert.Empty(t, childNames(t, pid))
		_, err = system.LocalActor("counter")
		assert.ErrorIs(t, err, gerrors.ErrActorNotFound)
	})
	t.Run("With an unknown name as a no-op", func(t *testing.T) {
		_, pid := startSupervisor(t)

		resp, err := actor.Ask(ctx, pid, &supervisor.StopChild{Name: "ghost"}, time.Second)
		require.NoError(t, err)
		assert.Equal(t, "ghost", resp.(*supervisor.ChildStopped).Name)
	})
}

func TestRestartChild(t *testing.T) {
	ctx := context.Background()

	t.Run("With a fresh instance from the same spec", func(t *testing.T) {
		_, pid := startSupervisor(t)

		resp, err := actor.Ask(ctx, pid, &supervisor.StartChild{Name: "counter", Spec: counterSpec()}, time.Second)
		require.NoError(t, err)
		original := resp.(*supervisor.ChildStarted).PID

		require.NoError(t, actor.Tell(ctx, original, &increment{}))
		assert.Eventually(t, func() bool {
			reply, err := actor.Ask(ctx, original, &count{}, time.Second)
			return err == nil && reply == 1
		}, time.Second, 10*time.Millisecond)

		resp, err = actor.Ask(ctx, pid, &supervisor.RestartChild{Name: "counter"}, time.Second)
		require.NoError(t, err)
		restarted := resp.(*supervisor.ChildRestarted).PID
		require.NotNil(t, restarted)
		assert.NotSame(t, original, restarted)

		// the restarted incarnation starts from a clean state
		reply, err := actor.Ask(ctx, restarted, &count{}, time.Second)
		require.NoError(t, err)
		assert.Equal(t, 0, reply)
		assert.Equal(t, []string{"counter"}, childNames(t, pid))
	})
	t.Run("With an unknown name as a no-op", func(t *testing.T) {
		_, pid := startSupervisor(t)

		resp, err := actor.Ask(ctx, pid, &supervisor.RestartChild{Name: "ghost"}, time.Second)
		require.NoError(t, err)
		restarted := resp.(*supervisor.ChildRestarted)
		assert.Equal(t, "ghost", restarted.Name)
		assert.Nil(t, restarted.PID)
	})
}

func TestChildFailurePolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("With a failing child restarted in place", func(t *testing.T) {
		_, pid := startSupervisor(t)

		resp, err := actor.Ask(ctx, pid, &supervisor.StartChild{Name: "counter", Spec: counterSpec()}, time.Second)
		require.NoError(t, err)
		child := resp.(*supervisor.ChildStarted).PID

		_, err = actor.Ask(ctx, child, &fail{}, time.Second)
		require.Error(t, err)

		assert.Eventually(t, func() bool {
			return child.RestartCount() == 1 && child.IsRunning()
		}, time.Second, 10*time.Millisecond)
	})
	t.Run("With the restart budget exhausted stopping the child only", func(t *testing.T) {
		_, pid := startSupervisor(t)

		resp, err := actor.Ask(ctx, pid, &supervisor.StartChild{Name: "counter", Spec: counterSpec()}, time.Second)
		require.NoError(t, err)
		child := resp.(*supervisor.ChildStarted).PID

		for range int(actor.DefaultMaxRestarts) + 1 {
			_, err = actor.Ask(ctx, child, &fail{}, time.Second)
			require.Error(t, err)
		}

		assert.Eventually(t, func() bool {
			return !child.IsRunning()
		}, time.Second, 10*time.Millisecond)
		// the supervisor itself survives
		assert.True(t, pid.IsRunning())
	})
	t.Run("With a dead registration pruned instead of blocking a fresh start", func(t *testing.T) {
		_, pid := startSupervisor(t)

		resp, err := actor.Ask(ctx, pid, &supervisor.StartChild{Name: "counter", Spec: counterSpec()}, time.Second)
		require.NoError(t, err)
		dead := resp.(*supervisor.ChildStarted).PID

		for range int(actor.DefaultMaxRestarts) + 1 {
			_, err = actor.Ask(ctx, dead, &fail{}, time.Second)
			require.Error(t, err)
		}
		require.Eventually(t, func() bool {
			return !dead.IsRunning()
		}, time.Second, 10*time.Millisecond)

		// the self-halted child no longer shows up
		assert.Empty(t, childNames(t, pid))

		// and its name is free for a fresh incarnation
		resp, err = actor.Ask(ctx, pid, &supervisor.StartChild{Name: "counter", Spec: counterSpec()}, time.Second)
		require.NoError(t, err)
		fresh := resp.(*supervisor.ChildStarted).PID
		require.NotNil(t, fresh)
		assert.NotSame(t, dead, fresh)
		assert.True(t, fresh.IsRunning())
		assert.Equal(t, []string{"counter"}, childNames(t, pid))
	})
}
