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
	"time"
)

// spawnConfig defines the tunables of an actor being spawned
type spawnConfig struct {
	mailbox     Mailbox
	supervision *Supervision
	askTimeout  time.Duration
}

// SpawnOption defines the various options to apply to a spawnConfig
type SpawnOption func(*spawnConfig)

// newSpawnConfig creates a spawnConfig with the defaults applied
func newSpawnConfig(opts ...SpawnOption) *spawnConfig {
	config := &spawnConfig{
		mailbox:     NewUnboundedMailbox(),
		supervision: NewSupervision(),
		askTimeout:  DefaultAskTimeout,
	}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// WithMailbox sets the mailbox implementation used by the actor being spawned.
func WithMailbox(mailbox Mailbox) SpawnOption {
	return func(config *spawnConfig) {
		config.mailbox = mailbox
	}
}

// WithSupervision sets the supervision policy applied to the actor being spawned.
func WithSupervision(supervision *Supervision) SpawnOption {
	return func(config *spawnConfig) {
		config.supervision = supervision
	}
}

// WithAskTimeout overrides the default Ask timeout for the actor being spawned.
func WithAskTimeout(timeout time.Duration) SpawnOption {
	return func(config *spawnConfig) {
		config.askTimeout = timeout
	}
}
